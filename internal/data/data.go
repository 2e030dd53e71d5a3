package data

import (
	"os"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/pkg/errors"
)

// LoadCodes reads a newline-delimited code list. Lines are trimmed and blank
// lines dropped; an empty result is an error. When pattern is non-empty every
// code must match it.
func LoadCodes(filename, pattern string) ([]string, error) {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", filename)
	}

	codes := ParseCodes(string(raw))
	if len(codes) == 0 {
		return nil, errors.Errorf("no codes found in %s", filename)
	}

	if pattern != "" {
		if err := checkPattern(codes, pattern); err != nil {
			return nil, errors.Wrap(err, filename)
		}
	}

	return codes, nil
}

func ParseCodes(s string) []string {
	lines := strings.Split(s, "\n")

	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

func checkPattern(codes []string, expr string) error {
	re, err := regexp2.Compile(expr, 0)
	if err != nil {
		return errors.Wrap(err, "invalid code pattern")
	}

	for _, code := range codes {
		ok, err := re.MatchString(code)
		if err != nil {
			return errors.Wrapf(err, "code pattern match error on %q", code)
		}
		if !ok {
			return errors.Errorf("code %q does not match pattern %q", code, expr)
		}
	}
	return nil
}
