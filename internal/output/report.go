package output

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/tdh8316/statuscheck/internal/scan"
)

// FormatReport writes the three buckets as plain text sections:
// "200:", "400:" and "OTHER:" separated by a blank line.
func FormatReport(w io.Writer, b scan.Buckets) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "200:")
	for _, code := range b.OK {
		fmt.Fprintln(bw, code)
	}
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, "400:")
	for _, code := range b.Bad {
		fmt.Fprintln(bw, code)
	}
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, "OTHER:")
	for _, o := range b.Other {
		fmt.Fprintf(bw, "%d: %s\n", o.Status, o.Code)
	}

	return bw.Flush()
}

// WriteReport replaces path with the formatted report.
func WriteReport(path string, b scan.Buckets) error {
	var buf bytes.Buffer
	if err := FormatReport(&buf, b); err != nil {
		return errors.Wrapf(err, "failed to write results to %s", path)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "failed to write results to %s", path)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return errors.Wrapf(err, "failed to write results to %s", path)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrapf(err, "failed to write results to %s", path)
	}
	return nil
}
