package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/tdh8316/statuscheck/internal/config"
)

var ErrHelp = errors.New("help requested")

type Options struct {
	NoColor bool
	Verbose bool

	ConfigFile string

	// Overrides; zero values mean "not set on the command line".
	InputFile   string
	OutputFile  string
	Pattern     string
	Concurrency int
	MaxRetries  int

	set map[string]bool
}

const usageText = `
usage:
  statuscheck [flags]

Reads codes from the input file, sends GET BASE_URL/<code> for each one and
writes the codes grouped by status (200, 400, other) to the output file.

environment (also read from .env):
  BASE_URL              endpoint the codes are appended to (required); a "/"
                        is always put between a path base and the code, so
                        https://h/gift/GC- with code 123 requests
                        https://h/gift/GC-/123; end the base with "?name="
                        to send the code as a query value instead
  COOKIE                Cookie header sent with every request
  USER_AGENT            User-Agent header (default: statuscheck/0.1)
  PROXY_URL             socks5:// or http:// proxy for every request

flags:
  -h, --help            show this help message and exit
  --no-color            disable colored stdout output
  -v, --verbose         print debug logs and the resolved configuration

options:
  --config PATH         YAML config file (default: statuscheck.yml, optional)
  --input PATH          code list (default: .data.txt)
  --output PATH         report file (default: results.txt)
  --pattern EXPR        regular expression every code must match
  --concurrency N       parallel requests (default: 1)
  --max-retries N       give up after N retries of one code (default: 0, never)
`

func Parse(args []string, stdout, stderr io.Writer) (Options, error) {
	var (
		opts Options
		help bool
	)

	fs := flag.NewFlagSet("statuscheck", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.Usage = func() {
		_, _ = fmt.Fprint(stdout, usageText)
	}

	fs.BoolVar(&help, "h", false, "show help")
	fs.BoolVar(&help, "help", false, "show help")

	fs.BoolVar(&opts.NoColor, "no-color", false, "disable colored output")
	fs.BoolVar(&opts.Verbose, "v", false, "verbose output")
	fs.BoolVar(&opts.Verbose, "verbose", false, "verbose output")

	fs.StringVar(&opts.ConfigFile, "config", config.DefaultFile, "config file path")
	fs.StringVar(&opts.InputFile, "input", "", "code list path")
	fs.StringVar(&opts.OutputFile, "output", "", "report path")
	fs.StringVar(&opts.Pattern, "pattern", "", "code pattern")
	fs.IntVar(&opts.Concurrency, "concurrency", 0, "parallel requests")
	fs.IntVar(&opts.MaxRetries, "max-retries", 0, "retry ceiling per code")

	if err := fs.Parse(args); err != nil {
		return Options{}, err
	}
	if help {
		fs.Usage()
		return Options{}, ErrHelp
	}
	if fs.NArg() > 0 {
		return Options{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	opts.set = map[string]bool{}
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })

	if opts.set["concurrency"] && opts.Concurrency < 1 {
		return Options{}, fmt.Errorf("--concurrency must be at least 1")
	}
	if opts.MaxRetries < 0 {
		return Options{}, fmt.Errorf("--max-retries must not be negative")
	}

	return opts, nil
}

// Apply overlays explicitly set flags on cfg.
func (o Options) Apply(cfg config.Config) config.Config {
	if o.set["input"] {
		cfg.InputFile = o.InputFile
	}
	if o.set["output"] {
		cfg.OutputFile = o.OutputFile
	}
	if o.set["pattern"] {
		cfg.CodePattern = o.Pattern
	}
	if o.set["concurrency"] {
		cfg.Concurrency = o.Concurrency
	}
	if o.set["max-retries"] {
		cfg.MaxRetries = o.MaxRetries
	}
	return cfg
}
