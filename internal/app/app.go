package app

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/k0kubun/pp/v3"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tdh8316/statuscheck/internal/cli"
	"github.com/tdh8316/statuscheck/internal/config"
	"github.com/tdh8316/statuscheck/internal/data"
	"github.com/tdh8316/statuscheck/internal/httpx"
	"github.com/tdh8316/statuscheck/internal/output"
	"github.com/tdh8316/statuscheck/internal/scan"
)

func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := cli.Parse(args, stdout, stderr)
	if err != nil {
		if errors.Is(err, cli.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err.Error())
		return 2
	}

	color.NoColor = color.NoColor || opts.NoColor

	log := newLogger(stderr, opts.Verbose)

	if err := run(ctx, opts, stdout, stderr, log); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, opts cli.Options, stdout, stderr io.Writer, log *logrus.Logger) error {
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return err
	}
	cfg = opts.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	if opts.Verbose {
		printer := pp.New()
		printer.SetOutput(stderr)
		printer.SetColoringEnabled(!color.NoColor)
		printer.Println("config:", cfg.Redacted())
	}

	header, err := cfg.Header()
	if err != nil {
		return err
	}
	// Fail on a bad base URL before reading input or touching the network.
	if _, err := httpx.JoinURL(cfg.BaseURL, "probe"); err != nil {
		return err
	}

	client, err := httpx.NewClient(cfg.ClientConfig())
	if err != nil {
		return errors.Wrap(err, "failed to build HTTP client")
	}

	codes, err := data.LoadCodes(cfg.InputFile, cfg.CodePattern)
	if err != nil {
		return err
	}

	printer := output.NewPrinter(stdout, color.NoColor)
	printer.Start(len(codes))

	log.WithFields(logrus.Fields{
		"base_url":    cfg.BaseURL,
		"codes":       len(codes),
		"concurrency": cfg.Concurrency,
		"max_retries": cfg.MaxRetries,
	}).Debug("starting")

	scanner := scan.NewScanner(client, scan.Config{
		BaseURL:     cfg.BaseURL,
		Header:      header,
		RetryDelay:  cfg.RetryDelay(),
		Throttle:    cfg.Throttle(),
		MaxRetries:  cfg.MaxRetries,
		Concurrency: cfg.Concurrency,
	}, log)

	buckets, err := scanner.Run(ctx, codes, scan.Events{
		OnResult: printer.Result,
		OnRetry:  printer.Retry,
	})
	if err != nil {
		return err
	}

	if err := output.WriteReport(cfg.OutputFile, buckets); err != nil {
		return err
	}

	printer.Summary(buckets, cfg.OutputFile)
	return nil
}

func newLogger(w io.Writer, verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		DisableColors:    color.NoColor,
	})
	log.SetLevel(logrus.WarnLevel)
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}
