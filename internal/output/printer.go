package output

import (
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/fatih/color"

	"github.com/tdh8316/statuscheck/internal/scan"
)

type Printer struct {
	noColor bool
	logger  *log.Logger
}

func NewPrinter(stdout io.Writer, noColor bool) *Printer {
	return &Printer{
		noColor: noColor,
		logger:  log.New(stdout, "", 0),
	}
}

func (p *Printer) Start(n int) {
	p.logger.Printf("Checking %d codes...", n)
}

func (p *Printer) Result(r scan.Result) {
	status := fmt.Sprint(r.Status)
	if !p.noColor {
		switch r.Status {
		case http.StatusOK:
			status = color.HiGreenString(status)
		case http.StatusBadRequest:
			status = color.HiRedString(status)
		default:
			status = color.HiYellowString(status)
		}
	}
	p.logger.Printf("%s: %s in %d ms", r.Code, status, r.Elapsed.Milliseconds())
}

func (p *Printer) Retry(r scan.Retry) {
	what := "Timeout/connect error."
	if r.Reason == scan.RateLimited {
		what = "Rate limited (429)."
	}
	if !p.noColor {
		what = color.HiMagentaString(what)
	}
	p.logger.Printf("%s Retrying in %d ms (attempt #%d)...", what, r.Delay.Milliseconds(), r.Attempt)
}

func (p *Printer) Summary(b scan.Buckets, reportPath string) {
	if p.noColor {
		p.logger.Printf("Done. 200: %d, 400: %d, Other: %d. See %s.", len(b.OK), len(b.Bad), len(b.Other), reportPath)
		return
	}
	p.logger.Printf("%s 200: %s, 400: %s, Other: %s. See %s.",
		color.GreenString("Done."),
		color.HiGreenString(fmt.Sprint(len(b.OK))),
		color.HiRedString(fmt.Sprint(len(b.Bad))),
		color.HiYellowString(fmt.Sprint(len(b.Other))),
		reportPath,
	)
}
