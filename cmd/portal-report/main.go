// portal-report renders a report request file to PDF without the server.
//
//	portal-report --in request.json --out academic.pdf
//
// The request has the same shape as the body of POST /reports/generate-pdf:
// {"reportType": ..., "records": [...], "metadata": {...}}. Comments and
// trailing commas are accepted.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"github.com/tidwall/jsonc"

	"github.com/hcmut-portal/portal-api/internal/core/domain"
	"github.com/hcmut-portal/portal-api/internal/infrastructure/pdf"
	"github.com/hcmut-portal/portal-api/pkg/logger"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "portal-report: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	var (
		inPath     string
		outPath    string
		reportType string
		fontPath   string
		logLevel   string
	)

	flagSet := pflag.NewFlagSet("portal-report", pflag.ContinueOnError)
	flagSet.StringVarP(&inPath, "in", "i", "-", "request JSON file, - for stdin")
	flagSet.StringVarP(&outPath, "out", "o", "-", "PDF output file, - for stdout")
	flagSet.StringVarP(&reportType, "type", "t", "", "override the request's reportType")
	flagSet.StringVar(&fontPath, "font", os.Getenv("PDF_FONT_PATH"), "TrueType font with Vietnamese coverage")
	flagSet.StringVar(&logLevel, "log-level", "warn", "log level")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() > 0 {
		return fmt.Errorf("unexpected argument: %s", flagSet.Arg(0))
	}

	req, err := readRequest(inPath, stdin)
	if err != nil {
		return err
	}
	if reportType != "" {
		req.ReportType = domain.ReportType(reportType)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logger.New(logger.Options{Level: logLevel, Pretty: true, Service: "portal-report", Output: os.Stderr})
	out, err := pdf.NewRenderer(pdf.Options{FontPath: fontPath}, log).Render(ctx, req)
	if err != nil {
		return err
	}

	if outPath == "-" {
		_, err = stdout.Write(out)
		return err
	}
	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	return nil
}

func readRequest(path string, stdin io.Reader) (domain.ReportRequest, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return domain.ReportRequest{}, fmt.Errorf("read request: %w", err)
	}

	var req domain.ReportRequest
	if err := json.Unmarshal(jsonc.ToJSON(data), &req); err != nil {
		return domain.ReportRequest{}, fmt.Errorf("parse request: %w", err)
	}
	return req, nil
}
