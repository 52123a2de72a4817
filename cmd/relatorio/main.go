// Command relatorio prints the monthly report as JSON or writes it as an
// xlsx workbook.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"conservadora/internal/cli"
	"conservadora/internal/export"
	"conservadora/internal/log"
	"conservadora/internal/report"
	"conservadora/internal/session"
)

func main() {
	month := flag.String("month", "", "month to report, YYYY-MM (default: all months)")
	staff := flag.String("staff", "", "only rows of this staff id")
	out := flag.String("xlsx", "", "write an xlsx workbook to this path instead of printing JSON")
	timeout := flag.Duration("timeout", time.Minute, "time allowed to load the data")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentReport)

	filter, err := report.ParseFilter(*month, *staff)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg := cli.LoadAndValidateConfig(logger)
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	backend := cli.OpenBackend(ctx, logger, cfg)
	defer backend.Close()

	sess := session.New(backend.Client, backend.Sink, logger)
	if err := sess.Load(ctx); err != nil {
		logger.Error("Load interrupted", log.FieldError, err)
		os.Exit(1)
	}
	for name, err := range sess.LoadErrors() {
		logger.Warn("Table not loaded, report is partial", log.FieldTable, name, log.FieldError, err)
	}

	rep := report.Build(sess.Data(), filter)
	if err := write(rep, *out); err != nil {
		logger.Error("Failed to write report", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Report written",
		log.FieldMonth, filter.Month.String(),
		log.FieldStaffID, filter.StaffID,
		"total_salarios", report.FormatBRL(rep.Totals.Payroll.Decimal))
}

func write(rep report.Report, path string) error {
	if path == "" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.WriteXLSX(f, rep); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
