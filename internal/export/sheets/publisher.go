// Package sheets publishes reports to a Google Spreadsheet.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"conservadora/internal/export"
	"conservadora/internal/log"
	"conservadora/internal/report"

	"github.com/xuri/excelize/v2"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Config selects the target spreadsheet and the service account used to
// write to it. CredentialsJSON wins over CredentialsFile.
type Config struct {
	SpreadsheetID   string
	SheetPrefix     string
	CredentialsJSON string
	CredentialsFile string
}

// Publisher overwrites one sheet per report section on every Publish.
type Publisher struct {
	svc           *gsheet.Service
	spreadsheetID string
	prefix        string
	logger        *log.Logger
}

// New builds a Publisher authenticated with the configured service account.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Publisher, error) {
	creds, err := credentials(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithOptions(ctx, cfg, logger,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
}

// NewWithOptions builds a Publisher from explicit client options.
func NewWithOptions(ctx context.Context, cfg Config, logger *log.Logger, opts ...goption.ClientOption) (*Publisher, error) {
	id := strings.TrimSpace(cfg.SpreadsheetID)
	if id == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Publisher{
		svc:           svc,
		spreadsheetID: id,
		prefix:        strings.TrimSpace(cfg.SheetPrefix),
		logger:        logger.WithComponent(log.ComponentSheets),
	}, nil
}

func credentials(cfg Config) ([]byte, error) {
	if j := strings.TrimSpace(cfg.CredentialsJSON); j != "" {
		return []byte(j), nil
	}
	path := strings.TrimSpace(cfg.CredentialsFile)
	if path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if path == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return b, nil
}

// Publish writes every section of r, creating missing sheets first.
func (p *Publisher) Publish(ctx context.Context, r report.Report) error {
	start := time.Now()
	tables := export.Tables(r)

	if err := p.ensureSheets(ctx, tables); err != nil {
		return err
	}

	for _, t := range tables {
		name := sheetName(p.prefix, t.Name)
		if _, err := p.svc.Spreadsheets.Values.Clear(p.spreadsheetID, quote(name), &gsheet.ClearValuesRequest{}).
			Context(ctx).Do(); err != nil {
			return fmt.Errorf("clear sheet %s: %w", name, err)
		}

		values := t.Strings()
		rng, err := a1Range(name, len(values), len(t.Header))
		if err != nil {
			return err
		}
		vr := &gsheet.ValueRange{Values: toInterface(values)}
		if _, err := p.svc.Spreadsheets.Values.Update(p.spreadsheetID, rng, vr).
			ValueInputOption("RAW").Context(ctx).Do(); err != nil {
			return fmt.Errorf("update %s: %w", rng, err)
		}
	}

	p.logger.Info("Report published",
		log.FieldOperation, log.OpExport,
		log.FieldMonth, r.Filter.Month.String(),
		log.FieldStaffID, r.Filter.StaffID,
		log.FieldCount, len(tables),
		log.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

func (p *Publisher) ensureSheets(ctx context.Context, tables []export.Table) error {
	ss, err := p.svc.Spreadsheets.Get(p.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet %s: %w", p.spreadsheetID, err)
	}
	existing := make(map[string]bool, len(ss.Sheets))
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			existing[s.Properties.Title] = true
		}
	}

	var reqs []*gsheet.Request
	for _, t := range tables {
		name := sheetName(p.prefix, t.Name)
		if existing[name] {
			continue
		}
		reqs = append(reqs, &gsheet.Request{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: name}},
		})
	}
	if len(reqs) == 0 {
		return nil
	}
	_, err = p.svc.Spreadsheets.BatchUpdate(p.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{Requests: reqs}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("add sheets: %w", err)
	}
	p.logger.Info("Sheets created", log.FieldCount, len(reqs))
	return nil
}

func sheetName(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + " " + name
}

// quote wraps a sheet name for use in A1 notation.
func quote(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// a1Range covers rows x cols cells starting at A1, e.g. 'Resumo'!A1:B6.
func a1Range(sheet string, rows, cols int) (string, error) {
	if rows < 1 || cols < 1 {
		return "", fmt.Errorf("empty range for sheet %s", sheet)
	}
	last, err := excelize.CoordinatesToCellName(cols, rows)
	if err != nil {
		return "", fmt.Errorf("range for sheet %s: %w", sheet, err)
	}
	return quote(sheet) + "!A1:" + last, nil
}

func toInterface(values [][]string) [][]any {
	out := make([][]any, len(values))
	for i, row := range values {
		line := make([]any, len(row))
		for j, v := range row {
			line[j] = v
		}
		out[i] = line
	}
	return out
}
