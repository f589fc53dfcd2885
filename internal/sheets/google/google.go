// Package google archives finished report runs as rows of a Google
// Spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"canteen/internal/amqp"
)

// ReportHeader is the first row of the archive sheet.
var ReportHeader = []any{
	"Run ID", "Report Date", "Status", "Total Sales", "Total Expenses",
	"Total Purchases", "Net Profit", "Sales Count", "Message ID", "Error", "Completed At",
}

type Config struct {
	SpreadsheetID string
	SheetName     string
	// Service account credentials, inline JSON takes precedence over the file.
	CredentialsJSON string
	CredentialsFile string
	// Extra client options, used by tests to point at a fake endpoint.
	Options []goption.ClientOption
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheet := strings.TrimSpace(cfg.SheetName)
	if sheet == "" {
		sheet = "Reports"
	}

	opts := cfg.Options
	if len(opts) == 0 {
		credentialsJSON, err := loadCredentials(ctx, cfg)
		if err != nil {
			return nil, err
		}
		opts = []goption.ClientOption{
			goption.WithCredentialsJSON(credentialsJSON),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created", "sheet", sheet)

	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheet:         sheet,
	}, nil
}

func loadCredentials(ctx context.Context, cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		return []byte(cfg.CredentialsJSON), nil
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", cfg.CredentialsFile)
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	}
	return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
}

// EnsureHeader writes ReportHeader into row 1 when the sheet is empty.
func (c *Client) EnsureHeader(ctx context.Context) error {
	rng := fmt.Sprintf("%s!A1:K1", c.sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read header of %s: %w", c.sheet, err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}

	vr := &gsheet.ValueRange{Values: [][]any{ReportHeader}}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header of %s: %w", c.sheet, err)
	}
	return nil
}

// AppendReport adds one row for a finished run and returns the updated range.
func (c *Client) AppendReport(ctx context.Context, msg *amqp.ReportCompletedMessage) (string, error) {
	if msg == nil {
		return "", errors.New("nil report message")
	}

	rng := fmt.Sprintf("%s!A:K", c.sheet)
	vr := &gsheet.ValueRange{Values: [][]any{ReportRow(msg)}}

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append report row to %s: %w", c.sheet, err)
	}

	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	return ref, nil
}

// ReportRow renders a run as archive columns in ReportHeader order.
func ReportRow(msg *amqp.ReportCompletedMessage) []any {
	status := "Failure"
	if msg.Success {
		status = "Success"
	}
	return []any{
		msg.RunID,
		msg.ReportDate,
		status,
		msg.TotalSales.Fixed(),
		msg.TotalExpenses.Fixed(),
		msg.TotalPurchases.Fixed(),
		msg.NetProfit.Fixed(),
		msg.SalesCount,
		msg.MessageID,
		msg.Error,
		msg.Timestamp.UTC().Format("2006-01-02 15:04:05"),
	}
}
