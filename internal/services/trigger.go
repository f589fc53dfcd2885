package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"canteen/internal/core"
)

// ReportPath is the trigger endpoint served by the HTTP API.
const ReportPath = "/api/cron/daily-report"

var ErrUnauthorized = errors.New("unauthorized")

// TriggerResponse is the JSON body of the report trigger endpoint.
type TriggerResponse struct {
	Success   bool         `json:"success"`
	Message   string       `json:"message,omitempty"`
	Error     string       `json:"error,omitempty"`
	Details   string       `json:"details,omitempty"`
	Timestamp *time.Time   `json:"timestamp,omitempty"`
	Data      *TriggerData `json:"data,omitempty"`
}

type TriggerData struct {
	ReportDate     string     `json:"reportDate"`
	TotalSales     core.Money `json:"totalSales"`
	TotalExpenses  core.Money `json:"totalExpenses"`
	TotalPurchases core.Money `json:"totalPurchases"`
	NetProfit      core.Money `json:"netProfit"`
	SalesCount     int        `json:"salesCount"`
	MessageID      string     `json:"messageId,omitempty"`
}

// NewTriggerResponse renders a run result as the endpoint body.
func NewTriggerResponse(res RunResult, now time.Time) TriggerResponse {
	ts := now.UTC()
	if !res.Success {
		details := "unknown error"
		if res.Err != nil {
			details = res.Err.Error()
		}
		return TriggerResponse{
			Error:     "Failed to send daily report",
			Details:   details,
			Timestamp: &ts,
		}
	}

	return TriggerResponse{
		Success:   true,
		Message:   "Daily report cron job executed successfully",
		Timestamp: &ts,
		Data: &TriggerData{
			ReportDate:     res.Summary.ReportDate.Format(core.ReportDateLayout),
			TotalSales:     res.Summary.TotalSales,
			TotalExpenses:  res.Summary.TotalExpenses,
			TotalPurchases: res.Summary.TotalPurchases,
			NetProfit:      res.Summary.NetProfit,
			SalesCount:     res.Summary.SalesCount,
			MessageID:      res.MessageID,
		},
	}
}

// HTTPTrigger runs the report by calling the trigger endpoint of a running
// server, presenting the shared secret when one is configured.
type HTTPTrigger struct {
	url    string
	secret string
	client *http.Client
	loc    *time.Location
}

func NewHTTPTrigger(baseURL, secret string, timeout time.Duration, loc *time.Location) *HTTPTrigger {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if loc == nil {
		loc = time.UTC
	}
	return &HTTPTrigger{
		url:    strings.TrimRight(baseURL, "/") + ReportPath,
		secret: secret,
		client: &http.Client{Timeout: timeout},
		loc:    loc,
	}
}

func (t *HTTPTrigger) Run(ctx context.Context) (res RunResult) {
	res = RunResult{RunID: core.NewID(), StartedAt: time.Now()}
	defer func() { res.FinishedAt = time.Now() }()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader([]byte("{}")))
	if err != nil {
		res.Err = fmt.Errorf("build trigger request: %w", err)
		return res
	}
	req.Header.Set("Content-Type", "application/json")
	if t.secret != "" {
		req.Header.Set("Authorization", "Bearer "+t.secret)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		res.Err = fmt.Errorf("call report endpoint: %w", err)
		return res
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		res.Err = fmt.Errorf("read report endpoint response: %w", err)
		return res
	}

	if resp.StatusCode == http.StatusUnauthorized {
		res.Err = fmt.Errorf("report endpoint rejected secret: %w", ErrUnauthorized)
		return res
	}

	var body TriggerResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		res.Err = fmt.Errorf("report endpoint returned %d with unreadable body: %w", resp.StatusCode, err)
		return res
	}

	if resp.StatusCode != http.StatusOK || !body.Success {
		msg := body.Details
		if msg == "" {
			msg = body.Error
		}
		res.Err = fmt.Errorf("report endpoint returned %d: %s", resp.StatusCode, msg)
		return res
	}

	res.Success = true
	if d := body.Data; d != nil {
		res.Summarized = true
		res.MessageID = d.MessageID
		res.Summary = core.DailySummary{
			TotalSales:     d.TotalSales,
			TotalExpenses:  d.TotalExpenses,
			TotalPurchases: d.TotalPurchases,
			NetProfit:      d.NetProfit,
			SalesCount:     d.SalesCount,
		}
		if day, err := time.ParseInLocation(core.ReportDateLayout, d.ReportDate, t.loc); err == nil {
			res.Summary.ReportDate = day
			res.ReportDate = day
		} else {
			slog.WarnContext(ctx, "Unparseable report date in trigger response", "report_date", d.ReportDate)
		}
	}
	return res
}
