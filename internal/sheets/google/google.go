// Package google exports monthly insights to a Google Sheets spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	ports "fintrack/internal/sheets"
)

var _ ports.InsightExporter = (*Client)(nil)

// DefaultSheetName is the base tab name; the year is prefixed per export.
const DefaultSheetName = "Insights"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string
	logger        *applog.Logger

	// serializes read-merge-write cycles and guards knownSheets
	mu          sync.Mutex
	knownSheets map[string]bool
}

// New builds a client from service account credentials taken from
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, spreadsheetID, sheetBase string, logger *applog.Logger) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if logger == nil {
		logger = applog.Discard()
	}
	logger = logger.WithComponent(applog.ComponentSheets)

	svc, err := newSheetsService(ctx, logger)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, spreadsheetID, sheetBase, logger), nil
}

// NewWithService wraps an already configured Sheets service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetBase string, logger *applog.Logger) *Client {
	if strings.TrimSpace(sheetBase) == "" {
		sheetBase = DefaultSheetName
	}
	if logger == nil {
		logger = applog.Discard()
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetBase:     sheetBase,
		logger:        logger,
		knownSheets:   make(map[string]bool),
	}
}

func credentialsJSON() ([]byte, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case serviceAccountJSON != "":
		return []byte(serviceAccountJSON), nil
	case serviceAccountFile != "":
		data, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

func newSheetsService(ctx context.Context, logger *applog.Logger) (*gsheet.Service, error) {
	creds, err := credentialsJSON()
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "Creating Google Sheets service with service account",
		"credentials_size", len(creds),
		"scope", gsheet.SpreadsheetsScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// ExportMonthlyInsight rewrites the "<year> <base>" tab with the user's rows
// for the insight's month replaced. The tab is created when missing.
func (c *Client) ExportMonthlyInsight(ctx context.Context, userID string, insight core.MonthlyInsight) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if insight.Month < 1 || insight.Month > 12 {
		return "", fmt.Errorf("invalid month: %d", insight.Month)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	sheetName := yearPrefixedName(c.sheetBase, insight.Year)
	if err := c.ensureSheet(ctx, sheetName); err != nil {
		return "", err
	}

	fullRange := fmt.Sprintf("%s!A:%s", sheetName, lastColumn)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, fullRange).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("read %s: %w", fullRange, err)
	}

	values := mergeRows(resp.Values, insight.Period(), userID, insightRows(userID, insight))

	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, fullRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("clear %s: %w", fullRange, err)
	}

	ref := fmt.Sprintf("%s!A1:%s%d", sheetName, lastColumn, len(values))
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, ref, &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("update %s: %w", ref, err)
	}

	c.logger.InfoContext(ctx, "Exported monthly insight",
		applog.FieldUserID, userID,
		applog.FieldYear, insight.Year,
		applog.FieldMonth, insight.Month,
		applog.FieldSheetsRef, ref)
	return ref, nil
}

func (c *Client) ensureSheet(ctx context.Context, title string) error {
	if c.knownSheets[title] {
		return nil
	}

	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			c.knownSheets[sh.Properties.Title] = true
		}
	}
	if c.knownSheets[title] {
		return nil
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %q: %w", title, err)
	}
	c.knownSheets[title] = true
	c.logger.InfoContext(ctx, "Created insights sheet", "sheet", title)
	return nil
}
