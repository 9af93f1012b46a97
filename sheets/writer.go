package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"doctables/lookup"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Writer exports generated tables to Google Sheets for review
type Writer struct {
	service       *sheets.Service
	spreadsheetID string
	logger        *zap.Logger
	now           func() time.Time
}

// NewWriter creates a new Google Sheets writer. spreadsheet may be an ID or
// a full spreadsheet URL.
func NewWriter(ctx context.Context, spreadsheet string, credentialsPath string, logger *zap.Logger) (*Writer, error) {
	spreadsheetID := spreadsheet
	if id := ExtractSpreadsheetID(spreadsheet); id != "" {
		spreadsheetID = id
	}
	if spreadsheetID == "" {
		return nil, fmt.Errorf("missing spreadsheet ID")
	}

	// Read credentials from file or environment variable
	var credsJSON []byte
	var err error

	if credentialsPath != "" {
		credsJSON, err = os.ReadFile(credentialsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
	} else {
		credsEnv := strings.TrimSpace(os.Getenv("GOOGLE_SHEETS_CREDENTIALS"))
		if credsEnv == "" {
			return nil, fmt.Errorf("credentials not found: GOOGLE_SHEETS_CREDENTIALS environment variable is empty or not set")
		}
		credsJSON = []byte(credsEnv)
	}

	if err := checkServiceAccount(credsJSON); err != nil {
		return nil, err
	}

	service, err := sheets.NewService(ctx, option.WithCredentialsJSON(credsJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Writer{
		service:       service,
		spreadsheetID: spreadsheetID,
		logger:        logger,
		now:           time.Now,
	}, nil
}

func checkServiceAccount(credsJSON []byte) error {
	var creds map[string]interface{}
	if err := json.Unmarshal(credsJSON, &creds); err != nil {
		return fmt.Errorf("invalid credentials JSON (check if JSON is properly formatted): %w", err)
	}
	if creds["type"] != "service_account" {
		return fmt.Errorf("credentials must be a service account JSON file (type: service_account), got type: %v", creds["type"])
	}
	return nil
}

// SaveTable writes the table to a new sheet inserted at the front of the
// spreadsheet
func (w *Writer) SaveTable(ctx context.Context, target string, table *lookup.Table) error {
	sheetName := SheetName(target, w.now())

	batchUpdateRequest := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{
						Title: sheetName,
						Index: 0,
					},
				},
			},
		},
	}

	if _, err := w.service.Spreadsheets.BatchUpdate(w.spreadsheetID, batchUpdateRequest).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	valueRange := &sheets.ValueRange{
		Values: TableValues(table),
	}

	_, err := w.service.Spreadsheets.Values.Update(w.spreadsheetID, sheetName+"!A1", valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to write to sheet: %w", err)
	}

	w.logger.Info("table exported", zap.String("sheet", sheetName), zap.Int("entries", table.Len()))
	return nil
}

// TableValues lays a table out as a header row followed by one row per entry
func TableValues(table *lookup.Table) [][]interface{} {
	values := [][]interface{}{{"Key", "Value"}}
	for _, e := range table.Entries() {
		values = append(values, []interface{}{e.Key, e.Value})
	}
	return values
}

// SheetName builds the sheet title for one export of target
func SheetName(target string, at time.Time) string {
	name := sanitizeSheetName(fmt.Sprintf("%s_%s", target, at.Format("20060102_150405")))
	if len(name) > 100 {
		name = name[:100]
	}
	return name
}

// sanitizeSheetName removes invalid characters from sheet name
func sanitizeSheetName(name string) string {
	// Google Sheets sheet names cannot contain: / \ ? * [ ]
	invalidChars := []string{"/", "\\", "?", "*", "[", "]"}
	result := name
	for _, char := range invalidChars {
		result = strings.ReplaceAll(result, char, "_")
	}
	result = strings.TrimSpace(result)
	if result == "" {
		result = "Sheet1"
	}
	return result
}

// ExtractSpreadsheetID extracts the spreadsheet ID from a Google Sheets URL
func ExtractSpreadsheetID(url string) string {
	// https://docs.google.com/spreadsheets/d/SPREADSHEET_ID/edit?usp=sharing
	parts := strings.Split(url, "/d/")
	if len(parts) < 2 {
		return ""
	}

	idPart := parts[1]
	if idx := strings.Index(idPart, "/"); idx != -1 {
		idPart = idPart[:idx]
	}
	if idx := strings.Index(idPart, "?"); idx != -1 {
		idPart = idPart[:idx]
	}

	return strings.TrimSpace(idPart)
}
