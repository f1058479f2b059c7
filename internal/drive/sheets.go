package drive

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/sheets/v4"

	"github.com/thedittmer/daily-riff/internal/logger"
)

// IndexRange is where exported docs are appended.
const IndexRange = "Sheet1!A:C"

// SheetIndex appends one row per exported doc to a spreadsheet:
// title, export time, doc URL.
type SheetIndex struct {
	svc           *sheets.Service
	spreadsheetID string
	logger        *logger.Logger
}

// NewSheetIndex writes to the spreadsheet with the given id.
func NewSheetIndex(svc *sheets.Service, spreadsheetID string, log *logger.Logger) *SheetIndex {
	if log == nil {
		log = logger.Discard()
	}

	return &SheetIndex{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		logger:        log,
	}
}

// Append adds a row for one export.
func (x *SheetIndex) Append(ctx context.Context, title, docURL string, exportedAt time.Time) error {
	values := [][]interface{}{
		{title, exportedAt.Format("2006-01-02 15:04:05"), docURL},
	}

	_, err := x.svc.Spreadsheets.Values.Append(
		x.spreadsheetID,
		IndexRange,
		&sheets.ValueRange{Values: values},
	).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to append to spreadsheet: %w", err)
	}

	x.logger.Debug("export index updated", "spreadsheet", x.spreadsheetID, "title", title)
	return nil
}

// SpreadsheetURL is the edit link of the index sheet.
func SpreadsheetURL(spreadsheetID string) string {
	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/edit", spreadsheetID)
}
