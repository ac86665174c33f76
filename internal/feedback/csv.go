package feedback

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"
)

// CSVHeader is the fixed export header. Column order matches the sheet
// row layout so an export can be re-imported into the same template.
var CSVHeader = []string{"ID", "Date", "Role", "Type", "Department", "Message", "Urgency", "Status", "Name", "Contact", "Sentiment"}

// utf8BOM keeps Excel from mangling non-ASCII text in exports.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV streams items to w as a UTF-8 CSV with a BOM. Callers pass
// items already sorted newest-first; order is preserved as given.
func WriteCSV(w io.Writer, items []Item) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	cw := csv.NewWriter(w)

	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, item := range items {
		record := []string{
			item.ID,
			time.UnixMilli(item.CreatedAt).UTC().Format(time.RFC3339),
			string(item.Role),
			string(item.Type),
			string(item.Department),
			item.Message,
			string(item.Urgency),
			string(item.Status),
			item.DisplayName(),
			item.Contact,
			item.Sentiment(),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
