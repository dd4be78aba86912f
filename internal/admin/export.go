package admin

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// exportHeader is the literal CSV header row.
var exportHeader = []string{
	"Project Name", "User ID", "Date", "Type", "Amount",
	"Description", "Category", "Receipt Count", "Timestamp",
}

// ExportRow is one flattened line of the receipts export: one row per
// transaction carrying at least one receipt, never one per receipt.
type ExportRow struct {
	ProjectName  string
	UserID       string
	Date         string
	Type         string
	Amount       float64
	Description  string
	Category     string
	ReceiptCount int
	Timestamp    string
}

// ExportReceipts flattens every receipt-bearing transaction across all
// owners, joining in the parent project's name. A transaction whose project
// cannot be resolved gets the UnknownProject placeholder instead of failing
// the export.
func (s *Service) ExportReceipts(ctx context.Context) ([]ExportRow, error) {
	inv, err := s.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to gather export data: %w", err)
	}

	names := make(map[string]string, len(inv.Projects))
	for _, p := range inv.Projects {
		names[p.ID] = p.Name
	}

	var rows []ExportRow
	for _, t := range inv.Transactions {
		if len(t.Receipts) == 0 {
			continue
		}
		name, ok := names[t.ProjectID]
		if !ok {
			name = UnknownProject
		}
		rows = append(rows, ExportRow{
			ProjectName:  name,
			UserID:       t.OwnerID,
			Date:         t.Date,
			Type:         string(t.Type),
			Amount:       t.Amount,
			Description:  t.Description,
			Category:     t.Category,
			ReceiptCount: len(t.Receipts),
			Timestamp:    t.Timestamp,
		})
	}

	return rows, nil
}

// WriteCSV renders export rows as CSV with the literal header row. Every
// value is quoted, not just the ones that need it, so the output matches
// what downstream spreadsheet imports of this export have always received.
func WriteCSV(w io.Writer, rows []ExportRow) error {
	if err := writeRecord(w, exportHeader); err != nil {
		return fmt.Errorf("failed to write export header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.ProjectName,
			row.UserID,
			row.Date,
			row.Type,
			strconv.FormatFloat(row.Amount, 'f', -1, 64),
			row.Description,
			row.Category,
			strconv.Itoa(row.ReceiptCount),
			row.Timestamp,
		}
		if err := writeRecord(w, record); err != nil {
			return fmt.Errorf("failed to write export row: %w", err)
		}
	}
	return nil
}

// writeRecord writes one CSV line with all fields quoted and embedded quotes
// doubled.
func writeRecord(w io.Writer, record []string) error {
	var b strings.Builder
	for i, field := range record {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(field, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}

// ExportFilename embeds the export date in the download name.
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("receipts_export_%s.csv", now.Format("2006-01-02"))
}
