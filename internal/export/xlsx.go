package export

import (
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/atu_queue/kiosk/internal/models"
)

const SheetName = "Tickets"

var header = []any{"number", "service", "category", "desk", "status", "fio", "phone", "created_at"}

// TicketsXLSX writes one row per ticket after a header row.
func TicketsXLSX(w io.Writer, list []models.TicketRecord) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return err
	}
	for i, t := range list {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		var desk any = ""
		if t.Desk != nil {
			desk = *t.Desk
		}
		row := []any{
			t.Number,
			t.Service,
			t.Category,
			desk,
			t.Status,
			t.FIO,
			t.Phone,
			t.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return err
		}
	}
	_, err := f.WriteTo(w)
	return err
}
