package export

import (
	"fmt"
	"io"
	"time"

	"esferas/internal/models"

	"github.com/xuri/excelize/v2"
)

const SheetName = "Reservas"

// ContentType of the generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var headers = []string{"ID", "Fecha", "Hora", "Nombre", "Email", "Teléfono", "Notas", "Pago", "Creada"}

// WriteBookingsXLSX renders bookings as a single-sheet workbook, one row per
// booking in the given order.
func WriteBookingsXLSX(w io.Writer, bookings []*models.Booking) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetName, cell, h)
		_ = f.SetCellStyle(SheetName, cell, cell, headerStyle)
	}

	rowStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "top", WrapText: true},
	})
	for i, b := range bookings {
		row := i + 2
		values := []interface{}{
			b.ID,
			b.Date.UTC().Format("02.01.2006"),
			b.Date.UTC().Format("15:04"),
			b.Name,
			b.Email,
			b.Phone,
			b.Notes,
			paymentLabel(b.PaymentOption),
			b.CreatedAt.UTC().Format(time.RFC3339),
		}
		start, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(SheetName, start, &values); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
		end, _ := excelize.CoordinatesToCellName(len(values), row)
		_ = f.SetCellStyle(SheetName, start, end, rowStyle)
	}

	_ = f.SetColWidth(SheetName, "A", "A", 38)
	_ = f.SetColWidth(SheetName, "B", "C", 12)
	_ = f.SetColWidth(SheetName, "D", "I", 22)

	_ = f.DeleteSheet("Sheet1")

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func paymentLabel(opt string) string {
	switch opt {
	case models.PaymentLocal:
		return "En persona"
	case models.PaymentRemote:
		return "MercadoPago"
	default:
		return opt
	}
}
