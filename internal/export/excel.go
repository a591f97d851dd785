package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"playhub/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// BookingLister is the slice of the store the exporter reads from.
type BookingLister interface {
	ListBookingsByDateRange(ctx context.Context, startDate, endDate string) ([]*models.Booking, error)
}

// Exporter renders reservation schedules as Excel workbooks: one sheet
// per resource, dates across the top, slots down the side.
type Exporter struct {
	store     BookingLister
	resources []models.Resource
	grid      []string
	logger    *zerolog.Logger
}

func NewExporter(store BookingLister, resources []models.Resource, grid []string, logger *zerolog.Logger) *Exporter {
	return &Exporter{store: store, resources: resources, grid: grid, logger: logger}
}

// Generate builds the workbook for the inclusive date range.
func (e *Exporter) Generate(ctx context.Context, startDate, endDate time.Time) (*excelize.File, error) {
	if endDate.Before(startDate) {
		return nil, fmt.Errorf("end date %s is before start date %s",
			endDate.Format(models.DateLayout), startDate.Format(models.DateLayout))
	}

	bookings, err := e.store.ListBookingsByDateRange(ctx,
		startDate.Format(models.DateLayout), endDate.Format(models.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("error getting bookings: %v", err)
	}

	// resource -> date -> slot -> booking
	byResource := make(map[string]map[string]map[string]*models.Booking)
	for _, b := range bookings {
		if byResource[b.ResourceID] == nil {
			byResource[b.ResourceID] = make(map[string]map[string]*models.Booking)
		}
		if byResource[b.ResourceID][b.Date] == nil {
			byResource[b.ResourceID][b.Date] = make(map[string]*models.Booking)
		}
		byResource[b.ResourceID][b.Date][b.Slot] = b
	}

	f := excelize.NewFile()

	for _, resource := range e.resources {
		if err := e.writeResourceSheet(f, resource, startDate, endDate, byResource[resource.ID]); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	_ = f.DeleteSheet("Sheet1")
	if len(e.resources) > 0 {
		index, _ := f.GetSheetIndex(e.resources[0].Name)
		f.SetActiveSheet(index)
	}

	return f, nil
}

// Save writes the workbook for the range into dir and returns the path.
func (e *Exporter) Save(ctx context.Context, startDate, endDate time.Time, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	f, err := e.Generate(ctx, startDate, endDate)
	if err != nil {
		return "", err
	}
	defer f.Close()

	fileName := fmt.Sprintf("schedule_%s_to_%s.xlsx",
		startDate.Format(models.DateLayout), endDate.Format(models.DateLayout))
	filePath := filepath.Join(dir, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	e.logger.Info().Str("file_path", filePath).Msg("Excel file created")
	return filePath, nil
}

// Write streams the workbook for the range to w.
func (e *Exporter) Write(ctx context.Context, startDate, endDate time.Time, w io.Writer) error {
	f, err := e.Generate(ctx, startDate, endDate)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

func (e *Exporter) writeResourceSheet(
	f *excelize.File,
	resource models.Resource,
	startDate, endDate time.Time,
	days map[string]map[string]*models.Booking,
) error {
	sheetName := resource.Name
	if _, err := f.NewSheet(sheetName); err != nil {
		return fmt.Errorf("error creating sheet: %v", err)
	}

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s: %s - %s",
		resource.Name, startDate.Format("02.01.2006"), endDate.Format("02.01.2006")))

	dateCols := e.writeDateHeaders(f, sheetName, startDate, endDate)
	e.writeSlotHeaders(f, sheetName)

	bookedStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#FFC7CE"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "top", WrapText: true},
	})

	for dateKey, col := range dateCols {
		slotBookings := days[dateKey]
		for i, slot := range e.grid {
			booking, ok := slotBookings[slot]
			if !ok {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(col, i+3)
			_ = f.SetCellValue(sheetName, cell, booking.OwnerName)
			_ = f.SetCellStyle(sheetName, cell, cell, bookedStyle)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 12)
	lastCol, _ := excelize.ColumnNumberToName(len(dateCols) + 1)
	if len(dateCols) > 0 {
		_ = f.SetColWidth(sheetName, "B", lastCol, 18)
		_ = f.MergeCell(sheetName, "A1", lastCol+"1")
	}

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	return nil
}

func (e *Exporter) writeDateHeaders(f *excelize.File, sheetName string, startDate, endDate time.Time) map[string]int {
	style, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	col := 2
	currentDate := startDate
	dateCols := make(map[string]int)

	for !currentDate.After(endDate) {
		cell, _ := excelize.CoordinatesToCellName(col, 2)
		_ = f.SetCellValue(sheetName, cell, currentDate.Format("02.01"))
		_ = f.SetCellStyle(sheetName, cell, cell, style)
		dateCols[currentDate.Format(models.DateLayout)] = col

		col++
		currentDate = currentDate.AddDate(0, 0, 1)
	}
	return dateCols
}

func (e *Exporter) writeSlotHeaders(f *excelize.File, sheetName string) {
	style, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2EFDA"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})

	for i, slot := range e.grid {
		cell, _ := excelize.CoordinatesToCellName(1, i+3)
		_ = f.SetCellValue(sheetName, cell, slot)
		_ = f.SetCellStyle(sheetName, cell, cell, style)
	}
}
