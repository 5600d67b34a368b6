package http

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	fleet "fleetwatch/internal/fleet/domain"
)

// BuildEventsPDF renders the event log as a minimal PDF table.
func BuildEventsPDF(events []fleet.ModuleEvent) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Module Events")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", time.Now().UTC().Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Events: %d", len(events)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(15, 6, "ID", "1", 0, "C", false, 0, "")
	pdf.CellFormat(50, 6, "Name", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Priority", "1", 0, "C", false, 0, "")
	pdf.CellFormat(45, 6, "Timestamp", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Device", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Module", "1", 0, "C", false, 0, "")
	pdf.CellFormat(70, 6, "Artifact", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, event := range events {
		pdf.CellFormat(15, 6, fmt.Sprintf("%d", event.ID), "1", 0, "R", false, 0, "")
		pdf.CellFormat(50, 6, event.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, string(event.Priority), "1", 0, "C", false, 0, "")
		pdf.CellFormat(45, 6, event.EventTimestamp.Format(time.RFC3339), "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%d", event.DeviceID), "1", 0, "R", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%d", event.ModuleID), "1", 0, "R", false, 0, "")
		pdf.CellFormat(70, 6, event.ArtifactPath, "1", 0, "L", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildEventsXLSX renders the event log as a minimal XLSX sheet.
func BuildEventsXLSX(events []fleet.ModuleEvent) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "events"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"ID", "Name", "Description", "Priority", "Timestamp", "Device", "Module", "Artifact"}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		_ = f.SetCellValue(sheet, cell, header)
	}
	for i, event := range events {
		row := i + 2
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), event.ID)
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), event.Name)
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), event.Description)
		_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), string(event.Priority))
		_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row), event.EventTimestamp.Format(time.RFC3339))
		_ = f.SetCellValue(sheet, fmt.Sprintf("F%d", row), event.DeviceID)
		_ = f.SetCellValue(sheet, fmt.Sprintf("G%d", row), event.ModuleID)
		_ = f.SetCellValue(sheet, fmt.Sprintf("H%d", row), event.ArtifactPath)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
