package pipeline

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"almacen/internal"
)

func ExportRowsToXLSX(rows []internal.PurchaseExportRow, outputPath string) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	headers := []string{
		"line_no", "raw_line", "description", "sku", "quantity", "unit_price", "line_total",
		"match_status", "confidence", "match_reason",
		"product_id", "product_name", "product_unit", "product_sku",
		"candidate2_name", "candidate2_score",
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, row := range rows {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		set(1, row.LineNo)
		set(2, row.RawLine)
		set(3, row.Description)
		set(4, derefString(row.SKU))
		set(5, derefFloat(row.Quantity))
		set(6, derefFloat(row.UnitPrice))
		set(7, derefFloat(row.LineTotal))
		set(8, row.MatchStatus)
		set(9, row.Confidence)
		set(10, row.MatchReason)
		set(11, derefInt(row.ProductID))
		set(12, derefString(row.ProductName))
		set(13, derefString(row.ProductUnit))
		set(14, derefString(row.ProductSKU))
		set(15, derefString(row.Candidate2Name))
		set(16, derefFloat(row.Candidate2Score))
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func derefFloat(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}

func derefInt(v *int) any {
	if v == nil {
		return ""
	}
	return *v
}
