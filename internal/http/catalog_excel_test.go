package httpapi

import (
	"bytes"
	"strings"
	"testing"

	"overwatch-ingest/internal/domain"

	"github.com/xuri/excelize/v2"
)

func TestTargetCatalogExportParseRoundTrip(t *testing.T) {
	entries := []*domain.TargetCatalogEntry{
		{BENumber: "BE0123-4567", TargetName: "SA-21 Battery", Category: "SAM", CountryCode: "KN", Latitude: 39.03, Longitude: 125.75},
		{BENumber: "BE0456-8901", TargetName: "IADS Command Bunker", Category: "C2", CountryCode: "KN", Latitude: 39.2, Longitude: 125.9},
	}

	data, err := GenerateTargetCatalogExport(entries)
	if err != nil {
		t.Fatalf("generate export: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty workbook bytes")
	}

	parsed, rowErrors, err := ParseTargetCatalogWorkbook(data)
	if err != nil {
		t.Fatalf("parse workbook: %v", err)
	}
	if len(rowErrors) != 0 {
		t.Fatalf("expected no row errors, got %v", rowErrors)
	}
	if len(parsed) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(parsed))
	}
	if parsed[0].BENumber != "BE0123-4567" || parsed[0].TargetName != "SA-21 Battery" {
		t.Fatalf("first entry mismatch: %+v", parsed[0])
	}
	if parsed[1].Latitude != 39.2 || parsed[1].Longitude != 125.9 {
		t.Fatalf("coordinates mismatch: %+v", parsed[1])
	}
}

// buildWorkbook 按表头与数据行构造 xlsx 字节（测试用）
func buildWorkbook(t *testing.T, header []string, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	for col, h := range header {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			t.Fatalf("set header: %v", err)
		}
	}
	for rowIdx, row := range rows {
		for col, value := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				t.Fatalf("set cell: %v", err)
			}
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close workbook: %v", err)
	}
	return buf.Bytes()
}

func TestParseTargetCatalogWorkbook_BadRowsReportedAndSkipped(t *testing.T) {
	data := buildWorkbook(t, TargetCatalogHeader, [][]any{
		{"BE0123-4567", "SA-21 Battery", "SAM", "KN", 39.03, 125.75},
		{"", "Nameless Site", "SAM", "KN", 39.1, 125.8},
		{"BE0456-8901", "IADS Command Bunker", "C2", "KN", "not-a-number", 125.9},
		{"", "", "", "", "", ""},
	})

	entries, rowErrors, err := ParseTargetCatalogWorkbook(data)
	if err != nil {
		t.Fatalf("parse workbook: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 good entry, got %d", len(entries))
	}
	if entries[0].BENumber != "BE0123-4567" {
		t.Fatalf("unexpected surviving entry: %+v", entries[0])
	}
	if len(rowErrors) != 2 {
		t.Fatalf("expected 2 row errors, got %v", rowErrors)
	}
	if rowErrors[0].Row != 3 || !strings.Contains(rowErrors[0].Reason, "BE Number is required") {
		t.Fatalf("unexpected first row error: %+v", rowErrors[0])
	}
	if rowErrors[1].Row != 4 || !strings.Contains(rowErrors[1].Reason, "invalid latitude") {
		t.Fatalf("unexpected second row error: %+v", rowErrors[1])
	}
}

func TestParseTargetCatalogWorkbook_MissingRequiredColumn(t *testing.T) {
	data := buildWorkbook(t, []string{"BE Number", "Category"}, [][]any{
		{"BE0123-4567", "SAM"},
	})

	_, _, err := ParseTargetCatalogWorkbook(data)
	if err == nil || !strings.Contains(err.Error(), "missing required column: Target Name") {
		t.Fatalf("expected missing column error, got %v", err)
	}
}

func TestParseTargetCatalogWorkbook_HeaderOnly(t *testing.T) {
	data := buildWorkbook(t, TargetCatalogHeader, nil)

	entries, rowErrors, err := ParseTargetCatalogWorkbook(data)
	if err != nil {
		t.Fatalf("parse workbook: %v", err)
	}
	if len(entries) != 0 || len(rowErrors) != 0 {
		t.Fatalf("expected empty result for header-only workbook, got %d entries %d errors", len(entries), len(rowErrors))
	}
}
