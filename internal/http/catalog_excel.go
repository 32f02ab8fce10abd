package httpapi

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"overwatch-ingest/internal/domain"

	"github.com/xuri/excelize/v2"
)

// TargetCatalogHeader 目标名录表头。导入与导出共用同一布局
var TargetCatalogHeader = []string{
	"BE Number",
	"Target Name",
	"Category",
	"Country Code",
	"Latitude",
	"Longitude",
}

const targetCatalogSheet = "Target Catalog"

// GenerateTargetCatalogExport 生成目标名录导出 Excel 文件
// entries 为空时只生成表头（可当导入模板用）
func GenerateTargetCatalogExport(entries []*domain.TargetCatalogEntry) ([]byte, error) {
	f := excelize.NewFile()
	// Note: Don't defer Close() here, because WriteTo needs the file to be open

	index, err := f.NewSheet(targetCatalogSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	// 删除默认的 Sheet1
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	// 表头样式
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	// 写入表头
	for col, header := range TargetCatalogHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(targetCatalogSheet, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(targetCatalogSheet, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}

	// 列宽
	columnWidths := []float64{
		16, // BE Number
		32, // Target Name
		18, // Category
		14, // Country Code
		12, // Latitude
		12, // Longitude
	}
	for i, width := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(targetCatalogSheet, col, col, width); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	// 写入数据
	for rowIdx, entry := range entries {
		row := rowIdx + 2 // 从第2行开始（第1行是表头）
		values := []any{
			entry.BENumber,
			entry.TargetName,
			entry.Category,
			entry.CountryCode,
			entry.Latitude,
			entry.Longitude,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(targetCatalogSheet, cell, value); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	// 冻结表头
	if err := f.SetPanes(targetCatalogSheet, &excelize.Panes{
		Freeze:      true,
		Split:       false,
		XSplit:      0,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	// Write to bytes buffer
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}

	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}

	return buf.Bytes(), nil
}

// CatalogRowError 单行导入失败的定位与原因
type CatalogRowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ParseTargetCatalogWorkbook 解析目标名录 Excel。
// 坏行记入 rowErrors 后跳过，不中断整个导入；
// 只有文件本身不可读或缺必需列时才返回 error
func ParseTargetCatalogWorkbook(data []byte) ([]*domain.TargetCatalogEntry, []CatalogRowError, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse Excel file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, nil, fmt.Errorf("Excel file has no sheets")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil, nil
	}

	// 表头名 -> 列号
	headerMap := make(map[string]int)
	for i, h := range rows[0] {
		headerMap[strings.TrimSpace(h)] = i
	}
	for _, required := range []string{"BE Number", "Target Name"} {
		if _, ok := headerMap[required]; !ok {
			return nil, nil, fmt.Errorf("missing required column: %s", required)
		}
	}

	cellAt := func(row []string, header string) string {
		idx, ok := headerMap[header]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var entries []*domain.TargetCatalogEntry
	var rowErrors []CatalogRowError

	for rowIdx := 1; rowIdx < len(rows); rowIdx++ {
		row := rows[rowIdx]
		rowNum := rowIdx + 1 // Excel 行号从 1 起

		beNumber := cellAt(row, "BE Number")
		targetName := cellAt(row, "Target Name")
		if beNumber == "" && targetName == "" {
			continue
		}
		if beNumber == "" {
			rowErrors = append(rowErrors, CatalogRowError{Row: rowNum, Reason: "BE Number is required"})
			continue
		}
		if targetName == "" {
			rowErrors = append(rowErrors, CatalogRowError{Row: rowNum, Reason: "Target Name is required"})
			continue
		}

		entry := &domain.TargetCatalogEntry{
			BENumber:    beNumber,
			TargetName:  targetName,
			Category:    cellAt(row, "Category"),
			CountryCode: cellAt(row, "Country Code"),
		}

		if raw := cellAt(row, "Latitude"); raw != "" {
			lat, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				rowErrors = append(rowErrors, CatalogRowError{Row: rowNum, Reason: "invalid latitude: " + raw})
				continue
			}
			entry.Latitude = lat
		}
		if raw := cellAt(row, "Longitude"); raw != "" {
			lon, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				rowErrors = append(rowErrors, CatalogRowError{Row: rowNum, Reason: "invalid longitude: " + raw})
				continue
			}
			entry.Longitude = lon
		}

		entries = append(entries, entry)
	}

	return entries, rowErrors, nil
}
