// Package workbook serializes a combined table into an .xlsx workbook.
package workbook

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/bagaskar44/jasaraharja-camelot-converter/internal/tables"
)

const (
	SheetName       = "All_Tables"
	MIMEType        = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	DefaultBaseName = "converted_tables"
	Extension       = ".xlsx"
)

// Write streams t into a single-sheet workbook: the header on row 1 and the
// data from row 2. Numbers become numeric cells and nulls stay empty.
func Write(w io.Writer, t *tables.CombinedTable) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("open sheet stream: %w", err)
	}

	header := make([]interface{}, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range t.Rows {
		vals := make([]interface{}, len(row))
		for j, v := range row {
			vals[j] = v.Interface()
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, vals); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// FileName turns a user supplied output name into a download file name.
// Blank names fall back to DefaultBaseName; directories are stripped and the
// .xlsx extension is added exactly once.
func FileName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, `\`, "/"))
	name = filepath.Base(name)
	if strings.EqualFold(filepath.Ext(name), Extension) {
		name = name[:len(name)-len(Extension)]
	}
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == "/" || name == ".." {
		name = DefaultBaseName
	}
	return name + Extension
}
