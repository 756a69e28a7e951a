package frame

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
)

// EncodeCSV writes the frame as CSV: header row in column order, then one
// record per row with cells rendered by FormatCell.
func EncodeCSV(f Frame) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(f.Columns); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	record := make([]string, len(f.Columns))
	for _, row := range f.Rows {
		for i, col := range f.Columns {
			record[i] = FormatCell(row[col])
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeCSV reads a CSV document into a frame of string cells. Empty cells
// decode to nil so downstream null handling sees them as missing.
func DecodeCSV(r io.Reader) (Frame, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return Frame{}, nil
	}
	if err != nil {
		return Frame{}, fmt.Errorf("read header: %w", err)
	}

	f := New(header)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Frame{}, fmt.Errorf("read row: %w", err)
		}
		row := make(Row, len(header))
		for i, col := range header {
			if i >= len(rec) || rec[i] == "" {
				row[col] = nil
				continue
			}
			row[col] = rec[i]
		}
		f.Rows = append(f.Rows, row)
	}
	return f, nil
}
