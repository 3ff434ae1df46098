package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/repressilator/internal/dataset"
)

// ExportCSV writes a header line followed by one line per row.
func ExportCSV(w io.Writer, header []string, rows [][]float64) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	record := make([]string, len(header))
	for i, row := range rows {
		if len(row) != len(header) {
			return fmt.Errorf("%w: row %d has %d values for %d columns", dataset.ErrShape, i, len(row), len(header))
		}
		for j, v := range row {
			record[j] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses output of ExportCSV.
func ReadCSV(r io.Reader) ([]string, [][]float64, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	cr.FieldsPerRecord = len(header)

	var rows [][]float64
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		row := make([]float64, len(record))
		for j, s := range record {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("line %d column %s: %w", line, header[j], err)
			}
			row[j] = v
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

// TableExport is the JSON shape of an observation table.
type TableExport struct {
	Model   string      `json:"model,omitempty"`
	Species []string    `json:"species"`
	Times   []float64   `json:"times"`
	Values  [][]float64 `json:"values"`
}

func ExportJSON(w io.Writer, model string, table *dataset.Table) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(TableExport{
		Model:   model,
		Species: table.Species,
		Times:   table.Times,
		Values:  table.Values,
	})
}
