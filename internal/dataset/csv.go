package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
)

// LoadCSV reads a numeric CSV file into a dataset. labelCol selects the
// label column; pass a negative value to use the last column. A header row
// is detected by attempting to parse the first record; if any cell is not a
// number the row is treated as a header and skipped.
func LoadCSV(path string, labelCol int) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.ReuseRecord = true

	var examples []Example
	first := true
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read dataset %s: %w", path, err)
		}
		row, perr := parseRow(rec)
		if perr != nil {
			if first {
				first = false
				continue // header
			}
			return nil, fmt.Errorf("dataset %s row %d: %w", path, len(examples)+1, perr)
		}
		first = false

		col := labelCol
		if col < 0 {
			col = len(row) - 1
		}
		if col >= len(row) {
			return nil, fmt.Errorf("dataset %s: label column %d out of range for %d columns", path, col, len(row))
		}
		feats := make([]float64, 0, len(row)-1)
		feats = append(feats, row[:col]...)
		feats = append(feats, row[col+1:]...)
		examples = append(examples, Example{Features: feats, Label: row[col]})
	}

	ds, err := New(examples)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	log.Debug().Str("path", path).Int("examples", ds.Len()).Int("features", ds.Dim()).Msg("dataset loaded")
	return ds, nil
}

func parseRow(rec []string) ([]float64, error) {
	out := make([]float64, len(rec))
	for i, cell := range rec {
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}
