package translation

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

var ErrMalformedCSV = errors.New("malformed translations csv")

// WriteCSV encodes a translation matrix as CSV.
func WriteCSV(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write translations csv: %w", err)
	}
	return nil
}

// ReadCSV decodes an uploaded translation spreadsheet. Rows may have differing
// lengths; missing cells count as blank.
func ReadCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedCSV, err)
	}
	return rows, nil
}
