package emissions

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
)

// RequiredColumns must appear in the header row of an uploaded CSV.
var RequiredColumns = []string{"category", "activity", "value"}

var bom = []byte{0xEF, 0xBB, 0xBF}

// InspectCSV checks that data has a header row containing every required
// column, spelled exactly, and returns the number of data rows that follow
// it. The backend reads columns by exact name, so "Category" would be
// accepted here and then skipped row by row.
func InspectCSV(data []byte) (int, error) {
	data = bytes.TrimPrefix(data, bom)
	if len(bytes.TrimSpace(data)) == 0 {
		return 0, fmt.Errorf("%w: file is empty", ErrInvalidCSV)
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return 0, fmt.Errorf("%w: read header: %w", ErrInvalidCSV, err)
	}

	var missing, near []string
	for _, col := range RequiredColumns {
		if slices.Contains(header, col) {
			continue
		}
		missing = append(missing, col)
		if i := slices.IndexFunc(header, func(h string) bool {
			return strings.EqualFold(strings.TrimSpace(h), col)
		}); i >= 0 {
			near = append(near, fmt.Sprintf("%q", header[i]))
		}
	}
	if len(missing) > 0 {
		err := fmt.Errorf("%w: missing columns %s", ErrInvalidCSV, strings.Join(missing, ", "))
		if len(near) > 0 {
			err = fmt.Errorf("%w (column names are lowercase and exact, found %s)", err, strings.Join(near, ", "))
		}
		return 0, err
	}

	rows := 0
	for {
		_, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrInvalidCSV, err)
		}
		rows++
	}

	if rows == 0 {
		return 0, fmt.Errorf("%w: no data rows", ErrInvalidCSV)
	}
	return rows, nil
}
