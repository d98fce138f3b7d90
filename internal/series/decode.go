// Package series loads the numeric sequences that are fed to the detectors.
package series

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Format identifies how a series is encoded
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// ErrNonFinite is returned when a series holds NaN or an infinity
var ErrNonFinite = errors.New("series contains a non-finite value")

// ParseFormat maps a format name to a Format. The empty string is returned
// unchanged so that callers can fall back to FormatFromPath.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case "", FormatCSV, FormatJSON, FormatText:
		return f, nil
	case "txt":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown series format %q", name)
	}
}

// FormatFromPath guesses a format from a file extension, defaulting to text
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV
	case ".json":
		return FormatJSON
	default:
		return FormatText
	}
}

// LoadFile reads a series from path. An empty format is inferred from the
// file extension; column selects the CSV column and is ignored otherwise.
func LoadFile(path string, format Format, column int) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if format == "" {
		format = FormatFromPath(path)
	}

	x, err := Decode(f, format, column)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return x, nil
}

// Decode reads a series from r in the given format
func Decode(r io.Reader, format Format, column int) ([]float64, error) {
	switch format {
	case FormatCSV:
		return decodeCSV(r, column)
	case FormatJSON:
		return decodeJSON(r)
	case FormatText, "":
		return decodeText(r)
	default:
		return nil, fmt.Errorf("unknown series format %q", format)
	}
}

// decodeCSV reads one column of a CSV document. A first row whose cell does
// not parse as a number is treated as a header.
func decodeCSV(r io.Reader, column int) ([]float64, error) {
	if column < 0 {
		return nil, fmt.Errorf("csv column must not be negative, got %d", column)
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	var x []float64
	for row := 0; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if column >= len(record) {
			return nil, fmt.Errorf("row %d has %d columns, want column %d", row+1, len(record), column)
		}

		v, err := parseValue(record[column])
		if err != nil {
			if row == 0 && !errors.Is(err, ErrNonFinite) {
				continue
			}
			return nil, fmt.Errorf("row %d: %w", row+1, err)
		}
		x = append(x, v)
	}
	return nonNil(x), nil
}

func decodeJSON(r io.Reader) ([]float64, error) {
	var x []float64
	if err := json.NewDecoder(r).Decode(&x); err != nil {
		return nil, err
	}
	for i, v := range x {
		if err := checkFinite(v); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nonNil(x), nil
}

// decodeText reads whitespace-separated numbers
func decodeText(r io.Reader) ([]float64, error) {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)

	var x []float64
	for i := 0; scanner.Scan(); i++ {
		v, err := parseValue(scanner.Text())
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i+1, err)
		}
		x = append(x, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return nonNil(x), nil
}

func parseValue(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	return v, checkFinite(v)
}

func checkFinite(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %v", ErrNonFinite, v)
	}
	return nil
}

func nonNil(x []float64) []float64 {
	if x == nil {
		return []float64{}
	}
	return x
}
