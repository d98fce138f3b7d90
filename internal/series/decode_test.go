package series

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		format   Format
		column   int
		input    string
		expected []float64
		wantErr  bool
	}{
		{
			name:     "text with mixed whitespace",
			format:   FormatText,
			input:    "1 2.5\n-3\t4e1\n",
			expected: []float64{1, 2.5, -3, 40},
		},
		{
			name:     "empty text",
			format:   FormatText,
			input:    "",
			expected: []float64{},
		},
		{
			name:    "text with a word",
			format:  FormatText,
			input:   "1 two 3",
			wantErr: true,
		},
		{
			name:     "json array",
			format:   FormatJSON,
			input:    `[0.5, 1, 2]`,
			expected: []float64{0.5, 1, 2},
		},
		{
			name:    "json object",
			format:  FormatJSON,
			input:   `{"x": 1}`,
			wantErr: true,
		},
		{
			name:     "csv with header",
			format:   FormatCSV,
			column:   1,
			input:    "time,value\n1,10\n2,11\n3,12\n",
			expected: []float64{10, 11, 12},
		},
		{
			name:     "csv without header",
			format:   FormatCSV,
			input:    "4\n5\n",
			expected: []float64{4, 5},
		},
		{
			name:    "csv bad value after header",
			format:  FormatCSV,
			input:   "value\n1\nx\n",
			wantErr: true,
		},
		{
			name:    "csv column out of range",
			format:  FormatCSV,
			column:  2,
			input:   "1,2\n",
			wantErr: true,
		},
		{
			name:    "non-finite text value",
			format:  FormatText,
			input:   "1 NaN",
			wantErr: true,
		},
		{
			name:    "non-finite csv first row",
			format:  FormatCSV,
			input:   "Inf\n1\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, err := Decode(strings.NewReader(tt.input), tt.format, tt.column)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, x)
		})
	}
}

func TestDecodeNonFiniteIsReported(t *testing.T) {
	_, err := Decode(strings.NewReader("1 +Inf 2"), FormatText, 0)
	assert.ErrorIs(t, err, ErrNonFinite)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("TXT")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, Format(""), f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestLoadFileInfersFormat(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "series.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("a,b\n1,2\n3,4\n"), 0o644))
	x, err := LoadFile(csvPath, "", 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 4}, x)

	jsonPath := filepath.Join(dir, "series.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte("[7, 8]"), 0o644))
	x, err = LoadFile(jsonPath, "", 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{7, 8}, x)

	_, err = LoadFile(filepath.Join(dir, "missing.txt"), "", 0)
	assert.Error(t, err)
}
