package series

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/chrissnell/changepoints/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func seedSQLite(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "readings.db")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE readings (id INTEGER PRIMARY KEY, station TEXT, depth REAL)`)
	require.NoError(t, err)

	rows := []struct {
		id      int
		station string
		depth   any
	}{
		{3, "alpha", 12.0},
		{1, "alpha", 10.0},
		{2, "alpha", nil},
		{4, "beta", 99.0},
		{5, "alpha", 13.5},
	}
	for _, r := range rows {
		_, err := db.Exec(`INSERT INTO readings (id, station, depth) VALUES (?, ?, ?)`, r.id, r.station, r.depth)
		require.NoError(t, err)
	}
	return path
}

func TestSQLSourceFetch(t *testing.T) {
	path := seedSQLite(t)

	src, err := NewSQLSource(config.DatabaseSourceData{
		Driver:       "sqlite",
		DSN:          path,
		Table:        "readings",
		Column:       "depth",
		OrderBy:      "id",
		FilterColumn: "station",
		FilterValue:  "alpha",
	}, zap.NewNop().Sugar())
	require.NoError(t, err)
	defer src.Close()

	x, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 12, 13.5}, x)
}

func TestSQLSourceLimit(t *testing.T) {
	path := seedSQLite(t)

	src, err := NewSQLSource(config.DatabaseSourceData{
		Driver:  "sqlite",
		DSN:     path,
		Table:   "readings",
		Column:  "depth",
		OrderBy: "id",
		Limit:   2,
	}, nil)
	require.NoError(t, err)
	defer src.Close()

	x, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 12}, x)
}

func TestBuildQuery(t *testing.T) {
	query, args, err := buildQuery(config.DatabaseSourceData{
		Driver:       "postgres",
		Table:        "public.weather_5m",
		Column:       "snowdistance",
		OrderBy:      "bucket",
		FilterColumn: "stationname",
		FilterValue:  "cabin",
		Limit:        500,
	})
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT snowdistance FROM public.weather_5m WHERE snowdistance IS NOT NULL AND stationname = $1 ORDER BY bucket LIMIT 500",
		query)
	assert.Equal(t, []any{"cabin"}, args)
}

func TestBuildQueryRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.DatabaseSourceData
	}{
		{"injection in table", config.DatabaseSourceData{Driver: "sqlite", Table: "t; DROP TABLE x", Column: "v"}},
		{"injection in order", config.DatabaseSourceData{Driver: "sqlite", Table: "t", Column: "v", OrderBy: "id desc"}},
		{"missing column", config.DatabaseSourceData{Driver: "sqlite", Table: "t"}},
		{"unknown driver", config.DatabaseSourceData{Driver: "mysql", Table: "t", Column: "v"}},
		{"negative limit", config.DatabaseSourceData{Driver: "postgres", Table: "t", Column: "v", Limit: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := buildQuery(tt.cfg)
			assert.Error(t, err)
		})
	}
}
