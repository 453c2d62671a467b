package ioregistry_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ktjameson/magmo-HI/internal/ioregistry"
	"github.com/ktjameson/magmo-HI/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "table.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDays(t *testing.T) {
	path := writeFile(t, `day,date,patterns
27,2012-01-06,2012-01-06*
28,2012-01-07,2012-01-07*|2012-01-08_00*
`)

	days, err := ioregistry.Days(path)
	require.NoError(t, err)
	require.Len(t, days, 2)

	assert.Equal(t, "27", days[0].ID)
	assert.Equal(t, "day27", days[0].DirName())
	assert.Equal(t, registry.Patterns{"2012-01-06*"}, days[0].Patterns)
	assert.Equal(t,
		registry.Patterns{"2012-01-07*", "2012-01-08_00*"},
		days[1].Patterns)
}

func TestDaysMalformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "non numeric day",
			content: `day,date,patterns
abc,2012-01-06,2012-01-06*
`,
		},
		{
			name: "missing patterns",
			content: `day,date,patterns
27,2012-01-06,
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.content)
			_, err := ioregistry.Days(path)
			assert.Error(t, err)
		})
	}
}

func TestDaysMissingFile(t *testing.T) {
	_, err := ioregistry.Days(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestDay(t *testing.T) {
	path := writeFile(t, `day,date,patterns
27,2012-01-06,2012-01-06*
`)

	day, err := ioregistry.Day(path, "27")
	require.NoError(t, err)
	assert.Equal(t, "2012-01-06", day.Date)

	_, err = ioregistry.Day(path, "99")
	assert.Error(t, err)
}

func TestContinuumRanges(t *testing.T) {
	path := writeFile(t, `min_long,max_long,min_con_vel,max_con_vel
0,10,60,90
11,20,70,100
`)

	ranges, err := ioregistry.ContinuumRanges(path)
	require.NoError(t, err)
	require.Len(t, ranges, 2)

	r, ok := registry.LookupContinuumRange(ranges, 15)
	require.True(t, ok)
	assert.Equal(t, 70, r.MinVelocity)
	assert.Equal(t, 100, r.MaxVelocity)
}

func TestStatsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.csv")
	stats := []registry.FieldStats{
		{Field: "282.255-2.253", StdDev: 0.012, Max: 0.35, SN: 29.2},
		{Field: "291.270-0.719", StdDev: 0.08, Max: 0.09, SN: 1.1},
	}

	require.NoError(t, ioregistry.WriteStats(path, stats))

	got, err := ioregistry.ReadStats(path)
	require.NoError(t, err)
	assert.Equal(t, stats, got)
}
