package registry_test

import (
	"testing"

	"github.com/ktjameson/magmo-HI/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayValidate(t *testing.T) {
	tests := []struct {
		name      string
		day       registry.Day
		wantError bool
	}{
		{
			name: "well formed day",
			day: registry.Day{
				ID:       "27",
				Date:     "2012-01-01",
				Patterns: registry.Patterns{"2012-01-01*"},
			},
			wantError: false,
		},
		{
			name:      "empty identifier",
			day:       registry.Day{Patterns: registry.Patterns{"x*"}},
			wantError: true,
		},
		{
			name: "non numeric identifier",
			day: registry.Day{
				ID:       "twenty",
				Patterns: registry.Patterns{"x*"},
			},
			wantError: true,
		},
		{
			name:      "no patterns",
			day:       registry.Day{ID: "3"},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.day.Validate()
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDayDirName(t *testing.T) {
	d := registry.Day{ID: "1234"}
	assert.Equal(t, "day1234", d.DirName())
}

func TestPatternsCSV(t *testing.T) {
	var p registry.Patterns
	err := p.UnmarshalCSV([]byte("2012-01-01* | 2012-01-02_00*"))
	require.NoError(t, err)
	assert.Equal(t, registry.Patterns{"2012-01-01*", "2012-01-02_00*"}, p)

	b, err := p.MarshalCSV()
	require.NoError(t, err)
	assert.Equal(t, "2012-01-01*|2012-01-02_00*", string(b))

	err = p.UnmarshalCSV([]byte(""))
	require.NoError(t, err)
	assert.Empty(t, p)
}

func TestLookupContinuumRange(t *testing.T) {
	ranges := []registry.ContinuumRange{
		{MinLongitude: 0, MaxLongitude: 10, MinVelocity: -210, MaxVelocity: -150},
		{MinLongitude: 11, MaxLongitude: 40, MinVelocity: 100, MaxVelocity: 160},
	}

	r, ok := registry.LookupContinuumRange(ranges, 5)
	require.True(t, ok)
	assert.Equal(t, -210, r.MinVelocity)

	r, ok = registry.LookupContinuumRange(ranges, 40)
	require.True(t, ok)
	assert.Equal(t, 160, r.MaxVelocity)

	_, ok = registry.LookupContinuumRange(ranges, 300)
	assert.False(t, ok)
}
