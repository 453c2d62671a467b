package iodecompose

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/ktjameson/magmo-HI/pkg/config"
	"github.com/ktjameson/magmo-HI/pkg/gaussian"
	"github.com/ktjameson/magmo-HI/pkg/votable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.New()
	cfg.Data.DataDir = t.TempDir()
	return cfg
}

type catRow struct {
	day, field, source, name, rating string
	longitude, latitude              float64
}

func writeCatalogue(t *testing.T, dataDir string, rows []catRow) {
	t.Helper()
	table := votable.Table{
		ID: "spectra",
		Fields: []votable.Field{
			{Name: "day", Datatype: "char", ArraySize: "*"},
			{Name: "field", Datatype: "char", ArraySize: "*"},
			{Name: "source", Datatype: "char", ArraySize: "*"},
			{Name: "name", Datatype: "char", ArraySize: "*"},
			{Name: "longitude", Datatype: "double"},
			{Name: "latitude", Datatype: "double"},
			{Name: "rating", Datatype: "char", ArraySize: "*"},
		},
	}
	for _, r := range rows {
		table.AddRow(r.day, r.field, r.source, r.name,
			r.longitude, r.latitude, r.rating)
	}
	require.NoError(t, votable.New(table).WriteFile(
		filepath.Join(dataDir, "magmo-spectra.vot")))
}

// writeAbsorptionSpectrum writes an opacity spectrum carrying the given
// Gaussian absorption features plus a little noise.
func writeAbsorptionSpectrum(
	t *testing.T, dataDir, day, field, source string,
	comps []gaussian.Component,
) {
	t.Helper()
	dayDir := filepath.Join(dataDir, "day"+day)
	require.NoError(t, os.MkdirAll(dayDir, 0755))

	table := votable.Table{
		ID: "opacity",
		Fields: []votable.Field{
			{Name: "velocity", Datatype: "double", Unit: "m/s"},
			{Name: "opacity", Datatype: "double"},
			{Name: "sigma_tau", Datatype: "double"},
		},
	}
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		vel := -120000 + float64(i)*1000
		depth := gaussian.Sum(comps, vel/1000) + rng.NormFloat64()*0.005
		table.AddRow(vel, 1-depth, 0.02)
	}
	path := filepath.Join(dayDir,
		field+"_src"+source+"_opacity.votable.xml")
	require.NoError(t, votable.New(table).WriteFile(path))
}

func TestDecompose(t *testing.T) {
	cfg := testConfig(t)
	truth := gaussian.Component{Amplitude: 0.7, Center: -35, FWHM: 8}

	writeCatalogue(t, cfg.Data.DataDir, []catRow{
		{day: "45", field: "282.255-2.253", source: "1-0",
			name: "MAGMOHI G282.254-2.254",
			longitude: 282.255, latitude: -2.253, rating: "A"},
		{day: "84", field: "291.270-0.719", source: "2-1",
			name: "MAGMOHI G291.269-0.720",
			longitude: 291.270, latitude: -0.719, rating: "F"},
	})
	writeAbsorptionSpectrum(t, cfg.Data.DataDir, "45",
		"282.255-2.253", "1-0", []gaussian.Component{truth})
	// The F-rated spectrum file exists but must not be touched.
	writeAbsorptionSpectrum(t, cfg.Data.DataDir, "84",
		"291.270-0.719", "2-1", []gaussian.Component{{
			Amplitude: 0.5, Center: -50, FWHM: 6}})

	res, err := New(cfg).Decompose(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Spectra)
	assert.Equal(t, 1, res.Components)
	assert.Equal(t, 0, res.NonConverged)

	vot, err := votable.ParseFile(
		filepath.Join(cfg.Data.DataDir, "magmo-components.vot"))
	require.NoError(t, err)
	table, err := vot.FirstTable()
	require.NoError(t, err)
	require.Equal(t, 1, table.NumRows())

	days, err := table.Strings("day")
	require.NoError(t, err)
	assert.Equal(t, "45", days[0])
	amps, err := table.Floats("amplitude")
	require.NoError(t, err)
	assert.InDelta(t, truth.Amplitude, amps[0], 0.05)
	centers, err := table.Floats("mean_velocity")
	require.NoError(t, err)
	assert.InDelta(t, truth.Center, centers[0], 0.5)
	widths, err := table.Floats("fwhm")
	require.NoError(t, err)
	assert.InDelta(t, truth.FWHM, widths[0], 1.0)
	assert.Greater(t, widths[0], 0.0)

	// The fit plot is written next to the spectrum; the F-rated
	// spectrum gets none.
	_, err = os.Stat(filepath.Join(cfg.Data.DataDir, "day45",
		"282.255-2.253_src1-0_fit.png"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(cfg.Data.DataDir, "day84",
		"291.270-0.719_src2-1_fit.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestDecomposeMissingCatalogue(t *testing.T) {
	cfg := testConfig(t)

	_, err := New(cfg).Decompose(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "magmo-spectra.vot")
}

func TestDecomposeMissingSpectrumFile(t *testing.T) {
	cfg := testConfig(t)
	writeCatalogue(t, cfg.Data.DataDir, []catRow{
		{day: "45", field: "282.255-2.253", source: "1-0",
			name: "MAGMOHI G282.254-2.254",
			longitude: 282.255, latitude: -2.253, rating: "A"},
	})

	res, err := New(cfg).Decompose(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Spectra)
	assert.Equal(t, 0, res.Components)

	vot, err := votable.ParseFile(
		filepath.Join(cfg.Data.DataDir, "magmo-components.vot"))
	require.NoError(t, err)
	table, err := vot.FirstTable()
	require.NoError(t, err)
	assert.Equal(t, 0, table.NumRows())
}
