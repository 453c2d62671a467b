package magmo_test

import (
	"testing"

	"github.com/ktjameson/magmo-HI/internal/ioaggregate"
	"github.com/ktjameson/magmo-HI/internal/ioanalyse"
	"github.com/ktjameson/magmo-HI/internal/ioclean"
	"github.com/ktjameson/magmo-HI/internal/iodecompose"
	"github.com/ktjameson/magmo-HI/internal/iofind"
	"github.com/ktjameson/magmo-HI/internal/iogas"
	"github.com/ktjameson/magmo-HI/internal/ioload"
	"github.com/ktjameson/magmo-HI/internal/ioprocess"
	"github.com/ktjameson/magmo-HI/pkg/magmo"
	"github.com/stretchr/testify/assert"
)

// Each pipeline stage has exactly one implementation; keep them bound to
// their contracts.
var (
	_ magmo.Finder     = (*iofind.Finder)(nil)
	_ magmo.Loader     = (*ioload.Loader)(nil)
	_ magmo.Processor  = (*ioprocess.Processor)(nil)
	_ magmo.Analyser   = (*ioanalyse.Analyser)(nil)
	_ magmo.Aggregator = (*ioaggregate.Aggregator)(nil)
	_ magmo.Decomposer = (*iodecompose.Decomposer)(nil)
	_ magmo.Examiner   = (*iogas.Examiner)(nil)
	_ magmo.Cleaner    = (*ioclean.Cleaner)(nil)
)

func TestVersion(t *testing.T) {
	assert.Regexp(t, `^v\d+\.\d+\.\d+`, magmo.Version)
	assert.NotEmpty(t, magmo.Build)
}
