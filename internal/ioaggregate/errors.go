package ioaggregate

import (
	"fmt"
	"runtime"

	"github.com/gnames/gn"
	"github.com/ktjameson/magmo-HI/pkg/errcode"
)

func ScanError(subject string, err error) error {
	msg := "Cannot scan spectra under <em>%s</em>"
	vars := []any{subject}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.AggregateScanError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: scan %s: %w", fn.Name(), subject, err),
	}
}

func CatalogueError(subject string, err error) error {
	msg := "Cannot write catalogue output <em>%s</em>"
	vars := []any{subject}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.AggregateCatalogueError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: catalogue %s: %w", fn.Name(), subject, err),
	}
}
