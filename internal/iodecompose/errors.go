package iodecompose

import (
	"fmt"
	"runtime"

	"github.com/gnames/gn"
	"github.com/ktjameson/magmo-HI/pkg/errcode"
)

func ReadError(subject string, err error) error {
	msg := "Cannot read the spectra catalogue <em>%s</em>, run aggregate first"
	vars := []any{subject}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.DecomposeReadError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: read %s: %w", fn.Name(), subject, err),
	}
}

func FitError(subject string, err error) error {
	msg := "Cannot write fitted components to <em>%s</em>"
	vars := []any{subject}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.DecomposeFitError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: fit %s: %w", fn.Name(), subject, err),
	}
}
