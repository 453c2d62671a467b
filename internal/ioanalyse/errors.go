package ioanalyse

import (
	"fmt"
	"runtime"

	"github.com/gnames/gn"
	"github.com/ktjameson/magmo-HI/pkg/errcode"
)

func SourceFindError(subject string, err error) error {
	msg := "Source finding failed for <em>%s</em>"
	vars := []any{subject}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.AnalyseSourceFindError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: find %s: %w", fn.Name(), subject, err),
	}
}

func CubeError(subject string, err error) error {
	msg := "Cannot access imaging products for <em>%s</em>"
	vars := []any{subject}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.AnalyseCubeError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: cube %s: %w", fn.Name(), subject, err),
	}
}

func SpectrumError(subject string, err error) error {
	msg := "Cannot produce spectra for <em>%s</em>"
	vars := []any{subject}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.AnalyseSpectrumError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: spectra %s: %w", fn.Name(), subject, err),
	}
}
