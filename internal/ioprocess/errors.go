package ioprocess

import (
	"fmt"
	"runtime"

	"github.com/gnames/gn"
	"github.com/ktjameson/magmo-HI/pkg/errcode"
)

func FlagError(subject string, err error) error {
	msg := "Cannot flag dataset <em>%s</em>"
	vars := []any{subject}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.ProcessFlagError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: flag %s: %w", fn.Name(), subject, err),
	}
}

func CalibrateError(dataset string, err error) error {
	msg := "Cannot calibrate dataset <em>%s</em>"
	vars := []any{dataset}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.ProcessCalibrateError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: calibrate %s: %w", fn.Name(), dataset, err),
	}
}

func ImageError(field string, err error) error {
	msg := "Cannot image field <em>%s</em>"
	vars := []any{field}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.ProcessImageError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: image %s: %w", fn.Name(), field, err),
	}
}

func StatsError(dayID string, err error) error {
	msg := "Cannot write field statistics for day <em>%s</em>"
	vars := []any{dayID}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.ProcessStatsError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: stats day %s: %w", fn.Name(), dayID, err),
	}
}
