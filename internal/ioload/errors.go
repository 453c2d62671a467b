package ioload

import (
	"fmt"
	"runtime"

	"github.com/gnames/gn"
	"github.com/ktjameson/magmo-HI/pkg/errcode"
)

func ConvertError(subject string, err error) error {
	msg := "Cannot convert raw recording for <em>%s</em>"
	vars := []any{subject}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.LoadConvertError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: atlod %s: %w", fn.Name(), subject, err),
	}
}

func SplitError(dayID string, err error) error {
	msg := "Cannot split day <em>%s</em> into source datasets"
	vars := []any{dayID}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.LoadSplitError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: uvsplit day %s: %w", fn.Name(), dayID, err),
	}
}

func BackupError(dataset string, err error) error {
	msg := "Cannot archive state of dataset <em>%s</em>"
	vars := []any{dataset}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.LoadBackupError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: backup %s: %w", fn.Name(), dataset, err),
	}
}
