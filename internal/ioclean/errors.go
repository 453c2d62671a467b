package ioclean

import (
	"fmt"
	"runtime"

	"github.com/gnames/gn"
	"github.com/ktjameson/magmo-HI/pkg/errcode"
)

func RemoveError(subject string, err error) error {
	msg := "Cannot remove derived products for <em>%s</em>"
	vars := []any{subject}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.CleanRemoveError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: remove %s: %w", fn.Name(), subject, err),
	}
}

func RestoreError(subject string, err error) error {
	msg := "Cannot restore archived state for <em>%s</em>"
	vars := []any{subject}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.CleanRestoreError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: restore %s: %w", fn.Name(), subject, err),
	}
}
