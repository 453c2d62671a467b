package iogas

import (
	"fmt"
	"runtime"

	"github.com/gnames/gn"
	"github.com/ktjameson/magmo-HI/pkg/errcode"
)

func ReadError(subject string, err error) error {
	msg := "Cannot read catalogue <em>%s</em>, run aggregate and decompose first"
	vars := []any{subject}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.ExamineReadError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: read %s: %w", fn.Name(), subject, err),
	}
}

func CatalogueError(subject string, err error) error {
	msg := "Cannot write gas catalogue output <em>%s</em>"
	vars := []any{subject}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.ExamineCatalogueError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: catalogue %s: %w", fn.Name(), subject, err),
	}
}
