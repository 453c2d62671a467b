package iomiriad

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/gnames/gn"
	"github.com/ktjameson/magmo-HI/pkg/errcode"
)

func MissingError(tool string, err error) error {
	msg := "External tool <em>%s</em> is not installed or not on PATH"
	vars := []any{tool}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.ToolMissingError,
		Msg:  msg,
		Vars: vars,
		Err: fmt.Errorf("from %s: tool %s missing: %w",
			fn.Name(), tool, err),
	}
}

func RunError(tool string, args []string, output string, err error) error {
	msg := "Command <em>%s</em> failed: %s"
	vars := []any{tool + " " + strings.Join(args, " "), tail(output, 5)}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.ToolRunError,
		Msg:  msg,
		Vars: vars,
		Err: fmt.Errorf("from %s: %s %s: %w",
			fn.Name(), tool, strings.Join(args, " "), err),
	}
}
