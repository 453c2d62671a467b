package ioregistry

import (
	"fmt"
	"runtime"

	"github.com/gnames/gn"
	"github.com/ktjameson/magmo-HI/pkg/errcode"
)

func ReadError(path string, err error) error {
	msg := "Cannot read registry table <em>%s</em>"
	vars := []any{path}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.RegistryReadError,
		Msg:  msg,
		Vars: vars,
		Err: fmt.Errorf("from %s: cannot read registry %s: %w",
			fn.Name(), path, err),
	}
}

func WriteError(path string, err error) error {
	msg := "Cannot write registry table <em>%s</em>"
	vars := []any{path}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.RegistryReadError,
		Msg:  msg,
		Vars: vars,
		Err: fmt.Errorf("from %s: cannot write registry %s: %w",
			fn.Name(), path, err),
	}
}

func DayError(path string, err error) error {
	msg := "Registry <em>%s</em> has a malformed day record"
	vars := []any{path}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.RegistryDayError,
		Msg:  msg,
		Vars: vars,
		Err: fmt.Errorf("from %s: malformed day in %s: %w",
			fn.Name(), path, err),
	}
}

func DayMissingError(path, id string) error {
	msg := "Day <em>%s</em> is not in the registry %s"
	vars := []any{id, path}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.RegistryDayError,
		Msg:  msg,
		Vars: vars,
		Err: fmt.Errorf("from %s: day %s not found in %s",
			fn.Name(), id, path),
	}
}

func ContinuumError(path string, err error) error {
	msg := "Cannot read continuum ranges <em>%s</em>"
	vars := []any{path}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.RegistryContinuumError,
		Msg:  msg,
		Vars: vars,
		Err: fmt.Errorf("from %s: cannot read continuum ranges %s: %w",
			fn.Name(), path, err),
	}
}
