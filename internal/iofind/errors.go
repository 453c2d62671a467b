package iofind

import (
	"fmt"
	"runtime"

	"github.com/gnames/gn"
	"github.com/ktjameson/magmo-HI/pkg/errcode"
)

func QueryError(subject string, err error) error {
	msg := "Archive query for <em>%s</em> failed"
	vars := []any{subject}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.FindQueryError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: query %s: %w", fn.Name(), subject, err),
	}
}

func LoginError(err error) error {
	msg := "Cannot log into the archive; check ATOA_USER and ATOA_PASSWORD"
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.FindLoginError,
		Msg:  msg,
		Err:  fmt.Errorf("from %s: archive login: %w", fn.Name(), err),
	}
}

func CredentialsMissingError() error {
	msg := "Archive credentials are not set; " +
		"export ATOA_USER and ATOA_PASSWORD or add them to .env"
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.FindCredentialsError,
		Msg:  msg,
		Err:  fmt.Errorf("from %s: credentials missing", fn.Name()),
	}
}

func CredentialsError(envFile string, err error) error {
	msg := "Cannot read credentials file <em>%s</em>"
	vars := []any{envFile}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.FindCredentialsError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: env file %s: %w", fn.Name(), envFile, err),
	}
}

func DownloadError(fileURL string, err error) error {
	msg := "Download of <em>%s</em> failed"
	vars := []any{fileURL}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.FindQueryError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: download %s: %w", fn.Name(), fileURL, err),
	}
}
