package xerr

import (
	"errors"
	"fmt"
)

// Bridge error codes.
const (
	OK              = 200
	InvalidArgument = 400
	UnknownEngine   = 404
	EngineFault     = 500
	EngineError     = 502
	CallbackFault   = 510
)

type CodeError struct {
	Code  int    `json:"code"`
	Msg   string `json:"msg"`
	Cause error  `json:"-"`
}

func (e *CodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("ErrCode:%d, Msg:%s: %v", e.Code, e.Msg, e.Cause)
	}
	return fmt.Sprintf("ErrCode:%d, Msg:%s", e.Code, e.Msg)
}

func (e *CodeError) Unwrap() error { return e.Cause }

// Is matches any *CodeError with the same code, so errors.Is(err, xerr.NewErrCode(c)) works.
func (e *CodeError) Is(target error) bool {
	var t *CodeError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func New(code int, msg string) error {
	return &CodeError{Code: code, Msg: msg}
}

func NewErrCode(code int) error {
	return &CodeError{Code: code, Msg: MapErrMsg(code)}
}

// Wrap attaches cause to a coded error; a nil cause yields nil.
func Wrap(code int, cause error) error {
	if cause == nil {
		return nil
	}
	return &CodeError{Code: code, Msg: MapErrMsg(code), Cause: cause}
}

func Newf(code int, format string, args ...any) error {
	return &CodeError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// CodeOf returns the code carried by err, OK for nil and EngineError for
// uncoded errors.
func CodeOf(err error) int {
	if err == nil {
		return OK
	}
	var ce *CodeError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return EngineError
}

func MapErrMsg(code int) string {
	switch code {
	case OK:
		return "ok"
	case InvalidArgument:
		return "invalid argument"
	case UnknownEngine:
		return "unknown engine"
	case EngineFault:
		return "engine fault"
	case EngineError:
		return "engine error"
	case CallbackFault:
		return "callback fault"
	default:
		return "unknown error"
	}
}
