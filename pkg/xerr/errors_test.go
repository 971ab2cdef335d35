package xerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap_KeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := Wrap(EngineError, cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, NewErrCode(EngineError))
	assert.NotErrorIs(t, err, NewErrCode(EngineFault))
	assert.Equal(t, "ErrCode:502, Msg:engine error: dial tcp: refused", err.Error())
}

func TestWrap_NilCause(t *testing.T) {
	assert.NoError(t, Wrap(EngineFault, nil))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, OK, CodeOf(nil))
	assert.Equal(t, InvalidArgument, CodeOf(Newf(InvalidArgument, "symbol %d is empty", 3)))
	assert.Equal(t, CallbackFault, CodeOf(fmt.Errorf("deliver: %w", NewErrCode(CallbackFault))))
	assert.Equal(t, EngineError, CodeOf(errors.New("plain")))
}
