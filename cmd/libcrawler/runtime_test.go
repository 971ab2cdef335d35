package main

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"cryptocrawler.com/pkg/xerr"
)

func TestSeconds(t *testing.T) {
	assert.Equal(t, time.Duration(0), seconds(0))
	assert.Equal(t, 90*time.Second, seconds(90))
	assert.Equal(t, time.Duration(0), seconds(math.MaxUint64))
}

func TestIsContractBreach(t *testing.T) {
	assert.True(t, isContractBreach(xerr.Newf(xerr.InvalidArgument, "symbol %d is empty", 1)))
	assert.True(t, isContractBreach(fmt.Errorf("crawl: %w", xerr.NewErrCode(xerr.InvalidArgument))))
	assert.False(t, isContractBreach(xerr.Wrap(xerr.EngineError, context.DeadlineExceeded)))
	assert.False(t, isContractBreach(context.Canceled))
}

func TestFinish_NonFatalErrorsReturn(t *testing.T) {
	finish("crawl_trade", nil)
	finish("crawl_trade", xerr.NewErrCode(xerr.CallbackFault))
}
