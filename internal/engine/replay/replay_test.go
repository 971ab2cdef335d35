package replay

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCapture(t *testing.T, lines ...string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "capture.jsonl")
	require.NoError(t, os.WriteFile(p, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return p
}

func TestStream_ReplaysInOrderAndSkipsBlankLines(t *testing.T) {
	p := writeCapture(t, `{"n":1}`, ``, `  {"n":2}  `, `{"n":3}`)

	var got []string
	err := New(Config{Path: p}).Stream(context.Background(), nil, func(b []byte) error {
		// emit must copy; the scanner reuses its buffer
		got = append(got, string(b))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{`{"n":1}`, `{"n":2}`, `{"n":3}`}, got)
}

func TestStream_MissingFile(t *testing.T) {
	err := New(Config{Path: filepath.Join(t.TempDir(), "nope.jsonl")}).Stream(context.Background(), nil, func([]byte) error { return nil })
	assert.Error(t, err)
}

func TestStream_RateLimitedHonoursContext(t *testing.T) {
	p := writeCapture(t, `{}`, `{}`, `{}`, `{}`, `{}`)
	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	n := 0
	err := New(Config{Path: p, Rate: 10}).Stream(ctx, nil, func([]byte) error {
		n++
		return nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.GreaterOrEqual(t, n, 1)
	assert.Less(t, n, 5)
}
