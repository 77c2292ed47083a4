package obs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestTimeLogsOutcome(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	ctx := WithRequestID(context.Background(), "req-1")

	func() {
		var err error
		defer Time(ctx, "ok.op")(&err)
	}()

	func() {
		err := errors.New("boom")
		defer Time(ctx, "bad.op")(&err)
	}()

	entries := logs.All()
	require.Len(t, entries, 2)

	assert.Equal(t, "op done", entries[0].Message)
	assert.Equal(t, "req-1", entries[0].ContextMap()["req_id"])
	assert.Equal(t, "ok.op", entries[0].ContextMap()["op"])

	assert.Equal(t, "op failed", entries[1].Message)
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])
}

func TestRequestIDMissing(t *testing.T) {
	assert.Equal(t, "", RequestID(context.Background()))
}
