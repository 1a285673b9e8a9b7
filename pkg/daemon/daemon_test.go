package daemon

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/atomic"
)

type requester struct {
	dumps, statuses atomic.Int32
}

func (r *requester) RequestDump()   { r.dumps.Inc() }
func (r *requester) RequestStatus() { r.statuses.Inc() }

func TestClassify(t *testing.T) {
	assert.Equal(t, ActionDump, Classify(syscall.SIGUSR1))
	assert.Equal(t, ActionStatus, Classify(syscall.SIGUSR2))
	assert.Equal(t, ActionTerminate, Classify(syscall.SIGTERM))
	assert.Equal(t, ActionTerminate, Classify(syscall.SIGPIPE))
	assert.Equal(t, ActionNone, Classify(syscall.SIGWINCH))
}

func TestName(t *testing.T) {
	assert.Equal(t, "SIGTERM", Name(syscall.SIGTERM))
	assert.Equal(t, int(syscall.SIGTERM), Number(syscall.SIGTERM))
	assert.Equal(t, "Unknown", Name(fakeSignal{}))
}

type fakeSignal struct{}

func (fakeSignal) String() string { return "fake" }
func (fakeSignal) Signal()        {}

func TestForward(t *testing.T) {
	sigs := make(chan os.Signal, 4)
	r := &requester{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		Forward(ctx, sigs, r, cancel)
	}()

	sigs <- syscall.SIGUSR1
	sigs <- syscall.SIGUSR2
	sigs <- syscall.SIGUSR2
	sigs <- syscall.SIGTERM

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Forward did not return after SIGTERM")
	}
	assert.Error(t, ctx.Err())
	assert.EqualValues(t, 1, r.dumps.Load())
	assert.EqualValues(t, 2, r.statuses.Load())
}

func TestRedirectOutput(t *testing.T) {
	// Redirecting the test binary's own stdout is disruptive, only check the
	// open failure.
	err := RedirectOutput(t.TempDir() + "/missing/ringcapd.log")
	assert.Error(t, err)
}
