package controller

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/vietanhduong/ringcapd/pkg/capture"
)

const (
	DEFAULT_STATUS_INTERVAL = time.Hour

	BackoffFloor   = 10 * time.Second
	BackoffStep    = 10 * time.Second
	BackoffCeiling = 300 * time.Second
)

type State int32

const (
	Running State = iota
	Draining
	Reconnecting
	Terminating
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Draining:
		return "draining"
	case Reconnecting:
		return "reconnecting"
	case Terminating:
		return "terminating"
	}
	return "unknown"
}

type Spec struct {
	// DumpDir receives the dump files. It must exist.
	DumpDir string
	Capture capture.Options
	// BufferSize is the byte budget of the packet buffer.
	BufferSize int
	// StatusInterval enables the periodic status output when positive.
	StatusInterval time.Duration

	// Open defaults to capture.Open.
	Open capture.OpenFunc
	// Clock defaults to the wall clock.
	Clock clock.Clock
	// Pid defaults to the pid of the current process.
	Pid int
}

// Backlog describes what the buffer currently holds.
type Backlog struct {
	Span    time.Duration
	Packets int
	Bytes   int
}
