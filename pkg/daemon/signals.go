package daemon

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang/glog"
	"golang.org/x/sys/unix"
)

type Action int

const (
	ActionNone Action = iota
	ActionDump
	ActionStatus
	ActionTerminate
)

// Requester receives the requests signals translate to. Implementations
// must not block.
type Requester interface {
	RequestDump()
	RequestStatus()
}

// Classify maps a signal to the action it requests.
func Classify(sig os.Signal) Action {
	switch sig {
	case syscall.SIGUSR1:
		return ActionDump
	case syscall.SIGUSR2:
		return ActionStatus
	case syscall.SIGTERM, syscall.SIGPIPE, syscall.SIGINT:
		return ActionTerminate
	}
	return ActionNone
}

// Notify subscribes to the control signals. SIGINT only terminates in debug
// mode; a daemon ignores it.
func Notify(debug bool) chan os.Signal {
	sigs := make(chan os.Signal, 8)
	signals := []os.Signal{syscall.SIGUSR1, syscall.SIGUSR2, syscall.SIGTERM, syscall.SIGPIPE}
	if debug {
		signals = append(signals, syscall.SIGINT)
	}
	signal.Notify(sigs, signals...)
	return sigs
}

// IgnoreDisruptions ignores the signals a terminal or a stray kill would send
// to a daemon.
func IgnoreDisruptions() {
	signal.Ignore(syscall.SIGQUIT, syscall.SIGABRT, syscall.SIGHUP, syscall.SIGINT)
}

// Forward turns signals into requests until ctx is done. A terminating signal
// calls terminate and returns.
func Forward(ctx context.Context, sigs <-chan os.Signal, r Requester, terminate context.CancelFunc) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigs:
			switch Classify(sig) {
			case ActionDump:
				glog.V(1).Infof("Caught signal %s - Request to dump buffer", Name(sig))
				r.RequestDump()
			case ActionStatus:
				r.RequestStatus()
			case ActionTerminate:
				glog.Infof("Capture ended (received signal %d [%s])", Number(sig), Name(sig))
				terminate()
				return
			default:
				glog.Warningf("Ignoring unexpected signal %v", sig)
			}
		}
	}
}

func Name(sig os.Signal) string {
	if s, ok := sig.(syscall.Signal); ok {
		if name := unix.SignalName(s); name != "" {
			return name
		}
	}
	return "Unknown"
}

func Number(sig os.Signal) int {
	if s, ok := sig.(syscall.Signal); ok {
		return int(s)
	}
	return -1
}
