// Package daemon holds the process level plumbing of ringcapd: log
// redirection and signal handling.
package daemon

import (
	"fmt"
	"os"
)

// RedirectOutput opens logfile for appending and makes it the process stdout
// and stderr, so everything glog writes ends up in it.
func RedirectOutput(logfile string) error {
	f, err := os.OpenFile(logfile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open %s: %w", logfile, err)
	}
	defer f.Close()

	os.Stdout.Sync()
	os.Stderr.Sync()
	for _, fd := range []int{int(os.Stdout.Fd()), int(os.Stderr.Fd())} {
		if err := dup(int(f.Fd()), fd); err != nil {
			return fmt.Errorf("redirect fd %d to %s: %w", fd, logfile, err)
		}
	}
	return nil
}
