package proc

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/golang/glog"
	"golang.org/x/sys/unix"
)

// WritePidFile writes the pid of the current process followed by a newline to
// file, replacing any previous content.
func WritePidFile(file string) error {
	self := os.Getpid()
	if pid, err := ReadPidFile(file); err == nil && pid != self && Alive(pid) {
		if sameExecutableAsSelf(self, pid) {
			glog.Warningf("PID file %s belongs to another instance (pid %d), overwriting", file, pid)
		} else {
			glog.Warningf("PID file %s refers to running process %d, overwriting", file, pid)
		}
	}
	if err := os.WriteFile(file, []byte(fmt.Sprintf("%d\n", self)), 0o644); err != nil {
		return fmt.Errorf("write PID file %s: %w", file, err)
	}
	return nil
}

// ReadPidFile returns the pid stored in file.
func ReadPidFile(file string) (int, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return -1, fmt.Errorf("read PID file %s: %w", file, err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return -1, fmt.Errorf("parse PID file %s: %w", file, err)
	}
	return pid, nil
}

func RemovePidFile(file string) error {
	if err := os.Remove(file); err != nil {
		return fmt.Errorf("unlink PID file %s: %w", file, err)
	}
	return nil
}

// Alive reports whether a process with the given pid exists.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	var stat unix.Stat_t
	return unix.Stat(HostProcPath(strconv.Itoa(pid)), &stat) == nil
}
