package proc

import (
	"fmt"
	"strconv"

	"golang.org/x/sys/unix"
)

// Stat identifies the executable a process runs from.
type Stat struct {
	Pid   int
	exe   string
	dev   uint64
	inode uint64
}

func ProcStat(pid int) (*Stat, error) {
	stat := &Stat{
		Pid: pid,
		exe: HostProcPath(strconv.Itoa(pid), "exe"),
	}
	var st unix.Stat_t
	if err := unix.Stat(stat.exe, &st); err != nil {
		return nil, fmt.Errorf("unix stat %s: %w", stat.exe, err)
	}
	stat.dev, stat.inode = uint64(st.Dev), st.Ino
	return stat, nil
}

// SameExecutable reports whether both processes run the same binary.
func (s *Stat) SameExecutable(other *Stat) bool {
	if s == nil || other == nil {
		return false
	}
	return s.dev == other.dev && s.inode == other.inode
}

// sameExecutableAsSelf is false whenever either executable cannot be
// resolved, which is the case without permission on /proc/<pid>/exe.
func sameExecutableAsSelf(self, pid int) bool {
	a, err := ProcStat(self)
	if err != nil {
		return false
	}
	b, err := ProcStat(pid)
	if err != nil {
		return false
	}
	return a.SameExecutable(b)
}
