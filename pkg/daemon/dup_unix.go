//go:build unix && !linux

package daemon

import "golang.org/x/sys/unix"

func dup(oldfd, newfd int) error { return unix.Dup2(oldfd, newfd) }
