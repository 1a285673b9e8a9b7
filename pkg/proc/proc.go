package proc

import (
	"path"

	"github.com/spf13/pflag"
)

var (
	procPath = "/proc"
	hostPath = "/"
)

// RegisterFlags adds the procfs location flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVar(&procPath, "proc-path", procPath, "Path to proc directory")
	fs.StringVar(&hostPath, "host-path", hostPath, "The host directory. Useful in container.")
}

func ProcPath(paths ...string) string {
	p := append([]string{procPath}, paths...)
	return path.Join(p...)
}

func HostProcPath(paths ...string) string {
	if hostPath == "" || hostPath == "/" {
		return ProcPath(paths...)
	}
	p := append([]string{hostPath, procPath}, paths...)
	return path.Join(p...)
}
