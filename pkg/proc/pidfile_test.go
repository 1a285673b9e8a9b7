package proc

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPidFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "ringcapd.pid")

	require.NoError(t, WritePidFile(file))
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("%d\n", os.Getpid()), string(data))

	pid, err := ReadPidFile(file)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)

	require.NoError(t, RemovePidFile(file))
	assert.NoFileExists(t, file)
	assert.Error(t, RemovePidFile(file))
}

func TestWritePidFileOverwrites(t *testing.T) {
	file := filepath.Join(t.TempDir(), "ringcapd.pid")
	require.NoError(t, os.WriteFile(file, []byte("garbage that is longer than a pid\n"), 0o644))

	require.NoError(t, WritePidFile(file))
	pid, err := ReadPidFile(file)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)
}

func TestReadPidFileInvalid(t *testing.T) {
	file := filepath.Join(t.TempDir(), "ringcapd.pid")
	require.NoError(t, os.WriteFile(file, []byte("nope\n"), 0o644))

	_, err := ReadPidFile(file)
	assert.Error(t, err)
}

func TestAlive(t *testing.T) {
	orig := procPath
	t.Cleanup(func() { procPath = orig })

	procPath = t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(procPath, "1234"), 0o755))
	assert.True(t, Alive(1234))
	assert.False(t, Alive(4321))
	assert.False(t, Alive(0))
}

func TestHostProcPath(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	t.Cleanup(func() { procPath, hostPath = "/proc", "/" })

	assert.Equal(t, "/proc/1/status", HostProcPath("1", "status"))

	require.NoError(t, fs.Parse([]string{"--host-path", "/host"}))
	assert.Equal(t, "/host/proc/1/status", HostProcPath("1", "status"))
}

func TestProcStat(t *testing.T) {
	orig := procPath
	t.Cleanup(func() { procPath = orig })

	procPath = t.TempDir()
	bin := filepath.Join(t.TempDir(), "ringcapd")
	other := filepath.Join(t.TempDir(), "sshd")
	require.NoError(t, os.WriteFile(bin, []byte("a"), 0o755))
	require.NoError(t, os.WriteFile(other, []byte("b"), 0o755))
	for pid, exe := range map[string]string{"10": bin, "11": bin, "12": other} {
		require.NoError(t, os.Mkdir(filepath.Join(procPath, pid), 0o755))
		require.NoError(t, os.Symlink(exe, filepath.Join(procPath, pid, "exe")))
	}

	a, err := ProcStat(10)
	require.NoError(t, err)
	b, err := ProcStat(11)
	require.NoError(t, err)
	c, err := ProcStat(12)
	require.NoError(t, err)
	assert.True(t, a.SameExecutable(b))
	assert.False(t, a.SameExecutable(c))
	assert.False(t, a.SameExecutable(nil))

	assert.True(t, sameExecutableAsSelf(10, 11))
	assert.False(t, sameExecutableAsSelf(10, 12))
	assert.False(t, sameExecutableAsSelf(10, 13))

	_, err = ProcStat(13)
	assert.Error(t, err)
}
