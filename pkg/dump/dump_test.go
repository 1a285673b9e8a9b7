package dump

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vietanhduong/ringcapd/ring"
)

var base = time.Date(2024, time.March, 1, 9, 5, 7, 0, time.UTC)

func TestNames(t *testing.T) {
	assert.Equal(t, "/var/dumps/eth0_20240301_09:05:07.4242", TempName("/var/dumps", "eth0", base, 4242))
	assert.Equal(t, "/var/dumps/any_20240301_09:05:07.1", TempName("/var/dumps", "", base, 1))
	assert.Equal(t,
		"/var/dumps/eth0_20240301_09:05:07-20240301_10:00:00.pcap",
		FinalName("/var/dumps", "eth0", base, time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, "trace.pcap", DeviceLabel("/tmp/captures/trace.pcap"))
	assert.Equal(t, "20240301 09:05:07", HumanTime(base))
}

func readBack(t *testing.T, path string) []ring.Record {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	r, err := pcapgo.NewReader(f)
	require.NoError(t, err)
	assert.Equal(t, layers.LinkTypeEthernet, r.LinkType())

	var ret []ring.Record
	for {
		data, ci, err := r.ReadPacketData()
		if err == io.EOF {
			return ret
		}
		require.NoError(t, err)
		ret = append(ret, ring.Record{Timestamp: ci.Timestamp, Length: ci.Length, Data: data})
	}
}

func TestSink(t *testing.T) {
	dir := t.TempDir()
	sink, err := Create(Spec{Dir: dir, Device: "eth0", Now: base, Pid: 99, SnapLen: 65535, LinkType: layers.LinkTypeEthernet})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "eth0_20240301_09:05:07.99"), sink.Path())

	recs := []ring.Record{
		{Timestamp: base.Add(-3 * time.Second), Length: 60, Data: []byte{1, 2, 3}},
		{Timestamp: base.Add(-2 * time.Second), Length: 4, Data: []byte{4, 5, 6, 7}},
		{Timestamp: base.Add(-time.Second), Data: []byte{8}},
	}
	for _, rec := range recs {
		require.NoError(t, sink.Write(rec))
	}
	assert.Equal(t, 3, sink.Count())
	assert.Equal(t, 8, sink.Bytes())

	final, err := sink.Close()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "eth0_20240301_09:05:04-20240301_09:05:06.pcap"), final)
	assert.NoFileExists(t, filepath.Join(dir, "eth0_20240301_09:05:07.99"))

	got := readBack(t, final)
	require.Len(t, got, 3)
	for i := range recs {
		assert.Equal(t, recs[i].Data, got[i].Data)
		assert.True(t, recs[i].Timestamp.Equal(got[i].Timestamp))
	}
	assert.Equal(t, 60, got[0].Length)
	assert.Equal(t, 1, got[2].Length)
}

func TestCreateFailsOnMissingDir(t *testing.T) {
	_, err := Create(Spec{Dir: filepath.Join(t.TempDir(), "missing"), Now: base, SnapLen: 65535, LinkType: layers.LinkTypeEthernet})
	assert.Error(t, err)
}

func TestCloseKeepsTempFileOnRenameFailure(t *testing.T) {
	dir := t.TempDir()
	sink, err := Create(Spec{Dir: dir, Device: "eth0", Now: base, Pid: 7, SnapLen: 65535, LinkType: layers.LinkTypeEthernet})
	require.NoError(t, err)
	require.NoError(t, sink.Write(ring.Record{Timestamp: base, Data: []byte{1}}))

	// A directory in place of the final name makes the rename fail.
	require.NoError(t, os.Mkdir(FinalName(dir, "eth0", base, base), 0o755))

	path, err := sink.Close()
	require.Error(t, err)
	assert.Equal(t, filepath.Join(dir, "eth0_20240301_09:05:07.7"), path)
	assert.FileExists(t, path)
	assert.Len(t, readBack(t, path), 1)
}

func TestCloseWithoutRecords(t *testing.T) {
	dir := t.TempDir()
	sink, err := Create(Spec{Dir: dir, Now: base, Pid: 1, SnapLen: 65535, LinkType: layers.LinkTypeEthernet})
	require.NoError(t, err)

	path, err := sink.Close()
	assert.Error(t, err)
	assert.FileExists(t, path)
}
