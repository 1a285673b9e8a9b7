// Package dump writes buffered records to pcap files named after the time
// span they cover.
package dump

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/samber/lo"
	"github.com/vietanhduong/ringcapd/ring"
)

const (
	TimeLayout = "20060102_15:04:05"
	Extension  = "pcap"
)

type Spec struct {
	Dir      string
	Device   string
	Now      time.Time
	Pid      int
	SnapLen  int
	LinkType layers.LinkType
}

// Sink is an open dump file. Records go to a temporary file which Close
// renames after the first and last record timestamps.
type Sink struct {
	spec Spec
	path string
	file *os.File
	buf  *bufio.Writer
	w    *pcapgo.Writer

	first, last time.Time
	count       int
	bytes       int
}

// DeviceLabel is the device part of dump file names.
func DeviceLabel(device string) string {
	return lo.Ternary(device == "", "any", filepath.Base(device))
}

// FormatTime formats t the way dump file names do.
func FormatTime(t time.Time) string { return t.Format(TimeLayout) }

// HumanTime formats t for log lines.
func HumanTime(t time.Time) string {
	return strings.Replace(FormatTime(t), "_", " ", 1)
}

// TempName returns {dir}/{device}_{now}.{pid}.
func TempName(dir, device string, now time.Time, pid int) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.%d", DeviceLabel(device), FormatTime(now), pid))
}

// FinalName returns {dir}/{device}_{first}-{last}.pcap.
func FinalName(dir, device string, first, last time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s-%s.%s", DeviceLabel(device), FormatTime(first), FormatTime(last), Extension))
}

// Create opens a temporary dump file and writes the pcap file header.
func Create(spec Spec) (*Sink, error) {
	path := TempName(spec.Dir, spec.Device, spec.Now, spec.Pid)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create dump file: %w", err)
	}

	this := &Sink{spec: spec, path: path, file: f, buf: bufio.NewWriter(f)}
	this.w = pcapgo.NewWriter(this.buf)
	if err = this.w.WriteFileHeader(uint32(spec.SnapLen), spec.LinkType); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("write pcap header to %s: %w", path, err)
	}
	glog.V(2).Infof("Opened dump file %s", path)
	return this, nil
}

// Path returns the current path of the dump file.
func (s *Sink) Path() string { return s.path }

func (s *Sink) Count() int { return s.count }

func (s *Sink) Bytes() int { return s.bytes }

func (s *Sink) First() time.Time { return s.first }

func (s *Sink) Last() time.Time { return s.last }

// Write appends rec to the dump file. It satisfies ring.Callback.
func (s *Sink) Write(rec ring.Record) error {
	ci := gopacket.CaptureInfo{
		Timestamp:     rec.Timestamp,
		CaptureLength: len(rec.Data),
		Length:        max(rec.Length, len(rec.Data)),
	}
	if err := s.w.WritePacket(ci, rec.Data); err != nil {
		return fmt.Errorf("write packet to %s: %w", s.path, err)
	}
	if s.count == 0 {
		s.first = rec.Timestamp
	}
	s.last = rec.Timestamp
	s.count++
	s.bytes += len(rec.Data)
	return nil
}

// Close flushes and closes the file, then renames it to its final name which
// is returned. The temporary file stays in place when the rename fails or
// when nothing was written.
func (s *Sink) Close() (string, error) {
	if err := s.buf.Flush(); err != nil {
		s.file.Close()
		return s.path, fmt.Errorf("flush %s: %w", s.path, err)
	}
	if err := s.file.Close(); err != nil {
		return s.path, fmt.Errorf("close %s: %w", s.path, err)
	}
	if s.count == 0 {
		return s.path, fmt.Errorf("no packets written to %s", s.path)
	}

	final := FinalName(s.spec.Dir, s.spec.Device, s.first, s.last)
	if err := os.Rename(s.path, final); err != nil {
		return s.path, fmt.Errorf("rename %s to %s: %w", s.path, final, err)
	}
	s.path = final
	return final, nil
}
