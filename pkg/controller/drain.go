package controller

import (
	"github.com/golang/glog"

	"github.com/vietanhduong/ringcapd/pkg/bytesize"
	"github.com/vietanhduong/ringcapd/pkg/dump"
	"github.com/vietanhduong/ringcapd/ring"
)

// drain writes the whole buffer, oldest packet first, to a new pcap file in
// the dump directory.
//
// Packets leave the buffer as they are written. When the dump file cannot be
// created the buffer is left untouched; when the final rename fails the
// packets stay in the temporary file only.
func (c *Controller) drain() {
	packets, size := c.queue.Len(), c.queue.Size()
	if packets == 0 {
		glog.Infof("Request to dump empty buffer, ignoring")
		return
	}

	prev := c.State()
	c.setState(Draining)
	defer c.setState(prev)
	c.status()

	sink, err := dump.Create(dump.Spec{
		Dir:      c.spec.DumpDir,
		Device:   c.session.device,
		Now:      c.clock.Now(),
		Pid:      c.spec.Pid,
		SnapLen:  c.session.snaplen,
		LinkType: c.session.linkType,
	})
	if err != nil {
		glog.Errorf("Failed to open dump file: %v, %d packets left in buffer", err, packets)
		return
	}

	if _, lost, err := c.drainInto(sink.Write); err != nil {
		glog.Errorf("Dump to %s aborted after %d of %d packets: %v, %d packets lost, %d packets left in buffer",
			sink.Path(), sink.Count(), packets, err, lost, c.queue.Len())
		packets, size = sink.Count(), sink.Bytes()
	}

	path, err := sink.Close()
	if err != nil {
		glog.Errorf("Failed to complete dump of %s with %d packets: %v, data left in %s",
			bytesize.Format(size), packets, err, path)
		return
	}
	glog.V(1).Infof("Wrote %s", path)
	glog.Infof("Dumped %s with %d packets from %s to %s",
		bytesize.Format(size), packets, dump.HumanTime(sink.First()), dump.HumanTime(sink.Last()))
}

// drainInto moves the buffer into write, oldest first. The record write
// fails on has already left the buffer and is reported as lost.
func (c *Controller) drainInto(write ring.Callback) (written, lost int, err error) {
	n, err := c.queue.Drain(write)
	if err != nil {
		return n - 1, 1, err
	}
	return n, 0, nil
}
