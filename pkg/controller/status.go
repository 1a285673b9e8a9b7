package controller

import (
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/vietanhduong/ringcapd/pkg/bytesize"
)

// Backlog computes what the buffer holds. ok is false with fewer than two
// packets since a single packet spans no time. It must only be called from
// the goroutine running the controller.
func (c *Controller) Backlog() (b Backlog, ok bool) {
	if c.queue.Len() < 2 {
		return Backlog{}, false
	}
	head, _ := c.queue.PeekHead()
	tail, _ := c.queue.PeekTail()

	b.Span = tail.Timestamp.Sub(head.Timestamp)
	if b.Span < 0 {
		b.Span = 0
	}
	b.Packets = c.queue.Len()
	b.Bytes = c.queue.Size()
	return b, true
}

func (c *Controller) status() {
	b, ok := c.Backlog()
	if !ok {
		glog.Infof("Status: Not enough data in buffer")
		return
	}
	glog.Infof("Status: backlog_time=%s backlog_packets=%d backlog_size=%s",
		formatHMS(b.Span), b.Packets, bytesize.Format(b.Bytes))
}

// formatHMS renders d as hh:mm:ss, truncated to the second.
func formatHMS(d time.Duration) string {
	sec := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", sec/3600, sec/60%60, sec%60)
}

// alignDelay returns the time from now to the next multiple of interval in
// wall clock time. A now already on a boundary waits a full interval.
func alignDelay(now time.Time, interval time.Duration) time.Duration {
	return interval - time.Duration(now.UnixNano()%int64(interval))
}

// armStatusTimer schedules periodic status requests, the first one on the
// next interval boundary. Every firing schedules the next one.
func (c *Controller) armStatusTimer() {
	interval := c.spec.StatusInterval
	if interval <= 0 {
		return
	}
	now := c.clock.Now()
	delay := alignDelay(now, interval)
	glog.V(1).Infof("First status output aligned to %s", now.Add(delay).Format(time.DateTime))

	c.timerMu.Lock()
	defer c.timerMu.Unlock()
	if c.statusTimer != nil {
		c.statusTimer.Stop()
	}
	c.timerGen++
	gen := c.timerGen
	c.statusTimer = c.clock.AfterFunc(delay, func() { c.statusTick(gen) })
}

func (c *Controller) statusTick(gen uint64) {
	c.timerMu.Lock()
	defer c.timerMu.Unlock()
	// A tick racing with disarm or a re-arm belongs to a dead timer chain.
	if gen != c.timerGen || c.statusTimer == nil {
		return
	}
	c.RequestStatus()
	c.statusTimer = c.clock.AfterFunc(c.spec.StatusInterval, func() { c.statusTick(gen) })
}

func (c *Controller) disarmStatusTimer() {
	c.timerMu.Lock()
	defer c.timerMu.Unlock()
	c.timerGen++
	if c.statusTimer != nil {
		c.statusTimer.Stop()
		c.statusTimer = nil
	}
}
