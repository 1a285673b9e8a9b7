// Package controller runs the capture loop of ringcapd. A single goroutine
// owns the packet buffer and the capture source; other goroutines only post
// requests which the loop serves between two packets.
package controller

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/cenkalti/backoff/v4"
	"github.com/golang/glog"
	"github.com/google/gopacket/layers"
	"go.uber.org/atomic"

	"github.com/vietanhduong/ringcapd/pkg/capture"
	"github.com/vietanhduong/ringcapd/ring"
)

// session is the open capture source and what is remembered about it across
// reconnects.
type session struct {
	source    capture.Source
	opts      capture.Options
	device    string
	linkType  layers.LinkType
	headerLen int
	snaplen   int
	backoff   *LinearBackOff
}

func (s *session) attach(src capture.Source) {
	s.source = src
	s.device = src.Device()
	s.linkType = src.LinkType()
	s.headerLen = src.HeaderLen()
	s.snaplen = src.SnapLen()
}

func (s *session) close() {
	if s.source != nil {
		s.source.Close()
		s.source = nil
	}
}

type Controller struct {
	spec    Spec
	clock   clock.Clock
	queue   *ring.Queue
	session session
	state   atomic.Int32

	dumpRequested   atomic.Bool
	statusRequested atomic.Bool

	timerMu     sync.Mutex
	timerGen    uint64
	statusTimer *clock.Timer

	sleep func(ctx context.Context, d time.Duration) error
}

// New opens the capture source and allocates the packet buffer.
func New(spec Spec) (*Controller, error) {
	if spec.Open == nil {
		spec.Open = capture.Open
	}
	if spec.Clock == nil {
		spec.Clock = clock.New()
	}
	if spec.Pid == 0 {
		spec.Pid = os.Getpid()
	}

	this := &Controller{
		spec:    spec,
		clock:   spec.Clock,
		session: session{opts: spec.Capture, backoff: NewLinearBackOff()},
	}
	this.sleep = this.sleepContext

	src, err := spec.Open(spec.Capture)
	if err != nil {
		return nil, fmt.Errorf("open capture: %w", err)
	}
	this.session.attach(src)

	if this.queue, err = ring.New(spec.BufferSize); err != nil {
		src.Close()
		return nil, fmt.Errorf("init buffer: %w", err)
	}
	return this, nil
}

// State returns the current state. It is safe to call from any goroutine.
func (c *Controller) State() State { return State(c.state.Load()) }

func (c *Controller) setState(s State) {
	if old := State(c.state.Swap(int32(s))); old != s {
		glog.V(2).Infof("Controller state %s -> %s", old, s)
	}
}

// Device returns the device the controller captures from.
func (c *Controller) Device() string { return c.session.device }

// HeaderLen returns the link layer header length of the capture source.
func (c *Controller) HeaderLen() int { return c.session.headerLen }

// RequestDump asks the loop to write the buffer to disk. It never blocks and
// requests posted before the loop gets to them are coalesced.
func (c *Controller) RequestDump() { c.dumpRequested.Store(true) }

// RequestStatus asks the loop to log the buffer backlog.
func (c *Controller) RequestStatus() { c.statusRequested.Store(true) }

// Run captures packets into the buffer until ctx is done. Source failures
// are retried forever.
func (c *Controller) Run(ctx context.Context) {
	defer c.shutdown()

	c.setState(Running)
	c.armStatusTimer()
	for {
		if ctx.Err() != nil {
			return
		}
		c.poll()

		rec, err := c.session.source.ReadRecord()
		switch {
		case err == nil:
			c.ingest(rec)
		case errors.Is(err, capture.ErrTimeout):
		default:
			if err = c.reconnect(ctx, err); err != nil {
				return
			}
		}
	}
}

// poll serves pending requests. It is only called between two reads.
func (c *Controller) poll() {
	if c.dumpRequested.Swap(false) {
		c.drain()
	}
	if c.statusRequested.Swap(false) {
		c.status()
	}
}

func (c *Controller) ingest(rec ring.Record) {
	if err := c.queue.Enqueue(rec); err != nil {
		glog.Warningf("Refusing to buffer packet: %v", err)
	}
}

// reconnect closes the failed source and reopens it with the same options,
// waiting longer after every failed attempt. It only returns an error when
// ctx is done.
func (c *Controller) reconnect(ctx context.Context, cause error) error {
	c.setState(Reconnecting)
	c.disarmStatusTimer()
	c.session.close()

	b := backoff.WithContext(c.session.backoff, ctx)
	for {
		wait := b.NextBackOff()
		if wait == backoff.Stop {
			return ctx.Err()
		}
		glog.Warningf("Capture on %s failed: %v, retrying in %s", c.session.device, cause, wait)
		if err := c.sleep(ctx, wait); err != nil {
			return err
		}
		// The buffer stays ours while the device is gone.
		c.poll()

		src, err := c.spec.Open(c.session.opts)
		if err != nil {
			cause = err
			continue
		}
		c.session.attach(src)
		b.Reset()
		glog.Infof("Capture resumed on %s", c.session.device)
		c.setState(Running)
		c.armStatusTimer()
		return nil
	}
}

func (c *Controller) sleepContext(ctx context.Context, d time.Duration) error {
	t := c.clock.Timer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (c *Controller) shutdown() {
	c.setState(Terminating)
	c.disarmStatusTimer()
	c.session.close()
}
