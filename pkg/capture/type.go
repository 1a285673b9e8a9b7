package capture

import (
	"errors"
	"time"

	"github.com/google/gopacket/layers"
	"github.com/vietanhduong/ringcapd/ring"
)

const (
	DEFAULT_SNAPLEN      = 65535
	DEFAULT_READ_TIMEOUT = time.Second
)

var (
	// ErrTimeout is returned by ReadRecord when no packet arrived within the
	// read timeout. It is not a failure of the source.
	ErrTimeout = errors.New("capture read timeout")

	ErrUnknownLinkType = errors.New("unknown datalink type")
)

// Options are the parameters a source is opened, and reopened, with.
type Options struct {
	// Device is an interface name or the path of a pcap file. Empty lets
	// libpcap pick an interface.
	Device      string
	Promiscuous bool
	// Filter is a BPF expression, empty for no filter.
	Filter      string
	SnapLen     int
	ReadTimeout time.Duration
}

// Source supplies captured packets.
type Source interface {
	// ReadRecord blocks until a packet arrives, the read timeout expires
	// (ErrTimeout) or the source fails.
	ReadRecord() (ring.Record, error)
	Device() string
	LinkType() layers.LinkType
	// HeaderLen is the length of the link layer header.
	HeaderLen() int
	SnapLen() int
	Close()
}

// OpenFunc opens a Source.
type OpenFunc func(opts Options) (Source, error)

func (o Options) withDefaults() Options {
	if o.SnapLen <= 0 {
		o.SnapLen = DEFAULT_SNAPLEN
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = DEFAULT_READ_TIMEOUT
	}
	return o
}
