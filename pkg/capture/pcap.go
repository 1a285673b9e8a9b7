package capture

import (
	"errors"
	"fmt"
	"os"

	"github.com/golang/glog"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
	"github.com/samber/lo"
	"github.com/vietanhduong/ringcapd/ring"
)

// findAllDevs is replaced in tests.
var findAllDevs = pcap.FindAllDevs

type pcapSource struct {
	handle    *pcap.Handle
	device    string
	linkType  layers.LinkType
	headerLen int
	snaplen   int
}

var _ Source = (*pcapSource)(nil)

// Open opens opts.Device for capturing. A device naming a regular file is
// read offline.
func Open(opts Options) (Source, error) {
	opts = opts.withDefaults()

	var (
		handle *pcap.Handle
		err    error
	)
	device := opts.Device
	if stat, serr := os.Stat(device); device != "" && serr == nil && stat.Mode().IsRegular() {
		if stat.Size() == 0 {
			return nil, fmt.Errorf("target file %s is empty", device)
		}
		if handle, err = pcap.OpenOffline(device); err != nil {
			return nil, fmt.Errorf("open offline %s: %w", device, err)
		}
	} else {
		if device == "" {
			if device, err = lookupDevice(); err != nil {
				return nil, err
			}
		}
		handle, err = pcap.OpenLive(device, int32(opts.SnapLen), opts.Promiscuous, opts.ReadTimeout)
		if err != nil {
			return nil, fmt.Errorf("open live %s: %w", device, err)
		}
	}

	this := &pcapSource{
		handle:   handle,
		device:   device,
		linkType: handle.LinkType(),
		snaplen:  handle.SnapLen(),
	}
	if this.headerLen, err = HeaderLength(this.linkType); err != nil {
		handle.Close()
		return nil, fmt.Errorf("iface %s: %w", device, err)
	}
	glog.V(1).Infof("Resolved datalink to %s", describe(this.linkType))

	if opts.Filter != "" {
		if err = handle.SetBPFFilter(opts.Filter); err != nil {
			handle.Close()
			return nil, fmt.Errorf("filter %q: %w", opts.Filter, err)
		}
	}

	glog.Infof("Opened %s", openedOn(device, opts.Promiscuous))
	return this, nil
}

func lookupDevice() (string, error) {
	devs, err := findAllDevs()
	if err != nil {
		return "", fmt.Errorf("lookup device: %w", err)
	}
	if len(devs) == 0 {
		return "", fmt.Errorf("lookup device: no capture device found")
	}
	return devs[0].Name, nil
}

func (s *pcapSource) ReadRecord() (ring.Record, error) {
	data, ci, err := s.handle.ReadPacketData()
	if err != nil {
		if errors.Is(err, pcap.NextErrorTimeoutExpired) {
			return ring.Record{}, ErrTimeout
		}
		return ring.Record{}, err
	}
	return ring.Record{Timestamp: ci.Timestamp, Length: ci.Length, Data: data}, nil
}

func (s *pcapSource) Device() string { return s.device }

func (s *pcapSource) LinkType() layers.LinkType { return s.linkType }

func (s *pcapSource) HeaderLen() int { return s.headerLen }

func (s *pcapSource) SnapLen() int { return s.snaplen }

func (s *pcapSource) Close() {
	if s == nil || s.handle == nil {
		return
	}
	s.handle.Close()
	s.handle = nil
}

func openedOn(device string, promisc bool) string {
	return device + lo.Ternary(promisc, " in promiscuous mode", "")
}
