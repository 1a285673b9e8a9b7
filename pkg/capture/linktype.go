package capture

import (
	"fmt"

	"github.com/google/gopacket/layers"
)

type linkLayer struct {
	offset int
	desc   string
}

// Offsets gathered from Ethereal, ipfm and friends.
var linkLayers = map[layers.LinkType]linkLayer{
	layers.LinkTypeEthernet:    {14, "Ethernet"},
	layers.LinkTypeArcNet:      {6, "ARCNET"},
	layers.LinkTypePPPEthernet: {8, "PPPoE"},
	layers.LinkTypeNull:        {4, "BSD loopback encapsulation"},
	layers.LinkTypeLoop:        {4, "OpenBSD loopback encapsulation"},
	layers.LinkTypePPP:         {4, "PPP"},
	layers.LinkTypeC_HDLC:      {4, "Cisco PPP with HDLC framing"},
	layers.LinkTypePPP_HDLC:    {4, "PPP in HDLC-like framing"},
	layers.LinkTypeRaw:         {0, "raw IP"},
	layers.LinkTypeIPv4:        {0, "raw IPv4"},
	layers.LinkTypeIPv6:        {0, "raw IPv6"},
	layers.LinkTypeSLIP:        {16, "SLIP"},
	layers.LinkTypeATM_RFC1483: {8, "RFC 1483 LLC/SNAP-encapsulated ATM"},
	layers.LinkTypeTokenRing:   {22, "IEEE 802.5 Token Ring"},
	layers.LinkTypeIEEE802_11:  {32, "IEEE 802.11 wireless LAN"},
	layers.LinkTypePrismHeader: {144 + 30, "Prism monitor mode"},
	layers.LinkTypeLinuxSLL:    {16, "Linux \"cooked\" capture encapsulation"},
	layers.LinkTypeLTalk:       {0, "Apple LocalTalk"},
	layers.LinkTypePFLog:       {50, "OpenBSD pflog"},
	layers.LinkTypeSunATM:      {4, "SunATM device"},
}

// HeaderLength returns the length of the link layer header for lt.
func HeaderLength(lt layers.LinkType) (int, error) {
	l, ok := linkLayers[lt]
	if !ok {
		return -1, fmt.Errorf("%w %d", ErrUnknownLinkType, int(lt))
	}
	return l.offset, nil
}

func describe(lt layers.LinkType) string {
	if l, ok := linkLayers[lt]; ok {
		return l.desc
	}
	return lt.String()
}
