package natpmp

import (
	"net"
	"time"
)

type Protocol int

const (
	UDP Protocol = iota
	TCP
)

func (p Protocol) String() string {
	if p == UDP {
		return "udp"
	}
	return "tcp"
}

func (p Protocol) opcode() byte {
	if p == UDP {
		return OpMapUDP
	}
	return OpMapTCP
}

// Response is either a *GatewayResponse or a *MappingResponse.
type Response interface {
	response()
}

// GatewayResponse is the reply to a public address request.
type GatewayResponse struct {
	Epoch         uint32 // seconds since the gateway's NAT-PMP service started
	PublicAddress net.IP
}

// MappingResponse is the reply to a UDP or TCP mapping request.
type MappingResponse struct {
	Protocol    Protocol
	Epoch       uint32
	PrivatePort uint16
	PublicPort  uint16
	Lifetime    time.Duration
}

func (*GatewayResponse) response() {}
func (*MappingResponse) response() {}
