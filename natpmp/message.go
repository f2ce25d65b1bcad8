package natpmp

import (
	"encoding/binary"
	"net"
	"time"
)

// EncodePublicAddressRequest returns the 2-byte public address request.
func EncodePublicAddressRequest() []byte {
	return []byte{protocolVersion, OpPublicAddress}
}

// EncodePortMappingRequest returns the 12-byte mapping request for proto.
func EncodePortMappingRequest(proto Protocol, privatePort, publicPort uint16, lifetime uint32) []byte {
	b := make([]byte, mappingRequestSize)
	b[0] = protocolVersion
	b[1] = proto.opcode()
	// b[2:4] reserved
	binary.BigEndian.PutUint16(b[4:6], privatePort)
	binary.BigEndian.PutUint16(b[6:8], publicPort)
	binary.BigEndian.PutUint32(b[8:12], lifetime)
	return b
}

// DecodeResponse interprets a datagram received from the gateway. The
// datagram is laid over a zeroed 16-byte area, so bytes past the end of a
// short datagram read as zero.
func DecodeResponse(b []byte) (Response, error) {
	var buf [mappingReplySize]byte
	copy(buf[:], b)

	if buf[0] != protocolVersion {
		return nil, ErrUnsupportedVersion
	}
	op := buf[1]
	if op < opReply|OpPublicAddress || op > opReply|OpMapTCP {
		return nil, ErrUnsupportedOpcode
	}
	if err := ResultCodeError(binary.BigEndian.Uint16(buf[2:4])); err != nil {
		return nil, err
	}
	epoch := binary.BigEndian.Uint32(buf[4:8])

	switch op &^ opReply {
	case OpPublicAddress:
		return &GatewayResponse{
			Epoch:         epoch,
			PublicAddress: ipv4FromUint32(binary.BigEndian.Uint32(buf[8:12])),
		}, nil
	default:
		m := &MappingResponse{
			Protocol:    TCP,
			Epoch:       epoch,
			PrivatePort: binary.BigEndian.Uint16(buf[8:10]),
			PublicPort:  binary.BigEndian.Uint16(buf[10:12]),
			Lifetime:    time.Duration(binary.BigEndian.Uint32(buf[12:16])) * time.Second,
		}
		if op&^opReply == OpMapUDP {
			m.Protocol = UDP
		}
		return m, nil
	}
}

func ipv4FromUint32(v uint32) net.IP {
	return net.IPv4(byte(v>>24), byte(v>>16), byte(v>>8), byte(v)).To4()
}

// Request is the gateway-side view of a decoded request.
type Request struct {
	Opcode      byte
	Protocol    Protocol
	PrivatePort uint16
	PublicPort  uint16
	Lifetime    uint32
}

// DecodeRequest parses a request as a gateway would receive it.
func DecodeRequest(b []byte) (*Request, error) {
	if len(b) < publicAddressRequestSize {
		return nil, ErrUnsupportedOpcode
	}
	if b[0] != protocolVersion {
		return nil, ErrUnsupportedVersion
	}
	req := &Request{Opcode: b[1]}
	switch b[1] {
	case OpPublicAddress:
		return req, nil
	case OpMapUDP, OpMapTCP:
		if len(b) < mappingRequestSize {
			return nil, ErrUnsupportedOpcode
		}
		req.Protocol = UDP
		if b[1] == OpMapTCP {
			req.Protocol = TCP
		}
		req.PrivatePort = binary.BigEndian.Uint16(b[4:6])
		req.PublicPort = binary.BigEndian.Uint16(b[6:8])
		req.Lifetime = binary.BigEndian.Uint32(b[8:12])
		return req, nil
	default:
		return nil, ErrUnsupportedOpcode
	}
}

// EncodePublicAddressReply builds the 12-byte reply to a public address request.
func EncodePublicAddressReply(result uint16, epoch uint32, addr net.IP) []byte {
	b := make([]byte, publicAddressReplySize)
	b[0] = protocolVersion
	b[1] = opReply | OpPublicAddress
	binary.BigEndian.PutUint16(b[2:4], result)
	binary.BigEndian.PutUint32(b[4:8], epoch)
	if ip4 := addr.To4(); ip4 != nil {
		copy(b[8:12], ip4)
	}
	return b
}

// EncodeMappingReply builds the 16-byte reply to a mapping request.
func EncodeMappingReply(proto Protocol, result uint16, epoch uint32, privatePort, publicPort uint16, lifetime uint32) []byte {
	b := make([]byte, mappingReplySize)
	b[0] = protocolVersion
	b[1] = opReply | proto.opcode()
	binary.BigEndian.PutUint16(b[2:4], result)
	binary.BigEndian.PutUint32(b[4:8], epoch)
	binary.BigEndian.PutUint16(b[8:10], privatePort)
	binary.BigEndian.PutUint16(b[10:12], publicPort)
	binary.BigEndian.PutUint32(b[12:16], lifetime)
	return b
}

// encodeErrorReply answers an unusable request with a bare 8-byte header.
func encodeErrorReply(op byte, result uint16, epoch uint32) []byte {
	b := make([]byte, 8)
	b[0] = protocolVersion
	b[1] = opReply | op
	binary.BigEndian.PutUint16(b[2:4], result)
	binary.BigEndian.PutUint32(b[4:8], epoch)
	return b
}
