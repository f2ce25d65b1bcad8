package natpmp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
)

// Server is a minimal NAT-PMP responder. It grants every mapping it is asked
// for without touching any packet filter, which makes it useful as a lab
// gateway for exercising clients.
type Server struct {
	Host        string // address to listen on
	Port        int
	PublicAddr  string // external address announced to clients
	MaxLifetime uint32 // upper bound on granted lifetimes, 0 for none
	Result      uint16 // when nonzero, every request is answered with this result code

	conn     *net.UDPConn
	started  time.Time
	mappings map[mappingKey]uint16
}

type mappingKey struct {
	proto Protocol
	port  uint16
}

func (s *Server) Check() error {
	if s.Host == "" {
		return fmt.Errorf("Host is empty")
	}
	if s.Port == 0 {
		s.Port = Port
	}
	ip := net.ParseIP(s.PublicAddr)
	if ip == nil || ip.To4() == nil {
		return fmt.Errorf("PublicAddr %q is not an IPv4 address", s.PublicAddr)
	}
	return nil
}

// Listen binds the server socket. A Port of -1 picks an ephemeral port.
func (s *Server) Listen(ctx context.Context) error {
	port := s.Port
	if port < 0 {
		port = 0
	}
	conn, err := ListenUdp(ctx, net.JoinHostPort(s.Host, strconv.Itoa(port)))
	if err != nil {
		return err
	}
	s.conn = conn
	s.started = time.Now()
	s.mappings = make(map[mappingKey]uint16)
	return nil
}

// Addr returns the bound address, or "" before Listen.
func (s *Server) Addr() string {
	if s.conn == nil {
		return ""
	}
	return s.conn.LocalAddr().String()
}

// Serve answers requests until ctx is done or the socket is closed.
func (s *Server) Serve(ctx context.Context) {
	stop := context.AfterFunc(ctx, func() { s.conn.Close() })
	defer stop()

	buf := make([]byte, 64)
	for {
		n, raddr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.WithFields(log.Fields{
				"error": err,
			}).Error("read request failed")
			continue
		}

		reply := s.handle(buf[:n], raddr)
		if _, err := s.conn.WriteToUDP(reply, raddr); err != nil {
			log.WithFields(log.Fields{
				"client": raddr,
				"error":  err,
			}).Error("send reply failed")
		}
	}
}

func (s *Server) epoch() uint32 {
	return uint32(time.Since(s.started) / time.Second)
}

func (s *Server) handle(b []byte, raddr *net.UDPAddr) []byte {
	var op byte
	if len(b) > 1 {
		op = b[1]
	}

	req, err := DecodeRequest(b)
	switch {
	case errors.Is(err, ErrUnsupportedVersion):
		log.WithFields(log.Fields{"client": raddr}).Debug("unsupported version")
		return encodeErrorReply(op, ResultUnsupportedVersion, s.epoch())
	case err != nil:
		log.WithFields(log.Fields{"client": raddr, "opcode": op}).Debug("unsupported opcode")
		return encodeErrorReply(op, ResultUnsupportedOpcode, s.epoch())
	}

	if req.Opcode == OpPublicAddress {
		log.WithFields(log.Fields{
			"client": raddr,
		}).Info("public address request")
		return EncodePublicAddressReply(s.Result, s.epoch(), net.ParseIP(s.PublicAddr))
	}

	if s.Result != ResultSuccess {
		return EncodeMappingReply(req.Protocol, s.Result, s.epoch(), req.PrivatePort, 0, 0)
	}

	key := mappingKey{req.Protocol, req.PrivatePort}
	if req.Lifetime == 0 {
		delete(s.mappings, key)
		log.WithFields(log.Fields{
			"client":  raddr,
			"mapping": fmt.Sprintf("%s/%d", req.Protocol, req.PrivatePort),
		}).Info("mapping deleted")
		return EncodeMappingReply(req.Protocol, ResultSuccess, s.epoch(), req.PrivatePort, 0, 0)
	}

	public, ok := s.mappings[key]
	if !ok {
		public = req.PublicPort
		if public == 0 {
			public = req.PrivatePort
		}
		s.mappings[key] = public
	}
	lifetime := req.Lifetime
	if s.MaxLifetime != 0 && lifetime > s.MaxLifetime {
		lifetime = s.MaxLifetime
	}
	log.WithFields(log.Fields{
		"client":   raddr,
		"mapping":  fmt.Sprintf("%s/%d=>%s:%d", req.Protocol, req.PrivatePort, s.PublicAddr, public),
		"lifetime": lifetime,
	}).Info("mapping granted")
	return EncodeMappingReply(req.Protocol, ResultSuccess, s.epoch(), req.PrivatePort, public, lifetime)
}

// Start listens and serves until Stop is called.
func (s *Server) Start() {
	ctx := context.Background()
	if err := s.Listen(ctx); err != nil {
		log.Fatal(err)
	}
	log.Infof("listening on %s", s.Addr())
	s.Serve(ctx)
}

// Stop closes the socket, which ends Serve.
func (s *Server) Stop() {
	if s.conn != nil {
		s.conn.Close()
	}
}
