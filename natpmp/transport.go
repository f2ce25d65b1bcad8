package natpmp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// Transport is an unreliable datagram channel to the gateway. A Client
// performs at most one exchange at a time on it.
type Transport interface {
	Connect(ctx context.Context, addr string) error
	Send(ctx context.Context, b []byte) (int, error)
	Recv(ctx context.Context, b []byte) (int, error)
}

// DefaultRecvTimeout is the initial retransmission interval of RFC 6886.
const DefaultRecvTimeout = 250 * time.Millisecond

// UDPTransport is the default Transport, a connected UDP socket.
type UDPTransport struct {
	LocalAddr   string        // local address to bind, "0.0.0.0:0" if empty
	RecvTimeout time.Duration // per-receive timeout
	conn        *net.UDPConn
}

// Bind opens the local socket.
func (t *UDPTransport) Bind(ctx context.Context) error {
	if t.LocalAddr == "" {
		t.LocalAddr = "0.0.0.0:0"
	}
	if t.RecvTimeout == 0 {
		t.RecvTimeout = DefaultRecvTimeout
	}
	conn, err := ListenUdp(ctx, t.LocalAddr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSocket, err)
	}
	t.conn = conn
	return nil
}

// Connect fixes the remote address, so only datagrams from addr are received.
func (t *UDPTransport) Connect(ctx context.Context, addr string) error {
	if t.conn == nil {
		return ErrSocket
	}
	raddr, err := net.ResolveUDPAddr("udp4", addr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnect, err)
	}
	// A bound UDP socket cannot be connected after the fact through the net
	// package, so re-dial from the same local address.
	laddr := t.conn.LocalAddr().(*net.UDPAddr)
	if err := t.conn.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrConnect, err)
	}
	d := net.Dialer{
		Control:   Control,
		LocalAddr: laddr,
	}
	conn, err := d.DialContext(ctx, "udp4", raddr.String())
	if err != nil {
		t.conn = nil
		return fmt.Errorf("%w: %v", ErrConnect, err)
	}
	t.conn = conn.(*net.UDPConn)
	return nil
}

func (t *UDPTransport) Send(ctx context.Context, b []byte) (int, error) {
	if t.conn == nil {
		return 0, net.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return t.conn.Write(b)
}

func (t *UDPTransport) Recv(ctx context.Context, b []byte) (int, error) {
	conn := t.conn
	if conn == nil {
		return 0, net.ErrClosed
	}
	if err := conn.SetReadDeadline(time.Now().Add(t.RecvTimeout)); err != nil {
		return 0, err
	}

	woken := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		// wake up the blocked read
		_ = conn.SetReadDeadline(time.Now())
		close(woken)
	})

	n, err := conn.Read(b)
	if !stop() {
		<-woken
	}
	if err != nil && ctx.Err() != nil {
		return 0, ctx.Err()
	}
	return n, err
}

func (t *UDPTransport) Close() error {
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// OpenUDPTransport binds a UDP socket and connects it to the NAT-PMP port
// of gw.
func OpenUDPTransport(ctx context.Context, gw net.IP) (*UDPTransport, error) {
	t := &UDPTransport{}
	if err := t.Bind(ctx); err != nil {
		return nil, err
	}
	if err := t.Connect(ctx, GatewayAddr(gw)); err != nil {
		t.Close()
		return nil, err
	}
	return t, nil
}
