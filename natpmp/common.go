package natpmp

import (
	"context"
	"fmt"
	"net"
	"syscall"

	"github.com/jackpal/gateway"
	"golang.org/x/sys/unix"
)

// Control marks the socket SO_REUSEADDR so a restarted client or responder
// can rebind its port immediately.
func Control(network, address string, c syscall.RawConn) (err error) {
	if err := c.Control(func(fd uintptr) {
		err = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	}); err != nil {
		return err
	}
	return err
}

func ListenUdp(ctx context.Context, laddr string) (*net.UDPConn, error) {
	cfg := net.ListenConfig{
		Control: Control,
	}
	pc, err := cfg.ListenPacket(ctx, "udp4", laddr)
	if err != nil {
		return nil, err
	}
	return pc.(*net.UDPConn), nil
}

// DiscoverGateway returns the IPv4 address of the default gateway.
func DiscoverGateway() (net.IP, error) {
	ip, err := gateway.DiscoverGateway()
	if err != nil {
		return nil, err
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return nil, fmt.Errorf("default gateway %s is not IPv4", ip)
	}
	return ip4, nil
}

// GatewayAddr returns host:port of the NAT-PMP service on gw.
func GatewayAddr(gw net.IP) string {
	return net.JoinHostPort(gw.String(), fmt.Sprint(Port))
}
