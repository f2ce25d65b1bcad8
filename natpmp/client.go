package natpmp

import (
	"context"
	"fmt"
	"io"
	"net"

	"github.com/sirupsen/logrus"
)

// Client is a NAT-PMP session with one gateway. It owns its transport and
// supports one outstanding request/response exchange at a time.
type Client struct {
	transport   Transport
	gateway     net.IP
	maxAttempts int
	log         *logrus.Logger
}

type Option func(*Client)

// WithLogger makes the client log its exchanges at debug level.
func WithLogger(l *logrus.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithMaxAttempts overrides MaxAttempts. Values below 1 are ignored.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// New wraps an already connected transport.
func New(t Transport, gw net.IP, opts ...Option) *Client {
	c := &Client{
		transport:   t,
		gateway:     gw,
		maxAttempts: MaxAttempts,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewWithGateway opens a UDP transport to gw and wraps it.
func NewWithGateway(ctx context.Context, gw net.IP, opts ...Option) (*Client, error) {
	t, err := OpenUDPTransport(ctx, gw)
	if err != nil {
		return nil, err
	}
	return New(t, gw, opts...), nil
}

// NewDefault discovers the default gateway and opens a UDP transport to it.
func NewDefault(ctx context.Context, opts ...Option) (*Client, error) {
	gw, err := DiscoverGateway()
	if err != nil {
		return nil, err
	}
	return NewWithGateway(ctx, gw, opts...)
}

func (c *Client) Gateway() net.IP {
	return c.gateway
}

// Close closes the transport if it can be closed.
func (c *Client) Close() error {
	if cl, ok := c.transport.(io.Closer); ok {
		return cl.Close()
	}
	return nil
}

func (c *Client) SendPublicAddressRequest(ctx context.Context) error {
	return c.send(ctx, EncodePublicAddressRequest())
}

func (c *Client) SendPortMappingRequest(ctx context.Context, proto Protocol, privatePort, publicPort uint16, lifetime uint32) error {
	return c.send(ctx, EncodePortMappingRequest(proto, privatePort, publicPort, lifetime))
}

func (c *Client) send(ctx context.Context, req []byte) error {
	n, err := c.transport.Send(ctx, req)
	if err != nil {
		if c.log != nil {
			c.log.WithFields(logrus.Fields{
				"gateway": c.gateway,
				"error":   err,
			}).Debug("send request failed")
		}
		return fmt.Errorf("%w: %v", ErrNetworkFailure, err)
	}
	if n != len(req) {
		return fmt.Errorf("%w: short write %d of %d bytes", ErrNetworkFailure, n, len(req))
	}
	if c.log != nil {
		c.log.WithFields(logrus.Fields{
			"gateway": c.gateway,
			"opcode":  req[1],
		}).Debug("send request success")
	}
	return nil
}

// ReadResponseOrRetry receives until a datagram arrives or the attempts run
// out. Only transport failures are retried; the first datagram received is
// decoded and its result returned as is.
func (c *Client) ReadResponseOrRetry(ctx context.Context) (Response, error) {
	var buf [mappingReplySize]byte
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		n, err := c.transport.Recv(ctx, buf[:])
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if c.log != nil {
				c.log.WithFields(logrus.Fields{
					"attempt": attempt,
					"error":   err,
				}).Debug("receive failed")
			}
			continue
		}

		res, err := DecodeResponse(buf[:n])
		if c.log != nil {
			c.log.WithFields(logrus.Fields{
				"attempt":  attempt,
				"bytes":    n,
				"response": res,
				"error":    err,
			}).Debug("receive success")
		}
		return res, err
	}
	return nil, ErrRecvFrom
}

// GetPublicAddress asks the gateway for its external address.
func (c *Client) GetPublicAddress(ctx context.Context) (*GatewayResponse, error) {
	if err := c.SendPublicAddressRequest(ctx); err != nil {
		return nil, err
	}
	res, err := c.ReadResponseOrRetry(ctx)
	if err != nil {
		return nil, err
	}
	gr, ok := res.(*GatewayResponse)
	if !ok {
		return nil, ErrUnsupportedOpcode
	}
	return gr, nil
}

// AddPortMapping requests a mapping and waits for the grant. The gateway may
// assign a different public port and lifetime than requested.
func (c *Client) AddPortMapping(ctx context.Context, proto Protocol, privatePort, publicPort uint16, lifetime uint32) (*MappingResponse, error) {
	if err := c.SendPortMappingRequest(ctx, proto, privatePort, publicPort, lifetime); err != nil {
		return nil, err
	}
	res, err := c.ReadResponseOrRetry(ctx)
	if err != nil {
		return nil, err
	}
	mr, ok := res.(*MappingResponse)
	if !ok || mr.Protocol != proto {
		return nil, ErrUnsupportedOpcode
	}
	return mr, nil
}

// DeletePortMapping removes the mapping for privatePort.
func (c *Client) DeletePortMapping(ctx context.Context, proto Protocol, privatePort uint16) error {
	_, err := c.AddPortMapping(ctx, proto, privatePort, 0, 0)
	return err
}
