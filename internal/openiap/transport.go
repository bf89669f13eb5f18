package openiap

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"openiap/cli/internal/errors"
)

// DefaultAddress is used when neither the caller nor the environment names a server.
const DefaultAddress = "grpc://localhost:50051"

const dialTimeout = 10 * time.Second

// transport carries envelopes over one server connection. Send may be called
// from several goroutines; Recv is only called by the client's read loop.
type transport interface {
	Send(ctx context.Context, env Envelope) error
	Recv() (Envelope, error)
	Close() error
}

// ResolveAddress returns addr, or the address from OPENIAP_APIURL or apiurl
// when addr is empty, or DefaultAddress.
func ResolveAddress(addr string) string {
	if a := strings.TrimSpace(addr); a != "" {
		return a
	}
	for _, key := range []string{"OPENIAP_APIURL", "apiurl"} {
		if a := strings.TrimSpace(os.Getenv(key)); a != "" {
			return a
		}
	}
	return DefaultAddress
}

// dial opens a transport for the scheme of u.
func (c *Client) dial(ctx context.Context, u *url.URL) (transport, error) {
	switch u.Scheme {
	case "grpc", "grpcs":
		return dialGRPC(ctx, u, c.opts.jwt, c.opts.grpcDialOpts)
	case "ws", "wss", "http", "https":
		return dialWebsocket(ctx, u, c.opts.jwt, c.opts.wsDialer)
	default:
		return nil, errors.New(errors.Protocol, fmt.Sprintf("unsupported address scheme %q", u.Scheme))
	}
}
