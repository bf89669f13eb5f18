package openiap

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"openiap/cli/internal/errors"

	"github.com/gorilla/websocket"
)

// websocketPath is appended to the server URL.
const websocketPath = "/ws/v2"

type wsTransport struct {
	conn *websocket.Conn

	sendMu    sync.Mutex
	closeOnce sync.Once
}

// dialWebsocket connects to u. http and https addresses are mapped to ws
// and wss. Credentials in the URL are not sent in the handshake.
func dialWebsocket(ctx context.Context, u *url.URL, jwt string, dialer *websocket.Dialer) (*wsTransport, error) {
	target := *u
	switch target.Scheme {
	case "http":
		target.Scheme = "ws"
	case "https":
		target.Scheme = "wss"
	}
	target.User = nil
	target.Path = strings.TrimSuffix(target.Path, "/") + websocketPath

	header := http.Header{}
	if jwt != "" {
		header.Set("Authorization", "Bearer "+jwt)
	}
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	dctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	conn, resp, err := dialer.DialContext(dctx, target.String(), header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("%w (HTTP %d)", err, resp.StatusCode)
		}
		return nil, err
	}
	return &wsTransport{conn: conn}, nil
}

func (t *wsTransport) Send(ctx context.Context, env Envelope) error {
	t.sendMu.Lock()
	defer t.sendMu.Unlock()
	if dl, ok := ctx.Deadline(); ok {
		_ = t.conn.SetWriteDeadline(dl)
		defer t.conn.SetWriteDeadline(time.Time{})
	}
	return t.conn.WriteJSON(env)
}

func (t *wsTransport) Recv() (Envelope, error) {
	_, data, err := t.conn.ReadMessage()
	if err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return Envelope{}, io.EOF
		}
		return Envelope{}, err
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, errors.Wrap(errors.Protocol, "malformed frame", err)
	}
	return env, nil
}

func (t *wsTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		t.sendMu.Lock()
		_ = t.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		t.sendMu.Unlock()
		err = t.conn.Close()
	})
	return err
}
