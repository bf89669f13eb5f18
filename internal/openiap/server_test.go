package openiap

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

// handlerFunc answers one envelope received by a fake server.
type handlerFunc func(env Envelope) []Envelope

func reply(env Envelope, data any) []Envelope {
	b, _ := json.Marshal(data)
	return []Envelope{{ID: env.ID, RID: env.ID, Command: env.Command + replySuffix, Data: string(b)}}
}

func replyError(env Envelope, message string) []Envelope {
	b, _ := json.Marshal(errorReply{Message: message})
	return []Envelope{{ID: env.ID, RID: env.ID, Command: cmdError, Data: string(b)}}
}

func push(command string, data any) Envelope {
	b, _ := json.Marshal(data)
	return Envelope{ID: "push", Command: command, Data: string(b)}
}

// standardHandler behaves like a small OpenIAP server. A queue message with
// a reply-to address is echoed back to that address, which is enough to
// exercise RPC. Entries in overrides replace the default for a command.
func standardHandler(overrides map[string]handlerFunc) handlerFunc {
	return func(env Envelope) []Envelope {
		if h, ok := overrides[env.Command]; ok {
			return h(env)
		}
		switch env.Command {
		case "signin", "unwatch":
			return reply(env, map[string]any{})
		case "query":
			return reply(env, map[string]any{"results": []map[string]string{{"_id": "1", "name": "Allan"}}})
		case "distinct":
			return reply(env, map[string]any{"results": []string{"test", "user"}})
		case "insertone":
			return reply(env, map[string]any{"result": map[string]string{"_id": "a1", "name": "Allan"}})
		case "insertmany":
			return reply(env, map[string]any{"results": []map[string]string{{"_id": "a1"}, {"_id": "a2"}}})
		case "watch":
			return reply(env, watchReply{ID: "watch-1"})
		case "registerqueue":
			var d registerQueueData
			_ = json.Unmarshal([]byte(env.Data), &d)
			if d.QueueName == "" {
				d.QueueName = "reply-queue-1"
			}
			return reply(env, registerQueueReply{QueueName: d.QueueName})
		case "queuemessage":
			var d queueMessageData
			_ = json.Unmarshal([]byte(env.Data), &d)
			out := reply(env, map[string]any{})
			if d.ReplyTo != nil {
				out = append(out, push(cmdQueueEvent, map[string]any{
					"queuename":     *d.ReplyTo,
					"correlationId": d.CorrelationID,
					"data":          map[string]string{"echo": d.Data},
				}))
			}
			return out
		case "customcommand":
			return reply(env, map[string]any{"result": []map[string]string{{"id": "c1"}}})
		case "invokeopenrpa":
			return reply(env, map[string]any{"result": map[string]bool{"ok": true}})
		case "gauge", cmdPong:
			return nil
		}
		return replyError(env, "unknown command "+env.Command)
	}
}

// wsServer is an in-process websocket OpenIAP server.
type wsServer struct {
	srv      *httptest.Server
	handle   handlerFunc
	received chan Envelope

	mu    sync.Mutex
	auth  string
	conns []*websocket.Conn
	write sync.Mutex
}

func newWSServer(t *testing.T, handle handlerFunc) *wsServer {
	t.Helper()
	ws := &wsServer{handle: handle, received: make(chan Envelope, 128)}
	upgrader := websocket.Upgrader{}
	mux := http.NewServeMux()
	mux.HandleFunc(websocketPath, func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ws.mu.Lock()
		ws.auth = r.Header.Get("Authorization")
		ws.conns = append(ws.conns, conn)
		ws.mu.Unlock()
		ws.serve(conn)
	})
	ws.srv = httptest.NewServer(mux)
	t.Cleanup(ws.Close)
	return ws
}

func (ws *wsServer) serve(conn *websocket.Conn) {
	defer conn.Close()
	for {
		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			return
		}
		select {
		case ws.received <- env:
		default:
		}
		for _, out := range ws.handle(env) {
			ws.send(conn, out)
		}
	}
}

func (ws *wsServer) send(conn *websocket.Conn, env Envelope) {
	ws.write.Lock()
	defer ws.write.Unlock()
	_ = conn.WriteJSON(env)
}

// Push sends env to every connected client.
func (ws *wsServer) Push(env Envelope) {
	ws.mu.Lock()
	conns := append([]*websocket.Conn(nil), ws.conns...)
	ws.mu.Unlock()
	for _, conn := range conns {
		ws.send(conn, env)
	}
}

// Drop closes every client connection without a close handshake.
func (ws *wsServer) Drop() {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	for _, conn := range ws.conns {
		_ = conn.UnderlyingConn().Close()
	}
	ws.conns = nil
}

func (ws *wsServer) Auth() string {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.auth
}

func (ws *wsServer) URL() string {
	return "ws" + strings.TrimPrefix(ws.srv.URL, "http")
}

func (ws *wsServer) Close() {
	ws.Drop()
	ws.srv.Close()
}

// waitFor returns the next envelope the server received with the given command.
func (ws *wsServer) waitFor(t *testing.T, command string) Envelope {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case env := <-ws.received:
			if env.Command == command {
				return env
			}
		case <-deadline:
			t.Fatalf("server never received %q", command)
			return Envelope{}
		}
	}
}

// newGRPCServer starts an in-process flow stream server and returns the dial
// option that reaches it, a channel with the authorization metadata of each
// stream, and a function that stops the server and drops every stream.
func newGRPCServer(t *testing.T, handle handlerFunc) (grpc.DialOption, <-chan string, func()) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	auth := make(chan string, 4)
	srv := grpc.NewServer(grpc.UnknownServiceHandler(func(_ any, stream grpc.ServerStream) error {
		method, _ := grpc.MethodFromServerStream(stream)
		if method != flowStreamMethod {
			return status.Error(codes.Unimplemented, method)
		}
		if md, ok := metadata.FromIncomingContext(stream.Context()); ok {
			if v := md.Get("authorization"); len(v) > 0 {
				auth <- v[0]
			}
		}
		for {
			in := new(structpb.Struct)
			if err := stream.RecvMsg(in); err != nil {
				if err == io.EOF {
					return nil
				}
				return err
			}
			for _, out := range handle(envelopeFromStruct(in)) {
				msg, err := out.toStruct()
				if err != nil {
					return err
				}
				if err := stream.SendMsg(msg); err != nil {
					return err
				}
			}
		}
	}))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	dialer := grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	})
	return dialer, auth, srv.Stop
}

func nextEvent(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case ev := <-c.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for an event")
		return nil
	}
}

func noEvent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case ev := <-c.Events():
		t.Fatalf("unexpected event %#v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func connectWS(t *testing.T, ws *wsServer, opts ...Option) *Client {
	t.Helper()
	c := New(opts...)
	t.Cleanup(func() { _ = c.Close() })
	resp, err := c.Connect(context.Background(), ws.URL())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if !resp.Success {
		t.Fatalf("Connect() failed: %s", resp.Error)
	}
	return c
}
