// Copyright (c) 2025 OpenIAP
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package openiap is a client for the OpenIAP flow server.
//
// A Client owns at most one server connection at a time. Requests are framed
// as envelopes with a per-client increasing id and correlated with their
// replies by a single read goroutine per connection. Messages the server
// pushes on its own (watch changes, queue messages) and connection loss are
// delivered on the Events channel instead of through callbacks, so the
// consumer decides on which goroutine they are handled.
//
// Two failure tiers are kept apart everywhere: an operation that could not
// complete returns a non-nil error and no response; an operation the server
// rejected returns a response with Success=false and Error set.
package openiap

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"openiap/cli/internal/errors"
	"openiap/cli/internal/logging"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pterm/pterm"
	"google.golang.org/grpc"
)

// DefaultCallTimeout bounds a call whose context has no deadline.
const DefaultCallTimeout = 30 * time.Second

const defaultEventBuffer = 256

// Option configures a Client.
type Option func(*options)

type options struct {
	jwt            string
	agent          string
	version        string
	logger         *pterm.Logger
	defaultTimeout time.Duration
	eventBuffer    int
	grpcDialOpts   []grpc.DialOption
	wsDialer       *websocket.Dialer
}

// WithJWT signs in with jwt after connecting.
func WithJWT(jwt string) Option {
	return func(o *options) { o.jwt = jwt }
}

// WithAgent sets the agent name and version reported at sign-in.
func WithAgent(name, version string) Option {
	return func(o *options) {
		o.agent = name
		o.version = version
	}
}

// WithLogger sets the logger for connection diagnostics.
func WithLogger(l *pterm.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithDefaultTimeout sets the initial per-call timeout.
func WithDefaultTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.defaultTimeout = d
		}
	}
}

// WithEventBuffer sets the capacity of the Events channel.
func WithEventBuffer(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.eventBuffer = n
		}
	}
}

// WithGRPCDialOptions appends options used when dialing grpc:// addresses.
func WithGRPCDialOptions(opts ...grpc.DialOption) Option {
	return func(o *options) { o.grpcDialOpts = append(o.grpcDialOpts, opts...) }
}

// WithWebsocketDialer sets the dialer used for ws:// addresses.
func WithWebsocketDialer(d *websocket.Dialer) Option {
	return func(o *options) { o.wsDialer = d }
}

// Client is a handle to an OpenIAP server. Its methods are safe for
// concurrent use. Close releases the connection and every goroutine the
// client started.
type Client struct {
	opts   options
	logger *pterm.Logger
	nextID atomic.Int64

	mu      sync.Mutex
	sess    *session
	state   string
	timeout time.Duration
	closed  bool
	gauges  map[string]Gauge
	pumping bool

	events chan Event
	done   chan struct{}

	// queue holds events not yet handed to events. The read goroutine only
	// appends to it, so replies keep flowing while the consumer is busy.
	queueMu  sync.Mutex
	queue    []Event
	wake     chan struct{}
	pumpDone chan struct{}
}

// New creates a disconnected client.
func New(opts ...Option) *Client {
	o := options{
		agent:          "openiap-cli",
		defaultTimeout: DefaultCallTimeout,
		eventBuffer:    defaultEventBuffer,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.Discard()
	}
	return &Client{
		opts:     o,
		logger:   o.logger,
		state:    StateDisconnected,
		timeout:  o.defaultTimeout,
		gauges:   make(map[string]Gauge),
		events:   make(chan Event, o.eventBuffer),
		done:     make(chan struct{}),
		wake:     make(chan struct{}, 1),
		pumpDone: make(chan struct{}),
	}
}

// Events returns the channel carrying WatchResponse, WatchEvent, QueueEvent
// and ConnectionEvent values. It is closed by Close.
func (c *Client) Events() <-chan Event { return c.events }

// State returns the connection state.
func (c *Client) State() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// DefaultTimeout returns the timeout applied to calls without a deadline.
func (c *Client) DefaultTimeout() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timeout
}

// SetDefaultTimeout changes the timeout applied to calls without a deadline.
// Non-positive values are ignored.
func (c *Client) SetDefaultTimeout(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	c.timeout = d
	c.mu.Unlock()
}

// Connect dials addr and signs in. An empty addr resolves through
// ResolveAddress. Calling Connect again replaces the current connection;
// requests pending on it fail with a disconnected error.
func (c *Client) Connect(ctx context.Context, addr string) (*ConnectResponse, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, errors.New(errors.NotConnected, "client is closed")
	}
	old := c.sess
	c.sess = nil
	c.state = StateConnecting
	if !c.pumping {
		c.pumping = true
		go c.pump()
	}
	c.mu.Unlock()
	if old != nil {
		_ = old.shutdown()
	}

	addr = ResolveAddress(addr)
	u, err := url.Parse(addr)
	if err != nil {
		c.setState(StateDisconnected)
		return nil, errors.Wrap(errors.Config, "parse address", err)
	}
	c.logger.Debug("connecting", c.logger.Args("address", logging.Mask(addr)))

	tr, err := c.dial(ctx, u)
	if err != nil {
		c.setState(StateDisconnected)
		if errors.KindOf(err) != "" {
			return nil, err
		}
		return nil, errors.Wrap(errors.Transport, "connect to "+logging.Mask(addr), err)
	}

	s := newSession(tr)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = tr.Close()
		return nil, errors.New(errors.NotConnected, "client is closed")
	}
	c.sess = s
	c.state = StateConnected
	c.mu.Unlock()
	go c.readLoop(s)

	signin := signinData{JWT: c.opts.jwt, Agent: c.opts.agent, Version: c.opts.version, Ping: true}
	if signin.JWT == "" && u.User != nil {
		signin.Username = u.User.Username()
		signin.Password, _ = u.User.Password()
	}
	reply, err := c.roundTrip(ctx, s, "signin", signin)
	if err != nil {
		return nil, err
	}
	if msg, failed := failure(reply); failed {
		return &ConnectResponse{Error: msg}, nil
	}

	c.mu.Lock()
	if c.sess == s {
		c.state = StateSignedIn
	}
	c.mu.Unlock()
	c.publishGauges(s)

	id := requestID(reply.ID)
	if id == 0 {
		id = requestID(reply.RID)
	}
	c.logger.Debug("signed in", c.logger.Args("request_id", id))
	return &ConnectResponse{Success: true, RequestID: id}, nil
}

// Close disconnects and closes Events. It is safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	s := c.sess
	c.sess = nil
	c.state = StateDisconnected
	pumping := c.pumping
	c.mu.Unlock()

	close(c.done)
	var err error
	if s != nil {
		err = s.shutdown()
	}
	if pumping {
		<-c.pumpDone
	}
	close(c.events)
	return err
}

// Query returns the documents of a collection matching a filter.
func (c *Client) Query(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	var out resultReply
	msg, err := c.call(ctx, "query", queryData{
		CollectionName: req.CollectionName,
		Query:          req.Query,
		Projection:     req.Projection,
		OrderBy:        req.OrderBy,
		QueryAs:        req.QueryAs,
		Explain:        req.Explain,
		Skip:           req.Skip,
		Top:            req.Top,
	}, &out)
	if err != nil {
		return nil, err
	}
	if msg != "" {
		return &QueryResponse{Error: msg}, nil
	}
	return &QueryResponse{Success: true, Results: rawString(out.Results)}, nil
}

// Distinct returns the distinct values of a field.
func (c *Client) Distinct(ctx context.Context, req DistinctRequest) (*DistinctResponse, error) {
	var out distinctReply
	msg, err := c.call(ctx, "distinct", distinctData{
		CollectionName: req.CollectionName,
		Field:          req.Field,
		Query:          req.Query,
		QueryAs:        req.QueryAs,
		Explain:        req.Explain,
	}, &out)
	if err != nil {
		return nil, err
	}
	if msg != "" {
		return &DistinctResponse{Error: msg}, nil
	}
	results := make([]string, 0, len(out.Results))
	for _, r := range out.Results {
		results = append(results, rawString(r))
	}
	return &DistinctResponse{Success: true, Results: results}, nil
}

// InsertOne stores one document.
func (c *Client) InsertOne(ctx context.Context, req InsertOneRequest) (*InsertOneResponse, error) {
	var out resultReply
	msg, err := c.call(ctx, "insertone", insertOneData{
		CollectionName: req.CollectionName,
		Item:           req.Item,
		W:              req.W,
		J:              req.J,
	}, &out)
	if err != nil {
		return nil, err
	}
	if msg != "" {
		return &InsertOneResponse{Error: msg}, nil
	}
	return &InsertOneResponse{Success: true, Result: rawString(out.Result)}, nil
}

// InsertMany stores an array of documents.
func (c *Client) InsertMany(ctx context.Context, req InsertManyRequest) (*InsertManyResponse, error) {
	var out resultReply
	msg, err := c.call(ctx, "insertmany", insertManyData{
		CollectionName: req.CollectionName,
		Items:          req.Items,
		W:              req.W,
		J:              req.J,
		SkipResults:    req.SkipResults,
	}, &out)
	if err != nil {
		return nil, err
	}
	if msg != "" {
		return &InsertManyResponse{Error: msg}, nil
	}
	return &InsertManyResponse{Success: true, Results: rawString(out.Results)}, nil
}

// WatchAsync sends a watch request and returns without waiting for the
// reply. When it returns nil exactly one WatchResponse follows on Events;
// afterwards every matching change arrives as a WatchEvent.
func (c *Client) WatchAsync(ctx context.Context, req WatchRequest) error {
	s, err := c.active()
	if err != nil {
		return err
	}
	data, err := json.Marshal(watchData{CollectionName: req.CollectionName, Paths: req.Paths})
	if err != nil {
		return errors.Wrap(errors.Protocol, "encode watch", err)
	}
	id := c.newID()
	call := &pendingCall{async: func(env Envelope, err error) { c.emit(watchResponse(env, err)) }}
	if !s.add(id, call) {
		return errors.New(errors.Disconnected, "watch: connection lost")
	}
	if err := s.tr.Send(ctx, Envelope{ID: id, Command: "watch", Data: string(data)}); err != nil {
		if s.remove(id) {
			return errors.Wrap(errors.Transport, "send watch", err)
		}
		// The reply path already delivered a WatchResponse for this call.
		return nil
	}
	c.logger.Debug("request sent", c.logger.Args("command", "watch", "id", id))
	return nil
}

func watchResponse(env Envelope, err error) WatchResponse {
	if err != nil {
		return WatchResponse{Error: err.Error()}
	}
	if msg, failed := failure(env); failed {
		return WatchResponse{Error: msg}
	}
	var out watchReply
	if err := json.Unmarshal([]byte(env.Data), &out); err != nil || out.ID == "" {
		return WatchResponse{Error: "watch reply carried no id"}
	}
	return WatchResponse{Success: true, WatchID: out.ID}
}

// Unwatch cancels a watch.
func (c *Client) Unwatch(ctx context.Context, watchID string) (*UnwatchResponse, error) {
	msg, err := c.call(ctx, "unwatch", unwatchData{ID: watchID}, nil)
	if err != nil {
		return nil, err
	}
	if msg != "" {
		return &UnwatchResponse{Error: msg}, nil
	}
	return &UnwatchResponse{Success: true}, nil
}

// RegisterQueue starts consuming a queue. Messages arrive as QueueEvent on
// Events for the life of the connection.
func (c *Client) RegisterQueue(ctx context.Context, req RegisterQueueRequest) (*RegisterQueueResponse, error) {
	s, err := c.active()
	if err != nil {
		return nil, err
	}
	return c.registerQueue(ctx, s, req.QueueName)
}

func (c *Client) registerQueue(ctx context.Context, s *session, name string) (*RegisterQueueResponse, error) {
	var out registerQueueReply
	msg, err := c.callOn(ctx, s, "registerqueue", registerQueueData{QueueName: name}, &out)
	if err != nil {
		return nil, err
	}
	if msg != "" {
		return &RegisterQueueResponse{Error: msg}, nil
	}
	if out.QueueName == "" {
		out.QueueName = name
	}
	return &RegisterQueueResponse{Success: true, QueueName: out.QueueName}, nil
}

// QueueMessage publishes a message and waits for the server's acknowledgment.
func (c *Client) QueueMessage(ctx context.Context, req QueueMessageRequest) (*QueueMessageResponse, error) {
	s, err := c.active()
	if err != nil {
		return nil, err
	}
	return c.queueMessage(ctx, s, req)
}

func (c *Client) queueMessage(ctx context.Context, s *session, req QueueMessageRequest) (*QueueMessageResponse, error) {
	msg, err := c.callOn(ctx, s, "queuemessage", queueMessageData{
		QueueName:     req.QueueName,
		CorrelationID: req.CorrelationID,
		ReplyTo:       req.ReplyTo,
		RoutingKey:    req.RoutingKey,
		ExchangeName:  req.ExchangeName,
		Data:          req.Data,
		StripToken:    req.StripToken,
		Expiration:    req.Expiration,
	}, nil)
	if err != nil {
		return nil, err
	}
	if msg != "" {
		return &QueueMessageResponse{Error: msg}, nil
	}
	return &QueueMessageResponse{Success: true}, nil
}

// RPC publishes req and waits up to timeout for the message answering it.
// A nil CorrelationID gets a random UUID and a nil ReplyTo gets the client's
// private reply queue, registered on first use. The reply is consumed here
// and not delivered on Events. A non-positive timeout uses DefaultTimeout.
func (c *Client) RPC(ctx context.Context, req QueueMessageRequest, timeout time.Duration) (*RPCResponse, error) {
	s, err := c.active()
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = c.DefaultTimeout()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if req.CorrelationID == nil {
		id := uuid.NewString()
		req.CorrelationID = &id
	}
	if req.ReplyTo == nil {
		q, msg, err := c.replyQueue(ctx, s)
		if err != nil {
			return nil, err
		}
		if msg != "" {
			return &RPCResponse{Error: msg}, nil
		}
		req.ReplyTo = &q
	}

	corr := *req.CorrelationID
	wait := s.expectReply(corr)
	defer s.forgetReply(corr)

	ack, err := c.queueMessage(ctx, s, req)
	if err != nil {
		return nil, err
	}
	if !ack.Success {
		return &RPCResponse{Error: ack.Error}, nil
	}

	select {
	case ev, ok := <-wait:
		if !ok {
			return nil, errors.New(errors.Disconnected, "rpc: connection lost")
		}
		return &RPCResponse{Success: true, Result: ev.Data}, nil
	case <-ctx.Done():
		return nil, ctxError("rpc", ctx.Err())
	}
}

// replyQueue returns the session's private reply queue, registering it on
// first use.
func (c *Client) replyQueue(ctx context.Context, s *session) (string, string, error) {
	s.replyMu.Lock()
	defer s.replyMu.Unlock()
	if s.replyQueue != "" {
		return s.replyQueue, "", nil
	}
	resp, err := c.registerQueue(ctx, s, "")
	if err != nil {
		return "", "", err
	}
	if !resp.Success {
		return "", resp.Error, nil
	}
	s.replyQueue = resp.QueueName
	c.logger.Debug("registered reply queue", c.logger.Args("queue", resp.QueueName))
	return resp.QueueName, "", nil
}

// CustomCommand runs a named server command. A positive timeout bounds the call.
func (c *Client) CustomCommand(ctx context.Context, req CustomCommandRequest, timeout time.Duration) (*CustomCommandResponse, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	var out resultReply
	msg, err := c.call(ctx, "customcommand", customCommandData{
		Command: req.Command,
		ID:      req.ID,
		Name:    req.Name,
		Data:    req.Data,
	}, &out)
	if err != nil {
		return nil, err
	}
	if msg != "" {
		return &CustomCommandResponse{Error: msg}, nil
	}
	return &CustomCommandResponse{Success: true, Result: rawString(out.Result)}, nil
}

// InvokeOpenRPA runs a workflow on a robot. A positive timeout bounds the call.
func (c *Client) InvokeOpenRPA(ctx context.Context, req InvokeOpenRPARequest, timeout time.Duration) (*InvokeOpenRPAResponse, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	var out resultReply
	msg, err := c.call(ctx, "invokeopenrpa", invokeOpenRPAData{
		RobotID:    req.RobotID,
		WorkflowID: req.WorkflowID,
		Payload:    req.Payload,
		RPC:        req.RPC,
	}, &out)
	if err != nil {
		return nil, err
	}
	if msg != "" {
		return &InvokeOpenRPAResponse{Error: msg}, nil
	}
	return &InvokeOpenRPAResponse{Success: true, Result: rawString(out.Result)}, nil
}

// call sends a request on the current connection and decodes the reply into
// out. A rejected request returns the server's message.
func (c *Client) call(ctx context.Context, command string, payload, out any) (string, error) {
	s, err := c.active()
	if err != nil {
		return "", err
	}
	return c.callOn(ctx, s, command, payload, out)
}

func (c *Client) callOn(ctx context.Context, s *session, command string, payload, out any) (string, error) {
	env, err := c.roundTrip(ctx, s, command, payload)
	if err != nil {
		return "", err
	}
	if msg, failed := failure(env); failed {
		return msg, nil
	}
	if out != nil && env.Data != "" {
		if err := json.Unmarshal([]byte(env.Data), out); err != nil {
			return "", errors.Wrap(errors.Protocol, "decode "+command+" reply", err)
		}
	}
	return "", nil
}

// roundTrip sends one envelope and waits for the envelope replying to it.
func (c *Client) roundTrip(ctx context.Context, s *session, command string, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, errors.Wrap(errors.Protocol, "encode "+command, err)
	}
	ctx, cancel := c.callContext(ctx)
	defer cancel()

	id := c.newID()
	call := &pendingCall{reply: make(chan Envelope, 1)}
	if !s.add(id, call) {
		return Envelope{}, errors.New(errors.Disconnected, command+": connection lost")
	}
	if err := s.tr.Send(ctx, Envelope{ID: id, Command: command, Data: string(data)}); err != nil {
		s.remove(id)
		return Envelope{}, errors.Wrap(errors.Transport, "send "+command, err)
	}
	c.logger.Debug("request sent", c.logger.Args("command", command, "id", id))

	select {
	case env, ok := <-call.reply:
		if !ok {
			return Envelope{}, errors.New(errors.Disconnected, command+": connection lost")
		}
		return env, nil
	case <-ctx.Done():
		s.remove(id)
		return Envelope{}, ctxError(command, ctx.Err())
	}
}

func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.DefaultTimeout())
}

func ctxError(command string, err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.Wrap(errors.Timeout, command+" timed out", err)
	}
	return errors.Wrap(errors.Transport, command+" canceled", err)
}

// failure reports whether env is an error reply and returns its message.
func failure(env Envelope) (string, bool) {
	if env.Command != cmdError {
		return "", false
	}
	var e errorReply
	if err := json.Unmarshal([]byte(env.Data), &e); err != nil || e.Message == "" {
		if env.Data != "" {
			return env.Data, true
		}
		return "unknown error", true
	}
	return e.Message, true
}

func (c *Client) active() (*session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return nil, errors.New(errors.NotConnected, "not connected")
	}
	return c.sess, nil
}

func (c *Client) setState(state string) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}

func (c *Client) newID() string {
	return strconv.FormatInt(c.nextID.Add(1), 10)
}

// emit queues ev for delivery on Events. It never blocks.
func (c *Client) emit(ev Event) {
	c.queueMu.Lock()
	c.queue = append(c.queue, ev)
	c.queueMu.Unlock()
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// pump moves queued events to the Events channel in order until Close.
// Events still queued at Close are dropped.
func (c *Client) pump() {
	defer close(c.pumpDone)
	for {
		c.queueMu.Lock()
		if len(c.queue) == 0 {
			c.queueMu.Unlock()
			select {
			case <-c.wake:
				continue
			case <-c.done:
				return
			}
		}
		ev := c.queue[0]
		c.queue[0] = nil
		c.queue = c.queue[1:]
		c.queueMu.Unlock()

		select {
		case c.events <- ev:
		case <-c.done:
			return
		}
	}
}

// readLoop routes everything the server sends on s until the transport fails.
func (c *Client) readLoop(s *session) {
	defer close(s.readDone)
	for {
		env, err := s.tr.Recv()
		if err != nil {
			if errors.KindOf(err) == errors.Protocol && !s.closing.Load() {
				c.logger.Debug("dropping malformed frame", c.logger.Args("error", err.Error()))
				continue
			}
			c.lost(s, err)
			return
		}
		c.dispatch(s, env)
	}
}

func (c *Client) dispatch(s *session, env Envelope) {
	switch env.Command {
	case cmdPing:
		pong := Envelope{ID: c.newID(), RID: env.ID, Command: cmdPong}
		if err := s.tr.Send(context.Background(), pong); err != nil {
			c.logger.Debug("pong failed", c.logger.Args("error", err.Error()))
		}
		return
	case cmdWatchEvent:
		var d watchEventData
		if err := json.Unmarshal([]byte(env.Data), &d); err != nil {
			c.logger.Debug("malformed watch event", c.logger.Args("error", err.Error()))
			return
		}
		c.emit(WatchEvent{WatchID: d.ID, Operation: d.Operation, Document: rawString(d.Document)})
		return
	case cmdQueueEvent:
		var d queueEventData
		if err := json.Unmarshal([]byte(env.Data), &d); err != nil {
			c.logger.Debug("malformed queue event", c.logger.Args("error", err.Error()))
			return
		}
		ev := QueueEvent{
			QueueName:     d.QueueName,
			Data:          rawString(d.Data),
			CorrelationID: d.CorrelationID,
			ReplyTo:       d.ReplyTo,
		}
		if ev.CorrelationID != nil && s.deliverReply(*ev.CorrelationID, ev) {
			return
		}
		c.emit(ev)
		return
	}

	if env.RID == "" {
		c.logger.Debug("ignoring unsolicited message", c.logger.Args("command", env.Command))
		return
	}
	call, ok := s.take(env.RID)
	if !ok {
		c.logger.Debug("reply for unknown request", c.logger.Args("rid", env.RID, "command", env.Command))
		return
	}
	if call.reply != nil {
		call.reply <- env
		return
	}
	call.async(env, nil)
}

// lost tears down s after its transport failed.
func (c *Client) lost(s *session, err error) {
	c.mu.Lock()
	if c.sess == s {
		c.sess = nil
		c.state = StateDisconnected
	}
	c.mu.Unlock()

	s.failAll(errors.Wrap(errors.Disconnected, "connection lost", err))
	if cerr := s.tr.Close(); cerr != nil {
		c.logger.Debug("closing lost transport failed", c.logger.Args("error", cerr.Error()))
	}
	if s.closing.Load() {
		return
	}
	if stderrors.Is(err, io.EOF) {
		err = nil
	}
	if err != nil {
		c.logger.Warn("connection lost", c.logger.Args("error", logging.Mask(err.Error())))
	} else {
		c.logger.Info("server closed the connection")
	}
	c.emit(ConnectionEvent{Err: err})
}

type pendingCall struct {
	reply chan Envelope
	async func(Envelope, error)
}

// session is one server connection and the requests waiting on it.
type session struct {
	tr       transport
	readDone chan struct{}
	closing  atomic.Bool

	mu      sync.Mutex
	failed  bool
	pending map[string]*pendingCall
	rpc     map[string]chan QueueEvent

	replyMu    sync.Mutex
	replyQueue string
}

func newSession(tr transport) *session {
	return &session{
		tr:       tr,
		readDone: make(chan struct{}),
		pending:  make(map[string]*pendingCall),
		rpc:      make(map[string]chan QueueEvent),
	}
}

func (s *session) add(id string, call *pendingCall) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failed {
		return false
	}
	s.pending[id] = call
	return true
}

// remove drops a pending call and reports whether it was still pending.
func (s *session) remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[id]
	delete(s.pending, id)
	return ok
}

func (s *session) take(id string) (*pendingCall, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	call, ok := s.pending[id]
	delete(s.pending, id)
	return call, ok
}

func (s *session) expectReply(correlationID string) chan QueueEvent {
	ch := make(chan QueueEvent, 1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failed {
		close(ch)
		return ch
	}
	s.rpc[correlationID] = ch
	return ch
}

func (s *session) forgetReply(correlationID string) {
	s.mu.Lock()
	delete(s.rpc, correlationID)
	s.mu.Unlock()
}

func (s *session) deliverReply(correlationID string, ev QueueEvent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.rpc[correlationID]
	if !ok {
		return false
	}
	delete(s.rpc, correlationID)
	ch <- ev
	return true
}

// failAll completes every pending call with err. Later calls are refused.
func (s *session) failAll(err error) {
	s.mu.Lock()
	s.failed = true
	calls := s.pending
	waiters := s.rpc
	s.pending = make(map[string]*pendingCall)
	s.rpc = make(map[string]chan QueueEvent)
	s.mu.Unlock()

	for _, call := range calls {
		if call.reply != nil {
			close(call.reply)
			continue
		}
		call.async(Envelope{}, err)
	}
	for _, ch := range waiters {
		close(ch)
	}
}

// shutdown closes the transport and waits for the read loop to finish.
func (s *session) shutdown() error {
	s.closing.Store(true)
	err := s.tr.Close()
	<-s.readDone
	return err
}
