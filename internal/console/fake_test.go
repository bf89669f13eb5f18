package console

import (
	"context"
	"sync"
	"time"

	"openiap/cli/internal/openiap"
)

// fakeClient records every call and answers with canned responses.
type fakeClient struct {
	mu    sync.Mutex
	calls []string

	connectResp *openiap.ConnectResponse
	connectErr  error

	queryResp    *openiap.QueryResponse
	queryErr     error
	distinctResp *openiap.DistinctResponse
	watchErr     error
	watchReply   *openiap.WatchResponse
	unwatchResp  *openiap.UnwatchResponse
	unwatchHangs bool
	registerResp *openiap.RegisterQueueResponse
	rpcResp      *openiap.RPCResponse
	rpcErr       error

	queueMessages []openiap.QueueMessageRequest
	rpcTimeout    time.Duration
	ccTimeout     time.Duration
	lastQuery     openiap.QueryRequest
	lastDistinct  openiap.DistinctRequest
	unwatchIDs    []string
	unwatchCtxErr error

	state   string
	timeout time.Duration
	gauges  map[string]openiap.Gauge

	events chan openiap.Event
	closed bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		connectResp:  &openiap.ConnectResponse{Success: true, RequestID: 1},
		queryResp:    &openiap.QueryResponse{Success: true, Results: `[{"name":"Allan"}]`},
		distinctResp: &openiap.DistinctResponse{Success: true, Results: []string{"test", "user"}},
		watchReply:   &openiap.WatchResponse{Success: true, WatchID: "watch-1"},
		unwatchResp:  &openiap.UnwatchResponse{Success: true},
		registerResp: &openiap.RegisterQueueResponse{Success: true, QueueName: "test2queue"},
		rpcResp:      &openiap.RPCResponse{Success: true, Result: `{"pong":true}`},
		state:        openiap.StateSignedIn,
		timeout:      30 * time.Second,
		gauges:       make(map[string]openiap.Gauge),
		events:       make(chan openiap.Event, 16),
	}
}

func (f *fakeClient) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeClient) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeClient) called(name string) bool {
	for _, c := range f.Calls() {
		if c == name {
			return true
		}
	}
	return false
}

func (f *fakeClient) Connect(context.Context, string) (*openiap.ConnectResponse, error) {
	f.record("connect")
	return f.connectResp, f.connectErr
}

func (f *fakeClient) Query(_ context.Context, req openiap.QueryRequest) (*openiap.QueryResponse, error) {
	f.record("query")
	f.lastQuery = req
	return f.queryResp, f.queryErr
}

func (f *fakeClient) Distinct(_ context.Context, req openiap.DistinctRequest) (*openiap.DistinctResponse, error) {
	f.record("distinct")
	f.lastDistinct = req
	return f.distinctResp, nil
}

func (f *fakeClient) InsertOne(context.Context, openiap.InsertOneRequest) (*openiap.InsertOneResponse, error) {
	f.record("insert_one")
	return &openiap.InsertOneResponse{Success: true, Result: `{"_id":"1"}`}, nil
}

func (f *fakeClient) InsertMany(context.Context, openiap.InsertManyRequest) (*openiap.InsertManyResponse, error) {
	f.record("insert_many")
	return &openiap.InsertManyResponse{Success: false, Error: "duplicate key"}, nil
}

// WatchAsync queues the configured reply on the event channel, the way the
// real client delivers it from its read loop.
func (f *fakeClient) WatchAsync(context.Context, openiap.WatchRequest) error {
	f.record("watch")
	if f.watchErr != nil {
		return f.watchErr
	}
	if f.watchReply != nil {
		f.events <- *f.watchReply
	}
	return nil
}

// Unwatch blocks until ctx ends when unwatchHangs is set, like a server
// that never answers.
func (f *fakeClient) Unwatch(ctx context.Context, id string) (*openiap.UnwatchResponse, error) {
	f.record("unwatch")
	f.unwatchIDs = append(f.unwatchIDs, id)
	if f.unwatchHangs {
		<-ctx.Done()
		f.unwatchCtxErr = ctx.Err()
		return nil, ctx.Err()
	}
	return f.unwatchResp, nil
}

func (f *fakeClient) RegisterQueue(context.Context, openiap.RegisterQueueRequest) (*openiap.RegisterQueueResponse, error) {
	f.record("register_queue")
	return f.registerResp, nil
}

func (f *fakeClient) QueueMessage(_ context.Context, req openiap.QueueMessageRequest) (*openiap.QueueMessageResponse, error) {
	f.record("queue_message")
	f.queueMessages = append(f.queueMessages, req)
	return &openiap.QueueMessageResponse{Success: true}, nil
}

func (f *fakeClient) RPC(_ context.Context, _ openiap.QueueMessageRequest, timeout time.Duration) (*openiap.RPCResponse, error) {
	f.record("rpc")
	f.rpcTimeout = timeout
	return f.rpcResp, f.rpcErr
}

func (f *fakeClient) CustomCommand(_ context.Context, _ openiap.CustomCommandRequest, timeout time.Duration) (*openiap.CustomCommandResponse, error) {
	f.record("custom_command")
	f.ccTimeout = timeout
	return &openiap.CustomCommandResponse{Success: true, Result: `[{"id":"c1"}]`}, nil
}

func (f *fakeClient) InvokeOpenRPA(context.Context, openiap.InvokeOpenRPARequest, time.Duration) (*openiap.InvokeOpenRPAResponse, error) {
	f.record("invoke_openrpa")
	return &openiap.InvokeOpenRPAResponse{Success: false, Error: "robot offline"}, nil
}

func (f *fakeClient) State() string                 { return f.state }
func (f *fakeClient) DefaultTimeout() time.Duration { return f.timeout }
func (f *fakeClient) SetDefaultTimeout(d time.Duration) {
	f.record("set_default_timeout")
	f.timeout = d
}

func (f *fakeClient) SetF64ObservableGauge(name string, value float64, description string) {
	f.record("set_f64")
	f.gauges[name] = openiap.Gauge{Name: name, Kind: openiap.GaugeF64, Value: value, Description: description}
}

func (f *fakeClient) SetU64ObservableGauge(name string, value uint64, description string) {
	f.record("set_u64")
	f.gauges[name] = openiap.Gauge{Name: name, Kind: openiap.GaugeU64, Value: float64(value), Description: description}
}

func (f *fakeClient) SetI64ObservableGauge(name string, value int64, description string) {
	f.record("set_i64")
	f.gauges[name] = openiap.Gauge{Name: name, Kind: openiap.GaugeI64, Value: float64(value), Description: description}
}

func (f *fakeClient) DisableObservableGauge(name string) {
	f.record("disable_gauge")
	delete(f.gauges, name)
}

func (f *fakeClient) Gauges() []openiap.Gauge {
	out := make([]openiap.Gauge, 0, len(f.gauges))
	for _, g := range f.gauges {
		out = append(out, g)
	}
	return out
}

func (f *fakeClient) Events() <-chan openiap.Event { return f.events }

func (f *fakeClient) Close() error {
	f.record("close")
	f.closed = true
	return nil
}
