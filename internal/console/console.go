// Copyright (c) 2025 OpenIAP
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package console implements the interactive command loop. Each command
// builds one request from the configured samples, calls the client, and
// prints the outcome. Events pushed by the client (watch responses, watch
// changes, queue messages, connection loss) are drained by the same loop
// that reads input, so all console state is owned by one goroutine.
package console

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"openiap/cli/internal/config"
	"openiap/cli/internal/logging"
	"openiap/cli/internal/neterrors"
	"openiap/cli/internal/openiap"
	"openiap/cli/internal/terminal"

	"github.com/pterm/pterm"
)

// exitUnwatchTimeout bounds the unwatch sent while exiting.
const exitUnwatchTimeout = 2 * time.Second

// Client is the part of *openiap.Client the console drives.
type Client interface {
	Connect(ctx context.Context, addr string) (*openiap.ConnectResponse, error)
	Query(ctx context.Context, req openiap.QueryRequest) (*openiap.QueryResponse, error)
	Distinct(ctx context.Context, req openiap.DistinctRequest) (*openiap.DistinctResponse, error)
	InsertOne(ctx context.Context, req openiap.InsertOneRequest) (*openiap.InsertOneResponse, error)
	InsertMany(ctx context.Context, req openiap.InsertManyRequest) (*openiap.InsertManyResponse, error)
	WatchAsync(ctx context.Context, req openiap.WatchRequest) error
	Unwatch(ctx context.Context, watchID string) (*openiap.UnwatchResponse, error)
	RegisterQueue(ctx context.Context, req openiap.RegisterQueueRequest) (*openiap.RegisterQueueResponse, error)
	QueueMessage(ctx context.Context, req openiap.QueueMessageRequest) (*openiap.QueueMessageResponse, error)
	RPC(ctx context.Context, req openiap.QueueMessageRequest, timeout time.Duration) (*openiap.RPCResponse, error)
	CustomCommand(ctx context.Context, req openiap.CustomCommandRequest, timeout time.Duration) (*openiap.CustomCommandResponse, error)
	InvokeOpenRPA(ctx context.Context, req openiap.InvokeOpenRPARequest, timeout time.Duration) (*openiap.InvokeOpenRPAResponse, error)
	State() string
	DefaultTimeout() time.Duration
	SetDefaultTimeout(d time.Duration)
	SetF64ObservableGauge(name string, value float64, description string)
	SetU64ObservableGauge(name string, value uint64, description string)
	SetI64ObservableGauge(name string, value int64, description string)
	DisableObservableGauge(name string)
	Gauges() []openiap.Gauge
	Events() <-chan openiap.Event
	Close() error
}

// Options configures a Console.
type Options struct {
	Client  Client
	Address string
	Samples config.Samples
	In      io.Reader
	Out     io.Writer
	Err     io.Writer
	Logger  *pterm.Logger
	// Rand returns the value a gauge toggle sets, in [1,50].
	Rand func() int
}

// Console is the interactive command loop.
type Console struct {
	client  Client
	address string
	samples config.Samples
	in      io.Reader
	out     io.Writer
	errOut  io.Writer
	logger  *pterm.Logger
	prompt  *terminal.Prompt
	rand    func() int

	exitTimeout time.Duration

	watchID      string
	watchPending bool
	gauges       map[string]*gaugeToggle
}

// New returns a console. Missing writers default to io.Discard and a missing
// logger drops everything.
func New(opts Options) *Console {
	c := &Console{
		client:  opts.Client,
		address: opts.Address,
		samples: opts.Samples,
		in:      opts.In,
		out:     opts.Out,
		errOut:  opts.Err,
		logger:  opts.Logger,
		rand:    opts.Rand,

		exitTimeout: exitUnwatchTimeout,
	}
	if c.out == nil {
		c.out = io.Discard
	}
	if c.errOut == nil {
		c.errOut = io.Discard
	}
	if c.logger == nil {
		c.logger = logging.Discard()
	}
	if c.rand == nil {
		c.rand = func() int { return rand.IntN(50) + 1 }
	}
	c.prompt = terminal.NewPrompt(c.out, terminal.DefaultPrompt)
	c.gauges = newGaugeToggles(c.samples)
	return c
}

// Run connects, runs the loop until quit, end of input, or ctx is done, and
// tears down. It returns the process exit code: 1 when the startup
// connection fails, 0 otherwise.
func (c *Console) Run(ctx context.Context) int {
	resp, err := c.client.Connect(ctx, c.address)
	if err != nil {
		fmt.Fprintf(c.errOut, "Error: connect returned no response: %s\n", logging.Mask(err.Error()))
		neterrors.PrintHint(c.errOut, err, openiap.ResolveAddress(c.address))
		_ = c.client.Close()
		return 1
	}
	if !resp.Success {
		fmt.Fprintf(c.errOut, "Connection failed: %s\n", resp.Error)
		_ = c.client.Close()
		return 1
	}
	fmt.Fprintf(c.out, "Connected successfully! Request ID: %d\n", resp.RequestID)
	c.printHelp()

	lines := make(chan string)
	stop := make(chan struct{})
	defer close(stop)
	go c.readLines(lines, stop)

	c.loop(ctx, lines)
	c.teardown(ctx)
	return 0
}

func (c *Console) loop(ctx context.Context, lines <-chan string) {
	events := c.client.Events()
	for {
		c.prompt.Show()

		// Events that arrived while the last command ran come before the
		// next line.
		select {
		case ev, ok := <-events:
			events = c.onEvent(ctx, ev, ok, events)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			events = c.onEvent(ctx, ev, ok, events)
		case line, ok := <-lines:
			if !ok {
				return
			}
			c.prompt.Accepted()
			if line == "quit" {
				return
			}
			c.Execute(ctx, line)
		}
	}
}

func (c *Console) onEvent(ctx context.Context, ev openiap.Event, ok bool, events <-chan openiap.Event) <-chan openiap.Event {
	if !ok {
		return nil
	}
	c.prompt.Interrupt()
	c.handleEvent(ctx, ev)
	return events
}

func (c *Console) teardown(ctx context.Context) {
	if c.watchID != "" {
		uctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.exitTimeout)
		_, _ = c.client.Unwatch(uctx, c.watchID)
		cancel()
		c.watchID = ""
	}
	if err := c.client.Close(); err != nil {
		c.logger.Debug("close failed", c.logger.Args("error", logging.Mask(err.Error())))
	}
	fmt.Fprintln(c.out, "Exiting CLI.")
}

func (c *Console) handleEvent(ctx context.Context, ev openiap.Event) {
	switch ev := ev.(type) {
	case openiap.WatchResponse:
		c.watchPending = false
		if !ev.Success {
			fmt.Fprintf(c.out, "Watch failed: %s\n", ev.Error)
			return
		}
		c.watchID = ev.WatchID
		fmt.Fprintf(c.out, "Watch created with id: %s\n", ev.WatchID)
	case openiap.WatchEvent:
		fmt.Fprintln(c.out, "Watch event received:")
		fmt.Fprintf(c.out, "  Operation: %s\n", ev.Operation)
		fmt.Fprintf(c.out, "  Document: %s\n", ev.Document)
	case openiap.QueueEvent:
		fmt.Fprintf(c.out, "Queue event received on queue: %s\n", ev.QueueName)
		fmt.Fprintf(c.out, "  Data: %s\n", ev.Data)
		fmt.Fprintf(c.out, "  Correlation ID: %s\n", orNone(ev.CorrelationID))
		fmt.Fprintf(c.out, "  ReplyTo: %s\n", orNone(ev.ReplyTo))
		if ev.ReplyTo != nil {
			c.acknowledge(ctx, ev)
		}
	case openiap.ConnectionEvent:
		c.watchID = ""
		c.watchPending = false
		if ev.Err != nil {
			logging.PresentStreamError(c.errOut, ev.Err)
			return
		}
		c.logger.Info("Server closed the connection. Type 'connect' to reconnect.")
	}
}

// acknowledge answers a queue message that asked for a reply.
func (c *Console) acknowledge(ctx context.Context, ev openiap.QueueEvent) {
	resp, err := c.client.QueueMessage(ctx, openiap.QueueMessageRequest{
		QueueName:     *ev.ReplyTo,
		CorrelationID: ev.CorrelationID,
		Data:          c.samples.QueueReply,
		StripToken:    true,
	})
	switch {
	case err != nil:
		c.logger.Warn("queue reply not sent", c.logger.Args("replyto", *ev.ReplyTo, "error", logging.Mask(err.Error())))
	case !resp.Success:
		c.logger.Warn("queue reply rejected", c.logger.Args("replyto", *ev.ReplyTo, "error", resp.Error))
	}
}

func orNone(s *string) string {
	if s == nil {
		return "(none)"
	}
	return *s
}
