package console

import (
	"context"
	"fmt"
	"time"

	"openiap/cli/internal/config"
	"openiap/cli/internal/logging"
	"openiap/cli/internal/openiap"
)

// sampleRequestID is the caller request id attached to every sample request.
const sampleRequestID = 1

const gaugeDescription = "test observable gauge"

type command struct {
	name     string
	describe func(config.Samples) string
	run      func(*Console, context.Context)
}

func fixed(s string) func(config.Samples) string {
	return func(config.Samples) string { return s }
}

// commands lists every command in the order help shows them. It is filled
// in init because the help entry refers back to the table.
var commands []command

func init() {
	commands = []command{
		{"?", fixed("Help"), func(c *Console, _ context.Context) { c.printHelp() }},
		{"connect", fixed("Reconnect to server"), (*Console).connect},
		{"info", fixed("Log an info message"), func(c *Console, _ context.Context) {
			c.logger.Info("This is an info message from the CLI.")
		}},
		{"warn", fixed("Log a warning message"), func(c *Console, _ context.Context) {
			c.logger.Warn("This is a warning message from the CLI.")
		}},
		{"error", fixed("Log an error message"), func(c *Console, _ context.Context) {
			c.logger.Error("This is an error message from the CLI.")
		}},
		{"o", func(s config.Samples) string { return fmt.Sprintf("Toggle observable gauge '%s'", s.GaugeF64) },
			func(c *Console, _ context.Context) { c.toggleGauge("o") }},
		{"o2", func(s config.Samples) string { return fmt.Sprintf("Toggle observable gauge '%s'", s.GaugeU64) },
			func(c *Console, _ context.Context) { c.toggleGauge("o2") }},
		{"o3", func(s config.Samples) string { return fmt.Sprintf("Toggle observable gauge '%s'", s.GaugeI64) },
			func(c *Console, _ context.Context) { c.toggleGauge("o3") }},
		{"q", func(s config.Samples) string { return fmt.Sprintf("Execute a query on '%s' collection", s.Collection) },
			(*Console).query},
		{"di", func(s config.Samples) string { return fmt.Sprintf("Get distinct values from '%s' collection", s.Collection) },
			(*Console).distinct},
		{"i", fixed("Insert one document"), (*Console).insertOne},
		{"im", fixed("Insert multiple documents"), (*Console).insertMany},
		{"w", func(s config.Samples) string { return fmt.Sprintf("Watch for changes in %s collection (async)", s.Collection) },
			(*Console).watch},
		{"uw", func(s config.Samples) string { return fmt.Sprintf("Unwatch %s collection", s.Collection) },
			(*Console).unwatch},
		{"r", func(s config.Samples) string { return fmt.Sprintf("Register queue '%s'", s.Queue) },
			(*Console).registerQueue},
		{"m", func(s config.Samples) string { return fmt.Sprintf("Send message to queue '%s'", s.Queue) },
			(*Console).queueMessage},
		{"r2", func(s config.Samples) string { return fmt.Sprintf("RPC to queue '%s' and log the reply", s.Queue) },
			(*Console).rpc},
		{"cc", func(s config.Samples) string { return fmt.Sprintf("Call custom_command '%s'", s.CustomCommand) },
			(*Console).customCommand},
		{"rpa", func(s config.Samples) string { return fmt.Sprintf("Invoke workflow '%s' on robot '%s'", s.WorkflowID, s.RobotID) },
			(*Console).invokeOpenRPA},
		{"g", fixed("Show state and default timeout, then set the timeout to 2 seconds"), (*Console).stateAndTimeout},
		{"quit", fixed("Exit the CLI"), nil},
	}
}

// Execute runs one input line. Empty lines do nothing.
func (c *Console) Execute(ctx context.Context, line string) {
	if line == "" {
		return
	}
	for _, cmd := range commands {
		if cmd.name == line && cmd.run != nil {
			cmd.run(c, ctx)
			return
		}
	}
	fmt.Fprintf(c.out, "Unknown command: '%s'\n", line)
}

func (c *Console) noResponse(op string, err error) {
	fmt.Fprintf(c.out, "Error: %s returned no response: %s\n", op, logging.Mask(err.Error()))
}

func (c *Console) connect(ctx context.Context) {
	resp, err := c.client.Connect(ctx, c.address)
	switch {
	case err != nil:
		c.noResponse("connect", err)
	case !resp.Success:
		fmt.Fprintf(c.out, "Connection failed: %s\n", resp.Error)
	default:
		// Watches do not survive a new connection.
		c.watchID = ""
		c.watchPending = false
		fmt.Fprintf(c.out, "Connected successfully! Request ID: %d\n", resp.RequestID)
	}
}

func (c *Console) query(ctx context.Context) {
	resp, err := c.client.Query(ctx, openiap.QueryRequest{
		CollectionName: c.samples.Collection,
		Query:          c.samples.Query,
		Projection:     c.samples.Projection,
		RequestID:      sampleRequestID,
	})
	switch {
	case err != nil:
		c.noResponse("query", err)
	case !resp.Success:
		fmt.Fprintf(c.out, "Query failed: %s\n", resp.Error)
	default:
		fmt.Fprintf(c.out, "Query succeeded. Results: %s\n", resp.Results)
	}
}

func (c *Console) distinct(ctx context.Context) {
	resp, err := c.client.Distinct(ctx, openiap.DistinctRequest{
		CollectionName: c.samples.Collection,
		Field:          c.samples.DistinctField,
		RequestID:      sampleRequestID,
	})
	switch {
	case err != nil:
		c.noResponse("distinct", err)
	case !resp.Success:
		fmt.Fprintf(c.out, "Distinct failed: %s\n", resp.Error)
	default:
		fmt.Fprintln(c.out, "Distinct values:")
		for _, v := range resp.Results {
			fmt.Fprintf(c.out, "  %s\n", v)
		}
	}
}

func (c *Console) insertOne(ctx context.Context) {
	resp, err := c.client.InsertOne(ctx, openiap.InsertOneRequest{
		CollectionName: c.samples.Collection,
		Item:           c.samples.Item,
		RequestID:      sampleRequestID,
	})
	switch {
	case err != nil:
		c.noResponse("insert_one", err)
	case !resp.Success:
		fmt.Fprintf(c.out, "Insert failed: %s\n", resp.Error)
	default:
		fmt.Fprintf(c.out, "Insert succeeded. Result: %s\n", resp.Result)
	}
}

func (c *Console) insertMany(ctx context.Context) {
	resp, err := c.client.InsertMany(ctx, openiap.InsertManyRequest{
		CollectionName: c.samples.Collection,
		Items:          c.samples.Items,
		RequestID:      sampleRequestID,
	})
	switch {
	case err != nil:
		c.noResponse("insert_many", err)
	case !resp.Success:
		fmt.Fprintf(c.out, "Insert many failed: %s\n", resp.Error)
	default:
		fmt.Fprintf(c.out, "Insert many succeeded. Results: %s\n", resp.Results)
	}
}

func (c *Console) watch(ctx context.Context) {
	if c.watchID != "" || c.watchPending {
		fmt.Fprintln(c.out, "Watch already active. Use 'uw' to unwatch first.")
		return
	}
	err := c.client.WatchAsync(ctx, openiap.WatchRequest{
		CollectionName: c.samples.Collection,
		RequestID:      sampleRequestID,
	})
	if err != nil {
		c.noResponse("watch", err)
		return
	}
	c.watchPending = true
	fmt.Fprintln(c.out, "Watch request sent...")
}

func (c *Console) unwatch(ctx context.Context) {
	if c.watchID == "" {
		fmt.Fprintln(c.out, "No active watch to unsubscribe from")
		return
	}
	resp, err := c.client.Unwatch(ctx, c.watchID)
	c.watchID = ""
	switch {
	case err != nil:
		c.noResponse("unwatch", err)
	case !resp.Success:
		fmt.Fprintf(c.out, "Unwatch failed: %s\n", resp.Error)
	default:
		fmt.Fprintln(c.out, "Unwatched successfully")
	}
}

func (c *Console) registerQueue(ctx context.Context) {
	resp, err := c.client.RegisterQueue(ctx, openiap.RegisterQueueRequest{
		QueueName: c.samples.Queue,
		RequestID: sampleRequestID,
	})
	switch {
	case err != nil:
		c.noResponse("register_queue", err)
	case !resp.Success:
		fmt.Fprintf(c.out, "Register queue failed: %s\n", resp.Error)
	default:
		fmt.Fprintf(c.out, "Registered queue as: %s\n", resp.QueueName)
	}
}

func (c *Console) queueMessage(ctx context.Context) {
	resp, err := c.client.QueueMessage(ctx, openiap.QueueMessageRequest{
		QueueName:  c.samples.Queue,
		Data:       c.samples.Message,
		StripToken: true,
		RequestID:  sampleRequestID,
	})
	switch {
	case err != nil:
		c.noResponse("queue_message", err)
	case !resp.Success:
		fmt.Fprintf(c.out, "Queue message failed: %s\n", resp.Error)
	default:
		fmt.Fprintf(c.out, "Queued message to %s\n", c.samples.Queue)
	}
}

// rpc reports through the logger rather than plain output.
func (c *Console) rpc(ctx context.Context) {
	resp, err := c.client.RPC(ctx, openiap.QueueMessageRequest{
		QueueName:  c.samples.Queue,
		Data:       c.samples.Message,
		StripToken: true,
		RequestID:  sampleRequestID,
	}, seconds(c.samples.RPCTimeoutSeconds))
	switch {
	case err != nil:
		c.logger.Error("RPC test failed: no response.", c.logger.Args("error", logging.Mask(err.Error())))
	case !resp.Success:
		c.logger.Error("RPC test failed:", c.logger.Args("error", resp.Error))
	default:
		c.logger.Info("Received reply:", c.logger.Args("result", resp.Result))
	}
}

func (c *Console) customCommand(ctx context.Context) {
	resp, err := c.client.CustomCommand(ctx, openiap.CustomCommandRequest{
		Command:   c.samples.CustomCommand,
		RequestID: sampleRequestID,
	}, seconds(c.samples.CustomCommandTimeoutSeconds))
	switch {
	case err != nil:
		c.noResponse("custom_command", err)
	case !resp.Success:
		fmt.Fprintf(c.out, "Custom command failed: %s\n", resp.Error)
	default:
		fmt.Fprintf(c.out, "Custom command result: %s\n", resp.Result)
	}
}

func (c *Console) invokeOpenRPA(ctx context.Context) {
	resp, err := c.client.InvokeOpenRPA(ctx, openiap.InvokeOpenRPARequest{
		RobotID:    c.samples.RobotID,
		WorkflowID: c.samples.WorkflowID,
		Payload:    c.samples.RobotPayload,
		RPC:        true,
	}, seconds(c.samples.RobotTimeoutSeconds))
	switch {
	case err != nil:
		c.noResponse("invoke_openrpa", err)
	case !resp.Success:
		fmt.Fprintf(c.out, "Invoke OpenRPA failed: %s\n", resp.Error)
	default:
		fmt.Fprintf(c.out, "Invoke OpenRPA result: %s\n", resp.Result)
	}
}

func (c *Console) stateAndTimeout(context.Context) {
	if state := c.client.State(); state != "" {
		c.logger.Info("State:", c.logger.Args("state", state))
	} else {
		c.logger.Error("Failed to get state.")
	}

	c.logger.Info("Default timeout:")
	fmt.Fprintf(c.out, "%d seconds\n", int(c.client.DefaultTimeout()/time.Second))

	c.client.SetDefaultTimeout(2 * time.Second)
	if c.client.DefaultTimeout() == 2*time.Second {
		c.logger.Info("Default timeout set to 2 seconds.")
	} else {
		c.logger.Error("Failed to set default timeout.")
	}

	if gauges := c.client.Gauges(); len(gauges) > 0 {
		fmt.Fprintln(c.out, renderGauges(gauges))
	}
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
