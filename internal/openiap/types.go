// Copyright (c) 2025 OpenIAP
// Licensed under the MIT License. See LICENSE file in the project root for details.

package openiap

// Request and response values for every client operation.
//
// Optional request fields are pointers: nil means "absent" and is omitted
// on the wire, while a pointer to "" is sent as an empty string. RequestID
// fields are caller bookkeeping only; the wire id is assigned by the client.
//
// Responses report application failures with Success=false and Error set.
// Transport failures are returned as errors and no response is produced.

// ConnectResponse is the result of Connect.
type ConnectResponse struct {
	Success   bool
	Error     string
	RequestID int
}

// QueryRequest selects documents from a collection.
type QueryRequest struct {
	CollectionName string
	Query          string
	Projection     string
	OrderBy        *string
	QueryAs        *string
	Explain        bool
	Skip           int
	Top            int
	RequestID      int
}

// QueryResponse carries the matching documents as an encoded JSON array.
type QueryResponse struct {
	Success bool
	Error   string
	Results string
}

// DistinctRequest asks for the distinct values of a field.
type DistinctRequest struct {
	CollectionName string
	Field          string
	Query          *string
	QueryAs        *string
	Explain        bool
	RequestID      int
}

// DistinctResponse carries one string per distinct value.
type DistinctResponse struct {
	Success bool
	Error   string
	Results []string
}

// InsertOneRequest inserts a single encoded document.
type InsertOneRequest struct {
	CollectionName string
	Item           string
	W              int
	J              bool
	RequestID      int
}

// InsertOneResponse carries the stored document.
type InsertOneResponse struct {
	Success bool
	Error   string
	Result  string
}

// InsertManyRequest inserts an encoded array of documents.
type InsertManyRequest struct {
	CollectionName string
	Items          string
	W              int
	J              bool
	SkipResults    bool
	RequestID      int
}

// InsertManyResponse carries the stored documents.
type InsertManyResponse struct {
	Success bool
	Error   string
	Results string
}

// WatchRequest subscribes to changes in a collection. A nil Paths watches
// every path.
type WatchRequest struct {
	CollectionName string
	Paths          *string
	RequestID      int
}

// UnwatchResponse is the result of Unwatch.
type UnwatchResponse struct {
	Success bool
	Error   string
}

// RegisterQueueRequest starts consuming a queue. An empty QueueName asks the
// server for a temporary queue.
type RegisterQueueRequest struct {
	QueueName string
	RequestID int
}

// RegisterQueueResponse carries the queue name the server registered.
type RegisterQueueResponse struct {
	Success   bool
	Error     string
	QueueName string
}

// QueueMessageRequest publishes a message to a queue or exchange.
type QueueMessageRequest struct {
	QueueName     string
	CorrelationID *string
	ReplyTo       *string
	RoutingKey    *string
	ExchangeName  *string
	Data          string
	StripToken    bool
	Expiration    int
	RequestID     int
}

// QueueMessageResponse is the server's acknowledgment of a published message.
type QueueMessageResponse struct {
	Success bool
	Error   string
}

// RPCResponse carries the correlated reply to an RPC message.
type RPCResponse struct {
	Success bool
	Error   string
	Result  string
}

// CustomCommandRequest runs a named server command.
type CustomCommandRequest struct {
	Command   string
	ID        *string
	Name      *string
	Data      *string
	RequestID int
}

// CustomCommandResponse carries the command's encoded result.
type CustomCommandResponse struct {
	Success bool
	Error   string
	Result  string
}

// InvokeOpenRPARequest runs a workflow on an OpenRPA robot. With RPC set the
// call waits for the workflow's result.
type InvokeOpenRPARequest struct {
	RobotID    string
	WorkflowID string
	Payload    string
	RPC        bool
}

// InvokeOpenRPAResponse carries the workflow result.
type InvokeOpenRPAResponse struct {
	Success bool
	Error   string
	Result  string
}

// Connection states reported by State.
const (
	StateDisconnected = "disconnected"
	StateConnecting   = "connecting"
	StateConnected    = "connected"
	StateSignedIn     = "signedin"
)
