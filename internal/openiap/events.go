package openiap

// Event is a message pushed by the client on Events(). The concrete type is
// one of WatchResponse, WatchEvent, QueueEvent or ConnectionEvent.
type Event interface {
	isEvent()
}

// WatchResponse is delivered once for every WatchAsync call that was sent.
type WatchResponse struct {
	Success bool
	Error   string
	WatchID string
}

// WatchEvent is a change matching an active watch.
type WatchEvent struct {
	WatchID   string
	Operation string
	Document  string
}

// QueueEvent is a message received on a registered queue. CorrelationID and
// ReplyTo are nil when the sender did not set them.
type QueueEvent struct {
	QueueName     string
	Data          string
	CorrelationID *string
	ReplyTo       *string
}

// ConnectionEvent reports that the server connection ended without Close or
// Connect being called. Err is nil for a clean close by the server.
type ConnectionEvent struct {
	Err error
}

func (WatchResponse) isEvent()   {}
func (WatchEvent) isEvent()      {}
func (QueueEvent) isEvent()      {}
func (ConnectionEvent) isEvent() {}
