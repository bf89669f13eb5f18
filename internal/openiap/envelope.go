package openiap

import (
	"bytes"
	"encoding/json"
	"strconv"

	"google.golang.org/protobuf/types/known/structpb"
)

// Envelope is the frame exchanged with the server. ID is assigned by the
// sender, RID names the ID a reply answers and Data holds a JSON document as
// text.
type Envelope struct {
	ID      string `json:"id"`
	RID     string `json:"rid,omitempty"`
	Command string `json:"command"`
	Data    string `json:"data,omitempty"`
}

// Commands with special meaning to the dispatcher.
const (
	cmdError      = "error"
	cmdWatchEvent = "watchevent"
	cmdQueueEvent = "queueevent"
	cmdPing       = "ping"
	cmdPong       = "pong"
	replySuffix   = "reply"
)

func (e Envelope) toStruct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"id":      e.ID,
		"rid":     e.RID,
		"command": e.Command,
		"data":    e.Data,
	})
}

func envelopeFromStruct(s *structpb.Struct) Envelope {
	f := s.GetFields()
	return Envelope{
		ID:      f["id"].GetStringValue(),
		RID:     f["rid"].GetStringValue(),
		Command: f["command"].GetStringValue(),
		Data:    f["data"].GetStringValue(),
	}
}

// requestID parses an envelope id; non-numeric ids yield 0.
func requestID(id string) int {
	n, err := strconv.Atoi(id)
	if err != nil {
		return 0
	}
	return n
}

// rawString renders a JSON value for display: strings are unquoted, every
// other value is returned as compact JSON text, null is empty.
func rawString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

// Payloads of the requests the client sends.

type signinData struct {
	JWT      string `json:"jwt,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Agent    string `json:"agent"`
	Version  string `json:"version,omitempty"`
	Ping     bool   `json:"ping"`
}

type queryData struct {
	CollectionName string  `json:"collectionname"`
	Query          string  `json:"query"`
	Projection     string  `json:"projection,omitempty"`
	OrderBy        *string `json:"orderby,omitempty"`
	QueryAs        *string `json:"queryas,omitempty"`
	Explain        bool    `json:"explain,omitempty"`
	Skip           int     `json:"skip,omitempty"`
	Top            int     `json:"top,omitempty"`
}

type distinctData struct {
	CollectionName string  `json:"collectionname"`
	Field          string  `json:"field"`
	Query          *string `json:"query,omitempty"`
	QueryAs        *string `json:"queryas,omitempty"`
	Explain        bool    `json:"explain,omitempty"`
}

type insertOneData struct {
	CollectionName string `json:"collectionname"`
	Item           string `json:"item"`
	W              int    `json:"w"`
	J              bool   `json:"j"`
}

type insertManyData struct {
	CollectionName string `json:"collectionname"`
	Items          string `json:"items"`
	W              int    `json:"w"`
	J              bool   `json:"j"`
	SkipResults    bool   `json:"skipresults"`
}

type watchData struct {
	CollectionName string  `json:"collectionname"`
	Paths          *string `json:"paths,omitempty"`
}

type unwatchData struct {
	ID string `json:"id"`
}

type registerQueueData struct {
	QueueName string `json:"queuename"`
}

type queueMessageData struct {
	QueueName     string  `json:"queuename"`
	CorrelationID *string `json:"correlationId,omitempty"`
	ReplyTo       *string `json:"replyto,omitempty"`
	RoutingKey    *string `json:"routingkey,omitempty"`
	ExchangeName  *string `json:"exchangename,omitempty"`
	Data          string  `json:"data"`
	StripToken    bool    `json:"striptoken"`
	Expiration    int     `json:"expiration,omitempty"`
}

type customCommandData struct {
	Command string  `json:"command"`
	ID      *string `json:"id,omitempty"`
	Name    *string `json:"name,omitempty"`
	Data    *string `json:"data,omitempty"`
}

type invokeOpenRPAData struct {
	RobotID    string `json:"robotid"`
	WorkflowID string `json:"workflowid"`
	Payload    string `json:"payload"`
	RPC        bool   `json:"rpc"`
}

type gaugeData struct {
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Value       float64 `json:"value"`
	Description string  `json:"description,omitempty"`
	Enabled     bool    `json:"enabled"`
}

// Payloads of replies and pushes.

type errorReply struct {
	Message string `json:"message"`
}

type resultReply struct {
	Result  json.RawMessage `json:"result"`
	Results json.RawMessage `json:"results"`
}

type distinctReply struct {
	Results []json.RawMessage `json:"results"`
}

type watchReply struct {
	ID string `json:"id"`
}

type registerQueueReply struct {
	QueueName string `json:"queuename"`
}

type watchEventData struct {
	ID        string          `json:"id"`
	Operation string          `json:"operation"`
	Document  json.RawMessage `json:"document"`
}

type queueEventData struct {
	QueueName     string          `json:"queuename"`
	CorrelationID *string         `json:"correlationId,omitempty"`
	ReplyTo       *string         `json:"replyto,omitempty"`
	Data          json.RawMessage `json:"data"`
}
