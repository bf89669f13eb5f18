package neterrors

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Class
	}{
		{"nil", nil, Generic},
		{"deadline", errors.New("context deadline exceeded"), Timeout},
		{"dns", &net.DNSError{Err: "no such host", Name: "nowhere.invalid"}, DNS},
		{"refused errno", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), Refused},
		{"refused text", errors.New("dial tcp 127.0.0.1:50051: connect: connection refused"), Refused},
		{"tls", errors.New("tls: first record does not look like a TLS handshake"), TLS},
		{"auth", errors.New("rpc error: code = Unauthenticated desc = bad jwt"), Auth},
		{"other", errors.New("something odd"), Generic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractHost(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"grpc://localhost:50051", "localhost:50051"},
		{"wss://app.openiap.io", "app.openiap.io"},
		{"", "the server"},
	}
	for _, tt := range tests {
		if got := ExtractHost(tt.in); got != tt.want {
			t.Errorf("ExtractHost(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPrintHintMentionsHost(t *testing.T) {
	var buf bytes.Buffer
	PrintHint(&buf, errors.New("connection refused"), "grpc://localhost:50051")
	if !strings.Contains(buf.String(), "localhost:50051") {
		t.Errorf("PrintHint() output %q does not mention host", buf.String())
	}
}
