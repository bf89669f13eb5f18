// Copyright (c) 2025 OpenIAP
// Licensed under the MIT License. See LICENSE file in the project root for details.

package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"testing"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *E
		want string
	}{
		{
			name: "without cause",
			err:  New(Timeout, "query timed out"),
			want: "timeout: query timed out",
		},
		{
			name: "with cause",
			err:  Wrap(Transport, "dial failed", io.EOF),
			want: "transport: dial failed: EOF",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKindMatching(t *testing.T) {
	err := fmt.Errorf("rpc: %w", Wrap(Disconnected, "connection lost", io.ErrUnexpectedEOF))

	if got := KindOf(err); got != Disconnected {
		t.Errorf("KindOf() = %v, want %v", got, Disconnected)
	}
	if !stderrors.Is(err, New(Disconnected, "")) {
		t.Error("errors.Is should match on kind")
	}
	if stderrors.Is(err, New(Timeout, "")) {
		t.Error("errors.Is should not match a different kind")
	}
	if !stderrors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("errors.Is should reach the wrapped cause")
	}
	if got := KindOf(io.EOF); got != "" {
		t.Errorf("KindOf(plain error) = %q, want empty", got)
	}
}
