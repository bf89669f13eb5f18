// Copyright (c) 2025 OpenIAP
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// StreamErrorType represents the category of a lost server stream.
type StreamErrorType int

const (
	StreamErrorUnknown StreamErrorType = iota
	StreamErrorNetwork
	StreamErrorAuth
	StreamErrorTimeout
	StreamErrorInternal
	StreamErrorUnavailable
)

// ParseStreamError categorizes the error that ended a server stream. gRPC
// status codes are used when present; websocket and plain network errors
// fall back to message inspection.
func ParseStreamError(err error) StreamErrorType {
	if err == nil {
		return StreamErrorUnknown
	}
	if st, ok := status.FromError(err); ok && st.Code() != codes.Unknown {
		switch st.Code() {
		case codes.Unauthenticated, codes.PermissionDenied:
			return StreamErrorAuth
		case codes.DeadlineExceeded:
			return StreamErrorTimeout
		case codes.Unavailable:
			return StreamErrorUnavailable
		case codes.Internal:
			return StreamErrorInternal
		}
	}

	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "rst_stream"), strings.Contains(lower, "connection reset"),
		strings.Contains(lower, "broken pipe"), strings.Contains(lower, "close 1006"):
		return StreamErrorNetwork
	case strings.Contains(lower, "internal_error"):
		return StreamErrorInternal
	case strings.Contains(lower, "unavailable"):
		return StreamErrorUnavailable
	case strings.Contains(lower, "deadline"), strings.Contains(lower, "timeout"):
		return StreamErrorTimeout
	case strings.Contains(lower, "unauthenticated"), strings.Contains(lower, "unauthorized"):
		return StreamErrorAuth
	}
	return StreamErrorUnknown
}

// FormatStreamError formats a lost connection in a user-friendly way.
func FormatStreamError(err error) string {
	var builder strings.Builder

	builder.WriteString(pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprint("Connection Lost"))
	builder.WriteString("\n")

	switch ParseStreamError(err) {
	case StreamErrorNetwork:
		builder.WriteString("The connection to the OpenIAP server was interrupted unexpectedly.\n")
	case StreamErrorInternal:
		builder.WriteString("The OpenIAP server reported an internal error and closed the stream.\n")
	case StreamErrorUnavailable:
		builder.WriteString("The OpenIAP server is currently unavailable.\n")
	case StreamErrorTimeout:
		builder.WriteString("The connection to the OpenIAP server timed out.\n")
	case StreamErrorAuth:
		builder.WriteString("The server rejected the credentials. Run 'openiap login' to store a new token.\n")
	default:
		builder.WriteString("The server stream ended.\n")
	}

	builder.WriteString(pterm.NewStyle(pterm.FgYellow).Sprint("→ Type 'connect' to reconnect"))
	builder.WriteString("\n")

	if err != nil && err != io.EOF {
		builder.WriteString(pterm.NewStyle(pterm.FgGray).Sprint("Technical details: " + Mask(err.Error())))
		builder.WriteString("\n")
	}
	return builder.String()
}

// PresentStreamError writes a formatted stream error to w.
func PresentStreamError(w io.Writer, err error) {
	fmt.Fprintln(w)
	fmt.Fprint(w, FormatStreamError(err))
}
