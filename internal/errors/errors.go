// Copyright (c) 2025 OpenIAP
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package errors defines typed errors with categories for user-friendly reporting.
// It provides a structured approach to error handling with machine-readable error kinds
// and human-friendly messages, so the console can tell a call that never completed
// (transport, timeout, disconnect) apart from configuration or keychain problems.
//
// The package supports wrapping underlying errors while maintaining error kind information.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// NotConnected indicates a call was made before Connect succeeded.
	NotConnected Kind = "not_connected"
	// Transport indicates the transport could not be dialed or written to.
	Transport Kind = "transport"
	// Timeout indicates no reply arrived before the call deadline.
	Timeout Kind = "timeout"
	// Disconnected indicates the connection was lost while the call was pending.
	Disconnected Kind = "disconnected"
	// Protocol indicates a malformed frame or payload from the server.
	Protocol Kind = "protocol"
	// Config indicates an invalid or unreadable configuration file.
	Config Kind = "config"
	// Keychain indicates the OS credential store is unavailable.
	Keychain Kind = "keychain"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *E) Unwrap() error { return e.Err }

// Is reports whether target is an *E of the same kind, so that
// errors.Is(err, errors.New(errors.Timeout, "")) matches any timeout.
func (e *E) Is(target error) bool {
	t, ok := target.(*E)
	return ok && t.Kind == e.Kind
}

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// KindOf returns the kind of the first *E in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}
