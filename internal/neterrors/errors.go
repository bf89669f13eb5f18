// Copyright (c) 2025 OpenIAP
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package neterrors turns dial and stream failures into troubleshooting hints.
package neterrors

import (
	"errors"
	"io"
	"net"
	"net/url"
	"strings"
	"syscall"

	"github.com/pterm/pterm"
)

// Class is the category of a network failure.
type Class int

const (
	Generic Class = iota
	Timeout
	DNS
	Refused
	TLS
	Auth
)

func (c Class) String() string {
	switch c {
	case Timeout:
		return "timeout"
	case DNS:
		return "dns"
	case Refused:
		return "refused"
	case TLS:
		return "tls"
	case Auth:
		return "auth"
	default:
		return "generic"
	}
}

// Classify inspects err and returns its category.
func Classify(err error) Class {
	switch {
	case err == nil:
		return Generic
	case isTimeoutError(err):
		return Timeout
	case isDNSError(err):
		return DNS
	case isConnectionRefusedError(err):
		return Refused
	case isTLSError(err):
		return TLS
	case isAuthError(err):
		return Auth
	}
	return Generic
}

// PrintHint writes a short troubleshooting hint for err to w. address is the
// server URL that was being dialed.
func PrintHint(w io.Writer, err error, address string) {
	if err == nil {
		return
	}
	host := ExtractHost(address)

	switch Classify(err) {
	case Timeout:
		pterm.Fprintln(w, "⏱️  Connection to "+host+" timed out.")
		pterm.Fprintln(w, "  • The server may be under heavy load")
		pterm.Fprintln(w, "  • A firewall may be dropping the connection")
	case DNS:
		pterm.Fprintln(w, "🌐 Cannot resolve "+host+".")
		pterm.Fprintln(w, "  • Check the address in your config or OPENIAP_APIURL")
		pterm.Fprintln(w, "  • Check your DNS settings")
	case Refused:
		pterm.Fprintln(w, "🚫 Connection to "+host+" was refused.")
		pterm.Fprintln(w, "  • Is the OpenIAP server running?")
		pterm.Fprintln(w, "  • grpc:// usually listens on 50051, ws:// on the web port")
	case TLS:
		pterm.Fprintln(w, "🔒 Secure connection to "+host+" failed.")
		pterm.Fprintln(w, "  • Use grpc:// or ws:// for servers without TLS")
		pterm.Fprintln(w, "  • Check your system date and time")
	case Auth:
		pterm.Fprintln(w, "🔑 "+host+" rejected the credentials.")
		pterm.Fprintln(w, "  • Run 'openiap login' or set OPENIAP_JWT")
	default:
		pterm.Fprintln(w, "❌ Cannot reach "+host+".")
		pterm.Fprintln(w, "  • Check your network connection and the server address")
	}
}

func isTimeoutError(err error) bool {
	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "timed out") ||
		strings.Contains(errStr, "deadline exceeded") {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isDNSError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such host")
}

func isConnectionRefusedError(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "connection refused")
}

func isTLSError(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "tls") ||
		strings.Contains(errStr, "x509") ||
		strings.Contains(errStr, "certificate") ||
		strings.Contains(errStr, "handshake")
}

func isAuthError(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "unauthenticated") ||
		strings.Contains(errStr, "401") ||
		strings.Contains(errStr, "not authenticated")
}

// ExtractHost returns the host part of a server URL for messages.
func ExtractHost(address string) string {
	u, err := url.Parse(address)
	if err != nil || u.Host == "" {
		return "the server"
	}
	return u.Host
}
