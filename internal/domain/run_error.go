package domain

import (
	"context"
	"errors"
	"net"
	"net/url"
	"os"
	"syscall"
)

// RunErrorKind is a high-level classification of transport errors.
type RunErrorKind string

const (
	RunErrorUnknown RunErrorKind = "unknown"
	RunErrorTimeout RunErrorKind = "timeout"
	RunErrorDNS     RunErrorKind = "dns"
	RunErrorConn    RunErrorKind = "connection"
	RunErrorHTTP    RunErrorKind = "http"
)

// RunError represents a structured transport error attached to a step.
type RunError struct {
	Kind    RunErrorKind `json:"kind"`
	Message string       `json:"message"`
}

// NewRunError classifies err. Returns nil for a nil error.
func NewRunError(err error) *RunError {
	if err == nil {
		return nil
	}
	return &RunError{
		Kind:    ClassifyRunError(err),
		Message: err.Error(),
	}
}

// ClassifyRunError maps net/url/context errors to a RunErrorKind.
func ClassifyRunError(err error) RunErrorKind {
	if err == nil {
		return RunErrorUnknown
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return RunErrorTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return RunErrorDNS
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT) {
		return RunErrorConn
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return RunErrorTimeout
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return RunErrorConn
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return RunErrorHTTP
	}

	return RunErrorUnknown
}
