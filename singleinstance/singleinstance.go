// Package singleinstance keeps one resident SnapOCR per machine and lets
// later invocations delegate their capture to it over TCP loopback.
package singleinstance

import (
	"context"
	"errors"
)

// ErrCancelled reports that the resident's user dismissed the delegated
// capture. Callers treat it as a quiet outcome, not a failure.
var ErrCancelled = errors.New("capture cancelled")

// Server owns the resident TCP endpoint and answers delegated captures.
type Server interface {
	// Start binds the first free port in the configured range and begins
	// accepting clients.
	Start(ctx context.Context) error
	// Port returns the bound TCP port, or 0 if not started.
	Port() int
	// Next returns the next accepted capture request, or ctx error.
	Next(ctx context.Context) (Conn, error)
	// Close releases the port and stops accepting clients.
	Close() error
}

// Conn is one delegated capture request awaiting its response.
type Conn interface {
	Request() Request
	// RespondSuccess sends the capture result. Stdout-mode clients expect
	// the text; clipboard-mode clients expect empty text.
	RespondSuccess(text string) error
	// RespondCancelled tells the client the user dismissed the capture.
	RespondCancelled() error
	// RespondError sends a human-readable failure.
	RespondError(msg string) error
	Close() error
}

// Request is a parsed delegated capture request.
type Request struct {
	OutputToStdout bool
}

// Client delegates a capture to a resident, if one is running.
type Client interface {
	// TryRunOnce scans the port range for a resident and delegates to it.
	// No resident found is (false, "", nil). A capture the resident's
	// user cancelled is (true, "", ErrCancelled).
	TryRunOnce(ctx context.Context, outputToStdout bool) (delegated bool, text string, err error)
}

func NewServer() Server { return newTCPServer() }

func NewClient() Client { return newTCPClient() }
