package singleinstance

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"
)

func pinPorts(t *testing.T, start int) {
	t.Helper()
	t.Setenv("SNAPOCR_PORT_START", strconv.Itoa(start))
	t.Setenv("SNAPOCR_PORT_END", strconv.Itoa(start+2))
}

func startServer(t *testing.T, ctx context.Context) Server {
	t.Helper()
	srv := NewServer()
	if err := srv.Start(ctx); err != nil {
		t.Skipf("loopback listener unavailable: %v", err)
	}
	t.Cleanup(func() { srv.Close() })
	return srv
}

func TestRoundTripStdout(t *testing.T) {
	pinPorts(t, 51620)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv := startServer(t, ctx)

	// Multi-line text exercises the base64 framing.
	const payload = "line one\nline two\n字"

	type reply struct {
		delegated bool
		text      string
		err       error
	}
	got := make(chan reply, 1)
	go func() {
		delegated, text, err := NewClient().TryRunOnce(ctx, true)
		got <- reply{delegated, text, err}
	}()

	conn, err := srv.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	defer conn.Close()
	if !conn.Request().OutputToStdout {
		t.Error("request mode = clipboard, want stdout")
	}
	if err := conn.RespondSuccess(payload); err != nil {
		t.Fatalf("RespondSuccess: %v", err)
	}

	r := <-got
	if r.err != nil {
		t.Fatalf("client: %v", r.err)
	}
	if !r.delegated {
		t.Fatal("client did not delegate")
	}
	if r.text != payload {
		t.Fatalf("client text = %q, want %q", r.text, payload)
	}
}

func TestRoundTripClipboard(t *testing.T) {
	pinPorts(t, 51630)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv := startServer(t, ctx)

	got := make(chan string, 1)
	errs := make(chan error, 1)
	go func() {
		_, text, err := NewClient().TryRunOnce(ctx, false)
		got <- text
		errs <- err
	}()

	conn, err := srv.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	defer conn.Close()
	if conn.Request().OutputToStdout {
		t.Error("request mode = stdout, want clipboard")
	}
	if err := conn.RespondSuccess(""); err != nil {
		t.Fatalf("RespondSuccess: %v", err)
	}

	if text := <-got; text != "" {
		t.Fatalf("clipboard-mode client received text %q", text)
	}
	if err := <-errs; err != nil {
		t.Fatalf("client: %v", err)
	}
}

func TestDelegatedCancel(t *testing.T) {
	pinPorts(t, 51640)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv := startServer(t, ctx)

	errs := make(chan error, 1)
	go func() {
		_, _, err := NewClient().TryRunOnce(ctx, true)
		errs <- err
	}()

	conn, err := srv.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	defer conn.Close()
	if err := conn.RespondCancelled(); err != nil {
		t.Fatalf("RespondCancelled: %v", err)
	}

	if err := <-errs; !errors.Is(err, ErrCancelled) {
		t.Fatalf("client err = %v, want ErrCancelled", err)
	}
}

func TestDelegatedError(t *testing.T) {
	pinPorts(t, 51650)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv := startServer(t, ctx)

	errs := make(chan error, 1)
	go func() {
		_, _, err := NewClient().TryRunOnce(ctx, true)
		errs <- err
	}()

	conn, err := srv.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	defer conn.Close()
	if err := conn.RespondError("no display attached"); err != nil {
		t.Fatalf("RespondError: %v", err)
	}

	err = <-errs
	if err == nil || !strings.Contains(err.Error(), "no display attached") {
		t.Fatalf("client err = %v, want resident message", err)
	}
}

// dialRaw requests a capture over a raw connection and hands back the
// reply lines as the resident writes them, without waiting for the
// resident to hang up.
func dialRaw(t *testing.T, port int, request string, lines chan<- string) {
	t.Helper()
	go func() {
		c, err := net.Dial("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
		if err != nil {
			lines <- "dial: " + err.Error()
			return
		}
		defer c.Close()
		if _, err := c.Write([]byte(request)); err != nil {
			lines <- "write: " + err.Error()
			return
		}
		br := bufio.NewReader(c)
		for {
			line, err := br.ReadString('\n')
			if err != nil {
				lines <- "read: " + err.Error()
				return
			}
			lines <- line
		}
	}()
}

func TestErrorReplyIsOneLine(t *testing.T) {
	pinPorts(t, 51680)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv := startServer(t, ctx)

	lines := make(chan string, 4)
	dialRaw(t, srv.Port(), "CAPTURE STD\n", lines)

	conn, err := srv.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	defer conn.Close()
	if err := conn.RespondError("no display\nattached"); err != nil {
		t.Fatalf("RespondError: %v", err)
	}

	// The reader stops at the newline while the resident still holds
	// the connection open, and embedded newlines flatten to spaces.
	if got := <-lines; got != "ERR no display attached\n" {
		t.Fatalf("error reply = %q, want single ERR line", got)
	}
}

func TestEmptySuccessCarriesBodyLine(t *testing.T) {
	pinPorts(t, 51690)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv := startServer(t, ctx)

	lines := make(chan string, 4)
	dialRaw(t, srv.Port(), "CAPTURE CLIP\n", lines)

	conn, err := srv.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	defer conn.Close()
	if err := conn.RespondSuccess(""); err != nil {
		t.Fatalf("RespondSuccess: %v", err)
	}

	if got := <-lines; got != "OK\n" {
		t.Fatalf("status line = %q, want OK", got)
	}
	if got := <-lines; got != "\n" {
		t.Fatalf("body line = %q, want empty line", got)
	}
}

func TestNoResident(t *testing.T) {
	pinPorts(t, 51660)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	delegated, text, err := NewClient().TryRunOnce(ctx, true)
	if err != nil {
		t.Fatalf("TryRunOnce: %v", err)
	}
	if delegated || text != "" {
		t.Fatalf("delegated=%v text=%q, want no delegation", delegated, text)
	}
}

func TestDetectResident(t *testing.T) {
	pinPorts(t, 51670)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv := startServer(t, ctx)

	port, found := DetectResidentPort(ctx)
	if !found {
		t.Fatal("resident not detected")
	}
	if port != srv.Port() {
		t.Fatalf("detected port %d, server on %d", port, srv.Port())
	}
}
