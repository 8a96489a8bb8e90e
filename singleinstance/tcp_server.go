package singleinstance

import (
	"bufio"
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"net"
	"strings"
	"sync"
	"time"
)

// Wire protocol, one line each. The hello exchange distinguishes a
// SnapOCR resident from whatever else may sit on a scanned port.
const (
	residentHost = "127.0.0.1"

	helloRequest  = "SNAPOCR?\n"
	helloResponse = "SNAPOCR!\n"

	captureStdout    = "CAPTURE STD\n"
	captureClipboard = "CAPTURE CLIP\n"

	statusOK        = "OK"
	statusCancelled = "CANCELLED"
	statusError     = "ERR"
)

type tcpServer struct {
	lis      net.Listener
	incoming chan *tcpConn
	port     int
	closed   sync.Once
}

func newTCPServer() Server { return &tcpServer{incoming: make(chan *tcpConn, 8)} }

// Start binds the first free port in the configured range. The hello
// handshake keeps a foreign service on an earlier port from shadowing
// the resident.
func (s *tcpServer) Start(ctx context.Context) error {
	if s.lis != nil {
		return nil
	}
	start, end := getPortRange()
	var lastErr error
	for port := start; port <= end; port++ {
		addr := fmt.Sprintf("%s:%d", residentHost, port)
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			lastErr = err
			continue
		}
		s.lis = lis
		s.port = port
		log.Printf("singleinstance: listening on %s", addr)
		go s.acceptLoop(ctx)
		return nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("empty port range")
	}
	return fmt.Errorf("bind resident port in [%d,%d]: %w", start, end, lastErr)
}

func (s *tcpServer) Port() int { return s.port }

func (s *tcpServer) acceptLoop(ctx context.Context) {
	for {
		c, err := s.lis.Accept()
		if err != nil {
			return
		}
		remote := c.RemoteAddr().String()
		_ = c.SetDeadline(time.Now().Add(3 * time.Second))
		br := bufio.NewReader(c)
		line, _ := br.ReadString('\n')
		bw := bufio.NewWriter(c)
		switch line {
		case helloRequest:
			log.Printf("singleinstance: hello from %s", remote)
			_, _ = bw.WriteString(helloResponse)
			_ = bw.Flush()
			_ = c.Close()
			continue
		case captureStdout, captureClipboard:
			// The capture waits on the resident's user; no deadline.
			_ = c.SetDeadline(time.Time{})
			stdout := line == captureStdout
			log.Printf("singleinstance: capture request from %s mode=%s",
				remote, map[bool]string{true: "STD", false: "CLIP"}[stdout])
			tc := &tcpConn{c: c, req: Request{OutputToStdout: stdout}, w: bw}
			select {
			case s.incoming <- tc:
			case <-ctx.Done():
				_ = c.Close()
				return
			}
		default:
			log.Printf("singleinstance: unknown request %q from %s", line, remote)
			_, _ = bw.WriteString(statusError + " unknown request\n")
			_ = bw.Flush()
			_ = c.Close()
		}
	}
}

func (s *tcpServer) Next(ctx context.Context) (Conn, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case tc, ok := <-s.incoming:
		if !ok {
			return nil, net.ErrClosed
		}
		return tc, nil
	}
}

func (s *tcpServer) Close() error {
	s.closed.Do(func() {
		if s.lis != nil {
			_ = s.lis.Close()
			s.lis = nil
		}
		close(s.incoming)
	})
	return nil
}

type tcpConn struct {
	c   net.Conn
	req Request
	w   *bufio.Writer
}

func (tc *tcpConn) Request() Request { return tc.req }

// RespondSuccess writes the OK status line and one base64 body line,
// empty when there is no text. The body line is always present so the
// reply terminates itself; the client never reads to connection close.
// Encoding keeps multi-line OCR text out of the line-based framing.
func (tc *tcpConn) RespondSuccess(text string) error {
	encoded := ""
	if len(text) > 0 {
		encoded = base64.StdEncoding.EncodeToString([]byte(text))
	}
	if _, err := tc.w.WriteString(statusOK + "\n" + encoded + "\n"); err != nil {
		return err
	}
	return tc.w.Flush()
}

func (tc *tcpConn) RespondCancelled() error {
	if _, err := tc.w.WriteString(statusCancelled + "\n"); err != nil {
		return err
	}
	return tc.w.Flush()
}

// RespondError carries the message on the ERR status line itself.
// Newlines in the message would break the framing, so they flatten to
// spaces.
func (tc *tcpConn) RespondError(msg string) error {
	msg = strings.ReplaceAll(msg, "\n", " ")
	if _, err := tc.w.WriteString(statusError + " " + msg + "\n"); err != nil {
		return err
	}
	return tc.w.Flush()
}

func (tc *tcpConn) Close() error { return tc.c.Close() }
