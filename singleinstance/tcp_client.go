package singleinstance

import (
	"bufio"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

type tcpClient struct{}

func newTCPClient() Client { return &tcpClient{} }

func (c *tcpClient) TryRunOnce(ctx context.Context, outputToStdout bool) (bool, string, error) {
	deadline := 2 * time.Second
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 {
			deadline = d
		}
	}

	start, end := getPortRange()
	for port := start; port <= end; port++ {
		if !isResident(ctx, port) {
			continue
		}

		addr := net.JoinHostPort(residentHost, strconv.Itoa(port))
		conn, err := net.DialTimeout("tcp", addr, deadline)
		if err != nil {
			continue
		}
		text, err := delegate(conn, outputToStdout)
		conn.Close()
		return true, text, err
	}
	return false, "", nil
}

// delegate sends one capture request and parses the response. The
// capture waits on the resident's user, so reads carry no deadline.
func delegate(conn net.Conn, outputToStdout bool) (string, error) {
	w := bufio.NewWriter(conn)
	request := captureClipboard
	if outputToStdout {
		request = captureStdout
	}
	if _, err := w.WriteString(request); err != nil {
		return "", err
	}
	if err := w.Flush(); err != nil {
		return "", err
	}

	// Every reply terminates itself, so reads stop at newlines and
	// never wait for the resident to close the connection.
	br := bufio.NewReader(conn)
	status, err := br.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read response status: %w", err)
	}
	status = strings.TrimSuffix(status, "\n")
	switch {
	case status == statusOK:
		encoded, err := br.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("read response body: %w", err)
		}
		encoded = strings.TrimSuffix(encoded, "\n")
		if encoded == "" {
			return "", nil
		}
		raw, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return "", fmt.Errorf("decode response body: %w", err)
		}
		return string(raw), nil
	case status == statusCancelled:
		return "", ErrCancelled
	case strings.HasPrefix(status, statusError):
		msg := strings.TrimSpace(strings.TrimPrefix(status, statusError))
		return "", errors.New(msg)
	default:
		return "", fmt.Errorf("unexpected response status %q", status)
	}
}
