package singleinstance

import (
	"bufio"
	"context"
	"net"
	"strconv"
	"time"
)

// helloTimeout bounds one probe. A resident answers the hello exchange
// immediately; anything slower is not ours.
const helloTimeout = 300 * time.Millisecond

// DetectResidentPort scans the configured range for a listening resident
// and returns its port. Ports held by foreign services fail the hello
// exchange and are skipped.
func DetectResidentPort(ctx context.Context) (int, bool) {
	start, end := getPortRange()
	for port := start; port <= end; port++ {
		if ctx.Err() != nil {
			return 0, false
		}
		if isResident(ctx, port) {
			return port, true
		}
	}
	return 0, false
}

// isResident dials one loopback port and runs the hello exchange on it.
func isResident(ctx context.Context, port int) bool {
	timeout := helloTimeout
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d < timeout {
			timeout = d
		}
	}
	if timeout <= 0 {
		return false
	}
	addr := net.JoinHostPort(residentHost, strconv.Itoa(port))
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return false
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(timeout))
	if _, err := conn.Write([]byte(helloRequest)); err != nil {
		return false
	}
	resp, err := bufio.NewReader(conn).ReadString('\n')
	return err == nil && resp == helloResponse
}
