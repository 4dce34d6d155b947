/*
NAME
  transport.go

DESCRIPTION
  transport.go provides a resilient SRT (Secure Reliable Transport) sender
  with automatic reconnection and exponential backoff.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>
  Alan Noble <alan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package srt provides a reconnecting SRT caller-mode sender suitable for
// publishing a live MPEG-TS elementary stream to an SRT ingest endpoint.
package srt

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"syscall"
	"time"

	"github.com/datarhei/gosrt"
	pkgerrors "github.com/pkg/errors"

	"github.com/ausocean/utils/logging"
)

// Socket configuration, as required for stable publishing over an
// unreliable (e.g. maritime) network link.
const (
	latency           = 15 * time.Second
	connectionTimeout = 10 * time.Second
	flightWindow      = 32000
	sendBufferSize    = 50_000_000
	peerIdleTimeout   = 30 * time.Second
)

// Reconnection schedule.
const (
	maxReconnectAttempts = 10
	initialBackoff       = 1 * time.Second
	maxBackoff           = 16 * time.Second
)

// state describes the lifecycle of a Transport's connection.
type state int

const (
	disconnected state = iota
	connected
	reconnecting
)

func (s state) String() string {
	switch s {
	case disconnected:
		return "disconnected"
	case connected:
		return "connected"
	case reconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// Transport is a resilient SRT caller that sends datagrams to a fixed
// ingest endpoint, reconnecting with exponential backoff when the
// connection is lost. The zero value is not usable; construct with
// NewTransport.
type Transport struct {
	log logging.Logger

	ip       string
	port     int
	streamID string

	mu                sync.Mutex
	conn              net.Conn
	state             state
	reconnectAttempts int
	// dead is set once reconnectLoop exhausts maxReconnectAttempts without
	// success. While dead, startReconnect is a no-op and Send silently drops
	// datagrams; only a new Init call clears it and resumes reconnection.
	dead bool

	done chan struct{}
	wg   sync.WaitGroup

	// dial is the connection function used by connectLocked. It defaults to
	// dialSRT but is overridden in tests with a fake dial function that
	// doesn't require a real SRT peer, so the reconnect/backoff logic can be
	// exercised without any network endpoint.
	dial func(ip string, port int, streamID string) (net.Conn, error)
}

// NewTransport returns a new, unconnected Transport. Call Init to connect.
func NewTransport(log logging.Logger) *Transport {
	return &Transport{log: log, done: make(chan struct{}), dial: dialSRT}
}

// dialSRT opens a caller-mode SRT connection configured per the socket
// options required for stable publishing over an unreliable network link.
func dialSRT(ip string, port int, streamID string) (net.Conn, error) {
	cfg := gosrt.DefaultConfig()
	if streamID != "" {
		cfg.StreamId = "publish:" + streamID
	}
	cfg.Latency = latency
	cfg.ConnectionTimeout = connectionTimeout
	cfg.FC = flightWindow
	cfg.SendBufferSize = sendBufferSize
	cfg.PeerIdleTimeout = peerIdleTimeout

	addr := fmt.Sprintf("%s:%d", ip, port)
	conn, err := gosrt.Dial("srt", addr, cfg)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "srt dial failed")
	}
	return conn, nil
}

// Init stores the connection parameters and attempts an initial connection,
// reporting whether it succeeded. Init does not start the reconnect worker
// on failure; that begins on the first failed Send. Init also clears any
// prior reconnect exhaustion, so it is the only way to resume sending after
// reconnectLoop has given up.
func (t *Transport) Init(ip string, port int, streamID string) bool {
	t.ip = ip
	t.port = port
	t.streamID = streamID

	t.mu.Lock()
	defer t.mu.Unlock()
	t.dead = false
	t.reconnectAttempts = 0
	err := t.connectLocked()
	if err != nil {
		t.log.Warning("initial SRT connection failed", "error", err.Error())
		return false
	}
	return true
}

// connectLocked dials the SRT endpoint. The caller must hold t.mu.
func (t *Transport) connectLocked() error {
	t.log.Info("attempting SRT connection", "ip", t.ip, "port", t.port)

	conn, err := t.dial(t.ip, t.port, t.streamID)
	if err != nil {
		return err
	}

	t.conn = conn
	t.state = connected
	t.reconnectAttempts = 0
	t.dead = false
	t.log.Info("SRT connected", "ip", t.ip, "port", t.port)
	return nil
}

// Send writes data over the SRT connection. If the connection is down or
// the write fails with a connection-loss error, Send tears down the
// connection and starts the background reconnect worker (if it is not
// already running), then returns without blocking. A write error not
// classified as connection loss is logged and the datagram is simply
// dropped; the connection is left up. Once reconnectLoop has exhausted
// maxReconnectAttempts, Send is a silent no-op until a new Init call. Send
// never returns an error; failures are logged.
func (t *Transport) Send(data []byte) {
	t.mu.Lock()
	conn := t.conn
	st := t.state
	t.mu.Unlock()

	if st != connected || conn == nil {
		t.startReconnect()
		return
	}

	_, err := conn.Write(data)
	if err == nil {
		return
	}

	t.log.Warning("SRT send failed", "error", err.Error())
	if !isConnectionLost(err) {
		return
	}

	t.mu.Lock()
	t.closeConnLocked()
	t.mu.Unlock()
	t.startReconnect()
}

// isConnectionLost reports whether err indicates the SRT connection has
// been lost and a reconnect should be attempted, mirroring
// SrtTransport.cpp's send(), which only tears down the connection for
// SRT_ECONNLOST/SRT_ENOCONN/SRT_EINVSOCK; other srt_sendmsg errors are
// logged and the datagram is dropped while the connection stays up.
func isConnectionLost(err error) bool {
	if err == nil {
		return false
	}

	// A timeout or other temporary network condition does not mean the
	// socket is dead; the datagram is dropped but the connection stays up.
	var netErr net.Error
	if errors.As(err, &netErr) && (netErr.Timeout() || netErr.Temporary()) {
		return false
	}

	switch {
	case errors.Is(err, net.ErrClosed),
		errors.Is(err, io.ErrClosedPipe),
		errors.Is(err, io.EOF),
		errors.Is(err, syscall.EPIPE),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNABORTED),
		errors.Is(err, syscall.ENOTCONN):
		return true
	}

	// An OpError not covered above still indicates the socket itself failed
	// (as opposed to a transient write condition), so it is treated as
	// connection loss.
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// closeConnLocked closes and clears the current connection. The caller
// must hold t.mu.
func (t *Transport) closeConnLocked() {
	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
	}
	t.state = disconnected
}

// startReconnect launches the background reconnect worker if one is not
// already running. It is a no-op once a prior reconnectLoop has exhausted
// maxReconnectAttempts and marked the transport dead; only Init clears that.
func (t *Transport) startReconnect() {
	t.mu.Lock()
	if t.dead || t.state == reconnecting {
		t.mu.Unlock()
		return
	}
	t.state = reconnecting
	t.mu.Unlock()

	t.wg.Add(1)
	go t.reconnectLoop()
}

// reconnectLoop retries the connection with exponential backoff (1s, 2s,
// 4s, 8s, 16s, capped at 16s) up to maxReconnectAttempts times, or until
// done is closed by Release.
func (t *Transport) reconnectLoop() {
	defer t.wg.Done()

	backoff := initialBackoff
	for attempt := 1; attempt <= maxReconnectAttempts; attempt++ {
		t.mu.Lock()
		t.reconnectAttempts = attempt
		t.mu.Unlock()

		t.log.Warning("reconnection attempt", "attempt", attempt, "max", maxReconnectAttempts)

		select {
		case <-t.done:
			t.log.Info("reconnect worker stopped by release")
			return
		case <-time.After(backoff):
		}

		t.mu.Lock()
		err := t.connectLocked()
		t.mu.Unlock()
		if err == nil {
			t.log.Info("reconnection successful", "attempt", attempt)
			return
		}
		t.log.Warning("reconnection attempt failed", "attempt", attempt, "error", err.Error())

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}

	t.mu.Lock()
	if t.state != connected {
		t.state = disconnected
		t.dead = true
	}
	t.mu.Unlock()
	t.log.Error("failed to reconnect after maximum attempts, giving up until next init",
		"max", maxReconnectAttempts)
}

// Release closes the connection and stops any running reconnect worker,
// blocking until the worker has exited.
func (t *Transport) Release() {
	t.mu.Lock()
	running := t.state == reconnecting
	t.mu.Unlock()

	if running {
		close(t.done)
	}
	t.wg.Wait()

	t.mu.Lock()
	t.closeConnLocked()
	t.mu.Unlock()
}
