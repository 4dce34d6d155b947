/*
NAME
  publisher.go

DESCRIPTION
  publisher.go provides the Publisher type, which composes an MPEG-TS
  encoder with a resilient SRT transport to publish a live H.264 stream.

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

// Package srtpublish provides a live H.264-over-SRT video publishing
// pipeline: access units in, MPEG-TS datagrams out over a reconnecting SRT
// connection.
package srtpublish

import (
	"sync/atomic"

	"github.com/ausocean/srtpublish/container/mts"
	"github.com/ausocean/srtpublish/srt"
	"github.com/ausocean/utils/logging"
)

// Publisher composes an mts.Encoder and an srt.Transport, mirroring the
// original native implementation's init/send/release lifecycle.
type Publisher struct {
	log       logging.Logger
	transport *srt.Transport
	encoder   *mts.Encoder
	released  atomic.Bool
}

// NewPublisher returns a new, unconnected Publisher. Call Init to connect.
func NewPublisher(log logging.Logger) *Publisher {
	p := &Publisher{log: log}
	p.transport = srt.NewTransport(log)
	p.encoder = mts.NewEncoder(p.sink, log)
	return p
}

// Init connects the underlying SRT transport to ip:port, identifying this
// stream with streamID. It reports whether the connection succeeded.
func (p *Publisher) Init(ip string, port int, streamID string) bool {
	return p.transport.Init(ip, port, streamID)
}

// SendFrame encodes one access unit (data, with presentation timestamp
// ptsNs) and transmits the resulting MPEG-TS datagrams. SendFrame never
// blocks on a lost connection: the underlying transport buffers the
// reconnect in the background.
func (p *Publisher) SendFrame(data []byte, ptsNs uint64) {
	p.encoder.Encode(data, ptsNs)
}

// sink is the mts.Encoder's Sink, forwarding each datagram to the SRT
// transport.
func (p *Publisher) sink(datagram []byte) {
	if p.released.Load() {
		p.log.Error("sink invoked after release", "size", len(datagram))
		return
	}
	p.log.Debug("sending datagram via SRT", "size", len(datagram))
	p.transport.Send(datagram)
}

// Release stops the reconnect worker and closes the SRT connection.
func (p *Publisher) Release() {
	p.released.Store(true)
	p.transport.Release()
}
