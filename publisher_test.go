/*
NAME
  publisher_test.go

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

package srtpublish

import (
	"testing"

	"github.com/ausocean/utils/logging"
)

// TestSendFrameBeforeInitDoesNotPanic checks that SendFrame on an
// uninitialized Publisher triggers the transport's reconnect path rather
// than panicking, exercising the sink/Release interaction described in
// SPEC_FULL.md's supplemented observability feature.
func TestSendFrameBeforeInitDoesNotPanic(t *testing.T) {
	p := NewPublisher((*logging.TestLogger)(t))
	defer p.Release()

	p.SendFrame([]byte{0x00, 0x00, 0x00, 0x01, 0x65, 0xaa}, 0)
}

// TestReleaseStopsSink checks that once Release has been called, the sink
// no longer forwards to the transport (it just logs and returns).
func TestReleaseStopsSink(t *testing.T) {
	p := NewPublisher((*logging.TestLogger)(t))
	p.Release()

	// Calling sink directly after Release must not panic or block.
	p.sink([]byte{0x47, 0x00, 0x00, 0x00})
}
