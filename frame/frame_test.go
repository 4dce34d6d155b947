/*
NAME
  frame_test.go

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package frame

import (
	"bytes"
	"io"
	"testing"
)

// annexBStream builds a minimal annex-B bytestream containing an SPS, a
// PPS, an IDR slice and a trailing non-IDR slice. Lex only flushes an
// access unit once it sees a further start code, so a trailing NAL unit is
// needed to force the IDR's access unit (SPS+PPS precede it) out before
// EOF; the final non-IDR NAL is never flushed, mirroring Lex's
// continuous-stream design.
func annexBStream() []byte {
	var buf bytes.Buffer
	buf.Write([]byte{0x00, 0x00, 0x00, 0x01, 0x67, 0x01}) // SPS
	buf.Write([]byte{0x00, 0x00, 0x00, 0x01, 0x68, 0x02}) // PPS
	buf.Write([]byte{0x00, 0x00, 0x00, 0x01, 0x65, 0x03}) // IDR
	buf.Write([]byte{0x00, 0x00, 0x00, 0x01, 0x61, 0x04}) // non-IDR
	return buf.Bytes()
}

// TestSourceNextAssignsIncreasingPTS checks that successive access units
// are assigned strictly increasing presentation timestamps.
func TestSourceNextAssignsIncreasingPTS(t *testing.T) {
	s := NewSource(bytes.NewReader(annexBStream()), 25.0)

	var lastPTS uint64
	var count int
	for {
		_, pts, err := s.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if count > 0 && pts <= lastPTS {
			t.Errorf("pts did not increase: got %d after %d", pts, lastPTS)
		}
		lastPTS = pts
		count++
	}
	if count == 0 {
		t.Fatalf("expected at least one access unit, got none")
	}
}

// TestSourceEOF checks that Next reports io.EOF once the stream is
// exhausted.
func TestSourceEOF(t *testing.T) {
	s := NewSource(bytes.NewReader(annexBStream()), 25.0)
	for {
		_, _, err := s.Next()
		if err == io.EOF {
			return
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
	}
}
