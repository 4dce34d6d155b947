/*
NAME
  mpegts_test.go

AUTHOR
  Saxon A. Nelson-Milton <saxon.milton@gmail.com>
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package mts

import (
	"bytes"
	"testing"
)

// TestBytes checks that Packet.Bytes produces a sync byte prefixed 188-byte
// packet with the expected header fields and stuffing for a short payload.
func TestBytes(t *testing.T) {
	p := Packet{
		PUSI:    true,
		PID:     PIDVideo,
		CC:      3,
		AFC:     hasAdaptationField | hasPayload,
		RAI:     true,
		PCRF:    true,
		PCR:     123456,
		Payload: []byte{0x01, 0x02, 0x03},
	}

	got := p.Bytes(nil)

	if len(got) != PacketSize {
		t.Fatalf("len(got) = %d, want %d", len(got), PacketSize)
	}
	if got[0] != 0x47 {
		t.Errorf("sync byte = %#x, want 0x47", got[0])
	}
	if got[1]&0x40 == 0 {
		t.Errorf("PUSI bit not set")
	}
	gotPID := uint16(got[1]&0x1f)<<8 | uint16(got[2])
	if gotPID != PIDVideo {
		t.Errorf("PID = %d, want %d", gotPID, PIDVideo)
	}
	if got[3]&0x0f != 3 {
		t.Errorf("CC = %d, want 3", got[3]&0x0f)
	}
	if afc := (got[3] & 0x30) >> 4; afc != 0x3 {
		t.Errorf("AFC = %#x, want 0x3", afc)
	}
	if got[5]&0x40 == 0 {
		t.Errorf("RAI bit not set")
	}
	// Trailing bytes of the packet must be the payload we supplied.
	if !bytes.Equal(got[len(got)-3:], []byte{0x01, 0x02, 0x03}) {
		t.Errorf("payload tail = %v, want [1 2 3]", got[len(got)-3:])
	}
}

// TestBytesNoAdaptationField checks the payload-only path (AFC = payload
// only, no adaptation field octet).
func TestBytesNoAdaptationField(t *testing.T) {
	payload := bytes.Repeat([]byte{0xaa}, PacketSize-4)
	p := Packet{
		PID:     PIDVideo,
		CC:      7,
		AFC:     hasPayload,
		Payload: payload,
	}
	got := p.Bytes(nil)
	if len(got) != PacketSize {
		t.Fatalf("len(got) = %d, want %d", len(got), PacketSize)
	}
	if !bytes.Equal(got[4:], payload) {
		t.Errorf("payload not placed directly after 4-byte header")
	}
}

func buildTestPackets(pids []uint16) []byte {
	var out []byte
	for i, pid := range pids {
		p := Packet{
			PUSI:    true,
			PID:     pid,
			CC:      byte(i),
			AFC:     hasPayload,
			Payload: bytes.Repeat([]byte{byte(i)}, PacketSize-4),
		}
		out = append(out, p.Bytes(nil)...)
	}
	return out
}

// TestFindPid checks that FindPid locates the first packet with the given
// PID and reports its byte offset.
func TestFindPid(t *testing.T) {
	d := buildTestPackets([]uint16{PatPid, PmtPid, PIDVideo, PIDVideo})

	pkt, i, err := FindPid(d, PIDVideo)
	if err != nil {
		t.Fatalf("FindPid: %v", err)
	}
	if i != 2*PacketSize {
		t.Errorf("index = %d, want %d", i, 2*PacketSize)
	}
	gotPID, err := PID(pkt)
	if err != nil || gotPID != PIDVideo {
		t.Errorf("PID of found packet = %d, err = %v, want %d", gotPID, err, PIDVideo)
	}
}

// TestFindPidNotFound checks that FindPid returns an error when no packet
// with the given PID exists.
func TestFindPidNotFound(t *testing.T) {
	d := buildTestPackets([]uint16{PatPid, PmtPid})
	_, i, err := FindPid(d, PIDVideo)
	if err == nil {
		t.Fatalf("expected error, got none (index %d)", i)
	}
}

// TestLastPid checks that LastPid finds the last, not the first, matching
// packet.
func TestLastPid(t *testing.T) {
	d := buildTestPackets([]uint16{PIDVideo, PatPid, PIDVideo, PmtPid})

	_, i, err := LastPid(d, PIDVideo)
	if err != nil {
		t.Fatalf("LastPid: %v", err)
	}
	if i != 2*PacketSize {
		t.Errorf("index = %d, want %d", i, 2*PacketSize)
	}
}

// TestGetPTS checks that GetPTS decodes a PTS-only PES header embedded in a
// PUSI packet, using a PTS of 270000 (3 s at 90 kHz). The encoder's own
// pts_ns to PTS conversion is covered by TestPTSEncodingRoundTrip.
func TestGetPTS(t *testing.T) {
	const wantPTS = 270000

	pesHeader := []byte{
		0x00, 0x00, 0x01, // packet_start_code_prefix
		0xe0,       // stream_id
		0x00, 0x00, // PES_packet_length (unused by GetPTS)
		0x80, // marker bits, flags
		0x80, // PTS_DTS_indicator = 10
		0x05, // PES_header_data_length
	}
	ptsBytes := encodePTS(wantPTS)
	pes := append(append([]byte{}, pesHeader...), ptsBytes...)
	// Elementary stream payload, filling the packet: a payload-only packet
	// carries a full PacketSize-HeadSize bytes of payload.
	pes = append(pes, bytes.Repeat([]byte{0xde}, PacketSize-HeadSize-len(pes))...)

	p := Packet{
		PUSI:    true,
		PID:     PIDVideo,
		AFC:     hasPayload,
		Payload: pes,
	}
	pkt := p.Bytes(nil)

	got, err := GetPTS(pkt)
	if err != nil {
		t.Fatalf("GetPTS: %v", err)
	}
	if got != wantPTS {
		t.Errorf("GetPTS = %d, want %d", got, wantPTS)
	}
}

// encodePTS encodes pts (90kHz units) into the 5-byte PTS-only field per the
// '0010' prefix convention used by PES headers.
func encodePTS(pts int64) []byte {
	b := make([]byte, 5)
	b[0] = byte(0x2<<4 | ((pts>>30)&0x07)<<1 | 1)
	b[1] = byte((pts >> 22) & 0xff)
	b[2] = byte((pts>>15)&0x7f)<<1 | 1
	b[3] = byte((pts >> 7) & 0xff)
	b[4] = byte(pts&0x7f)<<1 | 1
	return b
}

// TestGetPTSNoPUSI checks that GetPTS reports an error when the packet has
// no PES payload (PUSI unset).
func TestGetPTSNoPUSI(t *testing.T) {
	p := Packet{PID: PIDVideo, AFC: hasPayload, Payload: bytes.Repeat([]byte{0}, PacketSize-4)}
	pkt := p.Bytes(nil)
	_, err := GetPTS(pkt)
	if err == nil {
		t.Errorf("expected error for packet without PUSI, got none")
	}
}
