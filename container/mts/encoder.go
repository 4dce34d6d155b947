/*
NAME
  encoder.go

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


package mts

import (
	"github.com/ausocean/srtpublish/codec/h264"
	"github.com/ausocean/srtpublish/container/mts/pes"
	"github.com/ausocean/srtpublish/container/mts/psi"
	"github.com/ausocean/utils/logging"
)

// The program ID assigned to the (sole) video stream. The PSI table PIDs are
// PatPid and PmtPid.
const (
	PIDVideo = 0x0100
)

// pesStreamID is the PES stream_id for the video elementary stream.
// pmtStreamType is the stream_type advertised for that stream in the PMT
// (0x1B, H.264). These are two different values from two different tables;
// they must not be confused with one another.
const (
	pesStreamID   = 0xe0
	pmtStreamType = 0x1b
)

const (
	hasPayload         = 0x1
	hasAdaptationField = 0x2
)

const hasPTS = 0x2

// DatagramSize is the size of the buffer handed to the sink: 7 TS packets of
// 188 bytes each, the SRT live-mode MTU alignment.
const DatagramSize = 7 * PacketSize

// ptsDivisor converts nanoseconds to 90 kHz presentation timestamp units.
const ptsDivisor = 11111

// Sink is the callback an Encoder delivers TS datagrams to. Length is always
// a positive multiple of 188 and at most DatagramSize. The slice is only
// valid for the duration of the call; implementations must not retain it.
type Sink func([]byte)

// Encoder converts H.264 annex-B access units into an MPEG-TS elementary
// stream, delivering fixed-size datagrams to a Sink.
type Encoder struct {
	sink Sink
	log  logging.Logger

	continuity map[uint16]byte

	buf    [DatagramSize]byte
	bufOff int

	tsSpace  [PacketSize]byte
	pesSpace [pes.MaxPesSize]byte

	patBytes []byte
	pmtBytes []byte
}

// NewEncoder returns an Encoder that delivers TS datagrams to sink.
func NewEncoder(sink Sink, log logging.Logger) *Encoder {
	pmt := psi.NewPMTPSI()
	pmt.SyntaxSection.SpecificData.(*psi.PMT).StreamSpecificData.StreamType = pmtStreamType
	pmt.SyntaxSection.SpecificData.(*psi.PMT).StreamSpecificData.PID = PIDVideo

	e := &Encoder{
		sink:     sink,
		log:      log,
		patBytes: psi.NewPATPSI().Bytes(),
		pmtBytes: pmt.Bytes(),
	}
	e.Reset()
	return e
}

// Reset zeroes all continuity counters and the datagram buffer offset.
func (e *Encoder) Reset() {
	e.continuity = map[uint16]byte{PatPid: 0, PmtPid: 0, PIDVideo: 0}
	e.bufOff = 0
}

// Encode emits one access unit (data, with presentation timestamp pts_ns) as
// a sequence of TS packets, preceded by a PAT/PMT pair. Encode never fails:
// malformed input simply yields a non-keyframe access unit.
func (e *Encoder) Encode(data []byte, ptsNs uint64) {
	e.log.Debug("encoding access unit", "len(data)", len(data), "pts_ns", ptsNs)

	e.writePSI()

	keyframe := h264.ContainsKeyframe(data)
	pts := ptsNs / ptsDivisor

	pesPkt := pes.Packet{
		StreamID:     pesStreamID,
		PDI:          hasPTS,
		PTS:          pts,
		Data:         data,
		HeaderLength: 5,
	}
	buf := pesPkt.Bytes(e.pesSpace[:0])

	pusi := true
	for len(buf) != 0 {
		pkt := Packet{
			PUSI: pusi,
			PID:  PIDVideo,
			RAI:  pusi && keyframe,
			CC:   e.ccFor(PIDVideo),
			AFC:  hasAdaptationField | hasPayload,
			PCRF: pusi,
		}
		n := pkt.FillPayload(buf)
		buf = buf[n:]

		if pusi {
			pkt.PCR = pts
			e.log.Debug("new access unit", "PCR", pkt.PCR, "PTS", pts, "keyframe", keyframe)
			pusi = false
		}

		e.bufferPacket(pkt.Bytes(e.tsSpace[:0]))
	}
}

// writePSI writes a PAT packet then a PMT packet into the datagram buffer,
// then force-flushes so the receiver sees PSI promptly.
func (e *Encoder) writePSI() {
	pat := Packet{
		PUSI:    true,
		PID:     PatPid,
		CC:      e.ccFor(PatPid),
		AFC:     hasPayload,
		Payload: psi.AddPadding(e.patBytes),
	}
	e.bufferPacket(pat.Bytes(e.tsSpace[:0]))

	pmt := Packet{
		PUSI:    true,
		PID:     PmtPid,
		CC:      e.ccFor(PmtPid),
		AFC:     hasPayload,
		Payload: psi.AddPadding(e.pmtBytes),
	}
	e.bufferPacket(pmt.Bytes(e.tsSpace[:0]))

	e.flush()
}

// bufferPacket appends one 188-byte TS packet to the datagram buffer,
// flushing to the sink whenever the buffer fills.
func (e *Encoder) bufferPacket(pkt []byte) {
	copy(e.buf[e.bufOff:], pkt)
	e.bufOff += PacketSize
	if e.bufOff == DatagramSize {
		e.flush()
	}
}

// flush hands any buffered packets to the sink and resets the buffer offset.
// It is a no-op if the buffer is empty.
func (e *Encoder) flush() {
	if e.bufOff == 0 {
		return
	}
	e.log.Debug("flushing datagram", "size", e.bufOff)
	e.sink(e.buf[:e.bufOff])
	e.bufOff = 0
}

// ccFor returns the next continuity counter for pid, advancing it mod 16.
func (e *Encoder) ccFor(pid uint16) byte {
	cc := e.continuity[pid]
	const continuityCounterMask = 0xf
	e.continuity[pid] = (cc + 1) & continuityCounterMask
	return cc
}
