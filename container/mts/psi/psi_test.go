/*
NAME
  psi_test.go

DESCRIPTION
  See Readme.md

AUTHOR
  Saxon Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


package psi

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// standardPatBytes is the bit-exact PAT section (pointer field through
// program_map_PID) for a single program, single stream table.
var standardPatBytes = []byte{
	0x00, 0x00, 0xb0, 0x0d, 0x00, 0x01, 0xc1, 0x00, 0x00, 0x00, 0x01, 0xf0, 0x00,
}

// standardPmtBytes is the bit-exact PMT section for an H.264 video stream on
// PID 0x0100, with no program or elementary stream descriptors.
var standardPmtBytes = []byte{
	0x00, 0x02, 0xb0, 0x12, 0x00, 0x01, 0xc1, 0x00, 0x00,
	0xe1, 0x00, 0xf0, 0x00, 0x1b, 0xe1, 0x00, 0xf0, 0x00,
}

func TestNewPATPSIBytes(t *testing.T) {
	got := NewPATPSI().Bytes()
	want := AddCRC(standardPatBytes)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected PAT bytes (-want +got):\n%s", diff)
	}
}

func TestNewPMTPSIBytes(t *testing.T) {
	pmt := NewPMTPSI()
	sd := pmt.SyntaxSection.SpecificData.(*PMT)
	sd.StreamSpecificData.StreamType = 0x1b
	sd.StreamSpecificData.PID = 0x0100

	got := pmt.Bytes()
	want := AddCRC(standardPmtBytes)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected PMT bytes (-want +got):\n%s", diff)
	}
}

func TestPSIBytesPadded(t *testing.T) {
	got := AddPadding(NewPATPSI().Bytes())
	if len(got) != PacketSize {
		t.Fatalf("padded PAT length = %d, want %d", len(got), PacketSize)
	}
	for i := len(AddCRC(standardPatBytes)); i < PacketSize; i++ {
		if got[i] != 0xff {
			t.Fatalf("padding byte %d = %#x, want 0xff", i, got[i])
		}
	}
}
