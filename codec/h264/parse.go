/*
DESCRIPTION
  parse.go provides H.264 NAL unit parsing utilities for the extraction of
	syntax elements.

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


package h264

import "errors"

// NAL unit type codes relevant to this package, as per ITU-T Rec. H.264,
// table 7-1.
const (
	NALTypeNonIDR              = 1
	NALTypeSPS                 = 7
	NALTypePPS                 = 8
	NALTypeIDR                 = 5
	NALTypeAccessUnitDelimiter = 9
)

var errNotEnoughBytes = errors.New("not enough bytes to read")

// NALType returns the NAL type of the first NAL unit found in the given
// bytes. The given bytes must be in byte stream (annex-B) format: NAL units
// are only found after a start code.
// NB: access unit delimiters are skipped.
func NALType(n []byte) (int, error) {
	sc := frameScanner{buf: n}
	for {
		b, ok := sc.readByte()
		if !ok {
			return 0, errNotEnoughBytes
		}
		for i := 1; b == 0x00 && i != 4; i++ {
			b, ok = sc.readByte()
			if !ok {
				return 0, errNotEnoughBytes
			}
			if b != 0x01 || (i != 2 && i != 3) {
				continue
			}

			b, ok = sc.readByte()
			if !ok {
				return 0, errNotEnoughBytes
			}
			nalType := int(b & 0x1f)
			if nalType != NALTypeAccessUnitDelimiter {
				return nalType, nil
			}
		}
	}
}

// ContainsKeyframe reports whether any NAL unit in the access unit n is an
// IDR slice (type 5). Unlike NALType, it scans the whole buffer rather than
// stopping at the first NAL unit, so it correctly detects an IDR that is
// preceded by SPS/PPS NAL units in the same access unit. A buffer with no
// start codes, or one too short to contain one, is reported as not
// containing a keyframe.
func ContainsKeyframe(n []byte) bool {
	sc := frameScanner{buf: n}
	for {
		b, ok := sc.readByte()
		if !ok {
			return false
		}
		for i := 1; b == 0x00 && i != 4; i++ {
			b, ok = sc.readByte()
			if !ok {
				return false
			}
			if b != 0x01 || (i != 2 && i != 3) {
				continue
			}

			b, ok = sc.readByte()
			if !ok {
				return false
			}
			if int(b&0x1f) == NALTypeIDR {
				return true
			}
		}
	}
}

type frameScanner struct {
	off int
	buf []byte
}

func (s *frameScanner) readByte() (b byte, ok bool) {
	if s.off >= len(s.buf) {
		return 0, false
	}
	b = s.buf[s.off]
	s.off++
	return b, true
}
