/*
NAME
  frame.go

DESCRIPTION
  frame.go provides a minimal H.264 annex-B access unit source, reading
  access units from a file or reader and assigning them presentation
  timestamps at a fixed frame rate. It stands in for the camera/encoder
  collaborator that would otherwise supply access units in a real
  deployment.

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

// Package frame provides a file-backed H.264 annex-B access unit source.
package frame

import (
	"io"
	"time"

	"github.com/ausocean/srtpublish/codec/h264"
)

// Source reads an annex-B bytestream and splits it into access units using
// h264.Lex, assigning each a presentation timestamp computed from a fixed
// frame rate.
type Source struct {
	au     chan []byte
	lexErr chan error
	pts    uint64
	period uint64 // nanoseconds per frame
}

// NewSource returns a Source that reads annex-B data from r, splitting it
// into access units and stamping each with successive presentation
// timestamps 1/fps seconds apart. The read and split happen in a background
// goroutine; call Next to retrieve access units in order.
func NewSource(r io.Reader, fps float64) *Source {
	s := &Source{
		au:     make(chan []byte, 4),
		lexErr: make(chan error, 1),
		period: uint64(float64(time.Second) / fps),
	}
	go func() {
		defer close(s.au)
		err := h264.Lex(auWriter{s.au}, r, 0)
		s.lexErr <- err
	}()
	return s
}

// auWriter adapts a channel of access units to an io.Writer, satisfying
// h264.Lex's destination parameter. Each Write is one complete access unit.
type auWriter struct {
	c chan<- []byte
}

func (w auWriter) Write(p []byte) (int, error) {
	cpy := make([]byte, len(p))
	copy(cpy, p)
	w.c <- cpy
	return len(p), nil
}

// Next returns the next access unit and its presentation timestamp in
// nanoseconds. It returns io.EOF once the underlying reader is exhausted.
func (s *Source) Next() (data []byte, ptsNs uint64, err error) {
	au, ok := <-s.au
	if !ok {
		lexErr := <-s.lexErr
		// A finite file ends mid-access-unit from Lex's perspective, since
		// the last access unit is only flushed once a further start code is
		// seen; io.ErrUnexpectedEOF is therefore the ordinary end of a
		// non-continuous source, not a real error.
		if lexErr == io.EOF || lexErr == io.ErrUnexpectedEOF || lexErr == nil {
			return nil, 0, io.EOF
		}
		return nil, 0, lexErr
	}
	pts := s.pts
	s.pts += s.period
	return au, pts, nil
}
