/*
NAME
  config.go

DESCRIPTION
  config.go provides the Config type, holding the destination endpoint and
  runtime parameters for the srtpublish binary.

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

// Package config provides the Config type used by cmd/srtpublish.
package config

import "github.com/pkg/errors"

// Defaults for fields not otherwise specified.
const (
	DefaultPort     = 8890
	DefaultStreamID = "cam1"
	DefaultLogLevel = int8(0) // logging.Info
	DefaultLogPath  = "/var/log/srtpublish/srtpublish.log"
)

// Config holds the parameters needed to publish a live video stream over
// SRT. It is a small, flat struct of documented fields, not a generic
// key-value map.
type Config struct {
	// IP is the SRT ingest endpoint's address.
	IP string

	// Port is the SRT ingest endpoint's port.
	Port int

	// StreamID identifies this stream to the ingest endpoint; sent as the
	// SRT StreamID socket option prefixed with "publish:".
	StreamID string

	// InputPath is the path to the annex-B file read by the frame source.
	// An empty value means standard input.
	InputPath string

	// LogLevel is the minimum severity logged, per logging.Logger's scale.
	// cmd/srtpublish builds its logger at this level.
	LogLevel int8

	// LogPath is the file lumberjack rolls logs into.
	LogPath string
}

// Validate reports whether c holds a usable configuration.
func (c *Config) Validate() error {
	if c.IP == "" {
		return errors.New("config: IP must not be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return errors.Errorf("config: invalid port %d", c.Port)
	}
	if c.StreamID == "" {
		return errors.New("config: StreamID must not be empty")
	}
	return nil
}
