/*
NAME
  main.go

DESCRIPTION
  srtpublish is a program that reads an H.264 annex-B file and publishes it
  to an SRT ingest endpoint as MPEG-TS.

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

// srtpublish reads an H.264 annex-B bytestream and publishes it to an SRT
// ingest endpoint as MPEG-TS, reconnecting automatically on failure.
package main

import (
	"flag"
	"io"
	"os"

	"github.com/coreos/go-systemd/daemon"
	"github.com/pkg/errors"
	"github.com/ausocean/utils/logging"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/srtpublish"
	"github.com/ausocean/srtpublish/config"
	"github.com/ausocean/srtpublish/frame"
)

// Logging related constants.
const (
	logMaxSize   = 500 // MB
	logMaxBackup = 10
	logMaxAge    = 28 // days
	logSuppress  = true
)

// defaultFPS is the frame rate assumed for the demo file source in the
// absence of any better signal, used to space out synthetic presentation
// timestamps.
const defaultFPS = 25.0

func main() {
	ip := flag.String("ip", "", "SRT ingest endpoint IP address")
	port := flag.Int("port", config.DefaultPort, "SRT ingest endpoint port")
	streamID := flag.String("streamid", config.DefaultStreamID, "SRT stream ID")
	input := flag.String("input", "", "Path to H.264 annex-B file (default: stdin)")
	logPath := flag.String("logpath", config.DefaultLogPath, "Path to log file")
	fps := flag.Float64("fps", defaultFPS, "Assumed frame rate of the input file")
	flag.Parse()

	cfg := &config.Config{
		IP:        *ip,
		Port:      *port,
		StreamID:  *streamID,
		InputPath: *input,
		LogLevel:  config.DefaultLogLevel,
		LogPath:   *logPath,
	}

	fileLog := &lumberjack.Logger{
		Filename:   cfg.LogPath,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}
	log := logging.New(cfg.LogLevel, io.MultiWriter(fileLog, os.Stderr), logSuppress)

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", "error", err.Error())
	}

	src, err := openInput(cfg.InputPath)
	if err != nil {
		log.Fatal("could not open input", "error", err.Error())
	}
	defer src.Close()

	pub := srtpublish.NewPublisher(log)
	if !pub.Init(cfg.IP, cfg.Port, cfg.StreamID) {
		log.Warning("initial SRT connection failed, will retry in background")
	}
	defer pub.Release()

	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Debug("systemd notify failed (not running under systemd?)", "error", err.Error())
	}

	source := frame.NewSource(src, *fps)
	for {
		data, ptsNs, err := source.Next()
		if err == io.EOF {
			log.Info("input exhausted")
			return
		}
		if err != nil {
			log.Fatal("frame source error", "error", err.Error())
		}
		pub.SendFrame(data, ptsNs)
	}
}

// openInput opens path for reading, or wraps os.Stdin if path is empty.
func openInput(path string) (io.ReadCloser, error) {
	if path == "" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open %s", path)
	}
	return f, nil
}
