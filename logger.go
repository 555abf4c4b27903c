package main

import (
	"io"

	"github.com/rs/zerolog"
)

type logger struct {
	appLog    zerolog.Logger
	lookupLog zerolog.Logger
	updateLog zerolog.Logger
}

func (l *logger) LookupError(ip, name string, err error) {
	l.lookupLog.Error().Str("provider", name).Str("ip", ip).Err(err).Msg("")
}

func (l *logger) UpdateInfo(name, msg string) {
	l.updateLog.Info().Str("provider", name).Msg(msg)
}

func (l *logger) UpdateError(name string, err error) {
	l.updateLog.Error().Str("provider", name).Err(err).Msg("")
}

func (l *logger) App() *zerolog.Logger {
	return &l.appLog
}

func newLogger(writer io.Writer, debug bool) *logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	base := zerolog.New(writer).Level(level)

	return &logger{
		appLog:    base.With().Timestamp().Str("event_name", "app").Logger(),
		lookupLog: base.With().Timestamp().Stack().Str("event_name", "lookup").Logger(),
		updateLog: base.With().Timestamp().Stack().Str("event_name", "update").Logger(),
	}
}
