package logger

import (
	"time"

	"github.com/rs/zerolog"
)

// LogEventAdapter adapts a zerolog event to LogEvent.
type LogEventAdapter struct {
	event  *zerolog.Event
	filter *SensitiveDataFilter
}

func (l *ZeroLogger) newEvent(e *zerolog.Event) LogEvent {
	return &LogEventAdapter{event: e, filter: l.filter}
}

// Debug creates a debug-level event
func (l *ZeroLogger) Debug() LogEvent { return l.newEvent(l.zlog.Debug()) }

// Info creates an info-level event
func (l *ZeroLogger) Info() LogEvent { return l.newEvent(l.zlog.Info()) }

// Warn creates a warn-level event
func (l *ZeroLogger) Warn() LogEvent { return l.newEvent(l.zlog.Warn()) }

// Error creates an error-level event
func (l *ZeroLogger) Error() LogEvent { return l.newEvent(l.zlog.Error()) }

// Msg writes the event
func (lea *LogEventAdapter) Msg(msg string) {
	lea.event.Msg(msg)
}

// Msgf writes the event with a formatted message
func (lea *LogEventAdapter) Msgf(format string, args ...any) {
	lea.event.Msgf(format, args...)
}

// Err adds an error field
func (lea *LogEventAdapter) Err(err error) LogEvent {
	lea.event = lea.event.Err(err)
	return lea
}

// Str adds a string field, masking it when the key is sensitive
func (lea *LogEventAdapter) Str(key, value string) LogEvent {
	if lea.filter != nil {
		value = lea.filter.FilterString(key, value)
	}
	lea.event = lea.event.Str(key, value)
	return lea
}

// Int adds an int field
func (lea *LogEventAdapter) Int(key string, value int) LogEvent {
	lea.event = lea.event.Int(key, value)
	return lea
}

// Int64 adds an int64 field
func (lea *LogEventAdapter) Int64(key string, value int64) LogEvent {
	lea.event = lea.event.Int64(key, value)
	return lea
}

// Bool adds a bool field
func (lea *LogEventAdapter) Bool(key string, value bool) LogEvent {
	lea.event = lea.event.Bool(key, value)
	return lea
}

// Dur adds a duration field
func (lea *LogEventAdapter) Dur(key string, d time.Duration) LogEvent {
	lea.event = lea.event.Dur(key, d)
	return lea
}

// Interface adds an arbitrary field, masking sensitive keys inside maps
func (lea *LogEventAdapter) Interface(key string, i any) LogEvent {
	if lea.filter != nil {
		i = lea.filter.FilterValue(key, i)
	}
	lea.event = lea.event.Interface(key, i)
	return lea
}

// Bytes adds a byte slice field
func (lea *LogEventAdapter) Bytes(key string, val []byte) LogEvent {
	lea.event = lea.event.Bytes(key, val)
	return lea
}
