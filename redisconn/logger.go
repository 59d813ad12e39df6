package redisconn

import "log"

// LogKind tags the event passed to Logger.Report, matching the teacher's
// redisconn/logger.go enumeration.
type LogKind int

const (
	LogConnecting LogKind = iota
	LogConnected
	LogConnectFailed
	LogDisconnected
	LogContextClosed
)

// Logger is the pluggable reporting sink for connection lifecycle events.
// The default implementation logs through the standard library; callers
// wanting structured logging (slog, zap, ...) implement this interface
// themselves and pass it via Opts.Logger.
type Logger interface {
	Report(event LogKind, conn *Connection, v ...interface{})
}

type defaultLogger struct{}

func (defaultLogger) Report(event LogKind, conn *Connection, v ...interface{}) {
	switch event {
	case LogConnecting:
		log.Printf("redisconn: connecting to %s", conn.Addr())
	case LogConnected:
		log.Printf("redisconn: connected to %s (local %s, remote %s)", conn.Addr(), v[0], v[1])
	case LogConnectFailed:
		log.Printf("redisconn: connect to %s failed: %v", conn.Addr(), v[0])
	case LogDisconnected:
		log.Printf("redisconn: connection to %s broken: %v", conn.Addr(), v[0])
	case LogContextClosed:
		log.Printf("redisconn: connection to %s closed", conn.Addr())
	default:
		log.Printf("redisconn: %s event=%d %v", conn.Addr(), event, v)
	}
}
