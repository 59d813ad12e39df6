package resp

import "fmt"

// ProtocolError is raised by the decoder on malformed framing: non-numeric
// length, missing trailing CRLF, a negative length other than -1, or an
// unknown header byte. It is never raised for a well-formed -ERR reply —
// that decodes to a Value of TypeError, not a ProtocolError.
type ProtocolError struct {
	Reason string
	Line   []byte
}

func (e *ProtocolError) Error() string {
	if len(e.Line) == 0 {
		return fmt.Sprintf("resp: protocol error: %s", e.Reason)
	}
	return fmt.Sprintf("resp: protocol error: %s (line %q)", e.Reason, e.Line)
}

func protoErr(reason string, line []byte) error {
	return &ProtocolError{Reason: reason, Line: line}
}
