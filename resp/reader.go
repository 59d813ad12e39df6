package resp

import (
	"bufio"
	"io"
)

// Decoder is a streaming RESP parser. It is resumable: Decode blocks on its
// underlying bufio.Reader until a whole Value is available, so feeding the
// stream in arbitrarily small chunks (one byte at a time, via a slow
// io.Reader) produces the same Values as feeding it all at once — the
// blocking primitives (bufio.Reader.ReadSlice / io.ReadFull) already do the
// buffering, so Decoder itself carries no chunk-assembly state between
// calls.
type Decoder struct {
	r *bufio.Reader
}

// DefaultBufferSize matches the teacher connector's socket buffer size.
const DefaultBufferSize = 128 * 1024

// NewDecoder wraps r in a buffered reader sized for typical pipelined
// traffic. If r is already a *bufio.Reader it is used as-is.
func NewDecoder(r io.Reader) *Decoder {
	if br, ok := r.(*bufio.Reader); ok {
		return &Decoder{r: br}
	}
	return &Decoder{r: bufio.NewReaderSize(r, DefaultBufferSize)}
}

// Decode reads and returns exactly one Value from the stream. On a short
// read it blocks (inside the underlying io.Reader) rather than returning a
// partial result. IO errors (including io.EOF once the peer closes) are
// returned unwrapped so the caller — typically redisconn's reader loop —
// can classify them as redis.ErrIO.
func (d *Decoder) Decode() (Value, error) {
	line, isPrefix, err := d.r.ReadLine()
	if err != nil {
		return Value{}, err
	}
	if isPrefix {
		return Value{}, protoErr("header line too large", nil)
	}
	if len(line) == 0 {
		return Value{}, protoErr("empty header line", nil)
	}

	switch line[0] {
	case '+':
		return SimpleString(string(line[1:])), nil
	case '-':
		return Err(string(line[1:])), nil
	case ':':
		n, err := parseInt(line[1:])
		if err != nil {
			return Value{}, protoErr("malformed integer", line)
		}
		return Integer(n), nil
	case '$':
		n, err := parseInt(line[1:])
		if err != nil {
			return Value{}, protoErr("malformed bulk length", line)
		}
		if n < -1 {
			return Value{}, protoErr("negative bulk length", line)
		}
		if n == -1 {
			return NullBulkString(), nil
		}
		buf := make([]byte, n+2)
		if _, err := io.ReadFull(d.r, buf); err != nil {
			return Value{}, err
		}
		if buf[n] != '\r' || buf[n+1] != '\n' {
			return Value{}, protoErr("bulk string missing trailing CRLF", nil)
		}
		return BulkString(buf[:n:n]), nil
	case '*':
		n, err := parseInt(line[1:])
		if err != nil {
			return Value{}, protoErr("malformed array length", line)
		}
		if n < -1 {
			return Value{}, protoErr("negative array length", line)
		}
		if n == -1 {
			return NullArray(), nil
		}
		elems := make([]Value, n)
		for i := int64(0); i < n; i++ {
			v, err := d.Decode()
			if err != nil {
				return Value{}, err
			}
			elems[i] = v
		}
		return Array(elems...), nil
	default:
		return Value{}, protoErr("unknown type byte", line)
	}
}

func parseInt(buf []byte) (int64, error) {
	if len(buf) == 0 {
		return 0, protoErr("empty integer", nil)
	}
	neg := buf[0] == '-'
	if neg {
		buf = buf[1:]
	}
	if len(buf) == 0 {
		return 0, protoErr("empty integer", nil)
	}
	var v int64
	for _, b := range buf {
		if b < '0' || b > '9' {
			return 0, protoErr("non-digit in integer", nil)
		}
		v = v*10 + int64(b-'0')
	}
	if neg {
		v = -v
	}
	return v, nil
}
