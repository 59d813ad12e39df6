package resp

import "strconv"

// Encode appends the canonical wire encoding of v to buf and returns the
// extended buffer. Encoding is a pure function of v: the same Value always
// produces the same bytes.
func Encode(buf []byte, v Value) []byte {
	switch v.Type {
	case TypeSimpleString:
		buf = append(buf, '+')
		buf = append(buf, v.Str...)
		return appendCRLF(buf)
	case TypeError:
		buf = append(buf, '-')
		buf = append(buf, v.Str...)
		return appendCRLF(buf)
	case TypeInteger:
		buf = append(buf, ':')
		buf = appendInt(buf, v.Int)
		return appendCRLF(buf)
	case TypeBulkString:
		buf = append(buf, '$')
		buf = appendInt(buf, int64(len(v.Bulk)))
		buf = appendCRLF(buf)
		buf = append(buf, v.Bulk...)
		return appendCRLF(buf)
	case TypeNullBulkString:
		return append(buf, '$', '-', '1', '\r', '\n')
	case TypeArray:
		buf = append(buf, '*')
		buf = appendInt(buf, int64(len(v.Array)))
		buf = appendCRLF(buf)
		for _, elem := range v.Array {
			buf = Encode(buf, elem)
		}
		return buf
	case TypeNullArray:
		return append(buf, '*', '-', '1', '\r', '\n')
	default:
		panic("resp: unknown Value.Type " + strconv.Itoa(int(v.Type)))
	}
}

// EncodeCommand appends a command invocation — an Array of BulkStrings,
// verb first — as specified by spec.md §4.1. Multi-word verbs (e.g.
// "CLUSTER SLOTS") are passed as a single string here and EncodeCommand
// splits them on spaces into separate bulk strings, matching the rule
// that command names containing whitespace are encoded as separate bulk
// strings.
func EncodeCommand(buf []byte, verb string, args [][]byte) []byte {
	tokens := splitVerb(verb)
	buf = append(buf, '*')
	buf = appendInt(buf, int64(len(tokens)+len(args)))
	buf = appendCRLF(buf)
	for _, tok := range tokens {
		buf = Encode(buf, BulkStringFrom(tok))
	}
	for _, a := range args {
		buf = Encode(buf, BulkString(a))
	}
	return buf
}

func splitVerb(verb string) []string {
	tokens := make([]string, 0, 2)
	start := 0
	for i := 0; i < len(verb); i++ {
		if verb[i] == ' ' {
			if i > start {
				tokens = append(tokens, verb[start:i])
			}
			start = i + 1
		}
	}
	if start < len(verb) {
		tokens = append(tokens, verb[start:])
	}
	return tokens
}

func appendCRLF(b []byte) []byte {
	return append(b, '\r', '\n')
}

func appendInt(b []byte, i int64) []byte {
	if i == 0 {
		return append(b, '0')
	}
	var tmp [20]byte
	neg := i < 0
	u := uint64(i)
	if neg {
		u = uint64(-i)
	}
	pos := len(tmp)
	for u > 0 {
		pos--
		tmp[pos] = byte(u%10) + '0'
		u /= 10
	}
	if neg {
		b = append(b, '-')
	}
	return append(b, tmp[pos:]...)
}
