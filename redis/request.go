package redis

// Request is a single command invocation: a verb (possibly multi-word, e.g.
// "CLUSTER SLOTS") plus its already-encoded argument bulk strings, in the
// order they must appear on the wire (spec.md §4.1).
type Request struct {
	Cmd  string
	Args [][]byte
}

// Req builds a Request from already-encoded argument bytes. Command
// descriptors (Command.Run) build Args through an InputEncoder instead of
// calling Req directly; Req is the low-level constructor used by tests and
// by commands with no typed Input (PING, ASKING, CLUSTER SLOTS).
func Req(cmd string, args ...[]byte) Request {
	return Request{Cmd: cmd, Args: args}
}

// noKeyCommands are verbs that never carry a routable key argument, per the
// Open Question in spec.md §9: the cluster dispatcher must not attempt slot
// routing for these and instead uses its default/arbitrary executor.
var noKeyCommands = map[string]bool{
	"PING":          true,
	"ECHO":          true,
	"CLUSTER SLOTS": true,
	"CLUSTER NODES": true,
	"CLUSTER INFO":  true,
	"CLUSTER MYID":  true,
	"ASKING":        true,
	"AUTH":          true,
	"SELECT":        true,
	"SCAN":          true,
	"DBSIZE":        true,
	"INFO":          true,
	"TIME":          true,
	"COMMAND":       true,
	"RANDOMKEY":     true,
	"WAIT":          true,
	"FLUSHALL":      true,
	"FLUSHDB":       true,
}

// keyArgIndex special-cases commands whose first argument isn't the key, as
// the teacher's redis.Request.Key does for EVAL/EVALSHA/BITOP. EVAL and
// EVALSHA take "script numkeys key ...", so their first key is at index 2.
var keyArgIndex = map[string]int{
	"EVAL":     2,
	"EVALSHA":  2,
	"BITOP":    1,
	"OBJECT":   1,
	"XGROUP":   1,
	"XINFO":    1,
	"GEORADIUS_RO":           0,
	"GEORADIUSBYMEMBER_RO":   0,
}

// Key returns the argument that determines cluster slot routing for the
// request, and whether one exists at all. A command present in
// noKeyCommands always reports ok=false so the cluster executor routes it
// through its default executor instead of computing a slot.
func (r Request) Key() (key []byte, ok bool) {
	if noKeyCommands[r.Cmd] {
		return nil, false
	}
	idx := keyArgIndex[r.Cmd]
	if idx >= len(r.Args) {
		return nil, false
	}
	return r.Args[idx], true
}
