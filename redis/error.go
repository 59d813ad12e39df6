package redis

import (
	"strconv"
	"strings"

	"github.com/joomcode/errorx"
)

// Namespace is the root errorx namespace for every error this module
// returns. Using errorx (already a direct dependency of the teacher
// connector, see redisconn/error.go and rediscluster/error.go) gives callers
// errorx.IsOfType classification instead of ad-hoc sentinel comparisons.
var Namespace = errorx.NewNamespace("redis")

var (
	// ErrProtocol is raised when a reply's framing or shape doesn't match
	// what the decoder or an Output decoder expects. Not retried.
	ErrProtocol = Namespace.NewType("protocol")
	// ErrWrongType is raised for a server -WRONGTYPE reply. Not retried.
	ErrWrongType = Namespace.NewType("wrong_type")
	// ErrCodec is raised when a typed payload fails Codec.Decode.
	ErrCodec = Namespace.NewType("codec")
	// ErrMoved is raised for a server -MOVED reply. Intercepted by the
	// cluster executor and not surfaced to the caller unless retries are
	// exhausted.
	ErrMoved = Namespace.NewType("moved")
	// ErrAsk is raised for a server -ASK reply; same interception rule
	// as ErrMoved.
	ErrAsk = Namespace.NewType("ask")
	// ErrLoading is raised for a server -LOADING reply.
	ErrLoading = Namespace.NewType("loading", errorx.Temporary())
	// ErrBusyGroup is raised for a server -BUSYGROUP reply.
	ErrBusyGroup = Namespace.NewType("busygroup")
	// ErrNoGroup is raised for a server -NOGROUP reply.
	ErrNoGroup = Namespace.NewType("nogroup")
	// ErrNoScript is raised for a server -NOSCRIPT reply.
	ErrNoScript = Namespace.NewType("noscript")
	// ErrBusy is raised for a server -BUSY reply.
	ErrBusy = Namespace.NewType("busy")
	// ErrNotBusy is raised for a server -NOTBUSY reply.
	ErrNotBusy = Namespace.NewType("notbusy")
	// ErrResult is the catch-all for a server error reply whose
	// classifier token isn't one of the above (e.g. plain -ERR).
	ErrResult = Namespace.NewType("result")
	// ErrIO is raised on socket failure. Retried by the connection's
	// reconnect loop and, for cluster dispatch, by the cluster
	// executor's retry policy.
	ErrIO = Namespace.NewType("io", errorx.Temporary())
	// ErrTimeout is a caller-imposed timeout: ExecuteSync and
	// ExecuteManySync raise it when ctx is done, whether by deadline or by
	// cancellation.
	ErrTimeout = Namespace.NewType("timeout", errorx.Timeout())
	// ErrOpts is raised for invalid configuration passed to Connect or
	// NewCluster.
	ErrOpts = Namespace.NewType("opts")
	// ErrContext is raised once a Connection's or Cluster's lifetime
	// scope has been explicitly closed.
	ErrContext = Namespace.NewType("context")
	// ErrConnection is raised when a request is made against a
	// connection that isn't currently connected.
	ErrConnection = Namespace.NewType("connection")
	// ErrRequest classifies a malformed request. No code path in this
	// module raises it: an argument encoding failure is a CodecError and a
	// cancellation is ErrTimeout.
	ErrRequest = Namespace.NewType("request")
	// ErrClusterConfig is raised when the cluster topology is unknown or
	// empty for a requested slot.
	ErrClusterConfig = Namespace.NewType("cluster_config")
	// ErrClusterConnection is raised when no connection-executor is
	// available for a cluster node.
	ErrClusterConnection = Namespace.NewType("cluster_connection")
	// ErrClusterKey classifies a command with no usable key argument for
	// slot routing. Cluster dispatch does not raise it: a request whose Key
	// reports none, whether key-less by design or missing its key argument,
	// is sent to an arbitrary node.
	ErrClusterKey = Namespace.NewType("cluster_key")
)

// Property keys attached to *errorx.Error values via WithProperty.
var (
	EKAddress = errorx.RegisterProperty("address")
	EKSlot    = errorx.RegisterProperty("slot")
	EKCommand = errorx.RegisterProperty("command")
	EKLine    = errorx.RegisterProperty("line")
	EKValue   = errorx.RegisterProperty("value")
)

// Retryable reports whether err is one the cluster executor's retry policy
// (spec.md §4.5 step 5) is allowed to retry: IO and not-connected errors,
// LOADING replies, and the cluster config/connection errors. MOVED and ASK
// are not covered here; the cluster executor follows them separately.
// Protocol, wrong-type, and codec errors are never retried.
func Retryable(err error) bool {
	return errorx.IsOfType(err, ErrIO) ||
		errorx.IsOfType(err, ErrConnection) ||
		errorx.IsOfType(err, ErrLoading) ||
		errorx.IsOfType(err, ErrClusterConfig) ||
		errorx.IsOfType(err, ErrClusterConnection)
}

// ClassifyReplyError turns the text of a RESP error reply (the Str field of
// a resp.Value with Type resp.TypeError) into one of the *errorx.Error types
// above, matching the token-prefix classification rule of spec.md §7.
//
// MOVED and ASK carry the target address and slot as errorx properties so
// the cluster executor can redirect without re-parsing the text.
func ClassifyReplyError(text string) error {
	token, rest := splitToken(text)
	switch token {
	case "MOVED":
		slot, addr, ok := parseRedirect(rest)
		if !ok {
			return ErrProtocol.New("malformed MOVED reply: %q", text)
		}
		return ErrMoved.New("%s", text).WithProperty(EKSlot, slot).WithProperty(EKAddress, addr)
	case "ASK":
		slot, addr, ok := parseRedirect(rest)
		if !ok {
			return ErrProtocol.New("malformed ASK reply: %q", text)
		}
		return ErrAsk.New("%s", text).WithProperty(EKSlot, slot).WithProperty(EKAddress, addr)
	case "WRONGTYPE":
		return ErrWrongType.New("%s", text)
	case "LOADING":
		return ErrLoading.New("%s", text)
	case "BUSYGROUP":
		return ErrBusyGroup.New("%s", text)
	case "NOGROUP":
		return ErrNoGroup.New("%s", text)
	case "NOSCRIPT":
		return ErrNoScript.New("%s", text)
	case "NOTBUSY":
		return ErrNotBusy.New("%s", text)
	case "BUSY":
		return ErrBusy.New("%s", text)
	default:
		return ErrResult.New("%s", text)
	}
}

func splitToken(text string) (token, rest string) {
	i := strings.IndexByte(text, ' ')
	if i < 0 {
		return text, ""
	}
	return text[:i], text[i+1:]
}

// parseRedirect parses "<slot> <host:port>[ <flags...>]" as found after the
// MOVED/ASK token.
func parseRedirect(rest string) (slot int, addr string, ok bool) {
	parts := strings.Fields(rest)
	if len(parts) < 2 {
		return 0, "", false
	}
	n, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, "", false
	}
	return n, parts[1], true
}
