package redis

import "github.com/kvstream/rediswire/resp"

// SubscriptionKey is the Channel(k)/Pattern(k) variant carried by a
// subscribe/unsubscribe PushMessage, per spec.md §4.1's PushMessage
// decoder note.
type SubscriptionKey struct {
	Pattern bool
	Key     string
}

// PushMessageKind discriminates the first bulk string of a push message.
type PushMessageKind int

const (
	PushSubscribe PushMessageKind = iota
	PushUnsubscribe
	PushPSubscribe
	PushPUnsubscribe
	PushMessageKindMessage
	PushMessageKindPMessage
)

// PushMessage is the decoded result of a Pub/Sub push, per spec.md §4.1:
// "subscribe, psubscribe, unsubscribe, punsubscribe each carry (key,
// count); message carries (channel=key, payload); pmessage carries
// (pattern, channel, payload)." Only the fields relevant to Kind are
// populated; this module only decodes the push frame (§1's Non-goals
// exclude the Pub/Sub multiplexing surface itself).
type PushMessage struct {
	Kind     PushMessageKind
	Sub      SubscriptionKey
	Count    int64
	Channel  string
	Pattern  string
	Payload  []byte
}

// PushMessageDecoder decodes a Pub/Sub push frame.
func PushMessageDecoder(v resp.Value) (PushMessage, error) {
	if v.Type != resp.TypeArray || len(v.Array) < 3 {
		return PushMessage{}, protoErr("expected push array, got %s", v.Type)
	}
	kind, err := MultiString(v.Array[0])
	if err != nil {
		return PushMessage{}, err
	}
	switch kind {
	case "subscribe", "unsubscribe", "psubscribe", "punsubscribe":
		key, err := MultiString(v.Array[1])
		if err != nil {
			return PushMessage{}, err
		}
		count, err := Long(v.Array[2])
		if err != nil {
			return PushMessage{}, err
		}
		pm := PushMessage{Count: count}
		switch kind {
		case "subscribe":
			pm.Kind = PushSubscribe
			pm.Sub = SubscriptionKey{Key: key}
		case "unsubscribe":
			pm.Kind = PushUnsubscribe
			pm.Sub = SubscriptionKey{Key: key}
		case "psubscribe":
			pm.Kind = PushPSubscribe
			pm.Sub = SubscriptionKey{Key: key, Pattern: true}
		case "punsubscribe":
			pm.Kind = PushPUnsubscribe
			pm.Sub = SubscriptionKey{Key: key, Pattern: true}
		}
		return pm, nil
	case "message":
		channel, err := MultiString(v.Array[1])
		if err != nil {
			return PushMessage{}, err
		}
		payload, err := BulkString(v.Array[2])
		if err != nil {
			return PushMessage{}, err
		}
		return PushMessage{Kind: PushMessageKindMessage, Channel: channel, Payload: payload}, nil
	case "pmessage":
		if len(v.Array) != 4 {
			return PushMessage{}, protoErr("expected 4-element pmessage, got %d", len(v.Array))
		}
		pattern, err := MultiString(v.Array[1])
		if err != nil {
			return PushMessage{}, err
		}
		channel, err := MultiString(v.Array[2])
		if err != nil {
			return PushMessage{}, err
		}
		payload, err := BulkString(v.Array[3])
		if err != nil {
			return PushMessage{}, err
		}
		return PushMessage{Kind: PushMessageKindPMessage, Pattern: pattern, Channel: channel, Payload: payload}, nil
	default:
		return PushMessage{}, protoErr("unknown push message kind %q", kind)
	}
}

// NumSubResponse is one element of a PUBSUB NUMSUB reply: channel name plus
// subscriber count, decoded from the flattened [channel, count, ...] array.
type NumSubResponse struct {
	Channel     string
	Subscribers int64
}

// NumSubResponses decodes the PUBSUB NUMSUB reply.
func NumSubResponses(v resp.Value) ([]NumSubResponse, error) {
	pairs, err := ChunkTuple2(MultiString, Long)(v)
	if err != nil {
		return nil, err
	}
	out := make([]NumSubResponse, len(pairs))
	for i, p := range pairs {
		out[i] = NumSubResponse{Channel: p.Key, Subscribers: p.Value}
	}
	return out, nil
}
