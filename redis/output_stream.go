package redis

import "github.com/kvstream/rediswire/resp"

// StreamEntry is one entry of an XRANGE/XREAD reply: an entry ID plus its
// flattened field/value pairs.
type StreamEntry struct {
	ID     string
	Fields []StreamField
}

// StreamEntryDecoder decodes a single [id-bulk, [field,value,...]-array]
// pair into a StreamEntry.
func StreamEntryDecoder(v resp.Value) (StreamEntry, error) {
	if v.Type != resp.TypeArray || len(v.Array) != 2 {
		return StreamEntry{}, protoErr("expected 2-element stream entry, got %s", v.Type)
	}
	id, err := MultiString(v.Array[0])
	if err != nil {
		return StreamEntry{}, err
	}
	fv := v.Array[1]
	if fv.Type == resp.TypeNullArray {
		return StreamEntry{ID: id}, nil
	}
	if fv.Type != resp.TypeArray || len(fv.Array)%2 != 0 {
		return StreamEntry{}, protoErr("expected even-length field/value array")
	}
	fields := make([]StreamField, 0, len(fv.Array)/2)
	for i := 0; i < len(fv.Array); i += 2 {
		f, err := MultiString(fv.Array[i])
		if err != nil {
			return StreamEntry{}, err
		}
		val, err := MultiString(fv.Array[i+1])
		if err != nil {
			return StreamEntry{}, err
		}
		fields = append(fields, StreamField{Field: f, Value: val})
	}
	return StreamEntry{ID: id, Fields: fields}, nil
}

// StreamEntries decodes an XRANGE/XREVRANGE array of entries, or a null
// array (no entries) to an empty slice.
func StreamEntries(v resp.Value) ([]StreamEntry, error) {
	return Chunk(StreamEntryDecoder)(v)
}

// StreamInfo is the decoded XINFO STREAM reply. Zero value for any field
// not present in the reply, per spec.md §4.1's field-ordering rule.
type StreamInfo struct {
	Length              int64
	RadixTreeKeys       int64
	RadixTreeNodes      int64
	Groups              int64
	LastGeneratedID     string
	MaxDeletedEntryID   string
	EntriesAdded        int64
	FirstEntry          *StreamEntry
	LastEntry           *StreamEntry
}

// StreamInfoDecoder decodes XINFO STREAM's reply as an unordered sequence
// of (bulk-string key, value) pairs, matching keys by name rather than
// position — spec.md §4.1's field-ordering rule, exercised directly by
// Scenario D ("mock returns groups/length/last-generated-id in a different
// order than documented; decoder still yields the correct StreamInfo
// record"). Unknown or missing keys leave their zero value.
func StreamInfoDecoder(v resp.Value) (StreamInfo, error) {
	if v.Type != resp.TypeArray || len(v.Array)%2 != 0 {
		return StreamInfo{}, protoErr("expected even-length field array, got %s", v.Type)
	}
	var info StreamInfo
	for i := 0; i < len(v.Array); i += 2 {
		key, err := MultiString(v.Array[i])
		if err != nil {
			return StreamInfo{}, err
		}
		val := v.Array[i+1]
		switch key {
		case "length":
			info.Length, err = Long(val)
		case "radix-tree-keys":
			info.RadixTreeKeys, err = Long(val)
		case "radix-tree-nodes":
			info.RadixTreeNodes, err = Long(val)
		case "groups":
			info.Groups, err = Long(val)
		case "last-generated-id":
			info.LastGeneratedID, err = MultiString(val)
		case "max-deleted-entry-id":
			info.MaxDeletedEntryID, err = MultiString(val)
		case "entries-added":
			info.EntriesAdded, err = Long(val)
		case "first-entry":
			if !val.IsNull() {
				var e StreamEntry
				e, err = StreamEntryDecoder(val)
				info.FirstEntry = &e
			}
		case "last-entry":
			if !val.IsNull() {
				var e StreamEntry
				e, err = StreamEntryDecoder(val)
				info.LastEntry = &e
			}
		default:
			// unknown key: ignored, per the field-ordering rule.
		}
		if err != nil {
			return StreamInfo{}, err
		}
	}
	return info, nil
}

// StreamGroupInfo is one decoded element of XINFO GROUPS.
type StreamGroupInfo struct {
	Name            string
	Consumers       int64
	Pending         int64
	LastDeliveredID string
	EntriesRead     int64
	Lag             int64
}

func streamGroupInfoDecoder(v resp.Value) (StreamGroupInfo, error) {
	if v.Type != resp.TypeArray || len(v.Array)%2 != 0 {
		return StreamGroupInfo{}, protoErr("expected even-length field array, got %s", v.Type)
	}
	var g StreamGroupInfo
	var err error
	for i := 0; i < len(v.Array); i += 2 {
		var key string
		key, err = MultiString(v.Array[i])
		if err != nil {
			return StreamGroupInfo{}, err
		}
		val := v.Array[i+1]
		switch key {
		case "name":
			g.Name, err = MultiString(val)
		case "consumers":
			g.Consumers, err = Long(val)
		case "pending":
			g.Pending, err = Long(val)
		case "last-delivered-id":
			g.LastDeliveredID, err = MultiString(val)
		case "entries-read":
			g.EntriesRead, err = Long(val)
		case "lag":
			g.Lag, err = Long(val)
		}
		if err != nil {
			return StreamGroupInfo{}, err
		}
	}
	return g, nil
}

// StreamGroupsInfo decodes the XINFO GROUPS reply, an array of per-group
// field/value sequences, field order independent as above.
func StreamGroupsInfo(v resp.Value) ([]StreamGroupInfo, error) {
	return Chunk(streamGroupInfoDecoder)(v)
}

// StreamConsumerInfo is one decoded element of XINFO CONSUMERS.
type StreamConsumerInfo struct {
	Name       string
	Pending    int64
	IdleMillis int64
	ActiveTime int64
	SeenTime   int64
}

func streamConsumerInfoDecoder(v resp.Value) (StreamConsumerInfo, error) {
	if v.Type != resp.TypeArray || len(v.Array)%2 != 0 {
		return StreamConsumerInfo{}, protoErr("expected even-length field array, got %s", v.Type)
	}
	var c StreamConsumerInfo
	var err error
	for i := 0; i < len(v.Array); i += 2 {
		var key string
		key, err = MultiString(v.Array[i])
		if err != nil {
			return StreamConsumerInfo{}, err
		}
		val := v.Array[i+1]
		switch key {
		case "name":
			c.Name, err = MultiString(val)
		case "pending":
			c.Pending, err = Long(val)
		case "idle":
			c.IdleMillis, err = Long(val)
		case "active-time":
			c.ActiveTime, err = Long(val)
		case "seen-time":
			c.SeenTime, err = Long(val)
		}
		if err != nil {
			return StreamConsumerInfo{}, err
		}
	}
	return c, nil
}

// StreamConsumersInfo decodes the XINFO CONSUMERS reply.
func StreamConsumersInfo(v resp.Value) ([]StreamConsumerInfo, error) {
	return Chunk(streamConsumerInfoDecoder)(v)
}

// PendingMessage is one element of an XPENDING extended-form reply: message
// ID, consumer name, idle time in milliseconds, delivery count.
type PendingMessage struct {
	ID            string
	Consumer      string
	IdleMillis    int64
	DeliveryCount int64
}

func pendingMessageDecoder(v resp.Value) (PendingMessage, error) {
	if v.Type != resp.TypeArray || len(v.Array) != 4 {
		return PendingMessage{}, protoErr("expected 4-element pending entry, got %s", v.Type)
	}
	id, err := MultiString(v.Array[0])
	if err != nil {
		return PendingMessage{}, err
	}
	consumer, err := MultiString(v.Array[1])
	if err != nil {
		return PendingMessage{}, err
	}
	idle, err := Long(v.Array[2])
	if err != nil {
		return PendingMessage{}, err
	}
	count, err := Long(v.Array[3])
	if err != nil {
		return PendingMessage{}, err
	}
	return PendingMessage{ID: id, Consumer: consumer, IdleMillis: idle, DeliveryCount: count}, nil
}

// PendingMessages decodes the extended-form XPENDING reply.
func PendingMessages(v resp.Value) ([]PendingMessage, error) {
	return Chunk(pendingMessageDecoder)(v)
}

// XPending is the decoded summary-form XPENDING reply: [count,
// smallest-id, greatest-id, [[consumer, count], ...]].
type XPending struct {
	Count      int64
	SmallestID string
	GreatestID string
	Consumers  []KeyValue[string, int64]
}

// XPendingDecoder decodes the summary-form XPENDING reply.
func XPendingDecoder(v resp.Value) (XPending, error) {
	if v.Type != resp.TypeArray || len(v.Array) != 4 {
		return XPending{}, protoErr("expected 4-element XPENDING summary, got %s", v.Type)
	}
	count, err := Long(v.Array[0])
	if err != nil {
		return XPending{}, err
	}
	var smallest, greatest string
	if !v.Array[1].IsNull() {
		if smallest, err = MultiString(v.Array[1]); err != nil {
			return XPending{}, err
		}
	}
	if !v.Array[2].IsNull() {
		if greatest, err = MultiString(v.Array[2]); err != nil {
			return XPending{}, err
		}
	}
	var consumers []KeyValue[string, int64]
	if !v.Array[3].IsNull() {
		for _, pair := range v.Array[3].Array {
			if pair.Type != resp.TypeArray || len(pair.Array) != 2 {
				return XPending{}, protoErr("expected [consumer, count] pair")
			}
			name, err := MultiString(pair.Array[0])
			if err != nil {
				return XPending{}, err
			}
			n, err := Long(pair.Array[1])
			if err != nil {
				return XPending{}, err
			}
			consumers = append(consumers, KeyValue[string, int64]{Key: name, Value: n})
		}
	}
	return XPending{Count: count, SmallestID: smallest, GreatestID: greatest, Consumers: consumers}, nil
}

// StreamClaimed is the decoded XAUTOCLAIM reply: next cursor, claimed
// entries, and IDs deleted because their entries no longer existed.
type StreamClaimed struct {
	NextCursor string
	Entries    []StreamEntry
	DeletedIDs []string
}

// StreamClaimedDecoder decodes the XAUTOCLAIM reply.
func StreamClaimedDecoder(v resp.Value) (StreamClaimed, error) {
	if v.Type != resp.TypeArray || len(v.Array) < 2 || len(v.Array) > 3 {
		return StreamClaimed{}, protoErr("expected 2 or 3 element XAUTOCLAIM reply, got %s", v.Type)
	}
	cursor, err := MultiString(v.Array[0])
	if err != nil {
		return StreamClaimed{}, err
	}
	entries, err := StreamEntries(v.Array[1])
	if err != nil {
		return StreamClaimed{}, err
	}
	var deleted []string
	if len(v.Array) == 3 {
		for _, idv := range v.Array[2].Array {
			id, err := MultiString(idv)
			if err != nil {
				return StreamClaimed{}, err
			}
			deleted = append(deleted, id)
		}
	}
	return StreamClaimed{NextCursor: cursor, Entries: entries, DeletedIDs: deleted}, nil
}
