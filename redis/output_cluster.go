package redis

import "github.com/kvstream/rediswire/resp"

// ClusterNode is one node entry within a CLUSTER SLOTS partition record:
// address, port, and the node ID when the server includes it (Redis 4+).
type ClusterNode struct {
	Host string
	Port int64
	ID   string
}

func clusterNodeDecoder(v resp.Value) (ClusterNode, error) {
	if v.Type != resp.TypeArray || len(v.Array) < 2 {
		return ClusterNode{}, protoErr("expected [host, port, ...] node entry, got %s", v.Type)
	}
	host, err := MultiString(v.Array[0])
	if err != nil {
		return ClusterNode{}, err
	}
	port, err := Long(v.Array[1])
	if err != nil {
		return ClusterNode{}, err
	}
	n := ClusterNode{Host: host, Port: port}
	if len(v.Array) >= 3 && !v.Array[2].IsNull() {
		n.ID, err = MultiString(v.Array[2])
		if err != nil {
			return ClusterNode{}, err
		}
	}
	return n, nil
}

// ClusterPartition is one element of the CLUSTER SLOTS reply: a slot range
// plus its master and replica nodes, per spec.md §3's Partition type.
type ClusterPartition struct {
	StartSlot int64
	EndSlot   int64
	Master    ClusterNode
	Replicas  []ClusterNode
}

func clusterPartitionDecoder(v resp.Value) (ClusterPartition, error) {
	if v.Type != resp.TypeArray || len(v.Array) < 3 {
		return ClusterPartition{}, protoErr("expected [start, end, master, ...] partition, got %s", v.Type)
	}
	start, err := Long(v.Array[0])
	if err != nil {
		return ClusterPartition{}, err
	}
	end, err := Long(v.Array[1])
	if err != nil {
		return ClusterPartition{}, err
	}
	master, err := clusterNodeDecoder(v.Array[2])
	if err != nil {
		return ClusterPartition{}, err
	}
	p := ClusterPartition{StartSlot: start, EndSlot: end, Master: master}
	for _, rv := range v.Array[3:] {
		node, err := clusterNodeDecoder(rv)
		if err != nil {
			return ClusterPartition{}, err
		}
		p.Replicas = append(p.Replicas, node)
	}
	return p, nil
}

// ClusterSlots decodes the CLUSTER SLOTS reply into its partition records.
func ClusterSlots(v resp.Value) ([]ClusterPartition, error) {
	return Chunk(clusterPartitionDecoder)(v)
}

// Lcs is the decoded LCS reply in its three request modes: plain (the
// matched subsequence string), LEN (just its length), and IDX/MATCHES
// (the list of matching ranges plus optional total length).
type LcsMatch struct {
	Key1Start, Key1End int64
	Key2Start, Key2End int64
	MatchLen           int64
	HasMatchLen        bool
}

type Lcs struct {
	Subsequence string
	HasSubseq   bool
	Len         int64
	HasLen      bool
	Matches     []LcsMatch
}

// LcsPlain decodes the LCS command's default (bulk string) reply.
func LcsPlain(v resp.Value) (Lcs, error) {
	s, err := MultiString(v)
	if err != nil {
		return Lcs{}, err
	}
	return Lcs{Subsequence: s, HasSubseq: true}, nil
}

// LcsLen decodes the LCS LEN reply.
func LcsLen(v resp.Value) (Lcs, error) {
	n, err := Long(v)
	if err != nil {
		return Lcs{}, err
	}
	return Lcs{Len: n, HasLen: true}, nil
}

// LcsMatches decodes the LCS IDX[/MATCHES/WITHMATCHLEN] nested reply:
// [MATCHES, [[[k1s,k1e],[k2s,k2e], matchlen?], ...], LEN, n].
func LcsMatches(v resp.Value) (Lcs, error) {
	if v.Type != resp.TypeArray || len(v.Array) < 4 {
		return Lcs{}, protoErr("expected [MATCHES, matches, LEN, n] reply, got %s", v.Type)
	}
	var out Lcs
	for i := 0; i+1 < len(v.Array); i += 2 {
		key, err := MultiString(v.Array[i])
		if err != nil {
			return Lcs{}, err
		}
		val := v.Array[i+1]
		switch key {
		case "matches":
			for _, mv := range val.Array {
				m, err := lcsMatchDecoder(mv)
				if err != nil {
					return Lcs{}, err
				}
				out.Matches = append(out.Matches, m)
			}
		case "len":
			out.Len, err = Long(val)
			if err != nil {
				return Lcs{}, err
			}
			out.HasLen = true
		}
	}
	return out, nil
}

func lcsMatchDecoder(v resp.Value) (LcsMatch, error) {
	if v.Type != resp.TypeArray || len(v.Array) < 2 {
		return LcsMatch{}, protoErr("expected match range pair, got %s", v.Type)
	}
	r1, err := rangeDecoder(v.Array[0])
	if err != nil {
		return LcsMatch{}, err
	}
	r2, err := rangeDecoder(v.Array[1])
	if err != nil {
		return LcsMatch{}, err
	}
	m := LcsMatch{Key1Start: r1[0], Key1End: r1[1], Key2Start: r2[0], Key2End: r2[1]}
	if len(v.Array) >= 3 {
		m.MatchLen, err = Long(v.Array[2])
		if err != nil {
			return LcsMatch{}, err
		}
		m.HasMatchLen = true
	}
	return m, nil
}

func rangeDecoder(v resp.Value) ([2]int64, error) {
	if v.Type != resp.TypeArray || len(v.Array) != 2 {
		return [2]int64{}, protoErr("expected [start, end] range, got %s", v.Type)
	}
	start, err := Long(v.Array[0])
	if err != nil {
		return [2]int64{}, err
	}
	end, err := Long(v.Array[1])
	if err != nil {
		return [2]int64{}, err
	}
	return [2]int64{start, end}, nil
}
