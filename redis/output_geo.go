package redis

import "github.com/kvstream/rediswire/resp"

// GeoPosition is a decoded GEOPOS element: nil Lon/Lat pointer pair becomes
// a nil *GeoPosition for a missing member.
type GeoPosition struct {
	Lon, Lat float64
}

func geoPositionDecoder(v resp.Value) (*GeoPosition, error) {
	if v.IsNull() {
		return nil, nil
	}
	if v.Type != resp.TypeArray || len(v.Array) != 2 {
		return nil, protoErr("expected 2-element geo position, got %s", v.Type)
	}
	lon, err := Double(v.Array[0])
	if err != nil {
		return nil, err
	}
	lat, err := Double(v.Array[1])
	if err != nil {
		return nil, err
	}
	return &GeoPosition{Lon: lon, Lat: lat}, nil
}

// Geo decodes the GEOPOS reply: one *GeoPosition per requested member, nil
// where the member doesn't exist.
func Geo(v resp.Value) ([]*GeoPosition, error) {
	return Chunk(geoPositionDecoder)(v)
}

// GeoRadiusResult is one decoded GEORADIUS/GEOSEARCH element. Only the
// fields requested via WITHCOORD/WITHDIST/WITHHASH are populated; callers
// know from their own request which fields to read.
type GeoRadiusResult struct {
	Member   string
	Dist     float64
	HasDist  bool
	Hash     int64
	HasHash  bool
	Position *GeoPosition
}

// GeoRadiusDecoder builds a decoder for GEORADIUS-family replies.
// withDist/withHash/withCoord mirror which WITH* flags were set on the
// request, since the reply shape (plain member vs. nested array) depends
// on them and nothing in the reply itself distinguishes an empty nested
// array from "no extra fields requested".
func GeoRadiusDecoder(withCoord, withDist, withHash bool) OutputDecoder[[]GeoRadiusResult] {
	plain := !withCoord && !withDist && !withHash
	return func(v resp.Value) ([]GeoRadiusResult, error) {
		if v.Type != resp.TypeArray {
			return nil, protoErr("expected array, got %s", v.Type)
		}
		out := make([]GeoRadiusResult, len(v.Array))
		for i, elem := range v.Array {
			if plain {
				member, err := MultiString(elem)
				if err != nil {
					return nil, err
				}
				out[i] = GeoRadiusResult{Member: member}
				continue
			}
			if elem.Type != resp.TypeArray || len(elem.Array) == 0 {
				return nil, protoErr("expected nested geo result array")
			}
			member, err := MultiString(elem.Array[0])
			if err != nil {
				return nil, err
			}
			r := GeoRadiusResult{Member: member}
			idx := 1
			if withDist {
				if idx >= len(elem.Array) {
					return nil, protoErr("geo result missing WITHDIST field")
				}
				r.Dist, err = Double(elem.Array[idx])
				if err != nil {
					return nil, err
				}
				r.HasDist = true
				idx++
			}
			if withHash {
				if idx >= len(elem.Array) {
					return nil, protoErr("geo result missing WITHHASH field")
				}
				r.Hash, err = Long(elem.Array[idx])
				if err != nil {
					return nil, err
				}
				r.HasHash = true
				idx++
			}
			if withCoord {
				if idx >= len(elem.Array) {
					return nil, protoErr("geo result missing WITHCOORD field")
				}
				r.Position, err = geoPositionDecoder(elem.Array[idx])
				if err != nil {
					return nil, err
				}
				idx++
			}
			out[i] = r
		}
		return out, nil
	}
}
