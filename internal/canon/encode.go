package canon

import (
	"encoding/binary"
	"fmt"
	"math"
)

// maxDepth guards against pathological nesting so Encode remains a total
// function rather than a stack-overflow risk.
const maxDepth = 512

// Encode serializes v into SwarmTorch's canonical binary form: a small,
// self-describing postcard-style encoding with a type tag, fixed-width
// numerics, and varint-length-prefixed strings/containers. Field order
// within an Object is exactly its insertion order, never re-sorted, so
// canonical struct builders control determinism by always inserting
// fields in the same declared order.
func Encode(v Value) ([]byte, error) {
	var buf []byte
	out, err := appendValue(buf, v, 0)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func appendValue(buf []byte, v Value, depth int) ([]byte, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("canon: encoding depth exceeds %d", maxDepth)
	}
	buf = append(buf, byte(v.kind))
	switch v.kind {
	case KindNull:
		return buf, nil
	case KindBool:
		if v.b {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
		return buf, nil
	case KindI64:
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], uint64(v.i))
		return append(buf, tmp[:]...), nil
	case KindU64:
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], v.u)
		return append(buf, tmp[:]...), nil
	case KindF64:
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(v.f))
		return append(buf, tmp[:]...), nil
	case KindStr:
		buf = appendVarint(buf, uint64(len(v.s)))
		return append(buf, v.s...), nil
	case KindArray:
		buf = appendVarint(buf, uint64(len(v.arr)))
		var err error
		for _, elem := range v.arr {
			buf, err = appendValue(buf, elem, depth+1)
			if err != nil {
				return nil, err
			}
		}
		return buf, nil
	case KindObject:
		if v.obj == nil {
			buf = appendVarint(buf, 0)
			return buf, nil
		}
		buf = appendVarint(buf, uint64(len(v.obj.keys)))
		var err error
		for _, k := range v.obj.keys {
			buf = appendVarint(buf, uint64(len(k)))
			buf = append(buf, k...)
			val := v.obj.vals[k]
			buf, err = appendValue(buf, val, depth+1)
			if err != nil {
				return nil, err
			}
		}
		return buf, nil
	default:
		return nil, fmt.Errorf("canon: unknown value kind %d", v.kind)
	}
}

func appendVarint(buf []byte, x uint64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], x)
	return append(buf, tmp[:n]...)
}
