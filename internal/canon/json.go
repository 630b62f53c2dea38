package canon

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// MarshalJSON renders a Value as JSON, preserving Object field order exactly
// (never relying on Go's unordered map marshaling) so that graph.json and
// other persisted snapshots stay byte-stable across runs with identical
// logical content.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v Value) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
		return nil
	case KindBool:
		if v.b {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case KindI64:
		buf.WriteString(strconv.FormatInt(v.i, 10))
		return nil
	case KindU64:
		buf.WriteString(strconv.FormatUint(v.u, 10))
		return nil
	case KindF64:
		buf.WriteString(strconv.FormatFloat(v.f, 'g', -1, 64))
		return nil
	case KindStr:
		enc, err := json.Marshal(v.s)
		if err != nil {
			return err
		}
		buf.Write(enc)
		return nil
	case KindArray:
		buf.WriteByte('[')
		for i, elem := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, elem); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case KindObject:
		buf.WriteByte('{')
		if v.obj != nil {
			for i, k := range v.obj.keys {
				if i > 0 {
					buf.WriteByte(',')
				}
				keyEnc, err := json.Marshal(k)
				if err != nil {
					return err
				}
				buf.Write(keyEnc)
				buf.WriteByte(':')
				if err := writeJSON(buf, v.obj.vals[k]); err != nil {
					return err
				}
			}
		}
		buf.WriteByte('}')
		return nil
	default:
		return fmt.Errorf("canon: unknown value kind %d", v.kind)
	}
}

// UnmarshalJSON parses arbitrary JSON into a Value, preserving object key
// order as encountered in the input bytes.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	val, err := decodeJSONValue(dec)
	if err != nil {
		return err
	}
	*v = val
	return nil
}

func decodeJSONValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	return decodeToken(dec, tok)
}

func decodeToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return I64(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return Value{}, err
		}
		return F64(f), nil
	case string:
		return Str(t), nil
	case json.Delim:
		switch t {
		case '[':
			var items []Value
			for dec.More() {
				elem, err := decodeJSONValue(dec)
				if err != nil {
					return Value{}, err
				}
				items = append(items, elem)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return Value{}, err
			}
			return ArrSlice(items), nil
		case '{':
			o := NewObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("canon: object key is not a string")
				}
				val, err := decodeJSONValue(dec)
				if err != nil {
					return Value{}, err
				}
				o.Set(key, val)
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return Value{}, err
			}
			return Obj(o), nil
		}
	}
	return Value{}, fmt.Errorf("canon: unexpected JSON token %v", tok)
}
