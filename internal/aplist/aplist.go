// Package aplist is the one seam where the HLS video session subsystem
// crosses into the property-list codec that spec.md §1 calls out as an
// external collaborator ("provides: parse bytes→tree, emit tree→xml/bin,
// typed accessors"). It wraps howett.net/plist — the out-of-pack, real
// ecosystem Go plist library — behind typed accessors so the rest of the
// subsystem never imports the codec directly.
package aplist

import (
	"bytes"
	"fmt"

	"howett.net/plist"
)

// Dict is a decoded plist dictionary node.
type Dict map[string]interface{}

// Decode parses bytes (binary or XML plist, auto-detected) into a Dict.
func Decode(data []byte) (Dict, error) {
	var v interface{}
	if _, err := plist.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("aplist: decode: %w", err)
	}
	d, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("aplist: decode: root is not a dictionary")
	}
	return Dict(d), nil
}

// DecodeArray parses bytes whose plist root is an array of dictionaries,
// the shape setProperty?selectedMediaArray's body takes.
func DecodeArray(data []byte) ([]Dict, error) {
	var v interface{}
	if _, err := plist.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("aplist: decode array: %w", err)
	}
	arr, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("aplist: decode array: root is not an array")
	}
	out := make([]Dict, 0, len(arr))
	for _, elem := range arr {
		m, ok := elem.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("aplist: decode array: element is not a dictionary")
		}
		out = append(out, Dict(m))
	}
	return out, nil
}

// EncodeBinary emits v (typically a Dict or map[string]interface{}) as a
// binary plist, the form FCUP requests are sent in.
func EncodeBinary(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := plist.NewBinaryEncoder(&buf)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("aplist: encode binary: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeXML emits v as an XML plist, the form handler responses are sent in.
func EncodeXML(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := plist.NewEncoder(&buf)
	enc.Indent("\t")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("aplist: encode xml: %w", err)
	}
	return buf.Bytes(), nil
}

// String returns d[key] as a string, or ("", false) if absent or the wrong type.
func (d Dict) String(key string) (string, bool) {
	v, ok := d[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Real returns d[key] as a float64, or (0, false) if absent or the wrong type.
// howett.net/plist decodes plist reals and integers both into Go numeric
// kinds depending on the original encoding, so both are accepted here.
func (d Dict) Real(key string) (float64, bool) {
	v, ok := d[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// UInt returns d[key] as a uint64, or (0, false) if absent or the wrong type.
func (d Dict) UInt(key string) (uint64, bool) {
	v, ok := d[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case uint64:
		return n, true
	case int64:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case float64:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	default:
		return 0, false
	}
}

// Bytes returns d[key] as raw data, or (nil, false) if absent or the wrong type.
func (d Dict) Bytes(key string) ([]byte, bool) {
	v, ok := d[key]
	if !ok {
		return nil, false
	}
	b, ok := v.([]byte)
	return b, ok
}

// Dict returns d[key] as a nested Dict, or (nil, false) if absent or the wrong type.
func (d Dict) Dict(key string) (Dict, bool) {
	v, ok := d[key]
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, false
	}
	return Dict(m), true
}

// Array returns d[key] as a slice of Dicts, or (nil, false) if absent, the
// wrong type, or any element is not itself a dictionary.
func (d Dict) Array(key string) ([]Dict, bool) {
	v, ok := d[key]
	if !ok {
		return nil, false
	}
	arr, ok := v.([]interface{})
	if !ok {
		return nil, false
	}
	out := make([]Dict, 0, len(arr))
	for _, elem := range arr {
		m, ok := elem.(map[string]interface{})
		if !ok {
			return nil, false
		}
		out = append(out, Dict(m))
	}
	return out, true
}
