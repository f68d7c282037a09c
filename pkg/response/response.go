// Package response defines the wire-level response union emitted by
// the pouch server. Responses are untagged: the JSON shape identifies
// the variant, and list and set results share the same envelope (the
// caller knows which command it issued).
package response

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Error enumerates the protocol error taxonomy. Errors are response
// values, not Go errors; the connection stays open after all of them
// except IOFailure.
type Error string

const (
	ErrUnknownCommand       Error = "UnknownCommand"
	ErrUnknownKey           Error = "UnknownKey"
	ErrIncompatibleDataType Error = "IncompatibleDataType"
	ErrNotInteger           Error = "NotInteger"
	ErrTimeWentBackwards    Error = "TimeWentBackwards"

	// ErrIOFailure reports that the write-ahead log rejected a mutating
	// command; the command was not applied and the connection may be
	// torn down.
	ErrIOFailure Error = "IOFailure"
)

// Response is one wire response.
type Response interface {
	isResponse()
}

// List carries an ordered sequence of values (LRANGE).
type List struct {
	Values []string `json:"values"`
}

// Set carries an unordered collection of values (SINTER, SDIFF).
// Members are emitted in sorted order so the wire form is stable.
type Set struct {
	Values []string `json:"values"`
}

// Err carries a protocol error.
type Err struct {
	Error Error `json:"error"`
}

// AffectedKeys reports how many keys or members a mutation touched.
type AffectedKeys struct {
	AffectedKeys uint64 `json:"affected_keys"`
}

// Count reports a cardinality (LLEN, SCARD, ZCARD).
type Count struct {
	Count uint64 `json:"count"`
}

// StringValue carries a single string result.
type StringValue struct {
	Value string `json:"value"`
}

// IntValue carries a single integer result.
type IntValue struct {
	Value int64 `json:"value"`
}

// BoolValue carries a single boolean result (EXISTS).
type BoolValue struct {
	Value bool `json:"value"`
}

func (List) isResponse()         {}
func (Set) isResponse()          {}
func (Err) isResponse()          {}
func (AffectedKeys) isResponse() {}
func (Count) isResponse()        {}
func (StringValue) isResponse()  {}
func (IntValue) isResponse()     {}
func (BoolValue) isResponse()    {}

// Encode serializes a response to its wire form.
func Encode(r Response) ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal response: %w", err)
	}
	return data, nil
}

// Decode parses a wire response by probing which field the object
// carries. Because the union is untagged, set results decode as List;
// callers that issued a set command may convert.
func Decode(data []byte) (Response, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	switch {
	case probe["error"] != nil:
		var r Err
		err := json.Unmarshal(data, &r)
		return r, err
	case probe["affected_keys"] != nil:
		var r AffectedKeys
		err := json.Unmarshal(data, &r)
		return r, err
	case probe["count"] != nil:
		var r Count
		err := json.Unmarshal(data, &r)
		return r, err
	case probe["values"] != nil:
		var r List
		err := json.Unmarshal(data, &r)
		return r, err
	case probe["value"] != nil:
		raw := bytes.TrimSpace(probe["value"])
		if len(raw) == 0 {
			return nil, fmt.Errorf("decode response: empty value")
		}
		switch raw[0] {
		case '"':
			var r StringValue
			err := json.Unmarshal(data, &r)
			return r, err
		case 't', 'f':
			var r BoolValue
			err := json.Unmarshal(data, &r)
			return r, err
		default:
			var r IntValue
			err := json.Unmarshal(data, &r)
			return r, err
		}
	default:
		return nil, fmt.Errorf("decode response: unrecognised shape %s", data)
	}
}
