package response

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeShapes(t *testing.T) {
	tests := []struct {
		resp Response
		want string
	}{
		{List{Values: []string{"a", "b"}}, `{"values":["a","b"]}`},
		{Set{Values: []string{"b", "c"}}, `{"values":["b","c"]}`},
		{Err{Error: ErrUnknownKey}, `{"error":"UnknownKey"}`},
		{AffectedKeys{AffectedKeys: 1}, `{"affected_keys":1}`},
		{Count{Count: 3}, `{"count":3}`},
		{StringValue{Value: "v"}, `{"value":"v"}`},
		{IntValue{Value: 42}, `{"value":42}`},
		{BoolValue{Value: true}, `{"value":true}`},
	}

	for _, tt := range tests {
		data, err := Encode(tt.resp)
		require.NoError(t, err)
		assert.Equal(t, tt.want, string(data))
	}
}

func TestDecodeShapes(t *testing.T) {
	tests := []struct {
		raw  string
		want Response
	}{
		{`{"values":["a","b"]}`, List{Values: []string{"a", "b"}}},
		{`{"error":"IncompatibleDataType"}`, Err{Error: ErrIncompatibleDataType}},
		{`{"affected_keys":2}`, AffectedKeys{AffectedKeys: 2}},
		{`{"count":7}`, Count{Count: 7}},
		{`{"value":"v"}`, StringValue{Value: "v"}},
		{`{"value":-14}`, IntValue{Value: -14}},
		{`{"value":true}`, BoolValue{Value: true}},
		{`{"value":false}`, BoolValue{Value: false}},
	}

	for _, tt := range tests {
		got, err := Decode([]byte(tt.raw))
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}

func TestDecodeRejects(t *testing.T) {
	for _, raw := range []string{``, `[]`, `{"unexpected":1}`} {
		_, err := Decode([]byte(raw))
		assert.Error(t, err, "input %q", raw)
	}
}
