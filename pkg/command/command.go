// Package command defines the wire-level command union accepted by the
// pouch server. Every command is a JSON object with an "action"
// discriminator; the remaining fields depend on the action. The encoded
// form doubles as the on-disk record format of the write-ahead log, so
// action names and field names are a stable contract.
package command

import (
	"encoding/json"
	"fmt"
)

// Action discriminates command variants on the wire.
type Action string

const (
	ActionGet    Action = "GET"
	ActionGetDel Action = "GETDEL"
	ActionSet    Action = "SET"
	ActionDelete Action = "DELETE"
	ActionLPush  Action = "LPUSH"
	ActionRPush  Action = "RPUSH"
	ActionLRange Action = "LRANGE"
	ActionLLen   Action = "LLEN"
	ActionLPop   Action = "LPOP"
	ActionRPop   Action = "RPOP"
	ActionExists Action = "EXISTS"
	ActionIncr   Action = "INCR"
	ActionIncrBy Action = "INCRBY"
	ActionDecr   Action = "DECR"
	ActionDecrBy Action = "DECRBY"
	ActionSAdd   Action = "SADD"
	ActionSCard  Action = "SCARD"
	ActionSInter Action = "SINTER"
	ActionSDiff  Action = "SDIFF"
	ActionZAdd   Action = "ZADD"
	ActionZCard  Action = "ZCARD"
)

// Command is one decoded request.
//
// Mutates reports whether applying the command can change dictionary
// state; only mutating commands are recorded in the write-ahead log.
type Command interface {
	Action() Action
	Mutates() bool
}

// Get reads a string value.
type Get struct {
	Key string `json:"key"`
}

// GetDel reads a string value and removes the key in one step.
type GetDel struct {
	Key string `json:"key"`
}

// Set stores a string value with a relative expiry.
//
// ExpirySeconds is the requested time-to-live. ExpiryTS carries the
// absolute Unix-seconds deadline; clients send 0 and let the server
// resolve it.
type Set struct {
	Key           string `json:"key"`
	Value         string `json:"value"`
	ExpirySeconds uint64 `json:"expiry_seconds"`
	ExpiryTS      uint64 `json:"expiry_ts"`
}

// Delete removes any number of keys regardless of kind.
type Delete struct {
	Keys []string `json:"keys"`
}

// LPush prepends values to a list; the last supplied value ends up at
// position 0.
type LPush struct {
	Key    string   `json:"key"`
	Values []string `json:"values"`
}

// RPush appends values to a list in the order supplied.
type RPush struct {
	Key    string   `json:"key"`
	Values []string `json:"values"`
}

// LRange reads a half-open slice of a list. A nil bound means "from the
// head" / "to the tail"; out-of-range bounds are clamped.
type LRange struct {
	Key   string `json:"key"`
	Start *int   `json:"start"`
	End   *int   `json:"end"`
}

// LLen reports the length of a list.
type LLen struct {
	Key string `json:"key"`
}

// LPop removes and returns the head of a list.
type LPop struct {
	Key string `json:"key"`
}

// RPop removes and returns the tail of a list.
type RPop struct {
	Key string `json:"key"`
}

// Exists reports whether a key holds any live value.
type Exists struct {
	Key string `json:"key"`
}

// Incr adds 1 to an integer-valued string.
type Incr struct {
	Key string `json:"key"`
}

// IncrBy adds an arbitrary delta to an integer-valued string.
type IncrBy struct {
	Key       string `json:"key"`
	Increment int64  `json:"increment"`
}

// Decr subtracts 1 from an integer-valued string.
type Decr struct {
	Key string `json:"key"`
}

// DecrBy subtracts an arbitrary delta from an integer-valued string.
type DecrBy struct {
	Key       string `json:"key"`
	Decrement int64  `json:"decrement"`
}

// SAdd inserts members into a set.
type SAdd struct {
	Key    string   `json:"key"`
	Values []string `json:"values"`
}

// SCard reports the cardinality of a set.
type SCard struct {
	Key string `json:"key"`
}

// SInter intersects the anchor set with each named other set.
type SInter struct {
	Key    string   `json:"key"`
	Others []string `json:"others"`
}

// SDiff subtracts each named other set from the anchor set.
type SDiff struct {
	Key    string   `json:"key"`
	Others []string `json:"others"`
}

// ZAdd upserts members of a sorted set with their scores.
type ZAdd struct {
	Key    string           `json:"key"`
	Values map[string]int64 `json:"values"`
}

// ZCard reports the number of distinct members of a sorted set.
type ZCard struct {
	Key string `json:"key"`
}

func (*Get) Action() Action    { return ActionGet }
func (*GetDel) Action() Action { return ActionGetDel }
func (*Set) Action() Action    { return ActionSet }
func (*Delete) Action() Action { return ActionDelete }
func (*LPush) Action() Action  { return ActionLPush }
func (*RPush) Action() Action  { return ActionRPush }
func (*LRange) Action() Action { return ActionLRange }
func (*LLen) Action() Action   { return ActionLLen }
func (*LPop) Action() Action   { return ActionLPop }
func (*RPop) Action() Action   { return ActionRPop }
func (*Exists) Action() Action { return ActionExists }
func (*Incr) Action() Action   { return ActionIncr }
func (*IncrBy) Action() Action { return ActionIncrBy }
func (*Decr) Action() Action   { return ActionDecr }
func (*DecrBy) Action() Action { return ActionDecrBy }
func (*SAdd) Action() Action   { return ActionSAdd }
func (*SCard) Action() Action  { return ActionSCard }
func (*SInter) Action() Action { return ActionSInter }
func (*SDiff) Action() Action  { return ActionSDiff }
func (*ZAdd) Action() Action   { return ActionZAdd }
func (*ZCard) Action() Action  { return ActionZCard }

func (*Get) Mutates() bool    { return false }
func (*GetDel) Mutates() bool { return true }
func (*Set) Mutates() bool    { return true }
func (*Delete) Mutates() bool { return true }
func (*LPush) Mutates() bool  { return true }
func (*RPush) Mutates() bool  { return true }
func (*LRange) Mutates() bool { return false }
func (*LLen) Mutates() bool   { return false }
func (*LPop) Mutates() bool   { return true }
func (*RPop) Mutates() bool   { return true }
func (*Exists) Mutates() bool { return false }
func (*Incr) Mutates() bool   { return true }
func (*IncrBy) Mutates() bool { return true }
func (*Decr) Mutates() bool   { return true }
func (*DecrBy) Mutates() bool { return true }
func (*SAdd) Mutates() bool   { return true }
func (*SCard) Mutates() bool  { return false }
func (*SInter) Mutates() bool { return false }
func (*SDiff) Mutates() bool  { return false }
func (*ZAdd) Mutates() bool   { return true }
func (*ZCard) Mutates() bool  { return false }

// Encode serializes a command to its wire form, injecting the "action"
// discriminator ahead of the variant's own fields.
func Encode(c Command) ([]byte, error) {
	fields, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", c.Action(), err)
	}
	head := fmt.Sprintf(`{"action":%q`, c.Action())
	if len(fields) <= 2 { // "{}"
		return []byte(head + "}"), nil
	}
	return append([]byte(head+","), fields[1:]...), nil
}

// Decode parses one wire command. It fails on malformed JSON and on
// unknown actions; callers map both cases to UnknownCommand.
func Decode(data []byte) (Command, error) {
	var env struct {
		Action Action `json:"action"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode command envelope: %w", err)
	}

	var c Command
	switch env.Action {
	case ActionGet:
		c = &Get{}
	case ActionGetDel:
		c = &GetDel{}
	case ActionSet:
		c = &Set{}
	case ActionDelete:
		c = &Delete{}
	case ActionLPush:
		c = &LPush{}
	case ActionRPush:
		c = &RPush{}
	case ActionLRange:
		c = &LRange{}
	case ActionLLen:
		c = &LLen{}
	case ActionLPop:
		c = &LPop{}
	case ActionRPop:
		c = &RPop{}
	case ActionExists:
		c = &Exists{}
	case ActionIncr:
		c = &Incr{}
	case ActionIncrBy:
		c = &IncrBy{}
	case ActionDecr:
		c = &Decr{}
	case ActionDecrBy:
		c = &DecrBy{}
	case ActionSAdd:
		c = &SAdd{}
	case ActionSCard:
		c = &SCard{}
	case ActionSInter:
		c = &SInter{}
	case ActionSDiff:
		c = &SDiff{}
	case ActionZAdd:
		c = &ZAdd{}
	case ActionZCard:
		c = &ZCard{}
	default:
		return nil, fmt.Errorf("unknown action %q", env.Action)
	}

	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Action, err)
	}
	return c, nil
}
