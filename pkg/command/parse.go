package command

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseLine turns the human command syntax used by the CLI ("SET k v
// 3600", "LPUSH fruits apple banana", ...) into a wire command. The
// verb is case-insensitive; keys and values are whitespace-delimited
// tokens.
func ParseLine(line string) (Command, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty command")
	}

	verb := strings.ToUpper(parts[0])
	args := parts[1:]

	switch Action(verb) {
	case ActionGet:
		key, err := oneKey(verb, args)
		return &Get{Key: key}, err
	case ActionGetDel:
		key, err := oneKey(verb, args)
		return &GetDel{Key: key}, err
	case ActionSet:
		if len(args) != 2 && len(args) != 3 {
			return nil, usage("SET key value [expiry_seconds]")
		}
		var ttl uint64
		if len(args) == 3 {
			var err error
			if ttl, err = strconv.ParseUint(args[2], 10, 64); err != nil {
				return nil, usage("SET key value [expiry_seconds]")
			}
		}
		return &Set{Key: args[0], Value: args[1], ExpirySeconds: ttl}, nil
	case ActionDelete, "DEL":
		if len(args) < 1 {
			return nil, usage("DELETE key [key ...]")
		}
		return &Delete{Keys: args}, nil
	case ActionLPush:
		key, values, err := keyAndValues(verb, args)
		return &LPush{Key: key, Values: values}, err
	case ActionRPush:
		key, values, err := keyAndValues(verb, args)
		return &RPush{Key: key, Values: values}, err
	case ActionLRange:
		if len(args) < 1 || len(args) > 3 {
			return nil, usage("LRANGE key [start [end]]")
		}
		c := &LRange{Key: args[0]}
		if len(args) >= 2 {
			start, err := strconv.Atoi(args[1])
			if err != nil {
				return nil, usage("LRANGE key [start [end]]")
			}
			c.Start = &start
		}
		if len(args) == 3 {
			end, err := strconv.Atoi(args[2])
			if err != nil {
				return nil, usage("LRANGE key [start [end]]")
			}
			c.End = &end
		}
		return c, nil
	case ActionLLen:
		key, err := oneKey(verb, args)
		return &LLen{Key: key}, err
	case ActionLPop:
		key, err := oneKey(verb, args)
		return &LPop{Key: key}, err
	case ActionRPop:
		key, err := oneKey(verb, args)
		return &RPop{Key: key}, err
	case ActionExists:
		key, err := oneKey(verb, args)
		return &Exists{Key: key}, err
	case ActionIncr:
		key, err := oneKey(verb, args)
		return &Incr{Key: key}, err
	case ActionIncrBy:
		key, n, err := keyAndInt(verb, args)
		return &IncrBy{Key: key, Increment: n}, err
	case ActionDecr:
		key, err := oneKey(verb, args)
		return &Decr{Key: key}, err
	case ActionDecrBy:
		key, n, err := keyAndInt(verb, args)
		return &DecrBy{Key: key, Decrement: n}, err
	case ActionSAdd:
		key, values, err := keyAndValues(verb, args)
		return &SAdd{Key: key, Values: values}, err
	case ActionSCard:
		key, err := oneKey(verb, args)
		return &SCard{Key: key}, err
	case ActionSInter:
		if len(args) < 2 {
			return nil, usage("SINTER key other [other ...]")
		}
		return &SInter{Key: args[0], Others: args[1:]}, nil
	case ActionSDiff:
		if len(args) < 2 {
			return nil, usage("SDIFF key other [other ...]")
		}
		return &SDiff{Key: args[0], Others: args[1:]}, nil
	case ActionZAdd:
		if len(args) < 3 || len(args)%2 == 0 {
			return nil, usage("ZADD key member score [member score ...]")
		}
		values := make(map[string]int64, (len(args)-1)/2)
		for i := 1; i < len(args); i += 2 {
			score, err := strconv.ParseInt(args[i+1], 10, 64)
			if err != nil {
				return nil, usage("ZADD key member score [member score ...]")
			}
			values[args[i]] = score
		}
		return &ZAdd{Key: args[0], Values: values}, nil
	case ActionZCard:
		key, err := oneKey(verb, args)
		return &ZCard{Key: key}, err
	default:
		return nil, fmt.Errorf("unknown command %q", parts[0])
	}
}

func oneKey(verb string, args []string) (string, error) {
	if len(args) != 1 {
		return "", usage(verb + " key")
	}
	return args[0], nil
}

func keyAndValues(verb string, args []string) (string, []string, error) {
	if len(args) < 2 {
		return "", nil, usage(verb + " key value [value ...]")
	}
	return args[0], args[1:], nil
}

func keyAndInt(verb string, args []string) (string, int64, error) {
	if len(args) != 2 {
		return "", 0, usage(verb + " key n")
	}
	n, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return "", 0, usage(verb + " key n")
	}
	return args[0], n, nil
}

func usage(u string) error {
	return fmt.Errorf("usage: %s", u)
}
