// Package engine dispatches decoded commands against the dictionary,
// enforcing type compatibility, TTL semantics and the write-ahead
// coupling: a mutating command reaches the journal before it touches
// any value, so replaying the journal reproduces the dictionary.
package engine

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/pouchkv/pouch/internal/store"
	"github.com/pouchkv/pouch/pkg/command"
	"github.com/pouchkv/pouch/pkg/response"
	"go.uber.org/zap"
)

// Journal records a mutating command durably before it is applied.
// *wal.WAL satisfies it; tests substitute fakes.
type Journal interface {
	Append(cmd command.Command) error
}

// Engine applies commands to the dictionary. It is safe for
// concurrent use; per-key exclusion comes from the dictionary's lock
// stripes and journal ordering from the journal's own lock.
type Engine struct {
	log  *zap.Logger
	dict *store.Dict

	// now returns wall-clock Unix seconds; swapped out in tests.
	now    func() uint64
	lastTS atomic.Uint64
}

func New(log *zap.Logger) *Engine {
	return &Engine{
		log:  log.Named("engine"),
		dict: store.NewDict(),
		now:  func() uint64 { return uint64(time.Now().Unix()) },
	}
}

// Apply executes one command and returns its wire response.
//
// When the command mutates and a journal is supplied, the record is
// appended (and made durable) first; on journal failure the command
// is not applied, the response is the IOFailure variant and the error
// return is non-nil so the pipeline can tear the connection down.
// Replay passes a nil journal so records are never re-appended.
func (e *Engine) Apply(cmd command.Command, journal Journal) (response.Response, error) {
	// Commands whose outcome depends on the wall clock observe it
	// once, before journaling, so a broken clock never reaches the
	// log.
	var now uint64
	switch c := cmd.(type) {
	case *command.Set, *command.Get, *command.GetDel, *command.Exists,
		*command.Incr, *command.IncrBy, *command.Decr, *command.DecrBy:
		var ok bool
		if now, ok = e.clockNow(); !ok {
			return response.Err{Error: response.ErrTimeWentBackwards}, nil
		}
		// A fresh SET resolves its absolute deadline here; replayed
		// records arrive with it already resolved.
		if set, isSet := c.(*command.Set); isSet && set.ExpiryTS == 0 {
			if set.ExpirySeconds == 0 {
				set.ExpiryTS = store.NoExpiry
			} else {
				set.ExpiryTS = now + set.ExpirySeconds
			}
		}
	}

	if journal != nil && cmd.Mutates() {
		if err := journal.Append(cmd); err != nil {
			e.log.Error("journal append failed; command dropped",
				zap.String("action", string(cmd.Action())), zap.Error(err))
			return response.Err{Error: response.ErrIOFailure}, fmt.Errorf("journal append: %w", err)
		}
	}

	switch c := cmd.(type) {
	case *command.Get:
		return e.get(c.Key, now), nil
	case *command.GetDel:
		return e.getDel(c.Key, now), nil
	case *command.Set:
		return e.set(c), nil
	case *command.Delete:
		return e.delete(c.Keys), nil
	case *command.Exists:
		return e.exists(c.Key, now), nil
	case *command.Incr:
		return e.incrBy(c.Key, 1, now), nil
	case *command.IncrBy:
		return e.incrBy(c.Key, c.Increment, now), nil
	case *command.Decr:
		return e.incrBy(c.Key, -1, now), nil
	case *command.DecrBy:
		return e.incrBy(c.Key, -c.Decrement, now), nil
	case *command.LPush:
		return e.lpush(c.Key, c.Values), nil
	case *command.RPush:
		return e.rpush(c.Key, c.Values), nil
	case *command.LPop:
		return e.lpop(c.Key), nil
	case *command.RPop:
		return e.rpop(c.Key), nil
	case *command.LRange:
		return e.lrange(c.Key, c.Start, c.End), nil
	case *command.LLen:
		return e.llen(c.Key), nil
	case *command.SAdd:
		return e.sadd(c.Key, c.Values), nil
	case *command.SCard:
		return e.scard(c.Key), nil
	case *command.SInter:
		return e.sinter(c.Key, c.Others), nil
	case *command.SDiff:
		return e.sdiff(c.Key, c.Others), nil
	case *command.ZAdd:
		return e.zadd(c.Key, c.Values), nil
	case *command.ZCard:
		return e.zcard(c.Key), nil
	default:
		return response.Err{Error: response.ErrUnknownCommand}, nil
	}
}

// clockNow reads the wall clock and ratchets the high-water mark. A
// reading earlier than one already observed reports failure instead
// of being clamped.
func (e *Engine) clockNow() (uint64, bool) {
	now := e.now()
	for {
		last := e.lastTS.Load()
		if now < last {
			return 0, false
		}
		if e.lastTS.CompareAndSwap(last, now) {
			return now, true
		}
	}
}

func errResponse(err response.Error) response.Response {
	return response.Err{Error: err}
}
