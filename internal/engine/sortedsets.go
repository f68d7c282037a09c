package engine

import (
	"github.com/pouchkv/pouch/internal/store"
	"github.com/pouchkv/pouch/pkg/response"
)

// zadd counts newly added members only; rescoring an existing member
// does not contribute to the returned count.
func (e *Engine) zadd(key string, values map[string]int64) response.Response {
	var resp response.Response
	e.dict.Update(key, func(v store.Value, ok bool) (store.Value, bool) {
		zset := store.NewSortedSet()
		if ok {
			var isZSet bool
			if zset, isZSet = v.(*store.SortedSet); !isZSet {
				resp = errResponse(response.ErrIncompatibleDataType)
				return v, false
			}
		}
		resp = response.AffectedKeys{AffectedKeys: zset.AddAll(values, store.ModeAdded)}
		return zset, false
	})
	return resp
}

func (e *Engine) zcard(key string) response.Response {
	var resp response.Response
	e.dict.View(key, func(v store.Value, ok bool) {
		if !ok {
			resp = errResponse(response.ErrUnknownKey)
			return
		}
		zset, isZSet := v.(*store.SortedSet)
		if !isZSet {
			resp = errResponse(response.ErrIncompatibleDataType)
			return
		}
		resp = response.Count{Count: uint64(zset.Cardinality())}
	})
	return resp
}
