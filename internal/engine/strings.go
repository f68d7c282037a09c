package engine

import (
	"strconv"

	"github.com/pouchkv/pouch/internal/store"
	"github.com/pouchkv/pouch/pkg/command"
	"github.com/pouchkv/pouch/pkg/response"
)

// String handlers. All of them take the exclusive view: even a plain
// GET must be able to remove an entry it observes as expired.

func (e *Engine) get(key string, now uint64) response.Response {
	var resp response.Response
	e.dict.Update(key, func(v store.Value, ok bool) (store.Value, bool) {
		if !ok {
			resp = errResponse(response.ErrUnknownKey)
			return nil, false
		}
		s, isString := v.(*store.String)
		if !isString {
			resp = errResponse(response.ErrIncompatibleDataType)
			return v, false
		}
		if s.Expired(now) {
			resp = errResponse(response.ErrUnknownKey)
			return nil, true
		}
		resp = response.StringValue{Value: s.Data}
		return v, false
	})
	return resp
}

func (e *Engine) getDel(key string, now uint64) response.Response {
	var resp response.Response
	e.dict.Update(key, func(v store.Value, ok bool) (store.Value, bool) {
		if !ok {
			resp = errResponse(response.ErrUnknownKey)
			return nil, false
		}
		s, isString := v.(*store.String)
		if !isString {
			resp = errResponse(response.ErrIncompatibleDataType)
			return v, false
		}
		if s.Expired(now) {
			resp = errResponse(response.ErrUnknownKey)
			return nil, true
		}
		resp = response.StringValue{Value: s.Data}
		return nil, true
	})
	return resp
}

func (e *Engine) set(c *command.Set) response.Response {
	var resp response.Response
	e.dict.Update(c.Key, func(v store.Value, ok bool) (store.Value, bool) {
		if ok && v.Kind() != store.KindString {
			resp = errResponse(response.ErrIncompatibleDataType)
			return v, false
		}
		resp = response.AffectedKeys{AffectedKeys: 1}
		return &store.String{Data: c.Value, ExpiryTS: c.ExpiryTS}, false
	})
	return resp
}

func (e *Engine) delete(keys []string) response.Response {
	var deleted uint64
	for _, key := range keys {
		if e.dict.Delete(key) {
			deleted++
		}
	}
	return response.AffectedKeys{AffectedKeys: deleted}
}

func (e *Engine) exists(key string, now uint64) response.Response {
	var resp response.Response
	e.dict.Update(key, func(v store.Value, ok bool) (store.Value, bool) {
		if !ok {
			resp = response.BoolValue{Value: false}
			return nil, false
		}
		if s, isString := v.(*store.String); isString && s.Expired(now) {
			resp = response.BoolValue{Value: false}
			return nil, true
		}
		resp = response.BoolValue{Value: true}
		return v, false
	})
	return resp
}

// incrBy implements the whole INCR/INCRBY/DECR/DECRBY family; the
// callers pass the signed delta. The stored bytes must parse as a
// signed decimal 64-bit integer, and overflow is an error rather than
// a wrap-around. The value's expiry survives the rewrite.
func (e *Engine) incrBy(key string, delta int64, now uint64) response.Response {
	var resp response.Response
	e.dict.Update(key, func(v store.Value, ok bool) (store.Value, bool) {
		if !ok {
			resp = errResponse(response.ErrUnknownKey)
			return nil, false
		}
		s, isString := v.(*store.String)
		if !isString {
			resp = errResponse(response.ErrIncompatibleDataType)
			return v, false
		}
		if s.Expired(now) {
			resp = errResponse(response.ErrUnknownKey)
			return nil, true
		}
		cur, err := strconv.ParseInt(s.Data, 10, 64)
		if err != nil {
			resp = errResponse(response.ErrNotInteger)
			return v, false
		}
		next := cur + delta
		if (delta > 0 && next < cur) || (delta < 0 && next > cur) {
			resp = errResponse(response.ErrNotInteger)
			return v, false
		}
		s.Data = strconv.FormatInt(next, 10)
		resp = response.IntValue{Value: next}
		return v, false
	})
	return resp
}
