package engine

import (
	"github.com/pouchkv/pouch/internal/store"
	"github.com/pouchkv/pouch/pkg/response"
)

func (e *Engine) lpush(key string, values []string) response.Response {
	return e.push(key, values, (*store.List).PushFront)
}

func (e *Engine) rpush(key string, values []string) response.Response {
	return e.push(key, values, (*store.List).PushBack)
}

// push creates the list on first use; a mismatched kind is an error
// and leaves the entry untouched.
func (e *Engine) push(key string, values []string, apply func(*store.List, []string)) response.Response {
	var resp response.Response
	e.dict.Update(key, func(v store.Value, ok bool) (store.Value, bool) {
		list := &store.List{}
		if ok {
			var isList bool
			if list, isList = v.(*store.List); !isList {
				resp = errResponse(response.ErrIncompatibleDataType)
				return v, false
			}
		}
		apply(list, values)
		resp = response.IntValue{Value: int64(list.Len())}
		return list, false
	})
	return resp
}

func (e *Engine) lpop(key string) response.Response {
	return e.pop(key, (*store.List).PopFront)
}

func (e *Engine) rpop(key string) response.Response {
	return e.pop(key, (*store.List).PopBack)
}

// pop on an empty list reports UnknownKey but keeps the (empty) list
// value in place: emptiness does not imply key absence.
func (e *Engine) pop(key string, apply func(*store.List) (string, bool)) response.Response {
	var resp response.Response
	e.dict.Update(key, func(v store.Value, ok bool) (store.Value, bool) {
		if !ok {
			resp = errResponse(response.ErrUnknownKey)
			return nil, false
		}
		list, isList := v.(*store.List)
		if !isList {
			resp = errResponse(response.ErrIncompatibleDataType)
			return v, false
		}
		el, popped := apply(list)
		if !popped {
			resp = errResponse(response.ErrUnknownKey)
			return v, false
		}
		resp = response.StringValue{Value: el}
		return v, false
	})
	return resp
}

func (e *Engine) lrange(key string, start, end *int) response.Response {
	var resp response.Response
	e.dict.View(key, func(v store.Value, ok bool) {
		if !ok {
			resp = errResponse(response.ErrUnknownKey)
			return
		}
		list, isList := v.(*store.List)
		if !isList {
			resp = errResponse(response.ErrIncompatibleDataType)
			return
		}
		resp = response.List{Values: list.Range(start, end)}
	})
	return resp
}

func (e *Engine) llen(key string) response.Response {
	var resp response.Response
	e.dict.View(key, func(v store.Value, ok bool) {
		if !ok {
			resp = errResponse(response.ErrUnknownKey)
			return
		}
		list, isList := v.(*store.List)
		if !isList {
			resp = errResponse(response.ErrIncompatibleDataType)
			return
		}
		resp = response.Count{Count: uint64(list.Len())}
	})
	return resp
}
