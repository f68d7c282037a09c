package engine

import (
	"sort"

	"github.com/pouchkv/pouch/internal/store"
	"github.com/pouchkv/pouch/pkg/response"
)

func (e *Engine) sadd(key string, values []string) response.Response {
	var resp response.Response
	e.dict.Update(key, func(v store.Value, ok bool) (store.Value, bool) {
		set := store.NewSet()
		if ok {
			var isSet bool
			if set, isSet = v.(*store.Set); !isSet {
				resp = errResponse(response.ErrIncompatibleDataType)
				return v, false
			}
		}
		resp = response.AffectedKeys{AffectedKeys: set.Add(values)}
		return set, false
	})
	return resp
}

func (e *Engine) scard(key string) response.Response {
	var resp response.Response
	e.dict.View(key, func(v store.Value, ok bool) {
		if !ok {
			resp = errResponse(response.ErrUnknownKey)
			return
		}
		set, isSet := v.(*store.Set)
		if !isSet {
			resp = errResponse(response.ErrIncompatibleDataType)
			return
		}
		resp = response.Count{Count: uint64(set.Card())}
	})
	return resp
}

// sinter intersects the anchor with each other key. Any other key
// that is absent (or holds a different kind) collapses the result to
// the empty set. Keys are visited one at a time — never two locks at
// once — so the result is a consistent-per-key, not cross-key-atomic,
// view.
func (e *Engine) sinter(key string, others []string) response.Response {
	members, resp := e.setSnapshot(key)
	if resp != nil {
		return resp
	}

	for _, other := range others {
		if len(members) == 0 {
			break
		}
		otherMembers, ok := e.trySetSnapshot(other)
		if !ok {
			members = nil
			break
		}
		kept := members[:0]
		for _, m := range members {
			if _, in := otherMembers[m]; in {
				kept = append(kept, m)
			}
		}
		members = kept
	}
	return setResponse(members)
}

// sdiff subtracts each other key from the anchor; missing (or
// mismatched) other keys are skipped.
func (e *Engine) sdiff(key string, others []string) response.Response {
	members, resp := e.setSnapshot(key)
	if resp != nil {
		return resp
	}

	for _, other := range others {
		if len(members) == 0 {
			break
		}
		otherMembers, ok := e.trySetSnapshot(other)
		if !ok {
			continue
		}
		kept := members[:0]
		for _, m := range members {
			if _, in := otherMembers[m]; !in {
				kept = append(kept, m)
			}
		}
		members = kept
	}
	return setResponse(members)
}

// setSnapshot copies the anchor set's members out under its lock,
// distinguishing the protocol errors of an anchor lookup.
func (e *Engine) setSnapshot(key string) ([]string, response.Response) {
	var members []string
	var resp response.Response
	e.dict.View(key, func(v store.Value, ok bool) {
		if !ok {
			resp = errResponse(response.ErrUnknownKey)
			return
		}
		set, isSet := v.(*store.Set)
		if !isSet {
			resp = errResponse(response.ErrIncompatibleDataType)
			return
		}
		members = set.Members()
	})
	return members, resp
}

// trySetSnapshot copies a non-anchor set's members; a missing key or
// a different kind both read as "not a set here".
func (e *Engine) trySetSnapshot(key string) (map[string]struct{}, bool) {
	var members map[string]struct{}
	var found bool
	e.dict.View(key, func(v store.Value, ok bool) {
		set, isSet := v.(*store.Set)
		if !ok || !isSet {
			return
		}
		found = true
		members = make(map[string]struct{}, set.Card())
		for _, m := range set.Members() {
			members[m] = struct{}{}
		}
	})
	return members, found
}

func setResponse(members []string) response.Response {
	if members == nil {
		members = []string{}
	}
	sort.Strings(members)
	return response.Set{Values: members}
}
