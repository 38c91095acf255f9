package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Items is an insertion-ordered key/value set. Setting an existing key
// replaces its value but keeps its original position. The zero value is
// ready to use.
type Items struct {
	keys   []string
	values map[string]any
}

func NewItems() *Items {
	return &Items{values: make(map[string]any)}
}

// ItemsOf builds Items from alternating key/value pairs.
func ItemsOf(kv ...any) *Items {
	it := NewItems()
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		it.Set(key, kv[i+1])
	}
	return it
}

func (it *Items) Set(key string, value any) {
	if it.values == nil {
		it.values = make(map[string]any)
	}
	if _, exists := it.values[key]; !exists {
		it.keys = append(it.keys, key)
	}
	it.values[key] = value
}

func (it *Items) Get(key string) (any, bool) {
	if it == nil || it.values == nil {
		return nil, false
	}
	v, ok := it.values[key]
	return v, ok
}

func (it *Items) Has(key string) bool {
	_, ok := it.Get(key)
	return ok
}

func (it *Items) Delete(key string) {
	if it == nil || it.values == nil {
		return
	}
	if _, ok := it.values[key]; !ok {
		return
	}
	delete(it.values, key)
	for i, k := range it.keys {
		if k == key {
			it.keys = append(it.keys[:i], it.keys[i+1:]...)
			break
		}
	}
}

func (it *Items) Len() int {
	if it == nil {
		return 0
	}
	return len(it.keys)
}

// Keys returns a copy of the keys in order.
func (it *Items) Keys() []string {
	if it == nil {
		return nil
	}
	out := make([]string, len(it.keys))
	copy(out, it.keys)
	return out
}

// Each calls fn for every item in order until fn returns false.
func (it *Items) Each(fn func(key string, value any) bool) {
	if it == nil {
		return
	}
	for _, k := range it.keys {
		if !fn(k, it.values[k]) {
			return
		}
	}
}

func (it *Items) Clone() *Items {
	out := NewItems()
	it.Each(func(k string, v any) bool {
		out.Set(k, v)
		return true
	})
	return out
}

// Overlay writes every item of other over it, last write wins.
func (it *Items) Overlay(other *Items) {
	other.Each(func(k string, v any) bool {
		it.Set(k, v)
		return true
	})
}

func (it *Items) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range it.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(it.values[k])
		if err != nil {
			return nil, fmt.Errorf("marshal item %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON keeps the key order of the document. An empty JSON array is
// accepted as an empty set.
func (it *Items) UnmarshalJSON(data []byte) error {
	*it = Items{values: make(map[string]any)}

	dec := json.NewDecoder(bytes.NewReader(data))
	start, err := openObject(dec)
	if err != nil || !start {
		return err
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected key token %v", tok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("decode item %q: %w", key, err)
		}
		it.Set(key, v)
	}

	_, err = dec.Token()
	return err
}

// openObject consumes the opening token. It reports false when the value is
// null or an empty array, both of which decode to an empty set.
func openObject(dec *json.Decoder) (bool, error) {
	tok, err := dec.Token()
	if err != nil {
		return false, err
	}

	switch d := tok.(type) {
	case nil:
		return false, nil
	case json.Delim:
		switch d {
		case '{':
			return true, nil
		case '[':
			end, err := dec.Token()
			if err != nil {
				return false, err
			}
			if end != json.Delim(']') {
				return false, fmt.Errorf("expected object or empty array")
			}
			return false, nil
		}
	}

	return false, fmt.Errorf("expected object, got %v", tok)
}
