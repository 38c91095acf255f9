package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Wildcard is the scope key applying to every device.
const Wildcard = "*"

// StaticMetadata maps a scope key to its configured items. A scope key is
// "*", a two-character device prefix followed by "*", or an exact device id.
type StaticMetadata map[string]*Items

// Scopes returns the items that apply to deviceID, lowest precedence first:
// global, category prefix, exact device.
func (sm StaticMetadata) Scopes(deviceID string) []*Items {
	if len(sm) == 0 {
		return nil
	}

	keys := []string{Wildcard}
	if len(deviceID) >= 2 {
		keys = append(keys, deviceID[:2]+Wildcard)
	}
	keys = append(keys, deviceID)

	out := make([]*Items, 0, len(keys))
	for _, k := range keys {
		if it, ok := sm[k]; ok && it != nil {
			out = append(out, it)
		}
	}
	return out
}

// Normalized returns a deep copy whose scope keys are upper-cased, so they
// match upper-cased device ids. Scopes colliding after upper-casing are
// overlaid in sorted key order.
func (sm StaticMetadata) Normalized() StaticMetadata {
	out := make(StaticMetadata, len(sm))
	for _, k := range sortedKeys(sm) {
		key := strings.ToUpper(strings.TrimSpace(k))
		if existing, ok := out[key]; ok {
			existing.Overlay(sm[k])
			continue
		}
		out[key] = sm[k].Clone()
	}
	return out
}

// Clone returns a deep copy.
func (sm StaticMetadata) Clone() StaticMetadata {
	out := make(StaticMetadata, len(sm))
	for k, it := range sm {
		out[k] = it.Clone()
	}
	return out
}

// UnmarshalJSON accepts an object of objects, or an empty array for an
// empty set.
func (sm *StaticMetadata) UnmarshalJSON(data []byte) error {
	out := make(StaticMetadata)

	dec := json.NewDecoder(bytes.NewReader(data))
	start, err := openObject(dec)
	if err != nil {
		return err
	}
	if !start {
		*sm = out
		return nil
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		scope, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected scope token %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("decode scope %q: %w", scope, err)
		}
		it := NewItems()
		if err := it.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("decode scope %q: %w", scope, err)
		}
		out[scope] = it
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*sm = out
	return nil
}

func sortedKeys(sm StaticMetadata) []string {
	keys := make([]string, 0, len(sm))
	for k := range sm {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
