package model

// Values is the positional value source of an envelope, resolved once per
// message.
type Values interface {
	// Positional returns the values in schema order.
	Positional() []any
}

// EventValues come from the "evt" key.
type EventValues []any

func (v EventValues) Positional() []any { return v }

// SingleObservation comes from the "ob" key. It carries one value less than
// its schema and is padded with a trailing zero.
type SingleObservation []any

func (v SingleObservation) Positional() []any {
	out := make([]any, 0, len(v)+1)
	out = append(out, v...)
	return append(out, float64(0))
}

// ObservationBatch comes from the "obs" key. Only the first observation is
// used.
type ObservationBatch [][]any

func (v ObservationBatch) Positional() []any {
	if len(v) == 0 {
		return nil
	}
	return v[0]
}

type Scalar struct {
	Name  string
	Value any
}

// Scalars are the status values sent as named keys instead of an array.
type Scalars []Scalar

func (v Scalars) Positional() []any {
	out := make([]any, len(v))
	for i, s := range v {
		out[i] = s.Value
	}
	return out
}

// ScalarKeys lists the named keys folded into Scalars, in positional order.
var ScalarKeys = []string{"uptime", "voltage", "firmware_revision", "rssi", "hub_rssi"}

// ResolveValues picks the positional source by priority evt, ob, obs[0], and
// falls back to the named scalars. Empty or malformed arrays are skipped.
func ResolveValues(raw map[string]any) Values {
	if evt, ok := raw["evt"].([]any); ok && len(evt) > 0 {
		return EventValues(evt)
	}
	if ob, ok := raw["ob"].([]any); ok && len(ob) > 0 {
		return SingleObservation(ob)
	}
	if obs, ok := raw["obs"].([]any); ok && len(obs) > 0 {
		if first, ok := obs[0].([]any); ok && len(first) > 0 {
			batch := make(ObservationBatch, 0, len(obs))
			for _, o := range obs {
				if arr, ok := o.([]any); ok {
					batch = append(batch, arr)
				}
			}
			return batch
		}
	}

	scalars := make(Scalars, 0, len(ScalarKeys))
	for _, key := range ScalarKeys {
		if v, ok := raw[key]; ok {
			scalars = append(scalars, Scalar{Name: key, Value: v})
		}
	}
	return scalars
}
