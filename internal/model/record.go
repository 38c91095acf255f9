package model

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Record is one metric record ready to be written as a line.
type Record struct {
	Measurement string
	Tags        *Items
	Fields      *Items
}

// Line renders measurement[,tags][ fields]; empty segments are omitted.
func (r Record) Line() string {
	var b strings.Builder
	b.WriteString(r.Measurement)
	if tags := r.Tags.Line(); tags != "" {
		b.WriteByte(',')
		b.WriteString(tags)
	}
	if fields := r.Fields.Line(); fields != "" {
		b.WriteByte(' ')
		b.WriteString(fields)
	}
	return b.String()
}

// Line renders the items as comma-joined key=value pairs.
func (it *Items) Line() string {
	if it.Len() == 0 {
		return ""
	}
	parts := make([]string, 0, it.Len())
	it.Each(func(k string, v any) bool {
		parts = append(parts, k+"="+FormatValue(v))
		return true
	})
	return strings.Join(parts, ",")
}

var valueCleaner = strings.NewReplacer(",", "", ";", "", " ", `\ `)

// CleanString strips commas and semicolons and escapes spaces.
func CleanString(s string) string {
	return valueCleaner.Replace(s)
}

// FormatValue renders a tag or field value. Strings are cleaned, numbers are
// written plainly.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return CleanString(val)
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return formatFloat(val)
	case float32:
		return formatFloat(float64(val))
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case json.Number:
		return val.String()
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return CleanString(string(b))
	}
}

func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ToFloat converts a decoded JSON number (or numeric string) to float64.
func ToFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case int32:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// ToInt converts a decoded JSON number (or numeric string) to int64,
// truncating fractions.
func ToInt(v any) (int64, bool) {
	switch val := v.(type) {
	case int:
		return int64(val), true
	case int64:
		return val, true
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64); err == nil {
			return i, true
		}
	}
	f, ok := ToFloat(v)
	if !ok {
		return 0, false
	}
	return int64(f), true
}
