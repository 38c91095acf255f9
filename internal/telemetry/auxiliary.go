package telemetry

import (
	"fmt"
	"log/slog"

	"github.com/speedwagon-io/weatherflux/internal/model"
)

const (
	SuffixFilesystem = "fs"
	SuffixMQTT       = "mqtt"
	SuffixRadio      = "radio"
)

var radioStatus = map[int64]string{
	0: "off",
	1: "on",
	2: "active",
}

// auxiliary builds the hub-only records for the fs, mqtt_stats and
// radio_stats blocks, in that order.
func (f *Formatter) auxiliary(env *model.Envelope, dev model.Device, opts Options) []model.Record {
	var records []model.Record

	add := func(suffix string, tags, fields *model.Items) {
		records = append(records, model.Record{
			Measurement: dev.ID + "_" + suffix,
			Tags:        Merge(tags, opts.Tags, dev.ID),
			Fields:      Merge(fields, opts.Fields, dev.ID),
		})
	}

	if fields, ok := f.indexed(env, "fs", "fs_%d"); ok {
		add(SuffixFilesystem, model.NewItems(), fields)
	}
	if fields, ok := f.indexed(env, "mqtt_stats", "mqtt_%d"); ok {
		add(SuffixMQTT, model.NewItems(), fields)
	}
	if tags, fields, ok := f.radio(env); ok {
		add(SuffixRadio, tags, fields)
	}

	return records
}

func (f *Formatter) indexed(env *model.Envelope, key, pattern string) (*model.Items, bool) {
	if !env.Has(key) {
		return nil, false
	}
	arr, ok := env.Array(key)
	if !ok {
		f.warn(env, "hub statistics block is not an array", slog.String("block", key))
		return nil, false
	}

	fields := model.NewItems()
	for i, v := range arr {
		if v == nil {
			continue
		}
		fields.Set(fmt.Sprintf(pattern, i), v)
	}
	return fields, true
}

func (f *Formatter) radio(env *model.Envelope) (*model.Items, *model.Items, bool) {
	if !env.Has("radio_stats") {
		return nil, nil, false
	}
	stats, ok := env.Array("radio_stats")
	if !ok || len(stats) < 5 {
		f.warn(env, "radio statistics too short", slog.Int("expected", 5))
		return nil, nil, false
	}

	tags := model.NewItems()
	if code, ok := model.ToInt(stats[2]); ok {
		if status, ok := radioStatus[code]; ok {
			tags.Set("status", status)
		}
	}

	fields := model.NewItems()
	for _, p := range []struct {
		name  string
		index int
	}{
		{"version", 0},
		{"reboot", 1},
		{"ic2_bus_error", 2},
		{"network_id", 4},
	} {
		if stats[p.index] != nil {
			fields.Set(p.name, stats[p.index])
		}
	}
	return tags, fields, true
}
