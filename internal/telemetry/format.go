package telemetry

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/speedwagon-io/weatherflux/internal/model"
)

// Options is the part of the configuration the formatter reads. Callers
// pass one immutable value per message.
type Options struct {
	Tags   model.StaticMetadata
	Fields model.StaticMetadata
	Strict bool
}

// Formatter builds metric records from envelopes. It keeps no state other
// than its warning counter and is safe for concurrent use.
type Formatter struct {
	log      *slog.Logger
	warnings atomic.Int64

	// OnWarning, when set before use, is called once per data-format warning.
	OnWarning func()
}

func NewFormatter(log *slog.Logger) *Formatter {
	return &Formatter{log: log}
}

// Warnings returns the number of data-format warnings raised so far.
func (f *Formatter) Warnings() int64 {
	return f.warnings.Load()
}

// Format returns the main record of the envelope followed by the hub
// auxiliary records, if any. Data-format problems degrade the output and
// are logged; only an unknown message type is an error.
func (f *Formatter) Format(env *model.Envelope, opts Options) ([]model.Record, error) {
	suffix, err := Suffix(env.Type)
	if err != nil {
		return nil, fmt.Errorf("failed to format %s: %w", env.SerialNumber, err)
	}

	dev := model.IdentifyDevice(env)

	records := []model.Record{{
		Measurement: dev.ID + "_" + suffix,
		Tags:        Merge(f.dynamicTags(env, dev), opts.Tags, dev.ID),
		Fields:      Merge(f.dynamicFields(env, opts.Strict), opts.Fields, dev.ID),
	}}

	if dev.IsHub {
		records = append(records, f.auxiliary(env, dev, opts)...)
	}
	return records, nil
}

// FormatLines is Format rendered to line protocol.
func (f *Formatter) FormatLines(env *model.Envelope, opts Options) ([]string, error) {
	records, err := f.Format(env, opts)
	if err != nil {
		return nil, err
	}
	lines := make([]string, len(records))
	for i, r := range records {
		lines[i] = r.Line()
	}
	return lines, nil
}

func (f *Formatter) dynamicTags(env *model.Envelope, dev model.Device) *model.Items {
	tags := model.NewItems()

	switch env.Type {
	case TypePrecipitation:
		tags.Set("event", "precipitation")
	case TypeStrike:
		tags.Set("event", "strike")
	case TypeObsSky:
		f.precipitationType(env, tags, 12)
	case TypeObsTempest:
		f.precipitationType(env, tags, 13)
	case TypeDeviceStatus:
		if hub, ok := env.String("hub_sn"); ok {
			tags.Set("hub", hub)
		}
		if mask, ok := env.Int("sensor_status"); ok {
			if status, ok := DecodeSensorStatus(dev.Prefix(), mask); ok {
				tags.Overlay(status)
			}
		}
	case TypeHubStatus:
		if flags, ok := env.String("reset_flags"); ok {
			tags.Overlay(DecodeResetFlags(flags))
		}
	}

	return tags
}

func (f *Formatter) precipitationType(env *model.Envelope, tags *model.Items, index int) {
	schema, _ := SchemaFor(env.Type)

	obs, ok := env.Array("obs")
	if !ok || len(obs) == 0 {
		f.warn(env, "no observation to read precipitation type from")
		return
	}
	first, ok := obs[0].([]any)
	if !ok || len(first) != len(schema) {
		f.warn(env, "observation length does not match schema",
			slog.Int("expected", len(schema)),
		)
		return
	}

	kind := "none"
	if v, ok := model.ToInt(first[index]); ok {
		switch v {
		case 1:
			kind = "rain"
		case 2:
			kind = "hail"
		}
	}
	tags.Set("precipitation_type", kind)
}

func (f *Formatter) dynamicFields(env *model.Envelope, strict bool) *model.Items {
	fields := model.NewItems()
	schema, _ := SchemaFor(env.Type)

	var values []any
	if env.Values != nil {
		values = env.Values.Positional()
	}
	if len(values) != len(schema) {
		f.warn(env, "value count does not match schema",
			slog.Int("expected", len(schema)),
			slog.Int("got", len(values)),
		)
		return fields
	}

	for i, name := range schema {
		if IsForgotten(name) || values[i] == nil {
			continue
		}
		fields.Set(name, values[i])
	}

	return Normalize(fields, strict)
}

func (f *Formatter) warn(env *model.Envelope, msg string, attrs ...any) {
	f.warnings.Add(1)
	if f.OnWarning != nil {
		f.OnWarning()
	}
	if f.log == nil {
		return
	}
	args := append([]any{
		slog.String("serial", env.SerialNumber),
		slog.String("type", env.Type),
	}, attrs...)
	f.log.Warn(msg, args...)
}
