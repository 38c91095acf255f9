package model

import "strings"

type Category string

const (
	CategoryAir     Category = "Air"
	CategorySky     Category = "Sky"
	CategoryTempest Category = "Tempest"
	CategoryHub     Category = "Hub"
	CategoryUnknown Category = "Unknown"
)

var categoryByPrefix = map[string]Category{
	"AR": CategoryAir,
	"SK": CategorySky,
	"ST": CategoryTempest,
	"HB": CategoryHub,
}

// Describe returns the human readable device kind used in notices.
func (c Category) Describe() string {
	switch c {
	case CategoryHub:
		return "Hub"
	case CategoryUnknown:
		return "unknown device"
	default:
		return string(c) + " device"
	}
}

// Device is derived from an envelope on every message and never stored as
// a whole.
type Device struct {
	ID               string
	Category         Category
	IsHub            bool
	Uptime           int64
	FirmwareRevision int64
}

func (d Device) Prefix() string {
	if len(d.ID) < 2 {
		return d.ID
	}
	return d.ID[:2]
}

func CategoryOf(id string) Category {
	if len(id) < 2 {
		return CategoryUnknown
	}
	if c, ok := categoryByPrefix[strings.ToUpper(id[:2])]; ok {
		return c
	}
	return CategoryUnknown
}

func IdentifyDevice(e *Envelope) Device {
	id := strings.ToUpper(e.SerialNumber)
	category := CategoryOf(id)

	d := Device{
		ID:       id,
		Category: category,
		IsHub:    category == CategoryHub,
	}
	if v, ok := e.Int("uptime"); ok {
		d.Uptime = v
	}
	if v, ok := e.Int("firmware_revision"); ok {
		d.FirmwareRevision = v
	}
	return d
}
