package telemetry

import "github.com/speedwagon-io/weatherflux/internal/model"

// Merge overlays the global, category and device scopes of static onto a
// copy of dynamic. Later scopes win; a key keeps the position of its first
// appearance.
func Merge(dynamic *model.Items, static model.StaticMetadata, deviceID string) *model.Items {
	out := dynamic.Clone()
	for _, scope := range static.Scopes(deviceID) {
		out.Overlay(scope)
	}
	return out
}

// MergeLine is Merge serialized as comma-joined key=value pairs.
func MergeLine(dynamic *model.Items, static model.StaticMetadata, deviceID string) string {
	return Merge(dynamic, static, deviceID).Line()
}
