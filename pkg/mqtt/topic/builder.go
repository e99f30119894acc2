package topic

import (
	"fmt"
)

// Builder encapsulates the logic for constructing MQTT topic strings.
// It keeps the {root}/{segment}/{droneID} layout in one place.
type Builder struct {
	// root is the base namespace for all topics (e.g. "uav/v1").
	root string
}

// NewBuilder creates a new Builder with the specified root namespace.
func NewBuilder(root string) *Builder {
	return &Builder{root: root}
}

// Build returns the full topic for a segment and vehicle.
func (b *Builder) Build(segment, droneID string) string {
	return fmt.Sprintf("%s/%s/%s", b.root, segment, droneID)
}
