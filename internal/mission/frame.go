package mission

import "math"

// FrameConvention selects how a detection's frame coordinates are encoded by
// the perception pipeline.
type FrameConvention int

const (
	// FramePixels means coordinates are pixels with the origin at the
	// top-left corner of the image (marker detections).
	FramePixels FrameConvention = iota

	// FrameNormalized means coordinates are in [0, 1] with the origin at the
	// top-left corner (payload-target detections).
	FrameNormalized
)

// FrameCoord is a detection location in the perception pipeline's native units.
type FrameCoord struct {
	X float64
	Y float64
}

// FrameRef describes the reference frame a FrameCoord lives in. Width and
// Height are only meaningful for FramePixels.
type FrameRef struct {
	Convention FrameConvention
	Width      float64
	Height     float64
}

// TranslateFrame maps a camera-frame detection to a world-frame ground
// coordinate, given the vehicle's current position, the assumed height above
// ground and the camera's field of view (radians per axis).
//
// The coordinate is first normalized to [-1, 1] relative to the frame center,
// then scaled by altitude*tan(fov/2) per axis and added to the vehicle
// position. This is a flat-ground approximation with a nadir-pointing camera,
// not a general 3D projection: it assumes the target lies on the ground plane
// directly below the camera's view cone.
func TranslateFrame(c FrameCoord, ref FrameRef, vehicle Waypoint, altitude, fovX, fovY float64) (x, y float64) {
	var nx, ny float64
	switch ref.Convention {
	case FramePixels:
		nx = (c.X - ref.Width/2) / (ref.Width / 2)
		ny = (c.Y - ref.Height/2) / (ref.Height / 2)
	default:
		nx = (c.X - 0.5) / 0.5
		ny = (c.Y - 0.5) / 0.5
	}

	offsetX := nx * altitude * math.Tan(fovX/2)
	offsetY := ny * altitude * math.Tan(fovY/2)

	return vehicle.X + offsetX, vehicle.Y + offsetY
}
