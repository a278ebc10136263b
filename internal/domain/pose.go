package domain

// Point is a planar map position in meters. Navigation is floor-relative,
// so frame positions and guidance math use x/y only.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Position is a 3D map position in meters.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Orientation holds Euler angles in radians.
type Orientation struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// Pose is a 6-DoF pose produced by the localization engine.
// Immutable once returned; owned by the request that produced it.
type Pose struct {
	Position    Position    `json:"position"`
	Orientation Orientation `json:"orientation"`
}

// Point returns the planar projection of the pose position.
func (p Pose) Point() Point {
	return Point{X: p.Position.X, Y: p.Position.Y}
}

// Localization is the full result of a successful localization call:
// the pose plus engine-reported metadata.
type Localization struct {
	Pose             Pose
	DetectedObjects  []string
	PictureID        string
	ProcessingTimeMs float64
}
