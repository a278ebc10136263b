package domain

// FrameRecord is one previously mapped observation: a fixed planar position
// and the object descriptions recorded there. Created at map-build time and
// read-only from this service's perspective.
type FrameRecord struct {
	FrameID            int
	Position           Point
	ObjectDescriptions []string
}

// SearchMatch is a per-request view of a frame that matched an object query.
// DistanceFromUser is filled in by the nearest-frame selector once a pose is
// known; it stays nil when localization did not succeed.
type SearchMatch struct {
	FrameID             int
	Position            Point
	MatchedDescriptions []string
	DistanceFromUser    *float64
}
