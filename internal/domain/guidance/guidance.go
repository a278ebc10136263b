// Package guidance converts the geometric relationship between a user pose
// and a target frame into deterministic, human-readable navigation
// instructions: distance, relative bearing, clock position, direction text
// and a turn instruction.
//
// Bearing sign convention (fixed here and tested in both directions):
// positive = clockwise = to the user's right, negative = to the user's left,
// with yaw 0 facing +x in a right-handed map frame. The relative bearing is
// normalize(yawDeg - atan2Deg(dy, dx)), always in (-180, 180].
package guidance

import (
	"fmt"
	"math"
	"sort"

	"github.com/kailas-cloud/wayfinder/internal/domain"
)

// ArrivalThresholdMeters is the distance below which the user is considered
// to be at the target location.
const ArrivalThresholdMeters = 1.0

// straightThresholdDeg is the |bearing| below which no turn is instructed.
const straightThresholdDeg = 15.0

// Distance returns the planar Euclidean distance between two map points.
// Elevation is ignored: navigation is floor-relative.
func Distance(a, b domain.Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// NormalizeBearing wraps a bearing in degrees into (-180, 180].
// Idempotent: NormalizeBearing(NormalizeBearing(d)) == NormalizeBearing(d).
func NormalizeBearing(deg float64) float64 {
	m := math.Mod(deg, 360)
	if m <= -180 {
		m += 360
	} else if m > 180 {
		m -= 360
	}
	return m
}

// ClockPosition quantizes a relative bearing to a 1..12 clock-face hour.
// 0 degrees is 12 o'clock, +90 is 3 o'clock, -90 is 9 o'clock, 180 is 6 o'clock.
func ClockPosition(bearingDeg float64) int {
	h := int(math.Round(bearingDeg/30)) % 12
	if h < 0 {
		h += 12
	}
	if h == 0 {
		h = 12
	}
	return h
}

// Compute builds the full guidance for reaching target from the user's
// planar position and yaw (radians). The zero-distance case is handled
// before any bearing math so atan2(0, 0) never propagates.
func Compute(user domain.Point, userYawRad float64, target domain.Point, objectName string, frameID int) domain.NavigationGuidance {
	dx := target.X - user.X
	dy := target.Y - user.Y
	dist := math.Hypot(dx, dy)

	bearing := 0.0
	if dist > 0 {
		yawDeg := userYawRad * 180 / math.Pi
		targetDeg := math.Atan2(dy, dx) * 180 / math.Pi
		bearing = NormalizeBearing(yawDeg - targetDeg)
	}

	g := domain.NavigationGuidance{
		TargetObject:    objectName,
		TargetFrameID:   frameID,
		Distance:        round(dist, 2),
		Bearing:         round(bearing, 1),
		ClockPosition:   ClockPosition(bearing),
		TurnInstruction: turnInstruction(bearing),
		IsAtLocation:    dist < ArrivalThresholdMeters,
	}

	if g.IsAtLocation {
		// Short-circuit to an arrival message; the remaining fields stay
		// populated but are informational only.
		g.Direction = fmt.Sprintf("You have arrived: %s is within a meter of you", objectName)
	} else {
		g.Direction = directionText(bearing, dist)
	}
	return g
}

// SelectNearest annotates every candidate with its distance from the user and
// picks the closest one. Candidates are returned sorted by ascending distance;
// equal distances are broken by the lower frame id. ok is false when there are
// no candidates, which callers report as a no-matches outcome, not an error.
func SelectNearest(user domain.Point, candidates []domain.SearchMatch) (nearestFrameID int, annotated []domain.SearchMatch, ok bool) {
	if len(candidates) == 0 {
		return 0, nil, false
	}

	annotated = make([]domain.SearchMatch, len(candidates))
	for i, m := range candidates {
		d := Distance(user, m.Position)
		m.DistanceFromUser = &d
		annotated[i] = m
	}

	sort.SliceStable(annotated, func(i, j int) bool {
		di, dj := *annotated[i].DistanceFromUser, *annotated[j].DistanceFromUser
		if di != dj {
			return di < dj
		}
		return annotated[i].FrameID < annotated[j].FrameID
	})

	return annotated[0].FrameID, annotated, true
}

// turnInstruction renders the bearing as a spoken turn.
func turnInstruction(bearingDeg float64) string {
	if math.Abs(bearingDeg) < straightThresholdDeg {
		return "Continue straight"
	}
	side := "right"
	if bearingDeg < 0 {
		side = "left"
	}
	return fmt.Sprintf("Turn %d° to your %s", int(math.Round(math.Abs(bearingDeg))), side)
}

// directionText composes an 8-sector direction with a coarse distance qualifier.
func directionText(bearingDeg, dist float64) string {
	sector := sectorText(bearingDeg)

	switch {
	case dist < 1.0:
		return capitalize(sector) + ", very close"
	case dist < 3.0:
		// Round to the nearest half meter.
		return fmt.Sprintf("%s, about %g meters", capitalize(sector), math.Round(dist*2)/2)
	case dist < 10.0:
		return fmt.Sprintf("%s, roughly %d meters", capitalize(sector), int(math.Round(dist)))
	default:
		return fmt.Sprintf("%s, approximately %d meters away", capitalize(sector), int(math.Round(dist/5))*5)
	}
}

// sectorText maps a bearing to one of 8 compass sectors relative to the user.
func sectorText(b float64) string {
	switch {
	case b >= -22.5 && b <= 22.5:
		return "straight ahead"
	case b > 22.5 && b <= 67.5:
		return "ahead and to your right"
	case b > 67.5 && b <= 112.5:
		return "on your right"
	case b > 112.5 && b <= 157.5:
		return "behind you on the right"
	case b > 157.5 || b < -157.5:
		return "directly behind you"
	case b >= -157.5 && b < -112.5:
		return "behind you on the left"
	case b >= -112.5 && b < -67.5:
		return "on your left"
	default:
		return "ahead and to your left"
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
