// Package pose provides body landmark types, joint-angle geometry and the
// websocket message codec for the rep-counting service.
package pose

import (
	"math"
	"strings"
)

// Body landmark names following the MediaPipe Pose convention.
// See: https://developers.google.com/mediapipe/solutions/vision/pose_landmarker
const (
	LeftShoulder  = "LEFT_SHOULDER"
	RightShoulder = "RIGHT_SHOULDER"
	LeftElbow     = "LEFT_ELBOW"
	RightElbow    = "RIGHT_ELBOW"
	LeftWrist     = "LEFT_WRIST"
	RightWrist    = "RIGHT_WRIST"
	LeftHip       = "LEFT_HIP"
	RightHip      = "RIGHT_HIP"
	LeftKnee      = "LEFT_KNEE"
	RightKnee     = "RIGHT_KNEE"
	LeftAnkle     = "LEFT_ANKLE"
	RightAnkle    = "RIGHT_ANKLE"
)

// MinVisibility is the lowest visibility score at which a landmark is usable.
const MinVisibility = 0.5

// Point2D is a point in normalized image coordinates.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Landmark is a single detected body keypoint.
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// Landmarks maps a landmark name to its detected keypoint.
type Landmarks map[string]Landmark

// Sample is one inbound pose message. A nil Landmarks map marks an idle tick.
type Sample struct {
	Landmarks Landmarks
	Exercise  string
}

// HasLandmarks reports whether the sample carries landmark data.
func (s Sample) HasLandmarks() bool {
	return s.Landmarks != nil
}

// Coordinate returns the 2D position of the named landmark.
// The name is upper-cased before lookup. It returns false when the landmark
// is missing or its visibility is below MinVisibility. Only x and y are used;
// depth and visibility do not enter the angle math.
func (l Landmarks) Coordinate(name string) (Point2D, bool) {
	lm, ok := l[strings.ToUpper(name)]
	if !ok || lm.Visibility < MinVisibility {
		return Point2D{}, false
	}
	return Point2D{X: lm.X, Y: lm.Y}, true
}

// Triple extracts the three named coordinates in order.
// It returns false if any of them is unavailable.
func (l Landmarks) Triple(names [3]string) ([3]Point2D, bool) {
	var pts [3]Point2D
	for i, name := range names {
		p, ok := l.Coordinate(name)
		if !ok {
			return pts, false
		}
		pts[i] = p
	}
	return pts, true
}

// Angle returns the angle in degrees at b formed by the rays b->a and b->c.
// The result is always the minor angle, in the range [0, 180].
func Angle(a, b, c Point2D) float64 {
	radians := math.Atan2(c.Y-b.Y, c.X-b.X) - math.Atan2(a.Y-b.Y, a.X-b.X)
	angle := math.Abs(radians * 180.0 / math.Pi)

	if angle > 180.0 {
		angle = 360 - angle
	}

	return angle
}
