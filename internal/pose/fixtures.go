package pose

import "math"

// LandmarksAtAngle returns a preset Landmarks map whose three named joints
// form the given angle (degrees) at the middle joint. All points are fully
// visible. Intended for tests and demos.
func LandmarksAtAngle(names [3]string, degrees float64) Landmarks {
	return LandmarksAtAngleWithVisibility(names, degrees, 1.0)
}

// LandmarksAtAngleWithVisibility is like LandmarksAtAngle but assigns the
// given visibility to the first joint.
func LandmarksAtAngleWithVisibility(names [3]string, degrees, visibility float64) Landmarks {
	const radius = 0.2
	pivot := Point2D{X: 0.5, Y: 0.5}
	rad := degrees * math.Pi / 180.0

	return Landmarks{
		names[0]: {X: pivot.X + radius, Y: pivot.Y, Z: 0, Visibility: visibility},
		names[1]: {X: pivot.X, Y: pivot.Y, Z: 0, Visibility: 1.0},
		names[2]: {
			X:          pivot.X + radius*math.Cos(rad),
			Y:          pivot.Y + radius*math.Sin(rad),
			Z:          0,
			Visibility: 1.0,
		},
	}
}

// RightArm is the shoulder-elbow-wrist triple used by bicep curls.
var RightArm = [3]string{RightShoulder, RightElbow, RightWrist}
