package pose

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func TestAngle(t *testing.T) {
	tests := []struct {
		name    string
		a, b, c Point2D
		want    float64
	}{
		{"right angle", Point2D{1, 0}, Point2D{0, 0}, Point2D{0, 1}, 90},
		{"straight line", Point2D{-1, 0}, Point2D{0, 0}, Point2D{1, 0}, 180},
		{"same ray", Point2D{1, 0}, Point2D{0, 0}, Point2D{2, 0}, 0},
		{"clockwise", Point2D{1, 0}, Point2D{0, 0}, Point2D{1, -1}, 45},
		{"reflex is reported as minor", Point2D{-1, 1}, Point2D{0, 0}, Point2D{-1, -1}, 90},
		{"offset pivot", Point2D{2, 1}, Point2D{1, 1}, Point2D{1, 2}, 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Angle(tt.a, tt.b, tt.c)
			if math.Abs(got-tt.want) > epsilon {
				t.Errorf("Angle() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestAngle_RangeAndSymmetry(t *testing.T) {
	b := Point2D{X: 0.5, Y: 0.5}
	for i := 0; i < 72; i++ {
		for j := 0; j < 72; j++ {
			ra := float64(i) * 5 * math.Pi / 180
			rc := float64(j) * 5 * math.Pi / 180
			a := Point2D{X: b.X + math.Cos(ra), Y: b.Y + math.Sin(ra)}
			c := Point2D{X: b.X + 0.3*math.Cos(rc), Y: b.Y + 0.3*math.Sin(rc)}

			got := Angle(a, b, c)
			if got < 0 || got > 180 {
				t.Fatalf("Angle(%v, %v, %v) = %f, outside [0, 180]", a, b, c, got)
			}
			if rev := Angle(c, b, a); math.Abs(got-rev) > 1e-6 {
				t.Fatalf("Angle not symmetric: %f vs %f", got, rev)
			}
		}
	}
}

func TestLandmarks_Coordinate(t *testing.T) {
	lms := Landmarks{
		RightElbow:    {X: 0.4, Y: 0.6, Z: 0.1, Visibility: 0.5},
		RightWrist:    {X: 0.7, Y: 0.2, Visibility: 0.4},
		RightShoulder: {X: 0.1, Y: 0.3, Visibility: 0.99},
	}

	t.Run("visibility at threshold is available", func(t *testing.T) {
		p, ok := lms.Coordinate(RightElbow)
		if !ok {
			t.Fatal("expected RIGHT_ELBOW to be available")
		}
		if p.X != 0.4 || p.Y != 0.6 {
			t.Errorf("got %v, want {0.4 0.6}", p)
		}
	})

	t.Run("visibility below threshold is unavailable", func(t *testing.T) {
		if _, ok := lms.Coordinate(RightWrist); ok {
			t.Error("expected RIGHT_WRIST with visibility 0.4 to be unavailable")
		}
	})

	t.Run("name lookup is upper-cased", func(t *testing.T) {
		if _, ok := lms.Coordinate("right_shoulder"); !ok {
			t.Error("expected lower-case lookup to find RIGHT_SHOULDER")
		}
	})

	t.Run("missing landmark", func(t *testing.T) {
		if _, ok := lms.Coordinate(LeftKnee); ok {
			t.Error("expected LEFT_KNEE to be unavailable")
		}
	})
}

func TestLandmarks_Triple(t *testing.T) {
	lms := LandmarksAtAngle(RightArm, 120)

	pts, ok := lms.Triple(RightArm)
	if !ok {
		t.Fatal("expected all three landmarks to be available")
	}
	if got := Angle(pts[0], pts[1], pts[2]); math.Abs(got-120) > 1e-6 {
		t.Errorf("angle = %f, want 120", got)
	}

	hidden := LandmarksAtAngleWithVisibility(RightArm, 120, 0.1)
	if _, ok := hidden.Triple(RightArm); ok {
		t.Error("expected triple with a hidden joint to be unavailable")
	}
}

func TestLandmarksAtAngle(t *testing.T) {
	for _, deg := range []float64{0, 30, 35, 40, 90, 160, 170, 180} {
		lms := LandmarksAtAngle(RightArm, deg)
		pts, _ := lms.Triple(RightArm)
		if got := Angle(pts[0], pts[1], pts[2]); math.Abs(got-deg) > 1e-6 {
			t.Errorf("LandmarksAtAngle(%v) produced %f", deg, got)
		}
	}
}
