package pattern

import (
	"image"
	"reflect"
	"testing"
)

func TestCoordinatesSimpleAnchors(t *testing.T) {
	logo := image.Pt(40, 20)
	canvas := image.Pt(200, 100)

	cases := []struct {
		pattern Pattern
		want    image.Point
	}{
		{TopLeft, image.Pt(0, 0)},
		{TopMiddle, image.Pt(80, 0)},
		{TopRight, image.Pt(160, 0)},
		{CenterLeft, image.Pt(0, 40)},
		{Center, image.Pt(80, 40)},
		{CenterMax, image.Pt(80, 40)},
		{CenterHalf, image.Pt(80, 40)},
		{CenterRight, image.Pt(160, 40)},
		{BottomLeft, image.Pt(0, 80)},
		{BottomMiddle, image.Pt(80, 80)},
		{BottomRight, image.Pt(160, 80)},
	}

	for _, tc := range cases {
		t.Run(string(tc.pattern), func(t *testing.T) {
			got := Coordinates(tc.pattern, logo, canvas)
			if len(got) != 1 || got[0] != tc.want {
				t.Fatalf("expected [%v], got %v", tc.want, got)
			}
		})
	}
}

func TestCoordinatesMidpointTruncatesEachHalf(t *testing.T) {
	// 100/2 - 11/2 = 45 while (100-11)/2 = 44.
	got := Coordinates(Center, image.Pt(11, 7), image.Pt(100, 50))
	want := []image.Point{{45, 22}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	got = Coordinates(BottomMiddle, image.Pt(11, 7), image.Pt(100, 50))
	want = []image.Point{{45, 43}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestCoordinatesCorners(t *testing.T) {
	got := Coordinates(Corners, image.Pt(10, 10), image.Pt(100, 100))
	want := []image.Point{{0, 0}, {90, 0}, {0, 90}, {90, 90}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestCoordinates3x3(t *testing.T) {
	logo := image.Pt(30, 12)
	canvas := image.Pt(640, 480)

	ring := Coordinates(Ring3x3, logo, canvas)
	if len(ring) != 8 {
		t.Fatalf("expected 8 ring coordinates, got %d", len(ring))
	}
	center := Coordinates(Center, logo, canvas)[0]
	for _, pt := range ring {
		if pt == center {
			t.Fatalf("ring must not contain center %v", center)
		}
	}

	order := []Pattern{TopLeft, TopMiddle, TopRight, CenterLeft, CenterRight, BottomLeft, BottomMiddle, BottomRight}
	for i, p := range order {
		if want := Coordinates(p, logo, canvas)[0]; ring[i] != want {
			t.Fatalf("ring[%d] expected %v (%s), got %v", i, want, p, ring[i])
		}
	}

	full := Coordinates(Full3x3, logo, canvas)
	if len(full) != 9 {
		t.Fatalf("expected 9 full coordinates, got %d", len(full))
	}
	if !reflect.DeepEqual(full[:8], ring) || full[8] != center {
		t.Fatalf("3x3full must be the ring followed by center, got %v", full)
	}
}

func TestCoordinates4x4(t *testing.T) {
	logo := image.Pt(10, 10)
	canvas := image.Pt(100, 70)

	// columns: 0, int(10 + 60/3)=30, int(80 - 20)=60, 90
	// rows:    0, int(10 + 30/3)=20, int(50 - 10)=40, 60
	full := Coordinates(Full4x4, logo, canvas)
	wantFull := []image.Point{
		{0, 20}, {0, 40},
		{30, 20}, {30, 40},
		{60, 20}, {60, 40},
		{90, 20}, {90, 40},
	}
	if !reflect.DeepEqual(full, wantFull) {
		t.Fatalf("4x4full expected %v, got %v", wantFull, full)
	}

	ring := Coordinates(Ring4x4, logo, canvas)
	wantRing := []image.Point{
		{0, 0}, {0, 60},
		{30, 0}, {30, 60},
		{60, 0}, {60, 60},
		{90, 0}, {90, 60},
		{0, 20}, {0, 40},
		{90, 20}, {90, 40},
	}
	if !reflect.DeepEqual(ring, wantRing) {
		t.Fatalf("4x4ring expected %v, got %v", wantRing, ring)
	}
}

func TestCoordinates4x4Counts(t *testing.T) {
	sizes := []struct{ logo, canvas image.Point }{
		{image.Pt(1, 1), image.Pt(1, 1)},
		{image.Pt(33, 17), image.Pt(1024, 768)},
		{image.Pt(300, 200), image.Pt(400, 300)},
	}
	for _, s := range sizes {
		if n := len(Coordinates(Full4x4, s.logo, s.canvas)); n != 8 {
			t.Fatalf("4x4full for %v on %v: expected 8, got %d", s.logo, s.canvas, n)
		}
		if n := len(Coordinates(Ring4x4, s.logo, s.canvas)); n != 12 {
			t.Fatalf("4x4ring for %v on %v: expected 12, got %d", s.logo, s.canvas, n)
		}
	}
}

func TestCoordinatesStayInsideCanvas(t *testing.T) {
	canvases := []image.Point{{200, 100}, {101, 77}, {960, 540}, {37, 400}}
	for _, canvas := range canvases {
		for _, p := range All() {
			for _, logo := range []image.Point{{1, 1}, {canvas.X / 4, canvas.Y / 3}, {canvas.X / 2, canvas.Y}, canvas} {
				for _, pt := range Coordinates(p, logo, canvas) {
					if pt.X < 0 || pt.X > canvas.X-logo.X || pt.Y < 0 || pt.Y > canvas.Y-logo.Y {
						t.Fatalf("%s: point %v outside canvas %v for logo %v", p, pt, canvas, logo)
					}
				}
			}
		}
	}
}

func TestCoordinatesOversizedLogoGoesNegative(t *testing.T) {
	got := Coordinates(BottomRight, image.Pt(120, 60), image.Pt(100, 50))
	want := []image.Point{{-20, -10}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestCoordinatesDeterministic(t *testing.T) {
	for _, p := range All() {
		a := Coordinates(p, image.Pt(23, 9), image.Pt(333, 222))
		b := Coordinates(p, image.Pt(23, 9), image.Pt(333, 222))
		if !reflect.DeepEqual(a, b) {
			t.Fatalf("%s: coordinates not stable", p)
		}
		if len(a) == 0 {
			t.Fatalf("%s: no coordinates", p)
		}
	}
	if got := Coordinates(Pattern("Nowhere"), image.Pt(1, 1), image.Pt(2, 2)); got != nil {
		t.Fatalf("expected nil for unknown pattern, got %v", got)
	}
}

func TestDefaultRatio(t *testing.T) {
	cases := map[Pattern]float64{
		CenterMax:   1.0,
		CenterHalf:  0.5,
		Full4x4:     0.25,
		Ring4x4:     0.25,
		TopLeft:     0.25,
		Center:      0.33,
		Corners:     0.33,
		Ring3x3:     0.33,
		BottomRight: 0.33,
	}
	for p, want := range cases {
		if got := DefaultRatio(p); got != want {
			t.Fatalf("%s: expected %v, got %v", p, want, got)
		}
	}
}

func TestParse(t *testing.T) {
	p, err := Parse("center-max")
	if err != nil || p != CenterMax {
		t.Fatalf("expected Center-MAX, got %q (%v)", p, err)
	}
	p, err = Parse(" 4X4RING ")
	if err != nil || p != Ring4x4 {
		t.Fatalf("expected 4x4ring, got %q (%v)", p, err)
	}
	if _, err := Parse("diagonal"); err == nil {
		t.Fatalf("expected error for unknown pattern")
	}
}

func TestIsComposite(t *testing.T) {
	for _, p := range []Pattern{Ring3x3, Full3x3, Corners, Full4x4, Ring4x4} {
		if !p.IsComposite() {
			t.Fatalf("%s should be composite", p)
		}
	}
	for _, p := range []Pattern{TopLeft, Center, CenterMax, BottomMiddle} {
		if p.IsComposite() {
			t.Fatalf("%s should not be composite", p)
		}
	}
}
