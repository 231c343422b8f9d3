package compositor

import (
	"image"
	"math"

	"golang.org/x/image/math/f64"
)

// layerTransform maps stamp-image coordinates to page coordinates: scale the
// image to Size×Size, rotate clockwise about the box center, then place the
// box so its un-rotated top-left is at (X, Y).
func layerTransform(l Layer, src image.Rectangle) f64.Aff3 {
	kx := l.Size / float64(src.Dx())
	ky := l.Size / float64(src.Dy())
	sin, cos := sincosDeg(l.Rotation)
	h := l.Size / 2
	cx, cy := l.X+h, l.Y+h
	ox, oy := float64(src.Min.X), float64(src.Min.Y)

	return f64.Aff3{
		cos * kx, -sin * ky, cx - cos*(kx*ox+h) + sin*(ky*oy+h),
		sin * kx, cos * ky, cy - sin*(kx*ox+h) - cos*(ky*oy+h),
	}
}

// layerBounds is the pixel rectangle covered by the rotated box, padded by one
// pixel for the resampling kernel.
func layerBounds(l Layer) image.Rectangle {
	sin, cos := sincosDeg(l.Rotation)
	h := l.Size / 2 * (math.Abs(sin) + math.Abs(cos))
	cx, cy := l.X+l.Size/2, l.Y+l.Size/2
	return image.Rect(
		int(math.Floor(cx-h))-1, int(math.Floor(cy-h))-1,
		int(math.Ceil(cx+h))+1, int(math.Ceil(cy+h))+1,
	)
}

// sincosDeg is math.Sincos in degrees, exact on quarter turns so that 90/180/270
// rotations sample the same pixel centers as the unrotated case.
func sincosDeg(deg float64) (sin, cos float64) {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	switch d {
	case 0:
		return 0, 1
	case 90:
		return 1, 0
	case 180:
		return 0, -1
	case 270:
		return -1, 0
	}
	return math.Sincos(d * math.Pi / 180)
}
