package compositor

import (
	"fmt"
	"image"
	"math"
)

// BlendMode selects the separable blend function used for stamps.
type BlendMode string

const (
	BlendMultiply BlendMode = "multiply"
	BlendNormal   BlendMode = "normal"
)

// ParseBlendMode validates a configured blend mode name.
func ParseBlendMode(s string) (BlendMode, error) {
	switch BlendMode(s) {
	case BlendMultiply, BlendNormal:
		return BlendMode(s), nil
	case "":
		return BlendMultiply, nil
	default:
		return "", fmt.Errorf("unknown blend mode %q: use multiply or normal", s)
	}
}

func (m BlendMode) mix(cs, cb float64) float64 {
	if m == BlendNormal {
		return cs
	}
	return cs * cb
}

// paint is the per-layer compositing state.
type paint struct {
	opacity float64
	mode    BlendMode
}

// blend composites src over dst with the W3C separable blend formula:
//
//	Cs' = (1 - αb)·Cs + αb·B(Cb, Cs)
//	co  = αs·Cs' + (1 - αs)·αb·Cb
//	αo  = αs + αb·(1 - αs)
//
// where αs already includes the layer opacity. Both images are premultiplied.
func (p paint) blend(dst, src *image.RGBA) {
	r := src.Bounds().Intersect(dst.Bounds())
	if r.Empty() {
		return
	}

	for y := r.Min.Y; y < r.Max.Y; y++ {
		si := src.PixOffset(r.Min.X, y)
		di := dst.PixOffset(r.Min.X, y)
		for x := r.Min.X; x < r.Max.X; x, si, di = x+1, si+4, di+4 {
			sa8 := src.Pix[si+3]
			if sa8 == 0 {
				continue
			}
			da8 := dst.Pix[di+3]
			as := float64(sa8) / 255 * p.opacity
			ab := float64(da8) / 255

			for ch := 0; ch < 3; ch++ {
				cs := math.Min(float64(src.Pix[si+ch])/float64(sa8), 1)
				var cb float64
				if da8 > 0 {
					cb = math.Min(float64(dst.Pix[di+ch])/float64(da8), 1)
				}
				mixed := (1-ab)*cs + ab*p.mode.mix(cs, cb)
				dst.Pix[di+ch] = to8(as*mixed + (1-as)*ab*cb)
			}
			dst.Pix[di+3] = to8(as + ab*(1-as))
		}
	}
}

func to8(v float64) uint8 {
	return uint8(math.Round(math.Min(math.Max(v, 0), 1) * 255))
}
