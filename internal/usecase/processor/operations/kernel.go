package operations

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
)

const lanczosLobes = 3

// lanczos3 is the windowed-sinc kernel sinc(x)*sinc(x/3) on [0, 3).
var lanczos3 = &xdraw.Kernel{
	Support: lanczosLobes,
	At: func(t float64) float64 {
		if t == 0 {
			return 1
		}
		if t >= lanczosLobes {
			return 0
		}
		x := math.Pi * t
		return lanczosLobes * math.Sin(x) * math.Sin(x/lanczosLobes) / (x * x)
	},
}

// Unsharp mask parameters. Not user-tunable.
const (
	sharpenSigma     = 1.0
	sharpenAmount    = 0.8
	sharpenThreshold = 2.0
)

// unsharpMask adds back sharpenAmount of the difference between img and its
// Gaussian blur wherever that difference reaches sharpenThreshold. Alpha is
// left untouched.
func unsharpMask(img image.Image) *image.NRGBA {
	src := imaging.Clone(img)
	blurred := imaging.Blur(src, sharpenSigma)
	dst := image.NewNRGBA(src.Bounds())

	for i := 0; i+3 < len(src.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			orig := float64(src.Pix[i+c])
			diff := orig - float64(blurred.Pix[i+c])
			if math.Abs(diff) < sharpenThreshold {
				dst.Pix[i+c] = src.Pix[i+c]
				continue
			}
			dst.Pix[i+c] = clampUint8(orig + sharpenAmount*diff)
		}
		dst.Pix[i+3] = src.Pix[i+3]
	}

	return dst
}

func clampUint8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v + 0.5)
	}
}
