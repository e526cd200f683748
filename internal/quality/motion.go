package quality

import (
	"errors"
	"image"

	"github.com/bdougie/shotcurator/internal/models"
)

var errNoSource = errors.New("frame has no pixel source")

// motionGridSize is the side of the square grid both frames are sampled down
// to before differencing. Full-resolution comparison would dominate scoring
// time without changing the ranking.
const motionGridSize = 256

// motionFallback is returned when either frame cannot be read, so one corrupt
// frame does not abort scoring of the rest of the sequence.
const motionFallback = 0.5

// Motion estimates inter-frame movement as the mean absolute luminance
// difference between two frames, normalized into [0,1]. The first frame of a
// sequence has no predecessor and scores 0.
func Motion(prev, curr models.PixelSource) float64 {
	if prev == nil {
		return 0
	}
	a, err := readDownscaled(prev)
	if err != nil {
		return motionFallback
	}
	b, err := readDownscaled(curr)
	if err != nil {
		return motionFallback
	}
	var sum float64
	for i := range a.pix {
		d := a.pix[i] - b.pix[i]
		if d < 0 {
			d = -d
		}
		sum += d
	}
	return sum / float64(len(a.pix)) / 255.0
}

func readDownscaled(src models.PixelSource) (*grayGrid, error) {
	if src == nil {
		return nil, errNoSource
	}
	img, err := src.Image()
	if err != nil {
		return nil, err
	}
	return downscale(img, motionGridSize), nil
}

// downscale samples an image to a size x size luminance grid with
// nearest-neighbor sampling. For mean-difference comparison the cheap sampler
// is indistinguishable from a proper resampling filter.
func downscale(img image.Image, size int) *grayGrid {
	b := img.Bounds()
	g := &grayGrid{w: size, h: size, pix: make([]float64, size*size)}
	i := 0
	for y := 0; y < size; y++ {
		srcY := b.Min.Y + y*b.Dy()/size
		for x := 0; x < size; x++ {
			srcX := b.Min.X + x*b.Dx()/size
			r, gr, bl, _ := img.At(srcX, srcY).RGBA()
			g.pix[i] = (0.299*float64(r) + 0.587*float64(gr) + 0.114*float64(bl)) / 257.0
			i++
		}
	}
	return g
}
