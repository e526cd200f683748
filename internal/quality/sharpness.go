package quality

import (
	"image"
	"math"

	"github.com/bdougie/shotcurator/internal/models"
)

// grayGrid is a width x height luminance grid extracted from a frame.
type grayGrid struct {
	w, h int
	pix  []float64
}

func (g *grayGrid) at(x, y int) float64 {
	return g.pix[y*g.w+x]
}

// newGrayGrid converts an image to a luminance grid using the Rec. 601
// weights, the same conversion image/color uses for GrayModel.
func newGrayGrid(img image.Image) *grayGrid {
	b := img.Bounds()
	g := &grayGrid{w: b.Dx(), h: b.Dy(), pix: make([]float64, b.Dx()*b.Dy())}
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, gr, bl, _ := img.At(x, y).RGBA()
			g.pix[i] = (0.299*float64(r) + 0.587*float64(gr) + 0.114*float64(bl)) / 257.0
			i++
		}
	}
	return g
}

// Sharpness estimates the focus quality of a frame as the standard deviation
// of its Laplacian response. Larger values mean more high-frequency edge
// content. An unreadable frame scores 0 so ranking, not an error, discards it.
func Sharpness(src models.PixelSource) float64 {
	if src == nil {
		return 0
	}
	img, err := src.Image()
	if err != nil {
		return 0
	}
	return laplacianStdDev(newGrayGrid(img))
}

// laplacianStdDev convolves the discrete Laplacian kernel
//
//	0  1  0
//	1 -4  1
//	0  1  0
//
// over interior pixels and returns the square root of the population
// variance of the responses.
func laplacianStdDev(g *grayGrid) float64 {
	if g.w < 3 || g.h < 3 {
		return 0
	}
	n := (g.w - 2) * (g.h - 2)
	responses := make([]float64, 0, n)
	var sum float64
	for y := 1; y < g.h-1; y++ {
		for x := 1; x < g.w-1; x++ {
			r := g.at(x, y-1) + g.at(x-1, y) + g.at(x+1, y) + g.at(x, y+1) - 4*g.at(x, y)
			responses = append(responses, r)
			sum += r
		}
	}
	mean := sum / float64(n)
	var variance float64
	for _, r := range responses {
		d := r - mean
		variance += d * d
	}
	variance /= float64(n)
	return math.Sqrt(variance)
}
