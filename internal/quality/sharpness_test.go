package quality

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

// memSource is an in-memory PixelSource for tests.
type memSource struct {
	img image.Image
	err error
}

func (s *memSource) Image() (image.Image, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.img, nil
}

func (s *memSource) Path() string { return "mem" }

func uniformImage(w, h int, v uint8) image.Image {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

func checkerboard(w, h int) image.Image {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%2 == 0 {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}

func TestSharpnessUniformImageIsZero(t *testing.T) {
	s := Sharpness(&memSource{img: uniformImage(32, 32, 128)})
	assert.Equal(t, 0.0, s)
}

func TestSharpnessPrefersEdges(t *testing.T) {
	flat := Sharpness(&memSource{img: uniformImage(32, 32, 128)})
	edgy := Sharpness(&memSource{img: checkerboard(32, 32)})
	assert.Greater(t, edgy, flat)
	assert.Greater(t, edgy, 100.0)
}

func TestSharpnessUnreadableFrameIsZero(t *testing.T) {
	s := Sharpness(&memSource{err: errors.New("corrupt jpeg")})
	assert.Equal(t, 0.0, s)
}

func TestSharpnessNilSourceIsZero(t *testing.T) {
	assert.Equal(t, 0.0, Sharpness(nil))
}

func TestSharpnessTinyImageIsZero(t *testing.T) {
	// No interior pixels to convolve.
	s := Sharpness(&memSource{img: uniformImage(2, 2, 10)})
	assert.Equal(t, 0.0, s)
}
