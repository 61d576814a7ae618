package display

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// Open decodes the image at path and applies its EXIF orientation.
func Open(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("unable to decode image, %s, %w", path, err)
	}
	return img, nil
}

// Rotate turns img counter-clockwise by degrees, which must be a multiple of 90.
func Rotate(img image.Image, degrees int) (image.Image, error) {
	switch ((degrees % 360) + 360) % 360 {
	case 0:
		return img, nil
	case 90:
		return imaging.Rotate90(img), nil
	case 180:
		return imaging.Rotate180(img), nil
	case 270:
		return imaging.Rotate270(img), nil
	}
	return nil, fmt.Errorf("unsupported rotation %d", degrees)
}

// Render prepares img for a width x height panel: rotate, resize with
// Lanczos, then quantize to the panel palette.
func Render(img image.Image, width, height, degrees int) (image.Image, error) {
	rotated, err := Rotate(img, degrees)
	if err != nil {
		return nil, err
	}
	resized := imaging.Resize(rotated, width, height, imaging.Lanczos)
	return Quantize(resized, SpectraPalette), nil
}
