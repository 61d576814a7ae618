package display

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/makeworld-the-better-one/dither/v2"
)

const (
	// panelGamma darkens midtones, which the panel renders washed out.
	panelGamma     = 1.1
	ditherStrength = 0.75
)

// SpectraPalette is the set of inks on a Spectra 6 panel, as the panel renders them.
var SpectraPalette = color.Palette{
	color.RGBA{R: 25, G: 25, B: 30, A: 255},    // black
	color.RGBA{R: 252, G: 250, B: 244, A: 255}, // white
	color.RGBA{R: 225, G: 20, B: 35, A: 255},   // red
	color.RGBA{R: 0, G: 140, B: 60, A: 255},    // green
	color.RGBA{R: 10, G: 50, B: 180, A: 255},   // blue
	color.RGBA{R: 255, G: 215, B: 0, A: 255},   // yellow
	color.RGBA{R: 255, G: 115, B: 0, A: 255},   // orange
}

// Quantize maps img onto palette with Floyd-Steinberg error diffusion.
func Quantize(img image.Image, palette color.Palette) image.Image {
	if img == nil {
		return nil
	}

	// imaging takes the reciprocal of gamma
	img = imaging.AdjustGamma(img, 1/panelGamma)

	ditherer := dither.NewDitherer(palette)
	ditherer.Matrix = dither.ErrorDiffusionStrength(dither.FloydSteinberg, ditherStrength)
	return ditherer.Dither(img)
}
