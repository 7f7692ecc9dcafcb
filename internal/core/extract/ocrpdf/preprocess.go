package ocrpdf

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// contrastFactor steers the linear stretch around the midpoint: values
// below 128 are darkened further, values above are brightened.
const contrastFactor = 1.4

// Preprocess prepares one page raster for OCR: upscale, grayscale
// average, contrast stretch, then crop a fixed bottom fraction where
// scanner watermark bands usually sit.
func Preprocess(src image.Image, scale int, cropBottomFrac float64) image.Image {
	img := upscale(src, scale)
	gray := grayscaleStretch(img)
	return cropBottom(gray, cropBottomFrac)
}

func upscale(src image.Image, scale int) image.Image {
	if scale <= 1 {
		return src
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

func grayscaleStretch(src image.Image) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := src.At(x, y).RGBA()
			// Plain channel average, 16-bit premultiplied down to 8-bit.
			v := float64((r + g + bl) / 3 >> 8)
			v = 128 + (v-128)*contrastFactor
			if v < 0 {
				v = 0
			} else if v > 255 {
				v = 255
			}
			dst.SetGray(x-b.Min.X, y-b.Min.Y, color.Gray{Y: uint8(v)})
		}
	}
	return dst
}

func cropBottom(src *image.Gray, frac float64) image.Image {
	if frac <= 0 || frac >= 1 {
		return src
	}
	b := src.Bounds()
	keep := b.Dy() - int(float64(b.Dy())*frac)
	if keep <= 0 {
		return src
	}
	return src.SubImage(image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+keep))
}
