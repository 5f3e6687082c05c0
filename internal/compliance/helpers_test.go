package compliance

import (
	"image"
	"image/color"
	"image/draw"
)

// solidImage fills a w×h canvas with one color.
func solidImage(w, h int, c Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}}, image.Point{}, draw.Src)
	return img
}

// splitImage fills the left half with one color and the right half with
// another.
func splitImage(w, h int, left, right Color) *image.RGBA {
	img := solidImage(w, h, left)
	draw.Draw(img, image.Rect(w/2, 0, w, h),
		&image.Uniform{C: color.RGBA{R: right.R, G: right.G, B: right.B, A: 255}}, image.Point{}, draw.Src)
	return img
}

// checkerLogo builds a high-contrast checkerboard logo, which gives template
// matching a distinctive texture to lock onto.
func checkerLogo(size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	dark := color.RGBA{R: 20, G: 20, B: 20, A: 255}
	light := color.RGBA{R: 235, G: 235, B: 235, A: 255}
	cell := size / 4
	if cell < 1 {
		cell = 1
	}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if ((x/cell)+(y/cell))%2 == 0 {
				img.Set(x, y, dark)
			} else {
				img.Set(x, y, light)
			}
		}
	}
	return img
}

// paste composites src onto dst with its top-left corner at (x, y).
func paste(dst *image.RGBA, src image.Image, x, y int) {
	r := src.Bounds().Sub(src.Bounds().Min).Add(image.Pt(x, y))
	draw.Draw(dst, r, src, src.Bounds().Min, draw.Over)
}

// gradientImage produces a smooth many-colored image, forcing the clustering
// path of palette extraction.
func gradientImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(x * 255 / w),
				G: uint8(y * 255 / h),
				B: uint8((x + y) * 255 / (w + h)),
				A: 255,
			})
		}
	}
	return img
}

// transparentImage is sized but has no opaque pixels.
func transparentImage(w, h int) *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, w, h))
}
