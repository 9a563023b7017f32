package camera

import (
	"image"
	"image/draw"

	"github.com/nfnt/resize"
)

// CropToAspect center-crops img to the target aspect ratio and scales the
// result to exactly targetW x targetH. A feed wider than the target loses
// width, a taller feed loses height, so the output dimensions never depend
// on the physical camera's ratio.
func CropToAspect(img image.Image, targetW, targetH int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	// Integer cross products avoid float comparison of the two ratios:
	// w/h > targetW/targetH  <=>  w*targetH > targetW*h.
	cropW, cropH := w, h
	if w*targetH > targetW*h {
		cropW = h * targetW / targetH
	} else if w*targetH < targetW*h {
		cropH = w * targetH / targetW
	}

	x0 := bounds.Min.X + (w-cropW)/2
	y0 := bounds.Min.Y + (h-cropH)/2

	cropped := image.NewRGBA(image.Rect(0, 0, cropW, cropH))
	draw.Draw(cropped, cropped.Bounds(), img, image.Pt(x0, y0), draw.Src)

	return resize.Resize(uint(targetW), uint(targetH), cropped, resize.Lanczos3)
}
