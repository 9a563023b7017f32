package camera_test

import (
	"fmt"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"photobooth-kiosk/internal/camera"
	"photobooth-kiosk/internal/models"
)

func TestCropToAspect_ExactTargetDimensions(t *testing.T) {
	feeds := []struct {
		w, h int
	}{
		{1920, 1080}, // wider than portrait target
		{1080, 1920}, // exact portrait
		{640, 480},   // small 4:3
		{480, 640},   // small 3:4
		{1280, 720},
		{720, 1280},
		{333, 777}, // odd dimensions
		{2560, 1440},
	}

	targets := []struct {
		name string
		w, h int
	}{
		{"portrait", 1080, 1920},
		{"landscape", 1920, 1080},
	}

	for _, target := range targets {
		for _, feed := range feeds {
			name := fmt.Sprintf("%s_from_%dx%d", target.name, feed.w, feed.h)
			t.Run(name, func(t *testing.T) {
				src := image.NewRGBA(image.Rect(0, 0, feed.w, feed.h))
				out := camera.CropToAspect(src, target.w, target.h)

				bounds := out.Bounds()
				assert.Equal(t, target.w, bounds.Dx())
				assert.Equal(t, target.h, bounds.Dy())
			})
		}
	}
}

func TestCropToAspect_NonZeroOrigin(t *testing.T) {
	src := image.NewRGBA(image.Rect(100, 50, 1380, 770))
	out := camera.CropToAspect(src, 1920, 1080)

	assert.Equal(t, 1920, out.Bounds().Dx())
	assert.Equal(t, 1080, out.Bounds().Dy())
}

func TestOrientationTargets(t *testing.T) {
	w, h := models.OrientationPortrait.TargetSize()
	assert.Equal(t, 1080, w)
	assert.Equal(t, 1920, h)
	assert.Equal(t, "9:16", models.OrientationPortrait.AspectRatio())

	w, h = models.OrientationLandscape.TargetSize()
	assert.Equal(t, 1920, w)
	assert.Equal(t, 1080, h)
	assert.Equal(t, "16:9", models.OrientationLandscape.AspectRatio())
}
