package camera

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"sync"
	"time"

	"photobooth-kiosk/internal/models"
)

// Frame is a captured still, already cropped and scaled to the kiosk's
// target dimensions.
type Frame struct {
	Data     []byte
	MimeType string
	Width    int
	Height   int
}

// Engine owns the live camera feed, runs the cancellable countdown and
// produces fixed-aspect still frames. Whoever opened the feed is responsible
// for closing it on every exit path; Engine makes that a single CloseCamera
// call that is safe to repeat.
type Engine struct {
	device Device

	mu          sync.Mutex
	open        bool
	orientation models.Orientation
}

func NewEngine(device Device) *Engine {
	return &Engine{device: device}
}

// OpenCamera acquires the live feed for the given orientation.
func (e *Engine) OpenCamera(ctx context.Context, orientation models.Orientation) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.open {
		e.orientation = orientation
		return nil
	}

	if err := e.device.Open(ctx); err != nil {
		return err
	}

	e.open = true
	e.orientation = orientation
	return nil
}

// CloseCamera releases the hardware feed. Idempotent.
func (e *Engine) CloseCamera() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.open {
		return
	}
	e.device.Close()
	e.open = false
}

// IsOpen reports whether the feed is currently held.
func (e *Engine) IsOpen() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.open
}

// PreviewFrame returns one raw feed frame for the UI's live preview.
func (e *Engine) PreviewFrame(ctx context.Context) ([]byte, error) {
	e.mu.Lock()
	open := e.open
	e.mu.Unlock()

	if !open {
		return nil, fmt.Errorf("%w: feed not open", ErrHardwareUnavailable)
	}
	return e.device.ReadFrame(ctx)
}

// StartCountdown ticks once per second, reporting the seconds remaining via
// onTick, then captures a still from the feed and crops it to the target
// aspect. Cancelling ctx at any tick aborts with ctx.Err(), leaves the feed
// running and produces no frame.
func (e *Engine) StartCountdown(ctx context.Context, seconds int, onTick func(remaining int)) (*Frame, error) {
	e.mu.Lock()
	if !e.open {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: feed not open", ErrHardwareUnavailable)
	}
	orientation := e.orientation
	e.mu.Unlock()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for remaining := seconds; remaining > 0; remaining-- {
		if onTick != nil {
			onTick(remaining)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return e.captureStill(ctx, orientation)
}

func (e *Engine) captureStill(ctx context.Context, orientation models.Orientation) (*Frame, error) {
	raw, err := e.device.ReadFrame(ctx)
	if err != nil {
		return nil, err
	}

	img, err := jpeg.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: feed produced an undecodable frame: %v", ErrHardwareUnavailable, err)
	}

	targetW, targetH := orientation.TargetSize()
	cropped := CropToAspect(img, targetW, targetH)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, cropped, &jpeg.Options{Quality: 92}); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}

	return &Frame{
		Data:     buf.Bytes(),
		MimeType: "image/jpeg",
		Width:    targetW,
		Height:   targetH,
	}, nil
}
