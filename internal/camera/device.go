package camera

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"sync"
)

// ErrHardwareUnavailable covers every camera acquisition failure: permission
// denied, no device, or the device revoked mid-session. It is reported, not
// fatal; the orchestrator decides whether to retry or reset.
var ErrHardwareUnavailable = errors.New("camera hardware unavailable")

// Device is a source of JPEG frames from the kiosk camera.
type Device interface {
	Open(ctx context.Context) error
	ReadFrame(ctx context.Context) ([]byte, error)
	Close() error
}

// StreamDevice reads the multipart MJPEG stream served by the kiosk's local
// camera daemon.
type StreamDevice struct {
	url        string
	httpClient *http.Client

	mu     sync.Mutex
	body   io.ReadCloser
	reader *multipart.Reader
}

func NewStreamDevice(url string) *StreamDevice {
	return &StreamDevice{
		url: url,
		// No client timeout: the stream stays open for the life of the feed.
		httpClient: &http.Client{},
	}
}

func (d *StreamDevice) Open(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.body != nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, "GET", d.url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrHardwareUnavailable, err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrHardwareUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return fmt.Errorf("%w: camera daemon returned status %d", ErrHardwareUnavailable, resp.StatusCode)
	}

	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/x-mixed-replace" || params["boundary"] == "" {
		resp.Body.Close()
		return fmt.Errorf("%w: camera daemon did not serve an MJPEG stream", ErrHardwareUnavailable)
	}

	d.body = resp.Body
	d.reader = multipart.NewReader(resp.Body, params["boundary"])
	return nil
}

// ReadFrame returns the next whole frame from the stream. The multipart
// reader is not safe for concurrent use, so the lock is held across the
// entire read: the preview pump and a capture can never interleave on one
// frame.
func (d *StreamDevice) ReadFrame(ctx context.Context) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.reader == nil {
		return nil, fmt.Errorf("%w: feed not open", ErrHardwareUnavailable)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	part, err := d.reader.NextPart()
	if err != nil {
		return nil, fmt.Errorf("%w: stream ended: %v", ErrHardwareUnavailable, err)
	}
	defer part.Close()

	data, err := io.ReadAll(part)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read frame: %v", ErrHardwareUnavailable, err)
	}

	return data, nil
}

func (d *StreamDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.body == nil {
		return nil
	}
	err := d.body.Close()
	d.body = nil
	d.reader = nil
	return err
}
