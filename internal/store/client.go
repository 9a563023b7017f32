package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"photobooth-kiosk/internal/models"
)

var (
	// ErrUnauthorized means the remote store rejected the admin PIN.
	ErrUnauthorized = errors.New("store rejected admin pin")
	// ErrStoreUnreachable means the remote store could not be reached or
	// answered with a server error.
	ErrStoreUnreachable = errors.New("settings store unreachable")
)

// Client is a thin transport to the remote settings/gallery store. It does
// not enforce authorization itself; mutating calls forward the admin PIN and
// the store validates it.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) LoadSettings(ctx context.Context) (*models.KioskSettings, error) {
	var settings models.KioskSettings
	if err := c.getJSON(ctx, "/settings", &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

func (c *Client) SaveSettings(ctx context.Context, settings models.KioskSettings, pin string) error {
	return c.putJSON(ctx, "/settings?pin="+url.QueryEscape(pin), settings)
}

func (c *Client) LoadConcepts(ctx context.Context) ([]models.Concept, error) {
	var concepts []models.Concept
	if err := c.getJSON(ctx, "/concepts", &concepts); err != nil {
		return nil, err
	}
	return concepts, nil
}

func (c *Client) SaveConcepts(ctx context.Context, concepts []models.Concept, pin string) error {
	return c.putJSON(ctx, "/concepts?pin="+url.QueryEscape(pin), concepts)
}

func (c *Client) LoadEvents(ctx context.Context) ([]models.EventRecord, error) {
	var events []models.EventRecord
	if err := c.getJSON(ctx, "/events", &events); err != nil {
		return nil, err
	}
	return events, nil
}

// UploadOverlay sends the overlay image as multipart form data and returns
// the hosted URL assigned by the store.
func (c *Client) UploadOverlay(ctx context.Context, image []byte, pin string) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("image", "overlay.png")
	if err != nil {
		return "", fmt.Errorf("failed to build multipart form: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return "", fmt.Errorf("failed to write overlay data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize multipart form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/overlay?pin="+url.QueryEscape(pin), &buf)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnreachable, err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp); err != nil {
		return "", err
	}

	var result struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	return result.URL, nil
}

// ListGalleryItems returns items for the given event, or all items when
// eventID is empty. Listing is event-scoped so a kiosk running a new event
// does not surface prior events' photos.
func (c *Client) ListGalleryItems(ctx context.Context, eventID string) ([]models.GalleryItem, error) {
	path := "/gallery"
	if eventID != "" {
		path += "?event_id=" + url.QueryEscape(eventID)
	}
	var items []models.GalleryItem
	if err := c.getJSON(ctx, path, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// GetGalleryItem fetches a single item by its share token, regardless of
// which event it belongs to.
func (c *Client) GetGalleryItem(ctx context.Context, token string) (*models.GalleryItem, error) {
	var item models.GalleryItem
	if err := c.getJSON(ctx, "/gallery/"+token, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) RegisterGalleryItem(ctx context.Context, item models.GalleryItem) error {
	jsonData, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal gallery item: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/gallery", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnreachable, err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp); err != nil {
		return err
	}

	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnreachable, err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func (c *Client) putJSON(ctx context.Context, path string, body interface{}) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "PUT", c.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnreachable, err)
	}
	defer resp.Body.Close()

	return classifyStatus(resp)
}

func classifyStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusNoContent:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode >= 500:
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: status %d, body: %s", ErrStoreUnreachable, resp.StatusCode, string(body))
	default:
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("store request failed: status %d, body: %s", resp.StatusCode, string(body))
	}
}
