package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"photobooth-kiosk/internal/models"
)

var (
	// ErrMissingCredential means no API key is configured or the service
	// rejected the one supplied. No guest-facing recovery is possible.
	ErrMissingCredential = errors.New("generation service credential missing or rejected")
	// ErrServiceUnreachable means the request never produced a usable
	// response from the service.
	ErrServiceUnreachable = errors.New("generation service unreachable")
	// ErrNoImageReturned means the service answered but none of its
	// candidates carried image data.
	ErrNoImageReturned = errors.New("generation returned no image")
)

// GeneratedImage is the transformed photo returned by the service.
type GeneratedImage struct {
	Data     []byte
	MimeType string
}

// Client calls the Gemini generateContent API to transform a captured frame
// according to a concept prompt. It performs no retries; a retry re-spends a
// paid call and is the orchestrator's decision.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// HasCredential reports whether an API key was configured. Used at startup
// to surface the missing-credential condition prominently.
func (c *Client) HasCredential() bool {
	return c.apiKey != ""
}

type generateContentRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseModalities []string     `json:"responseModalities,omitempty"`
	ImageConfig        *imageConfig `json:"imageConfig,omitempty"`
}

type imageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Generate submits the captured frame plus the augmented concept prompt and
// returns the first image-bearing candidate. Text-only candidates are
// ignored.
func (c *Client) Generate(ctx context.Context, frame []byte, mimeType string, concept models.Concept, aspectRatio string) (*GeneratedImage, error) {
	if c.apiKey == "" {
		return nil, ErrMissingCredential
	}

	reqBody := generateContentRequest{
		Contents: []content{
			{
				Parts: []part{
					{InlineData: &inlineData{
						MimeType: mimeType,
						Data:     base64.StdEncoding.EncodeToString(frame),
					}},
					{Text: BuildPrompt(concept.Prompt, aspectRatio)},
				},
			},
		},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"IMAGE"},
			ImageConfig:        &imageConfig{AspectRatio: aspectRatio},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("x-goog-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrMissingCredential
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("%w: status %d, body: %s", ErrServiceUnreachable, resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("generation request failed: status %d, body: %s", resp.StatusCode, string(body))
	}

	var result generateContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	for _, candidate := range result.Candidates {
		for _, p := range candidate.Content.Parts {
			if p.InlineData == nil || p.InlineData.Data == "" {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
			if err != nil {
				return nil, fmt.Errorf("failed to decode image data: %w", err)
			}
			return &GeneratedImage{Data: data, MimeType: p.InlineData.MimeType}, nil
		}
	}

	return nil, ErrNoImageReturned
}
