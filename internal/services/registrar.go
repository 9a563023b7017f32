package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"photobooth-kiosk/internal/database"
	"photobooth-kiosk/internal/gemini"
	"photobooth-kiosk/internal/models"
	"photobooth-kiosk/internal/store"
	"photobooth-kiosk/internal/supabase"
)

// Registrar publishes finished results to the shareable gallery: it uploads
// the generated image, mints the share token and registers the item with the
// remote store. Registration is append-only.
type Registrar struct {
	storeClient   *store.Client
	storageClient *supabase.StorageClient
	local         *database.LocalStore
}

func NewRegistrar(
	storeClient *store.Client,
	storageClient *supabase.StorageClient,
	local *database.LocalStore,
) *Registrar {
	return &Registrar{
		storeClient:   storeClient,
		storageClient: storageClient,
		local:         local,
	}
}

// NewShareToken mints an unguessable gallery token. UUIDv4 carries 122 bits
// of randomness, enough that share links cannot be enumerated.
func NewShareToken() string {
	return uuid.NewString()
}

// Register persists one generated image as a GalleryItem associated with the
// active event and returns it.
func (r *Registrar) Register(ctx context.Context, img *gemini.GeneratedImage, conceptName, eventID string) (*models.GalleryItem, error) {
	token := NewShareToken()
	filename := token + extensionFor(img.MimeType)

	_, publicURL, err := r.storageClient.UploadImage(eventID, filename, img.Data, img.MimeType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrStoreUnreachable, err)
	}

	item := models.GalleryItem{
		ID:          uuid.New(),
		CreatedAt:   time.Now().UTC(),
		ConceptName: conceptName,
		ImageURL:    publicURL,
		DownloadURL: publicURL + "?download=" + filename,
		Token:       token,
		EventID:     eventID,
	}

	if err := r.storeClient.RegisterGalleryItem(ctx, item); err != nil {
		return nil, err
	}

	// Audit log is best-effort; the remote store already holds the item.
	if r.local != nil {
		if err := r.local.AppendRegistration(item); err != nil {
			log.Printf("Warning: failed to record registration locally: %v", err)
		}
	}

	return &item, nil
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
