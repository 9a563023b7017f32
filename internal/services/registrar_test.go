package services_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"photobooth-kiosk/internal/database"
	"photobooth-kiosk/internal/gemini"
	"photobooth-kiosk/internal/models"
	"photobooth-kiosk/internal/services"
	"photobooth-kiosk/internal/store"
	"photobooth-kiosk/internal/supabase"
)

func TestNewShareToken_Unique(t *testing.T) {
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		token := services.NewShareToken()
		_, dup := seen[token]
		require.False(t, dup, "duplicate token %s", token)
		seen[token] = struct{}{}
	}
}

func TestRegistrar_Register(t *testing.T) {
	var mu sync.Mutex
	var uploadedPath string
	var registered []models.GalleryItem

	mux := http.NewServeMux()
	mux.HandleFunc("/storage/v1/object/", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		uploadedPath = r.URL.Path
		mu.Unlock()
		json.NewEncoder(w).Encode(map[string]string{"Key": "kiosk-gallery/ok"})
	})
	mux.HandleFunc("/gallery", func(w http.ResponseWriter, r *http.Request) {
		var item models.GalleryItem
		require.NoError(t, json.NewDecoder(r.Body).Decode(&item))
		mu.Lock()
		registered = append(registered, item)
		mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	storeClient := store.NewClient(server.URL)
	storageClient, err := supabase.NewStorageClient(server.URL, "test-key", "kiosk-gallery")
	require.NoError(t, err)

	local, err := database.Open(filepath.Join(t.TempDir(), "kiosk.db"))
	require.NoError(t, err)
	defer local.Close()

	registrar := services.NewRegistrar(storeClient, storageClient, local)

	img := &gemini.GeneratedImage{Data: []byte("image-bytes"), MimeType: "image/jpeg"}
	item, err := registrar.Register(context.Background(), img, "Cyberpunk", "evt1")
	require.NoError(t, err)

	assert.NotEmpty(t, item.Token)
	assert.Equal(t, "Cyberpunk", item.ConceptName)
	assert.Equal(t, "evt1", item.EventID)
	assert.Contains(t, item.ImageURL, "/storage/v1/object/public/kiosk-gallery/events/evt1/")
	assert.Contains(t, item.DownloadURL, "?download=")
	assert.True(t, strings.HasSuffix(item.ImageURL, item.Token+".jpg"))

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, uploadedPath, "/events/evt1/"+item.Token+".jpg")
	require.Len(t, registered, 1)
	assert.Equal(t, item.Token, registered[0].Token)

	entries, err := local.Registrations(10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, item.Token, entries[0].Token)
}

func TestRegistrar_RegisterStoreFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/storage/v1/object/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"Key": "kiosk-gallery/ok"})
	})
	mux.HandleFunc("/gallery", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	storeClient := store.NewClient(server.URL)
	storageClient, err := supabase.NewStorageClient(server.URL, "test-key", "kiosk-gallery")
	require.NoError(t, err)

	registrar := services.NewRegistrar(storeClient, storageClient, nil)

	img := &gemini.GeneratedImage{Data: []byte("image-bytes"), MimeType: "image/jpeg"}
	_, err = registrar.Register(context.Background(), img, "Cyberpunk", "evt1")
	assert.ErrorIs(t, err, store.ErrStoreUnreachable)
}
