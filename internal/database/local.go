package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"photobooth-kiosk/internal/models"
)

const storeBaseURLKey = "store_base_url"

// LocalStore is the kiosk's on-device SQLite state: configuration that must
// survive restarts (the remote store's base URL) and an append-only audit
// log of registered gallery items for reconciliation after network
// incidents. The remote store stays the source of truth for the gallery.
type LocalStore struct {
	db *sql.DB
}

func Open(path string) (*LocalStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open local database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping local database: %w", err)
	}

	if err := NewMigrator(db).Run(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return &LocalStore{db: db}, nil
}

// CachedStoreBaseURL returns the last-saved remote store base URL, or ""
// when none has been cached yet.
func (l *LocalStore) CachedStoreBaseURL() (string, error) {
	var value string
	err := l.db.QueryRow(
		"SELECT value FROM kiosk_config WHERE key = ?", storeBaseURLKey,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read cached base url: %w", err)
	}
	return value, nil
}

func (l *LocalStore) SaveStoreBaseURL(url string) error {
	_, err := l.db.Exec(`
		INSERT INTO kiosk_config (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, storeBaseURLKey, url)
	if err != nil {
		return fmt.Errorf("failed to save base url: %w", err)
	}
	return nil
}

// AppendRegistration records one registered gallery item. Append-only: rows
// are never updated or deleted.
func (l *LocalStore) AppendRegistration(item models.GalleryItem) error {
	_, err := l.db.Exec(`
		INSERT INTO registrations (id, token, concept_name, image_url, download_url, event_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, item.ID.String(), item.Token, item.ConceptName, item.ImageURL,
		item.DownloadURL, item.EventID, item.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append registration: %w", err)
	}
	return nil
}

// Registrations returns the most recent entries of the audit log.
func (l *LocalStore) Registrations(limit int) ([]models.GalleryItem, error) {
	rows, err := l.db.Query(`
		SELECT id, token, concept_name, image_url, download_url, event_id, created_at
		FROM registrations
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	defer rows.Close()

	var items []models.GalleryItem
	for rows.Next() {
		var item models.GalleryItem
		var id string
		var eventID sql.NullString
		err := rows.Scan(&id, &item.Token, &item.ConceptName, &item.ImageURL,
			&item.DownloadURL, &eventID, &item.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		item.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("invalid registration id: %w", err)
		}
		item.EventID = eventID.String
		items = append(items, item)
	}

	return items, rows.Err()
}

func (l *LocalStore) Close() error {
	return l.db.Close()
}
