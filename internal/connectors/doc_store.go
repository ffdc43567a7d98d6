package connectors

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	"almacen/internal"
	"almacen/internal/storage"
)

// DocStoreService persists fetched mails as raw .eml files named by content
// hash, plus a documents row keyed on (provider, messageId) for dedupe.
type DocStoreService struct {
	db        *storage.DB
	rawDocDir string
}

func NewDocStoreService(db *storage.DB, rawDocDir string) *DocStoreService {
	return &DocStoreService{db: db, rawDocDir: rawDocDir}
}

func (s *DocStoreService) Store(msg internal.FetchedMailMessage) (internal.DocumentRow, error) {
	hashBytes := sha256.Sum256(msg.Raw)
	hash := hex.EncodeToString(hashBytes[:])

	if err := os.MkdirAll(s.rawDocDir, 0o755); err != nil {
		return internal.DocumentRow{}, err
	}

	rawPath := filepath.Join(s.rawDocDir, hash+".eml")
	if _, err := os.Stat(rawPath); os.IsNotExist(err) {
		if err := os.WriteFile(rawPath, msg.Raw, 0o644); err != nil {
			return internal.DocumentRow{}, err
		}
	}

	return s.db.UpsertDocument(msg.Provider, msg.MessageID, msg.Subject, msg.From, msg.ReceivedAt, hash, rawPath, "fetched")
}
