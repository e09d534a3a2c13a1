package connectors

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"maintlog/internal"
	"maintlog/internal/storage"
)

// FetchService copies new mailbox messages into the raw store and the
// ingest ledger.
type FetchService struct {
	db         *storage.DB
	rawMailDir string
	connector  MailConnector
	log        logrus.FieldLogger
}

type FetchResult struct {
	Fetched int
	Stored  int
}

func NewFetchService(db *storage.DB, rawMailDir string, connector MailConnector, log logrus.FieldLogger) *FetchService {
	return &FetchService{db: db, rawMailDir: rawMailDir, connector: connector, log: log}
}

func (s *FetchService) FetchAndStore(ctx context.Context, label string, max int) (FetchResult, error) {
	messages, err := s.connector.FetchInbox(ctx, label, max)
	if err != nil {
		return FetchResult{}, fmt.Errorf("fetch %s: %w", label, err)
	}

	result := FetchResult{Fetched: len(messages)}
	for _, msg := range messages {
		row, err := s.Store(msg)
		if err != nil {
			return result, err
		}
		s.log.WithFields(logrus.Fields{"emailId": row.ID, "provider": msg.Provider, "subject": msg.Subject}).Debug("mail stored")
		result.Stored++
	}
	return result, nil
}

// Store writes the raw message under its sha256 (once) and upserts the
// ledger row. A re-fetched message keeps its id and status.
func (s *FetchService) Store(msg internal.FetchedMailMessage) (internal.EmailRow, error) {
	sum := sha256.Sum256(msg.Raw)
	hash := hex.EncodeToString(sum[:])

	rawPath, err := writeRawOnce(s.rawMailDir, hash, msg.Raw)
	if err != nil {
		return internal.EmailRow{}, fmt.Errorf("store raw mail %s: %w", msg.MessageID, err)
	}
	return s.db.UpsertEmail(msg.Provider, msg.MessageID, msg.Subject, msg.From, msg.ReceivedAt, hash, rawPath, internal.EmailFetched)
}

func writeRawOnce(dir, hash string, raw []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	rawPath := filepath.Join(dir, hash+".eml")
	if _, err := os.Stat(rawPath); err == nil {
		return rawPath, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}

	tmp := rawPath + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, rawPath); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	return rawPath, nil
}
