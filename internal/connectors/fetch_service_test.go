package connectors

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maintlog/internal"
	"maintlog/internal/logging"
	"maintlog/internal/storage"
)

type fakeConnector struct {
	messages []internal.FetchedMailMessage
	err      error
	label    string
}

func (f *fakeConnector) FetchInbox(_ context.Context, label string, max int) ([]internal.FetchedMailMessage, error) {
	f.label = label
	if f.err != nil {
		return nil, f.err
	}
	if len(f.messages) > max {
		return f.messages[:max], nil
	}
	return f.messages, nil
}

func TestFetchAndStore(t *testing.T) {
	tmp := t.TempDir()
	db, err := storage.Open(filepath.Join(tmp, "app.db"))
	require.NoError(t, err)
	defer db.Close()

	conn := &fakeConnector{messages: []internal.FetchedMailMessage{
		{Provider: "imap", MessageID: "<a@x>", Subject: "Maintenance chat", Raw: []byte("Subject: a\r\n\r\nbody a")},
		{Provider: "imap", MessageID: "<b@x>", Subject: "Maintenance chat", Raw: []byte("Subject: b\r\n\r\nbody b")},
	}}
	rawDir := filepath.Join(tmp, "raw")
	svc := NewFetchService(db, rawDir, conn, logging.Discard())

	res, err := svc.FetchAndStore(context.Background(), "INBOX", 10)
	require.NoError(t, err)
	assert.Equal(t, FetchResult{Fetched: 2, Stored: 2}, res)
	assert.Equal(t, "INBOX", conn.label)

	pending, err := db.ListEmailsByStatus(internal.EmailFetched, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	blob, err := os.ReadFile(pending[0].RawRef)
	require.NoError(t, err)
	assert.Contains(t, string(blob), "body")

	// second fetch of the same mail is idempotent
	res, err = svc.FetchAndStore(context.Background(), "INBOX", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Stored)
	entries, err := os.ReadDir(rawDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestFetchAndStoreConnectorError(t *testing.T) {
	db, err := storage.Open(filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("boom")
	svc := NewFetchService(db, t.TempDir(), &fakeConnector{err: boom}, logging.Discard())
	_, err = svc.FetchAndStore(context.Background(), "INBOX", 5)
	assert.ErrorIs(t, err, boom)
}
