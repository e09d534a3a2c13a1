package listener

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maintlog/internal"
	"maintlog/internal/config"
	"maintlog/internal/connectors"
	"maintlog/internal/logging"
	"maintlog/internal/storage"
)

type stubConnector struct {
	messages []internal.FetchedMailMessage
	err      error
}

func (s stubConnector) FetchInbox(context.Context, string, int) ([]internal.FetchedMailMessage, error) {
	return s.messages, s.err
}

func newTestListener(t *testing.T, conn connectors.MailConnector, autoExport bool) (*Service, *storage.DB, config.Config) {
	t.Helper()
	tmp := t.TempDir()
	db, err := storage.Open(filepath.Join(tmp, "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg := config.Config{
		RawMailDir:               filepath.Join(tmp, "raw"),
		OutputDir:                filepath.Join(tmp, "out"),
		ReportSheetName:          "Work Reports",
		ReportWidthFactor:        1.2,
		ParseWorkers:             1,
		DetectThreshold:          0.45,
		MailListenerProvider:     "IMAP",
		MailListenerLabel:        "INBOX",
		MailListenerFetchMax:     10,
		MailListenerProcessBatch: 10,
		MailListenerAutoExport:   autoExport,
	}
	svc := NewService(db, cfg, logging.Discard())
	svc.connect = func(context.Context) (connectors.MailConnector, error) { return conn, nil }
	return svc, db, cfg
}

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	blob, err := os.ReadFile(filepath.Join("..", "pipeline", "testdata", name))
	require.NoError(t, err)
	return blob
}

func TestRunCycleExportsChatMail(t *testing.T) {
	conn := stubConnector{messages: []internal.FetchedMailMessage{
		{Provider: "imap", MessageID: "<shift-1@example.com>", Subject: "Fwd: Maintenance chat", Raw: fixture(t, "shift_chat.eml")},
		{Provider: "imap", MessageID: "<lunch-1@example.com>", Subject: "Lunch", Raw: fixture(t, "lunch.eml")},
	}}
	svc, db, cfg := newTestListener(t, conn, true)

	require.NoError(t, svc.RunCycle(context.Background()))

	chat, err := db.MustEmailByProviderMessageID("imap", "<shift-1@example.com>")
	require.NoError(t, err)
	assert.Equal(t, internal.EmailExported, chat.Status)

	lunch, err := db.MustEmailByProviderMessageID("imap", "<lunch-1@example.com>")
	require.NoError(t, err)
	assert.Equal(t, internal.EmailSkipped, lunch.Status)

	reports, err := filepath.Glob(filepath.Join(cfg.OutputDir, "reports", "*.xlsx"))
	require.NoError(t, err)
	assert.Len(t, reports, 1)

	last, err := svc.LastCycle()
	require.NoError(t, err)
	assert.NotEmpty(t, last)
}

func TestRunCycleWithoutAutoExport(t *testing.T) {
	conn := stubConnector{messages: []internal.FetchedMailMessage{
		{Provider: "imap", MessageID: "<shift-1@example.com>", Raw: fixture(t, "shift_chat.eml")},
	}}
	svc, db, _ := newTestListener(t, conn, false)

	require.NoError(t, svc.RunCycle(context.Background()))

	chat, err := db.MustEmailByProviderMessageID("imap", "<shift-1@example.com>")
	require.NoError(t, err)
	assert.Equal(t, internal.EmailProcessed, chat.Status)
}

func TestRunCycleFetchError(t *testing.T) {
	svc, _, _ := newTestListener(t, stubConnector{err: errors.New("mailbox down")}, true)

	err := svc.RunCycle(context.Background())
	assert.ErrorContains(t, err, "mailbox down")

	last, err := svc.LastCycle()
	require.NoError(t, err)
	assert.Empty(t, last)
}

func TestRunStopsOnCancel(t *testing.T) {
	svc, _, _ := newTestListener(t, stubConnector{}, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, svc.Run(ctx))
}

func TestMakeConnectorUnsupported(t *testing.T) {
	_, err := MakeConnector(context.Background(), config.Config{}, "pop3")
	assert.EqualError(t, err, "unsupported provider: pop3")
}

func TestRunCycleIgnoresOtherProvidersBacklog(t *testing.T) {
	conn := stubConnector{messages: []internal.FetchedMailMessage{
		{Provider: "imap", MessageID: "<shift-1@example.com>", ReceivedAt: "2026-03-05T00:00:00Z", Raw: fixture(t, "shift_chat.eml")},
	}}
	svc, db, _ := newTestListener(t, conn, true)
	svc.cfg.MailListenerProcessBatch = 2

	for _, id := range []string{"<g1@example.com>", "<g2@example.com>", "<g3@example.com>"} {
		_, err := db.UpsertEmail("gmail", id, "", "", "2026-01-01T00:00:00Z", id, "gone.eml", internal.EmailFetched)
		require.NoError(t, err)
	}

	require.NoError(t, svc.RunCycle(context.Background()))

	chat, err := db.MustEmailByProviderMessageID("imap", "<shift-1@example.com>")
	require.NoError(t, err)
	assert.Equal(t, internal.EmailExported, chat.Status)

	backlog, err := db.ListEmailsByStatusAndProvider(internal.EmailFetched, "gmail", 10)
	require.NoError(t, err)
	assert.Len(t, backlog, 3)
}

func TestRunCycleContinuesPastBrokenMail(t *testing.T) {
	conn := stubConnector{messages: []internal.FetchedMailMessage{
		{Provider: "imap", MessageID: "<shift-1@example.com>", ReceivedAt: "2026-03-05T00:00:00Z", Raw: fixture(t, "shift_chat.eml")},
	}}
	svc, db, _ := newTestListener(t, conn, true)
	broken, err := db.UpsertEmail("imap", "<gone@example.com>", "Maintenance chat", "", "2026-01-01T00:00:00Z", "gone", filepath.Join(t.TempDir(), "gone.eml"), internal.EmailFetched)
	require.NoError(t, err)

	require.NoError(t, svc.RunCycle(context.Background()))

	row, err := db.MustEmailByID(broken.ID)
	require.NoError(t, err)
	assert.Equal(t, internal.EmailFailed, row.Status)

	chat, err := db.MustEmailByProviderMessageID("imap", "<shift-1@example.com>")
	require.NoError(t, err)
	assert.Equal(t, internal.EmailExported, chat.Status)
}
