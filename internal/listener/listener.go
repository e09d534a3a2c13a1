package listener

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"maintlog/internal"
	"maintlog/internal/config"
	"maintlog/internal/connectors"
	gmailconnector "maintlog/internal/connectors/gmail"
	imapconnector "maintlog/internal/connectors/imap"
	"maintlog/internal/pipeline"
	"maintlog/internal/storage"
)

const lastCycleKey = "listener.last_cycle"

// Service polls a mailbox, turns maintenance chat mails into work-report
// workbooks and repeats until ctx is cancelled.
type Service struct {
	db      *storage.DB
	cfg     config.Config
	log     logrus.FieldLogger
	connect func(ctx context.Context) (connectors.MailConnector, error)
}

func NewService(db *storage.DB, cfg config.Config, log logrus.FieldLogger) *Service {
	s := &Service{db: db, cfg: cfg, log: log}
	s.connect = func(ctx context.Context) (connectors.MailConnector, error) {
		return MakeConnector(ctx, s.cfg, s.cfg.MailListenerProvider)
	}
	return s
}

func (s *Service) Run(ctx context.Context) error {
	interval := time.Duration(s.cfg.MailListenerIntervalSec) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	for {
		if err := s.RunCycle(ctx); err != nil {
			s.log.WithError(err).Error("listener cycle failed")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}

func (s *Service) RunCycle(ctx context.Context) error {
	provider := normalizeProvider(s.cfg.MailListenerProvider)
	mailConnector, err := s.connect(ctx)
	if err != nil {
		return err
	}

	fetchService := connectors.NewFetchService(s.db, s.cfg.RawMailDir, mailConnector, s.log)
	fetchResult, err := fetchService.FetchAndStore(ctx, s.cfg.MailListenerLabel, s.cfg.MailListenerFetchMax)
	if err != nil {
		return err
	}

	processor := pipeline.NewProcessingService(s.db, s.cfg, s.log)
	processedEmails, records, err := processor.ProcessPending(s.cfg.MailListenerProcessBatch, provider)
	if err != nil {
		return err
	}

	exported := 0
	if s.cfg.MailListenerAutoExport {
		exported, err = s.exportProcessed(processor, provider)
		if err != nil {
			return err
		}
	}

	_ = s.db.SetMetadata(lastCycleKey, time.Now().UTC().Format(time.RFC3339))
	s.log.WithFields(logrus.Fields{
		"provider":  provider,
		"fetched":   fetchResult.Fetched,
		"stored":    fetchResult.Stored,
		"processed": processedEmails,
		"records":   records,
		"exported":  exported,
	}).Info("listener cycle done")
	return nil
}

// LastCycle reports when the listener last finished a cycle; empty when it
// never has.
func (s *Service) LastCycle() (string, error) {
	value, err := s.db.GetMetadata(lastCycleKey)
	if err != nil || value == nil {
		return "", err
	}
	return *value, nil
}

func (s *Service) exportProcessed(processor *pipeline.ProcessingService, provider string) (int, error) {
	emails, err := s.db.ListEmailsByStatusAndProvider(internal.EmailProcessed, provider, s.exportBatch())
	if err != nil {
		return 0, err
	}

	exported := 0
	for _, email := range emails {
		res, err := processor.ExportEmail(email, "")
		if err != nil {
			if markErr := processor.MarkFailed(email, err); markErr != nil {
				return exported, markErr
			}
			continue
		}
		if !res.Skipped {
			exported++
		}
	}
	return exported, nil
}

func (s *Service) exportBatch() int {
	if s.cfg.MailListenerProcessBatch > 0 {
		return s.cfg.MailListenerProcessBatch
	}
	return 20
}

// MakeConnector builds the mailbox client for provider (gmail or imap).
func MakeConnector(ctx context.Context, cfg config.Config, provider string) (connectors.MailConnector, error) {
	switch normalizeProvider(provider) {
	case "gmail":
		return gmailconnector.NewConnector(ctx, cfg)
	case "imap":
		return imapconnector.NewConnector(cfg)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}
