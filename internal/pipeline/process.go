package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"maintlog/internal"
	"maintlog/internal/config"
	"maintlog/internal/parser"
	"maintlog/internal/storage"
	"maintlog/internal/util"
)

type ProcessingService struct {
	db  *storage.DB
	cfg config.Config
	log logrus.FieldLogger
}

func NewProcessingService(db *storage.DB, cfg config.Config, log logrus.FieldLogger) *ProcessingService {
	return &ProcessingService{db: db, cfg: cfg, log: log}
}

type ProcessResult struct {
	EmailID    int
	Entries    int
	Records    int
	Skipped    bool
	OutputPath string
}

// EmailReport is everything derived from one stored mail.
type EmailReport struct {
	Chat   ChatEmail
	Detect DetectResult
	Report parser.Report
}

func (s *ProcessingService) ProcessByProviderMessageID(provider, messageID string) (ProcessResult, error) {
	email, err := s.db.MustEmailByProviderMessageID(provider, messageID)
	if err != nil {
		return ProcessResult{}, err
	}
	return s.ProcessEmail(email)
}

// ProcessPending works through the oldest fetched mails of provider (any
// provider when empty). A mail that cannot be processed is marked failed so
// it no longer holds up the rest of the queue.
func (s *ProcessingService) ProcessPending(limit int, provider string) (int, int, error) {
	pending, err := s.db.ListEmailsByStatusAndProvider(internal.EmailFetched, provider, limit)
	if err != nil {
		return 0, 0, err
	}
	processedEmails := 0
	processedRecords := 0
	for _, email := range pending {
		res, err := s.ProcessEmail(email)
		if err != nil {
			if markErr := s.MarkFailed(email, err); markErr != nil {
				return processedEmails, processedRecords, markErr
			}
			continue
		}
		if res.Skipped {
			continue
		}
		processedEmails++
		processedRecords += res.Records
	}
	return processedEmails, processedRecords, nil
}

// MarkFailed logs cause and moves the mail to the failed status.
func (s *ProcessingService) MarkFailed(email internal.EmailRow, cause error) error {
	s.log.WithError(cause).WithFields(logrus.Fields{"emailId": email.ID, "provider": email.Provider}).Error("mail failed")
	if err := s.db.UpdateEmailStatus(email.ID, internal.EmailFailed); err != nil {
		return fmt.Errorf("mark email %d failed: %w", email.ID, err)
	}
	return nil
}

// BuildReport re-reads the stored raw mail and parses it from scratch.
func (s *ProcessingService) BuildReport(email internal.EmailRow) (EmailReport, error) {
	raw, err := os.ReadFile(email.RawRef)
	if err != nil {
		return EmailReport{}, fmt.Errorf("read raw mail %d: %w", email.ID, err)
	}
	chat, err := ExtractChatFromEmailRaw(raw)
	if err != nil {
		return EmailReport{}, err
	}

	detect := DetectChatLog(util.FirstNonEmpty(chat.Subject, email.Subject), chat.Text, chat.AttachmentNames, s.cfg.DetectThreshold)
	out := EmailReport{Chat: chat, Detect: detect}
	if detect.IsChatLog {
		out.Report = parser.ParseConcurrent(chat.Text, s.cfg.ParseWorkers)
	}
	return out, nil
}

func (s *ProcessingService) ProcessEmail(email internal.EmailRow) (ProcessResult, error) {
	start := time.Now()
	log := s.log.WithFields(logrus.Fields{"emailId": email.ID, "provider": email.Provider})

	built, err := s.BuildReport(email)
	if err != nil {
		return ProcessResult{}, err
	}

	if !built.Detect.IsChatLog {
		if err := s.db.UpdateEmailStatus(email.ID, internal.EmailSkipped); err != nil {
			return ProcessResult{}, err
		}
		s.recordRun(email.ID, "", start, built.Report)
		log.WithField("score", built.Detect.Score).Info("mail skipped: not a maintenance chat log")
		return ProcessResult{EmailID: email.ID, Skipped: true}, nil
	}

	if err := s.db.UpdateEmailStatus(email.ID, internal.EmailProcessed); err != nil {
		return ProcessResult{}, err
	}
	s.recordRun(email.ID, "", start, built.Report)
	log.WithFields(logrus.Fields{
		"entries": built.Report.Entries,
		"records": len(built.Report.Records),
	}).Info("mail processed")

	return ProcessResult{EmailID: email.ID, Entries: built.Report.Entries, Records: len(built.Report.Records)}, nil
}

// ExportEmail writes the work-report workbook for one mail. Skipped mails
// have nothing to export.
func (s *ProcessingService) ExportEmail(email internal.EmailRow, outputPath string) (ProcessResult, error) {
	start := time.Now()
	built, err := s.BuildReport(email)
	if err != nil {
		return ProcessResult{}, err
	}
	if !built.Detect.IsChatLog {
		return ProcessResult{EmailID: email.ID, Skipped: true}, nil
	}

	if outputPath == "" {
		outputPath = s.DefaultOutputPath(email)
	}
	if err := ExportRowsToXLSX(built.Report.Rows(), outputPath, s.exportOptions()); err != nil {
		return ProcessResult{}, fmt.Errorf("export mail %d: %w", email.ID, err)
	}
	if err := s.db.UpdateEmailStatus(email.ID, internal.EmailExported); err != nil {
		return ProcessResult{}, err
	}
	s.recordRun(email.ID, outputPath, start, built.Report)
	s.log.WithFields(logrus.Fields{"emailId": email.ID, "output": outputPath}).Info("work report exported")

	return ProcessResult{
		EmailID:    email.ID,
		Entries:    built.Report.Entries,
		Records:    len(built.Report.Records),
		OutputPath: outputPath,
	}, nil
}

// History returns the ledger row of one mail with every run recorded for it.
func (s *ProcessingService) History(emailID int) (internal.EmailRow, []internal.RunRow, error) {
	email, err := s.db.MustEmailByID(emailID)
	if err != nil {
		return internal.EmailRow{}, nil, err
	}
	runs, err := s.db.ListRuns(emailID)
	if err != nil {
		return internal.EmailRow{}, nil, fmt.Errorf("list runs for email %d: %w", emailID, err)
	}
	return email, runs, nil
}

func (s *ProcessingService) DefaultOutputPath(email internal.EmailRow) string {
	filename := fmt.Sprintf("%d_%s.xlsx", email.ID, util.SanitizeFileName(email.MessageID))
	return filepath.Join(s.cfg.OutputDir, "reports", filename)
}

func (s *ProcessingService) exportOptions() ExportOptions {
	return ExportOptions{SheetName: s.cfg.ReportSheetName, WidthFactor: s.cfg.ReportWidthFactor}
}

func (s *ProcessingService) recordRun(emailID int, outputPath string, start time.Time, report parser.Report) {
	counts := map[string]int{
		"entries": report.Entries,
		"records": len(report.Records),
		"dropped": report.Dropped(),
	}
	timings := map[string]float64{"totalMs": float64(time.Since(start).Milliseconds())}
	if err := s.db.InsertRun(uuid.NewString(), emailID, outputPath, timings, counts); err != nil {
		s.log.WithError(err).WithField("emailId", emailID).Warn("failed to record run")
	}
}

// RunOneShot parses chat text from any supported source and writes the
// workbook. No ledger is involved.
func RunOneShot(inputType internal.InputSource, input, outputPath string, opts ExportOptions, workers int) (parser.Report, error) {
	text, err := LoadChatText(inputType, input)
	if err != nil {
		return parser.Report{}, err
	}
	report := parser.ParseConcurrent(text, workers)
	if err := ExportRowsToXLSX(report.Rows(), outputPath, opts); err != nil {
		return parser.Report{}, err
	}
	return report, nil
}
