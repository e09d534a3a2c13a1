package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"maintlog/internal"
	"maintlog/internal/config"
	"maintlog/internal/connectors"
	"maintlog/internal/listener"
	"maintlog/internal/logging"
	"maintlog/internal/pipeline"
	"maintlog/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	log := logging.Setup(cfg)

	cmd := os.Args[1]
	if cmd == "run" {
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "chat text, or a file path (- for stdin)")
		inType := fs.String("type", "file", "text|file|eml|html|pdf|xlsx")
		output := fs.String("output", filepath.Join(cfg.OutputDir, cfg.ReportFileName), "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if *input == "" {
			must(fmt.Errorf("--input is required"))
		}

		opts := pipeline.ExportOptions{SheetName: cfg.ReportSheetName, WidthFactor: cfg.ReportWidthFactor}
		report, err := pipeline.RunOneShot(internal.InputSource(strings.ToLower(*inType)), *input, *output, opts, cfg.ParseWorkers)
		must(err)
		log.WithField("dropped", report.Dropped()).Debug("run done")
		fmt.Printf("Processed %d entries. Spreadsheet written to %s.\n", report.Entries, *output)
		return
	}

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	switch cmd {
	case "mail:fetch":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", cfg.MailListenerProvider, "gmail|imap")
		label := fs.String("label", "INBOX", "mailbox/label")
		max := fs.Int("max", 50, "max messages")
		_ = fs.Parse(os.Args[2:])
		ctx := context.Background()
		conn, err := listener.MakeConnector(ctx, cfg, *provider)
		must(err)
		fetch := connectors.NewFetchService(db, cfg.RawMailDir, conn, log)
		result, err := fetch.FetchAndStore(ctx, *label, *max)
		must(err)
		fmt.Printf("mail fetch done provider=%s fetched=%d stored=%d\n", *provider, result.Fetched, result.Stored)
	case "mail:process":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", cfg.MailListenerProvider, "gmail|imap")
		messageID := fs.String("messageId", "", "specific message-id")
		batch := fs.Int("batch", 20, "batch size")
		_ = fs.Parse(os.Args[2:])
		processor := pipeline.NewProcessingService(db, cfg, log)
		if strings.TrimSpace(*messageID) != "" {
			res, err := processor.ProcessByProviderMessageID(*provider, *messageID)
			must(err)
			if res.Skipped {
				fmt.Printf("skipped email id=%d: not a maintenance chat log\n", res.EmailID)
				return
			}
			fmt.Printf("processed email id=%d entries=%d records=%d\n", res.EmailID, res.Entries, res.Records)
			return
		}
		processedEmails, records, err := processor.ProcessPending(*batch, *provider)
		must(err)
		fmt.Printf("processed pending emails=%d records=%d\n", processedEmails, records)
	case "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		emailID := fs.Int("emailId", 0, "internal email id")
		out := fs.String("out", "", "output xlsx path (default under OUTPUT_DIR/reports)")
		_ = fs.Parse(os.Args[2:])
		if *emailID == 0 {
			must(fmt.Errorf("--emailId is required"))
		}
		email, err := db.MustEmailByID(*emailID)
		must(err)
		processor := pipeline.NewProcessingService(db, cfg, log)
		res, err := processor.ExportEmail(email, strings.TrimSpace(*out))
		must(err)
		if res.Skipped {
			must(fmt.Errorf("email id=%d is not a maintenance chat log", *emailID))
		}
		fmt.Printf("Processed %d entries. Spreadsheet written to %s.\n", res.Entries, res.OutputPath)
	case "mail:status":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		emailID := fs.Int("emailId", 0, "show the runs of one email")
		_ = fs.Parse(os.Args[2:])
		if *emailID != 0 {
			email, runs, err := pipeline.NewProcessingService(db, cfg, log).History(*emailID)
			must(err)
			fmt.Printf("email id=%d provider=%s status=%s subject=%q\n", email.ID, email.Provider, email.Status, email.Subject)
			for _, run := range runs {
				fmt.Printf("  run %s at %s entries=%d records=%d output=%s\n", run.TraceID, run.CreatedAt, run.Counts["entries"], run.Counts["records"], run.OutputPath)
			}
			return
		}
		last, err := listener.NewService(db, cfg, log).LastCycle()
		must(err)
		if last == "" {
			last = "never"
		}
		fmt.Printf("listener last cycle: %s\n", last)
	case "mail:listen":
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		s := listener.NewService(db, cfg, log)
		must(s.Run(ctx))
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("usage: maintlog <command>")
	fmt.Println("commands:")
	fmt.Println("  run --input=... [--type=text|file|eml|html|pdf|xlsx] [--output=./out/work_reports.xlsx]")
	fmt.Println("  mail:fetch --provider=gmail|imap --label=INBOX --max=50")
	fmt.Println("  mail:process --provider=gmail|imap [--messageId=...] [--batch=20]")
	fmt.Println("  mail:listen")
	fmt.Println("  mail:status [--emailId=1]")
	fmt.Println("  export:xlsx --emailId=1 [--out=./out/report.xlsx]")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
