// Package parser turns maintenance chat logs into work-report records.
//
// The flow is Normalize -> Segment -> Extract. Every step is a pure function
// over strings; nothing here performs I/O or fails.
package parser

import (
	"sync"

	"maintlog/internal"
)

var Header = []string{"Equipment", "Description", "Technician"}

type Report struct {
	Records []internal.Record
	// Entries counts every segmented entry, including the ones dropped for
	// an empty description.
	Entries int
}

// Rows renders the report as a header row followed by one row per record.
func (r Report) Rows() [][]string {
	rows := make([][]string, 0, len(r.Records)+1)
	rows = append(rows, append([]string(nil), Header...))
	for _, rec := range r.Records {
		rows = append(rows, []string{rec.Equipment, rec.Description, rec.Technician})
	}
	return rows
}

func (r Report) Dropped() int {
	return r.Entries - len(r.Records)
}

func Parse(raw string) Report {
	return ParseConcurrent(raw, 1)
}

// ParseConcurrent is Parse with extraction spread over up to workers
// goroutines. Output order matches Parse.
func ParseConcurrent(raw string, workers int) Report {
	entries := Segment(Normalize(raw))
	extracted := make([]internal.Record, len(entries))
	if workers > len(entries) {
		workers = len(entries)
	}
	if workers <= 1 {
		for i, entry := range entries {
			extracted[i] = Extract(entry)
		}
		return collect(extracted)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				extracted[i] = Extract(entries[i])
			}
		}()
	}
	for i := range entries {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return collect(extracted)
}

func collect(extracted []internal.Record) Report {
	report := Report{Entries: len(extracted)}
	for _, rec := range extracted {
		if rec.Description == "" {
			continue
		}
		report.Records = append(report.Records, rec)
	}
	return report
}
