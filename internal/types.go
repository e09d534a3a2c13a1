package internal

type InputSource string

const (
	SourceText InputSource = "text"
	SourceFile InputSource = "file"
	SourceEML  InputSource = "eml"
	SourceHTML InputSource = "html"
	SourcePDF  InputSource = "pdf"
	SourceXLSX InputSource = "xlsx"
)

// Record is one extracted maintenance note. Equipment and Technician may be
// empty; a Record with an empty Description is never emitted.
type Record struct {
	Equipment   string `json:"equipment"`
	Description string `json:"description"`
	Technician  string `json:"technician"`
}

type EmailStatus string

const (
	EmailFetched   EmailStatus = "fetched"
	EmailProcessed EmailStatus = "processed"
	EmailSkipped   EmailStatus = "skipped"
	EmailExported  EmailStatus = "exported"
	EmailFailed    EmailStatus = "failed"
)

type EmailRow struct {
	ID         int
	Provider   string
	MessageID  string
	Subject    string
	Sender     string
	ReceivedAt string
	Hash       string
	Status     EmailStatus
	RawRef     string
}

type FetchedMailMessage struct {
	Provider   string
	MessageID  string
	Subject    string
	From       string
	ReceivedAt string
	Raw        []byte
}

type RunRow struct {
	ID         int
	TraceID    string
	EmailID    int
	OutputPath string
	Timings    map[string]float64
	Counts     map[string]int
	CreatedAt  string
}
