package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jhillyerd/enmime"
	pdf "github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"
	"golang.org/x/net/html"

	"maintlog/internal"
	"maintlog/internal/util"
)

var ErrUnsupportedInput = errors.New("unsupported input type")

// ChatEmail is the chat text recovered from one mail: the body plus any
// chat-export attachments, in that order.
type ChatEmail struct {
	Subject         string
	Text            string
	AttachmentNames []string
}

// LoadChatText reads raw chat text from the given source. For "text" the
// value is the chat itself; for every other type it is a path ("-" reads
// stdin for "file").
func LoadChatText(inputType internal.InputSource, value string) (string, error) {
	if inputType == internal.SourceText {
		return value, nil
	}

	blob, err := readInput(value)
	if err != nil {
		return "", err
	}

	switch inputType {
	case internal.SourceFile:
		return string(blob), nil
	case internal.SourceEML:
		chat, err := ExtractChatFromEmailRaw(blob)
		if err != nil {
			return "", err
		}
		return chat.Text, nil
	case internal.SourceHTML:
		return HTMLToText(string(blob))
	case internal.SourcePDF:
		return PDFToText(blob)
	case internal.SourceXLSX:
		return ReadXLSXText(blob)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedInput, inputType)
	}
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return blob, nil
}

// ExtractChatFromEmailRaw pulls chat text out of an RFC 822 message. Chat
// exports usually arrive as .txt attachments; html, pdf and xlsx attachments
// are converted to text as well. Attachments that fail to convert are
// skipped.
func ExtractChatFromEmailRaw(raw []byte) (ChatEmail, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return ChatEmail{}, fmt.Errorf("read envelope: %w", err)
	}

	body := env.Text
	if strings.TrimSpace(body) == "" && env.HTML != "" {
		if text, err := HTMLToText(env.HTML); err == nil {
			body = text
		}
	}
	sections := []string{body}

	attachmentNames := make([]string, 0, len(env.Attachments))
	for _, att := range env.Attachments {
		filename := strings.TrimSpace(att.FileName)
		if filename == "" {
			filename = "attachment"
		}
		attachmentNames = append(attachmentNames, filename)

		text, err := attachmentText(filename, att.ContentType, att.Content)
		if err != nil {
			continue
		}
		sections = append(sections, text)
	}

	return ChatEmail{
		Subject:         env.GetHeader("Subject"),
		Text:            util.JoinSections(sections...),
		AttachmentNames: attachmentNames,
	}, nil
}

func attachmentText(filename, contentType string, content []byte) (string, error) {
	switch {
	case util.HasAnySuffix(filename, ".txt") || strings.HasPrefix(contentType, "text/plain"):
		return string(content), nil
	case util.HasAnySuffix(filename, ".html", ".htm") || strings.HasPrefix(contentType, "text/html"):
		return HTMLToText(string(content))
	case util.HasAnySuffix(filename, ".pdf"):
		return PDFToText(content)
	case util.HasAnySuffix(filename, ".xlsx"):
		return ReadXLSXText(content)
	default:
		return "", fmt.Errorf("%w: attachment %s", ErrUnsupportedInput, filename)
	}
}

const blockSelectors = "p,div,li,tr,h1,h2,h3,h4,h5,h6,pre,blockquote"

// HTMLToText renders html as plain lines: <br> and block elements end a line,
// scripts and styles are dropped.
func HTMLToText(markup string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", err
	}
	doc.Find("script,style,head").Remove()
	doc.Find("br").Each(func(_ int, s *goquery.Selection) {
		s.ReplaceWithNodes(newline())
	})
	doc.Find(blockSelectors).Each(func(_ int, s *goquery.Selection) {
		s.AppendNodes(newline())
	})
	return strings.TrimSpace(util.NormalizeSpaces(doc.Text())), nil
}

func newline() *html.Node {
	return &html.Node{Type: html.TextNode, Data: "\n"}
}

func PDFToText(content []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", err
	}

	pages := []string{}
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		pages = append(pages, text)
	}
	return util.NormalizeSpaces(strings.Join(pages, "\n")), nil
}

// ReadXLSXText flattens every sheet into lines, one per row, joining the
// non-empty cells of a row with a space.
func ReadXLSXText(content []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return "", err
	}
	defer f.Close()

	lines := []string{}
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}
		for _, row := range rows {
			cells := make([]string, 0, len(row))
			for _, c := range row {
				if c = strings.TrimSpace(c); c != "" {
					cells = append(cells, c)
				}
			}
			if len(cells) > 0 {
				lines = append(lines, strings.Join(cells, " "))
			}
		}
	}
	return strings.Join(lines, "\n"), nil
}
