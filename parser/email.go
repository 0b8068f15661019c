package parser

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/Khalid-Galal/bidops-ai/types"
)

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

// EmailParser reads RFC 822 .eml files. The routing headers are rendered as
// a block before the body so correspondence stays attributable after
// chunking. text/plain parts are preferred; HTML-only mail is tag-stripped.
type EmailParser struct{}

func NewEmailParser() *EmailParser { return &EmailParser{} }

func (p *EmailParser) Extensions() []string {
	return []string{".eml"}
}

func (p *EmailParser) Parse(ctx context.Context, path string) (*types.ParsedContent, error) {
	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		return nil, types.NewParseError(path, err)
	}
	defer f.Close()

	msg, err := mail.ReadMessage(f)
	if err != nil {
		return nil, types.NewParseError(path, fmt.Errorf("failed to read message: %w", err))
	}

	var sb strings.Builder
	meta := make(map[string]any)
	for _, h := range []string{"From", "To", "Cc", "Subject", "Date"} {
		if v := decodeHeader(msg.Header.Get(h)); v != "" {
			sb.WriteString(fmt.Sprintf("%s: %s\n", h, v))
			meta[strings.ToLower(h)] = v
		}
	}
	sb.WriteString("\n")

	body, attachments, err := extractMailBody(msg)
	if err != nil {
		return nil, types.NewParseError(path, err)
	}
	sb.WriteString(body)

	if len(attachments) > 0 {
		meta["attachments"] = attachments
	}

	content := &types.ParsedContent{
		Text:             strings.TrimSpace(sb.String()),
		Metadata:         meta,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}
	return content, nil
}

func (p *EmailParser) ExtractMetadata(ctx context.Context, path string) (map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, types.NewParseError(path, err)
	}
	defer f.Close()

	msg, err := mail.ReadMessage(f)
	if err != nil {
		return nil, types.NewParseError(path, err)
	}
	meta := make(map[string]any)
	for _, h := range []string{"From", "To", "Subject", "Date"} {
		if v := decodeHeader(msg.Header.Get(h)); v != "" {
			meta[strings.ToLower(h)] = v
		}
	}
	return meta, nil
}

func decodeHeader(s string) string {
	dec := new(mime.WordDecoder)
	out, err := dec.DecodeHeader(s)
	if err != nil {
		return s
	}
	return out
}

// extractMailBody returns the best body text and the filenames of any
// attachments. Attachment contents are not parsed; the ingestion pipeline
// only sees files that exist on disk.
func extractMailBody(msg *mail.Message) (string, []string, error) {
	contentType := msg.Header.Get("Content-Type")
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		body, err := decodeBody(msg.Body, msg.Header.Get("Content-Transfer-Encoding"))
		if err != nil {
			return "", nil, err
		}
		if strings.HasPrefix(mediaType, "text/html") {
			body = stripHTML(body)
		}
		return body, nil, nil
	}

	mr := multipart.NewReader(msg.Body, params["boundary"])
	var (
		plain       string
		html        string
		attachments []string
	)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", nil, fmt.Errorf("failed to read multipart body: %w", err)
		}

		if name := part.FileName(); name != "" {
			attachments = append(attachments, name)
			continue
		}

		partType, _, _ := mime.ParseMediaType(part.Header.Get("Content-Type"))
		data, err := decodeBody(part, part.Header.Get("Content-Transfer-Encoding"))
		if err != nil {
			continue
		}
		switch {
		case partType == "text/plain" && plain == "":
			plain = data
		case partType == "text/html" && html == "":
			html = data
		}
	}

	if plain != "" {
		return plain, attachments, nil
	}
	return stripHTML(html), attachments, nil
}

func decodeBody(r io.Reader, encoding string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "quoted-printable":
		r = quotedprintable.NewReader(r)
	case "base64":
		r = base64.NewDecoder(base64.StdEncoding, r)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to decode body: %w", err)
	}
	return string(data), nil
}

func stripHTML(s string) string {
	s = htmlTagRe.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	lines := strings.Split(s, "\n")
	var kept []string
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
