package parser

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEmail(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "mail.eml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestEmailPlainParse(t *testing.T) {
	raw := strings.Join([]string{
		"From: buyer@authority.example",
		"To: bids@contractor.example",
		"Subject: Clarification No. 3",
		"Date: Mon, 12 Jan 2026 10:00:00 +0200",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"Please confirm receipt of addendum 2.",
		"",
	}, "\r\n")

	p := NewEmailParser()
	content, err := p.Parse(context.Background(), writeEmail(t, t.TempDir(), raw))
	require.NoError(t, err)

	assert.Contains(t, content.Text, "From: buyer@authority.example")
	assert.Contains(t, content.Text, "Subject: Clarification No. 3")
	assert.Contains(t, content.Text, "Please confirm receipt of addendum 2.")
	assert.Equal(t, "Clarification No. 3", content.Metadata["subject"])
	assert.Nil(t, content.Metadata["attachments"])
}

func TestEmailMultipartPrefersPlain(t *testing.T) {
	raw := strings.Join([]string{
		"From: buyer@authority.example",
		"To: bids@contractor.example",
		"Subject: Tender documents",
		"MIME-Version: 1.0",
		`Content-Type: multipart/mixed; boundary="SPLIT"`,
		"",
		"--SPLIT",
		"Content-Type: text/html; charset=utf-8",
		"",
		"<html><body><p>See attached <b>BOQ</b>.</p></body></html>",
		"--SPLIT",
		"Content-Type: text/plain; charset=utf-8",
		"Content-Transfer-Encoding: quoted-printable",
		"",
		"See attached BOQ =E2=80=94 revision B.",
		"--SPLIT",
		`Content-Type: application/pdf; name="boq.pdf"`,
		`Content-Disposition: attachment; filename="boq.pdf"`,
		"Content-Transfer-Encoding: base64",
		"",
		"JVBERi0xLjQ=",
		"--SPLIT--",
		"",
	}, "\r\n")

	p := NewEmailParser()
	content, err := p.Parse(context.Background(), writeEmail(t, t.TempDir(), raw))
	require.NoError(t, err)

	assert.Contains(t, content.Text, "See attached BOQ — revision B.", "quoted-printable is decoded")
	assert.NotContains(t, content.Text, "<b>", "html alternative is not used when plain exists")
	assert.Equal(t, []string{"boq.pdf"}, content.Metadata["attachments"])
}

func TestEmailHTMLOnlyStripped(t *testing.T) {
	raw := strings.Join([]string{
		"From: buyer@authority.example",
		"Subject: Site visit",
		"Content-Type: text/html; charset=utf-8",
		"",
		"<html><body><p>Meet at the&nbsp;north gate &amp; bring ID.</p></body></html>",
		"",
	}, "\r\n")

	p := NewEmailParser()
	content, err := p.Parse(context.Background(), writeEmail(t, t.TempDir(), raw))
	require.NoError(t, err)

	assert.NotContains(t, content.Text, "<p>")
	assert.Contains(t, content.Text, "north gate & bring ID.")
}

func TestEmailEncodedSubject(t *testing.T) {
	raw := strings.Join([]string{
		"From: buyer@authority.example",
		"Subject: =?utf-8?q?Cl=C3=B4ture_des_offres?=",
		"Content-Type: text/plain",
		"",
		"Body.",
		"",
	}, "\r\n")

	p := NewEmailParser()
	content, err := p.Parse(context.Background(), writeEmail(t, t.TempDir(), raw))
	require.NoError(t, err)
	assert.Equal(t, "Clôture des offres", content.Metadata["subject"])
}

func TestEmailNotAMessage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.eml")
	require.NoError(t, os.WriteFile(path, []byte("no headers here at all"), 0o644))

	p := NewEmailParser()
	_, err := p.Parse(context.Background(), path)
	assert.Error(t, err)
}
