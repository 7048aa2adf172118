package eml

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

func normalise(t *testing.T, eml string) string {
	t.Helper()
	text, err := New().Normalise(context.Background(), &domain.RawContent{
		Name:     "email.eml",
		MIMEType: "message/rfc822",
		Content:  []byte(eml),
	})
	require.NoError(t, err)
	return text
}

func TestSupportedMIMETypes(t *testing.T) {
	assert.Equal(t, []string{"message/rfc822"}, New().SupportedMIMETypes())
}

func TestPriority(t *testing.T) {
	assert.Equal(t, 50, New().Priority())
}

func TestNormalise_NilContent(t *testing.T) {
	text, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, text)
}

func TestNormalise_SimpleEmail(t *testing.T) {
	text := normalise(t, `From: sender@example.com
To: recipient@example.com
Subject: Test Email Subject
Date: Mon, 01 Jan 2024 10:00:00 +0000
Content-Type: text/plain

This is the body of the email.
It has multiple lines.
`)

	assert.Equal(t, `From: sender@example.com
To: recipient@example.com
Date: Mon, 01 Jan 2024 10:00:00 +0000
Subject: Test Email Subject

This is the body of the email.
It has multiple lines.`, text)
}

func TestNormalise_NoSubject(t *testing.T) {
	text := normalise(t, `From: sender@example.com
Content-Type: text/plain

Email without subject.
`)

	assert.Equal(t, "From: sender@example.com\n\nEmail without subject.", text)
}

func TestNormalise_HTMLBody(t *testing.T) {
	text := normalise(t, `From: sender@example.com
Subject: HTML Email
Content-Type: text/html

<html>
<body>
<h1>Hello</h1>
<p>This is <b>HTML</b> content.</p>
</body>
</html>
`)

	assert.Contains(t, text, "Hello")
	assert.Contains(t, text, "HTML content")
	assert.NotContains(t, text, "<h1>")
	assert.NotContains(t, text, "<p>")
}

func TestNormalise_MultipartAlternative(t *testing.T) {
	text := normalise(t, `From: sender@example.com
Subject: Multipart Email
Content-Type: multipart/alternative; boundary="boundary123"

--boundary123
Content-Type: text/plain

Plain text version of the email.
--boundary123
Content-Type: text/html

<html><body><p>HTML version</p></body></html>
--boundary123--
`)

	assert.Contains(t, text, "Plain text version")
	assert.NotContains(t, text, "HTML version")
}

func TestNormalise_HTMLOnlyMultipart(t *testing.T) {
	text := normalise(t, `Subject: Newsletter
Content-Type: multipart/mixed; boundary="b1"

--b1
Content-Type: text/html

<p>Only <b>HTML</b> here</p>
--b1
Content-Type: application/pdf

%PDF-1.4
--b1--
`)

	assert.Contains(t, text, "Only HTML here")
	assert.NotContains(t, text, "%PDF")
}

func TestNormalise_TransferEncodings(t *testing.T) {
	t.Run("base64", func(t *testing.T) {
		text := normalise(t, "Subject: B64\r\nContent-Type: text/plain\r\nContent-Transfer-Encoding: base64\r\n\r\nSGVsbG8g\r\nV29ybGQ=\r\n")
		assert.Equal(t, "Subject: B64\n\nHello World", text)
	})

	t.Run("quoted-printable", func(t *testing.T) {
		text := normalise(t, "Subject: QP\nContent-Type: text/plain\nContent-Transfer-Encoding: quoted-printable\n\nCaf=C3=A9 au lait\n")
		assert.Equal(t, "Subject: QP\n\nCaf\u00E9 au lait", text)
	})
}

func TestNormalise_EncodedSubject(t *testing.T) {
	text := normalise(t, `Subject: =?UTF-8?B?SGVsbG8gV29ybGQ=?=
Content-Type: text/plain

Body content.
`)

	assert.Contains(t, text, "Subject: Hello World")
}

func TestNormalise_InvalidEmail(t *testing.T) {
	text, err := New().Normalise(context.Background(), &domain.RawContent{
		MIMEType: "message/rfc822",
		Content:  []byte("not a valid email"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, text)
}

func TestDecodeHeader(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain text", input: "Simple Subject", expected: "Simple Subject"},
		{name: "empty", input: "", expected: ""},
		{name: "utf8 base64 encoded", input: "=?UTF-8?B?SGVsbG8gV29ybGQ=?=", expected: "Hello World"},
		{name: "utf8 quoted printable", input: "=?UTF-8?Q?Hello_World?=", expected: "Hello World"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, decodeHeader(tc.input))
		})
	}
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Normaliser = (*Normaliser)(nil)
}
