package mailer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMIMEMessage_MultipartAlternative(t *testing.T) {
	msg, err := buildMIMEMessage(Email{
		FromName: "Australian AI Safety Forum",
		From:     "noreply@aisafetyforum.org.au",
		To:       []string{"attendee@example.com"},
		Subject:  "Your refund",
		TextBody: "plain body",
		HTMLBody: "<p>html body</p>",
	}, "aisafetyforum.org.au")
	require.NoError(t, err)

	assert.Contains(t, msg, "To: attendee@example.com\r\n")
	assert.Contains(t, msg, "MIME-Version: 1.0\r\n")
	assert.Contains(t, msg, "multipart/alternative")
	assert.Contains(t, msg, "plain body")
	assert.Contains(t, msg, "<p>html body</p>")
	assert.True(t, strings.Contains(msg, "Message-ID: <"))
}

func TestBuildMIMEMessage_Validation(t *testing.T) {
	_, err := buildMIMEMessage(Email{From: "a@b.c", Subject: "s", TextBody: "x"}, "b.c")
	require.Error(t, err, "recipient required")

	_, err = buildMIMEMessage(Email{To: []string{"a@b.c"}, Subject: "s", TextBody: "x"}, "b.c")
	require.Error(t, err, "from required")

	_, err = buildMIMEMessage(Email{To: []string{"a@b.c"}, From: "b@b.c", Subject: "s"}, "b.c")
	require.Error(t, err, "a body is required")
}

func TestBuildMIMEMessage_SingleBody(t *testing.T) {
	msg, err := buildMIMEMessage(Email{
		From:     "noreply@aisafetyforum.org.au",
		To:       []string{"a@example.com"},
		Subject:  "Hello",
		TextBody: "text only",
	}, "aisafetyforum.org.au")
	require.NoError(t, err)
	assert.NotContains(t, msg, "multipart/alternative")
	assert.Contains(t, msg, "Content-Type: text/plain; charset=UTF-8\r\n")
}
