package mail

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devspacehq/pulse"
)

func TestNewMailerValidation(t *testing.T) {
	_, err := NewMailer(Config{})
	require.Error(t, err)

	_, err = NewMailer(Config{Host: "smtp.example.org"})
	require.Error(t, err)

	m, err := NewMailer(Config{Host: "smtp.example.org", From: "pulse@example.org"})
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestNewMailerRejectsBrokenTemplates(t *testing.T) {
	_, err := NewMailer(
		Config{
			Host: "smtp.example.org",
			From: "pulse@example.org",
			Templates: map[string]Template{
				"commit": {Subject: "{{.broken", Body: "ok"},
			},
		},
	)
	require.Error(t, err)
}

func TestSendUnknownTemplate(t *testing.T) {
	m, err := NewMailer(Config{Host: "smtp.example.org", From: "pulse@example.org"})
	require.NoError(t, err)

	err = m.Send(
		context.Background(), pulse.EmailRequest{
			To:       "owner@example.org",
			Template: "nope",
		},
	)
	require.Error(t, err)
}
