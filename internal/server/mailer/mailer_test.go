package mailer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
)

func TestComposer_Verification(t *testing.T) {
	c := NewComposer("GophAuth")
	c.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }

	msg, err := c.Verification("ana@x.com", "Ana", "012345", 10*time.Minute)
	require.NoError(t, err)

	assert.Equal(t, "ana@x.com", msg.To)
	assert.Equal(t, SubjectVerification, msg.Subject)
	assert.Contains(t, msg.Text, "Your verification code is: 012345")
	assert.Contains(t, msg.Text, "10 minutes")
	assert.Contains(t, msg.HTML, "012345")
	assert.Contains(t, msg.HTML, "Hello Ana!")
	assert.Contains(t, msg.HTML, "2026 GophAuth")
}

func TestComposer_PasswordResetEscapesName(t *testing.T) {
	c := NewComposer("GophAuth")

	msg, err := c.PasswordReset("x@x.com", "<b>Eve</b>", "999999", 10*time.Minute)
	require.NoError(t, err)

	assert.Equal(t, SubjectPasswordReset, msg.Subject)
	assert.NotContains(t, msg.HTML, "<b>Eve</b>")
	assert.Contains(t, msg.HTML, "&lt;b&gt;Eve&lt;/b&gt;")
	assert.Contains(t, msg.Text, "Your password reset code is: 999999")
}

func TestComposer_DefaultName(t *testing.T) {
	msg, err := NewComposer("A").Verification("x@x.com", "  ", "1", time.Minute)
	require.NoError(t, err)
	assert.Contains(t, msg.Text, "Hello User!")
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	_, ok := r.Last()
	assert.False(t, ok)

	require.NoError(t, r.Send(context.Background(), Message{To: "a@x.com"}))

	r.Err = errors.New("smtp down")
	err := r.Send(context.Background(), Message{To: "b@x.com"})
	assert.ErrorIs(t, err, common.ErrUpstreamDelivery)

	last, ok := r.Last()
	require.True(t, ok)
	assert.Equal(t, "b@x.com", last.To)
	assert.Len(t, r.Sent(), 2)
}

func TestTLSPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    mail.TLSPolicy
		wantErr bool
	}{
		{"", mail.TLSMandatory, false},
		{"Mandatory", mail.TLSMandatory, false},
		{"opportunistic", mail.TLSOpportunistic, false},
		{"none", mail.NoTLS, false},
		{"sometimes", mail.NoTLS, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := tlsPolicy(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSMTPDispatcher_DeliveryFailure(t *testing.T) {
	d, err := NewSMTPDispatcher(SMTPConfig{
		Host:      "127.0.0.1",
		Port:      1,
		From:      "GophAuth <no-reply@gophauth.local>",
		TLSPolicy: "none",
		Timeout:   time.Second,
	}, logging.Nop{})
	require.NoError(t, err)

	err = d.Send(context.Background(), Message{To: "ana@x.com", Subject: "s", Text: "t", HTML: "<p>t</p>"})
	assert.ErrorIs(t, err, common.ErrUpstreamDelivery)
}

func TestSMTPDispatcher_BadRecipient(t *testing.T) {
	d, err := NewSMTPDispatcher(SMTPConfig{Host: "localhost", Port: 25, From: "a@x.com", TLSPolicy: "none"}, logging.Nop{})
	require.NoError(t, err)

	err = d.Send(context.Background(), Message{To: "not an address"})
	assert.ErrorIs(t, err, common.ErrUpstreamDelivery)
}
