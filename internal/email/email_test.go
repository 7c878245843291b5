package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
)

type resendPayload struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	ReplyTo string   `json:"reply_to"`
}

func TestResendSender_Send(t *testing.T) {
	var got resendPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"em_1"}`))
	}))
	defer srv.Close()

	s, err := NewResendSender(srv.URL, "re_key", "Chat <noreply@example.com>")
	require.NoError(t, err)
	err = s.Send(context.Background(), Message{
		To:      []string{"inbox@example.com"},
		Subject: "New AI Chat Lead",
		HTML:    "<p>hi</p>",
		ReplyTo: "visitor@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "Chat <noreply@example.com>", got.From)
	assert.Equal(t, []string{"inbox@example.com"}, got.To)
	assert.Equal(t, "<p>hi</p>", got.HTML)
	assert.Equal(t, "visitor@example.com", got.ReplyTo)
}

func TestResendSender_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"statusCode":422,"name":"validation_error","message":"bad from"}`))
	}))
	defer srv.Close()

	s, err := NewResendSender(srv.URL, "re_key", "x@example.com")
	require.NoError(t, err)
	err = s.Send(context.Background(), Message{To: []string{"a@example.com"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad from")

	noKey, err := NewResendSender(srv.URL, "", "x@example.com")
	require.NoError(t, err)
	assert.Error(t, noKey.Send(context.Background(), Message{To: []string{"a@example.com"}}))
	assert.Error(t, s.Send(context.Background(), Message{}))
}

func TestSMTPSender_Send(t *testing.T) {
	var rendered bytes.Buffer
	s := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", Port: 587, User: "u", Pass: "p", From: "Chat <noreply@example.com>"})
	s.deliver = func(ctx context.Context, m *mail.Msg) error {
		_, err := m.WriteTo(&rendered)
		return err
	}

	err := s.Send(context.Background(), Message{To: []string{"inbox@example.com"}, Subject: "New inquiry", HTML: "<b>x</b>", ReplyTo: "v@example.com"})
	require.NoError(t, err)

	out := rendered.String()
	assert.Contains(t, out, "noreply@example.com")
	assert.Contains(t, out, "inbox@example.com")
	assert.Contains(t, out, "Reply-To: <v@example.com>")
	assert.Contains(t, out, "Subject: New inquiry")
	assert.Contains(t, out, "text/html")
	assert.Contains(t, out, "<b>x</b>")
}

func TestSMTPSender_Errors(t *testing.T) {
	boom := errors.New("connection refused")
	s := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", Port: 587, From: "noreply@example.com"})
	s.deliver = func(ctx context.Context, m *mail.Msg) error { return boom }

	assert.ErrorIs(t, s.Send(context.Background(), Message{To: []string{"a@example.com"}}), boom)
	assert.Error(t, s.Send(context.Background(), Message{}))
	assert.Error(t, s.Send(context.Background(), Message{To: []string{"not an address"}}))
	assert.Error(t, NewSMTPSender(SMTPConfig{}).Send(context.Background(), Message{To: []string{"a@example.com"}}))
}
