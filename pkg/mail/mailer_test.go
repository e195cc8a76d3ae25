package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/smtp"
	"strings"
	"testing"
	"time"
)

func TestNewSMTPMailerValidatesConfig(t *testing.T) {
	_, err := NewSMTPMailer(SMTPSettings{Enabled: true})
	if err == nil || !strings.Contains(err.Error(), "host is required") {
		t.Fatalf("expected host validation error, got %v", err)
	}

	mailer, err := NewSMTPMailer(SMTPSettings{Enabled: false})
	if err != nil {
		t.Fatalf("expected disabled configuration to succeed: %v", err)
	}
	if mailer == nil {
		t.Fatal("expected mailer to be returned")
	}
}

func TestSMTPMailerSendDisabled(t *testing.T) {
	mailer, err := NewSMTPMailer(SMTPSettings{Enabled: false})
	if err != nil {
		t.Fatalf("unexpected error creating mailer: %v", err)
	}

	err = mailer.Send(context.Background(), Message{
		To:      []string{"buyer@example.com"},
		Subject: "Quote received",
		Body:    "Hello",
	})
	if err != ErrSMTPDisabled {
		t.Fatalf("expected ErrSMTPDisabled, got %v", err)
	}
}

func TestSMTPMailerDefaultTimeout(t *testing.T) {
	mailer, err := NewSMTPMailer(SMTPSettings{
		Enabled: true,
		Host:    "smtp.example.com",
		Port:    587,
		From:    "no-reply@example.com",
	})
	if err != nil {
		t.Fatalf("unexpected error creating mailer: %v", err)
	}

	sm := mailer.(*smtpMailer)
	if sm.cfg.Timeout != 10*time.Second {
		t.Fatalf("expected default 10s timeout, got %v", sm.cfg.Timeout)
	}
}

func TestSMTPMailerSendRequiresRecipients(t *testing.T) {
	mailer, _ := NewSMTPMailer(SMTPSettings{
		Enabled: true,
		Host:    "smtp.example.com",
		Port:    587,
		From:    "no-reply@example.com",
	})

	err := mailer.(*smtpMailer).Send(context.Background(), Message{
		To:      []string{"   ", "\t"},
		Subject: "No recipients",
		Body:    "Body",
	})
	if err == nil || !strings.Contains(err.Error(), "at least one recipient") {
		t.Fatalf("expected missing recipient error, got %v", err)
	}
}

func TestFormatMessageIncludesReplyTo(t *testing.T) {
	content := formatMessage("portal@example.com", "buyer@example.com", []string{"admin@example.com"}, "Subject\r\nBreak", "Body")
	if !strings.Contains(content, "Reply-To: buyer@example.com") {
		t.Fatalf("expected reply-to header, got %q", content)
	}
	if !strings.Contains(content, "Subject: Subject  Break") {
		t.Fatalf("expected sanitised subject, got %q", content)
	}
	if !strings.HasSuffix(content, "Body") {
		t.Fatalf("expected body suffix, got %q", content)
	}
}

type fakeSMTPClient struct {
	from    string
	rcpts   []string
	data    bytes.Buffer
	quitErr error
}

func (f *fakeSMTPClient) Mail(from string) error { f.from = from; return nil }
func (f *fakeSMTPClient) Rcpt(to string) error   { f.rcpts = append(f.rcpts, to); return nil }
func (f *fakeSMTPClient) Data() (io.WriteCloser, error) {
	return nopWriteCloser{&f.data}, nil
}
func (f *fakeSMTPClient) Quit() error                        { return f.quitErr }
func (f *fakeSMTPClient) Close() error                       { return nil }
func (f *fakeSMTPClient) StartTLS(*tls.Config) error         { return nil }
func (f *fakeSMTPClient) Auth(smtp.Auth) error               { return nil }
func (f *fakeSMTPClient) Extension(string) (bool, string)    { return false, "" }

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func TestSMTPMailerSendDeliversMessage(t *testing.T) {
	fake := &fakeSMTPClient{}
	server, clientConn := net.Pipe()
	defer server.Close()

	m := &smtpMailer{
		cfg: SMTPSettings{
			Enabled: true,
			Host:    "smtp.example.com",
			Port:    587,
			From:    "no-reply@example.com",
		},
		dialFn: func(ctx context.Context, cfg SMTPSettings) (net.Conn, smtpClient, error) {
			return clientConn, fake, nil
		},
		authFn: func(client smtpClient, cfg SMTPSettings) error { return nil },
	}

	err := m.Send(context.Background(), Message{
		ReplyTo: "buyer@example.com",
		To:      []string{"admin@example.com", "admin@example.com"},
		Subject: "New quote request",
		Body:    "A quote request was submitted.",
	})
	if err != nil {
		t.Fatalf("unexpected send error: %v", err)
	}

	if fake.from != "no-reply@example.com" {
		t.Fatalf("unexpected envelope sender: %s", fake.from)
	}
	if len(fake.rcpts) != 1 {
		t.Fatalf("expected deduplicated recipient list, got %v", fake.rcpts)
	}
	if !strings.Contains(fake.data.String(), "Reply-To: buyer@example.com") {
		t.Fatal("expected reply-to header in payload")
	}
}
