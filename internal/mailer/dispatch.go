package mailer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tradegatehq/tradegate/pkg/logger"
	"github.com/tradegatehq/tradegate/pkg/mail"
	"github.com/tradegatehq/tradegate/pkg/metrics"
)

// Submission kinds accepted by the dispatcher.
const (
	KindQuote       = "quote"
	KindCatalog     = "catalog"
	KindContact     = "contact"
	KindApplication = "application"
	KindPartnership = "partnership"
)

var subjects = map[string]string{
	KindQuote:       "New quote request",
	KindCatalog:     "New catalogue request",
	KindContact:     "New contact message",
	KindApplication: "New job application",
	KindPartnership: "New partnership proposal",
}

// DispatchInput is one form submission to forward to the office inbox.
type DispatchInput struct {
	Kind    string
	ReplyTo string
	Fields  map[string]string
}

// Dispatcher formats form submissions into emails for the office inbox.
type Dispatcher struct {
	mailer mail.Mailer
	to     []string
	log    *zap.Logger
}

// NewDispatcher constructs a Dispatcher delivering to the supplied inbox
// addresses.
func NewDispatcher(m mail.Mailer, to []string) (*Dispatcher, error) {
	if m == nil {
		return nil, errors.New("mailer: mailer is required")
	}
	if len(to) == 0 {
		return nil, errors.New("mailer: at least one recipient is required")
	}
	return &Dispatcher{
		mailer: m,
		to:     to,
		log:    logger.WithModule("mailer"),
	}, nil
}

// Dispatch sends one submission email and returns its message id. The id is
// generated locally; SMTP offers no delivery receipt to speak of.
func (d *Dispatcher) Dispatch(ctx context.Context, input DispatchInput) (string, error) {
	kind := strings.TrimSpace(strings.ToLower(input.Kind))
	subject, ok := subjects[kind]
	if !ok {
		return "", fmt.Errorf("mailer: unknown submission kind %q", input.Kind)
	}

	messageID := uuid.NewString()
	msg := mail.Message{
		ReplyTo: strings.TrimSpace(input.ReplyTo),
		To:      d.to,
		Subject: subject,
		Body:    formatBody(subject, messageID, input.Fields),
	}

	if err := d.mailer.Send(ctx, msg); err != nil {
		metrics.EmailDispatches.WithLabelValues(kind, "error").Inc()
		d.log.Error("dispatch failed",
			zap.String("kind", kind),
			zap.String("message_id", messageID),
			zap.Error(err),
		)
		return "", fmt.Errorf("mailer: dispatch %s: %w", kind, err)
	}

	metrics.EmailDispatches.WithLabelValues(kind, "ok").Inc()
	d.log.Info("dispatched submission email",
		zap.String("kind", kind),
		zap.String("message_id", messageID),
	)
	return messageID, nil
}

// formatBody renders the submitted fields in a stable order so operators can
// scan emails of the same kind quickly.
func formatBody(subject, messageID string, fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(subject)
	b.WriteString("\r\n\r\n")
	for _, key := range keys {
		value := strings.TrimSpace(fields[key])
		if value == "" {
			continue
		}
		b.WriteString(labelFor(key))
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString("\r\n")
	}
	b.WriteString("\r\nReference: ")
	b.WriteString(messageID)
	b.WriteString("\r\n")
	return b.String()
}

func labelFor(key string) string {
	parts := strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == '-'
	})
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, " ")
}
