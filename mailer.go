package authcore

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// JSONWriterMailer writes each outbound message as one JSON line instead of
// delivering it. Intended for development setups and for deployments where
// a log shipper feeds an actual delivery pipeline.
type JSONWriterMailer struct {
	mu      sync.Mutex
	writer  io.Writer
	baseURL string
}

type mailerLine struct {
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"kind"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Link      string    `json:"link"`
}

// NewJSONWriterMailer writes messages to w. baseURL is used to render the
// verification and reset links the way a template mailer would.
func NewJSONWriterMailer(w io.Writer, baseURL string) *JSONWriterMailer {
	return &JSONWriterMailer{writer: w, baseURL: baseURL}
}

func (m *JSONWriterMailer) SendVerificationEmail(_ context.Context, payload EmailPayload) error {
	return m.write("verification", payload, "/verify-email?token=")
}

func (m *JSONWriterMailer) SendResetPasswordEmail(_ context.Context, payload EmailPayload) error {
	return m.write("password_reset", payload, "/reset-password?token=")
}

func (m *JSONWriterMailer) write(kind string, payload EmailPayload, linkPath string) error {
	if m == nil || m.writer == nil {
		return nil
	}

	line := mailerLine{
		Timestamp: time.Now().UTC(),
		Kind:      kind,
		Name:      payload.Name,
		Email:     payload.Email,
		Link:      m.baseURL + linkPath + payload.Token + "&email=" + payload.Email,
	}

	encoded, err := json.Marshal(line)
	if err != nil {
		return err
	}
	encoded = append(encoded, '\n')

	m.mu.Lock()
	defer m.mu.Unlock()
	_, err = m.writer.Write(encoded)
	return err
}
