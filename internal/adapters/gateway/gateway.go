package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"github.com/greenbasket/greenbasket/internal/core"
	"github.com/greenbasket/greenbasket/internal/extract"
	"github.com/greenbasket/greenbasket/internal/report"
	"github.com/greenbasket/greenbasket/internal/whitelist"
)

// GatewayTransport turns inbound email into footprint reports. It runs
// a small SMTP server, feeds the message text (or an attached receipt
// photo) through the report pipeline, and mails the report back through
// a relay. An empty relay address logs replies instead of sending them.
type GatewayTransport struct {
	builder    *report.Builder
	extractor  *extract.Service
	allowlist  *whitelist.Checker
	logger     *zap.Logger
	listenAddr string
	domain     string
	relayAddr  string
	fromAddr   string
	timeout    time.Duration
	server     *smtp.Server
	send       func(recipient, subject, body string) error
}

// NewGatewayTransport creates a new SMTP gateway transport
func NewGatewayTransport(
	builder *report.Builder,
	extractor *extract.Service,
	allowlist *whitelist.Checker,
	logger *zap.Logger,
	listenAddr string,
	domain string,
	relayAddr string,
	fromAddr string,
	timeout time.Duration,
) *GatewayTransport {
	if domain == "" {
		domain = "localhost"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	t := &GatewayTransport{
		builder:    builder,
		extractor:  extractor,
		allowlist:  allowlist,
		logger:     logger,
		listenAddr: listenAddr,
		domain:     domain,
		relayAddr:  relayAddr,
		fromAddr:   fromAddr,
		timeout:    timeout,
	}

	t.send = t.sendViaRelay
	if relayAddr == "" {
		t.send = t.logReply
	}

	return t
}

// Start starts the SMTP server
func (t *GatewayTransport) Start() error {
	t.server = smtp.NewServer(&smtpBackend{gateway: t})

	t.server.Addr = t.listenAddr
	t.server.Domain = t.domain
	t.server.ReadTimeout = 30 * time.Second
	t.server.WriteTimeout = 30 * time.Second
	t.server.MaxMessageBytes = 30 * 1024 * 1024 // 30MB
	t.server.MaxRecipients = 50
	t.server.AllowInsecureAuth = true

	t.logger.Info("Mail gateway starting", zap.String("address", t.listenAddr))

	go func() {
		if err := t.server.ListenAndServe(); err != nil {
			if err != smtp.ErrServerClosed {
				t.logger.Error("SMTP server error", zap.Error(err))
			}
		}
	}()

	return nil
}

// Stop stops the SMTP server
func (t *GatewayTransport) Stop() error {
	if t.server != nil {
		return t.server.Close()
	}
	return nil
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	gateway *GatewayTransport
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{
		gateway:    b.gateway,
		recipients: make([]string, 0),
	}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	gateway    *GatewayTransport
	sender     string
	recipients []string
}

// Reset resets the session state
func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = make([]string, 0)
}

// Logout handles SMTP logout
func (s *smtpSession) Logout() error {
	return nil
}

// Mail sets the sender address
func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

// Rcpt adds a recipient
func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data builds the report for one inbound message and mails it back
func (s *smtpSession) Data(r io.Reader) error {
	gw := s.gateway

	rawData, err := io.ReadAll(r)
	if err != nil {
		gw.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	msg, err := mail.ReadMessage(bytes.NewReader(rawData))
	if err != nil {
		gw.logger.Error("Failed to parse email message", zap.Error(err))
		return err
	}

	// Accept-and-discard keeps unknown senders from probing the service
	// and avoids backscatter.
	if gw.allowlist != nil && !gw.allowlist.IsAllowed(s.sender) {
		gw.logger.Warn("Discarding mail from sender not on allowlist",
			zap.String("sender", s.sender))
		return nil
	}

	text, images, err := extractMessageContent(msg)
	if err != nil {
		gw.logger.Error("Failed to extract message content", zap.Error(err))
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), gw.timeout)
	defer cancel()

	var items []core.Item
	for _, img := range images {
		items = gw.extractor.FromImage(ctx, img.data, img.mimeType)
		if len(items) > 0 {
			break
		}
	}
	if len(items) == 0 {
		items = gw.extractor.ParseText(text)
	}

	rep := gw.builder.BuildFromItems(ctx, s.sender, items, strings.TrimSpace(text))

	subject := replySubject(msg.Header.Get("Subject"))
	if err := gw.send(s.sender, subject, rep.Text); err != nil {
		gw.logger.Error("Failed to send reply",
			zap.Error(err),
			zap.String("recipient", s.sender))
		return err
	}

	gw.logger.Info("Processed inbound mail",
		zap.String("from", s.sender),
		zap.Int("attachments", len(images)),
		zap.Bool("empty", rep.Empty))

	return nil
}

// replySubject threads the reply under the original subject
func replySubject(original string) string {
	decoded, err := new(mime.WordDecoder).DecodeHeader(original)
	if err != nil {
		decoded = original
	}
	decoded = strings.TrimSpace(decoded)
	if decoded == "" {
		return "Your grocery footprint"
	}
	if strings.HasPrefix(strings.ToLower(decoded), "re:") {
		return decoded
	}
	return "Re: " + decoded
}

// sendViaRelay mails the report through the configured relay
func (t *GatewayTransport) sendViaRelay(recipient, subject, body string) error {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", t.relayAddr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to relay: %w", err)
	}

	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}
	if err := c.Mail(t.fromAddr, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}
	if err := c.Rcpt(recipient, nil); err != nil {
		return fmt.Errorf("RCPT TO failed: %w", err)
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(composeReply(t.fromAddr, recipient, subject, body)); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send reply data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		t.logger.Warn("QUIT command failed", zap.Error(err))
	}

	return nil
}

// logReply stands in for the relay when none is configured
func (t *GatewayTransport) logReply(recipient, subject, body string) error {
	t.logger.Info("Reply relay disabled, logging report instead",
		zap.String("recipient", recipient),
		zap.String("subject", subject),
		zap.String("body", body))
	return nil
}

// composeReply renders the reply as a plain-text email
func composeReply(from, to, subject, body string) []byte {
	var msg bytes.Buffer

	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	fmt.Fprintf(&msg, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	fmt.Fprintf(&msg, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: text/plain; charset=utf-8\r\n")
	fmt.Fprintf(&msg, "\r\n")
	msg.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	msg.WriteString("\r\n")

	return msg.Bytes()
}
