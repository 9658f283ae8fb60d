package gateway

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/greenbasket/greenbasket/internal/core"
	"github.com/greenbasket/greenbasket/internal/extract"
	"github.com/greenbasket/greenbasket/internal/report"
	"github.com/greenbasket/greenbasket/internal/tips"
	"github.com/greenbasket/greenbasket/internal/utils"
	"github.com/greenbasket/greenbasket/internal/whitelist"
)

// fakeProvider serves weight factors with fixed per-kg rates so replies
// stay checkable by hand.
type fakeProvider struct{}

var providerRates = map[string]float64{
	"beef_factor":    27.0,
	"chicken_factor": 6.9,
}

func (p *fakeProvider) Search(_ context.Context, query, _ string) ([]core.FactorDoc, error) {
	switch {
	case strings.Contains(query, "beef"):
		return []core.FactorDoc{{ActivityID: "beef_factor", UnitType: "Weight", Unit: "kgCO2e/kg"}}, nil
	case strings.Contains(query, "chicken"):
		return []core.FactorDoc{{ActivityID: "chicken_factor", UnitType: "Weight", Unit: "kgCO2e/kg"}}, nil
	default:
		return nil, nil
	}
}

func (p *fakeProvider) Estimate(_ context.Context, req core.EstimateRequest) (*core.EstimateResponse, error) {
	weight, _ := req.Parameters["weight"].(float64)
	return &core.EstimateResponse{CO2e: providerRates[req.ActivityID] * weight}, nil
}

// stubReader returns fixed items for any receipt image
type stubReader struct {
	items []core.Item
	calls int
}

func (r *stubReader) ReadReceipt(_ context.Context, _ []byte, _ string) ([]core.Item, error) {
	r.calls++
	return r.items, nil
}

type sentReply struct {
	recipient string
	subject   string
	body      string
	calls     int
}

func newTestGateway(reader extract.ReceiptReader, allowed []string) (*GatewayTransport, *sentReply) {
	logger := zap.NewNop()
	provider := &fakeProvider{}
	engine := core.NewEstimationService(
		core.NewFactorSearch(provider, nil, logger, "US", "^3"),
		provider,
		logger,
		"^3",
	)
	extractor := extract.NewService(reader, nil, utils.NewTextProcessor(logger), logger)
	tipsEngine := tips.NewEngine(engine, nil, logger)
	builder := report.NewBuilder(engine, extractor, tipsEngine, nil, nil, logger)

	var checker *whitelist.Checker
	if allowed != nil {
		checker = whitelist.NewChecker(allowed, logger)
	}

	tr := NewGatewayTransport(builder, extractor, checker, logger,
		":0", "greenbasket.example", "", "bot@greenbasket.example", 5*time.Second)

	sent := &sentReply{}
	tr.send = func(recipient, subject, body string) error {
		sent.recipient = recipient
		sent.subject = subject
		sent.body = body
		sent.calls++
		return nil
	}

	return tr, sent
}

func newSession(t *testing.T, tr *GatewayTransport) *smtpSession {
	t.Helper()
	session, err := (&smtpBackend{gateway: tr}).NewSession(nil)
	require.NoError(t, err)
	return session.(*smtpSession)
}

func TestSessionRepliesWithReport(t *testing.T) {
	tr, sent := newTestGateway(nil, nil)
	s := newSession(t, tr)

	require.NoError(t, s.Mail("alice@example.com", nil))
	require.NoError(t, s.Rcpt("bot@greenbasket.example", nil))

	raw := "From: Alice <alice@example.com>\r\n" +
		"To: bot@greenbasket.example\r\n" +
		"Subject: groceries\r\n" +
		"\r\n" +
		"2 lb beef\r\n"
	require.NoError(t, s.Data(strings.NewReader(raw)))

	assert.Equal(t, 1, sent.calls)
	assert.Equal(t, "alice@example.com", sent.recipient)
	assert.Equal(t, "Re: groceries", sent.subject)
	assert.Contains(t, sent.body, "Total: 24.494 kg CO2e")
	assert.Contains(t, sent.body, "• beef: 24.494 kg")
}

func TestSessionPrefersAttachedPhoto(t *testing.T) {
	reader := &stubReader{items: []core.Item{{Name: "chicken", Qty: 1, Unit: core.UnitKg}}}
	tr, sent := newTestGateway(reader, nil)
	s := newSession(t, tr)

	require.NoError(t, s.Mail("alice@example.com", nil))

	raw := "From: alice@example.com\r\n" +
		"Content-Type: multipart/mixed; boundary=frontier\r\n" +
		"\r\n" +
		"--frontier\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"2 lb beef\r\n" +
		"--frontier\r\n" +
		"Content-Type: image/jpeg\r\n" +
		"Content-Transfer-Encoding: base64\r\n" +
		"\r\n" +
		"ZmFrZS1qcGVnLWJ5dGVz\r\n" +
		"--frontier--\r\n"
	require.NoError(t, s.Data(strings.NewReader(raw)))

	assert.Equal(t, 1, reader.calls)
	assert.Contains(t, sent.body, "• chicken: 6.9 kg")
	assert.NotContains(t, sent.body, "beef")
}

func TestSessionRepliesWithHelpOnEmptyMail(t *testing.T) {
	tr, sent := newTestGateway(nil, nil)
	s := newSession(t, tr)

	require.NoError(t, s.Mail("alice@example.com", nil))

	raw := "From: alice@example.com\r\n" +
		"Subject: hi\r\n" +
		"\r\n" +
		"what is this?\r\n"
	require.NoError(t, s.Data(strings.NewReader(raw)))

	assert.Equal(t, 1, sent.calls)
	assert.Contains(t, sent.body, "Send items like")
}

func TestSessionDiscardsUnknownSender(t *testing.T) {
	tr, sent := newTestGateway(nil, []string{"example.org"})
	s := newSession(t, tr)

	require.NoError(t, s.Mail("mallory@example.com", nil))
	require.NoError(t, s.Data(strings.NewReader("From: mallory@example.com\r\n\r\n2 lb beef\r\n")))

	assert.Equal(t, 0, sent.calls)
}

func TestComposeReply(t *testing.T) {
	out := composeReply("bot@greenbasket.example", "alice@example.com", "Re: groceries",
		"Total: 5 kg CO2e\n• milk: 5 kg")

	s := string(out)
	assert.Contains(t, s, "From: bot@greenbasket.example\r\n")
	assert.Contains(t, s, "To: alice@example.com\r\n")
	assert.Contains(t, s, "Subject: Re: groceries\r\n")
	assert.Contains(t, s, "Content-Type: text/plain; charset=utf-8\r\n")
	assert.Contains(t, s, "Total: 5 kg CO2e\r\n• milk: 5 kg")
	assert.False(t, bytes.Contains(out, []byte("\n\n")), "bare LF line endings in reply")
}

func TestReplySubject(t *testing.T) {
	tests := []struct {
		name     string
		original string
		want     string
	}{
		{"plain subject", "groceries", "Re: groceries"},
		{"already a reply", "Re: groceries", "Re: groceries"},
		{"empty subject", "", "Your grocery footprint"},
		{"encoded word", "=?utf-8?q?caf=C3=A9_run?=", "Re: café run"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, replySubject(tt.original))
		})
	}
}
