package webhook

import (
	"context"
	"encoding/xml"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/greenbasket/greenbasket/internal/core"
	"github.com/greenbasket/greenbasket/internal/extract"
	"github.com/greenbasket/greenbasket/internal/ports"
	"github.com/greenbasket/greenbasket/internal/report"
	"github.com/greenbasket/greenbasket/internal/whitelist"
)

// apologyText is the reply when the pipeline fails outright
const apologyText = "Sorry—something went wrong. Try a shorter list or a clearer photo."

// twimlResponse is the TwiML document Twilio expects back from an SMS
// webhook. An empty Response tells Twilio to send nothing.
type twimlResponse struct {
	XMLName xml.Name      `xml:"Response"`
	Message *twimlMessage `xml:"Message,omitempty"`
}

type twimlMessage struct {
	Body string `xml:"Body"`
}

// WebhookTransport serves the Twilio SMS webhook plus a small debug surface
type WebhookTransport struct {
	builder    *report.Builder
	engine     *core.EstimationService
	extractor  *extract.Service
	allowlist  *whitelist.Checker
	history    ports.HistoryStore
	logger     *zap.Logger
	listenAddr string
	timeout    time.Duration
	server     *http.Server
}

// NewWebhookTransport creates a new webhook transport
func NewWebhookTransport(
	builder *report.Builder,
	engine *core.EstimationService,
	extractor *extract.Service,
	allowlist *whitelist.Checker,
	history ports.HistoryStore,
	logger *zap.Logger,
	listenAddr string,
	timeout time.Duration,
) *WebhookTransport {
	return &WebhookTransport{
		builder:    builder,
		engine:     engine,
		extractor:  extractor,
		allowlist:  allowlist,
		history:    history,
		logger:     logger,
		listenAddr: listenAddr,
		timeout:    timeout,
	}
}

// Start starts the HTTP server
func (t *WebhookTransport) Start() error {
	gin.SetMode(gin.ReleaseMode)

	t.server = &http.Server{
		Addr:         t.listenAddr,
		Handler:      t.routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	t.logger.Info("Webhook transport starting", zap.String("address", t.listenAddr))

	go func() {
		if err := t.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop shuts the HTTP server down gracefully
func (t *WebhookTransport) Stop() error {
	if t.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return t.server.Shutdown(ctx)
	}
	return nil
}

func (t *WebhookTransport) routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", t.handleHealth)
	router.POST("/twilio/sms", t.handleSMS)

	debug := router.Group("/debug")
	{
		debug.GET("/estimate", t.handleDebugEstimate)
		debug.GET("/search", t.handleDebugSearch)
		debug.GET("/parse", t.handleDebugParse)
		debug.GET("/history", t.handleDebugHistory)
	}

	return router
}

func (t *WebhookTransport) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// handleSMS answers Twilio's inbound-message webhook with TwiML
func (t *WebhookTransport) handleSMS(c *gin.Context) {
	from := c.PostForm("From")
	body := c.PostForm("Body")
	mediaURL := c.PostForm("MediaUrl0")
	numMedia, _ := strconv.Atoi(c.DefaultPostForm("NumMedia", "0"))

	t.logger.Info("Inbound message",
		zap.String("from", from),
		zap.Int("num_media", numMedia),
		zap.Int("body_length", len(body)))

	if t.allowlist != nil && !t.allowlist.IsAllowed(from) {
		t.logger.Warn("Ignoring sender not on allowlist", zap.String("from", from))
		t.writeTwiML(c, &twimlResponse{})
		return
	}

	ctx := c.Request.Context()
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	// The reply degrades to an apology rather than a bare 500, so the
	// sender always hears back.
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("Report pipeline panicked", zap.Any("panic", r))
			t.writeMessage(c, apologyText)
		}
	}()

	rep := t.builder.BuildFromMessage(ctx, from, mediaURL, body)
	t.writeMessage(c, rep.Text)
}

func (t *WebhookTransport) handleDebugEstimate(c *gin.Context) {
	name := c.DefaultQuery("name", "ground beef")
	unit := c.DefaultQuery("unit", "lb")
	qty, err := strconv.ParseFloat(c.DefaultQuery("qty", "2"), 64)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"ok": false, "error": "qty must be a number"})
		return
	}

	res, err := t.engine.Estimate(c.Request.Context(), name, qty, core.Unit(unit))
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"ok": false, "error": err.Error()})
		return
	}
	if res == nil {
		c.JSON(http.StatusOK, gin.H{"ok": false, "why": "no_factor_or_incompatible_units"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":          true,
		"kg":          res.KgCO2e,
		"factor_unit": res.Factor.Unit,
		"activity":    res.Factor.ActivityID,
	})
}

func (t *WebhookTransport) handleDebugSearch(c *gin.Context) {
	query := c.DefaultQuery("query", "beef")

	doc, err := t.engine.Search(c.Request.Context(), query, core.FamilyMass)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"ok": false, "error": err.Error()})
		return
	}
	if doc == nil {
		c.JSON(http.StatusOK, gin.H{"ok": false, "why": "no_results"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":          true,
		"activity_id": doc.ActivityID,
		"unit_type":   doc.UnitType,
		"unit":        doc.Unit,
	})
}

func (t *WebhookTransport) handleDebugParse(c *gin.Context) {
	items := t.extractor.ParseText(c.Query("body"))

	out := make([]gin.H, 0, len(items))
	for _, it := range items {
		out = append(out, gin.H{"name": it.Name, "qty": it.Qty, "unit": string(it.Unit)})
	}
	c.JSON(http.StatusOK, out)
}

func (t *WebhookTransport) handleDebugHistory(c *gin.Context) {
	if t.history == nil {
		c.JSON(http.StatusOK, gin.H{"ok": false, "why": "history_disabled"})
		return
	}

	phone := c.Query("phone")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	records, err := t.history.Recent(c.Request.Context(), phone, limit)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"ok": false, "error": err.Error()})
		return
	}

	out := make([]gin.H, 0, len(records))
	for _, r := range records {
		out = append(out, gin.H{
			"id":         r.ID,
			"phone":      r.Phone,
			"raw_input":  r.RawInput,
			"total_kg":   r.TotalKgCO2e,
			"breakdown":  r.Breakdown,
			"created_at": r.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "queries": out})
}

func (t *WebhookTransport) writeMessage(c *gin.Context, text string) {
	t.writeTwiML(c, &twimlResponse{Message: &twimlMessage{Body: text}})
}

func (t *WebhookTransport) writeTwiML(c *gin.Context, resp *twimlResponse) {
	out, err := xml.Marshal(resp)
	if err != nil {
		t.logger.Error("Failed to marshal TwiML", zap.Error(err))
		c.String(http.StatusInternalServerError, "internal error")
		return
	}
	c.Data(http.StatusOK, "text/xml", append([]byte(xml.Header), out...))
}
