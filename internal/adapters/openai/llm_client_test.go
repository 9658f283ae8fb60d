package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/greenbasket/greenbasket/internal/core"
	"github.com/greenbasket/greenbasket/internal/utils"
)

// newTestAssistant points the assistant at a canned chat completions
// endpoint that replies with the given message content.
func newTestAssistant(t *testing.T, handler func(req openai.ChatCompletionRequest) string) *OpenAIAssistant {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		content := handler(req)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"id":"chatcmpl-test","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":%s},"finish_reason":"stop"}]}`,
			mustJSONString(content))
	}))
	t.Cleanup(server.Close)

	a := NewOpenAIAssistant("test-key", "gpt-4o-mini", "gpt-4o-mini", 500, 0.2, 1.0, 4096,
		utils.NewTextProcessor(zap.NewNop()), zap.NewNop())

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = server.URL + "/v1"
	a.client = openai.NewClientWithConfig(cfg)
	return a
}

func mustJSONString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestReadReceiptParsesItems(t *testing.T) {
	var captured openai.ChatCompletionRequest
	a := newTestAssistant(t, func(req openai.ChatCompletionRequest) string {
		captured = req
		return `{"items":[{"name":"ground beef","qty":2,"unit":"lb"},{"name":"eggs","qty":12,"unit":"each"}]}`
	})

	items, err := a.ReadReceipt(context.Background(), []byte("raw-image"), "image/jpeg")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, core.Item{Name: "ground beef", Qty: 2, Unit: "lb"}, items[0])
	assert.Equal(t, core.Item{Name: "eggs", Qty: 12, Unit: "each"}, items[1])

	require.Len(t, captured.Messages, 2)
	require.Len(t, captured.Messages[1].MultiContent, 2)
	imagePart := captured.Messages[1].MultiContent[1]
	require.NotNil(t, imagePart.ImageURL)
	assert.True(t, strings.HasPrefix(imagePart.ImageURL.URL, "data:image/jpeg;base64,"))
	require.NotNil(t, captured.ResponseFormat)
	assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, captured.ResponseFormat.Type)
}

func TestFallbackEstimateParsesGuess(t *testing.T) {
	a := newTestAssistant(t, func(openai.ChatCompletionRequest) string {
		return `{"kg_co2e":3.4,"explanation":"Used generic farmed white fish per-kg factor","confidence":0.4}`
	})

	est, err := a.FallbackEstimate(context.Background(), core.Item{Name: "tilapia", Qty: 1, Unit: core.UnitLb})
	require.NoError(t, err)
	require.NotNil(t, est)
	assert.InDelta(t, 3.4, est.KgCO2e, 1e-9)
	assert.Equal(t, "Used generic farmed white fish per-kg factor", est.Explanation)
	assert.InDelta(t, 0.4, est.Confidence, 1e-9)
}

func TestFallbackEstimateAbstainsOnZero(t *testing.T) {
	a := newTestAssistant(t, func(openai.ChatCompletionRequest) string {
		return `{"kg_co2e":0,"explanation":"cannot estimate","confidence":0.1}`
	})

	est, err := a.FallbackEstimate(context.Background(), core.Item{Name: "gift card", Qty: 1, Unit: core.UnitEach})
	require.NoError(t, err)
	assert.Nil(t, est)
}

func TestFallbackEstimateSurvivesProseWrapping(t *testing.T) {
	a := newTestAssistant(t, func(openai.ChatCompletionRequest) string {
		return "Sure! Here is the estimate:\n```json\n{\"kg_co2e\":1.2,\"explanation\":\"\",\"confidence\":0.5}\n```"
	})

	est, err := a.FallbackEstimate(context.Background(), core.Item{Name: "kombucha", Qty: 1, Unit: core.UnitLiter})
	require.NoError(t, err)
	require.NotNil(t, est)
	assert.InDelta(t, 1.2, est.KgCO2e, 1e-9)
	assert.Equal(t, "AI estimate", est.Explanation)
}

func TestEncouragementReturnsTrimmedLine(t *testing.T) {
	var captured openai.ChatCompletionRequest
	a := newTestAssistant(t, func(req openai.ChatCompletionRequest) string {
		captured = req
		return "  Great plant-forward picks — keep it going! \n"
	})

	summary := &core.BasketSummary{
		TotalKgCO2e: 2.5,
		Lines: []core.BasketLine{
			{Item: core.Item{Name: "bananas", Qty: 6, Unit: core.UnitEach}},
		},
	}

	line, err := a.Encouragement(context.Background(), summary)
	require.NoError(t, err)
	assert.Equal(t, "Great plant-forward picks — keep it going!", line)

	assert.Equal(t, 40, captured.MaxTokens)
	assert.Contains(t, captured.Messages[1].Content, "bananas")
}

func TestParseJSONResponseRejectsGarbage(t *testing.T) {
	var out FallbackResponse
	err := parseJSONResponse("no json here at all", &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to extract JSON")
}
