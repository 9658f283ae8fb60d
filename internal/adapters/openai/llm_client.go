package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/greenbasket/greenbasket/internal/core"
	"github.com/greenbasket/greenbasket/internal/utils"
)

// OpenAIAssistant is an implementation of the LLMAssistant interface using OpenAI
type OpenAIAssistant struct {
	client         *openai.Client
	modelName      string
	visionModel    string
	maxTokens      int
	temperature    float32
	topP           float32
	maxBodySize    int
	textProcessor  *utils.TextProcessor
	logger         *zap.Logger
	fallbackFormat string
}

// ReceiptResponse represents the structured items list from the LLM
type ReceiptResponse struct {
	Items []ReceiptItem `json:"items"`
}

// ReceiptItem is one extracted receipt line
type ReceiptItem struct {
	Name string  `json:"name"`
	Qty  float64 `json:"qty"`
	Unit string  `json:"unit"`
}

// FallbackResponse represents the structured footprint guess from the LLM
type FallbackResponse struct {
	KgCO2e      float64 `json:"kg_co2e"`
	Explanation string  `json:"explanation"`
	Confidence  float64 `json:"confidence"`
}

const receiptSystemPrompt = `You are a precise receipt parser. Extract ONLY purchased grocery items.
Return strict JSON with this shape:
{ "items": [ { "name": string, "qty": number, "unit": "lb|kg|g|oz|liter|ml|gallon|each" } ] }
Rules:
- Infer weights/volumes if printed (e.g., 2 lb, 1 gallon). If none, try count for eggs; otherwise skip.
- Use only these units: lb, kg, g, oz, liter, ml, gallon, each.
- Do NOT include totals, taxes, URLs, card info, or prices.
- Keep names generic (e.g., 'ground beef', 'milk', 'eggs').`

// NewOpenAIAssistant creates a new OpenAI assistant
func NewOpenAIAssistant(
	apiKey string,
	modelName string,
	visionModel string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	textProcessor *utils.TextProcessor,
	logger *zap.Logger,
) *OpenAIAssistant {
	// Create a new OpenAI client
	client := openai.NewClient(apiKey)

	return &OpenAIAssistant{
		client:        client,
		modelName:     modelName,
		visionModel:   visionModel,
		maxTokens:     maxTokens,
		temperature:   temperature,
		topP:          topP,
		maxBodySize:   maxBodySize,
		textProcessor: textProcessor,
		logger:        logger,
		fallbackFormat: `You are a carbon footprint estimator. No emission factor covers the following grocery item, so give your best numeric guess.
Respond with a JSON object containing:
- kg_co2e: number (total kg CO2e for the given quantity, not per unit)
- explanation: string (<=160 chars, e.g. 'Used generic farmed white fish per-kg factor')
- confidence: number between 0 and 1

Item:
Name: %s
Quantity: %v %s

If uncertain, give a conservative median and state low confidence. Respond only with the JSON object and nothing else.`,
	}
}

// ReadReceipt extracts grocery items from a receipt image
func (c *OpenAIAssistant) ReadReceipt(ctx context.Context, image []byte, mimeType string) ([]core.Item, error) {
	b64 := base64.StdEncoding.EncodeToString(image)
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, b64)

	req := openai.ChatCompletionRequest{
		Model: c.visionModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: receiptSystemPrompt,
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: "Extract the items list from this receipt image as valid JSON only.",
					},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: dataURL},
					},
				},
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: 0.1,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion with OpenAI: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from OpenAI")
	}

	var receipt ReceiptResponse
	if err := parseJSONResponse(resp.Choices[0].Message.Content, &receipt); err != nil {
		return nil, err
	}

	items := make([]core.Item, 0, len(receipt.Items))
	for _, it := range receipt.Items {
		items = append(items, core.Item{Name: it.Name, Qty: it.Qty, Unit: core.Unit(it.Unit)})
	}

	c.logger.Debug("Read receipt image with OpenAI",
		zap.String("model", c.visionModel),
		zap.Int("item_count", len(items)),
		zap.String("processing_id", resp.ID))

	return items, nil
}

// FallbackEstimate guesses a footprint for an item no emission factor covered
func (c *OpenAIAssistant) FallbackEstimate(ctx context.Context, item core.Item) (*core.AIEstimate, error) {
	name := c.textProcessor.ProcessText(item.Name, c.maxBodySize)
	prompt := fmt.Sprintf(c.fallbackFormat, name, item.Qty, item.Unit)

	req := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "Return ONLY valid JSON with keys: kg_co2e, explanation, confidence.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion with OpenAI: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from OpenAI")
	}

	var guess FallbackResponse
	if err := parseJSONResponse(resp.Choices[0].Message.Content, &guess); err != nil {
		return nil, err
	}
	if guess.KgCO2e <= 0 {
		// The model abstained; not an error.
		return nil, nil
	}
	if guess.Explanation == "" {
		guess.Explanation = "AI estimate"
	}

	return &core.AIEstimate{
		KgCO2e:      guess.KgCO2e,
		Explanation: guess.Explanation,
		Confidence:  guess.Confidence,
	}, nil
}

// Encouragement writes a one-line nudge to close a report
func (c *OpenAIAssistant) Encouragement(ctx context.Context, summary *core.BasketSummary) (string, error) {
	names := make([]string, 0, len(summary.Lines))
	for _, line := range summary.Lines {
		names = append(names, line.Name)
	}
	itemsList := c.textProcessor.TruncateText(strings.Join(names, ", "), 180)
	msg := fmt.Sprintf("Receipt total %v kg. Items: %s.", summary.TotalKgCO2e, itemsList)

	req := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a concise eco coach. Reply with ONE short encouragement (<=120 chars).",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: msg,
			},
		},
		MaxTokens:   40,
		Temperature: 0.5,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion with OpenAI: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from OpenAI")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// parseJSONResponse decodes an LLM reply, tolerating prose around the
// JSON object by retrying on the outermost brace pair.
func parseJSONResponse(responseText string, v any) error {
	if err := json.Unmarshal([]byte(responseText), v); err != nil {
		jsonStart := strings.Index(responseText, "{")
		jsonEnd := strings.LastIndex(responseText, "}")
		if jsonStart < 0 || jsonEnd <= jsonStart {
			return fmt.Errorf("failed to extract JSON from LLM response: %w", err)
		}
		if err := json.Unmarshal([]byte(responseText[jsonStart:jsonEnd+1]), v); err != nil {
			return fmt.Errorf("failed to parse LLM response as JSON: %w", err)
		}
	}
	return nil
}
