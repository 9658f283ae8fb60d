package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/greenbasket/greenbasket/internal/core"
	"github.com/greenbasket/greenbasket/internal/utils"
)

// GeminiAssistant is an implementation of the LLMAssistant interface using Google Gemini
type GeminiAssistant struct {
	client         *genai.Client
	model          *genai.GenerativeModel
	coach          *genai.GenerativeModel
	modelName      string
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

const receiptPrompt = `You are a precise receipt parser. Extract ONLY purchased grocery items from the attached receipt image.
Return strict JSON with this shape:
{ "items": [ { "name": string, "qty": number, "unit": "lb|kg|g|oz|liter|ml|gallon|each" } ] }
Rules:
- Infer weights/volumes if printed (e.g., 2 lb, 1 gallon). If none, try count for eggs; otherwise skip.
- Use only these units: lb, kg, g, oz, liter, ml, gallon, each.
- Do NOT include totals, taxes, URLs, card info, or prices.
- Keep names generic (e.g., 'ground beef', 'milk', 'eggs').
Respond only with the JSON object and nothing else.`

// NewGeminiAssistant creates a new Gemini assistant
func NewGeminiAssistant(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	textProcessor *utils.TextProcessor,
	logger *zap.Logger,
) (*GeminiAssistant, error) {
	// Create a new Gemini client
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	// Create a generative model
	model := client.GenerativeModel(modelName)
	model.SetTemperature(float32(temperature))
	model.SetTopP(float32(topP))
	model.SetMaxOutputTokens(int32(maxTokens))

	// A short-leashed variant for the one-line encouragement
	coach := client.GenerativeModel(modelName)
	coach.SetTemperature(0.5)
	coach.SetMaxOutputTokens(40)

	return &GeminiAssistant{
		client:        client,
		model:         model,
		coach:         coach,
		modelName:     modelName,
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
	}, nil
}

// Close closes the Gemini client
func (c *GeminiAssistant) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// ReadReceipt extracts grocery items from a receipt image
func (c *GeminiAssistant) ReadReceipt(ctx context.Context, image []byte, mimeType string) ([]core.Item, error) {
	resp, err := c.model.GenerateContent(ctx,
		genai.Text(receiptPrompt),
		genai.Blob{MIMEType: mimeType, Data: image},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content with Gemini: %w", err)
	}

	responseText, err := extractResponseText(resp)
	if err != nil {
		return nil, err
	}

	var receipt ReceiptResponse
	if err := parseJSONResponse(responseText, &receipt); err != nil {
		return nil, err
	}

	items := make([]core.Item, 0, len(receipt.Items))
	for _, it := range receipt.Items {
		items = append(items, core.Item{Name: it.Name, Qty: it.Qty, Unit: core.Unit(it.Unit)})
	}

	c.logger.Debug("Read receipt image with Gemini",
		zap.String("model", c.modelName),
		zap.Int("item_count", len(items)))

	return items, nil
}

// FallbackEstimate guesses a footprint for an item no emission factor covered
func (c *GeminiAssistant) FallbackEstimate(ctx context.Context, item core.Item) (*core.AIEstimate, error) {
	name := c.textProcessor.ProcessText(item.Name, c.maxBodySize)
	prompt := fmt.Sprintf(c.fallbackFormat, name, item.Qty, item.Unit)

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("failed to generate content with Gemini: %w", err)
	}

	responseText, err := extractResponseText(resp)
	if err != nil {
		return nil, err
	}

	var guess FallbackResponse
	if err := parseJSONResponse(responseText, &guess); err != nil {
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
func (c *GeminiAssistant) Encouragement(ctx context.Context, summary *core.BasketSummary) (string, error) {
	names := make([]string, 0, len(summary.Lines))
	for _, line := range summary.Lines {
		names = append(names, line.Name)
	}
	itemsList := c.textProcessor.TruncateText(strings.Join(names, ", "), 180)

	prompt := fmt.Sprintf(
		"You are a concise eco coach. Reply with ONE short encouragement (<=120 chars).\nReceipt total %v kg. Items: %s.",
		summary.TotalKgCO2e, itemsList)

	resp, err := c.coach.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content with Gemini: %w", err)
	}

	responseText, err := extractResponseText(resp)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(responseText), nil
}

func extractResponseText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from Gemini")
	}
	return fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0]), nil
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
