package bedrock

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.uber.org/zap"

	"github.com/greenbasket/greenbasket/internal/core"
	"github.com/greenbasket/greenbasket/internal/utils"
)

// BedrockAssistant is an implementation of the LLMAssistant interface using Amazon Bedrock
type BedrockAssistant struct {
	client         *bedrockruntime.Client
	modelID        string
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

const receiptPrompt = `You are a precise receipt parser. Extract ONLY purchased grocery items from the attached receipt image.
Return strict JSON with this shape:
{ "items": [ { "name": string, "qty": number, "unit": "lb|kg|g|oz|liter|ml|gallon|each" } ] }
Rules:
- Infer weights/volumes if printed (e.g., 2 lb, 1 gallon). If none, try count for eggs; otherwise skip.
- Use only these units: lb, kg, g, oz, liter, ml, gallon, each.
- Do NOT include totals, taxes, URLs, card info, or prices.
- Keep names generic (e.g., 'ground beef', 'milk', 'eggs').
Respond only with the JSON object and nothing else.`

// NewBedrockAssistant creates a new Bedrock assistant
func NewBedrockAssistant(
	client *bedrockruntime.Client,
	modelID string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	textProcessor *utils.TextProcessor,
	logger *zap.Logger,
) *BedrockAssistant {
	return &BedrockAssistant{
		client:        client,
		modelID:       modelID,
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

// ReadReceipt extracts grocery items from a receipt image. Image input
// on Bedrock runs through the Anthropic messages format, so other model
// families cannot serve it.
func (c *BedrockAssistant) ReadReceipt(ctx context.Context, image []byte, mimeType string) ([]core.Item, error) {
	if !c.isAnthropicModel() {
		return nil, fmt.Errorf("model %s cannot read receipt images; configure an Anthropic Claude model", c.modelID)
	}

	content := []map[string]interface{}{
		{
			"type": "image",
			"source": map[string]interface{}{
				"type":       "base64",
				"media_type": mimeType,
				"data":       base64.StdEncoding.EncodeToString(image),
			},
		},
		{
			"type": "text",
			"text": receiptPrompt,
		},
	}

	responseText, err := c.invokeClaudeMessages(ctx, content)
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

	c.logger.Debug("Read receipt image with Bedrock",
		zap.String("model_id", c.modelID),
		zap.Int("item_count", len(items)))

	return items, nil
}

// FallbackEstimate guesses a footprint for an item no emission factor covered
func (c *BedrockAssistant) FallbackEstimate(ctx context.Context, item core.Item) (*core.AIEstimate, error) {
	name := c.textProcessor.ProcessText(item.Name, c.maxBodySize)
	prompt := fmt.Sprintf(c.fallbackFormat, name, item.Qty, item.Unit)

	responseText, err := c.invokeText(ctx, prompt)
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
func (c *BedrockAssistant) Encouragement(ctx context.Context, summary *core.BasketSummary) (string, error) {
	names := make([]string, 0, len(summary.Lines))
	for _, line := range summary.Lines {
		names = append(names, line.Name)
	}
	itemsList := c.textProcessor.TruncateText(strings.Join(names, ", "), 180)

	prompt := fmt.Sprintf(
		"You are a concise eco coach. Reply with ONE short encouragement (<=120 chars).\nReceipt total %v kg. Items: %s.",
		summary.TotalKgCO2e, itemsList)

	responseText, err := c.invokeText(ctx, prompt)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(responseText), nil
}

// invokeText runs a plain text prompt through whichever model family is
// configured and returns the raw response text.
func (c *BedrockAssistant) invokeText(ctx context.Context, prompt string) (string, error) {
	if c.isAnthropicModel() {
		return c.invokeClaudeMessages(ctx, []map[string]interface{}{
			{"type": "text", "text": prompt},
		})
	}

	var payload []byte
	var err error

	if c.isAmazonTitanModel() {
		// Amazon Titan models
		payload, err = json.Marshal(map[string]interface{}{
			"inputText": prompt,
			"textGenerationConfig": map[string]interface{}{
				"maxTokenCount": c.maxTokens,
				"temperature":   c.temperature,
				"topP":          c.topP,
			},
		})
	} else {
		// Default to a generic format
		payload, err = json.Marshal(map[string]interface{}{
			"prompt":      prompt,
			"max_tokens":  c.maxTokens,
			"temperature": c.temperature,
			"top_p":       c.topP,
		})
	}
	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}

	resp, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     &c.modelID,
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to invoke Bedrock model: %w", err)
	}

	if c.isAmazonTitanModel() {
		// Amazon Titan models
		var titanResp struct {
			Results []struct {
				OutputText string `json:"outputText"`
			} `json:"results"`
		}
		if err := json.Unmarshal(resp.Body, &titanResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Titan response: %w", err)
		}
		if len(titanResp.Results) == 0 {
			return "", fmt.Errorf("empty response from Titan model")
		}
		return titanResp.Results[0].OutputText, nil
	}

	// Try a generic approach
	var genericResp struct {
		Output   string `json:"output"`
		Text     string `json:"text"`
		Response string `json:"response"`
	}
	if err := json.Unmarshal(resp.Body, &genericResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal generic response: %w", err)
	}

	// Try different fields
	switch {
	case genericResp.Output != "":
		return genericResp.Output, nil
	case genericResp.Text != "":
		return genericResp.Text, nil
	case genericResp.Response != "":
		return genericResp.Response, nil
	default:
		// Just use the raw response as a string
		return string(resp.Body), nil
	}
}

// invokeClaudeMessages calls an Anthropic Claude model through the
// Bedrock messages API with the given user content blocks.
func (c *BedrockAssistant) invokeClaudeMessages(ctx context.Context, content []map[string]interface{}) (string, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"anthropic_version": "bedrock-2023-05-31",
		"max_tokens":        c.maxTokens,
		"temperature":       c.temperature,
		"top_p":             c.topP,
		"messages": []map[string]interface{}{
			{"role": "user", "content": content},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}

	resp, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     &c.modelID,
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to invoke Bedrock model: %w", err)
	}

	var claudeResp struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(resp.Body, &claudeResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal Claude response: %w", err)
	}
	if len(claudeResp.Content) == 0 {
		return "", fmt.Errorf("empty response from Claude model")
	}

	return claudeResp.Content[0].Text, nil
}

// isAnthropicModel checks if the model is an Anthropic Claude model
func (c *BedrockAssistant) isAnthropicModel() bool {
	return strings.HasPrefix(c.modelID, "anthropic.claude")
}

// isAmazonTitanModel checks if the model is an Amazon Titan model
func (c *BedrockAssistant) isAmazonTitanModel() bool {
	return strings.HasPrefix(c.modelID, "amazon.titan")
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
