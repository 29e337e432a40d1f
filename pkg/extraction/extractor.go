// Package extraction translates a receipt image into a structured
// extraction result by calling the Gemini Vision API. It has no side
// effects beyond the outbound call.
package extraction

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

type (
	StoreGuess struct {
		Name       *string `json:"name"`
		Method     string  `json:"method"` // "exact", "inferred", "unknown"
		Confidence float64 `json:"confidence"`
	}

	Item struct {
		Name       string   `json:"name"`
		Qty        *float64 `json:"qty"`
		Unit       *string  `json:"unit"`
		LineTotal  *int64   `json:"line_total"`
		Confidence *float64 `json:"confidence"`
	}

	Result struct {
		Store             StoreGuess `json:"store"`
		Date              *string    `json:"date"`
		Total             *int64     `json:"total"`
		IsBlurry          bool       `json:"is_blurry"`
		Items             []Item     `json:"items"`
		ConfidenceOverall float64    `json:"confidence_overall"`
	}

	// Extractor is the boundary the rest of the system depends on.
	Extractor interface {
		Extract(ctx context.Context, image []byte, mimeType string) (*Result, error)
	}
)

// TransportError is a network or API failure calling the extraction
// backend.
type TransportError struct {
	Cause string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("extraction transport error: %s", e.Cause)
}

// SchemaError is malformed or incomplete model output.
type SchemaError struct {
	Cause string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("extraction schema error: %s", e.Cause)
}

type GeminiExtractor struct {
	apiKey        string
	model         string
	fallbackModel string
	baseURL       string
	httpClient    *http.Client
}

func NewGeminiExtractor(apiKey, model, fallbackModel string) *GeminiExtractor {
	if model == "" {
		model = "gemini-1.5-flash"
	}
	if fallbackModel == "" {
		fallbackModel = model
	}
	return &GeminiExtractor{
		apiKey:        apiKey,
		model:         model,
		fallbackModel: fallbackModel,
		baseURL:       defaultBaseURL,
		httpClient:    &http.Client{Timeout: 60 * time.Second},
	}
}

// Extract runs the primary strict prompt, then escalates through up to
// two more permissive prompts when the model returns an empty result.
// There is no retry beyond this in-call escalation: a decode or
// validation failure at any stage surfaces immediately.
func (g *GeminiExtractor) Extract(ctx context.Context, image []byte, mimeType string) (*Result, error) {
	result, err := g.attempt(ctx, g.model, extractionPrompt, image, mimeType)
	if err != nil {
		return nil, err
	}

	if isEmptyResult(result) {
		result, err = g.attempt(ctx, g.fallbackModel, extractionPromptBestEffort, image, mimeType)
		if err != nil {
			return nil, err
		}
		if len(result.Items) == 0 {
			result, err = g.attempt(ctx, g.fallbackModel, extractionPromptLastResort, image, mimeType)
			if err != nil {
				return nil, err
			}
		}
	}

	return result, nil
}

// isEmptyResult reports whether an attempt produced nothing usable:
// no items, no total and no store name.
func isEmptyResult(r *Result) bool {
	if len(r.Items) > 0 {
		return false
	}
	if r.Total != nil && *r.Total != 0 {
		return false
	}
	if r.Store.Name != nil && *r.Store.Name != "" {
		return false
	}
	return true
}

func (g *GeminiExtractor) attempt(ctx context.Context, model, prompt string, image []byte, mimeType string) (*Result, error) {
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = "image/jpeg"
	}

	requestBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]interface{}{
					{"text": prompt},
					{
						"inline_data": map[string]interface{}{
							"mime_type": mimeType,
							"data":      base64.StdEncoding.EncodeToString(image),
						},
					},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"temperature": 0.1,
			"topP":        0.8,
			"topK":        40,
		},
	}

	requestJSON, err := json.Marshal(requestBody)
	if err != nil {
		return nil, &TransportError{Cause: err.Error()}
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", g.baseURL, model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(requestJSON))
	if err != nil {
		return nil, &TransportError{Cause: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Cause: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, &TransportError{Cause: fmt.Sprintf("gemini API returned %s: %s", resp.Status, string(bodyBytes))}
	}

	var geminiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
		return nil, &SchemaError{Cause: err.Error()}
	}
	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return nil, &SchemaError{Cause: "gemini response has no candidates"}
	}

	return parseResult(geminiResp.Candidates[0].Content.Parts[0].Text)
}

var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

func parseResult(responseText string) (*Result, error) {
	// Models occasionally wrap the JSON in markdown fences or prose.
	if match := jsonObjectPattern.FindString(responseText); match != "" {
		responseText = match
	}
	responseText = strings.TrimSpace(responseText)
	if strings.HasPrefix(responseText, "```json") {
		responseText = strings.TrimPrefix(responseText, "```json")
		responseText = strings.TrimSuffix(responseText, "```")
	} else if strings.HasPrefix(responseText, "```") {
		responseText = strings.TrimPrefix(responseText, "```")
		responseText = strings.TrimSuffix(responseText, "```")
	}
	responseText = strings.TrimSpace(responseText)

	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(responseText), &raw); err != nil {
		return nil, &SchemaError{Cause: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if err := validateSchema(raw); err != nil {
		return nil, err
	}

	var result Result
	if err := json.Unmarshal([]byte(responseText), &result); err != nil {
		return nil, &SchemaError{Cause: fmt.Sprintf("unexpected field types: %v", err)}
	}
	if result.ConfidenceOverall < 0 || result.ConfidenceOverall > 1 {
		result.ConfidenceOverall = 0.5
	}
	return &result, nil
}

// validateSchema checks required keys before the typed decode, so a
// structurally wrong payload fails as a schema error rather than
// silently zeroing fields.
func validateSchema(data map[string]interface{}) error {
	itemsValue, ok := data["items"]
	if !ok {
		return &SchemaError{Cause: "missing 'items' field"}
	}
	items, ok := itemsValue.([]interface{})
	if !ok {
		return &SchemaError{Cause: "'items' must be a list"}
	}
	for i, itemValue := range items {
		item, ok := itemValue.(map[string]interface{})
		if !ok {
			return &SchemaError{Cause: fmt.Sprintf("item %d is not an object", i)}
		}
		name, _ := item["name"].(string)
		if name == "" {
			return &SchemaError{Cause: fmt.Sprintf("item %d has no name", i)}
		}
	}
	if _, ok := data["confidence_overall"]; !ok {
		return &SchemaError{Cause: "missing 'confidence_overall' field"}
	}
	if _, ok := data["store"]; !ok {
		return &SchemaError{Cause: "missing 'store' field"}
	}
	return nil
}
