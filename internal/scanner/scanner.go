// Package scanner calls the Gemini API to guess transaction fields from a
// receipt image. The whole feature is best effort: any failure is returned
// to the caller, logged, and otherwise ignored, and existing form fields are
// never overwritten with empty guesses.
package scanner

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-2.5-flash-preview-05-20"
)

// receiptPrompt asks for exactly the fields a transaction form can take.
const receiptPrompt = `Extract the following information from this receipt in a JSON object format:
{
  "date": "YYYY-MM-DD",
  "amount": number,
  "description": "string (the main item or service)",
  "category": "string (categorize the expense, e.g., 'dining', 'groceries', 'transportation')"
}.
Only return the JSON object, do not include any other text.`

var ErrNoAPIKey = errors.New("scanner api key not configured")

// Guess is the model's best-effort read of a receipt. Zero-valued fields
// were not recognized and must not overwrite anything.
type Guess struct {
	Date        string  `json:"date"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
}

// Client calls the Gemini generateContent endpoint.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
}

// New creates a scanner client. An empty apiKey yields a client whose scans
// fail with ErrNoAPIKey, keeping the feature cleanly optional.
func New(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		model:   defaultModel,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// NewWithBaseURL creates a client against a different endpoint. Tests use
// this to point at a local server.
func NewWithBaseURL(apiKey, baseURL string) *Client {
	c := New(apiKey)
	c.baseURL = baseURL
	return c
}

// Request/response shapes for the generateContent wire format; only the
// fields this client touches.

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseMimeType string `json:"responseMimeType"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// ScanReceipt submits a receipt image and parses the model's structured
// guess. mimeType defaults to image/jpeg when empty.
func (c *Client) ScanReceipt(ctx context.Context, image []byte, mimeType string) (*Guess, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if len(image) == 0 {
		return nil, errors.New("no image staged")
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	reqBody := generateRequest{
		Contents: []content{{
			Parts: []part{
				{Text: receiptPrompt},
				{InlineData: &inlineData{
					MimeType: mimeType,
					Data:     base64.StdEncoding.EncodeToString(image),
				}},
			},
		}},
		GenerationConfig: generationConfig{ResponseMimeType: "application/json"},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to encode scan request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build scan request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scan request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scan request failed: status %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode scan response: %w", err)
	}

	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return nil, errors.New("scan response contained no candidates")
	}

	var guess Guess
	if err := json.Unmarshal([]byte(out.Candidates[0].Content.Parts[0].Text), &guess); err != nil {
		return nil, fmt.Errorf("failed to parse receipt guess: %w", err)
	}

	return &guess, nil
}
