// Package corenlp talks to a Stanford CoreNLP server over its HTTP JSON API.
package corenlp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cognicore/annotok/pkg/annotok/annotate"
)

// warmupText is annotated once when a client is built so the server loads its
// models before the first real document.
const warmupText = "Warm up the pipeline."

// Client annotates documents with a CoreNLP server. It is safe for concurrent use.
type Client struct {
	BaseURL    string
	Properties map[string]string
	// Language is sent as pipelineLanguage when it is not English.
	Language string

	HTTPClient *http.Client
}

type response struct {
	Sentences []struct {
		Tokens []struct {
			Word  string `json:"word"`
			Lemma string `json:"lemma"`
			POS   string `json:"pos"`
			Begin int    `json:"characterOffsetBegin"`
			End   int    `json:"characterOffsetEnd"`
		} `json:"tokens"`
	} `json:"sentences"`
}

// NewClient returns a client configured for settings.
func NewClient(baseURL string, settings annotate.Settings, httpClient *http.Client) *Client {
	return &Client{
		BaseURL:    baseURL,
		Properties: settings.Properties(),
		Language:   settings.Language,
		HTTPClient: httpClient,
	}
}

// Builder returns an annotate.Builder that creates a Client and warms it up.
// A server that is down or cannot load the requested models fails the build.
func Builder(baseURL string, httpClient *http.Client, logger *zap.Logger) annotate.Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, s annotate.Settings) (annotate.Annotator, error) {
		c := NewClient(baseURL, s, httpClient)
		start := time.Now()
		if _, err := c.Annotate(ctx, warmupText); err != nil {
			return nil, fmt.Errorf("corenlp warmup: %w", err)
		}
		logger.Info("corenlp server ready", zap.String("url", baseURL), zap.Duration("warmup", time.Since(start)))
		return c, nil
	}
}

// Annotate implements annotate.Annotator. Offsets in the result are byte offsets
// into text.
func (c *Client) Annotate(ctx context.Context, text string) (*annotate.Document, error) {
	if c.BaseURL == "" {
		return nil, fmt.Errorf("corenlp: base URL required")
	}
	payload, err := c.send(ctx, text)
	if err != nil {
		return nil, err
	}

	offsets := byteOffsets(text)
	toByte := func(units int) int {
		if units < 0 {
			return 0
		}
		if units >= len(offsets) {
			return len(text)
		}
		return offsets[units]
	}

	doc := &annotate.Document{Text: text, Sentences: make([]annotate.Sentence, 0, len(payload.Sentences))}
	for _, s := range payload.Sentences {
		sent := annotate.Sentence{Tokens: make([]annotate.Token, 0, len(s.Tokens))}
		for _, tok := range s.Tokens {
			sent.Tokens = append(sent.Tokens, annotate.Token{
				Text:  tok.Word,
				Lemma: tok.Lemma,
				POS:   tok.POS,
				Begin: toByte(tok.Begin),
				End:   toByte(tok.End),
			})
		}
		doc.Sentences = append(doc.Sentences, sent)
	}
	return doc, nil
}

func (c *Client) send(ctx context.Context, text string) (*response, error) {
	endpoint, err := c.endpoint()
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(text))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("corenlp: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("corenlp: decode response: %w", err)
	}
	return &payload, nil
}

func (c *Client) endpoint() (string, error) {
	props := make(map[string]string, len(c.Properties)+1)
	for k, v := range c.Properties {
		props[k] = v
	}
	props["outputFormat"] = "json"
	encoded, err := json.Marshal(props)
	if err != nil {
		return "", err
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", fmt.Errorf("corenlp: bad base URL: %w", err)
	}
	q := u.Query()
	q.Set("properties", string(encoded))
	if c.Language != "" && c.Language != "en" {
		q.Set("pipelineLanguage", c.Language)
	}
	u.RawQuery = q.Encode()
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String(), nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 60 * time.Second}
}

// byteOffsets maps UTF-16 code unit offsets, as reported by the server, to byte
// offsets in text. The returned slice has one entry per code unit plus one for
// the end of text.
func byteOffsets(text string) []int {
	out := make([]int, 0, len(text)+1)
	for i, r := range text {
		out = append(out, i)
		if r >= 0x10000 {
			out = append(out, i)
		}
	}
	return append(out, len(text))
}
