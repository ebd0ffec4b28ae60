// Package backend issues single generateContent calls against the
// generative text API and classifies their outcome.
package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"netxlate/internal/core"
	"netxlate/internal/util"

	"github.com/bytedance/sonic"
	"github.com/tidwall/gjson"
)

// Envelope paths read from a successful response.
const (
	textPath         = "candidates.0.content.parts.0.text"
	finishReasonPath = "candidates.0.finishReason"
)

// Resolver resolves a model id to its descriptor.
type Resolver interface {
	Resolve(modelID string) (core.ModelDescriptor, *core.Error)
}

// Config holds the collaborators of a Client.
type Config struct {
	Registry   Resolver
	HTTPClient *http.Client
	Credential string
	Logger     core.Logger
}

// Client calls the backend once per Invoke. It does not retry.
type Client struct {
	registry   Resolver
	httpClient *http.Client
	credential string
	logger     core.Logger
}

func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := cfg.Logger
	if logger == nil {
		logger = &core.NopLogger{}
	}
	return &Client{
		registry:   cfg.Registry,
		httpClient: httpClient,
		credential: cfg.Credential,
		logger:     logger,
	}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

// generateRequest keeps the system prompt apart from the user payload.
type generateRequest struct {
	Contents          []content `json:"contents"`
	SystemInstruction content   `json:"systemInstruction"`
}

// BuildPayload renders the request body for one call.
func BuildPayload(systemPrompt, userQuery string) ([]byte, error) {
	return sonic.Marshal(generateRequest{
		Contents:          []content{{Parts: []part{{Text: userQuery}}}},
		SystemInstruction: content{Parts: []part{{Text: systemPrompt}}},
	})
}

// Invoke sends one request for modelID and returns Success(rawText) or a classified Failure.
func (c *Client) Invoke(ctx context.Context, systemPrompt, userQuery, modelID string) core.ActionResult {
	descriptor, rerr := c.registry.Resolve(modelID)
	if rerr != nil {
		c.logger.Warn("Rejected backend call: %v", rerr)
		return core.Failure(rerr)
	}
	if c.credential == "" {
		return core.Failure(core.ErrModelConfig("no API credential configured", nil))
	}

	target, err := descriptor.Target(c.credential)
	if err != nil {
		return core.Failure(core.ErrModelConfig("invalid endpoint for model "+modelID, err))
	}

	payload, err := BuildPayload(systemPrompt, userQuery)
	if err != nil {
		return core.Failure(core.ErrInputf("failed to encode request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return core.Failure(core.ErrModelConfig("failed to create request", err))
	}
	req.Header.Set(core.HeaderContentType, core.ContentTypeJSON)
	req.Header.Set(core.HeaderUserAgent, core.UserAgent)

	c.logger.Debug("Backend request: model=%s, system=%d bytes, query=%d bytes", modelID, len(systemPrompt), len(userQuery))

	resp, err := c.httpClient.Do(req) //nolint:gosec // target comes from the model registry
	if err != nil {
		err = redactURL(err)
		c.logger.Error("Backend transport error for model %s: %v", modelID, err)
		return core.Failure(core.ErrNetwork(err))
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, core.MaxResponseBodySize))
	if err != nil {
		c.logger.Error("Backend read error for model %s: %v", modelID, err)
		return core.Failure(core.ErrNetwork(err))
	}

	c.logger.Debug("Backend response: model=%s, status=%d, size=%d", modelID, resp.StatusCode, len(body))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		c.logger.Error("Backend API error: status=%d, body=%s", resp.StatusCode, util.TruncateString(string(body), 200, 100, "..."))
		return core.Failure(core.ErrAPI(resp.StatusCode, string(body)))
	}

	result := Classify(body)
	if !result.OK() {
		c.logger.Warn("Backend call for model %s failed: %v", modelID, result.Err)
	}
	return result
}

// Classify interprets a 2xx response envelope.
func Classify(body []byte) core.ActionResult {
	if !gjson.ValidBytes(body) {
		return core.Failure(core.ErrMalformedResponse("Response is not valid JSON."))
	}

	if text := gjson.GetBytes(body, textPath); text.Exists() && text.Type == gjson.String {
		return core.Success(text.String())
	}

	if reason := gjson.GetBytes(body, finishReasonPath); reason.Exists() && reason.String() != "" {
		return core.Failure(core.ErrBlockedContent(reason.String()))
	}

	return core.Failure(core.ErrMalformedResponse(""))
}

// redactURL drops the request URL from transport errors since it carries the credential.
func redactURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s: %w", urlErr.Op, urlErr.Err)
	}
	return err
}
