// Package liveendpoint fetches the live service's model-listing
// endpoint. An absent API key disables this fetcher entirely.
package liveendpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venicekb/internal/httpclient"
)

// Model is one entry in the live model-listing response.
type Model struct {
	ID string `json:"id"`
}

// Fetcher issues one authenticated request for the model list.
type Fetcher struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  arbor.ILogger
}

// New creates a live-endpoint fetcher. Enabled reports whether an API
// key was configured; callers should skip this fetcher entirely when it
// is false rather than call Fetch.
func New(baseURL, apiKey string, logger arbor.ILogger) *Fetcher {
	return &Fetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  httpclient.NewDefault(30 * time.Second),
		logger:  logger,
	}
}

// Enabled reports whether the fetcher has credentials to call with.
func (f *Fetcher) Enabled() bool {
	return f.apiKey != ""
}

// Fetch calls GET /models. On 401 it returns an empty, non-error
// result; on other non-2xx statuses it logs and returns empty as well
// so the pipeline sees a total input.
func (f *Fetcher) Fetch(ctx context.Context) ([]Model, error) {
	if !f.Enabled() {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build live-endpoint request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+f.apiKey)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("live-endpoint request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read live-endpoint response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		f.logger.Warn().Int("status", resp.StatusCode).Msg("live endpoint rejected credentials, treating as empty source")
		return nil, nil
	}
	if resp.StatusCode >= 300 {
		f.logger.Warn().Int("status", resp.StatusCode).Msg("live endpoint returned non-success status, treating as empty source")
		return nil, nil
	}

	return decodeModels(body)
}

// decodeModels accepts either {"data": [...]} or a bare array.
func decodeModels(body []byte) ([]Model, error) {
	var envelope struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Data != nil {
		return decodeRaws(envelope.Data)
	}

	var bare []json.RawMessage
	if err := json.Unmarshal(body, &bare); err != nil {
		return nil, fmt.Errorf("failed to parse live-endpoint model list: %w", err)
	}
	return decodeRaws(bare)
}

func decodeRaws(raws []json.RawMessage) ([]Model, error) {
	models := make([]Model, 0, len(raws))
	for _, raw := range raws {
		var m Model
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("failed to parse model entry: %w", err)
		}
		models = append(models, m)
	}
	return models, nil
}

// RenderMarkdown turns a live model list into the markdown bound into
// merge.LiveEndpointSlot for the page named by LiveEndpointConfig.TargetPath.
// An empty list renders a short notice rather than an empty table, since
// merge treats an empty string identically to "slot absent".
func RenderMarkdown(models []Model) string {
	if len(models) == 0 {
		return "_No models were reported by the live endpoint at build time._\n"
	}

	ids := make([]string, 0, len(models))
	for _, m := range models {
		ids = append(ids, m.ID)
	}
	sort.Strings(ids)

	var b strings.Builder
	b.WriteString("| Model ID |\n")
	b.WriteString("| --- |\n")
	for _, id := range ids {
		fmt.Fprintf(&b, "| `%s` |\n", id)
	}
	return b.String()
}
