package ddmetrics

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// OperatorEvent is an ad hoc event posted to Datadog's Events API
// (/api/v1/events), not a pipeline Event - an operator annotation such
// as a deploy marker. Supplements spec.md's Metrics module: the
// teacher's SendEvent demonstrates this API exists directly alongside
// the series intake, so it is carried over here rather than invented.
type OperatorEvent struct {
	Title          string   `json:"title"`
	Text           string   `json:"text"`
	DateHappened   int64    `json:"date_happened,omitempty"`
	Hostname       string   `json:"host,omitempty"`
	AggregationKey string   `json:"aggregation_key,omitempty"`
	SourceTypeName string   `json:"source_type_name,omitempty"`
	Tags           []string `json:"tags,omitempty"`
	Priority       string   `json:"priority,omitempty"`
	AlertType      string   `json:"alert_type,omitempty"`
}

// EventClient posts OperatorEvents to the Datadog Events API. It does
// not participate in the Batcher/RequestBuilder/Service pipeline - one
// event, one synchronous POST, matching the teacher's SendEvent.
type EventClient struct {
	APIEndpoint string
	APIKey      string
	Client      *http.Client
}

func (c *EventClient) Send(ctx context.Context, e OperatorEvent) error {
	body, err := jsonAPI.Marshal(e)
	if err != nil {
		return fmt.Errorf("ddmetrics: marshal event: %w", err)
	}

	uri := c.APIEndpoint + "/api/v1/events"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uri, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("DD-API-KEY", c.APIKey)

	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("ddmetrics: event post failed with status %d: %s", resp.StatusCode, string(b))
	}
	return nil
}
