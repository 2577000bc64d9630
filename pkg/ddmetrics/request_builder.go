package ddmetrics

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/vectorcore/pipeline/pkg/batch"
	"github.com/vectorcore/pipeline/pkg/event"
	"github.com/vectorcore/pipeline/pkg/finalize"
	"github.com/vectorcore/pipeline/pkg/transport"
)

// RequestBuilder converts a Batch of metric events into one or more
// wire-ready transport.Request values, one per Datadog Metrics
// endpoint the batch's metrics route to (spec.md §4.3).
type RequestBuilder struct {
	Endpoints        map[Endpoint]string // resolved base URI per endpoint
	DefaultNamespace string
	APIKey           string
	Client           *http.Client
	Logger           logrus.FieldLogger
}

// routeEndpoint implements the endpoint routing rule: counters/gauges
// go to Series, distributions to Distribution, sketches to Sketch.
func routeEndpoint(kind event.MetricValueKind) Endpoint {
	switch kind {
	case event.MetricDistribution:
		return EndpointDistribution
	case event.MetricSketch:
		return EndpointSketch
	default:
		return EndpointSeries
	}
}

type metricWithHandles struct {
	metric     event.Metric
	finalizers finalize.List
}

// Build splits b by endpoint, encodes each sub-batch (applying
// incremental halve-and-retry splitting on oversized payloads), and
// returns one transport.Request per resulting chunk. The second result
// is the count of events rejected outright for being an oversized
// singleton, useful for operator-visible reporting.
func (rb *RequestBuilder) Build(b batch.Batch) ([]transport.Request, int) {
	groups := map[Endpoint][]metricWithHandles{}
	for _, ev := range b.Events {
		if ev.Kind != event.KindMetric {
			continue
		}
		ep := routeEndpoint(ev.Metric.ValueKind)
		groups[ep] = append(groups[ep], metricWithHandles{metric: ev.Metric, finalizers: ev.Finalizers})
	}

	var requests []transport.Request
	dropped := 0
	for ep, items := range groups {
		reqs, d := rb.buildEndpointRequests(ep, items)
		requests = append(requests, reqs...)
		dropped += d
	}
	return requests, dropped
}

func (rb *RequestBuilder) buildEndpointRequests(ep Endpoint, items []metricWithHandles) ([]transport.Request, int) {
	if len(items) == 0 {
		return nil, 0
	}

	payload, ok := rb.encodeWithinCeiling(ep, items)
	if ok {
		return []transport.Request{rb.toRequest(ep, items, payload)}, 0
	}

	if len(items) == 1 {
		items[0].finalizers.ResolveAll(finalize.Outcome{
			Status: finalize.Rejected,
			Err:    fmt.Errorf("ddmetrics: metric %q exceeds payload size ceilings even as a singleton", items[0].metric.Name),
		})
		return nil, 1
	}

	mid := len(items) / 2
	leftReqs, leftDropped := rb.buildEndpointRequests(ep, items[:mid])
	rightReqs, rightDropped := rb.buildEndpointRequests(ep, items[mid:])
	return append(leftReqs, rightReqs...), leftDropped + rightDropped
}

// encodeWithinCeiling encodes items and compresses the result,
// reporting whether both the uncompressed and compressed ceilings from
// spec.md §4.3 are satisfied.
func (rb *RequestBuilder) encodeWithinCeiling(ep Endpoint, items []metricWithHandles) ([]byte, bool) {
	metrics := make([]event.Metric, len(items))
	for i, it := range items {
		metrics[i] = it.metric
	}

	var raw []byte
	var err error
	switch ep {
	case EndpointSeries:
		raw, err = encodeSeries(metrics, rb.DefaultNamespace)
	case EndpointDistribution:
		raw, err = encodeDistribution(metrics, rb.DefaultNamespace)
	case EndpointSketch:
		raw, err = encodeSketch(metrics, rb.DefaultNamespace)
	}
	if err != nil || len(raw) > MaxUncompressedPayload {
		return nil, false
	}

	compressed, err := gzipCompress(raw)
	if err != nil || len(compressed) > MaxCompressedPayload {
		return nil, false
	}
	return compressed, true
}

func gzipCompress(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(raw); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (rb *RequestBuilder) toRequest(ep Endpoint, items []metricWithHandles, payload []byte) transport.Request {
	var finalizers finalize.List
	for _, it := range items {
		finalizers = finalize.Merge(finalizers, it.finalizers)
	}

	uri := ep.URI(rb.Endpoints[ep])
	contentType := ep.contentType()
	apiKey := rb.APIKey
	client := rb.Client
	logger := rb.Logger

	return transport.Request{
		ByteSize: len(payload),
		Finalizers: finalizers,
		Exec: func(ctx context.Context) error {
			req, err := http.NewRequest(http.MethodPost, uri, bytes.NewReader(payload))
			if err != nil {
				return err
			}
			req = req.WithContext(ctx)
			req.Header.Set("Content-Type", contentType)
			req.Header.Set("Content-Encoding", "gzip")
			req.Header.Set("DD-API-KEY", apiKey)

			resp, err := client.Do(req)
			if err != nil {
				return &transport.NetworkError{Err: err}
			}
			defer resp.Body.Close()
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				if logger != nil {
					logger.WithField("status", resp.StatusCode).WithField("body", string(body)).Warn("metrics request failed")
				}
				return &transport.HTTPError{StatusCode: resp.StatusCode, RetryAfter: retryAfterHeader(resp.Header.Get("Retry-After"))}
			}
			return nil
		},
	}
}
