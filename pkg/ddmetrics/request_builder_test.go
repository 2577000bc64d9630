package ddmetrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vectorcore/pipeline/pkg/batch"
	"github.com/vectorcore/pipeline/pkg/event"
	"github.com/vectorcore/pipeline/pkg/finalize"
)

func TestRequestBuilder_BuildFansOutByEndpoint(t *testing.T) {
	rb := &RequestBuilder{
		Endpoints: map[Endpoint]string{
			EndpointSeries:       "https://example.test",
			EndpointDistribution: "https://example.test",
			EndpointSketch:       "https://example.test",
		},
		Client: http.DefaultClient,
	}

	h1, _ := finalize.NewHandle()
	h2, _ := finalize.NewHandle()

	b := batch.Batch{
		Events: event.Events{
			{Kind: event.KindMetric, Metric: event.Metric{Name: "a", ValueKind: event.MetricCounter, Timestamp: time.Now()}, Finalizers: finalize.List{h1}},
			{Kind: event.KindMetric, Metric: event.Metric{Name: "b", ValueKind: event.MetricDistribution, Samples: []float64{1, 2}, Timestamp: time.Now()}, Finalizers: finalize.List{h2}},
		},
	}

	reqs, dropped := rb.Build(b)
	assert.Equal(t, 0, dropped)
	require.Len(t, reqs, 2)
}

func TestRequestBuilder_SingletonOversizeRejected(t *testing.T) {
	rb := &RequestBuilder{
		Endpoints: map[Endpoint]string{EndpointDistribution: "https://example.test"},
		Client:    http.DefaultClient,
	}

	h, outcomes := finalize.NewHandle()
	// 8M samples of the form "1234567.5," encode to more than
	// MaxUncompressedPayload bytes of JSON.
	huge := make([]float64, 8_000_000)
	for i := range huge {
		huge[i] = float64(i) + 0.5
	}
	b := batch.Batch{
		Events: event.Events{
			{Kind: event.KindMetric, Metric: event.Metric{Name: "huge", ValueKind: event.MetricDistribution, Samples: huge, Timestamp: time.Now()}, Finalizers: finalize.List{h}},
		},
	}

	reqs, dropped := rb.Build(b)
	assert.Empty(t, reqs)
	assert.Equal(t, 1, dropped)

	outcome := <-outcomes
	assert.Equal(t, finalize.Rejected, outcome.Status)
}
