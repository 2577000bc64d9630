package ddmetrics

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vectorcore/pipeline/pkg/event"
)

func TestEncodeSeries_RoundTrips(t *testing.T) {
	ts := time.Date(2021, 8, 23, 18, 0, 27, 0, time.UTC)
	m := event.Metric{
		Name:      "requests",
		Timestamp: ts,
		ValueKind: event.MetricCounter,
		CounterValue: 4,
		Tags:      map[string]string{"env": "prod"},
	}

	raw, err := encodeSeries([]event.Metric{m}, "")
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	series := decoded["series"].([]interface{})
	require.Len(t, series, 1)
	entry := series[0].(map[string]interface{})
	assert.Equal(t, "requests", entry["metric"])
	assert.Equal(t, "rate", entry["type"])
	points := entry["points"].([]interface{})
	require.Len(t, points, 1)
	point := points[0].([]interface{})
	assert.EqualValues(t, ts.Unix(), point[0])
	assert.EqualValues(t, 4, point[1])
}

func TestMetricFullName_Namespacing(t *testing.T) {
	m := event.Metric{Name: "latency"}
	assert.Equal(t, "app.latency", m.FullName("app"))

	m.Namespace = "custom"
	assert.Equal(t, "custom.latency", m.FullName("app"))
}

func TestEncodeSketch_RoundTrips(t *testing.T) {
	ts := time.Date(2021, 8, 23, 18, 0, 27, 0, time.UTC)
	m := event.Metric{
		Name:      "latency",
		Timestamp: ts,
		ValueKind: event.MetricSketch,
		Tags:      map[string]string{"env": "prod"},
		Sketch: &event.Sketch{
			Keys:  []int32{10, 20, 30},
			Count: []uint32{1, 2, 3},
			Sum:   140,
			Min:   1,
			Max:   50,
		},
	}

	raw, err := encodeSketch([]event.Metric{m}, "")
	require.NoError(t, err)

	var decoded pbSketchPayload
	require.NoError(t, proto.Unmarshal(raw, &decoded))
	require.Len(t, decoded.Sketches, 1)

	series := decoded.Sketches[0]
	assert.Equal(t, "latency", series.Metric)
	assert.Equal(t, []string{"env:prod"}, series.Tags)
	require.Len(t, series.Dogsketches, 1)

	sk := series.Dogsketches[0]
	assert.Equal(t, ts.Unix(), sk.Ts)
	assert.Equal(t, []int32{10, 20, 30}, sk.K)
	assert.Equal(t, []int32{1, 2, 3}, sk.N)
	assert.Equal(t, int64(6), sk.Cnt)
	assert.Equal(t, 1.0, sk.Min)
	assert.Equal(t, 50.0, sk.Max)
	assert.Equal(t, 140.0, sk.Sum)
}

func TestRouteEndpoint(t *testing.T) {
	assert.Equal(t, EndpointSeries, routeEndpoint(event.MetricCounter))
	assert.Equal(t, EndpointSeries, routeEndpoint(event.MetricGauge))
	assert.Equal(t, EndpointDistribution, routeEndpoint(event.MetricDistribution))
	assert.Equal(t, EndpointSketch, routeEndpoint(event.MetricSketch))
}
