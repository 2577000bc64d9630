package ddmetrics

import (
	"github.com/golang/protobuf/proto"
	jsoniter "github.com/json-iterator/go"

	"github.com/vectorcore/pipeline/pkg/event"
)

// jsonAPI mirrors the teacher's jsonConfig: no HTML escaping, map keys
// left unsorted (we control ordering via slices anyway).
var jsonAPI = jsoniter.Config{
	EscapeHTML:  false,
	SortMapKeys: false,
}.Froze()

type seriesPoint [2]interface{} // [ts, value] or [ts, [samples...]]

type seriesMetric struct {
	Metric   string        `json:"metric"`
	Type     string        `json:"type"`
	Interval int64         `json:"interval,omitempty"`
	Points   []seriesPoint `json:"points"`
	Host     string        `json:"host,omitempty"`
	Tags     []string      `json:"tags,omitempty"`
}

type seriesPayload struct {
	Series []seriesMetric `json:"series"`
}

func toTags(tags map[string]string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	for k, v := range tags {
		if v == "" {
			out = append(out, k)
		} else {
			out = append(out, k+":"+v)
		}
	}
	return out
}

// encodeSeries builds the {"series":[...]} JSON body for counters,
// rates, and gauges (spec.md §4.3 Encoding/Series).
func encodeSeries(metrics []event.Metric, defaultNamespace string) ([]byte, error) {
	out := make([]seriesMetric, 0, len(metrics))
	for _, m := range metrics {
		typ := "gauge"
		value := m.GaugeValue
		if m.ValueKind == event.MetricCounter {
			typ = "rate"
			value = m.CounterValue
		}
		out = append(out, seriesMetric{
			Metric: m.FullName(defaultNamespace),
			Type:   typ,
			Points: []seriesPoint{{m.Timestamp.Unix(), value}},
			Tags:   toTags(m.Tags),
		})
	}
	return jsonAPI.Marshal(seriesPayload{Series: out})
}

type distributionMetric struct {
	Metric string          `json:"metric"`
	Type   string          `json:"type"`
	Points []seriesPoint   `json:"points"`
	Tags   []string        `json:"tags,omitempty"`
}

type distributionPayload struct {
	Series []distributionMetric `json:"series"`
}

// encodeDistribution builds the {"series":[...]} JSON body for
// distributions, with each point's value being the raw sample array
// (spec.md §4.3 Encoding/Distribution).
func encodeDistribution(metrics []event.Metric, defaultNamespace string) ([]byte, error) {
	out := make([]distributionMetric, 0, len(metrics))
	for _, m := range metrics {
		samples := make([]interface{}, len(m.Samples))
		for i, v := range m.Samples {
			samples[i] = v
		}
		out = append(out, distributionMetric{
			Metric: m.FullName(defaultNamespace),
			Type:   "distribution",
			Points: []seriesPoint{{m.Timestamp.Unix(), samples}},
			Tags:   toTags(m.Tags),
		})
	}
	return jsonAPI.Marshal(distributionPayload{Series: out})
}

// encodeSketch builds the protobuf-encoded SketchPayload body for
// sketch metrics (spec.md §4.3 Encoding/Sketch), matching the content
// type the Sketch endpoint is served under (application/x-protobuf).
func encodeSketch(metrics []event.Metric, defaultNamespace string) ([]byte, error) {
	payload := &pbSketchPayload{}
	for _, m := range metrics {
		if m.Sketch == nil {
			continue
		}
		payload.Sketches = append(payload.Sketches, &pbSketchSeries{
			Metric:      m.FullName(defaultNamespace),
			Tags:        toTags(m.Tags),
			Dogsketches: []*pbDogsketch{encodeDogsketch(m.Timestamp.Unix(), m.Sketch)},
		})
	}
	return proto.Marshal(payload)
}

func encodeDogsketch(ts int64, sk *event.Sketch) *pbDogsketch {
	var cnt int64
	for _, n := range sk.Count {
		cnt += int64(n)
	}
	n := make([]int32, len(sk.Count))
	for i, v := range sk.Count {
		n[i] = int32(v)
	}
	return &pbDogsketch{
		Ts:  ts,
		K:   sk.Keys,
		N:   n,
		Min: sk.Min,
		Max: sk.Max,
		Sum: sk.Sum,
		Cnt: cnt,
	}
}
