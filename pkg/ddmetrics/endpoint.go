package ddmetrics

// Endpoint is the fixed set of Datadog Metrics intake endpoints, each
// with its own URI suffix and content-type (spec.md §3, §6).
type Endpoint int

const (
	EndpointSeries Endpoint = iota
	EndpointDistribution
	EndpointSketch
)

func (e Endpoint) uriSuffix() string {
	switch e {
	case EndpointSeries:
		return "/api/v1/series"
	case EndpointDistribution:
		return "/api/v1/distribution_points"
	case EndpointSketch:
		return "/api/beta/sketches"
	default:
		return ""
	}
}

func (e Endpoint) contentType() string {
	switch e {
	case EndpointSeries, EndpointDistribution:
		return "application/json"
	case EndpointSketch:
		return "application/x-protobuf"
	default:
		return "application/octet-stream"
	}
}

// URI resolves the full intake URI for the endpoint against base.
func (e Endpoint) URI(base string) string {
	return base + e.uriSuffix()
}

func (e Endpoint) String() string {
	switch e {
	case EndpointSeries:
		return "series"
	case EndpointDistribution:
		return "distribution"
	case EndpointSketch:
		return "sketch"
	default:
		return "unknown"
	}
}
