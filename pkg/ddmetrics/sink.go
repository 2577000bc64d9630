package ddmetrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vectorcore/pipeline/pkg/batch"
	"github.com/vectorcore/pipeline/pkg/event"
	"github.com/vectorcore/pipeline/pkg/finalize"
	"github.com/vectorcore/pipeline/pkg/transport"
)

// RetryLogic is the Datadog Metrics sink's RetryLogic, an alias for
// the shared default HTTP classification since spec.md doesn't call
// out any metrics-specific exception to it.
type RetryLogic = transport.DefaultHTTPRetryLogic

// Sink wires a Batcher, RequestBuilder, and Service into the Datadog
// Metrics delivery path described by spec.md §2's DAG: Source output
// feeds In, the sink's internals handle batching, encoding, and
// execution.
type Sink struct {
	In chan batch.Item

	cfg     Config
	builder *RequestBuilder
	svc     *transport.Service
	events  *EventClient
	logger  logrus.FieldLogger
}

// New constructs a Sink from Config, resolving the endpoint URIs and
// building the Service with the sink's request config. agentVersion is
// the "{version-dash}" component of the default agent intake host.
func New(cfg Config, agentVersion string, client *http.Client, logger logrus.FieldLogger) (*Sink, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base := cfg.baseURI(agentVersion)
	endpoints := map[Endpoint]string{
		EndpointSeries:       base,
		EndpointDistribution: base,
		EndpointSketch:       base,
	}

	builder := &RequestBuilder{
		Endpoints:        endpoints,
		DefaultNamespace: cfg.DefaultNamespace,
		APIKey:           cfg.APIKey,
		Client:           client,
		Logger:           logger,
	}

	reqCfg := cfg.Request
	if reqCfg.RetryAttempts == 0 {
		reqCfg.RetryAttempts = 5
	}

	events := &EventClient{
		APIEndpoint: cfg.APIEndpoint(),
		APIKey:      cfg.APIKey,
		Client:      client,
	}

	svc := &transport.Service{
		Config: reqCfg,
		Logic:  RetryLogic{},
		Logger: logger,
	}

	s := &Sink{
		In:      make(chan batch.Item),
		cfg:     cfg,
		builder: builder,
		svc:     svc,
		events:  events,
		logger:  logger,
	}
	svc.OnTerminal = s.reportOutcome

	return s, nil
}

// reportOutcome is the Service's OnTerminal hook: it turns a resolved
// delivery outcome into an operator-visible OperatorEvent and posts it
// to the Datadog Events API, per spec.md §7's "operator-visible
// reporting is via a structured event emitted once per terminal
// outcome." Posting is fire-and-forget - a failure to report must
// never hold up or fail the delivery path it is reporting on.
func (s *Sink) reportOutcome(o transport.Outcome) {
	ev := OperatorEvent{
		Title:          fmt.Sprintf("pipeline-agent: metrics request %s", o.Status),
		Text:           fmt.Sprintf("attempts=%d bytes=%d", o.Attempts, o.ByteSize),
		SourceTypeName: "pipeline-agent",
		AlertType:      alertTypeFor(o.Status),
	}
	if o.Err != nil {
		ev.Text += fmt.Sprintf(" err=%q", o.Err.Error())
	}
	go s.sendEvent(ev)
}

func alertTypeFor(status finalize.Status) string {
	switch status {
	case finalize.Delivered:
		return "success"
	case finalize.Aborted:
		return "warning"
	default:
		return "error"
	}
}

func (s *Sink) sendEvent(ev OperatorEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.events.Send(ctx, ev); err != nil && s.logger != nil {
		s.logger.WithError(err).Warn("failed to post operator event")
	}
}

// Run drives the Batcher -> RequestBuilder -> Service pipeline until
// ctx is done or In is closed. It first posts a startup OperatorEvent,
// matching spec.md §7's "emitted ... at startup" requirement.
func (s *Sink) Run(ctx context.Context) {
	go s.sendEvent(OperatorEvent{
		Title:          "pipeline-agent: Datadog Metrics sink started",
		Text:           fmt.Sprintf("endpoint=%s", s.builder.Endpoints[EndpointSeries]),
		SourceTypeName: "pipeline-agent",
		AlertType:      "info",
	})

	batches := make(chan batch.Batch)
	requests := make(chan transport.Request)

	b := &batch.Batcher{Settings: s.cfg.batcherSettings()}
	go func() {
		b.Run(ctx, s.In, batches)
		close(batches)
	}()

	go func() {
		defer close(requests)
		for bt := range batches {
			reqs, dropped := s.builder.Build(bt)
			if dropped > 0 && s.logger != nil {
				s.logger.WithField("dropped", dropped).Warn("oversized metric singletons rejected")
			}
			for _, r := range reqs {
				select {
				case requests <- r:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	s.svc.Run(ctx, requests)
}

// PartitionKey is the ddmetrics sink's partition function: metrics are
// not time-bucketed by the Batcher (the RequestBuilder fans them out
// by endpoint afterward), so every metric shares a single partition.
func PartitionKey(event.Event) string {
	return ""
}
