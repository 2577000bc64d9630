package ddarchives

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/vectorcore/pipeline/pkg/batch"
	"github.com/vectorcore/pipeline/pkg/event"
	"github.com/vectorcore/pipeline/pkg/transport"
)

// Partitioner is the fixed KeyPartitioner spec.md §4.2/§4.4 mandates
// for the Archives sink: "/dt=%Y%m%d/hour=%H/" evaluated against the
// event's timestamp.
func Partitioner() batch.KeyPartitioner {
	return batch.NewKeyPartitioner(keyTemplate)
}

// PartitionFunc derives an event's partition key via Partitioner,
// reading the timestamp the logschema says to use, falling back to
// "now" when the event has none.
func PartitionFunc(schemaTimestampKey string) batch.PartitionFunc {
	p := Partitioner()
	return func(ev event.Event) string {
		if ev.Kind == event.KindLog {
			if v, ok := ev.Log.Get(schemaTimestampKey); ok {
				if tv, ok := v.(time.Time); ok {
					return p.Key(tv)
				}
			}
		}
		return p.Key(time.Now())
	}
}

// Sink wires a Batcher, RequestBuilder, and Service into the Datadog
// Archives delivery path (spec.md §2's DAG, specialized for a single
// PUT-per-batch upload instead of a per-endpoint fan-out).
type Sink struct {
	In chan batch.Item

	cfg     Config
	builder *RequestBuilder
	svc     *transport.Service
	logger  logrus.FieldLogger
}

// New constructs a Sink from Config after validating it (service,
// storage class gating).
func New(cfg Config, client *s3.S3, logger logrus.FieldLogger) (*Sink, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	enc, err := NewEncoder()
	if err != nil {
		return nil, err
	}

	builder := &RequestBuilder{
		Bucket:    cfg.Bucket,
		KeyPrefix: cfg.KeyPrefix,
		Options:   cfg.AWSS3.Options,
		Client:    client,
		Encoder:   enc,
		Logger:    logger,
	}

	svc := &transport.Service{
		Config: cfg.requestConfig(),
		Logic:  transport.DefaultHTTPRetryLogic{},
		Logger: logger,
	}

	return &Sink{
		In:      make(chan batch.Item),
		cfg:     cfg,
		builder: builder,
		svc:     svc,
		logger:  logger,
	}, nil
}

// Run drives the Batcher -> RequestBuilder -> Service pipeline until
// ctx is done or In is closed.
func (s *Sink) Run(ctx context.Context) {
	batches := make(chan batch.Batch)
	requests := make(chan transport.Request)

	b := &batch.Batcher{Settings: defaultBatchSettings()}
	go func() {
		b.Run(ctx, s.In, batches)
		close(batches)
	}()

	go func() {
		defer close(requests)
		for bt := range batches {
			req, err := s.builder.Build(bt)
			if err != nil {
				if s.logger != nil {
					s.logger.WithError(err).Error("failed to build archive request")
				}
				continue
			}
			select {
			case requests <- req:
			case <-ctx.Done():
				return
			}
		}
	}()

	s.svc.Run(ctx, requests)
}
