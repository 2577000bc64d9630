package ddarchives

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vectorcore/pipeline/pkg/batch"
	"github.com/vectorcore/pipeline/pkg/event"
	"github.com/vectorcore/pipeline/pkg/finalize"
	"github.com/vectorcore/pipeline/pkg/transport"
)

// RequestBuilder converts an Archives Batch into a single S3 PUT
// transport.Request (spec.md §4.4).
type RequestBuilder struct {
	Bucket    string
	KeyPrefix string
	Options   S3Options
	Client    *s3.S3
	Encoder   *Encoder
	Logger    logrus.FieldLogger
}

// Build normalizes, NDJSON-encodes, gzip-compresses, and assembles the
// object key for b, returning the request the Service will execute.
func (rb *RequestBuilder) Build(b batch.Batch) (transport.Request, error) {
	finalizers := b.Events.TakeFinalizers()
	reject := func(err error) (transport.Request, error) {
		finalizers.ResolveAll(finalize.Outcome{Status: finalize.Rejected, Err: err})
		return transport.Request{}, err
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	uncompressed := 0
	for _, ev := range b.Events {
		if ev.Kind != event.KindLog {
			continue
		}
		normalized := rb.Encoder.Normalize(ev.Log)
		line, err := normalized.MarshalJSON()
		if err != nil {
			return reject(fmt.Errorf("ddarchives: encode event: %w", err))
		}
		uncompressed += len(line) + 1
		if _, err := gz.Write(line); err != nil {
			return reject(err)
		}
		if _, err := gz.Write([]byte("\n")); err != nil {
			return reject(err)
		}
	}
	if err := gz.Close(); err != nil {
		return reject(err)
	}

	key := rb.assembleKey(b.PartitionKey)
	payload := buf.Bytes()

	bucket := rb.Bucket
	client := rb.Client
	opts := rb.Options

	return transport.Request{
		ByteSize:   uncompressed,
		Finalizers: finalizers,
		Exec: func(ctx context.Context) error {
			input := &s3.PutObjectInput{
				Bucket:          aws.String(bucket),
				Key:             aws.String(key),
				Body:            bytes.NewReader(payload),
				ContentEncoding: aws.String("gzip"),
			}
			applyS3Options(input, opts)

			_, err := client.PutObjectWithContext(ctx, input)
			if err != nil {
				return classifyS3Error(err)
			}
			return nil
		},
	}, nil
}

// assembleKey builds "{key_prefix}/{partition_key}{uuid}.json.gz",
// collapsing any "//" to "/" (spec.md §4.4 Object key).
func (rb *RequestBuilder) assembleKey(partitionKey string) string {
	filename := uuid.New().String()
	key := fmt.Sprintf("%s/%s%s.json.gz", rb.KeyPrefix, partitionKey, filename)
	for strings.Contains(key, "//") {
		key = strings.ReplaceAll(key, "//", "/")
	}
	return key
}

func applyS3Options(input *s3.PutObjectInput, opts S3Options) {
	if opts.ACL != "" {
		input.ACL = aws.String(opts.ACL)
	}
	if opts.GrantFullControl != "" {
		input.GrantFullControl = aws.String(opts.GrantFullControl)
	}
	if opts.GrantRead != "" {
		input.GrantRead = aws.String(opts.GrantRead)
	}
	if opts.GrantReadACP != "" {
		input.GrantReadACP = aws.String(opts.GrantReadACP)
	}
	if opts.GrantWriteACP != "" {
		input.GrantWriteACP = aws.String(opts.GrantWriteACP)
	}
	if opts.ServerSideEncryption != "" {
		input.ServerSideEncryption = aws.String(opts.ServerSideEncryption)
	}
	if opts.SSEKMSKeyID != "" {
		input.SSEKMSKeyId = aws.String(opts.SSEKMSKeyID)
	}
	if opts.StorageClass != "" {
		input.StorageClass = aws.String(string(opts.StorageClass))
	}
	if len(opts.Tags) > 0 {
		var b strings.Builder
		first := true
		for k, v := range opts.Tags {
			if !first {
				b.WriteByte('&')
			}
			first = false
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(v)
		}
		input.Tagging = aws.String(b.String())
	}
}

// classifyS3Error maps an AWS SDK error onto the same HTTPError/
// NetworkError shapes the Metrics sink uses, so the shared
// DefaultHTTPRetryLogic (spec.md §4.5) classifies S3 failures the same
// way it classifies Datadog API failures: by status code when the SDK
// got a response, as a network error otherwise.
func classifyS3Error(err error) error {
	if reqErr, ok := err.(awserr.RequestFailure); ok {
		return &transport.HTTPError{StatusCode: reqErr.StatusCode(), Err: reqErr}
	}
	return &transport.NetworkError{Err: err}
}
