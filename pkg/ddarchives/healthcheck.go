package ddarchives

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
)

// Healthcheck confirms the configured bucket is reachable with a
// HeadBucket call, the S3-sink analog of the Metrics sink's
// /api/v1/validate probe (spec.md §4.6).
func Healthcheck(ctx context.Context, client *s3.S3, bucket string) error {
	_, err := client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err != nil {
		return fmt.Errorf("ddarchives: healthcheck failed for bucket %q: %w", bucket, err)
	}
	return nil
}
