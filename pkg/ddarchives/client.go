package ddarchives

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// NewS3Client builds the *s3.S3 client the Archives RequestBuilder and
// Healthcheck use, resolving region_or_endpoint and auth the way
// spec.md §6's aws_s3 config section describes. Credential resolution
// beyond explicit static keys is treated as an external collaborator
// (spec.md §1 Out of scope) - the AWS SDK's default chain (env,
// shared config, instance profile) is used when AccessKeyID is unset.
func NewS3Client(cfg S3Config) (*s3.S3, error) {
	awsCfg := aws.NewConfig()

	if cfg.Region != "" {
		awsCfg = awsCfg.WithRegion(cfg.Region)
	}
	if cfg.Endpoint != "" {
		awsCfg = awsCfg.WithEndpoint(cfg.Endpoint).WithS3ForcePathStyle(true)
	}
	if cfg.AccessKeyID != "" {
		awsCfg = awsCfg.WithCredentials(credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, ""))
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, err
	}
	return s3.New(sess), nil
}
