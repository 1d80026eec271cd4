package s3

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"

	"github.com/arguslabs/argus/internal/logging"
	"github.com/arguslabs/argus/pkg/awserr"
)

// Writer creates and mutates buckets and objects.
type Writer struct {
	api API
	log zerolog.Logger
	now func() time.Time
}

// NewWriter returns a Writer over the given S3 API.
func NewWriter(api API) *Writer {
	return &Writer{api: api, log: logging.For(serviceName), now: time.Now}
}

// CreateBucket creates a bucket, in the given region when one is set.
func (w *Writer) CreateBucket(ctx context.Context, bucket, region string) error {
	input := &s3.CreateBucketInput{
		Bucket: aws.String(bucket),
	}
	// us-east-1 must not be sent as a location constraint.
	if region != "" && region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(region),
		}
	}

	if _, err := w.api.CreateBucket(ctx, input); err != nil {
		return awserr.Classify(serviceName, "CreateBucket", bucket, err)
	}

	w.log.Info().Str("bucket", bucket).Str("region", region).Msg("created bucket")
	return nil
}

// DeleteBucket deletes a bucket. With force set, every object version and
// delete marker is removed first.
func (w *Writer) DeleteBucket(ctx context.Context, bucket string, force bool) error {
	if force {
		if err := w.emptyBucket(ctx, bucket); err != nil {
			return err
		}
	}

	if _, err := w.api.DeleteBucket(ctx, &s3.DeleteBucketInput{
		Bucket: aws.String(bucket),
	}); err != nil {
		return awserr.Classify(serviceName, "DeleteBucket", bucket, err)
	}

	w.log.Info().Str("bucket", bucket).Msg("deleted bucket")
	return nil
}

// UploadOptions carries the optional parameters of UploadObject.
type UploadOptions struct {
	ContentType string
	Metadata    map[string]string
}

// UploadObject stores the content under bucket/key.
func (w *Writer) UploadObject(ctx context.Context, bucket, key string, body io.Reader, opts *UploadOptions) (*UploadResult, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if opts != nil {
		if opts.ContentType != "" {
			input.ContentType = aws.String(opts.ContentType)
		}
		if len(opts.Metadata) > 0 {
			input.Metadata = opts.Metadata
		}
	}

	out, err := w.api.PutObject(ctx, input)
	if err != nil {
		return nil, awserr.Classify(serviceName, "UploadObject", bucket+"/"+key, err)
	}

	w.log.Info().Str("bucket", bucket).Str("key", key).Msg("uploaded object")
	return &UploadResult{
		Bucket:    bucket,
		Key:       key,
		ETag:      strings.Trim(aws.ToString(out.ETag), `"`),
		VersionID: aws.ToString(out.VersionId),
	}, nil
}

// DeleteObject removes one object, or one version of it when versionID is
// set.
func (w *Writer) DeleteObject(ctx context.Context, bucket, key, versionID string) (*DeleteResult, error) {
	input := &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}
	if versionID != "" {
		input.VersionId = aws.String(versionID)
	}

	out, err := w.api.DeleteObject(ctx, input)
	if err != nil {
		return nil, awserr.Classify(serviceName, "DeleteObject", bucket+"/"+key, err)
	}

	w.log.Info().Str("bucket", bucket).Str("key", key).Msg("deleted object")
	return &DeleteResult{
		Bucket:       bucket,
		Key:          key,
		VersionID:    aws.ToString(out.VersionId),
		DeleteMarker: aws.ToBool(out.DeleteMarker),
	}, nil
}

// EnableVersioning turns on versioning for a bucket.
func (w *Writer) EnableVersioning(ctx context.Context, bucket string) error {
	_, err := w.api.PutBucketVersioning(ctx, &s3.PutBucketVersioningInput{
		Bucket: aws.String(bucket),
		VersioningConfiguration: &types.VersioningConfiguration{
			Status: types.BucketVersioningStatusEnabled,
		},
	})
	if err != nil {
		return awserr.Classify(serviceName, "EnableVersioning", bucket, err)
	}

	w.log.Info().Str("bucket", bucket).Msg("enabled versioning")
	return nil
}

// SetBucketEncryption configures default server-side encryption. With an
// empty kmsKeyID, AES256 is used; otherwise aws:kms with the given key.
func (w *Writer) SetBucketEncryption(ctx context.Context, bucket, kmsKeyID string) error {
	def := &types.ServerSideEncryptionByDefault{
		SSEAlgorithm: types.ServerSideEncryptionAes256,
	}
	if kmsKeyID != "" {
		def.SSEAlgorithm = types.ServerSideEncryptionAwsKms
		def.KMSMasterKeyID = aws.String(kmsKeyID)
	}

	_, err := w.api.PutBucketEncryption(ctx, &s3.PutBucketEncryptionInput{
		Bucket: aws.String(bucket),
		ServerSideEncryptionConfiguration: &types.ServerSideEncryptionConfiguration{
			Rules: []types.ServerSideEncryptionRule{
				{ApplyServerSideEncryptionByDefault: def},
			},
		},
	})
	if err != nil {
		return awserr.Classify(serviceName, "SetBucketEncryption", bucket, err)
	}

	w.log.Info().Str("bucket", bucket).Str("algorithm", string(def.SSEAlgorithm)).Msg("set bucket encryption")
	return nil
}

// emptyBucket deletes every version and delete marker in the bucket.
func (w *Writer) emptyBucket(ctx context.Context, bucket string) error {
	paginator := s3.NewListObjectVersionsPaginator(w.api, &s3.ListObjectVersionsInput{
		Bucket: aws.String(bucket),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return awserr.Classify(serviceName, "DeleteBucket", bucket, err)
		}

		var toDelete []types.ObjectIdentifier
		for _, v := range page.Versions {
			toDelete = append(toDelete, types.ObjectIdentifier{Key: v.Key, VersionId: v.VersionId})
		}
		for _, m := range page.DeleteMarkers {
			toDelete = append(toDelete, types.ObjectIdentifier{Key: m.Key, VersionId: m.VersionId})
		}
		if len(toDelete) == 0 {
			continue
		}

		if _, err := w.api.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(bucket),
			Delete: &types.Delete{Objects: toDelete},
		}); err != nil {
			return awserr.Classify(serviceName, "DeleteBucket", bucket, err)
		}
	}

	return nil
}
