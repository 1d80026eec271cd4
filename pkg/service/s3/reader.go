// Package s3 wraps object storage: bucket and object listings, metadata
// reads, uploads and deletes, and the touch operation that refreshes an
// object's modification timestamp via a metadata-replacing self-copy.
package s3

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/arguslabs/argus/internal/logging"
	"github.com/arguslabs/argus/pkg/awserr"
)

const serviceName = "s3"

// Reader reads buckets and objects.
type Reader struct {
	api API
	log zerolog.Logger
}

// NewReader returns a Reader over the given S3 API.
func NewReader(api API) *Reader {
	return &Reader{api: api, log: logging.For(serviceName)}
}

// ListBuckets returns all buckets in the account with their regions.
func (r *Reader) ListBuckets(ctx context.Context) ([]Bucket, error) {
	out, err := r.api.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, awserr.Classify(serviceName, "ListBuckets", "", err)
	}

	buckets := make([]Bucket, 0, len(out.Buckets))
	for _, b := range out.Buckets {
		bucket := Bucket{Name: aws.ToString(b.Name)}
		if b.CreationDate != nil {
			bucket.CreatedAt = *b.CreationDate
		}
		// Region lookup is best effort; a bucket we cannot locate still
		// shows up in the listing.
		if region, err := r.bucketRegion(ctx, bucket.Name); err == nil {
			bucket.Region = region
		}
		buckets = append(buckets, bucket)
	}

	r.log.Debug().Int("count", len(buckets)).Msg("listed buckets")
	return buckets, nil
}

// GetBucketInfo returns the region, versioning, and encryption state of
// one bucket.
func (r *Reader) GetBucketInfo(ctx context.Context, bucket string) (*BucketInfo, error) {
	region, err := r.bucketRegion(ctx, bucket)
	if err != nil {
		return nil, awserr.Classify(serviceName, "GetBucketInfo", bucket, err)
	}

	info := &BucketInfo{
		Name:             bucket,
		Region:           region,
		VersioningStatus: "Disabled",
	}

	if v, err := r.api.GetBucketVersioning(ctx, &s3.GetBucketVersioningInput{
		Bucket: aws.String(bucket),
	}); err == nil && v.Status != "" {
		info.VersioningStatus = string(v.Status)
	}

	if e, err := r.api.GetBucketEncryption(ctx, &s3.GetBucketEncryptionInput{
		Bucket: aws.String(bucket),
	}); err == nil && e.ServerSideEncryptionConfiguration != nil {
		if rules := e.ServerSideEncryptionConfiguration.Rules; len(rules) > 0 {
			if def := rules[0].ApplyServerSideEncryptionByDefault; def != nil {
				info.EncryptionEnabled = true
				info.SSEAlgorithm = string(def.SSEAlgorithm)
				info.KMSKeyID = aws.ToString(def.KMSMasterKeyID)
			}
		}
	}

	return info, nil
}

// ListObjects lists up to max objects under the given prefix. A max of 0
// means no limit.
func (r *Reader) ListObjects(ctx context.Context, bucket, prefix string, max int) ([]Object, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
	}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}

	paginator := s3.NewListObjectsV2Paginator(r.api, input)

	var objects []Object
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, awserr.Classify(serviceName, "ListObjects", bucket, err)
		}

		for _, obj := range page.Contents {
			objects = append(objects, Object{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
				ETag:         strings.Trim(aws.ToString(obj.ETag), `"`),
				StorageClass: string(obj.StorageClass),
			})
			if max > 0 && len(objects) >= max {
				r.log.Debug().Int("count", len(objects)).Str("bucket", bucket).Msg("listed objects")
				return objects, nil
			}
		}
	}

	r.log.Debug().Int("count", len(objects)).Str("bucket", bucket).Msg("listed objects")
	return objects, nil
}

// GetObjectMetadata returns the full descriptor of one object, including
// its custom metadata map.
func (r *Reader) GetObjectMetadata(ctx context.Context, bucket, key string) (*ObjectMetadata, error) {
	out, err := r.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, awserr.Classify(serviceName, "GetObjectMetadata", bucket+"/"+key, err)
	}

	return objectMetadataFromHead(key, out), nil
}

func (r *Reader) bucketRegion(ctx context.Context, bucket string) (string, error) {
	out, err := r.api.GetBucketLocation(ctx, &s3.GetBucketLocationInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		return "", err
	}
	// An empty LocationConstraint means us-east-1.
	if out.LocationConstraint == "" {
		return "us-east-1", nil
	}
	return string(out.LocationConstraint), nil
}

func objectMetadataFromHead(key string, out *s3.HeadObjectOutput) *ObjectMetadata {
	custom := make(map[string]string, len(out.Metadata))
	for k, v := range out.Metadata {
		custom[k] = v
	}

	return &ObjectMetadata{
		Key:             key,
		Size:            aws.ToInt64(out.ContentLength),
		LastModified:    aws.ToTime(out.LastModified),
		ETag:            strings.Trim(aws.ToString(out.ETag), `"`),
		ContentType:     aws.ToString(out.ContentType),
		ContentEncoding: aws.ToString(out.ContentEncoding),
		CacheControl:    aws.ToString(out.CacheControl),
		StorageClass:    string(out.StorageClass),
		Custom:          custom,
	}
}
