package s3

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/arguslabs/argus/pkg/awserr"
)

// touchMarkerKey is the one custom-metadata key this package owns. It is
// overwritten on every touch; all other keys belong to the caller.
const touchMarkerKey = "touched-at"

var errInvalidBucket = errors.New("bucket name is required")

// TouchOptions carries the optional parameters of Touch and BatchTouch.
type TouchOptions struct {
	// PreserveMetadata keeps the object's existing custom metadata.
	// When false, only CustomMetadata and the touch marker survive.
	PreserveMetadata bool
	// CustomMetadata is applied on top of whatever is preserved.
	CustomMetadata map[string]string
}

// DefaultTouchOptions preserves existing metadata and adds nothing.
func DefaultTouchOptions() *TouchOptions {
	return &TouchOptions{PreserveMetadata: true}
}

// mergeMetadata builds the metadata map written by a touch: the existing
// entries when preserved, then the overrides, then the touch marker, which
// unconditionally wins.
func mergeMetadata(existing map[string]string, preserve bool, overrides map[string]string, touchedAt string) map[string]string {
	merged := make(map[string]string, len(existing)+len(overrides)+1)
	if preserve {
		for k, v := range existing {
			merged[k] = v
		}
	}
	for k, v := range overrides {
		merged[k] = v
	}
	merged[touchMarkerKey] = touchedAt
	return merged
}

// Touch refreshes an object's last-modified timestamp and metadata without
// altering its payload, by copying the object onto itself with a
// metadata-replacing directive. The object must exist. On versioned
// buckets this creates a new version.
func (w *Writer) Touch(ctx context.Context, bucket, key string, opts *TouchOptions) (*TouchResult, error) {
	if opts == nil {
		opts = DefaultTouchOptions()
	}
	resource := bucket + "/" + key

	head, err := w.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, awserr.Classify(serviceName, "Touch", resource, err)
	}

	touchedAt := w.now().UTC().Format(time.RFC3339)
	merged := mergeMetadata(head.Metadata, opts.PreserveMetadata, opts.CustomMetadata, touchedAt)

	copyInput := &s3.CopyObjectInput{
		Bucket:            aws.String(bucket),
		Key:               aws.String(key),
		CopySource:        aws.String(bucket + "/" + key),
		Metadata:          merged,
		MetadataDirective: types.MetadataDirectiveReplace,
	}
	// Forward the representation headers so the self-copy does not drop
	// them.
	if head.ContentType != nil {
		copyInput.ContentType = head.ContentType
	}
	if head.ContentEncoding != nil {
		copyInput.ContentEncoding = head.ContentEncoding
	}
	if head.CacheControl != nil {
		copyInput.CacheControl = head.CacheControl
	}

	copyOut, err := w.api.CopyObject(ctx, copyInput)
	if err != nil {
		return nil, awserr.Classify(serviceName, "Touch", resource, err)
	}

	etag := ""
	if copyOut.CopyObjectResult != nil {
		etag = strings.Trim(aws.ToString(copyOut.CopyObjectResult.ETag), `"`)
	}

	// The re-fetch is authoritative for the new timestamp. If it fails the
	// copy has still happened: the object is likely touched but
	// unconfirmed, and the error reports this step.
	confirm, err := w.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, awserr.Classify(serviceName, "Touch", resource, err)
	}
	if confirm.ETag != nil {
		etag = strings.Trim(aws.ToString(confirm.ETag), `"`)
	}

	w.log.Info().
		Str("bucket", bucket).
		Str("key", key).
		Str("touched_at", touchedAt).
		Msg("touched object")

	return &TouchResult{
		Bucket:               bucket,
		Key:                  key,
		PreviousLastModified: aws.ToTime(head.LastModified),
		NewLastModified:      aws.ToTime(confirm.LastModified),
		ETag:                 etag,
		Metadata:             merged,
		TouchedAt:            touchedAt,
		Status:               "touched",
	}, nil
}

// BatchTouch applies Touch to each key in order, isolating per-object
// failures: one failing object becomes a failure record and the batch
// moves on. The call itself only fails for a structurally invalid input.
func (w *Writer) BatchTouch(ctx context.Context, bucket string, keys []string, opts *TouchOptions) (*BatchTouchResult, error) {
	if bucket == "" {
		return nil, awserr.NewFailure(serviceName, "BatchTouch", "", errInvalidBucket)
	}

	result := &BatchTouchResult{
		Bucket:         bucket,
		TotalObjects:   len(keys),
		TouchedObjects: make([]TouchedObject, 0, len(keys)),
		FailedObjects:  make([]FailedObject, 0),
	}

	for _, key := range keys {
		touch, err := w.Touch(ctx, bucket, key, opts)
		if err != nil {
			result.FailedCount++
			result.FailedObjects = append(result.FailedObjects, FailedObject{
				Key:   key,
				Error: err.Error(),
			})
			w.log.Warn().Str("bucket", bucket).Str("key", key).Err(err).Msg("touch failed")
			continue
		}

		result.SuccessfulCount++
		result.TouchedObjects = append(result.TouchedObjects, TouchedObject{
			Key:             key,
			NewLastModified: touch.NewLastModified,
			TouchedAt:       touch.TouchedAt,
		})
	}

	w.log.Info().
		Str("bucket", bucket).
		Int("total", result.TotalObjects).
		Int("succeeded", result.SuccessfulCount).
		Int("failed", result.FailedCount).
		Msg("batch touch complete")

	return result, nil
}
