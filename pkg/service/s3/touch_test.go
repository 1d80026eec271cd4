package s3

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arguslabs/argus/pkg/awserr"
)

// newTestWriter returns a Writer over the fake backend with a
// deterministic clock that advances one second per reading.
func newTestWriter(f *fakeBackend) *Writer {
	w := NewWriter(f)
	tick := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
	return w
}

func TestMergeMetadataPrecedence(t *testing.T) {
	existing := map[string]string{"a": "1", "shared": "old"}
	overrides := map[string]string{"b": "2", "shared": "new"}

	merged := mergeMetadata(existing, true, overrides, "2026-03-01T12:00:00Z")
	assert.Equal(t, "1", merged["a"])
	assert.Equal(t, "2", merged["b"])
	assert.Equal(t, "new", merged["shared"])
	assert.Equal(t, "2026-03-01T12:00:00Z", merged[touchMarkerKey])

	// Inputs are untouched.
	assert.Equal(t, "old", existing["shared"])
	assert.NotContains(t, existing, touchMarkerKey)
}

func TestMergeMetadataDropsExistingWhenNotPreserved(t *testing.T) {
	merged := mergeMetadata(map[string]string{"a": "1"}, false, map[string]string{"b": "2"}, "t")
	assert.Equal(t, map[string]string{"b": "2", touchMarkerKey: "t"}, merged)
}

func TestMergeMetadataMarkerAlwaysWins(t *testing.T) {
	for _, preserve := range []bool{true, false} {
		merged := mergeMetadata(
			map[string]string{touchMarkerKey: "stale"},
			preserve,
			map[string]string{touchMarkerKey: "sneaky"},
			"fresh",
		)
		assert.Equal(t, "fresh", merged[touchMarkerKey])
	}
}

func TestMergeMetadataNilInputs(t *testing.T) {
	merged := mergeMetadata(nil, true, nil, "t")
	assert.Equal(t, map[string]string{touchMarkerKey: "t"}, merged)
}

func TestTouchPreservesAndMergesMetadata(t *testing.T) {
	f := newFakeBackend()
	f.put("docs", "report.txt", "payload", map[string]string{"a": "1"}, "text/plain")
	w := newTestWriter(f)

	res, err := w.Touch(context.Background(), "docs", "report.txt", &TouchOptions{
		PreserveMetadata: true,
		CustomMetadata:   map[string]string{"b": "2"},
	})
	require.NoError(t, err)

	assert.Equal(t, "1", res.Metadata["a"])
	assert.Equal(t, "2", res.Metadata["b"])
	assert.NotEmpty(t, res.Metadata[touchMarkerKey])
	assert.Equal(t, "touched", res.Status)
	assert.Equal(t, res.TouchedAt, res.Metadata[touchMarkerKey])

	// The marker is a valid sortable UTC timestamp.
	_, err = time.Parse(time.RFC3339, res.TouchedAt)
	assert.NoError(t, err)
}

func TestTouchReplacesMetadataWhenNotPreserved(t *testing.T) {
	f := newFakeBackend()
	f.put("docs", "report.txt", "payload", map[string]string{"a": "1"}, "text/plain")
	w := newTestWriter(f)

	res, err := w.Touch(context.Background(), "docs", "report.txt", &TouchOptions{
		PreserveMetadata: false,
		CustomMetadata:   map[string]string{"b": "2"},
	})
	require.NoError(t, err)

	assert.NotContains(t, res.Metadata, "a")
	assert.Equal(t, "2", res.Metadata["b"])
	assert.Contains(t, res.Metadata, touchMarkerKey)
	assert.NotContains(t, f.get("docs", "report.txt").metadata, "a")
}

func TestTouchAdvancesTimestampWithoutChangingPayload(t *testing.T) {
	f := newFakeBackend()
	f.put("docs", "report.txt", "payload", nil, "")
	before := f.get("docs", "report.txt")
	beforeETag := before.etag()
	beforeModified := before.lastModified

	w := newTestWriter(f)
	res, err := w.Touch(context.Background(), "docs", "report.txt", nil)
	require.NoError(t, err)

	assert.Equal(t, beforeModified, res.PreviousLastModified)
	assert.True(t, res.NewLastModified.After(res.PreviousLastModified))
	// Payload bytes are untouched, so the payload-derived checksum is too.
	assert.Equal(t, beforeETag, res.ETag)
	assert.Equal(t, "payload", string(f.get("docs", "report.txt").body))
}

func TestTouchForwardsRepresentationHeaders(t *testing.T) {
	f := newFakeBackend()
	f.put("docs", "page.html", "<html/>", map[string]string{"a": "1"}, "text/html")
	obj := f.get("docs", "page.html")
	obj.contentEncoding = "gzip"
	obj.cacheControl = "max-age=300"

	w := newTestWriter(f)
	_, err := w.Touch(context.Background(), "docs", "page.html", nil)
	require.NoError(t, err)

	copyInput := f.lastCopyInput
	require.NotNil(t, copyInput)
	assert.Equal(t, "docs/page.html", aws.ToString(copyInput.CopySource))
	assert.Equal(t, "docs", aws.ToString(copyInput.Bucket))
	assert.Equal(t, "page.html", aws.ToString(copyInput.Key))
	assert.Equal(t, s3types.MetadataDirectiveReplace, copyInput.MetadataDirective)
	assert.Equal(t, "text/html", aws.ToString(copyInput.ContentType))
	assert.Equal(t, "gzip", aws.ToString(copyInput.ContentEncoding))
	assert.Equal(t, "max-age=300", aws.ToString(copyInput.CacheControl))

	after := f.get("docs", "page.html")
	assert.Equal(t, "text/html", after.contentType)
	assert.Equal(t, "gzip", after.contentEncoding)
	assert.Equal(t, "max-age=300", after.cacheControl)
}

func TestTouchRepeatedlyYieldsFreshMarkers(t *testing.T) {
	f := newFakeBackend()
	f.put("docs", "report.txt", "payload", nil, "")
	w := newTestWriter(f)

	first, err := w.Touch(context.Background(), "docs", "report.txt", nil)
	require.NoError(t, err)
	second, err := w.Touch(context.Background(), "docs", "report.txt", nil)
	require.NoError(t, err)

	assert.NotEqual(t, first.TouchedAt, second.TouchedAt)
	assert.True(t, second.NewLastModified.After(first.NewLastModified))
}

func TestTouchMissingObject(t *testing.T) {
	f := newFakeBackend()
	w := newTestWriter(f)

	_, err := w.Touch(context.Background(), "docs", "ghost.txt", nil)
	require.Error(t, err)
	assert.True(t, awserr.IsNotFound(err))
	assert.Contains(t, err.Error(), "docs/ghost.txt")
}

func TestTouchConfirmationFailureSurfaces(t *testing.T) {
	f := newFakeBackend()
	f.put("docs", "report.txt", "payload", nil, "")
	beforeModified := f.get("docs", "report.txt").lastModified

	w := newTestWriter(f)
	f.failHeadCall = 2 // first head succeeds, confirmation head fails

	_, err := w.Touch(context.Background(), "docs", "report.txt", nil)
	require.Error(t, err)
	assert.False(t, awserr.IsNotFound(err))
	assert.Contains(t, err.Error(), "injected head failure")

	// The copy already happened: touched, just unconfirmed.
	assert.True(t, f.get("docs", "report.txt").lastModified.After(beforeModified))
}

func TestBatchTouchAllSucceed(t *testing.T) {
	f := newFakeBackend()
	f.put("docs", "a.txt", "1", nil, "")
	f.put("docs", "b.txt", "2", nil, "")
	w := newTestWriter(f)

	res, err := w.BatchTouch(context.Background(), "docs", []string{"a.txt", "b.txt"}, &TouchOptions{
		PreserveMetadata: true,
		CustomMetadata:   map[string]string{"batch": "yes"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, res.TotalObjects)
	assert.Equal(t, 2, res.SuccessfulCount)
	assert.Equal(t, 0, res.FailedCount)
	require.Len(t, res.TouchedObjects, 2)
	assert.Equal(t, "a.txt", res.TouchedObjects[0].Key)
	assert.Equal(t, "b.txt", res.TouchedObjects[1].Key)
	assert.Equal(t, "yes", f.get("docs", "a.txt").metadata["batch"])
	assert.Equal(t, "yes", f.get("docs", "b.txt").metadata["batch"])
}

func TestBatchTouchIsolatesFailures(t *testing.T) {
	f := newFakeBackend()
	f.put("docs", "x", "1", nil, "")
	f.put("docs", "z", "3", nil, "")
	w := newTestWriter(f)

	res, err := w.BatchTouch(context.Background(), "docs", []string{"x", "y", "z"}, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, res.TotalObjects)
	assert.Equal(t, 2, res.SuccessfulCount)
	assert.Equal(t, 1, res.FailedCount)
	assert.Equal(t, res.TotalObjects, res.SuccessfulCount+res.FailedCount)
	require.Len(t, res.FailedObjects, 1)
	assert.Equal(t, "y", res.FailedObjects[0].Key)
	assert.Contains(t, res.FailedObjects[0].Error, "not found")
}

func TestBatchTouchEmptyList(t *testing.T) {
	w := newTestWriter(newFakeBackend())

	res, err := w.BatchTouch(context.Background(), "docs", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.TotalObjects)
	assert.Empty(t, res.TouchedObjects)
	assert.Empty(t, res.FailedObjects)
}

func TestBatchTouchDuplicateKeys(t *testing.T) {
	f := newFakeBackend()
	f.put("docs", "a.txt", "1", nil, "")
	w := newTestWriter(f)

	res, err := w.BatchTouch(context.Background(), "docs", []string{"a.txt", "a.txt"}, nil)
	require.NoError(t, err)

	// Each occurrence is processed independently and gets its own record.
	assert.Equal(t, 2, res.TotalObjects)
	assert.Equal(t, 2, res.SuccessfulCount)
	require.Len(t, res.TouchedObjects, 2)
	assert.NotEqual(t, res.TouchedObjects[0].TouchedAt, res.TouchedObjects[1].TouchedAt)
}

func TestBatchTouchRequiresBucket(t *testing.T) {
	w := newTestWriter(newFakeBackend())

	_, err := w.BatchTouch(context.Background(), "", []string{"a.txt"}, nil)
	require.Error(t, err)
	assert.False(t, awserr.IsNotFound(err))
}
