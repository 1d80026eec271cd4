package s3

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arguslabs/argus/pkg/awserr"
)

func TestGetObjectMetadata(t *testing.T) {
	f := newFakeBackend()
	f.put("docs", "report.txt", "hello world", map[string]string{"owner": "ops"}, "text/plain")

	r := NewReader(f)
	meta, err := r.GetObjectMetadata(context.Background(), "docs", "report.txt")
	require.NoError(t, err)

	assert.Equal(t, "report.txt", meta.Key)
	assert.Equal(t, int64(11), meta.Size)
	assert.Equal(t, "text/plain", meta.ContentType)
	assert.Equal(t, "ops", meta.Custom["owner"])
	assert.NotEmpty(t, meta.ETag)
	assert.False(t, meta.LastModified.IsZero())
}

func TestGetObjectMetadataMissing(t *testing.T) {
	r := NewReader(newFakeBackend())

	_, err := r.GetObjectMetadata(context.Background(), "docs", "nope.txt")
	require.Error(t, err)
	assert.True(t, awserr.IsNotFound(err))
}

func TestListObjectsPrefixAndLimit(t *testing.T) {
	f := newFakeBackend()
	f.put("docs", "logs/a.log", "1", nil, "")
	f.put("docs", "logs/b.log", "2", nil, "")
	f.put("docs", "logs/c.log", "3", nil, "")
	f.put("docs", "readme.md", "4", nil, "")

	r := NewReader(f)

	all, err := r.ListObjects(context.Background(), "docs", "logs/", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for _, obj := range all {
		assert.True(t, strings.HasPrefix(obj.Key, "logs/"))
	}

	limited, err := r.ListObjects(context.Background(), "docs", "", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestUploadAndDeleteObject(t *testing.T) {
	f := newFakeBackend()
	w := newTestWriter(f)

	up, err := w.UploadObject(context.Background(), "docs", "new.txt", strings.NewReader("content"), &UploadOptions{
		ContentType: "text/plain",
		Metadata:    map[string]string{"origin": "test"},
	})
	require.NoError(t, err)
	assert.Equal(t, "new.txt", up.Key)
	assert.NotEmpty(t, up.ETag)
	assert.Equal(t, "test", f.get("docs", "new.txt").metadata["origin"])

	_, err = w.DeleteObject(context.Background(), "docs", "new.txt", "")
	require.NoError(t, err)
	assert.Nil(t, f.get("docs", "new.txt"))
}
