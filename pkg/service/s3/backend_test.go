package s3

import (
	"bytes"
	"context"
	"crypto/md5"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// fakeObject is one stored object in the fake backend. Its ETag is derived
// from the payload alone, so metadata-only operations never change it.
type fakeObject struct {
	body            []byte
	metadata        map[string]string
	contentType     string
	contentEncoding string
	cacheControl    string
	lastModified    time.Time
}

func (o *fakeObject) etag() string {
	return fmt.Sprintf("%x", md5.Sum(o.body))
}

// fakeBackend is a stateful in-memory stand-in for the storage service.
// Self-copies replace metadata and advance the clock but never change
// payload bytes. Operations the tests do not reach panic through the
// embedded nil API.
type fakeBackend struct {
	API

	mu      sync.Mutex
	objects map[string]*fakeObject
	clock   time.Time

	lastCopyInput *s3.CopyObjectInput
	headCalls     int
	failHeadCall  int // 1-indexed call number to fail with access denied, 0 disables
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		objects: make(map[string]*fakeObject),
		clock:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func cloneMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (f *fakeBackend) put(bucket, key, body string, metadata map[string]string, contentType string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clock = f.clock.Add(time.Second)
	f.objects[bucket+"/"+key] = &fakeObject{
		body:         []byte(body),
		metadata:     cloneMap(metadata),
		contentType:  contentType,
		lastModified: f.clock,
	}
}

func (f *fakeBackend) get(bucket, key string) *fakeObject {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.objects[bucket+"/"+key]
}

func (f *fakeBackend) HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.headCalls++
	if f.failHeadCall > 0 && f.headCalls == f.failHeadCall {
		return nil, &smithy.GenericAPIError{Code: "AccessDenied", Message: "injected head failure"}
	}

	obj, ok := f.objects[aws.ToString(params.Bucket)+"/"+aws.ToString(params.Key)]
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "NotFound", Message: "Not Found"}
	}

	out := &s3.HeadObjectOutput{
		ContentLength: aws.Int64(int64(len(obj.body))),
		ETag:          aws.String(`"` + obj.etag() + `"`),
		LastModified:  aws.Time(obj.lastModified),
		Metadata:      cloneMap(obj.metadata),
	}
	if obj.contentType != "" {
		out.ContentType = aws.String(obj.contentType)
	}
	if obj.contentEncoding != "" {
		out.ContentEncoding = aws.String(obj.contentEncoding)
	}
	if obj.cacheControl != "" {
		out.CacheControl = aws.String(obj.cacheControl)
	}
	return out, nil
}

func (f *fakeBackend) CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lastCopyInput = params

	src, ok := f.objects[aws.ToString(params.CopySource)]
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "NoSuchKey", Message: "the specified key does not exist"}
	}

	f.clock = f.clock.Add(time.Second)
	dst := &fakeObject{
		body:         append([]byte(nil), src.body...),
		metadata:     cloneMap(params.Metadata),
		lastModified: f.clock,
	}
	if params.ContentType != nil {
		dst.contentType = aws.ToString(params.ContentType)
	}
	if params.ContentEncoding != nil {
		dst.contentEncoding = aws.ToString(params.ContentEncoding)
	}
	if params.CacheControl != nil {
		dst.cacheControl = aws.ToString(params.CacheControl)
	}
	f.objects[aws.ToString(params.Bucket)+"/"+aws.ToString(params.Key)] = dst

	return &s3.CopyObjectOutput{
		CopyObjectResult: &s3types.CopyObjectResult{
			ETag:         aws.String(`"` + dst.etag() + `"`),
			LastModified: aws.Time(dst.lastModified),
		},
	}, nil
}

func (f *fakeBackend) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	var buf bytes.Buffer
	if params.Body != nil {
		if _, err := buf.ReadFrom(params.Body); err != nil {
			return nil, err
		}
	}
	f.put(aws.ToString(params.Bucket), aws.ToString(params.Key), buf.String(), params.Metadata, aws.ToString(params.ContentType))
	obj := f.get(aws.ToString(params.Bucket), aws.ToString(params.Key))
	return &s3.PutObjectOutput{ETag: aws.String(`"` + obj.etag() + `"`)}, nil
}

func (f *fakeBackend) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(params.Bucket)+"/"+aws.ToString(params.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeBackend) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bucket := aws.ToString(params.Bucket) + "/"
	prefix := aws.ToString(params.Prefix)

	var keys []string
	for id := range f.objects {
		if strings.HasPrefix(id, bucket) && strings.HasPrefix(strings.TrimPrefix(id, bucket), prefix) {
			keys = append(keys, strings.TrimPrefix(id, bucket))
		}
	}
	sort.Strings(keys)

	out := &s3.ListObjectsV2Output{}
	for _, key := range keys {
		obj := f.objects[bucket+key]
		out.Contents = append(out.Contents, s3types.Object{
			Key:          aws.String(key),
			Size:         aws.Int64(int64(len(obj.body))),
			ETag:         aws.String(`"` + obj.etag() + `"`),
			LastModified: aws.Time(obj.lastModified),
		})
	}
	return out, nil
}
