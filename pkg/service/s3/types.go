package s3

import "time"

// Bucket is a single entry from a bucket listing.
type Bucket struct {
	Name      string    `json:"name"`
	Region    string    `json:"region"`
	CreatedAt time.Time `json:"created_at"`
}

// BucketInfo is the detailed description of one bucket.
type BucketInfo struct {
	Name              string `json:"name"`
	Region            string `json:"region"`
	VersioningStatus  string `json:"versioning_status"`
	EncryptionEnabled bool   `json:"encryption_enabled"`
	SSEAlgorithm      string `json:"sse_algorithm,omitempty"`
	KMSKeyID          string `json:"kms_key_id,omitempty"`
}

// Object is a single entry from an object listing.
type Object struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
	ETag         string    `json:"etag"`
	StorageClass string    `json:"storage_class"`
}

// ObjectMetadata describes a stored object apart from its payload.
type ObjectMetadata struct {
	Key             string            `json:"key"`
	Size            int64             `json:"size"`
	LastModified    time.Time         `json:"last_modified"`
	ETag            string            `json:"etag"`
	ContentType     string            `json:"content_type,omitempty"`
	ContentEncoding string            `json:"content_encoding,omitempty"`
	CacheControl    string            `json:"cache_control,omitempty"`
	StorageClass    string            `json:"storage_class,omitempty"`
	Custom          map[string]string `json:"metadata"`
}

// UploadResult reports a completed object upload.
type UploadResult struct {
	Bucket    string `json:"bucket"`
	Key       string `json:"key"`
	ETag      string `json:"etag"`
	VersionID string `json:"version_id,omitempty"`
}

// DeleteResult reports a completed object deletion.
type DeleteResult struct {
	Bucket       string `json:"bucket"`
	Key          string `json:"key"`
	VersionID    string `json:"version_id,omitempty"`
	DeleteMarker bool   `json:"delete_marker"`
}

// TouchResult is the outcome of touching one object. Immutable once
// returned.
type TouchResult struct {
	Bucket               string            `json:"bucket"`
	Key                  string            `json:"key"`
	PreviousLastModified time.Time         `json:"previous_last_modified"`
	NewLastModified      time.Time         `json:"new_last_modified"`
	ETag                 string            `json:"etag"`
	Metadata             map[string]string `json:"metadata"`
	TouchedAt            string            `json:"touched_at"`
	Status               string            `json:"status"`
}

// TouchedObject is one per-object success record in a batch touch.
type TouchedObject struct {
	Key             string    `json:"object_key"`
	NewLastModified time.Time `json:"new_last_modified"`
	TouchedAt       string    `json:"touched_at"`
}

// FailedObject is one per-object failure record in a batch touch.
type FailedObject struct {
	Key   string `json:"object_key"`
	Error string `json:"error"`
}

// BatchTouchResult is the outcome of touching a list of objects. The two
// record lists preserve input order, and every requested key occurrence
// lands in exactly one of them.
type BatchTouchResult struct {
	Bucket          string          `json:"bucket"`
	TotalObjects    int             `json:"total_objects"`
	SuccessfulCount int             `json:"successful_touches"`
	FailedCount     int             `json:"failed_touches"`
	TouchedObjects  []TouchedObject `json:"touched_objects"`
	FailedObjects   []FailedObject  `json:"failed_objects"`
}
