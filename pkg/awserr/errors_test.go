package awserr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyNotFoundCodes(t *testing.T) {
	cases := []string{
		"NoSuchKey",
		"NoSuchBucket",
		"ResourceNotFoundException",
		"ParameterNotFound",
		"AWS.SimpleQueueService.NonExistentQueue",
		"InvalidInstanceID.NotFound",
		"InvalidGroup.NotFound",
	}
	for _, code := range cases {
		t.Run(code, func(t *testing.T) {
			raw := &smithy.GenericAPIError{Code: code, Message: "gone"}
			err := Classify("s3", "HeadObject", "bucket/key", raw)
			assert.True(t, IsNotFound(err))
		})
	}
}

func TestClassifyFailure(t *testing.T) {
	raw := &smithy.GenericAPIError{Code: "AccessDenied", Message: "no permission"}
	err := Classify("s3", "CopyObject", "bucket/key", raw)
	require.Error(t, err)
	assert.False(t, IsNotFound(err))

	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, OperationFailure, e.Kind)
	// Original backend text must survive verbatim.
	assert.Contains(t, err.Error(), "no permission")
	assert.Contains(t, err.Error(), "s3.CopyObject")
}

func TestClassifyWrappedError(t *testing.T) {
	raw := &smithy.GenericAPIError{Code: "NoSuchKey", Message: "missing"}
	wrapped := fmt.Errorf("operation error S3: HeadObject, %w", raw)
	assert.True(t, IsNotFound(Classify("s3", "HeadObject", "b/k", wrapped)))
}

func TestClassifyNonAPIError(t *testing.T) {
	err := Classify("sqs", "SendMessage", "queue", errors.New("dial tcp: timeout"))
	assert.False(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "dial tcp: timeout")
}

func TestClassifyNil(t *testing.T) {
	assert.NoError(t, Classify("ec2", "DescribeInstances", "", nil))
}

func TestNotFoundMessageNamesResource(t *testing.T) {
	err := NewNotFound("s3", "Touch", "my-bucket/data.txt")
	assert.Contains(t, err.Error(), "my-bucket/data.txt")
	assert.Contains(t, err.Error(), "not found")
	assert.True(t, IsNotFound(err))
}

func TestUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := NewFailure("ecs", "RunTask", "task", inner)
	assert.ErrorIs(t, err, inner)
}
