package lambda

import (
	"context"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arguslabs/argus/pkg/awserr"
)

// fakeBackend stores function configurations by name. Unimplemented
// API methods panic through the embedded nil interface.
type fakeBackend struct {
	API
	functions map[string]*types.FunctionConfiguration
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{functions: map[string]*types.FunctionConfiguration{}}
}

func functionNotFound(name string) error {
	return &smithy.GenericAPIError{
		Code:    "ResourceNotFoundException",
		Message: fmt.Sprintf("Function not found: %s", name),
	}
}

func (f *fakeBackend) ListFunctions(_ context.Context, params *lambda.ListFunctionsInput, _ ...func(*lambda.Options)) (*lambda.ListFunctionsOutput, error) {
	out := &lambda.ListFunctionsOutput{}
	for _, fc := range f.functions {
		out.Functions = append(out.Functions, *fc)
	}
	return out, nil
}

func (f *fakeBackend) GetFunction(_ context.Context, params *lambda.GetFunctionInput, _ ...func(*lambda.Options)) (*lambda.GetFunctionOutput, error) {
	name := aws.ToString(params.FunctionName)
	fc, ok := f.functions[name]
	if !ok {
		return nil, functionNotFound(name)
	}
	return &lambda.GetFunctionOutput{
		Configuration: fc,
		Code:          &types.FunctionCodeLocation{Location: aws.String("https://example.com/code.zip")},
		Tags:          map[string]string{"team": "platform"},
	}, nil
}

func (f *fakeBackend) CreateFunction(_ context.Context, params *lambda.CreateFunctionInput, _ ...func(*lambda.Options)) (*lambda.CreateFunctionOutput, error) {
	name := aws.ToString(params.FunctionName)
	fc := &types.FunctionConfiguration{
		FunctionName: params.FunctionName,
		FunctionArn:  aws.String("arn:aws:lambda:us-east-1:123456789012:function:" + name),
		Runtime:      params.Runtime,
		Handler:      params.Handler,
		Role:         params.Role,
		MemorySize:   params.MemorySize,
		Timeout:      params.Timeout,
		CodeSize:     int64(len(params.Code.ZipFile)),
		Version:      aws.String("$LATEST"),
		State:        types.StateActive,
	}
	f.functions[name] = fc
	return &lambda.CreateFunctionOutput{
		FunctionName: fc.FunctionName,
		FunctionArn:  fc.FunctionArn,
		Runtime:      fc.Runtime,
		Handler:      fc.Handler,
		Role:         fc.Role,
		CodeSize:     fc.CodeSize,
		Version:      fc.Version,
		State:        fc.State,
	}, nil
}

func (f *fakeBackend) DeleteFunction(_ context.Context, params *lambda.DeleteFunctionInput, _ ...func(*lambda.Options)) (*lambda.DeleteFunctionOutput, error) {
	name := aws.ToString(params.FunctionName)
	if _, ok := f.functions[name]; !ok {
		return nil, functionNotFound(name)
	}
	delete(f.functions, name)
	return &lambda.DeleteFunctionOutput{}, nil
}

func TestCreateGetDeleteFunction(t *testing.T) {
	backend := newFakeBackend()
	writer := NewWriter(backend)
	reader := NewReader(backend)
	ctx := context.Background()

	created, err := writer.CreateFunction(ctx, "resize-images", "python3.12",
		"arn:aws:iam::123456789012:role/lambda-exec", "handler.main",
		[]byte("zip-bytes"), CreateFunctionOptions{MemoryMB: 256})
	require.NoError(t, err)
	assert.Equal(t, "resize-images", created.Name)
	assert.Equal(t, "python3.12", created.Runtime)

	detail, err := reader.GetFunction(ctx, "resize-images")
	require.NoError(t, err)
	assert.Equal(t, "resize-images", detail.Name)
	assert.Equal(t, "https://example.com/code.zip", detail.CodeLocation)
	assert.Equal(t, "platform", detail.Tags["team"])

	require.NoError(t, writer.DeleteFunction(ctx, "resize-images", ""))

	_, err = reader.GetFunction(ctx, "resize-images")
	require.Error(t, err)
	assert.True(t, awserr.IsNotFound(err))
}

func TestGetFunctionMissing(t *testing.T) {
	backend := newFakeBackend()

	_, err := NewReader(backend).GetFunction(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, awserr.IsNotFound(err))
	assert.Contains(t, err.Error(), "ghost")
}

func TestDeleteFunctionMissing(t *testing.T) {
	backend := newFakeBackend()

	err := NewWriter(backend).DeleteFunction(context.Background(), "ghost", "")
	require.Error(t, err)
	assert.True(t, awserr.IsNotFound(err))
}
