package paramstore

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arguslabs/argus/pkg/awserr"
)

type fakeSSM struct {
	API
	params map[string]string
}

func (f *fakeSSM) GetParameter(_ context.Context, params *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	name := aws.ToString(params.Name)
	value, ok := f.params[name]
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "ParameterNotFound", Message: "parameter not found"}
	}
	now := time.Now()
	return &ssm.GetParameterOutput{
		Parameter: &ssmtypes.Parameter{
			Name:             aws.String(name),
			Value:            aws.String(value),
			Type:             ssmtypes.ParameterTypeSecureString,
			Version:          1,
			LastModifiedDate: &now,
		},
	}, nil
}

func (f *fakeSSM) PutParameter(_ context.Context, params *ssm.PutParameterInput, _ ...func(*ssm.Options)) (*ssm.PutParameterOutput, error) {
	f.params[aws.ToString(params.Name)] = aws.ToString(params.Value)
	return &ssm.PutParameterOutput{Version: 1}, nil
}

func (f *fakeSSM) DeleteParameter(_ context.Context, params *ssm.DeleteParameterInput, _ ...func(*ssm.Options)) (*ssm.DeleteParameterOutput, error) {
	name := aws.ToString(params.Name)
	if _, ok := f.params[name]; !ok {
		return nil, &smithy.GenericAPIError{Code: "ParameterNotFound", Message: "parameter not found"}
	}
	delete(f.params, name)
	return &ssm.DeleteParameterOutput{}, nil
}

type fakeSecrets struct {
	SecretsAPI
	secrets map[string]string
	created []string
}

func (f *fakeSecrets) GetSecretValue(_ context.Context, params *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	name := aws.ToString(params.SecretId)
	value, ok := f.secrets[name]
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "ResourceNotFoundException", Message: "secret not found"}
	}
	return &secretsmanager.GetSecretValueOutput{
		Name:         aws.String(name),
		SecretString: aws.String(value),
		VersionId:    aws.String("v1"),
	}, nil
}

func (f *fakeSecrets) PutSecretValue(_ context.Context, params *secretsmanager.PutSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.PutSecretValueOutput, error) {
	name := aws.ToString(params.SecretId)
	if _, ok := f.secrets[name]; !ok {
		return nil, &smithy.GenericAPIError{Code: "ResourceNotFoundException", Message: "secret not found"}
	}
	f.secrets[name] = aws.ToString(params.SecretString)
	return &secretsmanager.PutSecretValueOutput{}, nil
}

func (f *fakeSecrets) CreateSecret(_ context.Context, params *secretsmanager.CreateSecretInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.CreateSecretOutput, error) {
	name := aws.ToString(params.Name)
	f.secrets[name] = aws.ToString(params.SecretString)
	f.created = append(f.created, name)
	return &secretsmanager.CreateSecretOutput{Name: params.Name}, nil
}

func (f *fakeSecrets) DeleteSecret(_ context.Context, params *secretsmanager.DeleteSecretInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.DeleteSecretOutput, error) {
	delete(f.secrets, aws.ToString(params.SecretId))
	return &secretsmanager.DeleteSecretOutput{}, nil
}

func newFakes() (*fakeSSM, *fakeSecrets) {
	return &fakeSSM{params: map[string]string{}}, &fakeSecrets{secrets: map[string]string{}}
}

func TestPutRoutesByNamePrefix(t *testing.T) {
	ssmFake, smFake := newFakes()
	writer := NewWriter(ssmFake, smFake)
	ctx := context.Background()

	require.NoError(t, writer.Put(ctx, "/app/db/password", "hunter2"))
	require.NoError(t, writer.Put(ctx, "api-token", "abc123"))

	assert.Equal(t, "hunter2", ssmFake.params["/app/db/password"])
	assert.Equal(t, "abc123", smFake.secrets["api-token"])
	assert.Empty(t, ssmFake.params["api-token"])
}

func TestGetRoutesByNamePrefix(t *testing.T) {
	ssmFake, smFake := newFakes()
	ssmFake.params["/app/region"] = "eu-west-1"
	smFake.secrets["oauth-secret"] = "s3cret"
	reader := NewReader(ssmFake, smFake)
	ctx := context.Background()

	v, err := reader.Get(ctx, "/app/region")
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", v.Value)
	assert.Equal(t, "ssm", v.Source)
	assert.Equal(t, "1", v.Version)

	v, err = reader.Get(ctx, "oauth-secret")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", v.Value)
	assert.Equal(t, "secretsmanager", v.Source)
}

func TestGetMissingParameterIsNotFound(t *testing.T) {
	ssmFake, smFake := newFakes()

	_, err := NewReader(ssmFake, smFake).Get(context.Background(), "/app/ghost")
	require.Error(t, err)
	assert.True(t, awserr.IsNotFound(err))
	assert.Contains(t, err.Error(), "/app/ghost")
}

func TestPutSecretFallsBackToCreate(t *testing.T) {
	ssmFake, smFake := newFakes()
	writer := NewWriter(ssmFake, smFake)
	ctx := context.Background()

	// First put creates, second updates in place.
	require.NoError(t, writer.Put(ctx, "new-secret", "v1"))
	require.NoError(t, writer.Put(ctx, "new-secret", "v2"))

	assert.Equal(t, "v2", smFake.secrets["new-secret"])
	assert.Equal(t, []string{"new-secret"}, smFake.created)
}

func TestDeleteRoutesByNamePrefix(t *testing.T) {
	ssmFake, smFake := newFakes()
	ssmFake.params["/app/key"] = "v"
	smFake.secrets["token"] = "v"
	writer := NewWriter(ssmFake, smFake)
	ctx := context.Background()

	require.NoError(t, writer.Delete(ctx, "/app/key"))
	require.NoError(t, writer.Delete(ctx, "token"))

	assert.Empty(t, ssmFake.params)
	assert.Empty(t, smFake.secrets)
}

func TestDeleteMissingParameterIsNotFound(t *testing.T) {
	ssmFake, smFake := newFakes()

	err := NewWriter(ssmFake, smFake).Delete(context.Background(), "/app/ghost")
	require.Error(t, err)
	assert.True(t, awserr.IsNotFound(err))
}
