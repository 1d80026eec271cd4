package awsclient

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithConfig(t *testing.T) {
	cfg := aws.Config{Region: "us-east-1"}

	c, err := New(context.Background(), WithConfig(cfg), WithProfile("dev"))
	require.NoError(t, err)

	assert.Equal(t, "dev", c.Profile())
	assert.Equal(t, "us-east-1", c.Region())
}

func TestWithRegionOverridesConfig(t *testing.T) {
	cfg := aws.Config{Region: "us-east-1"}

	c, err := New(context.Background(), WithConfig(cfg), WithRegion("eu-west-1"))
	require.NoError(t, err)

	assert.Equal(t, "eu-west-1", c.Region())
}

func TestServiceClientsAreCached(t *testing.T) {
	c, err := New(context.Background(), WithConfig(aws.Config{Region: "us-east-1"}))
	require.NoError(t, err)

	assert.Same(t, c.S3(), c.S3())
	assert.Same(t, c.SQS(), c.SQS())
	assert.Same(t, c.DynamoDB(), c.DynamoDB())
	assert.Same(t, c.Lambda(), c.Lambda())
}

func TestDistinctServicesGetDistinctClients(t *testing.T) {
	c, err := New(context.Background(), WithConfig(aws.Config{Region: "us-east-1"}))
	require.NoError(t, err)

	assert.NotNil(t, c.ECS())
	assert.NotNil(t, c.EKS())
	assert.NotNil(t, c.EventBridge())
	assert.NotNil(t, c.SSM())
	assert.NotNil(t, c.SecretsManager())
	assert.NotNil(t, c.Beanstalk())
	assert.NotNil(t, c.CloudWatch())
	assert.NotNil(t, c.CloudWatchLogs())
	assert.NotNil(t, c.SFN())
	assert.NotNil(t, c.EC2())
	assert.NotNil(t, c.AutoScaling())
	assert.NotNil(t, c.ELB())
	assert.NotNil(t, c.STS())
}
