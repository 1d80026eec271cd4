// Package awsclient manages the AWS session and hands out SDK service
// clients. A Client is constructed once per logical session and passed
// explicitly to every reader and writer; clients are created lazily and
// cached per service and region.
package awsclient

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/autoscaling"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	"github.com/aws/aws-sdk-go-v2/service/eks"
	"github.com/aws/aws-sdk-go-v2/service/elasticbeanstalk"
	"github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/rs/zerolog/log"

	"github.com/arguslabs/argus/pkg/awserr"
)

// Client wraps a loaded AWS config and caches one SDK client per service.
type Client struct {
	cfg     aws.Config
	profile string
	region  string

	mu      sync.Mutex
	clients map[string]any

	identity *Identity
}

// Identity is the caller identity of the session.
type Identity struct {
	Account string
	Arn     string
	UserID  string
}

// Option customizes client construction.
type Option func(*options)

type options struct {
	profile string
	region  string
	cfg     *aws.Config
}

// WithProfile sets the shared-config profile to use.
func WithProfile(profile string) Option {
	return func(o *options) {
		o.profile = profile
	}
}

// WithRegion sets the default region for all service clients.
func WithRegion(region string) Option {
	return func(o *options) {
		o.region = region
	}
}

// WithConfig injects a pre-built aws.Config, bypassing shared-config
// loading. Used by tests and callers that manage credentials themselves.
func WithConfig(cfg aws.Config) Option {
	return func(o *options) {
		o.cfg = &cfg
	}
}

// New creates a Client with the given options.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	c := &Client{
		profile: o.profile,
		region:  o.region,
		clients: make(map[string]any),
	}

	if o.cfg != nil {
		c.cfg = *o.cfg
		if c.region != "" {
			c.cfg.Region = c.region
		}
		return c, nil
	}

	var configOpts []func(*config.LoadOptions) error
	if o.profile != "" {
		configOpts = append(configOpts, config.WithSharedConfigProfile(o.profile))
	}
	if o.region != "" {
		configOpts = append(configOpts, config.WithRegion(o.region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config: %w", err)
	}
	c.cfg = cfg

	log.Debug().
		Str("profile", o.profile).
		Str("region", cfg.Region).
		Msg("AWS session initialized")

	return c, nil
}

// Profile returns the profile the session was built with.
func (c *Client) Profile() string {
	return c.profile
}

// Region returns the effective region of the session.
func (c *Client) Region() string {
	return c.cfg.Region
}

// Identity returns the caller identity, fetching it once via STS and
// caching the result for the lifetime of the session.
func (c *Client) Identity(ctx context.Context) (*Identity, error) {
	c.mu.Lock()
	cached := c.identity
	c.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	out, err := c.STS().GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, awserr.Classify("sts", "GetCallerIdentity", "", err)
	}

	id := &Identity{
		Account: aws.ToString(out.Account),
		Arn:     aws.ToString(out.Arn),
		UserID:  aws.ToString(out.UserId),
	}

	c.mu.Lock()
	c.identity = id
	c.mu.Unlock()

	log.Info().
		Str("account", id.Account).
		Str("arn", id.Arn).
		Msg("connected to AWS")

	return id, nil
}

// cached returns the client stored under key, constructing it with build
// on first use.
func cached[T any](c *Client, key string, build func(aws.Config) T) T {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.clients[key]; ok {
		return v.(T)
	}
	v := build(c.cfg)
	c.clients[key] = v
	return v
}

// S3 returns the S3 client for this session.
func (c *Client) S3() *s3.Client {
	return cached(c, "s3", func(cfg aws.Config) *s3.Client { return s3.NewFromConfig(cfg) })
}

// Lambda returns the Lambda client for this session.
func (c *Client) Lambda() *lambda.Client {
	return cached(c, "lambda", func(cfg aws.Config) *lambda.Client { return lambda.NewFromConfig(cfg) })
}

// ECS returns the ECS client for this session.
func (c *Client) ECS() *ecs.Client {
	return cached(c, "ecs", func(cfg aws.Config) *ecs.Client { return ecs.NewFromConfig(cfg) })
}

// ELB returns the Elastic Load Balancing v2 client for this session.
func (c *Client) ELB() *elasticloadbalancingv2.Client {
	return cached(c, "elbv2", func(cfg aws.Config) *elasticloadbalancingv2.Client {
		return elasticloadbalancingv2.NewFromConfig(cfg)
	})
}

// SQS returns the SQS client for this session.
func (c *Client) SQS() *sqs.Client {
	return cached(c, "sqs", func(cfg aws.Config) *sqs.Client { return sqs.NewFromConfig(cfg) })
}

// DynamoDB returns the DynamoDB client for this session.
func (c *Client) DynamoDB() *dynamodb.Client {
	return cached(c, "dynamodb", func(cfg aws.Config) *dynamodb.Client { return dynamodb.NewFromConfig(cfg) })
}

// SFN returns the Step Functions client for this session.
func (c *Client) SFN() *sfn.Client {
	return cached(c, "sfn", func(cfg aws.Config) *sfn.Client { return sfn.NewFromConfig(cfg) })
}

// EventBridge returns the EventBridge client for this session.
func (c *Client) EventBridge() *eventbridge.Client {
	return cached(c, "eventbridge", func(cfg aws.Config) *eventbridge.Client {
		return eventbridge.NewFromConfig(cfg)
	})
}

// SSM returns the Systems Manager client for this session.
func (c *Client) SSM() *ssm.Client {
	return cached(c, "ssm", func(cfg aws.Config) *ssm.Client { return ssm.NewFromConfig(cfg) })
}

// SecretsManager returns the Secrets Manager client for this session.
func (c *Client) SecretsManager() *secretsmanager.Client {
	return cached(c, "secretsmanager", func(cfg aws.Config) *secretsmanager.Client {
		return secretsmanager.NewFromConfig(cfg)
	})
}

// EC2 returns the EC2 client for this session.
func (c *Client) EC2() *ec2.Client {
	return cached(c, "ec2", func(cfg aws.Config) *ec2.Client { return ec2.NewFromConfig(cfg) })
}

// EKS returns the EKS client for this session.
func (c *Client) EKS() *eks.Client {
	return cached(c, "eks", func(cfg aws.Config) *eks.Client { return eks.NewFromConfig(cfg) })
}

// AutoScaling returns the Auto Scaling client for this session.
func (c *Client) AutoScaling() *autoscaling.Client {
	return cached(c, "autoscaling", func(cfg aws.Config) *autoscaling.Client {
		return autoscaling.NewFromConfig(cfg)
	})
}

// Beanstalk returns the Elastic Beanstalk client for this session.
func (c *Client) Beanstalk() *elasticbeanstalk.Client {
	return cached(c, "elasticbeanstalk", func(cfg aws.Config) *elasticbeanstalk.Client {
		return elasticbeanstalk.NewFromConfig(cfg)
	})
}

// CloudWatch returns the CloudWatch client for this session.
func (c *Client) CloudWatch() *cloudwatch.Client {
	return cached(c, "cloudwatch", func(cfg aws.Config) *cloudwatch.Client {
		return cloudwatch.NewFromConfig(cfg)
	})
}

// CloudWatchLogs returns the CloudWatch Logs client for this session.
func (c *Client) CloudWatchLogs() *cloudwatchlogs.Client {
	return cached(c, "cloudwatchlogs", func(cfg aws.Config) *cloudwatchlogs.Client {
		return cloudwatchlogs.NewFromConfig(cfg)
	})
}

// STS returns the STS client for this session.
func (c *Client) STS() *sts.Client {
	return cached(c, "sts", func(cfg aws.Config) *sts.Client { return sts.NewFromConfig(cfg) })
}
