// Package paramstore wraps configuration storage across SSM Parameter
// Store and Secrets Manager behind one surface. Names beginning with a
// slash are parameters; everything else is a secret.
package paramstore

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	smtypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/rs/zerolog"

	"github.com/arguslabs/argus/internal/logging"
	"github.com/arguslabs/argus/pkg/awserr"
)

const serviceName = "paramstore"

// Parameter summarizes one stored parameter or secret without its
// value.
type Parameter struct {
	Name         string     `json:"name"`
	ARN          string     `json:"arn,omitempty"`
	Type         string     `json:"type,omitempty"`
	Source       string     `json:"source"` // "ssm" or "secretsmanager"
	LastModified *time.Time `json:"last_modified,omitempty"`
}

// Value is a parameter or secret with its decrypted value.
type Value struct {
	Parameter
	Value   string `json:"value"`
	Version string `json:"version,omitempty"`
}

// isParameterName reports whether name belongs to Parameter Store. The
// slash prefix convention routes between the two backends.
func isParameterName(name string) bool {
	return strings.HasPrefix(name, "/")
}

// Reader reads parameters and secrets.
type Reader struct {
	ssm     API
	secrets SecretsAPI
	log     zerolog.Logger
}

// NewReader returns a Reader over the given SSM and Secrets Manager
// APIs.
func NewReader(ssmAPI API, secretsAPI SecretsAPI) *Reader {
	return &Reader{ssm: ssmAPI, secrets: secretsAPI, log: logging.For(serviceName)}
}

// List returns parameters from both backends, optionally filtered by
// name prefix.
func (r *Reader) List(ctx context.Context, prefix string) ([]Parameter, error) {
	params, err := r.listParameters(ctx, prefix)
	if err != nil {
		return nil, err
	}

	secrets, err := r.listSecrets(ctx, prefix)
	if err != nil {
		return nil, err
	}

	all := append(params, secrets...)
	r.log.Debug().Int("count", len(all)).Msg("listed parameters and secrets")
	return all, nil
}

func (r *Reader) listParameters(ctx context.Context, prefix string) ([]Parameter, error) {
	input := &ssm.DescribeParametersInput{}
	if prefix != "" {
		input.ParameterFilters = []ssmtypes.ParameterStringFilter{
			{
				Key:    aws.String("Name"),
				Option: aws.String("BeginsWith"),
				Values: []string{prefix},
			},
		}
	}

	paginator := ssm.NewDescribeParametersPaginator(r.ssm, input)

	var params []Parameter
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, awserr.Classify(serviceName, "List", prefix, err)
		}
		for _, p := range page.Parameters {
			params = append(params, Parameter{
				Name:         aws.ToString(p.Name),
				Type:         string(p.Type),
				Source:       "ssm",
				LastModified: p.LastModifiedDate,
			})
		}
	}
	return params, nil
}

func (r *Reader) listSecrets(ctx context.Context, prefix string) ([]Parameter, error) {
	input := &secretsmanager.ListSecretsInput{}
	if prefix != "" {
		input.Filters = []smtypes.Filter{
			{
				Key:    smtypes.FilterNameStringTypeName,
				Values: []string{prefix},
			},
		}
	}

	paginator := secretsmanager.NewListSecretsPaginator(r.secrets, input)

	var params []Parameter
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, awserr.Classify(serviceName, "List", prefix, err)
		}
		for _, s := range page.SecretList {
			params = append(params, Parameter{
				Name:         aws.ToString(s.Name),
				ARN:          aws.ToString(s.ARN),
				Source:       "secretsmanager",
				LastModified: s.LastChangedDate,
			})
		}
	}
	return params, nil
}

// Get returns one parameter or secret with its decrypted value.
func (r *Reader) Get(ctx context.Context, name string) (*Value, error) {
	if isParameterName(name) {
		return r.getParameter(ctx, name)
	}
	return r.getSecret(ctx, name)
}

func (r *Reader) getParameter(ctx context.Context, name string) (*Value, error) {
	out, err := r.ssm.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return nil, awserr.Classify(serviceName, "Get", name, err)
	}

	p := out.Parameter
	return &Value{
		Parameter: Parameter{
			Name:         aws.ToString(p.Name),
			ARN:          aws.ToString(p.ARN),
			Type:         string(p.Type),
			Source:       "ssm",
			LastModified: p.LastModifiedDate,
		},
		Value:   aws.ToString(p.Value),
		Version: strconv.FormatInt(p.Version, 10),
	}, nil
}

func (r *Reader) getSecret(ctx context.Context, name string) (*Value, error) {
	out, err := r.secrets.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		return nil, awserr.Classify(serviceName, "Get", name, err)
	}

	return &Value{
		Parameter: Parameter{
			Name:   aws.ToString(out.Name),
			ARN:    aws.ToString(out.ARN),
			Source: "secretsmanager",
		},
		Value:   aws.ToString(out.SecretString),
		Version: aws.ToString(out.VersionId),
	}, nil
}

// GetByPath returns the decrypted parameters under a Parameter Store
// path. recursive descends into sub-paths.
func (r *Reader) GetByPath(ctx context.Context, path string, recursive bool) ([]Value, error) {
	paginator := ssm.NewGetParametersByPathPaginator(r.ssm, &ssm.GetParametersByPathInput{
		Path:           aws.String(path),
		Recursive:      aws.Bool(recursive),
		WithDecryption: aws.Bool(true),
	})

	var values []Value
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, awserr.Classify(serviceName, "GetByPath", path, err)
		}
		for _, p := range page.Parameters {
			values = append(values, Value{
				Parameter: Parameter{
					Name:         aws.ToString(p.Name),
					ARN:          aws.ToString(p.ARN),
					Type:         string(p.Type),
					Source:       "ssm",
					LastModified: p.LastModifiedDate,
				},
				Value:   aws.ToString(p.Value),
				Version: strconv.FormatInt(p.Version, 10),
			})
		}
	}
	return values, nil
}

// GetHistory returns the past versions of a Parameter Store parameter,
// oldest first.
func (r *Reader) GetHistory(ctx context.Context, name string) ([]Value, error) {
	paginator := ssm.NewGetParameterHistoryPaginator(r.ssm, &ssm.GetParameterHistoryInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})

	var history []Value
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, awserr.Classify(serviceName, "GetHistory", name, err)
		}
		for _, p := range page.Parameters {
			history = append(history, Value{
				Parameter: Parameter{
					Name:         aws.ToString(p.Name),
					Type:         string(p.Type),
					Source:       "ssm",
					LastModified: p.LastModifiedDate,
				},
				Value:   aws.ToString(p.Value),
				Version: strconv.FormatInt(p.Version, 10),
			})
		}
	}
	return history, nil
}
