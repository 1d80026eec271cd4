package paramstore

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/rs/zerolog"

	"github.com/arguslabs/argus/internal/logging"
	"github.com/arguslabs/argus/pkg/awserr"
)

// Writer creates, updates, and deletes parameters and secrets.
type Writer struct {
	ssm     API
	secrets SecretsAPI
	log     zerolog.Logger
}

// NewWriter returns a Writer over the given SSM and Secrets Manager
// APIs.
func NewWriter(ssmAPI API, secretsAPI SecretsAPI) *Writer {
	return &Writer{ssm: ssmAPI, secrets: secretsAPI, log: logging.For(serviceName)}
}

// Put creates or overwrites a parameter or secret. Slash-prefixed
// names go to Parameter Store as SecureString; the rest go to Secrets
// Manager.
func (w *Writer) Put(ctx context.Context, name, value string) error {
	if isParameterName(name) {
		return w.putParameter(ctx, name, value, string(ssmtypes.ParameterTypeSecureString))
	}
	return w.putSecret(ctx, name, value)
}

// PutParameter stores a Parameter Store parameter with an explicit
// type (String, StringList, or SecureString).
func (w *Writer) PutParameter(ctx context.Context, name, value, paramType string) error {
	return w.putParameter(ctx, name, value, paramType)
}

func (w *Writer) putParameter(ctx context.Context, name, value, paramType string) error {
	if _, err := w.ssm.PutParameter(ctx, &ssm.PutParameterInput{
		Name:      aws.String(name),
		Value:     aws.String(value),
		Type:      ssmtypes.ParameterType(paramType),
		Overwrite: aws.Bool(true),
	}); err != nil {
		return awserr.Classify(serviceName, "PutParameter", name, err)
	}

	w.log.Info().Str("name", name).Msg("put parameter")
	return nil
}

func (w *Writer) putSecret(ctx context.Context, name, value string) error {
	// Update the existing secret; fall back to creating it.
	_, err := w.secrets.PutSecretValue(ctx, &secretsmanager.PutSecretValueInput{
		SecretId:     aws.String(name),
		SecretString: aws.String(value),
	})
	if err != nil {
		if _, err = w.secrets.CreateSecret(ctx, &secretsmanager.CreateSecretInput{
			Name:         aws.String(name),
			SecretString: aws.String(value),
		}); err != nil {
			return awserr.Classify(serviceName, "PutSecret", name, err)
		}
	}

	w.log.Info().Str("name", name).Msg("put secret")
	return nil
}

// Delete removes one parameter or secret. Secrets are deleted without
// a recovery window.
func (w *Writer) Delete(ctx context.Context, name string) error {
	if isParameterName(name) {
		if _, err := w.ssm.DeleteParameter(ctx, &ssm.DeleteParameterInput{
			Name: aws.String(name),
		}); err != nil {
			return awserr.Classify(serviceName, "Delete", name, err)
		}
	} else {
		if _, err := w.secrets.DeleteSecret(ctx, &secretsmanager.DeleteSecretInput{
			SecretId:                   aws.String(name),
			ForceDeleteWithoutRecovery: aws.Bool(true),
		}); err != nil {
			return awserr.Classify(serviceName, "Delete", name, err)
		}
	}

	w.log.Info().Str("name", name).Msg("deleted")
	return nil
}

// DeleteParameters removes up to ten Parameter Store parameters in one
// call and returns the names that could not be deleted.
func (w *Writer) DeleteParameters(ctx context.Context, names []string) ([]string, error) {
	out, err := w.ssm.DeleteParameters(ctx, &ssm.DeleteParametersInput{
		Names: names,
	})
	if err != nil {
		return nil, awserr.Classify(serviceName, "DeleteParameters", "", err)
	}

	w.log.Info().
		Int("deleted", len(out.DeletedParameters)).
		Int("invalid", len(out.InvalidParameters)).
		Msg("deleted parameters")
	return out.InvalidParameters, nil
}

// LabelVersion attaches labels to one version of a Parameter Store
// parameter and returns the labels the backend rejected.
func (w *Writer) LabelVersion(ctx context.Context, name string, version int64, labels []string) ([]string, error) {
	out, err := w.ssm.LabelParameterVersion(ctx, &ssm.LabelParameterVersionInput{
		Name:             aws.String(name),
		ParameterVersion: aws.Int64(version),
		Labels:           labels,
	})
	if err != nil {
		return nil, awserr.Classify(serviceName, "LabelVersion", name, err)
	}
	return out.InvalidLabels, nil
}
