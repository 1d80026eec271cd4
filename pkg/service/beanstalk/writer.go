package beanstalk

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/elasticbeanstalk"
	"github.com/aws/aws-sdk-go-v2/service/elasticbeanstalk/types"
	"github.com/rs/zerolog"

	"github.com/arguslabs/argus/internal/logging"
	"github.com/arguslabs/argus/pkg/awserr"
)

// SourceBundle points at an application bundle in object storage.
type SourceBundle struct {
	Bucket string
	Key    string
}

// EnvironmentSpec declares a new environment.
type EnvironmentSpec struct {
	Name          string
	VersionLabel  string
	SolutionStack string
	CNAMEPrefix   string
	Settings      map[string]string // "namespace/option" -> value
}

// Writer creates and mutates applications and environments.
type Writer struct {
	api API
	log zerolog.Logger
}

// NewWriter returns a Writer over the given Elastic Beanstalk API.
func NewWriter(api API) *Writer {
	return &Writer{api: api, log: logging.For(serviceName)}
}

// CreateApplication creates an application.
func (w *Writer) CreateApplication(ctx context.Context, name, description string) (*Application, error) {
	input := &elasticbeanstalk.CreateApplicationInput{
		ApplicationName: aws.String(name),
	}
	if description != "" {
		input.Description = aws.String(description)
	}

	out, err := w.api.CreateApplication(ctx, input)
	if err != nil {
		return nil, awserr.Classify(serviceName, "CreateApplication", name, err)
	}

	w.log.Info().Str("application", name).Msg("created application")
	return &Application{
		Name:        aws.ToString(out.Application.ApplicationName),
		ARN:         aws.ToString(out.Application.ApplicationArn),
		Description: aws.ToString(out.Application.Description),
		CreatedAt:   out.Application.DateCreated,
	}, nil
}

// DeleteApplication removes an application. force terminates its
// running environments first.
func (w *Writer) DeleteApplication(ctx context.Context, name string, force bool) error {
	if _, err := w.api.DeleteApplication(ctx, &elasticbeanstalk.DeleteApplicationInput{
		ApplicationName:     aws.String(name),
		TerminateEnvByForce: aws.Bool(force),
	}); err != nil {
		return awserr.Classify(serviceName, "DeleteApplication", name, err)
	}

	w.log.Info().Str("application", name).Msg("deleted application")
	return nil
}

// CreateApplicationVersion registers a source bundle as a deployable
// version.
func (w *Writer) CreateApplicationVersion(ctx context.Context, applicationName, versionLabel, description string, bundle SourceBundle) error {
	input := &elasticbeanstalk.CreateApplicationVersionInput{
		ApplicationName: aws.String(applicationName),
		VersionLabel:    aws.String(versionLabel),
		SourceBundle: &types.S3Location{
			S3Bucket: aws.String(bundle.Bucket),
			S3Key:    aws.String(bundle.Key),
		},
	}
	if description != "" {
		input.Description = aws.String(description)
	}

	if _, err := w.api.CreateApplicationVersion(ctx, input); err != nil {
		return awserr.Classify(serviceName, "CreateApplicationVersion", applicationName, err)
	}

	w.log.Info().
		Str("application", applicationName).
		Str("version", versionLabel).
		Msg("created application version")
	return nil
}

// CreateEnvironment launches an environment running one version of an
// application.
func (w *Writer) CreateEnvironment(ctx context.Context, applicationName string, spec EnvironmentSpec) (*Environment, error) {
	input := &elasticbeanstalk.CreateEnvironmentInput{
		ApplicationName: aws.String(applicationName),
		EnvironmentName: aws.String(spec.Name),
	}
	if spec.VersionLabel != "" {
		input.VersionLabel = aws.String(spec.VersionLabel)
	}
	if spec.SolutionStack != "" {
		input.SolutionStackName = aws.String(spec.SolutionStack)
	}
	if spec.CNAMEPrefix != "" {
		input.CNAMEPrefix = aws.String(spec.CNAMEPrefix)
	}
	for key, value := range spec.Settings {
		namespace, option := splitSetting(key)
		input.OptionSettings = append(input.OptionSettings, types.ConfigurationOptionSetting{
			Namespace:  aws.String(namespace),
			OptionName: aws.String(option),
			Value:      aws.String(value),
		})
	}

	out, err := w.api.CreateEnvironment(ctx, input)
	if err != nil {
		return nil, awserr.Classify(serviceName, "CreateEnvironment", spec.Name, err)
	}

	w.log.Info().Str("application", applicationName).Str("environment", spec.Name).Msg("created environment")
	return &Environment{
		Name:            aws.ToString(out.EnvironmentName),
		ID:              aws.ToString(out.EnvironmentId),
		ApplicationName: aws.ToString(out.ApplicationName),
		Status:          string(out.Status),
		Health:          string(out.Health),
		CNAME:           aws.ToString(out.CNAME),
		VersionLabel:    aws.ToString(out.VersionLabel),
		SolutionStack:   aws.ToString(out.SolutionStackName),
	}, nil
}

// UpdateEnvironment deploys a version to an environment.
func (w *Writer) UpdateEnvironment(ctx context.Context, environmentName, versionLabel string) error {
	if _, err := w.api.UpdateEnvironment(ctx, &elasticbeanstalk.UpdateEnvironmentInput{
		EnvironmentName: aws.String(environmentName),
		VersionLabel:    aws.String(versionLabel),
	}); err != nil {
		return awserr.Classify(serviceName, "UpdateEnvironment", environmentName, err)
	}

	w.log.Info().
		Str("environment", environmentName).
		Str("version", versionLabel).
		Msg("updated environment")
	return nil
}

// TerminateEnvironment shuts down an environment and its resources.
func (w *Writer) TerminateEnvironment(ctx context.Context, environmentName string) error {
	if _, err := w.api.TerminateEnvironment(ctx, &elasticbeanstalk.TerminateEnvironmentInput{
		EnvironmentName: aws.String(environmentName),
	}); err != nil {
		return awserr.Classify(serviceName, "TerminateEnvironment", environmentName, err)
	}

	w.log.Info().Str("environment", environmentName).Msg("terminated environment")
	return nil
}

// SwapEnvironmentCNAMEs swaps the CNAMEs of two environments, the
// blue/green cutover.
func (w *Writer) SwapEnvironmentCNAMEs(ctx context.Context, sourceEnv, destEnv string) error {
	if _, err := w.api.SwapEnvironmentCNAMEs(ctx, &elasticbeanstalk.SwapEnvironmentCNAMEsInput{
		SourceEnvironmentName:      aws.String(sourceEnv),
		DestinationEnvironmentName: aws.String(destEnv),
	}); err != nil {
		return awserr.Classify(serviceName, "SwapEnvironmentCNAMEs", sourceEnv, err)
	}

	w.log.Info().Str("source", sourceEnv).Str("destination", destEnv).Msg("swapped environment CNAMEs")
	return nil
}

// RestartAppServer restarts the application servers of an environment.
func (w *Writer) RestartAppServer(ctx context.Context, environmentName string) error {
	if _, err := w.api.RestartAppServer(ctx, &elasticbeanstalk.RestartAppServerInput{
		EnvironmentName: aws.String(environmentName),
	}); err != nil {
		return awserr.Classify(serviceName, "RestartAppServer", environmentName, err)
	}

	w.log.Info().Str("environment", environmentName).Msg("restarted app server")
	return nil
}

// splitSetting splits "namespace/option" at the last slash so
// namespaces like "aws:autoscaling:launchconfiguration" pass through.
func splitSetting(key string) (namespace, option string) {
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == '/' {
			return key[:i], key[i+1:]
		}
	}
	return key, ""
}
