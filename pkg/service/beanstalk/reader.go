// Package beanstalk wraps the application hosting service: application
// and environment discovery, environment health, and deployment
// lifecycle operations.
package beanstalk

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/elasticbeanstalk"
	"github.com/aws/aws-sdk-go-v2/service/elasticbeanstalk/types"
	"github.com/rs/zerolog"

	"github.com/arguslabs/argus/internal/logging"
	"github.com/arguslabs/argus/pkg/awserr"
)

const serviceName = "beanstalk"

// Application summarizes one application.
type Application struct {
	Name        string     `json:"application_name"`
	ARN         string     `json:"application_arn,omitempty"`
	Description string     `json:"description,omitempty"`
	Versions    []string   `json:"versions,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

// Environment summarizes one environment of an application.
type Environment struct {
	Name            string     `json:"environment_name"`
	ID              string     `json:"environment_id"`
	ApplicationName string     `json:"application_name"`
	Status          string     `json:"status"`
	Health          string     `json:"health"`
	CNAME           string     `json:"cname,omitempty"`
	EndpointURL     string     `json:"endpoint_url,omitempty"`
	VersionLabel    string     `json:"version_label,omitempty"`
	SolutionStack   string     `json:"solution_stack,omitempty"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
}

// EnvironmentHealth is the enhanced health report of an environment.
type EnvironmentHealth struct {
	EnvironmentName string   `json:"environment_name"`
	HealthStatus    string   `json:"health_status"`
	Color           string   `json:"color"`
	Causes          []string `json:"causes,omitempty"`
}

// ApplicationVersion is one deployable version of an application.
type ApplicationVersion struct {
	ApplicationName string     `json:"application_name"`
	VersionLabel    string     `json:"version_label"`
	Status          string     `json:"status"`
	Description     string     `json:"description,omitempty"`
	CreatedAt       *time.Time `json:"created_at,omitempty"`
}

// Reader reads applications, environments, and versions.
type Reader struct {
	api API
	log zerolog.Logger
}

// NewReader returns a Reader over the given Elastic Beanstalk API.
func NewReader(api API) *Reader {
	return &Reader{api: api, log: logging.For(serviceName)}
}

// ListApplications returns every application in the region.
func (r *Reader) ListApplications(ctx context.Context) ([]Application, error) {
	out, err := r.api.DescribeApplications(ctx, &elasticbeanstalk.DescribeApplicationsInput{})
	if err != nil {
		return nil, awserr.Classify(serviceName, "ListApplications", "", err)
	}

	apps := make([]Application, 0, len(out.Applications))
	for _, a := range out.Applications {
		apps = append(apps, Application{
			Name:        aws.ToString(a.ApplicationName),
			ARN:         aws.ToString(a.ApplicationArn),
			Description: aws.ToString(a.Description),
			Versions:    a.Versions,
			CreatedAt:   a.DateCreated,
		})
	}

	r.log.Debug().Int("count", len(apps)).Msg("listed applications")
	return apps, nil
}

// ListEnvironments returns the environments of an application, or all
// environments when applicationName is empty.
func (r *Reader) ListEnvironments(ctx context.Context, applicationName string) ([]Environment, error) {
	input := &elasticbeanstalk.DescribeEnvironmentsInput{}
	if applicationName != "" {
		input.ApplicationName = aws.String(applicationName)
	}

	out, err := r.api.DescribeEnvironments(ctx, input)
	if err != nil {
		return nil, awserr.Classify(serviceName, "ListEnvironments", applicationName, err)
	}

	envs := make([]Environment, 0, len(out.Environments))
	for _, e := range out.Environments {
		envs = append(envs, environmentFromSDK(e))
	}
	return envs, nil
}

// GetEnvironment returns one environment by name.
func (r *Reader) GetEnvironment(ctx context.Context, environmentName string) (*Environment, error) {
	out, err := r.api.DescribeEnvironments(ctx, &elasticbeanstalk.DescribeEnvironmentsInput{
		EnvironmentNames: []string{environmentName},
	})
	if err != nil {
		return nil, awserr.Classify(serviceName, "GetEnvironment", environmentName, err)
	}
	if len(out.Environments) == 0 {
		return nil, awserr.NewNotFound(serviceName, "GetEnvironment", environmentName)
	}

	env := environmentFromSDK(out.Environments[0])
	return &env, nil
}

// GetEnvironmentHealth returns the enhanced health report of an
// environment.
func (r *Reader) GetEnvironmentHealth(ctx context.Context, environmentName string) (*EnvironmentHealth, error) {
	out, err := r.api.DescribeEnvironmentHealth(ctx, &elasticbeanstalk.DescribeEnvironmentHealthInput{
		EnvironmentName: aws.String(environmentName),
		AttributeNames:  []types.EnvironmentHealthAttribute{types.EnvironmentHealthAttributeAll},
	})
	if err != nil {
		return nil, awserr.Classify(serviceName, "GetEnvironmentHealth", environmentName, err)
	}

	return &EnvironmentHealth{
		EnvironmentName: aws.ToString(out.EnvironmentName),
		HealthStatus:    aws.ToString(out.HealthStatus),
		Color:           aws.ToString(out.Color),
		Causes:          out.Causes,
	}, nil
}

// ListApplicationVersions returns the versions of an application,
// newest first.
func (r *Reader) ListApplicationVersions(ctx context.Context, applicationName string) ([]ApplicationVersion, error) {
	input := &elasticbeanstalk.DescribeApplicationVersionsInput{}
	if applicationName != "" {
		input.ApplicationName = aws.String(applicationName)
	}

	out, err := r.api.DescribeApplicationVersions(ctx, input)
	if err != nil {
		return nil, awserr.Classify(serviceName, "ListApplicationVersions", applicationName, err)
	}

	versions := make([]ApplicationVersion, 0, len(out.ApplicationVersions))
	for _, v := range out.ApplicationVersions {
		versions = append(versions, ApplicationVersion{
			ApplicationName: aws.ToString(v.ApplicationName),
			VersionLabel:    aws.ToString(v.VersionLabel),
			Status:          string(v.Status),
			Description:     aws.ToString(v.Description),
			CreatedAt:       v.DateCreated,
		})
	}
	return versions, nil
}

func environmentFromSDK(e types.EnvironmentDescription) Environment {
	return Environment{
		Name:            aws.ToString(e.EnvironmentName),
		ID:              aws.ToString(e.EnvironmentId),
		ApplicationName: aws.ToString(e.ApplicationName),
		Status:          string(e.Status),
		Health:          string(e.Health),
		CNAME:           aws.ToString(e.CNAME),
		EndpointURL:     aws.ToString(e.EndpointURL),
		VersionLabel:    aws.ToString(e.VersionLabel),
		SolutionStack:   aws.ToString(e.SolutionStackName),
		UpdatedAt:       e.DateUpdated,
	}
}
