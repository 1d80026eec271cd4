// Package lambda wraps the serverless function service: function
// discovery and inspection, aliases, versions, event source mappings,
// and function lifecycle operations.
package lambda

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/rs/zerolog"

	"github.com/arguslabs/argus/internal/logging"
	"github.com/arguslabs/argus/pkg/awserr"
)

const serviceName = "lambda"

// Reader reads functions and their configuration.
type Reader struct {
	api API
	log zerolog.Logger
}

// NewReader returns a Reader over the given Lambda API.
func NewReader(api API) *Reader {
	return &Reader{api: api, log: logging.For(serviceName)}
}

// ListFunctions returns every function in the region. max caps the
// result; zero means unlimited.
func (r *Reader) ListFunctions(ctx context.Context, max int) ([]Function, error) {
	paginator := lambda.NewListFunctionsPaginator(r.api, &lambda.ListFunctionsInput{})

	var functions []Function
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, awserr.Classify(serviceName, "ListFunctions", "", err)
		}
		for _, fc := range page.Functions {
			functions = append(functions, functionFromConfig(fc))
			if max > 0 && len(functions) >= max {
				return functions, nil
			}
		}
	}

	r.log.Debug().Int("count", len(functions)).Msg("listed functions")
	return functions, nil
}

// GetFunction returns full details for one function, including its code
// location and tags.
func (r *Reader) GetFunction(ctx context.Context, functionName string) (*FunctionDetail, error) {
	out, err := r.api.GetFunction(ctx, &lambda.GetFunctionInput{
		FunctionName: aws.String(functionName),
	})
	if err != nil {
		return nil, awserr.Classify(serviceName, "GetFunction", functionName, err)
	}

	detail := &FunctionDetail{Tags: out.Tags}
	if out.Configuration != nil {
		detail.Function = functionFromConfig(*out.Configuration)
	}
	if out.Code != nil {
		detail.CodeLocation = aws.ToString(out.Code.Location)
	}
	return detail, nil
}

// ListAliases returns the aliases of a function.
func (r *Reader) ListAliases(ctx context.Context, functionName string) ([]Alias, error) {
	out, err := r.api.ListAliases(ctx, &lambda.ListAliasesInput{
		FunctionName: aws.String(functionName),
	})
	if err != nil {
		return nil, awserr.Classify(serviceName, "ListAliases", functionName, err)
	}

	aliases := make([]Alias, 0, len(out.Aliases))
	for _, a := range out.Aliases {
		aliases = append(aliases, Alias{
			Name:            aws.ToString(a.Name),
			ARN:             aws.ToString(a.AliasArn),
			FunctionVersion: aws.ToString(a.FunctionVersion),
			Description:     aws.ToString(a.Description),
		})
	}
	return aliases, nil
}

// ListVersions returns the published versions of a function, including
// $LATEST.
func (r *Reader) ListVersions(ctx context.Context, functionName string) ([]Function, error) {
	paginator := lambda.NewListVersionsByFunctionPaginator(r.api, &lambda.ListVersionsByFunctionInput{
		FunctionName: aws.String(functionName),
	})

	var versions []Function
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, awserr.Classify(serviceName, "ListVersions", functionName, err)
		}
		for _, fc := range page.Versions {
			versions = append(versions, functionFromConfig(fc))
		}
	}
	return versions, nil
}

// ListEventSourceMappings returns event source mappings, for one
// function when functionName is non-empty, otherwise for all.
func (r *Reader) ListEventSourceMappings(ctx context.Context, functionName string) ([]EventSourceMapping, error) {
	input := &lambda.ListEventSourceMappingsInput{}
	if functionName != "" {
		input.FunctionName = aws.String(functionName)
	}

	paginator := lambda.NewListEventSourceMappingsPaginator(r.api, input)

	var mappings []EventSourceMapping
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, awserr.Classify(serviceName, "ListEventSourceMappings", functionName, err)
		}
		for _, m := range page.EventSourceMappings {
			mappings = append(mappings, EventSourceMapping{
				UUID:           aws.ToString(m.UUID),
				EventSourceARN: aws.ToString(m.EventSourceArn),
				FunctionARN:    aws.ToString(m.FunctionArn),
				State:          aws.ToString(m.State),
				BatchSize:      aws.ToInt32(m.BatchSize),
				LastModified:   m.LastModified,
			})
		}
	}
	return mappings, nil
}

func functionFromConfig(fc types.FunctionConfiguration) Function {
	f := Function{
		Name:         aws.ToString(fc.FunctionName),
		ARN:          aws.ToString(fc.FunctionArn),
		Runtime:      string(fc.Runtime),
		Handler:      aws.ToString(fc.Handler),
		Role:         aws.ToString(fc.Role),
		MemoryMB:     aws.ToInt32(fc.MemorySize),
		TimeoutSec:   aws.ToInt32(fc.Timeout),
		CodeSize:     fc.CodeSize,
		Description:  aws.ToString(fc.Description),
		LastModified: aws.ToString(fc.LastModified),
		Version:      aws.ToString(fc.Version),
		State:        string(fc.State),
	}
	if fc.Environment != nil {
		f.Environment = fc.Environment.Variables
	}
	return f
}
