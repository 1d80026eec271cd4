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

// CreateFunctionOptions carries the optional settings for CreateFunction.
type CreateFunctionOptions struct {
	Description string
	MemoryMB    int32
	TimeoutSec  int32
	Environment map[string]string
	Tags        map[string]string
}

// ConfigUpdate carries the mutable configuration of a function. Nil
// fields are left unchanged.
type ConfigUpdate struct {
	Handler     *string
	Description *string
	MemoryMB    *int32
	TimeoutSec  *int32
	Environment map[string]string
}

// Writer creates and mutates functions.
type Writer struct {
	api API
	log zerolog.Logger
}

// NewWriter returns a Writer over the given Lambda API.
func NewWriter(api API) *Writer {
	return &Writer{api: api, log: logging.For(serviceName)}
}

// CreateFunction creates a function from a zip deployment package.
func (w *Writer) CreateFunction(ctx context.Context, name, runtime, role, handler string, zipFile []byte, opts CreateFunctionOptions) (*Function, error) {
	input := &lambda.CreateFunctionInput{
		FunctionName: aws.String(name),
		Runtime:      types.Runtime(runtime),
		Role:         aws.String(role),
		Handler:      aws.String(handler),
		Code:         &types.FunctionCode{ZipFile: zipFile},
	}
	if opts.Description != "" {
		input.Description = aws.String(opts.Description)
	}
	if opts.MemoryMB > 0 {
		input.MemorySize = aws.Int32(opts.MemoryMB)
	}
	if opts.TimeoutSec > 0 {
		input.Timeout = aws.Int32(opts.TimeoutSec)
	}
	if len(opts.Environment) > 0 {
		input.Environment = &types.Environment{Variables: opts.Environment}
	}
	if len(opts.Tags) > 0 {
		input.Tags = opts.Tags
	}

	out, err := w.api.CreateFunction(ctx, input)
	if err != nil {
		return nil, awserr.Classify(serviceName, "CreateFunction", name, err)
	}

	w.log.Info().Str("function", name).Str("runtime", runtime).Msg("created function")
	f := functionFromCreate(out)
	return &f, nil
}

// UpdateFunctionCode replaces the deployment package of a function.
func (w *Writer) UpdateFunctionCode(ctx context.Context, name string, zipFile []byte, publish bool) (*Function, error) {
	out, err := w.api.UpdateFunctionCode(ctx, &lambda.UpdateFunctionCodeInput{
		FunctionName: aws.String(name),
		ZipFile:      zipFile,
		Publish:      publish,
	})
	if err != nil {
		return nil, awserr.Classify(serviceName, "UpdateFunctionCode", name, err)
	}

	w.log.Info().Str("function", name).Bool("published", publish).Msg("updated function code")
	f := functionFromUpdate(out)
	return &f, nil
}

// UpdateFunctionConfiguration applies the non-nil fields of update to a
// function.
func (w *Writer) UpdateFunctionConfiguration(ctx context.Context, name string, update ConfigUpdate) (*Function, error) {
	input := &lambda.UpdateFunctionConfigurationInput{
		FunctionName: aws.String(name),
		Handler:      update.Handler,
		Description:  update.Description,
		MemorySize:   update.MemoryMB,
		Timeout:      update.TimeoutSec,
	}
	if update.Environment != nil {
		input.Environment = &types.Environment{Variables: update.Environment}
	}

	out, err := w.api.UpdateFunctionConfiguration(ctx, input)
	if err != nil {
		return nil, awserr.Classify(serviceName, "UpdateFunctionConfiguration", name, err)
	}

	w.log.Info().Str("function", name).Msg("updated function configuration")
	f := functionFromConfig(types.FunctionConfiguration{
		FunctionName: out.FunctionName,
		FunctionArn:  out.FunctionArn,
		Runtime:      out.Runtime,
		Handler:      out.Handler,
		Role:         out.Role,
		MemorySize:   out.MemorySize,
		Timeout:      out.Timeout,
		CodeSize:     out.CodeSize,
		Description:  out.Description,
		LastModified: out.LastModified,
		Version:      out.Version,
		State:        out.State,
		Environment:  out.Environment,
	})
	return &f, nil
}

// DeleteFunction removes a function, or one published version when
// qualifier is non-empty.
func (w *Writer) DeleteFunction(ctx context.Context, name, qualifier string) error {
	input := &lambda.DeleteFunctionInput{FunctionName: aws.String(name)}
	if qualifier != "" {
		input.Qualifier = aws.String(qualifier)
	}

	if _, err := w.api.DeleteFunction(ctx, input); err != nil {
		return awserr.Classify(serviceName, "DeleteFunction", name, err)
	}

	w.log.Info().Str("function", name).Msg("deleted function")
	return nil
}

// CreateAlias points a new alias at a function version.
func (w *Writer) CreateAlias(ctx context.Context, functionName, aliasName, version, description string) (*Alias, error) {
	input := &lambda.CreateAliasInput{
		FunctionName:    aws.String(functionName),
		Name:            aws.String(aliasName),
		FunctionVersion: aws.String(version),
	}
	if description != "" {
		input.Description = aws.String(description)
	}

	out, err := w.api.CreateAlias(ctx, input)
	if err != nil {
		return nil, awserr.Classify(serviceName, "CreateAlias", functionName, err)
	}

	w.log.Info().Str("function", functionName).Str("alias", aliasName).Msg("created alias")
	return &Alias{
		Name:            aws.ToString(out.Name),
		ARN:             aws.ToString(out.AliasArn),
		FunctionVersion: aws.ToString(out.FunctionVersion),
		Description:     aws.ToString(out.Description),
	}, nil
}

// PublishVersion publishes the current code and configuration as an
// immutable version.
func (w *Writer) PublishVersion(ctx context.Context, functionName, description string) (string, error) {
	input := &lambda.PublishVersionInput{FunctionName: aws.String(functionName)}
	if description != "" {
		input.Description = aws.String(description)
	}

	out, err := w.api.PublishVersion(ctx, input)
	if err != nil {
		return "", awserr.Classify(serviceName, "PublishVersion", functionName, err)
	}

	version := aws.ToString(out.Version)
	w.log.Info().Str("function", functionName).Str("version", version).Msg("published version")
	return version, nil
}

// AddPermission grants a principal permission to invoke a function.
// sourceARN restricts the grant to one event source when non-empty.
func (w *Writer) AddPermission(ctx context.Context, functionName, statementID, action, principal, sourceARN string) error {
	input := &lambda.AddPermissionInput{
		FunctionName: aws.String(functionName),
		StatementId:  aws.String(statementID),
		Action:       aws.String(action),
		Principal:    aws.String(principal),
	}
	if sourceARN != "" {
		input.SourceArn = aws.String(sourceARN)
	}

	if _, err := w.api.AddPermission(ctx, input); err != nil {
		return awserr.Classify(serviceName, "AddPermission", functionName, err)
	}

	w.log.Info().Str("function", functionName).Str("statement", statementID).Msg("added invoke permission")
	return nil
}

func functionFromCreate(out *lambda.CreateFunctionOutput) Function {
	return functionFromConfig(types.FunctionConfiguration{
		FunctionName: out.FunctionName,
		FunctionArn:  out.FunctionArn,
		Runtime:      out.Runtime,
		Handler:      out.Handler,
		Role:         out.Role,
		MemorySize:   out.MemorySize,
		Timeout:      out.Timeout,
		CodeSize:     out.CodeSize,
		Description:  out.Description,
		LastModified: out.LastModified,
		Version:      out.Version,
		State:        out.State,
		Environment:  out.Environment,
	})
}

func functionFromUpdate(out *lambda.UpdateFunctionCodeOutput) Function {
	return functionFromConfig(types.FunctionConfiguration{
		FunctionName: out.FunctionName,
		FunctionArn:  out.FunctionArn,
		Runtime:      out.Runtime,
		Handler:      out.Handler,
		Role:         out.Role,
		MemorySize:   out.MemorySize,
		Timeout:      out.Timeout,
		CodeSize:     out.CodeSize,
		Description:  out.Description,
		LastModified: out.LastModified,
		Version:      out.Version,
		State:        out.State,
		Environment:  out.Environment,
	})
}
