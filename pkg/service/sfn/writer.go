package sfn

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/aws/aws-sdk-go-v2/service/sfn/types"
	"github.com/rs/zerolog"

	"github.com/arguslabs/argus/internal/logging"
	"github.com/arguslabs/argus/pkg/awserr"
)

// Writer creates and mutates state machines and drives executions.
type Writer struct {
	api API
	log zerolog.Logger
}

// NewWriter returns a Writer over the given Step Functions API.
func NewWriter(api API) *Writer {
	return &Writer{api: api, log: logging.For(serviceName)}
}

// CreateStateMachine creates a state machine from an Amazon States
// Language definition and returns its ARN. machineType is STANDARD or
// EXPRESS; empty selects STANDARD.
func (w *Writer) CreateStateMachine(ctx context.Context, name, definition, roleARN, machineType string) (string, error) {
	input := &sfn.CreateStateMachineInput{
		Name:       aws.String(name),
		Definition: aws.String(definition),
		RoleArn:    aws.String(roleARN),
	}
	if machineType != "" {
		input.Type = types.StateMachineType(machineType)
	}

	out, err := w.api.CreateStateMachine(ctx, input)
	if err != nil {
		return "", awserr.Classify(serviceName, "CreateStateMachine", name, err)
	}

	arn := aws.ToString(out.StateMachineArn)
	w.log.Info().Str("state_machine", name).Str("arn", arn).Msg("created state machine")
	return arn, nil
}

// UpdateStateMachine replaces the definition or role of a state
// machine. Empty arguments are left unchanged.
func (w *Writer) UpdateStateMachine(ctx context.Context, stateMachineARN, definition, roleARN string) error {
	input := &sfn.UpdateStateMachineInput{
		StateMachineArn: aws.String(stateMachineARN),
	}
	if definition != "" {
		input.Definition = aws.String(definition)
	}
	if roleARN != "" {
		input.RoleArn = aws.String(roleARN)
	}

	if _, err := w.api.UpdateStateMachine(ctx, input); err != nil {
		return awserr.Classify(serviceName, "UpdateStateMachine", stateMachineARN, err)
	}

	w.log.Info().Str("state_machine", stateMachineARN).Msg("updated state machine")
	return nil
}

// DeleteStateMachine removes a state machine.
func (w *Writer) DeleteStateMachine(ctx context.Context, stateMachineARN string) error {
	if _, err := w.api.DeleteStateMachine(ctx, &sfn.DeleteStateMachineInput{
		StateMachineArn: aws.String(stateMachineARN),
	}); err != nil {
		return awserr.Classify(serviceName, "DeleteStateMachine", stateMachineARN, err)
	}

	w.log.Info().Str("state_machine", stateMachineARN).Msg("deleted state machine")
	return nil
}

// StartExecution starts an execution with a JSON input payload and
// returns its ARN. name is optional; the backend generates one when
// empty.
func (w *Writer) StartExecution(ctx context.Context, stateMachineARN, name, input string) (string, error) {
	in := &sfn.StartExecutionInput{
		StateMachineArn: aws.String(stateMachineARN),
	}
	if name != "" {
		in.Name = aws.String(name)
	}
	if input != "" {
		in.Input = aws.String(input)
	}

	out, err := w.api.StartExecution(ctx, in)
	if err != nil {
		return "", awserr.Classify(serviceName, "StartExecution", stateMachineARN, err)
	}

	arn := aws.ToString(out.ExecutionArn)
	w.log.Info().Str("state_machine", stateMachineARN).Str("execution", arn).Msg("started execution")
	return arn, nil
}

// StopExecution stops a running execution.
func (w *Writer) StopExecution(ctx context.Context, executionARN, errorCode, cause string) error {
	input := &sfn.StopExecutionInput{
		ExecutionArn: aws.String(executionARN),
	}
	if errorCode != "" {
		input.Error = aws.String(errorCode)
	}
	if cause != "" {
		input.Cause = aws.String(cause)
	}

	if _, err := w.api.StopExecution(ctx, input); err != nil {
		return awserr.Classify(serviceName, "StopExecution", executionARN, err)
	}

	w.log.Info().Str("execution", executionARN).Msg("stopped execution")
	return nil
}

// SendTaskSuccess completes a callback task with a JSON output payload.
func (w *Writer) SendTaskSuccess(ctx context.Context, taskToken, output string) error {
	if _, err := w.api.SendTaskSuccess(ctx, &sfn.SendTaskSuccessInput{
		TaskToken: aws.String(taskToken),
		Output:    aws.String(output),
	}); err != nil {
		return awserr.Classify(serviceName, "SendTaskSuccess", "", err)
	}
	return nil
}

// SendTaskFailure fails a callback task.
func (w *Writer) SendTaskFailure(ctx context.Context, taskToken, errorCode, cause string) error {
	input := &sfn.SendTaskFailureInput{TaskToken: aws.String(taskToken)}
	if errorCode != "" {
		input.Error = aws.String(errorCode)
	}
	if cause != "" {
		input.Cause = aws.String(cause)
	}

	if _, err := w.api.SendTaskFailure(ctx, input); err != nil {
		return awserr.Classify(serviceName, "SendTaskFailure", "", err)
	}
	return nil
}

// SendTaskHeartbeat keeps a callback task alive.
func (w *Writer) SendTaskHeartbeat(ctx context.Context, taskToken string) error {
	if _, err := w.api.SendTaskHeartbeat(ctx, &sfn.SendTaskHeartbeatInput{
		TaskToken: aws.String(taskToken),
	}); err != nil {
		return awserr.Classify(serviceName, "SendTaskHeartbeat", "", err)
	}
	return nil
}
