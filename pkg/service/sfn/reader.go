// Package sfn wraps the workflow orchestrator: state machine and
// execution discovery, execution history, and lifecycle and callback
// operations.
package sfn

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/aws/aws-sdk-go-v2/service/sfn/types"
	"github.com/rs/zerolog"

	"github.com/arguslabs/argus/internal/logging"
	"github.com/arguslabs/argus/pkg/awserr"
)

const serviceName = "sfn"

// StateMachine summarizes one state machine.
type StateMachine struct {
	Name         string     `json:"state_machine_name"`
	ARN          string     `json:"state_machine_arn"`
	Type         string     `json:"type,omitempty"`
	Status       string     `json:"status,omitempty"`
	RoleARN      string     `json:"role_arn,omitempty"`
	Definition   string     `json:"definition,omitempty"`
	CreationDate *time.Time `json:"creation_date,omitempty"`
}

// Execution summarizes one execution of a state machine.
type Execution struct {
	Name            string     `json:"execution_name"`
	ARN             string     `json:"execution_arn"`
	StateMachineARN string     `json:"state_machine_arn"`
	Status          string     `json:"status"`
	Input           string     `json:"input,omitempty"`
	Output          string     `json:"output,omitempty"`
	StartDate       *time.Time `json:"start_date,omitempty"`
	StopDate        *time.Time `json:"stop_date,omitempty"`
}

// HistoryEvent is one event in an execution history.
type HistoryEvent struct {
	ID        int64      `json:"id"`
	Type      string     `json:"type"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// Reader reads state machines and executions.
type Reader struct {
	api API
	log zerolog.Logger
}

// NewReader returns a Reader over the given Step Functions API.
func NewReader(api API) *Reader {
	return &Reader{api: api, log: logging.For(serviceName)}
}

// ListStateMachines returns every state machine in the region.
func (r *Reader) ListStateMachines(ctx context.Context) ([]StateMachine, error) {
	paginator := sfn.NewListStateMachinesPaginator(r.api, &sfn.ListStateMachinesInput{})

	var machines []StateMachine
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, awserr.Classify(serviceName, "ListStateMachines", "", err)
		}
		for _, m := range page.StateMachines {
			machines = append(machines, StateMachine{
				Name:         aws.ToString(m.Name),
				ARN:          aws.ToString(m.StateMachineArn),
				Type:         string(m.Type),
				CreationDate: m.CreationDate,
			})
		}
	}

	r.log.Debug().Int("count", len(machines)).Msg("listed state machines")
	return machines, nil
}

// DescribeStateMachine returns one state machine including its
// definition.
func (r *Reader) DescribeStateMachine(ctx context.Context, stateMachineARN string) (*StateMachine, error) {
	out, err := r.api.DescribeStateMachine(ctx, &sfn.DescribeStateMachineInput{
		StateMachineArn: aws.String(stateMachineARN),
	})
	if err != nil {
		return nil, awserr.Classify(serviceName, "DescribeStateMachine", stateMachineARN, err)
	}

	return &StateMachine{
		Name:         aws.ToString(out.Name),
		ARN:          aws.ToString(out.StateMachineArn),
		Type:         string(out.Type),
		Status:       string(out.Status),
		RoleARN:      aws.ToString(out.RoleArn),
		Definition:   aws.ToString(out.Definition),
		CreationDate: out.CreationDate,
	}, nil
}

// ListExecutions returns the executions of a state machine, newest
// first. statusFilter narrows by status when non-empty.
func (r *Reader) ListExecutions(ctx context.Context, stateMachineARN, statusFilter string) ([]Execution, error) {
	input := &sfn.ListExecutionsInput{
		StateMachineArn: aws.String(stateMachineARN),
	}
	if statusFilter != "" {
		input.StatusFilter = types.ExecutionStatus(statusFilter)
	}

	paginator := sfn.NewListExecutionsPaginator(r.api, input)

	var executions []Execution
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, awserr.Classify(serviceName, "ListExecutions", stateMachineARN, err)
		}
		for _, e := range page.Executions {
			executions = append(executions, Execution{
				Name:            aws.ToString(e.Name),
				ARN:             aws.ToString(e.ExecutionArn),
				StateMachineARN: aws.ToString(e.StateMachineArn),
				Status:          string(e.Status),
				StartDate:       e.StartDate,
				StopDate:        e.StopDate,
			})
		}
	}
	return executions, nil
}

// DescribeExecution returns one execution including its input and
// output payloads.
func (r *Reader) DescribeExecution(ctx context.Context, executionARN string) (*Execution, error) {
	out, err := r.api.DescribeExecution(ctx, &sfn.DescribeExecutionInput{
		ExecutionArn: aws.String(executionARN),
	})
	if err != nil {
		return nil, awserr.Classify(serviceName, "DescribeExecution", executionARN, err)
	}

	return &Execution{
		Name:            aws.ToString(out.Name),
		ARN:             aws.ToString(out.ExecutionArn),
		StateMachineARN: aws.ToString(out.StateMachineArn),
		Status:          string(out.Status),
		Input:           aws.ToString(out.Input),
		Output:          aws.ToString(out.Output),
		StartDate:       out.StartDate,
		StopDate:        out.StopDate,
	}, nil
}

// GetExecutionHistory returns the events of an execution, oldest first.
func (r *Reader) GetExecutionHistory(ctx context.Context, executionARN string) ([]HistoryEvent, error) {
	paginator := sfn.NewGetExecutionHistoryPaginator(r.api, &sfn.GetExecutionHistoryInput{
		ExecutionArn: aws.String(executionARN),
	})

	var events []HistoryEvent
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, awserr.Classify(serviceName, "GetExecutionHistory", executionARN, err)
		}
		for _, e := range page.Events {
			events = append(events, HistoryEvent{
				ID:        e.Id,
				Type:      string(e.Type),
				Timestamp: e.Timestamp,
			})
		}
	}
	return events, nil
}
