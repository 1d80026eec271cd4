package eventbridge

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/rs/zerolog"

	"github.com/arguslabs/argus/internal/logging"
	"github.com/arguslabs/argus/pkg/awserr"
)

// RuleSpec declares a rule: either an event pattern or a schedule
// expression must be set.
type RuleSpec struct {
	Name               string
	EventPattern       string
	ScheduleExpression string
	Description        string
	Enabled            bool
}

// Event is one event to publish.
type Event struct {
	Source     string
	DetailType string
	Detail     string // JSON payload
}

// Writer creates and mutates buses and rules and publishes events.
type Writer struct {
	api API
	log zerolog.Logger
}

// NewWriter returns a Writer over the given EventBridge API.
func NewWriter(api API) *Writer {
	return &Writer{api: api, log: logging.For(serviceName)}
}

// CreateEventBus creates a custom event bus and returns its ARN.
func (w *Writer) CreateEventBus(ctx context.Context, busName string, tags map[string]string) (string, error) {
	input := &eventbridge.CreateEventBusInput{Name: aws.String(busName)}
	for k, v := range tags {
		input.Tags = append(input.Tags, types.Tag{Key: aws.String(k), Value: aws.String(v)})
	}

	out, err := w.api.CreateEventBus(ctx, input)
	if err != nil {
		return "", awserr.Classify(serviceName, "CreateEventBus", busName, err)
	}

	arn := aws.ToString(out.EventBusArn)
	w.log.Info().Str("bus", busName).Str("arn", arn).Msg("created event bus")
	return arn, nil
}

// DeleteEventBus removes a custom event bus and all of its rules.
func (w *Writer) DeleteEventBus(ctx context.Context, busName string) error {
	if _, err := w.api.DeleteEventBus(ctx, &eventbridge.DeleteEventBusInput{
		Name: aws.String(busName),
	}); err != nil {
		return awserr.Classify(serviceName, "DeleteEventBus", busName, err)
	}

	w.log.Info().Str("bus", busName).Msg("deleted event bus")
	return nil
}

// PutRule creates or updates a rule on a bus and returns its ARN. Empty
// busName selects the default bus.
func (w *Writer) PutRule(ctx context.Context, busName string, spec RuleSpec) (string, error) {
	input := &eventbridge.PutRuleInput{Name: aws.String(spec.Name)}
	if busName != "" {
		input.EventBusName = aws.String(busName)
	}
	if spec.EventPattern != "" {
		input.EventPattern = aws.String(spec.EventPattern)
	}
	if spec.ScheduleExpression != "" {
		input.ScheduleExpression = aws.String(spec.ScheduleExpression)
	}
	if spec.Description != "" {
		input.Description = aws.String(spec.Description)
	}
	if spec.Enabled {
		input.State = types.RuleStateEnabled
	} else {
		input.State = types.RuleStateDisabled
	}

	out, err := w.api.PutRule(ctx, input)
	if err != nil {
		return "", awserr.Classify(serviceName, "PutRule", spec.Name, err)
	}

	arn := aws.ToString(out.RuleArn)
	w.log.Info().Str("rule", spec.Name).Str("arn", arn).Msg("put rule")
	return arn, nil
}

// DeleteRule removes a rule. Its targets must be removed first unless
// force is set.
func (w *Writer) DeleteRule(ctx context.Context, busName, ruleName string, force bool) error {
	input := &eventbridge.DeleteRuleInput{
		Name:  aws.String(ruleName),
		Force: force,
	}
	if busName != "" {
		input.EventBusName = aws.String(busName)
	}

	if _, err := w.api.DeleteRule(ctx, input); err != nil {
		return awserr.Classify(serviceName, "DeleteRule", ruleName, err)
	}

	w.log.Info().Str("rule", ruleName).Msg("deleted rule")
	return nil
}

// PutTargets attaches targets to a rule. Returns the IDs of targets the
// backend failed to attach.
func (w *Writer) PutTargets(ctx context.Context, busName, ruleName string, targets []Target) ([]string, error) {
	input := &eventbridge.PutTargetsInput{Rule: aws.String(ruleName)}
	if busName != "" {
		input.EventBusName = aws.String(busName)
	}
	for _, t := range targets {
		target := types.Target{
			Id:  aws.String(t.ID),
			Arn: aws.String(t.ARN),
		}
		if t.RoleARN != "" {
			target.RoleArn = aws.String(t.RoleARN)
		}
		if t.Input != "" {
			target.Input = aws.String(t.Input)
		}
		input.Targets = append(input.Targets, target)
	}

	out, err := w.api.PutTargets(ctx, input)
	if err != nil {
		return nil, awserr.Classify(serviceName, "PutTargets", ruleName, err)
	}

	var failed []string
	for _, f := range out.FailedEntries {
		failed = append(failed, aws.ToString(f.TargetId))
	}

	w.log.Info().
		Str("rule", ruleName).
		Int("targets", len(targets)).
		Int("failed", len(failed)).
		Msg("put targets")
	return failed, nil
}

// RemoveTargets detaches targets from a rule by ID.
func (w *Writer) RemoveTargets(ctx context.Context, busName, ruleName string, targetIDs []string) error {
	input := &eventbridge.RemoveTargetsInput{
		Rule: aws.String(ruleName),
		Ids:  targetIDs,
	}
	if busName != "" {
		input.EventBusName = aws.String(busName)
	}

	if _, err := w.api.RemoveTargets(ctx, input); err != nil {
		return awserr.Classify(serviceName, "RemoveTargets", ruleName, err)
	}
	return nil
}

// PutEvents publishes events to a bus. Empty busName selects the
// default bus. Returns the number of events the backend rejected.
func (w *Writer) PutEvents(ctx context.Context, busName string, events []Event) (int32, error) {
	input := &eventbridge.PutEventsInput{}
	for _, e := range events {
		entry := types.PutEventsRequestEntry{
			Source:     aws.String(e.Source),
			DetailType: aws.String(e.DetailType),
			Detail:     aws.String(e.Detail),
		}
		if busName != "" {
			entry.EventBusName = aws.String(busName)
		}
		input.Entries = append(input.Entries, entry)
	}

	out, err := w.api.PutEvents(ctx, input)
	if err != nil {
		return 0, awserr.Classify(serviceName, "PutEvents", busName, err)
	}

	w.log.Info().
		Str("bus", busName).
		Int("events", len(events)).
		Int32("failed", out.FailedEntryCount).
		Msg("put events")
	return out.FailedEntryCount, nil
}

// EnableRule enables a rule.
func (w *Writer) EnableRule(ctx context.Context, busName, ruleName string) error {
	input := &eventbridge.EnableRuleInput{Name: aws.String(ruleName)}
	if busName != "" {
		input.EventBusName = aws.String(busName)
	}

	if _, err := w.api.EnableRule(ctx, input); err != nil {
		return awserr.Classify(serviceName, "EnableRule", ruleName, err)
	}

	w.log.Info().Str("rule", ruleName).Msg("enabled rule")
	return nil
}

// DisableRule disables a rule without deleting it.
func (w *Writer) DisableRule(ctx context.Context, busName, ruleName string) error {
	input := &eventbridge.DisableRuleInput{Name: aws.String(ruleName)}
	if busName != "" {
		input.EventBusName = aws.String(busName)
	}

	if _, err := w.api.DisableRule(ctx, input); err != nil {
		return awserr.Classify(serviceName, "DisableRule", ruleName, err)
	}

	w.log.Info().Str("rule", ruleName).Msg("disabled rule")
	return nil
}
