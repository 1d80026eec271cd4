// Package eventbridge wraps the event bus: bus, rule, and target
// discovery, event publication, and rule lifecycle operations.
package eventbridge

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/rs/zerolog"

	"github.com/arguslabs/argus/internal/logging"
	"github.com/arguslabs/argus/pkg/awserr"
)

const serviceName = "eventbridge"

// EventBus summarizes one event bus.
type EventBus struct {
	Name   string `json:"bus_name"`
	ARN    string `json:"bus_arn"`
	Policy string `json:"policy,omitempty"`
}

// Rule summarizes one rule on a bus.
type Rule struct {
	Name               string `json:"rule_name"`
	ARN                string `json:"rule_arn"`
	State              string `json:"state"`
	EventPattern       string `json:"event_pattern,omitempty"`
	ScheduleExpression string `json:"schedule_expression,omitempty"`
	Description        string `json:"description,omitempty"`
	EventBusName       string `json:"event_bus_name,omitempty"`
}

// Target is one target of a rule.
type Target struct {
	ID      string `json:"target_id"`
	ARN     string `json:"target_arn"`
	RoleARN string `json:"role_arn,omitempty"`
	Input   string `json:"input,omitempty"`
}

// Archive summarizes one event archive.
type Archive struct {
	Name           string     `json:"archive_name"`
	EventSourceARN string     `json:"event_source_arn"`
	State          string     `json:"state"`
	RetentionDays  int32      `json:"retention_days"`
	CreationTime   *time.Time `json:"creation_time,omitempty"`
}

// Reader reads buses, rules, targets, and archives.
type Reader struct {
	api API
	log zerolog.Logger
}

// NewReader returns a Reader over the given EventBridge API.
func NewReader(api API) *Reader {
	return &Reader{api: api, log: logging.For(serviceName)}
}

// ListEventBuses returns every event bus, optionally filtered by name
// prefix.
func (r *Reader) ListEventBuses(ctx context.Context, namePrefix string) ([]EventBus, error) {
	input := &eventbridge.ListEventBusesInput{}
	if namePrefix != "" {
		input.NamePrefix = aws.String(namePrefix)
	}

	var buses []EventBus
	for {
		out, err := r.api.ListEventBuses(ctx, input)
		if err != nil {
			return nil, awserr.Classify(serviceName, "ListEventBuses", namePrefix, err)
		}
		for _, b := range out.EventBuses {
			buses = append(buses, EventBus{
				Name:   aws.ToString(b.Name),
				ARN:    aws.ToString(b.Arn),
				Policy: aws.ToString(b.Policy),
			})
		}
		if out.NextToken == nil {
			break
		}
		input.NextToken = out.NextToken
	}

	r.log.Debug().Int("count", len(buses)).Msg("listed event buses")
	return buses, nil
}

// DescribeEventBus returns one bus by name. Empty name selects the
// default bus.
func (r *Reader) DescribeEventBus(ctx context.Context, busName string) (*EventBus, error) {
	input := &eventbridge.DescribeEventBusInput{}
	if busName != "" {
		input.Name = aws.String(busName)
	}

	out, err := r.api.DescribeEventBus(ctx, input)
	if err != nil {
		return nil, awserr.Classify(serviceName, "DescribeEventBus", busName, err)
	}

	return &EventBus{
		Name:   aws.ToString(out.Name),
		ARN:    aws.ToString(out.Arn),
		Policy: aws.ToString(out.Policy),
	}, nil
}

// ListRules returns the rules of a bus, optionally filtered by name
// prefix. Empty busName selects the default bus.
func (r *Reader) ListRules(ctx context.Context, busName, namePrefix string) ([]Rule, error) {
	input := &eventbridge.ListRulesInput{}
	if busName != "" {
		input.EventBusName = aws.String(busName)
	}
	if namePrefix != "" {
		input.NamePrefix = aws.String(namePrefix)
	}

	var rules []Rule
	for {
		out, err := r.api.ListRules(ctx, input)
		if err != nil {
			return nil, awserr.Classify(serviceName, "ListRules", busName, err)
		}
		for _, rule := range out.Rules {
			rules = append(rules, Rule{
				Name:               aws.ToString(rule.Name),
				ARN:                aws.ToString(rule.Arn),
				State:              string(rule.State),
				EventPattern:       aws.ToString(rule.EventPattern),
				ScheduleExpression: aws.ToString(rule.ScheduleExpression),
				Description:        aws.ToString(rule.Description),
				EventBusName:       aws.ToString(rule.EventBusName),
			})
		}
		if out.NextToken == nil {
			break
		}
		input.NextToken = out.NextToken
	}
	return rules, nil
}

// DescribeRule returns one rule by name.
func (r *Reader) DescribeRule(ctx context.Context, busName, ruleName string) (*Rule, error) {
	input := &eventbridge.DescribeRuleInput{Name: aws.String(ruleName)}
	if busName != "" {
		input.EventBusName = aws.String(busName)
	}

	out, err := r.api.DescribeRule(ctx, input)
	if err != nil {
		return nil, awserr.Classify(serviceName, "DescribeRule", ruleName, err)
	}

	return &Rule{
		Name:               aws.ToString(out.Name),
		ARN:                aws.ToString(out.Arn),
		State:              string(out.State),
		EventPattern:       aws.ToString(out.EventPattern),
		ScheduleExpression: aws.ToString(out.ScheduleExpression),
		Description:        aws.ToString(out.Description),
		EventBusName:       aws.ToString(out.EventBusName),
	}, nil
}

// ListTargetsByRule returns the targets of a rule.
func (r *Reader) ListTargetsByRule(ctx context.Context, busName, ruleName string) ([]Target, error) {
	input := &eventbridge.ListTargetsByRuleInput{Rule: aws.String(ruleName)}
	if busName != "" {
		input.EventBusName = aws.String(busName)
	}

	var targets []Target
	for {
		out, err := r.api.ListTargetsByRule(ctx, input)
		if err != nil {
			return nil, awserr.Classify(serviceName, "ListTargetsByRule", ruleName, err)
		}
		for _, t := range out.Targets {
			targets = append(targets, Target{
				ID:      aws.ToString(t.Id),
				ARN:     aws.ToString(t.Arn),
				RoleARN: aws.ToString(t.RoleArn),
				Input:   aws.ToString(t.Input),
			})
		}
		if out.NextToken == nil {
			break
		}
		input.NextToken = out.NextToken
	}
	return targets, nil
}

// ListArchives returns event archives, optionally filtered by name
// prefix.
func (r *Reader) ListArchives(ctx context.Context, namePrefix string) ([]Archive, error) {
	input := &eventbridge.ListArchivesInput{}
	if namePrefix != "" {
		input.NamePrefix = aws.String(namePrefix)
	}

	var archives []Archive
	for {
		out, err := r.api.ListArchives(ctx, input)
		if err != nil {
			return nil, awserr.Classify(serviceName, "ListArchives", namePrefix, err)
		}
		for _, a := range out.Archives {
			archives = append(archives, Archive{
				Name:           aws.ToString(a.ArchiveName),
				EventSourceARN: aws.ToString(a.EventSourceArn),
				State:          string(a.State),
				RetentionDays:  aws.ToInt32(a.RetentionDays),
				CreationTime:   a.CreationTime,
			})
		}
		if out.NextToken == nil {
			break
		}
		input.NextToken = out.NextToken
	}
	return archives, nil
}
