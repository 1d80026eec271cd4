package eventbridge

import (
	"context"
	"sort"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdkeb "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arguslabs/argus/pkg/awserr"
)

// fakeBackend pages rule listings two at a time to exercise the token
// loop. Unimplemented API methods panic via the embedded nil interface.
type fakeBackend struct {
	API
	rules  map[string]types.Rule
	events []types.PutEventsRequestEntry
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{rules: make(map[string]types.Rule)}
}

const pageSize = 2

func (f *fakeBackend) sortedRules() []types.Rule {
	var names []string
	for name := range f.rules {
		names = append(names, name)
	}
	sort.Strings(names)
	rules := make([]types.Rule, 0, len(names))
	for _, name := range names {
		rules = append(rules, f.rules[name])
	}
	return rules
}

func (f *fakeBackend) ListRules(ctx context.Context, params *sdkeb.ListRulesInput, optFns ...func(*sdkeb.Options)) (*sdkeb.ListRulesOutput, error) {
	rules := f.sortedRules()

	start := 0
	if params.NextToken != nil {
		for i, rule := range rules {
			if aws.ToString(rule.Name) == aws.ToString(params.NextToken) {
				start = i
				break
			}
		}
	}

	end := start + pageSize
	out := &sdkeb.ListRulesOutput{}
	if end >= len(rules) {
		out.Rules = rules[start:]
	} else {
		out.Rules = rules[start:end]
		out.NextToken = rules[end].Name
	}
	return out, nil
}

func (f *fakeBackend) PutRule(ctx context.Context, params *sdkeb.PutRuleInput, optFns ...func(*sdkeb.Options)) (*sdkeb.PutRuleOutput, error) {
	name := aws.ToString(params.Name)
	f.rules[name] = types.Rule{
		Name:               params.Name,
		Arn:                aws.String("arn:aws:events:us-east-1:123456789012:rule/" + name),
		State:              params.State,
		EventPattern:       params.EventPattern,
		ScheduleExpression: params.ScheduleExpression,
		Description:        params.Description,
	}
	return &sdkeb.PutRuleOutput{RuleArn: f.rules[name].Arn}, nil
}

func (f *fakeBackend) DescribeRule(ctx context.Context, params *sdkeb.DescribeRuleInput, optFns ...func(*sdkeb.Options)) (*sdkeb.DescribeRuleOutput, error) {
	rule, ok := f.rules[aws.ToString(params.Name)]
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "ResourceNotFoundException", Message: "rule not found"}
	}
	return &sdkeb.DescribeRuleOutput{
		Name:               rule.Name,
		Arn:                rule.Arn,
		State:              rule.State,
		EventPattern:       rule.EventPattern,
		ScheduleExpression: rule.ScheduleExpression,
		Description:        rule.Description,
	}, nil
}

func (f *fakeBackend) PutEvents(ctx context.Context, params *sdkeb.PutEventsInput, optFns ...func(*sdkeb.Options)) (*sdkeb.PutEventsOutput, error) {
	var failed int32
	for _, entry := range params.Entries {
		if aws.ToString(entry.Detail) == "" {
			failed++
			continue
		}
		f.events = append(f.events, entry)
	}
	return &sdkeb.PutEventsOutput{FailedEntryCount: failed}, nil
}

func TestListRulesFollowsPagination(t *testing.T) {
	backend := newFakeBackend()
	writer := NewWriter(backend)

	for _, name := range []string{"alpha", "bravo", "charlie", "delta", "echo"} {
		_, err := writer.PutRule(context.Background(), "", RuleSpec{
			Name:               name,
			ScheduleExpression: "rate(5 minutes)",
			Enabled:            true,
		})
		require.NoError(t, err)
	}

	rules, err := NewReader(backend).ListRules(context.Background(), "", "")
	require.NoError(t, err)
	require.Len(t, rules, 5)
	assert.Equal(t, "alpha", rules[0].Name)
	assert.Equal(t, "echo", rules[4].Name)
}

func TestPutRuleStateFollowsEnabled(t *testing.T) {
	backend := newFakeBackend()
	writer := NewWriter(backend)
	reader := NewReader(backend)

	_, err := writer.PutRule(context.Background(), "", RuleSpec{Name: "on", Enabled: true, ScheduleExpression: "rate(1 hour)"})
	require.NoError(t, err)
	_, err = writer.PutRule(context.Background(), "", RuleSpec{Name: "off", ScheduleExpression: "rate(1 hour)"})
	require.NoError(t, err)

	on, err := reader.DescribeRule(context.Background(), "", "on")
	require.NoError(t, err)
	assert.Equal(t, "ENABLED", on.State)

	off, err := reader.DescribeRule(context.Background(), "", "off")
	require.NoError(t, err)
	assert.Equal(t, "DISABLED", off.State)
}

func TestDescribeRuleMissingIsNotFound(t *testing.T) {
	reader := NewReader(newFakeBackend())

	_, err := reader.DescribeRule(context.Background(), "", "no-such-rule")
	require.Error(t, err)
	assert.True(t, awserr.IsNotFound(err))
}

func TestPutEventsCountsFailures(t *testing.T) {
	backend := newFakeBackend()
	writer := NewWriter(backend)

	failed, err := writer.PutEvents(context.Background(), "orders", []Event{
		{Source: "app.orders", DetailType: "OrderPlaced", Detail: `{"id":1}`},
		{Source: "app.orders", DetailType: "OrderPlaced", Detail: ""},
		{Source: "app.orders", DetailType: "OrderShipped", Detail: `{"id":2}`},
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), failed)
	assert.Len(t, backend.events, 2)
}
