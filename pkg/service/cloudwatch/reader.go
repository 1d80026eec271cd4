// Package cloudwatch wraps observability reads: log groups, streams,
// and events, metrics and their statistics, and alarms. Monitoring
// data is read-only here.
package cloudwatch

import (
	"context"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/rs/zerolog"

	"github.com/arguslabs/argus/internal/logging"
	"github.com/arguslabs/argus/pkg/awserr"
)

const serviceName = "cloudwatch"

// LogGroup summarizes one log group.
type LogGroup struct {
	Name          string `json:"log_group_name"`
	ARN           string `json:"arn,omitempty"`
	RetentionDays int32  `json:"retention_days,omitempty"`
	StoredBytes   int64  `json:"stored_bytes"`
}

// LogStream summarizes one stream of a log group.
type LogStream struct {
	Name          string     `json:"log_stream_name"`
	LastEventTime *time.Time `json:"last_event_time,omitempty"`
}

// LogEvent is one log line.
type LogEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Stream    string    `json:"log_stream_name,omitempty"`
}

// Metric identifies one metric.
type Metric struct {
	Namespace  string            `json:"namespace"`
	Name       string            `json:"metric_name"`
	Dimensions map[string]string `json:"dimensions,omitempty"`
}

// Datapoint is one aggregated metric sample.
type Datapoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
	Unit      string    `json:"unit,omitempty"`
}

// Alarm summarizes one metric alarm.
type Alarm struct {
	Name        string `json:"alarm_name"`
	State       string `json:"state"`
	MetricName  string `json:"metric_name,omitempty"`
	Namespace   string `json:"namespace,omitempty"`
	Description string `json:"description,omitempty"`
	Reason      string `json:"state_reason,omitempty"`
}

// Reader reads logs, metrics, and alarms.
type Reader struct {
	api  API
	logs LogsAPI
	log  zerolog.Logger
}

// NewReader returns a Reader over the given CloudWatch and CloudWatch
// Logs APIs.
func NewReader(api API, logs LogsAPI) *Reader {
	return &Reader{api: api, logs: logs, log: logging.For(serviceName)}
}

// ListLogGroups returns log groups, optionally filtered by name prefix.
func (r *Reader) ListLogGroups(ctx context.Context, namePrefix string) ([]LogGroup, error) {
	input := &cloudwatchlogs.DescribeLogGroupsInput{}
	if namePrefix != "" {
		input.LogGroupNamePrefix = aws.String(namePrefix)
	}

	paginator := cloudwatchlogs.NewDescribeLogGroupsPaginator(r.logs, input)

	var groups []LogGroup
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, awserr.Classify(serviceName, "ListLogGroups", namePrefix, err)
		}
		for _, g := range page.LogGroups {
			groups = append(groups, LogGroup{
				Name:          aws.ToString(g.LogGroupName),
				ARN:           aws.ToString(g.Arn),
				RetentionDays: aws.ToInt32(g.RetentionInDays),
				StoredBytes:   aws.ToInt64(g.StoredBytes),
			})
		}
	}

	r.log.Debug().Int("count", len(groups)).Msg("listed log groups")
	return groups, nil
}

// ListLogStreams returns the streams of a log group, most recent event
// first.
func (r *Reader) ListLogStreams(ctx context.Context, logGroupName string, limit int32) ([]LogStream, error) {
	input := &cloudwatchlogs.DescribeLogStreamsInput{
		LogGroupName: aws.String(logGroupName),
		OrderBy:      "LastEventTime",
		Descending:   aws.Bool(true),
	}
	if limit > 0 {
		input.Limit = aws.Int32(limit)
	}

	out, err := r.logs.DescribeLogStreams(ctx, input)
	if err != nil {
		return nil, awserr.Classify(serviceName, "ListLogStreams", logGroupName, err)
	}

	streams := make([]LogStream, 0, len(out.LogStreams))
	for _, s := range out.LogStreams {
		stream := LogStream{Name: aws.ToString(s.LogStreamName)}
		if s.LastEventTimestamp != nil {
			t := time.UnixMilli(*s.LastEventTimestamp).UTC()
			stream.LastEventTime = &t
		}
		streams = append(streams, stream)
	}
	return streams, nil
}

// GetLogEvents returns the events of one stream, oldest first.
func (r *Reader) GetLogEvents(ctx context.Context, logGroupName, streamName string, limit int32) ([]LogEvent, error) {
	input := &cloudwatchlogs.GetLogEventsInput{
		LogGroupName:  aws.String(logGroupName),
		LogStreamName: aws.String(streamName),
		StartFromHead: aws.Bool(true),
	}
	if limit > 0 {
		input.Limit = aws.Int32(limit)
	}

	out, err := r.logs.GetLogEvents(ctx, input)
	if err != nil {
		return nil, awserr.Classify(serviceName, "GetLogEvents", logGroupName+"/"+streamName, err)
	}

	events := make([]LogEvent, 0, len(out.Events))
	for _, e := range out.Events {
		events = append(events, LogEvent{
			Timestamp: time.UnixMilli(aws.ToInt64(e.Timestamp)).UTC(),
			Message:   aws.ToString(e.Message),
			Stream:    streamName,
		})
	}
	return events, nil
}

// FilterLogEvents searches a log group across streams with a filter
// pattern between start and end.
func (r *Reader) FilterLogEvents(ctx context.Context, logGroupName, pattern string, start, end time.Time, limit int32) ([]LogEvent, error) {
	input := &cloudwatchlogs.FilterLogEventsInput{
		LogGroupName: aws.String(logGroupName),
	}
	if pattern != "" {
		input.FilterPattern = aws.String(pattern)
	}
	if !start.IsZero() {
		input.StartTime = aws.Int64(start.UnixMilli())
	}
	if !end.IsZero() {
		input.EndTime = aws.Int64(end.UnixMilli())
	}
	if limit > 0 {
		input.Limit = aws.Int32(limit)
	}

	out, err := r.logs.FilterLogEvents(ctx, input)
	if err != nil {
		return nil, awserr.Classify(serviceName, "FilterLogEvents", logGroupName, err)
	}

	events := make([]LogEvent, 0, len(out.Events))
	for _, e := range out.Events {
		events = append(events, LogEvent{
			Timestamp: time.UnixMilli(aws.ToInt64(e.Timestamp)).UTC(),
			Message:   aws.ToString(e.Message),
			Stream:    aws.ToString(e.LogStreamName),
		})
	}
	return events, nil
}

// RecentLogs returns the events of a log group from the last window,
// newest first.
func (r *Reader) RecentLogs(ctx context.Context, logGroupName string, window time.Duration, limit int32) ([]LogEvent, error) {
	end := time.Now()
	start := end.Add(-window)

	events, err := r.FilterLogEvents(ctx, logGroupName, "", start, end, limit)
	if err != nil {
		return nil, err
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].Timestamp.After(events[j].Timestamp)
	})
	return events, nil
}

// ListMetrics returns metrics in a namespace, or across all namespaces
// when empty.
func (r *Reader) ListMetrics(ctx context.Context, namespace string) ([]Metric, error) {
	input := &cloudwatch.ListMetricsInput{}
	if namespace != "" {
		input.Namespace = aws.String(namespace)
	}

	paginator := cloudwatch.NewListMetricsPaginator(r.api, input)

	var metrics []Metric
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, awserr.Classify(serviceName, "ListMetrics", namespace, err)
		}
		for _, m := range page.Metrics {
			metric := Metric{
				Namespace: aws.ToString(m.Namespace),
				Name:      aws.ToString(m.MetricName),
			}
			if len(m.Dimensions) > 0 {
				metric.Dimensions = make(map[string]string, len(m.Dimensions))
				for _, d := range m.Dimensions {
					metric.Dimensions[aws.ToString(d.Name)] = aws.ToString(d.Value)
				}
			}
			metrics = append(metrics, metric)
		}
	}
	return metrics, nil
}

// GetMetricStatistics returns aggregated samples of one metric between
// start and end, ordered by time. statistic is Average, Sum, Minimum,
// Maximum, or SampleCount.
func (r *Reader) GetMetricStatistics(ctx context.Context, metric Metric, start, end time.Time, period time.Duration, statistic string) ([]Datapoint, error) {
	input := &cloudwatch.GetMetricStatisticsInput{
		Namespace:  aws.String(metric.Namespace),
		MetricName: aws.String(metric.Name),
		StartTime:  aws.Time(start),
		EndTime:    aws.Time(end),
		Period:     aws.Int32(int32(period.Seconds())),
		Statistics: []cwtypes.Statistic{cwtypes.Statistic(statistic)},
	}
	for name, value := range metric.Dimensions {
		input.Dimensions = append(input.Dimensions, cwtypes.Dimension{
			Name:  aws.String(name),
			Value: aws.String(value),
		})
	}

	out, err := r.api.GetMetricStatistics(ctx, input)
	if err != nil {
		return nil, awserr.Classify(serviceName, "GetMetricStatistics", metric.Name, err)
	}

	points := make([]Datapoint, 0, len(out.Datapoints))
	for _, d := range out.Datapoints {
		point := Datapoint{
			Timestamp: aws.ToTime(d.Timestamp),
			Unit:      string(d.Unit),
		}
		switch cwtypes.Statistic(statistic) {
		case cwtypes.StatisticSum:
			point.Value = aws.ToFloat64(d.Sum)
		case cwtypes.StatisticMinimum:
			point.Value = aws.ToFloat64(d.Minimum)
		case cwtypes.StatisticMaximum:
			point.Value = aws.ToFloat64(d.Maximum)
		case cwtypes.StatisticSampleCount:
			point.Value = aws.ToFloat64(d.SampleCount)
		default:
			point.Value = aws.ToFloat64(d.Average)
		}
		points = append(points, point)
	}

	sort.Slice(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})
	return points, nil
}

// ListAlarms returns metric alarms, optionally filtered by state (OK,
// ALARM, or INSUFFICIENT_DATA).
func (r *Reader) ListAlarms(ctx context.Context, stateFilter string) ([]Alarm, error) {
	input := &cloudwatch.DescribeAlarmsInput{}
	if stateFilter != "" {
		input.StateValue = cwtypes.StateValue(stateFilter)
	}

	paginator := cloudwatch.NewDescribeAlarmsPaginator(r.api, input)

	var alarms []Alarm
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, awserr.Classify(serviceName, "ListAlarms", stateFilter, err)
		}
		for _, a := range page.MetricAlarms {
			alarms = append(alarms, Alarm{
				Name:        aws.ToString(a.AlarmName),
				State:       string(a.StateValue),
				MetricName:  aws.ToString(a.MetricName),
				Namespace:   aws.ToString(a.Namespace),
				Description: aws.ToString(a.AlarmDescription),
				Reason:      aws.ToString(a.StateReason),
			})
		}
	}
	return alarms, nil
}
