// Package ecs wraps the container orchestrator: cluster, service, and
// task discovery, target-group health behind services, and cluster,
// service, and task lifecycle operations.
package ecs

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	"github.com/aws/aws-sdk-go-v2/service/ecs/types"
	elbv2 "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	"github.com/rs/zerolog"

	"github.com/arguslabs/argus/internal/logging"
	"github.com/arguslabs/argus/pkg/awserr"
)

const serviceName = "ecs"

// Reader reads clusters, services, and tasks. health is optional; when
// nil, DescribeService omits target health.
type Reader struct {
	api    API
	health HealthAPI
	log    zerolog.Logger
}

// NewReader returns a Reader over the given ECS API. Pass a HealthAPI
// to include load balancer target health in service descriptions, or
// nil to skip it.
func NewReader(api API, health HealthAPI) *Reader {
	return &Reader{api: api, health: health, log: logging.For(serviceName)}
}

// ListClusters returns every cluster in the region.
func (r *Reader) ListClusters(ctx context.Context) ([]Cluster, error) {
	paginator := ecs.NewListClustersPaginator(r.api, &ecs.ListClustersInput{})

	var arns []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, awserr.Classify(serviceName, "ListClusters", "", err)
		}
		arns = append(arns, page.ClusterArns...)
	}
	if len(arns) == 0 {
		return nil, nil
	}

	out, err := r.api.DescribeClusters(ctx, &ecs.DescribeClustersInput{Clusters: arns})
	if err != nil {
		return nil, awserr.Classify(serviceName, "ListClusters", "", err)
	}

	clusters := make([]Cluster, 0, len(out.Clusters))
	for _, c := range out.Clusters {
		clusters = append(clusters, clusterFromSDK(c))
	}

	r.log.Debug().Int("count", len(clusters)).Msg("listed clusters")
	return clusters, nil
}

// DescribeCluster returns one cluster by name or ARN.
func (r *Reader) DescribeCluster(ctx context.Context, clusterName string) (*Cluster, error) {
	out, err := r.api.DescribeClusters(ctx, &ecs.DescribeClustersInput{
		Clusters: []string{clusterName},
	})
	if err != nil {
		return nil, awserr.Classify(serviceName, "DescribeCluster", clusterName, err)
	}
	if len(out.Clusters) == 0 {
		return nil, awserr.NewNotFound(serviceName, "DescribeCluster", clusterName)
	}

	cluster := clusterFromSDK(out.Clusters[0])
	return &cluster, nil
}

// ListServices returns the services of a cluster.
func (r *Reader) ListServices(ctx context.Context, clusterName string) ([]Service, error) {
	input := &ecs.ListServicesInput{}
	if clusterName != "" {
		input.Cluster = aws.String(clusterName)
	}

	paginator := ecs.NewListServicesPaginator(r.api, input)

	var arns []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, awserr.Classify(serviceName, "ListServices", clusterName, err)
		}
		arns = append(arns, page.ServiceArns...)
	}
	if len(arns) == 0 {
		return nil, nil
	}

	out, err := r.api.DescribeServices(ctx, &ecs.DescribeServicesInput{
		Cluster:  input.Cluster,
		Services: arns,
	})
	if err != nil {
		return nil, awserr.Classify(serviceName, "ListServices", clusterName, err)
	}

	services := make([]Service, 0, len(out.Services))
	for _, s := range out.Services {
		services = append(services, serviceFromSDK(s))
	}
	return services, nil
}

// DescribeService returns one service, including the health of its
// attached load balancer targets when a HealthAPI was provided.
func (r *Reader) DescribeService(ctx context.Context, clusterName, svcName string) (*ServiceDetail, error) {
	input := &ecs.DescribeServicesInput{Services: []string{svcName}}
	if clusterName != "" {
		input.Cluster = aws.String(clusterName)
	}

	out, err := r.api.DescribeServices(ctx, input)
	if err != nil {
		return nil, awserr.Classify(serviceName, "DescribeService", svcName, err)
	}
	if len(out.Services) == 0 {
		return nil, awserr.NewNotFound(serviceName, "DescribeService", svcName)
	}

	sdk := out.Services[0]
	detail := &ServiceDetail{Service: serviceFromSDK(sdk)}

	if r.health != nil {
		for _, lb := range sdk.LoadBalancers {
			if lb.TargetGroupArn == nil {
				continue
			}
			health, err := r.targetHealth(ctx, aws.ToString(lb.TargetGroupArn))
			if err != nil {
				return nil, err
			}
			detail.TargetHealth = append(detail.TargetHealth, health...)
		}
	}
	return detail, nil
}

func (r *Reader) targetHealth(ctx context.Context, targetGroupARN string) ([]TargetHealth, error) {
	out, err := r.health.DescribeTargetHealth(ctx, &elbv2.DescribeTargetHealthInput{
		TargetGroupArn: aws.String(targetGroupARN),
	})
	if err != nil {
		return nil, awserr.Classify(serviceName, "DescribeTargetHealth", targetGroupARN, err)
	}

	health := make([]TargetHealth, 0, len(out.TargetHealthDescriptions))
	for _, d := range out.TargetHealthDescriptions {
		h := TargetHealth{TargetGroupARN: targetGroupARN}
		if d.Target != nil {
			h.TargetID = aws.ToString(d.Target.Id)
			h.Port = aws.ToInt32(d.Target.Port)
		}
		if d.TargetHealth != nil {
			h.State = string(d.TargetHealth.State)
			h.Reason = string(d.TargetHealth.Reason)
		}
		health = append(health, h)
	}
	return health, nil
}

// ListTasks returns the tasks of a cluster, optionally narrowed to one
// service.
func (r *Reader) ListTasks(ctx context.Context, clusterName, svcName string) ([]Task, error) {
	input := &ecs.ListTasksInput{}
	if clusterName != "" {
		input.Cluster = aws.String(clusterName)
	}
	if svcName != "" {
		input.ServiceName = aws.String(svcName)
	}

	paginator := ecs.NewListTasksPaginator(r.api, input)

	var arns []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, awserr.Classify(serviceName, "ListTasks", clusterName, err)
		}
		arns = append(arns, page.TaskArns...)
	}
	if len(arns) == 0 {
		return nil, nil
	}

	out, err := r.api.DescribeTasks(ctx, &ecs.DescribeTasksInput{
		Cluster: input.Cluster,
		Tasks:   arns,
	})
	if err != nil {
		return nil, awserr.Classify(serviceName, "ListTasks", clusterName, err)
	}

	tasks := make([]Task, 0, len(out.Tasks))
	for _, t := range out.Tasks {
		tasks = append(tasks, taskFromSDK(t))
	}
	return tasks, nil
}

// DescribeTask returns one task by ARN.
func (r *Reader) DescribeTask(ctx context.Context, clusterName, taskARN string) (*Task, error) {
	input := &ecs.DescribeTasksInput{Tasks: []string{taskARN}}
	if clusterName != "" {
		input.Cluster = aws.String(clusterName)
	}

	out, err := r.api.DescribeTasks(ctx, input)
	if err != nil {
		return nil, awserr.Classify(serviceName, "DescribeTask", taskARN, err)
	}
	if len(out.Tasks) == 0 {
		return nil, awserr.NewNotFound(serviceName, "DescribeTask", taskARN)
	}

	task := taskFromSDK(out.Tasks[0])
	return &task, nil
}

// ListTaskDefinitions returns task definition ARNs, optionally filtered
// by family prefix.
func (r *Reader) ListTaskDefinitions(ctx context.Context, familyPrefix string) ([]string, error) {
	input := &ecs.ListTaskDefinitionsInput{}
	if familyPrefix != "" {
		input.FamilyPrefix = aws.String(familyPrefix)
	}

	paginator := ecs.NewListTaskDefinitionsPaginator(r.api, input)

	var arns []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, awserr.Classify(serviceName, "ListTaskDefinitions", familyPrefix, err)
		}
		arns = append(arns, page.TaskDefinitionArns...)
	}
	return arns, nil
}

func clusterFromSDK(c types.Cluster) Cluster {
	return Cluster{
		Name:                aws.ToString(c.ClusterName),
		ARN:                 aws.ToString(c.ClusterArn),
		Status:              aws.ToString(c.Status),
		ActiveServices:      c.ActiveServicesCount,
		RunningTasks:        c.RunningTasksCount,
		PendingTasks:        c.PendingTasksCount,
		RegisteredInstances: c.RegisteredContainerInstancesCount,
	}
}

func serviceFromSDK(s types.Service) Service {
	return Service{
		Name:           aws.ToString(s.ServiceName),
		ARN:            aws.ToString(s.ServiceArn),
		ClusterARN:     aws.ToString(s.ClusterArn),
		Status:         aws.ToString(s.Status),
		TaskDefinition: aws.ToString(s.TaskDefinition),
		DesiredCount:   s.DesiredCount,
		RunningCount:   s.RunningCount,
		PendingCount:   s.PendingCount,
		LaunchType:     string(s.LaunchType),
		CreatedAt:      s.CreatedAt,
	}
}

func taskFromSDK(t types.Task) Task {
	return Task{
		ARN:               aws.ToString(t.TaskArn),
		TaskDefinitionARN: aws.ToString(t.TaskDefinitionArn),
		ClusterARN:        aws.ToString(t.ClusterArn),
		LastStatus:        aws.ToString(t.LastStatus),
		DesiredStatus:     aws.ToString(t.DesiredStatus),
		LaunchType:        string(t.LaunchType),
		StartedAt:         t.StartedAt,
		StoppedReason:     aws.ToString(t.StoppedReason),
	}
}
