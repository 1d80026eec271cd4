package ecs

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	"github.com/aws/aws-sdk-go-v2/service/ecs/types"
	"github.com/rs/zerolog"

	"github.com/arguslabs/argus/internal/logging"
	"github.com/arguslabs/argus/pkg/awserr"
)

// ContainerDef declares one container of a task definition.
type ContainerDef struct {
	Name         string
	Image        string
	CPU          int32
	MemoryMB     int32
	Essential    bool
	PortMappings []PortMapping
	Environment  map[string]string
}

// PortMapping exposes one container port.
type PortMapping struct {
	ContainerPort int32
	HostPort      int32
	Protocol      string
}

// CreateServiceOptions carries the optional settings for CreateService.
type CreateServiceOptions struct {
	LaunchType     string
	Subnets        []string
	SecurityGroups []string
	AssignPublicIP bool
}

// Writer creates and mutates clusters, services, and tasks.
type Writer struct {
	api API
	log zerolog.Logger
}

// NewWriter returns a Writer over the given ECS API.
func NewWriter(api API) *Writer {
	return &Writer{api: api, log: logging.For(serviceName)}
}

// CreateCluster creates a cluster.
func (w *Writer) CreateCluster(ctx context.Context, clusterName string, tags map[string]string) (*Cluster, error) {
	input := &ecs.CreateClusterInput{ClusterName: aws.String(clusterName)}
	for k, v := range tags {
		input.Tags = append(input.Tags, types.Tag{Key: aws.String(k), Value: aws.String(v)})
	}

	out, err := w.api.CreateCluster(ctx, input)
	if err != nil {
		return nil, awserr.Classify(serviceName, "CreateCluster", clusterName, err)
	}

	w.log.Info().Str("cluster", clusterName).Msg("created cluster")
	cluster := clusterFromSDK(*out.Cluster)
	return &cluster, nil
}

// DeleteCluster removes an empty cluster.
func (w *Writer) DeleteCluster(ctx context.Context, clusterName string) error {
	if _, err := w.api.DeleteCluster(ctx, &ecs.DeleteClusterInput{
		Cluster: aws.String(clusterName),
	}); err != nil {
		return awserr.Classify(serviceName, "DeleteCluster", clusterName, err)
	}

	w.log.Info().Str("cluster", clusterName).Msg("deleted cluster")
	return nil
}

// CreateService creates a service running desiredCount copies of a task
// definition.
func (w *Writer) CreateService(ctx context.Context, clusterName, svcName, taskDefinition string, desiredCount int32, opts CreateServiceOptions) (*Service, error) {
	input := &ecs.CreateServiceInput{
		ServiceName:    aws.String(svcName),
		TaskDefinition: aws.String(taskDefinition),
		DesiredCount:   aws.Int32(desiredCount),
	}
	if clusterName != "" {
		input.Cluster = aws.String(clusterName)
	}
	if opts.LaunchType != "" {
		input.LaunchType = types.LaunchType(opts.LaunchType)
	}
	if len(opts.Subnets) > 0 {
		assign := types.AssignPublicIpDisabled
		if opts.AssignPublicIP {
			assign = types.AssignPublicIpEnabled
		}
		input.NetworkConfiguration = &types.NetworkConfiguration{
			AwsvpcConfiguration: &types.AwsVpcConfiguration{
				Subnets:        opts.Subnets,
				SecurityGroups: opts.SecurityGroups,
				AssignPublicIp: assign,
			},
		}
	}

	out, err := w.api.CreateService(ctx, input)
	if err != nil {
		return nil, awserr.Classify(serviceName, "CreateService", svcName, err)
	}

	w.log.Info().
		Str("cluster", clusterName).
		Str("service", svcName).
		Int32("desired", desiredCount).
		Msg("created service")
	service := serviceFromSDK(*out.Service)
	return &service, nil
}

// UpdateService changes the desired count or task definition of a
// service. Pass a negative desiredCount or empty taskDefinition to
// leave them unchanged.
func (w *Writer) UpdateService(ctx context.Context, clusterName, svcName string, desiredCount int32, taskDefinition string) (*Service, error) {
	input := &ecs.UpdateServiceInput{Service: aws.String(svcName)}
	if clusterName != "" {
		input.Cluster = aws.String(clusterName)
	}
	if desiredCount >= 0 {
		input.DesiredCount = aws.Int32(desiredCount)
	}
	if taskDefinition != "" {
		input.TaskDefinition = aws.String(taskDefinition)
	}

	out, err := w.api.UpdateService(ctx, input)
	if err != nil {
		return nil, awserr.Classify(serviceName, "UpdateService", svcName, err)
	}

	w.log.Info().Str("cluster", clusterName).Str("service", svcName).Msg("updated service")
	service := serviceFromSDK(*out.Service)
	return &service, nil
}

// DeleteService removes a service. force deletes it even with running
// tasks.
func (w *Writer) DeleteService(ctx context.Context, clusterName, svcName string, force bool) error {
	input := &ecs.DeleteServiceInput{
		Service: aws.String(svcName),
		Force:   aws.Bool(force),
	}
	if clusterName != "" {
		input.Cluster = aws.String(clusterName)
	}

	if _, err := w.api.DeleteService(ctx, input); err != nil {
		return awserr.Classify(serviceName, "DeleteService", svcName, err)
	}

	w.log.Info().Str("cluster", clusterName).Str("service", svcName).Msg("deleted service")
	return nil
}

// RegisterTaskDefinition registers a new task definition revision and
// returns its ARN.
func (w *Writer) RegisterTaskDefinition(ctx context.Context, family string, containers []ContainerDef, cpu, memory string) (string, error) {
	input := &ecs.RegisterTaskDefinitionInput{
		Family: aws.String(family),
	}
	if cpu != "" {
		input.Cpu = aws.String(cpu)
	}
	if memory != "" {
		input.Memory = aws.String(memory)
	}
	for _, c := range containers {
		def := types.ContainerDefinition{
			Name:      aws.String(c.Name),
			Image:     aws.String(c.Image),
			Cpu:       c.CPU,
			Essential: aws.Bool(c.Essential),
		}
		if c.MemoryMB > 0 {
			def.Memory = aws.Int32(c.MemoryMB)
		}
		for _, p := range c.PortMappings {
			pm := types.PortMapping{
				ContainerPort: aws.Int32(p.ContainerPort),
				Protocol:      types.TransportProtocol(p.Protocol),
			}
			if p.HostPort > 0 {
				pm.HostPort = aws.Int32(p.HostPort)
			}
			def.PortMappings = append(def.PortMappings, pm)
		}
		for k, v := range c.Environment {
			def.Environment = append(def.Environment, types.KeyValuePair{
				Name:  aws.String(k),
				Value: aws.String(v),
			})
		}
		input.ContainerDefinitions = append(input.ContainerDefinitions, def)
	}

	out, err := w.api.RegisterTaskDefinition(ctx, input)
	if err != nil {
		return "", awserr.Classify(serviceName, "RegisterTaskDefinition", family, err)
	}

	arn := aws.ToString(out.TaskDefinition.TaskDefinitionArn)
	w.log.Info().Str("family", family).Str("arn", arn).Msg("registered task definition")
	return arn, nil
}

// RunTask starts count standalone tasks from a task definition.
func (w *Writer) RunTask(ctx context.Context, clusterName, taskDefinition string, count int32) ([]Task, error) {
	input := &ecs.RunTaskInput{
		TaskDefinition: aws.String(taskDefinition),
		Count:          aws.Int32(count),
	}
	if clusterName != "" {
		input.Cluster = aws.String(clusterName)
	}

	out, err := w.api.RunTask(ctx, input)
	if err != nil {
		return nil, awserr.Classify(serviceName, "RunTask", taskDefinition, err)
	}

	tasks := make([]Task, 0, len(out.Tasks))
	for _, t := range out.Tasks {
		tasks = append(tasks, taskFromSDK(t))
	}

	w.log.Info().Str("task_definition", taskDefinition).Int("started", len(tasks)).Msg("ran task")
	return tasks, nil
}

// StopTask stops one running task.
func (w *Writer) StopTask(ctx context.Context, clusterName, taskARN, reason string) error {
	input := &ecs.StopTaskInput{Task: aws.String(taskARN)}
	if clusterName != "" {
		input.Cluster = aws.String(clusterName)
	}
	if reason != "" {
		input.Reason = aws.String(reason)
	}

	if _, err := w.api.StopTask(ctx, input); err != nil {
		return awserr.Classify(serviceName, "StopTask", taskARN, err)
	}

	w.log.Info().Str("task", taskARN).Msg("stopped task")
	return nil
}
