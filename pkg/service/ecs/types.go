package ecs

import "time"

// Cluster summarizes one cluster.
type Cluster struct {
	Name                string `json:"cluster_name"`
	ARN                 string `json:"cluster_arn"`
	Status              string `json:"status"`
	ActiveServices      int32  `json:"active_services"`
	RunningTasks        int32  `json:"running_tasks"`
	PendingTasks        int32  `json:"pending_tasks"`
	RegisteredInstances int32  `json:"registered_container_instances"`
}

// Service summarizes one service in a cluster.
type Service struct {
	Name           string     `json:"service_name"`
	ARN            string     `json:"service_arn"`
	ClusterARN     string     `json:"cluster_arn"`
	Status         string     `json:"status"`
	TaskDefinition string     `json:"task_definition"`
	DesiredCount   int32      `json:"desired_count"`
	RunningCount   int32      `json:"running_count"`
	PendingCount   int32      `json:"pending_count"`
	LaunchType     string     `json:"launch_type,omitempty"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
}

// ServiceDetail is a service plus the health of its attached load
// balancer targets.
type ServiceDetail struct {
	Service
	TargetHealth []TargetHealth `json:"target_health,omitempty"`
}

// TargetHealth is the health of one load balancer target.
type TargetHealth struct {
	TargetGroupARN string `json:"target_group_arn"`
	TargetID       string `json:"target_id"`
	Port           int32  `json:"port"`
	State          string `json:"state"`
	Reason         string `json:"reason,omitempty"`
}

// Task summarizes one task.
type Task struct {
	ARN               string     `json:"task_arn"`
	TaskDefinitionARN string     `json:"task_definition_arn"`
	ClusterARN        string     `json:"cluster_arn"`
	LastStatus        string     `json:"last_status"`
	DesiredStatus     string     `json:"desired_status"`
	LaunchType        string     `json:"launch_type,omitempty"`
	StartedAt         *time.Time `json:"started_at,omitempty"`
	StoppedReason     string     `json:"stopped_reason,omitempty"`
}
