package eks

import "time"

// Cluster summarizes one EKS cluster.
type Cluster struct {
	Name      string     `json:"cluster_name"`
	ARN       string     `json:"cluster_arn"`
	Version   string     `json:"kubernetes_version"`
	Status    string     `json:"status"`
	Endpoint  string     `json:"endpoint,omitempty"`
	RoleARN   string     `json:"role_arn,omitempty"`
	VPCID     string     `json:"vpc_id,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// Nodegroup summarizes one managed nodegroup.
type Nodegroup struct {
	Name          string   `json:"nodegroup_name"`
	ARN           string   `json:"nodegroup_arn"`
	ClusterName   string   `json:"cluster_name"`
	Status        string   `json:"status"`
	InstanceTypes []string `json:"instance_types,omitempty"`
	DesiredSize   int32    `json:"desired_size"`
	MinSize       int32    `json:"min_size"`
	MaxSize       int32    `json:"max_size"`
	AMIType       string   `json:"ami_type,omitempty"`
	CapacityType  string   `json:"capacity_type,omitempty"`
}

// NodegroupDetail is a nodegroup plus its backing Auto Scaling groups.
type NodegroupDetail struct {
	Nodegroup
	AutoScalingGroups []BackingASG `json:"auto_scaling_groups,omitempty"`
}

// BackingASG is the live state of one Auto Scaling group behind a
// nodegroup.
type BackingASG struct {
	Name            string `json:"asg_name"`
	DesiredCapacity int32  `json:"desired_capacity"`
	MinSize         int32  `json:"min_size"`
	MaxSize         int32  `json:"max_size"`
	InService       int    `json:"in_service_instances"`
}

// Addon summarizes one cluster addon.
type Addon struct {
	Name    string `json:"addon_name"`
	Version string `json:"addon_version"`
	Status  string `json:"status"`
}
