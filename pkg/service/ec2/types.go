package ec2

import "time"

// Instance summarizes one EC2 instance.
type Instance struct {
	ID         string            `json:"instance_id"`
	Name       string            `json:"name,omitempty"`
	Type       string            `json:"instance_type"`
	State      string            `json:"state"`
	PrivateIP  string            `json:"private_ip,omitempty"`
	PublicIP   string            `json:"public_ip,omitempty"`
	Zone       string            `json:"availability_zone,omitempty"`
	VPCID      string            `json:"vpc_id,omitempty"`
	SubnetID   string            `json:"subnet_id,omitempty"`
	KeyName    string            `json:"key_name,omitempty"`
	LaunchedAt *time.Time        `json:"launched_at,omitempty"`
	Tags       map[string]string `json:"tags,omitempty"`
}

// InstanceStatus carries the two status checks of an instance.
type InstanceStatus struct {
	InstanceID     string `json:"instance_id"`
	State          string `json:"state"`
	SystemStatus   string `json:"system_status"`
	InstanceStatus string `json:"instance_status"`
}

// SecurityGroup summarizes one security group.
type SecurityGroup struct {
	ID          string `json:"group_id"`
	Name        string `json:"group_name"`
	Description string `json:"description,omitempty"`
	VPCID       string `json:"vpc_id,omitempty"`
	RuleCount   int    `json:"rule_count"`
}

// KeyPair summarizes one SSH key pair.
type KeyPair struct {
	Name        string `json:"key_name"`
	ID          string `json:"key_pair_id,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

// VPC summarizes one VPC.
type VPC struct {
	ID        string            `json:"vpc_id"`
	CIDR      string            `json:"cidr_block"`
	State     string            `json:"state"`
	IsDefault bool              `json:"is_default"`
	Tags      map[string]string `json:"tags,omitempty"`
}

// Subnet summarizes one subnet.
type Subnet struct {
	ID           string `json:"subnet_id"`
	VPCID        string `json:"vpc_id"`
	CIDR         string `json:"cidr_block"`
	Zone         string `json:"availability_zone"`
	AvailableIPs int32  `json:"available_ips"`
}

// IngressRule is one inbound security group rule.
type IngressRule struct {
	Protocol string
	FromPort int32
	ToPort   int32
	CIDR     string
}
