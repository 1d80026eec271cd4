// Package ec2 wraps the compute service: instance discovery and
// lifecycle, security groups, key pairs, and VPC topology.
package ec2

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/rs/zerolog"

	"github.com/arguslabs/argus/internal/logging"
	"github.com/arguslabs/argus/pkg/awserr"
)

const serviceName = "ec2"

// InstanceFilter narrows ListInstances. Zero value lists everything.
type InstanceFilter struct {
	State string
	Name  string
	Tags  map[string]string
}

// Reader reads instances, security groups, key pairs, and network
// topology.
type Reader struct {
	api API
	log zerolog.Logger
}

// NewReader returns a Reader over the given EC2 API.
func NewReader(api API) *Reader {
	return &Reader{api: api, log: logging.For(serviceName)}
}

// ListInstances returns instances matching the filter.
func (r *Reader) ListInstances(ctx context.Context, filter InstanceFilter) ([]Instance, error) {
	var filters []types.Filter
	if filter.State != "" {
		filters = append(filters, types.Filter{
			Name:   aws.String("instance-state-name"),
			Values: []string{filter.State},
		})
	}
	if filter.Name != "" {
		filters = append(filters, types.Filter{
			Name:   aws.String("tag:Name"),
			Values: []string{"*" + filter.Name + "*"},
		})
	}
	for key, value := range filter.Tags {
		filters = append(filters, types.Filter{
			Name:   aws.String("tag:" + key),
			Values: []string{value},
		})
	}

	paginator := ec2.NewDescribeInstancesPaginator(r.api, &ec2.DescribeInstancesInput{
		Filters: filters,
	})

	var instances []Instance
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, awserr.Classify(serviceName, "ListInstances", "", err)
		}
		for _, reservation := range page.Reservations {
			for _, inst := range reservation.Instances {
				instances = append(instances, instanceFromSDK(inst))
			}
		}
	}

	r.log.Debug().Int("count", len(instances)).Msg("listed instances")
	return instances, nil
}

// GetInstance returns one instance by ID, or by Name tag when the
// argument does not look like an instance ID.
func (r *Reader) GetInstance(ctx context.Context, nameOrID string) (*Instance, error) {
	input := &ec2.DescribeInstancesInput{}
	if strings.HasPrefix(nameOrID, "i-") {
		input.InstanceIds = []string{nameOrID}
	} else {
		input.Filters = []types.Filter{
			{
				Name:   aws.String("tag:Name"),
				Values: []string{nameOrID},
			},
		}
	}

	out, err := r.api.DescribeInstances(ctx, input)
	if err != nil {
		return nil, awserr.Classify(serviceName, "GetInstance", nameOrID, err)
	}
	if len(out.Reservations) == 0 || len(out.Reservations[0].Instances) == 0 {
		return nil, awserr.NewNotFound(serviceName, "GetInstance", nameOrID)
	}

	instance := instanceFromSDK(out.Reservations[0].Instances[0])
	return &instance, nil
}

// GetInstanceStatus returns the status checks of one instance.
func (r *Reader) GetInstanceStatus(ctx context.Context, instanceID string) (*InstanceStatus, error) {
	out, err := r.api.DescribeInstanceStatus(ctx, &ec2.DescribeInstanceStatusInput{
		InstanceIds:         []string{instanceID},
		IncludeAllInstances: aws.Bool(true),
	})
	if err != nil {
		return nil, awserr.Classify(serviceName, "GetInstanceStatus", instanceID, err)
	}
	if len(out.InstanceStatuses) == 0 {
		return nil, awserr.NewNotFound(serviceName, "GetInstanceStatus", instanceID)
	}

	s := out.InstanceStatuses[0]
	status := &InstanceStatus{InstanceID: aws.ToString(s.InstanceId)}
	if s.InstanceState != nil {
		status.State = string(s.InstanceState.Name)
	}
	if s.SystemStatus != nil {
		status.SystemStatus = string(s.SystemStatus.Status)
	}
	if s.InstanceStatus != nil {
		status.InstanceStatus = string(s.InstanceStatus.Status)
	}
	return status, nil
}

// ListSecurityGroups returns security groups, optionally narrowed to
// one VPC.
func (r *Reader) ListSecurityGroups(ctx context.Context, vpcID string) ([]SecurityGroup, error) {
	input := &ec2.DescribeSecurityGroupsInput{}
	if vpcID != "" {
		input.Filters = []types.Filter{
			{
				Name:   aws.String("vpc-id"),
				Values: []string{vpcID},
			},
		}
	}

	paginator := ec2.NewDescribeSecurityGroupsPaginator(r.api, input)

	var groups []SecurityGroup
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, awserr.Classify(serviceName, "ListSecurityGroups", vpcID, err)
		}
		for _, g := range page.SecurityGroups {
			groups = append(groups, SecurityGroup{
				ID:          aws.ToString(g.GroupId),
				Name:        aws.ToString(g.GroupName),
				Description: aws.ToString(g.Description),
				VPCID:       aws.ToString(g.VpcId),
				RuleCount:   len(g.IpPermissions) + len(g.IpPermissionsEgress),
			})
		}
	}
	return groups, nil
}

// ListKeyPairs returns every key pair in the region.
func (r *Reader) ListKeyPairs(ctx context.Context) ([]KeyPair, error) {
	out, err := r.api.DescribeKeyPairs(ctx, &ec2.DescribeKeyPairsInput{})
	if err != nil {
		return nil, awserr.Classify(serviceName, "ListKeyPairs", "", err)
	}

	pairs := make([]KeyPair, 0, len(out.KeyPairs))
	for _, k := range out.KeyPairs {
		pairs = append(pairs, KeyPair{
			Name:        aws.ToString(k.KeyName),
			ID:          aws.ToString(k.KeyPairId),
			Fingerprint: aws.ToString(k.KeyFingerprint),
		})
	}
	return pairs, nil
}

// ListVPCs returns every VPC in the region.
func (r *Reader) ListVPCs(ctx context.Context) ([]VPC, error) {
	paginator := ec2.NewDescribeVpcsPaginator(r.api, &ec2.DescribeVpcsInput{})

	var vpcs []VPC
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, awserr.Classify(serviceName, "ListVPCs", "", err)
		}
		for _, v := range page.Vpcs {
			vpcs = append(vpcs, VPC{
				ID:        aws.ToString(v.VpcId),
				CIDR:      aws.ToString(v.CidrBlock),
				State:     string(v.State),
				IsDefault: aws.ToBool(v.IsDefault),
				Tags:      tagMap(v.Tags),
			})
		}
	}
	return vpcs, nil
}

// ListSubnets returns the subnets of a VPC, or all subnets when vpcID
// is empty.
func (r *Reader) ListSubnets(ctx context.Context, vpcID string) ([]Subnet, error) {
	input := &ec2.DescribeSubnetsInput{}
	if vpcID != "" {
		input.Filters = []types.Filter{
			{
				Name:   aws.String("vpc-id"),
				Values: []string{vpcID},
			},
		}
	}

	paginator := ec2.NewDescribeSubnetsPaginator(r.api, input)

	var subnets []Subnet
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, awserr.Classify(serviceName, "ListSubnets", vpcID, err)
		}
		for _, s := range page.Subnets {
			subnets = append(subnets, Subnet{
				ID:           aws.ToString(s.SubnetId),
				VPCID:        aws.ToString(s.VpcId),
				CIDR:         aws.ToString(s.CidrBlock),
				Zone:         aws.ToString(s.AvailabilityZone),
				AvailableIPs: aws.ToInt32(s.AvailableIpAddressCount),
			})
		}
	}
	return subnets, nil
}

func instanceFromSDK(i types.Instance) Instance {
	inst := Instance{
		ID:         aws.ToString(i.InstanceId),
		Type:       string(i.InstanceType),
		PrivateIP:  aws.ToString(i.PrivateIpAddress),
		PublicIP:   aws.ToString(i.PublicIpAddress),
		VPCID:      aws.ToString(i.VpcId),
		SubnetID:   aws.ToString(i.SubnetId),
		KeyName:    aws.ToString(i.KeyName),
		LaunchedAt: i.LaunchTime,
		Tags:       tagMap(i.Tags),
	}
	if i.State != nil {
		inst.State = string(i.State.Name)
	}
	if i.Placement != nil {
		inst.Zone = aws.ToString(i.Placement.AvailabilityZone)
	}
	inst.Name = inst.Tags["Name"]
	return inst
}

func tagMap(tags []types.Tag) map[string]string {
	if len(tags) == 0 {
		return nil
	}
	m := make(map[string]string, len(tags))
	for _, t := range tags {
		m[aws.ToString(t.Key)] = aws.ToString(t.Value)
	}
	return m
}
