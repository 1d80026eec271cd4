// Package eks wraps the managed Kubernetes service: cluster, nodegroup,
// and addon discovery, the Auto Scaling groups backing nodegroups, and
// lifecycle operations.
package eks

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/autoscaling"
	"github.com/aws/aws-sdk-go-v2/service/eks"
	"github.com/aws/aws-sdk-go-v2/service/eks/types"
	"github.com/rs/zerolog"

	"github.com/arguslabs/argus/internal/logging"
	"github.com/arguslabs/argus/pkg/awserr"
)

const serviceName = "eks"

// Reader reads clusters, nodegroups, and addons. scaling is optional;
// when nil, DescribeNodegroup omits the backing Auto Scaling groups.
type Reader struct {
	api     API
	scaling ScalingAPI
	log     zerolog.Logger
}

// NewReader returns a Reader over the given EKS API. Pass a ScalingAPI
// to resolve the Auto Scaling groups behind nodegroups, or nil to skip
// them.
func NewReader(api API, scaling ScalingAPI) *Reader {
	return &Reader{api: api, scaling: scaling, log: logging.For(serviceName)}
}

// ListClusters returns every cluster name in the region.
func (r *Reader) ListClusters(ctx context.Context) ([]string, error) {
	paginator := eks.NewListClustersPaginator(r.api, &eks.ListClustersInput{})

	var names []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, awserr.Classify(serviceName, "ListClusters", "", err)
		}
		names = append(names, page.Clusters...)
	}

	r.log.Debug().Int("count", len(names)).Msg("listed clusters")
	return names, nil
}

// DescribeCluster returns one cluster by name.
func (r *Reader) DescribeCluster(ctx context.Context, clusterName string) (*Cluster, error) {
	out, err := r.api.DescribeCluster(ctx, &eks.DescribeClusterInput{
		Name: aws.String(clusterName),
	})
	if err != nil {
		return nil, awserr.Classify(serviceName, "DescribeCluster", clusterName, err)
	}

	c := out.Cluster
	cluster := &Cluster{
		Name:      aws.ToString(c.Name),
		ARN:       aws.ToString(c.Arn),
		Version:   aws.ToString(c.Version),
		Status:    string(c.Status),
		Endpoint:  aws.ToString(c.Endpoint),
		RoleARN:   aws.ToString(c.RoleArn),
		CreatedAt: c.CreatedAt,
	}
	if c.ResourcesVpcConfig != nil {
		cluster.VPCID = aws.ToString(c.ResourcesVpcConfig.VpcId)
	}
	return cluster, nil
}

// ListNodegroups returns the nodegroup names of a cluster.
func (r *Reader) ListNodegroups(ctx context.Context, clusterName string) ([]string, error) {
	paginator := eks.NewListNodegroupsPaginator(r.api, &eks.ListNodegroupsInput{
		ClusterName: aws.String(clusterName),
	})

	var names []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, awserr.Classify(serviceName, "ListNodegroups", clusterName, err)
		}
		names = append(names, page.Nodegroups...)
	}
	return names, nil
}

// DescribeNodegroup returns one nodegroup, including the live state of
// its backing Auto Scaling groups when a ScalingAPI was provided.
func (r *Reader) DescribeNodegroup(ctx context.Context, clusterName, nodegroupName string) (*NodegroupDetail, error) {
	out, err := r.api.DescribeNodegroup(ctx, &eks.DescribeNodegroupInput{
		ClusterName:   aws.String(clusterName),
		NodegroupName: aws.String(nodegroupName),
	})
	if err != nil {
		return nil, awserr.Classify(serviceName, "DescribeNodegroup", nodegroupName, err)
	}

	ng := out.Nodegroup
	detail := &NodegroupDetail{Nodegroup: nodegroupFromSDK(ng)}

	if r.scaling != nil && ng.Resources != nil && len(ng.Resources.AutoScalingGroups) > 0 {
		var names []string
		for _, g := range ng.Resources.AutoScalingGroups {
			if g.Name != nil {
				names = append(names, *g.Name)
			}
		}
		asgs, err := r.backingASGs(ctx, names)
		if err != nil {
			return nil, err
		}
		detail.AutoScalingGroups = asgs
	}
	return detail, nil
}

func (r *Reader) backingASGs(ctx context.Context, names []string) ([]BackingASG, error) {
	out, err := r.scaling.DescribeAutoScalingGroups(ctx, &autoscaling.DescribeAutoScalingGroupsInput{
		AutoScalingGroupNames: names,
	})
	if err != nil {
		return nil, awserr.Classify(serviceName, "DescribeAutoScalingGroups", "", err)
	}

	asgs := make([]BackingASG, 0, len(out.AutoScalingGroups))
	for _, g := range out.AutoScalingGroups {
		asg := BackingASG{
			Name:            aws.ToString(g.AutoScalingGroupName),
			DesiredCapacity: aws.ToInt32(g.DesiredCapacity),
			MinSize:         aws.ToInt32(g.MinSize),
			MaxSize:         aws.ToInt32(g.MaxSize),
		}
		for _, inst := range g.Instances {
			if string(inst.LifecycleState) == "InService" {
				asg.InService++
			}
		}
		asgs = append(asgs, asg)
	}
	return asgs, nil
}

// ListAddons returns the addon names of a cluster.
func (r *Reader) ListAddons(ctx context.Context, clusterName string) ([]string, error) {
	paginator := eks.NewListAddonsPaginator(r.api, &eks.ListAddonsInput{
		ClusterName: aws.String(clusterName),
	})

	var names []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, awserr.Classify(serviceName, "ListAddons", clusterName, err)
		}
		names = append(names, page.Addons...)
	}
	return names, nil
}

// DescribeAddon returns one addon of a cluster.
func (r *Reader) DescribeAddon(ctx context.Context, clusterName, addonName string) (*Addon, error) {
	out, err := r.api.DescribeAddon(ctx, &eks.DescribeAddonInput{
		ClusterName: aws.String(clusterName),
		AddonName:   aws.String(addonName),
	})
	if err != nil {
		return nil, awserr.Classify(serviceName, "DescribeAddon", addonName, err)
	}

	a := out.Addon
	return &Addon{
		Name:    aws.ToString(a.AddonName),
		Version: aws.ToString(a.AddonVersion),
		Status:  string(a.Status),
	}, nil
}

// ListFargateProfiles returns the Fargate profile names of a cluster.
func (r *Reader) ListFargateProfiles(ctx context.Context, clusterName string) ([]string, error) {
	paginator := eks.NewListFargateProfilesPaginator(r.api, &eks.ListFargateProfilesInput{
		ClusterName: aws.String(clusterName),
	})

	var names []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, awserr.Classify(serviceName, "ListFargateProfiles", clusterName, err)
		}
		names = append(names, page.FargateProfileNames...)
	}
	return names, nil
}

func nodegroupFromSDK(ng *types.Nodegroup) Nodegroup {
	n := Nodegroup{
		Name:          aws.ToString(ng.NodegroupName),
		ARN:           aws.ToString(ng.NodegroupArn),
		ClusterName:   aws.ToString(ng.ClusterName),
		Status:        string(ng.Status),
		InstanceTypes: ng.InstanceTypes,
		AMIType:       string(ng.AmiType),
		CapacityType:  string(ng.CapacityType),
	}
	if ng.ScalingConfig != nil {
		n.DesiredSize = aws.ToInt32(ng.ScalingConfig.DesiredSize)
		n.MinSize = aws.ToInt32(ng.ScalingConfig.MinSize)
		n.MaxSize = aws.ToInt32(ng.ScalingConfig.MaxSize)
	}
	return n
}
