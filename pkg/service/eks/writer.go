package eks

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eks"
	"github.com/aws/aws-sdk-go-v2/service/eks/types"
	"github.com/rs/zerolog"

	"github.com/arguslabs/argus/internal/logging"
	"github.com/arguslabs/argus/pkg/awserr"
)

// NodegroupSpec declares a managed nodegroup.
type NodegroupSpec struct {
	Name          string
	NodeRoleARN   string
	Subnets       []string
	InstanceTypes []string
	DesiredSize   int32
	MinSize       int32
	MaxSize       int32
}

// Writer creates and mutates clusters, nodegroups, and addons.
type Writer struct {
	api API
	log zerolog.Logger
}

// NewWriter returns a Writer over the given EKS API.
func NewWriter(api API) *Writer {
	return &Writer{api: api, log: logging.For(serviceName)}
}

// CreateCluster creates a control plane. version is optional; the
// backend picks the default Kubernetes version when empty.
func (w *Writer) CreateCluster(ctx context.Context, clusterName, roleARN string, subnets []string, version string) (*Cluster, error) {
	input := &eks.CreateClusterInput{
		Name:    aws.String(clusterName),
		RoleArn: aws.String(roleARN),
		ResourcesVpcConfig: &types.VpcConfigRequest{
			SubnetIds: subnets,
		},
	}
	if version != "" {
		input.Version = aws.String(version)
	}

	out, err := w.api.CreateCluster(ctx, input)
	if err != nil {
		return nil, awserr.Classify(serviceName, "CreateCluster", clusterName, err)
	}

	w.log.Info().Str("cluster", clusterName).Msg("created cluster")
	return &Cluster{
		Name:    aws.ToString(out.Cluster.Name),
		ARN:     aws.ToString(out.Cluster.Arn),
		Version: aws.ToString(out.Cluster.Version),
		Status:  string(out.Cluster.Status),
	}, nil
}

// DeleteCluster removes a control plane. Nodegroups and Fargate
// profiles must be deleted first.
func (w *Writer) DeleteCluster(ctx context.Context, clusterName string) error {
	if _, err := w.api.DeleteCluster(ctx, &eks.DeleteClusterInput{
		Name: aws.String(clusterName),
	}); err != nil {
		return awserr.Classify(serviceName, "DeleteCluster", clusterName, err)
	}

	w.log.Info().Str("cluster", clusterName).Msg("deleted cluster")
	return nil
}

// UpdateClusterVersion starts a Kubernetes version upgrade and returns
// the update ID.
func (w *Writer) UpdateClusterVersion(ctx context.Context, clusterName, version string) (string, error) {
	out, err := w.api.UpdateClusterVersion(ctx, &eks.UpdateClusterVersionInput{
		Name:    aws.String(clusterName),
		Version: aws.String(version),
	})
	if err != nil {
		return "", awserr.Classify(serviceName, "UpdateClusterVersion", clusterName, err)
	}

	updateID := ""
	if out.Update != nil {
		updateID = aws.ToString(out.Update.Id)
	}

	w.log.Info().Str("cluster", clusterName).Str("version", version).Msg("started cluster upgrade")
	return updateID, nil
}

// CreateNodegroup creates a managed nodegroup.
func (w *Writer) CreateNodegroup(ctx context.Context, clusterName string, spec NodegroupSpec) (*Nodegroup, error) {
	input := &eks.CreateNodegroupInput{
		ClusterName:   aws.String(clusterName),
		NodegroupName: aws.String(spec.Name),
		NodeRole:      aws.String(spec.NodeRoleARN),
		Subnets:       spec.Subnets,
		ScalingConfig: &types.NodegroupScalingConfig{
			DesiredSize: aws.Int32(spec.DesiredSize),
			MinSize:     aws.Int32(spec.MinSize),
			MaxSize:     aws.Int32(spec.MaxSize),
		},
	}
	if len(spec.InstanceTypes) > 0 {
		input.InstanceTypes = spec.InstanceTypes
	}

	out, err := w.api.CreateNodegroup(ctx, input)
	if err != nil {
		return nil, awserr.Classify(serviceName, "CreateNodegroup", spec.Name, err)
	}

	w.log.Info().
		Str("cluster", clusterName).
		Str("nodegroup", spec.Name).
		Int32("desired", spec.DesiredSize).
		Msg("created nodegroup")
	ng := nodegroupFromSDK(out.Nodegroup)
	return &ng, nil
}

// DeleteNodegroup removes a managed nodegroup.
func (w *Writer) DeleteNodegroup(ctx context.Context, clusterName, nodegroupName string) error {
	if _, err := w.api.DeleteNodegroup(ctx, &eks.DeleteNodegroupInput{
		ClusterName:   aws.String(clusterName),
		NodegroupName: aws.String(nodegroupName),
	}); err != nil {
		return awserr.Classify(serviceName, "DeleteNodegroup", nodegroupName, err)
	}

	w.log.Info().Str("cluster", clusterName).Str("nodegroup", nodegroupName).Msg("deleted nodegroup")
	return nil
}

// UpdateNodegroupScaling changes the size limits of a nodegroup.
func (w *Writer) UpdateNodegroupScaling(ctx context.Context, clusterName, nodegroupName string, desired, min, max int32) error {
	if _, err := w.api.UpdateNodegroupConfig(ctx, &eks.UpdateNodegroupConfigInput{
		ClusterName:   aws.String(clusterName),
		NodegroupName: aws.String(nodegroupName),
		ScalingConfig: &types.NodegroupScalingConfig{
			DesiredSize: aws.Int32(desired),
			MinSize:     aws.Int32(min),
			MaxSize:     aws.Int32(max),
		},
	}); err != nil {
		return awserr.Classify(serviceName, "UpdateNodegroupScaling", nodegroupName, err)
	}

	w.log.Info().
		Str("cluster", clusterName).
		Str("nodegroup", nodegroupName).
		Int32("desired", desired).
		Msg("updated nodegroup scaling")
	return nil
}

// CreateAddon installs an addon on a cluster. version is optional.
func (w *Writer) CreateAddon(ctx context.Context, clusterName, addonName, version string) error {
	input := &eks.CreateAddonInput{
		ClusterName: aws.String(clusterName),
		AddonName:   aws.String(addonName),
	}
	if version != "" {
		input.AddonVersion = aws.String(version)
	}

	if _, err := w.api.CreateAddon(ctx, input); err != nil {
		return awserr.Classify(serviceName, "CreateAddon", addonName, err)
	}

	w.log.Info().Str("cluster", clusterName).Str("addon", addonName).Msg("created addon")
	return nil
}

// DeleteAddon removes an addon from a cluster.
func (w *Writer) DeleteAddon(ctx context.Context, clusterName, addonName string) error {
	if _, err := w.api.DeleteAddon(ctx, &eks.DeleteAddonInput{
		ClusterName: aws.String(clusterName),
		AddonName:   aws.String(addonName),
	}); err != nil {
		return awserr.Classify(serviceName, "DeleteAddon", addonName, err)
	}

	w.log.Info().Str("cluster", clusterName).Str("addon", addonName).Msg("deleted addon")
	return nil
}
