package ec2

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/rs/zerolog"

	"github.com/arguslabs/argus/internal/logging"
	"github.com/arguslabs/argus/pkg/awserr"
)

var errNoInstanceLaunched = errors.New("no instance launched")

// RunInstanceOptions carries the optional settings for RunInstance.
type RunInstanceOptions struct {
	KeyName          string
	SecurityGroupIDs []string
	SubnetID         string
	UserData         string
	Tags             map[string]string
}

// Writer launches and mutates instances and their surrounding
// resources.
type Writer struct {
	api API
	log zerolog.Logger
}

// NewWriter returns a Writer over the given EC2 API.
func NewWriter(api API) *Writer {
	return &Writer{api: api, log: logging.For(serviceName)}
}

// RunInstance launches one instance and returns it.
func (w *Writer) RunInstance(ctx context.Context, imageID, instanceType string, opts RunInstanceOptions) (*Instance, error) {
	input := &ec2.RunInstancesInput{
		ImageId:      aws.String(imageID),
		InstanceType: types.InstanceType(instanceType),
		MinCount:     aws.Int32(1),
		MaxCount:     aws.Int32(1),
	}
	if opts.KeyName != "" {
		input.KeyName = aws.String(opts.KeyName)
	}
	if len(opts.SecurityGroupIDs) > 0 {
		input.SecurityGroupIds = opts.SecurityGroupIDs
	}
	if opts.SubnetID != "" {
		input.SubnetId = aws.String(opts.SubnetID)
	}
	if opts.UserData != "" {
		input.UserData = aws.String(opts.UserData)
	}
	if len(opts.Tags) > 0 {
		spec := types.TagSpecification{ResourceType: types.ResourceTypeInstance}
		for k, v := range opts.Tags {
			spec.Tags = append(spec.Tags, types.Tag{Key: aws.String(k), Value: aws.String(v)})
		}
		input.TagSpecifications = []types.TagSpecification{spec}
	}

	out, err := w.api.RunInstances(ctx, input)
	if err != nil {
		return nil, awserr.Classify(serviceName, "RunInstance", imageID, err)
	}
	if len(out.Instances) == 0 {
		return nil, awserr.NewFailure(serviceName, "RunInstance", imageID, errNoInstanceLaunched)
	}

	instance := instanceFromSDK(out.Instances[0])
	w.log.Info().Str("instance", instance.ID).Str("type", instanceType).Msg("launched instance")
	return &instance, nil
}

// TerminateInstance terminates an instance.
func (w *Writer) TerminateInstance(ctx context.Context, instanceID string) error {
	if _, err := w.api.TerminateInstances(ctx, &ec2.TerminateInstancesInput{
		InstanceIds: []string{instanceID},
	}); err != nil {
		return awserr.Classify(serviceName, "TerminateInstance", instanceID, err)
	}

	w.log.Info().Str("instance", instanceID).Msg("terminated instance")
	return nil
}

// StartInstance starts a stopped instance.
func (w *Writer) StartInstance(ctx context.Context, instanceID string) error {
	if _, err := w.api.StartInstances(ctx, &ec2.StartInstancesInput{
		InstanceIds: []string{instanceID},
	}); err != nil {
		return awserr.Classify(serviceName, "StartInstance", instanceID, err)
	}

	w.log.Info().Str("instance", instanceID).Msg("started instance")
	return nil
}

// StopInstance stops a running instance.
func (w *Writer) StopInstance(ctx context.Context, instanceID string) error {
	if _, err := w.api.StopInstances(ctx, &ec2.StopInstancesInput{
		InstanceIds: []string{instanceID},
	}); err != nil {
		return awserr.Classify(serviceName, "StopInstance", instanceID, err)
	}

	w.log.Info().Str("instance", instanceID).Msg("stopped instance")
	return nil
}

// RebootInstance reboots an instance.
func (w *Writer) RebootInstance(ctx context.Context, instanceID string) error {
	if _, err := w.api.RebootInstances(ctx, &ec2.RebootInstancesInput{
		InstanceIds: []string{instanceID},
	}); err != nil {
		return awserr.Classify(serviceName, "RebootInstance", instanceID, err)
	}

	w.log.Info().Str("instance", instanceID).Msg("rebooted instance")
	return nil
}

// CreateSecurityGroup creates a security group and returns its ID.
func (w *Writer) CreateSecurityGroup(ctx context.Context, name, description, vpcID string) (string, error) {
	input := &ec2.CreateSecurityGroupInput{
		GroupName:   aws.String(name),
		Description: aws.String(description),
	}
	if vpcID != "" {
		input.VpcId = aws.String(vpcID)
	}

	out, err := w.api.CreateSecurityGroup(ctx, input)
	if err != nil {
		return "", awserr.Classify(serviceName, "CreateSecurityGroup", name, err)
	}

	id := aws.ToString(out.GroupId)
	w.log.Info().Str("group", name).Str("id", id).Msg("created security group")
	return id, nil
}

// DeleteSecurityGroup removes a security group by ID.
func (w *Writer) DeleteSecurityGroup(ctx context.Context, groupID string) error {
	if _, err := w.api.DeleteSecurityGroup(ctx, &ec2.DeleteSecurityGroupInput{
		GroupId: aws.String(groupID),
	}); err != nil {
		return awserr.Classify(serviceName, "DeleteSecurityGroup", groupID, err)
	}

	w.log.Info().Str("group", groupID).Msg("deleted security group")
	return nil
}

// AuthorizeIngress adds inbound rules to a security group.
func (w *Writer) AuthorizeIngress(ctx context.Context, groupID string, rules []IngressRule) error {
	input := &ec2.AuthorizeSecurityGroupIngressInput{
		GroupId: aws.String(groupID),
	}
	for _, rule := range rules {
		input.IpPermissions = append(input.IpPermissions, types.IpPermission{
			IpProtocol: aws.String(rule.Protocol),
			FromPort:   aws.Int32(rule.FromPort),
			ToPort:     aws.Int32(rule.ToPort),
			IpRanges: []types.IpRange{
				{CidrIp: aws.String(rule.CIDR)},
			},
		})
	}

	if _, err := w.api.AuthorizeSecurityGroupIngress(ctx, input); err != nil {
		return awserr.Classify(serviceName, "AuthorizeIngress", groupID, err)
	}

	w.log.Info().Str("group", groupID).Int("rules", len(rules)).Msg("authorized ingress")
	return nil
}

// CreateKeyPair creates a key pair and returns its private key
// material. The material is only available at creation time.
func (w *Writer) CreateKeyPair(ctx context.Context, name string) (*KeyPair, string, error) {
	out, err := w.api.CreateKeyPair(ctx, &ec2.CreateKeyPairInput{
		KeyName: aws.String(name),
	})
	if err != nil {
		return nil, "", awserr.Classify(serviceName, "CreateKeyPair", name, err)
	}

	w.log.Info().Str("key", name).Msg("created key pair")
	return &KeyPair{
		Name:        aws.ToString(out.KeyName),
		ID:          aws.ToString(out.KeyPairId),
		Fingerprint: aws.ToString(out.KeyFingerprint),
	}, aws.ToString(out.KeyMaterial), nil
}

// DeleteKeyPair removes a key pair by name.
func (w *Writer) DeleteKeyPair(ctx context.Context, name string) error {
	if _, err := w.api.DeleteKeyPair(ctx, &ec2.DeleteKeyPairInput{
		KeyName: aws.String(name),
	}); err != nil {
		return awserr.Classify(serviceName, "DeleteKeyPair", name, err)
	}

	w.log.Info().Str("key", name).Msg("deleted key pair")
	return nil
}

// CreateTags applies tags to resources.
func (w *Writer) CreateTags(ctx context.Context, resourceIDs []string, tags map[string]string) error {
	input := &ec2.CreateTagsInput{Resources: resourceIDs}
	for k, v := range tags {
		input.Tags = append(input.Tags, types.Tag{Key: aws.String(k), Value: aws.String(v)})
	}

	if _, err := w.api.CreateTags(ctx, input); err != nil {
		return awserr.Classify(serviceName, "CreateTags", "", err)
	}
	return nil
}
