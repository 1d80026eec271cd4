package ec2

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdkec2 "github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arguslabs/argus/pkg/awserr"
)

// fakeBackend is an in-memory EC2 control plane. Unimplemented API
// methods panic via the embedded nil interface.
type fakeBackend struct {
	API
	instances []types.Instance
	nextID    int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{nextID: 1}
}

func (f *fakeBackend) addInstance(name, state string) string {
	id := fmt.Sprintf("i-%017d", f.nextID)
	f.nextID++
	inst := types.Instance{
		InstanceId:       aws.String(id),
		InstanceType:     types.InstanceTypeT3Micro,
		PrivateIpAddress: aws.String(fmt.Sprintf("10.0.0.%d", f.nextID)),
		State:            &types.InstanceState{Name: types.InstanceStateName(state)},
		Placement:        &types.Placement{AvailabilityZone: aws.String("us-east-1a")},
	}
	if name != "" {
		inst.Tags = []types.Tag{{Key: aws.String("Name"), Value: aws.String(name)}}
	}
	f.instances = append(f.instances, inst)
	return id
}

func (f *fakeBackend) matches(inst types.Instance, filters []types.Filter) bool {
	tags := tagMap(inst.Tags)
	for _, filter := range filters {
		switch name := aws.ToString(filter.Name); {
		case name == "instance-state-name":
			if inst.State == nil || string(inst.State.Name) != filter.Values[0] {
				return false
			}
		case name == "tag:Name":
			pattern := strings.Trim(filter.Values[0], "*")
			if !strings.Contains(tags["Name"], pattern) {
				return false
			}
		case strings.HasPrefix(name, "tag:"):
			if tags[strings.TrimPrefix(name, "tag:")] != filter.Values[0] {
				return false
			}
		}
	}
	return true
}

func (f *fakeBackend) DescribeInstances(ctx context.Context, params *sdkec2.DescribeInstancesInput, optFns ...func(*sdkec2.Options)) (*sdkec2.DescribeInstancesOutput, error) {
	var matched []types.Instance
	for _, inst := range f.instances {
		if len(params.InstanceIds) > 0 {
			found := false
			for _, id := range params.InstanceIds {
				if id == aws.ToString(inst.InstanceId) {
					found = true
				}
			}
			if !found {
				continue
			}
		}
		if !f.matches(inst, params.Filters) {
			continue
		}
		matched = append(matched, inst)
	}

	out := &sdkec2.DescribeInstancesOutput{}
	if len(matched) > 0 {
		out.Reservations = []types.Reservation{{Instances: matched}}
	}
	return out, nil
}

func (f *fakeBackend) StartInstances(ctx context.Context, params *sdkec2.StartInstancesInput, optFns ...func(*sdkec2.Options)) (*sdkec2.StartInstancesOutput, error) {
	f.setState(params.InstanceIds, "running")
	return &sdkec2.StartInstancesOutput{}, nil
}

func (f *fakeBackend) StopInstances(ctx context.Context, params *sdkec2.StopInstancesInput, optFns ...func(*sdkec2.Options)) (*sdkec2.StopInstancesOutput, error) {
	f.setState(params.InstanceIds, "stopping")
	return &sdkec2.StopInstancesOutput{}, nil
}

func (f *fakeBackend) RunInstances(ctx context.Context, params *sdkec2.RunInstancesInput, optFns ...func(*sdkec2.Options)) (*sdkec2.RunInstancesOutput, error) {
	name := ""
	for _, spec := range params.TagSpecifications {
		for _, tag := range spec.Tags {
			if aws.ToString(tag.Key) == "Name" {
				name = aws.ToString(tag.Value)
			}
		}
	}
	f.addInstance(name, "pending")
	return &sdkec2.RunInstancesOutput{Instances: f.instances[len(f.instances)-1:]}, nil
}

func (f *fakeBackend) setState(ids []string, state string) {
	for i := range f.instances {
		for _, id := range ids {
			if id == aws.ToString(f.instances[i].InstanceId) {
				f.instances[i].State = &types.InstanceState{Name: types.InstanceStateName(state)}
			}
		}
	}
}

func TestListInstancesFiltersByState(t *testing.T) {
	backend := newFakeBackend()
	backend.addInstance("web-1", "running")
	backend.addInstance("web-2", "stopped")
	backend.addInstance("db-1", "running")

	reader := NewReader(backend)

	running, err := reader.ListInstances(context.Background(), InstanceFilter{State: "running"})
	require.NoError(t, err)
	require.Len(t, running, 2)
	for _, inst := range running {
		assert.Equal(t, "running", inst.State)
	}
}

func TestListInstancesFiltersByNamePattern(t *testing.T) {
	backend := newFakeBackend()
	backend.addInstance("web-1", "running")
	backend.addInstance("web-2", "running")
	backend.addInstance("db-1", "running")

	reader := NewReader(backend)

	webs, err := reader.ListInstances(context.Background(), InstanceFilter{Name: "web"})
	require.NoError(t, err)
	require.Len(t, webs, 2)
	assert.Equal(t, "web-1", webs[0].Name)
}

func TestGetInstanceByIDAndByName(t *testing.T) {
	backend := newFakeBackend()
	id := backend.addInstance("api-server", "running")

	reader := NewReader(backend)

	byID, err := reader.GetInstance(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "api-server", byID.Name)
	assert.Equal(t, "us-east-1a", byID.Zone)

	byName, err := reader.GetInstance(context.Background(), "api-server")
	require.NoError(t, err)
	assert.Equal(t, id, byName.ID)
}

func TestGetInstanceMissingIsNotFound(t *testing.T) {
	reader := NewReader(newFakeBackend())

	_, err := reader.GetInstance(context.Background(), "i-00000000000000000")
	require.Error(t, err)
	assert.True(t, awserr.IsNotFound(err))
}

func TestRunInstanceAppliesNameTag(t *testing.T) {
	backend := newFakeBackend()
	writer := NewWriter(backend)

	inst, err := writer.RunInstance(context.Background(), "ami-12345678", "t3.micro", RunInstanceOptions{
		Tags: map[string]string{"Name": "worker-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "worker-1", inst.Name)
	assert.Equal(t, "pending", inst.State)
}

func TestStartAndStopInstance(t *testing.T) {
	backend := newFakeBackend()
	id := backend.addInstance("job-runner", "stopped")

	writer := NewWriter(backend)
	reader := NewReader(backend)

	require.NoError(t, writer.StartInstance(context.Background(), id))
	inst, err := reader.GetInstance(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "running", inst.State)

	require.NoError(t, writer.StopInstance(context.Background(), id))
	inst, err = reader.GetInstance(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "stopping", inst.State)
}
