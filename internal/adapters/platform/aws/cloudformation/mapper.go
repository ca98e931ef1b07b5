package cloudformation

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/olusolaa/better-aws/internal/core/domain"
)

func toSDKParameters(def domain.StackDefinition) []types.Parameter {
	if len(def.Parameters) == 0 {
		return nil
	}
	params := make([]types.Parameter, 0, len(def.Parameters))
	for _, k := range def.SortedParameterKeys() {
		params = append(params, types.Parameter{
			ParameterKey:   aws.String(k),
			ParameterValue: aws.String(def.Parameters[k]),
		})
	}
	return params
}

func toSDKTags(def domain.StackDefinition) []types.Tag {
	if len(def.Tags) == 0 {
		return nil
	}
	tags := make([]types.Tag, 0, len(def.Tags))
	for _, k := range def.SortedTagKeys() {
		tags = append(tags, types.Tag{Key: aws.String(k), Value: aws.String(def.Tags[k])})
	}
	return tags
}

func toSDKCapabilities(def domain.StackDefinition) []types.Capability {
	if len(def.Capabilities) == 0 {
		return nil
	}
	caps := make([]types.Capability, 0, len(def.Capabilities))
	for _, c := range def.Capabilities {
		caps = append(caps, types.Capability(c))
	}
	return caps
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return aws.String(s)
}

func toDomainChanges(changes []types.Change) []domain.ResourceChange {
	out := make([]domain.ResourceChange, 0, len(changes))
	for _, ch := range changes {
		rc := ch.ResourceChange
		if rc == nil {
			continue
		}
		out = append(out, domain.ResourceChange{
			Action:       string(rc.Action),
			LogicalID:    aws.ToString(rc.LogicalResourceId),
			PhysicalID:   aws.ToString(rc.PhysicalResourceId),
			ResourceType: aws.ToString(rc.ResourceType),
			Replacement:  string(rc.Replacement),
		})
	}
	return out
}

func toDomainEvents(events []types.StackEvent) []domain.StackEvent {
	out := make([]domain.StackEvent, 0, len(events))
	for _, ev := range events {
		out = append(out, domain.StackEvent{
			Timestamp:    aws.ToTime(ev.Timestamp),
			LogicalID:    aws.ToString(ev.LogicalResourceId),
			ResourceType: aws.ToString(ev.ResourceType),
			Status:       string(ev.ResourceStatus),
			Reason:       aws.ToString(ev.ResourceStatusReason),
		})
	}
	return out
}
