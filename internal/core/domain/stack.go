package domain

import (
	"sort"
	"time"
)

// StackDefinition is the desired state of one CloudFormation stack. It is
// built by the caller per reconciliation and never mutated by it.
type StackDefinition struct {
	Name                     string            `json:"name" validate:"required,max=128"`
	TemplateBody             string            `json:"template_body,omitempty" validate:"required_without=TemplateURL"`
	TemplateURL              string            `json:"template_url,omitempty" validate:"omitempty,url"`
	Parameters               map[string]string `json:"parameters,omitempty"`
	Capabilities             []string          `json:"capabilities,omitempty" validate:"dive,oneof=CAPABILITY_IAM CAPABILITY_NAMED_IAM CAPABILITY_AUTO_EXPAND"`
	Tags                     map[string]string `json:"tags,omitempty"`
	UseChangeSets            bool              `json:"use_change_sets"`
	DeleteIfRollbackComplete bool              `json:"delete_if_rollback_complete"`
}

// SortedParameterKeys returns parameter keys in lexical order so requests and
// change set names are deterministic.
func (d StackDefinition) SortedParameterKeys() []string {
	keys := make([]string, 0, len(d.Parameters))
	for k := range d.Parameters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (d StackDefinition) SortedTagKeys() []string {
	keys := make([]string, 0, len(d.Tags))
	for k := range d.Tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// StackStatus mirrors the provider's status string.
type StackStatus string

const (
	StackStatusCreateInProgress         StackStatus = "CREATE_IN_PROGRESS"
	StackStatusCreateFailed             StackStatus = "CREATE_FAILED"
	StackStatusCreateComplete           StackStatus = "CREATE_COMPLETE"
	StackStatusRollbackInProgress       StackStatus = "ROLLBACK_IN_PROGRESS"
	StackStatusRollbackFailed           StackStatus = "ROLLBACK_FAILED"
	StackStatusRollbackComplete         StackStatus = "ROLLBACK_COMPLETE"
	StackStatusDeleteInProgress         StackStatus = "DELETE_IN_PROGRESS"
	StackStatusDeleteFailed             StackStatus = "DELETE_FAILED"
	StackStatusDeleteComplete           StackStatus = "DELETE_COMPLETE"
	StackStatusUpdateInProgress         StackStatus = "UPDATE_IN_PROGRESS"
	StackStatusUpdateComplete           StackStatus = "UPDATE_COMPLETE"
	StackStatusUpdateRollbackFailed     StackStatus = "UPDATE_ROLLBACK_FAILED"
	StackStatusUpdateRollbackComplete   StackStatus = "UPDATE_ROLLBACK_COMPLETE"
	StackStatusReviewInProgress         StackStatus = "REVIEW_IN_PROGRESS"
	StackStatusImportComplete           StackStatus = "IMPORT_COMPLETE"
	StackStatusImportRollbackComplete   StackStatus = "IMPORT_ROLLBACK_COMPLETE"
	StackStatusUpdateRollbackInProgress StackStatus = "UPDATE_ROLLBACK_IN_PROGRESS"
)

// DeletableStatuses are the terminal statuses from which a delete can be issued.
var DeletableStatuses = map[StackStatus]struct{}{
	StackStatusCreateFailed:           {},
	StackStatusCreateComplete:         {},
	StackStatusRollbackFailed:         {},
	StackStatusRollbackComplete:       {},
	StackStatusDeleteFailed:           {},
	StackStatusUpdateComplete:         {},
	StackStatusUpdateRollbackFailed:   {},
	StackStatusUpdateRollbackComplete: {},
}

func (s StackStatus) IsDeletable() bool {
	_, ok := DeletableStatuses[s]
	return ok
}

func (s StackStatus) String() string {
	return string(s)
}

// ResourceChange is one proposed mutation in a change set.
type ResourceChange struct {
	Action       string `json:"action" yaml:"action"`
	LogicalID    string `json:"logical_id" yaml:"logical_id"`
	PhysicalID   string `json:"physical_id,omitempty" yaml:"physical_id,omitempty"`
	ResourceType string `json:"resource_type" yaml:"resource_type"`
	Replacement  string `json:"replacement,omitempty" yaml:"replacement,omitempty"`
}

type ChangeSet struct {
	Name    string           `json:"name"`
	Changes []ResourceChange `json:"changes"`
}

func (c *ChangeSet) IsEmpty() bool {
	return c == nil || len(c.Changes) == 0
}

type StackEvent struct {
	Timestamp    time.Time `json:"timestamp"`
	LogicalID    string    `json:"logical_id"`
	ResourceType string    `json:"resource_type"`
	Status       string    `json:"status"`
	Reason       string    `json:"reason,omitempty"`
}
