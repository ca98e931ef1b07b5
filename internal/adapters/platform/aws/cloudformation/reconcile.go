package cloudformation

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	awserrors "github.com/olusolaa/better-aws/internal/adapters/platform/aws/errors"
	"github.com/olusolaa/better-aws/internal/adapters/platform/aws/paging"
	"github.com/olusolaa/better-aws/internal/core/domain"
	"github.com/olusolaa/better-aws/internal/core/ports"
	"github.com/olusolaa/better-aws/internal/errors"
	"gopkg.in/yaml.v3"
)

var _ ports.StackReconciler = (*Client)(nil)

const discardTimeout = 30 * time.Second

// CreateOrUpdate converges the named stack to def. A missing stack is
// created; an existing one is updated either through a change set or a
// direct UpdateStack call. "Nothing to change" is a successful NO_CHANGES
// result, not an error.
func (c *Client) CreateOrUpdate(ctx context.Context, def domain.StackDefinition) (*domain.ReconcileResult, error) {
	if def.Name == "" {
		return nil, errors.New(errors.CodeDefinitionInvalid, "stack definition has no name")
	}
	logger := c.logger.WithFields(map[string]any{"stack": def.Name, "region": c.region})
	result := &domain.ReconcileResult{StackName: def.Name, Region: c.region}

	stacks, err := c.describeStack(ctx, def.Name)
	if err != nil {
		c.recorder.Reconciled(string(domain.OutcomeFailed))
		return nil, err
	}
	exists := len(stacks) > 0

	if exists && def.DeleteIfRollbackComplete && stacks[0].StackStatus == types.StackStatusRollbackComplete {
		logger.Warnf(ctx, "Stack is in %s, deleting it before re-creating", types.StackStatusRollbackComplete)
		if err := c.EnsureDeleted(ctx, def.Name); err != nil {
			c.recorder.Reconciled(string(domain.OutcomeFailed))
			return nil, err
		}
		exists = false
		result.Recreated = true
	}

	switch {
	case !exists:
		err = c.create(ctx, logger, def)
		result.Outcome = domain.OutcomeCreated
	case def.UseChangeSets:
		result.Outcome, result.ChangeSet, err = c.updateWithChangeSet(ctx, logger, def)
	default:
		result.Outcome, err = c.updateDirect(ctx, logger, def)
	}
	if err != nil {
		c.recorder.Reconciled(string(domain.OutcomeFailed))
		return nil, err
	}

	c.recorder.Reconciled(string(result.Outcome))
	logger.Infof(ctx, "Stack reconciled: %s", result.Outcome)
	return result, nil
}

func (c *Client) create(ctx context.Context, logger ports.Logger, def domain.StackDefinition) error {
	logger.Infof(ctx, "Creating stack")
	if err := c.wait(ctx); err != nil {
		return err
	}
	_, err := c.api.CreateStack(ctx, &cloudformation.CreateStackInput{
		StackName:    aws.String(def.Name),
		TemplateBody: optionalString(def.TemplateBody),
		TemplateURL:  optionalString(def.TemplateURL),
		Parameters:   toSDKParameters(def),
		Capabilities: toSDKCapabilities(def),
		Tags:         toSDKTags(def),
	})
	if err != nil {
		return err
	}

	w := cloudformation.NewStackCreateCompleteWaiter(c.api, func(o *cloudformation.StackCreateCompleteWaiterOptions) {
		o.MinDelay, o.MaxDelay = c.waitMinDelay, c.waitMaxDelay
	})
	if err := w.Wait(ctx, &cloudformation.DescribeStacksInput{StackName: aws.String(def.Name)}, c.waitTimeout); err != nil {
		return c.waitFailed(ctx, logger, def.Name, "create", err)
	}
	return nil
}

func (c *Client) updateDirect(ctx context.Context, logger ports.Logger, def domain.StackDefinition) (domain.ReconcileOutcome, error) {
	logger.Infof(ctx, "Updating stack")
	if err := c.wait(ctx); err != nil {
		return "", err
	}
	_, err := c.api.UpdateStack(ctx, &cloudformation.UpdateStackInput{
		StackName:    aws.String(def.Name),
		TemplateBody: optionalString(def.TemplateBody),
		TemplateURL:  optionalString(def.TemplateURL),
		Parameters:   toSDKParameters(def),
		Capabilities: toSDKCapabilities(def),
		Tags:         toSDKTags(def),
	})
	if err != nil {
		if awserrors.IsNoUpdates(err) {
			logger.Infof(ctx, "No updates are to be performed")
			return domain.OutcomeNoChanges, nil
		}
		return "", err
	}

	if err := c.waitUpdate(ctx, logger, def.Name); err != nil {
		return "", err
	}
	return domain.OutcomeUpdated, nil
}

func (c *Client) updateWithChangeSet(ctx context.Context, logger ports.Logger, def domain.StackDefinition) (domain.ReconcileOutcome, *domain.ChangeSet, error) {
	name := c.changeSetName(def)
	logger = logger.WithFields(map[string]any{"change_set": name})
	logger.Infof(ctx, "Creating change set")

	if err := c.createChangeSet(ctx, def, name); err != nil {
		if !awserrors.IsAlreadyExists(err) {
			return "", nil, err
		}
		if err := c.reuseOrReplaceChangeSet(ctx, logger, def, name); err != nil {
			return "", nil, err
		}
	}

	describe := &cloudformation.DescribeChangeSetInput{
		StackName:     aws.String(def.Name),
		ChangeSetName: aws.String(name),
	}
	changes, err := c.awaitChangeSet(ctx, logger, describe)
	if err != nil {
		c.discardChangeSet(ctx, logger, def.Name, name)
		return "", nil, err
	}

	cs := &domain.ChangeSet{Name: name, Changes: toDomainChanges(changes)}
	c.logChangeSet(ctx, logger, cs)

	if cs.IsEmpty() {
		logger.Infof(ctx, "Change set is empty, deleting it")
		if err := c.wait(ctx); err != nil {
			return "", nil, err
		}
		if _, err := c.api.DeleteChangeSet(ctx, &cloudformation.DeleteChangeSetInput{
			StackName:     aws.String(def.Name),
			ChangeSetName: aws.String(name),
		}); err != nil {
			return "", nil, err
		}
		return domain.OutcomeNoChanges, cs, nil
	}

	logger.Infof(ctx, "Executing change set with %d changes", len(cs.Changes))
	if err := c.wait(ctx); err != nil {
		return "", nil, err
	}
	if _, err := c.api.ExecuteChangeSet(ctx, &cloudformation.ExecuteChangeSetInput{
		StackName:     aws.String(def.Name),
		ChangeSetName: aws.String(name),
	}); err != nil {
		c.discardChangeSet(ctx, logger, def.Name, name)
		return "", nil, err
	}
	if err := c.waitUpdate(ctx, logger, def.Name); err != nil {
		return "", nil, err
	}
	return domain.OutcomeUpdated, cs, nil
}

func (c *Client) createChangeSet(ctx context.Context, def domain.StackDefinition, name string) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	_, err := c.api.CreateChangeSet(ctx, &cloudformation.CreateChangeSetInput{
		StackName:     aws.String(def.Name),
		ChangeSetName: aws.String(name),
		ChangeSetType: types.ChangeSetTypeUpdate,
		TemplateBody:  optionalString(def.TemplateBody),
		TemplateURL:   optionalString(def.TemplateURL),
		Parameters:    toSDKParameters(def),
		Capabilities:  toSDKCapabilities(def),
		Tags:          toSDKTags(def),
	})
	return err
}

// reuseOrReplaceChangeSet handles a change set name that is already taken.
// A set that can still be executed is reused; a failed or already executed
// one is deleted and created again.
func (c *Client) reuseOrReplaceChangeSet(ctx context.Context, logger ports.Logger, def domain.StackDefinition, name string) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	desc, err := c.api.DescribeChangeSet(ctx, &cloudformation.DescribeChangeSetInput{
		StackName:     aws.String(def.Name),
		ChangeSetName: aws.String(name),
	})
	if err != nil {
		return err
	}
	if changeSetReusable(desc) {
		logger.Infof(ctx, "Change set already exists, reusing it")
		return nil
	}

	logger.Infof(ctx, "Change set already exists with status %s/%s, replacing it", desc.Status, desc.ExecutionStatus)
	if err := c.wait(ctx); err != nil {
		return err
	}
	if _, err := c.api.DeleteChangeSet(ctx, &cloudformation.DeleteChangeSetInput{
		StackName:     aws.String(def.Name),
		ChangeSetName: aws.String(name),
	}); err != nil {
		return err
	}
	return c.createChangeSet(ctx, def, name)
}

func changeSetReusable(desc *cloudformation.DescribeChangeSetOutput) bool {
	if desc.Status == types.ChangeSetStatusFailed {
		return false
	}
	switch desc.ExecutionStatus {
	case types.ExecutionStatusExecuteComplete, types.ExecutionStatusExecuteFailed, types.ExecutionStatusObsolete:
		return false
	}
	return true
}

// discardChangeSet deletes a change set that will never be executed. It runs
// even when ctx is already done, and a failure is only logged.
func (c *Client) discardChangeSet(ctx context.Context, logger ports.Logger, stack, name string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), discardTimeout)
	defer cancel()

	logger.Infof(ctx, "Deleting change set %s", name)
	if err := c.wait(ctx); err != nil {
		logger.Warnf(ctx, "Could not delete change set %s: %v", name, err)
		return
	}
	if _, err := c.api.DeleteChangeSet(ctx, &cloudformation.DeleteChangeSetInput{
		StackName:     aws.String(stack),
		ChangeSetName: aws.String(name),
	}); err != nil {
		logger.Warnf(ctx, "Could not delete change set %s: %v", name, err)
	}
}

// awaitChangeSet blocks until the change set is created and returns its
// changes. A change set that failed only because there was nothing to change
// yields an empty list.
func (c *Client) awaitChangeSet(ctx context.Context, logger ports.Logger, in *cloudformation.DescribeChangeSetInput) ([]types.Change, error) {
	w := cloudformation.NewChangeSetCreateCompleteWaiter(c.api, func(o *cloudformation.ChangeSetCreateCompleteWaiterOptions) {
		o.MinDelay, o.MaxDelay = c.waitMinDelay, c.waitMaxDelay
	})
	waitErr := w.Wait(ctx, in, c.waitTimeout)
	if waitErr == nil {
		params := *in
		out, err := paging.Slurp(ctx, "DescribeChangeSet", c.api.DescribeChangeSet, "Changes", &params, c.pagingOptions()...)
		if err != nil {
			return nil, err
		}
		return out.Changes, nil
	}

	if !awserrors.IsWaiterFailure(waitErr) {
		return nil, errors.WrapAs(waitErr, errors.CodeStackOperationFailed,
			fmt.Sprintf("change set %s did not finish creating", aws.ToString(in.ChangeSetName)))
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	desc, err := c.api.DescribeChangeSet(ctx, in)
	if err != nil {
		return nil, errors.WrapAs(waitErr, errors.CodeStackOperationFailed,
			fmt.Sprintf("change set %s failed and could not be described: %v", aws.ToString(in.ChangeSetName), err))
	}
	reason := aws.ToString(desc.StatusReason)
	if desc.Status == types.ChangeSetStatusFailed && awserrors.IsNoChangesReason(reason) {
		logger.Debugf(ctx, "Change set failed with no-changes reason: %s", reason)
		return nil, nil
	}
	return nil, errors.WrapAs(waitErr, errors.CodeStackOperationFailed,
		fmt.Sprintf("change set %s failed", aws.ToString(in.ChangeSetName))).
		WithDetails(reason)
}

func (c *Client) waitUpdate(ctx context.Context, logger ports.Logger, name string) error {
	w := cloudformation.NewStackUpdateCompleteWaiter(c.api, func(o *cloudformation.StackUpdateCompleteWaiterOptions) {
		o.MinDelay, o.MaxDelay = c.waitMinDelay, c.waitMaxDelay
	})
	if err := w.Wait(ctx, &cloudformation.DescribeStacksInput{StackName: aws.String(name)}, c.waitTimeout); err != nil {
		return c.waitFailed(ctx, logger, name, "update", err)
	}
	return nil
}

// waitFailed logs the stack's recent event timeline and converts the waiter
// error into a stack operation failure.
func (c *Client) waitFailed(ctx context.Context, logger ports.Logger, name, operation string, waitErr error) error {
	events, err := c.StackEvents(ctx, name)
	if err != nil {
		logger.Warnf(ctx, "Could not fetch events after failed %s: %v", operation, err)
	}
	for _, ev := range events {
		logger.Errorf(ctx, nil, "%s %s %s %s: %s",
			ev.Timestamp.Format("2006-01-02T15:04:05Z07:00"), ev.LogicalID, ev.ResourceType, ev.Status, ev.Reason)
	}

	msg := fmt.Sprintf("stack %s %s did not complete", name, operation)
	if awserrors.IsWaiterTimeout(waitErr) {
		msg = fmt.Sprintf("timed out after %s waiting for stack %s %s", c.waitTimeout, name, operation)
	}
	return errors.WrapAs(waitErr, errors.CodeStackOperationFailed, msg)
}

func (c *Client) logChangeSet(ctx context.Context, logger ports.Logger, cs *domain.ChangeSet) {
	if cs.IsEmpty() {
		logger.Infof(ctx, "Change set %s contains no changes", cs.Name)
		return
	}
	b, err := yaml.Marshal(cs.Changes)
	if err != nil {
		logger.Warnf(ctx, "Could not render change set %s: %v", cs.Name, err)
		return
	}
	logger.Infof(ctx, "Change set %s:\n%s", cs.Name, b)
}

// EnsureDeleted deletes the named stack if it exists and waits for the
// deletion to finish. A missing stack is not an error. Stacks in a transient
// status are skipped and logged rather than waited on.
func (c *Client) EnsureDeleted(ctx context.Context, name string) error {
	logger := c.logger.WithFields(map[string]any{"stack": name, "region": c.region})

	stacks, err := c.describeStack(ctx, name)
	if err != nil {
		return err
	}
	if len(stacks) == 0 {
		logger.Debugf(ctx, "Stack does not exist, nothing to delete")
		return nil
	}

	for _, s := range stacks {
		status := domain.StackStatus(s.StackStatus)
		if status == domain.StackStatusDeleteComplete {
			continue
		}
		if !status.IsDeletable() {
			logger.Warnf(ctx, "Stack is in %s, not deleting", status)
			continue
		}

		id := aws.ToString(s.StackId)
		if id == "" {
			id = name
		}
		logger.Infof(ctx, "Deleting stack in %s", status)
		if err := c.wait(ctx); err != nil {
			return err
		}
		if _, err := c.api.DeleteStack(ctx, &cloudformation.DeleteStackInput{StackName: aws.String(id)}); err != nil {
			return err
		}
		w := cloudformation.NewStackDeleteCompleteWaiter(c.api, func(o *cloudformation.StackDeleteCompleteWaiterOptions) {
			o.MinDelay, o.MaxDelay = c.waitMinDelay, c.waitMaxDelay
		})
		if err := w.Wait(ctx, &cloudformation.DescribeStacksInput{StackName: aws.String(id)}, c.waitTimeout); err != nil {
			return c.waitFailed(ctx, logger, name, "delete", err)
		}
	}
	return nil
}
