package cloudformation

import (
	"bytes"
	"context"
	stderrs "errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/olusolaa/better-aws/internal/core/domain"
	"github.com/olusolaa/better-aws/internal/errors"
	"github.com/olusolaa/better-aws/internal/log"
	"github.com/olusolaa/better-aws/mocks"
)

const stackName = "my-stack"

type recorder struct {
	outcomes []string
}

func (r *recorder) PageFetched(string)        {}
func (r *recorder) PollAttempt(string)        {}
func (r *recorder) Reconciled(outcome string) { r.outcomes = append(r.outcomes, outcome) }

type ReconcilerTestSuite struct {
	suite.Suite
	api    *mocks.MockCloudFormationClient
	logs   *bytes.Buffer
	rec    *recorder
	client *Client
	ctx    context.Context
	cancel context.CancelFunc
}

func (s *ReconcilerTestSuite) SetupTest() {
	s.api = new(mocks.MockCloudFormationClient)
	s.logs = &bytes.Buffer{}
	s.rec = &recorder{}
	logger, err := log.NewLogger(log.Config{Level: log.LevelDebug, Format: log.FormatText, Output: s.logs})
	s.Require().NoError(err)

	s.ctx, s.cancel = context.WithTimeout(context.Background(), 10*time.Second)
	s.client = NewClient(s.api, logger,
		WithRegion("us-east-1"),
		WithWaitTimeout(5*time.Second),
		WithWaitDelay(time.Millisecond, 5*time.Millisecond),
		WithMetrics(s.rec),
	)
}

func (s *ReconcilerTestSuite) TearDownTest() {
	s.cancel()
}

func TestReconcilerTestSuite(t *testing.T) {
	suite.Run(t, new(ReconcilerTestSuite))
}

func definition() domain.StackDefinition {
	return domain.StackDefinition{
		Name:         stackName,
		TemplateBody: `{"Resources":{"Topic":{"Type":"AWS::SNS::Topic"}}}`,
		Parameters:   map[string]string{"Env": "dev", "Owner": "platform"},
		Capabilities: []string{"CAPABILITY_IAM"},
		Tags:         map[string]string{"team": "infra"},
	}
}

func notFound() error {
	return &smithy.GenericAPIError{Code: "ValidationError", Message: "Stack with id " + stackName + " does not exist"}
}

func stackWithStatus(status types.StackStatus) *cloudformation.DescribeStacksOutput {
	return &cloudformation.DescribeStacksOutput{Stacks: []types.Stack{{
		StackName:   aws.String(stackName),
		StackId:     aws.String("arn:aws:cloudformation:us-east-1:123456789012:stack/my-stack/abc"),
		StackStatus: status,
	}}}
}

func (s *ReconcilerTestSuite) expectDescribe(out *cloudformation.DescribeStacksOutput, err error) *mock.Call {
	return s.api.On("DescribeStacks", mock.Anything, mock.Anything, mock.Anything).Return(out, err).Once()
}

// shortenWaits makes waiters give up quickly. The delay stays well below the
// timeout so the waiter reports an exhausted wait rather than a cancelled sleep.
func (s *ReconcilerTestSuite) shortenWaits() {
	WithWaitTimeout(60 * time.Millisecond)(s.client)
	WithWaitDelay(10*time.Millisecond, 10*time.Millisecond)(s.client)
}

func (s *ReconcilerTestSuite) expectUpdateFailedEvent() {
	s.api.On("DescribeStackEvents", mock.Anything, mock.Anything, mock.Anything).Return(&cloudformation.DescribeStackEventsOutput{
		StackEvents: []types.StackEvent{{
			Timestamp:            aws.Time(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)),
			LogicalResourceId:    aws.String("Topic"),
			ResourceType:         aws.String("AWS::SNS::Topic"),
			ResourceStatus:       types.ResourceStatusUpdateFailed,
			ResourceStatusReason: aws.String("Resource handler returned message: Invalid request"),
		}},
	}, nil).Once()
}

func (s *ReconcilerTestSuite) TestCreateOrUpdate_AbsentStackIsCreated() {
	s.expectDescribe(nil, notFound())
	s.api.On("CreateStack", mock.Anything, mock.MatchedBy(func(in *cloudformation.CreateStackInput) bool {
		return aws.ToString(in.StackName) == stackName &&
			len(in.Parameters) == 2 && aws.ToString(in.Parameters[0].ParameterKey) == "Env" &&
			len(in.Capabilities) == 1 && in.Capabilities[0] == types.CapabilityCapabilityIam &&
			len(in.Tags) == 1 && in.TemplateURL == nil
	}), mock.Anything).Return(&cloudformation.CreateStackOutput{StackId: aws.String("id")}, nil).Once()
	s.expectDescribe(stackWithStatus(types.StackStatusCreateComplete), nil)

	res, err := s.client.CreateOrUpdate(s.ctx, definition())

	s.Require().NoError(err)
	s.Equal(domain.OutcomeCreated, res.Outcome)
	s.Equal("us-east-1", res.Region)
	s.False(res.Recreated)
	s.Nil(res.ChangeSet)
	s.api.AssertNumberOfCalls(s.T(), "CreateStack", 1)
	s.api.AssertNotCalled(s.T(), "UpdateStack", mock.Anything, mock.Anything, mock.Anything)
	s.api.AssertNotCalled(s.T(), "CreateChangeSet", mock.Anything, mock.Anything, mock.Anything)
	s.Equal([]string{"CREATED"}, s.rec.outcomes)
}

func (s *ReconcilerTestSuite) TestCreateOrUpdate_CreateFailureDumpsEvents() {
	s.expectDescribe(nil, notFound())
	s.api.On("CreateStack", mock.Anything, mock.Anything, mock.Anything).Return(&cloudformation.CreateStackOutput{}, nil).Once()
	s.expectDescribe(stackWithStatus(types.StackStatusRollbackComplete), nil)
	s.api.On("DescribeStackEvents", mock.Anything, mock.Anything, mock.Anything).Return(&cloudformation.DescribeStackEventsOutput{
		StackEvents: []types.StackEvent{
			{
				Timestamp:            aws.Time(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
				LogicalResourceId:    aws.String("Topic"),
				ResourceType:         aws.String("AWS::SNS::Topic"),
				ResourceStatus:       types.ResourceStatusCreateFailed,
				ResourceStatusReason: aws.String("Topic name already taken"),
			},
		},
	}, nil).Once()

	res, err := s.client.CreateOrUpdate(s.ctx, definition())

	s.Nil(res)
	s.Require().Error(err)
	s.True(errors.Is(err, errors.CodeStackOperationFailed))
	s.Contains(s.logs.String(), "Topic name already taken")
	s.Contains(s.logs.String(), "CREATE_FAILED")
	s.Equal([]string{"FAILED"}, s.rec.outcomes)
}

func (s *ReconcilerTestSuite) TestCreateOrUpdate_DescribeErrorReturnedUnchanged() {
	boom := &smithy.GenericAPIError{Code: "Throttling", Message: "Rate exceeded"}
	s.expectDescribe(nil, boom)

	_, err := s.client.CreateOrUpdate(s.ctx, definition())

	s.Same(boom, err)
	s.api.AssertNotCalled(s.T(), "CreateStack", mock.Anything, mock.Anything, mock.Anything)
}

func (s *ReconcilerTestSuite) TestCreateOrUpdate_RollbackCompleteIsRecreated() {
	def := definition()
	def.DeleteIfRollbackComplete = true

	s.expectDescribe(stackWithStatus(types.StackStatusRollbackComplete), nil) // reconcile
	s.expectDescribe(stackWithStatus(types.StackStatusRollbackComplete), nil) // EnsureDeleted
	s.api.On("DeleteStack", mock.Anything, mock.Anything, mock.Anything).Return(&cloudformation.DeleteStackOutput{}, nil).Once()
	s.expectDescribe(stackWithStatus(types.StackStatusDeleteComplete), nil) // delete waiter
	s.api.On("CreateStack", mock.Anything, mock.Anything, mock.Anything).Return(&cloudformation.CreateStackOutput{}, nil).Once()
	s.expectDescribe(stackWithStatus(types.StackStatusCreateComplete), nil) // create waiter

	res, err := s.client.CreateOrUpdate(s.ctx, def)

	s.Require().NoError(err)
	s.Equal(domain.OutcomeCreated, res.Outcome)
	s.True(res.Recreated)
	s.api.AssertNumberOfCalls(s.T(), "DeleteStack", 1)
	s.api.AssertNumberOfCalls(s.T(), "CreateStack", 1)
	s.api.AssertExpectations(s.T())
}

func (s *ReconcilerTestSuite) TestCreateOrUpdate_RollbackCompleteWithoutFlagUpdates() {
	s.expectDescribe(stackWithStatus(types.StackStatusRollbackComplete), nil)
	s.api.On("UpdateStack", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &smithy.GenericAPIError{Code: "ValidationError", Message: "Stack is in ROLLBACK_COMPLETE state and can not be updated."}).Once()

	_, err := s.client.CreateOrUpdate(s.ctx, definition())

	s.Require().Error(err)
	s.api.AssertNotCalled(s.T(), "DeleteStack", mock.Anything, mock.Anything, mock.Anything)
}

func (s *ReconcilerTestSuite) TestCreateOrUpdate_DirectUpdate() {
	s.api.On("DescribeStacks", mock.Anything, mock.Anything, mock.Anything).Return(stackWithStatus(types.StackStatusUpdateComplete), nil)
	s.api.On("UpdateStack", mock.Anything, mock.MatchedBy(func(in *cloudformation.UpdateStackInput) bool {
		return aws.ToString(in.StackName) == stackName && in.TemplateBody != nil
	}), mock.Anything).Return(&cloudformation.UpdateStackOutput{}, nil).Once()

	res, err := s.client.CreateOrUpdate(s.ctx, definition())

	s.Require().NoError(err)
	s.Equal(domain.OutcomeUpdated, res.Outcome)
	s.api.AssertNotCalled(s.T(), "CreateChangeSet", mock.Anything, mock.Anything, mock.Anything)
}

func (s *ReconcilerTestSuite) TestCreateOrUpdate_DirectUpdateNoUpdates() {
	s.expectDescribe(stackWithStatus(types.StackStatusCreateComplete), nil)
	s.api.On("UpdateStack", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &smithy.GenericAPIError{Code: "ValidationError", Message: "No updates are to be performed."}).Once()

	res, err := s.client.CreateOrUpdate(s.ctx, definition())

	s.Require().NoError(err)
	s.Equal(domain.OutcomeNoChanges, res.Outcome)
	s.api.AssertNumberOfCalls(s.T(), "DescribeStacks", 1)
}

func (s *ReconcilerTestSuite) TestCreateOrUpdate_DirectUpdateOtherErrorUnchanged() {
	boom := &smithy.GenericAPIError{Code: "ValidationError", Message: "Template format error: unsupported structure."}
	s.expectDescribe(stackWithStatus(types.StackStatusCreateComplete), nil)
	s.api.On("UpdateStack", mock.Anything, mock.Anything, mock.Anything).Return(nil, boom).Once()

	_, err := s.client.CreateOrUpdate(s.ctx, definition())

	s.Same(boom, err)
}

func (s *ReconcilerTestSuite) TestCreateOrUpdate_ChangeSetEmptyIsAbandoned() {
	def := definition()
	def.UseChangeSets = true
	s.expectDescribe(stackWithStatus(types.StackStatusUpdateComplete), nil)
	s.api.On("CreateChangeSet", mock.Anything, mock.MatchedBy(func(in *cloudformation.CreateChangeSetInput) bool {
		return strings.HasPrefix(aws.ToString(in.ChangeSetName), "cs-") && in.ChangeSetType == types.ChangeSetTypeUpdate
	}), mock.Anything).Return(&cloudformation.CreateChangeSetOutput{}, nil).Once()
	s.api.On("DescribeChangeSet", mock.Anything, mock.Anything, mock.Anything).Return(&cloudformation.DescribeChangeSetOutput{
		Status:       types.ChangeSetStatusFailed,
		StatusReason: aws.String("The submitted information didn't contain changes. Submit different information to create a change set."),
	}, nil)
	s.api.On("DeleteChangeSet", mock.Anything, mock.Anything, mock.Anything).Return(&cloudformation.DeleteChangeSetOutput{}, nil).Once()

	res, err := s.client.CreateOrUpdate(s.ctx, def)

	s.Require().NoError(err)
	s.Equal(domain.OutcomeNoChanges, res.Outcome)
	s.Require().NotNil(res.ChangeSet)
	s.True(res.ChangeSet.IsEmpty())
	s.api.AssertNotCalled(s.T(), "ExecuteChangeSet", mock.Anything, mock.Anything, mock.Anything)
	s.api.AssertNumberOfCalls(s.T(), "DeleteChangeSet", 1)
}

func (s *ReconcilerTestSuite) TestCreateOrUpdate_ChangeSetCompleteWithoutChanges() {
	def := definition()
	def.UseChangeSets = true
	s.expectDescribe(stackWithStatus(types.StackStatusUpdateComplete), nil)
	s.api.On("CreateChangeSet", mock.Anything, mock.Anything, mock.Anything).Return(&cloudformation.CreateChangeSetOutput{}, nil).Once()
	s.api.On("DescribeChangeSet", mock.Anything, mock.Anything, mock.Anything).Return(&cloudformation.DescribeChangeSetOutput{
		Status: types.ChangeSetStatusCreateComplete,
	}, nil)
	s.api.On("DeleteChangeSet", mock.Anything, mock.Anything, mock.Anything).Return(&cloudformation.DeleteChangeSetOutput{}, nil).Once()

	res, err := s.client.CreateOrUpdate(s.ctx, def)

	s.Require().NoError(err)
	s.Equal(domain.OutcomeNoChanges, res.Outcome)
	s.api.AssertNotCalled(s.T(), "ExecuteChangeSet", mock.Anything, mock.Anything, mock.Anything)
}

func (s *ReconcilerTestSuite) TestCreateOrUpdate_ChangeSetExecuted() {
	def := definition()
	def.UseChangeSets = true
	s.api.On("DescribeStacks", mock.Anything, mock.Anything, mock.Anything).Return(stackWithStatus(types.StackStatusUpdateComplete), nil)
	s.api.On("CreateChangeSet", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &smithy.GenericAPIError{Code: "AlreadyExistsException", Message: "ChangeSet already exists"}).Once()
	s.api.On("DescribeChangeSet", mock.Anything, mock.Anything, mock.Anything).Return(&cloudformation.DescribeChangeSetOutput{
		Status: types.ChangeSetStatusCreateComplete,
		Changes: []types.Change{{
			Type: types.ChangeTypeResource,
			ResourceChange: &types.ResourceChange{
				Action:            types.ChangeActionModify,
				LogicalResourceId: aws.String("Topic"),
				ResourceType:      aws.String("AWS::SNS::Topic"),
				Replacement:       types.ReplacementFalse,
			},
		}},
	}, nil)
	s.api.On("ExecuteChangeSet", mock.Anything, mock.Anything, mock.Anything).Return(&cloudformation.ExecuteChangeSetOutput{}, nil).Once()

	res, err := s.client.CreateOrUpdate(s.ctx, def)

	s.Require().NoError(err)
	s.Equal(domain.OutcomeUpdated, res.Outcome)
	s.Require().Len(res.ChangeSet.Changes, 1)
	s.Equal("Modify", res.ChangeSet.Changes[0].Action)
	s.Equal("Topic", res.ChangeSet.Changes[0].LogicalID)
	s.Contains(s.logs.String(), "reusing")
	s.Contains(s.logs.String(), "logical_id: Topic")
	s.api.AssertNotCalled(s.T(), "DeleteChangeSet", mock.Anything, mock.Anything, mock.Anything)
}

func (s *ReconcilerTestSuite) TestCreateOrUpdate_ChangeSetRealFailure() {
	def := definition()
	def.UseChangeSets = true
	s.expectDescribe(stackWithStatus(types.StackStatusUpdateComplete), nil)
	s.api.On("CreateChangeSet", mock.Anything, mock.Anything, mock.Anything).Return(&cloudformation.CreateChangeSetOutput{}, nil).Once()
	s.api.On("DescribeChangeSet", mock.Anything, mock.Anything, mock.Anything).Return(&cloudformation.DescribeChangeSetOutput{
		Status:       types.ChangeSetStatusFailed,
		StatusReason: aws.String("Template error: instance of Fn::GetAtt references undefined resource"),
	}, nil)
	s.api.On("DeleteChangeSet", mock.Anything, mock.MatchedBy(func(in *cloudformation.DeleteChangeSetInput) bool {
		return aws.ToString(in.StackName) == stackName && strings.HasPrefix(aws.ToString(in.ChangeSetName), "cs-")
	}), mock.Anything).Return(&cloudformation.DeleteChangeSetOutput{}, nil).Once()

	_, err := s.client.CreateOrUpdate(s.ctx, def)

	s.Require().Error(err)
	s.True(errors.Is(err, errors.CodeStackOperationFailed))
	s.api.AssertNotCalled(s.T(), "ExecuteChangeSet", mock.Anything, mock.Anything, mock.Anything)
	s.api.AssertNumberOfCalls(s.T(), "DeleteChangeSet", 1)
}

func (s *ReconcilerTestSuite) TestCreateOrUpdate_ChangeSetCreateTimeoutDeletesIt() {
	def := definition()
	def.UseChangeSets = true
	s.shortenWaits()
	s.expectDescribe(stackWithStatus(types.StackStatusUpdateComplete), nil)
	s.api.On("CreateChangeSet", mock.Anything, mock.Anything, mock.Anything).Return(&cloudformation.CreateChangeSetOutput{}, nil).Once()
	s.api.On("DescribeChangeSet", mock.Anything, mock.Anything, mock.Anything).Return(&cloudformation.DescribeChangeSetOutput{
		Status: types.ChangeSetStatusCreateInProgress,
	}, nil)
	s.api.On("DeleteChangeSet", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, stderrs.New("change set busy")).Once()

	_, err := s.client.CreateOrUpdate(s.ctx, def)

	s.Require().Error(err)
	s.True(errors.Is(err, errors.CodeStackOperationFailed))
	s.Contains(err.Error(), "did not finish creating")
	s.api.AssertNotCalled(s.T(), "ExecuteChangeSet", mock.Anything, mock.Anything, mock.Anything)
	s.api.AssertNumberOfCalls(s.T(), "DeleteChangeSet", 1)
	s.Contains(s.logs.String(), "change set busy")
}

func (s *ReconcilerTestSuite) TestCreateOrUpdate_ExistingFailedChangeSetIsReplaced() {
	def := definition()
	def.UseChangeSets = true
	s.api.On("DescribeStacks", mock.Anything, mock.Anything, mock.Anything).Return(stackWithStatus(types.StackStatusUpdateComplete), nil)
	s.api.On("CreateChangeSet", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &smithy.GenericAPIError{Code: "AlreadyExistsException", Message: "ChangeSet already exists"}).Once()
	s.api.On("CreateChangeSet", mock.Anything, mock.Anything, mock.Anything).Return(&cloudformation.CreateChangeSetOutput{}, nil).Once()
	s.api.On("DescribeChangeSet", mock.Anything, mock.Anything, mock.Anything).Return(&cloudformation.DescribeChangeSetOutput{
		Status:       types.ChangeSetStatusFailed,
		StatusReason: aws.String("Stack is in UPDATE_IN_PROGRESS state and can not be updated."),
	}, nil).Once()
	s.api.On("DescribeChangeSet", mock.Anything, mock.Anything, mock.Anything).Return(&cloudformation.DescribeChangeSetOutput{
		Status: types.ChangeSetStatusCreateComplete,
		Changes: []types.Change{{
			Type:           types.ChangeTypeResource,
			ResourceChange: &types.ResourceChange{Action: types.ChangeActionAdd, LogicalResourceId: aws.String("Queue")},
		}},
	}, nil)
	s.api.On("DeleteChangeSet", mock.Anything, mock.Anything, mock.Anything).Return(&cloudformation.DeleteChangeSetOutput{}, nil).Once()
	s.api.On("ExecuteChangeSet", mock.Anything, mock.Anything, mock.Anything).Return(&cloudformation.ExecuteChangeSetOutput{}, nil).Once()

	res, err := s.client.CreateOrUpdate(s.ctx, def)

	s.Require().NoError(err)
	s.Equal(domain.OutcomeUpdated, res.Outcome)
	s.api.AssertNumberOfCalls(s.T(), "CreateChangeSet", 2)
	s.api.AssertNumberOfCalls(s.T(), "DeleteChangeSet", 1)
	s.api.AssertNumberOfCalls(s.T(), "ExecuteChangeSet", 1)
	s.Contains(s.logs.String(), "replacing")
	s.NotContains(s.logs.String(), "reusing")
}

func (s *ReconcilerTestSuite) TestChangeSetReusable() {
	cases := map[string]struct {
		desc *cloudformation.DescribeChangeSetOutput
		want bool
	}{
		"pending":  {&cloudformation.DescribeChangeSetOutput{Status: types.ChangeSetStatusCreatePending}, true},
		"complete": {&cloudformation.DescribeChangeSetOutput{Status: types.ChangeSetStatusCreateComplete, ExecutionStatus: types.ExecutionStatusAvailable}, true},
		"failed":   {&cloudformation.DescribeChangeSetOutput{Status: types.ChangeSetStatusFailed}, false},
		"executed": {&cloudformation.DescribeChangeSetOutput{Status: types.ChangeSetStatusCreateComplete, ExecutionStatus: types.ExecutionStatusExecuteComplete}, false},
		"obsolete": {&cloudformation.DescribeChangeSetOutput{Status: types.ChangeSetStatusCreateComplete, ExecutionStatus: types.ExecutionStatusObsolete}, false},
	}
	for name, tc := range cases {
		s.Run(name, func() {
			s.Equal(tc.want, changeSetReusable(tc.desc))
		})
	}
}

func (s *ReconcilerTestSuite) TestCreateOrUpdate_ChangeSetExecuteFailureDumpsEvents() {
	def := definition()
	def.UseChangeSets = true
	s.expectDescribe(stackWithStatus(types.StackStatusUpdateComplete), nil)
	s.api.On("CreateChangeSet", mock.Anything, mock.Anything, mock.Anything).Return(&cloudformation.CreateChangeSetOutput{}, nil).Once()
	s.api.On("DescribeChangeSet", mock.Anything, mock.Anything, mock.Anything).Return(&cloudformation.DescribeChangeSetOutput{
		Status: types.ChangeSetStatusCreateComplete,
		Changes: []types.Change{{
			Type:           types.ChangeTypeResource,
			ResourceChange: &types.ResourceChange{Action: types.ChangeActionModify, LogicalResourceId: aws.String("Topic")},
		}},
	}, nil)
	s.api.On("ExecuteChangeSet", mock.Anything, mock.Anything, mock.Anything).Return(&cloudformation.ExecuteChangeSetOutput{}, nil).Once()
	s.expectDescribe(stackWithStatus(types.StackStatusUpdateRollbackComplete), nil)
	s.expectUpdateFailedEvent()

	res, err := s.client.CreateOrUpdate(s.ctx, def)

	s.Nil(res)
	s.Require().Error(err)
	s.True(errors.Is(err, errors.CodeStackOperationFailed))
	s.Contains(err.Error(), "stack my-stack update did not complete")
	s.Contains(s.logs.String(), "Resource handler returned message: Invalid request")
	s.Contains(s.logs.String(), "UPDATE_FAILED")
	s.api.AssertNotCalled(s.T(), "DeleteChangeSet", mock.Anything, mock.Anything, mock.Anything)
	s.Equal([]string{"FAILED"}, s.rec.outcomes)
}

func (s *ReconcilerTestSuite) TestCreateOrUpdate_DirectUpdateFailureDumpsEvents() {
	s.expectDescribe(stackWithStatus(types.StackStatusCreateComplete), nil)
	s.api.On("UpdateStack", mock.Anything, mock.Anything, mock.Anything).Return(&cloudformation.UpdateStackOutput{}, nil).Once()
	s.expectDescribe(stackWithStatus(types.StackStatusUpdateRollbackComplete), nil)
	s.expectUpdateFailedEvent()

	_, err := s.client.CreateOrUpdate(s.ctx, definition())

	s.Require().Error(err)
	s.True(errors.Is(err, errors.CodeStackOperationFailed))
	s.Contains(err.Error(), "stack my-stack update did not complete")
	s.Contains(s.logs.String(), "Resource handler returned message: Invalid request")
	s.Contains(s.logs.String(), "AWS::SNS::Topic")
}

func (s *ReconcilerTestSuite) TestCreateOrUpdate_DirectUpdateTimeout() {
	s.shortenWaits()
	s.expectDescribe(stackWithStatus(types.StackStatusCreateComplete), nil)
	s.api.On("UpdateStack", mock.Anything, mock.Anything, mock.Anything).Return(&cloudformation.UpdateStackOutput{}, nil).Once()
	s.api.On("DescribeStacks", mock.Anything, mock.Anything, mock.Anything).Return(stackWithStatus(types.StackStatusUpdateInProgress), nil)
	s.api.On("DescribeStackEvents", mock.Anything, mock.Anything, mock.Anything).Return(&cloudformation.DescribeStackEventsOutput{}, nil).Once()

	_, err := s.client.CreateOrUpdate(s.ctx, definition())

	s.Require().Error(err)
	s.True(errors.Is(err, errors.CodeStackOperationFailed))
	s.Contains(err.Error(), "timed out after 60ms waiting for stack my-stack update")
	s.api.AssertNumberOfCalls(s.T(), "DescribeStackEvents", 1)
}

func (s *ReconcilerTestSuite) TestCreateOrUpdate_ChangeSetCreateErrorUnchanged() {
	def := definition()
	def.UseChangeSets = true
	boom := stderrs.New("InsufficientCapabilities")
	s.expectDescribe(stackWithStatus(types.StackStatusUpdateComplete), nil)
	s.api.On("CreateChangeSet", mock.Anything, mock.Anything, mock.Anything).Return(nil, boom).Once()

	_, err := s.client.CreateOrUpdate(s.ctx, def)

	s.Same(boom, err)
}

func (s *ReconcilerTestSuite) TestCreateOrUpdate_RequiresName() {
	_, err := s.client.CreateOrUpdate(s.ctx, domain.StackDefinition{})
	s.True(errors.Is(err, errors.CodeDefinitionInvalid))
	s.api.AssertNotCalled(s.T(), "DescribeStacks", mock.Anything, mock.Anything, mock.Anything)
}

func (s *ReconcilerTestSuite) TestEnsureDeleted_AbsentIssuesNoDelete() {
	s.expectDescribe(nil, notFound())

	s.Require().NoError(s.client.EnsureDeleted(s.ctx, stackName))
	s.api.AssertNotCalled(s.T(), "DeleteStack", mock.Anything, mock.Anything, mock.Anything)
}

func (s *ReconcilerTestSuite) TestEnsureDeleted_TransientStatusSkipped() {
	s.expectDescribe(stackWithStatus(types.StackStatusUpdateInProgress), nil)

	s.Require().NoError(s.client.EnsureDeleted(s.ctx, stackName))
	s.api.AssertNotCalled(s.T(), "DeleteStack", mock.Anything, mock.Anything, mock.Anything)
	s.Contains(s.logs.String(), "not deleting")
}

func (s *ReconcilerTestSuite) TestEnsureDeleted_DeleteFailure() {
	s.expectDescribe(stackWithStatus(types.StackStatusCreateComplete), nil)
	s.api.On("DeleteStack", mock.Anything, mock.Anything, mock.Anything).Return(&cloudformation.DeleteStackOutput{}, nil).Once()
	s.expectDescribe(stackWithStatus(types.StackStatusDeleteFailed), nil)
	s.api.On("DescribeStackEvents", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, stderrs.New("events unavailable")).Once()

	err := s.client.EnsureDeleted(s.ctx, stackName)

	s.True(errors.Is(err, errors.CodeStackOperationFailed))
	s.Contains(s.logs.String(), "events unavailable")
}

func (s *ReconcilerTestSuite) TestStackEvents() {
	s.api.On("DescribeStackEvents", mock.Anything, mock.MatchedBy(func(in *cloudformation.DescribeStackEventsInput) bool {
		return aws.ToString(in.StackName) == stackName
	}), mock.Anything).Return(&cloudformation.DescribeStackEventsOutput{
		StackEvents: []types.StackEvent{
			{LogicalResourceId: aws.String(stackName), ResourceStatus: types.ResourceStatusUpdateComplete},
			{LogicalResourceId: aws.String("Topic"), ResourceStatus: types.ResourceStatusUpdateInProgress, ResourceStatusReason: aws.String("Requested update")},
		},
	}, nil).Once()

	events, err := s.client.StackEvents(s.ctx, stackName)

	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal("UPDATE_COMPLETE", events[0].Status)
	s.Equal("Requested update", events[1].Reason)
}

func (s *ReconcilerTestSuite) TestListStacksAll() {
	s.api.On("ListStacks", mock.Anything, mock.MatchedBy(func(in *cloudformation.ListStacksInput) bool {
		return in.NextToken == nil
	}), mock.Anything).Return(&cloudformation.ListStacksOutput{
		StackSummaries: []types.StackSummary{{StackName: aws.String("a")}},
		NextToken:      aws.String("p2"),
	}, nil).Once()
	s.api.On("ListStacks", mock.Anything, mock.MatchedBy(func(in *cloudformation.ListStacksInput) bool {
		return aws.ToString(in.NextToken) == "p2"
	}), mock.Anything).Return(&cloudformation.ListStacksOutput{
		StackSummaries: []types.StackSummary{{StackName: aws.String("b")}},
	}, nil).Once()

	out, err := s.client.ListStacksAll(s.ctx, types.StackStatusCreateComplete)

	s.Require().NoError(err)
	s.Require().Len(out, 2)
	s.Equal("b", aws.ToString(out[1].StackName))
}
