package domain

type ReconcileOutcome string

const (
	OutcomeCreated   ReconcileOutcome = "CREATED"
	OutcomeUpdated   ReconcileOutcome = "UPDATED"
	OutcomeNoChanges ReconcileOutcome = "NO_CHANGES"
	OutcomeFailed    ReconcileOutcome = "FAILED"
)

type ReconcileResult struct {
	StackName string           `json:"stack_name"`
	Region    string           `json:"region,omitempty"`
	Outcome   ReconcileOutcome `json:"outcome"`
	// Recreated is set when a ROLLBACK_COMPLETE stack was deleted before create.
	Recreated bool       `json:"recreated,omitempty"`
	ChangeSet *ChangeSet `json:"change_set,omitempty"`
	Error     error      `json:"-"`
}
