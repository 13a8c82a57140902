package metrics

/*
Labels and so on for metrics used in the delivery machine.
*/

const (
	LabelMethod  = "method"
	LabelRoute   = "route"
	LabelSuccess = "success"

	// Labels for goal planning metrics
	LabelRule    = "rule"
	LabelOutcome = "outcome"

	// Labels for dispatch metrics
	LabelEventType = "event_type"
	LabelGoal      = "goal"
	LabelState     = "state"

	// Labels for GitHub API metrics
	LabelOperation = "operation"
)
