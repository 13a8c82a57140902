package http

const (
	Ping    = "Ping"
	Version = "Version"

	GitHubWebhook = "GitHubWebhook"

	HandlePush         = "HandlePush"
	ListGoals          = "ListGoals"
	FindSideEffect     = "FindSideEffect"
	CompleteSideEffect = "CompleteSideEffect"
	RunCommand         = "RunCommand"
	JobStatus          = "JobStatus"
)
