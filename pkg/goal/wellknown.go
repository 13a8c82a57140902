package goal

// Goals most delivery machines want. Machines are free to define
// their own instead.
var (
	AutofixGoal = MustNew(Definition{
		Name:        "autofix",
		DisplayName: "Autofix",
		Descriptions: Descriptions{
			InProcess: "Applying autofixes",
			Completed: "No autofixes needed",
		},
	})
	CodeInspectionGoal = MustNew(Definition{
		Name:        "code-inspection",
		DisplayName: "Code inspection",
		Descriptions: Descriptions{
			InProcess: "Running code inspections",
			Completed: "Code inspections passed",
		},
	})
	BuildGoal = MustNew(Definition{
		Name:          "build",
		DisplayName:   "Build",
		RetryFeasible: true,
		Descriptions: Descriptions{
			InProcess: "Building",
			Completed: "Build successful",
			Failed:    "Build failed",
		},
	})
	ArtifactGoal = MustNew(Definition{
		Name:        "artifact",
		DisplayName: "Store artifact",
	})
	StagingDeploymentGoal = MustNew(Definition{
		Name:          "deploy",
		DisplayName:   "Deploy to Test",
		Environment:   StagingEnvironment,
		RetryFeasible: true,
		Descriptions: Descriptions{
			InProcess: "Deploying to Test",
			Completed: "Deployed to Test",
		},
	})
	ProductionDeploymentGoal = MustNew(Definition{
		Name:             "deploy",
		DisplayName:      "Deploy to Prod",
		Environment:      ProductionEnvironment,
		ApprovalRequired: true,
		RetryFeasible:    true,
		Descriptions: Descriptions{
			InProcess: "Deploying to Prod",
			Completed: "Deployed to Prod",
		},
	})
)
