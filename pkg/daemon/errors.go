package daemon

import (
	"fmt"

	fluxerr "github.com/fluxcd/sdm/pkg/errors"
	"github.com/fluxcd/sdm/pkg/job"
)

func unknownGoalError(context string) error {
	return &fluxerr.Error{
		Type: fluxerr.Missing,
		Err:  fmt.Errorf("unknown goal %q", context),
		Help: `Goal not found

No push rule of the delivery machine plans a goal with the context

    ` + context + `

Goal contexts look like sdm/<environment>/<name>. Run

    sdmctl goals

to see the goals the machine knows about.
`,
	}
}

func noSideEffectError(context string) error {
	return &fluxerr.Error{
		Type: fluxerr.Missing,
		Err:  fmt.Errorf("goal %q is not fulfilled by a side effect", context),
		Help: `No side effect for goal

The goal ` + context + ` is fulfilled by the delivery machine itself,
so side effects cannot report completing it.
`,
	}
}

func unknownCommandError(intent string) error {
	return &fluxerr.Error{
		Type: fluxerr.Missing,
		Err:  fmt.Errorf("no command handler for %q", intent),
		Help: `Command not found

None of the functional units registered with the delivery machine
handles the command "` + intent + `". Try

    sdmctl run "describe sdm"

to see what the machine is made of.
`,
	}
}

func unknownJobError(id job.ID) error {
	return &fluxerr.Error{
		Type: fluxerr.Missing,
		Err:  fmt.Errorf("unknown job %q", string(id)),
		Help: `Job not found

Only the status of recent jobs is kept, and jobs are forgotten when
the daemon restarts. It is OK to send the push or completion that
resulted in the job again.
`,
	}
}
