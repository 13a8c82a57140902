package push

import (
	"context"
	"strings"

	"github.com/go-kit/kit/log"
)

// Changes is the result of asking which files a push changed. When
// Known is false the list could not be determined (e.g., the push
// created the branch, or the diff was truncated), and Paths is
// meaningless.
type Changes struct {
	Paths []string
	Known bool
}

func KnownChanges(paths ...string) Changes {
	return Changes{Paths: paths, Known: true}
}

func UnknownChanges() Changes {
	return Changes{}
}

// ChangedFilesLister enumerates the paths, relative to the repository
// root, changed between a push's before and after revisions. Errors
// are for failures of the lister itself; an undeterminable answer is
// reported with UnknownChanges.
type ChangedFilesLister interface {
	ChangedFiles(ctx context.Context, inv *Invocation) (Changes, error)
}

type ChangedFilesListerFunc func(ctx context.Context, inv *Invocation) (Changes, error)

func (f ChangedFilesListerFunc) ChangedFiles(ctx context.Context, inv *Invocation) (Changes, error) {
	return f(ctx, inv)
}

// Materiality is the three-valued answer to "is this change worth
// acting on".
type Materiality int

const (
	Indeterminate Materiality = iota
	NotMaterial
	Material
)

func (m Materiality) String() string {
	switch m {
	case NotMaterial:
		return "immaterial"
	case Material:
		return "material"
	default:
		return "indeterminate"
	}
}

// Triggers maps materiality onto a push test outcome. Indeterminate
// changes fail open.
func (m Materiality) Triggers() bool {
	return m != NotMaterial
}

// Classify decides the materiality of the changes given, using the
// filter as the allow-list of material paths.
func (f FileFilter) Classify(c Changes) Materiality {
	if !c.Known {
		return Indeterminate
	}
	if f.AnyIncluded(c.Paths) {
		return Material
	}
	return NotMaterial
}

var (
	// JavaFiles are the paths whose change is material to a JVM project.
	JavaFiles = FileFilter{Include: []string{
		"*.java", "*.kt", "*.kts", "*.groovy", "*.html", "*.json", "*.yml", "*.yaml",
		"*.xml", "*.sh", "*.properties", "*Dockerfile",
	}}
	// NodeFiles are the paths whose change is material to a Node project.
	NodeFiles = FileFilter{Include: []string{
		"*.ts", "*.tsx", "*.js", "*.jsx", "*.json", "*.yml", "*.yaml", "*.xml", "*.sh",
		"*.html", "*.css", "*.less", "*.scss", "*Dockerfile",
	}}
)

// MaterialChangeTo is true when the push changed at least one file
// matching the filter, or when the changed files cannot be
// determined. Errors from the lister are returned unchanged.
func MaterialChangeTo(name string, lister ChangedFilesLister, logger log.Logger, filter FileFilter) PushTest {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return PredicatePushTest(name, func(ctx context.Context, inv *Invocation) (bool, error) {
		changes, err := lister.ChangedFiles(ctx, inv)
		if err != nil {
			return false, err
		}
		m := filter.Classify(changes)
		if m == Indeterminate {
			logger.Log("info", "cannot enumerate changed files; treating change as material",
				"test", name, "repo", inv.ID.String(), "after", inv.Push.After)
		} else {
			logger.Log("test", name, "repo", inv.ID.String(), "after", inv.Push.After,
				"change", m.String(), "files", strings.Join(changes.Paths, ","))
		}
		return m.Triggers(), nil
	})
}

func MaterialChangeToJavaRepo(lister ChangedFilesLister, logger log.Logger) PushTest {
	return MaterialChangeTo("MaterialChangeToJavaRepo", lister, logger, JavaFiles)
}

func MaterialChangeToNodeRepo(lister ChangedFilesLister, logger log.Logger) PushTest {
	return MaterialChangeTo("MaterialChangeToNodeRepo", lister, logger, NodeFiles)
}
