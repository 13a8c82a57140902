package push

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/ryanuber/go-glob"
)

// ErrNoProject is returned by tests that need to look at the
// project's files, when the invocation does not carry a project.
var ErrNoProject = errors.New("push test needs the project's files, but no project was supplied")

// HasFile is true when the project has at least one file matching
// the glob pattern given.
func HasFile(pattern string) PushTest {
	return hasFile("HasFile("+pattern+")", pattern)
}

var (
	IsMaven                 = hasFile("IsMaven", "pom.xml")
	IsNode                  = hasFile("IsNode", "package.json")
	HasDockerfile           = hasFile("HasDockerfile", "*Dockerfile")
	HasCloudFoundryManifest = hasFile("HasCloudFoundryManifest", "manifest.yml")
	HasKubernetesSpec       = named("HasKubernetesSpec", AnySatisfied(
		hasFile("HasKubernetesDeploymentJSON", "*-deployment.json"),
		hasFile("HasKubernetesDeploymentYAML", "*-deployment.yaml"),
	))
)

// named gives a composite test a name of its own.
func named(name string, test PushTest) PushTest {
	return PredicatePushTest(name, test.Mapping)
}

func hasFile(name, pattern string) PushTest {
	return PredicatePushTest(name, func(ctx context.Context, inv *Invocation) (bool, error) {
		if inv.Project == nil {
			return false, ErrNoProject
		}
		return inv.Project.HasFile(ctx, pattern)
	})
}

// LocalProject is a Project backed by a directory, usually a git
// checkout.
type LocalProject struct {
	dir string
}

func NewLocalProject(dir string) *LocalProject {
	return &LocalProject{dir: dir}
}

func (p *LocalProject) Dir() string {
	return p.dir
}

var errFound = errors.New("found")

// HasFile walks the project looking for a path matching the pattern.
// The .git directory is never considered.
func (p *LocalProject) HasFile(ctx context.Context, pattern string) (bool, error) {
	err := filepath.Walk(p.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if info.IsDir() {
			if info.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(p.dir, path)
		if err != nil {
			return err
		}
		if glob.Glob(pattern, filepath.ToSlash(rel)) {
			return errFound
		}
		return nil
	})
	switch err {
	case errFound:
		return true, nil
	case nil:
		return false, nil
	default:
		return false, err
	}
}
