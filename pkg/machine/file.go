package machine

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"sort"
	"strings"

	"github.com/ghodss/yaml"
	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"

	fluxerr "github.com/fluxcd/sdm/pkg/errors"
	"github.com/fluxcd/sdm/pkg/goal"
	"github.com/fluxcd/sdm/pkg/push"
	"github.com/fluxcd/sdm/pkg/sideeffect"
)

const DefinitionFilename = "machine.yaml"

// Definition is a machine described in YAML, e.g.,
//
//     name: java-sdm
//     goals:
//     - name: build
//       sideEffect: ci
//     rules:
//     - name: java build
//       test: {all: [{isMaven: true}, {materialChange: java}]}
//       goals: [build]
type Definition struct {
	Name          string           `json:"name"`
	Goals         []GoalDefinition `json:"goals,omitempty"`
	Rules         []RuleDefinition `json:"rules,omitempty"`
	Contributions []RuleDefinition `json:"contributions,omitempty"`
}

type GoalDefinition struct {
	goal.Definition
	// SideEffect names the side effect fulfilling the goal, if it is
	// fulfilled outside the machine.
	SideEffect string `json:"sideEffect,omitempty"`
}

// RuleDefinition refers to goals by context, or by name where the
// name is not shared by two goals.
type RuleDefinition struct {
	Name  string   `json:"name"`
	Test  TestNode `json:"test"`
	Goals []string `json:"goals"`
}

// TestNode is a push test with exactly one key, naming the kind of
// test; its value is the test's argument.
type TestNode map[string]json.RawMessage

// Collaborators are what compiled push tests may need to call on.
type Collaborators struct {
	// Lister enumerates the files changed by a push. If nil, changes
	// are never known, so every materialChange test passes.
	Lister push.ChangedFilesLister
	Logger log.Logger
}

func LoadDefinition(path string) (*Definition, error) {
	bytes, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading machine definition %s", path)
	}
	return ParseDefinition(bytes)
}

// ParseDefinition parses and validates a YAML machine definition.
func ParseDefinition(data []byte) (*Definition, error) {
	jsonBytes, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, fluxerr.UserError(errors.Wrap(err, "parsing machine definition"))
	}
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(definitionSchema),
		gojsonschema.NewBytesLoader(jsonBytes))
	if err != nil {
		return nil, errors.Wrap(err, "validating machine definition")
	}
	if !result.Valid() {
		var problems []string
		for _, e := range result.Errors() {
			problems = append(problems, e.String())
		}
		return nil, fluxerr.UserError(fmt.Errorf("machine definition is invalid: %s", strings.Join(problems, "; ")))
	}
	var def Definition
	if err := json.Unmarshal(jsonBytes, &def); err != nil {
		return nil, fluxerr.UserError(errors.Wrap(err, "decoding machine definition"))
	}
	return &def, nil
}

// Compile creates the machine the definition describes.
func (d *Definition) Compile(c Collaborators) (*Machine, error) {
	if c.Logger == nil {
		c.Logger = log.NewNopLogger()
	}
	if c.Lister == nil {
		c.Lister = push.ChangedFilesListerFunc(noChangesKnown)
	}

	sideEffects := sideeffect.NewMapper()
	goals := make([]*goal.Goal, 0, len(d.Goals))
	for _, gd := range d.Goals {
		g, err := goal.New(gd.Definition)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
		if gd.SideEffect != "" {
			sideEffects.AddSideEffect(g, gd.SideEffect)
		}
	}

	rules, err := compileRules(d.Rules, goals, c)
	if err != nil {
		return nil, err
	}
	contributions, err := compileRules(d.Contributions, goals, c)
	if err != nil {
		return nil, err
	}
	m := Assemble(d.Name, sideEffects, c.Logger)
	return m.WithPushRules(rules...).WithGoalContributions(contributions...), nil
}

func noChangesKnown(context.Context, *push.Invocation) (push.Changes, error) {
	return push.UnknownChanges(), nil
}

func compileRules(defs []RuleDefinition, goals []*goal.Goal, c Collaborators) ([]goal.PushRule, error) {
	var rules []goal.PushRule
	for _, rd := range defs {
		test, err := compileTest(rd.Test, c)
		if err != nil {
			return nil, errors.Wrapf(err, "rule %q", rd.Name)
		}
		var ruleGoals []*goal.Goal
		for _, ref := range rd.Goals {
			g, err := resolveGoal(ref, goals)
			if err != nil {
				return nil, errors.Wrapf(err, "rule %q", rd.Name)
			}
			ruleGoals = append(ruleGoals, g)
		}
		rules = append(rules, goal.PushRule{
			Name:  rd.Name,
			Test:  test,
			Goals: goal.NewGoals(rd.Name, ruleGoals...),
		})
	}
	return rules, nil
}

func resolveGoal(ref string, goals []*goal.Goal) (*goal.Goal, error) {
	var byName []*goal.Goal
	for _, g := range goals {
		if g.Context() == ref {
			return g, nil
		}
		if g.Name() == ref {
			byName = append(byName, g)
		}
	}
	switch len(byName) {
	case 0:
		return nil, fluxerr.UserError(fmt.Errorf("no goal with name or context %q", ref))
	case 1:
		return byName[0], nil
	default:
		var contexts []string
		for _, g := range byName {
			contexts = append(contexts, g.Context())
		}
		return nil, fluxerr.UserError(fmt.Errorf("goal name %q is ambiguous; use one of the contexts %s", ref, strings.Join(contexts, ", ")))
	}
}

var materialFilters = map[string]struct {
	name   string
	filter push.FileFilter
}{
	"java": {"MaterialChangeToJavaRepo", push.JavaFiles},
	"node": {"MaterialChangeToNodeRepo", push.NodeFiles},
}

var probes = map[string]push.PushTest{
	"defaultBranch":           push.ToDefaultBranch,
	"isTag":                   push.IsTag,
	"isMaven":                 push.IsMaven,
	"isNode":                  push.IsNode,
	"hasDockerfile":           push.HasDockerfile,
	"hasCloudFoundryManifest": push.HasCloudFoundryManifest,
	"hasKubernetesSpec":       push.HasKubernetesSpec,
}

func compileTest(node TestNode, c Collaborators) (push.PushTest, error) {
	if len(node) != 1 {
		keys := make([]string, 0, len(node))
		for k := range node {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return nil, fluxerr.UserError(fmt.Errorf("push test must have exactly one key, got [%s]", strings.Join(keys, ", ")))
	}
	for kind, arg := range node {
		if probe, ok := probes[kind]; ok {
			var want bool
			if err := json.Unmarshal(arg, &want); err != nil {
				return nil, fluxerr.UserError(errors.Wrapf(err, "%s", kind))
			}
			if !want {
				return push.Not(probe), nil
			}
			return probe, nil
		}

		switch kind {
		case "all", "any":
			var children []TestNode
			if err := json.Unmarshal(arg, &children); err != nil {
				return nil, fluxerr.UserError(errors.Wrapf(err, "%s", kind))
			}
			tests := make([]push.PushTest, len(children))
			for i, child := range children {
				t, err := compileTest(child, c)
				if err != nil {
					return nil, err
				}
				tests[i] = t
			}
			if kind == "all" {
				return push.AllSatisfied(tests...), nil
			}
			return push.AnySatisfied(tests...), nil
		case "not":
			var child TestNode
			if err := json.Unmarshal(arg, &child); err != nil {
				return nil, fluxerr.UserError(errors.Wrapf(err, "%s", kind))
			}
			t, err := compileTest(child, c)
			if err != nil {
				return nil, err
			}
			return push.Not(t), nil
		case "materialChange":
			return compileMaterialChange(arg, c)
		case "hasFile", "branch", "tag":
			var s string
			if err := json.Unmarshal(arg, &s); err != nil {
				return nil, fluxerr.UserError(errors.Wrapf(err, "%s", kind))
			}
			switch kind {
			case "hasFile":
				return push.HasFile(s), nil
			case "branch":
				if !push.NewPattern(s).Valid() {
					return nil, fluxerr.UserError(fmt.Errorf("invalid branch pattern %q", s))
				}
				return push.ToBranch(s), nil
			default:
				if !push.NewPattern(s).Valid() {
					return nil, fluxerr.UserError(fmt.Errorf("invalid tag pattern %q", s))
				}
				return push.TagMatches(s), nil
			}
		default:
			return nil, fluxerr.UserError(fmt.Errorf("unknown push test %q", kind))
		}
	}
	panic("unreachable")
}

func compileMaterialChange(arg json.RawMessage, c Collaborators) (push.PushTest, error) {
	var language string
	if err := json.Unmarshal(arg, &language); err == nil {
		f, ok := materialFilters[language]
		if !ok {
			return nil, fluxerr.UserError(fmt.Errorf("no material change test for %q", language))
		}
		return push.MaterialChangeTo(f.name, c.Lister, c.Logger, f.filter), nil
	}
	var filter struct {
		Include []string `json:"include"`
		Exclude []string `json:"exclude"`
	}
	if err := json.Unmarshal(arg, &filter); err != nil {
		return nil, fluxerr.UserError(errors.Wrap(err, "materialChange"))
	}
	name := fmt.Sprintf("MaterialChangeTo(%s)", strings.Join(filter.Include, ","))
	return push.MaterialChangeTo(name, c.Lister, c.Logger, push.FileFilter{
		Include: filter.Include,
		Exclude: filter.Exclude,
	}), nil
}
