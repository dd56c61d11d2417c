package recipe

import (
	"strconv"

	"github.com/docker/docker/api/types/container"

	"github.com/kilnhq/kiln/internal/template"
)

// A fully concrete build plan: the output of materialization and the input
// to the step orchestrator.
type Plan struct {
	From       string
	Tag        string
	Maintainer string
	Steps      []Step
}

// One create-modify-commit cycle of the plan.
type Step struct {
	Context *ContextSpec
	Copies  []CopyEntry
	Run     []string
	Config  *container.Config
	Volumes []string
}

// Declares the build context transferred into the container before the
// step's commands run. Either a single source path or an explicit list of
// entries, never both.
type ContextSpec struct {
	Source  string
	Entries []CopyEntry
}

// A source/destination pair for file transfer into the container.
type CopyEntry struct {
	Src string
	Dst string
}

// Extracts the typed plan from a materialized document tree.
func buildPlan(root Value) (*Plan, error) {
	plan := &Plan{}

	from, ok := root.Lookup(keyFrom)
	if !ok || from.IsNil() {
		return nil, configErrorf(keyFrom, "missing base image, FROM is not optional")
	}
	plan.From = template.Render(from.Scalar())

	if tag, ok := root.Lookup(keyTag); ok && !tag.IsNil() {
		plan.Tag = template.Render(tag.Scalar())
	}
	if maintainer, ok := root.Lookup(keyMaintainer); ok && !maintainer.IsNil() {
		plan.Maintainer = template.Render(maintainer.Scalar())
	}

	steps, ok := root.Lookup(keySteps)
	if !ok || len(steps.Sequence()) == 0 {
		return nil, configErrorf(keySteps, "at least one build step is required")
	}

	for i, raw := range steps.Sequence() {
		step, err := buildStep(raw, stepPath(i))
		if err != nil {
			return nil, err
		}
		plan.Steps = append(plan.Steps, step)
	}

	return plan, nil
}

func stepPath(i int) string {
	return keySteps + "[" + strconv.Itoa(i) + "]"
}

// Extracts a single step from its mapping node.
func buildStep(v Value, path string) (Step, error) {
	if v.Kind() != Mapping {
		return Step{}, configErrorf(path, "step must be a mapping")
	}

	var step Step
	var err error

	if raw, ok := v.Lookup(keyBuildContext); ok {
		if step.Context, err = buildContext(raw, path+"."+keyBuildContext); err != nil {
			return Step{}, err
		}
	}

	if raw, ok := v.Lookup(keyCopy); ok {
		if step.Copies, err = copyEntries(raw, path+"."+keyCopy, true); err != nil {
			return Step{}, err
		}
	}

	if raw, ok := v.Lookup(keyRun); ok {
		if step.Run, err = runInstructions(raw, path+"."+keyRun); err != nil {
			return Step{}, err
		}
	}

	if raw, ok := v.Lookup(keyConfig); ok {
		if step.Config, err = imageConfig(raw, path+"."+keyConfig); err != nil {
			return Step{}, err
		}
	}

	if raw, ok := v.Lookup(keyVolumes); ok {
		if step.Volumes, err = stringList(raw, path+"."+keyVolumes); err != nil {
			return Step{}, err
		}
	}

	return step, nil
}

// Extracts a build context declaration: a single source path or a list of
// SRC/DST entries.
func buildContext(v Value, path string) (*ContextSpec, error) {
	switch v.Kind() {
	case Scalar:
		return &ContextSpec{Source: template.Render(v.Scalar())}, nil

	case Sequence:
		entries, err := copyEntries(v, path, false)
		if err != nil {
			return nil, err
		}
		return &ContextSpec{Entries: entries}, nil

	default:
		return nil, configErrorf(path, "context must be either a string or a list of SRC and DST objects")
	}
}

// Extracts a list of SRC/DST pairs. DST is mandatory for COPY entries and
// optional for build-context entries.
func copyEntries(v Value, path string, dstRequired bool) ([]CopyEntry, error) {
	if v.Kind() != Sequence {
		return nil, configErrorf(path, "expected a list of SRC and DST objects")
	}

	entries := make([]CopyEntry, 0, len(v.Sequence()))
	for i, item := range v.Sequence() {
		itemPath := path + "[" + strconv.Itoa(i) + "]"
		if item.Kind() != Mapping {
			return nil, configErrorf(itemPath, "expected a SRC and DST object")
		}

		src, ok := item.Lookup(keySrc)
		if !ok || src.IsNil() {
			return nil, configErrorf(itemPath, "SRC is not optional")
		}

		entry := CopyEntry{Src: template.Render(src.Scalar())}
		if dst, ok := item.Lookup(keyDst); ok && !dst.IsNil() {
			entry.Dst = template.Render(dst.Scalar())
		} else if dstRequired {
			return nil, configErrorf(itemPath, "DST is not optional")
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

// Extracts RUN instructions: a single string or a list of strings.
func runInstructions(v Value, path string) ([]string, error) {
	switch v.Kind() {
	case Scalar:
		return []string{template.Render(v.Scalar())}, nil
	case Sequence:
		return stringList(v, path)
	default:
		return nil, configErrorf(path, "expected a string or a list of strings")
	}
}

// Extracts a list of scalar strings.
func stringList(v Value, path string) ([]string, error) {
	if v.Kind() != Sequence {
		return nil, configErrorf(path, "expected a list of strings")
	}

	out := make([]string, 0, len(v.Sequence()))
	for i, item := range v.Sequence() {
		if item.Kind() != Scalar {
			return nil, configErrorf(path+"["+strconv.Itoa(i)+"]", "expected a string")
		}
		out = append(out, template.Render(item.Scalar()))
	}
	return out, nil
}
