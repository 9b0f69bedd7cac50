// Package skillpipeline executes an ordered skillset over an enriched
// document tree, per §4.7. Skills run strictly in declared order, each
// resolving its inputs from — and writing its outputs to — the tree
// relative to a context path that may fan out over a sequence.
package skillpipeline

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/localsearch/simulator/internal/model"
)

// Warning is one non-fatal skill event: a document marked unchanged, an
// input path with no value, or an executor-reported warning.
type Warning struct {
	Skill   string
	Context string
	Message string
}

// Failure is one fatal skill event that fails the document's enrichment.
type Failure struct {
	Skill   string
	Context string
	Message string
}

// Result is the outcome of running a skillset over one document.
type Result struct {
	Warnings []Warning
	Errors   []Failure
}

// Failed reports whether any skill failure occurred.
func (r *Result) Failed() bool {
	return len(r.Errors) > 0
}

// Executor implements one fixed skill behavior from the §4.7 contract
// table. inputs is keyed by the skill's declared input names; outputs
// must be keyed by the skill's declared output names (a name with no
// entry in the returned map means "not produced").
type Executor interface {
	Execute(ctx context.Context, inputs map[string]any, params map[string]any) (outputs map[string]any, warnings []string, err error)
}

// Runner executes skillsets against an enriched document tree.
type Runner struct {
	executors map[model.SkillKind]Executor
}

// Dependencies supplies the executors that need outside collaborators
// (the embedding executor's local delegate, the web-API executor's HTTP
// client). Nil fields fall back to the package defaults.
type Dependencies struct {
	Embedding Executor
	WebAPI    Executor
}

// NewRunner wires the fixed executor set, using deps to override the
// embedding and custom web-API executors (both need outbound
// collaborators); every other executor is self-contained.
func NewRunner(deps Dependencies) *Runner {
	embedding := deps.Embedding
	if embedding == nil {
		embedding = NewEmbeddingExecutor(nil)
	}
	webAPI := deps.WebAPI
	if webAPI == nil {
		webAPI = NewWebAPIExecutor(nil)
	}

	return &Runner{executors: map[model.SkillKind]Executor{
		model.SkillSplit:              SplitExecutor{},
		model.SkillMerge:              MergeExecutor{},
		model.SkillShaper:             ShaperExecutor{},
		model.SkillConditional:        ConditionalExecutor{},
		model.SkillDocumentExtraction: DocumentExtractionExecutor{},
		model.SkillEmbedding:          embedding,
		model.SkillCustomWebAPI:       webAPI,
	}}
}

// Run executes every skill of set over doc's tree in declared order.
func (r *Runner) Run(ctx context.Context, set *model.Skillset, doc *model.EnrichedNode) *Result {
	result := &Result{}
	for _, skill := range set.Skills {
		if !r.runSkill(ctx, skill, doc, result) {
			return result // a skill failure fails the whole document's enrichment
		}
	}
	return result
}

func (r *Runner) runSkill(ctx context.Context, skill model.Skill, doc *model.EnrichedNode, result *Result) bool {
	exec, ok := r.executors[skill.Kind]
	if !ok {
		result.Errors = append(result.Errors, Failure{Skill: skill.Name, Context: skill.Context, Message: fmt.Sprintf("no executor registered for %q", skill.Kind)})
		return false
	}

	if !model.IsFanOut(skill.Context) {
		return r.runInstance(ctx, skill, exec, doc, skill.Context, result)
	}

	base := model.FanOutBase(skill.Context)
	node, ok := model.ResolvePath(doc, base)
	if !ok || node.Kind != model.NodeSequence {
		result.Warnings = append(result.Warnings, Warning{Skill: skill.Name, Context: skill.Context, Message: fmt.Sprintf("fan-out base %q is not a sequence", base)})
		return true
	}

	ok = true
	for i := range node.Sequence {
		elementContext := base + "/" + strconv.Itoa(i)
		if !r.runInstance(ctx, skill, exec, doc, elementContext, result) {
			ok = false // fan-out failures are per-element; continue remaining elements
		}
	}
	return ok
}

func (r *Runner) runInstance(ctx context.Context, skill model.Skill, exec Executor, doc *model.EnrichedNode, instanceContext string, result *Result) bool {
	inputs := make(map[string]any, len(skill.Inputs))
	for _, in := range skill.Inputs {
		v, ok := resolveInput(doc, in, instanceContext)
		if !ok {
			result.Warnings = append(result.Warnings, Warning{Skill: skill.Name, Context: instanceContext, Message: fmt.Sprintf("input %q declares path %q with no value", in.Name, bindContext(in.Source, instanceContext))})
			continue
		}
		inputs[in.Name] = v
	}

	timeout := 30 * time.Second
	if skill.Timeout > 0 {
		timeout = time.Duration(skill.Timeout) * time.Second
	}
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	outputs, warnings, err := exec.Execute(execCtx, inputs, skill.Parameters)
	cancel()
	for _, w := range warnings {
		result.Warnings = append(result.Warnings, Warning{Skill: skill.Name, Context: instanceContext, Message: w})
	}
	if err != nil {
		result.Errors = append(result.Errors, Failure{Skill: skill.Name, Context: instanceContext, Message: err.Error()})
		return false
	}

	if len(outputs) == 0 {
		result.Warnings = append(result.Warnings, Warning{Skill: skill.Name, Context: instanceContext, Message: "skill produced no outputs; document left unchanged for downstream skills"})
		return true
	}

	for _, out := range skill.Outputs {
		v, ok := outputs[out.Name]
		if !ok {
			continue
		}
		path := instanceContext + "/" + out.TargetName
		if err := model.SetPath(doc, path, model.ValueToNode(v)); err != nil {
			result.Errors = append(result.Errors, Failure{Skill: skill.Name, Context: instanceContext, Message: err.Error()})
			return false
		}
	}
	return true
}

// resolveInput resolves one declared input relative to instanceContext: a
// constant expression evaluates to its literal text, a path is resolved
// against the document tree after binding any fan-out placeholder.
func resolveInput(doc *model.EnrichedNode, in model.SkillInput, instanceContext string) (any, bool) {
	if in.SourceIsConstant {
		return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(in.Source), "=")), true
	}
	path := bindContext(in.Source, instanceContext)
	node, ok := model.ResolvePath(doc, path)
	if !ok {
		return nil, false
	}
	return model.NodeValue(node), true
}

// bindContext resolves a skill-relative path ("text") or a path still
// carrying the fan-out placeholder ("/document/pages/*/text") against the
// concrete, already-bound instance context.
func bindContext(source, instanceContext string) string {
	if strings.HasPrefix(source, "/") {
		if idx := strings.Index(source, "/*/"); idx >= 0 {
			return instanceContext + source[idx+2:]
		}
		if strings.HasSuffix(source, "/*") {
			return instanceContext
		}
		return source
	}
	return instanceContext + "/" + source
}
