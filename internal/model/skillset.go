package model

// SkillInput binds a named executor input to a source path in the
// enriched document tree, or to a constant expression ("= ...").
type SkillInput struct {
	Name             string `json:"name"`
	Source           string `json:"source"` // "/document/..." path, or "= literal" constant
	SourceIsConstant bool   `json:"sourceIsConstant,omitempty"`
}

// SkillOutput binds a named executor output to a target name, producing
// "<context>/<targetName>" on the enriched document tree.
type SkillOutput struct {
	Name       string `json:"name"`
	TargetName string `json:"targetName"`
}

// SkillKind selects the fixed executor a skill dispatches to, per §4.7.
type SkillKind string

const (
	SkillSplit              SkillKind = "split"
	SkillMerge              SkillKind = "merge"
	SkillShaper             SkillKind = "shaper"
	SkillConditional        SkillKind = "conditional"
	SkillDocumentExtraction SkillKind = "documentExtraction"
	SkillEmbedding          SkillKind = "embedding"
	SkillCustomWebAPI       SkillKind = "customWebApi"
)

// Skill is one step of a Skillset, per §4.7.
type Skill struct {
	Name    string        `json:"name"`
	Kind    SkillKind     `json:"@odata.type"`
	Context string        `json:"context,omitempty"` // node the skill's inputs/outputs resolve relative to
	Inputs  []SkillInput  `json:"inputs,omitempty"`
	Outputs []SkillOutput `json:"outputs,omitempty"`

	// Parameters carries executor-specific configuration (Split's
	// maximumPageLength/textSplitMode, Document-extraction's parsingMode
	// /dataToExtract/imageAction, embedding's resourceUri/deploymentId,
	// Custom web-API's url/headers/timeoutSeconds, Merge's tags).
	Parameters map[string]any `json:"parameters,omitempty"`

	// Timeout overrides the default per-skill timeout (30s) when nonzero.
	Timeout int `json:"timeout,omitempty"` // seconds
}

// Skillset is a named, ordered enrichment pipeline referenced by an
// indexer, per §3/§4.7.
type Skillset struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Skills      []Skill `json:"skills"`
}
