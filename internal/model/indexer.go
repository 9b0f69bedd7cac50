package model

import "time"

// IndexerStatusValue is the indexer's current lifecycle state, per §3.
type IndexerStatusValue string

const (
	IndexerIdle    IndexerStatusValue = "idle"
	IndexerRunning IndexerStatusValue = "running"
	IndexerError   IndexerStatusValue = "error"
)

// ExecutionResultStatus is the outcome of one indexer run, per §4.8 step 5.
type ExecutionResultStatus string

const (
	ExecutionSuccess          ExecutionResultStatus = "success"
	ExecutionTransientFailure ExecutionResultStatus = "transientFailure"
	ExecutionReset            ExecutionResultStatus = "reset"
)

// IndexerDefinition is the static configuration of one indexer, per §3.
type IndexerDefinition struct {
	Name                   string         `json:"name"`
	DataSourceName         string         `json:"dataSourceName"`
	TargetIndexName        string         `json:"targetIndexName"`
	SkillsetName           string         `json:"skillsetName,omitempty"`
	BatchSize              int            `json:"batchSize,omitempty"`
	MaxFailedItems         int            `json:"maxFailedItems,omitempty"` // global, -1 = unlimited
	MaxFailedItemsPerBatch int            `json:"maxFailedItemsPerBatch,omitempty"`
	ParsingMode            string         `json:"parsingMode,omitempty"`   // default | json | jsonArray
	DataToExtract          string         `json:"dataToExtract,omitempty"` // contentAndMetadata | allMetadata | storageMetadata
	Disabled               bool           `json:"disabled,omitempty"`
	FieldMappings          []FieldMapping `json:"fieldMappings,omitempty"`
	OutputFieldMappings    []FieldMapping `json:"outputFieldMappings,omitempty"`
}

// FieldMapping maps a source field (or enriched-document path) to a target
// index field, with an optional mapping function applied in between.
type FieldMapping struct {
	SourceFieldName string            `json:"sourceFieldName"`
	TargetFieldName string            `json:"targetFieldName,omitempty"`
	MappingFunction string            `json:"mappingFunction,omitempty"` // "" | base64Encode | base64Decode | urlEncode | urlDecode | extractTokenAtPosition
	FunctionParams  map[string]string `json:"functionParams,omitempty"`
}

// ExecutionResult is one completed (or reset) indexer run, per §3/§4.8.
type ExecutionResult struct {
	ExecutionID          string                 `json:"executionId"`
	Status               ExecutionResultStatus  `json:"status"`
	StartTime            time.Time              `json:"startTime"`
	EndTime               time.Time             `json:"endTime"`
	ItemsProcessed       int                    `json:"itemsProcessed"`
	ItemsFailed          int                    `json:"itemsFailed"`
	ItemsSkipped         int                    `json:"itemsSkipped"`
	Errors               []string               `json:"errors,omitempty"`
	Warnings             []string               `json:"warnings,omitempty"`
	InitialTrackingState string                 `json:"initialTrackingState,omitempty"`
	FinalTrackingState   string                 `json:"finalTrackingState,omitempty"`
}

// IndexerState is the mutable status record for an indexer, per §3.
type IndexerState struct {
	Status           IndexerStatusValue `json:"status"`
	LastResult       *ExecutionResult   `json:"lastResult,omitempty"`
	ExecutionHistory []ExecutionResult  `json:"executionHistory,omitempty"` // newest-first, capped at 10
	HighWaterMark    string             `json:"-"`
}

const maxExecutionHistory = 10

// AppendHistory prepends result to the history and truncates to the 10
// most recent entries, per the §8 invariant "history length <= 10 ...
// newest-first".
func (s *IndexerState) AppendHistory(result ExecutionResult) {
	s.ExecutionHistory = append([]ExecutionResult{result}, s.ExecutionHistory...)
	if len(s.ExecutionHistory) > maxExecutionHistory {
		s.ExecutionHistory = s.ExecutionHistory[:maxExecutionHistory]
	}
	s.LastResult = &s.ExecutionHistory[0]
}
