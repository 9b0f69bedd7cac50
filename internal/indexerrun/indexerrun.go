package indexerrun

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/google/uuid"

	"github.com/localsearch/simulator/internal/docstore"
	"github.com/localsearch/simulator/internal/model"
	"github.com/localsearch/simulator/internal/simerrors"
	"github.com/localsearch/simulator/internal/skillpipeline"
)

// DocumentSink commits one bulk document action, per §6.2's status-code
// contract. Satisfied directly by *docstore.Store, and by any composition
// that also keeps the text and vector indexes in step with the document
// store (see engine.Engine.Apply).
type DocumentSink interface {
	Apply(ctx context.Context, index string, action docstore.Action, key string, fields map[string]any) docstore.ActionResult
}

// Dependencies wires one run's collaborators.
type Dependencies struct {
	DataSource DataSource
	DocStore   DocumentSink
	Pipeline   *skillpipeline.Runner

	// IndexExists reports whether the indexer's target index is defined.
	IndexExists func(indexName string) bool
}

// Runner executes indexer runs against a single status store. A RunLock
// makes a run of an indexer that is already running fail rather than
// overlap it.
type Runner struct {
	deps    Dependencies
	status  *StatusStore
	lockDir string

	mu    sync.Mutex
	locks map[string]*RunLock
}

// NewRunner builds a Runner persisting status and run locks under root.
func NewRunner(root string, deps Dependencies) *Runner {
	return &Runner{
		deps:    deps,
		status:  NewStatusStore(root),
		lockDir: root,
		locks:   make(map[string]*RunLock),
	}
}

func (r *Runner) lockFor(indexer string) *RunLock {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.locks[indexer]; ok {
		return l
	}
	l := NewRunLock(r.lockDir, indexer)
	r.locks[indexer] = l
	return l
}

// Run executes one indexer run end to end, per §4.8 step 1-5:
//
//  1. load and validate the indexer definition (disabled indexer fails
//     with kind InvalidOperation; missing target index fails as NotFound)
//  2. mark the indexer running
//  3. enumerate documents changed since the stored high-water mark
//  4. prepare, enrich, map, and bulk-commit documents in batches, bounded
//     by the failed-item budgets
//  5. compute the final status and append it to the bounded history
func (r *Runner) Run(ctx context.Context, def model.IndexerDefinition, set *model.Skillset) (*model.ExecutionResult, error) {
	if def.Disabled {
		return nil, simerrors.NewInvalidOperation(fmt.Sprintf("indexer %s is disabled", def.Name), nil)
	}
	if r.deps.IndexExists != nil && !r.deps.IndexExists(def.TargetIndexName) {
		return nil, simerrors.NewNotFound(fmt.Sprintf("target index %s does not exist", def.TargetIndexName), nil)
	}

	lock := r.lockFor(def.Name)
	acquired, err := lock.TryLock()
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, simerrors.NewInvalidOperation(fmt.Sprintf("indexer %s is already running", def.Name), nil)
	}
	defer lock.Unlock()

	state, err := r.status.Load(def.Name)
	if err != nil {
		return nil, err
	}
	state.Status = model.IndexerRunning
	if err := r.status.Save(def.Name, state); err != nil {
		return nil, err
	}

	result := model.ExecutionResult{
		ExecutionID:          uuid.NewString(),
		Status:               model.ExecutionSuccess,
		StartTime:            time.Now(),
		InitialTrackingState: state.HighWaterMark,
	}

	docs, err := r.deps.DataSource.Enumerate(ctx, state.HighWaterMark)
	if err != nil {
		result.Status = model.ExecutionTransientFailure
		result.Errors = append(result.Errors, err.Error())
		return r.finish(def.Name, state, &result), nil
	}

	batchSize := def.BatchSize
	if batchSize <= 0 {
		batchSize = 1000
	}

	maxFailedItems := def.MaxFailedItems
	highWaterMark := state.HighWaterMark

	for start := 0; start < len(docs); start += batchSize {
		end := start + batchSize
		if end > len(docs) {
			end = len(docs)
		}
		batch := docs[start:end]

		failedInBatch, err := r.runBatch(ctx, def, set, batch, &result)
		if err != nil {
			result.Status = model.ExecutionTransientFailure
			result.Errors = append(result.Errors, err.Error())
			break
		}
		if def.MaxFailedItemsPerBatch >= 0 && failedInBatch > def.MaxFailedItemsPerBatch {
			result.Status = model.ExecutionTransientFailure
			result.Errors = append(result.Errors, fmt.Sprintf(
				"batch failed items %d exceeded maxFailedItemsPerBatch %d", failedInBatch, def.MaxFailedItemsPerBatch))
			break
		}
		if maxFailedItems >= 0 && result.ItemsFailed > maxFailedItems {
			result.Status = model.ExecutionTransientFailure
			result.Errors = append(result.Errors, fmt.Sprintf(
				"total failed items %d exceeded maxFailedItems %d", result.ItemsFailed, maxFailedItems))
			break
		}

		for _, d := range batch {
			if d.HighWaterMarkValue > highWaterMark {
				highWaterMark = d.HighWaterMarkValue
			}
		}

		state.HighWaterMark = highWaterMark
		if err := r.status.Save(def.Name, state); err != nil {
			result.Status = model.ExecutionTransientFailure
			result.Errors = append(result.Errors, err.Error())
			break
		}
	}

	result.FinalTrackingState = highWaterMark
	return r.finish(def.Name, state, &result), nil
}

// Status returns an indexer's persisted status record (idle state if no
// run has ever been recorded), for the §6.1 status endpoint.
func (r *Runner) Status(indexerName string) (*model.IndexerState, error) {
	return r.status.Load(indexerName)
}

// Reset clears an indexer's stored high-water mark and appends a
// synthetic "reset" execution record, without touching any document
// already committed to the target index, per §4.8's reset semantics.
func (r *Runner) Reset(indexerName string) error {
	state, err := r.status.Load(indexerName)
	if err != nil {
		return err
	}
	previousMark := state.HighWaterMark
	state.HighWaterMark = ""
	state.Status = model.IndexerIdle
	state.AppendHistory(model.ExecutionResult{
		ExecutionID:          uuid.NewString(),
		Status:               model.ExecutionReset,
		StartTime:            time.Now(),
		EndTime:              time.Now(),
		InitialTrackingState: previousMark,
		FinalTrackingState:   "",
	})
	return r.status.Save(indexerName, state)
}

func (r *Runner) finish(name string, state *model.IndexerState, result *model.ExecutionResult) *model.ExecutionResult {
	result.EndTime = time.Now()
	state.Status = model.IndexerIdle
	if result.Status == model.ExecutionTransientFailure {
		state.Status = model.IndexerError
	}
	state.AppendHistory(*result)
	_ = r.status.Save(name, state)
	return result
}

// preparedAction is one source document's outcome: either a failure, a
// no-op skip, or the list of output records it expanded into (more than
// one for a jsonArray-parsed document).
type preparedAction struct {
	key     string
	records []map[string]any
	failed  bool
	err     error
}

func (r *Runner) runBatch(ctx context.Context, def model.IndexerDefinition, set *model.Skillset, batch []SourceDocument, result *model.ExecutionResult) (int, error) {
	prepared := make([]preparedAction, len(batch))

	g, gctx := errgroup.WithContext(ctx)
	permits := batchSizeLimit(len(batch))
	sem := make(chan struct{}, permits)

	for i, doc := range batch {
		i, doc := i, doc
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-gctx.Done():
				return gctx.Err()
			}

			records, err := r.prepareDocument(gctx, def, set, doc)
			if err != nil {
				prepared[i] = preparedAction{key: doc.Key, failed: true, err: err}
				return nil
			}
			prepared[i] = preparedAction{key: doc.Key, records: records}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	failedInBatch := 0
	for _, p := range prepared {
		if p.failed {
			failedInBatch++
			result.ItemsFailed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", p.key, p.err))
			continue
		}
		if len(p.records) == 0 {
			result.ItemsSkipped++
			continue
		}
		for i, fields := range p.records {
			key := recordKey(p.key, i, len(p.records), fields)
			res := r.deps.DocStore.Apply(ctx, def.TargetIndexName, docstore.ActionMergeOrUpload, key, fields)
			if !res.Status {
				failedInBatch++
				result.ItemsFailed++
				msg := ""
				if res.ErrorMessage != nil {
					msg = *res.ErrorMessage
				}
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", key, msg))
			} else {
				result.ItemsProcessed++
			}
		}
	}
	return failedInBatch, nil
}

// recordKey picks the document key for one output record: the record's
// own "key" field if the source or a skill supplied one, otherwise the
// source document's key, suffixed by position when jsonArray parsing
// produced more than one record from a single source document.
func recordKey(sourceKey string, index, total int, fields map[string]any) string {
	if v, ok := fields["key"].(string); ok && v != "" {
		return SanitizeKey(v)
	}
	if total > 1 {
		return SanitizeKey(fmt.Sprintf("%s-%d", sourceKey, index))
	}
	return SanitizeKey(sourceKey)
}

// prepareDocument downloads, cracks, enriches, and maps one source
// document into zero or more output field records, per §4.8 step 4b.
func (r *Runner) prepareDocument(ctx context.Context, def model.IndexerDefinition, set *model.Skillset, doc SourceDocument) ([]map[string]any, error) {
	body, err := doc.FetchBody(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch body: %w", err)
	}

	records, err := crackBody(body, def.ParsingMode)
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		if _, ok := rec["key"]; !ok {
			rec["key"] = doc.Key
		}

		if set != nil && r.deps.Pipeline != nil {
			tree := model.NewDocumentTree(rec)
			enrichResult := r.deps.Pipeline.Run(ctx, set, tree)
			if enrichResult.Failed() {
				return nil, simerrors.NewSkillFailure(def.SkillsetName, enrichResult.Errors[0].Message, nil)
			}
			rec = flattenTree(tree)
		}

		mapped, err := ApplyFieldMappings(rec, def.FieldMappings)
		if err != nil {
			return nil, err
		}
		out = append(out, mapped)
	}
	return out, nil
}

func flattenTree(tree *model.EnrichedNode) map[string]any {
	v := model.NodeValue(tree)
	m, ok := v.(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return m
}

func batchSizeLimit(n int) int {
	cpus := runtime.NumCPU()
	if n < cpus {
		if n < 1 {
			return 1
		}
		return n
	}
	return cpus
}
