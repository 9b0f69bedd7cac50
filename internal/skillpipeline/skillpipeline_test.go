package skillpipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localsearch/simulator/internal/model"
)

func TestSkillPipeline_SplitThenShaperFanOutWithWarning(t *testing.T) {
	doc := model.NewDocumentTree(map[string]any{"content": "a short single page of text."})

	set := &model.Skillset{
		Name: "split-shape",
		Skills: []model.Skill{
			{
				Name:    "split",
				Kind:    model.SkillSplit,
				Context: "/document",
				Inputs:  []model.SkillInput{{Name: "text", Source: "/document/content"}},
				Outputs: []model.SkillOutput{{Name: "textItems", TargetName: "pages"}},
				Parameters: map[string]any{"textSplitMode": "pages"},
			},
			{
				Name:    "shape",
				Kind:    model.SkillShaper,
				Context: "/document/pages/*",
				Inputs: []model.SkillInput{
					{Name: "text", Source: "/document/pages/*"},
					{Name: "missingField", Source: "/document/pages/*/nonexistent"},
				},
				Outputs: []model.SkillOutput{{Name: "output", TargetName: "shaped"}},
			},
		},
	}

	runner := NewRunner(Dependencies{})
	result := runner.Run(context.Background(), set, doc)

	require.Empty(t, result.Errors)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0].Message, "missingField")
	assert.Contains(t, result.Warnings[0].Message, "no value")

	pagesNode, ok := model.ResolvePath(doc, "/document/pages")
	require.True(t, ok)
	assert.Equal(t, model.NodeSequence, pagesNode.Kind)
	require.Len(t, pagesNode.Sequence, 1)

	shapedNode, ok := model.ResolvePath(doc, "/document/pages/0/shaped")
	require.True(t, ok)
	shaped, ok := model.NodeValue(shapedNode).(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "a short single page of text.", shaped["text"])
}

func TestSkillPipeline_SkillFailureStopsEnrichment(t *testing.T) {
	doc := model.NewDocumentTree(map[string]any{"x": true, "a": "alpha", "b": "beta"})
	set := &model.Skillset{
		Skills: []model.Skill{
			{
				Name:    "cond",
				Kind:    model.SkillConditional,
				Context: "/document",
				Inputs: []model.SkillInput{
					{Name: "condition", Source: "/document/x"},
					{Name: "whenTrue", Source: "/document/a"},
					{Name: "whenFalse", Source: "/document/b"},
				},
				Outputs: []model.SkillOutput{{Name: "output", TargetName: "picked"}},
			},
			{
				Name:    "bad",
				Kind:    "unregistered",
				Context: "/document",
			},
			{
				Name:    "never-runs",
				Kind:    model.SkillShaper,
				Context: "/document",
				Outputs: []model.SkillOutput{{Name: "output", TargetName: "unreachable"}},
			},
		},
	}

	runner := NewRunner(Dependencies{})
	result := runner.Run(context.Background(), set, doc)
	require.Len(t, result.Errors, 1)

	picked, ok := model.ResolvePath(doc, "/document/picked")
	require.True(t, ok)
	assert.Equal(t, "alpha", model.NodeValue(picked))

	_, ok = model.ResolvePath(doc, "/document/unreachable")
	assert.False(t, ok)
}

func TestSplitExecutor_PagesPreserveOrder(t *testing.T) {
	exec := SplitExecutor{}
	outputs, warnings, err := exec.Execute(context.Background(), map[string]any{"text": "abcdefghij"}, map[string]any{"maximumPageLength": 4})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	items := outputs["textItems"].([]any)
	require.Len(t, items, 3)
	assert.Equal(t, "abcd", items[0])
	assert.Equal(t, "efgh", items[1])
	assert.Equal(t, "ij", items[2])
}

func TestSplitExecutor_EmptyTextWarns(t *testing.T) {
	exec := SplitExecutor{}
	outputs, warnings, err := exec.Execute(context.Background(), map[string]any{"text": ""}, nil)
	require.NoError(t, err)
	assert.Nil(t, outputs)
	assert.Len(t, warnings, 1)
}

func TestMergeExecutor_InsertsAtOffsetsDescending(t *testing.T) {
	exec := MergeExecutor{}
	outputs, _, err := exec.Execute(context.Background(), map[string]any{
		"text":          "see also.",
		"itemsToInsert": []any{"[1]", "[2]"},
		"offsets":       []any{4, 9},
	}, map[string]any{"insertPreTag": "", "insertPostTag": ""})
	require.NoError(t, err)
	assert.Equal(t, "see [1]also.[2]", outputs["mergedText"])
}

func TestDetectContentType(t *testing.T) {
	assert.Equal(t, "application/pdf", DetectContentType([]byte("%PDF-1.4 ...")))
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", DetectContentType([]byte{'P', 'K', 0x03, 0x04, 0, 0}))
	assert.Equal(t, "application/json", DetectContentType([]byte(`{"a":1}`)))
	assert.Equal(t, "text/html", DetectContentType([]byte("<html><body>hi</body></html>")))
	assert.Equal(t, "text/plain", DetectContentType([]byte("just some plain text")))
	assert.Equal(t, "application/octet-stream", DetectContentType([]byte{0xff, 0xfe, 0x00, 0xff, 0xfe}))
}

func TestDocumentExtractionExecutor_DecodesInlineBase64Text(t *testing.T) {
	exec := DocumentExtractionExecutor{}
	inputs := map[string]any{"file_data": map[string]any{
		"$type": "file",
		"data":  "aGVsbG8gd29ybGQ=", // "hello world"
	}}
	outputs, warnings, err := exec.Execute(context.Background(), inputs, nil)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "hello world", outputs["content"])
	assert.Equal(t, []any{}, outputs["normalized_images"])
}

func TestEmbeddingExecutor_LocalSchemeDelegatesToLocalEmbedder(t *testing.T) {
	exec := NewEmbeddingExecutor(nil)
	outputs, warnings, err := exec.Execute(context.Background(), map[string]any{
		"text":        "hello world",
		"resourceUri": "local://on-device",
	}, nil)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	emb, ok := outputs["embedding"].([]any)
	require.True(t, ok)
	assert.Equal(t, staticEmbedDimensions, len(emb))
}

func TestEmbeddingExecutor_EmptyTextWarnsNoOutput(t *testing.T) {
	exec := NewEmbeddingExecutor(nil)
	outputs, warnings, err := exec.Execute(context.Background(), map[string]any{"text": "  ", "resourceUri": "local://on-device"}, nil)
	require.NoError(t, err)
	assert.Nil(t, outputs)
	assert.Len(t, warnings, 1)
}

func TestEmbeddingExecutor_RateLimitIsWarningNotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	exec := NewEmbeddingExecutor(nil)
	outputs, warnings, err := exec.Execute(context.Background(), map[string]any{
		"text":         "hello",
		"resourceUri":  srv.URL,
		"deploymentId": "dep1",
	}, nil)
	require.NoError(t, err)
	assert.Nil(t, outputs)
	assert.Len(t, warnings, 1)
}

func TestWebAPIExecutor_SuccessWithWarningsWhenDataMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req batchEnvelope
		_ = json.NewDecoder(r.Body).Decode(&req)
		resp := batchEnvelope{Values: []batchRecord{{
			RecordID: req.Values[0].RecordID,
			Warnings: []apiMessage{{Message: "partial result"}},
		}}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	exec := NewWebAPIExecutor(nil)
	outputs, warnings, err := exec.Execute(context.Background(), map[string]any{"a": "1"}, map[string]any{"url": srv.URL})
	require.NoError(t, err)
	assert.Nil(t, outputs)
	assert.Equal(t, []string{"partial result"}, warnings)
}

func TestWebAPIExecutor_ErrorsFailTheSkill(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req batchEnvelope
		_ = json.NewDecoder(r.Body).Decode(&req)
		resp := batchEnvelope{Values: []batchRecord{{
			RecordID: req.Values[0].RecordID,
			Errors:   []apiMessage{{Message: "boom"}},
		}}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	exec := NewWebAPIExecutor(nil)
	_, _, err := exec.Execute(context.Background(), map[string]any{"a": "1"}, map[string]any{"url": srv.URL})
	assert.Error(t, err)
}

func TestWebAPIExecutor_ReturnsConfiguredOutputData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req batchEnvelope
		_ = json.NewDecoder(r.Body).Decode(&req)
		resp := batchEnvelope{Values: []batchRecord{{
			RecordID: req.Values[0].RecordID,
			Data:     map[string]any{"sentiment": "positive"},
		}}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	exec := NewWebAPIExecutor(nil)
	outputs, warnings, err := exec.Execute(context.Background(), map[string]any{"text": "great"}, map[string]any{"url": srv.URL})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "positive", outputs["sentiment"])
}
