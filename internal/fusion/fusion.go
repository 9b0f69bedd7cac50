// Package fusion combines a text result stream and a vector result stream
// into one ordered, hybrid result list, per spec §4.5.
package fusion

import "sort"

// DefaultRRFConstant is the standard RRF smoothing parameter (k=60),
// adopted by the cloud services this simulator tracks.
const DefaultRRFConstant = 60

// TextHit is one entry of the ranked text result stream, 0-indexed as
// produced by the text engine; rank is derived from position.
type TextHit struct {
	Key   string
	Score float64
}

// VectorHit is one entry of the ranked vector result stream.
type VectorHit struct {
	Key   string
	Score float64
}

// Weights scales each stream's contribution to the fused score.
type Weights struct {
	Text   float64
	Vector float64
}

// DefaultWeights gives both streams equal weight.
func DefaultWeights() Weights {
	return Weights{Text: 1.0, Vector: 1.0}
}

// Result is one fused document, with both raw subscores and stream ranks
// preserved for the debug channel.
type Result struct {
	Key           string
	FusedScore    float64
	TextScore     float64
	TextRank      int // 1-based, 0 if absent from the text stream
	VectorScore   float64
	VectorRank    int // 1-based, 0 if absent from the vector stream
	InBothStreams bool
}

// RRF fuses text and vector streams by Reciprocal Rank Fusion: a
// document's score is the sum of 1/(k+rank) over only the streams it
// appears in (no missing-rank imputation), with no trailing
// normalization.
func RRF(text []TextHit, vector []VectorHit, k int) []Result {
	if k <= 0 {
		k = DefaultRRFConstant
	}
	if len(text) == 0 && len(vector) == 0 {
		return []Result{}
	}

	byKey := make(map[string]*Result, len(text)+len(vector))
	order := func(key string) *Result {
		if r, ok := byKey[key]; ok {
			return r
		}
		r := &Result{Key: key}
		byKey[key] = r
		return r
	}

	for i, h := range text {
		rank := i + 1
		r := order(h.Key)
		r.TextScore = h.Score
		r.TextRank = rank
		r.FusedScore += 1.0 / float64(k+rank)
	}
	for i, h := range vector {
		rank := i + 1
		r := order(h.Key)
		r.VectorScore = h.Score
		r.VectorRank = rank
		r.FusedScore += 1.0 / float64(k+rank)
		if r.TextRank > 0 {
			r.InBothStreams = true
		}
	}

	return sortResults(byKey)
}

// Weighted fuses text and vector streams by weighted min-max normalized
// scores: `fused = w_text*norm_text + w_vector*norm_vector`, with a
// stream contributing 0 for documents absent from it.
func Weighted(text []TextHit, vector []VectorHit, weights Weights) []Result {
	if len(text) == 0 && len(vector) == 0 {
		return []Result{}
	}

	textNorm := minMaxNormalizeText(text)
	vectorNorm := minMaxNormalizeVector(vector)

	byKey := make(map[string]*Result, len(text)+len(vector))
	order := func(key string) *Result {
		if r, ok := byKey[key]; ok {
			return r
		}
		r := &Result{Key: key}
		byKey[key] = r
		return r
	}

	for i, h := range text {
		r := order(h.Key)
		r.TextScore = h.Score
		r.TextRank = i + 1
		r.FusedScore += weights.Text * textNorm[h.Key]
	}
	for i, h := range vector {
		r := order(h.Key)
		r.VectorScore = h.Score
		r.VectorRank = i + 1
		r.FusedScore += weights.Vector * vectorNorm[h.Key]
		if r.TextRank > 0 {
			r.InBothStreams = true
		}
	}

	return sortResults(byKey)
}

func minMaxNormalizeText(hits []TextHit) map[string]float64 {
	norm := make(map[string]float64, len(hits))
	if len(hits) == 0 {
		return norm
	}
	min, max := hits[0].Score, hits[0].Score
	for _, h := range hits {
		if h.Score < min {
			min = h.Score
		}
		if h.Score > max {
			max = h.Score
		}
	}
	for _, h := range hits {
		if max == min {
			norm[h.Key] = 1.0
			continue
		}
		norm[h.Key] = (h.Score - min) / (max - min)
	}
	return norm
}

func minMaxNormalizeVector(hits []VectorHit) map[string]float64 {
	norm := make(map[string]float64, len(hits))
	if len(hits) == 0 {
		return norm
	}
	min, max := hits[0].Score, hits[0].Score
	for _, h := range hits {
		if h.Score < min {
			min = h.Score
		}
		if h.Score > max {
			max = h.Score
		}
	}
	for _, h := range hits {
		if max == min {
			norm[h.Key] = 1.0
			continue
		}
		norm[h.Key] = (h.Score - min) / (max - min)
	}
	return norm
}

// sortResults orders by fused score descending, documents present in both
// streams first on ties, then higher text score, then key ascending —
// the same deterministic tie-break shape used across the scoring paths.
func sortResults(byKey map[string]*Result) []Result {
	results := make([]Result, 0, len(byKey))
	for _, r := range byKey {
		results = append(results, *r)
	}
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.FusedScore != b.FusedScore {
			return a.FusedScore > b.FusedScore
		}
		if a.InBothStreams != b.InBothStreams {
			return a.InBothStreams
		}
		if a.TextScore != b.TextScore {
			return a.TextScore > b.TextScore
		}
		return a.Key < b.Key
	})
	return results
}
