package pipeline

import (
	"sort"

	"almacen/internal"
	"almacen/internal/catalog"
	"almacen/internal/config"
	"almacen/internal/util"
)

type Matcher struct {
	cfg   config.Config
	index *catalog.Index
}

func NewMatcher(cfg config.Config, products []internal.ProductRecord) *Matcher {
	return &Matcher{cfg: cfg, index: catalog.BuildIndex(products)}
}

// Match resolves one extracted line item against the synced catalog. The
// ladder is: SKU code, exact normalized name, fuzzy ranking. A missing or
// non-positive quantity caps the result at REVIEW.
func (m *Matcher) Match(item internal.LineItem) internal.MatchResult {
	normalized := util.NormalizeName(item.Description)
	if normalized == "" {
		normalized = util.NormalizeName(item.RawLine)
	}

	sku := ""
	if item.SKU != nil {
		sku = *item.SKU
	}
	codeCandidate := util.NormalizeCode(sku)

	if util.LooksLikeCode(sku) && codeCandidate != "" {
		byCode := m.index.ByCode[codeCandidate]
		if len(byCode) == 1 {
			result := internal.MatchResult{
				Status:     internal.MatchOK,
				Confidence: 0.99,
				Reason:     internal.ReasonSKU,
				Product:    toMatchProduct(byCode[0]),
				Candidates: []internal.MatchCandidate{{ID: byCode[0].ID, Name: byCode[0].Name, Score: 0.99}},
			}
			return m.adjustForInvalidQty(item, result)
		}
		if len(byCode) > 1 {
			return internal.MatchResult{
				Status:     internal.MatchReview,
				Confidence: 0.80,
				Reason:     internal.ReasonSKU,
				Product:    nil,
				Candidates: toCandidates(byCode, 0.80),
			}
		}
	}

	exact := m.index.ByName[normalized]
	if len(exact) == 1 {
		result := internal.MatchResult{
			Status:     internal.MatchOK,
			Confidence: 0.95,
			Reason:     internal.ReasonName,
			Product:    toMatchProduct(exact[0]),
			Candidates: []internal.MatchCandidate{{ID: exact[0].ID, Name: exact[0].Name, Score: 0.95}},
		}
		return m.adjustForInvalidQty(item, result)
	}
	if len(exact) > 1 {
		return internal.MatchResult{
			Status:     internal.MatchReview,
			Confidence: 0.78,
			Reason:     internal.ReasonName,
			Product:    nil,
			Candidates: toCandidates(exact, 0.78),
		}
	}

	candidates := m.rankCandidates(normalized)
	if len(candidates) == 0 {
		return internal.MatchResult{Status: internal.MatchNotFound, Confidence: 0, Reason: internal.ReasonNone, Product: nil, Candidates: []internal.MatchCandidate{}}
	}

	top1 := candidates[0]
	gap := top1.Score
	if len(candidates) > 1 {
		gap = top1.Score - candidates[1].Score
	}

	best := m.index.ProductsByID[top1.ID]
	var result internal.MatchResult
	if top1.Score >= m.cfg.MatchOKThreshold && gap >= m.cfg.MatchGapThreshold {
		result = internal.MatchResult{Status: internal.MatchOK, Confidence: top1.Score, Reason: internal.ReasonFuzzy, Product: toMatchProduct(best), Candidates: candidates}
	} else if top1.Score >= m.cfg.MatchReviewThreshold {
		result = internal.MatchResult{Status: internal.MatchReview, Confidence: top1.Score, Reason: internal.ReasonFuzzy, Product: toMatchProduct(best), Candidates: candidates}
	} else {
		result = internal.MatchResult{Status: internal.MatchNotFound, Confidence: top1.Score, Reason: internal.ReasonNone, Product: nil, Candidates: candidates}
	}

	return m.adjustForInvalidQty(item, result)
}

func (m *Matcher) adjustForInvalidQty(item internal.LineItem, base internal.MatchResult) internal.MatchResult {
	if item.Quantity != nil && *item.Quantity > 0 {
		return base
	}
	base.Status = internal.MatchReview
	if base.Confidence > 0.7 {
		base.Confidence = 0.7
	}
	return base
}

func (m *Matcher) rankCandidates(query string) []internal.MatchCandidate {
	queryTokens := util.Tokenize(query)
	ids := map[int]struct{}{}

	for _, token := range queryTokens {
		for id := range m.index.TokenToProductIDs[token] {
			ids[id] = struct{}{}
		}
	}

	if len(ids) == 0 {
		i := 0
		for id := range m.index.ProductsByID {
			ids[id] = struct{}{}
			i++
			if i >= 1500 {
				break
			}
		}
	}

	out := make([]internal.MatchCandidate, 0, len(ids))
	for id := range ids {
		product := m.index.ProductsByID[id]
		candidateName := m.index.NormalizedNameByID[id]
		score := scoreName(query, candidateName, queryTokens, util.Tokenize(candidateName))
		out = append(out, internal.MatchCandidate{ID: product.ID, Name: product.Name, Score: score})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > 5 {
		out = out[:5]
	}
	return out
}

func scoreName(query, candidate string, queryTokens, candidateTokens []string) float64 {
	dice := util.DiceCoefficient(query, candidate)
	if len(queryTokens) == 0 || len(candidateTokens) == 0 {
		return dice
	}

	set := map[string]struct{}{}
	for _, t := range candidateTokens {
		set[t] = struct{}{}
	}
	overlap := 0
	for _, t := range queryTokens {
		if _, ok := set[t]; ok {
			overlap++
		}
	}
	tokenScore := float64(overlap) / float64(len(queryTokens))
	return 0.65*dice + 0.35*tokenScore
}

func toMatchProduct(p internal.ProductRecord) *internal.MatchProduct {
	id := p.ID
	name := p.Name
	return &internal.MatchProduct{
		ID:    &id,
		Name:  &name,
		Unit:  p.Unit,
		Codes: p.Codes,
	}
}

func toCandidates(products []internal.ProductRecord, score float64) []internal.MatchCandidate {
	limit := len(products)
	if limit > 5 {
		limit = 5
	}
	out := make([]internal.MatchCandidate, 0, limit)
	for i := 0; i < limit; i++ {
		out = append(out, internal.MatchCandidate{ID: products[i].ID, Name: products[i].Name, Score: score})
	}
	return out
}
