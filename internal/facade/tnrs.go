package facade

import (
	"sort"

	"go.uber.org/zap"

	"github.com/opentreeoflife/taxacore/internal/coreerr"
	"github.com/opentreeoflife/taxacore/internal/radixtrie"
	"github.com/opentreeoflife/taxacore/internal/strutil"
	"github.com/opentreeoflife/taxacore/internal/taxonomy"
)

// MatchNamesRequest is the input of spec.md §6's `tnrs/match_names`.
type MatchNamesRequest struct {
	Names                 []string
	ContextName            string
	DoApproximateMatching bool
	IncludeSuppressed      bool
}

// NameMatch is one candidate hit against a single input name.
type NameMatch struct {
	Score             float64
	IsSynonym         bool
	IsApproximateMatch bool
	MatchedName       string
	NomenclatureCode  string
	Taxon             *TaxonBlock
}

// MatchNamesResult is the response of `tnrs/match_names`: one ordered
// candidate list per input name, keyed by the name as given.
type MatchNamesResult struct {
	Matches map[string][]NameMatch
}

// MatchNames implements `tnrs/match_names`: resolve each input name
// against the name trie (or, when context_name narrows the search,
// the context's cached sub-trie), exact match first and, when
// requested, falling back to the fuzzy tier when nothing exact was
// found (spec.md §4.2/§6). No prefix tier is consulted here.
func (c *Core) MatchNames(req MatchNamesRequest) (*MatchNamesResult, error) {
	reqID := requestID()
	log := c.logRequest("tnrs/match_names", reqID, zap.Int("num_names", len(req.Names)))

	c.Gate.RLock()
	defer c.Gate.RUnlock()

	trie, err := c.trieFor(req.ContextName)
	if err != nil {
		log.Warn("tnrs/match_names: context lookup failed", zap.Error(err))
		return nil, err
	}

	out := &MatchNamesResult{Matches: map[string][]NameMatch{}}
	for _, name := range req.Names {
		q := strutil.NormalizeQueryKey(name)
		hits := trie.ExactQuery(q)
		approximate := false
		if len(hits) == 0 && req.DoApproximateMatching {
			budget := strutil.DefaultFuzzyBudget(len(q))
			hits = trie.FuzzyQuery(q, budget)
			approximate = true
		}
		out.Matches[name] = c.toNameMatches(hits, approximate, req.IncludeSuppressed)
	}

	log.Info("tnrs/match_names: resolved", zap.Int("num_names", len(req.Names)))
	return out, nil
}

func (c *Core) toNameMatches(hits []radixtrie.FuzzyResult, approximate, includeSuppressed bool) []NameMatch {
	var out []NameMatch
	for _, hit := range hits {
		for _, ref := range hit.Refs {
			t := c.Taxa.TaxonByArenaIdx(ref.TaxonIdx)
			if !includeSuppressed && c.Taxa.IsSuppressedFromTNRS(t) {
				continue
			}
			m := NameMatch{
				Score:              hit.Score,
				IsSynonym:          ref.IsSynonym(),
				IsApproximateMatch: approximate,
				MatchedName:        hit.Match,
				Taxon:              taxonBlock(t),
			}
			if ctx, ok := c.Catalog.FindByID(t.Id); ok {
				m.NomenclatureCode = ctx.Code.String()
			} else {
				m.NomenclatureCode = c.Catalog.CodeForTraversal(t.TravEnter).String()
			}
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// trieFor returns the name trie to search: the context's own
// descendant-restricted sub-trie when contextName names a known
// context, otherwise the global NameTrie.
func (c *Core) trieFor(contextName string) (*radixtrie.Tree, error) {
	if contextName == "" {
		return c.NameTrie, nil
	}
	ctx, ok := c.Catalog.FindByName(contextName)
	if !ok {
		return nil, coreerr.Newf(coreerr.BadRequest, "unknown context %q", contextName)
	}
	tree := c.Catalog.SubTrie(ctx, func(anchor *taxonomy.Taxon) *radixtrie.Tree {
		b := radixtrie.NewBuilder()
		next := c.Taxa.Descendants(anchor)
		insertTaxonNames(b, anchor)
		for t, ok := next(); ok; t, ok = next() {
			insertTaxonNames(b, t)
		}
		return b.Build()
	})
	return tree, nil
}

// AutocompleteItem is one ranked hit of `tnrs/autocomplete_name`.
type AutocompleteItem struct {
	OttID        int64
	UniqueName   string
	IsSuppressed bool
	IsHigher     bool // true when the matched taxon's rank is coarser than genus
}

// AutocompleteName implements `tnrs/autocomplete_name` (spec.md §6,
// §4.5's supplemented autocomplete behavior): exact hits first, then
// prefix hits, then fuzzy hits, each tier deduplicated against the
// ones before it so a name that already matched exactly is not
// repeated in the prefix or fuzzy tiers.
func (c *Core) AutocompleteName(name, contextName string, includeSuppressed bool) ([]AutocompleteItem, error) {
	reqID := requestID()
	log := c.logRequest("tnrs/autocomplete_name", reqID, zap.String("name", name))

	c.Gate.RLock()
	defer c.Gate.RUnlock()

	trie, err := c.trieFor(contextName)
	if err != nil {
		log.Warn("tnrs/autocomplete_name: context lookup failed", zap.Error(err))
		return nil, err
	}

	q := strutil.NormalizeQueryKey(name)
	seen := map[int32]bool{}
	var items []AutocompleteItem

	collect := func(hits []radixtrie.FuzzyResult) {
		for _, hit := range hits {
			for _, ref := range hit.Refs {
				if seen[ref.TaxonIdx] {
					continue
				}
				t := c.Taxa.TaxonByArenaIdx(ref.TaxonIdx)
				if !includeSuppressed && c.Taxa.IsSuppressedFromTNRS(t) {
					continue
				}
				seen[ref.TaxonIdx] = true
				items = append(items, AutocompleteItem{
					OttID:        int64(t.Id),
					UniqueName:   t.UniqueName,
					IsSuppressed: c.Taxa.IsSuppressedFromTNRS(t),
					IsHigher:     t.Rank < taxonomy.RankGenus,
				})
			}
		}
	}

	collect(trie.ExactQuery(q))
	collect(trie.PrefixQuery(q))
	collect(trie.FuzzyQuery(q, strutil.DefaultFuzzyBudget(len(q))))

	log.Info("tnrs/autocomplete_name: resolved", zap.Int("num_items", len(items)))
	return items, nil
}

// Contexts implements `tnrs/contexts`: a group name -> list of context
// names map.
func (c *Core) Contexts() map[string][]string {
	reqID := requestID()
	c.logRequest("tnrs/contexts", reqID)

	c.Gate.RLock()
	defer c.Gate.RUnlock()

	return c.Catalog.GroupIndex()
}

// InferContextResult is the response of `tnrs/infer_context`.
type InferContextResult struct {
	ContextName    string
	ContextOttID   int64
	AmbiguousNames []string
}

// InferContext implements `tnrs/infer_context`: the least-inclusive
// context covering every name that resolves unambiguously by exact
// canonical-name lookup.
func (c *Core) InferContext(names []string) (*InferContextResult, error) {
	reqID := requestID()
	log := c.logRequest("tnrs/infer_context", reqID, zap.Int("num_names", len(names)))

	c.Gate.RLock()
	defer c.Gate.RUnlock()

	ctx, ambiguous := c.Catalog.InferContext(names)
	out := &InferContextResult{ContextName: ctx.Name, ContextOttID: int64(ctx.AnchorID)}
	for _, a := range ambiguous {
		out.AmbiguousNames = append(out.AmbiguousNames, a.Name)
	}
	log.Info("tnrs/infer_context: resolved", zap.String("context", ctx.Name))
	return out, nil
}
