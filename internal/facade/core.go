// Package facade implements the query surface of spec.md §6: one
// method per operation row, each admitted through internal/gate,
// tagged with a request-correlation id, and logged structurally. It
// is the thin glue layer SPEC_FULL.md §2 calls out as having no
// direct teacher precedent — conventions are borrowed from
// turahe-go-restfull's controller layer instead (one structured log
// line per request, a correlation id threaded through it).
package facade

import (
	"github.com/hashicorp/go-uuid"
	"go.uber.org/zap"

	"github.com/opentreeoflife/taxacore/internal/coreconfig"
	"github.com/opentreeoflife/taxacore/internal/coreerr"
	"github.com/opentreeoflife/taxacore/internal/conflict"
	corecontext "github.com/opentreeoflife/taxacore/internal/context"
	"github.com/opentreeoflife/taxacore/internal/corelog"
	"github.com/opentreeoflife/taxacore/internal/gate"
	"github.com/opentreeoflife/taxacore/internal/radixtrie"
	"github.com/opentreeoflife/taxacore/internal/resolve"
	"github.com/opentreeoflife/taxacore/internal/strutil"
	"github.com/opentreeoflife/taxacore/internal/synth"
	"github.com/opentreeoflife/taxacore/internal/taxonomy"
)

// Core is the single process-wide value spec.md §9's "Global
// singletons" note asks for: every global the source kept as a
// mutable static (locale facet, contexts list, nomenclature-range
// table) lives here instead, constructed once at startup and passed
// by reference into every facade call. Nothing in this package reads
// a package-level var except the corelog fallback logger.
type Core struct {
	Taxa    *taxonomy.Store
	Synths  *synth.Store
	Catalog *corecontext.Catalog
	Gate    *gate.RWGate
	Conflict *conflict.Engine

	Limits coreconfig.Limits
	Log    *zap.Logger

	// NameTrie indexes every canonical name, unique name, and synonym
	// across the whole taxonomy — the trie tnrs/match_names and
	// tnrs/autocomplete_name query directly when no context narrows
	// the search. Context-scoped sub-tries are built lazily by
	// internal/context.Catalog.SubTrie instead.
	NameTrie *radixtrie.Tree
}

// NewCore wires a taxonomy, its registered synth trees, and the
// static context catalog into one Core value. cacheSize sizes the
// conflict engine's induced-subtree LRU.
func NewCore(taxa *taxonomy.Store, synths *synth.Store, limits coreconfig.Limits, cacheSize int) (*Core, error) {
	catalog := corecontext.NewCatalog(taxa)
	if err := catalog.InitNomCodeBoundaries(); err != nil {
		return nil, coreerr.Newf(coreerr.Internal, "facade: context boundaries: %v", err)
	}
	engine, err := conflict.NewEngine(taxa, cacheSize)
	if err != nil {
		return nil, coreerr.Newf(coreerr.Internal, "facade: conflict engine: %v", err)
	}
	c := &Core{
		Taxa:     taxa,
		Synths:   synths,
		Catalog:  catalog,
		Gate:     gate.New(),
		Conflict: engine,
		Limits:   limits,
		Log:      corelog.L(),
	}
	c.NameTrie = buildNameTrie(taxa)
	return c, nil
}

// buildNameTrie indexes every taxon's canonical name, unique name,
// and synonyms, case-folded, keyed for exact/prefix/fuzzy queries
// (spec.md §4.2, §9 "Trie node sharing": the same stored string can
// back more than one (taxon, synonym) ref).
func buildNameTrie(taxa *taxonomy.Store) *radixtrie.Tree {
	b := radixtrie.NewBuilder()
	next := taxa.AllTaxa()
	for t, ok := next(); ok; t, ok = next() {
		insertTaxonNames(b, t)
	}
	return b.Build()
}

func insertTaxonNames(b *radixtrie.Builder, t *taxonomy.Taxon) {
	insertKey := func(name string, synIdx int32) {
		if name == "" {
			return
		}
		b.Insert(strutil.NormalizeKey(name), radixtrie.Ref{TaxonIdx: t.ArenaIdx(), SynonymIdx: synIdx})
	}
	insertKey(t.Name, -1)
	if t.UniqueName != t.Name {
		insertKey(t.UniqueName, -1)
	}
	for i, syn := range t.Synonyms {
		insertKey(syn.Name, int32(i))
	}
}

// resolverFor builds a resolve.Resolver for the chosen synth id,
// falling back to the registry's default when synthID is empty
// (spec.md §4.4 "most recent by semantic version").
func (c *Core) resolverFor(synthID string) (*resolve.Resolver, *synth.SynthTree, error) {
	tree, err := c.treeFor(synthID)
	if err != nil {
		return nil, nil, err
	}
	return resolve.New(c.Taxa, tree), tree, nil
}

func (c *Core) treeFor(synthID string) (*synth.SynthTree, error) {
	if synthID == "" {
		id, ok := c.Synths.DefaultSynthID()
		if !ok {
			return nil, coreerr.New(coreerr.NotFound, "no synth trees are registered")
		}
		synthID = id
	}
	tree, ok := c.Synths.SummaryTree(synthID)
	if !ok {
		return nil, coreerr.Newf(coreerr.BadRequest, "unknown synth id %q", synthID)
	}
	return tree, nil
}

// requestID mints a go-uuid correlation id for one facade call.
// Falling back to a constant on error (uuid generation can only fail
// if the system's random source is broken) keeps every facade method
// from having to plumb a second error path for logging alone.
func requestID() string {
	id, err := uuid.GenerateUUID()
	if err != nil {
		return "uuid-unavailable"
	}
	return id
}

// logRequest emits the one structured log line per request that every
// facade method starts with, in turahe-go-restfull's controller-log
// style: operation name, correlation id, and whatever extra fields
// the caller supplies.
func (c *Core) logRequest(op, reqID string, fields ...zap.Field) *zap.Logger {
	l := c.Log.With(zap.String("op", op), zap.String("request_id", reqID))
	l.Info("facade request", fields...)
	return l
}

