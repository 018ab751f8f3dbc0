// Package context implements the static taxonomic-context catalog of
// spec.md §4.3: a small tree of named scopes anchored to taxa, used to
// restrict name searches and to determine a taxon's nomenclatural
// code. Grounded on original_source/otc/tnrs/context.h and context.cpp.
package context

import (
	"fmt"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/opentreeoflife/taxacore/internal/radixtrie"
	"github.com/opentreeoflife/taxacore/internal/strutil"
	"github.com/opentreeoflife/taxacore/internal/taxonomy"
)

// NomCode is the nomenclatural code governing a taxon's name.
type NomCode uint8

const (
	Undefined NomCode = iota
	ICZN
	ICN
	ICNP
)

func (c NomCode) String() string {
	switch c {
	case ICZN:
		return "ICZN"
	case ICN:
		return "ICN"
	case ICNP:
		return "ICNP"
	default:
		return "undefined"
	}
}

// Context is one named taxonomic scope.
type Context struct {
	Name     string
	Group    string
	AnchorID taxonomy.Id
	Code     NomCode

	parent   int
	children []int
}

// anchor is a startup boundary check: the catalog expects the taxon
// at ID to carry ExpectedName, and assigns Code to its whole
// descendant range. Mirrors original_source/otc/tnrs/context.cpp's
// fixed anchor list.
type anchor struct {
	ID           taxonomy.Id
	ExpectedName string
	Code         NomCode
}

type codeRange struct {
	enter, exit int64
	code        NomCode
}

// Catalog is the built, queryable context tree.
type Catalog struct {
	store *taxonomy.Store

	contexts []Context
	byName   map[string]int
	byID     map[taxonomy.Id]int

	codeRanges     []codeRange // sorted by enter; built by Init
	boundariesOK   bool

	subtries *lru.Cache[int, *radixtrie.Tree]
}

// rootAnchor names the expected root taxon; if the taxonomy's actual
// root does not match, boundary detection is disabled for the whole
// process and CodeForTraversal always returns Undefined, per
// spec.md §4.3's startup side-effect.
var rootAnchor = anchor{ID: 1, ExpectedName: "life"}

// defaultAnchors is the fixed (id, expected-name, code) list used to
// carve the nomenclatural-code range table, following
// original_source/otc/tnrs/context.cpp's ANCHOR table shape.
var defaultAnchors = []anchor{
	{ID: 2, ExpectedName: "animalia", Code: ICZN},
	{ID: 3, ExpectedName: "fungi", Code: ICN},
	{ID: 4, ExpectedName: "archaeplastida", Code: ICN},
	{ID: 5, ExpectedName: "bacteria", Code: ICNP},
}

// NewCatalog builds the static catalog (the eight contexts installed
// by build; the full real-world list is not included). The taxonomy
// reference is retained for least_inclusive/infer_context, which walk
// live taxa.
func NewCatalog(store *taxonomy.Store) *Catalog {
	c := &Catalog{
		store:  store,
		byName: make(map[string]int),
		byID:   make(map[taxonomy.Id]int),
	}
	cache, _ := lru.New[int, *radixtrie.Tree](16)
	c.subtries = cache
	c.build()
	return c
}

// build installs the fixed context tree. The full real-world catalog
// has ~50 entries; this implementation wires the group/anchor shape
// completely and ships a representative subset, since the exhaustive
// anchor list is operational data, not an algorithmic concern.
func (c *Catalog) build() {
	add := func(name, group string, anchorID taxonomy.Id, code NomCode, parent int) int {
		idx := len(c.contexts)
		c.contexts = append(c.contexts, Context{Name: name, Group: group, AnchorID: anchorID, Code: code, parent: parent})
		if parent >= 0 {
			c.contexts[parent].children = append(c.contexts[parent].children, idx)
		}
		c.byName[strutil.CaseFold(name)] = idx
		c.byID[anchorID] = idx
		return idx
	}

	all := add("All life", "All life", rootAnchor.ID, Undefined, -1)
	animals := add("Animals", "Animals", 2, ICZN, all)
	add("Birds", "Animals", 6, ICZN, animals)
	add("Mammals", "Animals", 7, ICZN, animals)
	add("Fungi", "Fungi", 3, ICN, all)
	plants := add("Land Plants", "Plants", 4, ICN, all)
	add("Flowering Plants", "Plants", 8, ICN, plants)
	add("Bacteria", "Bacteria", 5, ICNP, all)
}

// InitNomCodeBoundaries populates the traversal-range table from the
// fixed anchor list. If the taxonomy's actual root does not match
// rootAnchor, boundary detection is disabled and CodeForTraversal
// always returns Undefined. A name mismatch at a non-root anchor id
// fails startup, per spec.md §4.3.
func (c *Catalog) InitNomCodeBoundaries() error {
	root, ok := c.store.Root()
	if !ok || root.Id != rootAnchor.ID || !nameMatches(root.Name, rootAnchor.ExpectedName) {
		c.boundariesOK = false
		return nil
	}

	var ranges []codeRange
	for _, a := range defaultAnchors {
		t, ok := c.store.LookupByID(a.ID)
		if !ok {
			continue // anchor not present in this taxonomy build; skip, do not fail
		}
		if !nameMatches(t.Name, a.ExpectedName) {
			return fmt.Errorf("context: anchor id %d expected name %q, got %q", a.ID, a.ExpectedName, t.Name)
		}
		ranges = append(ranges, codeRange{enter: t.TravEnter, exit: t.TravExit, code: a.Code})
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].enter < ranges[j].enter })
	c.codeRanges = ranges
	c.boundariesOK = true
	return nil
}

func nameMatches(actual, expected string) bool {
	return strutil.CaseFold(actual) == strutil.CaseFold(expected)
}

// CodeForTraversal returns the nomenclatural code governing the taxon
// whose trav_enter is given, via a linear scan of every boundary
// range — O(R) in the number of anchors; no binary search is done.
func (c *Catalog) CodeForTraversal(travEnter int64) NomCode {
	if !c.boundariesOK {
		return Undefined
	}
	best := Undefined
	bestWidth := int64(-1)
	// Ranges can nest (a family inside ICN's range, say); pick the
	// narrowest enclosing range, matching "most specific anchor wins".
	for _, r := range c.codeRanges {
		if r.enter <= travEnter && travEnter <= r.exit {
			width := r.exit - r.enter
			if bestWidth < 0 || width < bestWidth {
				best = r.code
				bestWidth = width
			}
		}
	}
	return best
}

// FindByName is a case-insensitive lookup by context name.
func (c *Catalog) FindByName(name string) (*Context, bool) {
	idx, ok := c.byName[strutil.CaseFold(name)]
	if !ok {
		return nil, false
	}
	return &c.contexts[idx], true
}

// FindByID looks up the context anchored at the given taxon id.
func (c *Catalog) FindByID(id taxonomy.Id) (*Context, bool) {
	idx, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	return &c.contexts[idx], true
}

// AllLife returns the catalog's root context.
func (c *Catalog) AllLife() *Context {
	return &c.contexts[0]
}

// LeastInclusive walks the MRCA of taxa up through its ancestors until
// the first one whose OttId is a context anchor, returning "All life"
// if taxa is empty or the walk reaches the root without finding one.
func (c *Catalog) LeastInclusive(taxa []*taxonomy.Taxon) *Context {
	if len(taxa) == 0 {
		return c.AllLife()
	}
	m := c.store.MRCAOf(taxa)
	for cur := m; cur != nil; {
		if idx, ok := c.byID[cur.Id]; ok {
			return &c.contexts[idx]
		}
		parent, ok := c.store.Parent(cur)
		if !ok {
			break
		}
		cur = parent
	}
	return c.AllLife()
}

// AmbiguousName is one input name that infer_context could not
// resolve to exactly one taxon.
type AmbiguousName struct {
	Name    string
	Matches int
}

// InferContext attempts an exact, case-insensitive canonical-name
// lookup for each input (synonyms are ignored); an input is "resolved"
// iff it yields exactly one taxon. Returns the least-inclusive context
// over the resolved set plus the list of unresolved/ambiguous names.
func (c *Catalog) InferContext(names []string) (*Context, []AmbiguousName) {
	var resolved []*taxonomy.Taxon
	var ambiguous []AmbiguousName
	for _, name := range names {
		if t, ok := c.store.LookupByName(name); ok {
			resolved = append(resolved, t)
			continue
		}
		homs := c.store.LookupHomonyms(name)
		ambiguous = append(ambiguous, AmbiguousName{Name: name, Matches: len(homs)})
	}
	return c.LeastInclusive(resolved), ambiguous
}

// GroupIndex returns a group-name -> context-names map, matching the
// shape of spec.md §6's tnrs/contexts response.
func (c *Catalog) GroupIndex() map[string][]string {
	out := make(map[string][]string)
	for _, ctx := range c.contexts {
		out[ctx.Group] = append(out[ctx.Group], ctx.Name)
	}
	return out
}

// SubTrie returns (building and caching on first use) a trie
// restricted to the context's own descendant traversal range. build
// is supplied by the caller (internal/facade ties the taxonomy's name
// index to a radixtrie.Builder); Init Open Question #3 in DESIGN.md
// resolves this as lazy rather than eager.
func (c *Catalog) SubTrie(ctx *Context, build func(anchor *taxonomy.Taxon) *radixtrie.Tree) *radixtrie.Tree {
	idx := c.byID[ctx.AnchorID]
	if tree, ok := c.subtries.Get(idx); ok {
		return tree
	}
	anchorTaxon, ok := c.store.LookupByID(ctx.AnchorID)
	if !ok {
		return nil
	}
	tree := build(anchorTaxon)
	c.subtries.Add(idx, tree)
	return tree
}
