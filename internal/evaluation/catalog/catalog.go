// Package catalog builds the per-tenant product index the matcher scores
// messages against. Derived keywords are not authoritative; they are rebuilt
// from the catalog rows on every load and may be cached.
package catalog

import (
	"strings"

	"crm_messaging_backend/internal/evaluation/keywords"
	"crm_messaging_backend/internal/evaluation/repository"

	"github.com/google/uuid"
)

// Entry is one catalog product annotated with its derived keyword set.
type Entry struct {
	ProductID   uuid.UUID `json:"productId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Features    []string  `json:"features"`
	Synonyms    []string  `json:"synonyms"`
	Keywords    []string  `json:"keywords"`

	set map[string]struct{}
}

// Has reports whether keyword belongs to the entry's derived set.
func (e *Entry) Has(keyword string) bool {
	if e.set == nil {
		e.index()
	}
	_, ok := e.set[keyword]
	return ok
}

func (e *Entry) index() {
	e.set = make(map[string]struct{}, len(e.Keywords))
	for _, kw := range e.Keywords {
		e.set[kw] = struct{}{}
	}
}

// Index is a tenant's catalog in insertion order.
type Index struct {
	TenantID uuid.UUID `json:"tenantId"`
	Entries  []Entry   `json:"entries"`
}

// Len returns the number of products in the index; a nil index is empty.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.Entries)
}

// Names lists product names in catalog order.
func (idx *Index) Names() []string {
	if idx == nil {
		return []string{}
	}
	names := make([]string, 0, len(idx.Entries))
	for _, entry := range idx.Entries {
		names = append(names, entry.Name)
	}
	return names
}

// prepare rebuilds the lookup sets, e.g. after decoding from the cache.
func (idx *Index) prepare() {
	for i := range idx.Entries {
		idx.Entries[i].index()
	}
}

// Build derives keyword sets for products and attaches their synonyms.
// Product order is preserved; synonyms for unknown products are ignored.
func Build(tenantID uuid.UUID, products []repository.CatalogProduct, synonyms []repository.ProductSynonym) *Index {
	byProduct := make(map[uuid.UUID][]string, len(products))
	for _, s := range synonyms {
		byProduct[s.ProductID] = append(byProduct[s.ProductID], s.Synonym)
	}

	idx := &Index{TenantID: tenantID, Entries: make([]Entry, 0, len(products))}
	for _, p := range products {
		texts := make([]string, 0, len(p.Features)+2)
		texts = append(texts, p.Name, p.Description)
		texts = append(texts, p.Features...)

		acc := newKeywordSet()
		for _, text := range texts {
			acc.addGrams(text)
		}
		for _, synonym := range byProduct[p.ID] {
			acc.addSynonym(synonym)
		}

		features := p.Features
		if features == nil {
			features = []string{}
		}
		syns := byProduct[p.ID]
		if syns == nil {
			syns = []string{}
		}
		idx.Entries = append(idx.Entries, Entry{
			ProductID:   p.ID,
			Name:        p.Name,
			Description: p.Description,
			Features:    features,
			Synonyms:    syns,
			Keywords:    acc.values,
		})
	}
	idx.prepare()
	return idx
}

type keywordSet struct {
	values []string
	seen   map[string]struct{}
}

func newKeywordSet() *keywordSet {
	return &keywordSet{values: []string{}, seen: map[string]struct{}{}}
}

func (k *keywordSet) add(value string) {
	if value == "" {
		return
	}
	if _, ok := k.seen[value]; ok {
		return
	}
	k.seen[value] = struct{}{}
	k.values = append(k.values, value)
}

// addGrams adds the unigrams and adjacent bigrams of text. Stop words and
// short tokens are dropped before the window slides, so "curso de cocina"
// yields "curso", "cocina" and "curso cocina".
func (k *keywordSet) addGrams(text string) {
	tokens := make([]string, 0)
	for _, token := range keywords.Tokens(text) {
		if keywords.Significant(token) {
			tokens = append(tokens, token)
		}
	}
	for i, token := range tokens {
		k.add(token)
		if i > 0 {
			k.add(tokens[i-1] + " " + token)
		}
	}
}

// addSynonym adds the folded synonym phrase and its significant tokens.
func (k *keywordSet) addSynonym(synonym string) {
	tokens := keywords.Tokens(synonym)
	if len(tokens) == 0 {
		return
	}
	k.add(strings.Join(tokens, " "))
	for _, token := range tokens {
		if keywords.Significant(token) {
			k.add(token)
		}
	}
}
