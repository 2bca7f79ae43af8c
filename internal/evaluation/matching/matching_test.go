package matching

import (
	"testing"

	"crm_messaging_backend/internal/evaluation/catalog"
	"crm_messaging_backend/internal/evaluation/domain"
	"crm_messaging_backend/internal/evaluation/keywords"
	"crm_messaging_backend/internal/evaluation/repository"

	"github.com/google/uuid"
)

func buildIndex(products ...repository.CatalogProduct) *catalog.Index {
	for i := range products {
		if products[i].ID == uuid.Nil {
			products[i].ID = uuid.New()
		}
	}
	return catalog.Build(uuid.New(), products, nil)
}

func TestRankIngenieriaExample(t *testing.T) {
	idx := buildIndex(
		repository.CatalogProduct{Name: "Ingeniería de Software", Description: "Programa universitario de ingeniería"},
		repository.CatalogProduct{Name: "Marketing Digital"},
	)
	message := "Quiero información sobre el programa de Ingeniería"
	kws := keywords.Normalize([]string{"ingeniería", "información"})

	got := Rank(kws, idx, message, domain.MatchingKeyword)
	if len(got) != 1 {
		t.Fatalf("expected 1 match, got %+v", got)
	}
	if got[0].Name != "Ingeniería de Software" || got[0].Score <= 0.5 {
		t.Fatalf("unexpected match: %+v", got[0])
	}
}

func TestRankExactNameAlwaysScoresAtLeastFive(t *testing.T) {
	idx := buildIndex(
		repository.CatalogProduct{Name: "Diseño Gráfico"},
		repository.CatalogProduct{Name: "Cocina Mediterránea"},
	)

	got := Rank(nil, idx, "me interesa Diseño Gráfico para el verano", domain.MatchingKeyword)
	if len(got) != 1 || got[0].Name != "Diseño Gráfico" {
		t.Fatalf("expected the named product, got %+v", got)
	}
	if got[0].Score < 5.0 {
		t.Fatalf("expected score >= 5, got %v", got[0].Score)
	}

	folded := Rank(nil, idx, "ME INTERESA DISENO GRAFICO", domain.MatchingExact)
	if len(folded) != 1 || folded[0].Score != 5.0 {
		t.Fatalf("expected case and accent insensitive name match, got %+v", folded)
	}
}

func TestRankCapsAndOrders(t *testing.T) {
	features := []string{"tres cuatro cinco seis siete ocho nueve diez once doce trece catorce"}
	idx := buildIndex(
		repository.CatalogProduct{Name: "Alfa", Features: []string{"python datos"}},
		repository.CatalogProduct{Name: "Beta", Features: features},
		repository.CatalogProduct{Name: "Gamma", Features: []string{"python datos"}},
	)
	kws := keywords.Normalize(append([]string{"python", "datos"}, features...))

	got := Rank(kws, idx, "", domain.MatchingKeyword)
	if len(got) != 3 {
		t.Fatalf("expected 3 matches, got %+v", got)
	}
	if got[0].Name != "Beta" || got[0].Score != 10 {
		t.Fatalf("expected capped Beta first, got %+v", got[0])
	}
	if got[1].Name != "Alfa" || got[2].Name != "Gamma" {
		t.Fatalf("expected ties in catalog order, got %+v", got)
	}
}

func TestRankAlgorithms(t *testing.T) {
	idx := buildIndex(repository.CatalogProduct{Name: "Curso de Python", Features: []string{"programación backend"}})
	kws := []string{"python", "backend"}

	if got := Rank(kws, idx, "curso de python", domain.MatchingNone); len(got) != 0 {
		t.Fatalf("expected matching disabled, got %+v", got)
	}
	if got := Rank(kws, idx, "hola", domain.MatchingExact); len(got) != 0 {
		t.Fatalf("exact matching must ignore keywords, got %+v", got)
	}
	if got := Rank(kws, idx, "hola", domain.MatchingKeyword); len(got) != 1 || got[0].Score != 2 {
		t.Fatalf("expected keyword score 2, got %+v", got)
	}
	if got := Rank([]string{"python", "python"}, idx, "hola", ""); len(got) != 1 || got[0].Score != 1 {
		t.Fatalf("expected duplicate keywords counted once under the default algorithm, got %+v", got)
	}
}

func TestRankEmptyInputs(t *testing.T) {
	if got := Rank([]string{"python"}, nil, "python", domain.MatchingKeyword); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil result for nil index, got %+v", got)
	}
	idx := buildIndex(repository.CatalogProduct{Name: "Curso"})
	if got := Rank(nil, idx, "", domain.MatchingKeyword); len(got) != 0 {
		t.Fatalf("expected no matches, got %+v", got)
	}
	if got := Rank(nil, catalog.Build(uuid.New(), nil, nil), "curso", domain.MatchingKeyword); len(got) != 0 {
		t.Fatalf("expected no matches for empty catalog, got %+v", got)
	}
}

func TestNames(t *testing.T) {
	names := Names([]Match{{Name: "a"}, {Name: "b"}})
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("unexpected names: %v", names)
	}
}
