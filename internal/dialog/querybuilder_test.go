package dialog

import (
	"testing"

	"github.com/garagem/seminovos-assistant-go/internal/domain"
)

func TestBuildSearchQueryTextOrder(t *testing.T) {
	p := &domain.CustomerProfile{
		Model:      "onix",
		MinYear:    2019,
		BodyType:   "hatch",
		Usage:      "city",
		Priorities: []string{"economico", "completo"},
	}
	q := buildSearchQuery(p, 5)
	want := "onix 2019 hatch city economico completo"
	if q.Text != want {
		t.Errorf("Text = %q, want %q", q.Text, want)
	}
	if q.Filters.Limit != 5 {
		t.Errorf("Limit = %d, want 5", q.Filters.Limit)
	}
}

func TestBuildSearchQuerySkipsEmptyParts(t *testing.T) {
	p := &domain.CustomerProfile{BodyType: "suv"}
	q := buildSearchQuery(p, 5)
	if q.Text != "suv" {
		t.Errorf("Text = %q, want %q", q.Text, "suv")
	}
}

func TestBuildSearchQueryBudgetCeiling(t *testing.T) {
	p := &domain.CustomerProfile{Budget: 40000}
	if q := buildSearchQuery(p, 5); q.Filters.BudgetMax != 40000 {
		t.Errorf("BudgetMax = %v, want the simple budget", q.Filters.BudgetMax)
	}
	// a faixa vence o teto simples
	p.BudgetMax = 55000
	if q := buildSearchQuery(p, 5); q.Filters.BudgetMax != 55000 {
		t.Errorf("BudgetMax = %v, want the range ceiling", q.Filters.BudgetMax)
	}
}

func TestBuildSearchQueryUberEligibility(t *testing.T) {
	p := &domain.CustomerProfile{UsoPrincipal: "uber", TipoUber: "black"}
	q := buildSearchQuery(p, 5)
	if !q.Filters.AptoUberBlack || q.Filters.AptoUberX {
		t.Error("tipoUber=black should set only AptoUberBlack")
	}

	// x, comfort ou não informado caem em AptoUberX
	for _, tipo := range []string{"x", "comfort", ""} {
		p := &domain.CustomerProfile{UsoPrincipal: "uber", TipoUber: tipo}
		q := buildSearchQuery(p, 5)
		if !q.Filters.AptoUberX || q.Filters.AptoUberBlack {
			t.Errorf("tipoUber=%q should set only AptoUberX", tipo)
		}
	}

	// sem uso uber, nenhuma elegibilidade
	q = buildSearchQuery(&domain.CustomerProfile{TipoUber: "black"}, 5)
	if q.Filters.AptoUberX || q.Filters.AptoUberBlack {
		t.Error("uber eligibility requires usoPrincipal=uber")
	}
}

func TestBuildSearchQueryFamilyVsPickup(t *testing.T) {
	p := &domain.CustomerProfile{UsoPrincipal: "family"}
	if q := buildSearchQuery(p, 5); !q.Filters.FamilySuitable {
		t.Error("usoPrincipal=family should set FamilySuitable")
	}

	p = &domain.CustomerProfile{Priorities: []string{"familia"}}
	if q := buildSearchQuery(p, 5); !q.Filters.FamilySuitable {
		t.Error("the 'familia' priority should set FamilySuitable")
	}

	// intenção de picape desliga a adequação familiar
	p = &domain.CustomerProfile{UsoPrincipal: "family", BodyType: "pickup"}
	if q := buildSearchQuery(p, 5); q.Filters.FamilySuitable {
		t.Error("pickup intent must win over family suitability")
	}
	p = &domain.CustomerProfile{UsoPrincipal: "family", Priorities: []string{"pickup"}}
	if q := buildSearchQuery(p, 5); q.Filters.FamilySuitable {
		t.Error("the 'pickup' priority must also win over family suitability")
	}
}

func TestBuildSearchQueryCarriesExclusions(t *testing.T) {
	p := &domain.CustomerProfile{ExcludeVehicleIDs: []string{"v1", "v2"}}
	q := buildSearchQuery(p, 5)
	if len(q.Filters.ExcludeIDs) != 2 {
		t.Errorf("ExcludeIDs = %v, want the profile exclusions", q.Filters.ExcludeIDs)
	}
}
