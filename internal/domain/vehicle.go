// Package domain — vehicle.go define o veículo, a query estruturada de
// busca e o resultado ranqueado que a capability de busca devolve.
package domain

// Vehicle é o registro de um carro do estoque como a busca o devolve.
type Vehicle struct {
	ID           string  `json:"id"`
	Brand        string  `json:"brand"`
	Model        string  `json:"model"`
	Year         int     `json:"year"`
	Price        float64 `json:"price"`
	BodyType     string  `json:"bodyType"`
	Km           int     `json:"km"`
	Seats        int     `json:"seats"`
	Transmission string  `json:"transmission,omitempty"`
	FuelType     string  `json:"fuelType,omitempty"`
	Color        string  `json:"color,omitempty"`
}

// ShownVehicle é o snapshot imutável de um veículo no momento em que
// foi mostrado. Nunca é re-buscado — serve para exclusão em buscas
// seguintes e para cálculo de faixa de preço de referência.
type ShownVehicle struct {
	ID       string  `json:"id"`
	Brand    string  `json:"brand"`
	Model    string  `json:"model"`
	Year     int     `json:"year"`
	Price    float64 `json:"price"`
	BodyType string  `json:"bodyType"`
}

// Snapshot congela um Vehicle num ShownVehicle.
func (v Vehicle) Snapshot() ShownVehicle {
	return ShownVehicle{
		ID:       v.ID,
		Brand:    v.Brand,
		Model:    v.Model,
		Year:     v.Year,
		Price:    v.Price,
		BodyType: v.BodyType,
	}
}

// ============================================================
// Query de busca — perfil → filtros estruturados
// ============================================================

// SearchFilters são os filtros estruturados da busca. A capability
// trata zero como "sem filtro".
type SearchFilters struct {
	BudgetMax float64 `json:"budgetMax,omitempty"`
	BudgetMin float64 `json:"budgetMin,omitempty"`
	MinYear   int     `json:"minYear,omitempty"`
	Year      int     `json:"year,omitempty"` // busca exata por ano
	MaxKm     int     `json:"maxKm,omitempty"`
	MinSeats  int     `json:"minSeats,omitempty"`

	BodyType     string `json:"bodyType,omitempty"`
	Transmission string `json:"transmission,omitempty"`
	Brand        string `json:"brand,omitempty"`
	Model        string `json:"model,omitempty"`

	// Elegibilidades derivadas de usoPrincipal/tipoUber/priorities.
	// FamilySuitable e intenção pickup/comercial são mutuamente
	// exclusivas por construção (ver query builder).
	AptoUberX      bool `json:"aptoUberX,omitempty"`
	AptoUberBlack  bool `json:"aptoUberBlack,omitempty"`
	FamilySuitable bool `json:"familySuitable,omitempty"`

	ExcludeIDs []string `json:"excludeIds,omitempty"`
	Limit      int      `json:"limit,omitempty"`
}

// SearchQuery junta o texto livre (usado pelo ranking) e os filtros.
type SearchQuery struct {
	Text    string        `json:"text"`
	Filters SearchFilters `json:"filters"`
}

// SearchResult é um item da lista ordenada (melhor primeiro) que a
// capability de busca devolve. O core nunca reordena, exceto no fluxo
// explícito "mais barato"/"mais caro" pós-recomendação.
type SearchResult struct {
	ID         string  `json:"id"`
	MatchScore float64 `json:"matchScore"`
	Vehicle    Vehicle `json:"vehicle"`
}
