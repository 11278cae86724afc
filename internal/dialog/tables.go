// Package dialog — tables.go concentra as tabelas de conhecimento do
// mercado brasileiro de seminovos: modelos conhecidos, picapes,
// modelos de 7 lugares e a inferência modelo → marca/carroceria.
//
// As tabelas são dados, não código: qualquer ajuste de catálogo é uma
// edição aqui, sem tocar na cascata.
package dialog

// modelInfo liga um modelo conhecido à marca e à carroceria típica.
type modelInfo struct {
	Brand    string
	BodyType string
}

// knownModels mapeia o modelo (minúsculo) para marca e carroceria.
// Usado para detectar menção de modelo, inferir marca ausente e
// escolher a carroceria de fallback quando a busca exata falha.
var knownModels = map[string]modelInfo{
	// Hatches
	"onix":    {"chevrolet", "hatch"},
	"gol":     {"volkswagen", "hatch"},
	"uno":     {"fiat", "hatch"},
	"palio":   {"fiat", "hatch"},
	"mobi":    {"fiat", "hatch"},
	"argo":    {"fiat", "hatch"},
	"hb20":    {"hyundai", "hatch"},
	"ka":      {"ford", "hatch"},
	"sandero": {"renault", "hatch"},
	"kwid":    {"renault", "hatch"},
	"polo":    {"volkswagen", "hatch"},
	"fox":     {"volkswagen", "hatch"},
	"up":      {"volkswagen", "hatch"},
	"celta":   {"chevrolet", "hatch"},
	"etios":   {"toyota", "hatch"},
	"yaris":   {"toyota", "hatch"},
	"fit":     {"honda", "hatch"},
	"march":   {"nissan", "hatch"},

	// Sedans
	"civic":   {"honda", "sedan"},
	"corolla": {"toyota", "sedan"},
	"city":    {"honda", "sedan"},
	"virtus":  {"volkswagen", "sedan"},
	"jetta":   {"volkswagen", "sedan"},
	"voyage":  {"volkswagen", "sedan"},
	"cruze":   {"chevrolet", "sedan"},
	"prisma":  {"chevrolet", "sedan"},
	"cobalt":  {"chevrolet", "sedan"},
	"versa":   {"nissan", "sedan"},
	"sentra":  {"nissan", "sedan"},
	"cronos":  {"fiat", "sedan"},
	"logan":   {"renault", "sedan"},

	// SUVs
	"compass":  {"jeep", "suv"},
	"renegade": {"jeep", "suv"},
	"creta":    {"hyundai", "suv"},
	"tracker":  {"chevrolet", "suv"},
	"t-cross":  {"volkswagen", "suv"},
	"tcross":   {"volkswagen", "suv"},
	"nivus":    {"volkswagen", "suv"},
	"kicks":    {"nissan", "suv"},
	"hr-v":     {"honda", "suv"},
	"hrv":      {"honda", "suv"},
	"duster":   {"renault", "suv"},
	"captur":   {"renault", "suv"},
	"ecosport": {"ford", "suv"},
	"tucson":   {"hyundai", "suv"},
	"sw4":      {"toyota", "suv"},
	"pajero":   {"mitsubishi", "suv"},
	"pulse":    {"fiat", "suv"},

	// Minivans / 7 lugares
	"spin":    {"chevrolet", "minivan"},
	"doblo":   {"fiat", "minivan"},
	"livina":  {"nissan", "minivan"},
	"zafira":  {"chevrolet", "minivan"},
	"caravan": {"dodge", "minivan"},

	// Picapes — ver também pickupModels
	"hilux":    {"toyota", "pickup"},
	"ranger":   {"ford", "pickup"},
	"s10":      {"chevrolet", "pickup"},
	"saveiro":  {"volkswagen", "pickup"},
	"strada":   {"fiat", "pickup"},
	"toro":     {"fiat", "pickup"},
	"amarok":   {"volkswagen", "pickup"},
	"frontier": {"nissan", "pickup"},
	"montana":  {"chevrolet", "pickup"},
	"oroch":    {"renault", "pickup"},
	"triton":   {"mitsubishi", "pickup"},
}

// pickupModels é o subconjunto de knownModels com carroceria pickup.
// Quando a extração devolve um desses como `model`, forçamos
// bodyType=pickup e acrescentamos "pickup" às priorities, mesmo que a
// capability de NLU não tenha dito nada disso.
var pickupModels = func() map[string]bool {
	m := make(map[string]bool)
	for name, info := range knownModels {
		if info.BodyType == "pickup" {
			m[name] = true
		}
	}
	return m
}()

// sevenSeatModels é o allow-list de modelos que de fato têm 7 lugares.
// A busca genérica não garante assentos; o fail-fast de 7 lugares
// filtra por aqui antes de prometer qualquer coisa ao cliente.
var sevenSeatModels = map[string]bool{
	"spin":     true,
	"doblo":    true,
	"livina":   true,
	"zafira":   true,
	"caravan":  true,
	"sw4":      true,
	"pajero":   true,
	"tiggo 8":  true,
	"santa fe": true,
	"sharan":   true,
}

// knownBrands é usado para detectar menção de marca isolada
// ("tem algum Fiat?").
var knownBrands = map[string]bool{
	"chevrolet":  true,
	"volkswagen": true,
	"fiat":       true,
	"ford":       true,
	"toyota":     true,
	"honda":      true,
	"hyundai":    true,
	"renault":    true,
	"nissan":     true,
	"jeep":       true,
	"peugeot":    true,
	"citroen":    true,
	"mitsubishi": true,
	"kia":        true,
	"bmw":        true,
	"audi":       true,
	"mercedes":   true,
	"dodge":      true,
}

// inferBrand devolve a marca do modelo, ou "" se desconhecido.
func inferBrand(model string) string {
	if info, ok := knownModels[model]; ok {
		return info.Brand
	}
	return ""
}

// inferBodyType devolve a carroceria típica do modelo, ou "".
func inferBodyType(model string) string {
	if info, ok := knownModels[model]; ok {
		return info.BodyType
	}
	return ""
}

// isSevenSeater diz se o modelo está no allow-list de 7 lugares.
func isSevenSeater(model string) bool {
	return sevenSeatModels[model]
}
