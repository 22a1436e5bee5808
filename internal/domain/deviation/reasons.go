package deviation

import "strings"

// ReasonCatalog holds the allowed reason codes per POI group.
type ReasonCatalog struct {
	StagingArea []string
	Maintenance []string
	Terminal    []string
	Factory     []string
}

// DefaultReasonCatalog returns the built-in catalog used when no override
// file is configured.
func DefaultReasonCatalog() ReasonCatalog {
	return ReasonCatalog{
		StagingArea: []string{
			"Absenteísmo",
			"Ciclo Antecipado - Aguardando Motorista",
			"Falta Mão de Obra",
			"Informação Incorreta",
			"Outros",
		},
		Maintenance: []string{
			"Preventiva",
			"Manutenção Grande Monta",
			"ITR",
			"Falta Mão de Obra",
			"Informação Incorreta",
		},
		Terminal: []string{
			"Chegada em Comboio",
			"Troca de Turno",
			"Absenteísmo",
			"Falta Mão de Obra",
			"Indisponibilidade Mecânica",
			"Outros",
		},
		Factory: []string{
			"Chegada em Comboio",
			"Troca de Turno",
			"Absenteísmo",
			"Falta Mão de Obra",
			"Indisponibilidade Mecânica",
			"Aguardando Nota",
			"Outros",
		},
	}
}

// ReasonsForPOI selects the reason set for a friendly POI name. Unknown POIs
// only allow the free-form "Outros" reason.
func (c ReasonCatalog) ReasonsForPOI(poi string) []string {
	upper := strings.ToUpper(poi)
	switch {
	case poi == "P.A. Água Clara":
		return c.StagingArea
	case strings.Contains(upper, "MANUTEN"):
		return c.Maintenance
	case strings.Contains(upper, "TERMINAL"):
		return c.Terminal
	case strings.Contains(upper, "FÁBRICA") || strings.Contains(upper, "FABRICA"):
		return c.Factory
	default:
		return []string{"Outros"}
	}
}

// AllowsReason reports whether a normalized reason is in the POI's set.
// An empty reason is always allowed; it just leaves the row pending.
func (c ReasonCatalog) AllowsReason(poi, reason string) bool {
	if reason == "" {
		return true
	}
	for _, candidate := range c.ReasonsForPOI(poi) {
		if strings.EqualFold(candidate, reason) {
			return true
		}
	}
	return false
}
