package config

import "github.com/aquaregwatch/regwatch/lib/models"

// DefaultKeywords is the built-in significance catalogue for Norwegian
// aquaculture regulation, used when the catalogue file declares none.
func DefaultKeywords() []models.Keyword {
	deadline := []string{"frist", "høringsfrist", "høring", "innen"}
	sanction := []string{"bot", "gebyr", "overtredelse", "sanksjoner", "stenging", "forbud"}
	regulatory := []string{
		"forskrift", "lov", "forordning", "vedtak", "endring", "ikrafttredelse",
		"tillatelse", "konsesjon", "søknad", "godkjenning", "avslag",
	}
	general := []string{
		"mtb", "biomasse", "produksjon", "kapasitet", "utsett",
		"lakselus", "sykdom", "smitte", "behandling", "vaksine", "ila",
		"miljø", "utslipp", "rømming", "bunnpåvirkning", "trafikklys",
		"produksjonsområde", "rød sone", "gul sone", "grønn sone",
	}

	var out []models.Keyword
	add := func(terms []string, category models.KeywordCategory) {
		for _, t := range terms {
			out = append(out, models.Keyword{Term: t, Category: category})
		}
	}
	add(deadline, models.KeywordDeadline)
	add(sanction, models.KeywordSanction)
	add(regulatory, models.KeywordRegulatory)
	add(general, models.KeywordGeneral)
	return out
}
