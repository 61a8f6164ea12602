package modeling

import (
	"strings"

	"github.com/jk4088/NYHousing-Bayesian-Modeling/internal/bayes"
	"github.com/jk4088/NYHousing-Bayesian-Modeling/pkg/contracts/domain"
)

// Continuous predictor names
const (
	TermLandStd  = "land_std"
	TermGrossStd = "gross_std"
	TermUnitsC   = "units_c"
	TermAge      = "age"
)

// ReferenceBorough is the level absorbed by the intercept
var ReferenceBorough = domain.BoroughManhattan

// Formula selects the terms of a log-price regression: borough indicators,
// the four continuous features and, optionally, land_std by borough slopes.
type Formula struct {
	Name        string
	Interaction bool
}

var (
	// ImputationFormula predicts missing prices
	ImputationFormula = Formula{Name: "imputation"}
	// FormulaA is the additive model
	FormulaA = Formula{Name: "model_a"}
	// FormulaB adds a land_std slope per borough
	FormulaB = Formula{Name: "model_b", Interaction: true}
)

// BoroughTerm names the indicator of a non-reference borough
func BoroughTerm(b domain.Borough) string {
	return "borough" + strings.ReplaceAll(b.String(), " ", "")
}

// InteractionTerm names the land_std slope shift of a non-reference borough
func InteractionTerm(b domain.Borough) string {
	return TermLandStd + ":" + BoroughTerm(b)
}

func nonReference() []domain.Borough {
	out := make([]domain.Borough, 0, len(domain.Boroughs)-1)
	for _, b := range domain.Boroughs {
		if b != ReferenceBorough {
			out = append(out, b)
		}
	}
	return out
}

// Terms returns the predictor names in design column order
func (f Formula) Terms() []string {
	others := nonReference()
	terms := make([]string, 0, 2*len(others)+4)
	for _, b := range others {
		terms = append(terms, BoroughTerm(b))
	}
	terms = append(terms, TermLandStd, TermGrossStd, TermUnitsC, TermAge)
	if f.Interaction {
		for _, b := range others {
			terms = append(terms, InteractionTerm(b))
		}
	}
	return terms
}

// Row encodes one feature row
func (f Formula) Row(r domain.FeatureRow) []float64 {
	others := nonReference()
	x := make([]float64, 0, 2*len(others)+4)
	for _, b := range others {
		x = append(x, indicator(r.Borough == b))
	}
	x = append(x, r.LandStd, r.GrossStd, r.UnitsC, r.Age)
	if f.Interaction {
		for _, b := range others {
			x = append(x, indicator(r.Borough == b)*r.LandStd)
		}
	}
	return x
}

// Design encodes every row
func (f Formula) Design(rows []domain.FeatureRow) (*bayes.Design, error) {
	encoded := make([][]float64, len(rows))
	for i, r := range rows {
		encoded[i] = f.Row(r)
	}
	return bayes.NewDesign(f.Terms(), encoded)
}

func indicator(ok bool) float64 {
	if ok {
		return 1
	}
	return 0
}
