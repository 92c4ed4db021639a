package fuzzy

import (
	"fmt"

	"github.com/boilerctl/boilerctl/internal/configuration"
)

// DontCare marks an unused antecedent or consequent slot.
const DontCare = -1

const maxRules = 64

// Rule combines term indices per input (AND) with clipped output terms.
type Rule struct {
	Antecedent [inputCount]int
	Consequent [outputCount]int
	Weight     float64
	Enabled    bool
}

// term index shorthands for the default rule base
const (
	vl = 0
	lo = 1
	md = 2
	hi = 3
	vh = 4
	dc = DontCare

	// the temperature variable only has Cold/Warm/Hot
	hot = 2
)

func rule(antecedent [inputCount]int, consequent [outputCount]int, weight float64) Rule {
	return Rule{Antecedent: antecedent, Consequent: consequent, Weight: weight, Enabled: true}
}

// defaultRules is the built-in rule base for low-pressure steam boilers.
// Antecedent order: TDS, alkalinity, sulfite, pH, temperature, trend.
// Consequent order: blowdown, caustic, sulfite, acid.
func defaultRules() []Rule {
	return []Rule{
		// TDS drives blowdown
		rule([inputCount]int{vh, dc, dc, dc, dc, dc}, [outputCount]int{vh, dc, dc, dc}, 1.0),
		rule([inputCount]int{hi, dc, dc, dc, dc, dc}, [outputCount]int{hi, dc, dc, dc}, 1.0),
		rule([inputCount]int{md, dc, dc, dc, dc, dc}, [outputCount]int{vl, dc, dc, dc}, 1.0),
		rule([inputCount]int{lo, dc, dc, dc, dc, dc}, [outputCount]int{vl, dc, dc, dc}, 1.0),
		rule([inputCount]int{hi, dc, dc, dc, dc, vh}, [outputCount]int{vh, dc, dc, dc}, 1.0),

		// alkalinity drives caustic
		rule([inputCount]int{dc, vl, dc, dc, dc, dc}, [outputCount]int{dc, vh, dc, dc}, 1.0),
		rule([inputCount]int{dc, lo, dc, dc, dc, dc}, [outputCount]int{dc, hi, dc, dc}, 1.0),
		rule([inputCount]int{dc, md, dc, dc, dc, dc}, [outputCount]int{dc, vl, dc, dc}, 1.0),
		rule([inputCount]int{dc, hi, dc, dc, dc, dc}, [outputCount]int{md, vl, dc, dc}, 0.8),
		rule([inputCount]int{dc, vh, dc, dc, dc, dc}, [outputCount]int{hi, vl, dc, dc}, 0.9),

		// sulfite residual drives the oxygen scavenger
		rule([inputCount]int{dc, dc, vl, dc, dc, dc}, [outputCount]int{dc, dc, vh, dc}, 1.0),
		rule([inputCount]int{dc, dc, lo, dc, dc, dc}, [outputCount]int{dc, dc, hi, dc}, 1.0),
		rule([inputCount]int{dc, dc, md, dc, dc, dc}, [outputCount]int{dc, dc, lo, dc}, 1.0),
		rule([inputCount]int{dc, dc, hi, dc, dc, dc}, [outputCount]int{dc, dc, vl, dc}, 1.0),
		rule([inputCount]int{dc, dc, vh, dc, dc, dc}, [outputCount]int{lo, dc, vl, dc}, 0.7),

		// pH balances caustic against acid
		rule([inputCount]int{dc, dc, dc, vl, dc, dc}, [outputCount]int{dc, hi, dc, vl}, 1.0),
		rule([inputCount]int{dc, dc, dc, lo, dc, dc}, [outputCount]int{dc, md, dc, vl}, 0.8),
		rule([inputCount]int{dc, dc, dc, md, dc, dc}, [outputCount]int{dc, vl, dc, vl}, 0.5),
		rule([inputCount]int{dc, dc, dc, hi, dc, dc}, [outputCount]int{dc, vl, dc, lo}, 0.7),
		rule([inputCount]int{dc, dc, dc, vh, dc, dc}, [outputCount]int{dc, vl, dc, md}, 0.9),

		// multi-parameter rules
		rule([inputCount]int{hi, hi, dc, dc, dc, dc}, [outputCount]int{vh, vl, dc, dc}, 1.0),
		rule([inputCount]int{lo, lo, dc, dc, dc, dc}, [outputCount]int{vl, hi, dc, dc}, 0.9),
		// hot water consumes sulfite faster
		rule([inputCount]int{dc, dc, lo, dc, hot, dc}, [outputCount]int{dc, dc, vh, dc}, 1.0),
		rule([inputCount]int{md, md, md, dc, dc, dc}, [outputCount]int{vl, vl, lo, vl}, 1.0),
		// preemptive blowdown on a fast rise
		rule([inputCount]int{dc, dc, dc, dc, dc, vh}, [outputCount]int{md, dc, dc, dc}, 0.8),
	}
}

// rulesFromConfig translates configured rules into term indices, validating
// every term name against the variables.
func rulesFromConfig(
	configs []configuration.FuzzyRuleConfig,
	inputs [inputCount]Variable,
	outputs [outputCount]Variable,
) ([]Rule, error) {
	if len(configs) > maxRules {
		return nil, fmt.Errorf("at most %d rules are supported, got %d", maxRules, len(configs))
	}

	rules := make([]Rule, 0, len(configs))
	for i, config := range configs {
		r := Rule{Weight: config.Weight, Enabled: true}

		antecedentTerms := [inputCount]string{
			config.TDS, config.Alkalinity, config.Sulfite,
			config.PH, config.Temperature, config.Trend,
		}
		for input, term := range antecedentTerms {
			index, err := resolveTerm(inputs[input], term)
			if err != nil {
				return nil, fmt.Errorf("rule %d: %s", i, err)
			}
			r.Antecedent[input] = index
		}

		consequentTerms := [outputCount]string{
			config.Blowdown, config.Caustic, config.SulfiteOut, config.Acid,
		}
		hasConsequent := false
		for output, term := range consequentTerms {
			index, err := resolveTerm(outputs[output], term)
			if err != nil {
				return nil, fmt.Errorf("rule %d: %s", i, err)
			}
			r.Consequent[output] = index
			hasConsequent = hasConsequent || index != DontCare
		}
		if !hasConsequent {
			return nil, fmt.Errorf("rule %d: no consequent given", i)
		}

		rules = append(rules, r)
	}
	return rules, nil
}

func resolveTerm(variable Variable, term string) (int, error) {
	if term == "" {
		return DontCare, nil
	}
	index := variable.TermIndex(term)
	if index < 0 {
		return 0, fmt.Errorf("variable %s has no term '%s'", variable.Name, term)
	}
	return index, nil
}
