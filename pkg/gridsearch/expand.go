package gridsearch

import (
	"fmt"
	"sort"

	"github.com/ridopark/quantback/internal/kernelerr"
)

// RunSpec is one fully-resolved combination of a symbol set and a
// parameter assignment, with its sequential run ID already assigned.
// Determinism (spec.md §4.8: "identical config produces identical run
// IDs") depends entirely on Expand iterating symbol sets and parameter
// values in the stable order built here.
type RunSpec struct {
	ID         string
	SymbolSet  SymbolSet
	Parameters map[string]interface{}
}

// Expand computes the full Cartesian product of symbol sets times
// parameter-value combinations, in config file order for symbol sets and
// sorted-key order for parameters (so two expansions of the same config
// always enumerate combinations identically regardless of map iteration
// order). confirmed must be true when the product exceeds
// cfg.MaxCombinations and cfg.AllowOverMax is false, matching spec.md
// §4.8's "warn... and require explicit confirmation or config override."
func Expand(cfg Config, confirmed bool) ([]RunSpec, error) {
	paramNames := make([]string, 0, len(cfg.Parameters))
	for name := range cfg.Parameters {
		paramNames = append(paramNames, name)
	}
	sort.Strings(paramNames)

	paramCombos := cartesianParameters(cfg.Parameters, paramNames)
	total := len(cfg.SymbolSets) * len(paramCombos)

	if total > cfg.MaxCombinations && !cfg.AllowOverMax && !confirmed {
		return nil, fmt.Errorf(
			"%w: %d combinations exceeds max_combinations %d; set allow_over_max_combinations or confirm explicitly",
			kernelerr.ErrConfiguration, total, cfg.MaxCombinations,
		)
	}

	specs := make([]RunSpec, 0, total)
	seq := 1
	for _, ss := range cfg.SymbolSets {
		for _, combo := range paramCombos {
			specs = append(specs, RunSpec{
				ID:         fmt.Sprintf("%03d", seq),
				SymbolSet:  ss,
				Parameters: mergeParameters(ss.parameters(), combo),
			})
			seq++
		}
	}
	return specs, nil
}

// cartesianParameters expands name -> []value into every assignment,
// iterating names in the order given so the output is deterministic.
// A single-element list is the spec's documented "fixed" parameter.
func cartesianParameters(params map[string][]interface{}, names []string) []map[string]interface{} {
	combos := []map[string]interface{}{{}}
	for _, name := range names {
		values := params[name]
		next := make([]map[string]interface{}, 0, len(combos)*len(values))
		for _, combo := range combos {
			for _, v := range values {
				extended := make(map[string]interface{}, len(combo)+1)
				for k, existing := range combo {
					extended[k] = existing
				}
				extended[name] = v
				next = append(next, extended)
			}
		}
		combos = next
	}
	return combos
}

func mergeParameters(symbolParams, valueParams map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(symbolParams)+len(valueParams))
	for k, v := range symbolParams {
		merged[k] = v
	}
	for k, v := range valueParams {
		merged[k] = v
	}
	return merged
}
