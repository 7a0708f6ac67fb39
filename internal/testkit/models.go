// Package testkit provides canned OpenCM documents for tests: a minimal
// chain, the Porter's Five Forces strategy model, and helpers for mutating
// documents into known-bad shapes.
package testkit

import (
	"encoding/json"
	"fmt"
)

// SimpleChain returns a three-variable chain a -> b -> c where b has an
// explicit zero-noise equation and c relies on the fallback linear
// combination.
func SimpleChain() []byte {
	return []byte(`{
		"opencm_version": "1.0",
		"model": {
			"id": "simple_chain",
			"name": "Simple Chain",
			"version": "1.0.0",
			"domain": "general"
		},
		"variables": {
			"a": {"type": "continuous", "domain": [0, 1], "default_value": 0.4},
			"b": {"type": "continuous", "domain": [0, 1]},
			"c": {"type": "continuous", "domain": [0, 1]}
		},
		"edges": [
			{"source": "a", "target": "b", "type": "causes", "strength": 0.8},
			{"source": "b", "target": "c", "type": "causes", "strength": 0.5}
		],
		"structural_equations": {
			"b": {
				"type": "linear",
				"expression": "0.1 + 0.8*a",
				"noise_distribution": "normal",
				"noise_params": {"mean": 0, "std": 0}
			}
		},
		"assumptions": ["Linearity holds across the full domain"]
	}`)
}

// PorterFiveForces returns the strategy-domain fixture: five forces driving
// IndustryProfitability through a zero-noise linear equation, with declared
// default values for every exogenous force.
func PorterFiveForces() []byte {
	return []byte(`{
		"opencm_version": "1.0",
		"model": {
			"id": "porters_five_forces",
			"name": "Porter's Five Forces",
			"version": "1.0.0",
			"domain": "strategy",
			"description": "Industry attractiveness as a function of five competitive forces"
		},
		"variables": {
			"SupplierPower": {"type": "continuous", "domain": [0, 1], "default_value": 0.5},
			"BuyerPower": {"type": "continuous", "domain": [0, 1], "default_value": 0.5},
			"CompetitiveRivalry": {"type": "continuous", "domain": [0, 1], "default_value": 0.6},
			"PricingPower": {"type": "continuous", "domain": [0, 1], "default_value": 0.5},
			"MarketShare": {"type": "continuous", "domain": [0, 1], "default_value": 0.3},
			"IndustryProfitability": {"type": "continuous", "domain": [0, 1]}
		},
		"edges": [
			{"source": "SupplierPower", "target": "IndustryProfitability", "type": "inhibits", "strength": 0.15},
			{"source": "BuyerPower", "target": "IndustryProfitability", "type": "inhibits", "strength": 0.20},
			{"source": "CompetitiveRivalry", "target": "IndustryProfitability", "type": "inhibits", "strength": 0.25},
			{"source": "PricingPower", "target": "IndustryProfitability", "type": "causes", "strength": 0.20},
			{"source": "MarketShare", "target": "IndustryProfitability", "type": "causes", "strength": 0.15}
		],
		"structural_equations": {
			"IndustryProfitability": {
				"type": "linear",
				"expression": "0.7 - 0.15*SupplierPower - 0.20*BuyerPower - 0.25*CompetitiveRivalry + 0.20*PricingPower + 0.15*MarketShare",
				"noise_distribution": "normal",
				"noise_params": {"mean": 0, "std": 0}
			}
		},
		"assumptions": [
			"Static equilibrium: forces do not react to each other within a simulation",
			"Forces are measured on a normalized 0-1 index"
		],
		"metadata": {
			"author": "Michael E. Porter (adapted)",
			"license": "CC0-1.0-Universal",
			"tags": ["strategy", "competition"]
		}
	}`)
}

// MutateDoc unmarshals a document, applies fn to the raw map, and
// re-marshals it. Tests use it to produce known-bad documents from the
// canned fixtures.
func MutateDoc(data []byte, fn func(doc map[string]interface{})) []byte {
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		panic(fmt.Sprintf("testkit: bad fixture: %v", err))
	}
	fn(doc)
	out, err := json.Marshal(doc)
	if err != nil {
		panic(fmt.Sprintf("testkit: re-marshal failed: %v", err))
	}
	return out
}
