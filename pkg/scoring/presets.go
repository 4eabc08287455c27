package scoring

import (
	"sort"

	"github.com/quadmap/quadmap/pkg/errors"
)

// Axis weights for one preset. Dimensions absent from a map contribute
// nothing to that axis under the preset.
type AxisWeights map[string]float64

// WeightPreset scales per-dimension score contributions independently for
// each axis. Presets are the lever users pull to re-read the same dataset:
// the descriptors never change, only how much each dimension matters.
type WeightPreset struct {
	Name        string
	Description string
	X           AxisWeights
	Y           AxisWeights
}

// The built-in preset names.
const (
	PresetBase               = "base"
	PresetStateEmphasis      = "state-emphasis"
	PresetMarketEmphasis     = "market-emphasis"
	PresetEquityEmphasis     = "equity-emphasis"
	PresetGrowthEmphasis     = "growth-emphasis"
	PresetStructuralEmphasis = "structural-emphasis"
	PresetBehavioralEmphasis = "behavioral-emphasis"
	PresetUniform            = "uniform"
)

// DefaultPresets holds the built-in weight presets keyed by name. Weights on
// each axis sum to 1 so presets stay comparable: switching presets shifts
// relative influence without rescaling the whole plane.
var DefaultPresets = map[string]WeightPreset{
	PresetBase: {
		Name:        PresetBase,
		Description: "balanced reading across all dimensions",
		X: AxisWeights{
			DimEconomyView:  0.25,
			DimHumanView:    0.20,
			DimWorldView:    0.15,
			DimChangeDriver: 0.20,
			DimPolicyStance: 0.20,
		},
		Y: AxisWeights{
			DimHumanView:    0.30,
			DimDomainFocus:  0.30,
			DimChangeDriver: 0.40,
		},
	},
	PresetStateEmphasis: {
		Name:        PresetStateEmphasis,
		Description: "amplifies the role of state control and policy posture",
		X: AxisWeights{
			DimEconomyView:  0.30,
			DimHumanView:    0.10,
			DimWorldView:    0.10,
			DimChangeDriver: 0.15,
			DimPolicyStance: 0.35,
		},
		Y: AxisWeights{
			DimHumanView:    0.30,
			DimDomainFocus:  0.30,
			DimChangeDriver: 0.40,
		},
	},
	PresetMarketEmphasis: {
		Name:        PresetMarketEmphasis,
		Description: "amplifies individual agency and market coordination",
		X: AxisWeights{
			DimEconomyView:  0.20,
			DimHumanView:    0.30,
			DimWorldView:    0.10,
			DimChangeDriver: 0.25,
			DimPolicyStance: 0.15,
		},
		Y: AxisWeights{
			DimHumanView:    0.35,
			DimDomainFocus:  0.25,
			DimChangeDriver: 0.40,
		},
	},
	PresetEquityEmphasis: {
		Name:        PresetEquityEmphasis,
		Description: "amplifies distribution and equity orientation",
		X: AxisWeights{
			DimEconomyView:  0.25,
			DimHumanView:    0.20,
			DimWorldView:    0.15,
			DimChangeDriver: 0.20,
			DimPolicyStance: 0.20,
		},
		Y: AxisWeights{
			DimHumanView:    0.25,
			DimDomainFocus:  0.45,
			DimChangeDriver: 0.30,
		},
	},
	PresetGrowthEmphasis: {
		Name:        PresetGrowthEmphasis,
		Description: "amplifies what drives change and accumulation",
		X: AxisWeights{
			DimEconomyView:  0.20,
			DimHumanView:    0.15,
			DimWorldView:    0.15,
			DimChangeDriver: 0.35,
			DimPolicyStance: 0.15,
		},
		Y: AxisWeights{
			DimHumanView:    0.20,
			DimDomainFocus:  0.20,
			DimChangeDriver: 0.60,
		},
	},
	PresetStructuralEmphasis: {
		Name:        PresetStructuralEmphasis,
		Description: "amplifies structural and institutional readings",
		X: AxisWeights{
			DimEconomyView:  0.40,
			DimHumanView:    0.10,
			DimWorldView:    0.20,
			DimChangeDriver: 0.20,
			DimPolicyStance: 0.10,
		},
		Y: AxisWeights{
			DimHumanView:    0.20,
			DimDomainFocus:  0.35,
			DimChangeDriver: 0.45,
		},
	},
	PresetBehavioralEmphasis: {
		Name:        PresetBehavioralEmphasis,
		Description: "amplifies the model of the economic actor",
		X: AxisWeights{
			DimEconomyView:  0.15,
			DimHumanView:    0.40,
			DimWorldView:    0.20,
			DimChangeDriver: 0.15,
			DimPolicyStance: 0.10,
		},
		Y: AxisWeights{
			DimHumanView:    0.50,
			DimDomainFocus:  0.20,
			DimChangeDriver: 0.30,
		},
	},
	PresetUniform: {
		Name:        PresetUniform,
		Description: "equal weight for every contributing dimension",
		X: AxisWeights{
			DimEconomyView:  0.20,
			DimHumanView:    0.20,
			DimWorldView:    0.20,
			DimChangeDriver: 0.20,
			DimPolicyStance: 0.20,
		},
		Y: AxisWeights{
			DimHumanView:    1.0 / 3.0,
			DimDomainFocus:  1.0 / 3.0,
			DimChangeDriver: 1.0 / 3.0,
		},
	},
}

// PresetNames returns the built-in preset names in sorted order.
func PresetNames(presets map[string]WeightPreset) []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupPreset resolves a preset by name from the given set, falling back to
// DefaultPresets when the set is nil. An unknown name is a configuration
// error and must fail the whole request.
func LookupPreset(presets map[string]WeightPreset, name string) (WeightPreset, error) {
	if err := errors.ValidatePresetName(name); err != nil {
		return WeightPreset{}, err
	}
	if presets == nil {
		presets = DefaultPresets
	}
	p, ok := presets[name]
	if !ok {
		return WeightPreset{}, errors.New(errors.ErrCodeInvalidPreset,
			"unknown weight preset %q (available: %v)", name, PresetNames(presets))
	}
	return p, nil
}
