package presets

import (
	"sort"
	"strings"

	"prop-strategy-builder/internal/types"
)

// DefaultFirm is used for unknown firm names.
const DefaultFirm = "FTMO"

type entry struct {
	preset  types.PropFirmPreset
	details string
}

var firms = map[string]entry{
	"FTMO": {
		preset:  firm("FTMO", 5.0, 10.0, 3, 123456),
		details: "FTMO: One of the most popular prop firms. Strict rules: 5% daily DD, 10% max DD. Requires visible SL/TP.",
	},
	"FundedNext": {
		preset:  firm("FundedNext", 5.0, 10.0, 5, 234567),
		details: "FundedNext: Flexible prop firm. 5% daily DD, 10% max DD. Allows up to 5 concurrent trades.",
	},
	"The5%ers": {
		preset:  firm("The5%ers", 4.0, 8.0, 4, 345678),
		details: "The5%ers: Aggressive scaling plan. Tighter limits: 4% daily DD, 8% max DD.",
	},
	"DNA Funded": {
		preset:  firm("DNA Funded", 5.0, 10.0, 3, 456789),
		details: "DNA Funded: Standard prop firm. 5% daily DD, 10% max DD. Focus on consistency.",
	},
	"MyForexFunds": {
		preset:  firm("MyForexFunds", 5.0, 12.0, 5, 567890),
		details: "MyForexFunds: Generous limits. 5% daily DD, 12% max DD. Allows more trading freedom.",
	},
	"Custom": {
		preset:  firm("Custom", 5.0, 10.0, 3, 123456),
		details: "Custom: Define your own rules. Adjust all parameters to match your prop firm's requirements.",
	},
}

// order is the listing order shown to users.
var order = []string{"FTMO", "FundedNext", "The5%ers", "DNA Funded", "MyForexFunds", "Custom"}

func firm(name string, daily, total float64, trades int, magic int64) types.PropFirmPreset {
	return types.PropFirmPreset{
		FirmName:                 name,
		DailyDrawdownPercent:     daily,
		MaxDrawdownPercent:       total,
		MaxOpenTrades:            trades,
		MagicNumber:              magic,
		EnforceVisibleSLTP:       true,
		EnableDrawdownMonitoring: true,
		UseNewsFilter:            false,
	}
}

// Get returns the preset for name. Unknown names fall back to FTMO; ok
// reports whether name was known. Matching ignores case and surrounding space.
func Get(name string) (types.PropFirmPreset, bool) {
	if e, found := lookup(name); found {
		return e.preset, true
	}
	return firms[DefaultFirm].preset, false
}

// Available lists firm names in display order.
func Available() []string {
	out := make([]string, len(order))
	copy(out, order)
	return out
}

// Details describes a firm's rules in one sentence.
func Details(name string) string {
	if e, found := lookup(name); found {
		return e.details
	}
	return "Unknown firm. Please select a valid prop firm or use Custom settings."
}

func lookup(name string) (entry, bool) {
	name = strings.TrimSpace(name)
	if e, ok := firms[name]; ok {
		return e, true
	}
	keys := make([]string, 0, len(firms))
	for k := range firms {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.EqualFold(k, name) {
			return firms[k], true
		}
	}
	return entry{}, false
}

// RecommendedRisk returns conservative risk settings for an account size:
// smaller accounts may risk a larger share of equity per trade.
func RecommendedRisk(accountSize float64) types.RiskManagement {
	r := types.DefaultRiskManagement()
	switch {
	case accountSize <= 10000:
		r.RiskPercentPerTrade = 1.0
	case accountSize <= 50000:
		r.RiskPercentPerTrade = 0.75
	case accountSize <= 100000:
		r.RiskPercentPerTrade = 0.5
	default:
		r.RiskPercentPerTrade = 0.25
	}
	return r
}
