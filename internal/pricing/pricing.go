package pricing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sdpower/token-savings-go/internal/types"
)

// ModelPricing holds USD prices per million tokens.
type ModelPricing struct {
	InputPrice  float64 `json:"input_price"`
	OutputPrice float64 `json:"output_price"`
}

// Saved tokens are tokens the model no longer has to read, so savings are
// priced at the input rate.
var embeddedPricing = map[string]ModelPricing{
	"claude-3-opus":     {InputPrice: 15.0, OutputPrice: 75.0},
	"claude-opus-4":     {InputPrice: 15.0, OutputPrice: 75.0},
	"claude-3-5-sonnet": {InputPrice: 3.0, OutputPrice: 15.0},
	"claude-sonnet-4":   {InputPrice: 3.0, OutputPrice: 15.0},
	"claude-3-5-haiku":  {InputPrice: 0.8, OutputPrice: 4.0},
	"claude-3-haiku":    {InputPrice: 0.25, OutputPrice: 1.25},
	"gpt-4o":            {InputPrice: 2.5, OutputPrice: 10.0},
	"gpt-4o-mini":       {InputPrice: 0.15, OutputPrice: 0.6},
	"gpt-4":             {InputPrice: 30.0, OutputPrice: 60.0},
	"gpt-3.5-turbo":     {InputPrice: 0.5, OutputPrice: 1.5},
}

// RatePerMillion returns the input price for model. Dated model ids such as
// claude-3-opus-20240229 match their undated family name.
func RatePerMillion(model string) (float64, error) {
	p, ok := lookup(model)
	if !ok {
		return 0, types.ValidationError{
			Field:   "model",
			Message: fmt.Sprintf("unknown model %q (known: %s)", model, strings.Join(Models(), ", ")),
		}
	}
	return p.InputPrice, nil
}

func lookup(model string) (ModelPricing, bool) {
	model = strings.ToLower(strings.TrimSpace(model))
	if p, ok := embeddedPricing[model]; ok {
		return p, true
	}

	// longest family prefix wins so gpt-4o-mini-... does not resolve to gpt-4
	best := ""
	for name := range embeddedPricing {
		if strings.HasPrefix(model, name+"-") && len(name) > len(best) {
			best = name
		}
	}
	if best == "" {
		return ModelPricing{}, false
	}
	return embeddedPricing[best], true
}

// Models lists the known model families in sorted order.
func Models() []string {
	names := make([]string, 0, len(embeddedPricing))
	for name := range embeddedPricing {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
