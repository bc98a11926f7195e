// Package comparison summarizes a carrier quote list so the quote screen can
// flag the cheapest and fastest offers. Selection stays a manual user action;
// this only annotates.
package comparison

import (
	"strconv"
	"strings"

	"github.com/shipdesk/intake/pkg/models"
)

type Summary struct {
	QuoteCount  int           `json:"quoteCount"`
	Cheapest    *models.Quote `json:"cheapest,omitempty"`
	Fastest     *models.Quote `json:"fastest,omitempty"`
	PriceSpread float64       `json:"priceSpread"`
	Currencies  []string      `json:"currencies,omitempty"`
}

// Analyze never returns nil; an empty quote list yields a zero summary.
func Analyze(quotes []models.Quote) *Summary {
	summary := &Summary{QuoteCount: len(quotes)}
	if len(quotes) == 0 {
		return summary
	}

	cheapest := 0
	fastest := 0
	fastestDays := transitDays(quotes[0].EstimatedDelivery)
	maxCost := quotes[0].Cost
	seenCurrencies := make(map[string]bool)

	for i, quote := range quotes {
		if quote.Cost < quotes[cheapest].Cost {
			cheapest = i
		}
		if quote.Cost > maxCost {
			maxCost = quote.Cost
		}
		if days := transitDays(quote.EstimatedDelivery); days > 0 && (fastestDays == 0 || days < fastestDays) {
			fastest = i
			fastestDays = days
		}
		if quote.Currency != "" && !seenCurrencies[quote.Currency] {
			seenCurrencies[quote.Currency] = true
			summary.Currencies = append(summary.Currencies, quote.Currency)
		}
	}

	summary.Cheapest = &quotes[cheapest]
	summary.Fastest = &quotes[fastest]
	summary.PriceSpread = maxCost - quotes[cheapest].Cost
	return summary
}

// transitDays reads the leading number out of estimates like "3-5 days" or
// "2 business days". 0 means the estimate was not parseable.
func transitDays(estimate string) int {
	estimate = strings.TrimSpace(estimate)
	end := 0
	for end < len(estimate) && estimate[end] >= '0' && estimate[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	days, err := strconv.Atoi(estimate[:end])
	if err != nil {
		return 0
	}
	return days
}
