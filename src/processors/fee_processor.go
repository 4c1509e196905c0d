package processors

import (
	"strings"

	"github.com/username/lotfolio/backend/src/models"
	"github.com/username/lotfolio/backend/src/utils"
)

// Fee category names are part of the API payload; keep them stable.
const (
	CategoryTransactionFees = "Transaction Fees"
	CategoryExchangeFees    = "Exchange Fees"
	CategoryFTTFees         = "FTT Fees"
	CategoryADRGDRFees      = "ADR/GDR Fees"
)

// feeKeywords selects fee rows out of the account activity.
var feeKeywords = []string{"comisión", "impuesto", "tarifa", "coste", "fee", "connection", "ftt"}

// feeCategories is the fixed taxonomy; the first matching category wins.
var feeCategories = []struct {
	name     string
	keywords []string
}{
	{CategoryTransactionFees, []string{"transaction", "coste"}},
	{CategoryExchangeFees, []string{"connection", "exchange", "conectividad"}},
	{CategoryFTTFees, []string{"impuesto", "ftt", "financial transaction tax"}},
	{CategoryADRGDRFees, []string{"adr", "gdr", "pass-through"}},
}

// FeeProcessor classifies fee rows into the fixed category taxonomy by
// keyword match against the transaction description.
type FeeProcessor struct{}

func NewFeeProcessor() *FeeProcessor {
	return &FeeProcessor{}
}

// Process returns the rounded fee total and the per-category breakdown.
// The breakdown always contains all categories, zero-valued when empty.
func (p *FeeProcessor) Process(rows []models.AccountRow) (float64, map[string]float64) {
	breakdown := make(map[string]float64, len(feeCategories))
	for _, category := range feeCategories {
		breakdown[category.name] = 0
	}

	var total float64
	for _, row := range rows {
		desc := strings.ToLower(row.Description)
		if !containsAny(desc, feeKeywords) {
			continue
		}

		amount := cleanAmount(row.Amount)
		total += amount

		for _, category := range feeCategories {
			if containsAny(desc, category.keywords) {
				breakdown[category.name] += amount
				break
			}
		}
	}

	for name, value := range breakdown {
		breakdown[name] = utils.RoundFloat(value, 2)
	}
	return utils.RoundFloat(total, 2), breakdown
}

func containsAny(s string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(s, keyword) {
			return true
		}
	}
	return false
}
