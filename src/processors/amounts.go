package processors

import (
	"strconv"
	"strings"

	"github.com/username/lotfolio/backend/src/logger"
)

// cleanAmount converts the export's amount strings to numbers. The amount
// column uses a dot decimal with comma thousands separators and sometimes
// embeds a currency code. Empty or unparsable values become 0 with a log
// entry; amounts are not load-bearing enough to abort an upload over.
func cleanAmount(value string) float64 {
	cleaned := strings.NewReplacer("USD", "", "EUR", "", ",", "", " ", "").Replace(value)
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return 0
	}
	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		if logger.L != nil {
			logger.L.Warn("Unable to convert amount value", "value", value)
		}
		return 0
	}
	return amount
}
