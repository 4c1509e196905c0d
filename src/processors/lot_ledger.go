package processors

import (
	"errors"
	"fmt"
	"sort"

	"github.com/username/lotfolio/backend/src/models"
	"github.com/username/lotfolio/backend/src/utils"
)

// ErrOversell marks a sell whose quantity exceeds the total open quantity
// for that security at that point in history. This is bad input data, not
// an external failure, and must never be clamped silently.
var ErrOversell = errors.New("sell quantity exceeds open position")

// Quantities are parsed from text and reduced by repeated subtraction, so
// exact-zero comparisons need a tolerance.
const qtyEpsilon = 1e-9

// LotLedger maintains, per security, the ordered sequence of purchase lots
// and consumes them first-in-first-out on sells. Lots are never deleted:
// a fully consumed lot keeps its consumption history for realized-gain
// attribution and for the daily P/L projection.
type LotLedger struct {
	positions map[string][]*models.Lot
	realized  []models.RealizedEvent
}

func NewLotLedger() *LotLedger {
	return &LotLedger{positions: make(map[string][]*models.Lot)}
}

// Apply processes one buy/sell event. Events must be applied in ascending
// trade-date order; FIFO is meaningless otherwise.
func (l *LotLedger) Apply(event models.TransactionEvent) error {
	switch event.Kind {
	case models.Buy:
		l.positions[event.Security] = append(l.positions[event.Security], &models.Lot{
			Security:    event.Security,
			Quantity:    event.Quantity,
			CostPerUnit: event.UnitPrice,
			Currency:    event.Currency,
			OpenedDate:  event.TradeDate,
		})
		return nil
	case models.Sell:
		return l.applySell(event)
	default:
		return fmt.Errorf("unknown transaction kind %q for %s", event.Kind, event.Security)
	}
}

func (l *LotLedger) applySell(event models.TransactionEvent) error {
	remaining := event.Quantity
	for _, lot := range l.positions[event.Security] {
		if remaining <= qtyEpsilon {
			break
		}
		if lot.Quantity <= qtyEpsilon {
			continue // fully consumed earlier, kept for history
		}

		consumed := utils.MinFloat(remaining, lot.Quantity)

		lot.Quantity -= consumed
		lot.Consumptions = append(lot.Consumptions, models.Consumption{
			Date:     event.TradeDate,
			Quantity: consumed,
		})
		l.realized = append(l.realized, models.RealizedEvent{
			Security:        event.Security,
			Quantity:        consumed,
			ProfitPerUnit:   event.UnitPrice - lot.CostPerUnit,
			RealizationDate: event.TradeDate,
		})

		if lot.Quantity <= qtyEpsilon {
			lot.Quantity = 0
			closed := event.TradeDate
			lot.ClosedDate = &closed
		}

		remaining -= consumed
	}

	if remaining > qtyEpsilon {
		return fmt.Errorf("%w: security %q, sell of %v on %s leaves %v unmatched",
			ErrOversell, event.Security, event.Quantity,
			event.TradeDate.Format("2006-01-02"), remaining)
	}
	return nil
}

// Replay applies a whole event stream in ascending trade-date order
// (stable for same-date events, preserving source order).
func (l *LotLedger) Replay(events []models.TransactionEvent) error {
	ordered := make([]models.TransactionEvent, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].TradeDate.Before(ordered[j].TradeDate)
	})

	for _, event := range ordered {
		if err := l.Apply(event); err != nil {
			return err
		}
	}
	return nil
}

// Remove drops a security's lots and realized events, used when its event
// stream turned out to be inconsistent and must not contribute to results.
func (l *LotLedger) Remove(security string) {
	delete(l.positions, security)
	kept := l.realized[:0]
	for _, r := range l.realized {
		if r.Security != security {
			kept = append(kept, r)
		}
	}
	l.realized = kept
}

// Positions returns the per-security lot sequences (insertion order =
// FIFO order).
func (l *LotLedger) Positions() map[string][]*models.Lot {
	return l.positions
}

// RealizedEvents returns the append-only realized gain history.
func (l *LotLedger) RealizedEvents() []models.RealizedEvent {
	return l.realized
}

// OpenQuantity returns the total remaining quantity for a security.
func (l *LotLedger) OpenQuantity(security string) float64 {
	var total float64
	for _, lot := range l.positions[security] {
		total += lot.Quantity
	}
	return total
}
