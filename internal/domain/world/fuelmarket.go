package world

import "github.com/mbeckers/freightsim-go/internal/domain/shared"

// updateFuelPrice applies the daily bounded multiplicative random walk:
// price *= 1 + U(-vol, +vol), at most once per simulated day.
func (w *World) updateFuelPrice() {
	day := w.Clock.Day()
	if day == w.lastFuelPriceDay {
		return
	}
	w.lastFuelPriceDay = day

	drift := shared.UniformBetween(w.rng, -w.FuelVolatility, w.FuelVolatility)
	previous := w.GlobalFuelPrice
	w.GlobalFuelPrice *= 1 + drift

	w.EmitEvent(EventFuelPriceChanged, map[string]interface{}{
		"day":            day,
		"previous_price": previous,
		"price":          w.GlobalFuelPrice,
	})
}
