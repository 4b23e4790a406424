package world

// Engine event types. The controller maps package.* events to their dedicated
// signals and everything else to event.created.
const (
	EventPackageCreated   = "package.created"
	EventPackageExpired   = "package.expired"
	EventPackagePickedUp  = "package.picked_up"
	EventPackageDelivered = "package.delivered"

	EventTruckOutOfFuel     = "truck.out_of_fuel"
	EventTruckFuelPurchase  = "truck.fuel_purchase"
	EventTruckTachoFine     = "truck.tachograph_fine"
	EventTruckRestStarted   = "truck.rest_started"
	EventTruckRestCompleted = "truck.rest_completed"

	EventBrokerAssignment       = "broker.assignment"
	EventBrokerPickupTracking   = "broker.pickup_tracking"
	EventBrokerPayment          = "broker.payment"
	EventBrokerPickupExpiryFine = "broker.pickup_expiry_fine"
	EventBrokerRequeued         = "broker.package_requeued"

	EventFuelPriceChanged = "market.fuel_price_changed"
	EventSiteStatsUpdate  = "site.stats_update"
)

// Event is one engine occurrence, buffered during the tick and drained into
// the step result.
type Event struct {
	Tick int64                  `json:"tick"`
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

// EmitEvent appends an event to the current tick's buffer.
func (w *World) EmitEvent(eventType string, data map[string]interface{}) {
	if data == nil {
		data = map[string]interface{}{}
	}
	w.events = append(w.events, Event{Tick: w.Clock.Tick, Type: eventType, Data: data})
}

// drainEvents returns and clears the buffered events.
func (w *World) drainEvents() []Event {
	events := w.events
	w.events = nil
	return events
}
