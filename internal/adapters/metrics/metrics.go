package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mbeckers/freightsim-go/internal/domain/broker"
	"github.com/mbeckers/freightsim-go/internal/domain/world"
)

// Collector samples world counters after every tick and exposes them as
// prometheus gauges on /metrics.
type Collector struct {
	currentTick    prometheus.Gauge
	agents         prometheus.Gauge
	activePackages prometheus.Gauge
	brokerBalance  prometheus.Gauge
	fuelPrice      prometheus.Gauge

	packagesDelivered prometheus.Gauge
	packagesExpired   prometheus.Gauge
	packagesGenerated prometheus.Gauge
}

// NewCollector registers the simulation gauges on the default registry.
func NewCollector() *Collector {
	return &Collector{
		currentTick: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "freightsim_current_tick",
			Help: "Current simulation tick.",
		}),
		agents: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "freightsim_agents",
			Help: "Registered agents.",
		}),
		activePackages: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "freightsim_active_packages",
			Help: "Packages waiting or in transit.",
		}),
		brokerBalance: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "freightsim_broker_balance_ducats",
			Help: "Broker cash balance.",
		}),
		fuelPrice: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "freightsim_global_fuel_price",
			Help: "Global per-liter fuel price in ducats.",
		}),
		packagesDelivered: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "freightsim_packages_delivered_total",
			Help: "Packages delivered across all sites.",
		}),
		packagesExpired: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "freightsim_packages_expired_total",
			Help: "Packages expired across all sites.",
		}),
		packagesGenerated: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "freightsim_packages_generated_total",
			Help: "Packages generated across all sites.",
		}),
	}
}

// Observe samples the world. Called from the controller goroutine only.
func (c *Collector) Observe(w *world.World) {
	c.currentTick.Set(float64(w.Clock.Tick))
	c.agents.Set(float64(len(w.Agents())))
	c.activePackages.Set(float64(len(w.Packages())))
	c.fuelPrice.Set(w.GlobalFuelPrice)

	for _, a := range w.AgentsOfKind(world.KindBroker) {
		if b, ok := a.(*broker.Broker); ok {
			c.brokerBalance.Set(b.BalanceDucats())
		}
	}

	var delivered, expired, generated int
	for _, site := range w.Sites() {
		stats := site.Stats()
		delivered += stats.Delivered
		expired += stats.Expired
		generated += stats.Generated
	}
	c.packagesDelivered.Set(float64(delivered))
	c.packagesExpired.Set(float64(expired))
	c.packagesGenerated.Set(float64(generated))
}
