package truck

import (
	"math"

	"github.com/mbeckers/freightsim-go/internal/domain/shared"
	"github.com/mbeckers/freightsim-go/internal/domain/world"
)

// Rejection reasons sent back to the broker.
const (
	RejectInsufficientCapacity  = "insufficient_capacity"
	RejectPickupTooLate         = "pickup_too_late"
	RejectDeliveryTooLate       = "delivery_too_late"
	RejectInsufficientDriveTime = "insufficient_driving_time"
	RejectUnreachable           = "unreachable"
)

// proposalTerms is the decoded body of a broker proposal.
type proposalTerms struct {
	packageID            shared.PackageID
	originSite           shared.SiteID
	destinationSite      shared.SiteID
	size                 int
	pickupDeadlineTick   int64
	deliveryDeadlineTick int64
}

// jobEstimate is the time breakdown for taking one more package.
type jobEstimate struct {
	pickupTick   int64
	deliveryTick int64
	driveSeconds float64
}

// evaluateProposal decides whether the truck can take the package. The empty
// string means accept; otherwise the rejection reason is returned.
func (t *Truck) evaluateProposal(w *world.World, terms proposalTerms) string {
	if t.LoadedSize(w)+terms.size > t.capacity {
		return RejectInsufficientCapacity
	}

	estimate, reachable := t.estimateJob(w, terms)
	if !reachable {
		return RejectUnreachable
	}
	if estimate.pickupTick > terms.pickupDeadlineTick {
		return RejectPickupTooLate
	}
	if estimate.deliveryTick > terms.deliveryDeadlineTick {
		return RejectDeliveryTooLate
	}

	// Taking the job must not exhaust the tachograph budget without room for
	// the mandated rest before the delivery deadline.
	if t.drivingTimeS+estimate.driveSeconds > DrivingCapSeconds {
		restTicks := w.Clock.SecondsToTicks(RequiredRestSeconds(DrivingCapSeconds))
		if estimate.deliveryTick+restTicks > terms.deliveryDeadlineTick {
			return RejectInsufficientDriveTime
		}
	}
	return ""
}

// estimateJob chains the remaining queue, the leg to the origin, the load,
// the leg to the destination, and the unload.
func (t *Truck) estimateJob(w *world.World, terms proposalTerms) (jobEstimate, bool) {
	position, ok := t.EffectiveNode(w)
	if !ok {
		return jobEstimate{}, false
	}
	originNode, ok := w.NodeOfSite(terms.originSite)
	if !ok {
		return jobEstimate{}, false
	}
	destinationNode, ok := w.NodeOfSite(terms.destinationSite)
	if !ok {
		return jobEstimate{}, false
	}

	queueSeconds, queueDriveSeconds, lastNode, ok := t.estimateQueueCompletion(w, position)
	if !ok {
		return jobEstimate{}, false
	}

	toOriginHours := w.Routing.EstimateTravelTime(lastNode, originNode, t.maxSpeedKPH)
	if math.IsInf(toOriginHours, 1) {
		return jobEstimate{}, false
	}
	toDestinationHours := w.Routing.EstimateTravelTime(originNode, destinationNode, t.maxSpeedKPH)
	if math.IsInf(toDestinationHours, 1) {
		return jobEstimate{}, false
	}

	loadSeconds := loadTimeSeconds(terms.size)
	pickupSeconds := queueSeconds + toOriginHours*shared.SecondsPerHour
	deliverySeconds := pickupSeconds + loadSeconds + toDestinationHours*shared.SecondsPerHour + loadSeconds

	driveSeconds := queueDriveSeconds + (toOriginHours+toDestinationHours)*shared.SecondsPerHour

	return jobEstimate{
		pickupTick:   w.Clock.Tick + w.Clock.SecondsToTicks(pickupSeconds),
		deliveryTick: w.Clock.Tick + w.Clock.SecondsToTicks(deliverySeconds),
		driveSeconds: driveSeconds,
	}, true
}

// estimateQueueCompletion walks the pending queue from the given node,
// summing travel and handling time. Returns total seconds, driving-only
// seconds, and the node where the queue ends.
func (t *Truck) estimateQueueCompletion(w *world.World, from shared.NodeID) (totalS, driveS float64, last shared.NodeID, ok bool) {
	last = from
	for _, task := range t.deliveryQueue {
		if task.Status == TaskCompleted {
			continue
		}
		siteNode, found := w.NodeOfSite(task.SiteID)
		if !found {
			continue
		}
		hours := w.Routing.EstimateTravelTime(last, siteNode, t.maxSpeedKPH)
		if math.IsInf(hours, 1) {
			return 0, 0, 0, false
		}
		legS := hours * shared.SecondsPerHour
		size := 0
		for _, id := range task.PackageIDs {
			if pkg, exists := w.Package(id); exists {
				size += pkg.Size
			}
		}
		totalS += legS + loadTimeSeconds(size)
		driveS += legS
		last = siteNode
	}
	return totalS, driveS, last, true
}
