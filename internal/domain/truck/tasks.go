package truck

import "github.com/mbeckers/freightsim-go/internal/domain/shared"

// TaskType distinguishes pickups from deliveries.
type TaskType string

const (
	TaskPickup   TaskType = "PICKUP"
	TaskDelivery TaskType = "DELIVERY"
)

// TaskStatus is the delivery task lifecycle.
type TaskStatus string

const (
	TaskPending    TaskStatus = "PENDING"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskCompleted  TaskStatus = "COMPLETED"
)

// DeliveryTask is one stop in the truck's work queue: pick up or drop off a
// batch of packages at a site.
type DeliveryTask struct {
	SiteID     shared.SiteID
	Type       TaskType
	PackageIDs []shared.PackageID
	Status     TaskStatus
}

func (t *DeliveryTask) addPackage(id shared.PackageID) {
	for _, existing := range t.PackageIDs {
		if existing == id {
			return
		}
	}
	t.PackageIDs = append(t.PackageIDs, id)
}

// enqueueAssignment inserts the pickup and delivery for a newly assigned
// package. The pickup merges into an existing pending pickup at the same
// site when possible, the delivery into a pending delivery at the same site
// positioned after the pickup; a delivery never precedes its pickup.
func (t *Truck) enqueueAssignment(pkg shared.PackageID, origin, destination shared.SiteID) {
	pickupIdx := -1
	for i, task := range t.deliveryQueue {
		if task.Type == TaskPickup && task.Status == TaskPending && task.SiteID == origin {
			task.addPackage(pkg)
			pickupIdx = i
			break
		}
	}
	if pickupIdx == -1 {
		t.deliveryQueue = append(t.deliveryQueue, &DeliveryTask{
			SiteID:     origin,
			Type:       TaskPickup,
			PackageIDs: []shared.PackageID{pkg},
			Status:     TaskPending,
		})
		pickupIdx = len(t.deliveryQueue) - 1
	}

	for i := pickupIdx + 1; i < len(t.deliveryQueue); i++ {
		task := t.deliveryQueue[i]
		if task.Type == TaskDelivery && task.Status == TaskPending && task.SiteID == destination {
			task.addPackage(pkg)
			return
		}
	}
	t.deliveryQueue = append(t.deliveryQueue, &DeliveryTask{
		SiteID:     destination,
		Type:       TaskDelivery,
		PackageIDs: []shared.PackageID{pkg},
		Status:     TaskPending,
	})
}

// currentTask returns the head of the queue, skipping completed tasks.
func (t *Truck) currentTask() *DeliveryTask {
	for len(t.deliveryQueue) > 0 {
		head := t.deliveryQueue[0]
		if head.Status == TaskCompleted {
			t.deliveryQueue = t.deliveryQueue[1:]
			continue
		}
		return head
	}
	return nil
}

// completeCurrentTask marks the head task done and pops it.
func (t *Truck) completeCurrentTask() {
	if len(t.deliveryQueue) == 0 {
		return
	}
	t.deliveryQueue[0].Status = TaskCompleted
	t.deliveryQueue = t.deliveryQueue[1:]
}
