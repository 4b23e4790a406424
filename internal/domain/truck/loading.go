package truck

import (
	"github.com/mbeckers/freightsim-go/internal/domain/agent"
	"github.com/mbeckers/freightsim-go/internal/domain/cargo"
	"github.com/mbeckers/freightsim-go/internal/domain/shared"
	"github.com/mbeckers/freightsim-go/internal/domain/world"
)

// loadTimeSeconds is the handling duration for a batch of the given total
// size: tonnes moved at the loading rate.
func loadTimeSeconds(sizeUnits int) float64 {
	tonnes := float64(sizeUnits) * cargo.TonnesPerSizeUnit
	return tonnes / LoadingRateTonnesPerMinute * 60.0
}

// startSiteWork enters the task's site and begins loading or unloading.
func (t *Truck) startSiteWork(w *world.World, task *DeliveryTask) {
	site, ok := w.SiteByID(task.SiteID)
	if !ok {
		t.completeCurrentTask()
		return
	}
	if err := t.enterBuilding(w, site.BuildingID()); err != nil {
		// Sites are unbounded, so this only fires when the truck is somehow
		// not at a node; leave the task pending and retry next tick.
		return
	}

	task.Status = TaskInProgress
	t.clearNavigation()
	t.loadingProgressS = 0

	total := 0
	for _, id := range task.PackageIDs {
		if pkg, ok := w.Package(id); ok {
			total += pkg.Size
		}
	}
	t.loadingTargetS = loadTimeSeconds(total)

	if task.Type == TaskPickup {
		t.isLoading = true
	} else {
		t.isUnloading = true
	}
}

// handleSiteWork accumulates handling progress and commits the pickup or
// delivery when the target duration is reached.
func (t *Truck) handleSiteWork(w *world.World) {
	t.loadingProgressS += w.Clock.DTSeconds
	if t.loadingProgressS < t.loadingTargetS {
		return
	}

	task := t.currentTask()
	if task == nil {
		t.isLoading = false
		t.isUnloading = false
		return
	}

	if task.Type == TaskPickup {
		t.commitPickup(w, task)
	} else {
		t.commitDelivery(w, task)
	}

	t.isLoading = false
	t.isUnloading = false
	t.loadingProgressS = 0
	t.loadingTargetS = 0
	t.completeCurrentTask()
	t.leaveCurrentBuilding(w)
}

// commitPickup moves the task's packages from the site onto the truck and
// confirms the pickup to the broker.
func (t *Truck) commitPickup(w *world.World, task *DeliveryTask) {
	site, ok := w.SiteByID(task.SiteID)
	if !ok {
		return
	}

	var picked []shared.PackageID
	for _, id := range task.PackageIDs {
		pkg, exists := w.Package(id)
		if !exists || pkg.Status != cargo.StatusWaitingPickup || !site.HoldsPackage(id) {
			continue
		}
		if t.LoadedSize(w)+pkg.Size > t.capacity {
			continue
		}
		if err := pkg.MarkInTransit(); err != nil {
			continue
		}
		site.RemoveActivePackage(id)
		site.RecordPickup()
		t.loaded = append(t.loaded, id)
		picked = append(picked, id)
		w.EmitEvent(world.EventPackagePickedUp, pkg.Payload())
	}

	if len(picked) == 0 {
		return
	}
	if brokerID, ok := w.BrokerID(); ok {
		ids := make([]interface{}, len(picked))
		for i, id := range picked {
			ids[i] = string(id)
		}
		t.Mailbox().Send(agent.Message{
			Src:  t.ID(),
			Dst:  brokerID,
			Type: agent.TypePickupConfirmed,
			Body: map[string]interface{}{
				"package_ids": ids,
				"site_id":     string(task.SiteID),
				"tick":        w.Clock.Tick,
			},
		})
	}
}

// commitDelivery unloads the task's packages at the destination site. Late
// packages are still delivered; the confirmation carries the on-time flag.
func (t *Truck) commitDelivery(w *world.World, task *DeliveryTask) {
	site, siteOK := w.SiteByID(task.SiteID)
	brokerID, brokerOK := w.BrokerID()

	for _, id := range task.PackageIDs {
		loadedIdx := -1
		for i, loadedID := range t.loaded {
			if loadedID == id {
				loadedIdx = i
				break
			}
		}
		if loadedIdx == -1 {
			continue
		}
		pkg, exists := w.Package(id)
		if !exists {
			t.loaded = append(t.loaded[:loadedIdx], t.loaded[loadedIdx+1:]...)
			continue
		}
		if err := pkg.MarkDelivered(w.Clock.Tick); err != nil {
			continue
		}
		t.loaded = append(t.loaded[:loadedIdx], t.loaded[loadedIdx+1:]...)
		onTime := pkg.DeliveredOnTime(w.Clock.Tick)
		if siteOK {
			site.RecordDelivery(pkg.ValueDucats)
		}
		w.RemovePackage(id)
		w.EmitEvent(world.EventPackageDelivered, pkg.Payload())

		if brokerOK {
			t.Mailbox().Send(agent.Message{
				Src:  t.ID(),
				Dst:  brokerID,
				Type: agent.TypeDeliveryConfirmed,
				Body: map[string]interface{}{
					"package_id":     string(id),
					"on_time":        onTime,
					"delivered_tick": w.Clock.Tick,
					"value":          pkg.ValueDucats,
				},
			})
		}
	}
}
