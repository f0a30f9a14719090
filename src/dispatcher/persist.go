package dispatcher

import (
	"trader-gateway/src/models"
)

// persistLoop writes pushed records to the database off the read goroutine.
func (d *CommandDispatcher) persistLoop() {
	defer d.wg.Done()
	for {
		select {
		case <-d.ctx.Done():
			d.drainPersist()
			return
		case frame := <-d.persist:
			d.store(frame)
		}
	}
}

func (d *CommandDispatcher) drainPersist() {
	for {
		select {
		case frame := <-d.persist:
			d.store(frame)
		default:
			return
		}
	}
}

func (d *CommandDispatcher) store(frame models.MDecodedFrame) {
	for _, p := range frame.Positions {
		d.errors.Handle(d.db.UpsertPosition(p), "database upsert position")
	}

	for _, o := range frame.Orders {
		d.errors.Handle(d.db.UpsertOrder(o), "database upsert order")
		if o.Token == "" || o.Status == "" {
			continue
		}
		changed, err := d.db.UpdateTrackedOrderStatus(o.Token, o.ID, o.Status)
		d.errors.Handle(err, "database update tracked order")
		if changed {
			d.logger.Debug("action: track | token: %s | status: %s", o.Token, o.Status)
		}
	}

	for _, t := range frame.Trades {
		d.errors.Handle(d.db.UpsertTrade(t), "database upsert trade")
	}
}
