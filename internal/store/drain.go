package store

// Settlement describes one debt record touched by a drain.
type Settlement struct {
	ID             int64  `json:"id"`
	Applied        int    `json:"applied"`
	PreviousStatus string `json:"previous_status"`
	NewStatus      string `json:"new_status"`
	Remaining      int    `json:"remaining"`
}

// debtView is the slice of a debt record the drain planner needs. Both
// ledgers (excess and weapon) map onto it.
type debtView struct {
	id       int64
	owed     int
	returned int
	status   string
}

// application is a planned write against a single debt record.
type application struct {
	id          int64
	applied     int
	newReturned int
	prevStatus  string
	newStatus   string
	closed      bool
}

// planDrain walks open debts oldest-first and applies qty against them.
// With atomic=false a debt may be partially settled; with atomic=true a
// debt is only settled if the remaining quantity covers it in full, and it
// closes in one step. The plan never applies more than qty in total and
// never pushes a record past its owed quantity.
func planDrain(open []debtView, qty int, atomic bool, fullStatus, partialStatus string) []application {
	var plan []application
	remaining := qty

	for _, d := range open {
		if remaining <= 0 {
			break
		}

		owed := d.owed - d.returned
		if owed <= 0 {
			continue
		}

		if atomic {
			// Binary settlement: all or nothing per record.
			if remaining < owed {
				break
			}
			plan = append(plan, application{
				id:          d.id,
				applied:     owed,
				newReturned: d.owed,
				prevStatus:  d.status,
				newStatus:   fullStatus,
				closed:      true,
			})
			remaining -= owed
			continue
		}

		applied := min(remaining, owed)
		newReturned := d.returned + applied

		app := application{
			id:          d.id,
			applied:     applied,
			newReturned: newReturned,
			prevStatus:  d.status,
		}
		if newReturned >= d.owed {
			app.newStatus = fullStatus
			app.closed = true
		} else {
			app.newStatus = partialStatus
		}
		plan = append(plan, app)
		remaining -= applied
	}

	return plan
}
