package core

// MaterializeMonth projects recurring templates into concrete expenses for
// one target month.
//
// A template is skipped when any expense in existing already references it
// via RecurringID and is dated inside the target month; that guard is what
// makes repeated applies for the same month a no-op instead of a duplicate
// rent charge. Everything else materializes on min(DayOfMonth, days in
// month).
//
// Only the newly created expenses are returned. The function is pure: id
// generation is injected so callers (and tests) control it, and nothing is
// written anywhere. The caller owns persistence and the stronger
// at-most-once guarantee under concurrency.
func MaterializeMonth(templates []RecurringTemplate, existing []Expense, month Month, newID func() string) []Expense {
	applied := make(map[string]bool)
	for _, e := range existing {
		if e.RecurringID != "" && e.Date.InMonth(month) {
			applied[e.RecurringID] = true
		}
	}

	var created []Expense
	for _, t := range templates {
		if applied[t.ID] {
			continue
		}
		created = append(created, Expense{
			ID:          newID(),
			OwnerID:     t.OwnerID,
			Date:        month.DateAt(t.DayOfMonth),
			Description: t.Description,
			Amount:      t.Amount,
			Category:    t.Category,
			PaidBy:      t.PaidBy,
			Shared:      t.Shared,
			RecurringID: t.ID,
		})
	}
	return created
}
