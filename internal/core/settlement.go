package core

// Settlement is the outcome of reconciling one period's expenses between the
// two parties. Net is signed: positive means party B owes party A, negative
// means party A owes party B.
type Settlement struct {
	Parties     Parties `json:"-"`
	TotalSpent  Money   `json:"totalSpent"`
	PaidByA     Money   `json:"paidByPartyA"`
	PaidByB     Money   `json:"paidByPartyB"`
	AOwesB      Money   `json:"partyAOwesPartyB"`
	BOwesA      Money   `json:"partyBOwesPartyA"`
	Net         Money   `json:"netSettlement"`
}

// settleEpsilonCents is the reporting threshold: a residual below one cent
// counts as settled rather than a real debt. With integer cents this means
// exactly zero, but the threshold is kept explicit as reporting policy.
const settleEpsilonCents = 1

// Settled reports whether the net settlement is below the rounding epsilon.
func (s Settlement) Settled() bool {
	return s.Net.Abs().Cents < settleEpsilonCents
}

// Summary renders the settlement direction for humans, e.g.
// "Buffy owes Sean $50.00" or "All settled up!".
func (s Settlement) Summary() string {
	switch {
	case s.Settled():
		return "All settled up!"
	case s.Net.Cents > 0:
		return s.Parties.B + " owes " + s.Parties.A + " " + s.Net.String()
	default:
		return s.Parties.A + " owes " + s.Parties.B + " " + s.Net.Abs().String()
	}
}

// ComputeSettlement reconciles a set of expenses for one period.
//
// Each party accumulates what they paid and what their fair share is: shared
// expenses split 50/50, non-shared expenses land entirely on the non-payer's
// share (the payer covered it on the other's behalf). A party owes only the
// part of their share they did not already pay, floored at zero; any credit
// surfaces through the other party's owed amount. Net = owesB - owesA, taken
// as a difference so simultaneous small owed amounts from rounding cancel
// instead of being assumed exclusive.
//
// Shares are tracked in half-cents so a 50/50 split of an odd cent amount
// loses nothing; results are rounded half-up back to cents.
//
// The function is total: any well-formed input yields a result, and an empty
// slice yields all zeroes (settled). Expenses must already be scoped to one
// owner and one period; duplicates are summed as given.
func ComputeSettlement(parties Parties, expenses []Expense) Settlement {
	var paidA, paidB, shareA, shareB int64 // all in half-cents

	for _, e := range expenses {
		hc := e.Amount.Cents * 2
		if e.PaidBy == parties.A {
			paidA += hc
		} else {
			paidB += hc
		}
		if e.Shared {
			shareA += hc / 2
			shareB += hc / 2
		} else if e.PaidBy == parties.A {
			shareB += hc
		} else {
			shareA += hc
		}
	}

	owesA := max64(0, shareA-paidA)
	owesB := max64(0, shareB-paidB)
	net := owesB - owesA

	return Settlement{
		Parties:    parties,
		TotalSpent: Money{Cents: halfCentsToCents(paidA + paidB)},
		PaidByA:    Money{Cents: halfCentsToCents(paidA)},
		PaidByB:    Money{Cents: halfCentsToCents(paidB)},
		AOwesB:     Money{Cents: halfCentsToCents(owesA)},
		BOwesA:     Money{Cents: halfCentsToCents(owesB)},
		Net:        Money{Cents: halfCentsToCents(net)},
	}
}

// halfCentsToCents rounds half-up away from zero.
func halfCentsToCents(hc int64) int64 {
	if hc >= 0 {
		return (hc + 1) / 2
	}
	return -((-hc + 1) / 2)
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
