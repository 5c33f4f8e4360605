package model

import (
	"fmt"
	"slices"
	"time"
)

// LoanState is the lifecycle state of a loan.
type LoanState string

// Loan states. RETURNED, DECLINED and CANCELLED are terminal.
const (
	LoanRequested  LoanState = "REQUESTED"
	LoanAccepted   LoanState = "ACCEPTED"
	LoanHandedOver LoanState = "HANDED_OVER"
	LoanReturned   LoanState = "RETURNED"
	LoanDeclined   LoanState = "DECLINED"
	LoanCancelled  LoanState = "CANCELLED"
)

// ActiveLoanStates are the states that make an item unavailable.
var ActiveLoanStates = []LoanState{LoanRequested, LoanAccepted, LoanHandedOver}

// ParseLoanState converts a stored or user-supplied value to a LoanState.
func ParseLoanState(s string) (LoanState, error) {
	st := LoanState(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown loan state %q", s)
	}
	return st, nil
}

// Valid reports whether s is one of the six loan states.
func (s LoanState) Valid() bool {
	switch s {
	case LoanRequested, LoanAccepted, LoanHandedOver, LoanReturned, LoanDeclined, LoanCancelled:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s LoanState) Terminal() bool {
	switch s {
	case LoanReturned, LoanDeclined, LoanCancelled:
		return true
	case LoanRequested, LoanAccepted, LoanHandedOver:
		return false
	}
	return false
}

// Active reports whether a loan in state s blocks new requests for its item.
func (s LoanState) Active() bool {
	return s.Valid() && !s.Terminal()
}

// Party is the relationship of a user to a loan.
type Party int

const (
	PartyNone Party = iota
	PartyOwner
	PartyBorrower
)

func (p Party) String() string {
	switch p {
	case PartyOwner:
		return "owner"
	case PartyBorrower:
		return "borrower"
	}
	return "none"
}

// PartyOf returns how actorID relates to a loan on an item owned by ownerID
// and borrowed by borrowerID.
func PartyOf(actorID, ownerID, borrowerID int64) Party {
	switch actorID {
	case ownerID:
		return PartyOwner
	case borrowerID:
		return PartyBorrower
	}
	return PartyNone
}

// Action is a transition applied to an existing loan.
type Action string

const (
	ActionAccept       Action = "accept"
	ActionDecline      Action = "decline"
	ActionCancel       Action = "cancel"
	ActionHandOver     Action = "hand_over"
	ActionMarkReturned Action = "mark_returned"
)

// Actions lists every transition in table order.
var Actions = []Action{ActionAccept, ActionDecline, ActionCancel, ActionHandOver, ActionMarkReturned}

// ParseAction accepts the action names and their URL forms
// ("hand-over", "return").
func ParseAction(s string) (Action, error) {
	switch s {
	case "accept":
		return ActionAccept, nil
	case "decline":
		return ActionDecline, nil
	case "cancel":
		return ActionCancel, nil
	case "hand_over", "hand-over":
		return ActionHandOver, nil
	case "mark_returned", "return":
		return ActionMarkReturned, nil
	}
	return "", fmt.Errorf("unknown loan action %q", s)
}

type transition struct {
	party Party
	from  []LoanState
	to    LoanState
}

// rule is the transition table.
func (a Action) rule() (transition, bool) {
	switch a {
	case ActionAccept:
		return transition{PartyOwner, []LoanState{LoanRequested}, LoanAccepted}, true
	case ActionDecline:
		return transition{PartyOwner, []LoanState{LoanRequested}, LoanDeclined}, true
	case ActionCancel:
		return transition{PartyBorrower, []LoanState{LoanRequested, LoanAccepted}, LoanCancelled}, true
	case ActionHandOver:
		return transition{PartyOwner, []LoanState{LoanAccepted}, LoanHandedOver}, true
	case ActionMarkReturned:
		return transition{PartyOwner, []LoanState{LoanHandedOver}, LoanReturned}, true
	}
	return transition{}, false
}

// Loan is a single borrowing transaction between one item and one borrower.
type Loan struct {
	ID                 int64      `json:"id"`
	ItemID             int64      `json:"item_id"`
	BorrowerID         int64      `json:"borrower_id"`
	State              LoanState  `json:"state"`
	RequestedAt        time.Time  `json:"requested_at"`
	AcceptedAt         *time.Time `json:"accepted_at,omitempty"`
	HandedOverAt       *time.Time `json:"handed_over_at,omitempty"`
	ReturnedAt         *time.Time `json:"returned_at,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	ExpectedReturnDate *time.Time `json:"expected_return_date,omitempty"`

	// Joined from items and users. OwnerID is always populated by the store
	// because every permission check needs it.
	OwnerID      int64  `json:"owner_id"`
	ItemTitle    string `json:"item_title,omitempty"`
	BorrowerName string `json:"borrower_name,omitempty"`
}

// Can reports whether actorID may apply a to the loan in its current state.
func (l *Loan) Can(a Action, actorID int64) bool {
	t, ok := a.rule()
	if !ok {
		return false
	}
	if PartyOf(actorID, l.OwnerID, l.BorrowerID) != t.party {
		return false
	}
	return slices.Contains(t.from, l.State)
}

// Allowed returns the actions actorID may currently apply.
func (l *Loan) Allowed(actorID int64) []Action {
	var out []Action
	for _, a := range Actions {
		if l.Can(a, actorID) {
			out = append(out, a)
		}
	}
	return out
}

// Apply moves the loan to the next state and stamps the matching timestamp.
// On rejection the loan is left untouched and a *TransitionError is returned.
func (l *Loan) Apply(a Action, actorID int64, now time.Time) error {
	if !l.Can(a, actorID) {
		return &TransitionError{Action: a, State: l.State}
	}
	t, _ := a.rule()

	switch a {
	case ActionAccept:
		l.AcceptedAt = &now
	case ActionDecline:
		// Declining records no timestamp.
	case ActionCancel:
		l.CancelledAt = &now
	case ActionHandOver:
		l.HandedOverAt = &now
	case ActionMarkReturned:
		l.ReturnedAt = &now
	}
	l.State = t.to
	return nil
}

// CheckRequest validates a new loan request by borrowerID for an item owned
// by ownerID whose current availability is available.
func CheckRequest(ownerID, borrowerID int64, available bool) error {
	if ownerID == borrowerID {
		return fmt.Errorf("requesting own item: %w", ErrNotAllowed)
	}
	if !available {
		return fmt.Errorf("item is not available: %w", ErrNotAllowed)
	}
	return nil
}
