package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/kolcson/internal/model"
)

const loanSelect = `SELECT l.id, l.item_id, l.borrower_id, l.state, l.requested_at,
       l.accepted_at, l.handed_over_at, l.returned_at, l.cancelled_at, l.expected_return_date,
       i.owner_id, i.title, u.username
  FROM loans l
  JOIN items i ON i.id = l.item_id
  JOIN users u ON u.id = l.borrower_id`

type scanner interface {
	Scan(dest ...any) error
}

func scanLoan(s scanner) (*model.Loan, error) {
	l := &model.Loan{}
	var state string
	if err := s.Scan(&l.ID, &l.ItemID, &l.BorrowerID, &state, &l.RequestedAt,
		&l.AcceptedAt, &l.HandedOverAt, &l.ReturnedAt, &l.CancelledAt, &l.ExpectedReturnDate,
		&l.OwnerID, &l.ItemTitle, &l.BorrowerName); err != nil {
		return nil, err
	}
	st, err := model.ParseLoanState(state)
	if err != nil {
		return nil, err
	}
	l.State = st
	return l, nil
}

// nullTime converts an optional timestamp to a query argument.
func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

// isAvailable reports whether an item has no active loan.
func isAvailable(ctx context.Context, q querier, itemID int64) (bool, error) {
	var active bool
	err := q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM loans WHERE item_id = ? AND state IN (?, ?, ?))`,
		itemID, string(model.LoanRequested), string(model.LoanAccepted), string(model.LoanHandedOver),
	).Scan(&active)
	if err != nil {
		return false, fmt.Errorf("checking availability: %w", err)
	}
	return !active, nil
}

// IsItemAvailable reports whether an item currently has no loan in
// REQUESTED, ACCEPTED or HANDED_OVER. It is computed on every call.
func IsItemAvailable(ctx context.Context, db *sql.DB, itemID int64) (bool, error) {
	return isAvailable(ctx, db, itemID)
}

// RequestLoan creates a REQUESTED loan of itemID for borrowerID.
// It fails with ErrNotFound for a missing item and ErrNotAllowed when the
// borrower owns the item or the item is unavailable; no row is written then.
// Concurrent requests for one item are serialised by the immediate
// transaction, and the active-loan index rejects any second winner.
func RequestLoan(ctx context.Context, db *sql.DB, itemID, borrowerID int64, expectedReturn *time.Time) (*model.Loan, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	ownerID, err := itemOwner(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}
	available, err := isAvailable(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}
	if err := model.CheckRequest(ownerID, borrowerID, available); err != nil {
		return nil, fmt.Errorf("item %d: %w", itemID, err)
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO loans (item_id, borrower_id, state, requested_at, expected_return_date)
		 VALUES (?, ?, ?, ?, ?)`,
		itemID, borrowerID, string(model.LoanRequested), time.Now().UTC(), nullTime(expectedReturn),
	)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("item %d is not available: %w", itemID, model.ErrNotAllowed)
	}
	if err != nil {
		return nil, fmt.Errorf("creating loan: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting loan id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing loan: %w", err)
	}

	return GetLoan(ctx, db, id)
}

// GetLoan returns a loan by ID.
func GetLoan(ctx context.Context, db *sql.DB, id int64) (*model.Loan, error) {
	l, err := scanLoan(db.QueryRowContext(ctx, loanSelect+` WHERE l.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting loan: %w", err)
	}
	return l, nil
}

// TransitionLoan applies action to a loan on behalf of actorID.
//
// The new state and its timestamp are written by a single UPDATE that only
// matches while the loan is still in the state the guard was evaluated
// against. If another request changed the loan in between, the call fails
// with a *model.TransitionError carrying the state that won.
func TransitionLoan(ctx context.Context, db *sql.DB, loanID, actorID int64, action model.Action) (*model.Loan, error) {
	loan, err := GetLoan(ctx, db, loanID)
	if err != nil {
		return nil, err
	}
	if loan == nil {
		return nil, fmt.Errorf("loan %d: %w", loanID, model.ErrNotFound)
	}

	observed := loan.State
	if err := loan.Apply(action, actorID, time.Now().UTC()); err != nil {
		return nil, err
	}

	result, err := db.ExecContext(ctx,
		`UPDATE loans
		    SET state = ?, accepted_at = ?, handed_over_at = ?, returned_at = ?, cancelled_at = ?
		  WHERE id = ? AND state = ?`,
		string(loan.State), nullTime(loan.AcceptedAt), nullTime(loan.HandedOverAt),
		nullTime(loan.ReturnedAt), nullTime(loan.CancelledAt),
		loan.ID, string(observed),
	)
	if err != nil {
		return nil, fmt.Errorf("updating loan: %w", err)
	}

	if n, _ := result.RowsAffected(); n == 0 {
		current, err := GetLoan(ctx, db, loanID)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, fmt.Errorf("loan %d: %w", loanID, model.ErrNotFound)
		}
		return nil, &model.TransitionError{Action: action, State: current.State}
	}

	return GetLoan(ctx, db, loanID)
}

// ListLoansByBorrower returns the loans requested by a user, newest first.
func ListLoansByBorrower(ctx context.Context, db *sql.DB, borrowerID int64) ([]model.Loan, error) {
	return listLoans(ctx, db, ` WHERE l.borrower_id = ?`, borrowerID)
}

// ListLoansByOwner returns the loans on a user's items, newest first.
func ListLoansByOwner(ctx context.Context, db *sql.DB, ownerID int64) ([]model.Loan, error) {
	return listLoans(ctx, db, ` WHERE i.owner_id = ?`, ownerID)
}

// ListItemLoans returns every loan of an item, newest first.
func ListItemLoans(ctx context.Context, db *sql.DB, itemID int64) ([]model.Loan, error) {
	return listLoans(ctx, db, ` WHERE l.item_id = ?`, itemID)
}

func listLoans(ctx context.Context, db *sql.DB, where string, arg any) ([]model.Loan, error) {
	rows, err := db.QueryContext(ctx,
		loanSelect+where+` ORDER BY l.requested_at DESC, l.id DESC`, arg,
	)
	if err != nil {
		return nil, fmt.Errorf("listing loans: %w", err)
	}
	defer rows.Close()

	var loans []model.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning loan: %w", err)
		}
		loans = append(loans, *l)
	}
	return loans, rows.Err()
}
