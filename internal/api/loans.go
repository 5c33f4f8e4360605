package api

import (
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/kolcson/internal/model"
	"github.com/erazemk/kolcson/internal/store"
)

// LoansHandler handles loan requests and transitions.
type LoansHandler struct {
	DB *sql.DB
}

type requestLoanRequest struct {
	// ExpectedReturnDate is a calendar date, YYYY-MM-DD.
	ExpectedReturnDate string `json:"expected_return_date"`
}

// loanView is a loan as seen by one of its parties.
type loanView struct {
	*model.Loan
	Party          string         `json:"party"`
	AllowedActions []model.Action `json:"allowed_actions"`
}

func viewLoan(l *model.Loan, actorID int64) loanView {
	actions := l.Allowed(actorID)
	if actions == nil {
		actions = []model.Action{}
	}
	return loanView{
		Loan:           l,
		Party:          model.PartyOf(actorID, l.OwnerID, l.BorrowerID).String(),
		AllowedActions: actions,
	}
}

func viewLoans(loans []model.Loan, actorID int64) []loanView {
	out := make([]loanView, 0, len(loans))
	for i := range loans {
		out = append(out, viewLoan(&loans[i], actorID))
	}
	return out
}

// Request handles POST /api/items/{id}/loans. The body is optional.
func (h *LoansHandler) Request(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req requestLoanRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var expected *time.Time
	if req.ExpectedReturnDate != "" {
		d, err := time.Parse(time.DateOnly, req.ExpectedReturnDate)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "expected_return_date must be YYYY-MM-DD")
			return
		}
		expected = &d
	}

	claims := GetClaims(r.Context())
	loan, err := store.RequestLoan(r.Context(), h.DB, itemID, claims.UserID, expected)
	if err != nil {
		storeError(w, err, "request loan")
		return
	}

	slog.Info("loan requested", "user", claims.Username, "loan_id", loan.ID, "item_id", itemID)
	jsonResponse(w, http.StatusCreated, viewLoan(loan, claims.UserID))
}

// List handles GET /api/loans, split by the caller's side of each loan.
func (h *LoansHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	borrowing, err := store.ListLoansByBorrower(r.Context(), h.DB, claims.UserID)
	if err != nil {
		storeError(w, err, "list loans")
		return
	}
	lending, err := store.ListLoansByOwner(r.Context(), h.DB, claims.UserID)
	if err != nil {
		storeError(w, err, "list loans")
		return
	}

	jsonResponse(w, http.StatusOK, map[string][]loanView{
		"as_borrower": viewLoans(borrowing, claims.UserID),
		"as_owner":    viewLoans(lending, claims.UserID),
	})
}

// Get handles GET /api/loans/{id}. Only the two parties may see a loan.
func (h *LoansHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid loan id")
		return
	}

	loan, err := store.GetLoan(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "get loan")
		return
	}
	if loan == nil {
		jsonError(w, http.StatusNotFound, "loan not found")
		return
	}

	claims := GetClaims(r.Context())
	if model.PartyOf(claims.UserID, loan.OwnerID, loan.BorrowerID) == model.PartyNone {
		jsonError(w, http.StatusForbidden, "not a party to this loan")
		return
	}
	jsonResponse(w, http.StatusOK, viewLoan(loan, claims.UserID))
}

// Transition handles POST /api/loans/{id}/{action}.
func (h *LoansHandler) Transition(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid loan id")
		return
	}
	action, err := model.ParseAction(r.PathValue("action"))
	if err != nil {
		jsonError(w, http.StatusNotFound, err.Error())
		return
	}

	claims := GetClaims(r.Context())
	loan, err := store.TransitionLoan(r.Context(), h.DB, id, claims.UserID, action)
	if err != nil {
		var te *model.TransitionError
		if errors.As(err, &te) {
			slog.Warn("loan transition rejected", "user", claims.Username, "loan_id", id,
				"action", action, "state", te.State)
		}
		storeError(w, err, "update loan")
		return
	}

	slog.Info("loan updated", "user", claims.Username, "loan_id", id, "action", action, "state", loan.State)
	jsonResponse(w, http.StatusOK, viewLoan(loan, claims.UserID))
}
