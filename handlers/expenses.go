package handlers

import (
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"tripplanner/database"
)

type ExpenseRequest struct {
	Category    string          `json:"category" binding:"required,oneof=flights lodging food transport activities shopping other"`
	Description string          `json:"description" binding:"max=500"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency" binding:"omitempty,currency"`
	SpentOn     string          `json:"spent_on" binding:"omitempty,isodate"`
}

func (r *ExpenseRequest) bind(c *gin.Context) bool {
	if err := c.ShouldBindJSON(r); err != nil {
		ValidationFailed(c, err)
		return false
	}
	if !r.Amount.IsPositive() {
		invalidField(c, "amount", "Must be greater than 0")
		return false
	}
	return true
}

func (r *ExpenseRequest) apply(e *database.Expense, defaultCurrency string) {
	e.Category = r.Category
	e.Description = strings.TrimSpace(r.Description)
	e.Amount = r.Amount.Round(2)
	e.Currency = strings.ToUpper(orDefault(r.Currency, defaultCurrency))
	e.SpentOn = r.SpentOn
}

func (h *Handler) ListExpenses(c *gin.Context) {
	ctx := c.Request.Context()
	u := user(c)
	if _, err := h.Store.GetTrip(ctx, u.ID, c.Param("id")); err != nil {
		storeError(c, err, "trip")
		return
	}
	expenses, err := h.Store.ListExpenses(ctx, u.ID, c.Param("id"))
	if err != nil {
		storeError(c, err, "expenses")
		return
	}
	OK(c, expenses)
}

// CreateExpense adds an expense to a trip the caller owns. Currency defaults to the trip's.
func (h *Handler) CreateExpense(c *gin.Context) {
	var req ExpenseRequest
	if !req.bind(c) {
		return
	}

	ctx := c.Request.Context()
	u := user(c)
	trip, err := h.Store.GetTrip(ctx, u.ID, c.Param("id"))
	if err != nil {
		storeError(c, err, "trip")
		return
	}

	e := &database.Expense{TripID: trip.ID, UserID: u.ID}
	req.apply(e, trip.Currency)
	if err := h.Store.CreateExpense(ctx, e); err != nil {
		storeError(c, err, "expense")
		return
	}
	Created(c, e)
}

func (h *Handler) UpdateExpense(c *gin.Context) {
	var req ExpenseRequest
	if !req.bind(c) {
		return
	}

	ctx := c.Request.Context()
	e, err := h.Store.GetExpense(ctx, user(c).ID, c.Param("id"))
	if err != nil {
		storeError(c, err, "expense")
		return
	}
	req.apply(e, e.Currency)
	if err := h.Store.UpdateExpense(ctx, e); err != nil {
		storeError(c, err, "expense")
		return
	}
	OK(c, e)
}

func (h *Handler) DeleteExpense(c *gin.Context) {
	if err := h.Store.DeleteExpense(c.Request.Context(), user(c).ID, c.Param("id")); err != nil {
		storeError(c, err, "expense")
		return
	}
	OK(c, gin.H{"deleted": true})
}

type CurrencyTotal struct {
	Currency   string                     `json:"currency"`
	Total      decimal.Decimal            `json:"total"`
	ByCategory map[string]decimal.Decimal `json:"by_category"`
}

type ExpenseSummary struct {
	TripID    string           `json:"trip_id"`
	Count     int              `json:"count"`
	Totals    []CurrencyTotal  `json:"totals"`
	Budget    decimal.Decimal  `json:"budget"`
	Currency  string           `json:"currency"`
	Remaining *decimal.Decimal `json:"remaining,omitempty"`
}

// ExpenseSummary totals a trip's expenses per currency. Remaining budget is only
// reported when every expense is in the trip currency.
func (h *Handler) ExpenseSummary(c *gin.Context) {
	ctx := c.Request.Context()
	u := user(c)
	trip, err := h.Store.GetTrip(ctx, u.ID, c.Param("id"))
	if err != nil {
		storeError(c, err, "trip")
		return
	}
	expenses, err := h.Store.ListExpenses(ctx, u.ID, trip.ID)
	if err != nil {
		storeError(c, err, "expenses")
		return
	}
	OK(c, summarize(trip, expenses))
}

func summarize(trip *database.Trip, expenses []database.Expense) ExpenseSummary {
	byCurrency := map[string]*CurrencyTotal{}
	for _, e := range expenses {
		t, ok := byCurrency[e.Currency]
		if !ok {
			t = &CurrencyTotal{Currency: e.Currency, ByCategory: map[string]decimal.Decimal{}}
			byCurrency[e.Currency] = t
		}
		t.Total = t.Total.Add(e.Amount)
		t.ByCategory[e.Category] = t.ByCategory[e.Category].Add(e.Amount)
	}

	s := ExpenseSummary{
		TripID:   trip.ID,
		Count:    len(expenses),
		Totals:   make([]CurrencyTotal, 0, len(byCurrency)),
		Budget:   trip.Budget,
		Currency: trip.Currency,
	}
	for _, t := range byCurrency {
		s.Totals = append(s.Totals, *t)
	}
	sort.Slice(s.Totals, func(i, j int) bool { return s.Totals[i].Currency < s.Totals[j].Currency })

	inTripCurrency, ok := byCurrency[trip.Currency]
	if trip.Budget.IsPositive() && (len(byCurrency) == 0 || ok && len(byCurrency) == 1) {
		remaining := trip.Budget
		if ok {
			remaining = remaining.Sub(inTripCurrency.Total)
		}
		s.Remaining = &remaining
	}
	return s
}
