package api

import (
	"encoding/json"

	"github.com/pennywise-app/pennywise/internal/model"
)

// envelope is the part every backend response shares.
type envelope struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

type expensesResponse struct {
	Expenses []model.Expense `json:"expenses"`
}

type addExpenseRequest struct {
	Username string      `json:"username"`
	Name     string      `json:"name"`
	Amount   json.Number `json:"amount"`
	Category string      `json:"category"`
	Date     string      `json:"date"`
}

type deleteExpensesRequest struct {
	ExpenseIDs []model.ID `json:"expense_ids"`
}

type profileRequest struct {
	Username string  `json:"username"`
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Password *string `json:"password"`
}

type setThresholdRequest struct {
	Username string      `json:"username"`
	Amount   json.Number `json:"amount"`
}

type signInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type signUpRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
