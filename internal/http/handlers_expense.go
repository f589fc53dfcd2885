package http

import (
	"net/http"
	"sync/atomic"
	"time"

	"canteen/internal/core"
	"canteen/internal/log"
)

func (s *Server) location() *time.Location {
	if s.aggregator != nil {
		return s.aggregator.Location()
	}
	return time.UTC
}

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListExpenses(w, r)
	case http.MethodPost:
		s.handleCreateExpense(w, r)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseExpenseFilter(r.URL.Query(), s.location())
	if err != nil {
		BadRequestError("Invalid expense filter", err).Write(w)
		return
	}

	expenses, err := s.expenses.ListExpenses(r.Context(), filter)
	if err != nil {
		s.structured.LogError(r.Context(), "Failed to list expenses", err,
			log.ErrorTypeDatabase, log.ComponentExpense, log.OpList)
		InternalServerError("Failed to fetch expenses").Write(w)
		return
	}
	if expenses == nil {
		expenses = []core.Expense{}
	}

	NewJSONResponse().Body(expenses).Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req CreateExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		if fields := validationFields(err); fields != nil {
			ValidationError("Invalid expense", fields).Write(w)
			return
		}
		BadRequestError("Invalid request body", err).Write(w)
		return
	}

	exp, err := req.Expense(s.location())
	if err != nil {
		BadRequestError("Invalid expense", err).Write(w)
		return
	}

	saved, err := s.expenses.CreateExpense(r.Context(), exp)
	if err != nil {
		if isValidationError(err) {
			BadRequestError("Invalid expense", err).Write(w)
			return
		}
		s.structured.LogError(r.Context(), "Failed to save expense", err,
			log.ErrorTypeDatabase, log.ComponentExpense, log.OpCreate)
		ErrorResponse(http.StatusInternalServerError, "Failed to create expense", err).Write(w)
		return
	}

	atomic.AddInt64(&s.appMetrics.expensesCreated, 1)
	s.structured.LogExpenseCreated(r.Context(), saved)

	NewJSONResponse().Status(http.StatusCreated).Body(saved).Write(w)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}
	NewJSONResponse().Body(core.Categories()).Write(w)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}

	overview, err := s.expenses.Dashboard(r.Context())
	if err != nil {
		s.structured.LogError(r.Context(), "Failed to build dashboard", err,
			log.ErrorTypeDatabase, log.ComponentExpense, log.OpRead)
		InternalServerError("Failed to fetch dashboard").Write(w)
		return
	}

	NewJSONResponse().Body(overview).Write(w)
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListTransactions(w, r)
	case http.MethodPost:
		s.handleCreateTransaction(w, r)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	from, to, err := ParseRange(r.URL.Query(), time.Now(), s.location())
	if err != nil {
		BadRequestError("Invalid date range", err).Write(w)
		return
	}

	txs, err := s.expenses.ListTransactions(r.Context(), from, to)
	if err != nil {
		s.structured.LogError(r.Context(), "Failed to list transactions", err,
			log.ErrorTypeDatabase, log.ComponentExpense, log.OpList)
		InternalServerError("Failed to fetch transactions").Write(w)
		return
	}
	if txs == nil {
		txs = []core.Transaction{}
	}

	NewJSONResponse().Body(txs).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req CreateTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		if fields := validationFields(err); fields != nil {
			ValidationError("Invalid transaction", fields).Write(w)
			return
		}
		BadRequestError("Invalid request body", err).Write(w)
		return
	}

	tx, err := req.Transaction(s.location())
	if err != nil {
		BadRequestError("Invalid transaction", err).Write(w)
		return
	}

	saved, err := s.expenses.CreateTransaction(r.Context(), tx)
	if err != nil {
		if isValidationError(err) {
			BadRequestError("Invalid transaction", err).Write(w)
			return
		}
		s.structured.LogError(r.Context(), "Failed to save transaction", err,
			log.ErrorTypeDatabase, log.ComponentExpense, log.OpCreate)
		ErrorResponse(http.StatusInternalServerError, "Failed to create transaction", err).Write(w)
		return
	}

	atomic.AddInt64(&s.appMetrics.transactionsCreated, 1)
	s.structured.LogTransactionCreated(r.Context(), saved)

	NewJSONResponse().Status(http.StatusCreated).Body(saved).Write(w)
}
