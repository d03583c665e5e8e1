package http

import (
	"log/slog"
	"net/http"
	"time"

	"moneta/internal/core"
)

type createWalletRequest struct {
	Name        string `json:"name"`
	Currency    string `json:"currency,omitempty"`
	Description string `json:"description,omitempty"`
}

type walletResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Currency    string `json:"currency"`
	Description string `json:"description,omitempty"`
}

type overviewResponse struct {
	Wallet       walletResponse `json:"wallet"`
	Balance      string         `json:"balance"`
	TotalIncome  string         `json:"total_income"`
	TotalExpense string         `json:"total_expense"`
	Entries      int            `json:"entries"`
}

type recordTransactionRequest struct {
	Amount      string `json:"amount"`
	Kind        string `json:"kind"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date,omitempty"` // YYYY-MM-DD, defaults to today
}

type transactionResponse struct {
	ID          string `json:"id"`
	Amount      string `json:"amount"`
	Kind        string `json:"kind"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date"`
	OriginID    string `json:"origin_id,omitempty"`
}

func toWalletResponse(w core.Wallet) walletResponse {
	return walletResponse{
		ID:          w.ID,
		Name:        w.Name,
		Currency:    w.Currency,
		Description: w.Description,
	}
}

func toTransactionResponse(tx core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          tx.ID,
		Amount:      tx.Amount.Format(),
		Kind:        string(tx.Kind),
		Category:    tx.Category,
		Description: tx.Description,
		Date:        tx.CreatedAt.Format(time.DateOnly),
		OriginID:    tx.OriginID,
	}
}

func (s *Server) handleCreateWallet(w http.ResponseWriter, r *http.Request) {
	var req createWalletRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	wallet := core.Wallet{
		Name:        req.Name,
		Currency:    req.Currency,
		Description: req.Description,
	}
	if wallet.Currency == "" {
		wallet.Currency = s.defaultCurrency
	}

	id, err := s.wallets.CreateWallet(r.Context(), wallet)
	if err != nil {
		slog.ErrorContext(r.Context(), "Create wallet failed", "name", req.Name, "error", err)
		respondDomainError(w, err)
		return
	}
	wallet.ID = id

	respondJSON(w, http.StatusCreated, toWalletResponse(wallet))
}

func (s *Server) handleListWallets(w http.ResponseWriter, r *http.Request) {
	wallets, err := s.wallets.ListWallets(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List wallets failed", "error", err)
		respondDomainError(w, err)
		return
	}

	out := make([]walletResponse, len(wallets))
	for i, wallet := range wallets {
		out[i] = toWalletResponse(wallet)
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleWalletOverview(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	overview, ok := s.overviewCache.Get(name)
	if !ok {
		var err error
		overview, err = s.wallets.Overview(r.Context(), name)
		if err != nil {
			respondDomainError(w, err)
			return
		}
		s.overviewCache.Set(name, overview)
	}

	respondJSON(w, http.StatusOK, overviewResponse{
		Wallet:       toWalletResponse(overview.Wallet),
		Balance:      overview.Balance.Format(),
		TotalIncome:  overview.TotalIncome.Format(),
		TotalExpense: overview.TotalExpense.Format(),
		Entries:      overview.Entries,
	})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	txs, err := s.wallets.ListTransactions(r.Context(), name)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	out := make([]transactionResponse, len(txs))
	for i, tx := range txs {
		out[i] = toTransactionResponse(tx)
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleRecordTransaction(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var req recordTransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid amount: "+err.Error())
		return
	}

	createdAt := time.Now()
	if req.Date != "" {
		day, err := parseDay(req.Date)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
			return
		}
		createdAt = day
	}

	tx := core.Transaction{
		ID:          core.NewEntryID(),
		Amount:      core.Money{Cents: cents},
		Kind:        core.TransactionKind(req.Kind),
		Category:    req.Category,
		Description: req.Description,
		CreatedAt:   createdAt,
	}

	if err := s.wallets.Record(r.Context(), name, tx); err != nil {
		slog.ErrorContext(r.Context(), "Record transaction failed",
			"wallet", name, "kind", req.Kind, "error", err)
		respondDomainError(w, err)
		return
	}
	s.overviewCache.Delete(name)

	respondJSON(w, http.StatusCreated, toTransactionResponse(tx))
}
