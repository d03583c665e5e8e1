package http

import (
	"log/slog"
	"net/http"
	"time"

	"moneta/internal/core"
	"moneta/internal/services"
)

type ruleRequest struct {
	Frequency    string `json:"frequency"`
	Interval     int    `json:"interval,omitempty"` // defaults to 1
	Weekdays     []int  `json:"weekdays,omitempty"`
	MonthWeek    int    `json:"month_week,omitempty"`
	MonthWeekday *int   `json:"month_weekday,omitempty"`
	End          string `json:"end,omitempty"` // never, on_date, after_count
	EndDate      string `json:"end_date,omitempty"`
	MaxCount     int    `json:"max_count,omitempty"`
}

type createTemplateRequest struct {
	Amount      string      `json:"amount"`
	Kind        string      `json:"kind"`
	Category    string      `json:"category"`
	Description string      `json:"description,omitempty"`
	Wallet      string      `json:"wallet"`
	StartDate   string      `json:"start_date"`
	Rule        ruleRequest `json:"rule"`
}

type editTemplateRequest struct {
	Amount      *string `json:"amount,omitempty"`
	Category    *string `json:"category,omitempty"`
	Description *string `json:"description,omitempty"`
}

type skipDateRequest struct {
	Date string `json:"date"`
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

type templateResponse struct {
	ID             string      `json:"id"`
	Amount         string      `json:"amount"`
	Kind           string      `json:"kind"`
	Category       string      `json:"category"`
	Description    string      `json:"description,omitempty"`
	Wallet         string      `json:"wallet"`
	StartDate      string      `json:"start_date"`
	Schedule       string      `json:"schedule"`
	Rule           ruleRequest `json:"rule"`
	Active         bool        `json:"active"`
	GeneratedCount int         `json:"generated_count"`
	LastGenerated  string      `json:"last_generated,omitempty"`
	Exceptions     []string    `json:"exceptions,omitempty"`
}

type deleteTemplateResponse struct {
	ID      string `json:"id"`
	Removed int    `json:"removed"`
}

type processResponse struct {
	Created int `json:"created"`
}

func (req ruleRequest) toRule() (core.RecurrenceRule, error) {
	rule := core.RecurrenceRule{
		Frequency: core.Frequency(req.Frequency),
		Interval:  req.Interval,
		MonthWeek: req.MonthWeek,
		End:       core.EndCondition(req.End),
		MaxCount:  req.MaxCount,
	}
	if rule.Interval == 0 {
		rule.Interval = 1
	}
	if rule.End == "" {
		rule.End = core.EndNever
	}
	for _, d := range req.Weekdays {
		rule.Weekdays = append(rule.Weekdays, core.Weekday(d))
	}
	if req.MonthWeekday != nil {
		wd := core.Weekday(*req.MonthWeekday)
		rule.MonthWeekday = &wd
	}
	if req.EndDate != "" {
		endDate, err := parseDay(req.EndDate)
		if err != nil {
			return core.RecurrenceRule{}, err
		}
		rule.EndDate = endDate
	}
	return rule, nil
}

func toRuleRequest(rule core.RecurrenceRule) ruleRequest {
	out := ruleRequest{
		Frequency: string(rule.Frequency),
		Interval:  rule.Interval,
		MonthWeek: rule.MonthWeek,
		End:       string(rule.End),
		MaxCount:  rule.MaxCount,
	}
	for _, d := range rule.Weekdays {
		out.Weekdays = append(out.Weekdays, int(d))
	}
	if rule.MonthWeekday != nil {
		wd := int(*rule.MonthWeekday)
		out.MonthWeekday = &wd
	}
	if !rule.EndDate.IsZero() {
		out.EndDate = rule.EndDate.Format(time.DateOnly)
	}
	return out
}

func toTemplateResponse(t *core.RecurringTemplate) templateResponse {
	out := templateResponse{
		ID:             t.ID,
		Amount:         t.Amount.Format(),
		Kind:           string(t.Kind),
		Category:       t.Category,
		Description:    t.Description,
		Wallet:         t.WalletName,
		StartDate:      t.StartDate.Format(time.DateOnly),
		Schedule:       t.Rule.Describe(),
		Rule:           toRuleRequest(t.Rule),
		Active:         t.IsActive,
		GeneratedCount: t.GeneratedCount,
		Exceptions:     t.ExceptionDates(),
	}
	if !t.LastGenerated.IsZero() {
		out.LastGenerated = t.LastGenerated.Format(time.DateOnly)
	}
	return out
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req createTemplateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid amount: "+err.Error())
		return
	}
	startDate, err := parseDay(req.StartDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid start_date, want YYYY-MM-DD")
		return
	}
	rule, err := req.Rule.toRule()
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid end_date, want YYYY-MM-DD")
		return
	}

	tmpl := core.NewRecurringTemplate(
		core.Money{Cents: cents},
		core.TransactionKind(req.Kind),
		req.Category,
		req.Description,
		req.Wallet,
		rule,
		startDate,
	)

	id, err := s.scheduler.Add(r.Context(), tmpl)
	if err != nil {
		slog.ErrorContext(r.Context(), "Create template failed",
			"wallet", req.Wallet, "category", req.Category, "error", err)
		respondDomainError(w, err)
		return
	}

	created, _ := s.scheduler.Get(id)
	respondJSON(w, http.StatusCreated, toTemplateResponse(created))
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates := s.scheduler.List()
	out := make([]templateResponse, len(templates))
	for i, t := range templates {
		out[i] = toTemplateResponse(t)
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	tmpl, err := s.scheduler.Get(r.PathValue("id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toTemplateResponse(tmpl))
}

func (s *Server) handleEditTemplate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req editTemplateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var edit services.TemplateEdit
	if req.Amount != nil {
		cents, err := core.ParseDecimalToCents(*req.Amount)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid amount: "+err.Error())
			return
		}
		edit.Amount = &core.Money{Cents: cents}
	}
	edit.Category = req.Category
	edit.Description = req.Description

	if err := s.scheduler.EditFields(r.Context(), id, edit); err != nil {
		respondDomainError(w, err)
		return
	}

	tmpl, err := s.scheduler.Get(id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toTemplateResponse(tmpl))
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	policy := services.DeletePolicy(r.URL.Query().Get("policy"))
	if policy == "" {
		policy = services.KeepGenerated
	}
	if !policy.Valid() {
		respondError(w, http.StatusBadRequest, "policy must be one of: keep, future, all")
		return
	}

	tmpl, removed, err := s.scheduler.Remove(r.Context(), id, policy, time.Now())
	if err != nil {
		slog.ErrorContext(r.Context(), "Delete template failed",
			"template_id", id, "policy", policy, "error", err)
		respondDomainError(w, err)
		return
	}

	if removed > 0 {
		s.overviewCache.Delete(tmpl.WalletName)
	}

	respondJSON(w, http.StatusOK, deleteTemplateResponse{ID: tmpl.ID, Removed: removed})
}

func (s *Server) handleSkipDate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req skipDateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	day, err := parseDay(req.Date)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		return
	}

	if err := s.scheduler.AddException(r.Context(), id, day); err != nil {
		respondDomainError(w, err)
		return
	}

	tmpl, err := s.scheduler.Get(id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toTemplateResponse(tmpl))
}

func (s *Server) handleSetActive(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req setActiveRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.scheduler.SetActive(r.Context(), id, req.Active); err != nil {
		respondDomainError(w, err)
		return
	}

	tmpl, err := s.scheduler.Get(id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toTemplateResponse(tmpl))
}

// handleProcess runs a materialization pass on demand, outside the
// periodic ticker.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	created, err := s.scheduler.ProcessDue(r.Context(), time.Now())
	if err != nil {
		slog.ErrorContext(r.Context(), "Manual process pass failed",
			"created", created, "error", err)
		respondError(w, http.StatusInternalServerError, "processing failed, see logs")
		return
	}
	if created > 0 {
		for _, t := range s.scheduler.List() {
			s.overviewCache.Delete(t.WalletName)
		}
	}
	respondJSON(w, http.StatusOK, processResponse{Created: created})
}
