package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mereb-hub/finance-hub/internal/auth"
	"github.com/mereb-hub/finance-hub/internal/http/middleware"
	"github.com/mereb-hub/finance-hub/internal/model"
	"github.com/mereb-hub/finance-hub/internal/notify"
	"github.com/mereb-hub/finance-hub/internal/repository"
	"github.com/mereb-hub/finance-hub/internal/scheduler"
	"github.com/mereb-hub/finance-hub/internal/service"
)

type Handler struct {
	ledger    *service.LedgerService
	reports   *service.ReportService
	directory *service.DirectoryService
	tokens    *auth.Tokens
	registry  *scheduler.Registry
	sink      notify.Sink
	appCtx    context.Context
	log       zerolog.Logger
}

func NewHandler(
	ledger *service.LedgerService,
	reports *service.ReportService,
	directory *service.DirectoryService,
	tokens *auth.Tokens,
	registry *scheduler.Registry,
	sink notify.Sink,
	appCtx context.Context,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		ledger:    ledger,
		reports:   reports,
		directory: directory,
		tokens:    tokens,
		registry:  registry,
		sink:      sink,
		appCtx:    appCtx,
		log:       log,
	}
}

type loginRequest struct {
	Email string `json:"email" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.directory.Login(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, service.ErrPermissionDenied) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown or inactive account"})
			return
		}
		h.handleError(c, err)
		return
	}

	token, err := h.tokens.Sign(*user)
	if err != nil {
		h.handleError(c, err)
		return
	}

	// Session schedulers outlive the request; they run until logout.
	h.registry.StartSession(h.appCtx, *user)
	h.sink.RequestAuthorization(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  userResponse(*user),
	})
}

func (h *Handler) logout(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	h.registry.EndSession(principal.UserID)
	c.Status(http.StatusNoContent)
}

func (h *Handler) listProjects(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	projects, err := h.reports.ListProjects(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	out := make([]gin.H, 0, len(projects))
	for i := range projects {
		out = append(out, projectResponse(&projects[i]))
	}
	c.JSON(http.StatusOK, gin.H{"projects": out})
}

type createProjectRequest struct {
	Title           string `json:"title" binding:"required"`
	Description     string `json:"description"`
	DepartmentID    string `json:"department_id" binding:"required"`
	RequestedBudget int64  `json:"requested_budget" binding:"required"`
	Deadline        string `json:"deadline"`
}

func (h *Handler) createProject(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	departmentID, err := uuid.Parse(strings.TrimSpace(req.DepartmentID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid department_id"})
		return
	}

	input := service.CreateRequestInput{
		Title:           req.Title,
		Description:     req.Description,
		DepartmentID:    departmentID,
		RequestedBudget: req.RequestedBudget,
	}
	if req.Deadline != "" {
		deadline, err := parseDate(req.Deadline)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid deadline"})
			return
		}
		input.Deadline = &deadline
	}

	project, err := h.ledger.CreateRequest(c.Request.Context(), principal, input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, projectResponse(project))
}

type decisionRequest struct {
	Decision       string `json:"decision" binding:"required"`
	ApprovedBudget *int64 `json:"approved_budget"`
}

func (h *Handler) decideProject(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := h.ledger.Decide(c.Request.Context(), principal, projectID, service.DecideInput{
		Decision:       service.Decision(strings.ToUpper(strings.TrimSpace(req.Decision))),
		ApprovedBudget: req.ApprovedBudget,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, projectResponse(project))
}

type milestoneRequest struct {
	Description string          `json:"description"`
	Percentage  int             `json:"percentage"`
	Receipt     *receiptRequest `json:"receipt"`
}

type receiptRequest struct {
	FileName string `json:"file_name"`
	Amount   int64  `json:"amount" binding:"required"`
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
}

func (h *Handler) logMilestone(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	var req milestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := service.MilestoneInput{
		Description: req.Description,
		Percentage:  req.Percentage,
	}
	if req.Receipt != nil {
		input.Receipt = &service.ReceiptInput{
			FileName: req.Receipt.FileName,
			Amount:   req.Receipt.Amount,
			URL:      req.Receipt.URL,
			MimeType: req.Receipt.MimeType,
		}
	}

	project, err := h.ledger.LogMilestone(c.Request.Context(), principal, projectID, input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, projectResponse(project))
}

func (h *Handler) completeProject(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	project, err := h.ledger.Complete(c.Request.Context(), principal, projectID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, projectResponse(project))
}

func (h *Handler) listUsers(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	users, err := h.directory.ListUsers(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	out := make([]gin.H, 0, len(users))
	for _, user := range users {
		out = append(out, userResponse(user))
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}

type createUserRequest struct {
	Name         string `json:"name" binding:"required"`
	Email        string `json:"email" binding:"required"`
	Role         string `json:"role" binding:"required"`
	DepartmentID string `json:"department_id" binding:"required"`
}

func (h *Handler) createUser(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	departmentID, err := uuid.Parse(strings.TrimSpace(req.DepartmentID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid department_id"})
		return
	}

	user, err := h.directory.CreateUser(c.Request.Context(), principal, service.CreateUserInput{
		Name:         req.Name,
		Email:        req.Email,
		Role:         model.UserRole(strings.ToUpper(strings.TrimSpace(req.Role))),
		DepartmentID: departmentID,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, userResponse(*user))
}

type updateUserRequest struct {
	Name         *string `json:"name"`
	Role         *string `json:"role"`
	DepartmentID *string `json:"department_id"`
	Active       *bool   `json:"active"`
}

func (h *Handler) updateUser(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patch := repository.UserPatch{
		Name:   req.Name,
		Active: req.Active,
	}
	if req.Role != nil {
		role := model.UserRole(strings.ToUpper(strings.TrimSpace(*req.Role)))
		patch.Role = &role
	}
	if req.DepartmentID != nil {
		departmentID, err := uuid.Parse(strings.TrimSpace(*req.DepartmentID))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid department_id"})
			return
		}
		patch.DepartmentID = &departmentID
	}

	user, err := h.directory.UpdateUser(c.Request.Context(), principal, userID, patch)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, userResponse(*user))
}

func (h *Handler) listDepartments(c *gin.Context) {
	departments, err := h.directory.ListDepartments(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	out := make([]gin.H, 0, len(departments))
	for _, dept := range departments {
		out = append(out, departmentResponse(dept))
	}
	c.JSON(http.StatusOK, gin.H{"departments": out})
}

type upsertDepartmentRequest struct {
	ID        string `json:"id"`
	Name      string `json:"name" binding:"required"`
	BudgetCap int64  `json:"budget_cap"`
}

func (h *Handler) upsertDepartment(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req upsertDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dept := model.Department{Name: req.Name, BudgetCap: req.BudgetCap}
	if req.ID != "" {
		id, err := uuid.Parse(strings.TrimSpace(req.ID))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid department id"})
			return
		}
		dept.ID = id
	}

	saved, err := h.directory.UpsertDepartment(c.Request.Context(), principal, dept)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, departmentResponse(*saved))
}

func (h *Handler) reportSummary(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	summary, err := h.reports.Summary(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, summaryResponse(summary))
}

func (h *Handler) exportExcel(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	result, err := h.reports.ExportExcel(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	contentType := "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, contentType, result.Content)
}

func (h *Handler) exportPDF(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	result, err := h.reports.ExportPDF(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/pdf", result.Content)
}

func (h *Handler) dispatchStatus(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	entry, err := h.reports.DispatchStatus(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if entry == nil {
		c.JSON(http.StatusOK, gin.H{"status": "awaiting first successful cycle"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":        "last cycle succeeded",
		"dispatched_at": entry.Timestamp.Format(time.RFC3339),
		"recipient":     entry.Recipient,
	})
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrPolicyViolation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrDeliveryFailure):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, service.ErrInvalidInput
}

func userResponse(user model.User) gin.H {
	return gin.H{
		"id":            user.ID,
		"name":          user.Name,
		"email":         user.Email,
		"role":          user.Role,
		"department_id": user.DepartmentID,
		"active":        user.Active,
		"created_at":    user.CreatedAt,
	}
}

func departmentResponse(dept model.Department) gin.H {
	return gin.H{
		"id":         dept.ID,
		"name":       dept.Name,
		"budget_cap": dept.BudgetCap,
	}
}

func projectResponse(project *model.Project) gin.H {
	receipts := make([]gin.H, 0, len(project.Receipts))
	for _, receipt := range project.Receipts {
		receipts = append(receipts, gin.H{
			"id":          receipt.ID,
			"file_name":   receipt.FileName,
			"amount":      receipt.Amount,
			"url":         receipt.URL,
			"mime_type":   receipt.MimeType,
			"recorded_at": receipt.RecordedAt,
		})
	}

	updates := make([]gin.H, 0, len(project.ProgressUpdates))
	for _, update := range project.ProgressUpdates {
		updates = append(updates, gin.H{
			"id":          update.ID,
			"description": update.Description,
			"percentage":  update.Percentage,
			"receipt_id":  update.ReceiptID,
			"recorded_at": update.RecordedAt,
		})
	}

	return gin.H{
		"id":               project.ID,
		"title":            project.Title,
		"description":      project.Description,
		"user_id":          project.UserID,
		"department_id":    project.DepartmentID,
		"requested_budget": project.RequestedBudget,
		"approved_budget":  project.ApprovedBudget,
		"spent_budget":     project.SpentBudget,
		"status":           project.Status,
		"deadline":         project.Deadline,
		"created_at":       project.CreatedAt,
		"approved_at":      project.ApprovedAt,
		"completed_at":     project.CompletedAt,
		"receipts":         receipts,
		"progress_updates": updates,
	}
}

func summaryResponse(summary *model.BudgetSummary) gin.H {
	departments := make([]gin.H, 0, len(summary.Departments))
	for _, dept := range summary.Departments {
		departments = append(departments, gin.H{
			"id":              dept.ID,
			"name":            dept.Name,
			"approved_budget": dept.ApprovedBudget,
			"spent_budget":    dept.SpentBudget,
			"project_count":   dept.ProjectCount,
		})
	}
	return gin.H{
		"total_projects":      summary.TotalProjects,
		"active_projects":     summary.ActiveProjects,
		"total_approved":      summary.TotalApproved,
		"total_spent":         summary.TotalSpent,
		"utilization_percent": summary.UtilizationPercent(),
		"generated_at":        summary.GeneratedAt,
		"departments":         departments,
	}
}
