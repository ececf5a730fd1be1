package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GS-Pro2025/movewise/internal/domain/model"
	"github.com/GS-Pro2025/movewise/internal/server/http/dto"
	"github.com/GS-Pro2025/movewise/internal/usecase"
)

// FlowHandler exposes creation and edit flows.
type FlowHandler struct {
	facade FlowFacade
}

// NewFlowHandler constructs FlowHandler.
func NewFlowHandler(facade FlowFacade) *FlowHandler {
	return &FlowHandler{facade: facade}
}

func requireSession(c *gin.Context) (*model.Session, bool) {
	session := CurrentSession(c)
	if session == nil {
		c.Status(http.StatusUnauthorized)
		return nil, false
	}
	return session, true
}

func parseVariant(raw string) (model.Variant, bool) {
	if raw == "" {
		return "", true
	}
	v := model.Variant(raw)
	return v, v.IsValid()
}

func (h *FlowHandler) reply(c *gin.Context, status int, view model.FlowView, err error, n *usecase.Notices) {
	if err != nil {
		respondError(c, err, flowData(view), n)
		return
	}
	respond(c, status, toFlowResponse(view), n)
}

// Open handles POST /api/flows/orders.
func (h *FlowHandler) Open(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	var req dto.OpenFlowRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	variant, ok := parseVariant(req.Variant)
	if !ok {
		c.Status(http.StatusBadRequest)
		return
	}

	view, err := h.facade.OpenOrderFlow(c.Request.Context(), session, variant)
	h.reply(c, http.StatusCreated, view, err, nil)
}

// Get handles GET /api/flows/:id.
func (h *FlowHandler) Get(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	view, err := h.facade.Flow(c.Request.Context(), session, c.Param("id"))
	h.reply(c, http.StatusOK, view, err, nil)
}

// UpdateDraft handles PUT /api/flows/:id/draft and reports field problems
// of the merged draft without failing the request.
func (h *FlowHandler) UpdateDraft(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	var req dto.DraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	view, fields, err := h.facade.UpdateDraft(c.Request.Context(), session, c.Param("id"), toDraftPatch(req))
	if err != nil {
		respondError(c, err, flowData(view), nil)
		return
	}
	c.JSON(http.StatusOK, dto.Envelope{Data: toFlowResponse(view), Errors: fields})
}

// AttachTicket handles POST /api/flows/:id/dispatch-ticket.
func (h *FlowHandler) AttachTicket(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	var req dto.ImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	view, err := h.facade.AttachTicket(c.Request.Context(), session, c.Param("id"), *toImage(&req))
	h.reply(c, http.StatusOK, view, err, nil)
}

// SelectLocation handles POST /api/flows/:id/location.
func (h *FlowHandler) SelectLocation(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	var req dto.LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	level := model.LocationLevel(req.Level)
	if !level.IsValid() {
		c.Status(http.StatusBadRequest)
		return
	}
	view, err := h.facade.SelectLocation(c.Request.Context(), session, c.Param("id"), level, req.Value)
	h.reply(c, http.StatusOK, view, err, nil)
}

// Submit handles POST /api/flows/:id/submit.
func (h *FlowHandler) Submit(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	notices := &usecase.Notices{}
	view, err := h.facade.SubmitOrder(c.Request.Context(), session, c.Param("id"), notices)
	h.reply(c, http.StatusCreated, view, err, notices)
}

// Operators handles GET /api/flows/:id/operators.
func (h *FlowHandler) Operators(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	page := 1
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.Status(http.StatusBadRequest)
			return
		}
		page = n
	}

	result, err := h.facade.Operators(c.Request.Context(), session, c.Param("id"), page, c.Query("search"))
	if err != nil {
		respondError(c, err, nil, nil)
		return
	}
	respond(c, http.StatusOK, toOperatorPageResponse(result), nil)
}

// FindFreelancer handles GET /api/flows/:id/freelancers/:code.
func (h *FlowHandler) FindFreelancer(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	operator, err := h.facade.FindFreelancer(c.Request.Context(), session, c.Param("id"), c.Param("code"))
	if err != nil {
		respondError(c, err, nil, nil)
		return
	}
	respond(c, http.StatusOK, toOperatorResponse(*operator), nil)
}

// Toggle handles POST /api/flows/:id/selection.
func (h *FlowHandler) Toggle(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	var req dto.SelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	view, err := h.facade.ToggleOperator(c.Request.Context(), session, c.Param("id"), req.OperatorID)
	h.reply(c, http.StatusOK, view, err, nil)
}

// CreateMode handles POST /api/flows/:id/create-mode.
func (h *FlowHandler) CreateMode(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	var req dto.CreateModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	view := model.AssignmentViewMain
	if req.Enabled {
		view = model.AssignmentViewCreate
	}
	flow, err := h.facade.SetAssignmentView(c.Request.Context(), session, c.Param("id"), view)
	h.reply(c, http.StatusOK, flow, err, nil)
}

// Assign handles POST /api/flows/:id/assign.
func (h *FlowHandler) Assign(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	var req dto.AssignRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	notices := &usecase.Notices{}
	view, closed, err := h.facade.Assign(c.Request.Context(), session, c.Param("id"), req.AdditionalCosts, notices)
	if err != nil {
		respondError(c, err, flowData(view), notices)
		return
	}
	resp := toFlowResponse(view)
	resp.Closed = closed
	respond(c, http.StatusOK, resp, notices)
}

// CreateFreelancer handles POST /api/flows/:id/freelancers.
func (h *FlowHandler) CreateFreelancer(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	var req dto.FreelancerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	notices := &usecase.Notices{}
	view, operator, err := h.facade.CreateFreelancer(c.Request.Context(), session, c.Param("id"), toFreelancerForm(req), notices)
	if err != nil {
		respondError(c, err, flowData(view), notices)
		return
	}
	respond(c, http.StatusCreated, gin.H{"operator": toOperatorResponse(*operator), "flow": toFlowResponse(view)}, notices)
}

// Close handles POST /api/flows/:id/cancel and DELETE /api/flows/:id.
func (h *FlowHandler) Close(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	notices := &usecase.Notices{}
	if err := h.facade.CloseFlow(c.Request.Context(), session, c.Param("id"), notices); err != nil {
		respondError(c, err, nil, notices)
		return
	}
	respond(c, http.StatusOK, nil, notices)
}

// OpenEdit handles POST /api/orders/:key/edit.
func (h *FlowHandler) OpenEdit(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	var req dto.EditRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	variant, ok := parseVariant(req.Variant)
	if !ok {
		c.Status(http.StatusBadRequest)
		return
	}
	view, err := h.facade.OpenEditFlow(c.Request.Context(), session, c.Param("key"), variant)
	h.reply(c, http.StatusCreated, view, err, nil)
}

// SaveEdit handles PATCH /api/flows/:id/edit.
func (h *FlowHandler) SaveEdit(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	notices := &usecase.Notices{}
	view, err := h.facade.SaveEdit(c.Request.Context(), session, c.Param("id"), notices)
	h.reply(c, http.StatusOK, view, err, notices)
}
