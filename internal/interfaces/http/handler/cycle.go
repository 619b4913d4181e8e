package handler

import (
	meteringapp "github.com/dormbill/backend/internal/application/metering"
	"github.com/gin-gonic/gin"
)

// CycleHandler handles meter cycle endpoints
type CycleHandler struct {
	BaseHandler
	cycleService *meteringapp.CycleService
}

// NewCycleHandler creates a new CycleHandler
func NewCycleHandler(cycleService *meteringapp.CycleService) *CycleHandler {
	return &CycleHandler{cycleService: cycleService}
}

// Create godoc
// @ID           createMeterCycle
// @Summary      Record a meter cycle
// @Description  Captures the water and electricity registers of each room for one cycle date. Utility rates are copied onto every reading.
// @Tags         meter-cycles
// @Accept       json
// @Produce      json
// @Param        property_id path     string                   true "Property ID" format(uuid)
// @Param        request     body     meteringapp.CycleRequest true "Cycle readings"
// @Success      201 {object} APIResponse[meteringapp.CycleResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse "DUPLICATE_CYCLE"
// @Security     BearerAuth
// @Router       /properties/{property_id}/meter-cycles [post]
func (h *CycleHandler) Create(c *gin.Context) {
	propertyID, ok := h.propertyID(c)
	if !ok {
		return
	}
	var req meteringapp.CycleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	cycle, err := h.cycleService.Create(c.Request.Context(), propertyID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, cycle)
}

// List godoc
// @ID           listMeterCycles
// @Summary      List meter cycles
// @Description  Cycle headers of the property, newest first
// @Tags         meter-cycles
// @Produce      json
// @Param        property_id path string true "Property ID" format(uuid)
// @Success      200 {object} APIResponse[[]meteringapp.CycleListItemResponse]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /properties/{property_id}/meter-cycles [get]
func (h *CycleHandler) List(c *gin.Context) {
	propertyID, ok := h.propertyID(c)
	if !ok {
		return
	}
	cycles, err := h.cycleService.List(c.Request.Context(), propertyID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cycles)
}

// Get godoc
// @ID           getMeterCycle
// @Summary      Get a meter cycle
// @Tags         meter-cycles
// @Produce      json
// @Param        property_id path string true "Property ID" format(uuid)
// @Param        cycle_id    path string true "Cycle ID"    format(uuid)
// @Success      200 {object} APIResponse[meteringapp.CycleResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /properties/{property_id}/meter-cycles/{cycle_id} [get]
func (h *CycleHandler) Get(c *gin.Context) {
	propertyID, ok := h.propertyID(c)
	if !ok {
		return
	}
	cycleID, ok := h.uuidParam(c, "cycle_id")
	if !ok {
		return
	}
	cycle, err := h.cycleService.Get(c.Request.Context(), propertyID, cycleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cycle)
}

// Replace godoc
// @ID           replaceMeterCycle
// @Summary      Replace a meter cycle
// @Description  Replaces the cycle date and every reading. Invoices already generated from the cycle keep their amounts.
// @Tags         meter-cycles
// @Accept       json
// @Produce      json
// @Param        property_id path string                   true "Property ID" format(uuid)
// @Param        cycle_id    path string                   true "Cycle ID"    format(uuid)
// @Param        request     body meteringapp.CycleRequest true "Cycle readings"
// @Success      200 {object} APIResponse[meteringapp.CycleResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse "DUPLICATE_CYCLE"
// @Security     BearerAuth
// @Router       /properties/{property_id}/meter-cycles/{cycle_id} [put]
func (h *CycleHandler) Replace(c *gin.Context) {
	propertyID, ok := h.propertyID(c)
	if !ok {
		return
	}
	cycleID, ok := h.uuidParam(c, "cycle_id")
	if !ok {
		return
	}
	var req meteringapp.CycleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	cycle, err := h.cycleService.Replace(c.Request.Context(), propertyID, cycleID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cycle)
}

// Delete godoc
// @ID           deleteMeterCycle
// @Summary      Delete a meter cycle
// @Tags         meter-cycles
// @Param        property_id path string true "Property ID" format(uuid)
// @Param        cycle_id    path string true "Cycle ID"    format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /properties/{property_id}/meter-cycles/{cycle_id} [delete]
func (h *CycleHandler) Delete(c *gin.Context) {
	propertyID, ok := h.propertyID(c)
	if !ok {
		return
	}
	cycleID, ok := h.uuidParam(c, "cycle_id")
	if !ok {
		return
	}
	if err := h.cycleService.Delete(c.Request.Context(), propertyID, cycleID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Candidates godoc
// @ID           getMeterCycleCandidates
// @Summary      Billing candidates of a cycle
// @Description  Occupied rooms of the cycle with their projected charges, flagged when an invoice already exists
// @Tags         meter-cycles
// @Produce      json
// @Param        property_id path string true "Property ID" format(uuid)
// @Param        cycle_id    path string true "Cycle ID"    format(uuid)
// @Success      200 {object} APIResponse[[]meteringapp.RoomBillingCandidate]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /properties/{property_id}/meter-cycles/{cycle_id}/candidates [get]
func (h *CycleHandler) Candidates(c *gin.Context) {
	propertyID, ok := h.propertyID(c)
	if !ok {
		return
	}
	cycleID, ok := h.uuidParam(c, "cycle_id")
	if !ok {
		return
	}
	candidates, err := h.cycleService.Candidates(c.Request.Context(), propertyID, cycleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, candidates)
}
