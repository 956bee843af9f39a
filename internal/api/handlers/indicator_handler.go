package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Wikid82/blackfeed/backend/internal/models"
	"github.com/Wikid82/blackfeed/backend/internal/services"
)

type IndicatorHandler struct {
	Service *services.IndicatorService
}

func NewIndicatorHandler(service *services.IndicatorService) *IndicatorHandler {
	return &IndicatorHandler{Service: service}
}

// List returns indicators, optionally filtered by kind and active state.
func (h *IndicatorHandler) List(c *gin.Context) {
	kind := models.IndicatorKind(c.Query("kind"))
	activeOnly := c.Query("active") == "true"
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "500"))

	indicators, err := h.Service.List(kind, activeOnly, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch indicators"})
		return
	}
	c.JSON(http.StatusOK, indicators)
}

type createIndicatorRequest struct {
	Value string `json:"value" binding:"required"`
}

// Create submits a single raw value through classification, duplicate
// rejection and the whitelist check.
func (h *IndicatorHandler) Create(c *gin.Context) {
	var req createIndicatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	indicator, err := h.Service.CreateManual(req.Value, nil)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDuplicateIndicator):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrIndicatorWhitelisted):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			// Classification rejections carry an actionable message.
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusCreated, indicator)
}

type tempActivateRequest struct {
	Until time.Time `json:"until" binding:"required"`
}

// TempActivate marks an indicator active until the given expiry.
func (h *IndicatorHandler) TempActivate(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid indicator id"})
		return
	}

	var req tempActivateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Until.After(time.Now()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expiry must be in the future"})
		return
	}

	if err := h.Service.ActivateTemporarily(uint(id), req.Until); err != nil {
		if errors.Is(err, services.ErrIndicatorNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "indicator not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to activate indicator"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Deactivate clears the active flag.
func (h *IndicatorHandler) Deactivate(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid indicator id"})
		return
	}
	if err := h.Service.Deactivate(uint(id)); err != nil {
		if errors.Is(err, services.ErrIndicatorNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "indicator not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to deactivate indicator"})
		return
	}
	c.Status(http.StatusNoContent)
}
