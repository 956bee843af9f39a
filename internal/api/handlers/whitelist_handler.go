package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Wikid82/blackfeed/backend/internal/models"
	"github.com/Wikid82/blackfeed/backend/internal/services"
)

type WhitelistHandler struct {
	Service *services.WhitelistService
}

func NewWhitelistHandler(service *services.WhitelistService) *WhitelistHandler {
	return &WhitelistHandler{Service: service}
}

// List returns all allow-list entries.
func (h *WhitelistHandler) List(c *gin.Context) {
	entries, err := h.Service.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch whitelist"})
		return
	}
	c.JSON(http.StatusOK, entries)
}

type whitelistRequest struct {
	Value  string               `json:"value" binding:"required"`
	Kind   models.IndicatorKind `json:"kind"`
	Reason string               `json:"reason"`
}

// Create validates and stores a new allow-list entry.
func (h *WhitelistHandler) Create(c *gin.Context) {
	var req whitelistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry := models.WhitelistEntry{Value: req.Value, Kind: req.Kind, Reason: req.Reason}
	if err := h.Service.Create(&entry); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// Delete removes an entry by id.
func (h *WhitelistHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return
	}
	if err := h.Service.Delete(uint(id)); err != nil {
		if errors.Is(err, services.ErrWhitelistEntryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete entry"})
		return
	}
	c.Status(http.StatusNoContent)
}

// ListBlocks returns recent suppression records.
func (h *WhitelistHandler) ListBlocks(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	blocks, err := h.Service.ListBlocks(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch blocks"})
		return
	}
	c.JSON(http.StatusOK, blocks)
}
