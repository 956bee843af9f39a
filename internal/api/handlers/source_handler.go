package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Wikid82/blackfeed/backend/internal/models"
	"github.com/Wikid82/blackfeed/backend/internal/services"
)

type SourceHandler struct {
	DB     *gorm.DB
	Ingest *services.IngestService
}

func NewSourceHandler(db *gorm.DB, ingest *services.IngestService) *SourceHandler {
	return &SourceHandler{DB: db, Ingest: ingest}
}

// List returns all configured data sources.
func (h *SourceHandler) List(c *gin.Context) {
	var sources []models.DataSource
	if err := h.DB.Order("id asc").Find(&sources).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch sources"})
		return
	}
	c.JSON(http.StatusOK, sources)
}

type sourceRequest struct {
	Name                 string `json:"name" binding:"required"`
	URL                  string `json:"url" binding:"required,url"`
	Kinds                string `json:"kinds" binding:"required"`
	FetchIntervalSeconds int    `json:"fetch_interval_seconds"`
	Active               bool   `json:"active"`
	Paused               bool   `json:"paused"`
}

// Create stores a new data source.
func (h *SourceHandler) Create(c *gin.Context) {
	var req sourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	source := models.DataSource{
		Name:                 req.Name,
		URL:                  req.URL,
		Kinds:                req.Kinds,
		FetchIntervalSeconds: req.FetchIntervalSeconds,
		Active:               req.Active,
		Paused:               req.Paused,
	}
	if source.FetchIntervalSeconds <= 0 {
		source.FetchIntervalSeconds = 3600
	}
	if len(source.KindList()) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kinds must name at least one of ip, domain, hash, url"})
		return
	}
	if err := h.DB.Create(&source).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create source"})
		return
	}
	c.JSON(http.StatusCreated, source)
}

// Update edits an existing source.
func (h *SourceHandler) Update(c *gin.Context) {
	source, ok := h.find(c)
	if !ok {
		return
	}

	var req sourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	source.Name = req.Name
	source.URL = req.URL
	source.Kinds = req.Kinds
	source.Active = req.Active
	source.Paused = req.Paused
	if req.FetchIntervalSeconds > 0 {
		source.FetchIntervalSeconds = req.FetchIntervalSeconds
	}
	if len(source.KindList()) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kinds must name at least one of ip, domain, hash, url"})
		return
	}
	if err := h.DB.Save(source).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update source"})
		return
	}
	c.JSON(http.StatusOK, source)
}

// Delete removes a source. Its indicators keep their origin label but lose
// the back-reference.
func (h *SourceHandler) Delete(c *gin.Context) {
	source, ok := h.find(c)
	if !ok {
		return
	}
	if err := h.DB.Model(&models.Indicator{}).
		Where("data_source_id = ?", source.ID).
		Update("data_source_id", nil).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to detach indicators"})
		return
	}
	if err := h.DB.Delete(source).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete source"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Trigger dispatches an immediate ingestion for the source without waiting
// for it. If one is already in flight this is a silent no-op.
func (h *SourceHandler) Trigger(c *gin.Context) {
	source, ok := h.find(c)
	if !ok {
		return
	}
	go h.Ingest.Ingest(context.Background(), source)
	c.JSON(http.StatusAccepted, gin.H{"status": "ingestion dispatched"})
}

func (h *SourceHandler) find(c *gin.Context) (*models.DataSource, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid source id"})
		return nil, false
	}
	var source models.DataSource
	if err := h.DB.First(&source, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "source not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch source"})
		}
		return nil, false
	}
	return &source, true
}
