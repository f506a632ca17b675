package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"propalyst/internal/model"
	"propalyst/internal/shortlist"
)

// ShortlistHandler serves shortlist CRUD endpoints.
type ShortlistHandler struct {
	service *shortlist.Service
	log     *zap.Logger
}

func NewShortlistHandler(service *shortlist.Service, log *zap.Logger) *ShortlistHandler {
	return &ShortlistHandler{service: service, log: log}
}

// Create handles POST /api/shortlist.
func (h *ShortlistHandler) Create(c *gin.Context) {
	var req model.CreateShortlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ShortlistResponse{
			Message: "Invalid request: " + err.Error(),
		})
		return
	}

	item, err := h.service.Create(c.Request.Context(), req.Description, req.Source, req.Properties)
	if err != nil {
		h.log.Error("shortlist create failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.ShortlistResponse{
			Message: "Failed to create shortlist",
		})
		return
	}

	c.JSON(http.StatusOK, model.ShortlistResponse{
		Success: true,
		Data:    item,
		Message: fmt.Sprintf("Shortlist created with %d properties", len(item.Properties)),
	})
}

// List handles GET /api/shortlist.
func (h *ShortlistHandler) List(c *gin.Context) {
	items, err := h.service.All(c.Request.Context())
	if err != nil {
		h.log.Error("shortlist list failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.ShortlistResponse{
			Message: "Failed to load shortlists",
		})
		return
	}

	c.JSON(http.StatusOK, model.ShortlistResponse{
		Success: true,
		Data:    items,
	})
}

// Get handles GET /api/shortlist/:id.
func (h *ShortlistHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, shortlist.ErrNotFound) {
			c.JSON(http.StatusNotFound, model.ShortlistResponse{
				Message: "Shortlist not found",
			})
			return
		}
		h.log.Error("shortlist get failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.ShortlistResponse{
			Message: "Failed to load shortlist",
		})
		return
	}

	c.JSON(http.StatusOK, model.ShortlistResponse{
		Success: true,
		Data:    item,
	})
}

// Delete handles DELETE /api/shortlist/:id.
func (h *ShortlistHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, shortlist.ErrNotFound) {
			c.JSON(http.StatusNotFound, model.ShortlistResponse{
				Message: "Shortlist not found",
			})
			return
		}
		h.log.Error("shortlist delete failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.ShortlistResponse{
			Message: "Failed to delete shortlist",
		})
		return
	}

	c.JSON(http.StatusOK, model.ShortlistResponse{
		Success: true,
		Message: "Shortlist deleted",
	})
}
