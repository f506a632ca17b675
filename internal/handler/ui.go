package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"propalyst/internal/model"
	"propalyst/internal/uigen"
)

// UIHandler serves one-shot UI component generation.
type UIHandler struct {
	extractor *uigen.Extractor
	log       *zap.Logger
}

func NewUIHandler(extractor *uigen.Extractor, log *zap.Logger) *UIHandler {
	return &UIHandler{extractor: extractor, log: log}
}

// Generate handles POST /api/generate-ui.
func (h *UIHandler) Generate(c *gin.Context) {
	var req model.GenerateUIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.GenerateUIResponse{
			Message: "Invalid request: " + err.Error(),
		})
		return
	}

	component, err := h.extractor.Extract(c.Request.Context(), req.UserInput)
	if err != nil {
		h.log.Error("component extraction failed", zap.Error(err))
		c.JSON(http.StatusOK, model.GenerateUIResponse{
			Message: "Sorry, I couldn't generate that component. " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, model.GenerateUIResponse{
		Component: component,
		Message:   fmt.Sprintf("Here's a %s component", component.Type),
		Success:   true,
	})
}

// Components handles GET /api/components.
func (h *UIHandler) Components(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"components": uigen.Schemas(),
	})
}
