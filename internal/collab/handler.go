package collab

import (
	"net/http"

	"collab-editor/internal/domain"
	apperrors "collab-editor/internal/errors"
	"collab-editor/internal/suggest"
	"collab-editor/internal/utils"

	"github.com/gin-gonic/gin"
)

// Handler exposes the document/history/suggestion surface over HTTP,
// alongside the websocket gateway.
type Handler struct {
	service     *Service
	suggestions *suggest.Engine
}

func NewHandler(service *Service, suggestions *suggest.Engine) *Handler {
	return &Handler{service: service, suggestions: suggestions}
}

func (h *Handler) ShowDocument(c *gin.Context) {
	doc := h.service.GetDocument(c.Request.Context(), c.Param("id"))

	c.JSON(http.StatusOK, gin.H{
		"id":            doc.ID,
		"path":          doc.Path,
		"content":       doc.Content,
		"version":       doc.Version,
		"lastModified":  doc.LastModified,
		"activeEditors": doc.EditorIDs(),
	})
}

func (h *Handler) ShowHistory(c *gin.Context) {
	limit := utils.GetLimitParam(c, 20, 100)
	entries := h.service.GetVersionHistory(c.Param("id"), limit)

	c.JSON(http.StatusOK, gin.H{"data": entries})
}

type RevertRequest struct {
	Version uint64 `json:"version" binding:"required"`
}

func (h *Handler) Revert(c *gin.Context) {
	var req RevertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewValidationError(err))
		return
	}

	doc, err := h.service.RevertToVersion(c.Request.Context(), c.Param("id"), req.Version)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

type SuggestionQuery struct {
	Line   int `form:"line"`
	Column int `form:"column"`
}

func (h *Handler) ListSuggestions(c *gin.Context) {
	var query SuggestionQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.Error(apperrors.NewValidationError(err))
		return
	}

	ctx := c.Request.Context()
	doc := h.service.GetDocument(ctx, c.Param("id"))
	cursor := domain.Position{Line: query.Line, Column: query.Column}
	suggestions := h.suggestions.Generate(ctx, doc, cursor, nil)

	c.JSON(http.StatusOK, gin.H{"data": suggestions})
}

func (h *Handler) ApplySuggestion(c *gin.Context) {
	documentID := c.Param("id")

	suggestion, err := h.suggestions.Take(documentID, c.Param("suggestionId"))
	if err != nil {
		c.Error(err)
		return
	}

	doc, err := h.service.ApplySuggestion(c.Request.Context(), documentID, suggestion)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, doc)
}
