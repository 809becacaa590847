package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sparhub/backend/internal/db"
	"github.com/sparhub/backend/internal/models"
)

type createSeriesRequest struct {
	Title string `json:"title" binding:"required,min=1,max=200"`
}

func (h *Handler) SeriesCreate(c *gin.Context) {
	var req createSeriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "title is required", err.Error())
		return
	}
	series, err := h.Store.CreateSeries(c.Request.Context(), req.Title)
	if err != nil {
		h.Logger.Error().Err(err).Msg("series create failed")
		writeError(c, http.StatusInternalServerError, "INTERNAL", "Internal error", nil)
		return
	}
	c.JSON(http.StatusCreated, series)
}

func (h *Handler) SeriesGet(c *gin.Context) {
	series, ok := h.getSeries(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, series)
}

type createMemberRequest struct {
	Name  string `json:"name" binding:"required,min=1,max=200"`
	Email string `json:"email" binding:"required,email"`
}

func (h *Handler) MemberCreate(c *gin.Context) {
	series, ok := h.getSeries(c)
	if !ok {
		return
	}
	var req createMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "name and a valid email are required", err.Error())
		return
	}
	member, err := h.Store.CreateMember(c.Request.Context(), series.ID, req.Name, req.Email)
	if err != nil {
		if db.IsUniqueViolation(err) {
			writeError(c, http.StatusConflict, "DUPLICATE_EMAIL", "A member with this email already exists", nil)
			return
		}
		h.Logger.Error().Err(err).Msg("member create failed")
		writeError(c, http.StatusInternalServerError, "INTERNAL", "Internal error", nil)
		return
	}
	c.JSON(http.StatusCreated, member)
}

func (h *Handler) MembersList(c *gin.Context) {
	series, ok := h.getSeries(c)
	if !ok {
		return
	}
	members, err := h.Store.ListMembers(c.Request.Context(), series.ID)
	if err != nil {
		h.Logger.Error().Err(err).Msg("members list failed")
		writeError(c, http.StatusInternalServerError, "INTERNAL", "Internal error", nil)
		return
	}
	if members == nil {
		members = []models.Member{}
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}
