package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sparhub/backend/internal/models"
)

func (h *Handler) SparCreate(c *gin.Context) {
	series, ok := h.getSeries(c)
	if !ok {
		return
	}
	spar, err := h.Store.CreateSpar(c.Request.Context(), series.ID)
	if err != nil {
		h.Logger.Error().Err(err).Msg("spar create failed")
		writeError(c, http.StatusInternalServerError, "INTERNAL", "Internal error", nil)
		return
	}
	c.JSON(http.StatusCreated, spar)
}

func (h *Handler) SparsList(c *gin.Context) {
	series, ok := h.getSeries(c)
	if !ok {
		return
	}
	spars, err := h.Store.ListSpars(c.Request.Context(), series.ID)
	if err != nil {
		h.Logger.Error().Err(err).Msg("spars list failed")
		writeError(c, http.StatusInternalServerError, "INTERNAL", "Internal error", nil)
		return
	}
	if spars == nil {
		spars = []models.Spar{}
	}
	c.JSON(http.StatusOK, gin.H{"spars": spars})
}

func (h *Handler) SparGet(c *gin.Context) {
	spar, ok := h.getSpar(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, spar)
}

type setOpenRequest struct {
	Open *bool `json:"open" binding:"required"`
}

func (h *Handler) SparSetOpen(c *gin.Context) {
	spar, ok := h.getSpar(c)
	if !ok {
		return
	}
	var req setOpenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "open is required", err.Error())
		return
	}
	if err := h.Store.SetSparOpen(c.Request.Context(), spar.ID, *req.Open); err != nil {
		h.Logger.Error().Err(err).Msg("spar open toggle failed")
		writeError(c, http.StatusInternalServerError, "INTERNAL", "Internal error", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"open": *req.Open})
}

func (h *Handler) SparReleaseDraw(c *gin.Context) {
	spar, ok := h.getSpar(c)
	if !ok {
		return
	}
	if err := h.Store.SetReleaseDraw(c.Request.Context(), spar.ID, true); err != nil {
		h.Logger.Error().Err(err).Msg("draw release failed")
		writeError(c, http.StatusInternalServerError, "INTERNAL", "Internal error", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"released": true})
}

type signupRequest struct {
	MemberID          int64  `json:"member_id" binding:"required"`
	AsJudge           bool   `json:"as_judge"`
	AsSpeaker         bool   `json:"as_speaker"`
	PartnerPreference *int64 `json:"partner_preference"`
}

func (h *Handler) SignupUpsert(c *gin.Context) {
	spar, ok := h.getSpar(c)
	if !ok {
		return
	}
	if !spar.IsOpen {
		writeError(c, http.StatusConflict, "SIGNUPS_CLOSED", "Signups for this spar are closed", nil)
		return
	}
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "member_id is required", err.Error())
		return
	}
	if !req.AsJudge && !req.AsSpeaker {
		writeError(c, http.StatusUnprocessableEntity, "USELESS_SIGNUP", "Sign up to speak, judge, or both", nil)
		return
	}
	if req.PartnerPreference != nil && !req.AsSpeaker {
		writeError(c, http.StatusUnprocessableEntity, "INVALID_PARTNER", "Only speakers can name a partner", nil)
		return
	}
	if req.PartnerPreference != nil && *req.PartnerPreference == req.MemberID {
		writeError(c, http.StatusUnprocessableEntity, "INVALID_PARTNER", "You cannot partner with yourself", nil)
		return
	}
	if _, err := h.Store.GetMember(c.Request.Context(), spar.SeriesID, req.MemberID); err != nil {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Member not found in this series", nil)
		return
	}

	signup, err := h.Store.UpsertSignup(c.Request.Context(), models.Signup{
		SparID:            spar.ID,
		MemberID:          req.MemberID,
		AsJudge:           req.AsJudge,
		AsSpeaker:         req.AsSpeaker,
		PartnerPreference: req.PartnerPreference,
	})
	if err != nil {
		h.Logger.Error().Err(err).Msg("signup upsert failed")
		writeError(c, http.StatusInternalServerError, "INTERNAL", "Internal error", nil)
		return
	}
	c.JSON(http.StatusOK, signup)
}

func (h *Handler) SignupsList(c *gin.Context) {
	spar, ok := h.getSpar(c)
	if !ok {
		return
	}
	signups, err := h.Store.ListSignups(c.Request.Context(), spar.ID)
	if err != nil {
		h.Logger.Error().Err(err).Msg("signups list failed")
		writeError(c, http.StatusInternalServerError, "INTERNAL", "Internal error", nil)
		return
	}
	if signups == nil {
		signups = []models.Signup{}
	}
	c.JSON(http.StatusOK, gin.H{"signups": signups})
}
