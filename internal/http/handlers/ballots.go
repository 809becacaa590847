package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sparhub/backend/internal/models"
	"github.com/sparhub/backend/internal/service"
)

func (h *Handler) BallotSubmit(c *gin.Context) {
	var sheet models.Scoresheet
	if err := c.ShouldBindJSON(&sheet); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "malformed scoresheet", err.Error())
		return
	}
	ballot, err := service.SubmitBallot(c.Request.Context(), h.Store, c.Param("key"), sheet)
	if err != nil {
		var be *service.BallotError
		if !errors.As(err, &be) &&
			!errors.Is(err, service.ErrLinkNotFound) &&
			!errors.Is(err, service.ErrLinkExpired) &&
			!errors.Is(err, service.ErrAlreadySubmitted) {
			h.Logger.Error().Err(err).Msg("ballot submit failed")
		}
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"submitted_at": ballot.CreatedAt})
}
