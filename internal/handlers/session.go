package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"photobooth-kiosk/internal/models"
	"photobooth-kiosk/internal/session"
)

type SessionHandler struct {
	machine *session.Machine
}

func NewSessionHandler(machine *session.Machine) *SessionHandler {
	return &SessionHandler{machine: machine}
}

// GetSession returns the current screen and session view.
func (h *SessionHandler) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, sessionResponse(h.machine.Snapshot()))
}

// Start handles the landing screen's start button.
func (h *SessionHandler) Start(c *gin.Context) {
	if err := h.machine.Start(c.Request.Context()); err != nil {
		respondMachineError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse(h.machine.Snapshot()))
}

// SelectConcept moves the guest to the camera screen.
func (h *SessionHandler) SelectConcept(c *gin.Context) {
	var req models.SelectConceptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	if err := h.machine.SelectConcept(c.Request.Context(), req.ConceptID); err != nil {
		respondMachineError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse(h.machine.Snapshot()))
}

// Capture starts the countdown pipeline and returns immediately; the UI
// follows progress over the websocket.
func (h *SessionHandler) Capture(c *gin.Context) {
	if err := h.machine.Capture(); err != nil {
		respondMachineError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, sessionResponse(h.machine.Snapshot()))
}

// Cancel aborts a running countdown; the feed keeps running.
func (h *SessionHandler) Cancel(c *gin.Context) {
	h.machine.CancelCountdown()
	c.JSON(http.StatusOK, sessionResponse(h.machine.Snapshot()))
}

// Home discards the session and returns to the landing screen.
func (h *SessionHandler) Home(c *gin.Context) {
	h.machine.Home()
	c.JSON(http.StatusOK, sessionResponse(h.machine.Snapshot()))
}

// Touch re-arms the idle timer on explicit navigation.
func (h *SessionHandler) Touch(c *gin.Context) {
	h.machine.Touch()
	c.JSON(http.StatusOK, sessionResponse(h.machine.Snapshot()))
}

func sessionResponse(snap session.Snapshot) models.SessionResponse {
	resp := models.SessionResponse{
		State:           string(snap.State),
		SelectedConcept: snap.SelectedConcept,
		Result:          snap.Result,
		ErrorKind:       string(snap.ErrorKind),
		ErrorMessage:    snap.ErrorMessage,
		EventName:       snap.Settings.EventName,
	}
	if snap.State == session.StateThemes {
		resp.Concepts = snap.Concepts
	}
	return resp
}

func respondMachineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrInvalidTransition):
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Error:   "invalid transition",
			Message: err.Error(),
		})
	default:
		c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error:   "operation failed",
			Message: err.Error(),
		})
	}
}
