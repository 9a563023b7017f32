package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"photobooth-kiosk/internal/middleware"
	"photobooth-kiosk/internal/models"
	"photobooth-kiosk/internal/session"
	"photobooth-kiosk/internal/store"
)

const adminTokenTTL = 30 * time.Minute

type AdminHandler struct {
	machine     *session.Machine
	storeClient *store.Client
	jwtSecret   string
}

func NewAdminHandler(machine *session.Machine, storeClient *store.Client, jwtSecret string) *AdminHandler {
	return &AdminHandler{
		machine:     machine,
		storeClient: storeClient,
		jwtSecret:   jwtSecret,
	}
}

// Open moves the kiosk onto the admin screen, unauthenticated.
func (h *AdminHandler) Open(c *gin.Context) {
	if err := h.machine.OpenAdmin(); err != nil {
		respondMachineError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse(h.machine.Snapshot()))
}

// Login checks the PIN against the kiosk settings and, on success, issues a
// short-lived token for the admin endpoints. A wrong PIN leaves the admin
// screen unauthenticated.
func (h *AdminHandler) Login(c *gin.Context) {
	var req models.AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	ok, err := h.machine.AdminAuthenticate(req.Pin)
	if err != nil {
		respondMachineError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "incorrect pin"})
		return
	}

	token, expiresAt, err := middleware.IssueAdminToken(h.jwtSecret, adminTokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to issue token",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.AdminLoginResponse{Token: token, ExpiresAt: expiresAt})
}

// SaveSettings forwards the edit to the remote store, which validates the
// PIN. On success the in-memory settings are updated so the change takes
// effect for the next guest.
func (h *AdminHandler) SaveSettings(c *gin.Context) {
	var req models.SaveSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	if err := h.storeClient.SaveSettings(c.Request.Context(), req.Settings, req.Pin); err != nil {
		respondStoreError(c, err)
		return
	}

	h.machine.SetSettings(req.Settings)
	c.Status(http.StatusNoContent)
}

func (h *AdminHandler) SaveConcepts(c *gin.Context) {
	var req models.SaveConceptsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	if err := h.storeClient.SaveConcepts(c.Request.Context(), req.Concepts, req.Pin); err != nil {
		respondStoreError(c, err)
		return
	}

	h.machine.SetConcepts(req.Concepts)
	c.Status(http.StatusNoContent)
}

// ListEvents returns the events hosted on this kiosk so the admin screen can
// switch the active one.
func (h *AdminHandler) ListEvents(c *gin.Context) {
	events, err := h.storeClient.LoadEvents(c.Request.Context())
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

// UploadOverlay forwards the overlay image to the remote store and returns
// the hosted URL.
func (h *AdminHandler) UploadOverlay(c *gin.Context) {
	pin := c.PostForm("pin")
	if pin == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "pin is required"})
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "image file is required",
			Message: err.Error(),
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to open uploaded file",
			Message: err.Error(),
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to read uploaded file",
			Message: err.Error(),
		})
		return
	}

	url, err := h.storeClient.UploadOverlay(c.Request.Context(), data, pin)
	if err != nil {
		respondStoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.UploadOverlayResponse{URL: url})
}

// respondStoreError keeps admin edits client-side on failure: the handler
// reports the error and mutates nothing, so the admin can retry without
// re-entering data.
func respondStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "pin rejected by store",
			Message: err.Error(),
		})
	case errors.Is(err, store.ErrStoreUnreachable):
		c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error:   "store unreachable",
			Message: err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "store request failed",
			Message: err.Error(),
		})
	}
}
