package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"photobooth-kiosk/internal/models"
	"photobooth-kiosk/internal/session"
	"photobooth-kiosk/internal/store"
)

type GalleryHandler struct {
	machine     *session.Machine
	storeClient *store.Client
}

func NewGalleryHandler(machine *session.Machine, storeClient *store.Client) *GalleryHandler {
	return &GalleryHandler{machine: machine, storeClient: storeClient}
}

// OpenGallery moves the kiosk onto the gallery screen and returns the active
// event's items.
func (h *GalleryHandler) OpenGallery(c *gin.Context) {
	if err := h.machine.OpenGallery(c.Request.Context()); err != nil {
		respondMachineError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.GalleryResponse{Items: h.machine.GalleryItems()})
}

// GetItem serves a token-addressed fetch of any historical item, regardless
// of which event is active.
func (h *GalleryHandler) GetItem(c *gin.Context) {
	token := c.Param("token")
	item, err := h.storeClient.GetGalleryItem(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "item not found",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, item)
}
