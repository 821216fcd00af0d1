// Package http exposes the admin-flow entry points of the lifecycle engine:
// creating and scheduling a campaign, previewing it, forcing an end and
// drawing additional winners. Enrollment and end-user surfaces live in the
// mini-app backend, not here.
package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"giveaway-engine/internal/common/logger"
	"giveaway-engine/internal/features/giveaway/models"
	"giveaway-engine/internal/features/giveaway/service"
)

type Handler struct {
	svc *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(group *gin.RouterGroup) {
	giveaways := group.Group("/giveaways")
	{
		giveaways.POST("", h.create)
		giveaways.GET("/:id", h.getByID)
		giveaways.POST("/:id/publish-test", h.publishTest)
		giveaways.POST("/:id/end", h.forceEnd)
		giveaways.POST("/:id/winners", h.addWinners)
	}
	group.POST("/channels", h.registerChannel)
}

func (h *Handler) create(c *gin.Context) {
	var input service.GiveawayCreate
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	giveaway, err := h.svc.Create(c.Request.Context(), &input)
	if errors.Is(err, models.ErrInvalidWinnersCount) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		logger.Error().Err(err).Msg("failed to create giveaway")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create giveaway"})
		return
	}
	c.JSON(http.StatusCreated, giveaway)
}

func (h *Handler) getByID(c *gin.Context) {
	giveaway, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, service.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "giveaway not found"})
		return
	}
	if err != nil {
		logger.Error().Err(err).Str("giveaway_id", c.Param("id")).Msg("failed to load giveaway")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load giveaway"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"giveaway":     giveaway,
		"message_link": h.svc.MessageLink(c.Request.Context(), giveaway),
	})
}

func (h *Handler) registerChannel(c *gin.Context) {
	var input struct {
		ID          int64   `json:"id" binding:"required"`
		ChannelName string  `json:"channel_name" binding:"required"`
		Admin       int64   `json:"admin" binding:"required"`
		Link        *string `json:"link"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	channel := &models.Channel{
		ID:          input.ID,
		ChannelName: input.ChannelName,
		Admin:       input.Admin,
		Link:        input.Link,
	}
	if err := h.svc.RegisterChannel(c.Request.Context(), channel); err != nil {
		logger.Error().Err(err).Int64("channel_id", input.ID).Msg("failed to save channel")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save channel"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) publishTest(c *gin.Context) {
	err := h.svc.TestPublish(c.Request.Context(), c.Param("id"))
	if errors.Is(err, service.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "giveaway not found"})
		return
	}
	if err != nil {
		logger.Error().Err(err).Str("giveaway_id", c.Param("id")).Msg("test publish failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "test publish failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) forceEnd(c *gin.Context) {
	err := h.svc.ForceEnd(c.Request.Context(), c.Param("id"))
	if errors.Is(err, service.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "giveaway not found"})
		return
	}
	if err != nil {
		logger.Error().Err(err).Str("giveaway_id", c.Param("id")).Msg("force end failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "force end failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) addWinners(c *gin.Context) {
	var input struct {
		Count int `json:"count" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.svc.AddWinnersByID(c.Request.Context(), c.Param("id"), input.Count)
	if errors.Is(err, models.ErrInvalidWinnersCount) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if errors.Is(err, service.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "giveaway not found"})
		return
	}
	if err != nil {
		logger.Error().Err(err).Str("giveaway_id", c.Param("id")).Msg("add winners failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "add winners failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}
