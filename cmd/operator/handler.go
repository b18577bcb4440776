package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type DeliveryStatus string

const (
	StatusDelivered DeliveryStatus = "DELIVERED"
	StatusFailed    DeliveryStatus = "FAILED"
)

type SendSMSRequest struct {
	MessageID   string `json:"message_id" binding:"required"`
	PhoneNumber string `json:"phone_number" binding:"required"`
	Content     string `json:"content" binding:"required"`
	SenderID    string `json:"sender_id"`
}

type SendSMSResponse struct {
	MessageID   string         `json:"message_id"`
	Status      DeliveryStatus `json:"status"`
	DeliveredAt *time.Time     `json:"delivered_at,omitempty"`
	ErrorCode   string         `json:"error_code,omitempty"`
	ErrorMsg    string         `json:"error_message,omitempty"`
	OperatorID  string         `json:"operator_id"`
	ProcessedAt time.Time      `json:"processed_at"`
}

type HealthResponse struct {
	Status       string    `json:"status"`
	OperatorID   string    `json:"operator_id"`
	Timestamp    time.Time `json:"timestamp"`
	DeliveryRate float64   `json:"delivery_rate"`
}

// whatsappRequest mirrors the Cloud API text message body.
type whatsappRequest struct {
	MessagingProduct string `json:"messaging_product" binding:"required"`
	To               string `json:"to" binding:"required"`
	Type             string `json:"type" binding:"required"`
	Text             struct {
		Body string `json:"body"`
	} `json:"text"`
}

type whatsappError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

type Handler struct {
	sandbox *Sandbox
	token   string
}

func NewHandler(sandbox *Sandbox, whatsappToken string) *Handler {
	return &Handler{sandbox: sandbox, token: whatsappToken}
}

func (h *Handler) SendSMS(c *gin.Context) {
	var req SendSMSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	if len([]rune(req.Content)) > 160 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content exceeds 160 characters"})
		return
	}

	time.Sleep(h.sandbox.randomDelay())

	resp := SendSMSResponse{
		MessageID:   req.MessageID,
		OperatorID:  h.sandbox.operatorID,
		ProcessedAt: time.Now(),
	}
	sent := SentMessage{ID: req.MessageID, Channel: "sms", To: req.PhoneNumber, Body: req.Content, ReceivedAt: resp.ProcessedAt}

	statusCode := http.StatusOK
	if h.sandbox.shouldSucceed() {
		now := time.Now()
		resp.Status = StatusDelivered
		resp.DeliveredAt = &now
		sent.Delivered = true
		log.Info().Str("message_id", req.MessageID).Str("phone", req.PhoneNumber).Msg("SMS delivered")
	} else {
		resp.Status = StatusFailed
		resp.ErrorCode = h.sandbox.randomErrorCode()
		resp.ErrorMsg = errorMessage(resp.ErrorCode)
		sent.ErrorCode = resp.ErrorCode
		statusCode = http.StatusAccepted
		log.Warn().Str("message_id", req.MessageID).Str("error_code", resp.ErrorCode).Msg("SMS delivery failed")
	}
	h.sandbox.record(sent)
	c.JSON(statusCode, resp)
}

func (h *Handler) SendWhatsApp(c *gin.Context) {
	if h.token != "" && c.GetHeader("Authorization") != "Bearer "+h.token {
		c.JSON(http.StatusUnauthorized, gin.H{"error": whatsappError{
			Message: "Invalid OAuth access token", Type: "OAuthException", Code: 190,
		}})
		return
	}
	var req whatsappRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": whatsappError{Message: err.Error(), Type: "OAuthException", Code: 100}})
		return
	}
	if req.Type != "text" || strings.TrimSpace(req.Text.Body) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": whatsappError{Message: "text body is required", Type: "OAuthException", Code: 100}})
		return
	}

	time.Sleep(h.sandbox.randomDelay())

	if !h.sandbox.shouldSucceed() {
		// transient on the cloud api side, the sender retries
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": whatsappError{Message: "Service temporarily unavailable", Type: "OAuthException", Code: 2}})
		return
	}

	id := "wamid." + uuid.New().String()
	h.sandbox.record(SentMessage{
		ID:         id,
		Channel:    "whatsapp",
		To:         req.To,
		Body:       req.Text.Body,
		Delivered:  true,
		ReceivedAt: time.Now(),
	})
	log.Info().Str("message_id", id).Str("to", req.To).Str("phone_number_id", c.Param("phone_number_id")).Msg("WhatsApp message accepted")

	c.JSON(http.StatusOK, gin.H{
		"messaging_product": "whatsapp",
		"contacts":          []gin.H{{"input": req.To, "wa_id": req.To}},
		"messages":          []gin.H{{"id": id}},
	})
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:       "healthy",
		OperatorID:   h.sandbox.operatorID,
		Timestamp:    time.Now(),
		DeliveryRate: h.sandbox.DeliveryRate(),
	})
}

func (h *Handler) ListSent(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": h.sandbox.Sent(c.Query("channel"))})
}

func (h *Handler) ResetSent(c *gin.Context) {
	h.sandbox.Reset()
	c.Status(http.StatusNoContent)
}

func (h *Handler) UpdateConfig(c *gin.Context) {
	var config struct {
		DeliveryRate *float64 `json:"delivery_rate"`
	}
	if err := c.ShouldBindJSON(&config); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	if config.DeliveryRate != nil {
		if *config.DeliveryRate < 0 || *config.DeliveryRate > 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "delivery_rate must be between 0 and 1"})
			return
		}
		h.sandbox.SetDeliveryRate(*config.DeliveryRate)
		log.Info().Float64("rate", *config.DeliveryRate).Msg("Updated delivery rate")
	}
	c.JSON(http.StatusOK, gin.H{"delivery_rate": h.sandbox.DeliveryRate()})
}

func SetupRouter(handler *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("Request processed")
	})

	v1 := router.Group("/api/v1")
	{
		v1.POST("/sms/send", handler.SendSMS)
		v1.GET("/health", handler.HealthCheck)
		v1.PUT("/config", handler.UpdateConfig)
		v1.GET("/sent", handler.ListSent)
		v1.DELETE("/sent", handler.ResetSent)
	}
	// Cloud API shape: {api_url}/{phone_number_id}/messages
	router.POST("/whatsapp/:phone_number_id/messages", handler.SendWhatsApp)

	router.GET("/health", handler.HealthCheck)
	return router
}
