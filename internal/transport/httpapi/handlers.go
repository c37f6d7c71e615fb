package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Tealium/tealium-mcp-demo/internal/domain"
	"github.com/Tealium/tealium-mcp-demo/internal/usecase"
)

const requestTimeout = 20 * time.Second

type Handler struct {
	resolver usecase.VisitorResolver
	cfg      domain.ResolutionConfig
	logger   zerolog.Logger
}

func NewHandler(resolver usecase.VisitorResolver, cfg domain.ResolutionConfig, logger zerolog.Logger) *Handler {
	return &Handler{resolver: resolver, cfg: cfg, logger: logger}
}

// NewRouter registers the visitor routes plus health and metrics on a fresh engine.
func NewRouter(h *Handler, gatherer prometheus.Gatherer) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api/v1")
	api.GET("/lookup", h.LookupQuery)
	api.POST("/lookup", h.LookupBody)
	api.GET("/visitors/:visitorId", h.ByVisitorID)
	return router
}

type lookupBody struct {
	VisitorID      string `json:"visitor_id"`
	AttributeID    string `json:"attribute_id"`
	AttributeValue string `json:"attribute_value"`
	Identifier     string `json:"identifier"`
}

func (b lookupBody) request() (domain.VisitorRequest, bool) {
	switch {
	case b.VisitorID != "":
		return domain.VisitorIDRequest(b.VisitorID), true
	case b.AttributeID != "" || b.AttributeValue != "":
		return domain.AttributeRequest(b.AttributeID, b.AttributeValue), true
	case b.Identifier != "":
		return domain.FreeFormRequest(b.Identifier), true
	}
	return domain.VisitorRequest{}, false
}

func (h *Handler) ByVisitorID(c *gin.Context) {
	h.resolve(c, domain.VisitorIDRequest(c.Param("visitorId")))
}

func (h *Handler) LookupQuery(c *gin.Context) {
	body := lookupBody{
		VisitorID:      c.Query("visitorId"),
		AttributeID:    c.Query("attributeId"),
		AttributeValue: c.Query("attributeValue"),
		Identifier:     c.Query("identifier"),
	}
	if body.Identifier == "" {
		body.Identifier = c.Query("email")
	}
	req, ok := body.request()
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing identifier"})
		return
	}
	h.resolve(c, req)
}

func (h *Handler) LookupBody(c *gin.Context) {
	var body lookupBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json body"})
		return
	}
	req, ok := body.request()
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing identifier"})
		return
	}
	h.resolve(c, req)
}

func (h *Handler) resolve(c *gin.Context, req domain.VisitorRequest) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	res, err := h.resolver.Resolve(ctx, req, h.cfg)
	if err != nil {
		var cfgErr *domain.ConfigError
		switch {
		case errors.As(err, &cfgErr):
			h.logger.Error().Strs("missing", cfgErr.Missing).Msg("moments configuration incomplete")
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "configuration incomplete", "missing": cfgErr.Missing})
		case errors.Is(err, domain.ErrEmptyIdentifier):
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing identifier"})
		default:
			h.logger.Error().Err(err).Msg("visitor resolution failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}

	if !res.Found() {
		c.JSON(http.StatusOK, gin.H{
			"found":      false,
			"request_id": res.RequestID,
			"attempts":   res.Attempts,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"found":           true,
		"request_id":      res.RequestID,
		"source":          res.Source,
		"visitor_profile": res.Profile,
	})
}
