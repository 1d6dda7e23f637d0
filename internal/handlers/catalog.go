package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"minishop_back_end/internal/catalog"
	"minishop_back_end/internal/config"
)

type CatalogHandler struct {
	Cache *catalog.Cache
}

// GetCatalog sert le listing complet avec ETag : un If-None-Match qui
// correspond vaut 304 sans corps.
func (h *CatalogHandler) GetCatalog(c *gin.Context) {
	payload, etag, err := h.Cache.Get(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	quoted := fmt.Sprintf("%q", etag)
	c.Header("ETag", quoted)
	c.Header("Cache-Control", fmt.Sprintf("public, max-age=%d", config.CatalogCacheTTLSeconds()))

	if match := c.GetHeader("If-None-Match"); match != "" && match == quoted {
		c.Status(http.StatusNotModified)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
}
