package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"minishop_back_end/internal/database"
	"minishop_back_end/internal/services"
)

// SearchProducts : recherche plein texte, disponible seulement quand
// Elasticsearch est configuré.
func SearchProducts(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Paramètre q requis"})
		return
	}
	if database.ElasticClient == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Recherche indisponible"})
		return
	}

	results, err := services.SearchProducts(query)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"results": []gin.H{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}
