package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"

	"minishop_back_end/internal/catalog"
	"minishop_back_end/internal/models"
	"minishop_back_end/internal/services"
	"minishop_back_end/internal/store"
)

// =============================================
// CATALOGUE (administration)
// =============================================

// Chaque écriture invalide le cache catalogue (jeton de version partagé) et
// tient l'index de recherche à jour.
type AdminCatalogHandler struct {
	Catalog *store.CatalogStore
	Cache   *catalog.Cache
}

// --- Catégories ---

func (h *AdminCatalogHandler) CreateCategory(c *gin.Context) {
	var input struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name est requis"})
		return
	}

	category, err := h.Catalog.CreateCategory(c.Request.Context(), input.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	h.Cache.Invalidate(c.Request.Context())
	c.JSON(http.StatusCreated, category)
}

func (h *AdminCatalogHandler) UpdateCategory(c *gin.Context) {
	var input struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name est requis"})
		return
	}

	category, err := h.Catalog.UpdateCategory(c.Request.Context(), c.Param("id"), input.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	h.Cache.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, category)
}

// DeleteCategory supprime la catégorie et tous ses produits.
func (h *AdminCatalogHandler) DeleteCategory(c *gin.Context) {
	if err := h.Catalog.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	h.Cache.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// --- Produits ---

type productInput struct {
	Name        string           `json:"name" binding:"required"`
	Description string           `json:"description"`
	Price       float64          `json:"price" binding:"required"`
	Image       *string          `json:"image"`
	Images      []string         `json:"images"`
	CategoryID  string           `json:"category_id" binding:"required"`
	Available   *bool            `json:"available"`
	Variants    []models.Variant `json:"variants"`
}

func (h *AdminCatalogHandler) CreateProduct(c *gin.Context) {
	var input productInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name, price et category_id sont requis"})
		return
	}
	if input.Price <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Le prix doit être positif"})
		return
	}

	available := true
	if input.Available != nil {
		available = *input.Available
	}
	for i := range input.Variants {
		if input.Variants[i].ID == "" {
			input.Variants[i].ID = uuid.NewString()
		}
	}

	product, err := h.Catalog.CreateProduct(c.Request.Context(), &models.Product{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Image:       input.Image,
		Images:      input.Images,
		CategoryID:  input.CategoryID,
		Available:   available,
		Variants:    input.Variants,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	services.IndexProduct(*product)
	h.Cache.Invalidate(c.Request.Context())
	c.JSON(http.StatusCreated, product)
}

func (h *AdminCatalogHandler) UpdateProduct(c *gin.Context) {
	var input struct {
		Name        *string           `json:"name"`
		Description *string           `json:"description"`
		Price       *float64          `json:"price"`
		Image       *string           `json:"image"`
		Images      *[]string         `json:"images"`
		CategoryID  *string           `json:"category_id"`
		Available   *bool             `json:"available"`
		Variants    *[]models.Variant `json:"variants"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Corps de requête invalide"})
		return
	}

	fields := bson.M{}
	if input.Name != nil {
		fields["name"] = *input.Name
	}
	if input.Description != nil {
		fields["description"] = *input.Description
	}
	if input.Price != nil {
		if *input.Price <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Le prix doit être positif"})
			return
		}
		fields["price"] = *input.Price
	}
	if input.Image != nil {
		fields["image"] = *input.Image
	}
	if input.Images != nil {
		fields["images"] = *input.Images
	}
	if input.CategoryID != nil {
		fields["category_id"] = *input.CategoryID
	}
	if input.Available != nil {
		fields["available"] = *input.Available
	}
	if input.Variants != nil {
		variants := *input.Variants
		for i := range variants {
			if variants[i].ID == "" {
				variants[i].ID = uuid.NewString()
			}
		}
		fields["variants"] = variants
	}
	if len(fields) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Aucun champ à modifier"})
		return
	}

	product, err := h.Catalog.UpdateProduct(c.Request.Context(), c.Param("id"), fields)
	if err != nil {
		respondError(c, err)
		return
	}

	services.IndexProduct(*product)
	h.Cache.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, product)
}

func (h *AdminCatalogHandler) DeleteProduct(c *gin.Context) {
	productID := c.Param("id")
	if err := h.Catalog.DeleteProduct(c.Request.Context(), productID); err != nil {
		respondError(c, err)
		return
	}

	services.RemoveProductFromIndex(productID)
	h.Cache.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
