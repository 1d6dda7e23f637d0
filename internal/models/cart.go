package models

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartItem : ligne de panier avec des instantanés (nom, prix, image) pris au
// moment de l'ajout — une modification ultérieure du produit ne doit pas
// altérer rétroactivement un panier ouvert.
type CartItem struct {
	ID          string  `bson:"id" json:"id"`
	ProductID   string  `bson:"product_id" json:"product_id"`
	VariantID   string  `bson:"variant_id" json:"variant_id"`
	ProductName string  `bson:"product_name" json:"product_name"`
	VariantName string  `bson:"variant_name" json:"variant_name"`
	Quantity    int     `bson:"quantity" json:"quantity"`
	Price       float64 `bson:"price" json:"price"`
	Image       *string `bson:"image,omitempty" json:"image,omitempty"`
}

// Cart : panier unique par user_id (contrainte d'unicité en base).
type Cart struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      int64              `bson:"user_id" json:"user_id"`
	Items       []CartItem         `bson:"items" json:"items"`
	TotalAmount float64            `bson:"total_amount" json:"total_amount"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// RecalculateTotal recalcule total_amount = round(Σ prix×qté, 2).
func (c *Cart) RecalculateTotal() {
	total := 0.0
	for _, item := range c.Items {
		total += item.Price * float64(item.Quantity)
	}
	c.TotalAmount = math.Round(total*100) / 100
}

// FindItem retourne l'index de l'article dans le panier, ou -1.
func (c *Cart) FindItem(itemID string) int {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return i
		}
	}
	return -1
}

// LastActivity : updated_at, ou created_at si jamais touché (anciens documents).
func (c *Cart) LastActivity() time.Time {
	if !c.UpdatedAt.IsZero() {
		return c.UpdatedAt
	}
	return c.CreatedAt
}
