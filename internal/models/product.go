package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Category struct {
	ID   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name string             `bson:"name" json:"name"`
}

// Variant : sous-référence achetable d'un produit (ex: un parfum),
// avec son propre stock. Le champ quantity n'est modifié que par le
// ledger (mise à jour conditionnelle atomique côté MongoDB).
type Variant struct {
	ID       string  `bson:"id" json:"id"`
	Name     string  `bson:"name" json:"name"`
	Quantity int     `bson:"quantity" json:"quantity"`
	Image    *string `bson:"image,omitempty" json:"image,omitempty"`
}

type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Price       float64            `bson:"price" json:"price"`
	Image       *string            `bson:"image,omitempty" json:"image,omitempty"`
	Images      []string           `bson:"images,omitempty" json:"images,omitempty"`
	CategoryID  string             `bson:"category_id" json:"category_id"`
	Available   bool               `bson:"available" json:"available"`
	Variants    []Variant          `bson:"variants,omitempty" json:"variants,omitempty"`
}

// FindVariant retourne la variante correspondante, ou nil si absente.
func (p *Product) FindVariant(variantID string) *Variant {
	for i := range p.Variants {
		if p.Variants[i].ID == variantID {
			return &p.Variants[i]
		}
	}
	return nil
}
