package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	StatusNew        OrderStatus = "new"
	StatusProcessing OrderStatus = "processing"
	StatusAccepted   OrderStatus = "accepted"
	StatusShipped    OrderStatus = "shipped"
	StatusDone       OrderStatus = "done"
	StatusCanceled   OrderStatus = "canceled"
)

// IsValid vérifie que le statut fait partie de la machine à états.
func (s OrderStatus) IsValid() bool {
	switch s {
	case StatusNew, StatusProcessing, StatusAccepted, StatusShipped, StatusDone, StatusCanceled:
		return true
	}
	return false
}

// IsTerminal : done et canceled n'admettent plus de transition.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusDone || s == StatusCanceled
}

// AllowsAddressEdit : l'adresse n'est modifiable que tant que la commande
// n'est pas partie en préparation avancée.
func (s OrderStatus) AllowsAddressEdit() bool {
	return s == StatusNew || s == StatusProcessing
}

// PaymentReceipt référence le justificatif de paiement stocké dans MinIO.
type PaymentReceipt struct {
	FileID   string `bson:"file_id" json:"file_id"`
	Filename string `bson:"filename" json:"filename"`
}

// Order : instantané immuable du panier au moment du checkout. La commande ne
// référence plus le panier — celui-ci est supprimé dès l'insertion réussie.
type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          int64              `bson:"user_id" json:"user_id"`
	CustomerName    string             `bson:"customer_name" json:"customer_name"`
	CustomerPhone   string             `bson:"customer_phone" json:"customer_phone"`
	DeliveryAddress string             `bson:"delivery_address" json:"delivery_address"`
	Comment         string             `bson:"comment,omitempty" json:"comment,omitempty"`
	Status          OrderStatus        `bson:"status" json:"status"`
	Items           []CartItem         `bson:"items" json:"items"`
	TotalAmount     float64            `bson:"total_amount" json:"total_amount"`
	CanEditAddress  bool               `bson:"can_edit_address" json:"can_edit_address"`
	PaymentReceipt  *PaymentReceipt    `bson:"payment_receipt,omitempty" json:"payment_receipt,omitempty"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updated_at"`
	DeletedAt       *time.Time         `bson:"deleted_at,omitempty" json:"deleted_at,omitempty"`
}
