package models

import "time"

// Customer : client connu du bot (alimenté à chaque authentification WebApp).
// Sert de registre pour les diffusions et les notifications.
type Customer struct {
	UserID    int64     `bson:"user_id" json:"user_id"`
	Username  string    `bson:"username,omitempty" json:"username,omitempty"`
	FirstName string    `bson:"first_name,omitempty" json:"first_name,omitempty"`
	LastSeen  time.Time `bson:"last_seen" json:"last_seen"`
}

// Broadcast : trace d'une diffusion admin envoyée aux clients.
type Broadcast struct {
	Title     string    `bson:"title" json:"title"`
	Message   string    `bson:"message" json:"message"`
	Segment   string    `bson:"segment,omitempty" json:"segment,omitempty"`
	Link      string    `bson:"link,omitempty" json:"link,omitempty"`
	SentCount int       `bson:"sent_count" json:"sent_count"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
