package models

import "time"

// StoreStatus : document singleton (upsert à la première lecture).
// is_sleep_mode ferme temporairement la boutique côté mini-app ;
// sleep_until (optionnel) déclenche un réveil automatique.
type StoreStatus struct {
	IsSleepMode  bool       `bson:"is_sleep_mode" json:"is_sleep_mode"`
	SleepMessage *string    `bson:"sleep_message,omitempty" json:"sleep_message,omitempty"`
	SleepUntil   *time.Time `bson:"sleep_until,omitempty" json:"sleep_until,omitempty"`
	UpdatedAt    time.Time  `bson:"updated_at" json:"updated_at"`
}
