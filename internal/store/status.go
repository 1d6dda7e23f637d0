package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"minishop_back_end/internal/models"
)

// StatusStore : document singleton du statut boutique, créé par upsert à la
// première lecture.
type StatusStore struct {
	Status *mongo.Collection
	Now    func() time.Time
}

func NewStatusStore(db *mongo.Database) *StatusStore {
	return &StatusStore{Status: db.Collection("store_status")}
}

func (s *StatusStore) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

const statusKey = "store"

// Get retourne le statut courant. Si le mode sommeil a une échéance
// (sleep_until) déjà passée, la boutique est réveillée automatiquement ;
// woke indique ce basculement pour que l'appelant publie le changement.
func (s *StatusStore) Get(ctx context.Context) (status *models.StoreStatus, woke bool, err error) {
	var doc models.StoreStatus
	findErr := s.Status.FindOne(ctx, bson.M{"_id": statusKey}).Decode(&doc)
	if errors.Is(findErr, mongo.ErrNoDocuments) {
		fresh, err := s.Set(ctx, false, nil, nil)
		return fresh, false, err
	}
	if findErr != nil {
		return nil, false, findErr
	}

	if doc.IsSleepMode && doc.SleepUntil != nil && s.now().After(*doc.SleepUntil) {
		fresh, err := s.Set(ctx, false, nil, nil)
		return fresh, true, err
	}
	return &doc, false, nil
}

// Set écrit le statut (action admin) et le retourne.
func (s *StatusStore) Set(ctx context.Context, sleep bool, message *string, until *time.Time) (*models.StoreStatus, error) {
	status := &models.StoreStatus{
		IsSleepMode:  sleep,
		SleepMessage: message,
		SleepUntil:   until,
		UpdatedAt:    s.now(),
	}
	_, err := s.Status.UpdateOne(ctx,
		bson.M{"_id": statusKey},
		bson.M{"$set": status},
		options.Update().SetUpsert(true))
	if err != nil {
		return nil, err
	}
	return status, nil
}
