package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"minishop_back_end/internal/models"
)

// CustomerStore : registre des clients connus du bot, alimenté à chaque
// authentification WebApp. Sert aux diffusions admin.
type CustomerStore struct {
	Customers  *mongo.Collection
	Broadcasts *mongo.Collection
}

func NewCustomerStore(db *mongo.Database) *CustomerStore {
	return &CustomerStore{
		Customers:  db.Collection("customers"),
		Broadcasts: db.Collection("broadcasts"),
	}
}

func (s *CustomerStore) Upsert(ctx context.Context, customer models.Customer) error {
	customer.LastSeen = time.Now().UTC()
	_, err := s.Customers.UpdateOne(ctx,
		bson.M{"user_id": customer.UserID},
		bson.M{"$set": customer},
		options.Update().SetUpsert(true))
	return err
}

// ListUserIDs : tous les Telegram IDs enregistrés (cible des diffusions).
func (s *CustomerStore) ListUserIDs(ctx context.Context) ([]int64, error) {
	cursor, err := s.Customers.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var ids []int64
	for cursor.Next(ctx) {
		var doc struct {
			UserID int64 `bson:"user_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			continue
		}
		ids = append(ids, doc.UserID)
	}
	return ids, cursor.Err()
}

func (s *CustomerStore) RecordBroadcast(ctx context.Context, broadcast models.Broadcast) error {
	broadcast.CreatedAt = time.Now().UTC()
	_, err := s.Broadcasts.InsertOne(ctx, broadcast)
	return err
}
