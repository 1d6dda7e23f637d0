package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"minishop_back_end/internal/models"
)

// MongoCartRepository : un document par panier, clé unique sur user_id
// (index posé au démarrage). Les écritures sont du read-then-write assumé —
// seule la quantité de stock est protégée, côté ledger.
type MongoCartRepository struct {
	Carts *mongo.Collection
}

func NewMongoCartRepository(db *mongo.Database) *MongoCartRepository {
	return &MongoCartRepository{Carts: db.Collection("carts")}
}

func (r *MongoCartRepository) FindByUser(ctx context.Context, userID int64) (*models.Cart, error) {
	var cart models.Cart
	err := r.Carts.FindOne(ctx, bson.M{"user_id": userID}).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *MongoCartRepository) Insert(ctx context.Context, cart *models.Cart) error {
	_, err := r.Carts.InsertOne(ctx, cart)
	return err
}

func (r *MongoCartRepository) Save(ctx context.Context, cart *models.Cart) error {
	_, err := r.Carts.ReplaceOne(ctx, bson.M{"_id": cart.ID}, cart)
	return err
}

func (r *MongoCartRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.Carts.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
