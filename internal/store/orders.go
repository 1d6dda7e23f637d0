package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"minishop_back_end/internal/models"
)

// MongoOrderRepository : les commandes soft-deleted restent en base (champ
// deleted_at) jusqu'au passage du balayage de purge ; toutes les lectures
// "client" et la liste admin les masquent.
type MongoOrderRepository struct {
	Orders *mongo.Collection
}

func NewMongoOrderRepository(db *mongo.Database) *MongoOrderRepository {
	return &MongoOrderRepository{Orders: db.Collection("orders")}
}

func (r *MongoOrderRepository) Insert(ctx context.Context, order *models.Order) error {
	_, err := r.Orders.InsertOne(ctx, order)
	return err
}

func (r *MongoOrderRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	err := r.Orders.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *MongoOrderRepository) FindLastByUser(ctx context.Context, userID int64) (*models.Order, error) {
	var order models.Order
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	err := r.Orders.FindOne(ctx, bson.M{
		"user_id":    userID,
		"deleted_at": bson.M{"$exists": false},
	}, opts).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *MongoOrderRepository) List(ctx context.Context, status *models.OrderStatus, limit int64) ([]models.Order, error) {
	filter := bson.M{"deleted_at": bson.M{"$exists": false}}
	if status != nil {
		filter["status"] = *status
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.Orders.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *MongoOrderRepository) SetStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus, canEditAddress bool, at time.Time, guardNotCanceled bool) (bool, error) {
	filter := bson.M{"_id": id}
	if guardNotCanceled {
		filter["status"] = bson.M{"$ne": models.StatusCanceled}
	}
	res, err := r.Orders.UpdateOne(ctx, filter, bson.M{"$set": bson.M{
		"status":           status,
		"can_edit_address": canEditAddress,
		"updated_at":       at,
	}})
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (r *MongoOrderRepository) SetAddress(ctx context.Context, id primitive.ObjectID, address string, at time.Time) error {
	_, err := r.Orders.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"delivery_address": address,
		"updated_at":       at,
	}})
	return err
}

func (r *MongoOrderRepository) SoftDelete(ctx context.Context, id primitive.ObjectID, at time.Time) (bool, error) {
	res, err := r.Orders.UpdateOne(ctx,
		bson.M{"_id": id, "deleted_at": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"deleted_at": at}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (r *MongoOrderRepository) FindDeletedBefore(ctx context.Context, cutoff time.Time, limit int64) ([]models.Order, error) {
	opts := options.Find().SetLimit(limit)
	cursor, err := r.Orders.Find(ctx, bson.M{"deleted_at": bson.M{"$lte": cutoff}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *MongoOrderRepository) Purge(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.Orders.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
