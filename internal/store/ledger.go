package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoVariantLedger implémente shop.VariantLedger par une unique mise à jour
// conditionnelle : le filtre $elemMatch sélectionne LA variante avec assez de
// stock, le $inc positionnel s'applique à cet élément-là. Pas de
// read-modify-write, donc pas de survente possible entre deux requêtes
// concurrentes sur la même variante.
type MongoVariantLedger struct {
	Products *mongo.Collection
}

func NewMongoVariantLedger(db *mongo.Database) *MongoVariantLedger {
	return &MongoVariantLedger{Products: db.Collection("products")}
}

func (l *MongoVariantLedger) Decrement(ctx context.Context, productID, variantID string, qty int) (bool, error) {
	if qty <= 0 {
		return true, nil
	}
	oid, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return false, nil
	}

	filter := bson.M{
		"_id": oid,
		"variants": bson.M{"$elemMatch": bson.M{
			"id":       variantID,
			"quantity": bson.M{"$gte": qty},
		}},
	}
	update := bson.M{"$inc": bson.M{"variants.$.quantity": -qty}}

	res, err := l.Products.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (l *MongoVariantLedger) Restore(ctx context.Context, productID, variantID string, qty int) error {
	if qty <= 0 {
		return nil
	}
	oid, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return nil // variante/produit disparu : rien à restituer
	}

	filter := bson.M{
		"_id":      oid,
		"variants": bson.M{"$elemMatch": bson.M{"id": variantID}},
	}
	update := bson.M{"$inc": bson.M{"variants.$.quantity": qty}}

	// Zéro document touché n'est pas une erreur : le produit ou la variante
	// a pu être légitimement supprimé depuis la réservation.
	_, err = l.Products.UpdateOne(ctx, filter, update)
	return err
}
