package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CatalogVersions : jeton de version opaque partagé entre instances du
// serveur (document unique de la collection app_state). Chaque écriture
// admin sur le catalogue régénère le jeton ; les lecteurs le comparent à
// leur copie même quand leur TTL local n'a pas expiré — un cache mémoire
// seul ne verrait jamais les écritures d'une autre instance.
type CatalogVersions struct {
	State *mongo.Collection
}

func NewCatalogVersions(db *mongo.Database) *CatalogVersions {
	return &CatalogVersions{State: db.Collection("app_state")}
}

const catalogVersionKey = "catalog_version"

// Current retourne le jeton courant, en le créant au premier appel.
func (v *CatalogVersions) Current(ctx context.Context) (string, error) {
	var doc struct {
		Version string `bson:"version"`
	}
	err := v.State.FindOne(ctx, bson.M{"_id": catalogVersionKey}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return v.Bump(ctx)
	}
	if err != nil {
		return "", err
	}
	return doc.Version, nil
}

// Bump régénère le jeton (invalidation visible par toutes les instances).
func (v *CatalogVersions) Bump(ctx context.Context) (string, error) {
	version := uuid.NewString()
	_, err := v.State.UpdateOne(ctx,
		bson.M{"_id": catalogVersionKey},
		bson.M{"$set": bson.M{"version": version, "updated_at": time.Now().UTC()}},
		options.Update().SetUpsert(true))
	if err != nil {
		return "", err
	}
	return version, nil
}
