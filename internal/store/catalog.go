package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"minishop_back_end/internal/models"
	"minishop_back_end/internal/shop"
)

// CatalogStore : catégories + produits (les variantes sont embarquées dans le
// document produit, jamais exposées par index brut aux appelants).
type CatalogStore struct {
	Categories *mongo.Collection
	Products   *mongo.Collection
}

func NewCatalogStore(db *mongo.Database) *CatalogStore {
	return &CatalogStore{
		Categories: db.Collection("categories"),
		Products:   db.Collection("products"),
	}
}

// FindProduct implémente shop.ProductFinder.
func (s *CatalogStore) FindProduct(ctx context.Context, productID string) (*models.Product, error) {
	oid, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return nil, shop.ErrProductNotFound
	}
	var product models.Product
	err = s.Products.FindOne(ctx, bson.M{"_id": oid}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, shop.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *CatalogStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	cursor, err := s.Categories.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	categories := []models.Category{}
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *CatalogStore) ListProducts(ctx context.Context) ([]models.Product, error) {
	cursor, err := s.Products.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// CreateCategory refuse les doublons de nom.
func (s *CatalogStore) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: nom de catégorie vide", shop.ErrValidation)
	}
	count, err := s.Categories.CountDocuments(ctx, bson.M{"name": name})
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: la catégorie existe déjà", shop.ErrValidation)
	}

	category := &models.Category{ID: primitive.NewObjectID(), Name: name}
	if _, err := s.Categories.InsertOne(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CatalogStore) UpdateCategory(ctx context.Context, categoryID, name string) (*models.Category, error) {
	oid, err := primitive.ObjectIDFromHex(categoryID)
	if err != nil {
		return nil, fmt.Errorf("%w: identifiant de catégorie invalide", shop.ErrValidation)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: nom de catégorie vide", shop.ErrValidation)
	}

	count, err := s.Categories.CountDocuments(ctx, bson.M{"name": name, "_id": bson.M{"$ne": oid}})
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: une catégorie porte déjà ce nom", shop.ErrValidation)
	}

	var category models.Category
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err = s.Categories.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"name": name}}, opts).Decode(&category)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, shop.ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// DeleteCategory supprime la catégorie ET ses produits (cascade).
func (s *CatalogStore) DeleteCategory(ctx context.Context, categoryID string) error {
	oid, err := primitive.ObjectIDFromHex(categoryID)
	if err != nil {
		return fmt.Errorf("%w: identifiant de catégorie invalide", shop.ErrValidation)
	}

	if _, err := s.Products.DeleteMany(ctx, bson.M{"category_id": categoryID}); err != nil {
		return err
	}
	res, err := s.Categories.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return shop.ErrCategoryNotFound
	}
	return nil
}

func (s *CatalogStore) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	catOID, err := primitive.ObjectIDFromHex(product.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("%w: identifiant de catégorie invalide", shop.ErrValidation)
	}
	count, err := s.Categories.CountDocuments(ctx, bson.M{"_id": catOID})
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: catégorie introuvable", shop.ErrValidation)
	}

	if product.Image == nil && len(product.Images) > 0 {
		product.Image = &product.Images[0]
	}
	product.ID = primitive.NewObjectID()
	if _, err := s.Products.InsertOne(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct applique une mise à jour partielle ($set champ par champ).
func (s *CatalogStore) UpdateProduct(ctx context.Context, productID string, fields bson.M) (*models.Product, error) {
	oid, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return nil, fmt.Errorf("%w: identifiant de produit invalide", shop.ErrValidation)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: aucune donnée à mettre à jour", shop.ErrValidation)
	}

	if rawCat, ok := fields["category_id"]; ok {
		catID, _ := rawCat.(string)
		catOID, err := primitive.ObjectIDFromHex(catID)
		if err != nil {
			return nil, fmt.Errorf("%w: identifiant de catégorie invalide", shop.ErrValidation)
		}
		count, err := s.Categories.CountDocuments(ctx, bson.M{"_id": catOID})
		if err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, fmt.Errorf("%w: catégorie introuvable", shop.ErrValidation)
		}
	}
	if images, ok := fields["images"].([]string); ok && len(images) > 0 {
		fields["image"] = images[0]
	}

	var product models.Product
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err = s.Products.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": fields}, opts).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, shop.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *CatalogStore) DeleteProduct(ctx context.Context, productID string) error {
	oid, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return fmt.Errorf("%w: identifiant de produit invalide", shop.ErrValidation)
	}
	res, err := s.Products.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return shop.ErrProductNotFound
	}
	return nil
}
