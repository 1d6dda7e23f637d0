package shop

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"minishop_back_end/internal/models"
)

// CartTTL : un panier inactif plus de 10 minutes est considéré abandonné ;
// son stock réservé est restitué à la prochaine lecture.
const CartTTL = 10 * time.Minute

// CartRepository isole la persistance du panier. L'expiration est évaluée
// paresseusement à l'accès (pas de balayage en arrière-plan) — une
// implémentation avec sweep périodique peut se substituer ici tant qu'elle
// conserve la sémantique "restituer avant de jeter".
type CartRepository interface {
	// FindByUser retourne (nil, nil) si l'utilisateur n'a pas de panier.
	FindByUser(ctx context.Context, userID int64) (*models.Cart, error)
	Insert(ctx context.Context, cart *models.Cart) error
	Save(ctx context.Context, cart *models.Cart) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ProductFinder : consultation du catalogue (les variantes sont embarquées
// dans le document produit).
type ProductFinder interface {
	FindProduct(ctx context.Context, productID string) (*models.Product, error)
}

// CartService porte le cycle de vie du panier : singleton par user_id,
// réservation de stock à l'ajout, restitution à la suppression/expiration.
type CartService struct {
	Carts    CartRepository
	Products ProductFinder
	Ledger   VariantLedger
	Now      func() time.Time // injectable pour les tests
}

func (s *CartService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// GetOrCreate retourne le panier de l'utilisateur, créé paresseusement au
// premier accès. Si le panier existant a expiré, son stock est restitué via
// le ledger puis un panier vide le remplace — ce contrôle passe par TOUS les
// points d'entrée (lecture comme écriture).
func (s *CartService) GetOrCreate(ctx context.Context, userID int64) (*models.Cart, error) {
	cart, err := s.Carts.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if cart != nil && s.now().Sub(cart.LastActivity()) > CartTTL {
		log.Printf("🧹 Panier expiré pour user %d — restitution du stock (%d articles)", userID, len(cart.Items))
		s.releaseItems(ctx, cart.Items)
		if err := s.Carts.Delete(ctx, cart.ID); err != nil {
			return nil, err
		}
		cart = nil
	}

	if cart == nil {
		now := s.now()
		cart = &models.Cart{
			ID:        primitive.NewObjectID(),
			UserID:    userID,
			Items:     []models.CartItem{},
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.Carts.Insert(ctx, cart); err != nil {
			return nil, err
		}
	}

	return cart, nil
}

// AddItem valide le produit/la variante puis réserve le stock. La
// décrémentation conditionnelle du ledger fait autorité : la vérification
// lue avant n'est qu'indicative, une course perdue ressort en
// ErrInsufficientStock et le panier persisté reste intact.
func (s *CartService) AddItem(ctx context.Context, userID int64, productID, variantID string, quantity int) (*models.Cart, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: la quantité doit être positive", ErrValidation)
	}
	if variantID == "" {
		return nil, fmt.Errorf("%w: variante obligatoire", ErrValidation)
	}

	product, err := s.Products.FindProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if len(product.Variants) == 0 {
		// Un produit sans variantes n'est pas achetable, catégoriquement.
		return nil, fmt.Errorf("%w: produit sans variantes", ErrValidation)
	}
	variant := product.FindVariant(variantID)
	if variant == nil {
		return nil, fmt.Errorf("%w: variante inconnue", ErrValidation)
	}
	if variant.Quantity < quantity {
		return nil, ErrInsufficientStock
	}

	cart, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Mise à jour en mémoire seulement — rien n'est persisté tant que la
	// réservation n'a pas réussi.
	merged := false
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID && cart.Items[i].VariantID == variantID {
			cart.Items[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		image := product.Image
		if variant.Image != nil {
			image = variant.Image
		}
		cart.Items = append(cart.Items, models.CartItem{
			ID:          uuid.NewString(),
			ProductID:   productID,
			VariantID:   variantID,
			ProductName: product.Name,
			VariantName: variant.Name,
			Quantity:    quantity,
			Price:       product.Price, // instantané du prix à l'ajout
			Image:       image,
		})
	}

	ok, err := s.Ledger.Decrement(ctx, productID, variantID, quantity)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInsufficientStock
	}

	cart.RecalculateTotal()
	cart.UpdatedAt = s.now()
	if err := s.Carts.Save(ctx, cart); err != nil {
		// Compensation : le stock a été réservé mais le panier n'a pas pu
		// être sauvegardé, on restitue avant de remonter l'erreur.
		if rerr := s.Ledger.Restore(ctx, productID, variantID, quantity); rerr != nil {
			log.Printf("❌ Compensation impossible (%s/%s +%d): %v", productID, variantID, quantity, rerr)
		}
		return nil, err
	}

	return cart, nil
}

// UpdateItemQuantity ajuste la quantité d'une ligne. diff > 0 passe par la
// décrémentation conditionnelle (échec = quantité inchangée), diff < 0 par
// la restitution inconditionnelle.
func (s *CartService) UpdateItemQuantity(ctx context.Context, userID int64, itemID string, newQuantity int) (*models.Cart, error) {
	if newQuantity <= 0 {
		return nil, fmt.Errorf("%w: la quantité doit être positive", ErrValidation)
	}

	cart, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	idx := cart.FindItem(itemID)
	if idx < 0 {
		return nil, ErrItemNotFound
	}

	item := &cart.Items[idx]
	diff := newQuantity - item.Quantity
	if diff == 0 {
		return cart, nil
	}

	if diff > 0 {
		ok, err := s.Ledger.Decrement(ctx, item.ProductID, item.VariantID, diff)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrInsufficientStock
		}
	} else {
		if err := s.Ledger.Restore(ctx, item.ProductID, item.VariantID, -diff); err != nil {
			return nil, err
		}
	}

	item.Quantity = newQuantity
	cart.RecalculateTotal()
	cart.UpdatedAt = s.now()
	if err := s.Carts.Save(ctx, cart); err != nil {
		// Annule le mouvement de stock qui vient d'être appliqué.
		if diff > 0 {
			if rerr := s.Ledger.Restore(ctx, item.ProductID, item.VariantID, diff); rerr != nil {
				log.Printf("❌ Compensation impossible (%s/%s +%d): %v", item.ProductID, item.VariantID, diff, rerr)
			}
		} else {
			if _, rerr := s.Ledger.Decrement(ctx, item.ProductID, item.VariantID, -diff); rerr != nil {
				log.Printf("❌ Compensation impossible (%s/%s -%d): %v", item.ProductID, item.VariantID, -diff, rerr)
			}
		}
		return nil, err
	}

	return cart, nil
}

// RemoveItem restitue la totalité de la réservation puis retire la ligne.
func (s *CartService) RemoveItem(ctx context.Context, userID int64, itemID string) (*models.Cart, error) {
	cart, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	idx := cart.FindItem(itemID)
	if idx < 0 {
		return nil, ErrItemNotFound
	}

	item := cart.Items[idx]
	if err := s.Ledger.Restore(ctx, item.ProductID, item.VariantID, item.Quantity); err != nil {
		return nil, err
	}

	cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	cart.RecalculateTotal()
	cart.UpdatedAt = s.now()
	if err := s.Carts.Save(ctx, cart); err != nil {
		if _, rerr := s.Ledger.Decrement(ctx, item.ProductID, item.VariantID, item.Quantity); rerr != nil {
			log.Printf("❌ Compensation impossible (%s/%s -%d): %v", item.ProductID, item.VariantID, item.Quantity, rerr)
		}
		return nil, err
	}

	return cart, nil
}

// releaseItems restitue le stock de chaque ligne, en continuant malgré les
// échecs individuels (la restitution d'une variante supprimée est un no-op).
func (s *CartService) releaseItems(ctx context.Context, items []models.CartItem) {
	for _, item := range items {
		if item.VariantID == "" {
			continue
		}
		if err := s.Ledger.Restore(ctx, item.ProductID, item.VariantID, item.Quantity); err != nil {
			log.Printf("⚠️ Restitution échouée (%s/%s +%d): %v", item.ProductID, item.VariantID, item.Quantity, err)
		}
	}
}
