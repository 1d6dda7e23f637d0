package shop

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"minishop_back_end/internal/models"
)

const (
	// Suppression différée : un ordre marqué deleted_at est purgé
	// physiquement après un délai de grâce, par lots, via un balayage unique.
	PurgeGracePeriod = 10 * time.Minute
	PurgeInterval    = 60 * time.Second
	PurgeBatchSize   = 100
)

// OrderRepository : persistance des commandes. SetStatus est la seule
// écriture conditionnelle — le passage à "canceled" est gardé par le statut
// courant pour détecter une annulation concurrente.
type OrderRepository interface {
	Insert(ctx context.Context, order *models.Order) error
	// FindByID retourne (nil, nil) si la commande n'existe pas.
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	FindLastByUser(ctx context.Context, userID int64) (*models.Order, error)
	List(ctx context.Context, status *models.OrderStatus, limit int64) ([]models.Order, error)
	// SetStatus retourne false si le filtre (id [+ statut non annulé quand
	// guardNotCanceled est vrai]) n'a rien trouvé.
	SetStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus, canEditAddress bool, at time.Time, guardNotCanceled bool) (bool, error)
	SetAddress(ctx context.Context, id primitive.ObjectID, address string, at time.Time) error
	SoftDelete(ctx context.Context, id primitive.ObjectID, at time.Time) (bool, error)
	FindDeletedBefore(ctx context.Context, cutoff time.Time, limit int64) ([]models.Order, error)
	Purge(ctx context.Context, id primitive.ObjectID) error
}

// BlobStore : stockage opaque des justificatifs de paiement.
type BlobStore interface {
	Store(ctx context.Context, data []byte, filename, contentType string) (string, error)
	Fetch(ctx context.Context, fileID string) ([]byte, string, error)
	Delete(ctx context.Context, fileID string) error
}

// Notifier : canal sortant best-effort (Telegram, mail). Ne retourne jamais
// d'erreur — un échec de notification ne doit jamais faire échouer
// l'opération principale.
type Notifier interface {
	NewOrder(order *models.Order)
	OrderStatusChanged(order *models.Order)
}

// CreateOrderInput : champs de contact + justificatif lu côté handler.
type CreateOrderInput struct {
	UserID             int64
	Name               string
	Phone              string
	Address            string
	Comment            string
	Receipt            []byte
	ReceiptFilename    string
	ReceiptContentType string
}

// OrderService : création depuis le panier (passation atomique), machine à
// états des statuts, restitution du stock à l'annulation, purge différée.
type OrderService struct {
	Orders   OrderRepository
	Carts    *CartService
	CartRepo CartRepository
	Products ProductFinder
	Ledger   VariantLedger
	Receipts BlobStore
	Notifier Notifier
	Now      func() time.Time
}

func (s *OrderService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// CreateOrder exige un panier non vide et non expiré. Le justificatif est
// stocké d'abord ; si l'insertion de la commande échoue ensuite, le blob est
// supprimé (action compensatoire) et l'erreur remonte — le panier et sa
// réservation restent intacts, un nouvel essai ne re-réserve rien.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Phone) == "" || strings.TrimSpace(in.Address) == "" {
		return nil, fmt.Errorf("%w: nom, téléphone et adresse sont requis", ErrValidation)
	}
	if len(in.Receipt) == 0 {
		return nil, fmt.Errorf("%w: justificatif de paiement requis", ErrValidation)
	}

	cart, err := s.Carts.GetOrCreate(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, ErrCartEmpty
	}

	// Contrôle défensif : le stock a déjà été réservé à l'ajout au panier,
	// on vérifie seulement qu'aucune quantité n'est passée en négatif
	// (données historiques) — sans re-décrémenter.
	for _, item := range cart.Items {
		if item.VariantID == "" {
			continue
		}
		product, err := s.Products.FindProduct(ctx, item.ProductID)
		if err != nil {
			continue // produit supprimé entre-temps, rien à vérifier
		}
		if v := product.FindVariant(item.VariantID); v != nil && v.Quantity < 0 {
			return nil, ErrInsufficientStock
		}
	}

	fileID, err := s.Receipts.Store(ctx, in.Receipt, in.ReceiptFilename, in.ReceiptContentType)
	if err != nil {
		return nil, err
	}

	now := s.now()
	order := &models.Order{
		ID:              primitive.NewObjectID(),
		UserID:          in.UserID,
		CustomerName:    strings.TrimSpace(in.Name),
		CustomerPhone:   strings.TrimSpace(in.Phone),
		DeliveryAddress: strings.TrimSpace(in.Address),
		Comment:         strings.TrimSpace(in.Comment),
		Status:          models.StatusProcessing,
		Items:           append([]models.CartItem(nil), cart.Items...), // copie figée
		TotalAmount:     cart.TotalAmount,
		CanEditAddress:  true,
		PaymentReceipt:  &models.PaymentReceipt{FileID: fileID, Filename: in.ReceiptFilename},
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.Orders.Insert(ctx, order); err != nil {
		// Compensation : pas de commande partielle, on efface le blob.
		if derr := s.Receipts.Delete(ctx, fileID); derr != nil {
			log.Printf("⚠️ Suppression du justificatif %s impossible après échec d'insertion: %v", fileID, derr)
		}
		return nil, err
	}

	// Passation : le panier disparaît, le stock reste réservé (il est
	// désormais "converti" dans la commande).
	if err := s.CartRepo.Delete(ctx, cart.ID); err != nil {
		log.Printf("⚠️ Panier %s non supprimé après création de commande: %v", cart.ID.Hex(), err)
	}

	log.Printf("✅ Commande %s créée pour user %d (%.2f)", order.ID.Hex(), in.UserID, order.TotalAmount)
	s.Notifier.NewOrder(order)
	return order, nil
}

// GetOrder retourne la commande, ou ErrOrderNotFound.
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	id, err := primitive.ObjectIDFromHex(orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: identifiant de commande invalide", ErrValidation)
	}
	order, err := s.Orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// LastOrder : dernière commande de l'utilisateur, (nil, nil) si aucune.
func (s *OrderService) LastOrder(ctx context.Context, userID int64) (*models.Order, error) {
	return s.Orders.FindLastByUser(ctx, userID)
}

// ListOrders : liste admin, filtrable par statut (commandes soft-deleted
// exclues par le dépôt).
func (s *OrderService) ListOrders(ctx context.Context, status *models.OrderStatus, limit int64) ([]models.Order, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.Orders.List(ctx, status, limit)
}

// UpdateStatus applique une transition. Les deux points d'entrée (panneau
// admin REST et callback du bot) passent ici. Le passage à "canceled"
// restitue d'abord le stock de chaque ligne à variante, PUIS écrit le statut
// avec une garde "pas déjà annulé" — la restitution est déclenchée une seule
// fois par événement d'annulation (pas de garde d'idempotence côté ledger :
// c'est le contrôle de statut qui garantit l'unicité).
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, newStatus models.OrderStatus) (*models.Order, error) {
	if !newStatus.IsValid() {
		return nil, fmt.Errorf("%w: statut inconnu %q", ErrValidation, newStatus)
	}

	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == newStatus {
		return order, nil // no-op, y compris pour une double annulation
	}
	if order.Status.IsTerminal() {
		return nil, ErrStatusLocked
	}

	canceling := newStatus == models.StatusCanceled
	if canceling {
		// Restituer AVANT d'écrire le statut : même si l'écriture échoue
		// ensuite, le stock n'est pas perdu (la commande reste annulable).
		for _, item := range order.Items {
			if item.VariantID == "" {
				continue
			}
			if err := s.Ledger.Restore(ctx, item.ProductID, item.VariantID, item.Quantity); err != nil {
				return nil, err
			}
		}
	}

	matched, err := s.Orders.SetStatus(ctx, order.ID, newStatus, newStatus.AllowsAddressEdit(), s.now(), canceling)
	if err != nil {
		return nil, err
	}
	if !matched {
		// Annulation concurrente par l'autre point d'entrée : la garde a
		// refusé l'écriture, la double restitution est perdue — on le trace.
		log.Printf("⚠️ Commande %s déjà annulée par ailleurs, restitution en double possible", orderID)
		return s.GetOrder(ctx, orderID)
	}

	order.Status = newStatus
	order.CanEditAddress = newStatus.AllowsAddressEdit()
	order.UpdatedAt = s.now()

	log.Printf("🔔 Commande %s → %s", orderID, newStatus)
	s.Notifier.OrderStatusChanged(order)
	return order, nil
}

// UpdateAddress : autorisé uniquement tant que le statut ∈ {new, processing}.
func (s *OrderService) UpdateAddress(ctx context.Context, orderID string, userID int64, address string) (*models.Order, error) {
	if strings.TrimSpace(address) == "" {
		return nil, fmt.Errorf("%w: adresse vide", ErrValidation)
	}

	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	if !order.Status.AllowsAddressEdit() {
		return nil, ErrAddressLocked
	}

	now := s.now()
	if err := s.Orders.SetAddress(ctx, order.ID, strings.TrimSpace(address), now); err != nil {
		return nil, err
	}
	order.DeliveryAddress = strings.TrimSpace(address)
	order.UpdatedAt = now
	return order, nil
}

// SoftDelete pose le marqueur deleted_at ; la suppression physique est
// l'affaire exclusive du balayage (fenêtre de grâce de 10 minutes).
func (s *OrderService) SoftDelete(ctx context.Context, orderID string) error {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.DeletedAt != nil {
		return nil // déjà marquée
	}
	ok, err := s.Orders.SoftDelete(ctx, order.ID, s.now())
	if err != nil {
		return err
	}
	if !ok {
		return ErrOrderNotFound
	}
	return nil
}

// StartPurgeSweep lance la boucle unique de purge (60s, lots de 100).
// S'arrête quand le contexte est annulé.
func (s *OrderService) StartPurgeSweep(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(PurgeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.SweepOnce(ctx)
			}
		}
	}()
}

// SweepOnce purge un lot de commandes dont le marqueur a dépassé la fenêtre
// de grâce. Les échecs sont tracés par commande, la boucle continue.
func (s *OrderService) SweepOnce(ctx context.Context) {
	cutoff := s.now().Add(-PurgeGracePeriod)
	orders, err := s.Orders.FindDeletedBefore(ctx, cutoff, PurgeBatchSize)
	if err != nil {
		log.Printf("⚠️ Balayage de purge impossible: %v", err)
		return
	}

	for _, order := range orders {
		if order.PaymentReceipt != nil && order.PaymentReceipt.FileID != "" {
			if err := s.Receipts.Delete(ctx, order.PaymentReceipt.FileID); err != nil {
				// Le document est conservé pour réessayer le blob au
				// prochain passage.
				log.Printf("⚠️ Purge du justificatif %s échouée: %v", order.PaymentReceipt.FileID, err)
				continue
			}
		}
		if err := s.Orders.Purge(ctx, order.ID); err != nil {
			log.Printf("⚠️ Purge de la commande %s échouée: %v", order.ID.Hex(), err)
			continue
		}
		log.Printf("🧹 Commande %s purgée définitivement", order.ID.Hex())
	}
}
