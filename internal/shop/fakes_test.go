package shop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"minishop_back_end/internal/models"
)

var (
	errSaveFailed   = errors.New("sauvegarde refusée")
	errInsertFailed = errors.New("insertion refusée")
	errBlobDelete   = errors.New("suppression blob refusée")
)

// memLedger reproduit la sémantique du ledger Mongo : décrément conditionnel
// atomique, restitution inconditionnelle, no-op sur variante inconnue.
type memLedger struct {
	mu    sync.Mutex
	stock map[string]int
}

func newMemLedger() *memLedger { return &memLedger{stock: map[string]int{}} }

func stockKey(productID, variantID string) string { return productID + "/" + variantID }

func (l *memLedger) set(productID, variantID string, qty int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stock[stockKey(productID, variantID)] = qty
}

func (l *memLedger) get(productID, variantID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stock[stockKey(productID, variantID)]
}

func (l *memLedger) Decrement(_ context.Context, productID, variantID string, qty int) (bool, error) {
	if qty <= 0 {
		return true, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	k := stockKey(productID, variantID)
	current, ok := l.stock[k]
	if !ok || current < qty {
		return false, nil
	}
	l.stock[k] = current - qty
	return true, nil
}

func (l *memLedger) Restore(_ context.Context, productID, variantID string, qty int) error {
	if qty <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	k := stockKey(productID, variantID)
	if _, ok := l.stock[k]; !ok {
		return nil
	}
	l.stock[k] += qty
	return nil
}

// memCatalog : ProductFinder en mémoire.
type memCatalog struct {
	mu       sync.Mutex
	products map[string]models.Product
}

func newMemCatalog() *memCatalog { return &memCatalog{products: map[string]models.Product{}} }

func (c *memCatalog) put(p models.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[p.ID.Hex()] = p
}

func (c *memCatalog) FindProduct(_ context.Context, productID string) (*models.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[productID]
	if !ok {
		return nil, ErrProductNotFound
	}
	cp := p
	cp.Variants = append([]models.Variant(nil), p.Variants...)
	return &cp, nil
}

// memCartRepo rend des copies : une mutation non sauvegardée ne doit pas
// toucher l'état persisté, comme avec le vrai dépôt Mongo.
type memCartRepo struct {
	mu       sync.Mutex
	carts    map[int64]*models.Cart
	failSave bool
}

func newMemCartRepo() *memCartRepo { return &memCartRepo{carts: map[int64]*models.Cart{}} }

func cloneCart(c *models.Cart) *models.Cart {
	cp := *c
	cp.Items = append([]models.CartItem(nil), c.Items...)
	return &cp
}

func (r *memCartRepo) FindByUser(_ context.Context, userID int64) (*models.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cart, ok := r.carts[userID]
	if !ok {
		return nil, nil
	}
	return cloneCart(cart), nil
}

func (r *memCartRepo) Insert(_ context.Context, cart *models.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.carts[cart.UserID] = cloneCart(cart)
	return nil
}

func (r *memCartRepo) Save(_ context.Context, cart *models.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSave {
		return errSaveFailed
	}
	r.carts[cart.UserID] = cloneCart(cart)
	return nil
}

func (r *memCartRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for userID, cart := range r.carts {
		if cart.ID == id {
			delete(r.carts, userID)
			break
		}
	}
	return nil
}

// memOrderRepo : dépôt de commandes en mémoire, garde d'annulation comprise.
type memOrderRepo struct {
	mu         sync.Mutex
	orders     map[primitive.ObjectID]*models.Order
	failInsert bool
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: map[primitive.ObjectID]*models.Order{}}
}

func cloneOrder(o *models.Order) *models.Order {
	cp := *o
	cp.Items = append([]models.CartItem(nil), o.Items...)
	return &cp
}

func (r *memOrderRepo) Insert(_ context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failInsert {
		return errInsertFailed
	}
	r.orders[order.ID] = cloneOrder(order)
	return nil
}

func (r *memOrderRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	return cloneOrder(order), nil
}

func (r *memOrderRepo) FindLastByUser(_ context.Context, userID int64) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var last *models.Order
	for _, order := range r.orders {
		if order.UserID != userID || order.DeletedAt != nil {
			continue
		}
		if last == nil || order.CreatedAt.After(last.CreatedAt) {
			last = order
		}
	}
	if last == nil {
		return nil, nil
	}
	return cloneOrder(last), nil
}

func (r *memOrderRepo) List(_ context.Context, status *models.OrderStatus, limit int64) ([]models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Order
	for _, order := range r.orders {
		if order.DeletedAt != nil {
			continue
		}
		if status != nil && order.Status != *status {
			continue
		}
		out = append(out, *cloneOrder(order))
		if int64(len(out)) >= limit {
			break
		}
	}
	return out, nil
}

func (r *memOrderRepo) SetStatus(_ context.Context, id primitive.ObjectID, status models.OrderStatus, canEditAddress bool, at time.Time, guardNotCanceled bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return false, nil
	}
	if guardNotCanceled && order.Status == models.StatusCanceled {
		return false, nil
	}
	order.Status = status
	order.CanEditAddress = canEditAddress
	order.UpdatedAt = at
	return true, nil
}

func (r *memOrderRepo) SetAddress(_ context.Context, id primitive.ObjectID, address string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("commande %s absente", id.Hex())
	}
	order.DeliveryAddress = address
	order.UpdatedAt = at
	return nil
}

func (r *memOrderRepo) SoftDelete(_ context.Context, id primitive.ObjectID, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok || order.DeletedAt != nil {
		return false, nil
	}
	order.DeletedAt = &at
	return true, nil
}

func (r *memOrderRepo) FindDeletedBefore(_ context.Context, cutoff time.Time, limit int64) ([]models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Order
	for _, order := range r.orders {
		if order.DeletedAt == nil || order.DeletedAt.After(cutoff) {
			continue
		}
		out = append(out, *cloneOrder(order))
		if int64(len(out)) >= limit {
			break
		}
	}
	return out, nil
}

func (r *memOrderRepo) Purge(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.orders, id)
	return nil
}

func (r *memOrderRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orders)
}

// memBlobStore : justificatifs en mémoire.
type memBlobStore struct {
	mu         sync.Mutex
	blobs      map[string][]byte
	seq        int
	failStore  bool
	failDelete bool
}

func newMemBlobStore() *memBlobStore { return &memBlobStore{blobs: map[string][]byte{}} }

func (b *memBlobStore) Store(_ context.Context, data []byte, _, _ string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failStore {
		return "", errors.New("stockage blob refusé")
	}
	b.seq++
	id := fmt.Sprintf("blob-%d", b.seq)
	b.blobs[id] = append([]byte(nil), data...)
	return id, nil
}

func (b *memBlobStore) Fetch(_ context.Context, fileID string) ([]byte, string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.blobs[fileID]
	if !ok {
		return nil, "", errors.New("blob absent")
	}
	return data, "application/octet-stream", nil
}

func (b *memBlobStore) Delete(_ context.Context, fileID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failDelete {
		return errBlobDelete
	}
	delete(b.blobs, fileID)
	return nil
}

func (b *memBlobStore) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.blobs)
}

// recordingNotifier capture les notifications émises.
type recordingNotifier struct {
	mu            sync.Mutex
	newOrders     []string
	statusChanges []models.OrderStatus
}

func (n *recordingNotifier) NewOrder(order *models.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.newOrders = append(n.newOrders, order.ID.Hex())
}

func (n *recordingNotifier) OrderStatusChanged(order *models.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.statusChanges = append(n.statusChanges, order.Status)
}

// fixture câble les services sur les fausses dépendances, avec une horloge
// contrôlée par le test.
type fixture struct {
	ledger   *memLedger
	catalog  *memCatalog
	carts    *memCartRepo
	orders   *memOrderRepo
	blobs    *memBlobStore
	notifier *recordingNotifier

	cartSvc  *CartService
	orderSvc *OrderService

	mu  sync.Mutex
	now time.Time
}

func newFixture() *fixture {
	f := &fixture{
		ledger:   newMemLedger(),
		catalog:  newMemCatalog(),
		carts:    newMemCartRepo(),
		orders:   newMemOrderRepo(),
		blobs:    newMemBlobStore(),
		notifier: &recordingNotifier{},
		now:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.now
	}
	f.cartSvc = &CartService{Carts: f.carts, Products: f.catalog, Ledger: f.ledger, Now: clock}
	f.orderSvc = &OrderService{
		Orders:   f.orders,
		Carts:    f.cartSvc,
		CartRepo: f.carts,
		Products: f.catalog,
		Ledger:   f.ledger,
		Receipts: f.blobs,
		Notifier: f.notifier,
		Now:      clock,
	}
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// seedProduct enregistre un produit à une variante et aligne le ledger sur
// le stock initial.
func (f *fixture) seedProduct(price float64, stock int) (productID, variantID string) {
	id := primitive.NewObjectID()
	variantID = "taille-m"
	f.catalog.put(models.Product{
		ID:        id,
		Name:      "Hoodie",
		Price:     price,
		Available: true,
		Variants:  []models.Variant{{ID: variantID, Name: "M", Quantity: stock}},
	})
	f.ledger.set(id.Hex(), variantID, stock)
	return id.Hex(), variantID
}
