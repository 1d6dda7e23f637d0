package shop

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateLazilyCreates(t *testing.T) {
	t.Parallel()
	f := newFixture()

	cart, err := f.cartSvc.GetOrCreate(context.Background(), 42)
	require.NoError(t, err)
	require.NotNil(t, cart)
	assert.Equal(t, int64(42), cart.UserID)
	assert.Empty(t, cart.Items)
	assert.Zero(t, cart.TotalAmount)

	again, err := f.cartSvc.GetOrCreate(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, again.ID, "un seul panier par utilisateur")
}

func TestAddItemReservesStock(t *testing.T) {
	t.Parallel()
	f := newFixture()
	productID, variantID := f.seedProduct(25.50, 5)

	cart, err := f.cartSvc.AddItem(context.Background(), 1, productID, variantID, 2)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, 25.50, cart.Items[0].Price)
	assert.Equal(t, "Hoodie", cart.Items[0].ProductName)
	assert.Equal(t, 51.0, cart.TotalAmount)
	assert.Equal(t, 3, f.ledger.get(productID, variantID))
}

func TestAddItemMergesSameVariant(t *testing.T) {
	t.Parallel()
	f := newFixture()
	productID, variantID := f.seedProduct(10, 5)

	_, err := f.cartSvc.AddItem(context.Background(), 1, productID, variantID, 2)
	require.NoError(t, err)
	cart, err := f.cartSvc.AddItem(context.Background(), 1, productID, variantID, 3)
	require.NoError(t, err)

	require.Len(t, cart.Items, 1, "même variante = ligne fusionnée")
	assert.Equal(t, 5, cart.Items[0].Quantity)
	assert.Equal(t, 0, f.ledger.get(productID, variantID))
}

func TestAddItemValidation(t *testing.T) {
	t.Parallel()
	f := newFixture()
	productID, variantID := f.seedProduct(10, 5)

	tests := []struct {
		name      string
		productID string
		variantID string
		quantity  int
		wantErr   error
	}{
		{"quantité nulle", productID, variantID, 0, ErrValidation},
		{"quantité négative", productID, variantID, -1, ErrValidation},
		{"variante manquante", productID, "", 1, ErrValidation},
		{"variante inconnue", productID, "taille-xxl", 1, ErrValidation},
		{"produit inconnu", "000000000000000000000000", variantID, 1, ErrProductNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.cartSvc.AddItem(context.Background(), 1, tt.productID, tt.variantID, tt.quantity)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAddItemExactStockThenOneMore(t *testing.T) {
	t.Parallel()
	f := newFixture()
	productID, variantID := f.seedProduct(10, 5)

	// Tout le stock d'un coup : accepté.
	cart, err := f.cartSvc.AddItem(context.Background(), 1, productID, variantID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, cart.Items[0].Quantity)
	assert.Equal(t, 0, f.ledger.get(productID, variantID))

	// Une unité de plus : refusée par le ledger, panier intact.
	_, err = f.cartSvc.AddItem(context.Background(), 1, productID, variantID, 1)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	saved, err := f.cartSvc.GetOrCreate(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 5, saved.Items[0].Quantity)
}

func TestAddItemOverStockRejected(t *testing.T) {
	t.Parallel()
	f := newFixture()
	productID, variantID := f.seedProduct(10, 5)

	_, err := f.cartSvc.AddItem(context.Background(), 1, productID, variantID, 6)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 5, f.ledger.get(productID, variantID), "aucune réservation partielle")
}

func TestUpdateItemQuantity(t *testing.T) {
	t.Parallel()
	f := newFixture()
	productID, variantID := f.seedProduct(10, 5)

	cart, err := f.cartSvc.AddItem(context.Background(), 1, productID, variantID, 2)
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	// Hausse : décrément conditionnel du delta.
	cart, err = f.cartSvc.UpdateItemQuantity(context.Background(), 1, itemID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, cart.Items[0].Quantity)
	assert.Equal(t, 1, f.ledger.get(productID, variantID))
	assert.Equal(t, 40.0, cart.TotalAmount)

	// Baisse : restitution du delta.
	cart, err = f.cartSvc.UpdateItemQuantity(context.Background(), 1, itemID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, cart.Items[0].Quantity)
	assert.Equal(t, 4, f.ledger.get(productID, variantID))

	_, err = f.cartSvc.UpdateItemQuantity(context.Background(), 1, itemID, 0)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.cartSvc.UpdateItemQuantity(context.Background(), 1, "ligne-inconnue", 2)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestUpdateItemQuantityInsufficientKeepsCart(t *testing.T) {
	t.Parallel()
	f := newFixture()
	productID, variantID := f.seedProduct(10, 5)

	cart, err := f.cartSvc.AddItem(context.Background(), 1, productID, variantID, 2)
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	_, err = f.cartSvc.UpdateItemQuantity(context.Background(), 1, itemID, 10)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	saved, err := f.cartSvc.GetOrCreate(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, saved.Items[0].Quantity, "quantité inchangée après refus")
	assert.Equal(t, 3, f.ledger.get(productID, variantID))
}

func TestRemoveItemRestoresFullReservation(t *testing.T) {
	t.Parallel()
	f := newFixture()
	productID, variantID := f.seedProduct(10, 5)

	cart, err := f.cartSvc.AddItem(context.Background(), 1, productID, variantID, 3)
	require.NoError(t, err)

	cart, err = f.cartSvc.RemoveItem(context.Background(), 1, cart.Items[0].ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Zero(t, cart.TotalAmount)
	assert.Equal(t, 5, f.ledger.get(productID, variantID))
}

func TestExpiredCartRestoresStockOnRead(t *testing.T) {
	t.Parallel()
	f := newFixture()
	productID, variantID := f.seedProduct(10, 5)

	first, err := f.cartSvc.AddItem(context.Background(), 1, productID, variantID, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, f.ledger.get(productID, variantID))

	f.advance(CartTTL + time.Second)

	fresh, err := f.cartSvc.GetOrCreate(context.Background(), 1)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, fresh.ID, "panier expiré remplacé")
	assert.Empty(t, fresh.Items)
	assert.Equal(t, 5, f.ledger.get(productID, variantID), "stock restitué à l'expiration")
}

func TestExpiredCartReplacedOnAdd(t *testing.T) {
	t.Parallel()
	f := newFixture()
	productID, variantID := f.seedProduct(10, 5)

	_, err := f.cartSvc.AddItem(context.Background(), 1, productID, variantID, 2)
	require.NoError(t, err)

	f.advance(CartTTL + time.Minute)

	cart, err := f.cartSvc.AddItem(context.Background(), 1, productID, variantID, 1)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 1, cart.Items[0].Quantity)
	// 5 restitués à l'expiration, 1 re-réservé.
	assert.Equal(t, 4, f.ledger.get(productID, variantID))
}

func TestActivityRefreshesExpiry(t *testing.T) {
	t.Parallel()
	f := newFixture()
	productID, variantID := f.seedProduct(10, 5)

	first, err := f.cartSvc.AddItem(context.Background(), 1, productID, variantID, 1)
	require.NoError(t, err)

	// Chaque écriture repousse l'échéance.
	f.advance(CartTTL - time.Minute)
	_, err = f.cartSvc.AddItem(context.Background(), 1, productID, variantID, 1)
	require.NoError(t, err)

	f.advance(CartTTL - time.Minute)
	cart, err := f.cartSvc.GetOrCreate(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, first.ID, cart.ID, "panier toujours vivant")
	assert.Equal(t, 2, cart.Items[0].Quantity)
}

func TestAddItemSaveFailureCompensates(t *testing.T) {
	t.Parallel()
	f := newFixture()
	productID, variantID := f.seedProduct(10, 5)

	// Le panier doit exister avant de casser Save.
	_, err := f.cartSvc.GetOrCreate(context.Background(), 1)
	require.NoError(t, err)
	f.carts.failSave = true

	_, err = f.cartSvc.AddItem(context.Background(), 1, productID, variantID, 2)
	require.ErrorIs(t, err, errSaveFailed)
	assert.Equal(t, 5, f.ledger.get(productID, variantID), "réservation annulée après échec de sauvegarde")

	f.carts.failSave = false
	saved, err := f.cartSvc.GetOrCreate(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, saved.Items)
}

func TestConcurrentAddsLastUnit(t *testing.T) {
	t.Parallel()
	f := newFixture()
	productID, variantID := f.seedProduct(10, 1)

	const users = 8
	errs := make([]error, users)
	var wg sync.WaitGroup
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.cartSvc.AddItem(context.Background(), int64(100+i), productID, variantID, 1)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, ErrInsufficientStock)
		}
	}
	assert.Equal(t, 1, wins, "une seule réservation pour la dernière unité")
	assert.Equal(t, 0, f.ledger.get(productID, variantID))
}
