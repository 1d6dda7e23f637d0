package shop

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"minishop_back_end/internal/models"
)

func checkoutInput(userID int64) CreateOrderInput {
	return CreateOrderInput{
		UserID:             userID,
		Name:               "Alice Martin",
		Phone:              "+33612345678",
		Address:            "12 rue des Lilas, Paris",
		Receipt:            []byte("fake-receipt-bytes"),
		ReceiptFilename:    "virement.jpg",
		ReceiptContentType: "image/jpeg",
	}
}

func TestCreateOrderValidation(t *testing.T) {
	t.Parallel()
	f := newFixture()

	tests := []struct {
		name   string
		mutate func(*CreateOrderInput)
	}{
		{"nom manquant", func(in *CreateOrderInput) { in.Name = "  " }},
		{"téléphone manquant", func(in *CreateOrderInput) { in.Phone = "" }},
		{"adresse manquante", func(in *CreateOrderInput) { in.Address = "" }},
		{"justificatif manquant", func(in *CreateOrderInput) { in.Receipt = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := checkoutInput(1)
			tt.mutate(&in)
			_, err := f.orderSvc.CreateOrder(context.Background(), in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestCreateOrderEmptyCart(t *testing.T) {
	t.Parallel()
	f := newFixture()

	_, err := f.orderSvc.CreateOrder(context.Background(), checkoutInput(1))
	assert.ErrorIs(t, err, ErrCartEmpty)
}

// Scénario complet : 5 en stock, 3 au panier, commande, annulation — le
// stock revient exactement à 5.
func TestCheckoutThenCancelRestoresStock(t *testing.T) {
	t.Parallel()
	f := newFixture()
	productID, variantID := f.seedProduct(20, 5)

	_, err := f.cartSvc.AddItem(context.Background(), 1, productID, variantID, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, f.ledger.get(productID, variantID))

	order, err := f.orderSvc.CreateOrder(context.Background(), checkoutInput(1))
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, order.Status)
	assert.True(t, order.CanEditAddress)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 3, order.Items[0].Quantity)
	assert.Equal(t, 60.0, order.TotalAmount)
	require.NotNil(t, order.PaymentReceipt)
	assert.Equal(t, 1, f.blobs.count())

	// Le panier est passé dans la commande, le stock reste réservé.
	fresh, err := f.cartSvc.GetOrCreate(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, fresh.Items)
	assert.Equal(t, 2, f.ledger.get(productID, variantID))
	assert.Equal(t, []string{order.ID.Hex()}, f.notifier.newOrders)

	// Annulation : chaque ligne est restituée.
	canceled, err := f.orderSvc.UpdateStatus(context.Background(), order.ID.Hex(), models.StatusCanceled)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCanceled, canceled.Status)
	assert.Equal(t, 5, f.ledger.get(productID, variantID))
	assert.Equal(t, []models.OrderStatus{models.StatusCanceled}, f.notifier.statusChanges)
}

func TestCancelRestoresEachVariant(t *testing.T) {
	t.Parallel()
	f := newFixture()
	productA, variantA := f.seedProduct(15, 5)
	productB, variantB := f.seedProduct(8, 4)

	_, err := f.cartSvc.AddItem(context.Background(), 1, productA, variantA, 3)
	require.NoError(t, err)
	_, err = f.cartSvc.AddItem(context.Background(), 1, productB, variantB, 1)
	require.NoError(t, err)

	order, err := f.orderSvc.CreateOrder(context.Background(), checkoutInput(1))
	require.NoError(t, err)
	require.Len(t, order.Items, 2)
	assert.Equal(t, 2, f.ledger.get(productA, variantA))
	assert.Equal(t, 3, f.ledger.get(productB, variantB))

	_, err = f.orderSvc.UpdateStatus(context.Background(), order.ID.Hex(), models.StatusCanceled)
	require.NoError(t, err)
	assert.Equal(t, 5, f.ledger.get(productA, variantA), "+3 sur la première variante")
	assert.Equal(t, 4, f.ledger.get(productB, variantB), "+1 sur la seconde variante")
}

func TestCancelTwiceRestoresOnce(t *testing.T) {
	t.Parallel()
	f := newFixture()
	productID, variantID := f.seedProduct(10, 5)

	_, err := f.cartSvc.AddItem(context.Background(), 1, productID, variantID, 2)
	require.NoError(t, err)
	order, err := f.orderSvc.CreateOrder(context.Background(), checkoutInput(1))
	require.NoError(t, err)

	_, err = f.orderSvc.UpdateStatus(context.Background(), order.ID.Hex(), models.StatusCanceled)
	require.NoError(t, err)
	assert.Equal(t, 5, f.ledger.get(productID, variantID))

	// Seconde annulation : no-op, pas de double restitution.
	again, err := f.orderSvc.UpdateStatus(context.Background(), order.ID.Hex(), models.StatusCanceled)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCanceled, again.Status)
	assert.Equal(t, 5, f.ledger.get(productID, variantID))
	assert.Len(t, f.notifier.statusChanges, 1, "une seule notification d'annulation")
}

func TestTerminalStatusLocksTransitions(t *testing.T) {
	t.Parallel()
	f := newFixture()
	productID, variantID := f.seedProduct(10, 5)

	_, err := f.cartSvc.AddItem(context.Background(), 1, productID, variantID, 1)
	require.NoError(t, err)
	order, err := f.orderSvc.CreateOrder(context.Background(), checkoutInput(1))
	require.NoError(t, err)

	_, err = f.orderSvc.UpdateStatus(context.Background(), order.ID.Hex(), models.StatusDone)
	require.NoError(t, err)

	_, err = f.orderSvc.UpdateStatus(context.Background(), order.ID.Hex(), models.StatusShipped)
	assert.ErrorIs(t, err, ErrStatusLocked)

	// Annuler une commande terminée est refusé aussi — pas de restitution.
	_, err = f.orderSvc.UpdateStatus(context.Background(), order.ID.Hex(), models.StatusCanceled)
	assert.ErrorIs(t, err, ErrStatusLocked)
	assert.Equal(t, 4, f.ledger.get(productID, variantID))
}

func TestUpdateStatusUnknown(t *testing.T) {
	t.Parallel()
	f := newFixture()

	_, err := f.orderSvc.UpdateStatus(context.Background(), primitive.NewObjectID().Hex(), models.OrderStatus("expédiée"))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.orderSvc.UpdateStatus(context.Background(), primitive.NewObjectID().Hex(), models.StatusAccepted)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestConcurrentCancelGuard(t *testing.T) {
	t.Parallel()
	f := newFixture()
	productID, variantID := f.seedProduct(10, 5)

	_, err := f.cartSvc.AddItem(context.Background(), 1, productID, variantID, 2)
	require.NoError(t, err)
	order, err := f.orderSvc.CreateOrder(context.Background(), checkoutInput(1))
	require.NoError(t, err)

	// L'autre point d'entrée annule entre notre lecture et notre écriture :
	// la garde refuse la seconde écriture et on ressort l'état courant.
	_, err = f.orders.SetStatus(context.Background(), order.ID, models.StatusCanceled, false, time.Now(), false)
	require.NoError(t, err)

	result, err := f.orderSvc.UpdateStatus(context.Background(), order.ID.Hex(), models.StatusCanceled)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCanceled, result.Status)
}

func TestCreateOrderInsertFailureDeletesReceipt(t *testing.T) {
	t.Parallel()
	f := newFixture()
	productID, variantID := f.seedProduct(10, 5)

	_, err := f.cartSvc.AddItem(context.Background(), 1, productID, variantID, 2)
	require.NoError(t, err)
	f.orders.failInsert = true

	_, err = f.orderSvc.CreateOrder(context.Background(), checkoutInput(1))
	require.ErrorIs(t, err, errInsertFailed)
	assert.Equal(t, 0, f.blobs.count(), "justificatif effacé en compensation")

	// Panier et réservation intacts : un nouvel essai ne re-réserve rien.
	cart, err := f.cartSvc.GetOrCreate(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, f.ledger.get(productID, variantID))

	f.orders.failInsert = false
	_, err = f.orderSvc.CreateOrder(context.Background(), checkoutInput(1))
	require.NoError(t, err)
	assert.Equal(t, 3, f.ledger.get(productID, variantID))
}

func TestUpdateAddressRules(t *testing.T) {
	t.Parallel()
	f := newFixture()
	productID, variantID := f.seedProduct(10, 5)

	_, err := f.cartSvc.AddItem(context.Background(), 1, productID, variantID, 1)
	require.NoError(t, err)
	order, err := f.orderSvc.CreateOrder(context.Background(), checkoutInput(1))
	require.NoError(t, err)

	// Autorisé tant que la commande est en traitement.
	updated, err := f.orderSvc.UpdateAddress(context.Background(), order.ID.Hex(), 1, "7 avenue Victor Hugo, Lyon")
	require.NoError(t, err)
	assert.Equal(t, "7 avenue Victor Hugo, Lyon", updated.DeliveryAddress)

	// Pas le propriétaire : la commande "n'existe pas" pour lui.
	_, err = f.orderSvc.UpdateAddress(context.Background(), order.ID.Hex(), 999, "ailleurs")
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = f.orderSvc.UpdateAddress(context.Background(), order.ID.Hex(), 1, "  ")
	assert.ErrorIs(t, err, ErrValidation)

	// Une fois acceptée, l'adresse est verrouillée.
	accepted, err := f.orderSvc.UpdateStatus(context.Background(), order.ID.Hex(), models.StatusAccepted)
	require.NoError(t, err)
	assert.False(t, accepted.CanEditAddress)
	_, err = f.orderSvc.UpdateAddress(context.Background(), order.ID.Hex(), 1, "9 rue Neuve")
	assert.ErrorIs(t, err, ErrAddressLocked)
}

func TestLastOrder(t *testing.T) {
	t.Parallel()
	f := newFixture()
	productID, variantID := f.seedProduct(10, 10)

	none, err := f.orderSvc.LastOrder(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = f.cartSvc.AddItem(context.Background(), 1, productID, variantID, 1)
	require.NoError(t, err)
	first, err := f.orderSvc.CreateOrder(context.Background(), checkoutInput(1))
	require.NoError(t, err)

	f.advance(time.Minute)
	_, err = f.cartSvc.AddItem(context.Background(), 1, productID, variantID, 1)
	require.NoError(t, err)
	second, err := f.orderSvc.CreateOrder(context.Background(), checkoutInput(1))
	require.NoError(t, err)

	last, err := f.orderSvc.LastOrder(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, second.ID, last.ID)
	assert.NotEqual(t, first.ID, last.ID)
}

func TestListOrdersFiltersByStatus(t *testing.T) {
	t.Parallel()
	f := newFixture()
	productID, variantID := f.seedProduct(10, 10)

	for _, userID := range []int64{1, 2} {
		_, err := f.cartSvc.AddItem(context.Background(), userID, productID, variantID, 1)
		require.NoError(t, err)
		_, err = f.orderSvc.CreateOrder(context.Background(), checkoutInput(userID))
		require.NoError(t, err)
	}

	all, err := f.orderSvc.ListOrders(context.Background(), nil, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	status := models.StatusCanceled
	none, err := f.orderSvc.ListOrders(context.Background(), &status, 50)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSoftDeleteThenPurgeAfterGrace(t *testing.T) {
	t.Parallel()
	f := newFixture()
	productID, variantID := f.seedProduct(10, 5)

	_, err := f.cartSvc.AddItem(context.Background(), 1, productID, variantID, 1)
	require.NoError(t, err)
	order, err := f.orderSvc.CreateOrder(context.Background(), checkoutInput(1))
	require.NoError(t, err)

	require.NoError(t, f.orderSvc.SoftDelete(context.Background(), order.ID.Hex()))
	// Idempotent.
	require.NoError(t, f.orderSvc.SoftDelete(context.Background(), order.ID.Hex()))

	// Masquée des listes immédiatement.
	all, err := f.orderSvc.ListOrders(context.Background(), nil, 0)
	require.NoError(t, err)
	assert.Empty(t, all)

	// Dans la fenêtre de grâce : rien n'est purgé.
	f.orderSvc.SweepOnce(context.Background())
	assert.Equal(t, 1, f.orders.count())
	assert.Equal(t, 1, f.blobs.count())

	f.advance(PurgeGracePeriod + time.Minute)
	f.orderSvc.SweepOnce(context.Background())
	assert.Equal(t, 0, f.orders.count())
	assert.Equal(t, 0, f.blobs.count(), "justificatif purgé avec la commande")
}

func TestPurgeKeepsDocWhenBlobDeleteFails(t *testing.T) {
	t.Parallel()
	f := newFixture()
	productID, variantID := f.seedProduct(10, 5)

	_, err := f.cartSvc.AddItem(context.Background(), 1, productID, variantID, 1)
	require.NoError(t, err)
	order, err := f.orderSvc.CreateOrder(context.Background(), checkoutInput(1))
	require.NoError(t, err)
	require.NoError(t, f.orderSvc.SoftDelete(context.Background(), order.ID.Hex()))

	f.advance(PurgeGracePeriod + time.Minute)
	f.blobs.failDelete = true
	f.orderSvc.SweepOnce(context.Background())
	assert.Equal(t, 1, f.orders.count(), "document conservé pour réessayer le blob")

	f.blobs.failDelete = false
	f.orderSvc.SweepOnce(context.Background())
	assert.Equal(t, 0, f.orders.count())
}
