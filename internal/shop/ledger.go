package shop

import "context"

// VariantLedger : registre des quantités par variante. C'est LE point de
// contrôle contre la survente — Decrement doit être une unique mise à jour
// conditionnelle atomique côté stockage (pas de read-modify-write).
//
// Restore est l'inverse inconditionnel : une variante disparue entre-temps
// n'est pas une erreur, il n'y a simplement rien à restituer.
type VariantLedger interface {
	// Decrement retourne false (sans rien modifier) si la variante n'existe
	// pas ou si quantity < qty. qty <= 0 est un no-op qui réussit.
	Decrement(ctx context.Context, productID, variantID string, qty int) (bool, error)

	// Restore ré-incrémente la quantité. qty <= 0 est un no-op.
	Restore(ctx context.Context, productID, variantID string, qty int) error
}
