package shop

import "errors"

// Erreurs de domaine — les handlers s'appuient sur errors.Is pour choisir le
// code HTTP. On distingue bien le stock insuffisant (réessayable avec une
// quantité moindre) des erreurs de validation.
var (
	// ErrValidation : entrée invalide, rien n'a été modifié.
	ErrValidation = errors.New("données invalides")

	// ErrInsufficientStock : la décrémentation conditionnelle n'a rien trouvé
	// à décrémenter — le client peut réessayer avec une quantité plus petite.
	ErrInsufficientStock = errors.New("stock insuffisant")

	// ErrProductNotFound / ErrCategoryNotFound / ErrItemNotFound /
	// ErrOrderNotFound : 404.
	ErrProductNotFound  = errors.New("produit introuvable")
	ErrCategoryNotFound = errors.New("catégorie introuvable")
	ErrItemNotFound     = errors.New("article introuvable dans le panier")
	ErrOrderNotFound    = errors.New("commande introuvable")

	// ErrCartEmpty : impossible de passer commande sur un panier vide.
	ErrCartEmpty = errors.New("panier vide")

	// ErrAddressLocked : l'adresse n'est plus modifiable pour ce statut.
	ErrAddressLocked = errors.New("adresse non modifiable pour ce statut")

	// ErrStatusLocked : la commande est dans un état terminal.
	ErrStatusLocked = errors.New("statut terminal, transition interdite")
)
