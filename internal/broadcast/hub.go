package broadcast

import (
	"log"
	"sync"
)

// Taille de la file par abonné : un client qui ne consomme pas assez vite
// est désabonné plutôt que de bloquer l'éditeur.
const subscriberBuffer = 8

// Subscriber : file bornée d'instantanés sérialisés. Le canal est fermé au
// désabonnement.
type Subscriber struct {
	C   chan []byte
	hub *Hub
}

// Close désabonne et ferme le canal.
func (s *Subscriber) Close() {
	s.hub.unsubscribe(s)
}

// Hub : pub/sub en mémoire du statut boutique. Construit explicitement et
// injecté (pas de variable de module) pour pouvoir être réinitialisé en test.
// Un nouvel abonné reçoit uniquement l'instantané courant puis les
// publications futures — rien n'est persisté.
type Hub struct {
	mu          sync.Mutex
	subscribers map[*Subscriber]struct{}
	current     []byte
}

func NewHub() *Hub {
	return &Hub{subscribers: make(map[*Subscriber]struct{})}
}

// Subscribe enregistre un abonné et lui pousse l'instantané courant s'il
// existe.
func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{C: make(chan []byte, subscriberBuffer), hub: h}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribers[sub] = struct{}{}
	if h.current != nil {
		sub.C <- h.current
	}
	return sub
}

func (h *Hub) unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subscribers[sub]; ok {
		delete(h.subscribers, sub)
		close(sub.C)
	}
}

// Publish pousse l'instantané à chaque abonné vivant, sans jamais bloquer :
// une file pleine vaut désabonnement immédiat.
func (h *Hub) Publish(snapshot []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = snapshot

	for sub := range h.subscribers {
		select {
		case sub.C <- snapshot:
		default:
			log.Println("⚠️ Abonné trop lent, désabonnement forcé")
			delete(h.subscribers, sub)
			close(sub.C)
		}
	}
}

// Current : dernier instantané publié, nil si aucun.
func (h *Hub) Current() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Count : nombre d'abonnés vivants (utilisé par les tests).
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}
