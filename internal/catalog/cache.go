package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"minishop_back_end/internal/models"
)

// Payload : listing complet catégories + produits servi au storefront.
// La sérialisation JSON est déterministe (ordre des champs de struct), ce qui
// rend l'ETag stable d'une instance à l'autre.
type Payload struct {
	Categories []models.Category `json:"categories"`
	Products   []models.Product  `json:"products"`
}

// Loader charge le listing depuis la base.
type Loader interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
}

// VersionSource : jeton de version partagé entre instances (voir
// store.CatalogVersions). Injectable pour substituer une fausse source en
// test.
type VersionSource interface {
	Current(ctx context.Context) (string, error)
	Bump(ctx context.Context) (string, error)
}

// Cache : cache read-through du catalogue, borné par un TTL local ET par le
// jeton de version partagé — même à l'intérieur du TTL, un jeton qui a changé
// invalide la copie locale (déploiement multi-instances). Le remplissage est
// single-flight : les lecteurs en cache-miss concourants se réduisent à un
// seul chargement base.
type Cache struct {
	Loader   Loader
	Versions VersionSource
	Redis    *redis.Client // second niveau optionnel, partagé entre instances
	TTL      time.Duration
	Now      func() time.Time

	mu      sync.Mutex
	payload []byte
	etag    string
	version string
	expires time.Time
}

func (c *Cache) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now().UTC()
}

// Get retourne le JSON sérialisé du catalogue et son ETag.
func (c *Cache) Get(ctx context.Context) ([]byte, string, error) {
	if c.TTL <= 0 {
		return c.load(ctx, "")
	}

	version := ""
	if c.Versions != nil {
		v, err := c.Versions.Current(ctx)
		if err != nil {
			// Sans jeton on retombe sur le TTL local seul.
			log.Printf("⚠️ Jeton de version catalogue indisponible: %v", err)
		} else {
			version = v
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.payload != nil && c.now().Before(c.expires) && (version == "" || version == c.version) {
		return c.payload, c.etag, nil
	}

	// Second niveau Redis, clé par version : une version périmée n'est
	// jamais servie, et les instances sœurs partagent un seul chargement.
	if c.Redis != nil && version != "" {
		data, err := c.Redis.Get(ctx, "catalog:"+version).Bytes()
		if err == nil && len(data) > 0 {
			etag, eerr := c.Redis.Get(ctx, "catalog_etag:"+version).Result()
			if eerr == nil && etag != "" {
				c.store(data, etag, version)
				return data, etag, nil
			}
		}
	}

	payload, etag, err := c.load(ctx, version)
	if err != nil {
		return nil, "", err
	}
	c.store(payload, etag, version)
	return payload, etag, nil
}

// load charge depuis la base, sérialise, calcule l'ETag (sha256 du JSON) et
// alimente le second niveau Redis si disponible.
func (c *Cache) load(ctx context.Context, version string) ([]byte, string, error) {
	categories, err := c.Loader.ListCategories(ctx)
	if err != nil {
		return nil, "", err
	}
	products, err := c.Loader.ListProducts(ctx)
	if err != nil {
		return nil, "", err
	}

	payload, err := json.Marshal(Payload{Categories: categories, Products: products})
	if err != nil {
		return nil, "", err
	}
	sum := sha256.Sum256(payload)
	etag := hex.EncodeToString(sum[:])

	if c.Redis != nil && version != "" && c.TTL > 0 {
		ttl := 5 * c.TTL
		if err := c.Redis.Set(ctx, "catalog:"+version, payload, ttl).Err(); err != nil {
			log.Printf("⚠️ Cache Redis catalogue non alimenté: %v", err)
		} else {
			c.Redis.Set(ctx, "catalog_etag:"+version, etag, ttl)
		}
	}

	return payload, etag, nil
}

func (c *Cache) store(payload []byte, etag, version string) {
	c.payload = payload
	c.etag = etag
	c.version = version
	c.expires = c.now().Add(c.TTL)
}

// Invalidate : appelé après chaque écriture admin sur le catalogue. Régénère
// le jeton partagé (visible par toutes les instances) et vide la copie
// locale.
func (c *Cache) Invalidate(ctx context.Context) {
	if c.Versions != nil {
		if _, err := c.Versions.Bump(ctx); err != nil {
			log.Printf("⚠️ Impossible de régénérer le jeton de version catalogue: %v", err)
		}
	}
	c.mu.Lock()
	c.payload = nil
	c.etag = ""
	c.version = ""
	c.expires = time.Time{}
	c.mu.Unlock()
}
