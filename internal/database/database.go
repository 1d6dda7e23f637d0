package database

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// --- Variables Globales ---
var (
	MongoClient   *mongo.Client
	MongoDB       *mongo.Database
	Redis         *redis.Client
	ElasticClient *elasticsearch.Client
	MinIO         *minio.Client
)

// --- Initialisation ---
func ConnectDatabases() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 1. Initialiser MongoDB
	connectMongo(ctx)

	// 2. Initialiser Redis
	connectRedis(ctx)

	// 3. Initialiser Elasticsearch (optionnel)
	connectElastic()

	// 4. Initialiser MinIO
	connectMinIO(ctx)

	log.Println("✅ Toutes les bases de données sont connectées")
}

// =============================================
// MONGODB
// =============================================
func connectMongo(ctx context.Context) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}
	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "miniapp"
	}

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(5*time.Second).
		SetMaxPoolSize(50))
	if err != nil {
		log.Fatal("❌ Erreur connexion MongoDB:", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		log.Fatal("❌ MongoDB injoignable:", err)
	}

	MongoClient = client
	MongoDB = client.Database(dbName)
	log.Println("✅ Connecté à MongoDB :", dbName)

	ensureIndexes(ctx)
}

// ensureIndexes pose les index nécessaires (un seul panier par user, etc.)
func ensureIndexes(ctx context.Context) {
	_, err := MongoDB.Collection("carts").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    map[string]interface{}{"user_id": 1},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		log.Println("⚠️ Impossible de créer l'index unique carts.user_id:", err)
	}

	_, err = MongoDB.Collection("customers").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    map[string]interface{}{"user_id": 1},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		log.Println("⚠️ Impossible de créer l'index unique customers.user_id:", err)
	}
}

// CloseMongo ferme la connexion MongoDB
func CloseMongo() {
	if MongoClient != nil {
		if err := MongoClient.Disconnect(context.Background()); err != nil {
			log.Println("⚠️ Erreur fermeture MongoDB:", err)
		} else {
			log.Println("🔌 Connexion MongoDB fermée")
		}
	}
}

// =============================================
// REDIS (cache catalogue + rate limiting)
// =============================================
func connectRedis(ctx context.Context) {
	Redis = redis.NewClient(&redis.Options{
		Addr:     os.Getenv("REDIS_HOST"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})
	if err := Redis.Ping(ctx).Err(); err != nil {
		log.Fatal("❌ Erreur connexion Redis:", err)
	}
	log.Println("✅ Connecté à Redis")
}

// =============================================
// ELASTICSEARCH (optionnel — recherche produits)
// =============================================
func connectElastic() {
	url := os.Getenv("ELASTIC_URL")
	if url == "" {
		log.Println("⚠️ ELASTIC_URL non configuré — recherche désactivée")
		return
	}

	cfg := elasticsearch.Config{
		Addresses: []string{url},
		Username:  os.Getenv("ELASTIC_USER"),
		Password:  os.Getenv("ELASTIC_PASSWORD"),
	}

	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		log.Println("⚠️ Erreur création client Elasticsearch:", err)
		return
	}

	res, err := client.Info()
	if err != nil {
		log.Println("⚠️ Elasticsearch injoignable — recherche désactivée:", err)
		return
	}
	defer res.Body.Close()

	ElasticClient = client
	log.Println("✅ Connecté à Elasticsearch")
}

// =============================================
// MINIO (justificatifs de paiement)
// =============================================
func connectMinIO(ctx context.Context) {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	accessKey := os.Getenv("MINIO_ACCESS_KEY")
	secretKey := os.Getenv("MINIO_SECRET_KEY")
	useSSL := os.Getenv("MINIO_USE_SSL") == "true"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		log.Fatal("❌ Erreur connexion MinIO:", err)
	}

	bucketName := os.Getenv("MINIO_BUCKET")
	if bucketName == "" {
		bucketName = "receipts"
	}
	exists, err := client.BucketExists(ctx, bucketName)
	if err != nil {
		log.Fatal("❌ Erreur vérification bucket MinIO:", err)
	}
	if !exists {
		err = client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{})
		if err != nil {
			log.Fatal("❌ Erreur création bucket MinIO:", err)
		}
		log.Println("🪣 Bucket créé :", bucketName)
	} else {
		log.Println("🪣 Bucket MinIO déjà présent :", bucketName)
	}

	MinIO = client
	log.Println("✅ Connecté à MinIO :", endpoint)
}
