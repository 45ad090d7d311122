package main

import (
	"context"
	cryptorand "crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	admin "campus-market/internal/adminService"
	"campus-market/internal/auth"
	bidding "campus-market/internal/biddingService"
	"campus-market/internal/clock"
	"campus-market/internal/config"
	model "campus-market/internal/models"
	product "campus-market/internal/productService"
	"campus-market/internal/repository"
	"campus-market/internal/server"
	"campus-market/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := run(); err != nil {
		utils.Fatal("server stopped with error", map[string]any{"error": err.Error()})
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	utils.SetLevel(cfg.LogLevel)
	gin.SetMode(gin.ReleaseMode)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.StoreConnectTimeout)
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	tokens, closeTokens, err := openTokenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeTokens()

	authenticator, err := newAuthenticator(cfg, tokens)
	if err != nil {
		return err
	}

	clk := clock.NewRealClock()
	productSvc := product.NewProductService(store, clk)
	if cfg.SeedDemoData {
		if err := seedDemoData(ctx, productSvc); err != nil {
			return err
		}
	}

	router := server.SetupRouter(server.Dependencies{
		Store:    store,
		Products: productSvc,
		Bidding:  bidding.NewBiddingService(store, clk),
		Admin:    admin.NewAdminService(store, clk),
		Auth:     authenticator,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		utils.Info("starting campus market server", map[string]any{"addr": srv.Addr, "store": cfg.StoreDriver})
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		utils.Info("shutdown started", map[string]any{"signal": sig.String()})

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			if err := srv.Close(); err != nil {
				return fmt.Errorf("could not stop server gracefully: %w", err)
			}
		}
		utils.Info("shutdown complete", nil)
	}
	return nil
}

// openStore connects the configured backend and returns a cleanup func
func openStore(ctx context.Context, cfg *config.Config) (repository.MarketDB, func(), error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		repo, err := repository.NewPostgresRepo(ctx, cfg.PostgresURL, repository.PoolOptions{
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.DBConnMaxLifetime,
			ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
		})
		if err != nil {
			return nil, nil, err
		}
		if err := repo.InitSchema(ctx); err != nil {
			_ = repo.Close()
			return nil, nil, err
		}
		return repo, func() {
			if err := repo.Close(); err != nil {
				utils.Warn("failed to close postgres", map[string]any{"error": err.Error()})
			}
		}, nil

	case config.StoreMongo:
		repo, err := repository.NewMongoRepo(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, nil, err
		}
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = repo.Close(context.Background())
			return nil, nil, err
		}
		return repo, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := repo.Close(ctx); err != nil {
				utils.Warn("failed to close mongo", map[string]any{"error": err.Error()})
			}
		}, nil

	default:
		utils.Warn("using in-memory store, data is lost on restart", nil)
		return repository.NewMemoryRepo(), func() {}, nil
	}
}

func openTokenStore(ctx context.Context, cfg *config.Config) (auth.TokenStore, func(), error) {
	if !cfg.UseRedis() {
		return auth.NewMemoryTokenStore(), func() {}, nil
	}

	store, err := auth.NewRedisTokenStore(ctx, &redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		PoolSize:     cfg.RedisPoolSize,
		MinIdleConns: cfg.RedisMinIdleConns,
		MaxRetries:   cfg.RedisMaxRetries,
		DialTimeout:  cfg.RedisDialTimeout,
		ReadTimeout:  cfg.RedisReadTimeout,
		WriteTimeout: cfg.RedisWriteTimeout,
	})
	if err != nil {
		return nil, nil, err
	}
	return store, func() {
		if err := store.Close(); err != nil {
			utils.Warn("failed to close redis", map[string]any{"error": err.Error()})
		}
	}, nil
}

func newAuthenticator(cfg *config.Config, tokens auth.TokenStore) (*auth.Authenticator, error) {
	hash := []byte(cfg.AdminPasswordHash)
	if len(hash) == 0 {
		password := cfg.AdminPassword
		if password == "" {
			password = "admin123"
			utils.Warn("ADMIN_PASSWORD_HASH and ADMIN_PASSWORD unset, using the demo admin password", nil)
		}
		var err error
		if hash, err = auth.HashPassword(password); err != nil {
			return nil, err
		}
	}

	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := cryptorand.Read(secret); err != nil {
			return nil, fmt.Errorf("failed to generate JWT secret: %w", err)
		}
		utils.Warn("JWT_SECRET unset, admin sessions will not survive a restart", nil)
	}

	return auth.NewAuthenticator(cfg.AdminUsername, hash, secret, cfg.JWTTTL, tokens), nil
}

// seedDemoData adds sample listings to an empty store
func seedDemoData(ctx context.Context, products *product.ProductService) error {
	existing, err := products.ListProducts(ctx, model.ProductFilter{})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	two := 2
	samples := []product.CreateInput{
		{Title: "Hero Sprint Cycle", Description: "Gear cycle, 1 year old", Category: "Cycles", Price: 2500, SellerContact: "919876543210", Location: "Sarayu Hostel"},
		{Title: "Engineering Mathematics Vol 2", Description: "B.S. Grewal, lightly annotated", Category: "Books", Price: 300, SellerContact: "919812345678", Location: "Library Gate"},
		{Title: "Table Lamp", Category: "Electronics", Price: 450, SellerContact: "919898989898", Location: "Ganga Hostel"},
		{Title: "Dinner coupons", Category: "Mess Coupons", Price: 60, SellerContact: "919811112222", Location: "SGR Mess", IsCoupon: true, MessName: "SGR", MealType: "Dinner", Quantity: &two},
	}
	for _, in := range samples {
		if _, err := products.CreateProduct(ctx, in); err != nil {
			return fmt.Errorf("failed to seed demo data: %w", err)
		}
	}
	utils.Info("seeded demo listings", map[string]any{"count": len(samples)})
	return nil
}
