package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/dao"
	"storefront/internal/dao/db"
	"storefront/internal/dao/fs"
	"storefront/internal/database"
	"storefront/internal/logging"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/realtime"
	"storefront/internal/routes"
	"storefront/internal/session"
)

const shutdownTimeout = 10 * time.Second

var mode string

var rootCmd = &cobra.Command{
	Use:          "storefront",
	Short:        "Tienda con vistas renderizadas en el servidor",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().StringVarP(&mode, "mode", "m", config.ModeDevelopment, "modo de ejecución (produccion|desarrollo)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, loaded, err := config.Load(mode)
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.Production())
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	if loaded {
		log.Info("✅ Configuración cargada", zap.String("mode", cfg.Mode), zap.String("file", cfg.EnvFile))
	} else {
		log.Warn("⚠️ Archivo de entorno no encontrado, se usan las variables del proceso", zap.String("file", cfg.EnvFile))
	}
	if cfg.SessionSecret == "" {
		return errors.New("SESSION_SECRET no configurado")
	}

	conns, err := database.Connect(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer conns.Close(context.Background())

	if err := db.EnsureIndexes(ctx, conns.DB); err != nil {
		log.Warn("⚠️ Índices MongoDB", zap.Error(err))
	}

	catalogue, lookup, err := productStore(cfg, conns, log)
	if err != nil {
		return err
	}
	products := catalogue
	if conns.Redis != nil {
		cached := cache.NewProductCache(catalogue, conns.Redis, cfg.CacheTTL, log)
		warmupCache(ctx, cached, log)
		products = cached
	}

	// attempts stays a nil interface without Redis, which disables the limit.
	var attempts middleware.AttemptStore
	if conns.Redis != nil {
		attempts = middleware.NewRedisAttempts(conns.Redis)
	}

	live := realtime.NewProducts(products, log)
	chat := realtime.NewChat(db.NewMessageManager(conns.DB), log)
	go live.Run(ctx)
	go chat.Run(ctx)

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))

	err = routes.RegisterRoutes(r, routes.Deps{
		Products:         products,
		Carts:            db.NewCartManager(conns.DB, lookup),
		Users:            db.NewUserManager(conns.DB),
		Sessions:         session.NewManager(cfg.SessionSecret, cfg.Production()),
		Attempts:         attempts,
		RealtimeProducts: live,
		Chat:             chat,
		AllowedOrigins:   cfg.AllowedOrigins,
		Log:              log,
	})
	if err != nil {
		return fmt.Errorf("rutas: %w", err)
	}

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("🚀 Servidor iniciado", zap.String("addr", server.Addr), zap.String("mode", cfg.Mode))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("servidor: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("🛑 Señal recibida, cerrando servidor")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("cierre del servidor: %w", err)
	}
	log.Info("✅ Servidor detenido")
	return nil
}

// productStore picks the catalogue backend. The lookup is the same store,
// uncached, so cart lines always resolve against the live catalogue.
func productStore(cfg config.Config, conns *database.Connections, log *zap.Logger) (dao.ProductRepository, dao.ProductLookup, error) {
	switch cfg.ProductsStore {
	case config.StoreFS:
		m := fs.NewProductManager(cfg.ProductsFile)
		log.Info("📦 Catálogo en archivo", zap.String("path", m.Path()))
		return m, m, nil
	case config.StoreMongo, "":
		m := db.NewProductManager(conns.DB)
		log.Info("📦 Catálogo en MongoDB")
		return m, m, nil
	}
	return nil, nil, fmt.Errorf("PRODUCTS_STORE desconocido: %q", cfg.ProductsStore)
}

// warmupCache fills the first listing page so the first visitor hits Redis.
func warmupCache(ctx context.Context, products dao.ProductRepository, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if _, err := products.GetProducts(ctx, models.QueryOptions{}.Normalized()); err != nil {
		log.Warn("⚠️ Pre-calentado de caché", zap.Error(err))
		return
	}
	log.Info("✅ Caché de productos pre-calentada")
}
