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

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hms/hms/internal/config"
	"github.com/hms/hms/internal/domain/identity"
	"github.com/hms/hms/internal/domain/medication"
	"github.com/hms/hms/internal/domain/medsafety"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/internal/platform/metrics"
	"github.com/hms/hms/internal/platform/middleware"
)

// PatientSourceAdapter adapts the identity service to the
// medsafety.PatientSource interface, avoiding circular imports between the
// medsafety and identity packages.
type PatientSourceAdapter struct {
	svc *identity.Service
}

func NewPatientSourceAdapter(svc *identity.Service) *PatientSourceAdapter {
	return &PatientSourceAdapter{svc: svc}
}

// GetPatient implements medsafety.PatientSource.
func (a *PatientSourceAdapter) GetPatient(ctx context.Context, id uuid.UUID) (*medsafety.PatientSnapshot, error) {
	p, err := a.svc.GetPatient(ctx, id)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, medsafety.ErrPatientNotFound
		}
		return nil, err
	}
	snapshot := &medsafety.PatientSnapshot{
		ID:        p.ID,
		Name:      p.FullName(),
		BirthDate: p.BirthDate,
		WeightKg:  p.WeightKg,
	}
	if p.Allergies != nil {
		snapshot.Allergies = *p.Allergies
	}
	return snapshot, nil
}

// TherapySourceAdapter adapts the medication service to the
// medsafety.TherapySource interface.
type TherapySourceAdapter struct {
	svc *medication.Service
}

func NewTherapySourceAdapter(svc *medication.Service) *TherapySourceAdapter {
	return &TherapySourceAdapter{svc: svc}
}

// ActiveMedicationOrders implements medsafety.TherapySource.
func (a *TherapySourceAdapter) ActiveMedicationOrders(ctx context.Context, patientID uuid.UUID) ([]medsafety.ActiveTherapy, error) {
	orders, err := a.svc.ListActiveOrders(ctx, patientID)
	if err != nil {
		return nil, err
	}
	result := make([]medsafety.ActiveTherapy, 0, len(orders))
	for _, o := range orders {
		result = append(result, medsafety.ActiveTherapy{
			Source:     "order",
			Details:    o.Details,
			RecordedAt: o.CreatedAt,
		})
	}
	return result, nil
}

// ActivePrescriptions implements medsafety.TherapySource.
func (a *TherapySourceAdapter) ActivePrescriptions(ctx context.Context, patientID uuid.UUID) ([]medsafety.ActiveTherapy, error) {
	prescriptions, err := a.svc.ListActivePrescriptions(ctx, patientID)
	if err != nil {
		return nil, err
	}
	result := make([]medsafety.ActiveTherapy, 0, len(prescriptions))
	for _, p := range prescriptions {
		result = append(result, medsafety.ActiveTherapy{
			Source:     "prescription",
			DrugName:   p.DrugName,
			RecordedAt: p.CreatedAt,
		})
	}
	return result, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "hms-server",
		Short: "Hospital Management System API Server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HMS API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(metrics.Middleware())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Auth middleware
	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:   cfg.AuthIssuer,
			Audience: cfg.AuthAudience,
			JWKSURL:  cfg.AuthJWKSURL,
		}))
	}

	// API group with request timeout and rate limiting
	apiV1 := e.Group("/api/v1")
	apiV1.Use(middleware.Timeout(30 * time.Second))
	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	// Health and metrics
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))
	e.GET("/metrics", metrics.Handler())

	// Identity domain
	patientRepo := identity.NewPatientRepoPG(pool)
	identitySvc := identity.NewService(patientRepo)
	identity.NewHandler(identitySvc).RegisterRoutes(apiV1)

	// Medication domain
	orderRepo := medication.NewOrderRepoPG(pool)
	rxRepo := medication.NewPrescriptionRepoPG(pool)
	medicationSvc := medication.NewService(orderRepo, rxRepo)
	medication.NewHandler(medicationSvc).RegisterRoutes(apiV1)

	// Medication safety engine
	medsafetySvc := medsafety.NewService(
		NewPatientSourceAdapter(identitySvc),
		NewTherapySourceAdapter(medicationSvc),
		medsafety.DefaultDrugClassRegistry(),
		medsafety.DefaultDoseReferences(),
		logger,
	)
	medsafety.NewHandler(medsafetySvc).RegisterRoutes(apiV1)

	// Start server with graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
