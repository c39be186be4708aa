package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/damont/track/internal/app"
	"github.com/damont/track/internal/config"
	"github.com/damont/track/internal/domain/repository"
	oauthsvc "github.com/damont/track/internal/http/services/oauth"
	"github.com/damont/track/internal/metrics"
	"github.com/damont/track/internal/observability/logger"
	"github.com/damont/track/internal/security/password"
	"github.com/damont/track/internal/store"
	"github.com/damont/track/internal/store/pg"
	migrations "github.com/damont/track/migrations/postgres"

	// Drivers de storage disponibles. El import de pg ya registra el suyo.
	_ "github.com/damont/track/internal/store/memory"
)

// version se inyecta en build con -ldflags "-X main.version=...".
var version = "dev"

func main() {
	var configPath string

	root := &cobra.Command{
		Use:           "track",
		Short:         "Track OAuth2 authorization server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "ruta al config YAML (env TRACK_CONFIG)")

	root.AddCommand(
		serveCmd(&configPath),
		migrateCmd(&configPath),
		clientCreateCmd(&configPath),
		userCreateCmd(&configPath),
		versionCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	_ = godotenv.Load()
	if path == "" {
		path = os.Getenv("TRACK_CONFIG")
	}
	return config.Load(path)
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	return store.Open(ctx, store.Config{
		Driver:       cfg.Storage.Driver,
		DSN:          cfg.Storage.DSN,
		MaxOpenConns: cfg.Storage.Postgres.MaxOpenConns,
		MaxIdleConns: cfg.Storage.Postgres.MaxIdleConns,
	})
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Levanta el authorization server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			logger.Init(logger.Config{
				Env:         cfg.App.Env,
				Level:       cfg.Log.Level,
				ServiceName: "track",
				Version:     version,
			})
			defer func() { _ = logger.Sync() }()
			log := logger.L()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			st, err := openStore(ctx, cfg)
			if err != nil {
				return fmt.Errorf("store: %w", err)
			}
			defer st.Close()

			a, err := app.New(cfg, st)
			if err != nil {
				return err
			}

			api := &http.Server{
				Addr:         cfg.Server.Addr,
				Handler:      a.Handler,
				ReadTimeout:  cfg.ReadTimeout(),
				WriteTimeout: cfg.WriteTimeout(),
			}

			mmux := http.NewServeMux()
			mmux.Handle("/metrics", metrics.Handler())
			msrv := &http.Server{Addr: cfg.Server.MetricsAddr, Handler: mmux}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				log.Info("api server listening", logger.String("addr", cfg.Server.Addr))
				if err := api.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				log.Info("metrics server listening", logger.String("addr", cfg.Server.MetricsAddr))
				if err := msrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				log.Info("shutting down")
				shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				_ = msrv.Shutdown(shCtx)
				return api.Shutdown(shCtx)
			})

			return g.Wait()
		},
	}
}

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones de postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if cfg.Storage.Driver != "postgres" {
				return fmt.Errorf("migrate: storage.driver es %q, se requiere postgres", cfg.Storage.Driver)
			}
			if err := pg.Migrate(cmd.Context(), cfg.Storage.DSN, migrations.FS); err != nil {
				return err
			}
			fmt.Println("migrations applied")
			return nil
		},
	}
}

func clientCreateCmd(configPath *string) *cobra.Command {
	var name, scope string
	var redirects []string

	cmd := &cobra.Command{
		Use:   "client:create",
		Short: "Registra un cliente OAuth y muestra sus credenciales",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" || len(redirects) == 0 {
				return fmt.Errorf("se requieren --name y al menos un --redirect-uri")
			}
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			logger.Init(logger.Config{Env: cfg.App.Env, Level: "warn"})

			ctx := cmd.Context()
			st, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			services := oauthsvc.New(oauthsvc.Deps{Store: st})
			resp, err := services.Register.Register(ctx, oauthsvc.RegisterRequest{
				Name:         name,
				RedirectURIs: redirects,
				Scope:        scope,
			})
			if err != nil {
				return err
			}

			fmt.Println("client_id:     ", resp.ClientID)
			fmt.Println("client_secret: ", resp.ClientSecret)
			fmt.Println("scope:         ", resp.Scope)
			fmt.Println()
			fmt.Println("Guarde el client_secret ahora: no puede recuperarse después.")
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "nombre del cliente")
	cmd.Flags().StringArrayVar(&redirects, "redirect-uri", nil, "redirect URI permitido (repetible)")
	cmd.Flags().StringVar(&scope, "scope", "", "scopes permitidos separados por espacio (default: todos)")
	return cmd
}

func userCreateCmd(configPath *string) *cobra.Command {
	var email, pass, display string

	cmd := &cobra.Command{
		Use:   "user:create",
		Short: "Da de alta un usuario",
		RunE: func(cmd *cobra.Command, args []string) error {
			email = strings.TrimSpace(strings.ToLower(email))
			if email == "" || pass == "" {
				return fmt.Errorf("se requieren --email y --password")
			}
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			logger.Init(logger.Config{Env: cfg.App.Env, Level: "warn"})

			ctx := cmd.Context()
			st, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			hash, err := password.Hash(password.Default, pass)
			if err != nil {
				return err
			}
			u := &repository.User{
				ID:           uuid.NewString(),
				Email:        email,
				PasswordHash: hash,
				DisplayName:  display,
				Active:       true,
				CreatedAt:    time.Now().UTC(),
			}
			if err := st.Users().Create(ctx, u); err != nil {
				return err
			}
			fmt.Println("user created:", u.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email del usuario")
	cmd.Flags().StringVar(&pass, "password", "", "password en claro")
	cmd.Flags().StringVar(&display, "display-name", "", "nombre visible")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Muestra la versión",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("track", version)
		},
	}
}
