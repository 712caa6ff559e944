package main

import (
	"context"
	"log/slog"
	"os"

	"locker/config"
	"locker/internal/delivery"
	deliverymiddleware "locker/internal/delivery/middleware"
	"locker/internal/domain/entity"
	"locker/internal/domain/repository"
	"locker/internal/domain/service"
	"locker/internal/infra/auth"
	"locker/internal/infra/blobstore"
	logs "locker/internal/infra/log"
	"locker/internal/infra/persistence/model"
	"locker/internal/infra/persistence/postgres"
	"locker/internal/usecase/impl"

	httpdelivery "locker/internal/delivery/http"
	httpmiddleware "locker/internal/delivery/http/middleware"
	"locker/internal/delivery/http/router/handler"

	"go.uber.org/fx"
	"gorm.io/gorm"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectMiddleware(),
		injectHandler(),
		fx.Invoke(
			prepareDatabase,
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		postgres.New,
		newBlobStore,
	)
}

// newBlobStore opens the encrypted vault bucket and ties its lifetime
// to the application.
func newBlobStore(lc fx.Lifecycle, cfg *config.Config) (service.BlobStore, error) {
	store, err := blobstore.New(cfg)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return store.Close()
		},
	})

	return store, nil
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			postgres.NewUserRepository,
			postgres.NewClientRepository,
			postgres.NewTokenRepository,
			postgres.NewTransactionManager,
		),
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewBcryptHasher,
			auth.NewOpaqueMinter,
		),
	)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewTokenService,
			impl.NewAccountService,
			impl.NewVaultService,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			deliverymiddleware.NewRequestIDMiddleware,
			httpmiddleware.NewAuthMiddleware,
			httpmiddleware.NewErrorMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewTokenHandler,
			handler.NewAccountHandler,
			handler.NewVaultHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				httpdelivery.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

// prepareDatabase migrates the schema and seeds the configured OAuth
// clients. Seeding is idempotent; existing client rows win.
func prepareDatabase(db *gorm.DB, cfg *config.Config, clients repository.ClientRepository, logger *slog.Logger) error {
	if err := db.AutoMigrate(&model.UserModel{}, &model.ClientModel{}, &model.TokenPairModel{}); err != nil {
		return err
	}

	ctx := context.Background()
	for _, seed := range cfg.Clients {
		client := &entity.Client{
			ClientID:     seed.ClientID,
			ClientSecret: seed.ClientSecret,
			Grants:       seed.Grants,
			RedirectURIs: seed.RedirectURIs,
		}
		if err := clients.CreateClient(ctx, client); err != nil {
			return err
		}
		logger.Info("Seeded OAuth client", slog.String("client_id", seed.ClientID))
	}

	return nil
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}
