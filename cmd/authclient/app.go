package main

import (
	"context"
	"fmt"
	"io"

	"github.com/jrsteele09/go-auth-client/api"
	"github.com/jrsteele09/go-auth-client/clientdata"
	"github.com/jrsteele09/go-auth-client/datastore"
	"github.com/jrsteele09/go-auth-client/internal/config"
	"github.com/jrsteele09/go-auth-client/internal/logging"
	"github.com/jrsteele09/go-auth-client/internal/metrics"
	"github.com/jrsteele09/go-auth-client/sessions"
	"github.com/jrsteele09/go-auth-client/storage"
	"github.com/jrsteele09/go-auth-client/token"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// app is the wired client: credential, persistence, data stores and the
// session on top of them.
type app struct {
	cfg         config.Config
	logger      zerolog.Logger
	registry    *prometheus.Registry
	oauth       *oauth2.Config
	storage     storage.Store
	tokens      *token.Store
	data        *api.Client
	documents   *api.Client
	stores      *clientdata.Stores
	session     *sessions.Store
	initializer *sessions.Initializer
}

func newApp(ctx context.Context, configFile string, logOutput io.Writer) (*app, error) {
	cfg, err := config.New(configFile)
	if err != nil {
		return nil, err
	}
	a := &app{
		cfg:      cfg,
		logger:   logging.New(cfg, logOutput),
		registry: prometheus.NewRegistry(),
	}

	a.oauth, err = api.OAuth2Config(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("[newApp] oauth config: %w", err)
	}

	a.storage, err = storage.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	repo, err := token.NewFileRepo(cfg.GetDataFolder(), cfg.GetTokenEncryptionKey())
	if err != nil {
		return nil, err
	}
	a.tokens, err = token.NewStore(repo,
		token.WithRefresher(token.NewOAuth2Refresher(a.oauth)),
		token.WithLogger(a.logger.With().Str("component", "token").Logger()),
	)
	if err != nil {
		return nil, err
	}

	clientOptions := []api.ClientOption{
		api.WithSignOutPath(cfg.GetSignOutPath()),
		api.WithLogger(a.logger.With().Str("component", "api").Logger()),
	}
	if id, err := storage.InstallationID(ctx, a.storage); err != nil {
		a.logger.Warn().Err(err).Msg("no installation id")
	} else {
		clientOptions = append(clientOptions, api.WithHeader("X-Installation-ID", id))
	}

	a.data, err = api.NewWithAuthMode(cfg.GetAPIBaseURL(), cfg.GetAuthMode(), a.tokens, clientOptions...)
	if err != nil {
		return nil, err
	}
	a.documents, err = api.NewWithAuthMode(cfg.GetDocumentsBaseURL(), cfg.GetDocumentsAuthMode(), a.tokens, clientOptions...)
	if err != nil {
		return nil, err
	}

	clearables := datastore.NewRegistry()
	a.stores = clientdata.New(a.data, a.documents)
	a.stores.Register(clearables)

	a.session, err = sessions.NewStore(sessions.Deps{
		Tokens:     a.tokens,
		Storage:    a.storage,
		Profile:    a.stores,
		SignOut:    a.data,
		Clearables: clearables,
	},
		sessions.WithLogger(a.logger.With().Str("component", "session").Logger()),
		sessions.WithMetrics(metrics.New(a.registry)),
		sessions.WithFetchTimeout(cfg.GetFetchTimeout()),
		sessions.WithSignOutTimeout(cfg.GetSignOutTimeout()),
	)
	if err != nil {
		return nil, err
	}
	a.initializer = sessions.NewInitializer(a.session, a.data.ClearCache, a.documents.ClearCache)
	return a, nil
}

// start restores the previous session.
func (a *app) start(ctx context.Context) {
	a.initializer.Run(ctx)
}

func (a *app) login(ctx context.Context, username, password string) (string, error) {
	credential, clientID, err := api.PasswordLogin(ctx, a.oauth, username, password)
	if err != nil {
		return "", err
	}
	a.session.Login(ctx, credential, clientID)
	a.session.Wait()
	if !a.session.State().Authenticated() {
		return "", fmt.Errorf("login for %s did not complete", username)
	}
	return clientID, nil
}
