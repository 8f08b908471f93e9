package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/sheetkeeper/internal/logging"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/models"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"github.com/rs/cors"
)

type CharacterService interface {
	Save(ctx context.Context, c *models.Character) (*models.Character, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*models.Character, error)
	List(ctx context.Context) ([]models.Summary, error)
	Duplicate(ctx context.Context, sourceID string) (*models.Character, error)
	Rebuild(ctx context.Context) ([]models.Summary, error)
}

type AccessService interface {
	Verify(ctx context.Context, id, submitted string) (*services.Grant, error)
	Guard(ctx context.Context, id, token string) error
}

type LoginNotifier interface {
	NotifyLogin(ctx context.Context, r *http.Request)
}

// Options configures the router. An empty SitePasswordHash disables the
// site gate.
type Options struct {
	SitePasswordHash []byte
	Sessions         sessions.Store
	SecureCookies    bool
	EditCookieMaxAge time.Duration
	AllowedOrigins   []string
}

type Handler struct {
	characters CharacterService
	access     AccessService
	notifier   LoginNotifier
	logger     logging.Logger
	opts       Options
}

func NewRouter(cs CharacterService, as AccessService, n LoginNotifier, l logging.Logger, opts Options) http.Handler {
	h := &Handler{
		characters: cs,
		access:     as,
		notifier:   n,
		logger:     l.With("module", "http"),
		opts:       opts,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)
	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Options{
			AllowedOrigins:   opts.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete},
			AllowedHeaders:   []string{"Content-Type"},
			AllowCredentials: true,
		}).Handler)
	}

	r.Post("/auth/signin", h.handleSignIn)
	r.Post("/auth/signout", h.handleSignOut)

	r.Route("/api", func(api chi.Router) {
		api.Use(h.requireSite)

		api.Get("/characters", h.handleList)
		api.Post("/characters", h.handleSave)
		api.Get("/characters/{id}", h.handleGet)
		api.Get("/characters/{id}/edit", h.handleEdit)
		api.Delete("/characters/{id}", h.handleDelete)
		api.Post("/characters/{id}/duplicate", h.handleDuplicate)
		api.Post("/verify_password", h.handleVerifyPassword)
		api.Post("/admin/rebuild", h.handleRebuild)
	})

	return r
}
