package router

import (
	"database/sql"
	"net/http"
	"strings"

	_ "gatitown/docs" // swagger docs

	"gatitown/internal/adapters/photos/disk"
	mem "gatitown/internal/adapters/storage/memory"
	pg "gatitown/internal/adapters/storage/postgres"
	"gatitown/internal/domain/accounts"
	"gatitown/internal/domain/cats"
	"gatitown/internal/domain/uploads"
	"gatitown/internal/middleware"
	"gatitown/internal/platform/config"
	"gatitown/internal/platform/logger"
	"gatitown/internal/platform/metrics"
	"gatitown/internal/ports/auth"
	"gatitown/internal/ports/photos"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	Config config.Config
	Logger logger.Logger

	// DevAuth: sin sesiones reales, X-Debug-User-ID/X-Debug-Role setean claims.
	DevAuth bool
	// AuthVerifier reemplaza al de accounts (tests). Se ignora con DevAuth.
	AuthVerifier auth.SessionVerifier

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB
	// Opcional: repos ya armados; tienen prioridad sobre DB.
	CatRepo   cats.Repository
	UsersRepo accounts.Repository

	// Opcional: si no viene se usa el store en disco de la config.
	PhotoStore photos.Store

	// Opcional: registry para /metrics. Si no viene se crea uno con los
	// collectors de Go y del proceso.
	Registry *prometheus.Registry
}

func NewRouter(opts Options) (http.Handler, error) {
	cfg := opts.Config
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	workflow := metrics.New(reg)

	store := opts.PhotoStore
	if store == nil {
		ds, err := disk.New(cfg.Uploads.Dir, cfg.Uploads.PublicPrefix)
		if err != nil {
			return nil, err
		}
		store = ds
	}

	var (
		catRepo   cats.Repository
		usersRepo accounts.Repository
	)
	if opts.DB != nil {
		catRepo = pg.NewCatsRepo(opts.DB)
		usersRepo = pg.NewUsersRepo(opts.DB)
	} else {
		catRepo = mem.NewCatRepo()
		usersRepo = mem.NewUsersRepo()
	}
	if opts.CatRepo != nil {
		catRepo = opts.CatRepo
	}
	if opts.UsersRepo != nil {
		usersRepo = opts.UsersRepo
	}

	// Services por módulo
	accountsSvc := accounts.NewService(usersRepo, accounts.Options{
		SessionTTL: cfg.Session.TTL,
		Logger:     log,
	})
	catsSvc := cats.NewService(catRepo, cats.Options{
		City:         cfg.Site.City,
		UploadPrefix: cfg.Uploads.PublicPrefix,
		Logger:       log,
		Metrics:      workflow,
	})
	uploadsSvc := uploads.NewService(store, uploads.Options{
		MaxBytes: cfg.Uploads.MaxBytes,
		Logger:   log,
	})

	var verifier auth.SessionVerifier
	switch {
	case opts.DevAuth:
		verifier = nil
		log.Warn("dev auth enabled: X-Debug-User-ID is trusted", nil)
	case opts.AuthVerifier != nil:
		verifier = opts.AuthVerifier
	default:
		verifier = accountsSvc
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(verifier, log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Fotos subidas al disco se sirven desde el mismo proceso.
	if ds, ok := store.(*disk.Store); ok {
		mountUploads(r, cfg.Uploads.PublicPrefix, ds.Dir())
	}

	// Rutas por módulo
	accounts.RegisterRoutes(r, accountsSvc, accounts.HandlerOptions{
		CookieSecure: cfg.Session.CookieSecure,
		Logger:       log,
	})
	cats.RegisterRoutes(r, catsSvc, log)
	uploads.RegisterRoutes(r, uploadsSvc, log)

	return r, nil
}

func mountUploads(r chi.Router, prefix, dir string) {
	prefix = "/" + strings.Trim(prefix, "/")
	if prefix == "/" {
		return
	}
	fs := http.StripPrefix(prefix, http.FileServer(http.Dir(dir)))

	r.Get(prefix+"/*", func(w http.ResponseWriter, req *http.Request) {
		// sin listado de directorio
		if strings.HasSuffix(req.URL.Path, "/") {
			http.NotFound(w, req)
			return
		}
		fs.ServeHTTP(w, req)
	})
}
