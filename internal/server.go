package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/2beens/pfctracker/internal/auth"
	"github.com/2beens/pfctracker/internal/config"
	"github.com/2beens/pfctracker/internal/images"
	"github.com/2beens/pfctracker/internal/middleware"
	"github.com/2beens/pfctracker/internal/misc"
	"github.com/2beens/pfctracker/internal/sheets"
	"github.com/2beens/pfctracker/internal/telemetry/metrics"
	"github.com/2beens/pfctracker/internal/telemetry/tracing"
	"github.com/2beens/pfctracker/internal/tracker"
	"github.com/2beens/pfctracker/internal/tracker/dashboard"
	"github.com/2beens/pfctracker/internal/tracker/food"
	"github.com/2beens/pfctracker/internal/tracker/meals"
	"github.com/2beens/pfctracker/internal/tracker/weights"
	"github.com/2beens/pfctracker/internal/tracker/workouts"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config        *config.Config
	sheetsStore   *sheets.CachedStore
	imagesDiskApi *images.DiskApi
	targets       tracker.Targets

	redisClient  *redis.Client
	loginChecker *auth.LoginChecker
	authService  *auth.Service
	admin        *auth.Admin

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	VersionInfo             string
	AdminUsername           string
	AdminPasswordHash       string
	RedisPassword           string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	promRegistry := metrics.SetupPrometheus()
	metricsManager := metrics.NewManager("pfctracker", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0) // will be set to 1 when all is set and ran

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "pfctracker-backend")
	if err != nil {
		return nil, err
	}

	sheetsClient, err := sheets.NewClient(
		ctx,
		params.Config.SpreadsheetID,
		params.Config.GoogleCredentialsPath,
	)
	if err != nil {
		return nil, fmt.Errorf("new sheets client: %w", err)
	}
	sheetsStore := sheets.NewCachedStore(
		sheetsClient,
		params.Config.SheetsCacheTTLSeconds,
		metricsManager.HistSheetsReadDuration,
	)

	imagesDiskApi, err := images.NewDiskApi(params.Config.MealImagesRootPath)
	if err != nil {
		return nil, fmt.Errorf("new images disk api: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(params.Config.RedisHost, params.Config.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	authService := auth.NewService(auth.DefaultTTL, rdb)
	go func() {
		for range time.Tick(time.Hour * 8) {
			authService.ScanAndClean(ctx)
		}
	}()

	return &Server{
		config:        params.Config,
		versionInfo:   params.VersionInfo,
		sheetsStore:   sheetsStore,
		imagesDiskApi: imagesDiskApi,
		targets: tracker.Targets{
			Calories: params.Config.CalorieTarget,
			Protein:  params.Config.ProteinTarget,
			Fat:      params.Config.FatTarget,
			Carbs:    params.Config.CarbTarget,
		},

		redisClient:  rdb,
		authService:  authService,
		loginChecker: auth.NewLoginChecker(auth.DefaultTTL, rdb),
		admin: &auth.Admin{
			Username:     params.AdminUsername,
			PasswordHash: params.AdminPasswordHash,
		},

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}, nil
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	mealsRepo := meals.NewRepo(s.sheetsStore)
	foodRepo := food.NewRepo(s.sheetsStore)

	mealsHandler := meals.NewHandler(mealsRepo, foodRepo, s.targets, s.metricsManager)
	mealsHandler.SetupRoutes(r)

	foodHandler := food.NewHandler(foodRepo)
	r.HandleFunc("/food", foodHandler.HandleList).Methods("GET", "OPTIONS").Name("list-food")

	weightsHandler := weights.NewHandler(weights.NewRepo(s.sheetsStore), s.metricsManager)
	weightsHandler.SetupRoutes(r)

	workoutsHandler := workouts.NewHandler(workouts.NewRepo(s.sheetsStore), s.metricsManager)
	workoutsHandler.SetupRoutes(r)

	dashboardHandler := dashboard.NewHandler(
		meals.NewAnalyzer(mealsRepo, s.targets),
		s.config.GoalDay(),
	)
	dashboardHandler.SetupRoutes(r)

	imagesHandler := images.NewHandler(s.imagesDiskApi)
	imagesHandler.SetupRoutes(r)

	reqRateLimiter := redis_rate.NewLimiter(s.redisClient)
	miscHandler := misc.NewHandler(s.versionInfo, s.authService, s.admin, s.sheetsStore)
	miscHandler.SetupRoutes(r, reqRateLimiter, s.config.LoginRateLimitAllowedPerMin)

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "OPTIONS").Name("unknown")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.loginChecker)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors())
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

func (s *Server) Serve(host string, port int) {
	router := s.routerSetup()

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(
		s.promRegistry,
		promhttp.HandlerOpts{},
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown http server")
	}
	log.Warnln("server shut down")

	if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown metrics http server")
	}
	log.Warnln("metrics server shut down")
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
