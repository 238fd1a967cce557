package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/marketpay/internal/company"
	companydomain "github.com/smallbiznis/marketpay/internal/company/domain"
	"github.com/smallbiznis/marketpay/internal/config"
	"github.com/smallbiznis/marketpay/internal/metrics"
	"github.com/smallbiznis/marketpay/internal/notify"
	"github.com/smallbiznis/marketpay/internal/processor"
	"github.com/smallbiznis/marketpay/internal/transaction"
	txndomain "github.com/smallbiznis/marketpay/internal/transaction/domain"
	"github.com/smallbiznis/marketpay/internal/webhook"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	metrics.Module,
	notify.Module,
	processor.Module,
	company.Module,
	transaction.Module,
	webhook.Module,
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

type Server struct {
	log        *zap.Logger
	cfg        config.Config
	companySvc companydomain.Service
	txnSvc     txndomain.Service
	verifier   *webhook.Verifier
	router     *webhook.Router
	metrics    *metrics.Metrics
}

type ServerParams struct {
	fx.In

	Log        *zap.Logger
	Cfg        config.Config
	CompanySvc companydomain.Service
	TxnSvc     txndomain.Service
	Verifier   *webhook.Verifier
	Router     *webhook.Router
	Metrics    *metrics.Metrics
}

func NewServer(p ServerParams) *Server {
	return &Server{
		log:        p.Log.Named("http.server"),
		cfg:        p.Cfg,
		companySvc: p.CompanySvc,
		txnSvc:     p.TxnSvc,
		verifier:   p.Verifier,
		router:     p.Router,
		metrics:    p.Metrics,
	}
}

func NewEngine(log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))
	r.Use(ErrorHandlingMiddleware())
	return r
}

func registerRoutes(r *gin.Engine, s *Server) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{})))

	// Inbound processor events. The body must arrive unparsed so the
	// signature is verified over the exact raw bytes.
	r.POST("/webhooks/stripe", s.HandleProcessorWebhook)

	v1 := r.Group("/v1")
	{
		v1.POST("/companies", s.CreateCompany)
		v1.GET("/companies/:id", s.GetCompany)
		v1.POST("/companies/:id/onboarding", s.OnboardCompany)

		v1.POST("/payment-intents", s.CreatePaymentIntent)
		v1.POST("/checkout-sessions", s.CreateCheckoutSession)

		v1.GET("/transactions", s.ListTransactions)
		v1.GET("/transactions/:id", s.GetTransaction)
		v1.PATCH("/transactions/:id/internal-status", s.UpdateTransactionInternalStatus)

		v1.DELETE("/subscriptions/:id", s.CancelSubscription)
	}
}

func run(lc fx.Lifecycle, r *gin.Engine, s *Server) {
	srv := &http.Server{
		Addr:    ":" + s.cfg.HTTPPort,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				s.log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					s.log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
