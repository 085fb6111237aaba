package main

import (
	"context"
	"fmt"
	gorillamux "github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shimmeringbee/bridge/config"
	"github.com/shimmeringbee/bridge/interface/http/auth"
	"github.com/shimmeringbee/bridge/interface/http/auth/external"
	"github.com/shimmeringbee/bridge/interface/http/auth/jwt"
	"github.com/shimmeringbee/bridge/interface/http/auth/null"
	"github.com/shimmeringbee/bridge/interface/http/pprof"
	"github.com/shimmeringbee/bridge/interface/http/v1"
	"github.com/shimmeringbee/bridge/state"
	"github.com/shimmeringbee/logwrap"
	"net/http"
	"time"
)

const DefaultHTTPShutdownTimeout = 5 * time.Second

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}

	return false
}

func constructAuthenticator(cfg *config.AuthConfig) (auth.AuthenticationProvider, error) {
	if cfg == nil {
		return null.Authenticator{}, nil
	}

	switch aCfg := cfg.Config.(type) {
	case *config.NullAuth:
		return null.Authenticator{}, nil
	case *config.JWTAuth:
		if len(aCfg.Secret) == 0 {
			return nil, fmt.Errorf("jwt authentication requires a secret")
		}

		return jwt.Authenticator{Issuer: aCfg.Issuer, Secret: []byte(aCfg.Secret)}, nil
	case *config.ExternalAuth:
		return external.Authenticator{UserHeader: aCfg.UserHeader, AllowedUsers: aCfg.AllowedUsers}, nil
	default:
		return nil, fmt.Errorf("unknown authentication type loaded: %s", cfg.Type)
	}
}

func constructHTTPHandler(cfg config.HTTPConfig, provider v1.StatusProvider, events state.EventSubscriber, gatherer prometheus.Gatherer, l logwrap.Logger) (http.Handler, error) {
	ap, err := constructAuthenticator(cfg.Auth)
	if err != nil {
		return nil, err
	}

	r := gorillamux.NewRouter()

	if containsString(cfg.EnabledAPIs, "v1") {
		l.LogInfo(context.Background(), "Mounting v1 API endpoint on /api/v1.")

		v1Router := v1.ConstructRouter(provider, events, l, ap)
		r.PathPrefix("/api/v1").Handler(http.StripPrefix("/api/v1", v1Router))
	}

	if containsString(cfg.EnabledAPIs, "metrics") {
		l.LogInfo(context.Background(), "Mounting prometheus metrics on /metrics.")

		r.Path("/metrics").Handler(ap.AuthenticationMiddleware(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	if containsString(cfg.EnabledAPIs, "pprof") {
		l.LogInfo(context.Background(), "Mounting pprof on /debug/pprof.")

		r.PathPrefix("/debug/pprof").Handler(http.StripPrefix("/debug/pprof", pprof.ConstructRouter(ap)))
	}

	return r, nil
}

func startHTTPInterface(cfg config.HTTPConfig, provider v1.StatusProvider, events state.EventSubscriber, gatherer prometheus.Gatherer, l logwrap.Logger) (func() error, error) {
	h, err := constructHTTPHandler(cfg, provider, events, gatherer, l)
	if err != nil {
		return nil, err
	}

	bindAddress := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: bindAddress, Handler: h, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.LogError(context.Background(), "Failed to start http server.", logwrap.Err(err))
		}
	}()

	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), DefaultHTTPShutdownTimeout)
		defer cancel()

		return srv.Shutdown(ctx)
	}, nil
}
