// Command casd is the CAS dispatcher service entry point: it loads
// configuration, builds the engine registry and dispatcher, and serves
// the public HTTP endpoints until an interrupt or terminate signal.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/r3e-network/cas-dispatch/internal/config"
	"github.com/r3e-network/cas-dispatch/internal/dispatcher"
	"github.com/r3e-network/cas-dispatch/internal/engine"
	"github.com/r3e-network/cas-dispatch/internal/engines/external"
	"github.com/r3e-network/cas-dispatch/internal/engines/oracle"
	"github.com/r3e-network/cas-dispatch/internal/engines/symbolic"
	"github.com/r3e-network/cas-dispatch/internal/executor"
	"github.com/r3e-network/cas-dispatch/internal/httpapi"
	"github.com/r3e-network/cas-dispatch/internal/logging"
)

const (
	maxOutputBytes   = 64 * 1024
	symhelperBinary  = "symhelper"
	executorShutdown = 5 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load configuration")
	}

	log := logging.New("cas-dispatch", cfg.Logging.Level, cfg.Logging.Format)
	entry := log.WithTrace(context.Background())

	exec := executor.New(cfg.SymbolicTimeout(), maxOutputBytes, cfg.MaxJobs)

	reg := buildRegistry(cfg, exec, entry)
	d := dispatcher.New(reg, cfg.DefaultEngine, entry)

	server := httpapi.NewServer(d, reg, log)
	router := httpapi.NewRouter(server, log, cfg.ValidateRPS)

	httpServer := &http.Server{
		Addr:         fromPort(cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		entry.WithField("addr", httpServer.Addr).Info("listening")
		if serveErr := httpServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			entry.WithError(serveErr).Fatal("http server failed")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	entry.Info("shutting down")
	if shutdownErr := shutdown(httpServer); shutdownErr != nil {
		entry.WithError(shutdownErr).Error("error during shutdown")
	}
}

// buildRegistry constructs every configured engine inside a guarded
// region: a construction or probe failure is logged and the engine is
// skipped, never aborting startup.
func buildRegistry(cfg *config.Config, exec *executor.Executor, log *logrus.Entry) *engine.Registry {
	reg := engine.NewRegistry()

	register := func(name string, build func() engine.Engine) {
		defer func() {
			if r := recover(); r != nil {
				log.WithField("engine", name).Errorf("failed to initialize engine, skipping: %v", r)
			}
		}()
		e := build()
		fields := logrus.Fields{
			"engine":    name,
			"available": e.IsAvailable(),
			"version":   e.Version(),
		}
		reg.Register(e)
		log.WithFields(fields).Info("engine initialized")
	}

	register("symbolic", func() engine.Engine {
		return symbolic.New(exec, symhelperBinary, cfg.SymbolicTimeout())
	})
	register("calc", func() engine.Engine {
		return external.NewCalc(exec, cfg.Calc.Path, cfg.CalcTimeout())
	})
	register("algebra", func() engine.Engine {
		return external.NewAlgebra(exec, cfg.Algebra.Path, cfg.AlgebraTimeout())
	})
	register("oracle", func() engine.Engine {
		return oracle.New(cfg.Oracle.AppID, cfg.OracleTimeout())
	})

	log.WithField("count", len(reg.Names())).Info("engine registry initialized")
	return reg
}

// shutdown tears down the HTTP listener, aggregating every teardown
// error rather than stopping at the first one.
func shutdown(httpServer *http.Server) error {
	var result *multierror.Error

	ctx, cancel := context.WithTimeout(context.Background(), executorShutdown)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		result = multierror.Append(result, err)
	}

	return result.ErrorOrNil()
}

func fromPort(port int) string {
	return ":" + strconv.Itoa(port)
}
