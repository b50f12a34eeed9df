package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	dlcheck "github.com/reoring/dlcheck"
	"github.com/reoring/dlcheck/datalayer"
	"github.com/reoring/dlcheck/internal/logging"
	"github.com/reoring/dlcheck/internal/watch"
	"github.com/reoring/dlcheck/limits"
	"github.com/reoring/dlcheck/middleware"
	echomw "github.com/reoring/dlcheck/middleware/echo"
	"github.com/reoring/dlcheck/source"
)

const dataLayerCapacity = 1000

func (a *app) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve validation over HTTP",
		Long: `Serve validation over HTTP.

Endpoints:
  POST /v1/validate/:event          validate one record (200 valid, 422 invalid, 404 unknown event)
  POST /v1/limits                   GA4 limits check of a record or an array of records
  POST /v1/datalayer                push records into the debug dataLayer
  GET  /v1/datalayer                list pushed records
  GET  /v1/datalayer/:event/latest  validate the latest pushed record of an event
  DELETE /v1/datalayer              clear the debug dataLayer
  GET  /v1/schemas                  list event names
  GET  /v1/schemas/:event           JSON Schema of an event
  GET  /healthz, /metrics

With --watch the schema file is reloaded whenever it changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.HTTP.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.runServe(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	cmd.Flags().Bool("watch", false, "Reload the schema file when it changes")
	return cmd
}

func (a *app) runServe(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if a.cfg.Schema.Watch {
		r, err := watch.NewReloader(a.cfg.Schema.File)
		if err != nil {
			return err
		}
		r.OnReload = a.metrics.RecordSchemaLoad
		a.reloader = r
		log.Info().Str("schemaFile", r.Path()).Msg("Watching schema file for changes")
		g.Go(func() error {
			if err := r.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("schema watcher: %w", err)
			}
			return nil
		})
	}

	e := a.newServer()
	g.Go(func() error {
		log.Info().Str("addr", a.cfg.HTTP.Addr).Strs("events", a.registry().Names()).Msg("Starting dlcheck HTTP server")
		if err := e.Start(a.cfg.HTTP.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("Shutting down dlcheck HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newServer builds the echo instance with every route wired to the app.
func (a *app) newServer() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			log.Debug().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	}))

	mwCfg := middleware.Config{
		Registry:    a.registry,
		ValidateOpt: a.validateOpt(),
		MaxBytes:    middleware.DefaultMaxBytes,
		OnReport: func(rep dlcheck.Report, elapsed time.Duration) {
			a.metrics.RecordReport("http", rep)
			a.metrics.ObserveValidation("http", elapsed)
		},
	}
	layer := datalayer.New(nil,
		datalayer.WithRegistryFunc(a.registry),
		datalayer.WithValidateOpt(a.validateOpt()),
		datalayer.WithCapacity(dataLayerCapacity),
		datalayer.WithOnReport(a.dataLayerReport),
	)

	v1 := e.Group("/v1")
	v1.POST("/validate/:event", func(c echo.Context) error {
		res, _ := echomw.GetResult(c)
		return c.JSON(http.StatusOK, res.Report)
	}, echomw.ValidateEvent(mwCfg, "event"))

	v1.POST("/limits", func(c echo.Context) error {
		recs, err := source.Records(c.Request().Body, source.FormatJSON, source.Options{MaxBytes: middleware.DefaultMaxBytes})
		if err != nil {
			return c.JSON(http.StatusBadRequest, middleware.ErrorPayload(err))
		}
		iss := limits.CheckAll(recs)
		a.metrics.RecordLimitIssues(iss)
		if iss == nil {
			iss = dlcheck.Issues{}
		}
		status := http.StatusOK
		if len(iss) > 0 {
			status = http.StatusUnprocessableEntity
		}
		return c.JSON(status, map[string]any{"ok": len(iss) == 0, "issues": iss})
	})

	v1.POST("/datalayer", func(c echo.Context) error {
		recs, err := source.Records(c.Request().Body, source.FormatJSON, source.Options{MaxBytes: middleware.DefaultMaxBytes})
		if err != nil {
			return c.JSON(http.StatusBadRequest, middleware.ErrorPayload(err))
		}
		batch := make([]map[string]any, 0, len(recs))
		for _, r := range recs {
			m, ok := r.(map[string]any)
			if !ok {
				return c.JSON(http.StatusBadRequest, map[string]any{"error": "dataLayer entries must be objects"})
			}
			batch = append(batch, m)
		}
		layer.Push(batch...)
		return c.JSON(http.StatusAccepted, map[string]any{"accepted": len(batch), "length": layer.Len()})
	})
	v1.GET("/datalayer", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{"events": layer.Events()})
	})
	v1.DELETE("/datalayer", func(c echo.Context) error {
		layer.Reset()
		return c.NoContent(http.StatusNoContent)
	})
	v1.GET("/datalayer/:event/latest", func(c echo.Context) error {
		rep := layer.ValidateLatest(c.Param("event"))
		status := middleware.StatusFor(rep)
		if rep.Violations.HasCode(datalayer.CodeNoEventFound) {
			status = http.StatusNotFound
		}
		return c.JSON(status, rep)
	})

	v1.GET("/schemas", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{"events": a.registry().Names()})
	})
	v1.GET("/schemas/:event", func(c echo.Context) error {
		s, err := a.registry().JSONSchema(c.Param("event"))
		if err != nil {
			return c.JSON(http.StatusNotFound, middleware.ErrorPayload(err))
		}
		return c.JSON(http.StatusOK, s)
	})

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(a.promReg, promhttp.HandlerOpts{})))
	return e
}

func (a *app) dataLayerReport(rep dlcheck.Report) {
	a.metrics.RecordReport("datalayer", rep)
	l := logging.WithEvent("datalayer", rep.Event)
	if rep.Valid() {
		l.Info().Msg("dataLayer event passed validation")
		return
	}
	l.Warn().
		Strs("violations", rep.Messages()).
		Msg("dataLayer event failed validation")
}
