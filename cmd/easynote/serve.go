package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/easynote/easynote-go"
	easynotegin "github.com/easynote/easynote-go/framework/gin"
)

// serve hosts a built front-end, redirecting page loads the way the
// in-app router would.
func (a *app) serve(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("serve", flag.ContinueOnError)
	flags.SetOutput(a.out)
	addr := flags.String("addr", ":8000", "listen address")
	dir := flags.String("dir", "./dist", "directory holding index.html and assets")
	if err := flags.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	handler, err := a.serveHandler(*dir)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              *addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		a.logger.Info("serving front-end", zap.String("addr", server.Addr), zap.String("dir", *dir))
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func (a *app) serveHandler(dir string) (http.Handler, error) {
	index := filepath.Join(dir, "index.html")
	if _, err := os.Stat(index); err != nil {
		return nil, fmt.Errorf("front-end not found: %w", err)
	}

	guard, err := easynotegin.NewGinMiddleware(a.client.Router(),
		easynotegin.WithGuardOptions(
			easynote.WithExclusionURLs([]string{"/assets/", "/metrics", "/favicon.ico"}),
			easynote.WithExpiryCheck(true),
			easynote.WithGuardLogger(easynote.NewZapLogger(a.logger.Sugar())),
		),
	)
	if err != nil {
		return nil, err
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), guard)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))
	engine.Static("/assets", filepath.Join(dir, "assets"))
	engine.NoRoute(func(c *gin.Context) {
		if name := filepath.Join(dir, filepath.Clean("/"+c.Request.URL.Path)); c.Request.URL.Path != "/" {
			if info, err := os.Stat(name); err == nil && !info.IsDir() {
				c.File(name)
				return
			}
		}
		c.File(index)
	})
	return engine, nil
}
