package cli

import (
	"context"
	stderrors "errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/matzehuels/tierpack/pkg/config"
	"github.com/matzehuels/tierpack/pkg/manifest"
)

// shutdownTimeout bounds how long serve waits for open requests on exit.
const shutdownTimeout = 5 * time.Second

// serveCommand creates the serve command, which exposes a platform's build
// output (version.json and bundles) to devices over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		platform string
		addr     string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve built bundles and version.json over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := config.ParsePlatform(platform)
			if err != nil {
				return err
			}
			dir, err := c.outputDir(p)
			if err != nil {
				return err
			}
			printInfo("Serving build output")
			printKeyValue("Directory", dir)
			printManifest(dir)
			printKeyValue("Address", StyleLink.Render(addr))
			return serve(ctx, addr, newServeHandler(dir, loggerFromContext(ctx)))
		},
	}

	cmd.Flags().StringVarP(&platform, "platform", "p", "", "target platform: android or ios (required)")
	cmd.Flags().StringVar(&addr, "addr", defaultServeAddr, "listen address")

	_ = cmd.RegisterFlagCompletionFunc("platform", completePlatforms)

	return cmd
}

// printManifest summarizes the manifest being served, or warns when there
// is none yet.
func printManifest(dir string) {
	m, err := manifest.Read(dir)
	if err != nil {
		printWarning("No readable %s in %s yet", manifest.FileName, dir)
		return
	}
	printKeyValue("Engine", m.Engine)
	printKeyValue("Modules", strconv.Itoa(len(m.Modules)))
}

// newServeHandler routes:
//
//	GET /version.json  the manifest
//	GET /healthz       liveness
//	GET /*             bundles and assets under dir
func newServeHandler(dir string, logger *log.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/"+manifest.FileName, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")
		http.ServeFile(w, r, filepath.Join(dir, manifest.FileName))
	})

	files := http.FileServer(http.Dir(dir))
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		if strings.HasSuffix(r.URL.Path, ".bundle") {
			w.Header().Set("Content-Type", "application/javascript")
		}
		files.ServeHTTP(w, r)
	})
	return r
}

// requestLogger logs each request at debug level.
func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start).Round(time.Microsecond))
		})
	}
}

// serve runs an HTTP server until ctx is cancelled.
func serve(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	}
}
