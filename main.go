package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/9seconds/geolocator/geolib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/afero"
	kingpin "gopkg.in/alecthomas/kingpin.v2"
)

const shutdownTimeout = 10 * time.Second

var version = "dev"

var (
	cli = kingpin.New(
		"geolocator",
		"IP geolocation service with pluggable providers")

	debug = cli.Flag("debug", "Run in debug mode.").
		Short('d').
		Envar("GEOLOCATOR_DEBUG").
		Bool()
	configPath = cli.Flag("config", "Path to the config.").
			Short('c').
			Envar("GEOLOCATOR_CONFIG").
			Required().
			ExistingFile()

	serveCommand = cli.Command("serve", "Run HTTP API.")

	locateCommand = cli.Command("locate", "Resolve IP addresses and print them as JSON.")
	locateIPs     = locateCommand.Arg("ip", "IP addresses to resolve. Empty means current client.").
			Strings()
	locateCache = locateCommand.Flag("cache", "Write results into the cache.").
			Bool()

	updateCommand = cli.Command("update", "Update a dataset of the service.")

	clearCommand = cli.Command("clear", "Flush tagged cache.")
)

func main() {
	cli.Version(version)

	command := kingpin.MustParse(cli.Parse(os.Args[1:]))
	log := newLogger(os.Stderr, *debug)

	if err := run(command, log); err != nil {
		log.App().Error().Err(err).Msg("command has failed")
		os.Exit(1)
	}
}

func run(command string, log *logger) error {
	conf, err := parseConfig(afero.NewOsFs(), *configPath)
	if err != nil {
		return fmt.Errorf("cannot parse config: %w", err)
	}

	ctx, cancel := makeRootContext()
	defer cancel()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	application, err := makeApp(ctx, conf, log, geolib.NewMetrics(registry))
	if err != nil {
		return err
	}

	defer application.Close()

	log.App().Debug().
		Str("service", conf.Service).
		Str("cache_mode", string(conf.Cache.GetMode())).
		Str("client_ip", application.resolver.CurrentClientIP()).
		Msg("resolver is ready")

	switch command {
	case serveCommand.FullCommand():
		return runServe(ctx, conf, application.resolver, registry, log)
	case locateCommand.FullCommand():
		opts := []geolib.LookupOption{}
		if *locateCache {
			opts = append(opts, geolib.WithCacheWrite())
		}

		return runLocate(ctx, os.Stdout, application.resolver, *locateIPs, opts)
	case updateCommand.FullCommand():
		return runUpdate(ctx, os.Stdout, application.resolver)
	case clearCommand.FullCommand():
		return application.resolver.FlushCache()
	}

	return fmt.Errorf("unknown command %s", command)
}

func runServe(ctx context.Context,
	conf *config,
	resolver *geolib.Resolver,
	registry *prometheus.Registry,
	log *logger) error {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.Handle("/", geolib.NewHTTPHandler(resolver))

	srv := &http.Server{
		Addr:              conf.GetListen(),
		Handler:           withBasicAuth(mux, conf.BasicAuth),
		ReadHeaderTimeout: conf.HTTP.GetTimeout(),
	}

	if conf.UpdateEvery > 0 {
		go runPeriodicUpdates(ctx, resolver, conf.UpdateEvery)
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		srv.Shutdown(shutdownCtx) // nolint: errcheck
	}()

	log.App().Info().Str("listen", conf.GetListen()).Msg("start http server")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server has failed: %w", err)
	}

	return nil
}

// runPeriodicUpdates updates a dataset until context is closed. Errors
// are reported by the logger of resolver.
func runPeriodicUpdates(ctx context.Context, resolver *geolib.Resolver, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			resolver.Update(ctx) // nolint: errcheck
		}
	}
}

func runLocate(ctx context.Context,
	writer io.Writer,
	resolver *geolib.Resolver,
	ips []string,
	opts []geolib.LookupOption) error {
	encoder := json.NewEncoder(writer)

	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")

	if len(ips) == 0 {
		return encoder.Encode(resolver.GetLocation(ctx, "", opts...))
	}

	locations, err := resolver.LocateAll(ctx, ips, opts...)
	if err != nil {
		return fmt.Errorf("cannot resolve addresses: %w", err)
	}

	return encoder.Encode(locations)
}

func runUpdate(ctx context.Context, writer io.Writer, resolver *geolib.Resolver) error {
	msg, err := resolver.Update(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(writer, msg)

	return nil
}
