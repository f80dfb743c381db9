// Command server wires the automated content pipeline together and
// exposes its HTTP trigger surface: health, manual generation, topic
// discovery, website scanning, and the additive ops endpoints
// (GraphQL, /stats, /metrics).
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"

	"github.com/toinevv/seo-system-blank/internal/config"
	"github.com/toinevv/seo-system-blank/internal/cryptobox"
	"github.com/toinevv/seo-system-blank/internal/logging"
	"github.com/toinevv/seo-system-blank/internal/metrics"
	"github.com/toinevv/seo-system-blank/internal/models"
	"github.com/toinevv/seo-system-blank/internal/opsapi"
	"github.com/toinevv/seo-system-blank/internal/provider"
	"github.com/toinevv/seo-system-blank/internal/scanner"
	"github.com/toinevv/seo-system-blank/internal/scheduler"
	"github.com/toinevv/seo-system-blank/internal/store"
	"github.com/toinevv/seo-system-blank/internal/topics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func main() {
	cfg, err := config.New(os.Args[1:])
	if err != nil {
		panic(err)
	}

	logging.Init(cfg.LogLevel, os.Stdout)
	logger := log.Logger

	central := store.New(cfg.StoreBaseURL, cfg.StoreAPIKey)
	topicEngine := topics.New(central)

	platform := scheduler.PlatformKeys{
		OpenAIKey:    cfg.PlatformOpenAIKey,
		AnthropicKey: cfg.PlatformAnthropicKey,
	}
	sched := scheduler.New(central, topicEngine, cfg.EncryptionKey, platform)

	metricsRegistry := metrics.Init()

	tickInterval, err := time.ParseDuration(cfg.TickInterval)
	if err != nil {
		tickInterval = time.Hour
	}
	sched.Start(tickInterval)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(metrics.HTTPMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Get(cfg.MetricsPath, metrics.Handler(metricsRegistry).ServeHTTP)

	registerTriggerRoutes(r, sched, central, topicEngine, cfg)
	registerScanRoutes(r, central, cfg)

	gqlHandler, err := opsapi.Handler(central, sched)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create graphql handler")
	}
	r.Handle("/graphql", gqlHandler)

	r.Get("/stats", func(w http.ResponseWriter, req *http.Request) {
		stats, err := opsapi.Stats(req.Context(), central, sched)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	})

	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute, // article generation calls can run long
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("server shutting down")
	sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}
	logger.Info().Msg("server exited")
}

// registerTriggerRoutes wires the manual generation and topic-discovery
// surface (§6): /trigger and /generate run one scheduler tick
// immediately; /discover-topics and /discover run AI+search topic
// discovery for a single website on demand.
func registerTriggerRoutes(r chi.Router, sched *scheduler.Service, central *store.Gateway, topicEngine *topics.Engine, cfg *config.Config) {
	triggerHandler := func(w http.ResponseWriter, req *http.Request) {
		processed, err := sched.Tick(req.Context(), time.Now())
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"processed": processed})
	}
	r.Post("/trigger", triggerHandler)
	r.Post("/generate", triggerHandler)

	discoverHandler := func(w http.ResponseWriter, req *http.Request) {
		websiteID := req.URL.Query().Get("website_id")
		if websiteID == "" {
			writeJSONError(w, http.StatusBadRequest, errMissingParam("website_id"))
			return
		}

		website, err := central.GetWebsite(req.Context(), websiteID)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err)
			return
		}
		apiKeys, err := central.GetAPIKeys(req.Context(), websiteID)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err)
			return
		}
		scan, _ := central.GetWebsiteScan(req.Context(), websiteID)
		if !scanner.ShouldReuse(scan, website.Topics.ScanFrequencyDays) {
			openAIKey, anthropicKey := resolveWebsiteKeys(apiKeys, cfg)
			_ = central.SetScanStatus(req.Context(), websiteID, models.ScanScanning, "")
			fresh, err := scanner.Scan(req.Context(), websiteID, website.Domain, openAIKey, &provider.SiteAnalyzer{OpenAIKey: openAIKey, AnthropicKey: anthropicKey})
			if err != nil {
				_ = central.SetScanStatus(req.Context(), websiteID, models.ScanFailed, err.Error())
			} else if err := central.UpsertWebsiteScan(req.Context(), fresh); err == nil {
				scan = fresh
			}
		}

		var discovered []models.Topic
		if website.Topics.GoogleSearchEnabled && scan != nil {
			googleTopics, err := topics.DiscoverGoogle(req.Context(), cfg.GoogleSearchAPIKey, cfg.GoogleSearchCX, scan)
			if err == nil {
				discovered = append(discovered, googleTopics...)
			}
		}

		openAIKey, anthropicKey := resolveWebsiteKeys(apiKeys, cfg)
		aiTopics, err := topicEngine.DiscoverAI(req.Context(), website, openAIKey, anthropicKey, scan)
		if err == nil {
			discovered = append(discovered, aiTopics...)
		}

		for i := range discovered {
			if _, err := central.InsertTopic(req.Context(), &discovered[i]); err != nil {
				log.Error().Err(err).Msg("failed to persist discovered topic")
			}
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{"discovered": len(discovered)})
	}
	r.Post("/discover-topics", discoverHandler)
	r.Post("/discover", discoverHandler)
}

// registerScanRoutes wires /scan (persists the result) and
// /scan-preview (stateless — returns the scan without writing it).
func registerScanRoutes(r chi.Router, central *store.Gateway, cfg *config.Config) {
	r.Post("/scan", func(w http.ResponseWriter, req *http.Request) {
		websiteID := req.URL.Query().Get("website_id")
		if websiteID == "" {
			writeJSONError(w, http.StatusBadRequest, errMissingParam("website_id"))
			return
		}
		website, err := central.GetWebsite(req.Context(), websiteID)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err)
			return
		}
		apiKeys, err := central.GetAPIKeys(req.Context(), websiteID)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err)
			return
		}

		if existing, _ := central.GetWebsiteScan(req.Context(), websiteID); scanner.ShouldReuse(existing, website.Topics.ScanFrequencyDays) {
			writeJSON(w, http.StatusOK, existing)
			return
		}

		_ = central.SetScanStatus(req.Context(), websiteID, models.ScanScanning, "")
		openAIKey, anthropicKey := resolveWebsiteKeys(apiKeys, cfg)
		scan, err := scanner.Scan(req.Context(), websiteID, website.Domain, openAIKey, &provider.SiteAnalyzer{OpenAIKey: openAIKey, AnthropicKey: anthropicKey})
		if err != nil {
			_ = central.SetScanStatus(req.Context(), websiteID, models.ScanFailed, err.Error())
			writeJSONError(w, http.StatusInternalServerError, err)
			return
		}

		if err := central.UpsertWebsiteScan(req.Context(), scan); err != nil {
			writeJSONError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, scan)
	})

	// scan-preview is stateless by design, mirroring the predecessor
	// worker's preview entry point: it runs the same scan algorithm but
	// never writes a website_scans row or transitions scan status.
	r.Get("/scan-preview", func(w http.ResponseWriter, req *http.Request) {
		domain := req.URL.Query().Get("domain")
		if domain == "" {
			writeJSONError(w, http.StatusBadRequest, errMissingParam("domain"))
			return
		}
		scan, err := scanner.Scan(req.Context(), "", domain, "", noopAnalyzer{})
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, scan)
	})
}

// noopAnalyzer satisfies scanner.Analyzer for unauthenticated preview
// requests, where no LLM key is available to enrich the scan.
type noopAnalyzer struct{}

func (noopAnalyzer) AnalyzeSite(_ context.Context, _, _, _ string, _, _ []string) (string, []string, []string, string, error) {
	return "", nil, nil, "", nil
}

// resolveWebsiteKeys decrypts a website's own provider keys, falling
// back to the platform-wide keys when a website carries none or its
// ciphertext fails to decrypt.
func resolveWebsiteKeys(apiKeys *models.ApiKeys, cfg *config.Config) (openAIKey, anthropicKey string) {
	if apiKeys.OpenAIKeyEncrypted != "" {
		if k, err := cryptobox.Decrypt(apiKeys.OpenAIKeyEncrypted, cfg.EncryptionKey); err == nil {
			openAIKey = k
		}
	}
	if openAIKey == "" {
		openAIKey = cfg.PlatformOpenAIKey
	}

	if apiKeys.AnthropicKeyEncrypted != "" {
		if k, err := cryptobox.Decrypt(apiKeys.AnthropicKeyEncrypted, cfg.EncryptionKey); err == nil {
			anthropicKey = k
		}
	}
	if anthropicKey == "" {
		anthropicKey = cfg.PlatformAnthropicKey
	}
	return
}

func errMissingParam(name string) error {
	return &paramError{name: name}
}

type paramError struct{ name string }

func (e *paramError) Error() string { return "missing required query parameter: " + e.name }

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	b, _ := json.Marshal(v)
	_, _ = w.Write(b)
}

func writeJSONError(w http.ResponseWriter, status int, err error) {
	log.Error().Err(err).Msg("request failed")
	writeJSON(w, status, map[string]interface{}{"error": err.Error()})
}
