package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/velvetcoast/aurora/internal/autodj"
	"github.com/velvetcoast/aurora/internal/config"
	"github.com/velvetcoast/aurora/internal/engine"
	"github.com/velvetcoast/aurora/internal/ollama"
	"github.com/velvetcoast/aurora/internal/pipeline"
	"github.com/velvetcoast/aurora/internal/stream"
	"github.com/velvetcoast/aurora/internal/web"
)

var (
	flagPort      int
	flagStyle     string
	flagEngineURL string
	flagSynth     bool
	flagSpeaker   bool
	flagPipe      string
	flagStyleFile string
	flagDebug     bool
)

var rootCmd = &cobra.Command{
	Use:   "aurora",
	Short: "Endless generative radio with glitch-free live style changes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if flagDebug {
			log.SetLevel(log.DebugLevel)
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if cmd.Flags().Changed("port") {
			cfg.Port = flagPort
		}
		if cmd.Flags().Changed("style") {
			cfg.StartingStyle = flagStyle
		}
		if cmd.Flags().Changed("engine-url") {
			cfg.EngineURL = flagEngineURL
		}
		if cmd.Flags().Changed("synth") {
			cfg.Synth = flagSynth
		}
		if cmd.Flags().Changed("speaker") {
			cfg.Speaker = flagSpeaker
		}
		if cmd.Flags().Changed("pipe") {
			cfg.PipePath = flagPipe
		}
		if cmd.Flags().Changed("style-file") {
			cfg.StyleFile = flagStyleFile
		}

		return run(cmd.Context(), cfg)
	},
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rootCmd.Flags().IntVar(&flagPort, "port", 8080, "HTTP listen port")
	rootCmd.Flags().StringVar(&flagStyle, "style", "lofi hip hop", "starting style")
	rootCmd.Flags().StringVar(&flagEngineURL, "engine-url", "", "generation engine sidecar URL")
	rootCmd.Flags().BoolVar(&flagSynth, "synth", false, "use the built-in synth engine (no sidecar)")
	rootCmd.Flags().BoolVar(&flagSpeaker, "speaker", false, "play on the local audio device")
	rootCmd.Flags().StringVar(&flagPipe, "pipe", "", "write raw s16le frames to this named pipe")
	rootCmd.Flags().StringVar(&flagStyleFile, "style-file", "", "watch this file for style requests")
	rootCmd.Flags().BoolVar(&flagDebug, "debug", false, "debug logging")

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	log.Info("aurora starting up", "style", cfg.StartingStyle, "channels", cfg.Channels)

	eng, err := buildEngine(ctx, cfg)
	if err != nil {
		return err
	}

	emb, err := eng.EmbedStyle(ctx, cfg.StartingStyle)
	if err != nil {
		return fmt.Errorf("embed starting style %q: %w", cfg.StartingStyle, err)
	}

	pipe := pipeline.New(eng, cfg.StartingStyle, emb, pipeline.Config{
		Channels:           cfg.Channels,
		TransitionDuration: cfg.TransitionDuration,
		FadeDuration:       cfg.FadeDuration,
		QueueCapacity:      cfg.QueueCapacity,
		EnqueueTimeout:     cfg.EnqueueTimeout,
	})
	monitor := pipeline.NewMonitor(pipe, eng, cfg.PollInterval)

	// Ollama LLM (optional -- enriches style prompts before embedding)
	if cfg.OllamaURL != "" {
		client := ollama.NewClient(cfg.OllamaURL, cfg.OllamaModel)
		readyCtx, readyCancel := context.WithTimeout(ctx, 30*time.Second)
		if client.WaitForReady(readyCtx) {
			monitor.SetDescribeFunc(ollama.NewStyleDescriber(client).Describe)
		} else {
			log.Info("ollama not available, using bare style labels")
		}
		readyCancel()
	}

	broadcaster := stream.NewBroadcaster()
	webrtcHandler := stream.NewWebRTCHandler(broadcaster, cfg.Channels)

	dj := autodj.New(monitor.Request, cfg.StartingStyle, cfg.DwellMin, cfg.DwellMax)
	dj.SetEnabled(cfg.AutoDJ)

	sinks := []pipeline.Sink{stream.NewBroadcastSink(broadcaster)}
	if cfg.PipePath != "" {
		sinks = append(sinks, stream.NewPipeSink(cfg.PipePath))
	}
	if cfg.Speaker {
		sinks = append(sinks, stream.NewSpeakerSink(cfg.Channels))
	}
	writer := pipeline.NewWriter(pipe, pipeline.MultiSink(sinks...))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return pipe.RunGenerator(ctx) })
	g.Go(func() error { return monitor.Run(ctx) })
	g.Go(func() error { return writer.Run(ctx) })
	g.Go(func() error { return dj.Run(ctx) })
	if cfg.StyleFile != "" {
		g.Go(func() error {
			if err := monitor.WatchFile(ctx, cfg.StyleFile); err != nil {
				log.Warn("style file watching disabled", "err", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		return serveHTTP(ctx, cfg, pipe, monitor, dj, broadcaster, webrtcHandler)
	})

	if err := g.Wait(); err != nil {
		log.Error("pipeline stopped", "err", err)
		return err
	}
	log.Info("shutdown complete")
	return nil
}

func buildEngine(ctx context.Context, cfg config.Config) (engine.Engine, error) {
	if cfg.Synth {
		log.Info("using built-in synth engine", "chunk", cfg.SynthChunk)
		return engine.NewSynth(cfg.SynthChunk, cfg.Channels), nil
	}

	client := engine.NewClient(cfg.EngineURL, cfg.EngineAPIKey)
	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()
	if err := client.WaitForHealthy(healthCtx); err != nil {
		return nil, fmt.Errorf("generation engine not available: %w", err)
	}
	return client, nil
}

func serveHTTP(ctx context.Context, cfg config.Config, pipe *pipeline.Pipeline,
	monitor *pipeline.Monitor, dj *autodj.DJ, broadcaster *stream.Broadcaster,
	webrtcHandler *stream.WebRTCHandler) error {

	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(web.IndexHTML)
	})

	mux.Handle("/stream", stream.NewHTTPHandler(broadcaster, cfg.Channels))
	mux.Handle("/offer", webrtcHandler)

	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		json.NewEncoder(w).Encode(map[string]any{
			"pipeline":         pipe.Status(),
			"auto_dj":          dj.Status(),
			"listeners":        broadcaster.ListenerCount(),
			"webrtc_listeners": webrtcHandler.PeerCount(),
			"transition":       pipe.TransitionDuration().Seconds(),
		})
	})

	mux.HandleFunc("/api/style", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			Style string `json:"style"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Style) == "" {
			http.Error(w, "invalid style", http.StatusBadRequest)
			return
		}
		monitor.Request(req.Style)
		dj.Notice(req.Style)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "style": req.Style})
	})

	mux.HandleFunc("/api/autodj", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			Enabled bool `json:"enabled"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		dj.SetEnabled(req.Enabled)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "enabled": req.Enabled})
	})

	mux.HandleFunc("/api/config", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			Transition *float64 `json:"transition"` // seconds
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if req.Transition != nil {
			v := *req.Transition
			if v < 1 || v > 30 {
				http.Error(w, "transition must be 1-30 seconds", http.StatusBadRequest)
				return
			}
			pipe.SetTransitionDuration(time.Duration(v * float64(time.Second)))
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"ok":         true,
			"transition": pipe.TransitionDuration().Seconds(),
		})
	})

	server := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: mux}

	go func() {
		<-ctx.Done()
		log.Info("shutting down http server")
		server.Close()
	}()

	log.Info("aurora live", "addr", server.Addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
