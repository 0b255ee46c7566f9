package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"ai_diagram_generator/apiclient"
	"ai_diagram_generator/app"
	"ai_diagram_generator/config"
	"ai_diagram_generator/editor"
	"ai_diagram_generator/generator"
	"ai_diagram_generator/logging"
	"ai_diagram_generator/recording"
	"ai_diagram_generator/renderer"
	"ai_diagram_generator/server"
	"ai_diagram_generator/transcriber"
	"ai_diagram_generator/tui"
)

const renderCacheSize = 128

func main() {
	configPath := flag.String("config", "config/config.json", "path to config.json")
	serve := flag.Bool("serve", false, "start the diagram API server")
	addr := flag.String("addr", "", "http listen address when --serve (overrides PORT)")
	prompt := flag.String("prompt", "", "generate one diagram from this description and print it")
	verbose := flag.Bool("v", false, "enable debug logs")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}

	switch {
	case *serve:
		if err := runServer(ctx, *configPath, *addr, level); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	case *prompt != "":
		if err := runPrompt(ctx, *configPath, *prompt, level); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	default:
		if err := runTUI(ctx, level); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}

// loadGateway loads the backend configuration and the completion provider.
// A missing credential surfaces here, before anything is served.
func loadGateway(ctx context.Context, configPath string, level slog.Level, stdout bool) (config.Config, generator.LLMClient, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	logger := logging.New(logging.Options{
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
		Stdout: stdout,
		Level:  level,
	})
	llm, err := generator.NewLLM(ctx, cfg.LLMSettings())
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	return cfg, generator.Wrap(llm, generator.WithLogging(logger)), logger, nil
}

func runServer(ctx context.Context, configPath, addr string, level slog.Level) error {
	cfg, llm, logger, err := loadGateway(ctx, configPath, level, true)
	if err != nil {
		return err
	}
	agent, err := generator.NewAgent(llm)
	if err != nil {
		return err
	}
	tr, err := transcriber.New(cfg.Transcription, nil)
	if err != nil {
		logger.Warn("transcription disabled", "error", err)
	}
	srv, err := server.New(agent, tr, server.WithLogger(logger), server.WithTimeout(cfg.Timeout()))
	if err != nil {
		return err
	}
	listen := cfg.Addr()
	if addr != "" {
		listen = addr
	}
	logger.Info("starting diagram server", "addr", listen, "provider", cfg.LLM.Provider, "model", cfg.LLM.Model)
	return srv.ListenAndServe(ctx, listen)
}

// runPrompt is the one-shot CLI mode: generate, validate, print.
func runPrompt(ctx context.Context, configPath, description string, level slog.Level) error {
	cfg, llm, _, err := loadGateway(ctx, configPath, level, false)
	if err != nil {
		return err
	}
	agent, err := generator.NewAgent(generator.Wrap(llm, generator.WithTimeout(cfg.Timeout())))
	if err != nil {
		return err
	}
	diagram, err := agent.Generate(ctx, description)
	if err != nil {
		return err
	}
	if err := generator.CheckDiagram(diagram); err != nil {
		return err
	}
	fmt.Println(diagram)
	return nil
}

func runTUI(ctx context.Context, level slog.Level) error {
	cfg := config.LoadClient()
	logger := logging.New(logging.Options{
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
		Level:  level,
	})

	kroki := renderer.NewKroki(cfg.KrokiURL, nil)
	cached, err := renderer.NewCached(kroki, renderCacheSize)
	if err != nil {
		return err
	}

	api := apiclient.New(cfg.APIURL, nil)
	state := app.NewState("", "")
	deps := tui.Deps{
		App:       app.NewController(api, cfg.APIURL, state, logger),
		Recorder:  recording.New(recording.ExecMicrophone{Command: cfg.RecordCommand}, api, state, logger),
		Renderer:  cached,
		Raster:    cached,
		Clipboard: editor.SystemClipboard{},
		ExportDir: cfg.ExportDir,
		Logger:    logger,
	}
	return tui.Run(ctx, deps)
}
