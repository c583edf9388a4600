package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	"github.com/lmittmann/tint"
	log "log/slog"

	"kiosk/internal/audio"
	"kiosk/internal/config"
	"kiosk/internal/ipc"
	"kiosk/internal/kiosk"
	"kiosk/internal/knowledge"
	"kiosk/internal/notify"
	"kiosk/internal/proxy"
	"kiosk/internal/resolve"
	"kiosk/internal/stt"
	"kiosk/internal/tts"
	"kiosk/internal/ui"
	"kiosk/pkg/audioconv"
	wstt "kiosk/pkg/stt"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	synthName := cli.StringP("synth", "s", "espeak", "Speech backend: espeak or openai")
	proxyAddr := cli.StringP("proxy", "p", "", "SOCKS proxy address for the openai backend")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	noDuck := cli.Bool("no-duck", false, "Do not duck other audio streams during dialog")
	cli.Parse()

	log.SetDefault(log.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level: logLevelMap[*logLevel],
	})))

	log.Info("Booting up")

	godotenv.Load(*envFile)
	cfg := config.FromEnv()

	var kb *knowledge.Base
	if cfg.KnowledgePath == "" {
		log.Warn("No knowledge base configured, every query will be unknown")
		kb = knowledge.Empty()
	} else {
		var err error
		kb, err = knowledge.Load(cfg.KnowledgePath)
		if err != nil {
			log.Error("Failed to load knowledge base", "path", cfg.KnowledgePath, "err", err)
			os.Exit(1)
		}
	}

	log.Debug("Loaded knowledge base", "dishes", len(kb.Dishes), "faq", len(kb.FAQ))

	player := tts.NewPlayer(audioconv.TargetRate)

	var synth tts.Synthesizer
	switch *synthName {
	case "espeak":
		es, err := tts.NewEspeakSynth(cfg.Language)
		if err != nil {
			log.Error("Failed to init espeak", "err", err)
			os.Exit(1)
		}
		synth = es
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			log.Error("OPENAI_API_KEY not set")
			os.Exit(1)
		}
		var httpClient *http.Client
		if *proxyAddr != "" {
			hc, err := proxy.NewSocksClient(*proxyAddr)
			if err != nil {
				log.Error("Failed to dial socks proxy", "proxy", *proxyAddr, "err", err)
				os.Exit(1)
			}
			httpClient = hc
		}
		synth = tts.NewOpenAISynth(apiKey, httpClient, player)
	default:
		log.Error("Unknown speech backend", "synth", *synthName)
		os.Exit(1)
	}

	log.Debug("Loaded speech backend", "synth", *synthName)

	queue := tts.NewQueue(synth, log.Default())
	queue.Start()

	transcriber, err := wstt.NewTranscriber(cfg.ModelPath, wstt.Options{Language: cfg.Language})
	if err != nil {
		log.Error("Failed to init whisper", "model", cfg.ModelPath, "err", err)
		os.Exit(1)
	}
	defer transcriber.Close()

	log.Debug("Loaded whisper", "model", cfg.ModelPath)

	stream := stt.NewStream()
	feeder := stt.NewFeeder(transcriber, stream, cfg.SilenceGap, cfg.MaxSpeechSamples(), log.Default())
	feeder.Start()

	mic := audio.NewMicSource(cfg.SampleRate, cfg.FrameSize)
	frameDur := time.Duration(cfg.FrameSize) * time.Second / time.Duration(cfg.SampleRate)
	capture := audio.NewCapture(mic, feeder, cfg.NoiseGate, frameDur, log.Default())

	engine := resolve.NewEngine(kb, log.Default())

	chime, err := notify.LoadChime(cfg.ChimePath, player)
	if err != nil {
		log.Warn("No activation chime", "err", err)
	}

	var ducker *audio.Ducker
	if !*noDuck {
		ducker = audio.NewDucker([]string{"kioskd"}, 20, log.Default())
	}

	var bridge *ui.Bridge

	ctrl := kiosk.NewController(kiosk.Config{
		PromoLines:    kb.Promo,
		PromoInterval: cfg.PromoInterval,
		Inactivity:    cfg.Inactivity,
		PollTimeout:   cfg.PollTimeout,
		UnknownReply:  cfg.UnknownReply,
		OnDialogStart: func() {
			if ducker != nil {
				if err := ducker.Duck(context.Background()); err != nil {
					log.Warn("Failed to duck other audio", "err", err)
				}
			}
			if chime != nil {
				if err := chime.Play(); err != nil {
					log.Warn("Failed to play chime", "err", err)
				}
			}
		},
		OnDialogEnd: func() {
			if ducker != nil {
				if err := ducker.Unduck(context.Background()); err != nil {
					log.Warn("Failed to restore other audio", "err", err)
				}
			}
		},
	}, queue, stream, capture, engine, func(m kiosk.Mode, label string) {
		if bridge != nil {
			bridge.Broadcast(m.String(), label)
		}
	}, log.Default())

	bridge = ui.NewBridge(ctrl.Activate, log.Default())

	if err := ipc.StartServer(func(msg ipc.ControlMessage) {
		switch msg.Cmd {
		case "activate":
			ctrl.Activate()
		default:
			log.Warn("Unknown command", "cmd", msg.Cmd)
		}
	}); err != nil {
		log.Error("Failed to start ipc server", "err", err)
		os.Exit(1)
	}

	go func() {
		if err := bridge.Serve(cfg.ListenAddr); err != nil {
			log.Error("Front-end bridge stopped", "err", err)
		}
	}()

	ctrl.Start()
	log.Info("Boot up - successful", "listen", cfg.ListenAddr)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info("Shutting down")
	ctrl.Shutdown()
	feeder.Stop()
	queue.Close()
}
