// Command capture is a minimal CLI demo wiring recorder.Core, the
// streaming transcription plugin, and a malgo microphone source
// together. It stands in for the SDK's external "microphone presenter"
// collaborator; button UI and animations are out of scope.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/attenditechnology/attendi-capture-core/internal/zaplogger"
	"github.com/attenditechnology/attendi-capture-core/plugin/streaming"
	"github.com/attenditechnology/attendi-capture-core/recorder"
	"github.com/attenditechnology/attendi-capture-core/session"
	"github.com/attenditechnology/attendi-capture-core/session/wstransport"
	"github.com/attenditechnology/attendi-capture-core/transcribe"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: No .env file found, using system environment variables")
	}

	backendURL := os.Getenv("CAPTURE_BACKEND_URL")
	if backendURL == "" {
		backendURL = "wss://localhost:8443/ws/transcribe"
	}
	apiKey := os.Getenv("CAPTURE_API_KEY")

	logger, err := zaplogger.New()
	if err != nil {
		log.Fatalf("Error: failed to build logger: %v", err)
	}
	defer logger.Sync()

	source, err := newMicAudioSource()
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	defer source.Close()

	core := recorder.NewCoreWithLogger(source, recorder.DefaultConfig(), logger)

	var pcmMu sync.Mutex
	var pcm []byte
	core.Model().On(recorder.EventAudioFrame, func(ctx context.Context, arg any) error {
		if frame, ok := arg.(recorder.Frame); ok {
			pcmMu.Lock()
			pcm = append(pcm, frame.EncodePCM16LE()...)
			pcmMu.Unlock()
		}
		return nil
	})
	core.Model().On(recorder.EventStop, func(ctx context.Context, arg any) error {
		pcmMu.Lock()
		captured := pcm
		pcm = nil
		pcmMu.Unlock()
		if len(captured) == 0 {
			return nil
		}
		wav := recorder.EncodeWAV(captured, recorder.DefaultConfig().SampleRate)
		if err := os.WriteFile("capture.wav", wav, 0o644); err != nil {
			logger.Warn("capture: failed to write capture.wav", "error", err)
		} else {
			fmt.Println("\nSaved recording to capture.wav")
		}
		return nil
	})

	newSession := func() *session.AsyncSession {
		dialer := wstransport.NewDialer()
		hooks := session.Hooks{
			CreateRequest: func(ctx context.Context) session.Request {
				header := http.Header{}
				if apiKey != "" {
					header.Set("Authorization", "Bearer "+apiKey)
				}
				return session.Request{URL: backendURL, Header: header}
			},
			RetryCount: 3,
			OpenMessage: streaming.OpenMessageHook(streaming.ClientConfiguration{
				Features: &streaming.ClientConfigurationFeatures{
					VoiceEditing: streaming.VoiceEditingFeature{IsEnabled: true},
				},
			}),
		}
		return session.NewWithLogger(dialer, hooks, logger)
	}

	plugin := streaming.New(newSession, streaming.Events{
		OnConnecting: func() { fmt.Println("Connecting to transcription backend...") },
		OnStarted:    func() { fmt.Println("Listening. Press Ctrl+C to stop.") },
		OnUpdated: func(stream *transcribe.Stream) {
			fmt.Printf("\r\033[K[TRANSCRIPT] %s", stream.State.Text)
		},
		OnCompleted: func(stream *transcribe.Stream, err error) {
			if err != nil {
				fmt.Printf("\n[ERROR] session ended: %v\n", err)
				return
			}
			fmt.Println("\n[DONE]")
		},
	})

	if err := core.SetPlugins(context.Background(), []recorder.Plugin{plugin}); err != nil {
		log.Fatalf("Error: failed to install streaming plugin: %v", err)
	}

	go func() {
		for state := range core.States() {
			logger.Debug("recorder state changed", "state", state.String())
		}
	}()

	if err := core.Start(context.Background(), 0); err != nil {
		log.Fatalf("Error: failed to start recording: %v", err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	fmt.Println("\nShutting down...")
	if err := core.Stop(context.Background(), 0); err != nil {
		log.Printf("Error: failed to stop recording cleanly: %v", err)
	}
	core.Release(context.Background())
}
