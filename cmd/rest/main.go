package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"rag-pipeline-be/internal/bootstrap"
	"rag-pipeline-be/internal/config"
	"rag-pipeline-be/internal/server"
	"rag-pipeline-be/internal/tracer"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Tracer
	shutdownTracer := tracer.InitTracer(cfg.App.Name, cfg.App.OtelEnabled, cfg.App.OtelEndpoint)

	// 3. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Unable to bootstrap: %v", err)
	}

	// 4. Start Background Services
	if err := container.ConsumerService.Consume(ctx); err != nil {
		log.Printf("Background Consumer Error: %v", err)
	}
	if container.IndexListener != nil {
		if err := container.IndexListener.Start(ctx); err != nil {
			log.Printf("Index Listener Error: %v", err)
		}
	}

	// 5. Initialize Server
	srv := server.New(cfg, container)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// 6. Run Server
	runErr := srv.Run()

	closeErr := container.Close()
	tracerErr := shutdownTracer(context.Background())
	if err := errors.Join(runErr, closeErr, tracerErr); err != nil {
		log.Fatal(err)
	}
}
