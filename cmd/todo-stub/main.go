package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Makepad-fr/freetodo/internal/stubserver"
)

func main() {
	addr := flag.String("addr", ":8000", "listen address")
	delay := flag.Duration("delay", 0, "hold every create call this long")
	failStatus := flag.Int("fail", 0, "answer every create call with this status")
	flag.Parse()

	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}
	if v, ok := os.LookupEnv("FREETODO_STUB_PORT"); ok && v != "" {
		*addr = ":" + v
	}

	opts := []stubserver.Option{stubserver.WithLogger(log.StandardLogger())}
	if *delay > 0 {
		opts = append(opts, stubserver.WithDelay(*delay))
	}
	if *failStatus > 0 {
		opts = append(opts, stubserver.WithFailure(*failStatus))
	}
	srv := stubserver.New(opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.WithField("addr", *addr).Info("stub creation service listening")
		if err := srv.Start(*addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("shutdown: %v", err)
	}
}
