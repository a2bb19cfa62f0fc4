package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"paperbroker/internal/config"
	"paperbroker/internal/db"
	"paperbroker/internal/health"
	"paperbroker/internal/httpserver"
	"paperbroker/internal/instruments"
	"paperbroker/internal/marketdata"
	"paperbroker/internal/model"
	"paperbroker/internal/orders"
	"paperbroker/internal/store"

	"github.com/sirupsen/logrus"
)

type storage interface {
	orders.Store
	instruments.Searcher
	Instruments(ctx context.Context) ([]model.Instrument, error)
}

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatal(err)
	}
	if cfg.LogLevel != "" {
		level, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			log.Fatal(err)
		}
		log.SetLevel(level)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var st storage
	switch cfg.StoreBackend {
	case "postgres":
		pool, err := db.NewPool(ctx, cfg.DBDSN)
		if err != nil {
			log.Fatal(err)
		}
		defer pool.Close()
		st = store.NewPostgres(pool)
	default:
		mem := store.NewMemory()
		seedDemoData(mem)
		st = mem
		log.Info("using in-memory store with demo data")
	}

	quotes := marketdata.NewService()
	bus := marketdata.NewBus()
	catalog, err := st.Instruments(ctx)
	if err != nil {
		log.Fatal(err)
	}
	marketdata.StartPublisher(ctx, quotes, bus, catalog, cfg.QuoteTick, log)

	orderSvc := orders.NewService(st, quotes, log)
	router := httpserver.NewRouter(httpserver.RouterDeps{
		OrderHandler:      orders.NewHandler(orderSvc),
		InstrumentHandler: instruments.NewHandler(st),
		MarketHandler:     marketdata.NewHandler(quotes, marketdata.NewQuoteWS(bus, cfg.WSOrigin, log)),
		HealthHandler:     health.NewHandler(st, quotes),
	})
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	log.WithField("addr", cfg.HTTPAddr).Info("server listening")
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}

func seedDemoData(mem *store.Memory) {
	mem.AddUser(model.User{ID: "demo", Name: "Demo User"})
	for _, in := range []model.Instrument{
		{ID: "aapl", Ticker: "AAPL", Name: "Apple Inc."},
		{ID: "msft", Ticker: "MSFT", Name: "Microsoft Corporation"},
		{ID: "goog", Ticker: "GOOG", Name: "Alphabet Inc."},
		{ID: "amzn", Ticker: "AMZN", Name: "Amazon.com Inc."},
	} {
		mem.AddInstrument(in)
	}
}
