package metrics

import (
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dublinbikes_cycles_total",
		Help: "Total ingestion cycles by outcome.",
	}, []string{"result"})

	RecordsParsed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dublinbikes_records_parsed_total",
		Help: "Total feed records successfully parsed.",
	})

	RecordsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dublinbikes_records_skipped_total",
		Help: "Total feed records dropped during parsing or rejected per-record by the store.",
	})

	StationsInserted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dublinbikes_stations_inserted_total",
		Help: "Total new station rows inserted.",
	})

	AvailabilityInserted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dublinbikes_availability_inserted_total",
		Help: "Total availability observations inserted.",
	})

	AvailabilityDuplicates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dublinbikes_availability_duplicates_total",
		Help: "Total availability observations absorbed as duplicates.",
	})

	WeatherRowsInserted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dublinbikes_weather_rows_inserted_total",
		Help: "Total current-weather and forecast rows inserted.",
	})

	WeatherFetchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dublinbikes_weather_fetch_failures_total",
		Help: "Total per-station weather sub-fetches that failed.",
	})
)

// Serve exposes /metrics and /health on a dedicated listener. Blocks, so run
// in a goroutine.
func Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("metrics server listening on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("metrics server failed: %v", err)
	}
}
