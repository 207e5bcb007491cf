// Package metrics exposes Prometheus counters for the sync engine. The
// engine increments them; Serve exposes them over HTTP for long-running
// callers.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

var (
	// FilesCopied counts files copied, partitioned by profile name.
	FilesCopied = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "unisync_files_copied_total",
		Help: "How many files were copied, partitioned by profile",
	}, []string{"profile"})

	// FilesDeleted counts files deleted, partitioned by profile name.
	FilesDeleted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "unisync_files_deleted_total",
		Help: "How many files were deleted, partitioned by profile",
	}, []string{"profile"})

	// FilesFailed counts actions that failed permanently, partitioned by
	// profile name.
	FilesFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "unisync_files_failed_total",
		Help: "How many actions failed permanently, partitioned by profile",
	}, []string{"profile"})

	// BytesTransferred counts bytes written by copies, partitioned by
	// profile name.
	BytesTransferred = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "unisync_bytes_transferred_total",
		Help: "How many bytes were transferred, partitioned by profile",
	}, []string{"profile"})
)

func init() {
	prometheus.MustRegister(FilesCopied)
	prometheus.MustRegister(FilesDeleted)
	prometheus.MustRegister(FilesFailed)
	prometheus.MustRegister(BytesTransferred)
}

// Serve exposes the counters on addr under /metrics in the background.
func Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.WithError(err).WithField("addr", addr).
				Warn("Metrics endpoint stopped")
		}
	}()
}
