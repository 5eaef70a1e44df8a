package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Token endpoint metrics. Defined in a standalone package to avoid import
// cycles between the HTTP controllers and the server package.

var (
	TokenRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "uaa_token_requests_total",
		Help: "Pedidos de token procesados, por grant type y resultado",
	}, []string{"grant_type", "result"})

	TokenRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "uaa_token_request_duration_seconds",
		Help:    "Duración del pipeline de emisión",
		Buckets: prometheus.DefBuckets,
	}, []string{"grant_type"})
)

// Register registra las métricas del token endpoint y devuelve el handler
// para /metrics. Con reg nil usa el registry default.
func Register(reg prometheus.Registerer) (http.Handler, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{TokenRequestsTotal, TokenRequestDuration} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return nil, err
			}
		}
	}
	gatherer, ok := reg.(prometheus.Gatherer)
	if !ok {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}), nil
}

// ObserveTokenRequest registra el resultado de un pedido de token.
// result es "success" o el código de error OAuth.
func ObserveTokenRequest(grantType, result string, dur time.Duration) {
	if grantType == "" {
		grantType = "unknown"
	}
	TokenRequestsTotal.WithLabelValues(grantType, result).Inc()
	TokenRequestDuration.WithLabelValues(grantType).Observe(dur.Seconds())
}
