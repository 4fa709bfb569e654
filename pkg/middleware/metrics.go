package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/taskboard/pkg/apperr"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics はHTTPリクエストのPrometheusメトリクス。
type Metrics struct {
	requests *prometheus.CounterVec
	failures *prometheus.CounterVec
}

// NewMetrics はメトリクスを生成し、regに登録する。
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskboard",
			Name:      "http_requests_total",
			Help:      "処理したHTTPリクエスト数",
		}, []string{"method", "route", "status"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskboard",
			Name:      "http_failures_total",
			Help:      "エラーコード別の失敗リクエスト数",
		}, []string{"code"}),
	}
	reg.MustRegister(m.requests, m.failures)
	return m
}

// Handler はリクエスト数とエラーコード別の失敗数を記録するGinミドルウェアを返す。
// ErrorHandlerより外側に登録すると最終的なステータスコードを記録できる。
func (m *Metrics) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()

		if last := c.Errors.Last(); last != nil {
			m.failures.WithLabelValues(apperr.Wrap(last.Err).Code).Inc()
		}
	}
}
