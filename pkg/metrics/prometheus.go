package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var httpHistogramBuckets = []float64{
	25, 50, 75, 100, 150, 200, 300, 400, 500,
	750, 1000, 1500, 2000,
	3000, 5000, 7500, 10000, 15000,
	30000, 60000,
}

const defaultMetricsPath = "/metrics"

// Prometheus instruments a gin engine with request count/duration/size
// metrics and serves the scrape endpoint, optionally on its own listener
// so /metrics stays out of the API access log.
type Prometheus struct {
	reqCnt *prometheus.CounterVec
	reqDur *prometheus.HistogramVec
	reqSz  *prometheus.SummaryVec
	resSz  *prometheus.SummaryVec

	listenAddress string
	metricsPath   string

	// URLLabelFn controls the cardinality of the "url" label; it should
	// collapse parameterized routes (e.g. "/donations/:id") to their
	// templates.
	URLLabelFn func(c *gin.Context) string

	log *zap.SugaredLogger
}

type NewPrometheusOptions struct {
	Subsystem   string
	MetricsPath string
	URLLabelFn  func(c *gin.Context) string
	Logger      *zap.SugaredLogger
}

func NewPrometheus(options NewPrometheusOptions) *Prometheus {
	p := &Prometheus{
		metricsPath: options.MetricsPath,
		URLLabelFn:  options.URLLabelFn,
		log:         options.Logger,
	}
	if p.metricsPath == "" {
		p.metricsPath = defaultMetricsPath
	}
	if p.URLLabelFn == nil {
		p.URLLabelFn = func(c *gin.Context) string { return c.Request.URL.Path }
	}
	p.register(options.Subsystem)
	return p
}

func (p *Prometheus) register(subsystem string) {
	labels := []string{"code", "method", "url"}

	p.reqCnt = prometheus.NewCounterVec(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "req_total",
		Help:      "How many HTTP requests processed, partitioned by status code, method and URL.",
	}, labels)
	p.reqDur = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Subsystem: subsystem,
		Name:      "req_dur_ms",
		Help:      "The HTTP request latencies in milliseconds.",
		Buckets:   httpHistogramBuckets,
	}, labels)
	p.reqSz = prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Subsystem: subsystem,
		Name:      "req_sz_bytes",
		Help:      "The HTTP request sizes in bytes.",
	}, labels)
	p.resSz = prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Subsystem: subsystem,
		Name:      "resp_sz_bytes",
		Help:      "The HTTP response sizes in bytes.",
	}, labels)

	for _, c := range []prometheus.Collector{p.reqCnt, p.reqDur, p.reqSz, p.resSz} {
		if err := prometheus.Register(c); err != nil && p.log != nil {
			p.log.Errorf("metrics collector could not be registered: %v", err)
		}
	}
}

// SetListenAddress exposes /metrics on a dedicated address instead of
// the instrumented engine.
func (p *Prometheus) SetListenAddress(address string) {
	p.listenAddress = address
}

// Use attaches the middleware and mounts the scrape endpoint.
func (p *Prometheus) Use(e *gin.Engine) {
	e.Use(p.HandlerFunc())
	if p.listenAddress != "" {
		r := gin.New()
		r.GET(p.metricsPath, gin.WrapH(promhttp.Handler()))
		go func() {
			if err := r.Run(p.listenAddress); err != nil && p.log != nil {
				p.log.Errorf("metrics listener stopped: %v", err)
			}
		}()
		return
	}
	e.GET(p.metricsPath, gin.WrapH(promhttp.Handler()))
}

// HandlerFunc records per-request metrics.
func (p *Prometheus) HandlerFunc() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == p.metricsPath {
			c.Next()
			return
		}

		start := time.Now()
		reqSz := approxRequestSize(c.Request)

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		url := p.URLLabelFn(c)

		p.reqDur.WithLabelValues(status, c.Request.Method, url).Observe(float64(time.Since(start).Milliseconds()))
		p.reqCnt.WithLabelValues(status, c.Request.Method, url).Inc()
		p.reqSz.WithLabelValues(status, c.Request.Method, url).Observe(float64(reqSz))
		p.resSz.WithLabelValues(status, c.Request.Method, url).Observe(float64(c.Writer.Size()))
	}
}

func approxRequestSize(r *http.Request) int64 {
	size := int64(0)
	if r.URL != nil {
		size += int64(len(r.URL.Path))
	}
	size += int64(len(r.Method))
	size += int64(len(r.Proto))
	for name, values := range r.Header {
		size += int64(len(name))
		for _, v := range values {
			size += int64(len(v))
		}
	}
	size += int64(len(r.Host))
	if r.ContentLength != -1 {
		size += r.ContentLength
	}
	return size
}
