package monitor

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ramp-payments/verification-engine/internal/logging"
)

type prometheusClient struct {
	httpHandler http.Handler
	registry    *prometheus.Registry
}

func (prometheusClient) GetMetricType() MetricType {
	return MetricTypePrometheus
}

func (p *prometheusClient) GetMetricHTTPHandler() http.Handler {
	return p.httpHandler
}

func (p *prometheusClient) MonitorHTTPRequestDuration(duration time.Duration, labels HTTPRequestLabels) {
	SummaryVecMetrics[HTTPRequestDurationTag].With(prometheus.Labels{
		"status": labels.Status,
		"route":  labels.Route,
		"method": labels.Method,
	}).Observe(duration.Seconds())
}

func (p *prometheusClient) MonitorDBQueryDuration(duration time.Duration, tag MetricTag, labels DBQueryLabels) {
	summary := SummaryVecMetrics[tag]
	summary.With(prometheus.Labels{
		"query_type": labels.QueryType,
	}).Observe(duration.Seconds())
}

func (p *prometheusClient) MonitorDuration(duration time.Duration, tag MetricTag, labels map[string]string) {
	summary := SummaryVecMetrics[tag]
	summary.With(labels).Observe(duration.Seconds())
}

func (p *prometheusClient) MonitorCounters(tag MetricTag, labels map[string]string) {
	if len(labels) != 0 {
		if counterVecMetric, ok := CounterVecMetrics[tag]; ok {
			counterVecMetric.With(labels).Inc()
		} else {
			logging.Errorf("metric not registered in Prometheus CounterVecMetrics: %s", tag)
		}
	} else {
		if counterMetric, ok := CounterMetrics[tag]; ok {
			counterMetric.Inc()
		} else if counterVecMetric, ok := CounterVecMetrics[tag]; ok {
			// a CounterVec declared without labels is incremented with an empty label set
			if counter, err := counterVecMetric.GetMetricWith(prometheus.Labels{}); err == nil {
				counter.Inc()
			} else {
				logging.Errorf("counter vec metric %s requires labels: %v", tag, err)
			}
		} else {
			logging.Errorf("metric not registered in Prometheus CounterMetrics: %s", tag)
		}
	}
}

func (p *prometheusClient) MonitorHistogram(value float64, tag MetricTag, labels map[string]string) {
	histogram := HistogramVecMetrics[tag]
	histogram.With(labels).Observe(value)
}

func (p *prometheusClient) RegisterFunctionMetric(metricType FuncMetricType, opts FuncMetricOptions) {
	switch metricType {
	case FuncGaugeType:
		p.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   opts.Namespace,
			Subsystem:   opts.Subservice,
			Name:        opts.Name,
			Help:        opts.Help,
			ConstLabels: opts.Labels,
		}, opts.Function))
	case FuncCounterType:
		p.registry.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Subsystem:   opts.Subservice,
			Name:        opts.Name,
			Help:        opts.Help,
			ConstLabels: opts.Labels,
		}, opts.Function))
	default:
		logging.Errorf("Error Registering Function %s metric %s: unsupported metric type", metricType, opts.Name)
	}
}

func NewPrometheusClient() (*prometheusClient, error) {
	// register Prometheus metrics
	metricsRegistry := prometheus.NewRegistry()

	var metricTag MetricTag
	for _, tag := range metricTag.ListAll() {
		if summaryVecMetric, ok := SummaryVecMetrics[tag]; ok {
			metricsRegistry.MustRegister(summaryVecMetric)
		} else if counterMetric, ok := CounterMetrics[tag]; ok {
			metricsRegistry.MustRegister(counterMetric)
		} else if counterVecMetric, ok := CounterVecMetrics[tag]; ok {
			metricsRegistry.MustRegister(counterVecMetric)
		} else {
			return nil, fmt.Errorf("metric not registered in prometheus metrics: %s", tag)
		}
	}

	return &prometheusClient{
		httpHandler: promhttp.HandlerFor(metricsRegistry, promhttp.HandlerOpts{}),
		registry:    metricsRegistry,
	}, nil
}

// Ensuring that prometheusClient is implementing MonitorClient interface
var _ MonitorClient = (*prometheusClient)(nil)
