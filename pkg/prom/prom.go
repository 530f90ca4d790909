package prom

import (
	"fmt"
	"sync"

	"github.com/leasedesk/leasedesk/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

const (
	SystemHTTP     = "http"
	SystemWorkflow = "workflow"
	SystemEvents   = "events"
)

const (
	MetricHTTPRequests        = "requests_total"
	MetricHTTPRequestDuration = "request_duration_seconds"
	MetricTransitions         = "transitions_total"
	MetricEventsPublished     = "published_total"
	MetricEventsConsumed      = "consumed_total"
)

const (
	TypeCounter      = "counter"
	TypeCounterVec   = "counterVec"
	TypeHistogramVec = "histogramVec"
	TypeGaugeVec     = "gaugeVec"
)

var lockCreateMetricLock = &sync.Mutex{}
var namespace = "none"

var MetricSystemEnabled = false

var registry = prometheus.NewRegistry()

var MetricCollectionCounters = make(map[string]prometheus.Counter)
var MetricCollectionCounterVec = make(map[string]*prometheus.CounterVec)
var MetricCollectionGaugeVec = make(map[string]*prometheus.GaugeVec)
var MetricCollectionHistogramVec = make(map[string]*prometheus.HistogramVec)

var defaultLabels prometheus.Labels

// Create registers every metric the services report. Calling it twice is an error.
func Create(host string, env string, nameSpace string) error {
	defaultLabels = prometheus.Labels{"env": env, "instance": host}
	namespace = nameSpace
	MetricSystemEnabled = true

	var err error
	hasError := func(e error) {
		if err == nil && e != nil {
			err = e
		}
	}

	hasError(createCounterVec(SystemHTTP, MetricHTTPRequests, []string{"method", "route", "status"}))
	hasError(createHistogramVec(SystemHTTP, MetricHTTPRequestDuration, []string{"method", "route"}))
	hasError(createCounterVec(SystemWorkflow, MetricTransitions, []string{"entity", "transition"}))
	hasError(createCounterVec(SystemEvents, MetricEventsPublished, []string{"type"}))
	hasError(createCounterVec(SystemEvents, MetricEventsConsumed, []string{"type", "result"}))

	return err
}

func CreateMetric(metricType, metricSubsystem, metricName string, labelsValues ...string) error {
	switch metricType {
	case TypeCounter:
		return createCounter(metricSubsystem, metricName)
	case TypeCounterVec:
		return createCounterVec(metricSubsystem, metricName, labelsValues)
	case TypeHistogramVec:
		return createHistogramVec(metricSubsystem, metricName, labelsValues)
	case TypeGaugeVec:
		return createGaugeVec(metricSubsystem, metricName, labelsValues)
	}
	return fmt.Errorf("metric type %s is not defined", metricType)
}

// Handler exposes the registry in the prometheus text format.
func Handler() fasthttp.RequestHandler {
	return fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}

func Registry() *prometheus.Registry {
	return registry
}

func createCounter(subsystem, name string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	MetricCollectionCounters[subsystem+name] = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        subsystem + " " + name,
		ConstLabels: defaultLabels,
	})
	return registry.Register(MetricCollectionCounters[subsystem+name])
}

func createCounterVec(subsystem, name string, labels []string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	MetricCollectionCounterVec[subsystem+name] = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        subsystem + " " + name,
		ConstLabels: defaultLabels,
	}, labels)
	return registry.Register(MetricCollectionCounterVec[subsystem+name])
}

func createHistogramVec(subsystem, name string, labels []string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	MetricCollectionHistogramVec[subsystem+name] = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        subsystem + " " + name,
		ConstLabels: defaultLabels,
		Buckets:     prometheus.DefBuckets,
	}, labels)
	return registry.Register(MetricCollectionHistogramVec[subsystem+name])
}

func createGaugeVec(subsystem, name string, labels []string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	MetricCollectionGaugeVec[subsystem+name] = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        subsystem + " " + name,
		ConstLabels: defaultLabels,
	}, labels)
	return registry.Register(MetricCollectionGaugeVec[subsystem+name])
}

func IncCounter(subsystem, name string) {
	if !MetricSystemEnabled {
		return
	}
	if v, ok := MetricCollectionCounters[subsystem+name]; ok {
		v.Inc()
		return
	}
	logger.Warn("[metrics] counter not found", "subsystem", subsystem, "name", name)
}

func AddGaugeVec(subsystem, name string, num float64, labelValues ...string) {
	if !MetricSystemEnabled {
		return
	}
	if v, ok := MetricCollectionGaugeVec[subsystem+name]; ok {
		v.WithLabelValues(labelValues...).Add(num)
		return
	}
	logger.Warn("[metrics] gauge not found", "subsystem", subsystem, "name", name)
}

func IncCounterVec(subsystem, name string, labelValues ...string) {
	if !MetricSystemEnabled {
		return
	}
	if v, ok := MetricCollectionCounterVec[subsystem+name]; ok {
		v.WithLabelValues(labelValues...).Inc()
		return
	}
	logger.Warn("[metrics] counter vec not found", "subsystem", subsystem, "name", name)
}

func AddHistogramVec(subsystem, name string, number float64, labelValues ...string) {
	if !MetricSystemEnabled {
		return
	}
	if v, ok := MetricCollectionHistogramVec[subsystem+name]; ok {
		v.WithLabelValues(labelValues...).Observe(number)
		return
	}
	logger.Warn("[metrics] histogram vec not found", "subsystem", subsystem, "name", name)
}

func ObserveHTTPRequest(method, route, status string, seconds float64) {
	IncCounterVec(SystemHTTP, MetricHTTPRequests, method, route, status)
	AddHistogramVec(SystemHTTP, MetricHTTPRequestDuration, seconds, method, route)
}

// RecordTransition counts a committed state change, e.g. ("application", "approved").
func RecordTransition(entity, transition string) {
	IncCounterVec(SystemWorkflow, MetricTransitions, entity, transition)
}

func RecordEventPublished(eventType string) {
	IncCounterVec(SystemEvents, MetricEventsPublished, eventType)
}

func RecordEventConsumed(eventType, result string) {
	IncCounterVec(SystemEvents, MetricEventsConsumed, eventType, result)
}
