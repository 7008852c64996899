package prometheus

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	initOnce sync.Once

	// HTTP request metrics
	HttpRequestsTotal   *prometheus.CounterVec
	HttpRequestDuration *prometheus.HistogramVec

	// Authentication metrics
	AuthAttemptsCounter *prometheus.CounterVec
	AuthErrorsCounter   *prometheus.CounterVec

	// Database operation metrics
	DbOperationDuration *prometheus.HistogramVec

	// Order metrics
	OrderOperationsCounter  *prometheus.CounterVec
	StockAdjustmentsCounter *prometheus.CounterVec

	// Inventory metrics
	ProductInventoryGauge *prometheus.GaugeVec

	// Catalog cache metrics
	CacheLookupsCounter *prometheus.CounterVec

	// Report metrics
	ReportsGeneratedCounter *prometheus.CounterVec
)

// InitMetrics registers the metrics with the default registry. Only the first call has effect.
func InitMetrics(prefix string) {
	initOnce.Do(func() {
		HttpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		)

		HttpRequestDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		)

		AuthAttemptsCounter = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_auth_attempts_total",
				Help: "Total number of authentication attempts by method",
			},
			[]string{"method"},
		)

		AuthErrorsCounter = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_auth_errors_total",
				Help: "Total number of authentication errors by reason",
			},
			[]string{"reason"},
		)

		DbOperationDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_db_operation_duration_seconds",
				Help:    "Duration of database operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"backend", "operation_type"},
		)

		OrderOperationsCounter = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_order_operations_total",
				Help: "Total number of order operations by outcome",
			},
			[]string{"operation", "outcome"},
		)

		StockAdjustmentsCounter = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_stock_adjustments_total",
				Help: "Total number of stock adjustments by direction",
			},
			[]string{"direction"},
		)

		ProductInventoryGauge = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: prefix + "_product_inventory",
				Help: "Current inventory level for products",
			},
			[]string{"product_id", "product_name"},
		)

		CacheLookupsCounter = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_cache_lookups_total",
				Help: "Catalog cache lookups by result",
			},
			[]string{"result"},
		)

		ReportsGeneratedCounter = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_reports_generated_total",
				Help: "Total number of generated reports by kind",
			},
			[]string{"kind"},
		)
	})
}

// ObserveHTTPRequest records one finished HTTP request
func ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if HttpRequestsTotal == nil {
		return
	}
	code := strconv.Itoa(status)
	HttpRequestsTotal.WithLabelValues(method, path, code).Inc()
	HttpRequestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(backend, operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		if DbOperationDuration == nil {
			return
		}
		DbOperationDuration.WithLabelValues(backend, operationType).Observe(time.Since(startTime).Seconds())
	}
}

// RecordAuthAttempt increments the authentication attempts counter
func RecordAuthAttempt(method string) {
	if AuthAttemptsCounter != nil {
		AuthAttemptsCounter.WithLabelValues(method).Inc()
	}
}

// RecordAuthError increments the authentication error counter
func RecordAuthError(reason string) {
	if AuthErrorsCounter != nil {
		AuthErrorsCounter.WithLabelValues(reason).Inc()
	}
}

// RecordOrderOperation increments the counter for order operations
func RecordOrderOperation(operation, outcome string) {
	if OrderOperationsCounter != nil {
		OrderOperationsCounter.WithLabelValues(operation, outcome).Inc()
	}
}

// RecordStockAdjustment counts stock movements: decrement, restore or compensate
func RecordStockAdjustment(direction string) {
	if StockAdjustmentsCounter != nil {
		StockAdjustmentsCounter.WithLabelValues(direction).Inc()
	}
}

// UpdateProductInventory updates the gauge for product inventory
func UpdateProductInventory(productID, productName string, count int) {
	if ProductInventoryGauge != nil {
		ProductInventoryGauge.WithLabelValues(productID, productName).Set(float64(count))
	}
}

// DeleteProductInventory drops the gauge series of a deleted product
func DeleteProductInventory(productID, productName string) {
	if ProductInventoryGauge != nil {
		ProductInventoryGauge.DeleteLabelValues(productID, productName)
	}
}

// RecordCacheLookup counts catalog cache hits and misses
func RecordCacheLookup(hit bool) {
	if CacheLookupsCounter == nil {
		return
	}
	if hit {
		CacheLookupsCounter.WithLabelValues("hit").Inc()
	} else {
		CacheLookupsCounter.WithLabelValues("miss").Inc()
	}
}

// RecordReport increments the counter for generated reports
func RecordReport(kind string) {
	if ReportsGeneratedCounter != nil {
		ReportsGeneratedCounter.WithLabelValues(kind).Inc()
	}
}
