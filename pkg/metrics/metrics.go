// Package metrics 提供 Prometheus helper，包含 HTTP/DB 模板指标与商城业务指标
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wyfcoding/mandalamall/pkg/logger"
)

// Metrics 指标集合
type Metrics struct {
	// HTTP 请求计数
	HTTPRequestsTotal prometheus.Counter
	// HTTP 请求耗时
	HTTPRequestDuration prometheus.Histogram

	// 数据库查询计数
	DBQueriesTotal prometheus.Counter
	// 数据库查询耗时
	DBQueryDuration prometheus.Histogram

	// 业务指标
	CheckoutsTotal          prometheus.Counter
	CheckoutFailuresTotal   *prometheus.CounterVec
	OrdersTotal             prometheus.Counter
	OrderCancellationsTotal prometheus.Counter
	WalletDebitsTotal       prometheus.Counter
	WalletCreditsTotal      prometheus.Counter
	OutboxPendingMessages   prometheus.Gauge
}

// New 创建指标实例
func New(serviceName string) *Metrics {
	return &Metrics{
		HTTPRequestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mall",
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}),
		HTTPRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "mall",
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		DBQueriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mall",
			Subsystem: serviceName,
			Name:      "db_queries_total",
			Help:      "Total database queries",
		}),
		DBQueryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "mall",
			Subsystem: serviceName,
			Name:      "db_query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		CheckoutsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mall",
			Subsystem: serviceName,
			Name:      "checkouts_total",
			Help:      "Total successful checkouts",
		}),
		CheckoutFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mall",
			Subsystem: serviceName,
			Name:      "checkout_failures_total",
			Help:      "Total failed checkouts by reason",
		}, []string{"reason"}),
		OrdersTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mall",
			Subsystem: serviceName,
			Name:      "orders_total",
			Help:      "Total orders created",
		}),
		OrderCancellationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mall",
			Subsystem: serviceName,
			Name:      "order_cancellations_total",
			Help:      "Total orders cancelled",
		}),
		WalletDebitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mall",
			Subsystem: serviceName,
			Name:      "wallet_debits_total",
			Help:      "Total wallet debits",
		}),
		WalletCreditsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mall",
			Subsystem: serviceName,
			Name:      "wallet_credits_total",
			Help:      "Total wallet credits",
		}),
		OutboxPendingMessages: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mall",
			Subsystem: serviceName,
			Name:      "outbox_pending_messages",
			Help:      "Number of outbox messages waiting for delivery",
		}),
	}
}

// Register 注册所有指标
func (m *Metrics) Register() error {
	collectors := []prometheus.Collector{
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.DBQueriesTotal,
		m.DBQueryDuration,
		m.CheckoutsTotal,
		m.CheckoutFailuresTotal,
		m.OrdersTotal,
		m.OrderCancellationsTotal,
		m.WalletDebitsTotal,
		m.WalletCreditsTotal,
		m.OutboxPendingMessages,
	}

	for _, collector := range collectors {
		if err := prometheus.DefaultRegisterer.Register(collector); err != nil {
			logger.Error(context.Background(), "Failed to register metric", "error", err)
			return err
		}
	}

	logger.Info(context.Background(), "Metrics registered successfully")
	return nil
}

// StartHTTPServer 启动 Prometheus HTTP 服务器
func StartHTTPServer(port int, path string) error {
	if path == "" {
		path = "/metrics"
	}

	http.Handle(path, promhttp.Handler())

	addr := fmt.Sprintf(":%d", port)
	logger.Info(context.Background(), "Starting Prometheus HTTP server", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, nil); err != nil {
			logger.Error(context.Background(), "Failed to start Prometheus HTTP server", "error", err)
		}
	}()

	return nil
}
