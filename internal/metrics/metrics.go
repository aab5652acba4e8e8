package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry 创建自定义 Prometheus Registry，并注册常用采集器
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler 返回 Prometheus 指标 HTTP 处理器
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// AppMetrics 自定义业务指标
type AppMetrics struct {
	SourceBytes    prometheus.Counter     // 字节源累计接收
	ParseTotal     *prometheus.CounterVec // labels: result=ok|checksum_error|oversize|resync
	RouteTotal     *prometheus.CounterVec // labels: cmd
	Unroutable     prometheus.Counter     // 无处理器注册的帧
	HandlerErrors  prometheus.Counter     // 处理器返回错误次数
	TelemetrySends *prometheus.CounterVec // labels: result=ok|error
	SnapshotPub    prometheus.Counter     // Redis 快照发布次数
}

// NewAppMetrics 注册并返回业务指标
func NewAppMetrics(reg *prometheus.Registry) *AppMetrics {
	m := &AppMetrics{
		SourceBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "source_bytes_received_total",
			Help: "Total bytes received from the byte source.",
		}),
		ParseTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "msp_parse_total",
			Help: "MSP frame parse outcomes.",
		}, []string{"result"}),
		RouteTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "msp_route_total",
			Help: "MSP routed frames by command.",
		}, []string{"cmd"}),
		Unroutable: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "msp_unroutable_total",
			Help: "Valid frames with no registered handler.",
		}),
		HandlerErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "msp_handler_errors_total",
			Help: "Errors returned by frame handlers.",
		}),
		TelemetrySends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alink_send_total",
			Help: "Telemetry lines sent to the alink sink.",
		}, []string{"result"}),
		SnapshotPub: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "state_snapshot_published_total",
			Help: "Flight state snapshots published to Redis.",
		}),
	}
	reg.MustRegister(m.SourceBytes, m.ParseTotal, m.RouteTotal, m.Unroutable,
		m.HandlerErrors, m.TelemetrySends, m.SnapshotPub)
	return m
}
