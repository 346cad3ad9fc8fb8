package metrics

import "github.com/prometheus/client_golang/prometheus"

// BotMetrics exposes counters/histograms for the webhook, dispatch, and model calls.
type BotMetrics struct {
	inboundTotal    *prometheus.CounterVec
	outboundTotal   *prometheus.CounterVec
	dispatchLatency *prometheus.HistogramVec
	llmCalls        *prometheus.CounterVec
	llmLatency      *prometheus.HistogramVec
	llmTokens       *prometheus.CounterVec
}

func NewBotMetrics(reg prometheus.Registerer) *BotMetrics {
	m := &BotMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nutribot",
			Subsystem: "telegram",
			Name:      "inbound_updates_total",
			Help:      "Total inbound Telegram updates",
		}, []string{"kind", "status"}),
		outboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nutribot",
			Subsystem: "telegram",
			Name:      "outbound_total",
			Help:      "Total outbound Telegram sends",
		}, []string{"status", "parse_mode"}),
		dispatchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "nutribot",
			Subsystem: "dispatch",
			Name:      "latency_seconds",
			Help:      "Latency of inbound event handling",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		llmCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nutribot",
			Subsystem: "llm",
			Name:      "calls_total",
			Help:      "Total model calls by purpose and outcome",
		}, []string{"purpose", "status"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "nutribot",
			Subsystem: "llm",
			Name:      "latency_seconds",
			Help:      "Latency of model calls",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
		}, []string{"purpose"}),
		llmTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nutribot",
			Subsystem: "llm",
			Name:      "tokens_total",
			Help:      "Tokens consumed by model calls",
		}, []string{"purpose", "direction"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.outboundTotal, m.dispatchLatency, m.llmCalls, m.llmLatency, m.llmTokens)
	return m
}

func (m *BotMetrics) ObserveInbound(kind, status string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(kind, status).Inc()
}

func (m *BotMetrics) ObserveOutbound(status, parseMode string) {
	if m == nil {
		return
	}
	if parseMode == "" {
		parseMode = "plain"
	}
	m.outboundTotal.WithLabelValues(status, parseMode).Inc()
}

func (m *BotMetrics) ObserveDispatchLatency(kind string, seconds float64) {
	if m == nil {
		return
	}
	m.dispatchLatency.WithLabelValues(kind).Observe(seconds)
}

// ObserveLLMCall records one model call. purpose is "text" or "image".
func (m *BotMetrics) ObserveLLMCall(purpose, status string, seconds float64) {
	if m == nil {
		return
	}
	m.llmCalls.WithLabelValues(purpose, status).Inc()
	m.llmLatency.WithLabelValues(purpose).Observe(seconds)
}

func (m *BotMetrics) AddTokens(purpose string, input, output int) {
	if m == nil {
		return
	}
	if input > 0 {
		m.llmTokens.WithLabelValues(purpose, "input").Add(float64(input))
	}
	if output > 0 {
		m.llmTokens.WithLabelValues(purpose, "output").Add(float64(output))
	}
}
