package metrics

// NopMetrics discards every metric.
type NopMetrics struct{}

var _ Collector = (*NopMetrics)(nil)

func NewNop() *NopMetrics {
	return &NopMetrics{}
}

func (n *NopMetrics) InstanceCreated(_ string) {}

func (n *NopMetrics) DuplicateAbsorbed() {}

func (n *NopMetrics) ChoreFailed(_ string) {}

func (n *NopMetrics) SweepCompleted(_ int, _ float64) {}
