package service

import "github.com/prometheus/client_golang/prometheus"

const (
	uploadStored   = "stored"
	uploadRejected = "rejected"
	uploadFailed   = "failed"
)

// Metrics holds domain counters. A nil *Metrics records nothing.
type Metrics struct {
	uploads *prometheus.CounterVec
}

// NewMetrics registers the document counters on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "documents_uploaded_total",
				Help: "Uploaded files by outcome (stored, rejected, failed).",
			},
			[]string{"result"},
		),
	}
	if err := reg.Register(m.uploads); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) upload(result string) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(result).Inc()
}
