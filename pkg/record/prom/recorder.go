// Package prom exposes meter records as Prometheus metrics, so a long-running
// evaluation can be scraped while it runs.
package prom

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kestrelml/gantry/pkg/instrument"
	"github.com/kestrelml/gantry/pkg/metrics"
)

// Recorder publishes each record as a gauge sample labeled by meter name,
// alongside a total-records counter. Non-numeric values only count.
type Recorder struct {
	value *prometheus.GaugeVec
	batch *prometheus.GaugeVec
	total *prometheus.CounterVec
}

// NewRecorder creates a recorder and registers its collectors with reg.
// Registration fails if a recorder was already registered there.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		value: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "gantry_meter_value",
				Help: "Latest numeric value recorded by each meter",
			},
			[]string{"meter"},
		),
		batch: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "gantry_meter_batch",
				Help: "Batch index of the latest record per meter",
			},
			[]string{"meter"},
		),
		total: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gantry_meter_records_total",
				Help: "Total records emitted per meter",
			},
			[]string{"meter"},
		),
	}
	for _, c := range []prometheus.Collector{r.value, r.batch, r.total} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Write publishes the record. Vector values are reduced to their mean so the
// gauge stays scalar.
func (r *Recorder) Write(ctx context.Context, rec instrument.Record) error {
	r.total.WithLabelValues(rec.Meter).Inc()
	r.batch.WithLabelValues(rec.Meter).Set(float64(rec.Batch))

	v, err := metrics.AsVector(rec.Value)
	if err != nil || len(v) == 0 {
		// Not a numeric value; the counter is still useful.
		return nil
	}
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	r.value.WithLabelValues(rec.Meter).Set(sum / float64(len(v)))
	return nil
}
