package kv

import (
	"time"

	"github.com/xtding233/potential-simulator/pkg/metrics"
)

// Instrumented records operation counts and latency for a driver.
type Instrumented struct {
	next   Store
	driver string
}

// Instrument wraps next so every call is observed under the driver label.
func Instrument(next Store, driver string) *Instrumented {
	return &Instrumented{next: next, driver: driver}
}

func (i *Instrumented) Get(key string) (string, bool, error) {
	start := time.Now()
	v, ok, err := i.next.Get(key)
	i.observe("get", start, err)
	return v, ok, err
}

func (i *Instrumented) Set(key, value string) error {
	start := time.Now()
	err := i.next.Set(key, value)
	i.observe("set", start, err)
	return err
}

func (i *Instrumented) observe(op string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.StorageOperationsTotal.WithLabelValues(i.driver, op, status).Inc()
	metrics.StorageOperationDuration.WithLabelValues(i.driver, op).Observe(time.Since(start).Seconds())
}
