package combat

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/OCAP2/gunplay/internal/combat"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

type metrics struct {
	shots    metric.Int64Counter
	reloads  metric.Int64Counter
	switches metric.Int64Counter
	grenades metric.Int64Counter
}

func newMetrics() (*metrics, error) {
	m := meter()
	var (
		out metrics
		err error
	)

	out.shots, err = m.Int64Counter(
		"gunplay.shots",
		metric.WithDescription("Sub-shots fired"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating shots counter: %w", err)
	}

	out.reloads, err = m.Int64Counter(
		"gunplay.reloads",
		metric.WithDescription("Reloads completed or aborted"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating reloads counter: %w", err)
	}

	out.switches, err = m.Int64Counter(
		"gunplay.switches",
		metric.WithDescription("Weapon switches started"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating switches counter: %w", err)
	}

	out.grenades, err = m.Int64Counter(
		"gunplay.grenades",
		metric.WithDescription("Grenades thrown"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating grenades counter: %w", err)
	}

	return &out, nil
}

func (m *metrics) add(c metric.Int64Counter, n int64, kv ...attribute.KeyValue) {
	c.Add(context.Background(), n, metric.WithAttributes(kv...))
}
