package collector

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/c360/sensorlink/config"
	"github.com/c360/sensorlink/errors"
	"github.com/c360/sensorlink/metric"
	"github.com/c360/sensorlink/pkg/buffer"
	"github.com/c360/sensorlink/pkg/retry"
	"github.com/c360/sensorlink/pkg/timestamp"
	"github.com/c360/sensorlink/session"
	"github.com/c360/sensorlink/signal"
)

const componentName = "sample-collector"

// captureGrace is how long past the nominal window a capture waits before
// settling for whatever accumulated.
const captureGrace = time.Second

// SessionSource is the slice of the session controller a capture needs:
// the hardware-link precondition and the raw feed to borrow.
type SessionSource interface {
	State() session.State
	SubscribeRaw(fn session.RawConsumer) *session.Subscription
}

// Collector captures labeled training samples from the live feed.
type Collector struct {
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *collectorMetrics
	src      SessionSource
	deviceID string

	// inFlight serializes captures; the feed slot admits one borrower.
	inFlight sync.Mutex
}

// New builds a collector reading from the given session source. deviceID
// tags captured samples and may be empty.
func New(cfg *config.Config, src SessionSource, deviceID string, logger *slog.Logger, reg metric.MetricsRegistrar) (*Collector, error) {
	if cfg == nil || src == nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("nil config or session source"), componentName, "New", "validate arguments")
	}
	if logger == nil {
		logger = slog.Default()
	}

	m, err := newCollectorMetrics(reg, componentName)
	if err != nil {
		return nil, errors.WrapInvalid(err, componentName, "New", "register metrics")
	}

	return &Collector{
		cfg:      cfg,
		logger:   logger.With("component", componentName),
		metrics:  m,
		src:      src,
		deviceID: deviceID,
	}, nil
}

// Collect captures one sample with the configured default parameters.
func (c *Collector) Collect(ctx context.Context, label, material string) (*TrainingSample, error) {
	return c.CollectWith(ctx, label, material, c.cfg.Collection)
}

// CollectWith captures one labeled sample. The capture parameters are fixed
// for the duration of the call. It fails fast with ErrCaptureInFlight when
// another capture holds the feed, and with ErrNotLinked when the hardware
// is not attached. Capture attempts retry up to cfg.MaxRetries; spending
// them all yields ErrCollectionExhausted.
func (c *Collector) CollectWith(ctx context.Context, label, material string, cfg config.CollectionConfig) (*TrainingSample, error) {
	if !c.inFlight.TryLock() {
		return nil, errors.WrapInvalid(errors.ErrCaptureInFlight, componentName, "Collect", "serialize captures")
	}
	defer c.inFlight.Unlock()

	if !c.src.State().HardwareLinked {
		c.metrics.captures.WithLabelValues("not_linked").Inc()
		return nil, errors.WrapInvalid(errors.ErrNotLinked, componentName, "Collect", "check hardware link")
	}

	target := cfg.TargetReadings()
	c.logger.Info("starting capture",
		"label", label, "material", material,
		"target_readings", target, "window", cfg.SampleDuration())

	var sample *TrainingSample
	err := retry.Do(ctx, retry.Fixed(cfg.MaxRetries, cfg.RetryDelay()), func() error {
		c.metrics.attempts.Inc()

		sig, err := c.captureWindow(ctx, target, cfg.SampleDuration())
		if err != nil {
			return err
		}
		if !ValidateSignal(sig) {
			c.logger.Warn("captured window failed validation", "readings", len(sig))
			return errors.WrapInvalid(errors.ErrValidationFailed, componentName, "Collect", "validate window")
		}

		quality := QualityScore(sig)
		if quality < cfg.QualityThreshold {
			c.logger.Warn("sample below quality threshold, keeping anyway",
				"quality", quality, "threshold", cfg.QualityThreshold)
		}

		ts := timestamp.Now()
		sample = &TrainingSample{
			ID:        sampleID(label, material, ts),
			Label:     label,
			Timestamp: ts,
			Signal:    sig,
			Features:  signal.Extract(sig, cfg.SampleRateHz, c.cfg.Calibration.Offset),
			Metadata: SampleMetadata{
				Material:     material,
				QualityScore: quality,
				DeviceID:     c.deviceID,
			},
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			c.metrics.captures.WithLabelValues("cancelled").Inc()
			return nil, err
		}
		c.metrics.captures.WithLabelValues("exhausted").Inc()
		return nil, errors.WrapTransient(
			fmt.Errorf("%w: %w", errors.ErrCollectionExhausted, err),
			componentName, "Collect", "capture sample")
	}

	outcome := "success"
	if len(sample.Signal) < target {
		outcome = "partial"
	}
	c.metrics.captures.WithLabelValues(outcome).Inc()
	c.metrics.qualityScore.Observe(sample.Metadata.QualityScore)
	c.logger.Info("capture complete",
		"id", sample.ID, "readings", len(sample.Signal),
		"quality", sample.Metadata.QualityScore)
	return sample, nil
}

// captureWindow borrows the raw feed and accumulates voltages until the
// target count is reached or the window (plus grace) elapses. The feed is
// restored on every path. A timeout with nothing accumulated is an attempt
// failure; a short window is returned as a partial capture.
func (c *Collector) captureWindow(ctx context.Context, target int, window time.Duration) ([]float64, error) {
	// DropNewest caps the accumulator at the window target; anything past
	// the target falls on the floor.
	acc := buffer.NewCircular[float64](target, buffer.WithOverflowPolicy[float64](buffer.DropNewest))
	full := make(chan struct{})
	var fullOnce sync.Once

	sub := c.src.SubscribeRaw(func(r session.Reading) {
		_ = acc.Write(r.Voltage)
		if acc.IsFull() {
			fullOnce.Do(func() { close(full) })
		}
	})
	defer sub.Cancel()

	timer := time.NewTimer(window + captureGrace)
	defer timer.Stop()

	select {
	case <-full:
	case <-timer.C:
	case <-ctx.Done():
		return nil, retry.NonRetryable(ctx.Err())
	}

	// Stop accumulating before looking at the result.
	sub.Cancel()

	sig := acc.Snapshot()
	if len(sig) == 0 {
		return nil, errors.WrapTransient(errors.ErrCaptureTimeout, componentName, "captureWindow", "accumulate readings")
	}
	if len(sig) < target {
		c.logger.Warn("window timed out short, keeping partial capture",
			"readings", len(sig), "target", target)
	}
	return sig, nil
}

// CollectSampleSet captures count samples sequentially with a fixed delay
// between them. Individual failures are logged and skipped; the batch is
// best effort and returns whatever succeeded. Context cancellation stops
// the batch and returns the samples captured so far.
func (c *Collector) CollectSampleSet(ctx context.Context, label, material string, count int) ([]*TrainingSample, error) {
	samples := make([]*TrainingSample, 0, count)
	for i := 0; i < count; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return samples, ctx.Err()
			case <-time.After(c.cfg.Collection.InterSampleDelay()):
			}
		}

		sample, err := c.Collect(ctx, label, material)
		if err != nil {
			if ctx.Err() != nil {
				return samples, err
			}
			c.logger.Warn("batch sample failed, continuing",
				"index", i, "count", count, "error", err)
			continue
		}
		samples = append(samples, sample)
	}

	c.logger.Info("batch capture finished",
		"label", label, "requested", count, "captured", len(samples))
	return samples, nil
}
