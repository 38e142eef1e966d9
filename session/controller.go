package session

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/c360/sensorlink/component"
	"github.com/c360/sensorlink/config"
	"github.com/c360/sensorlink/errors"
	"github.com/c360/sensorlink/metric"
	"github.com/c360/sensorlink/pkg/buffer"
	"github.com/c360/sensorlink/pkg/timestamp"
	"github.com/c360/sensorlink/protocol"
	"github.com/c360/sensorlink/signal"
	"github.com/c360/sensorlink/supervisor"
)

const componentName = "session-controller"

// reportBacklog bounds undelivered terminal reports. One per session means
// the channel only fills if the consumer is gone.
const reportBacklog = 4

// Transport is the slice of the connection supervisor the controller needs.
type Transport interface {
	Send(t protocol.Type, payload any) error
	Handle(t protocol.Type, h supervisor.Handler)
}

// State is the derived session state. All fields come from inbound
// messages; commands never mutate them optimistically.
type State struct {
	HardwareLinked   bool
	DetectionRunning bool
	CollectionActive bool
	SelectedModelID  string
	Threshold        float64
}

// Report is the terminal analysis of one detection session, surfaced
// exactly once regardless of whether the stop was manual or service
// initiated.
type Report struct {
	Reason   protocol.StopReason
	Analysis protocol.FinalAnalysis
}

// Controller tracks session state derived from inbound messages and emits
// session commands.
type Controller struct {
	cfg     *config.Config
	logger  *slog.Logger
	tr      Transport
	metrics *controllerMetrics

	// nowFn is the freshness clock, replaceable in tests.
	nowFn func() int64

	mu          sync.RWMutex
	state       State
	latest      *Reading
	mlStatus    *protocol.MLStatus
	reportSeen  bool
	lastMessage string
	lastError   string
	errorCount  int
	models      []protocol.ModelInfo
	sessions    []protocol.SessionRecord
	startedAt   time.Time

	display buffer.Buffer[Reading]
	feed    *rawFeed
	reports chan Report
}

// New builds a controller bound to the given transport and registers its
// message handlers. The controller is passive after construction; it reacts
// to dispatched messages only.
func New(cfg *config.Config, tr Transport, logger *slog.Logger, reg metric.MetricsRegistrar) (*Controller, error) {
	if cfg == nil || tr == nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("nil config or transport"), componentName, "New", "validate arguments")
	}
	if logger == nil {
		logger = slog.Default()
	}

	m, err := newControllerMetrics(reg, componentName)
	if err != nil {
		return nil, errors.WrapInvalid(err, componentName, "New", "register metrics")
	}

	c := &Controller{
		cfg:     cfg,
		logger:  logger.With("component", componentName),
		tr:      tr,
		metrics: m,
		nowFn:   timestamp.Now,
		state: State{
			Threshold: cfg.Session.DefaultThreshold,
		},
		display:   buffer.NewCircular[Reading](cfg.Session.DisplayBufferSize, buffer.WithOverflowPolicy[Reading](buffer.DropOldest)),
		feed:      &rawFeed{},
		reports:   make(chan Report, reportBacklog),
		startedAt: time.Now(),
	}

	// The controller is the feed's resident consumer; borrowers shadow it.
	c.feed.subscribe(c.consumeRaw)

	c.bindHandlers()
	return c, nil
}

func (c *Controller) bindHandlers() {
	c.tr.Handle(protocol.TypeConnectionConfirmed, c.onConnectionConfirmed)
	c.tr.Handle(protocol.TypeStatusResponse, c.onStatusSnapshot)
	c.tr.Handle(protocol.TypeStatusUpdate, c.onStatusSnapshot)
	c.tr.Handle(protocol.TypeArduinoStatus, c.onArduinoStatus)
	c.tr.Handle(protocol.TypeDetectionStarted, c.onDetectionStarted)
	c.tr.Handle(protocol.TypeDetectionStopped, c.onDetectionStopped)
	c.tr.Handle(protocol.TypeDetectionAutoStopped, c.onDetectionStopped)
	c.tr.Handle(protocol.TypeDetectionStatus, c.onDetectionStatus)
	c.tr.Handle(protocol.TypeArduinoData, c.onClassifiedData)
	c.tr.Handle(protocol.TypeArduinoRawData, c.onRawData)
	c.tr.Handle(protocol.TypeDataCollection, c.onCollectionStatus)
	c.tr.Handle(protocol.TypeThresholdUpdated, c.onThresholdUpdated)
	c.tr.Handle(protocol.TypeModelSelected, c.onModelSelected)
	c.tr.Handle(protocol.TypeModelError, c.onServiceError)
	c.tr.Handle(protocol.TypeModelsResponse, c.onModelsResponse)
	c.tr.Handle(protocol.TypeModelsError, c.onServiceError)
	c.tr.Handle(protocol.TypeHistoryResponse, c.onHistoryResponse)
	c.tr.Handle(protocol.TypeHistoryError, c.onServiceError)
}

// Meta returns component metadata.
func (c *Controller) Meta() component.Metadata {
	return component.Metadata{
		Name:        componentName,
		Type:        "controller",
		Description: "Detection session state derived from inbound messages",
		Version:     c.cfg.Version,
	}
}

// Health reports controller health. The controller itself cannot fail; the
// counters reflect service-reported errors.
func (c *Controller) Health() component.HealthStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return component.HealthStatus{
		Healthy:    true,
		LastCheck:  time.Now(),
		ErrorCount: c.errorCount,
		LastError:  c.lastError,
		Uptime:     time.Since(c.startedAt),
	}
}

// State returns a copy of the derived session state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Latest returns the most recent accepted reading.
func (c *Controller) Latest() (Reading, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.latest == nil {
		return Reading{}, false
	}
	return *c.latest, true
}

// MLStatus returns the most recent classifier window status.
func (c *Controller) MLStatus() (protocol.MLStatus, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.mlStatus == nil {
		return protocol.MLStatus{}, false
	}
	return *c.mlStatus, true
}

// Display returns the rolling buffer of recent readings, oldest first.
func (c *Controller) Display() []Reading {
	return c.display.Snapshot()
}

// Window computes the statistics and spectral features of the current
// display buffer under the configured calibration offset. Both summaries
// come from the same snapshot, so they always describe the same window.
func (c *Controller) Window() (signal.WindowStats, signal.Features) {
	readings := c.display.Snapshot()
	voltages := make([]float64, len(readings))
	for i, r := range readings {
		voltages[i] = r.Voltage
	}
	stats := signal.Stats(voltages)
	feats := signal.Extract(voltages, c.cfg.Collection.SampleRateHz, c.cfg.Calibration.Offset)
	return stats, feats
}

// Reports delivers terminal session reports, one per completed session.
func (c *Controller) Reports() <-chan Report {
	return c.reports
}

// Models returns the most recently received model list.
func (c *Controller) Models() []protocol.ModelInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]protocol.ModelInfo, len(c.models))
	copy(out, c.models)
	return out
}

// History returns the most recently received past-session records.
func (c *Controller) History() []protocol.SessionRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]protocol.SessionRecord, len(c.sessions))
	copy(out, c.sessions)
	return out
}

// SubscribeRaw borrows the raw-reading feed. The returned subscription
// shadows the current consumer until cancelled; Cancel restores it.
func (c *Controller) SubscribeRaw(fn RawConsumer) *Subscription {
	return c.feed.subscribe(fn)
}

// Commands. Each is a fire-and-forget emission; the transport guard logs
// and returns ErrNotConnected when there is no live connection.

// AttachHardware asks the service to open its serial link to the bridge.
func (c *Controller) AttachHardware() error {
	return c.send(protocol.TypeArduinoConnect, nil)
}

// DetachHardware asks the service to close the serial link.
func (c *Controller) DetachHardware() error {
	return c.send(protocol.TypeArduinoDisconnect, nil)
}

// StartDetection asks the service to begin a detection session.
func (c *Controller) StartDetection() error {
	return c.send(protocol.TypeStartDetection, nil)
}

// StopDetection asks the service to end the running session.
func (c *Controller) StopDetection() error {
	return c.send(protocol.TypeStopDetection, nil)
}

// PauseCollection asks the service to stop forwarding bridge data.
func (c *Controller) PauseCollection() error {
	return c.send(protocol.TypePauseCollection, nil)
}

// ResumeCollection asks the service to resume forwarding bridge data.
func (c *Controller) ResumeCollection() error {
	return c.send(protocol.TypeResumeCollection, nil)
}

// SelectModel asks the service to activate a model.
func (c *Controller) SelectModel(modelID string) error {
	return c.send(protocol.TypeSelectModel, protocol.ModelSelect{ModelID: modelID})
}

// RequestModels asks the service for the models available for selection.
func (c *Controller) RequestModels() error {
	return c.send(protocol.TypeGetModels, nil)
}

// SetThreshold asks the service to change the detection threshold. The
// value is clamped to [0,1] before it goes on the wire.
func (c *Controller) SetThreshold(t float64) error {
	return c.send(protocol.TypeUpdateThreshold, protocol.ThresholdUpdate{Threshold: clamp01(t)})
}

// RequestHistory asks the service for its stored past sessions.
func (c *Controller) RequestHistory() error {
	return c.send(protocol.TypeGetHistory, nil)
}

func (c *Controller) send(t protocol.Type, payload any) error {
	if err := c.tr.Send(t, payload); err != nil {
		return err
	}
	c.metrics.commandsSent.WithLabelValues(string(t)).Inc()
	return nil
}

// Message handlers. All run on the dispatch goroutine, in arrival order.

func (c *Controller) onConnectionConfirmed(msg any) {
	p, ok := msg.(protocol.ConnectionConfirmed)
	if !ok {
		return
	}
	c.logger.Info("service greeting", "message", p.Message)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.setHardwareLinkedLocked(p.ServerInfo.SerialConnected)
	c.state.DetectionRunning = p.ServerInfo.DetectionRunning
	c.state.SelectedModelID = p.ServerInfo.CurrentModelID
}

func (c *Controller) onStatusSnapshot(msg any) {
	p, ok := msg.(protocol.StatusSnapshot)
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.setHardwareLinkedLocked(p.SerialConnected)
	c.state.DetectionRunning = p.DetectionRunning
	c.state.SelectedModelID = p.CurrentModelID
}

func (c *Controller) onArduinoStatus(msg any) {
	p, ok := msg.(protocol.ArduinoStatus)
	if !ok {
		return
	}

	c.mu.Lock()
	c.setHardwareLinkedLocked(p.Connected)
	if p.Error != "" {
		c.recordErrorLocked(p.Error)
	}
	c.mu.Unlock()

	c.logger.Info("hardware link changed", "connected", p.Connected, "port", p.Port)
}

func (c *Controller) onDetectionStarted(msg any) {
	p, ok := msg.(protocol.DetectionStarted)
	if !ok {
		return
	}

	c.mu.Lock()
	c.state.DetectionRunning = p.Running
	c.reportSeen = false
	c.lastMessage = p.Message
	c.mu.Unlock()

	c.logger.Info("detection started",
		"model", p.ModelName, "auto_stop_seconds", p.AutoStopSeconds)
}

// onDetectionStopped handles both the manual and the auto-stop shapes. The
// terminal report is surfaced once per session no matter how many stop
// frames arrive or which bound triggered the stop.
func (c *Controller) onDetectionStopped(msg any) {
	p, ok := msg.(protocol.DetectionStopped)
	if !ok {
		return
	}

	c.mu.Lock()
	c.state.DetectionRunning = p.Running
	c.lastMessage = p.Message
	surface := p.FinalAnalysis != nil && !c.reportSeen
	if surface {
		c.reportSeen = true
	}
	c.mu.Unlock()

	reason := p.Reason
	if reason == "" {
		reason = protocol.StopReasonManual
	}
	c.logger.Info("detection stopped", "reason", string(reason))

	if !surface {
		return
	}
	report := Report{Reason: reason, Analysis: *p.FinalAnalysis}
	select {
	case c.reports <- report:
		c.metrics.reportsSurfaced.Inc()
	default:
		c.logger.Warn("dropping session report, consumer not keeping up")
	}
}

func (c *Controller) onDetectionStatus(msg any) {
	p, ok := msg.(protocol.DetectionStatus)
	if !ok {
		return
	}

	c.mu.Lock()
	c.state.DetectionRunning = p.Running
	c.lastMessage = p.Message
	if p.Error != "" {
		c.recordErrorLocked(p.Error)
	}
	c.mu.Unlock()
}

func (c *Controller) onCollectionStatus(msg any) {
	p, ok := msg.(protocol.CollectionStatus)
	if !ok {
		return
	}

	c.mu.Lock()
	c.setCollectionActiveLocked(p.Active)
	c.mu.Unlock()

	c.logger.Info("collection state changed", "active", p.Active)
}

func (c *Controller) onThresholdUpdated(msg any) {
	p, ok := msg.(protocol.ThresholdUpdated)
	if !ok {
		return
	}

	c.mu.Lock()
	c.state.Threshold = clamp01(p.Threshold)
	c.mu.Unlock()
}

func (c *Controller) onModelSelected(msg any) {
	p, ok := msg.(protocol.ModelSelected)
	if !ok {
		return
	}

	c.mu.Lock()
	c.state.SelectedModelID = p.Model.ID
	c.mu.Unlock()

	c.logger.Info("model selected", "model_id", p.Model.ID, "name", p.Model.Name)
}

func (c *Controller) onServiceError(msg any) {
	p, ok := msg.(protocol.ErrorPayload)
	if !ok {
		return
	}

	c.mu.Lock()
	c.recordErrorLocked(p.Error)
	c.mu.Unlock()

	c.logger.Warn("service reported error", "error", p.Error)
}

func (c *Controller) onModelsResponse(msg any) {
	p, ok := msg.(protocol.ModelsResponse)
	if !ok {
		return
	}

	c.mu.Lock()
	c.models = p.Models
	c.mu.Unlock()

	c.logger.Info("model list updated", "count", len(p.Models))
}

func (c *Controller) onHistoryResponse(msg any) {
	p, ok := msg.(protocol.HistoryResponse)
	if !ok {
		return
	}

	c.mu.Lock()
	c.sessions = p.Sessions
	c.mu.Unlock()
}

func (c *Controller) onClassifiedData(msg any) {
	p, ok := msg.(protocol.ClassifiedData)
	if !ok {
		return
	}

	r := classifiedReading(p, c.nowFn())
	ml := p.MLStatus

	c.mu.Lock()
	c.latest = &r
	c.mlStatus = &ml
	c.mu.Unlock()

	_ = c.display.Write(r)
	c.metrics.readingsAccepted.WithLabelValues("classified").Inc()
}

// onRawData applies the freshness gate and hands fresh readings to the
// current feed consumer. Stale readings leave all state untouched; they are
// buffered backlog replayed after a reconnect.
func (c *Controller) onRawData(msg any) {
	p, ok := msg.(protocol.RawData)
	if !ok {
		return
	}

	now := c.nowFn()
	if !timestamp.Within(p.Timestamp.Ms(), now, int64(c.cfg.Session.FreshnessWindowMs)) {
		c.metrics.readingsStale.Inc()
		c.logger.Debug("discarding stale raw reading",
			"age_ms", timestamp.Age(p.Timestamp.Ms(), now))
		return
	}

	c.feed.deliver(rawReading(p, now))
}

// consumeRaw is the resident feed consumer: it keeps the display buffer and
// latest reading current while no capture has borrowed the feed.
func (c *Controller) consumeRaw(r Reading) {
	c.mu.Lock()
	c.latest = &r
	c.mu.Unlock()

	_ = c.display.Write(r)
	c.metrics.readingsAccepted.WithLabelValues("raw").Inc()
}

// setHardwareLinkedLocked updates the link flag. Losing the link clears the
// display buffer so stale data is never shown as live.
func (c *Controller) setHardwareLinkedLocked(linked bool) {
	if c.state.HardwareLinked && !linked {
		c.display.Clear()
		c.metrics.displayCleared.Inc()
	}
	c.state.HardwareLinked = linked
}

// setCollectionActiveLocked updates the collection flag with the same
// clearing rule as the hardware link.
func (c *Controller) setCollectionActiveLocked(active bool) {
	if c.state.CollectionActive && !active {
		c.display.Clear()
		c.metrics.displayCleared.Inc()
	}
	c.state.CollectionActive = active
}

func (c *Controller) recordErrorLocked(msg string) {
	c.errorCount++
	c.lastError = msg
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
