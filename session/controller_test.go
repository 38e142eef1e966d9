package session

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/sensorlink/config"
	"github.com/c360/sensorlink/errors"
	"github.com/c360/sensorlink/protocol"
	"github.com/c360/sensorlink/supervisor"
)

type sentFrame struct {
	t       protocol.Type
	payload any
}

// fakeTransport records sends and lets tests push inbound messages straight
// into the controller's handlers.
type fakeTransport struct {
	mu        sync.Mutex
	connected bool
	sent      []sentFrame
	handlers  map[protocol.Type]supervisor.Handler
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{connected: true, handlers: make(map[protocol.Type]supervisor.Handler)}
}

func (f *fakeTransport) Send(t protocol.Type, payload any) error {
	if !f.connected {
		return errors.ErrNotConnected
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentFrame{t: t, payload: payload})
	return nil
}

func (f *fakeTransport) Handle(t protocol.Type, h supervisor.Handler) {
	f.handlers[t] = h
}

func (f *fakeTransport) deliver(t *testing.T, typ protocol.Type, msg any) {
	t.Helper()
	h, ok := f.handlers[typ]
	require.True(t, ok, "no handler for %s", typ)
	h(msg)
}

func (f *fakeTransport) lastSent(t *testing.T) sentFrame {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1]
}

func newTestController(t *testing.T) (*Controller, *fakeTransport) {
	t.Helper()
	tr := newFakeTransport()
	c, err := New(config.Default(), tr, nil, nil)
	require.NoError(t, err)
	return c, tr
}

func TestSetThreshold_ClampsBeforeSending(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"below range", -0.5, 0},
		{"in range", 0.3, 0.3},
		{"above range", 1.7, 1},
		{"zero", 0, 0},
		{"one", 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, tr := newTestController(t)
			require.NoError(t, c.SetThreshold(tt.in))

			frame := tr.lastSent(t)
			assert.Equal(t, protocol.TypeUpdateThreshold, frame.t)
			assert.Equal(t, tt.want, frame.payload.(protocol.ThresholdUpdate).Threshold)
		})
	}
}

func TestCommands_FailWhenNotConnected(t *testing.T) {
	c, tr := newTestController(t)
	tr.connected = false

	assert.ErrorIs(t, c.StartDetection(), errors.ErrNotConnected)
	assert.ErrorIs(t, c.AttachHardware(), errors.ErrNotConnected)
	assert.ErrorIs(t, c.RequestHistory(), errors.ErrNotConnected)
}

func TestArduinoStatus_DrivesLinkState(t *testing.T) {
	c, tr := newTestController(t)

	tr.deliver(t, protocol.TypeArduinoStatus, protocol.ArduinoStatus{Connected: true})
	assert.True(t, c.State().HardwareLinked)

	tr.deliver(t, protocol.TypeArduinoStatus, protocol.ArduinoStatus{Connected: false})
	assert.False(t, c.State().HardwareLinked)
}

func TestLinkLoss_ClearsDisplayBuffer(t *testing.T) {
	c, tr := newTestController(t)
	now := int64(1_700_000_000_000)
	c.nowFn = func() int64 { return now }

	tr.deliver(t, protocol.TypeArduinoStatus, protocol.ArduinoStatus{Connected: true})
	tr.deliver(t, protocol.TypeArduinoRawData, protocol.RawData{Voltage: 1.5, Timestamp: protocol.Epoch(now)})
	require.Len(t, c.Display(), 1)

	tr.deliver(t, protocol.TypeArduinoStatus, protocol.ArduinoStatus{Connected: false})
	assert.Empty(t, c.Display(), "stale data must not survive link loss")
}

func TestCollectionPause_ClearsDisplayBuffer(t *testing.T) {
	c, tr := newTestController(t)
	now := int64(1_700_000_000_000)
	c.nowFn = func() int64 { return now }

	tr.deliver(t, protocol.TypeDataCollection, protocol.CollectionStatus{Active: true})
	tr.deliver(t, protocol.TypeArduinoRawData, protocol.RawData{Voltage: 2.0, Timestamp: protocol.Epoch(now)})
	require.Len(t, c.Display(), 1)

	tr.deliver(t, protocol.TypeDataCollection, protocol.CollectionStatus{Active: false})
	assert.Empty(t, c.Display())
	assert.False(t, c.State().CollectionActive)
}

func TestStatusSnapshot_OverwritesDerivedFields(t *testing.T) {
	c, tr := newTestController(t)

	tr.deliver(t, protocol.TypeDataCollection, protocol.CollectionStatus{Active: true})
	tr.deliver(t, protocol.TypeStatusResponse, protocol.StatusSnapshot{
		SerialConnected:  true,
		DetectionRunning: true,
		CurrentModelID:   "model-7",
	})

	st := c.State()
	assert.True(t, st.HardwareLinked)
	assert.True(t, st.DetectionRunning)
	assert.Equal(t, "model-7", st.SelectedModelID)
	// The snapshot does not carry a collection flag; it survives.
	assert.True(t, st.CollectionActive)
	assert.Equal(t, config.Default().Session.DefaultThreshold, st.Threshold)
}

func TestThresholdUpdated_SetsDerivedThreshold(t *testing.T) {
	c, tr := newTestController(t)
	tr.deliver(t, protocol.TypeThresholdUpdated, protocol.ThresholdUpdated{Threshold: 0.85})
	assert.Equal(t, 0.85, c.State().Threshold)
}

func TestModelSelected_SetsModelID(t *testing.T) {
	c, tr := newTestController(t)
	tr.deliver(t, protocol.TypeModelSelected, protocol.ModelSelected{
		Model: protocol.ModelInfo{ID: "m1", Name: "baseline"},
	})
	assert.Equal(t, "m1", c.State().SelectedModelID)
}

func TestTerminalReport_SurfacedExactlyOncePerSession(t *testing.T) {
	c, tr := newTestController(t)
	analysis := &protocol.FinalAnalysis{
		Decision:         "anomalous",
		Confidence:       0.91,
		TotalPredictions: 50,
		AnomalyCount:     12,
		IsAnomalous:      true,
	}

	tr.deliver(t, protocol.TypeDetectionStarted, protocol.DetectionStarted{Running: true})
	tr.deliver(t, protocol.TypeDetectionAutoStopped, protocol.DetectionStopped{
		Reason:        protocol.StopReasonAnalysisComplete,
		FinalAnalysis: analysis,
	})
	// A duplicate stop frame for the same session must not surface again.
	tr.deliver(t, protocol.TypeDetectionStopped, protocol.DetectionStopped{
		FinalAnalysis: analysis,
	})

	report := <-c.Reports()
	assert.Equal(t, protocol.StopReasonAnalysisComplete, report.Reason)
	assert.Equal(t, 12, report.Analysis.AnomalyCount)
	assert.Empty(t, c.Reports())

	// A new session resets the once-per-session latch.
	tr.deliver(t, protocol.TypeDetectionStarted, protocol.DetectionStarted{Running: true})
	tr.deliver(t, protocol.TypeDetectionStopped, protocol.DetectionStopped{FinalAnalysis: analysis})
	report = <-c.Reports()
	assert.Equal(t, protocol.StopReasonManual, report.Reason)
}

func TestFreshnessGate_DiscardsStaleRawReadings(t *testing.T) {
	c, tr := newTestController(t)
	now := int64(1_700_000_000_000)
	c.nowFn = func() int64 { return now }

	stale := now - int64(config.Default().Session.FreshnessWindowMs) - 1
	tr.deliver(t, protocol.TypeArduinoRawData, protocol.RawData{Voltage: 9.9, Timestamp: protocol.Epoch(stale)})

	_, ok := c.Latest()
	assert.False(t, ok, "stale reading must leave latest unchanged")
	assert.Empty(t, c.Display())

	fresh := now - 500
	tr.deliver(t, protocol.TypeArduinoRawData, protocol.RawData{Voltage: 3.3, Timestamp: protocol.Epoch(fresh)})

	got, ok := c.Latest()
	require.True(t, ok)
	assert.Equal(t, 3.3, got.Voltage)
	assert.False(t, got.Classified)
}

func TestClassifiedData_UpdatesLatestAndMLStatus(t *testing.T) {
	c, tr := newTestController(t)

	tr.deliver(t, protocol.TypeArduinoData, protocol.ClassifiedData{
		Voltage: 2.4,
		Prediction: protocol.Prediction{
			AnomalyScore: 0.7,
			IsAnomaly:    true,
			Confidence:   0.8,
			Method:       "ml_model",
		},
		MLStatus: protocol.MLStatus{CurrentWindow: 25, WindowSize: 50, Status: "ml_ready"},
	})

	got, ok := c.Latest()
	require.True(t, ok)
	assert.True(t, got.Classified)
	assert.True(t, got.IsAnomaly)
	assert.Equal(t, 0.7, got.AnomalyScore)
	assert.Equal(t, protocol.MethodMLModel, got.Method)

	ml, ok := c.MLStatus()
	require.True(t, ok)
	assert.Equal(t, 0.5, ml.Progress())
	assert.Equal(t, protocol.WindowReady, ml.State())
}

func TestSubscribeRaw_ShadowsAndRestoresResidentConsumer(t *testing.T) {
	c, tr := newTestController(t)
	now := int64(1_700_000_000_000)
	c.nowFn = func() int64 { return now }

	var borrowed []float64
	sub := c.SubscribeRaw(func(r Reading) {
		borrowed = append(borrowed, r.Voltage)
	})

	tr.deliver(t, protocol.TypeArduinoRawData, protocol.RawData{Voltage: 1.0, Timestamp: protocol.Epoch(now)})
	assert.Equal(t, []float64{1.0}, borrowed)
	_, ok := c.Latest()
	assert.False(t, ok, "borrower must starve the resident consumer, not share")

	sub.Cancel()
	sub.Cancel() // idempotent

	tr.deliver(t, protocol.TypeArduinoRawData, protocol.RawData{Voltage: 2.0, Timestamp: protocol.Epoch(now)})
	assert.Len(t, borrowed, 1, "cancelled borrower must not receive")
	got, ok := c.Latest()
	require.True(t, ok)
	assert.Equal(t, 2.0, got.Voltage)
}

// TestOrderedScenario walks the controller through a link drop, a
// collection start, and a fresh classified reading, checking each derived
// effect in turn.
func TestOrderedScenario(t *testing.T) {
	c, tr := newTestController(t)
	now := int64(1_700_000_000_000)
	c.nowFn = func() int64 { return now }

	// Seed a linked session with one buffered reading.
	tr.deliver(t, protocol.TypeArduinoStatus, protocol.ArduinoStatus{Connected: true})
	tr.deliver(t, protocol.TypeArduinoRawData, protocol.RawData{Voltage: 0.5, Timestamp: protocol.Epoch(now)})
	require.Len(t, c.Display(), 1)

	tr.deliver(t, protocol.TypeArduinoStatus, protocol.ArduinoStatus{Connected: false})
	assert.Empty(t, c.Display(), "display must be empty after link loss")

	tr.deliver(t, protocol.TypeDataCollection, protocol.CollectionStatus{Active: true})
	assert.True(t, c.State().CollectionActive)

	tr.deliver(t, protocol.TypeArduinoData, protocol.ClassifiedData{
		Voltage:   1.1,
		Timestamp: protocol.Epoch(now - 100),
		Prediction: protocol.Prediction{
			AnomalyScore: 0.2,
			Confidence:   0.9,
			Method:       "rule_based",
		},
	})
	got, ok := c.Latest()
	require.True(t, ok)
	assert.Equal(t, 1.1, got.Voltage)
}

func TestRequestModels_RoundTrip(t *testing.T) {
	c, tr := newTestController(t)

	require.NoError(t, c.RequestModels())
	assert.Equal(t, protocol.TypeGetModels, tr.lastSent(t).t)

	tr.deliver(t, protocol.TypeModelsResponse, protocol.ModelsResponse{Models: []protocol.ModelInfo{
		{ID: "m-1", Name: "baseline", IsPreset: true},
		{ID: "m-2", Name: "steel-v2", Framework: "sklearn"},
	}})

	models := c.Models()
	require.Len(t, models, 2)
	assert.Equal(t, "m-1", models[0].ID)
	assert.Equal(t, "steel-v2", models[1].Name)

	tr.deliver(t, protocol.TypeModelsError, protocol.ErrorPayload{Error: "Failed to get models"})
	assert.Equal(t, "Failed to get models", c.Health().LastError)
	// The last good list survives a later fetch failure.
	assert.Len(t, c.Models(), 2)
}

func TestWindow_ComputesStatsAndFeatures(t *testing.T) {
	c, tr := newTestController(t)
	now := int64(1_700_000_000_000)
	c.nowFn = func() int64 { return now }

	for _, v := range []float64{1, 2, 3} {
		tr.deliver(t, protocol.TypeArduinoRawData, protocol.RawData{Voltage: v, Timestamp: protocol.Epoch(now)})
	}

	stats, feats := c.Window()
	assert.Equal(t, 3, stats.Count)
	assert.InDelta(t, 2.0, stats.Mean, 1e-9)
	assert.Equal(t, 1.0, stats.Min)
	assert.Equal(t, 3.0, stats.Max)
	assert.InDelta(t, math.Sqrt(14.0/3.0), feats.RMS, 1e-9)
	// The DC bin dominates a near-constant window.
	assert.InDelta(t, 0.0, feats.PeakFrequency, 1e-9)
}

func TestWindow_EmptyBuffer(t *testing.T) {
	c, _ := newTestController(t)

	stats, feats := c.Window()
	assert.Equal(t, 0, stats.Count)
	assert.Equal(t, 0.0, feats.RMS)
}
