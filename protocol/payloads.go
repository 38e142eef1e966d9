package protocol

// ServerInfo is the state snapshot embedded in the connection greeting.
type ServerInfo struct {
	SerialConnected  bool   `json:"serial_connected"`
	DetectionRunning bool   `json:"detection_running"`
	CurrentModelID   string `json:"current_model_id"`
}

// ConnectionConfirmed is the service's greeting after the websocket opens.
type ConnectionConfirmed struct {
	Message    string     `json:"message"`
	ServerInfo ServerInfo `json:"server_info"`
}

// DetectorInfo describes the serial link between service and bridge.
type DetectorInfo struct {
	Port     string `json:"port"`
	BaudRate int    `json:"baud_rate"`
}

// StatusSnapshot is the full session state carried by status_response and
// status_update frames. It overwrites the controller's derived state
// atomically.
type StatusSnapshot struct {
	ServerStatus     string       `json:"server_status"`
	ConnectedClients int          `json:"connected_clients"`
	SerialConnected  bool         `json:"serial_connected"`
	DetectionRunning bool         `json:"detection_running"`
	CurrentModelID   string       `json:"current_model_id"`
	DetectorInfo     DetectorInfo `json:"detector_info"`
	Timestamp        Epoch        `json:"timestamp"`
}

// ArduinoStatus reports a hardware link change.
type ArduinoStatus struct {
	Connected bool   `json:"connected"`
	Port      string `json:"port,omitempty"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
}

// FinalAnalysis is the terminal session report produced when detection
// stops. Carried verbatim; the core never recomputes its fields.
type FinalAnalysis struct {
	Decision          string  `json:"decision"`
	Confidence        float64 `json:"confidence"`
	Summary           string  `json:"summary"`
	TotalPredictions  int     `json:"total_predictions"`
	AnomalyCount      int     `json:"anomaly_count"`
	AnomalyPercentage float64 `json:"anomaly_percentage"`
	AvgAnomalyScore   float64 `json:"avg_anomaly_score"`
	IsAnomalous       bool    `json:"is_anomalous"`
	ThresholdUsed     float64 `json:"threshold_used"`
}

// DetectionStarted confirms a detection session began.
type DetectionStarted struct {
	Running         bool   `json:"running"`
	Message         string `json:"message,omitempty"`
	ModelName       string `json:"model_name,omitempty"`
	AutoStopSeconds int    `json:"auto_stop_seconds,omitempty"`
}

// DetectionStopped reports a session end, manual or service-initiated. The
// auto-stop variants carry a reason; both shapes may carry the terminal
// report.
type DetectionStopped struct {
	Running       bool           `json:"running"`
	Reason        StopReason     `json:"reason,omitempty"`
	Message       string         `json:"message,omitempty"`
	FinalAnalysis *FinalAnalysis `json:"final_analysis,omitempty"`
}

// DetectionStatus reports the running flag outside a lifecycle transition,
// typically to reject a command ("Arduino not connected", "No ML model
// selected").
type DetectionStatus struct {
	Running bool   `json:"running"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Prediction is one classification verdict. Older service builds emit the
// score under "score" instead of "anomaly_score"; Score() returns whichever
// is set.
type Prediction struct {
	AnomalyScore float64  `json:"anomaly_score"`
	LegacyScore  *float64 `json:"score,omitempty"`
	IsAnomaly    bool     `json:"is_anomaly"`
	Confidence   float64  `json:"confidence"`
	Method       string   `json:"method"`
}

// Score returns the anomaly score regardless of which wire field carried it.
func (p Prediction) Score() float64 {
	if p.AnomalyScore != 0 {
		return p.AnomalyScore
	}
	if p.LegacyScore != nil {
		return *p.LegacyScore
	}
	return 0
}

// MLStatus reports the classifier's rolling-window progress.
type MLStatus struct {
	CurrentWindow  int     `json:"current_window"`
	WindowSize     int     `json:"window_size"`
	WindowProgress float64 `json:"window_progress"`
	Status         string  `json:"status"`
	Method         string  `json:"method"`
}

// Progress returns clamp(CurrentWindow/WindowSize, 0, 1). The wire field
// WindowProgress is never trusted; upstream has shipped inconsistent values.
func (m MLStatus) Progress() float64 {
	if m.WindowSize <= 0 {
		return 0
	}
	p := float64(m.CurrentWindow) / float64(m.WindowSize)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// State returns the parsed window state.
func (m MLStatus) State() WindowState {
	return ParseWindowState(m.Status)
}

// ClassifiedData is one classified reading (arduino_data).
type ClassifiedData struct {
	Voltage    float64    `json:"voltage"`
	Timestamp  Epoch      `json:"timestamp"`
	Prediction Prediction `json:"prediction"`
	MLStatus   MLStatus   `json:"ml_status"`
}

// RawFeatures are the windowed statistics the service attaches to
// unclassified readings.
type RawFeatures struct {
	VoltageMean float64 `json:"voltage_mean"`
	VoltageStd  float64 `json:"voltage_std"`
	SampleCount int     `json:"sample_count"`
}

// RawData is one unclassified reading (arduino_raw_data). Subject to the
// controller's freshness gate.
type RawData struct {
	Voltage   float64     `json:"voltage"`
	Timestamp Epoch       `json:"timestamp"`
	Features  RawFeatures `json:"features"`
}

// CollectionStatus reports whether the service is forwarding bridge data.
type CollectionStatus struct {
	Active  bool   `json:"active"`
	Message string `json:"message,omitempty"`
}

// ThresholdUpdate asks the service to change the detection threshold.
type ThresholdUpdate struct {
	Threshold float64 `json:"threshold"`
}

// ThresholdUpdated acknowledges a threshold change with the applied value.
type ThresholdUpdated struct {
	Threshold float64 `json:"threshold"`
	Message   string  `json:"message,omitempty"`
}

// ModelSelect asks the service to activate a model.
type ModelSelect struct {
	ModelID string `json:"model_id"`
}

// ModelInfo describes a model the service holds.
type ModelInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	FilePath  string `json:"file_path,omitempty"`
	Framework string `json:"framework,omitempty"`
	IsActive  bool   `json:"is_active"`
	IsPreset  bool   `json:"is_preset"`
}

// ModelSelected confirms a model activation.
type ModelSelected struct {
	Model   ModelInfo `json:"model"`
	Message string    `json:"message,omitempty"`
}

// ModelsResponse lists the models available for selection.
type ModelsResponse struct {
	Models []ModelInfo `json:"models"`
}

// ErrorPayload carries model_error, models_error, and history_error frames.
type ErrorPayload struct {
	Error string `json:"error"`
}

// ChartPoint is one point of a session's stored chart data.
type ChartPoint struct {
	Voltage      float64 `json:"voltage"`
	Timestamp    Epoch   `json:"timestamp"`
	IsAnomaly    bool    `json:"is_anomaly"`
	Confidence   float64 `json:"confidence"`
	AnomalyScore float64 `json:"anomaly_score"`
}

// SessionRecord is one completed detection session from history.
type SessionRecord struct {
	ID         string        `json:"id"`
	Timestamp  string        `json:"timestamp"`
	ModelName  string        `json:"model_name"`
	StopReason StopReason    `json:"stop_reason"`
	Analysis   FinalAnalysis `json:"analysis"`
	ChartData  []ChartPoint  `json:"chart_data,omitempty"`
}

// HistoryResponse carries past sessions.
type HistoryResponse struct {
	Sessions []SessionRecord `json:"sessions"`
}

// Pong answers a ping.
type Pong struct {
	Timestamp Epoch `json:"timestamp"`
}

// Ping is the inbound heartbeat probe; the supervisor answers it with a
// pong frame.
type Ping struct {
	Timestamp Epoch `json:"timestamp"`
}
