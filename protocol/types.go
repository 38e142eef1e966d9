package protocol

// Type is the wire discriminator carried by every message.
type Type string

// Outbound message types (client to service).
const (
	TypeGetStatus         Type = "get_status"
	TypeArduinoConnect    Type = "arduino_connect"
	TypeArduinoDisconnect Type = "arduino_disconnect"
	TypeStartDetection    Type = "start_detection"
	TypeStopDetection     Type = "stop_detection"
	TypeUpdateThreshold   Type = "update_threshold"
	TypePauseCollection   Type = "pause_data_collection"
	TypeResumeCollection  Type = "resume_data_collection"
	TypeSelectModel       Type = "ws_select_model"
	TypeGetModels         Type = "ws_get_models"
	TypeGetHistory        Type = "get_session_history"
	TypePing              Type = "ping"
)

// Inbound message types (service to client).
const (
	TypeConnectionConfirmed  Type = "connection_confirmed"
	TypeStatusResponse       Type = "status_response"
	TypeStatusUpdate         Type = "status_update"
	TypeArduinoStatus        Type = "arduino_status"
	TypeDetectionStarted     Type = "detection_started"
	TypeDetectionStopped     Type = "detection_stopped"
	TypeDetectionAutoStopped Type = "detection_auto_stopped"
	TypeDetectionStatus      Type = "detection_status"
	TypeArduinoData          Type = "arduino_data"
	TypeArduinoRawData       Type = "arduino_raw_data"
	TypeDataCollection       Type = "data_collection_status"
	TypeThresholdUpdated     Type = "threshold_updated"
	TypeModelSelected        Type = "model_selected"
	TypeModelError           Type = "model_error"
	TypeModelsResponse       Type = "models_response"
	TypeModelsError          Type = "models_error"
	TypeHistoryResponse      Type = "history_response"
	TypeHistoryError         Type = "history_error"
	TypePong                 Type = "pong"
)

// Method identifies how a classification verdict was produced.
type Method int

const (
	// MethodUnknown is the zero value for unrecognized method strings
	MethodUnknown Method = iota
	// MethodMLModel indicates a trained model produced the verdict
	MethodMLModel
	// MethodRuleBased indicates the service's rule fallback produced it
	MethodRuleBased
	// MethodDataProcessing indicates a statistics-only verdict
	MethodDataProcessing
)

// ParseMethod maps a wire method string to a Method.
func ParseMethod(s string) Method {
	switch s {
	case "ml_model", "sklearn", "tensorflow", "pytorch":
		return MethodMLModel
	case "rule_based":
		return MethodRuleBased
	case "data_processing":
		return MethodDataProcessing
	default:
		return MethodUnknown
	}
}

// String returns the canonical wire form of the method.
func (m Method) String() string {
	switch m {
	case MethodMLModel:
		return "ml_model"
	case MethodRuleBased:
		return "rule_based"
	case MethodDataProcessing:
		return "data_processing"
	default:
		return "unknown"
	}
}

// WindowState reports where the classifier's rolling window stands.
type WindowState int

const (
	// WindowUnknown is the zero value for unrecognized status strings
	WindowUnknown WindowState = iota
	// WindowWarmingUp means the rolling window is still filling
	WindowWarmingUp
	// WindowReady means the window is full and verdicts are meaningful
	WindowReady
	// WindowError means the classifier reported a failure
	WindowError
)

// ParseWindowState maps a wire status string to a WindowState.
func ParseWindowState(s string) WindowState {
	switch s {
	case "warming_up", "ml_warming_up", "collecting_data":
		return WindowWarmingUp
	case "ready", "ml_ready":
		return WindowReady
	case "error":
		return WindowError
	default:
		return WindowUnknown
	}
}

// String returns the canonical wire form of the window state.
func (w WindowState) String() string {
	switch w {
	case WindowWarmingUp:
		return "warming_up"
	case WindowReady:
		return "ready"
	case WindowError:
		return "error"
	default:
		return "unknown"
	}
}

// StopReason explains why a detection session ended.
type StopReason string

const (
	// StopReasonTimeout means the service's session timer expired
	StopReasonTimeout StopReason = "timeout"
	// StopReasonAnalysisComplete means the classification-cycle bound was hit
	StopReasonAnalysisComplete StopReason = "analysis_complete"
	// StopReasonManual means the client requested the stop
	StopReasonManual StopReason = "manual_stop"
)
