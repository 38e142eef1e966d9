package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/sensorlink/errors"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	env, err := ParseEnvelope([]byte(raw))
	require.NoError(t, err)
	v, err := Decode(env)
	require.NoError(t, err)
	return v
}

func TestParseEnvelope_MissingType(t *testing.T) {
	_, err := ParseEnvelope([]byte(`{"voltage": 1.0}`))
	assert.Error(t, err)

	_, err = ParseEnvelope([]byte(`not json`))
	assert.Error(t, err)
}

func TestDecode_UnknownType(t *testing.T) {
	env, err := ParseEnvelope([]byte(`{"type": "made_up_frame"}`))
	require.NoError(t, err)

	_, err = Decode(env)
	assert.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnknownType)
}

func TestDecode_ArduinoStatus(t *testing.T) {
	v := decode(t, `{"type":"arduino_status","connected":true,"port":"/dev/ttyUSB0"}`)

	status, ok := v.(ArduinoStatus)
	require.True(t, ok)
	assert.True(t, status.Connected)
	assert.Equal(t, "/dev/ttyUSB0", status.Port)
}

func TestDecode_StatusSnapshotBothTypes(t *testing.T) {
	for _, typ := range []string{"status_response", "status_update"} {
		v := decode(t, `{"type":"`+typ+`","serial_connected":true,"detection_running":false,"current_model_id":"m-1","timestamp":1700000000.5}`)

		snap, ok := v.(StatusSnapshot)
		require.True(t, ok, typ)
		assert.True(t, snap.SerialConnected)
		assert.Equal(t, "m-1", snap.CurrentModelID)
		assert.Equal(t, int64(1700000000500), snap.Timestamp.Ms())
	}
}

func TestDecode_ClassifiedData(t *testing.T) {
	v := decode(t, `{
		"type": "arduino_data",
		"voltage": 2.5,
		"timestamp": "2026-08-30T10:00:00Z",
		"prediction": {"anomaly_score": 0.82, "is_anomaly": true, "confidence": 0.9, "method": "ml_model"},
		"ml_status": {"current_window": 25, "window_size": 50, "window_progress": 0.9, "status": "ml_ready", "method": "ml_model"}
	}`)

	data, ok := v.(ClassifiedData)
	require.True(t, ok)
	assert.Equal(t, 2.5, data.Voltage)
	assert.Positive(t, data.Timestamp.Ms())
	assert.True(t, data.Prediction.IsAnomaly)
	assert.Equal(t, 0.82, data.Prediction.Score())
	assert.Equal(t, MethodMLModel, ParseMethod(data.Prediction.Method))
	// Progress is recomputed, never read off the wire.
	assert.Equal(t, 0.5, data.MLStatus.Progress())
	assert.Equal(t, WindowReady, data.MLStatus.State())
}

func TestDecode_LegacyScoreField(t *testing.T) {
	v := decode(t, `{"type":"arduino_data","voltage":1.0,"prediction":{"score":0.4,"is_anomaly":false,"confidence":0.6,"method":"rule_based"}}`)

	data := v.(ClassifiedData)
	assert.Equal(t, 0.4, data.Prediction.Score())
}

func TestDecode_DetectionStoppedWithReport(t *testing.T) {
	v := decode(t, `{
		"type": "detection_auto_stopped",
		"reason": "timeout",
		"final_analysis": {
			"decision": "anomalous",
			"confidence": 0.77,
			"summary": "anomalous material detected",
			"total_predictions": 60,
			"anomaly_count": 21,
			"anomaly_percentage": 35.0,
			"is_anomalous": true
		}
	}`)

	stopped, ok := v.(DetectionStopped)
	require.True(t, ok)
	assert.Equal(t, StopReasonTimeout, stopped.Reason)
	require.NotNil(t, stopped.FinalAnalysis)
	assert.Equal(t, "anomalous", stopped.FinalAnalysis.Decision)
	assert.Equal(t, 21, stopped.FinalAnalysis.AnomalyCount)
}

func TestDecode_RawData(t *testing.T) {
	v := decode(t, `{"type":"arduino_raw_data","voltage":1.5,"timestamp":1700000000,"features":{"voltage_mean":1.4,"voltage_std":0.1,"sample_count":30}}`)

	raw, ok := v.(RawData)
	require.True(t, ok)
	assert.Equal(t, 1.5, raw.Voltage)
	assert.Equal(t, int64(1700000000000), raw.Timestamp.Ms())
	assert.Equal(t, 30, raw.Features.SampleCount)
}

func TestEncode_FlatFrame(t *testing.T) {
	data, err := Encode(TypeUpdateThreshold, ThresholdUpdate{Threshold: 0.75})
	require.NoError(t, err)

	env, err := ParseEnvelope(data)
	require.NoError(t, err)
	assert.Equal(t, TypeUpdateThreshold, env.Type)
	assert.NotEmpty(t, env.ID)
	assert.Positive(t, env.Timestamp)

	// Payload fields sit beside the frame fields.
	assert.Contains(t, string(data), `"threshold":0.75`)
}

func TestEncode_NilPayload(t *testing.T) {
	data, err := Encode(TypeGetStatus, nil)
	require.NoError(t, err)

	env, err := ParseEnvelope(data)
	require.NoError(t, err)
	assert.Equal(t, TypeGetStatus, env.Type)
}

func TestMLStatus_ProgressClamped(t *testing.T) {
	tests := []struct {
		name   string
		status MLStatus
		want   float64
	}{
		{"zero window size", MLStatus{CurrentWindow: 10, WindowSize: 0}, 0},
		{"normal", MLStatus{CurrentWindow: 25, WindowSize: 50}, 0.5},
		{"overshoot clamped", MLStatus{CurrentWindow: 80, WindowSize: 50}, 1},
		{"negative clamped", MLStatus{CurrentWindow: -5, WindowSize: 50}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.Progress())
		})
	}
}

func TestDecode_ModelsResponse(t *testing.T) {
	v := decode(t, `{"type":"models_response","models":[{"id":"m-1","name":"baseline","framework":"sklearn","is_active":true},{"id":"m-2","name":"steel-v2","is_preset":true}]}`)

	resp, ok := v.(ModelsResponse)
	require.True(t, ok)
	require.Len(t, resp.Models, 2)
	assert.Equal(t, "m-1", resp.Models[0].ID)
	assert.True(t, resp.Models[0].IsActive)
	assert.Equal(t, "steel-v2", resp.Models[1].Name)
	assert.True(t, resp.Models[1].IsPreset)
}

func TestDecode_ModelsError(t *testing.T) {
	v := decode(t, `{"type":"models_error","error":"Failed to get models"}`)

	p, ok := v.(ErrorPayload)
	require.True(t, ok)
	assert.Equal(t, "Failed to get models", p.Error)
}
