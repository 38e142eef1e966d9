package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/c360/sensorlink/errors"
)

// Decode maps an envelope to its typed payload. Exactly one variant exists
// per inbound message type; callers switch over the returned concrete type.
// Unknown types return ErrUnknownType so the dispatcher can log and drop.
func Decode(env *Envelope) (any, error) {
	var (
		v   any
		err error
	)

	switch env.Type {
	case TypeConnectionConfirmed:
		v, err = decodeAs[ConnectionConfirmed](env)
	case TypeStatusResponse, TypeStatusUpdate:
		v, err = decodeAs[StatusSnapshot](env)
	case TypeArduinoStatus:
		v, err = decodeAs[ArduinoStatus](env)
	case TypeDetectionStarted:
		v, err = decodeAs[DetectionStarted](env)
	case TypeDetectionStopped, TypeDetectionAutoStopped:
		v, err = decodeAs[DetectionStopped](env)
	case TypeDetectionStatus:
		v, err = decodeAs[DetectionStatus](env)
	case TypeArduinoData:
		v, err = decodeAs[ClassifiedData](env)
	case TypeArduinoRawData:
		v, err = decodeAs[RawData](env)
	case TypeDataCollection:
		v, err = decodeAs[CollectionStatus](env)
	case TypeThresholdUpdated:
		v, err = decodeAs[ThresholdUpdated](env)
	case TypeModelSelected:
		v, err = decodeAs[ModelSelected](env)
	case TypeModelsResponse:
		v, err = decodeAs[ModelsResponse](env)
	case TypeModelError, TypeModelsError, TypeHistoryError:
		v, err = decodeAs[ErrorPayload](env)
	case TypeHistoryResponse:
		v, err = decodeAs[HistoryResponse](env)
	case TypePong:
		v, err = decodeAs[Pong](env)
	case TypePing:
		v, err = decodeAs[Ping](env)
	default:
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %q", errors.ErrUnknownType, env.Type),
			"protocol", "Decode", "dispatch message type")
	}

	if err != nil {
		return nil, err
	}
	return v, nil
}

func decodeAs[T any](env *Envelope) (T, error) {
	var payload T
	if len(env.Raw) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(env.Raw, &payload); err != nil {
		return payload, errors.WrapInvalid(err, "protocol", "Decode",
			fmt.Sprintf("unmarshal %s payload", env.Type))
	}
	return payload, nil
}
