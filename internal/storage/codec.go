package storage

import (
	"encoding/json"
	"errors"

	"modelfusion/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeResource(payload map[string]any) ([]byte, error) {
	return json.Marshal(payload)
}

func DecodeResource(data []byte) (map[string]any, error) {
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// EncodeSnapshot stamps the current schema/codec versions before marshalling.
func EncodeSnapshot(snapshot model.FusionSnapshot) ([]byte, error) {
	snapshot.SchemaVersion = CurrentSchemaVersion
	snapshot.CodecVersion = CurrentCodecVersion
	return json.Marshal(snapshot)
}

func DecodeSnapshot(data []byte) (model.FusionSnapshot, error) {
	var snapshot model.FusionSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return model.FusionSnapshot{}, err
	}
	if err := checkVersion(snapshot.VersionedRecord); err != nil {
		return model.FusionSnapshot{}, err
	}
	return snapshot, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
