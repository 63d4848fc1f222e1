package storage

import (
	"errors"
	"testing"

	"modelfusion/internal/model"
)

func TestSnapshotCodecStampsVersions(t *testing.T) {
	data, err := EncodeSnapshot(model.FusionSnapshot{ResourceID: "fusion/f1"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	snapshot, err := DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snapshot.SchemaVersion != CurrentSchemaVersion || snapshot.CodecVersion != CurrentCodecVersion {
		t.Fatalf("unexpected versions: %+v", snapshot.VersionedRecord)
	}
}

func TestDecodeSnapshotVersionMismatch(t *testing.T) {
	_, err := DecodeSnapshot([]byte(`{"schema_version":99,"codec_version":1,"resource_id":"fusion/f1"}`))
	if !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}
}

func TestResourceCodecRoundTrip(t *testing.T) {
	payload := map[string]any{"resource": "pca/p1", "object": map[string]any{"name": "pca"}}
	data, err := EncodeResource(payload)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := DecodeResource(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["resource"] != "pca/p1" {
		t.Fatalf("unexpected payload: %+v", out)
	}
}
