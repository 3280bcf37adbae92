package model

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func validArtifact() *Artifact {
	return &Artifact{
		SchemaVersion: SchemaVersion,
		ModelVersion:  "rbf-2024.07",
		FeatureNames:  append([]string(nil), FeatureNames...),
		Means:         make([]float64, NumFeatures),
		Scales:        []float64{1, 1, 1, 1, 1, 1, 1, 1},
		LengthScale:   1.5,
		Centers: [][]float64{
			{0, 0, 0, 0, 0, 0, 0, 0},
			{1, 1, 1, 1, 1, 1, 1, 1},
		},
		Weights: []float64{0.4, 0.6},
		Bias:    30.0,
	}
}

func TestArtifactValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(a *Artifact)
		expected error
	}{
		{
			name:     "valid artifact passes",
			mutate:   func(a *Artifact) {},
			expected: nil,
		},
		{
			name:     "wrong schema version",
			mutate:   func(a *Artifact) { a.SchemaVersion = 99 },
			expected: ErrSchemaVersion,
		},
		{
			name:     "missing feature",
			mutate:   func(a *Artifact) { a.FeatureNames = a.FeatureNames[:NumFeatures-1] },
			expected: ErrFeatureMismatch,
		},
		{
			name:     "reordered features",
			mutate:   func(a *Artifact) { a.FeatureNames[0], a.FeatureNames[1] = a.FeatureNames[1], a.FeatureNames[0] },
			expected: ErrFeatureMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := validArtifact()
			tt.mutate(a)
			err := a.Validate()
			if tt.expected == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.expected) {
				t.Errorf("got %v, expected %v", err, tt.expected)
			}
		})
	}
}

func TestArtifactValidateShapes(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(a *Artifact)
	}{
		{name: "zero scale", mutate: func(a *Artifact) { a.Scales[3] = 0 }},
		{name: "nonpositive length scale", mutate: func(a *Artifact) { a.LengthScale = 0 }},
		{name: "no centers", mutate: func(a *Artifact) { a.Centers = nil; a.Weights = nil }},
		{name: "center weight mismatch", mutate: func(a *Artifact) { a.Weights = a.Weights[:1] }},
		{name: "narrow center", mutate: func(a *Artifact) { a.Centers[1] = a.Centers[1][:4] }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := validArtifact()
			tt.mutate(a)
			if err := a.Validate(); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestArtifactEncodeDecode(t *testing.T) {
	a := validArtifact()
	blob, err := a.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	decoded, err := Decode(blob)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.ModelVersion != a.ModelVersion {
		t.Errorf("model version: got %q, expected %q", decoded.ModelVersion, a.ModelVersion)
	}
	if err := decoded.Validate(); err != nil {
		t.Errorf("decoded artifact failed validation: %v", err)
	}
}

func TestLoadMissingArtifact(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.model"))
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("got %v, expected ErrUnavailable", err)
	}
}

func TestLoadRoundTrip(t *testing.T) {
	a := validArtifact()
	blob, err := a.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	path := filepath.Join(t.TempDir(), "test.model")
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	predictor, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if predictor.Version() != "rbf-2024.07" {
		t.Errorf("version: got %q, expected rbf-2024.07", predictor.Version())
	}
}

func TestLoadCorruptArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.model")
	if err := os.WriteFile(path, []byte("not msgpack at all"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := Load(path)
	if err == nil {
		t.Error("expected an error for a corrupt artifact")
	}
	if errors.Is(err, ErrUnavailable) {
		t.Error("a corrupt artifact must not report as merely unavailable")
	}
}
