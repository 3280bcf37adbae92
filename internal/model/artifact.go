package model

import (
	"fmt"
	"os"

	"github.com/vmihailenco/msgpack/v5"
)

// SchemaVersion is the artifact schema this engine can score
const SchemaVersion = 1

// Artifact is the serialized form of the fitted regressor: an RBF network
// over standardized features. It is treated as an opaque, versioned blob by
// everything outside this package.
type Artifact struct {
	SchemaVersion int      `msgpack:"schema_version"`
	ModelVersion  string   `msgpack:"model_version"`
	FeatureNames  []string `msgpack:"feature_names"`

	Means       []float64   `msgpack:"means"`
	Scales      []float64   `msgpack:"scales"`
	LengthScale float64     `msgpack:"length_scale"`
	Centers     [][]float64 `msgpack:"centers"`
	Weights     []float64   `msgpack:"weights"`
	Bias        float64     `msgpack:"bias"`
}

// Validate checks the artifact against the feature contract and internal
// shape invariants
func (a *Artifact) Validate() error {
	if a.SchemaVersion != SchemaVersion {
		return fmt.Errorf("%w: artifact has schema %d, engine supports %d",
			ErrSchemaVersion, a.SchemaVersion, SchemaVersion)
	}

	if len(a.FeatureNames) != NumFeatures {
		return fmt.Errorf("%w: artifact has %d features, contract has %d",
			ErrFeatureMismatch, len(a.FeatureNames), NumFeatures)
	}
	for i, name := range a.FeatureNames {
		if name != FeatureNames[i] {
			return fmt.Errorf("%w: feature %d is %q, contract expects %q",
				ErrFeatureMismatch, i, name, FeatureNames[i])
		}
	}

	if len(a.Means) != NumFeatures || len(a.Scales) != NumFeatures {
		return fmt.Errorf("artifact standardization vectors have wrong width")
	}
	for i, s := range a.Scales {
		if s == 0 {
			return fmt.Errorf("artifact scale %d is zero", i)
		}
	}
	if a.LengthScale <= 0 {
		return fmt.Errorf("artifact length scale must be positive, got %f", a.LengthScale)
	}
	if len(a.Centers) == 0 || len(a.Centers) != len(a.Weights) {
		return fmt.Errorf("artifact has %d centers and %d weights", len(a.Centers), len(a.Weights))
	}
	for i, c := range a.Centers {
		if len(c) != NumFeatures {
			return fmt.Errorf("artifact center %d has width %d, expected %d", i, len(c), NumFeatures)
		}
	}

	return nil
}

// Encode serializes the artifact to its on-disk form
func (a *Artifact) Encode() ([]byte, error) {
	return msgpack.Marshal(a)
}

// Decode parses an artifact blob without validating it
func Decode(blob []byte) (*Artifact, error) {
	var a Artifact
	if err := msgpack.Unmarshal(blob, &a); err != nil {
		return nil, fmt.Errorf("error decoding model artifact: %w", err)
	}
	return &a, nil
}

// Load reads, validates, and compiles a fitted artifact from disk. A missing
// file maps to ErrUnavailable so callers can distinguish "no model yet" from
// a corrupt one.
func Load(path string) (Predictor, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrUnavailable, path)
		}
		return nil, fmt.Errorf("error reading model artifact: %w", err)
	}

	artifact, err := Decode(blob)
	if err != nil {
		return nil, err
	}
	if err := artifact.Validate(); err != nil {
		return nil, err
	}

	return NewRBFRegressor(artifact), nil
}
