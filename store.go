package reminis

import (
	"encoding/json"
	"fmt"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Record is a proc's persisted metadata: the fingerprint of its own function
// set, the fingerprint of each direct dependency (one level, in declared
// order), and a snapshot of its positional arguments. Comparing a fresh
// record against the stored one is how the cache detects change.
type Record struct {
	OwnFingerprint  string
	DepFingerprints []string
	Args            []cty.Value
}

// Equal reports whether two records describe the same configuration:
// identical fingerprints, element-wise equal dependency fingerprints, and
// structurally equal arguments.
func (r *Record) Equal(other *Record) bool {
	if other == nil {
		return false
	}
	if r.OwnFingerprint != other.OwnFingerprint {
		return false
	}
	if len(r.DepFingerprints) != len(other.DepFingerprints) {
		return false
	}
	for i, fp := range r.DepFingerprints {
		if fp != other.DepFingerprints[i] {
			return false
		}
	}
	if len(r.Args) != len(other.Args) {
		return false
	}
	for i, arg := range r.Args {
		if !arg.RawEquals(other.Args[i]) {
			return false
		}
	}
	return true
}

// valueWire is the serialized form of a cty value: the value itself next to
// its marshalled type, so arbitrary structured values round-trip.
type valueWire struct {
	Type  json.RawMessage `json:"type"`
	Value json.RawMessage `json:"value"`
}

func encodeValue(v cty.Value) (valueWire, error) {
	ty, err := ctyjson.MarshalType(v.Type())
	if err != nil {
		return valueWire{}, err
	}
	raw, err := ctyjson.Marshal(v, v.Type())
	if err != nil {
		return valueWire{}, err
	}
	return valueWire{Type: ty, Value: raw}, nil
}

func decodeValue(w valueWire) (cty.Value, error) {
	ty, err := ctyjson.UnmarshalType(w.Type)
	if err != nil {
		return cty.NilVal, err
	}
	return ctyjson.Unmarshal(w.Value, ty)
}

type recordWire struct {
	OwnFingerprint  string      `json:"own_fingerprint"`
	DepFingerprints []string    `json:"dep_fingerprints"`
	Args            []valueWire `json:"args"`
}

func (r Record) MarshalJSON() ([]byte, error) {
	wire := recordWire{
		OwnFingerprint:  r.OwnFingerprint,
		DepFingerprints: r.DepFingerprints,
		Args:            make([]valueWire, len(r.Args)),
	}
	for i, arg := range r.Args {
		w, err := encodeValue(arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		wire.Args[i] = w
	}
	return json.Marshal(wire)
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var wire recordWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	args := make([]cty.Value, len(wire.Args))
	for i, w := range wire.Args {
		v, err := decodeValue(w)
		if err != nil {
			return fmt.Errorf("argument %d: %w", i, err)
		}
		args[i] = v
	}
	r.OwnFingerprint = wire.OwnFingerprint
	r.DepFingerprints = wire.DepFingerprints
	r.Args = args
	return nil
}

// Store persists per-proc records across runs, keyed by resolved proc name.
// A proc has two logically distinct artifacts: its metadata record and its
// computed value; absence of one must be detectable independently of the
// other.
//
// "Record absent" is a normal outcome, reported without error. Any other
// read failure (corruption, permissions, I/O) must surface as an error and
// never be conflated with absence.
type Store interface {
	SaveMetadata(name string, rec *Record) error

	// LoadMetadata returns (nil, nil) when no record exists for the name.
	LoadMetadata(name string) (*Record, error)

	SaveValue(name string, v cty.Value) error

	// LoadValue reports ok=false when no value artifact exists for the name.
	LoadValue(name string) (cty.Value, bool, error)
}
