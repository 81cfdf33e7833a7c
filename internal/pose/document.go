package pose

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gonum.org/v1/gonum/num/quat"
)

// LocationSuffix marks pose document keys that carry an IK target location.
const LocationSuffix = "_location"

// ErrInvalidDocument is returned when a pose document does not match the
// bone-name -> 4-vector / "<bone>_location" -> 3-vector schema.
var ErrInvalidDocument = errors.New("invalid pose document")

// Entry is one key of a pose document with its raw values.
type Entry struct {
	Key    string
	Values []float64
}

// IsLocation reports whether the entry carries a location.
func (e Entry) IsLocation() bool { return IsLocationKey(e.Key) }

// Bone returns the bone the entry targets.
func (e Entry) Bone() string { return BoneFromKey(e.Key) }

// IsLocationKey reports whether key names an IK target location.
func IsLocationKey(key string) bool {
	return strings.HasSuffix(key, LocationSuffix)
}

// BoneFromKey strips the location suffix, if any.
func BoneFromKey(key string) string {
	return strings.TrimSuffix(key, LocationSuffix)
}

// LocationKey returns the document key for a bone's location.
func LocationKey(bone string) string {
	return bone + LocationSuffix
}

// Document is the flat key -> vector mapping exchanged between extraction and
// application. Keys keep insertion order so encoding is deterministic.
type Document struct {
	entries []Entry
	index   map[string]int
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{index: make(map[string]int)}
}

// SetRotation stores a bone rotation.
func (d *Document) SetRotation(bone string, r Rotation) {
	d.set(bone, r[:])
}

// SetLocation stores an IK target location under "<bone>_location".
func (d *Document) SetLocation(bone string, l Location) {
	d.set(LocationKey(bone), l[:])
}

// set overwrites in place when the key exists, so the first position wins.
func (d *Document) set(key string, values []float64) {
	if d.index == nil {
		d.index = make(map[string]int)
	}
	v := append([]float64(nil), values...)
	if i, ok := d.index[key]; ok {
		d.entries[i].Values = v
		return
	}
	d.index[key] = len(d.entries)
	d.entries = append(d.entries, Entry{Key: key, Values: v})
}

// Len returns the number of keys.
func (d *Document) Len() int { return len(d.entries) }

// Keys returns the keys in document order.
func (d *Document) Keys() []string {
	keys := make([]string, len(d.entries))
	for i, e := range d.entries {
		keys[i] = e.Key
	}
	return keys
}

// Entries returns a copy of the entries in document order.
func (d *Document) Entries() []Entry {
	out := make([]Entry, len(d.entries))
	for i, e := range d.entries {
		out[i] = Entry{Key: e.Key, Values: append([]float64(nil), e.Values...)}
	}
	return out
}

// Has reports whether key is present.
func (d *Document) Has(key string) bool {
	_, ok := d.index[key]
	return ok
}

// Rotation returns the rotation stored for bone.
func (d *Document) Rotation(bone string) (Rotation, bool) {
	i, ok := d.index[bone]
	if !ok || len(d.entries[i].Values) != 4 {
		return Rotation{}, false
	}
	var r Rotation
	copy(r[:], d.entries[i].Values)
	return r, true
}

// Location returns the location stored for bone.
func (d *Document) Location(bone string) (Location, bool) {
	i, ok := d.index[LocationKey(bone)]
	if !ok || len(d.entries[i].Values) != 3 {
		return Location{}, false
	}
	var l Location
	copy(l[:], d.entries[i].Values)
	return l, true
}

// MarshalJSON encodes the document as a JSON object in key order.
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range d.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		vals, err := json.Marshal(e.Values)
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", e.Key, err)
		}
		buf.Write(vals)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping key order and checking arity.
func (d *Document) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("%w: expected a JSON object", ErrInvalidDocument)
	}

	doc := NewDocument()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("%w: expected a key", ErrInvalidDocument)
		}

		var values []float64
		if err := dec.Decode(&values); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidDocument, key, err)
		}

		want := 4
		if IsLocationKey(key) {
			want = 3
		}
		if len(values) != want {
			return fmt.Errorf("%w: %s has %d values, want %d", ErrInvalidDocument, key, len(values), want)
		}
		doc.set(key, values)
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	*d = *doc
	return nil
}

// Encode writes the document as JSON indented with four spaces.
func (d *Document) Encode(w io.Writer) error {
	compact, err := d.MarshalJSON()
	if err != nil {
		return err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact, "", "    "); err != nil {
		return err
	}
	out.WriteByte('\n')
	_, err = w.Write(out.Bytes())
	return err
}

// ReadDocument loads a pose document from disk.
func ReadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pose document: %w", err)
	}
	doc := NewDocument()
	if err := doc.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("parsing pose document %s: %w", path, err)
	}
	return doc, nil
}

// Quat converts the rotation to a gonum quaternion.
func (r Rotation) Quat() quat.Number {
	return quat.Number{Real: r[0], Imag: r[1], Jmag: r[2], Kmag: r[3]}
}

// RotationFromQuat converts a gonum quaternion to [w, x, y, z].
func RotationFromQuat(q quat.Number) Rotation {
	return Rotation{q.Real, q.Imag, q.Jmag, q.Kmag}
}

// Norm returns the rotation's magnitude.
func (r Rotation) Norm() float64 {
	return quat.Abs(r.Quat())
}
