package dynamo

import (
	"fmt"
	"io"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// NoName labels the slots of a state built without names.
const NoName = "NO NAME"

// Entry is a single named state variable.
type Entry struct {
	Name  string
	Value float64
}

// SysState is a vector of named values. Its dimension is fixed when it is
// created; slot indices stay stable for the lifetime of the value.
type SysState struct {
	entries []Entry
}

// NewSysState builds a state from explicit name/value pairs. It panics
// with ErrDuplicateName if a name other than NoName repeats.
func NewSysState(entries ...Entry) *SysState {
	s := &SysState{entries: make([]Entry, len(entries))}
	copy(s.entries, entries)
	s.mustUniqueNames()
	return s
}

// NewSysStateWithNames builds a state where every variable starts at val.
// Like NewSysState it panics on a repeated name.
func NewSysStateWithNames(names []string, val float64) *SysState {
	s := &SysState{entries: make([]Entry, len(names))}
	for i, n := range names {
		s.entries[i] = Entry{Name: n, Value: val}
	}
	s.mustUniqueNames()
	return s
}

// Get and Set resolve the first slot with a name, so a repeat would hide
// every later slot.
func (s *SysState) mustUniqueNames() {
	seen := make(map[string]struct{}, len(s.entries))
	for _, e := range s.entries {
		if e.Name == NoName {
			continue
		}
		if _, ok := seen[e.Name]; ok {
			panic(fmt.Errorf("%w: %q", ErrDuplicateName, e.Name))
		}
		seen[e.Name] = struct{}{}
	}
}

// NewUnnamedSysState builds a zero state of the given dimension.
func NewUnnamedSysState(dim int) *SysState {
	s := &SysState{entries: make([]Entry, dim)}
	for i := range s.entries {
		s.entries[i].Name = NoName
	}
	return s
}

// NewSysStateFrom copies the first dim entries of other.
func NewSysStateFrom(other *SysState, dim int) (*SysState, error) {
	if dim > other.Size() {
		return nil, fmt.Errorf("%w: %d > %d", ErrDimensionMismatch, dim, other.Size())
	}
	return NewSysState(other.entries[:dim]...), nil
}

// ExtractInto copies from src every variable whose name appears in dst.
func ExtractInto(src, dst *SysState) error {
	if dst.Size() > src.Size() {
		return fmt.Errorf("%w: %d > %d", ErrDimensionMismatch, dst.Size(), src.Size())
	}
	for i, e := range dst.entries {
		v, err := src.Get(e.Name)
		if err != nil {
			return err
		}
		dst.entries[i].Value = v
	}
	return nil
}

func (s *SysState) Size() int { return len(s.entries) }

func (s *SysState) Clone() *SysState {
	return NewSysState(s.entries...)
}

// CopyFrom overwrites the names and values of s with those of other.
func (s *SysState) CopyFrom(other *SysState) error {
	if other.Size() != s.Size() {
		return fmt.Errorf("%w: %d should be %d", ErrSizeMismatch, other.Size(), s.Size())
	}
	copy(s.entries, other.entries)
	return nil
}

func (s *SysState) index(name string) (int, error) {
	for i := range s.entries {
		if s.entries[i].Name == name {
			return i, nil
		}
	}
	return -1, &NameError{Name: name, Valid: s.Names()}
}

func (s *SysState) Get(name string) (float64, error) {
	i, err := s.index(name)
	if err != nil {
		return 0, err
	}
	return s.entries[i].Value, nil
}

func (s *SysState) Set(name string, val float64) error {
	i, err := s.index(name)
	if err != nil {
		return err
	}
	s.entries[i].Value = val
	return nil
}

// Ref gives read/write access to the named variable.
func (s *SysState) Ref(name string) (*float64, error) {
	i, err := s.index(name)
	if err != nil {
		return nil, err
	}
	return &s.entries[i].Value, nil
}

// SetEntry overwrites slot i. It panics when i is out of range or when
// e.Name already labels another slot.
func (s *SysState) SetEntry(i int, e Entry) {
	_ = s.entries[i]
	if e.Name != NoName {
		for j := range s.entries {
			if j != i && s.entries[j].Name == e.Name {
				panic(fmt.Errorf("%w: %q", ErrDuplicateName, e.Name))
			}
		}
	}
	s.entries[i] = e
}

func (s *SysState) Entry(i int) Entry { return s.entries[i] }

func (s *SysState) At(i int) float64 { return s.entries[i].Value }

func (s *SysState) SetAt(i int, v float64) { s.entries[i].Value = v }

func (s *SysState) AddAt(i int, d float64) { s.entries[i].Value += d }

// Add adds vec elementwise onto the values.
func (s *SysState) Add(vec []float64) error {
	if len(vec) != len(s.entries) {
		return s.sizeError(len(vec))
	}
	for i := range s.entries {
		s.entries[i].Value += vec[i]
	}
	return nil
}

// Sub subtracts vec elementwise from the values.
func (s *SysState) Sub(vec []float64) error {
	if len(vec) != len(s.entries) {
		return s.sizeError(len(vec))
	}
	for i := range s.entries {
		s.entries[i].Value -= vec[i]
	}
	return nil
}

// AddVec is Add for gonum vectors.
func (s *SysState) AddVec(vec mat.Vector) error {
	if vec.Len() != len(s.entries) {
		return s.sizeError(vec.Len())
	}
	for i := range s.entries {
		s.entries[i].Value += vec.AtVec(i)
	}
	return nil
}

// SetValues replaces all values, keeping the names.
func (s *SysState) SetValues(vec []float64) error {
	if len(vec) != len(s.entries) {
		return s.sizeError(len(vec))
	}
	for i := range s.entries {
		s.entries[i].Value = vec[i]
	}
	return nil
}

func (s *SysState) sizeError(got int) error {
	return fmt.Errorf("%w: %d should be %d", ErrSizeMismatch, got, len(s.entries))
}

func (s *SysState) Scale(f float64) {
	for i := range s.entries {
		s.entries[i].Value *= f
	}
}

// Clear zeroes every value. Names are kept.
func (s *SysState) Clear() {
	for i := range s.entries {
		s.entries[i].Value = 0
	}
}

// Values returns a copy of the values in slot order.
func (s *SysState) Values() []float64 {
	vals := make([]float64, len(s.entries))
	for i, e := range s.entries {
		vals[i] = e.Value
	}
	return vals
}

// Names returns a copy of the names in slot order.
func (s *SysState) Names() []string {
	names := make([]string, len(s.entries))
	for i, e := range s.entries {
		names[i] = e.Name
	}
	return names
}

func (s *SysState) AsVector() *mat.VecDense {
	return mat.NewVecDense(len(s.entries), s.Values())
}

func (s *SysState) IsValid() bool {
	for _, e := range s.entries {
		if math.IsNaN(e.Value) || math.IsInf(e.Value, 0) {
			return false
		}
	}
	return true
}

// String renders "name:value," for every slot.
func (s *SysState) String() string {
	var b strings.Builder
	for _, e := range s.entries {
		fmt.Fprintf(&b, "%s:%f,", e.Name, e.Value)
	}
	return b.String()
}

// Print writes one "name:value" line per slot with 4 decimals.
func (s *SysState) Print(w io.Writer) error {
	for _, e := range s.entries {
		if _, err := fmt.Fprintf(w, "%s:%.4f\n", e.Name, e.Value); err != nil {
			return err
		}
	}
	return nil
}
