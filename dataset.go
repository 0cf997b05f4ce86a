// dataset.go
package qlab

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
)

/*
DataSet holds the results of a measurement: named arrays plus free-form
metadata. Set-point arrays (the swept axes) are tracked by name so a
consumer can tell axes from measured data.

Locations follow the <timestamp>_<label> convention of the original
toolkit, so a directory of saved datasets sorts chronologically.
*/
type DataSet struct {
	ID        string
	Label     string
	Location  string
	Metadata  map[string]any
	Arrays    map[string]*Array
	SetArrays []string
}

// NewDataSet creates an empty dataset with a fresh ID and a
// timestamped location ending in label.
func NewDataSet(label string) *DataSet {
	return &DataSet{
		ID:       uuid.NewString(),
		Label:    label,
		Location: time.Now().Format("2006-01-02_15-04-05") + "_" + label,
		Metadata: make(map[string]any),
		Arrays:   make(map[string]*Array),
	}
}

// AddArray stores a measured array under name.
func (ds *DataSet) AddArray(name string, a *Array) {
	ds.Arrays[name] = a
}

// AddSetArray stores a set-point (axis) array under name.
func (ds *DataSet) AddSetArray(name string, a *Array) {
	ds.Arrays[name] = a
	for _, existing := range ds.SetArrays {
		if existing == name {
			return
		}
	}
	ds.SetArrays = append(ds.SetArrays, name)
}

// ArrayNames returns all array names in sorted order.
func (ds *DataSet) ArrayNames() []string {
	names := make([]string, 0, len(ds.Arrays))
	for name := range ds.Arrays {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Save writes the dataset as indented UTF-8 JSON.
func (ds *DataSet) Save(path string, codec *Codec) error {
	data, err := codec.MarshalIndent(ds)
	if err != nil {
		return fmt.Errorf("encoding dataset %s: %w", ds.Location, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing dataset %s: %w", ds.Location, err)
	}
	return nil
}

// LoadDataSet reads a dataset saved by Save.
func LoadDataSet(path string, codec *Codec) (*DataSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}
	decoded, err := codec.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	ds, ok := decoded.(*DataSet)
	if !ok {
		return nil, fmt.Errorf("file %s does not contain a dataset", path)
	}
	return ds, nil
}

func encodeDataSet(value any) (any, error) {
	ds, ok := value.(*DataSet)
	if !ok {
		return nil, fmt.Errorf("dataset encoder got %T", value)
	}

	arrays := make(map[string]any, len(ds.Arrays))
	for name, a := range ds.Arrays {
		arrays[name] = a
	}
	metadata := make(map[string]any, len(ds.Metadata))
	for key, v := range ds.Metadata {
		metadata[key] = v
	}
	setArrays := make([]any, len(ds.SetArrays))
	for i, name := range ds.SetArrays {
		setArrays[i] = name
	}

	return map[string]any{
		"id":         ds.ID,
		"label":      ds.Label,
		"location":   ds.Location,
		"metadata":   metadata,
		"arrays":     arrays,
		"set_arrays": setArrays,
	}, nil
}

func decodeDataSet(content any) (any, error) {
	m, ok := content.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("dataset content must be an object, got %T", content)
	}

	ds := &DataSet{
		Metadata: make(map[string]any),
		Arrays:   make(map[string]*Array),
	}
	ds.ID, _ = m["id"].(string)
	ds.Label, _ = m["label"].(string)
	ds.Location, _ = m["location"].(string)

	if metadata, ok := m["metadata"].(map[string]any); ok {
		ds.Metadata = metadata
	}
	if arrays, ok := m["arrays"].(map[string]any); ok {
		for name, raw := range arrays {
			a, ok := raw.(*Array)
			if !ok {
				return nil, fmt.Errorf("dataset array %q decoded to %T", name, raw)
			}
			ds.Arrays[name] = a
		}
	}
	if setArrays, ok := m["set_arrays"].([]any); ok {
		for _, raw := range setArrays {
			if name, ok := raw.(string); ok {
				ds.SetArrays = append(ds.SetArrays, name)
			}
		}
	}
	return ds, nil
}
