package regions

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/wavecraft/wavecraft/internal/config"
	"github.com/wavecraft/wavecraft/internal/errors"
	"github.com/wavecraft/wavecraft/internal/logging"
)

type regionJSON struct {
	Name  string `json:"name"`
	Start int64  `json:"start"`
	End   int64  `json:"end"`
	Color uint32 `json:"color"`
}

type markerJSON struct {
	Name     string `json:"name"`
	Position int64  `json:"position"`
	Color    uint32 `json:"color"`
}

func regionsPath(audioPath string) string {
	return audioPath + config.RegionsSidecarSuffix
}

func markersPath(audioPath string) string {
	return audioPath + config.MarkersSidecarSuffix
}

// SaveRegions writes the model's regions to "<audioPath>.regions.json" using
// a temp-file-then-rename sequence so a crash mid-write never corrupts the
// side-car.
func (m *Model) SaveRegions(audioPath string) error {
	out := make([]regionJSON, len(m.regions))
	for i, r := range m.regions {
		out[i] = regionJSON{Name: r.Name, Start: r.StartSample, End: r.EndSample, Color: uint32(r.Color)}
	}
	return atomicWriteJSON(regionsPath(audioPath), out)
}

// SaveMarkers writes the model's markers to "<audioPath>.markers.json".
func (m *Model) SaveMarkers(audioPath string) error {
	out := make([]markerJSON, len(m.markers))
	for i, mk := range m.markers {
		out[i] = markerJSON{Name: mk.Name, Position: mk.Position, Color: uint32(mk.Color)}
	}
	return atomicWriteJSON(markersPath(audioPath), out)
}

// LoadRegions reads "<audioPath>.regions.json" into the model. Load is
// lenient: a parse failure leaves the model untouched and returns an error
// the caller should treat as "not loaded", not as a fatal condition.
func (m *Model) LoadRegions(audioPath string) error {
	var raw []regionJSON
	if err := readJSON(regionsPath(audioPath), &raw); err != nil {
		return err
	}
	regions := make([]Region, len(raw))
	for i, r := range raw {
		regions[i] = Region{Name: r.Name, StartSample: r.Start, EndSample: r.End, Color: RGBA(r.Color)}
	}
	sortRegions(regions)
	m.regions = regions
	return nil
}

// LoadMarkers reads "<audioPath>.markers.json" into the model.
func (m *Model) LoadMarkers(audioPath string) error {
	var raw []markerJSON
	if err := readJSON(markersPath(audioPath), &raw); err != nil {
		return err
	}
	markers := make([]Marker, len(raw))
	for i, mk := range raw {
		markers[i] = Marker{Name: mk.Name, Position: mk.Position, Color: RGBA(mk.Color)}
	}
	sortMarkers(markers)
	m.markers = markers
	return nil
}

func sortRegions(r []Region) {
	for i := 1; i < len(r); i++ {
		for j := i; j > 0 && r[j].StartSample < r[j-1].StartSample; j-- {
			r[j], r[j-1] = r[j-1], r[j]
		}
	}
}

func sortMarkers(m []Marker) {
	for i := 1; i < len(m); i++ {
		for j := i; j > 0 && m[j].Position < m[j-1].Position; j-- {
			m[j], m[j-1] = m[j-1], m[j]
		}
	}
}

func readJSON(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.New(err).
			Category(errors.CategoryDecodeFailed).
			Context("path", path).
			Build()
	}
	return nil
}

// atomicWriteJSON writes data as JSON to a temp file in the same directory
// as path, then renames it over path, matching the settings store's
// update-in-place pattern.
func atomicWriteJSON(path string, data any) error {
	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errors.New(err).Category(errors.CategoryEncodeFailed).Build()
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp")
	if err != nil {
		return errors.New(err).Category(errors.CategoryFileIO).Context("path", path).Build()
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(encoded); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.New(err).Category(errors.CategoryFileIO).Context("path", path).Build()
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return errors.New(err).Category(errors.CategoryFileIO).Context("path", path).Build()
	}
	if err := os.Rename(tmpName, path); err != nil {
		logging.Error("regions sidecar rename failed", "path", path, "error", err)
		return errors.New(err).Category(errors.CategoryFileIO).Context("path", path).Build()
	}
	return nil
}
