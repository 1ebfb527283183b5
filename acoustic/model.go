package acoustic

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/brigittebigi/sppas-sub001/lexicon"
)

// File names of a model directory.
const (
	HmmDefsFile  = "hmmdefs"
	MacrosFile   = "macros"
	TiedListFile = "tiedlist"
	ReplFile     = "monophones.repl"
)

// AuxStatus tells what happened to an optional file of a model directory.
type AuxStatus int

const (
	AuxMissing AuxStatus = iota
	AuxLoaded
	AuxCorrupt
)

func (s AuxStatus) String() string {
	switch s {
	case AuxLoaded:
		return "loaded"
	case AuxCorrupt:
		return "corrupt"
	}
	return "missing"
}

// AuxResult is the outcome of loading one optional file.
type AuxResult struct {
	Path   string
	Status AuxStatus
	Err    error // set when Status is AuxCorrupt
}

// LoadResult reports the optional files of a model directory.
type LoadResult struct {
	Macros   AuxResult
	TiedList AuxResult
	Repl     AuxResult
}

// Load reads a model directory into m: hmmdefs (required), then macros,
// tiedlist and monophones.repl when present. A missing or corrupt optional
// file leaves the matching structure as it was and is reported in the result;
// a corrupt macros file is an error because hmmdefs depends on it.
func (m *AcModel) Load(dir string) (LoadResult, error) {
	var res LoadResult
	hmmdefs := filepath.Join(dir, HmmDefsFile)
	if _, err := os.Stat(hmmdefs); err != nil {
		return res, fmt.Errorf("load model %s: %w", dir, err)
	}

	res.Macros.Path = filepath.Join(dir, MacrosFile)
	if _, err := os.Stat(res.Macros.Path); err == nil {
		if err := m.LoadHTK(res.Macros.Path); err != nil {
			return res, fmt.Errorf("load model %s: %w", dir, err)
		}
		res.Macros.Status = AuxLoaded
	}
	if err := m.LoadHTK(hmmdefs); err != nil {
		return res, fmt.Errorf("load model %s: %w", dir, err)
	}

	res.TiedList = m.loadAux(filepath.Join(dir, TiedListFile), func(path string) error {
		return m.LoadTiedList(path)
	})
	res.Repl = m.loadAux(filepath.Join(dir, ReplFile), func(path string) error {
		return m.LoadPhonesRepl(path)
	})
	return res, nil
}

func (m *AcModel) loadAux(path string, load func(string) error) AuxResult {
	r := AuxResult{Path: path}
	err := load(path)
	switch {
	case err == nil:
		r.Status = AuxLoaded
	case errors.Is(err, fs.ErrNotExist):
		r.Status = AuxMissing
	default:
		r.Status = AuxCorrupt
		r.Err = err
	}
	return r
}

// Save writes the model into dir: the macros to macros, the HMMs to hmmdefs,
// plus tiedlist and monophones.repl. A file whose structure is empty is
// removed so that a later Load of dir reads back exactly this model.
// dir is created if needed.
func (m *AcModel) Save(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	err := saveOrRemove(filepath.Join(dir, MacrosFile), len(m.Macros) > 0, func(path string) error {
		return WriteHTKFile(path, m.Macros, nil)
	})
	if err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	if err := WriteHTKFile(filepath.Join(dir, HmmDefsFile), nil, m.HMMs); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	hasTied := m.TiedList != nil && !m.TiedList.IsEmpty()
	if err := saveOrRemove(filepath.Join(dir, TiedListFile), hasTied, m.SaveTiedList); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	hasRepl := m.Repl != nil && !m.Repl.IsEmpty()
	if err := saveOrRemove(filepath.Join(dir, ReplFile), hasRepl, m.SavePhonesRepl); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	return nil
}

// saveOrRemove calls save when keep is set, otherwise removes any stale file
// left at path.
func saveOrRemove(path string, keep bool, save func(string) error) error {
	if keep {
		return save(path)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// LoadHTK appends the macros and HMMs of HTK-ASCII files to m.
// HMMs whose name is already in the model are rejected.
func (m *AcModel) LoadHTK(paths ...string) error {
	for _, path := range paths {
		macros, hmms, err := ReadHTKFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		m.Macros = append(m.Macros, macros...)
		for _, h := range hmms {
			if err := m.AppendHMM(h); err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
		}
	}
	return nil
}

// SaveHTK writes all macros and HMMs to a single HTK-ASCII file.
func (m *AcModel) SaveHTK(path string) error {
	return WriteHTKFile(path, m.Macros, m.HMMs)
}

// LoadTiedList replaces the tied list with the content of path.
func (m *AcModel) LoadTiedList(path string) error {
	t, err := ReadTiedListFile(path)
	if err != nil {
		return err
	}
	m.TiedList = t
	return nil
}

// SaveTiedList writes the tied list to path.
func (m *AcModel) SaveTiedList(path string) error {
	return m.TiedList.WriteFile(path)
}

// LoadPhonesRepl replaces the replacement table with the content of path.
func (m *AcModel) LoadPhonesRepl(path string) error {
	r, err := lexicon.LoadFile(path)
	if err != nil {
		return err
	}
	m.Repl = r
	return nil
}

// SavePhonesRepl writes the replacement table to path.
func (m *AcModel) SavePhonesRepl(path string) error {
	return m.Repl.SaveFile(path)
}

// serializable snapshot for gob encoding
type serializedModel struct {
	Macros   []*Macro
	HMMs     []*HMM
	Observed []string
	Tied     map[string]string
	Repl     [][2]string
	Reverse  bool
}

// Encode serializes the whole model to a writer using gob encoding.
func (m *AcModel) Encode(w io.Writer) error {
	sm := serializedModel{
		Macros: m.Macros,
		HMMs:   m.HMMs,
		Tied:   make(map[string]string),
	}
	if m.TiedList != nil {
		sm.Observed = m.TiedList.Observed()
		for _, k := range m.TiedList.TiedNames() {
			sm.Tied[k], _ = m.TiedList.Tied(k)
		}
	}
	if m.Repl != nil {
		for _, k := range m.Repl.Keys() {
			for _, v := range m.Repl.Values(k) {
				sm.Repl = append(sm.Repl, [2]string{k, v})
			}
		}
		sm.Reverse = m.Repl.Reverse()
	}
	return gob.NewEncoder(w).Encode(sm)
}

// Decode deserializes a model written by Encode.
func Decode(r io.Reader) (*AcModel, error) {
	var sm serializedModel
	if err := gob.NewDecoder(r).Decode(&sm); err != nil {
		return nil, err
	}

	m := NewAcModel()
	m.Macros = sm.Macros
	m.HMMs = sm.HMMs
	for _, o := range sm.Observed {
		m.TiedList.AddObserved(o)
	}
	for k, o := range sm.Tied {
		m.TiedList.AddTied(k, o)
	}
	for _, kv := range sm.Repl {
		if err := m.Repl.Add(kv[0], kv[1]); err != nil {
			return nil, err
		}
	}
	m.Repl.SetReverse(sm.Reverse)
	return m, nil
}
