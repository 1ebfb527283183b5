package acoustic

import (
	"bytes"
	"errors"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brigittebigi/sppas-sub001/lexicon"
)

func loadTestModel(t *testing.T) *AcModel {
	t.Helper()
	macros, hmms, err := ReadHTK(strings.NewReader(testHmmdefs))
	require.NoError(t, err)
	m := NewAcModel()
	m.Macros = macros
	for _, h := range hmms {
		require.NoError(t, m.AppendHMM(h))
	}
	return m
}

func modelOf(t *testing.T, hmms ...*HMM) *AcModel {
	t.Helper()
	m := NewAcModel()
	for _, h := range hmms {
		require.NoError(t, m.AppendHMM(h))
	}
	return m
}

func TestFillHMMs(t *testing.T) {
	m := loadTestModel(t)
	require.NoError(t, m.FillHMMs())

	a := m.GetHMM("a")
	require.NotNil(t, a)
	assert.True(t, a.IsResolved())
	assert.Equal(t, []float64{1, 2}, a.Definition.States[0].State.Streams[0].Mixtures[0].Mean)
	assert.Equal(t, 0.6, a.Definition.Transition.Transition.Matrix[1][1])

	// Only the options macro survives.
	require.Len(t, m.Macros, 1)
	assert.Equal(t, MacroOptions, m.Macros[0].Kind)
}

func TestFillHMMs_DeepCopy(t *testing.T) {
	m := loadTestModel(t)
	// two HMMs referencing the same macros
	h := m.GetHMM("a").Clone()
	h.Name = "c"
	require.NoError(t, m.AppendHMM(h))
	require.NoError(t, m.FillHMMs())

	m.GetHMM("a").Definition.States[0].State.Streams[0].Mixtures[0].Mean[0] = 42
	assert.Equal(t, 1.0, m.GetHMM("c").Definition.States[0].State.Streams[0].Mixtures[0].Mean[0])
}

func TestFillHMMs_MissingMacro(t *testing.T) {
	m := loadTestModel(t)
	m.GetHMM("a").Definition.States[0].Macro = "ST_zz_2"

	err := m.FillHMMs()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMacroNotFound))
	assert.Contains(t, err.Error(), "ST_zz_2")
	// nothing was filled
	assert.Len(t, m.Macros, 3)
	assert.False(t, m.GetHMM("a").Definition.Transition.Resolved())
}

func TestAppendPopHMM(t *testing.T) {
	m := NewAcModel()
	require.NoError(t, m.AppendHMM(NewProtoHMM("a", 2)))
	require.NoError(t, m.AppendHMM(NewProtoHMM("a-b+c", 2)))

	err := m.AppendHMM(NewProtoHMM("a", 2))
	assert.True(t, errors.Is(err, ErrDuplicateHMM))

	for _, name := range []string{"", "a-", "a+b+c", "x-y-z", "a b"} {
		err := m.AppendHMM(NewProtoHMM(name, 2))
		assert.True(t, errors.Is(err, ErrInvalidName), "AppendHMM(%q) error = %v", name, err)
	}

	h, err := m.PopHMM("a")
	require.NoError(t, err)
	assert.Equal(t, "a", h.Name)
	assert.Equal(t, []string{"a-b+c"}, m.Names())

	_, err = m.PopHMM("a")
	assert.True(t, errors.Is(err, ErrHMMNotFound))
}

func TestMergeModel_Interpolate(t *testing.T) {
	m := modelOf(t, singleHMM("a", 0, 2, 0.6))
	other := modelOf(t, singleHMM("a", 4, 6, 0.8))

	stats, err := m.MergeModel(other, 0.5)
	require.NoError(t, err)
	assert.Equal(t, MergeStats{Interpolated: 1}, stats)
	require.Len(t, m.HMMs, 1)

	mix := m.HMMs[0].Definition.States[0].State.Streams[0].Mixtures[0]
	assert.InDeltaSlice(t, []float64{2, 4}, mix.Mean, 1e-12)
	assert.InDelta(t, ComputeGConst(mix.Variance), mix.GConst, 1e-12)
	assert.InDelta(t, 0.7, m.HMMs[0].Definition.Transition.Transition.Matrix[1][1], 1e-12)

	// other is untouched
	omix := other.HMMs[0].Definition.States[0].State.Streams[0].Mixtures[0]
	assert.Equal(t, []float64{4, 6}, omix.Mean)
}

func TestMergeModel_Gamma(t *testing.T) {
	tests := []struct {
		gamma    float64
		want     MergeStats
		wantMean []float64
	}{
		{1.0, MergeStats{Appended: 1, Kept: 1}, []float64{0, 2}},
		{0.0, MergeStats{Appended: 1, Changed: 1}, []float64{4, 6}},
		{0.25, MergeStats{Appended: 1, Interpolated: 1}, []float64{3, 5}},
	}
	for _, tt := range tests {
		m := modelOf(t, singleHMM("a", 0, 2, 0.6))
		other := modelOf(t, singleHMM("a", 4, 6, 0.8), singleHMM("b", 1, 1, 0.5))
		before := len(m.HMMs)

		stats, err := m.MergeModel(other, tt.gamma)
		require.NoError(t, err)
		assert.Equal(t, tt.want, stats, "gamma=%v", tt.gamma)
		assert.Len(t, m.HMMs, before+stats.Appended)
		assert.Equal(t, 1, stats.Interpolated+stats.Kept+stats.Changed)

		mix := m.GetHMM("a").Definition.States[0].State.Streams[0].Mixtures[0]
		assert.InDeltaSlice(t, tt.wantMean, mix.Mean, 1e-12, "gamma=%v", tt.gamma)
		require.NotNil(t, m.GetHMM("b"))
	}
}

func TestMergeModel_KeepIsIdentical(t *testing.T) {
	m := loadTestModel(t)
	require.NoError(t, m.FillHMMs())
	want := m.GetHMM("b").Clone()

	other := loadTestModel(t)
	other.GetHMM("b").Definition.States[0].State.Streams[0].Mixtures[0].Mean[0] = 9

	_, err := m.MergeModel(other, 1.0)
	require.NoError(t, err)
	assert.Equal(t, want, m.GetHMM("b"))
}

func TestMergeModel_ReplaceIsExact(t *testing.T) {
	m := loadTestModel(t)
	other := loadTestModel(t)
	other.GetHMM("b").Definition.States[0].State.Streams[0].Mixtures[0].Mean[0] = 9

	want := other.Clone()
	require.NoError(t, want.FillHMMs())

	_, err := m.MergeModel(other, 0.0)
	require.NoError(t, err)
	assert.Equal(t, want.GetHMM("a"), m.GetHMM("a"))
	assert.Equal(t, want.GetHMM("b"), m.GetHMM("b"))
	// other still references its macros
	assert.False(t, other.GetHMM("a").IsResolved())
}

func TestMergeModel_IncompatibleHMMIsKept(t *testing.T) {
	m := modelOf(t, singleHMM("a", 0, 2, 0.6))
	other := modelOf(t, NewProtoHMM("a", 2))

	stats, err := m.MergeModel(other, 0.5)
	require.NoError(t, err)
	assert.Equal(t, MergeStats{Kept: 1}, stats)
	assert.Equal(t, 3, m.GetHMM("a").Definition.NumStates)
}

func TestMergeModel_Errors(t *testing.T) {
	m := loadTestModel(t)
	for _, g := range []float64{-0.1, 1.5, math.NaN()} {
		_, err := m.MergeModel(loadTestModel(t), g)
		assert.True(t, errors.Is(err, ErrInvalidGamma), "gamma %v: %v", g, err)
	}

	_, err := m.MergeModel(nil, 0.5)
	assert.True(t, errors.Is(err, ErrIncompatibleModel))

	other := loadTestModel(t)
	other.Options().ParmKind = "PLP_E"
	_, err = m.MergeModel(other, 0.5)
	assert.True(t, errors.Is(err, ErrIncompatibleModel))

	other = loadTestModel(t)
	other.Options().ParmKind = "mfcc_d_0"
	_, err = m.MergeModel(other, 0.5)
	assert.NoError(t, err)
}

func TestMergeModel_TiedListAndRepl(t *testing.T) {
	m := modelOf(t, singleHMM("a", 0, 0, 0.5))
	m.TiedList.AddObserved("a")
	m.Repl.Add("a~", "A")

	other := modelOf(t, singleHMM("b", 0, 0, 0.5))
	other.TiedList.AddObserved("b")
	other.TiedList.AddTied("x-b+y", "b")
	other.Repl.Add("a~", "A")
	other.Repl.Add("9", "nine")

	_, err := m.MergeModel(other, 0.5)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, m.TiedList.Observed())
	assert.True(t, m.TiedList.IsTied("x-b+y"))
	assert.Equal(t, 2, m.Repl.Len())
	assert.True(t, m.Repl.IsKeyValue("9", "nine"))
}

func TestReplacePhones(t *testing.T) {
	m := loadTestModel(t)
	m.Repl.Add("a", "A")
	m.Repl.Add("b", "B")
	m.TiedList.AddObserved("a")
	m.TiedList.AddObserved("a-b+c")
	m.TiedList.AddTied("b-a+c", "a")

	assert.Empty(t, m.ReplacePhones(false))
	assert.Equal(t, []string{"A", "A-B+c"}, m.TiedList.Observed())
	o, ok := m.TiedList.Tied("B-A+c")
	assert.True(t, ok)
	assert.Equal(t, "A", o)
	assert.Equal(t, []string{"A", "B"}, m.Names())
	assert.Equal(t, "ST_A_2", m.GetHMM("A").Definition.States[0].Macro)
	assert.Equal(t, "T_A", m.GetHMM("A").Definition.Transition.Macro)
	assert.False(t, m.Repl.Reverse(), "direction must be restored")

	// placeholders still resolve
	require.NoError(t, m.FillHMMs())

	m.ReplacePhones(true)
	assert.Equal(t, []string{"a", "a-b+c"}, m.TiedList.Observed())
	assert.True(t, m.TiedList.IsTied("b-a+c"))
	assert.Equal(t, []string{"a", "b"}, m.Names())
}

func TestReplacePhones_Collision(t *testing.T) {
	m := NewAcModel()
	require.NoError(t, m.Repl.Add("a", "A"))
	m.TiedList.AddObserved("A")
	m.TiedList.AddObserved("a")
	m.TiedList.AddTied("x-A+y", "A")
	m.TiedList.AddTied("x-a+y", "a")

	dropped := m.ReplacePhones(false)
	assert.Equal(t, []string{"a", "x-a+y"}, dropped)
	assert.Equal(t, []string{"A"}, m.TiedList.Observed())
	assert.Equal(t, []string{"x-A+y"}, m.TiedList.TiedNames())
	assert.False(t, m.Repl.Reverse())
}

func TestReplacePhones_EmptyTable(t *testing.T) {
	m := loadTestModel(t)
	m.TiedList.AddObserved("a")
	tl := m.TiedList
	m.ReplacePhones(false)
	assert.Same(t, tl, m.TiedList)
}

func TestLoadSaveDir(t *testing.T) {
	dir := writeModelDir(t, map[string]string{
		HmmDefsFile:  testHmmdefs,
		TiedListFile: "a\nb\nx-a+y a\n",
		ReplFile:     "a~ a\n",
	})

	m := NewAcModel()
	res, err := m.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, AuxMissing, res.Macros.Status)
	assert.Equal(t, AuxLoaded, res.TiedList.Status)
	assert.Equal(t, AuxLoaded, res.Repl.Status)
	assert.Equal(t, []string{"a", "b"}, m.Names())
	assert.Equal(t, 3, m.TiedList.Len())

	out := filepath.Join(t.TempDir(), "out")
	require.NoError(t, m.Save(out))

	m2 := NewAcModel()
	res, err = m2.Load(out)
	require.NoError(t, err)
	assert.Equal(t, AuxLoaded, res.TiedList.Status)
	assert.Equal(t, m.Names(), m2.Names())
	assert.Equal(t, m.TiedList.Observed(), m2.TiedList.Observed())
	assert.True(t, m2.Repl.IsKeyValue("a~", "a"))
}

func TestLoadDir_OptionalFiles(t *testing.T) {
	dir := writeModelDir(t, map[string]string{HmmDefsFile: testHmmdefs})
	m := NewAcModel()
	res, err := m.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, AuxMissing, res.TiedList.Status)
	assert.Equal(t, AuxMissing, res.Repl.Status)
	assert.True(t, m.TiedList.IsEmpty())
	assert.True(t, m.Repl.IsEmpty())

	dir = writeModelDir(t, map[string]string{
		HmmDefsFile:  testHmmdefs,
		TiedListFile: "a b c d\n",
	})
	m = NewAcModel()
	res, err = m.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, AuxCorrupt, res.TiedList.Status)
	assert.Error(t, res.TiedList.Err)
	assert.True(t, m.TiedList.IsEmpty())
}

func TestLoadDir_MissingHmmdefs(t *testing.T) {
	dir := writeModelDir(t, map[string]string{TiedListFile: "a\n"})
	_, err := NewAcModel().Load(dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestLoadDir_MacrosFile(t *testing.T) {
	i := strings.Index(testHmmdefs, `~h "a"`)
	dir := writeModelDir(t, map[string]string{
		MacrosFile:  testHmmdefs[:i],
		HmmDefsFile: testHmmdefs[i:],
	})
	m := NewAcModel()
	res, err := m.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, AuxLoaded, res.Macros.Status)
	assert.Len(t, m.Macros, 3)
	require.NoError(t, m.FillHMMs())
}

func TestSaveInPlace(t *testing.T) {
	i := strings.Index(testHmmdefs, `~h "a"`)
	dir := writeModelDir(t, map[string]string{
		MacrosFile:   testHmmdefs[:i],
		HmmDefsFile:  testHmmdefs[i:],
		TiedListFile: "a\nb\n",
		ReplFile:     "a~ a\n",
	})
	m := NewAcModel()
	_, err := m.Load(dir)
	require.NoError(t, err)
	require.Len(t, m.Macros, 3)

	require.NoError(t, m.Save(dir))
	again := NewAcModel()
	res, err := again.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, AuxLoaded, res.Macros.Status)
	assert.Len(t, again.Macros, 3)
	assert.Equal(t, m.Names(), again.Names())
	hmmdefs, err := os.ReadFile(filepath.Join(dir, HmmDefsFile))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(hmmdefs), `~h "a"`))
	assert.NotContains(t, string(hmmdefs), "~o")

	// After a fill only ~o is left; emptied structures drop their files.
	require.NoError(t, again.FillHMMs())
	again.TiedList = NewTiedList()
	again.Repl = lexicon.NewMapping()
	require.NoError(t, again.Save(dir))

	filled := NewAcModel()
	res, err = filled.Load(dir)
	require.NoError(t, err)
	require.Len(t, filled.Macros, 1)
	assert.Equal(t, MacroOptions, filled.Macros[0].Kind)
	assert.Equal(t, AuxMissing, res.TiedList.Status)
	assert.Equal(t, AuxMissing, res.Repl.Status)
	for _, h := range filled.HMMs {
		assert.True(t, h.IsResolved(), h.Name)
	}

	// No macros at all: the macros file goes too.
	filled.Macros = nil
	require.NoError(t, filled.Save(dir))
	_, err = os.Stat(filepath.Join(dir, MacrosFile))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestSaveSkipsEmptyAuxFiles(t *testing.T) {
	m := loadTestModel(t)
	dir := t.TempDir()
	require.NoError(t, m.Save(dir))
	_, err := os.Stat(filepath.Join(dir, TiedListFile))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	_, err = os.Stat(filepath.Join(dir, ReplFile))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestEncodeDecode(t *testing.T) {
	m := loadTestModel(t)
	m.TiedList.AddObserved("a")
	m.TiedList.AddTied("x-a+y", "a")
	m.Repl = lexicon.NewMapping()
	m.Repl.Add("a~", "a")

	var buf bytes.Buffer
	require.NoError(t, m.Encode(&buf))
	got, err := Decode(&buf)
	require.NoError(t, err)

	assert.Equal(t, m.Names(), got.Names())
	assert.Equal(t, "ST_a_2", got.GetHMM("a").Definition.States[0].Macro)
	assert.Equal(t, m.Options(), got.Options())
	assert.True(t, got.TiedList.IsTied("x-a+y"))
	assert.True(t, got.Repl.IsKeyValue("a~", "a"))
	require.NoError(t, got.FillHMMs())
}
