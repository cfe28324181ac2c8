package preset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtding233/potential-simulator/internal/catalog"
	"github.com/xtding233/potential-simulator/internal/kv"
	"github.com/xtding233/potential-simulator/internal/potential"
)

func testCatalog() *catalog.Catalog {
	set := &catalog.PotentialSet{
		Core: []catalog.Potential{{ID: "c1"}, {ID: "c2"}, {ID: "c3"}},
		Sub:  []catalog.Potential{{ID: "s1"}, {ID: "s2"}},
	}
	return &catalog.Catalog{Characters: []catalog.Character{
		{ID: "a", Icon: "img/a.png", Potentials: catalog.Potentials{Common: set}},
		{ID: "b", Icon: "img/b.png", Potentials: catalog.Potentials{Common: set}},
	}}
}

type fixture struct {
	mem     *kv.Memory
	live    *potential.Store
	presets *Store
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	mem := kv.NewMemory()
	cat := testCatalog()
	live := potential.NewStore(cat, mem)
	return fixture{mem: mem, live: live, presets: NewStore(live, mem, cat, nil)}
}

// progress selects a in main with c1 acquired and s1 at count 3.
func (f fixture) progress(t *testing.T, id string) {
	t.Helper()
	require.NoError(t, f.live.SelectCharacter(potential.SlotMain, id))
	out, err := f.live.ToggleCorePotential(potential.SlotMain, "c1")
	require.NoError(t, err)
	require.True(t, out.Accepted)
	require.NoError(t, f.live.ClickPotentialImage(potential.SlotMain, "c1", potential.KindCore))
	require.NoError(t, f.live.SetSubPotentialLevel(potential.SlotMain, "s1", potential.Level2To5))
	for i := 0; i < 3; i++ {
		require.NoError(t, f.live.ClickPotentialImage(potential.SlotMain, "s1", potential.KindSub))
	}
}

// recorder is a Confirm that records prompts and answers with a fixed value.
type recorder struct {
	answer  bool
	prompts []string
}

func (r *recorder) confirm(p string) bool {
	r.prompts = append(r.prompts, p)
	return r.answer
}

func TestSaveSanitizes(t *testing.T) {
	f := newFixture(t)
	f.progress(t, "a")

	res, err := f.presets.Save(1, nil)
	require.NoError(t, err)
	assert.Equal(t, Applied, res)

	// check the stored payload itself; reads sanitize again on the way out
	raw, ok, err := f.mem.Get(Key(1))
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotContains(t, raw, `"acquired":true`)
	assert.NotRegexp(t, `"count":[1-9]`, raw)

	st, err := potential.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, potential.CoreState{Obtained: true}, st.Main.CorePotentials["c1"])
	assert.Equal(t, potential.SubState{Status: potential.Level2To5}, st.Main.SubPotentials["s1"])

	// live progress is untouched by the save
	main, _ := f.live.Slot(potential.SlotMain)
	assert.True(t, main.CorePotentials["c1"].Acquired)
	assert.Equal(t, 3, main.SubPotentials["s1"].Count)
}

func TestLoadReproducesSanitizedValues(t *testing.T) {
	f := newFixture(t)
	f.progress(t, "a")
	_, err := f.presets.Save(2, nil)
	require.NoError(t, err)

	rec := &recorder{answer: true}
	res, st, err := f.presets.Load(2, rec.confirm)
	require.NoError(t, err)
	assert.Equal(t, Applied, res)
	assert.Equal(t, []string{PromptLoad}, rec.prompts, "live state differs from preset")

	main, _ := f.live.Slot(potential.SlotMain)
	assert.Equal(t, potential.CoreState{Obtained: true}, main.CorePotentials["c1"])
	assert.Equal(t, potential.SubState{Status: potential.Level2To5}, main.SubPotentials["s1"])
	assert.True(t, st.Equal(f.live.Snapshot()))
}

func TestSaveLoadIdempotentOnSanitizedInput(t *testing.T) {
	f := newFixture(t)
	f.progress(t, "a")
	require.NoError(t, f.live.SelectCharacter(potential.SlotSupport2, "b"))
	f.live.ResetCounts()
	want := f.live.Snapshot()

	_, err := f.presets.Save(3, nil)
	require.NoError(t, err)
	f.live.ResetAll()

	res, _, err := f.presets.Load(3, nil)
	require.NoError(t, err)
	require.Equal(t, Applied, res, "empty live state needs no confirmation")
	assert.True(t, f.live.Snapshot().Equal(want))
}

func TestSaveOverwriteConfirmation(t *testing.T) {
	f := newFixture(t)
	f.progress(t, "a")
	_, err := f.presets.Save(4, nil)
	require.NoError(t, err)

	// identical sanitized content: no prompt even though progress changed
	require.NoError(t, f.live.ClickPotentialImage(potential.SlotMain, "s1", potential.KindSub))
	rec := &recorder{}
	res, err := f.presets.Save(4, rec.confirm)
	require.NoError(t, err)
	assert.Equal(t, Applied, res)
	assert.Empty(t, rec.prompts)

	// different content: declined keeps the old preset
	require.NoError(t, f.live.SelectCharacter(potential.SlotMain, "b"))
	res, err = f.presets.Save(4, rec.confirm)
	require.NoError(t, err)
	assert.Equal(t, Declined, res)
	assert.Equal(t, []string{PromptOverwrite(4)}, rec.prompts)
	st, _, _ := f.presets.Get(4)
	assert.Equal(t, "a", st.Main.CharacterID)

	res, err = f.presets.Save(4, Approve)
	require.NoError(t, err)
	assert.Equal(t, Applied, res)
	st, _, _ = f.presets.Get(4)
	assert.Equal(t, "b", st.Main.CharacterID)
}

func TestLoadDeclinedLeavesLiveState(t *testing.T) {
	f := newFixture(t)
	f.progress(t, "a")
	_, err := f.presets.Save(5, nil)
	require.NoError(t, err)

	require.NoError(t, f.live.SelectCharacter(potential.SlotMain, "b"))
	before := f.live.Snapshot()

	res, _, err := f.presets.Load(5, Decline)
	require.NoError(t, err)
	assert.Equal(t, Declined, res)
	assert.True(t, f.live.Snapshot().Equal(before))

	res, _, err = f.presets.Load(5, nil)
	require.NoError(t, err)
	assert.Equal(t, Declined, res, "nil confirm declines")
}

func TestLoadIdenticalNeedsNoConfirmation(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.live.SelectCharacter(potential.SlotMain, "a"))
	_, err := f.presets.Save(6, nil)
	require.NoError(t, err)

	res, _, err := f.presets.Load(6, Decline)
	require.NoError(t, err)
	assert.Equal(t, Applied, res)
}

func TestLoadMissingAndCorrupt(t *testing.T) {
	f := newFixture(t)

	res, _, err := f.presets.Load(7, Approve)
	require.NoError(t, err)
	assert.Equal(t, Missing, res)

	require.NoError(t, f.mem.Set(Key(8), "{garbage"))
	res, _, err = f.presets.Load(8, Approve)
	require.NoError(t, err)
	assert.Equal(t, Missing, res)

	require.NoError(t, f.mem.Set(Key(9), `{"main":{"characterId":"a","subPotentials":{"s1":{"status":"level0"}}}}`))
	_, ok, err := f.presets.Get(9)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadRealignsForeignPotentials(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.mem.Set(Key(1), `{"main":{"characterId":"a","corePotentials":{"bogus":{"obtained":true},"c2":{"obtained":true}},"subPotentials":{"s9":{"status":"level6"}}}}`))

	res, st, err := f.presets.Load(1, Approve)
	require.NoError(t, err)
	assert.Equal(t, Applied, res)
	assert.ElementsMatch(t, []string{"c1", "c2", "c3"}, keys(st.Main.CorePotentials))
	assert.ElementsMatch(t, []string{"s1", "s2"}, keys(st.Main.SubPotentials))
	assert.Equal(t, potential.CoreState{Obtained: true}, st.Main.CorePotentials["c2"])

	_, err = f.live.ToggleCorePotential(potential.SlotMain, "bogus")
	assert.ErrorIs(t, err, potential.ErrUnknownPotential)
	out, err := f.live.ToggleCorePotential(potential.SlotMain, "c1")
	require.NoError(t, err)
	assert.True(t, out.Accepted)
	require.NoError(t, f.live.SetSubPotentialLevel(potential.SlotMain, "s1", potential.Level1))
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestLoadedStateIsDetached(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.live.SelectCharacter(potential.SlotMain, "a"))
	_, err := f.presets.Save(1, nil)
	require.NoError(t, err)
	f.live.ResetAll()

	_, st, err := f.presets.Load(1, nil)
	require.NoError(t, err)
	st.Main.CorePotentials["c1"] = potential.CoreState{Obtained: true}

	main, _ := f.live.Slot(potential.SlotMain)
	assert.False(t, main.CorePotentials["c1"].Obtained)

	_, err = f.live.ToggleCorePotential(potential.SlotMain, "c2")
	require.NoError(t, err)
	stored, _, _ := f.presets.Get(1)
	assert.False(t, stored.Main.CorePotentials["c2"].Obtained, "live mutation leaked into preset")
}

func TestLoadPersistsLiveState(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.live.SelectCharacter(potential.SlotSupport1, "b"))
	_, err := f.presets.Save(10, nil)
	require.NoError(t, err)
	f.live.ResetAll()

	_, _, err = f.presets.Load(10, nil)
	require.NoError(t, err)

	restored := potential.NewStore(testCatalog(), f.mem)
	require.NoError(t, restored.Hydrate())
	ss, _ := restored.Slot(potential.SlotSupport1)
	assert.Equal(t, "b", ss.CharacterID)
}

func TestInvalidIndex(t *testing.T) {
	f := newFixture(t)
	for _, idx := range []int{0, -1, 11} {
		_, err := f.presets.Save(idx, Approve)
		assert.ErrorIs(t, err, ErrInvalidIndex)
		_, _, err = f.presets.Load(idx, Approve)
		assert.ErrorIs(t, err, ErrInvalidIndex)
		_, _, err = f.presets.Get(idx)
		assert.ErrorIs(t, err, ErrInvalidIndex)
	}
}

func TestList(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.live.SelectCharacter(potential.SlotMain, "b"))
	_, err := f.presets.Save(2, nil)
	require.NoError(t, err)
	require.NoError(t, f.live.SelectCharacter(potential.SlotMain, ""))
	require.NoError(t, f.live.SelectCharacter(potential.SlotSupport1, "a"))
	_, err = f.presets.Save(5, nil)
	require.NoError(t, err)

	entries := f.presets.List()
	require.Len(t, entries, MaxPresets)
	for i, e := range entries {
		assert.Equal(t, i+1, e.Index)
	}
	assert.Equal(t, Entry{Index: 2, Available: true, MainCharacterID: "b", Thumbnail: "img/b.png"}, entries[1])
	assert.Equal(t, Entry{Index: 5, Available: true}, entries[4])
	assert.False(t, entries[0].Available)
}
