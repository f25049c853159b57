package chipstore

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"wifidm/pkg/types"
)

func sampleInfos() []types.StaticChipInfo {
	return []types.StaticChipInfo{
		{
			ChipID:           7,
			ChipCapabilities: 0x3ff,
			AvailableModes: []types.ChipMode{
				{
					ID: 0,
					AvailableCombinations: []types.ConcurrencyCombination{
						{Limits: []types.ConcurrencyLimit{
							{MaxIfaces: 1, Types: []types.IfaceType{types.IfaceSta}},
							{MaxIfaces: 1, Types: []types.IfaceType{types.IfaceAp, types.IfaceApBridged}},
						}},
					},
				},
			},
		},
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chips.json")
	st, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	want := sampleInfos()
	if err := st.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := st.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestFileStore_LoadMissingFileReturnsNil(t *testing.T) {
	st, err := NewFileStore(filepath.Join(t.TempDir(), "nope", "chips.json"))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	got, err := st.Load()
	if err != nil {
		t.Fatalf("Load on missing file: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil snapshot, got %+v", got)
	}
}

func TestFileStore_SaveCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "chips.json")
	st, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := st.Save(sampleInfos()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("snapshot file missing: %v", err)
	}
}

func TestFileStore_SaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	st, err := NewFileStore(filepath.Join(dir, "chips.json"))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := st.Save(sampleInfos()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "chips.json" {
		t.Fatalf("unexpected directory contents: %v", entries)
	}
}

func TestFileStore_LoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chips.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	st, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if _, err := st.Load(); err == nil {
		t.Fatalf("expected decode error for corrupt file")
	}
}

func TestMemStore_CopiesOnLoadAndSave(t *testing.T) {
	st := NewMemStore()
	in := sampleInfos()
	if err := st.Save(in); err != nil {
		t.Fatalf("Save: %v", err)
	}
	in[0].ChipID = 99
	got, err := st.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got[0].ChipID != 7 {
		t.Fatalf("store aliased caller slice: %+v", got[0])
	}
	if st.Saves() != 1 {
		t.Fatalf("Saves() = %d, want 1", st.Saves())
	}
}
