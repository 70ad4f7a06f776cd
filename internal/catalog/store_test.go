package catalog

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"gamepin/internal/consensus"
	"gamepin/internal/identity"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAddAndGetRow(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	row, err := store.AddRow(ctx, "Mafia", 2002, "PC")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(row.RowID, "rid:") {
		t.Errorf("row id = %q, want rid: prefix", row.RowID)
	}

	got, err := store.GetRow(ctx, row.RowID)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Title != "Mafia" || got.YearHint != 2002 || got.PlatformHint != "PC" {
		t.Fatalf("got %+v", got)
	}
}

func TestGetMissingRowReturnsNil(t *testing.T) {
	store := openTestStore(t)
	got, err := store.GetRow(context.Background(), "rid:nope")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("got %+v, want nil", got)
	}
}

func TestUpdateRowKeepsRowID(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	row, err := store.AddRow(ctx, "Asasins Creed", 0, "")
	if err != nil {
		t.Fatal(err)
	}
	row.Title = "Assassin's Creed"
	row.YearHint = 2007
	if err := store.UpdateRow(ctx, row); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetRow(ctx, row.RowID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Assassin's Creed" || got.YearHint != 2007 {
		t.Fatalf("got %+v", got)
	}
}

func TestSetAndClearPin(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	row, err := store.AddRow(ctx, "Doom", 2016, "")
	if err != nil {
		t.Fatal(err)
	}
	if err := store.SetPin(ctx, row.RowID, "steam", "379720"); err != nil {
		t.Fatal(err)
	}
	if err := store.SetPin(ctx, row.RowID, "hltb", identity.NotFound); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetRow(ctx, row.RowID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Pin("steam") != "379720" {
		t.Errorf("steam pin = %q", got.Pin("steam"))
	}
	if got.Pinned("hltb") {
		t.Error("explicit not-found must not count as pinned")
	}

	if err := store.SetPin(ctx, row.RowID, "steam", ""); err != nil {
		t.Fatal(err)
	}
	got, err = store.GetRow(ctx, row.RowID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Pin("steam") != "" {
		t.Errorf("cleared pin = %q", got.Pin("steam"))
	}
}

func TestDeleteRowCascades(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	row, err := store.AddRow(ctx, "Doom", 0, "")
	if err != nil {
		t.Fatal(err)
	}
	if err := store.SetPin(ctx, row.RowID, "steam", "379720"); err != nil {
		t.Fatal(err)
	}
	runID, err := store.StartRun(ctx)
	if err != nil {
		t.Fatal(err)
	}
	err = store.SaveIdentities(ctx, row.RowID, runID, map[string]identity.ResolvedIdentity{
		"steam": {Provider: "steam", Resolved: true, Title: "Doom", Year: 2016},
	})
	if err != nil {
		t.Fatal(err)
	}

	removed, err := store.DeleteRow(ctx, row.RowID)
	if err != nil {
		t.Fatal(err)
	}
	if !removed {
		t.Fatal("expected a deletion")
	}
	identities, err := store.Identities(ctx, row.RowID)
	if err != nil {
		t.Fatal(err)
	}
	if len(identities) != 0 {
		t.Errorf("identities survived the cascade: %v", identities)
	}
}

func TestSaveIdentitiesSupersedesPreviousRun(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	row, err := store.AddRow(ctx, "Doom", 0, "")
	if err != nil {
		t.Fatal(err)
	}
	first, err := store.StartRun(ctx)
	if err != nil {
		t.Fatal(err)
	}
	err = store.SaveIdentities(ctx, row.RowID, first, map[string]identity.ResolvedIdentity{
		"steam": {Provider: "steam", Resolved: true, Title: "Doom", Year: 1993},
	})
	if err != nil {
		t.Fatal(err)
	}

	second, err := store.StartRun(ctx)
	if err != nil {
		t.Fatal(err)
	}
	err = store.SaveIdentities(ctx, row.RowID, second, map[string]identity.ResolvedIdentity{
		"steam": {Provider: "steam", Resolved: true, Title: "Doom", Year: 2016},
	})
	if err != nil {
		t.Fatal(err)
	}

	identities, err := store.Identities(ctx, row.RowID)
	if err != nil {
		t.Fatal(err)
	}
	if len(identities) != 1 || identities["steam"].Year != 2016 {
		t.Fatalf("identities = %+v, want the second run's snapshot", identities)
	}
}

func TestReportRoundTripKeepsStructure(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	row, err := store.AddRow(ctx, "Prey", 2017, "")
	if err != nil {
		t.Fatal(err)
	}
	report := consensus.Diagnose(row.RowID, map[string]identity.ResolvedIdentity{
		"steam": {Resolved: true, Title: "Prey", Year: 2017, Platforms: []string{"PC"}},
		"rawg":  {Resolved: true, Title: "Prey", Year: 2017, Platforms: []string{"PC"}},
		"igdb":  {Resolved: true, Title: "Prey", Year: 2017, Platforms: []string{"PC"}},
		"hltb":  {Resolved: true, Title: "Praey for the Gods", Year: 2021, Platforms: []string{"Switch"}},
	})
	runID, err := store.StartRun(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.SaveReport(ctx, runID, report); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.Report(ctx, row.RowID)
	if err != nil {
		t.Fatal(err)
	}
	if loaded == nil || loaded.Confidence != report.Confidence {
		t.Fatalf("loaded = %+v", loaded)
	}
	if got := loaded.LikelyWrong(); len(got) != 1 || got[0] != "hltb" {
		t.Errorf("likely_wrong lost in round trip: %v", got)
	}
	if !loaded.IsOutlier(consensus.FieldYear, "hltb") {
		t.Error("outlier structure lost in round trip")
	}
}

func TestReviewRowIDsExcludeHighConfidence(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	good, err := store.AddRow(ctx, "Doom", 2016, "")
	if err != nil {
		t.Fatal(err)
	}
	bad, err := store.AddRow(ctx, "Mafia", 0, "")
	if err != nil {
		t.Fatal(err)
	}
	runID, err := store.StartRun(ctx)
	if err != nil {
		t.Fatal(err)
	}
	agree := map[string]identity.ResolvedIdentity{
		"steam": {Resolved: true, Title: "Doom", Year: 2016},
		"rawg":  {Resolved: true, Title: "Doom", Year: 2016},
	}
	split := map[string]identity.ResolvedIdentity{
		"steam": {Resolved: true, Title: "Mafia", Year: 2002},
		"rawg":  {Resolved: true, Title: "Mafia: Definitive Edition", Year: 2020},
	}
	if err := store.SaveReport(ctx, runID, consensus.Diagnose(good.RowID, agree)); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveReport(ctx, runID, consensus.Diagnose(bad.RowID, split)); err != nil {
		t.Fatal(err)
	}

	review, err := store.ReviewRowIDs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(review) != 1 || review[0] != bad.RowID {
		t.Errorf("review rows = %v, want only %s", review, bad.RowID)
	}
}

func TestRunLifecycle(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	runID, err := store.StartRun(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.FinishRun(ctx, runID, 10, 2, 1); err != nil {
		t.Fatal(err)
	}

	run, err := store.LastRun(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if run == nil || run.RunID != runID {
		t.Fatalf("last run = %+v", run)
	}
	if run.Resolved != 10 || run.Review != 2 || run.Failed != 1 {
		t.Errorf("counts = %d/%d/%d", run.Resolved, run.Review, run.Failed)
	}
	if run.FinishedAt == nil {
		t.Error("finished_at not recorded")
	}
}

func TestCSVRoundTripPreservesPins(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	row, err := store.AddRow(ctx, "Mafia", 2002, "PC")
	if err != nil {
		t.Fatal(err)
	}
	if err := store.SetPin(ctx, row.RowID, "steam", "40990"); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := store.ExportCSV(ctx, &buf); err != nil {
		t.Fatal(err)
	}
	exported := buf.String()
	if !strings.Contains(exported, "pin:steam") || !strings.Contains(exported, "40990") {
		t.Fatalf("export missing pin column:\n%s", exported)
	}

	// Edit the title in the exported file, clearing no pin cells, and
	// re-import: the title updates and the pin survives.
	edited := strings.Replace(exported, "Mafia", "Mafia: The City of Lost Heaven", 1)
	summary, err := store.ImportCSV(ctx, strings.NewReader(edited))
	if err != nil {
		t.Fatal(err)
	}
	if summary.Updated != 1 || summary.Created != 0 {
		t.Errorf("summary = %+v", summary)
	}

	got, err := store.GetRow(ctx, row.RowID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Mafia: The City of Lost Heaven" {
		t.Errorf("title = %q", got.Title)
	}
	if got.Pin("steam") != "40990" {
		t.Errorf("pin lost on re-import: %q", got.Pin("steam"))
	}
}

func TestImportCreatesRowsWithoutIDs(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	csvData := "title,year_hint,pin:steam\nDoom,2016,379720\nPostal 4,,\n"
	summary, err := store.ImportCSV(ctx, strings.NewReader(csvData))
	if err != nil {
		t.Fatal(err)
	}
	if summary.Created != 2 || summary.Pinned != 1 {
		t.Fatalf("summary = %+v", summary)
	}

	rows, err := store.ListRows(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d", len(rows))
	}
}

func TestStatsGroupsByConfidence(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.AddRow(ctx, "Undiagnosed", 0, ""); err != nil {
		t.Fatal(err)
	}
	row, err := store.AddRow(ctx, "Doom", 2016, "")
	if err != nil {
		t.Fatal(err)
	}
	runID, err := store.StartRun(ctx)
	if err != nil {
		t.Fatal(err)
	}
	report := consensus.Diagnose(row.RowID, map[string]identity.ResolvedIdentity{
		"steam": {Resolved: true, Title: "Doom", Year: 2016},
		"rawg":  {Resolved: true, Title: "Doom", Year: 2016},
	})
	if err := store.SaveReport(ctx, runID, report); err != nil {
		t.Fatal(err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats[string(consensus.ConfidenceHigh)] != 1 || stats[""] != 1 {
		t.Errorf("stats = %v", stats)
	}
}
