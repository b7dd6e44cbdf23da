package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	perr "callerid/internal/platform/errors"
	phttp "callerid/internal/platform/net/http"
	bdom "callerid/internal/services/api/blocks/domain"
	rdom "callerid/internal/services/api/reputation/domain"
)

type fakeAPI struct {
	identifies atomic.Int32
	blocks     atomic.Int32
	synced     atomic.Int32
	failBlocks atomic.Bool
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/v1/reputation/identify":
		f.identifies.Add(1)
		var in rdom.IdentifyInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		phttp.RespondOK(w, r, rdom.Identification{Found: true, Type: rdom.TypeSpam, Number: in.Number, Name: "Spam Likely", IsSpam: true, SpamScore: 90})
	case r.URL.Path == "/api/v1/reputation/contacts/sync":
		var in rdom.SyncInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		f.synced.Add(int32(len(in.Entries)))
		phttp.RespondOK(w, r, rdom.SyncOutput{Count: len(in.Entries)})
	case r.URL.Path == "/api/v1/blocks" && r.Method == http.MethodPost:
		f.blocks.Add(1)
		if f.failBlocks.Load() {
			phttp.RespondError(w, r, perr.Unavailablef("blocks store offline"))
			return
		}
		phttp.RespondOK(w, r, bdom.BlockOutput{Success: true, Nudged: true})
	case r.URL.Path == "/api/v1/blocks" && r.Method == http.MethodGet:
		phttp.RespondOK(w, r, bdom.ListOutput{Items: []bdom.Block{
			{Number: "5550001111", Reason: "robocall", CreatedAt: time.Unix(100, 0).UTC()},
			{Number: "5550002222", CreatedAt: time.Unix(200, 0).UTC()},
		}})
	case strings.HasPrefix(r.URL.Path, "/api/v1/blocks/"):
		phttp.RespondError(w, r, bdom.ErrNotBlocked)
	default:
		http.NotFound(w, r)
	}
}

// setup points the CLI at a fake API with a two-entry address book
func setup(t *testing.T) (*fakeAPI, string) {
	t.Helper()
	api := &fakeAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	book := filepath.Join(dir, "contacts.json")
	if err := os.WriteFile(book, []byte(`[{"number":"+1 (987) 654-3210","name":"Mom"},{"number":"12","name":"short"}]`), 0o600); err != nil {
		t.Fatal(err)
	}
	blocks := filepath.Join(dir, "blocks.json")

	t.Setenv("CALLERID_API_URL", srv.URL)
	t.Setenv("CALLERID_CONTACTS_FILE", book)
	t.Setenv("CALLERID_BLOCKS_FILE", blocks)
	t.Setenv("CALLERID_REDIS_URL", "")
	return api, blocks
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestLookup_ContactSkipsServer(t *testing.T) {
	api, _ := setup(t)

	out, err := run(t, "lookup", "19876543210")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !strings.Contains(out, `"name": "Mom"`) || !strings.Contains(out, `"source": "device"`) {
		t.Fatalf("output = %s", out)
	}
	if n := api.identifies.Load(); n != 0 {
		t.Fatalf("identify calls = %d, want 0", n)
	}
}

func TestLookup_UnknownGoesRemote(t *testing.T) {
	api, _ := setup(t)

	out, err := run(t, "lookup", "5551234567")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !strings.Contains(out, `"is_spam": true`) || !strings.Contains(out, `"source": "remote"`) {
		t.Fatalf("output = %s", out)
	}
	if n := api.identifies.Load(); n != 1 {
		t.Fatalf("identify calls = %d, want 1", n)
	}
}

func TestLookup_RequiresAPIURL(t *testing.T) {
	setup(t)
	t.Setenv("CALLERID_API_URL", "")
	if _, err := run(t, "lookup", "5551234567"); err == nil {
		t.Fatal("expected error without an API url")
	}
}

func TestBlock_ThenLookupShowsBlocked(t *testing.T) {
	api, snapshot := setup(t)

	out, err := run(t, "block", "555-123-4567", "--also-report")
	if err != nil {
		t.Fatalf("block: %v", err)
	}
	if !strings.Contains(out, `"synced": true`) || !strings.Contains(out, `"nudged": true`) {
		t.Fatalf("output = %s", out)
	}
	if api.blocks.Load() != 1 {
		t.Fatalf("server block calls = %d", api.blocks.Load())
	}
	if _, err := os.Stat(snapshot); err != nil {
		t.Fatalf("snapshot not written: %v", err)
	}

	out, err = run(t, "lookup", "5551234567")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !strings.Contains(out, `"blocked": true`) {
		t.Fatalf("output = %s", out)
	}
}

func TestBlock_ServerFailureExitsNonZero(t *testing.T) {
	api, _ := setup(t)
	api.failBlocks.Store(true)

	out, err := run(t, "block", "555-123-4567")
	if err == nil {
		t.Fatalf("block succeeded with the server down: %s", out)
	}
	if !strings.Contains(out, `"synced": false`) {
		t.Fatalf("output = %s", out)
	}

	out, err = run(t, "lookup", "5551234567")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !strings.Contains(out, `"blocked": true`) {
		t.Fatalf("device block lost: %s", out)
	}
}

func TestUnblock_ServerErrorSurfaces(t *testing.T) {
	setup(t)
	if _, err := run(t, "unblock", "5551234567"); err == nil {
		t.Fatal("expected not-blocked error from the server")
	}
}

func TestSyncBlocks_ReplacesLocalList(t *testing.T) {
	setup(t)

	out, err := run(t, "sync-blocks")
	if err != nil {
		t.Fatalf("sync-blocks: %v", err)
	}
	if !strings.Contains(out, `"blocks": 2`) {
		t.Fatalf("output = %s", out)
	}
	out, err = run(t, "lookup", "5550001111")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !strings.Contains(out, `"blocked": true`) {
		t.Fatalf("output = %s", out)
	}
}

func TestSyncContacts_SkipsInvalidNumbers(t *testing.T) {
	api, _ := setup(t)

	if _, err := run(t, "sync-contacts"); err != nil {
		t.Fatalf("sync-contacts: %v", err)
	}
	if n := api.synced.Load(); n != 1 {
		t.Fatalf("uploaded %d entries, want 1", n)
	}
}
