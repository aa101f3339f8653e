package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/haydent/matchday/internal/config"
	"github.com/haydent/matchday/internal/github"
)

const (
	// SnapshotPath is the fixed logical path of the JSON snapshot in the
	// backing repo.
	SnapshotPath = "data/league.json"
	assetsDir    = "assets"
)

// ErrNotConnected is returned when an operation requiring a remote store is
// called without a usable config. No status events are emitted in that case.
var ErrNotConnected = errors.New("sync: not connected")

// Committer is the slice of the GitHub client the coordinator needs.
// Implemented by *github.Client; inject a fake in tests.
type Committer interface {
	CommitFile(ctx context.Context, cfg config.Config, path string, content []byte, message string) error
	ReadFile(ctx context.Context, cfg config.Config, path string) ([]byte, bool, error)
	RepoStatus(ctx context.Context, cfg config.Config) (int, error)
	RawURL(cfg config.Config, path string) string
}

// Result is the terminal outcome of a diagnostic operation.
type Result struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Coordinator orchestrates snapshot commits, asset uploads and remote
// bootstrap against the backing repo. Each call owns its own short-lived
// read/write pair; separate calls are not mutually excluded, so two racing
// writers resolve at the store's optimistic-concurrency check.
type Coordinator struct {
	cfg      *config.Manager
	client   Committer
	reporter Reporter
	now      func() time.Time
}

func NewCoordinator(cfg *config.Manager, client Committer, reporter Reporter) *Coordinator {
	if reporter == nil {
		reporter = NopReporter{}
	}
	return &Coordinator{cfg: cfg, client: client, reporter: reporter, now: time.Now}
}

// SyncData serializes state plus a lastUpdated stamp and commits it to the
// snapshot path. Not connected is a silent no-op apart from the returned
// error; otherwise the reporter sees begin and success/failure. Commits are
// never retried; a conflict surfaces as a failed sync.
func (c *Coordinator) SyncData(ctx context.Context, state json.RawMessage) error {
	cfg, ok := c.connected()
	if !ok {
		return ErrNotConnected
	}
	c.reporter.SyncStarted("Syncing to GitHub…")
	payload, err := stampSnapshot(state, c.now())
	if err != nil {
		c.reporter.SyncFinished(OutcomeError, "Sync failed: invalid league data")
		return err
	}
	message := fmt.Sprintf("Update league data (%s)", c.now().Format("2006-01-02 15:04"))
	if err := c.client.CommitFile(ctx, cfg, SnapshotPath, payload, message); err != nil {
		c.reporter.SyncFinished(OutcomeError, commitFailureMessage(err))
		return err
	}
	c.reporter.SyncFinished(OutcomeOK, "Synced to GitHub")
	return nil
}

// UploadAsset commits data under the assets directory and returns the
// public raw URL it will be served from. The payload is written as-is.
func (c *Coordinator) UploadAsset(ctx context.Context, data []byte, filename string) (string, error) {
	cfg, ok := c.connected()
	if !ok {
		return "", ErrNotConnected
	}
	name := path.Base(filename)
	if name == "." || name == "/" || name == "" {
		return "", fmt.Errorf("sync: invalid asset filename %q", filename)
	}
	c.reporter.SyncStarted(fmt.Sprintf("Uploading %s…", name))
	assetPath := path.Join(assetsDir, name)
	message := fmt.Sprintf("Upload asset %s (%s)", name, c.now().Format("2006-01-02 15:04"))
	if err := c.client.CommitFile(ctx, cfg, assetPath, data, message); err != nil {
		c.reporter.SyncFinished(OutcomeError, commitFailureMessage(err))
		return "", err
	}
	c.reporter.SyncFinished(OutcomeOK, fmt.Sprintf("Uploaded %s", name))
	return c.client.RawURL(cfg, assetPath), nil
}

// LoadSnapshot bootstraps state from the snapshot path. A missing snapshot
// is the normal first-run case and reports success with no snapshot; a
// payload that does not decode reports an error and returns nothing. Not
// connected issues no network call and no events.
func (c *Coordinator) LoadSnapshot(ctx context.Context) (json.RawMessage, bool, error) {
	cfg, ok := c.connected()
	if !ok {
		return nil, false, nil
	}
	c.reporter.SyncStarted("Loading data from GitHub…")
	data, exists, err := c.client.ReadFile(ctx, cfg, SnapshotPath)
	if err != nil {
		c.reporter.SyncFinished(OutcomeError, commitFailureMessage(err))
		return nil, false, err
	}
	if !exists {
		c.reporter.SyncFinished(OutcomeOK, "No remote data yet")
		return nil, false, nil
	}
	if !json.Valid(data) {
		err := fmt.Errorf("sync: snapshot at %s is not valid JSON", SnapshotPath)
		c.reporter.SyncFinished(OutcomeError, "Remote data is corrupted")
		return nil, false, err
	}
	c.reporter.SyncFinished(OutcomeOK, "Loaded data from GitHub")
	return data, true, nil
}

// TestConnection reads the repository identity and classifies the answer.
// Purely diagnostic; stored data is untouched.
func (c *Coordinator) TestConnection(ctx context.Context) Result {
	cfg, ok := c.connected()
	if !ok {
		return Result{OK: false, Message: "Not connected"}
	}
	status, err := c.client.RepoStatus(ctx, cfg)
	switch {
	case status == 200:
		return Result{OK: true, Message: "Connected"}
	case status == 401:
		return Result{OK: false, Message: "Invalid token"}
	case status == 404:
		return Result{OK: false, Message: "Repo not found"}
	case status != 0:
		return Result{OK: false, Message: fmt.Sprintf("GitHub returned status %d", status)}
	case err != nil:
		return Result{OK: false, Message: "Network error"}
	default:
		return Result{OK: false, Message: "Network error"}
	}
}

func (c *Coordinator) connected() (config.Config, bool) {
	cfg, ok := c.cfg.Current()
	if !ok || !cfg.Connected() {
		return config.Config{}, false
	}
	return cfg, true
}

// stampSnapshot re-marshals the caller's JSON object with a lastUpdated
// timestamp added. The state stays opaque beyond being a JSON object.
func stampSnapshot(state json.RawMessage, now time.Time) ([]byte, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(state, &doc); err != nil {
		return nil, fmt.Errorf("sync: league data is not a JSON object: %w", err)
	}
	if doc == nil {
		doc = make(map[string]json.RawMessage)
	}
	stamp, err := json.Marshal(now.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	doc["lastUpdated"] = stamp
	return json.Marshal(doc)
}

func commitFailureMessage(err error) string {
	switch {
	case errors.Is(err, github.ErrConflict):
		return "Sync failed: remote changed, try again"
	case github.IsAuth(err):
		return "Sync failed: invalid token"
	case github.IsNotFound(err):
		return "Sync failed: repo not found"
	default:
		return "Sync failed: network error"
	}
}
