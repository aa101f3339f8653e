package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/v66/github"
	"github.com/haydent/matchday/internal/config"
	"golang.org/x/oauth2"
)

// ErrConflict is returned by CommitFile when the store rejects the write
// because the revision tag went stale between the stat and the write. The
// commit is not retried; callers decide whether to.
var ErrConflict = errors.New("github: commit rejected, remote file changed")

type Client struct {
	hc *http.Client // optional; for tests
}

func NewClient() *Client {
	return &Client{}
}

// NewClientWithHTTPClient returns a client that uses the given http.Client for API calls (e.g. in tests).
func NewClientWithHTTPClient(hc *http.Client) *Client {
	return &Client{hc: hc}
}

func (c *Client) api(ctx context.Context, cfg config.Config) *github.Client {
	httpClient := c.hc
	if httpClient == nil {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		httpClient = oauth2.NewClient(ctx, ts)
	}
	return github.NewClient(httpClient)
}

func statusIs(err error, code int) bool {
	var ghErr *github.ErrorResponse
	return errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == code
}

// IsNotFound reports whether err is a 404 from the contents API.
func IsNotFound(err error) bool { return statusIs(err, http.StatusNotFound) }

// IsAuth reports whether err is a credentials failure (401/403).
func IsAuth(err error) bool {
	return statusIs(err, http.StatusUnauthorized) || statusIs(err, http.StatusForbidden)
}

func isConflict(err error) bool {
	// The contents API reports a stale SHA as 409, and in some cases 422.
	return statusIs(err, http.StatusConflict) || statusIs(err, http.StatusUnprocessableEntity)
}

// StatFile looks up the current revision tag (blob SHA) of path on the
// configured branch. exists is false only when the store reports the file
// absent; any other failure returns a non-nil error so that an unreachable
// store is never mistaken for a missing file.
func (c *Client) StatFile(ctx context.Context, cfg config.Config, path string) (sha string, exists bool, err error) {
	client := c.api(ctx, cfg)
	opts := &github.RepositoryContentGetOptions{Ref: cfg.Branch}
	file, _, _, err := client.Repositories.GetContents(ctx, cfg.Owner, cfg.Repo, path, opts)
	if err != nil {
		if IsNotFound(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("stat %s: %w", path, err)
	}
	if file == nil {
		// Path resolved to a directory; there is no single revision tag.
		return "", false, fmt.Errorf("stat %s: path is a directory", path)
	}
	return file.GetSHA(), true, nil
}

// CommitFile writes content to path on the configured branch using the
// stat-then-write optimistic-concurrency pattern: the write carries the SHA
// from the stat iff the file exists, so a create and an update are both a
// single commit. Returns ErrConflict when the store rejects a stale SHA.
// A failed stat aborts the commit rather than falling through to a create.
func (c *Client) CommitFile(ctx context.Context, cfg config.Config, path string, content []byte, message string) error {
	sha, exists, err := c.StatFile(ctx, cfg, path)
	if err != nil {
		return err
	}
	client := c.api(ctx, cfg)
	opts := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		Content: content,
		Branch:  github.String(cfg.Branch),
	}
	if exists {
		opts.SHA = github.String(sha)
		_, _, err = client.Repositories.UpdateFile(ctx, cfg.Owner, cfg.Repo, path, opts)
	} else {
		_, _, err = client.Repositories.CreateFile(ctx, cfg.Owner, cfg.Repo, path, opts)
	}
	if err != nil {
		if isConflict(err) {
			return ErrConflict
		}
		return fmt.Errorf("commit %s: %w", path, err)
	}
	return nil
}

// ReadFile fetches and decodes the file at path on the configured branch.
// exists is false when the store reports 404; decode failures and transport
// failures return a non-nil error.
func (c *Client) ReadFile(ctx context.Context, cfg config.Config, path string) (data []byte, exists bool, err error) {
	client := c.api(ctx, cfg)
	opts := &github.RepositoryContentGetOptions{Ref: cfg.Branch}
	file, _, _, err := client.Repositories.GetContents(ctx, cfg.Owner, cfg.Repo, path, opts)
	if err != nil {
		if IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read %s: %w", path, err)
	}
	if file == nil {
		return nil, false, fmt.Errorf("read %s: path is a directory", path)
	}
	content, err := file.GetContent()
	if err != nil {
		return nil, false, fmt.Errorf("read %s: decode: %w", path, err)
	}
	return []byte(content), true, nil
}

// RepoStatus issues a lightweight read of the repository itself and returns
// the HTTP status the API answered with. status is 0 when the request never
// reached the store (transport failure).
func (c *Client) RepoStatus(ctx context.Context, cfg config.Config) (status int, err error) {
	client := c.api(ctx, cfg)
	_, resp, err := client.Repositories.Get(ctx, cfg.Owner, cfg.Repo)
	if resp != nil {
		return resp.StatusCode, err
	}
	return 0, err
}

// RawURL returns the stable public URL of path as served by GitHub's raw
// content host. It is derived purely from the config and the path.
func (c *Client) RawURL(cfg config.Config, path string) string {
	return fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/%s/%s", cfg.Owner, cfg.Repo, cfg.Branch, path)
}
