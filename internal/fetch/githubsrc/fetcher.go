// Package githubsrc implements the repo-tree and repo-file fetchers
// against a documentation repository hosted on GitHub.
package githubsrc

import (
	"context"
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/go-github/v57/github"
	"github.com/ternarybob/arbor"
	"golang.org/x/oauth2"

	"github.com/ternarybob/venicekb/internal/cache"
	"github.com/ternarybob/venicekb/internal/fetch/fetchutil"
)

// File is one matched repository file, ready for the markdown
// converter.
type File struct {
	Path    string
	Content []byte
	SHA     string
}

// Fetcher fetches a repo's tree and individual file contents through the
// cache store, with a bounded fan-out across file fetches.
type Fetcher struct {
	client      *github.Client
	owner       string
	repo        string
	branch      string
	subtree     string
	extensions  []string
	maxParallel int

	cache  *cache.Store
	retry  *fetchutil.RetryPolicy
	logger arbor.ILogger
}

// New creates a repo fetcher. An empty token still allows unauthenticated
// access at GitHub's lower anonymous rate limit.
func New(ctx context.Context, owner, repo, branch, subtree string, extensions []string, maxParallel int, token string, store *cache.Store, logger arbor.ILogger) *Fetcher {
	return &Fetcher{
		client:      NewOAuthClient(ctx, token),
		owner:       owner,
		repo:        repo,
		branch:      branch,
		subtree:     subtree,
		extensions:  extensions,
		maxParallel: maxParallel,
		cache:       store,
		retry:       fetchutil.NewRetryPolicy(),
		logger:      logger,
	}
}

// ResolvedCommit returns the SHA the configured branch currently points
// at, used as Snapshot.SourceVersions.RepoCommit.
func (f *Fetcher) ResolvedCommit(ctx context.Context) (string, error) {
	ref, _, err := f.client.Git.GetRef(ctx, f.owner, f.repo, "refs/heads/"+f.branch)
	if err != nil {
		return "", fmt.Errorf("failed to resolve branch %s: %w", f.branch, err)
	}
	if ref.Object == nil {
		return "", fmt.Errorf("branch %s has no commit", f.branch)
	}
	return ref.Object.GetSHA(), nil
}

// ListTree lists every file under the configured subtree whose extension
// matches, pre-order as returned by the tree API.
func (f *Fetcher) ListTree(ctx context.Context) ([]string, error) {
	var tree *github.Tree
	statusCode, err := f.retry.Do(ctx, f.logger, "repo-tree", func() (int, error) {
		t, resp, err := f.client.Git.GetTree(ctx, f.owner, f.repo, f.branch, true)
		tree = t
		return statusCodeOf(resp), err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list repo tree (status %d): %w", statusCode, err)
	}

	extSet := make(map[string]bool, len(f.extensions))
	for _, ext := range f.extensions {
		extSet[strings.ToLower(ext)] = true
	}

	var paths []string
	for _, entry := range tree.Entries {
		if entry.GetType() != "blob" {
			continue
		}
		path := entry.GetPath()
		if f.subtree != "" && !strings.HasPrefix(path, f.subtree) {
			continue
		}
		if len(extSet) > 0 && !extSet[strings.ToLower(filepath.Ext(path))] {
			continue
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// FetchAll fetches the content of every path in paths through the cache,
// bounded to maxParallel concurrent in-flight requests.
func (f *Fetcher) FetchAll(ctx context.Context, paths []string) ([]File, []error) {
	pool := fetchutil.NewBoundedPool(f.maxParallel)
	return fetchutil.Run(ctx, pool, paths, func(ctx context.Context, path string) (File, error) {
		return f.fetchOne(ctx, path)
	})
}

func (f *Fetcher) fetchOne(ctx context.Context, path string) (File, error) {
	key := cache.Key("repo", cache.IdentifierFromPath(f.owner, f.repo, f.branch, path))
	if data, _, ok := f.cache.Get(key); ok {
		return File{Path: path, Content: data}, nil
	}

	var content *github.RepositoryContent
	statusCode, err := f.retry.Do(ctx, f.logger, "repo-file:"+path, func() (int, error) {
		c, _, resp, err := f.client.Repositories.GetContents(ctx, f.owner, f.repo, path, &github.RepositoryContentGetOptions{Ref: f.branch})
		content = c
		return statusCodeOf(resp), err
	})
	if err != nil {
		return File{}, fmt.Errorf("failed to fetch %s (status %d): %w", path, statusCode, err)
	}
	if content == nil {
		return File{}, fmt.Errorf("file not found: %s", path)
	}

	var decoded []byte
	if content.Content != nil {
		raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(*content.Content, "\n", ""))
		if err != nil {
			return File{}, fmt.Errorf("failed to base64-decode %s: %w", path, err)
		}
		decoded = raw
	}

	if err := f.cache.Put(key, decoded, cache.Meta{URL: content.GetHTMLURL()}); err != nil {
		f.logger.Warn().Err(err).Str("path", path).Msg("failed to persist cache entry for repo file")
	}

	return File{Path: path, Content: decoded, SHA: content.GetSHA()}, nil
}

func statusCodeOf(resp *github.Response) int {
	if resp == nil || resp.Response == nil {
		return 0
	}
	return resp.StatusCode
}

// NewOAuthClient builds a github.Client authenticated with token, or an
// unauthenticated client when token is empty.
func NewOAuthClient(ctx context.Context, token string) *github.Client {
	if token == "" {
		return github.NewClient(nil)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return github.NewClient(oauth2.NewClient(ctx, ts))
}
