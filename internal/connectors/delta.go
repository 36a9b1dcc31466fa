package connectors

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// DeltaResult holds the result of computing a git diff between two commits.
type DeltaResult struct {
	ChangedFiles  []string // modified/added relative paths
	DeletedFiles  []string // deleted relative paths
	PreviousSHA   string
	CurrentSHA    string
	IsIncremental bool
}

// ComputeGitDelta runs git diff --name-status between previousSHA and HEAD,
// returning the changed and deleted files.
func ComputeGitDelta(ctx context.Context, workDir, previousSHA string) (*DeltaResult, error) {
	currentSHA, err := HeadSHA(ctx, workDir)
	if err != nil {
		return nil, err
	}

	result := &DeltaResult{
		PreviousSHA:   previousSHA,
		CurrentSHA:    currentSHA,
		IsIncremental: true,
	}
	if previousSHA == currentSHA {
		return result, nil
	}

	diffCmd := exec.CommandContext(ctx, "git", "diff", "--name-status", previousSHA+"..HEAD")
	diffCmd.Dir = workDir
	diffOut, err := diffCmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git diff: %w", err)
	}

	parseNameStatus(string(diffOut), result)
	return result, nil
}

// parseNameStatus fills result from `git diff --name-status` output.
func parseNameStatus(out string, result *DeltaResult) {
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) < 2 {
			continue
		}
		status := line[0]
		// status\tpath, or status\told\tnew for renames and copies
		parts := strings.Split(line, "\t")
		if len(parts) < 2 {
			continue
		}
		p := parts[1]

		switch status {
		case 'A', 'M':
			result.ChangedFiles = append(result.ChangedFiles, p)
		case 'C':
			if len(parts) >= 3 {
				result.ChangedFiles = append(result.ChangedFiles, parts[2])
			}
		case 'D':
			result.DeletedFiles = append(result.DeletedFiles, p)
		case 'R':
			result.DeletedFiles = append(result.DeletedFiles, p)
			if len(parts) >= 3 {
				result.ChangedFiles = append(result.ChangedFiles, parts[2])
			}
		}
	}
}

// ChangedQuestions maps a delta onto the qids it touches. It reports false
// when any path lies outside a question directory that still exists in
// courseDir, or when an info.json was deleted; those deltas need a full
// sync. An empty delta reports false as well.
func ChangedQuestions(courseDir string, delta *DeltaResult) ([]string, bool) {
	if delta == nil || !delta.IsIncremental {
		return nil, false
	}
	paths := append(append([]string(nil), delta.ChangedFiles...), delta.DeletedFiles...)
	if len(paths) == 0 {
		return nil, false
	}
	for _, p := range delta.DeletedFiles {
		if path.Base(p) == "info.json" {
			return nil, false
		}
	}

	seen := make(map[string]bool)
	for _, p := range paths {
		qid, ok := owningQuestion(courseDir, p)
		if !ok {
			return nil, false
		}
		seen[qid] = true
	}

	qids := make([]string, 0, len(seen))
	for qid := range seen {
		qids = append(qids, qid)
	}
	sort.Strings(qids)
	return qids, true
}

// owningQuestion walks up from a repo-relative path to the nearest
// directory under questions/ holding an info.json.
func owningQuestion(courseDir, relPath string) (string, bool) {
	relPath = path.Clean(relPath)
	if !strings.HasPrefix(relPath, "questions/") {
		return "", false
	}
	for dir := path.Dir(relPath); dir != "questions" && dir != "."; dir = path.Dir(dir) {
		_, err := os.Stat(filepath.Join(courseDir, filepath.FromSlash(dir), "info.json"))
		if err == nil {
			return strings.TrimPrefix(dir, "questions/"), true
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", false
		}
	}
	return "", false
}
