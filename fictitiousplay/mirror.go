package fictitiousplay

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/timpalpant/jotto/internal/npyio"
)

// Mirror copies checkpoint directories to and from remote storage.
// It is used by the training driver between iterations and never by the
// solver itself; local checkpoints do not depend on the mirror succeeding.
type Mirror interface {
	// Upload copies the checkpoint in localDir and returns a handle that
	// Download accepts.
	Upload(ctx context.Context, localDir string) (string, error)
	// Download fetches the checkpoint identified by handle into a new local
	// directory and returns its path.
	Download(ctx context.Context, handle string) (string, error)
}

const archivePrefix = "checkpoint_"

// ArchiveMirror stores each uploaded checkpoint as a single .npz archive
// under a root directory, such as a mounted network volume. Handles are
// archive file names.
type ArchiveMirror struct {
	root string
}

func NewArchiveMirror(root string) *ArchiveMirror {
	return &ArchiveMirror{root: root}
}

// Upload implements Mirror.
func (am *ArchiveMirror) Upload(ctx context.Context, localDir string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	buf, err := os.ReadFile(filepath.Join(localDir, IterationFile))
	if err != nil {
		return "", errors.Wrapf(err, "%v is not a checkpoint", localDir)
	}
	iter, err := strconv.Atoi(strings.TrimSpace(string(buf)))
	if err != nil {
		return "", errors.Wrapf(err, "parsing iteration in %v", localDir)
	}

	entries, err := os.ReadDir(localDir)
	if err != nil {
		return "", err
	}
	members := make(map[string]string, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			members[entry.Name()] = filepath.Join(localDir, entry.Name())
		}
	}

	if err := os.MkdirAll(am.root, 0755); err != nil {
		return "", err
	}

	handle := fmt.Sprintf("%s%08d.npz", archivePrefix, iter)
	tmp := filepath.Join(am.root, handle+".tmp")
	if err := npyio.MakeNPZ(tmp, members); err != nil {
		os.Remove(tmp)
		return "", errors.Wrapf(err, "archiving %v", localDir)
	}
	if err := os.Rename(tmp, filepath.Join(am.root, handle)); err != nil {
		return "", err
	}

	glog.Infof("Uploaded checkpoint for iteration %d to %v", iter, filepath.Join(am.root, handle))
	return handle, nil
}

// Download implements Mirror.
func (am *ArchiveMirror) Download(ctx context.Context, handle string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if filepath.Base(handle) != handle {
		return "", errors.Errorf("invalid checkpoint handle %q", handle)
	}

	dir, err := os.MkdirTemp("", "jotto-checkpoint-")
	if err != nil {
		return "", err
	}

	if _, err := npyio.ExtractNPZ(filepath.Join(am.root, handle), dir); err != nil {
		os.RemoveAll(dir)
		return "", errors.Wrapf(err, "downloading %v", handle)
	}

	glog.Infof("Downloaded checkpoint %v to %v", handle, dir)
	return dir, nil
}

// Latest returns the handle of the most recent uploaded checkpoint,
// or ErrNoCheckpoint if there is none.
func (am *ArchiveMirror) Latest(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	entries, err := os.ReadDir(am.root)
	if os.IsNotExist(err) {
		return "", ErrNoCheckpoint
	} else if err != nil {
		return "", err
	}

	var handles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, archivePrefix) && strings.HasSuffix(name, ".npz") {
			handles = append(handles, name)
		}
	}
	if len(handles) == 0 {
		return "", ErrNoCheckpoint
	}

	// Iterations are zero-padded, so lexical order is iteration order.
	sort.Strings(handles)
	return handles[len(handles)-1], nil
}
