package store

import (
	"context"
	"fmt"
	"hash/fnv"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rainbowlabs/notionpush/src/utils"
)

const (
	RECORD_FILE_SUFFIX = ".json"
	RECORD_FILE_PERM   = 0600
)

// FileStore keeps one JSON file per record under a base directory. Nested
// keys like "responses/applications/doc1" map to sub-directories.
type FileStore struct {
	baseDirPath string
}

func GetFileStore(basePath string, createDirIfNotExist bool) (RecordStore, error) {
	err := utils.CheckIfDirExists(basePath)
	if err != nil {
		if !createDirIfNotExist {
			return nil, err
		}

		err = utils.CreateDirectory(basePath)
		if err != nil {
			return nil, err
		}
	}

	return &FileStore{baseDirPath: basePath}, nil
}

func (s *FileStore) recordPath(key string) string {
	return filepath.Join(s.baseDirPath, filepath.FromSlash(key)+RECORD_FILE_SUFFIX)
}

func contentRevision(data []byte) Revision {
	hasher := fnv.New64a()
	_, _ = hasher.Write(data)
	return Revision(fmt.Sprintf("%016x", hasher.Sum64()))
}

func (s *FileStore) Load(ctx context.Context, key string) ([]byte, Revision, error) {
	if err := validateKey(key); err != nil {
		return nil, NoRevision, err
	}

	data, err := os.ReadFile(s.recordPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NoRevision, ErrRecordNotFound
		}
		return nil, NoRevision, err
	}

	return data, contentRevision(data), nil
}

func (s *FileStore) Save(ctx context.Context, key string, data []byte, expected Revision) (Revision, error) {
	if err := validateKey(key); err != nil {
		return NoRevision, err
	}

	path := s.recordPath(key)
	current, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return NoRevision, err
	}

	if os.IsNotExist(err) {
		if expected != NoRevision {
			return NoRevision, ErrRevisionConflict
		}
	} else if expected != contentRevision(current) {
		return NoRevision, ErrRevisionConflict
	}

	if err := utils.CreateDirectory(filepath.Dir(path)); err != nil {
		return NoRevision, err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, RECORD_FILE_PERM); err != nil {
		return NoRevision, err
	}
	if err := os.Rename(tmp, path); err != nil {
		return NoRevision, err
	}

	return contentRevision(data), nil
}

func (s *FileStore) List(ctx context.Context, prefix string) ([]string, error) {
	keys := []string{}
	err := filepath.WalkDir(s.baseDirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, RECORD_FILE_SUFFIX) {
			return nil
		}

		rel, err := filepath.Rel(s.baseDirPath, path)
		if err != nil {
			return err
		}

		key := strings.TrimSuffix(filepath.ToSlash(rel), RECORD_FILE_SUFFIX)
		if prefix == "" || strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(keys)
	return keys, nil
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	err := os.Remove(s.recordPath(key))
	if os.IsNotExist(err) {
		return ErrRecordNotFound
	}
	return err
}

func (s *FileStore) Close() error {
	return nil
}
