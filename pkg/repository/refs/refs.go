// Package refs implements the ref store: file-per-ref under refs/, each
// holding a 64-hex-char object hash followed by a newline.
package refs

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	apperr "github.com/utkarsh5026/sourcevault/pkg/common/err"
	"github.com/utkarsh5026/sourcevault/pkg/common/fileops"
	"github.com/utkarsh5026/sourcevault/pkg/objects"
	"github.com/utkarsh5026/sourcevault/pkg/repository/scpath"
)

const pkgName = "refs"

// Store manages the refs/ directory of a single repository.
type Store struct {
	repo scpath.RepositoryPath
}

// New returns a ref Store rooted at repo.
func New(repo scpath.RepositoryPath) *Store {
	return &Store{repo: repo}
}

// Initialize creates the refs/{heads,tags} directory layout.
func (s *Store) Initialize() error {
	for _, dir := range []scpath.AbsolutePath{
		s.repo.RefsRoot().Join(scpath.HeadsDir),
		s.repo.RefsRoot().Join(scpath.TagsDir),
	} {
		if err := fileops.EnsureDir(dir); err != nil {
			return apperr.New(pkgName, apperr.CodeInternal, "initialize", dir.String(), err)
		}
	}
	return nil
}

// ValidateName enforces the ref-name invariants: non-empty, no "..", no NUL
// bytes, no leading slash, no trailing slash, and the resolved path must
// stay strictly inside refs/.
func (s *Store) ValidateName(name string) error {
	if name == "" {
		return apperr.New(pkgName, apperr.CodeInvalidRef, "validate_name", "empty ref name", nil)
	}
	if strings.Contains(name, "\x00") {
		return apperr.New(pkgName, apperr.CodeInvalidRef, "validate_name", "ref name contains NUL", nil).WithContext("name", name)
	}
	if strings.Contains(name, "..") {
		return apperr.New(pkgName, apperr.CodeInvalidRef, "validate_name", "ref name contains ..", nil).WithContext("name", name)
	}
	if strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") {
		return apperr.New(pkgName, apperr.CodeInvalidRef, "validate_name", "ref name has leading/trailing slash", nil).WithContext("name", name)
	}

	refsRoot := s.repo.RefsRoot().String()
	full := filepath.Join(refsRoot, name)
	rel, err := filepath.Rel(refsRoot, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return apperr.New(pkgName, apperr.CodeInvalidRef, "validate_name", "ref name escapes refs/", nil).WithContext("name", name)
	}
	return nil
}

func (s *Store) path(name string) scpath.AbsolutePath {
	return s.repo.RefsRoot().Join(filepath.FromSlash(name))
}

// Update atomically writes hash to ref name, creating parent directories as
// needed. Callers must hold the repository lock.
func (s *Store) Update(name string, hash objects.ObjectHash) error {
	if err := s.ValidateName(name); err != nil {
		return err
	}
	path := s.path(name)
	if err := fileops.EnsureParentDir(path); err != nil {
		return err
	}
	content := hash.String() + "\n"
	return fileops.WriteConfig(path, []byte(content))
}

// Read returns the hash stored at ref name, or RefNotFound if it does not
// exist.
func (s *Store) Read(name string) (objects.ObjectHash, error) {
	if err := s.ValidateName(name); err != nil {
		return "", err
	}
	data, err := os.ReadFile(s.path(name).String())
	if err != nil {
		if os.IsNotExist(err) {
			return "", apperr.New(pkgName, apperr.CodeRefNotFound, "read", name, err)
		}
		return "", apperr.New(pkgName, apperr.CodeInternal, "read", name, err)
	}
	hash, err := objects.NewObjectHashFromString(strings.TrimSpace(string(data)))
	if err != nil {
		return "", apperr.New(pkgName, apperr.CodeCorruptObject, "parse_ref_content", name, err)
	}
	return hash, nil
}

// Delete removes ref name. Missing refs are not an error.
func (s *Store) Delete(name string) error {
	if err := s.ValidateName(name); err != nil {
		return err
	}
	return fileops.SafeRemove(s.path(name))
}

// Resolve implements resolve_ref(x): if x is a 64-hex-char string it is
// parsed directly as a hash; otherwise it is looked up as a ref name.
func (s *Store) Resolve(x string) (objects.ObjectHash, error) {
	if len(x) == scpath.HashHexLength {
		if hash, err := objects.NewObjectHashFromString(x); err == nil {
			return hash, nil
		}
	}
	return s.Read(x)
}

// List performs a recursive walk under refs/, returning every ref name
// (POSIX-normalized with forward slashes), sorted.
func (s *Store) List() ([]string, error) {
	root := s.repo.RefsRoot().String()
	var names []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, apperr.New(pkgName, apperr.CodeInternal, "list", root, err)
	}
	sort.Strings(names)
	return names, nil
}
