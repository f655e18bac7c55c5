package fsadapter

import (
	"sort"

	"github.com/pkg/xattr"

	apperr "github.com/utkarsh5026/sourcevault/pkg/common/err"
	"github.com/utkarsh5026/sourcevault/pkg/objects"
)

// ListXattrs reads every extended attribute on path without following a
// trailing symlink (llistxattr/lgetxattr semantics), returning them sorted by
// name the way objects.SortXattrs would.
func ListXattrs(path string) ([]objects.Xattr, error) {
	names, err := xattr.LList(path)
	if err != nil {
		return nil, apperr.New(pkgName, apperr.CodeXattr, "list", path, err)
	}
	result := make([]objects.Xattr, 0, len(names))
	for _, name := range names {
		value, err := xattr.LGet(path, name)
		if err != nil {
			return nil, apperr.New(pkgName, apperr.CodeXattr, "get", path, err).WithContext("name", name)
		}
		result = append(result, objects.Xattr{Name: name, Value: value})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// SetXattrs applies xattrs to path without following a trailing symlink.
// Called after node creation and before chown/chmod, per the checkout
// metadata application order.
func SetXattrs(path string, xattrs []objects.Xattr) error {
	for _, x := range xattrs {
		if err := xattr.LSet(path, x.Name, x.Value); err != nil {
			return apperr.New(pkgName, apperr.CodeXattr, "set", path, err).WithContext("name", x.Name)
		}
	}
	return nil
}
