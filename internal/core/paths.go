package core

import (
	"path"
	"strings"

	"cloudbox/internal/models"
)

// SharePrefix is the reserved top-level segment under which shared-in
// resources appear in a beneficiary's registry.
const SharePrefix = "shares"

// NormalizePath validates and canonicalizes a client-supplied relative
// path. The root is the empty string. Any traversal segment is rejected
// outright, before any state is touched; "folder/../file" is an error, not
// "file".
func NormalizePath(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	if strings.HasPrefix(raw, "/") {
		return "", ErrInvalidPath
	}
	raw = strings.TrimSuffix(raw, "/")
	if raw == "" {
		return "", ErrInvalidPath
	}
	for _, seg := range strings.Split(raw, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return "", ErrInvalidPath
		}
	}
	return raw, nil
}

func parentPath(p string) string {
	parent := path.Dir(p)
	if parent == "." || parent == "/" {
		return ""
	}
	return parent
}

func topSegment(p string) string {
	if i := strings.Index(p, "/"); i >= 0 {
		return p[:i]
	}
	return p
}

// shareRef builds the path under which ownerRel of owner's tree appears in
// a beneficiary's registry.
func shareRef(owner, ownerRel string) string {
	return SharePrefix + "/" + owner + "/" + ownerRel
}

// isUnder reports whether p equals root or lies inside it. An empty root
// matches everything.
func isUnder(p, root string) bool {
	if root == "" {
		return true
	}
	return p == root || strings.HasPrefix(p, root+"/")
}

// listUnder returns every registered path equal to or below root,
// including root itself when registered.
func listUnder(user *models.User, root string) []string {
	var out []string
	for p := range user.Paths {
		if p != "" && isUnder(p, root) {
			out = append(out, p)
		}
	}
	return out
}

// hasChildren reports whether any registered path lies strictly below dir.
func hasChildren(user *models.User, dir string) bool {
	for p := range user.Paths {
		if p != dir && isUnder(p, dir) {
			return true
		}
	}
	return false
}

// governingEntry walks up from visible to the deepest registered ancestor
// (possibly visible itself, ultimately the root). It decides writability
// for paths that do not exist yet.
func governingEntry(user *models.User, visible string) (string, models.PathEntry, bool) {
	for p := visible; ; p = parentPath(p) {
		if e, ok := user.Paths[p]; ok {
			return p, e, true
		}
		if p == "" {
			return "", models.PathEntry{}, false
		}
	}
}

// writeTarget resolves an actor-visible path for a write operation to the
// owning user's tree, enforcing share permissions. It returns the physical
// tree owner and the path within that owner's tree. ErrForbidden when the
// governing entry is a read-only share grant; ErrNotFound when the actor
// has no view of the path at all.
func (s *Service) writeTarget(user *models.User, visible string) (*models.User, string, error) {
	governing, entry, ok := governingEntry(user, visible)
	if !ok {
		return nil, "", ErrNotFound
	}
	if entry.Kind == models.TargetSharedIn {
		if !entry.Writable {
			return nil, "", ErrForbidden
		}
		owner, ok := s.users[entry.Owner]
		if !ok {
			return nil, "", ErrNotFound
		}
		rel := entry.Target
		if remainder := strings.TrimPrefix(visible, governing); remainder != "" {
			rel = entry.Target + remainder
		}
		return owner, rel, nil
	}
	// A path under shares/ with no shared-in governing entry is a view the
	// actor does not have, never a fresh owned subtree.
	if topSegment(visible) == SharePrefix {
		return nil, "", ErrNotFound
	}
	return user, visible, nil
}

// physicalTarget resolves an existing visible entry to the owning user and
// owner-relative path, for reads and deletes.
func (s *Service) physicalTarget(user *models.User, visible string, entry models.PathEntry) (*models.User, string, error) {
	if entry.Kind == models.TargetSharedIn {
		owner, ok := s.users[entry.Owner]
		if !ok {
			return nil, "", ErrNotFound
		}
		return owner, entry.Target, nil
	}
	return user, visible, nil
}

// blobPath maps an owner-relative path to the storage collaborator's
// namespace.
func blobPath(owner *models.User, rel string) string {
	if rel == "" {
		return owner.Username
	}
	return owner.Username + "/" + rel
}
