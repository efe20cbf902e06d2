package core

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log"
	"sort"
	"strings"

	"cloudbox/internal/models"
)

func md5Hex(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// ancestorDirs returns the proper ancestors of p from the top down,
// excluding the root and p itself.
func ancestorDirs(p string) []string {
	var dirs []string
	for i, r := range p {
		if r == '/' {
			dirs = append(dirs, p[:i])
		}
	}
	return dirs
}

// missingDirs validates that every ancestor of rel is either absent or a
// directory, and returns the absent ones in creation order.
func missingDirs(owner *models.User, rel string) ([]string, error) {
	var missing []string
	for _, d := range ancestorDirs(rel) {
		if e, ok := owner.Paths[d]; ok {
			if !e.IsDir {
				return nil, ErrConflict
			}
			continue
		}
		missing = append(missing, d)
	}
	return missing, nil
}

// Upload stores content at path. With overwrite false the path must not
// exist yet; with overwrite true it must already resolve to a file. When
// the caller supplies a digest it must match the server-computed MD5 of
// the received bytes, otherwise the upload is discarded before any state
// change. Returns the mutation's completion time.
func (s *Service) Upload(username, rawPath string, content []byte, clientMD5 string, overwrite bool) (int64, error) {
	p, err := NormalizePath(rawPath)
	if err != nil {
		return 0, err
	}
	if p == "" {
		return 0, ErrInvalidPath
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		return 0, ErrNotFound
	}
	owner, rel, err := s.writeTarget(user, p)
	if err != nil {
		return 0, err
	}
	existing, exists := owner.Paths[rel]
	if overwrite {
		if !exists {
			return 0, ErrNotFound
		}
		if existing.IsDir {
			return 0, ErrBadRequest
		}
	} else if exists {
		return 0, ErrConflict
	}
	missing, err := missingDirs(owner, rel)
	if err != nil {
		return 0, err
	}

	digest := md5Hex(content)
	if clientMD5 != "" && strings.ToLower(clientMD5) != digest {
		return 0, ErrBadDigest
	}

	if err := s.blobs.Write(blobPath(owner, rel), content); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	ts := s.stamp()
	changed := make([]string, 0, len(missing)+1)
	for _, d := range missing {
		owner.Paths[d] = models.PathEntry{
			Kind:      models.TargetOwned,
			Target:    d,
			IsDir:     true,
			Writable:  true,
			Timestamp: ts,
		}
		changed = append(changed, d)
	}
	owner.Paths[rel] = models.PathEntry{
		Kind:      models.TargetOwned,
		Target:    rel,
		Writable:  true,
		MD5:       digest,
		Timestamp: ts,
	}
	changed = append(changed, rel)
	s.propagate(owner, changed, false, ts)
	return ts, nil
}

// Download returns the raw bytes and registry entry for path. It has no
// side effect on any registry or timestamp.
func (s *Service) Download(username, rawPath string) ([]byte, models.PathEntry, error) {
	p, err := NormalizePath(rawPath)
	if err != nil {
		return nil, models.PathEntry{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[username]
	if !ok {
		return nil, models.PathEntry{}, ErrNotFound
	}
	entry, ok := user.Paths[p]
	if !ok {
		return nil, models.PathEntry{}, ErrNotFound
	}
	if entry.IsDir {
		return nil, models.PathEntry{}, ErrBadRequest
	}
	owner, rel, err := s.physicalTarget(user, p, entry)
	if err != nil {
		return nil, models.PathEntry{}, err
	}
	data, err := s.blobs.Read(blobPath(owner, rel))
	if err != nil {
		return nil, models.PathEntry{}, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return data, entry, nil
}

// Delete removes path and, for directories, the whole subtree. Ancestor
// directories left empty are pruned (never the root), and ShareRecords
// whose shared path vanished are deleted along with the beneficiaries'
// mirrored entries.
func (s *Service) Delete(username, rawPath string) (int64, error) {
	p, err := NormalizePath(rawPath)
	if err != nil {
		return 0, err
	}
	if p == "" {
		return 0, ErrInvalidPath
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		return 0, ErrNotFound
	}
	entry, ok := user.Paths[p]
	if !ok {
		return 0, ErrNotFound
	}
	if entry.Kind == models.TargetSharedIn && !entry.Writable {
		return 0, ErrForbidden
	}
	owner, rel, err := s.physicalTarget(user, p, entry)
	if err != nil {
		return 0, err
	}
	target, ok := owner.Paths[rel]
	if !ok {
		return 0, ErrNotFound
	}

	if target.IsDir {
		err = s.blobs.RemoveAll(blobPath(owner, rel))
	} else {
		err = s.blobs.Delete(blobPath(owner, rel))
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	ts := s.stamp()
	removed := listUnder(owner, rel)
	for _, rp := range removed {
		delete(owner.Paths, rp)
	}
	s.pruneEmptyDirs(owner, rel, &removed)
	s.propagate(owner, removed, true, ts)
	s.pruneShares(owner)
	return ts, nil
}

// Copy duplicates src (file or subtree) at dst. The new entries are
// independent: copying never inherits or extends sharing from the source.
func (s *Service) Copy(username, rawSrc, rawDst string) (int64, error) {
	return s.transfer(username, rawSrc, rawDst, false)
}

// Move is delete-at-source plus create-at-destination as one logical
// transition. Share visibility is lost at the old path and not established
// at the new one unless the destination is independently shared.
func (s *Service) Move(username, rawSrc, rawDst string) (int64, error) {
	return s.transfer(username, rawSrc, rawDst, true)
}

func (s *Service) transfer(username, rawSrc, rawDst string, move bool) (int64, error) {
	src, err := NormalizePath(rawSrc)
	if err != nil {
		return 0, err
	}
	dst, err := NormalizePath(rawDst)
	if err != nil {
		return 0, err
	}
	if src == "" || dst == "" {
		return 0, ErrInvalidPath
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		return 0, ErrNotFound
	}
	srcEntry, ok := user.Paths[src]
	if !ok {
		return 0, ErrNotFound
	}
	if move && srcEntry.Kind == models.TargetSharedIn && !srcEntry.Writable {
		return 0, ErrForbidden
	}
	srcOwner, srcRel, err := s.physicalTarget(user, src, srcEntry)
	if err != nil {
		return 0, err
	}
	dstOwner, dstRel, err := s.writeTarget(user, dst)
	if err != nil {
		return 0, err
	}
	if _, exists := dstOwner.Paths[dstRel]; exists {
		return 0, ErrConflict
	}
	if srcOwner == dstOwner && srcEntry.IsDir && isUnder(dstRel, srcRel) {
		return 0, ErrInvalidPath
	}
	missing, err := missingDirs(dstOwner, dstRel)
	if err != nil {
		return 0, err
	}

	subs := listUnder(srcOwner, srcRel)
	sort.Strings(subs)

	if move {
		err = s.blobs.Rename(blobPath(srcOwner, srcRel), blobPath(dstOwner, dstRel))
	} else {
		for _, sub := range subs {
			tp := dstRel + sub[len(srcRel):]
			if srcOwner.Paths[sub].IsDir {
				err = s.blobs.EnsureDir(blobPath(dstOwner, tp))
			} else {
				err = s.blobs.Copy(blobPath(srcOwner, sub), blobPath(dstOwner, tp))
			}
			if err != nil {
				break
			}
		}
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	ts := s.stamp()
	changed := make([]string, 0, len(missing)+len(subs))
	for _, d := range missing {
		dstOwner.Paths[d] = models.PathEntry{
			Kind:      models.TargetOwned,
			Target:    d,
			IsDir:     true,
			Writable:  true,
			Timestamp: ts,
		}
		changed = append(changed, d)
	}
	for _, sub := range subs {
		e := srcOwner.Paths[sub]
		tp := dstRel + sub[len(srcRel):]
		dstOwner.Paths[tp] = models.PathEntry{
			Kind:      models.TargetOwned,
			Target:    tp,
			IsDir:     e.IsDir,
			Writable:  true,
			MD5:       e.MD5,
			Timestamp: ts,
		}
		changed = append(changed, tp)
	}

	if move {
		removed := make([]string, len(subs))
		copy(removed, subs)
		for _, sub := range subs {
			delete(srcOwner.Paths, sub)
		}
		s.pruneEmptyDirs(srcOwner, srcRel, &removed)
		s.propagate(srcOwner, removed, true, ts)
		s.pruneShares(srcOwner)
	}
	s.propagate(dstOwner, changed, false, ts)
	return ts, nil
}

// pruneEmptyDirs walks up from the removed path deleting directories left
// without children. The physical directory is removed best-effort; the
// registry stays authoritative.
func (s *Service) pruneEmptyDirs(owner *models.User, from string, removed *[]string) {
	for cur := parentPath(from); cur != ""; cur = parentPath(cur) {
		if _, ok := owner.Paths[cur]; !ok {
			break
		}
		if hasChildren(owner, cur) {
			break
		}
		delete(owner.Paths, cur)
		*removed = append(*removed, cur)
		if err := s.blobs.RemoveAll(blobPath(owner, cur)); err != nil {
			log.Printf("WARN: failed to remove empty directory %q for %s: %v", cur, owner.Username, err)
		}
	}
}
