package core

import (
	"fmt"
	"log"
	"time"

	"cloudbox/internal/auth"
	"cloudbox/internal/models"
)

const activationMailSubject = "cloudbox account activation"

// Register creates a pending account and mails its activation code. An
// identity that is already active, or pending and not yet expired, is a
// conflict; an expired pending entry is treated as absent and replaced.
// If the notification cannot be delivered the pending entry is rolled
// back, so a failed registration leaves no observable state.
func (s *Service) Register(username, password string) error {
	if username == "" || password == "" {
		return ErrBadRequest
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	s.mu.Lock()
	if _, ok := s.users[username]; ok {
		s.mu.Unlock()
		return ErrConflict
	}
	if pu, ok := s.pending[username]; ok && !s.expired(pu) {
		s.mu.Unlock()
		return ErrConflict
	}
	code := s.newCode()
	s.pending[username] = &models.PendingUser{
		Username:     username,
		PasswordHash: hash,
		Code:         code,
		CreatedAt:    s.now(),
	}
	s.mu.Unlock()

	if err := s.notifier.Notify(username, activationMailSubject, code); err != nil {
		s.mu.Lock()
		delete(s.pending, username)
		s.mu.Unlock()
		return fmt.Errorf("failed to deliver activation code: %w", err)
	}
	return nil
}

// Activate promotes a pending account. The code comparison is
// case-sensitive and requires the exact generated length; expired pending
// entries are treated as absent. On success the user gets a root registry
// entry and the pending entry is removed, leaving other pending accounts
// untouched.
func (s *Service) Activate(username, code string) error {
	if code == "" || len(code) != models.ActivationCodeLength {
		return ErrBadRequest
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[username]; ok {
		return ErrConflict
	}
	pu, ok := s.pending[username]
	if !ok || s.expired(pu) || pu.Code != code {
		return ErrBadCode
	}

	if err := s.blobs.EnsureDir(username); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}

	ts := s.stamp()
	s.users[username] = &models.User{
		Username:     username,
		PasswordHash: pu.PasswordHash,
		Paths: map[string]models.PathEntry{
			"": {
				Kind:      models.TargetOwned,
				Target:    "",
				IsDir:     true,
				Writable:  true,
				Timestamp: ts,
			},
		},
		Timestamp: ts,
	}
	delete(s.pending, username)
	return nil
}

// DeleteUser destroys an active account. The cascade removes every share
// the user owns, removes the user as beneficiary everywhere else, and
// deletes the physical tree.
func (s *Service) DeleteUser(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[username]; !ok {
		return ErrNotFound
	}

	ts := s.stamp()
	affected := make(map[string]bool)
	prefix := username + "/"
	for key, rec := range s.shares {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			p := key[len(prefix):]
			for _, ben := range rec.Beneficiaries() {
				s.dropBeneficiary(rec, username, p, ben, ts)
				affected[ben] = true
			}
			delete(s.shares, key)
			continue
		}
		if rec.HasBeneficiary(username) {
			for i, part := range rec.Participants {
				if i > 0 && part == username {
					rec.Participants = append(rec.Participants[:i], rec.Participants[i+1:]...)
					break
				}
			}
			if len(rec.Participants) == 1 {
				delete(s.shares, key)
			}
		}
	}

	if err := s.blobs.RemoveAll(username); err != nil {
		log.Printf("WARN: failed to remove storage tree for %s: %v", username, err)
	}
	delete(s.users, username)
	s.publishSync(affected, ts)
	return nil
}

// SweepPending drops pending registrations older than the expiry window
// and returns how many were removed. Called periodically from main.
func (s *Service) SweepPending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for name, pu := range s.pending {
		if s.expired(pu) {
			delete(s.pending, name)
			removed++
		}
	}
	return removed
}

func (s *Service) expired(pu *models.PendingUser) bool {
	return s.now().Sub(pu.CreatedAt) > s.pendingTTL
}

// PendingCode exposes the activation code and creation time of a pending
// registration. Deployments without a mail relay use it to hand the code
// to an operator out of band.
func (s *Service) PendingCode(username string) (string, time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pu, ok := s.pending[username]
	if !ok {
		return "", time.Time{}, false
	}
	return pu.Code, pu.CreatedAt, true
}
