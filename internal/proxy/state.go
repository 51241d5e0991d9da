package proxy

import (
	credentialsDomain "github.com/allisson/credproxy/internal/credentials/domain"
	cryptoDomain "github.com/allisson/credproxy/internal/crypto/domain"
)

// workerState is Uninitialized while key is nil and Ready otherwise. Only the
// event loop touches it.
type workerState struct {
	key   *cryptoDomain.KeyData
	creds *credentialsDomain.PlaintextCredentials
}

func (s *workerState) ready() bool {
	return s.key != nil
}

func (s *workerState) status() Status {
	if s.ready() {
		return StatusReady
	}
	return StatusNotReady
}

// replace installs a new Ready state and wipes the one it supersedes.
func (s *workerState) replace(key *cryptoDomain.KeyData, creds *credentialsDomain.PlaintextCredentials) {
	oldKey, oldCreds := s.key, s.creds
	s.key, s.creds = key, creds
	_ = oldKey.Close()
	_ = oldCreds.Close()
}

// wipe returns to Uninitialized, zeroing any held secrets.
func (s *workerState) wipe() {
	_ = s.key.Close()
	_ = s.creds.Close()
	s.key, s.creds = nil, nil
}
