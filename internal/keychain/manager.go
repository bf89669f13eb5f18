// Copyright (c) 2025 OpenIAP
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package keychain provides centralized, thread-safe keychain operations for openiap.
// It stores the JWT the client presents when signing in, so the token never has
// to live in the config file or in shell history.
//
// Native platform backends only: macOS Keychain, Windows Credential Manager,
// Secret Service or KWallet on Linux, and pass as the last resort.
// No encrypted-file fallback is configured.
package keychain

import (
	"sync"

	"openiap/cli/internal/errors"

	"github.com/99designs/keyring"
)

// Global keychain manager instance
var (
	globalManager *Manager
	mu            sync.Mutex
)

// ServiceName identifies our keychain/credential store namespace.
const ServiceName = "openiap"

// KeyJWT is the item key holding the sign-in token.
const KeyJWT = "jwt"

// Manager provides centralized, thread-safe operations for the OS keychain.
type Manager struct {
	mu   sync.RWMutex
	ring keyring.Keyring
}

// NewManager creates a new keychain manager with the OS keyring initialized.
func NewManager() (*Manager, error) {
	ring, err := openRing()
	if err != nil {
		return nil, errors.Wrap(errors.Keychain, "secure storage unavailable", err)
	}
	return NewManagerWithRing(ring), nil
}

// NewManagerWithRing wraps an already opened keyring. Tests pass keyring.NewArrayKeyring.
func NewManagerWithRing(ring keyring.Keyring) *Manager {
	return &Manager{ring: ring}
}

// GetManager returns the global keychain manager instance.
// If not initialized, it will be created on first call.
// If initialization fails, it will retry on subsequent calls.
func GetManager() (*Manager, error) {
	mu.Lock()
	defer mu.Unlock()

	if globalManager != nil {
		return globalManager, nil
	}

	m, err := NewManager()
	if err != nil {
		return nil, err
	}
	globalManager = m
	return globalManager, nil
}

func openRing() (keyring.Keyring, error) {
	return keyring.Open(keyring.Config{
		ServiceName: ServiceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.WinCredBackend,
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.PassBackend,
		},
		KeychainTrustApplication: true,
		PassPrefix:               ServiceName,
		WinCredPrefix:            ServiceName,
		LibSecretCollectionName:  ServiceName,
	})
}

// SaveJWT stores the sign-in token.
// This method is thread-safe.
func (m *Manager) SaveJWT(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if token == "" {
		return errors.New(errors.Keychain, "refusing to store an empty token")
	}
	return m.ring.Set(keyring.Item{Key: KeyJWT, Data: []byte(token), Label: "OpenIAP JWT"})
}

// LoadJWT retrieves the sign-in token. A missing item yields "" and no error.
// This method is thread-safe.
func (m *Manager) LoadJWT() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	it, err := m.ring.Get(KeyJWT)
	if err == keyring.ErrKeyNotFound {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(it.Data), nil
}

// ClearJWT removes the sign-in token. Removing a missing item is not an error.
// This method is thread-safe.
func (m *Manager) ClearJWT() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ring.Remove(KeyJWT); err != nil && err != keyring.ErrKeyNotFound {
		return err
	}
	return nil
}
