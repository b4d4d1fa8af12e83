package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/angie756/cafe-limon/internal/domain"
)

// Namespaced keys, one JSON file per key under the state directory.
const (
	KeyCart         = "cafe_limon_cart"
	KeyToken        = "cafe_limon_token"
	KeyUser         = "cafe_limon_user"
	KeyPreferences  = "cafe_limon_preferences"
	KeyRecentOrders = "cafe_limon_recent_orders"
)

// MaxRecentOrders caps the recent-orders list.
const MaxRecentOrders = 10

// Store is a file-backed key-value store with JSON serialization. Reads that
// fail for any reason fall back to the caller's default value; a page-reload
// equivalent (process restart) restores whatever was last written.
type Store struct {
	dir string
	log *logrus.Logger
}

func New(dir string, logger *logrus.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
	}
	return &Store{dir: dir, log: logger}, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Set serializes value as JSON and writes it atomically under key.
func (s *Store) Set(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		s.log.Errorf("Storage: failed to serialize key %s: %v", key, err)
		return fmt.Errorf("failed to serialize %s: %w", key, err)
	}
	tmp := s.path(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		s.log.Errorf("Storage: failed to write key %s: %v", key, err)
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := os.Rename(tmp, s.path(key)); err != nil {
		s.log.Errorf("Storage: failed to commit key %s: %v", key, err)
		return fmt.Errorf("failed to commit %s: %w", key, err)
	}
	return nil
}

// Get decodes the stored value for key into dest. A missing file or corrupt
// payload leaves dest untouched and reports false; the caller's zero/default
// value stands.
func (s *Store) Get(key string, dest any) bool {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warnf("Storage: failed to read key %s: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		s.log.Warnf("Storage: corrupt payload under key %s: %v", key, err)
		return false
	}
	return true
}

// Remove deletes the value stored under key. Removing an absent key is a no-op.
func (s *Store) Remove(key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		s.log.Errorf("Storage: failed to remove key %s: %v", key, err)
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

// Has reports whether key holds a value.
func (s *Store) Has(key string) bool {
	_, err := os.Stat(s.path(key))
	return err == nil
}

// Clear removes every namespaced key, preferences included. ClearSession is
// the narrower variant used on logout.
func (s *Store) Clear() error {
	for _, key := range []string{KeyCart, KeyToken, KeyUser, KeyPreferences, KeyRecentOrders} {
		if err := s.Remove(key); err != nil {
			return err
		}
	}
	return nil
}

// CartSnapshot is the persisted cart shape: the full line list plus the table
// association.
type CartSnapshot struct {
	Items   []domain.OrderItem `json:"items"`
	TableID string             `json:"tableId,omitempty"`
}

func (s *Store) SaveCart(snapshot CartSnapshot) error {
	return s.Set(KeyCart, snapshot)
}

func (s *Store) LoadCart() CartSnapshot {
	snapshot := CartSnapshot{Items: []domain.OrderItem{}}
	s.Get(KeyCart, &snapshot)
	if snapshot.Items == nil {
		snapshot.Items = []domain.OrderItem{}
	}
	return snapshot
}

func (s *Store) ClearCart() error {
	return s.Remove(KeyCart)
}

func (s *Store) SaveToken(token string) error {
	return s.Set(KeyToken, token)
}

func (s *Store) Token() string {
	var token string
	s.Get(KeyToken, &token)
	return token
}

func (s *Store) RemoveToken() error {
	return s.Remove(KeyToken)
}

func (s *Store) SaveUser(user domain.User) error {
	return s.Set(KeyUser, user)
}

func (s *Store) User() (domain.User, bool) {
	var user domain.User
	ok := s.Get(KeyUser, &user)
	return user, ok
}

func (s *Store) RemoveUser() error {
	return s.Remove(KeyUser)
}

// Preferences holds UI settings.
type Preferences struct {
	Theme         string `json:"theme"`
	Notifications bool   `json:"notifications"`
	Sound         bool   `json:"sound"`
}

func DefaultPreferences() Preferences {
	return Preferences{Theme: "light", Notifications: true, Sound: true}
}

func (s *Store) SavePreferences(prefs Preferences) error {
	return s.Set(KeyPreferences, prefs)
}

func (s *Store) Preferences() Preferences {
	prefs := DefaultPreferences()
	s.Get(KeyPreferences, &prefs)
	return prefs
}

// SaveRecentOrders keeps at most MaxRecentOrders entries, newest first.
func (s *Store) SaveRecentOrders(orderIDs []string) error {
	if len(orderIDs) > MaxRecentOrders {
		orderIDs = orderIDs[:MaxRecentOrders]
	}
	return s.Set(KeyRecentOrders, orderIDs)
}

func (s *Store) RecentOrders() []string {
	var ids []string
	s.Get(KeyRecentOrders, &ids)
	return ids
}

// PushRecentOrder prepends an order ID, dropping duplicates and trimming to
// the cap.
func (s *Store) PushRecentOrder(orderID string) error {
	ids := []string{orderID}
	for _, id := range s.RecentOrders() {
		if id != orderID {
			ids = append(ids, id)
		}
	}
	return s.SaveRecentOrders(ids)
}

// ClearSession removes everything tied to the current session: token, user
// and the in-progress cart.
func (s *Store) ClearSession() {
	if err := s.RemoveToken(); err != nil {
		s.log.Warnf("Storage: failed to clear token: %v", err)
	}
	if err := s.RemoveUser(); err != nil {
		s.log.Warnf("Storage: failed to clear user: %v", err)
	}
	if err := s.ClearCart(); err != nil {
		s.log.Warnf("Storage: failed to clear cart: %v", err)
	}
}
