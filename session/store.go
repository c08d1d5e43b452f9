package session

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotFound is returned when no session record exists for an account.
	ErrNotFound = errors.New("session record not found")
	// ErrRevoked is returned when a record exists but its validity flag is
	// false. All of the record's fields are treated as revoked.
	ErrRevoked = errors.New("session record revoked")
	// ErrSecretMismatch is returned by Find when the presented refresh
	// secret does not exactly match the stored one.
	ErrSecretMismatch = errors.New("refresh secret mismatch")
	// ErrRecordCorrupt is returned when a stored blob cannot be decoded.
	ErrRecordCorrupt = errors.New("session record corrupt")
	// ErrRedisUnavailable wraps transport-level Redis failures.
	ErrRedisUnavailable = errors.New("session redis unavailable")
)

const refreshSecretSize = 32

// Store is the Redis-backed session registry. One record per account,
// keyed by account id.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

func NewStore(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "ac"
	}
	return &Store{redis: client, prefix: prefix}
}

func (s *Store) key(accountID string) string {
	return s.prefix + ":session:" + accountID
}

// GetOrCreate returns the account's live session record, creating one with
// a fresh random refresh secret when none exists. An existing valid record
// is returned unchanged, the new fingerprint deliberately ignored, so that
// one refresh secret is shared across all of the account's devices. An
// existing record with the validity flag cleared fails with ErrRevoked.
//
// The create path uses SETNX: when two first logins race, exactly one
// record is written and the loser re-reads the winner's.
func (s *Store) GetOrCreate(ctx context.Context, accountID string, fp Fingerprint, ttl time.Duration) (*Record, error) {
	existing, err := s.Get(ctx, accountID)
	switch {
	case err == nil:
		if !existing.Valid {
			return nil, ErrRevoked
		}
		return existing, nil
	case errors.Is(err, ErrNotFound):
	default:
		return nil, err
	}

	secret, err := newRefreshSecret()
	if err != nil {
		return nil, err
	}

	record := &Record{
		AccountID:     accountID,
		RefreshSecret: secret,
		IP:            fp.IP,
		UserAgent:     fp.UserAgent,
		Valid:         true,
		CreatedAt:     time.Now().Unix(),
		Created:       true,
	}

	encoded, err := Encode(record)
	if err != nil {
		return nil, err
	}

	created, err := s.redis.SetNX(ctx, s.key(accountID), encoded, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if created {
		return record, nil
	}

	// Lost the create race; adopt the winner's record.
	winner, err := s.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !winner.Valid {
		return nil, ErrRevoked
	}
	return winner, nil
}

// Find looks up the record for accountID and requires the presented secret
// to match the stored one exactly. Used on the refresh path.
func (s *Store) Find(ctx context.Context, accountID, secret string) (*Record, error) {
	record, err := s.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(record.RefreshSecret), []byte(secret)) != 1 {
		return nil, ErrSecretMismatch
	}
	if !record.Valid {
		return nil, ErrRevoked
	}
	return record, nil
}

// Get returns the raw record without secret or validity checks.
func (s *Store) Get(ctx context.Context, accountID string) (*Record, error) {
	data, err := s.redis.Get(ctx, s.key(accountID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	record, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecordCorrupt, err)
	}
	return record, nil
}

// Revoke deletes the account's record. The effect is global: every device
// holding the account's refresh credential is invalidated at once. Deleting
// an absent record is not an error.
func (s *Store) Revoke(ctx context.Context, accountID string) error {
	if err := s.redis.Del(ctx, s.key(accountID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Invalidate clears the validity flag while keeping the record in place,
// blocking both refresh and re-login until the record is revoked outright.
func (s *Store) Invalidate(ctx context.Context, accountID string) error {
	record, err := s.Get(ctx, accountID)
	if err != nil {
		return err
	}
	record.Valid = false

	encoded, err := Encode(record)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.key(accountID), encoded, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Ping reports Redis reachability.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func newRefreshSecret() (string, error) {
	var raw [refreshSecretSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}
