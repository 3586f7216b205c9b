package vault

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/storekeeper/internal/client/broadcast"
	"github.com/dmitrijs2005/storekeeper/internal/client/storage"
	"github.com/dmitrijs2005/storekeeper/internal/logging"
)

const (
	// DefaultTTL is the fixed credential lifetime (86,400,000 ms).
	DefaultTTL = 24 * time.Hour

	// DefaultName is the credential name used by the session core.
	DefaultName = "auth_token"

	valuePrefix     = "enc_"
	timestampSuffix = "_timestamp"
)

// ErrLeaseHeld is returned by Store when another process holds the write lease.
var ErrLeaseHeld = errors.New("credential store is locked by another writer")

func ValueKey(name string) string     { return valuePrefix + name }
func TimestampKey(name string) string { return name + timestampSuffix }

type Option func(*Vault)

func WithClock(c Clock) Option { return func(v *Vault) { v.clock = c } }

// WithTTL overrides DefaultTTL. Intended for configuration, not per-call use.
func WithTTL(ttl time.Duration) Option { return func(v *Vault) { v.ttl = ttl } }

func WithLogger(l logging.Logger) Option { return func(v *Vault) { v.log = l } }

// WithPublisher announces Store/Erase to other processes sharing the storage.
func WithPublisher(p broadcast.Publisher) Option { return func(v *Vault) { v.pub = p } }

// WithLease makes the vault the single writer across processes. Store takes
// (or extends) the lease and keeps it; Erase drops it. While another process
// holds the lease Store fails with ErrLeaseHeld, so a second process must
// sign the first one out before signing in. The lease should expire with the
// credential.
func WithLease(l broadcast.Lease) Option { return func(v *Vault) { v.lease = l } }

// WithOrigin sets the id stamped on published events. Defaults to a random uuid.
func WithOrigin(origin string) Option { return func(v *Vault) { v.origin = origin } }

type Vault struct {
	store  storage.Storage
	codec  Codec
	clock  Clock
	ttl    time.Duration
	log    logging.Logger
	pub    broadcast.Publisher
	lease  broadcast.Lease
	origin string
}

func New(store storage.Storage, secret string, opts ...Option) (*Vault, error) {
	codec, err := NewCodec(secret)
	if err != nil {
		return nil, err
	}

	v := &Vault{
		store:  store,
		codec:  codec,
		clock:  SystemClock{},
		ttl:    DefaultTTL,
		log:    logging.Discard(),
		pub:    broadcast.Nop{},
		origin: uuid.NewString(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Origin identifies this vault in published events.
func (v *Vault) Origin() string {
	return v.origin
}

// Store obfuscates raw and writes it together with the current timestamp,
// replacing any previous value for name.
func (v *Vault) Store(ctx context.Context, name, raw string) error {
	if v.lease != nil {
		ok, err := v.lease.Acquire(ctx)
		if err != nil {
			return fmt.Errorf("store %s: %w", name, err)
		}
		if !ok {
			return ErrLeaseHeld
		}
	}

	items := map[string]string{
		ValueKey(name):     v.codec.Encode(raw),
		TimestampKey(name): strconv.FormatInt(v.clock.Now().UnixMilli(), 10),
	}
	if err := v.store.SetItems(ctx, items); err != nil {
		return fmt.Errorf("store %s: %w", name, err)
	}

	v.publish(ctx, name, broadcast.KindStored)
	return nil
}

// Retrieve returns the decoded credential, or ok=false when it is absent,
// expired or unreadable. Expired and corrupted entries are purged.
func (v *Vault) Retrieve(ctx context.Context, name string) (string, bool) {
	enc, ok, err := v.store.GetItem(ctx, ValueKey(name))
	if err != nil {
		v.log.Warn(ctx, "credential read failed", "name", name, "error", err)
		return "", false
	}
	if !ok {
		return "", false
	}

	rawTS, ok, err := v.store.GetItem(ctx, TimestampKey(name))
	if err != nil {
		v.log.Warn(ctx, "credential timestamp read failed", "name", name, "error", err)
		return "", false
	}
	createdAt, perr := strconv.ParseInt(rawTS, 10, 64)
	if !ok || perr != nil {
		v.log.Warn(ctx, "credential timestamp missing or corrupt, purging", "name", name)
		v.Erase(ctx, name)
		return "", false
	}

	if v.clock.Now().UnixMilli()-createdAt > v.ttl.Milliseconds() {
		v.log.Info(ctx, "credential expired, purging", "name", name)
		v.Erase(ctx, name)
		return "", false
	}

	raw, err := v.codec.Decode(enc)
	if err != nil {
		v.log.Warn(ctx, "credential corrupt, purging", "name", name, "error", err)
		v.Erase(ctx, name)
		return "", false
	}
	return raw, true
}

// Erase removes both entries and drops the write lease, whichever process
// holds it. Erasing an absent credential is a no-op.
func (v *Vault) Erase(ctx context.Context, name string) {
	existed := v.Exists(ctx, name)
	if err := v.store.RemoveItems(ctx, ValueKey(name), TimestampKey(name)); err != nil {
		v.log.Warn(ctx, "credential erase failed", "name", name, "error", err)
		return
	}
	if v.lease != nil {
		if err := v.lease.Drop(ctx); err != nil {
			v.log.Warn(ctx, "credential lease drop failed", "name", name, "error", err)
		}
	}
	if existed {
		v.publish(ctx, name, broadcast.KindErased)
	}
}

// Exists reports whether an obfuscated value is stored, without decoding it
// or checking its age.
func (v *Vault) Exists(ctx context.Context, name string) bool {
	_, ok, err := v.store.GetItem(ctx, ValueKey(name))
	if err != nil {
		v.log.Warn(ctx, "credential presence check failed", "name", name, "error", err)
		return false
	}
	return ok
}

func (v *Vault) publish(ctx context.Context, name string, kind broadcast.Kind) {
	e := broadcast.Event{Key: name, Kind: kind, Origin: v.origin, At: v.clock.Now()}
	if err := v.pub.Publish(ctx, e); err != nil {
		v.log.Warn(ctx, "credential change broadcast failed", "name", name, "kind", kind, "error", err)
	}
}
