package tools

import (
	"context"
	"encoding/json"

	"github.com/HendryAvila/rulewright/internal/apperr"
	"github.com/HendryAvila/rulewright/internal/cache"
	"github.com/HendryAvila/rulewright/internal/logging"
	"github.com/HendryAvila/rulewright/internal/workflow"
)

// Artifacts persists workflow snapshots and generated rules between calls.
// It's an optional dependency: tools work the same with a nil Artifacts,
// they just cannot resume a session from its id alone.
type Artifacts interface {
	SaveSession(ctx context.Context, s workflow.State)
	LoadSession(ctx context.Context, id string) (workflow.State, bool)
	DropSession(ctx context.Context, id string)
	SaveRule(ctx context.Context, name, text string)
}

// CacheBridge stores artifacts in the SQLite cache, keyed session/<id>
// and rule/<name>. Every method is best-effort: failures are logged and
// never reach the tool result, because the workflow state returned to
// the caller is the source of truth.
type CacheBridge struct {
	store *cache.Store
}

// NewCacheBridge returns nil when store is nil. The nil bridge is usable.
func NewCacheBridge(store *cache.Store) *CacheBridge {
	if store == nil {
		return nil
	}
	return &CacheBridge{store: store}
}

// SaveSession upserts the snapshot for s.SessionID.
func (b *CacheBridge) SaveSession(ctx context.Context, s workflow.State) {
	if b == nil || s.SessionID == "" {
		return
	}
	log := logging.Get("cache-bridge")
	data, err := json.Marshal(s)
	if err != nil {
		log.Warn().Err(err).Str("session", s.SessionID).Msg("encode session snapshot")
		return
	}
	if err := b.store.Put(ctx, cache.SessionKey(s.SessionID), string(data)); err != nil {
		log.Warn().Err(err).Str("session", s.SessionID).Msg("save session snapshot")
	}
}

// LoadSession returns the snapshot saved for id, if any.
func (b *CacheBridge) LoadSession(ctx context.Context, id string) (workflow.State, bool) {
	if b == nil || id == "" {
		return workflow.State{}, false
	}
	log := logging.Get("cache-bridge")
	entry, err := b.store.Get(ctx, cache.SessionKey(id))
	if err != nil {
		if !apperr.Has(err, apperr.ErrNotFound) {
			log.Warn().Err(err).Str("session", id).Msg("load session snapshot")
		}
		return workflow.State{}, false
	}
	var s workflow.State
	if err := json.Unmarshal([]byte(entry.Value), &s); err != nil {
		log.Warn().Err(err).Str("session", id).Msg("decode session snapshot")
		return workflow.State{}, false
	}
	return s, true
}

// DropSession removes the snapshot for id. Missing snapshots are ignored.
func (b *CacheBridge) DropSession(ctx context.Context, id string) {
	if b == nil || id == "" {
		return
	}
	if err := b.store.Delete(ctx, cache.SessionKey(id)); err != nil {
		log := logging.Get("cache-bridge")
		log.Warn().Err(err).Str("session", id).Msg("drop session snapshot")
	}
}

// SaveRule upserts the latest generated text for a rule.
func (b *CacheBridge) SaveRule(ctx context.Context, name, text string) {
	if b == nil || name == "" {
		return
	}
	if err := b.store.Put(ctx, cache.RuleKey(name), text); err != nil {
		log := logging.Get("cache-bridge")
		log.Warn().Err(err).Str("rule", name).Msg("save generated rule")
	}
}

// persistSession keeps the snapshot of an unfinished workflow and drops
// the snapshot once every phase is complete.
func persistSession(ctx context.Context, a Artifacts, s workflow.State) {
	if a == nil {
		return
	}
	if s.NextPhase() == 0 {
		a.DropSession(ctx, s.SessionID)
		return
	}
	a.SaveSession(ctx, s)
}

// artifactsOrNil keeps a typed nil *CacheBridge from looking like a live
// Artifacts to callers that compare against nil.
func artifactsOrNil(a Artifacts) Artifacts {
	if b, ok := a.(*CacheBridge); ok && b == nil {
		return nil
	}
	return a
}
