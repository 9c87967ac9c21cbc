package services

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Dosada05/wsob-poker/models"
	"github.com/Dosada05/wsob-poker/repositories"
	"github.com/Dosada05/wsob-poker/storage"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeTx runs fn directly; failed transactions are not rolled back.
type fakeTx struct {
	calls int
}

func (f *fakeTx) WithinTx(ctx context.Context, fn func(tx repositories.SQLExecutor) error) error {
	f.calls++
	return fn(nil)
}

type fakePlayerRepo struct {
	mu      sync.Mutex
	players map[uuid.UUID]*models.Player
}

func newFakePlayerRepo(players ...models.Player) *fakePlayerRepo {
	r := &fakePlayerRepo{players: make(map[uuid.UUID]*models.Player)}
	for i := range players {
		p := players[i]
		r.players[p.ID] = &p
	}
	return r
}

func (r *fakePlayerRepo) Create(ctx context.Context, player *models.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.players {
		if strings.EqualFold(p.Name, player.Name) {
			return repositories.ErrPlayerNameConflict
		}
		if strings.EqualFold(p.Email, player.Email) {
			return repositories.ErrPlayerEmailConflict
		}
	}
	player.ID = uuid.New()
	player.CreatedAt = time.Now()
	cp := *player
	r.players[player.ID] = &cp
	return nil
}

func (r *fakePlayerRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[id]
	if !ok {
		return nil, repositories.ErrPlayerNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePlayerRepo) find(match func(*models.Player) bool) (*models.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.players {
		if match(p) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repositories.ErrPlayerNotFound
}

func (r *fakePlayerRepo) GetByEmail(ctx context.Context, email string) (*models.Player, error) {
	return r.find(func(p *models.Player) bool { return strings.EqualFold(p.Email, email) })
}

func (r *fakePlayerRepo) GetByName(ctx context.Context, name string) (*models.Player, error) {
	return r.find(func(p *models.Player) bool { return strings.EqualFold(p.Name, name) })
}

func (r *fakePlayerRepo) List(ctx context.Context, filter models.PlayerFilter) ([]models.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Player, 0)
	for _, p := range r.players {
		q := strings.ToLower(filter.Search)
		if q == "" || strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Email), q) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakePlayerRepo) Update(ctx context.Context, player *models.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.players[player.ID]; !ok {
		return repositories.ErrPlayerNotFound
	}
	cp := *player
	r.players[player.ID] = &cp
	return nil
}

func (r *fakePlayerRepo) UpdateAvatarKey(ctx context.Context, id uuid.UUID, key *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[id]
	if !ok {
		return repositories.ErrPlayerNotFound
	}
	p.AvatarKey = key
	return nil
}

func (r *fakePlayerRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.players[id]; !ok {
		return repositories.ErrPlayerNotFound
	}
	delete(r.players, id)
	return nil
}

func (r *fakePlayerRepo) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players), nil
}

type fakeRuleRepo struct {
	mu        sync.Mutex
	rules     map[uuid.UUID]*models.Rule
	usedEnded map[uuid.UUID]bool
	// games, when set, also marks rules of ended games as used.
	games *fakeGameRepo

	// ops records lock and usage calls in order.
	ops []string
	// onLock runs after the row lock is granted, before the usage check.
	onLock func(id uuid.UUID)
}

func newFakeRuleRepo(rules ...*models.Rule) *fakeRuleRepo {
	r := &fakeRuleRepo{rules: make(map[uuid.UUID]*models.Rule), usedEnded: make(map[uuid.UUID]bool)}
	for _, rule := range rules {
		cp := *rule
		r.rules[rule.ID] = &cp
	}
	return r
}

func (r *fakeRuleRepo) Create(ctx context.Context, rule *models.Rule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, other := range r.rules {
		if other.Slug == rule.Slug && other.Version == rule.Version {
			return repositories.ErrRuleSlugConflict
		}
	}
	rule.ID = uuid.New()
	cp := *rule
	r.rules[rule.ID] = &cp
	return nil
}

func (r *fakeRuleRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id uuid.UUID) (*models.Rule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rule, ok := r.rules[id]
	if !ok {
		return nil, repositories.ErrRuleNotFound
	}
	cp := *rule
	return &cp, nil
}

func (r *fakeRuleRepo) GetForUpdate(ctx context.Context, tx repositories.SQLExecutor, id uuid.UUID) (*models.Rule, error) {
	rule, err := r.GetByID(ctx, tx, id)
	r.mu.Lock()
	r.ops = append(r.ops, "lock")
	hook := r.onLock
	r.mu.Unlock()
	if err == nil && hook != nil {
		hook(id)
	}
	return rule, err
}

func (r *fakeRuleRepo) GetForShare(ctx context.Context, tx repositories.SQLExecutor, id uuid.UUID) (*models.Rule, error) {
	r.mu.Lock()
	r.ops = append(r.ops, "share")
	r.mu.Unlock()
	return r.GetByID(ctx, tx, id)
}

func (r *fakeRuleRepo) GetBySlug(ctx context.Context, slug string) (*models.Rule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var best *models.Rule
	for _, rule := range r.rules {
		if rule.Slug == slug && (best == nil || rule.Version > best.Version) {
			best = rule
		}
	}
	if best == nil {
		return nil, repositories.ErrRuleNotFound
	}
	cp := *best
	return &cp, nil
}

func (r *fakeRuleRepo) List(ctx context.Context, active *bool) ([]models.Rule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Rule, 0)
	for _, rule := range r.rules {
		if active == nil || rule.Active == *active {
			out = append(out, *rule)
		}
	}
	return out, nil
}

func (r *fakeRuleRepo) Update(ctx context.Context, exec repositories.SQLExecutor, rule *models.Rule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, "update")
	if _, ok := r.rules[rule.ID]; !ok {
		return repositories.ErrRuleNotFound
	}
	cp := *rule
	r.rules[rule.ID] = &cp
	return nil
}

func (r *fakeRuleRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rule, ok := r.rules[id]
	if !ok {
		return repositories.ErrRuleNotFound
	}
	rule.Active = active
	return nil
}

func (r *fakeRuleRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, "delete")
	if _, ok := r.rules[id]; !ok {
		return repositories.ErrRuleNotFound
	}
	delete(r.rules, id)
	return nil
}

func (r *fakeRuleRepo) UsedByEndedGame(ctx context.Context, exec repositories.SQLExecutor, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, "used")
	if r.usedEnded[id] {
		return true, nil
	}
	if r.games != nil {
		r.games.mu.Lock()
		defer r.games.mu.Unlock()
		for _, g := range r.games.games {
			if g.RuleID == id && g.Ended {
				return true, nil
			}
		}
	}
	return false, nil
}

func (r *fakeRuleRepo) NextVersion(ctx context.Context, slug string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	max := 0
	for _, rule := range r.rules {
		if rule.Slug == slug && rule.Version > max {
			max = rule.Version
		}
	}
	return max + 1, nil
}

type fakeGameRepo struct {
	mu    sync.Mutex
	games map[uuid.UUID]*models.Game
}

func newFakeGameRepo() *fakeGameRepo {
	return &fakeGameRepo{games: make(map[uuid.UUID]*models.Game)}
}

func (r *fakeGameRepo) put(g models.Game) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g.Entries = nil
	r.games[g.ID] = &g
}

func (r *fakeGameRepo) Create(ctx context.Context, exec repositories.SQLExecutor, game *models.Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	game.ID = uuid.New()
	game.CreatedAt = time.Now()
	cp := *game
	r.games[game.ID] = &cp
	return nil
}

func (r *fakeGameRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id uuid.UUID) (*models.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.games[id]
	if !ok {
		return nil, repositories.ErrGameNotFound
	}
	cp := *g
	return &cp, nil
}

func (r *fakeGameRepo) GetForUpdate(ctx context.Context, tx repositories.SQLExecutor, id uuid.UUID) (*models.Game, error) {
	return r.GetByID(ctx, tx, id)
}

func (r *fakeGameRepo) List(ctx context.Context, filter models.GameFilter) ([]models.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Game, 0)
	for _, g := range r.games {
		if filter.Ended == nil || g.Ended == *filter.Ended {
			out = append(out, *g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *fakeGameRepo) ListUnsettled(ctx context.Context, limit int) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pending := make([]*models.Game, 0)
	for _, g := range r.games {
		if g.Ended && g.SettledAt == nil {
			pending = append(pending, g)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		ei, ej := pending[i].SettlementError != nil, pending[j].SettlementError != nil
		if ei != ej {
			return ej
		}
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	ids := make([]uuid.UUID, 0, len(pending))
	for _, g := range pending {
		ids = append(ids, g.ID)
	}
	return ids, nil
}

func (r *fakeGameRepo) MarkSettled(ctx context.Context, exec repositories.SQLExecutor, id uuid.UUID, settledAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.games[id]
	if !ok {
		return repositories.ErrGameNotFound
	}
	g.Ended = true
	g.SettledAt = &settledAt
	g.SettlementError = nil
	return nil
}

func (r *fakeGameRepo) Reopen(ctx context.Context, exec repositories.SQLExecutor, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.games[id]
	if !ok {
		return repositories.ErrGameNotFound
	}
	g.Ended = false
	g.SettledAt = nil
	g.SettlementError = nil
	return nil
}

func (r *fakeGameRepo) SetSettlementError(ctx context.Context, id uuid.UUID, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.games[id]
	if !ok {
		return repositories.ErrGameNotFound
	}
	g.SettlementError = &message
	return nil
}

func (r *fakeGameRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.games[id]; !ok {
		return repositories.ErrGameNotFound
	}
	delete(r.games, id)
	return nil
}

func (r *fakeGameRepo) Counts(ctx context.Context) (repositories.GameCounts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var c repositories.GameCounts
	for _, g := range r.games {
		switch {
		case !g.Ended:
			c.Open++
		case g.SettledAt == nil:
			c.Ended++
		default:
			c.Settled++
		}
	}
	return c, nil
}

type fakeGameDataRepo struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*models.GameData
	players *fakePlayerRepo
}

func newFakeGameDataRepo(players *fakePlayerRepo) *fakeGameDataRepo {
	return &fakeGameDataRepo{entries: make(map[uuid.UUID]*models.GameData), players: players}
}

func (r *fakeGameDataRepo) put(e models.GameData) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.Version == 0 {
		e.Version = 1
	}
	r.entries[e.ID] = &e
}

func (r *fakeGameDataRepo) get(id uuid.UUID) models.GameData {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.entries[id]
}

func (r *fakeGameDataRepo) Create(ctx context.Context, exec repositories.SQLExecutor, entry *models.GameData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.GameID == entry.GameID && e.PlayerID == entry.PlayerID {
			return repositories.ErrGameDataPlayerConflict
		}
	}
	if r.players != nil {
		if _, err := r.players.GetByID(ctx, entry.PlayerID); err != nil {
			return repositories.ErrGameDataPlayerInvalid
		}
	}
	entry.ID = uuid.New()
	entry.Version = 1
	cp := *entry
	r.entries[entry.ID] = &cp
	return nil
}

func (r *fakeGameDataRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id uuid.UUID) (*models.GameData, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, repositories.ErrGameDataNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *fakeGameDataRepo) ListByGame(ctx context.Context, exec repositories.SQLExecutor, gameID uuid.UUID, lock bool) ([]models.GameData, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.GameData, 0)
	for _, e := range r.entries {
		if e.GameID == gameID {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		pi, pj := out[i].LeftPos, out[j].LeftPos
		if (pi == 0) != (pj == 0) {
			return pj == 0
		}
		if pi != pj {
			return pi < pj
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r *fakeGameDataRepo) UpdateResult(ctx context.Context, exec repositories.SQLExecutor, entry *models.GameData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.entries[entry.ID]
	if !ok {
		return repositories.ErrGameDataNotFound
	}
	if stored.Version != entry.Version {
		return repositories.ErrGameDataVersionConflict
	}
	entry.Version++
	stored.Knockouts, stored.Rebuys, stored.Addon, stored.Payed = entry.Knockouts, entry.Rebuys, entry.Addon, entry.Payed
	stored.Version = entry.Version
	return nil
}

func (r *fakeGameDataRepo) SetPosition(ctx context.Context, exec repositories.SQLExecutor, id uuid.UUID, leftPos int, complete bool) (*models.GameData, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.entries[id]
	if !ok {
		return nil, repositories.ErrGameDataNotFound
	}
	if leftPos > 0 {
		for _, e := range r.entries {
			if e.ID != id && e.GameID == stored.GameID && e.LeftPos == leftPos {
				return nil, repositories.ErrPositionTaken
			}
		}
	}
	stored.LeftPos = leftPos
	stored.Complete = complete
	stored.Version++
	cp := *stored
	return &cp, nil
}

func (r *fakeGameDataRepo) SetPayed(ctx context.Context, exec repositories.SQLExecutor, id uuid.UUID, payed bool) (*models.GameData, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.entries[id]
	if !ok {
		return nil, repositories.ErrGameDataNotFound
	}
	stored.Payed = payed
	stored.Version++
	cp := *stored
	return &cp, nil
}

func (r *fakeGameDataRepo) WriteSettlement(ctx context.Context, exec repositories.SQLExecutor, id uuid.UUID, debit decimal.Decimal, points int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.entries[id]
	if !ok {
		return repositories.ErrGameDataNotFound
	}
	stored.Debit = debit
	stored.Points = points
	return nil
}

func (r *fakeGameDataRepo) ClearSettlement(ctx context.Context, exec repositories.SQLExecutor, gameID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.GameID == gameID {
			e.Debit = decimal.Zero
			e.Points = 0
		}
	}
	return nil
}

func (r *fakeGameDataRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; !ok {
		return repositories.ErrGameDataNotFound
	}
	delete(r.entries, id)
	return nil
}

func (r *fakeGameDataRepo) CountUnpaid(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if !e.Payed {
			n++
		}
	}
	return n, nil
}

type fakeSettlementRepo struct {
	mu     sync.Mutex
	stored map[uuid.UUID]*models.Settlement
}

func newFakeSettlementRepo() *fakeSettlementRepo {
	return &fakeSettlementRepo{stored: make(map[uuid.UUID]*models.Settlement)}
}

func (r *fakeSettlementRepo) Upsert(ctx context.Context, exec repositories.SQLExecutor, s *models.Settlement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	report := *s.Report
	report.Entries = append([]models.SettlementEntry(nil), s.Report.Entries...)
	cp := *s
	cp.Report = &report
	r.stored[s.GameID] = &cp
	return nil
}

func (r *fakeSettlementRepo) GetByGame(ctx context.Context, exec repositories.SQLExecutor, gameID uuid.UUID) (*models.Settlement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stored[gameID]
	if !ok {
		return nil, repositories.ErrSettlementNotFound
	}
	report := *s.Report
	report.Entries = append([]models.SettlementEntry(nil), s.Report.Entries...)
	cp := *s
	cp.Report = &report
	return &cp, nil
}

func (r *fakeSettlementRepo) DeleteByGame(ctx context.Context, exec repositories.SQLExecutor, gameID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.stored, gameID)
	return nil
}

type fakeUploader struct {
	mu       sync.Mutex
	objects  map[string][]byte
	deleted  []string
	failWith error
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{objects: make(map[string][]byte)}
}

func (u *fakeUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	if u.failWith != nil {
		return nil, u.failWith
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.objects[key] = buf.Bytes()
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *fakeUploader) Delete(ctx context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.objects, key)
	u.deleted = append(u.deleted, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.example.com/" + key
}
