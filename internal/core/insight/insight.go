// Package insight answers player-level questions by combining several API
// calls: control and power levels, and resources held across shards.
package insight

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/screepskit/screepskit/internal/core/client"
	"github.com/screepskit/screepskit/internal/core/model"
)

// AllShards selects every shard in ShardResources.
const AllShards = "all"

// DefaultConcurrency caps in-flight room requests.
const DefaultConcurrency = 4

// ErrUserNotFound is returned when the server reports success but no user.
var ErrUserNotFound = errors.New("user not found")

// resourceHolders are the structures whose store counts towards a player's
// resources.
var resourceHolders = map[model.ObjectKind]bool{
	model.KindStorage:  true,
	model.KindTerminal: true,
	model.KindFactory:  true,
}

// GCL converts control points to a Global Control Level.
func GCL(points uint64) int {
	return int(math.Floor(math.Pow(float64(points)/1_000_000, 1/2.4))) + 1
}

// GPL converts power points to a Global Power Level.
func GPL(power uint64) int {
	return int(math.Floor(math.Sqrt(float64(power) / 1000)))
}

// Levels is a player's control and power progress.
type Levels struct {
	Username string `json:"username" yaml:"username"`
	UserID   string `json:"user_id" yaml:"user_id"`
	GCL      int    `json:"gcl" yaml:"gcl"`
	GPL      int    `json:"gpl" yaml:"gpl"`
	Points   uint64 `json:"gcl_points" yaml:"gcl_points"`
	Power    uint64 `json:"power" yaml:"power"`
}

// Resources maps shard name to resource type to amount.
type Resources map[string]map[string]int

// Shards returns shard names in order.
func (r Resources) Shards() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Scanner runs insight queries against an API.
type Scanner struct {
	api         client.API
	concurrency int
	logger      client.Logger
}

// Option customizes a Scanner.
type Option func(*Scanner)

// WithConcurrency caps in-flight room requests. Values below one are ignored.
func WithConcurrency(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithLogger sets where skipped rooms are reported.
func WithLogger(l client.Logger) Option {
	return func(s *Scanner) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewScanner returns a scanner over api.
func NewScanner(api client.API, opts ...Option) *Scanner {
	s := &Scanner{
		api:         api,
		concurrency: DefaultConcurrency,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlayerLevels looks up username with default scanner settings.
func PlayerLevels(ctx context.Context, api client.API, username string) (*Levels, error) {
	return NewScanner(api).PlayerLevels(ctx, username)
}

// ShardResources sums resources with default scanner settings.
func ShardResources(ctx context.Context, api client.API, username, shard string) (Resources, error) {
	return NewScanner(api).ShardResources(ctx, username, shard)
}

// PlayerLevels returns GCL and GPL for username.
func (s *Scanner) PlayerLevels(ctx context.Context, username string) (*Levels, error) {
	user, err := s.findUser(ctx, username)
	if err != nil {
		return nil, err
	}
	return &Levels{
		Username: user.Username,
		UserID:   user.ID,
		GCL:      GCL(user.GCL),
		GPL:      GPL(user.Power),
		Points:   user.GCL,
		Power:    user.Power,
	}, nil
}

// ShardResources sums the stores of every storage, terminal and factory the
// player owns on shard, or on every shard when shard is AllShards.
//
// Rooms are fetched concurrently. A room whose response is not ok is skipped
// with a warning; a transport or decode error aborts the scan.
func (s *Scanner) ShardResources(ctx context.Context, username, shard string) (Resources, error) {
	user, err := s.findUser(ctx, username)
	if err != nil {
		return nil, err
	}

	rooms, err := s.api.UserRooms(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if err := rooms.Err(); err != nil {
		return nil, fmt.Errorf("list rooms of %s: %w", username, err)
	}

	targets := roomTargets(rooms.Shards, shard)

	var mu sync.Mutex
	result := Resources{}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, target := range targets {
		g.Go(func() error {
			resp, err := s.api.RoomObjects(gctx, target.room, target.shard)
			if err != nil {
				return fmt.Errorf("fetch objects for room %s in %s: %w", target.room, target.shard, err)
			}
			if err := resp.Err(); err != nil {
				s.logger.Warn("Skipping room",
					zap.String("room", target.room),
					zap.String("shard", target.shard),
					zap.Error(err))
				return nil
			}

			totals := sumHolders(resp.Objects)

			mu.Lock()
			defer mu.Unlock()
			shardTotals, ok := result[target.shard]
			if !ok {
				shardTotals = map[string]int{}
				result[target.shard] = shardTotals
			}
			for resource, amount := range totals {
				shardTotals[resource] += amount
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Scanner) findUser(ctx context.Context, username string) (*model.User, error) {
	resp, err := s.api.FindUserByName(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, fmt.Errorf("find user %s: %w", username, err)
	}
	if resp.User == nil {
		return nil, fmt.Errorf("find user %s: %w", username, ErrUserNotFound)
	}
	return resp.User, nil
}

type roomTarget struct {
	room  string
	shard string
}

func roomTargets(shards map[string][]string, shard string) []roomTarget {
	names := make([]string, 0, len(shards))
	for name := range shards {
		if shard != AllShards && name != shard {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var targets []roomTarget
	for _, name := range names {
		for _, room := range shards[name] {
			targets = append(targets, roomTarget{room: room, shard: name})
		}
	}
	return targets
}

func sumHolders(objects []model.RoomObject) map[string]int {
	totals := map[string]int{}
	for _, obj := range objects {
		if !resourceHolders[obj.Kind] {
			continue
		}
		store, ok := obj.Store()
		if !ok {
			continue
		}
		for resource, amount := range store {
			totals[resource] += amount
		}
	}
	return totals
}
