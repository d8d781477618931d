package output

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/screepskit/screepskit/internal/core/insight"
	"github.com/screepskit/screepskit/internal/core/model"
	"github.com/screepskit/screepskit/internal/core/ratelimit"
	"github.com/screepskit/screepskit/internal/core/store"
)

// TokenView prints the result of signing in.
type TokenView struct {
	Response *model.TokenResponse
}

func (v TokenView) Data() any { return v.Response }

func (v TokenView) Table() Table {
	return Table{
		Header: []any{"Field", "Value"},
		Rows: [][]any{
			{"ok", v.Response.OK},
			{"token", v.Response.Token},
		},
	}
}

// MeView prints the authenticated account.
type MeView struct {
	Response *model.MeResponse
}

func (v MeView) Data() any { return v.Response }

func (v MeView) Table() Table {
	me := v.Response
	return Table{
		Header: []any{"Field", "Value"},
		Rows: [][]any{
			{"id", me.ID},
			{"username", me.Username},
			{"email", me.Email},
			{"cpu", me.CPU},
			{"gcl", fmt.Sprintf("%d (level %d)", me.GCL, insight.GCL(me.GCL))},
			{"power", fmt.Sprintf("%d (level %d)", me.Power, insight.GPL(me.Power))},
			{"credits", fmt.Sprintf("%.3f", me.Money)},
		},
	}
}

// UserView prints a user lookup.
type UserView struct {
	Response *model.UserResponse
}

func (v UserView) Data() any { return v.Response }

func (v UserView) Table() Table {
	t := Table{Header: []any{"ID", "Username", "GCL", "Power"}}
	if user := v.Response.User; user != nil {
		t.Rows = append(t.Rows, []any{user.ID, user.Username, insight.GCL(user.GCL), user.Power})
	}
	return t
}

// RoomsView prints the rooms a user owns and reserves per shard.
type RoomsView struct {
	Response *model.UserRoomsResponse
}

func (v RoomsView) Data() any { return v.Response }

func (v RoomsView) Table() Table {
	t := Table{Header: []any{"Shard", "Kind", "Rooms"}}
	appendRooms := func(kind string, shards map[string][]string) {
		for _, shard := range sortedKeys(shards) {
			t.Rows = append(t.Rows, []any{shard, kind, strings.Join(shards[shard], ", ")})
		}
	}
	appendRooms("owned", v.Response.Shards)
	appendRooms("reserved", v.Response.Reservations)
	return t
}

// ObjectsView prints the objects in a room.
type ObjectsView struct {
	Room     string
	Shard    string
	Response *model.RoomObjectsResponse
}

// Data keeps every decoded field. Room objects are tagged variants, so they
// are projected through their JSON form to reach the YAML encoder intact.
func (v ObjectsView) Data() any {
	objects := make([]any, 0, len(v.Response.Objects))
	for _, object := range v.Response.Objects {
		raw, err := json.Marshal(object)
		if err != nil {
			objects = append(objects, object.Base)
			continue
		}
		var generic map[string]any
		if err := json.Unmarshal(raw, &generic); err != nil {
			objects = append(objects, object.Base)
			continue
		}
		objects = append(objects, generic)
	}
	return struct {
		OK      int                   `json:"ok" yaml:"ok"`
		Error   string                `json:"error,omitempty" yaml:"error,omitempty"`
		Objects []any                 `json:"objects" yaml:"objects"`
		Users   map[string]model.User `json:"users,omitempty" yaml:"users,omitempty"`
	}{
		OK:      v.Response.OK,
		Error:   v.Response.Error,
		Objects: objects,
		Users:   v.Response.Users,
	}
}

func (v ObjectsView) Table() Table {
	t := Table{
		Title:  roomTitle(v.Room, v.Shard),
		Header: []any{"ID", "Type", "X", "Y", "Owner", "Store"},
	}
	for _, object := range v.Response.Objects {
		owner := ""
		if user, ok := v.Response.Users[objectOwner(object)]; ok {
			owner = user.Username
		}
		stored := ""
		if s, ok := object.Store(); ok {
			stored = formatStore(s)
		}
		t.Rows = append(t.Rows, []any{object.Base.ID, string(object.Kind), object.Base.X, object.Base.Y, owner, stored})
	}
	counts := v.Response.CountByKind()
	kinds := make([]string, 0, len(counts))
	for kind, n := range counts {
		kinds = append(kinds, fmt.Sprintf("%s=%d", kind, n))
	}
	sort.Strings(kinds)
	t.Footer = []any{"", fmt.Sprintf("%d objects", len(v.Response.Objects)), "", "", "", strings.Join(kinds, " ")}
	return t
}

// TerrainView prints the non-plain cells of a room.
type TerrainView struct {
	Room     string
	Shard    string
	Response *model.RoomTerrainResponse
}

func (v TerrainView) Data() any { return v.Response }

func (v TerrainView) Table() Table {
	t := Table{
		Title:  roomTitle(v.Room, v.Shard),
		Header: []any{"X", "Y", "Type"},
	}
	for _, cell := range v.Response.Terrain {
		t.Rows = append(t.Rows, []any{cell.X, cell.Y, cell.Type})
	}
	return t
}

// EncodedTerrainView prints a room's terrain as a 50x50 character grid.
type EncodedTerrainView struct {
	Room     string
	Shard    string
	Response *model.EncodedRoomTerrainResponse
}

func (v EncodedTerrainView) Data() any { return v.Response }

func (v EncodedTerrainView) Table() Table {
	t := Table{
		Title:  roomTitle(v.Room, v.Shard),
		Header: []any{"Y", "Terrain"},
	}
	for _, terrain := range v.Response.Terrain {
		for y := 0; y < 50; y++ {
			t.Rows = append(t.Rows, []any{y, terrainRow(terrain, y)})
		}
	}
	return t
}

// terrainRow draws walls as '#', swamps as '~' and plains as '.'.
func terrainRow(terrain model.EncodedTerrain, y int) string {
	var b strings.Builder
	for x := 0; x < 50; x++ {
		mask := terrain.At(x, y)
		switch {
		case mask < 0:
			b.WriteByte('?')
		case mask&model.TerrainWall != 0:
			b.WriteByte('#')
		case mask&model.TerrainSwamp != 0:
			b.WriteByte('~')
		default:
			b.WriteByte('.')
		}
	}
	return b.String()
}

// RoomStatusView prints novice and respawn state.
type RoomStatusView struct {
	Room     string
	Shard    string
	Response *model.RoomStatusResponse
}

func (v RoomStatusView) Data() any { return v.Response }

func (v RoomStatusView) Table() Table {
	t := Table{
		Title:  roomTitle(v.Room, v.Shard),
		Header: []any{"Status", "Novice Until", "Respawn Until"},
	}
	if status := v.Response.Room; status != nil {
		t.Rows = append(t.Rows, []any{status.Status, formatMillis(status.Novice), formatMillis(status.RespawnArea)})
	}
	return t
}

// ShardsView prints every shard of the server.
type ShardsView struct {
	Response *model.ShardsInfoResponse
}

func (v ShardsView) Data() any { return v.Response }

func (v ShardsView) Table() Table {
	t := Table{Header: []any{"Shard", "Rooms", "Users", "CPU Limit", "Tick (ms)"}}
	rooms, users := 0, 0
	for _, shard := range v.Response.Shards {
		rooms += shard.Rooms
		users += shard.Users
		t.Rows = append(t.Rows, []any{shard.Name, shard.Rooms, shard.Users, shard.CPULimit, strconv.FormatFloat(shard.Tick, 'f', 1, 64)})
	}
	t.Footer = []any{"total", rooms, users, "", ""}
	return t
}

// TimeView prints the current game tick.
type TimeView struct {
	Shard    string
	Response *model.GameTimeResponse
}

func (v TimeView) Data() any { return v.Response }

func (v TimeView) Table() Table {
	shard := v.Shard
	if shard == "" {
		shard = "-"
	}
	return Table{
		Header: []any{"Shard", "Tick"},
		Rows:   [][]any{{shard, v.Response.Time}},
	}
}

// LevelsView prints a player's control and power levels.
type LevelsView struct {
	Levels *insight.Levels
}

func (v LevelsView) Data() any { return v.Levels }

func (v LevelsView) Table() Table {
	l := v.Levels
	return Table{
		Title:  l.Username,
		Header: []any{"Metric", "Level", "Points"},
		Rows: [][]any{
			{"GCL", l.GCL, l.Points},
			{"GPL", l.GPL, l.Power},
		},
	}
}

// ResourcesView prints resource totals per shard.
type ResourcesView struct {
	Username  string
	Resources insight.Resources
}

func (v ResourcesView) Data() any { return v.Resources }

func (v ResourcesView) Table() Table {
	t := Table{
		Title:  v.Username,
		Header: []any{"Shard", "Resource", "Amount"},
	}
	grand := 0
	for _, shard := range v.Resources.Shards() {
		totals := v.Resources[shard]
		for _, resource := range sortedKeys(totals) {
			grand += totals[resource]
			t.Rows = append(t.Rows, []any{shard, resource, totals[resource]})
		}
	}
	t.Footer = []any{"", "total", grand}
	return t
}

// RateLimitsView prints a registry snapshot.
type RateLimitsView struct {
	Entries []ratelimit.Entry
}

func (v RateLimitsView) Data() any { return v.Entries }

func (v RateLimitsView) Table() Table {
	t := Table{Header: []any{"Method", "Path", "Limit", "Remaining", "Resets"}}
	for _, entry := range v.Entries {
		t.Rows = append(t.Rows, rateLimitRow(entry))
	}
	return t
}

// RateLimitRecordsView prints stored rate-limit rows.
type RateLimitRecordsView struct {
	Records []store.RateLimitRecord
}

type rateLimitRecord struct {
	ratelimit.Entry `yaml:",inline"`
	UpdatedAt       time.Time `json:"updated_at" yaml:"updated_at"`
}

func (v RateLimitRecordsView) Data() any {
	records := make([]rateLimitRecord, 0, len(v.Records))
	for _, record := range v.Records {
		records = append(records, rateLimitRecord{Entry: record.Entry, UpdatedAt: record.UpdatedAt})
	}
	return records
}

func (v RateLimitRecordsView) Table() Table {
	t := Table{Header: []any{"Method", "Path", "Limit", "Remaining", "Resets", "Saved"}}
	for _, record := range v.Records {
		row := rateLimitRow(record.Entry)
		row = append(row, record.UpdatedAt.Format(time.RFC3339))
		t.Rows = append(t.Rows, row)
	}
	t.Footer = []any{"", fmt.Sprintf("%d entries", len(v.Records)), "", "", "", ""}
	return t
}

func rateLimitRow(entry ratelimit.Entry) []any {
	method, path := string(entry.Method), entry.Path
	if entry.Global() {
		method, path = "*", "(global)"
	}
	resets := "-"
	if entry.RateLimit.Reset > 0 {
		resets = entry.RateLimit.ResetAt().UTC().Format(time.RFC3339)
	}
	return []any{
		method,
		path,
		fmt.Sprintf("%d/%s", entry.RateLimit.Limit, entry.RateLimit.Period),
		entry.RateLimit.Remaining,
		resets,
	}
}

func roomTitle(room, shard string) string {
	if shard == "" {
		return room
	}
	return shard + "/" + room
}

func objectOwner(object model.RoomObject) string {
	raw, err := json.Marshal(object)
	if err != nil {
		return ""
	}
	var owner struct {
		User string `json:"user"`
	}
	if err := json.Unmarshal(raw, &owner); err != nil {
		return ""
	}
	return owner.User
}

func formatStore(s model.Store) string {
	parts := make([]string, 0, len(s))
	for _, resource := range s.Resources() {
		if s[resource] == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s:%d", resource, s[resource]))
	}
	return strings.Join(parts, " ")
}

func formatMillis(ms *int64) string {
	if ms == nil || *ms == 0 {
		return "-"
	}
	return time.UnixMilli(*ms).UTC().Format(time.RFC3339)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
