package model

// TerrainCell is one non-plain cell from GET /game/room-terrain.
type TerrainCell struct {
	Room string `json:"room" yaml:"room"`
	X    int    `json:"x" yaml:"x"`
	Y    int    `json:"y" yaml:"y"`
	Type string `json:"type" yaml:"type"`
}

// RoomTerrainResponse is returned by GET /game/room-terrain.
type RoomTerrainResponse struct {
	Envelope `yaml:",inline"`
	Terrain  []TerrainCell `json:"terrain,omitempty" yaml:"terrain,omitempty"`
}

// EncodedTerrain carries a room's 2500-character terrain string, one digit
// per cell in row-major order.
type EncodedTerrain struct {
	ID      string `json:"_id" yaml:"id"`
	Room    string `json:"room" yaml:"room"`
	Terrain string `json:"terrain" yaml:"terrain"`
	Type    string `json:"type" yaml:"type"`
}

// Terrain bit flags used in encoded terrain strings.
const (
	TerrainPlain = 0
	TerrainWall  = 1
	TerrainSwamp = 2
)

// At returns the terrain mask of cell (x, y), or -1 when out of range.
func (t EncodedTerrain) At(x, y int) int {
	if x < 0 || x >= 50 || y < 0 || y >= 50 {
		return -1
	}
	idx := y*50 + x
	if idx >= len(t.Terrain) {
		return -1
	}
	c := t.Terrain[idx]
	if c < '0' || c > '9' {
		return -1
	}
	return int(c - '0')
}

// EncodedRoomTerrainResponse is returned by GET /game/room-terrain?encoded=1.
type EncodedRoomTerrainResponse struct {
	Envelope `yaml:",inline"`
	Terrain  []EncodedTerrain `json:"terrain,omitempty" yaml:"terrain,omitempty"`
}

// RoomStatus describes novice/respawn zone state of a room.
type RoomStatus struct {
	ID          string `json:"_id" yaml:"id"`
	Status      string `json:"status" yaml:"status"`
	Novice      *int64 `json:"novice,omitempty" yaml:"novice,omitempty"`
	RespawnArea *int64 `json:"respawnArea,omitempty" yaml:"respawn_area,omitempty"`
	OpenTime    any    `json:"openTime,omitempty" yaml:"open_time,omitempty"`
}

// RoomStatusResponse is returned by GET /game/room-status.
type RoomStatusResponse struct {
	Envelope `yaml:",inline"`
	Room     *RoomStatus `json:"room,omitempty" yaml:"room,omitempty"`
}

// Shard describes one game-world partition.
type Shard struct {
	Name      string    `json:"name" yaml:"name"`
	LastTicks []float64 `json:"lastTicks,omitempty" yaml:"last_ticks,omitempty"`
	CPULimit  int       `json:"cpuLimit" yaml:"cpu_limit"`
	Rooms     int       `json:"rooms" yaml:"rooms"`
	Users     int       `json:"users" yaml:"users"`
	Tick      float64   `json:"tick" yaml:"tick"`
}

// ShardsInfoResponse is returned by GET /game/shards/info.
type ShardsInfoResponse struct {
	Envelope `yaml:",inline"`
	Shards   []Shard `json:"shards,omitempty" yaml:"shards,omitempty"`
}

// GameTimeResponse is returned by GET /game/time.
type GameTimeResponse struct {
	Envelope `yaml:",inline"`
	Time     int64 `json:"time" yaml:"time"`
}
