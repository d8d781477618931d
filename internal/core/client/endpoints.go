package client

import (
	"context"

	"github.com/screepskit/screepskit/internal/core/model"
)

// API paths served by the typed endpoint methods.
const (
	PathMe          = "/auth/me"
	PathUsername    = "/user/name"
	PathUserFind    = "/user/find"
	PathUserRooms   = "/user/rooms"
	PathRoomObjects = "/game/room-objects"
	PathRoomTerrain = "/game/room-terrain"
	PathRoomStatus  = "/game/room-status"
	PathShardsInfo  = "/game/shards/info"
	PathGameTime    = "/game/time"
)

// API is the read surface used by higher-level helpers. *Client implements it.
type API interface {
	FindUserByName(ctx context.Context, username string) (*model.UserResponse, error)
	UserRooms(ctx context.Context, userID string) (*model.UserRoomsResponse, error)
	RoomObjects(ctx context.Context, room, shard string) (*model.RoomObjectsResponse, error)
}

var _ API = (*Client)(nil)

// Me returns the authenticated account.
func (c *Client) Me(ctx context.Context) (*model.MeResponse, error) {
	var resp model.MeResponse
	if err := c.Get(ctx, PathMe, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Username returns the authenticated account's username.
func (c *Client) Username(ctx context.Context) (*model.UsernameResponse, error) {
	var resp model.UsernameResponse
	if err := c.Get(ctx, PathUsername, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FindUserByName looks up a player by username.
func (c *Client) FindUserByName(ctx context.Context, username string) (*model.UserResponse, error) {
	return c.findUser(ctx, map[string]string{"username": username})
}

// FindUserByID looks up a player by id.
func (c *Client) FindUserByID(ctx context.Context, id string) (*model.UserResponse, error) {
	return c.findUser(ctx, map[string]string{"id": id})
}

func (c *Client) findUser(ctx context.Context, query map[string]string) (*model.UserResponse, error) {
	var resp model.UserResponse
	if err := c.Get(ctx, PathUserFind, query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UserRooms lists the rooms a player owns, grouped by shard.
func (c *Client) UserRooms(ctx context.Context, userID string) (*model.UserRoomsResponse, error) {
	var resp model.UserRoomsResponse
	if err := c.Get(ctx, PathUserRooms, map[string]string{"id": userID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RoomObjects returns every object in a room.
func (c *Client) RoomObjects(ctx context.Context, room, shard string) (*model.RoomObjectsResponse, error) {
	var resp model.RoomObjectsResponse
	if err := c.Get(ctx, PathRoomObjects, roomQuery(room, shard), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RoomTerrain returns the non-plain cells of a room.
func (c *Client) RoomTerrain(ctx context.Context, room, shard string) (*model.RoomTerrainResponse, error) {
	var resp model.RoomTerrainResponse
	if err := c.Get(ctx, PathRoomTerrain, roomQuery(room, shard), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RoomTerrainEncoded returns a room's terrain as one encoded string. It is
// served by the terrain endpoint and draws from the same quota.
func (c *Client) RoomTerrainEncoded(ctx context.Context, room, shard string) (*model.EncodedRoomTerrainResponse, error) {
	query := roomQuery(room, shard)
	query["encoded"] = "true"

	var resp model.EncodedRoomTerrainResponse
	if err := c.Get(ctx, PathRoomTerrain, query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RoomStatus returns novice and respawn zone state for a room.
func (c *Client) RoomStatus(ctx context.Context, room, shard string) (*model.RoomStatusResponse, error) {
	var resp model.RoomStatusResponse
	if err := c.Get(ctx, PathRoomStatus, roomQuery(room, shard), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ShardsInfo lists the game shards.
func (c *Client) ShardsInfo(ctx context.Context) (*model.ShardsInfoResponse, error) {
	var resp model.ShardsInfoResponse
	if err := c.Get(ctx, PathShardsInfo, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GameTime returns the current tick of a shard.
func (c *Client) GameTime(ctx context.Context, shard string) (*model.GameTimeResponse, error) {
	var query map[string]string
	if shard != "" {
		query = map[string]string{"shard": shard}
	}

	var resp model.GameTimeResponse
	if err := c.Get(ctx, PathGameTime, query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func roomQuery(room, shard string) map[string]string {
	query := map[string]string{"room": room}
	if shard != "" {
		query["shard"] = shard
	}
	return query
}
