package model

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/valyala/fastjson"
)

// ObjectKind is the "type" discriminator of a room object.
type ObjectKind string

const (
	KindSource          ObjectKind = "source"
	KindMineral         ObjectKind = "mineral"
	KindConstructedWall ObjectKind = "constructedWall"
	KindRoad            ObjectKind = "road"
	KindController      ObjectKind = "controller"
	KindSpawn           ObjectKind = "spawn"
	KindExtension       ObjectKind = "extension"
	KindStorage         ObjectKind = "storage"
	KindTower           ObjectKind = "tower"
	KindRampart         ObjectKind = "rampart"
	KindExtractor       ObjectKind = "extractor"
	KindTerminal        ObjectKind = "terminal"
	KindObserver        ObjectKind = "observer"
	KindPowerSpawn      ObjectKind = "powerSpawn"
	KindNuker           ObjectKind = "nuker"
	KindFactory         ObjectKind = "factory"
	KindLab             ObjectKind = "lab"
	KindCreep           ObjectKind = "creep"
	KindPowerCreep      ObjectKind = "powerCreep"
)

var objectKinds = map[ObjectKind]func() any{
	KindSource:          func() any { return &Source{} },
	KindMineral:         func() any { return &Mineral{} },
	KindConstructedWall: func() any { return &ConstructedWall{} },
	KindRoad:            func() any { return &Road{} },
	KindController:      func() any { return &Controller{} },
	KindSpawn:           func() any { return &Spawn{} },
	KindExtension:       func() any { return &Extension{} },
	KindStorage:         func() any { return &Storage{} },
	KindTower:           func() any { return &Tower{} },
	KindRampart:         func() any { return &Rampart{} },
	KindExtractor:       func() any { return &Extractor{} },
	KindTerminal:        func() any { return &Terminal{} },
	KindObserver:        func() any { return &Observer{} },
	KindPowerSpawn:      func() any { return &PowerSpawn{} },
	KindNuker:           func() any { return &Nuker{} },
	KindFactory:         func() any { return &Factory{} },
	KindLab:             func() any { return &Lab{} },
	KindCreep:           func() any { return &Creep{} },
	KindPowerCreep:      func() any { return &PowerCreep{} },
}

// Known reports whether k has a dedicated decoded type.
func (k ObjectKind) Known() bool {
	_, ok := objectKinds[k]
	return ok
}

// storeKinds are the kinds whose payload carries a resource store.
var storeKinds = map[ObjectKind]bool{
	KindStorage:    true,
	KindTerminal:   true,
	KindFactory:    true,
	KindLab:        true,
	KindCreep:      true,
	KindPowerCreep: true,
	KindSpawn:      true,
	KindExtension:  true,
	KindTower:      true,
	KindPowerSpawn: true,
	KindNuker:      true,
}

var objectParsers fastjson.ParserPool

// RoomObject is a tagged variant over every in-game object kind. Value holds
// a pointer to the concrete type for Kind, or *UnknownObject when the kind is
// not recognized.
type RoomObject struct {
	Kind  ObjectKind
	Base  BaseObject
	Value any

	store Store
}

// UnmarshalJSON parses the object once to read the "type" discriminator, the
// common fields and the resource store, then decodes the concrete kind.
func (o *RoomObject) UnmarshalJSON(data []byte) error {
	p := objectParsers.Get()
	defer objectParsers.Put(p)

	v, err := p.ParseBytes(data)
	if err != nil {
		return fmt.Errorf("decode room object: %w", err)
	}
	if v.Type() != fastjson.TypeObject {
		return fmt.Errorf("decode room object: expected object, got %s", v.Type())
	}

	base, err := parseBase(v)
	if err != nil {
		return fmt.Errorf("decode room object: %w", err)
	}
	store, err := parseStore(v.Get("store"))
	if err != nil {
		return fmt.Errorf("decode room object %s: %w", base.ID, err)
	}

	o.Kind = base.Type
	o.Base = base
	o.store = store

	ctor, ok := objectKinds[base.Type]
	if !ok {
		raw := make(json.RawMessage, len(data))
		copy(raw, data)
		o.Value = &UnknownObject{Kind: base.Type, Raw: raw}
		return nil
	}

	value := ctor()
	if err := json.Unmarshal(data, value); err != nil {
		return fmt.Errorf("decode %s object %s: %w", base.Type, base.ID, err)
	}
	o.Value = value
	return nil
}

func parseBase(v *fastjson.Value) (BaseObject, error) {
	var (
		base BaseObject
		err  error
	)
	if base.ID, err = optionalString(v, "_id"); err != nil {
		return base, err
	}
	kind, err := optionalString(v, "type")
	if err != nil {
		return base, err
	}
	base.Type = ObjectKind(kind)
	if base.X, err = optionalInt(v, "x"); err != nil {
		return base, err
	}
	if base.Y, err = optionalInt(v, "y"); err != nil {
		return base, err
	}
	if base.Room, err = optionalString(v, "room"); err != nil {
		return base, err
	}
	return base, nil
}

func optionalString(v *fastjson.Value, key string) (string, error) {
	field := v.Get(key)
	if field == nil || field.Type() == fastjson.TypeNull {
		return "", nil
	}
	b, err := field.StringBytes()
	if err != nil {
		return "", fmt.Errorf("field %q: %w", key, err)
	}
	return string(b), nil
}

func optionalInt(v *fastjson.Value, key string) (int, error) {
	field := v.Get(key)
	if field == nil || field.Type() == fastjson.TypeNull {
		return 0, nil
	}
	n, err := field.Int()
	if err != nil {
		return 0, fmt.Errorf("field %q: %w", key, err)
	}
	return n, nil
}

// parseStore reads a resource store. Null amounts count as zero.
func parseStore(v *fastjson.Value) (Store, error) {
	if v == nil || v.Type() == fastjson.TypeNull {
		return nil, nil
	}
	obj, err := v.Object()
	if err != nil {
		return nil, fmt.Errorf("field \"store\": %w", err)
	}
	store := make(Store, obj.Len())
	obj.Visit(func(key []byte, amount *fastjson.Value) {
		if err != nil {
			return
		}
		if amount.Type() == fastjson.TypeNull {
			store[string(key)] = 0
			return
		}
		n, intErr := amount.Int()
		if intErr != nil {
			err = fmt.Errorf("store amount %q: %w", key, intErr)
			return
		}
		store[string(key)] = n
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// MarshalJSON emits the concrete value, or the raw payload for unknown kinds.
func (o RoomObject) MarshalJSON() ([]byte, error) {
	switch v := o.Value.(type) {
	case nil:
		return json.Marshal(o.Base)
	case *UnknownObject:
		if len(v.Raw) > 0 {
			return v.Raw, nil
		}
		return json.Marshal(o.Base)
	default:
		return json.Marshal(v)
	}
}

// Store returns the resource store of objects that carry one, as read
// while decoding.
func (o RoomObject) Store() (Store, bool) {
	if !storeKinds[o.Kind] {
		return nil, false
	}
	return o.store, true
}

// UnknownObject keeps the raw payload of an unrecognized kind.
type UnknownObject struct {
	Kind ObjectKind
	Raw  json.RawMessage
}

// BaseObject holds the fields every room object carries.
type BaseObject struct {
	ID   string     `json:"_id"`
	Type ObjectKind `json:"type"`
	X    int        `json:"x"`
	Y    int        `json:"y"`
	Room string     `json:"room"`
}

// Store maps resource types to amounts. Null amounts decode as zero.
type Store map[string]int

// Total sums every resource in the store.
func (s Store) Total() int {
	total := 0
	for _, amount := range s {
		total += amount
	}
	return total
}

// Resources returns the resource names in sorted order.
func (s Store) Resources() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Structure holds the fields shared by owned, damageable structures.
type Structure struct {
	Hits               int    `json:"hits"`
	HitsMax            int    `json:"hitsMax"`
	User               string `json:"user,omitempty"`
	NotifyWhenAttacked bool   `json:"notifyWhenAttacked"`
}

// Effect is an active power effect on an object.
type Effect struct {
	Effect  int   `json:"effect"`
	Power   int   `json:"power"`
	Level   int   `json:"level"`
	EndTime int64 `json:"endTime"`
}

type Source struct {
	BaseObject
	Energy               int    `json:"energy"`
	EnergyCapacity       int    `json:"energyCapacity"`
	TicksToRegeneration  int    `json:"ticksToRegeneration"`
	InvaderHarvested     int    `json:"invaderHarvested"`
	NextRegenerationTime *int64 `json:"nextRegenerationTime,omitempty"`
}

type Mineral struct {
	BaseObject
	MineralType          string `json:"mineralType"`
	MineralAmount        int    `json:"mineralAmount"`
	Density              int    `json:"density,omitempty"`
	NextRegenerationTime *int64 `json:"nextRegenerationTime,omitempty"`
}

type ConstructedWall struct {
	BaseObject
	Structure
}

type Road struct {
	BaseObject
	Structure
	NextDecayTime *int64 `json:"nextDecayTime,omitempty"`
}

// Reservation is a controller reservation.
type Reservation struct {
	User    string `json:"user"`
	EndTime int64  `json:"endTime"`
}

// Sign is a controller sign.
type Sign struct {
	User     string `json:"user"`
	Time     int64  `json:"time"`
	Text     string `json:"text"`
	DateTime int64  `json:"datetime"`
}

type Controller struct {
	BaseObject
	Level             int          `json:"level"`
	Progress          *int64       `json:"progress,omitempty"`
	ProgressTotal     *int64       `json:"progressTotal,omitempty"`
	User              string       `json:"user,omitempty"`
	DowngradeTime     *int64       `json:"downgradeTime,omitempty"`
	SafeMode          *int64       `json:"safeMode,omitempty"`
	SafeModeAvailable *int         `json:"safeModeAvailable,omitempty"`
	SafeModeCooldown  *int64       `json:"safeModeCooldown,omitempty"`
	UpgradeBlocked    *int64       `json:"upgradeBlocked,omitempty"`
	Reservation       *Reservation `json:"reservation,omitempty"`
	Sign              *Sign        `json:"sign,omitempty"`
	IsPowerEnabled    bool         `json:"isPowerEnabled"`
	Effects           []Effect     `json:"effects,omitempty"`
}

// Spawning describes the creep a spawn is producing.
type Spawning struct {
	Name          string `json:"name"`
	NeedTime      int    `json:"needTime"`
	SpawnTime     int64  `json:"spawnTime"`
	RemainingTime int    `json:"remainingTime,omitempty"`
}

type Spawn struct {
	BaseObject
	Structure
	Name                  string    `json:"name"`
	Spawning              *Spawning `json:"spawning,omitempty"`
	Off                   bool      `json:"off"`
	Store                 Store     `json:"store"`
	StoreCapacityResource Store     `json:"storeCapacityResource"`
}

type Extension struct {
	BaseObject
	Structure
	Off                   bool  `json:"off"`
	Store                 Store `json:"store"`
	StoreCapacityResource Store `json:"storeCapacityResource"`
}

type Storage struct {
	BaseObject
	Structure
	Store         Store `json:"store"`
	StoreCapacity *int  `json:"storeCapacity,omitempty"`
}

// ActionLog records the last actions of a tower.
type ActionLog struct {
	Attack any `json:"attack,omitempty"`
	Heal   any `json:"heal,omitempty"`
	Repair any `json:"repair,omitempty"`
}

type Tower struct {
	BaseObject
	Structure
	Store                 Store     `json:"store"`
	StoreCapacityResource Store     `json:"storeCapacityResource"`
	ActionLog             ActionLog `json:"actionLog"`
}

type Rampart struct {
	BaseObject
	Structure
	IsPublic      bool   `json:"isPublic"`
	NextDecayTime *int64 `json:"nextDecayTime,omitempty"`
}

type Extractor struct {
	BaseObject
	Structure
	Cooldown int `json:"cooldown"`
}

type Terminal struct {
	BaseObject
	Structure
	Store         Store  `json:"store"`
	StoreCapacity *int   `json:"storeCapacity,omitempty"`
	CooldownTime  *int64 `json:"cooldownTime,omitempty"`
	Send          any    `json:"send,omitempty"`
}

type Observer struct {
	BaseObject
	Structure
	ObserveRoom *string `json:"observeRoom,omitempty"`
}

type PowerSpawn struct {
	BaseObject
	Structure
	Store                 Store `json:"store"`
	StoreCapacityResource Store `json:"storeCapacityResource"`
}

type Nuker struct {
	BaseObject
	Structure
	Store                 Store  `json:"store"`
	StoreCapacityResource Store  `json:"storeCapacityResource"`
	CooldownTime          *int64 `json:"cooldownTime,omitempty"`
}

type Factory struct {
	BaseObject
	Structure
	Store         Store  `json:"store"`
	StoreCapacity *int   `json:"storeCapacity,omitempty"`
	Cooldown      *int   `json:"cooldown,omitempty"`
	CooldownTime  *int64 `json:"cooldownTime,omitempty"`
	Level         *int   `json:"level,omitempty"`
}

type Lab struct {
	BaseObject
	Structure
	Cooldown              *int   `json:"cooldown,omitempty"`
	CooldownTime          *int64 `json:"cooldownTime,omitempty"`
	Store                 Store  `json:"store"`
	StoreCapacity         *int   `json:"storeCapacity,omitempty"`
	StoreCapacityResource Store  `json:"storeCapacityResource"`
	MineralAmount         *int   `json:"mineralAmount,omitempty"`
}

// BodyPart is one creep body part.
type BodyPart struct {
	Type  string `json:"type"`
	Hits  int    `json:"hits"`
	Boost string `json:"boost,omitempty"`
}

type Creep struct {
	BaseObject
	Structure
	Name          string     `json:"name"`
	Spawning      *bool      `json:"spawning,omitempty"`
	Fatigue       *int       `json:"fatigue,omitempty"`
	Body          []BodyPart `json:"body,omitempty"`
	Store         Store      `json:"store"`
	StoreCapacity *int       `json:"storeCapacity,omitempty"`
	AgeTime       *int64     `json:"ageTime,omitempty"`
}

// PowerInfo is the level and cooldown of one power creep ability.
type PowerInfo struct {
	Level        int    `json:"level"`
	CooldownTime *int64 `json:"cooldownTime,omitempty"`
}

type PowerCreep struct {
	BaseObject
	Structure
	Name          string               `json:"name"`
	ClassName     string               `json:"className"`
	Level         int                  `json:"level"`
	Store         Store                `json:"store"`
	StoreCapacity *int                 `json:"storeCapacity,omitempty"`
	Powers        map[string]PowerInfo `json:"powers,omitempty"`
	AgeTime       *int64               `json:"ageTime,omitempty"`
}

// RoomObjectsResponse is returned by GET /game/room-objects.
type RoomObjectsResponse struct {
	Envelope `yaml:",inline"`
	Objects  []RoomObject    `json:"objects,omitempty" yaml:"-"`
	Users    map[string]User `json:"users,omitempty" yaml:"users,omitempty"`
}

// CountByKind tallies decoded objects per kind.
func (r *RoomObjectsResponse) CountByKind() map[ObjectKind]int {
	counts := make(map[ObjectKind]int)
	if r == nil {
		return counts
	}
	for _, object := range r.Objects {
		counts[object.Kind]++
	}
	return counts
}
