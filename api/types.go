// Package api holds the Battlesnake HTTP API request/response types.
// See https://docs.battlesnake.com/api
package api

import "github.com/brensch/snekgrid/game"

type InfoResponse struct {
	APIVersion string `json:"apiversion"`
	Author     string `json:"author"`
	Color      string `json:"color"`
	Head       string `json:"head"`
	Tail       string `json:"tail"`
	Version    string `json:"version"`
}

type GameRequest struct {
	Game  Game       `json:"game"`
	Turn  int        `json:"turn"`
	Board game.Board `json:"board"`
	You   game.Snake `json:"you"`
}

type Game struct {
	ID      string  `json:"id"`
	Ruleset Ruleset `json:"ruleset"`
	Map     string  `json:"map"`
	Timeout int     `json:"timeout"`
	Source  string  `json:"source"`
}

type Ruleset struct {
	Name     string          `json:"name"`
	Version  string          `json:"version"`
	Settings RulesetSettings `json:"settings"`
}

type RulesetSettings struct {
	FoodSpawnChance     int            `json:"foodSpawnChance"`
	MinimumFood         int            `json:"minimumFood"`
	HazardDamagePerTurn int            `json:"hazardDamagePerTurn"`
	Royale              RoyaleSettings `json:"royale"`
	Squad               SquadSettings  `json:"squad"`
}

type RoyaleSettings struct {
	ShrinkEveryNTurns int `json:"shrinkEveryNTurns"`
}

// SquadSettings are decoded for completeness; squad rules are not simulated.
type SquadSettings struct {
	AllowBodyCollisions bool `json:"allowBodyCollisions"`
	SharedElimination   bool `json:"sharedElimination"`
	SharedHealth        bool `json:"sharedHealth"`
	SharedLength        bool `json:"sharedLength"`
}

type MoveResponse struct {
	Move  string `json:"move"`
	Shout string `json:"shout,omitempty"`
}

// Wrapped reports whether the game is played on a toroidal board.
func (r *GameRequest) Wrapped() bool {
	return game.ParseWrapped(r.Game.Ruleset.Name)
}

// HazardDamage is the per-turn damage of a hazard cell.
func (r *GameRequest) HazardDamage() int {
	return r.Game.Ruleset.Settings.HazardDamagePerTurn
}
