package models

import "time"

// ChatMessage is a relayed chat line; the core never interprets it.
type ChatMessage struct {
	PlayerID   string    `json:"player_id"`
	PlayerName string    `json:"player_name"`
	Team       string    `json:"team"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

// Room is the canonical snapshot of one auction room. It is what clients receive as room_data.
type Room struct {
	Code              string                  `json:"room_code"`
	HostID            string                  `json:"host_id"`
	AuctionMode       AuctionMode             `json:"auction_mode"`
	TimerDuration     int                     `json:"timer_duration"`
	MaxParticipants   int                     `json:"max_participants"`
	MaxPlayersPerTeam int                     `json:"max_players_per_team"`
	MaxForeignPlayers int                     `json:"max_foreign_players"`
	Players           map[string]*Participant `json:"players"`
	AuctionState      AuctionState            `json:"auction_state"`
	ChatMessages      []ChatMessage           `json:"chat_messages"`
	CreatedAt         time.Time               `json:"created_at"`
}

// Host returns the participant currently holding host status.
func (r *Room) Host() *Participant {
	return r.Players[r.HostID]
}

// ParticipantByName finds a participant by display name.
func (r *Room) ParticipantByName(name string) *Participant {
	for _, p := range r.Players {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// TeamHolder returns the participant holding a team, if any.
func (r *Room) TeamHolder(team string) *Participant {
	for _, p := range r.Players {
		if p.Team == team {
			return p
		}
	}
	return nil
}

// Snapshot returns a deep copy suitable for sending to clients.
func (r *Room) Snapshot() *Room {
	cp := *r
	cp.Players = make(map[string]*Participant, len(r.Players))
	for id, p := range r.Players {
		cp.Players[id] = p.Clone()
	}
	cp.AuctionState = r.AuctionState.Clone()
	cp.ChatMessages = append([]ChatMessage(nil), r.ChatMessages...)
	return &cp
}
