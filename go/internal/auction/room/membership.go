package room

import (
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/bidroom/go/internal/auction/protocol"
	"github.com/mcdev12/bidroom/go/internal/models"
)

// handleDetach is a transport disconnect. The participant keeps its seat for the reconnect
// grace period; host status moves to a connected participant right away so the countdown
// does not stall.
func (r *Room) handleDetach(pid string, client Client) {
	p, ok := r.state.Players[pid]
	if !ok {
		return
	}
	attached, ok := r.clients[pid]
	if !ok || attached.ID() != client.ID() {
		// An older connection of a participant that already reconnected.
		return
	}

	delete(r.clients, pid)
	p.Connected = false

	log.Info().Str("room_code", r.code).Str("participant", p.Name).Msg("participant disconnected")

	if r.opts.ReconnectGrace <= 0 {
		r.removeParticipant(pid, "disconnected")
		return
	}

	if r.state.HostID == pid {
		if next := r.nextHost(pid, true); next != nil {
			r.setHost(next)
			r.broadcast(protocol.HostChanged{HostID: next.ID, RoomData: r.state.Snapshot()}, "")
		}
	}

	if len(r.clients) == 0 {
		log.Info().Str("room_code", r.code).Msg("no connected participants left")
	}

	r.startGrace(pid)
}

func (r *Room) startGrace(pid string) {
	r.stopGrace(pid)

	r.graceSeq++
	seq := r.graceSeq
	t := r.deps.Clock.AfterFunc(r.opts.ReconnectGrace, func() {
		r.post(graceExpired{participantID: pid, seq: seq})
	})
	r.grace[pid] = graceTimer{timer: t, seq: seq}
}

func (r *Room) stopGrace(pid string) {
	if g, ok := r.grace[pid]; ok {
		g.timer.Stop()
		delete(r.grace, pid)
	}
}

func (r *Room) handleGraceExpired(pid string, seq uint64) {
	g, ok := r.grace[pid]
	if !ok || g.seq != seq {
		return
	}
	delete(r.grace, pid)

	p, ok := r.state.Players[pid]
	if !ok || p.Connected {
		return
	}
	log.Info().Str("room_code", r.code).Str("participant", p.Name).Msg("reconnect grace expired")
	r.removeParticipant(pid, "disconnected")
}

// removeParticipant drops a participant for good and closes the room when it was the last one.
func (r *Room) removeParticipant(pid, reason string) {
	p, ok := r.state.Players[pid]
	if !ok {
		return
	}
	r.stopGrace(pid)
	delete(r.state.Players, pid)
	delete(r.clients, pid)

	log.Info().
		Str("room_code", r.code).
		Str("participant", p.Name).
		Str("reason", reason).
		Int("remaining", len(r.state.Players)).
		Msg("participant removed")

	if len(r.state.Players) == 0 {
		r.closing, r.reason = true, "empty"
		return
	}

	if r.state.HostID == pid {
		next := r.nextHost(pid, false)
		r.setHost(next)
		r.broadcast(protocol.HostChanged{HostID: next.ID, RoomData: r.state.Snapshot()}, "")
	}
	r.broadcast(protocol.PlayerLeft{PlayerName: p.Name, RoomData: r.state.Snapshot()}, "")
}

// nextHost picks the successor of the host: the longest-standing connected participant,
// falling back to any participant unless connectedOnly is set.
func (r *Room) nextHost(exclude string, connectedOnly bool) *models.Participant {
	candidates := make([]*models.Participant, 0, len(r.state.Players))
	for id, p := range r.state.Players {
		if id == exclude || (connectedOnly && !p.Connected) {
			continue
		}
		candidates = append(candidates, p)
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Connected != b.Connected {
			return a.Connected
		}
		if !a.JoinedAt.Equal(b.JoinedAt) {
			return a.JoinedAt.Before(b.JoinedAt)
		}
		return a.ID < b.ID
	})
	return candidates[0]
}

// setHost makes p the one and only host. Reports whether the host changed.
func (r *Room) setHost(p *models.Participant) bool {
	if p == nil || r.state.HostID == p.ID {
		return false
	}
	prev := r.state.HostID
	for _, other := range r.state.Players {
		other.IsHost = other.ID == p.ID
	}
	r.state.HostID = p.ID

	log.Info().
		Str("room_code", r.code).
		Str("previous_host_id", prev).
		Str("host", p.Name).
		Str("status", string(r.state.AuctionState.Status)).
		Int("time_left", r.state.AuctionState.TimeLeft).
		Msg("host transferred")
	return true
}
