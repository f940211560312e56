package room

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/bidroom/go/internal/auction/bid"
	"github.com/mcdev12/bidroom/go/internal/auction/events"
	"github.com/mcdev12/bidroom/go/internal/auction/protocol"
	"github.com/mcdev12/bidroom/go/internal/auction/queue"
	"github.com/mcdev12/bidroom/go/internal/auction/settlement"
	"github.com/mcdev12/bidroom/go/internal/models"
)

const queueBuildTimeout = 10 * time.Second

func (r *Room) dispatch(ctx context.Context, req inbound) (string, error) {
	switch msg := req.msg.(type) {
	case protocol.CreateRoom:
		return r.handleCreate(req.client, msg)
	case protocol.JoinRoom:
		return r.handleJoin(req.client, msg)
	case protocol.Reconnect:
		return r.handleReconnect(req.client, msg)
	}

	p, err := r.authenticate(req.participantID, req.client)
	if err != nil {
		return "", err
	}

	switch msg := req.msg.(type) {
	case protocol.LeaveRoom:
		r.handleLeave(p)
		return p.ID, nil
	case protocol.StartAuction:
		return p.ID, r.handleStartAuction(ctx, p, msg)
	case protocol.StartReauction:
		return p.ID, r.handleStartReauction(p, msg)
	case protocol.PlaceBid:
		return p.ID, r.handlePlaceBid(p, msg)
	case protocol.TimerTick:
		return p.ID, r.handleTimerTick(p, msg)
	case protocol.PauseAuction:
		return p.ID, r.handlePause(p)
	case protocol.ResumeAuction:
		return p.ID, r.handleResume(p)
	case protocol.ChangeTimer:
		return p.ID, r.handleChangeTimer(p, msg)
	case protocol.EndAuction:
		return p.ID, r.handleEndAuction(p)
	case protocol.SettleLot:
		return p.ID, r.handlePlayerSold(p, msg)
	case protocol.SendMessage:
		return p.ID, r.handleSendMessage(p, msg)
	case protocol.CreateRoom, protocol.JoinRoom, protocol.Reconnect, protocol.ListRooms:
		return p.ID, ErrUnsupported
	default:
		return p.ID, fmt.Errorf("%w: %s", ErrUnsupported, req.msg.Action())
	}
}

// authenticate resolves the issuing participant and checks the request came over the
// connection currently attached to it.
func (r *Room) authenticate(pid string, client Client) (*models.Participant, error) {
	p, ok := r.state.Players[pid]
	if !ok {
		return nil, ErrNotInRoom
	}
	attached, ok := r.clients[pid]
	if !ok || client == nil || attached.ID() != client.ID() {
		return nil, ErrNotInRoom
	}
	return p, nil
}

func (r *Room) requireHost(p *models.Participant) error {
	if r.state.HostID != p.ID {
		return ErrNotHost
	}
	return nil
}

// connectedCount excludes participants waiting out their reconnect grace.
func (r *Room) connectedCount() int {
	n := 0
	for _, p := range r.state.Players {
		if p.Connected {
			n++
		}
	}
	return n
}

func (r *Room) requireStatus(allowed ...models.AuctionStatus) error {
	for _, s := range allowed {
		if r.state.AuctionState.Status == s {
			return nil
		}
	}
	return fmt.Errorf("%w: auction is %s", ErrWrongPhase, r.state.AuctionState.Status)
}

// validateNewcomer returns the canonical display name and team abbreviation.
func (r *Room) validateNewcomer(name, team string) (string, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", ErrNameRequired
	}
	if r.state.ParticipantByName(name) != nil {
		return "", "", ErrNameTaken
	}
	t, ok := models.LookupTeam(team)
	if !ok {
		return "", "", ErrInvalidTeam
	}
	if r.state.TeamHolder(t.Abbr) != nil {
		return "", "", ErrTeamTaken
	}
	if r.opts.MaxParticipants > 0 && len(r.state.Players) >= r.opts.MaxParticipants {
		return "", "", ErrRoomFull
	}
	return name, t.Abbr, nil
}

func (r *Room) addParticipant(client Client, name, team string) *models.Participant {
	p := &models.Participant{
		ID:        uuid.NewString(),
		Name:      name,
		Team:      team,
		Purse:     r.opts.Purse,
		Connected: true,
		JoinedAt:  r.deps.Clock.Now().UTC(),
	}
	r.state.Players[p.ID] = p
	r.clients[p.ID] = client
	return p
}

func (r *Room) session(pid string) protocol.Session {
	return protocol.Session{RoomCode: r.code, PlayerID: pid, RoomData: r.state.Snapshot()}
}

func (r *Room) handleCreate(client Client, msg protocol.CreateRoom) (string, error) {
	if len(r.state.Players) > 0 {
		return "", fmt.Errorf("%w: room already has a host", ErrUnsupported)
	}
	mode, ok := models.ParseAuctionMode(msg.AuctionMode)
	if !ok {
		return "", ErrInvalidMode
	}
	name, team, err := r.validateNewcomer(msg.PlayerName, msg.Team)
	if err != nil {
		return "", err
	}

	r.state.AuctionMode = mode
	if msg.TimerDuration != nil {
		r.state.TimerDuration = models.NormalizeTimerDuration(*msg.TimerDuration)
	}

	p := r.addParticipant(client, name, team)
	p.IsHost = true
	r.state.HostID = p.ID

	r.send(p.ID, protocol.RoomCreated{Session: r.session(p.ID)})
	r.emit(events.EventTypeRoomCreated, events.RoomCreatedPayload{
		HostName:      p.Name,
		Team:          p.Team,
		AuctionMode:   string(mode),
		TimerDuration: r.state.TimerDuration,
	})

	log.Info().
		Str("room_code", r.code).
		Str("host", p.Name).
		Str("auction_mode", string(mode)).
		Int("timer_duration", r.state.TimerDuration).
		Msg("room created")

	return p.ID, nil
}

func (r *Room) handleJoin(client Client, msg protocol.JoinRoom) (string, error) {
	name, team, err := r.validateNewcomer(msg.PlayerName, msg.Team)
	if err != nil {
		return "", err
	}

	p := r.addParticipant(client, name, team)
	snap := r.state.Snapshot()

	r.send(p.ID, protocol.JoinedRoom{Session: protocol.Session{RoomCode: r.code, PlayerID: p.ID, RoomData: snap}})
	r.broadcast(protocol.PlayerJoined{PlayerName: p.Name, RoomData: snap}, "")

	log.Info().Str("room_code", r.code).Str("participant", p.Name).Str("team", p.Team).Msg("participant joined")
	return p.ID, nil
}

func (r *Room) handleReconnect(client Client, msg protocol.Reconnect) (string, error) {
	p, ok := r.state.Players[msg.PlayerID]
	if !ok {
		return "", ErrIdentityNotFound
	}

	r.stopGrace(p.ID)
	if old, ok := r.clients[p.ID]; ok && old.ID() != client.ID() {
		log.Warn().Str("room_code", r.code).Str("participant", p.Name).Msg("replacing live connection on reconnect")
	}
	r.clients[p.ID] = client
	p.Connected = true

	// A room whose host is gone hands the countdown to whoever comes back first.
	hostChanged := false
	if host := r.state.Host(); host == nil || !host.Connected {
		hostChanged = r.setHost(p)
	}

	r.send(p.ID, protocol.Reconnected{Session: r.session(p.ID)})
	if hostChanged {
		r.broadcast(protocol.HostChanged{HostID: p.ID, RoomData: r.state.Snapshot()}, "")
	}

	log.Info().
		Str("room_code", r.code).
		Str("participant", p.Name).
		Str("status", string(r.state.AuctionState.Status)).
		Int("time_left", r.state.AuctionState.TimeLeft).
		Msg("participant reconnected")
	return p.ID, nil
}

func (r *Room) handleLeave(p *models.Participant) {
	r.send(p.ID, protocol.LeftRoom{})
	r.removeParticipant(p.ID, "left")
}

func (r *Room) handleStartAuction(ctx context.Context, p *models.Participant, msg protocol.StartAuction) error {
	if err := r.requireHost(p); err != nil {
		return err
	}
	if err := r.requireStatus(models.AuctionStatusWaiting); err != nil {
		return err
	}
	if r.connectedCount() < 2 {
		return ErrNotEnoughParticipants
	}

	lots, err := r.buildQueue(ctx, msg.Queue)
	if err != nil {
		return err
	}

	r.activate(lots, false)
	return nil
}

func (r *Room) buildQueue(ctx context.Context, clientQueue []models.Lot) ([]models.Lot, error) {
	if r.deps.Queues == nil {
		if err := queue.Validate(clientQueue); err != nil {
			return nil, err
		}
		return append([]models.Lot(nil), clientQueue...), nil
	}

	ctx, cancel := context.WithTimeout(ctx, queueBuildTimeout)
	defer cancel()

	lots, err := r.deps.Queues.Queue(ctx, r.state.AuctionMode)
	if err != nil {
		return nil, fmt.Errorf("failed to build auction queue: %w", err)
	}
	if len(clientQueue) > 0 {
		log.Debug().Str("room_code", r.code).Msg("ignoring client supplied queue in favour of catalog")
	}
	return lots, nil
}

func (r *Room) handleStartReauction(p *models.Participant, msg protocol.StartReauction) error {
	if err := r.requireHost(p); err != nil {
		return err
	}
	if err := r.requireStatus(models.AuctionStatusEnded); err != nil {
		return err
	}
	if r.connectedCount() < 2 {
		return ErrNotEnoughParticipants
	}

	selected, remaining, err := settlement.SelectUnsold(r.state.AuctionState.UnsoldPlayers, msg.SelectedPlayers)
	if err != nil {
		return err
	}

	r.state.AuctionState.UnsoldPlayers = remaining
	r.state.AuctionState.Status = models.AuctionStatusWaiting
	r.activate(selected, true)
	return nil
}

// activate enters the active phase with a fixed queue. It is the single entry point for
// both the first auction and re-auctions.
func (r *Room) activate(lots []models.Lot, reauction bool) {
	st := &r.state.AuctionState
	st.Status = models.AuctionStatusActive
	st.Queue = lots
	st.CurrentPlayerIdx = 0
	st.CurrentBid = lots[0].BasePrice
	st.CurrentBidderID = ""
	st.BidHistory = nil
	st.TimeLeft = r.state.TimerDuration
	st.PausedBy = ""
	st.IsReauction = reauction
	if !reauction {
		st.SoldPlayers = nil
		st.UnsoldPlayers = nil
	}

	r.broadcast(protocol.AuctionStarted{RoomData: r.state.Snapshot()}, "")
	r.emit(events.EventTypeAuctionStarted, events.AuctionStartedPayload{
		Lots:         len(lots),
		Reauction:    reauction,
		Participants: len(r.state.Players),
	})

	log.Info().
		Str("room_code", r.code).
		Int("lots", len(lots)).
		Bool("is_reauction", reauction).
		Msg("auction started")
}

func (r *Room) bidLimits() bid.Limits {
	return bid.Limits{
		MaxSquad:          r.state.MaxPlayersPerTeam,
		MaxForeign:        r.state.MaxForeignPlayers,
		ForeignCapApplies: r.state.AuctionMode == models.AuctionModeMega,
	}
}

func (r *Room) handlePlaceBid(p *models.Participant, msg protocol.PlaceBid) error {
	st := &r.state.AuctionState
	if msg.PlayerIdx != nil && *msg.PlayerIdx != st.CurrentPlayerIdx {
		return fmt.Errorf("%w: bid was for lot %d", bid.ErrAuctionNotActive, *msg.PlayerIdx)
	}
	if err := bid.Place(p, msg.BidAmount, st, r.bidLimits(), r.deps.Clock.Now().UTC()); err != nil {
		return err
	}

	r.broadcast(protocol.BidPlaced{
		BidderName: p.Name,
		BidAmount:  msg.BidAmount,
		RoomData:   r.state.Snapshot(),
	}, "")

	log.Info().
		Str("room_code", r.code).
		Str("bidder", p.Name).
		Str("amount", msg.BidAmount.String()).
		Int("lot", st.CurrentPlayerIdx).
		Msg("bid accepted")
	return nil
}

func (r *Room) handleTimerTick(p *models.Participant, msg protocol.TimerTick) error {
	if err := r.requireHost(p); err != nil {
		return err
	}
	if err := r.requireStatus(models.AuctionStatusActive); err != nil {
		return err
	}
	if msg.TimeLeft < 0 {
		return ErrInvalidTick
	}

	r.state.AuctionState.TimeLeft = msg.TimeLeft
	r.broadcast(protocol.TimerUpdate{TimeLeft: msg.TimeLeft}, p.ID)
	return nil
}

func (r *Room) handlePause(p *models.Participant) error {
	if err := r.requireHost(p); err != nil {
		return err
	}
	if err := r.requireStatus(models.AuctionStatusActive); err != nil {
		return err
	}

	r.state.AuctionState.Status = models.AuctionStatusPaused
	r.state.AuctionState.PausedBy = p.Name
	r.broadcast(protocol.AuctionPaused{PausedBy: p.Name, RoomData: r.state.Snapshot()}, "")

	log.Info().Str("room_code", r.code).Int("time_left", r.state.AuctionState.TimeLeft).Msg("auction paused")
	return nil
}

func (r *Room) handleResume(p *models.Participant) error {
	if err := r.requireHost(p); err != nil {
		return err
	}
	if err := r.requireStatus(models.AuctionStatusPaused); err != nil {
		return err
	}

	r.state.AuctionState.Status = models.AuctionStatusActive
	r.state.AuctionState.PausedBy = ""
	r.broadcast(protocol.AuctionResumed{RoomData: r.state.Snapshot()}, "")

	log.Info().Str("room_code", r.code).Int("time_left", r.state.AuctionState.TimeLeft).Msg("auction resumed")
	return nil
}

func (r *Room) handleChangeTimer(p *models.Participant, msg protocol.ChangeTimer) error {
	if err := r.requireHost(p); err != nil {
		return err
	}

	r.state.TimerDuration = models.NormalizeTimerDuration(msg.TimerDuration)
	r.broadcast(protocol.TimerChanged{TimerDuration: r.state.TimerDuration, RoomData: r.state.Snapshot()}, "")

	log.Info().Str("room_code", r.code).Int("timer_duration", r.state.TimerDuration).Msg("timer changed")
	return nil
}

func (r *Room) handleEndAuction(p *models.Participant) error {
	if err := r.requireHost(p); err != nil {
		return err
	}
	if err := r.requireStatus(models.AuctionStatusActive, models.AuctionStatusPaused); err != nil {
		return err
	}

	st := &r.state.AuctionState
	// The unresolved remainder joins the unsold pool so it can be re-auctioned.
	st.UnsoldPlayers = append(st.UnsoldPlayers, st.Queue[st.CurrentPlayerIdx:]...)
	st.CurrentPlayerIdx = len(st.Queue)
	st.CurrentBidderID = ""
	st.BidHistory = nil
	st.TimeLeft = 0
	st.PausedBy = ""
	st.Status = models.AuctionStatusEnded

	r.finish(true)
	return nil
}

func (r *Room) finish(early bool) {
	st := &r.state.AuctionState
	r.broadcast(protocol.AuctionEnded{RoomData: r.state.Snapshot()}, "")
	r.emit(events.EventTypeAuctionEnded, events.AuctionEndedPayload{
		Sold:   len(st.SoldPlayers),
		Unsold: len(st.UnsoldPlayers),
		Early:  early,
	})

	log.Info().
		Str("room_code", r.code).
		Int("sold", len(st.SoldPlayers)).
		Int("unsold", len(st.UnsoldPlayers)).
		Bool("early", early).
		Msg("auction ended")
}

func (r *Room) handlePlayerSold(p *models.Participant, msg protocol.SettleLot) error {
	if err := r.requireHost(p); err != nil {
		return err
	}

	idx, err := r.settledLotIndex(msg)
	if err != nil {
		return err
	}
	out, err := settlement.Settle(r.state, idx)
	if err != nil {
		return err
	}
	if out.Sold && !msg.FinalPrice.IsZero() && !msg.FinalPrice.Equal(out.FinalPrice) {
		log.Debug().
			Str("room_code", r.code).
			Str("reported", msg.FinalPrice.String()).
			Str("settled", out.FinalPrice.String()).
			Msg("host reported a stale final price")
	}

	r.broadcast(protocol.PlayerSold{
		PlayerName: out.Lot.Name,
		WinnerName: out.WinnerName,
		FinalPrice: out.FinalPrice,
		RoomData:   r.state.Snapshot(),
	}, "")
	r.emit(events.EventTypePlayerSold, events.PlayerSoldPayload{
		LotIndex:   out.LotIndex,
		PlayerName: out.Lot.Name,
		Sold:       out.Sold,
		WinnerID:   out.WinnerID,
		WinnerName: out.WinnerName,
		FinalPrice: out.FinalPrice,
	})

	log.Info().
		Str("room_code", r.code).
		Int("lot", out.LotIndex).
		Str("player", out.Lot.Name).
		Str("winner", out.WinnerName).
		Str("price", out.FinalPrice.String()).
		Msg("lot settled")

	if out.Ended {
		r.finish(false)
	}
	return nil
}

// settledLotIndex resolves the lot a player_sold report refers to. A report without
// player_idx must name the lot under the hammer, so a redelivered report cannot settle the
// next lot. -1 defers to Settle, which rejects rooms that are not active.
func (r *Room) settledLotIndex(msg protocol.SettleLot) (int, error) {
	if msg.PlayerIdx != nil {
		return *msg.PlayerIdx, nil
	}
	st := &r.state.AuctionState
	if st.Status != models.AuctionStatusActive {
		return -1, nil
	}
	lot, ok := st.CurrentLot()
	if !ok {
		return -1, nil
	}
	if msg.PlayerData == nil || msg.PlayerData.Name != lot.Name {
		return -1, fmt.Errorf("%w: report does not name %q", settlement.ErrStaleLot, lot.Name)
	}
	return st.CurrentPlayerIdx, nil
}

func (r *Room) handleSendMessage(p *models.Participant, msg protocol.SendMessage) error {
	text := strings.TrimSpace(msg.Message)
	if text == "" {
		return ErrEmptyMessage
	}
	if r.opts.MaxMessageLen > 0 && len(text) > r.opts.MaxMessageLen {
		return ErrMessageTooLong
	}

	chat := models.ChatMessage{
		PlayerID:   p.ID,
		PlayerName: p.Name,
		Team:       p.Team,
		Message:    text,
		Timestamp:  r.deps.Clock.Now().UTC(),
	}
	r.state.ChatMessages = append(r.state.ChatMessages, chat)
	if limit := r.opts.MaxChatHistory; limit > 0 && len(r.state.ChatMessages) > limit {
		r.state.ChatMessages = r.state.ChatMessages[len(r.state.ChatMessages)-limit:]
	}

	r.broadcast(protocol.NewMessage{Message: chat}, "")
	return nil
}
