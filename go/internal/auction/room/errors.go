package room

import "errors"

// Rejections delivered to the issuing participant as error{message}.
var (
	ErrRoomNotFound          = errors.New("room not found")
	ErrRoomClosed            = errors.New("room is closed")
	ErrRoomFull              = errors.New("room is full")
	ErrNameRequired          = errors.New("player name is required")
	ErrNameTaken             = errors.New("player name already exists in this room")
	ErrInvalidTeam           = errors.New("invalid team")
	ErrTeamTaken             = errors.New("team taken")
	ErrInvalidMode           = errors.New("invalid auction mode")
	ErrIdentityNotFound      = errors.New("player not found in room")
	ErrNotInRoom             = errors.New("not in a room")
	ErrNotHost               = errors.New("only the host can do that")
	ErrWrongPhase            = errors.New("action not allowed in the current auction phase")
	ErrNotEnoughParticipants = errors.New("at least 2 participants are required to start")
	ErrInvalidTick           = errors.New("invalid time_left")
	ErrEmptyMessage          = errors.New("message is empty")
	ErrMessageTooLong        = errors.New("message is too long")
	ErrUnsupported           = errors.New("action is not handled by a room")
)
