// Package protocol defines the JSON events exchanged between auction clients and rooms.
//
// Inbound events are tagged by an "action" field and outbound events by a "type" field.
// Both directions are closed sets: decoding an unknown tag is an error.
//
// Amounts decode from JSON numbers or strings. They encode as numbers only when the process
// sets decimal.MarshalJSONWithoutQuotes, which the server and bot mains do at startup.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrMalformed     = errors.New("malformed message")
	ErrUnknownAction = errors.New("unknown action")
	ErrUnknownType   = errors.New("unknown event type")
)

// DecodeInbound parses a client message into its concrete event.
func DecodeInbound(data []byte) (Inbound, error) {
	var env struct {
		Action Action `json:"action"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch env.Action {
	case ActionCreateRoom:
		return decodeInbound[CreateRoom](data)
	case ActionJoinRoom:
		return decodeInbound[JoinRoom](data)
	case ActionReconnect:
		return decodeInbound[Reconnect](data)
	case ActionLeaveRoom:
		return LeaveRoom{}, nil
	case ActionStartAuction:
		return decodeInbound[StartAuction](data)
	case ActionStartReauction:
		return decodeInbound[StartReauction](data)
	case ActionPlaceBid:
		return decodeInbound[PlaceBid](data)
	case ActionTimerTick:
		return decodeInbound[TimerTick](data)
	case ActionPauseAuction:
		return PauseAuction{}, nil
	case ActionResumeAuction:
		return ResumeAuction{}, nil
	case ActionChangeTimer:
		return decodeInbound[ChangeTimer](data)
	case ActionEndAuction:
		return EndAuction{}, nil
	case ActionPlayerSold:
		return decodeInbound[SettleLot](data)
	case ActionListRooms:
		return ListRooms{}, nil
	case ActionSendMessage:
		return decodeInbound[SendMessage](data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, env.Action)
	}
}

// EncodeInbound renders a client event with its action tag.
func EncodeInbound(msg Inbound) ([]byte, error) {
	return encodeTagged("action", string(msg.Action()), msg)
}

// EncodeOutbound renders a room event with its type tag.
func EncodeOutbound(msg Outbound) ([]byte, error) {
	return encodeTagged("type", string(msg.Type()), msg)
}

// DecodeOutbound parses a room event on the client side.
func DecodeOutbound(data []byte) (Outbound, error) {
	var env struct {
		Type Type `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch env.Type {
	case TypeRoomCreated:
		return decodeOutbound[RoomCreated](data)
	case TypeJoinedRoom:
		return decodeOutbound[JoinedRoom](data)
	case TypeReconnected:
		return decodeOutbound[Reconnected](data)
	case TypePlayerJoined:
		return decodeOutbound[PlayerJoined](data)
	case TypePlayerLeft:
		return decodeOutbound[PlayerLeft](data)
	case TypeHostChanged:
		return decodeOutbound[HostChanged](data)
	case TypeAuctionStarted:
		return decodeOutbound[AuctionStarted](data)
	case TypeBidPlaced:
		return decodeOutbound[BidPlaced](data)
	case TypeAuctionPaused:
		return decodeOutbound[AuctionPaused](data)
	case TypeAuctionResumed:
		return decodeOutbound[AuctionResumed](data)
	case TypePlayerSold:
		return decodeOutbound[PlayerSold](data)
	case TypeTimerChanged:
		return decodeOutbound[TimerChanged](data)
	case TypeAuctionEnded:
		return decodeOutbound[AuctionEnded](data)
	case TypeTimerUpdate:
		return decodeOutbound[TimerUpdate](data)
	case TypeRoomList:
		return decodeOutbound[RoomList](data)
	case TypeNewMessage:
		return decodeOutbound[NewMessage](data)
	case TypeLeftRoom:
		return LeftRoom{}, nil
	case TypeError:
		return decodeOutbound[Error](data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}

func decodeInbound[T Inbound](data []byte) (Inbound, error) {
	var msg T
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return msg, nil
}

func decodeOutbound[T Outbound](data []byte) (Outbound, error) {
	var msg T
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return msg, nil
}

// encodeTagged marshals v and splices the tag in as the first field.
func encodeTagged(key, tag string, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", tag, err)
	}
	head, err := json.Marshal(map[string]string{key: tag})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s tag: %w", key, err)
	}

	body = bytes.TrimSpace(body)
	if len(body) < 2 || body[0] != '{' {
		return nil, fmt.Errorf("failed to marshal %s: payload is not an object", tag)
	}
	if bytes.Equal(body, []byte("{}")) {
		return head, nil
	}

	out := make([]byte, 0, len(head)+len(body))
	out = append(out, head[:len(head)-1]...)
	out = append(out, ',')
	out = append(out, body[1:]...)
	return out, nil
}
