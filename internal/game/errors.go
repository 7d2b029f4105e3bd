package game

import "errors"

var (
	ErrNotHost          = errors.New("game: only the host can do that")
	ErrNotEnoughPlayers = errors.New("game: not enough online players")
	ErrNotYourTurn      = errors.New("game: you are not the current drawer")
	ErrWrongState       = errors.New("game: action not valid in current game state")
	ErrRoomFull         = errors.New("game: room is full")
	ErrPlayerNotFound   = errors.New("game: player not found in room")
)
