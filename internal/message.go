package internal

// Message is the generic websocket envelope, both directions.
type Message[T any] struct {
	Type string `json:"type"`
	Data T      `json:"data"`
}

// Inbound message types.
const (
	MsgStartGame   = "start_game"
	MsgChooseWord  = "choose_word"
	MsgCustomWord  = "custom_word"
	MsgGuess       = "guess"
	MsgDraw        = "draw"
	MsgClearCanvas = "clear_canvas"
	MsgRestartGame = "restart_game"
)

// Outbound message types.
const (
	MsgRoomUpdate = "room_update"
	MsgError      = "error"
)

// ErrorData is a transient, user-facing failure notification. The room state
// itself is unchanged and the action may be retried.
type ErrorData struct {
	Message string `json:"message"`
}

// JoinedData is sent once to a player right after the websocket is accepted.
type JoinedData struct {
	PlayerID string `json:"player_id"`
	Room     *Room  `json:"room"`
}

// Response is the HTTP response envelope with server-side timing attached.
type Response struct {
	StatusCode    int   `json:"status_code"`
	RespStartTime int64 `json:"resp_time_start_ms"`
	RespEndTime   int64 `json:"resp_time_end_ms"`
	NetRespTime   int64 `json:"net_resp_time_ms"`
	Data          any   `json:"data"`
}
