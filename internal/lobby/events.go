package lobby

// Outbound event names. Room-scoped unless a handler emits them to the
// caller only.
const (
	EventStartGame      = "start_game"
	EventWaiting        = "waiting"
	EventStatePong      = "state_pong"
	EventResetGame      = "reset_game"
	EventEndGame        = "end_game"
	EventEndLobby       = "end_lobby"
	EventCreationFailed = "creation_failed"
	EventGameError      = "game_error"
	EventServerError    = "server_error"
)

// Emitter is the transport surface the coordinator speaks to. The
// websocket hub implements it; tests substitute a recorder. Emitting to an
// unknown user or a closed room is a silent no-op.
type Emitter interface {
	EmitUser(userID string, event string, data any)
	EmitRoom(roomID int, event string, data any)
	JoinRoom(userID string, roomID int)
	LeaveRoom(userID string, roomID int)
	CloseRoom(roomID int)
}

func errorPayload(err error, data any) map[string]any {
	p := map[string]any{"error": err.Error()}
	if data != nil {
		p["data"] = data
	}
	return p
}
