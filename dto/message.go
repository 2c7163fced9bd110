package dto

import "encoding/json"

// 客户端 -> 服务端
const (
	MsgLogin             = "LOGIN"
	MsgRegister          = "REGISTER"
	MsgGetRooms          = "GET_ROOMS"
	MsgCreateRoom        = "CREATE_ROOM"
	MsgJoinRoom          = "JOIN_ROOM"
	MsgLeaveRoom         = "LEAVE_ROOM"
	MsgToggleReady       = "TOGGLE_READY"
	MsgUpdateBotSettings = "UPDATE_BOT_SETTINGS"
	MsgCloseRoom         = "CLOSE_ROOM"
	MsgStartGame         = "START_GAME"
	MsgGameAction        = "GAME_ACTION"
)

// 服务端 -> 客户端
const (
	MsgLoginSuccess    = "LOGIN_SUCCESS"
	MsgRegisterSuccess = "REGISTER_SUCCESS"
	MsgError           = "ERROR"
	MsgRoomList        = "ROOM_LIST"
	MsgRoomCreated     = "ROOM_CREATED"
	MsgJoinedRoom      = "JOINED_ROOM"
	MsgPlayerJoined    = "PLAYER_JOINED"
	MsgLeftRoom        = "LEFT_ROOM"
	MsgPlayerLeft      = "PLAYER_LEFT"
	MsgHostChanged     = "HOST_CHANGED"
	MsgRoomUpdate      = "ROOM_UPDATE"
	MsgRoomClosed      = "ROOM_CLOSED"
	MsgGameStarted     = "GAME_STARTED"
	MsgGameStateUpdate = "GAME_STATE_UPDATE"
	MsgGameLog         = "GAME_LOG"
	MsgGameOver        = "GAME_OVER"
	MsgTimeUpdate      = "TIME_UPDATE"
)

// Message 一条协议消息，type 字段区分类型
type Message map[string]interface{}

func NewMessage(msgType string, data map[string]interface{}) Message {
	msg := Message{}
	for k, v := range data {
		msg[k] = v
	}
	msg["type"] = msgType
	return msg
}

func ErrorMessage(text string) Message {
	return Message{"type": MsgError, "message": text}
}

func (m Message) Type() string {
	t, _ := m["type"].(string)
	return t
}

func (m Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}
