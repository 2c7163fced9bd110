package ws

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"go-splendor/dto"
	"go-splendor/engine"
	"go-splendor/entities"
	"go-splendor/session"

	"github.com/mitchellh/mapstructure"
)

var ErrBadAction = errors.New("Invalid action")

type messageHandler func(ctx context.Context, h *Hub, c *Client, msg map[string]interface{}) error

var messageHandlers map[string]messageHandler

func init() {
	messageHandlers = map[string]messageHandler{
		dto.MsgLogin:             handleLogin,
		dto.MsgRegister:          handleRegister,
		dto.MsgGetRooms:          handleGetRooms,
		dto.MsgCreateRoom:        handleCreateRoom,
		dto.MsgJoinRoom:          handleJoinRoom,
		dto.MsgLeaveRoom:         handleLeaveRoom,
		dto.MsgToggleReady:       handleToggleReady,
		dto.MsgUpdateBotSettings: handleBotSettings,
		dto.MsgCloseRoom:         handleCloseRoom,
		dto.MsgStartGame:         handleStartGame,
		dto.MsgGameAction:        handleGameAction,
	}
}

// gemHookFunc 宝石颜色可以写成名字 "ruby"，宝石数量可以写成 {"ruby": 2}
func gemHookFunc() mapstructure.DecodeHookFuncType {
	gemType := reflect.TypeOf(entities.Gem(0))
	tokensType := reflect.TypeOf(entities.Tokens{})
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		switch {
		case to == gemType && from.Kind() == reflect.String:
			return entities.ParseGem(strings.ToLower(data.(string)))
		case to == tokensType && from.Kind() == reflect.Map:
			var tokens entities.Tokens
			for k, v := range data.(map[string]interface{}) {
				gem, err := entities.ParseGem(strings.ToLower(k))
				if err != nil {
					return nil, err
				}
				n, ok := v.(float64)
				if !ok {
					return nil, fmt.Errorf("invalid count for %s", k)
				}
				tokens[gem] = int(n)
			}
			return tokens, nil
		}
		return data, nil
	}
}

func decode(input interface{}, out interface{}) error {
	decoderConfig := &mapstructure.DecoderConfig{
		DecodeHook:       gemHookFunc(),
		WeaklyTypedInput: true,
		Result:           out,
	}
	decoder, err := mapstructure.NewDecoder(decoderConfig)
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

// decodeAction 数字按动作下标处理，对象按结构化动作处理
func decodeAction(raw interface{}) (session.ActionRequest, error) {
	switch v := raw.(type) {
	case float64:
		if v != float64(int(v)) {
			return session.ActionRequest{}, ErrBadAction
		}
		return session.IndexRequest(int(v)), nil
	case map[string]interface{}:
		var a engine.Action
		if err := decode(v, &a); err != nil {
			return session.ActionRequest{}, fmt.Errorf("%w: %v", ErrBadAction, err)
		}
		if a.Type == "" {
			return session.ActionRequest{}, ErrBadAction
		}
		return session.StructuredRequest(a), nil
	}
	return session.ActionRequest{}, ErrBadAction
}

func handleLogin(ctx context.Context, h *Hub, c *Client, msg map[string]interface{}) error {
	var req dto.AuthRequest
	if err := decode(msg, &req); err != nil {
		return err
	}
	if err := h.auth.Verify(ctx, req.Username, req.Password); err != nil {
		return err
	}
	if err := h.login(c, req.Username); err != nil {
		return err
	}
	h.loginSuccess(c)
	return nil
}

func handleRegister(ctx context.Context, h *Hub, c *Client, msg map[string]interface{}) error {
	var req dto.AuthRequest
	if err := decode(msg, &req); err != nil {
		return err
	}
	if err := h.auth.Register(ctx, req.Username, req.Password); err != nil {
		return err
	}
	c.Send(dto.NewMessage(dto.MsgRegisterSuccess, map[string]interface{}{"username": req.Username}))
	return nil
}

func handleGetRooms(_ context.Context, h *Hub, c *Client, _ map[string]interface{}) error {
	c.Send(dto.NewMessage(dto.MsgRoomList, map[string]interface{}{"rooms": h.lobby.List()}))
	return nil
}

func handleCreateRoom(_ context.Context, h *Hub, c *Client, msg map[string]interface{}) error {
	var req dto.CreateRoomRequest
	if err := decode(msg, &req); err != nil {
		return err
	}
	view, err := h.lobby.Create(req.Name, c.Identity(), req.MaxPlayers)
	if err != nil {
		return err
	}
	c.Send(dto.NewMessage(dto.MsgRoomCreated, map[string]interface{}{"room": view}))
	return nil
}

func handleJoinRoom(_ context.Context, h *Hub, c *Client, msg map[string]interface{}) error {
	var req dto.JoinRoomRequest
	if err := decode(msg, &req); err != nil {
		return err
	}
	view, err := h.lobby.Join(req.RoomID, c.Identity())
	if err != nil {
		return err
	}
	c.Send(dto.NewMessage(dto.MsgJoinedRoom, map[string]interface{}{"room": view}))
	return nil
}

func handleLeaveRoom(_ context.Context, h *Hub, c *Client, _ map[string]interface{}) error {
	roomID, _ := h.lobby.RoomOf(c.Identity())
	if err := h.lobby.Leave(c.Identity()); err != nil {
		return err
	}
	c.Send(dto.NewMessage(dto.MsgLeftRoom, map[string]interface{}{"room_id": roomID}))
	return nil
}

func handleToggleReady(_ context.Context, h *Hub, c *Client, _ map[string]interface{}) error {
	_, err := h.lobby.ToggleReady(c.Identity())
	return err
}

func handleBotSettings(_ context.Context, h *Hub, c *Client, msg map[string]interface{}) error {
	var req dto.BotSettingsRequest
	if err := decode(msg, &req); err != nil {
		return err
	}
	_, err := h.lobby.SetBotModel(c.Identity(), req.SeatIdx, req.Model)
	return err
}

func handleCloseRoom(_ context.Context, h *Hub, c *Client, _ map[string]interface{}) error {
	return h.lobby.Close(c.Identity())
}

func handleStartGame(_ context.Context, h *Hub, c *Client, _ map[string]interface{}) error {
	return h.lobby.Start(c.Identity())
}

func handleGameAction(_ context.Context, h *Hub, c *Client, msg map[string]interface{}) error {
	req, err := decodeAction(msg["action"])
	if err != nil {
		return err
	}
	return h.lobby.GameAction(c.Identity(), req)
}
