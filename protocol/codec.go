package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrMissingField   = errors.New("missing required field")
	ErrMalformed      = errors.New("malformed message")
)

// envelope is the union of every inbound field. Pointers tell an absent
// field from its zero value.
type envelope struct {
	Command  string  `json:"Command"`
	RoomName *string `json:"Room_Name,omitempty"`
	UserName *string `json:"User_Name,omitempty"`
	Text     *string `json:"Text,omitempty"`
	Ready    *bool   `json:"Ready,omitempty"`
	Column   *int    `json:"Column,omitempty"`
}

// fields collects the first missing-field error while reading an envelope
type fields struct {
	env *envelope
	err error
}

func (f *fields) missing(name string) {
	if f.err == nil {
		f.err = fmt.Errorf("%w: %s", ErrMissingField, name)
	}
}

func (f *fields) room() string {
	if f.env.RoomName == nil || *f.env.RoomName == "" {
		f.missing("Room_Name")
		return ""
	}
	return *f.env.RoomName
}

func (f *fields) user() string {
	if f.env.UserName == nil || *f.env.UserName == "" {
		f.missing("User_Name")
		return ""
	}
	return *f.env.UserName
}

func (f *fields) text() string {
	if f.env.Text == nil {
		f.missing("Text")
		return ""
	}
	return *f.env.Text
}

func (f *fields) ready() bool {
	if f.env.Ready == nil {
		f.missing("Ready")
		return false
	}
	return *f.env.Ready
}

func (f *fields) column() int {
	if f.env.Column == nil {
		f.missing("Column")
		return 0
	}
	return *f.env.Column
}

// Decode parses one inbound payload into its command variant. A chat line
// reading "<User_Name> has left the room." decodes as LeaveRoom.
func Decode(data []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	f := &fields{env: &env}
	var cmd Inbound
	switch env.Command {
	case CmdCheckUsername:
		cmd = CheckUsername{UserName: f.user()}
	case CmdCreateRoom:
		cmd = CreateRoom{RoomName: f.room(), UserName: f.user()}
	case CmdJoinRoom:
		cmd = JoinRoom{RoomName: f.room(), UserName: f.user()}
	case CmdLeaveRoom:
		cmd = LeaveRoom{RoomName: f.room(), UserName: f.user()}
	case CmdSendingMessage:
		msg := SendingMessage{RoomName: f.room(), UserName: f.user(), Text: f.text()}
		if f.err == nil && msg.Text == LeftRoomText(msg.UserName) {
			return LeaveRoom{RoomName: msg.RoomName, UserName: msg.UserName}, nil
		}
		cmd = msg
	case CmdReadyStatus:
		cmd = ReadyStatus{RoomName: f.room(), UserName: f.user(), Ready: f.ready()}
	case CmdGameMove:
		cmd = GameMove{RoomName: f.room(), UserName: f.user(), Column: f.column()}
	case CmdRestartGame:
		cmd = RestartGame{RoomName: f.room(), UserName: f.user()}
	case CmdGameQuit:
		cmd = GameQuit{RoomName: f.room(), UserName: f.user()}
	case "":
		return nil, fmt.Errorf("%w: Command", ErrMissingField)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, env.Command)
	}

	if f.err != nil {
		return nil, fmt.Errorf("%s: %w", env.Command, f.err)
	}
	return cmd, nil
}

// EncodeCommand serializes an inbound command the way a client sends it
func EncodeCommand(cmd Inbound) ([]byte, error) {
	env := envelope{Command: cmd.Command()}
	user := cmd.Sender()
	env.UserName = &user

	switch c := cmd.(type) {
	case CheckUsername:
	case CreateRoom:
		env.RoomName = &c.RoomName
	case JoinRoom:
		env.RoomName = &c.RoomName
	case LeaveRoom:
		env.RoomName = &c.RoomName
	case SendingMessage:
		env.RoomName = &c.RoomName
		env.Text = &c.Text
	case ReadyStatus:
		env.RoomName = &c.RoomName
		env.Ready = &c.Ready
	case GameMove:
		env.RoomName = &c.RoomName
		env.Column = &c.Column
	case RestartGame:
		env.RoomName = &c.RoomName
	case GameQuit:
		env.RoomName = &c.RoomName
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownCommand, cmd)
	}

	return json.Marshal(env)
}

// Encode serializes an outbound update with its Command discriminator as the
// first field.
func Encode(msg Outbound) ([]byte, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", msg.Command(), err)
	}
	if len(body) < 2 || body[0] != '{' {
		return nil, fmt.Errorf("failed to encode %s: %w", msg.Command(), ErrMalformed)
	}

	head, err := json.Marshal(msg.Command())
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Grow(len(body) + len(head) + 12)
	buf.WriteString(`{"Command":`)
	buf.Write(head)
	if !bytes.Equal(body, []byte("{}")) {
		buf.WriteByte(',')
	}
	buf.Write(body[1:])
	return buf.Bytes(), nil
}

// DecodeOutbound parses a server update. Clients and tests use it to read
// what the server sends.
func DecodeOutbound(data []byte) (Outbound, error) {
	var head struct {
		Command string `json:"Command"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var err error
	switch head.Command {
	case CmdCheckUsername:
		var m CheckUsernameReply
		err = json.Unmarshal(data, &m)
		return m, err
	case CmdRoomState:
		var m RoomState
		err = json.Unmarshal(data, &m)
		return m, err
	case CmdJoinRoom:
		var m JoinRoomEcho
		err = json.Unmarshal(data, &m)
		return m, err
	case CmdSendingMessage:
		var m ChatMessage
		err = json.Unmarshal(data, &m)
		return m, err
	case CmdReadyUpdate:
		var m ReadyUpdate
		err = json.Unmarshal(data, &m)
		return m, err
	case CmdGameStart:
		var m GameStart
		err = json.Unmarshal(data, &m)
		return m, err
	case CmdGameUpdate:
		var m GameUpdate
		err = json.Unmarshal(data, &m)
		return m, err
	case CmdGameOver:
		var m GameOver
		err = json.Unmarshal(data, &m)
		return m, err
	case CmdGameRestart:
		var m GameRestart
		err = json.Unmarshal(data, &m)
		return m, err
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, head.Command)
}
