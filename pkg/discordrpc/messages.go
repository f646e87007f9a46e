package discordrpc

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Activity is the rich presence shown on the user's profile.
type Activity struct {
	Details    string      `json:"details,omitempty"`
	State      string      `json:"state,omitempty"`
	Timestamps *Timestamps `json:"timestamps,omitempty"`
	Assets     *Assets     `json:"assets,omitempty"`
}

// Timestamps are unix seconds; Start makes Discord show elapsed time.
type Timestamps struct {
	Start int64 `json:"start,omitempty"`
	End   int64 `json:"end,omitempty"`
}

// Assets reference images uploaded to the Discord application by key.
type Assets struct {
	LargeImage string `json:"large_image,omitempty"`
	LargeText  string `json:"large_text,omitempty"`
	SmallImage string `json:"small_image,omitempty"`
	SmallText  string `json:"small_text,omitempty"`
}

// User is the Discord account the client is logged in as.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type handshake struct {
	Version  int    `json:"v"`
	ClientID string `json:"client_id"`
}

type command struct {
	Cmd   string      `json:"cmd"`
	Args  interface{} `json:"args"`
	Nonce string      `json:"nonce"`
}

type activityArgs struct {
	PID      int       `json:"pid"`
	Activity *Activity `json:"activity"`
}

type response struct {
	Cmd   string          `json:"cmd"`
	Evt   string          `json:"evt"`
	Nonce string          `json:"nonce"`
	Data  json.RawMessage `json:"data"`
}

type readyData struct {
	User User `json:"user"`
}

type errorData struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

const (
	cmdDispatch    = "DISPATCH"
	cmdSetActivity = "SET_ACTIVITY"
	evtReady       = "READY"
	evtError       = "ERROR"

	protocolVersion = 1
)

// Error is an error reported by the Discord client, either as an ERROR event
// or in a close frame.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("discord: %s (code %d)", e.Message, e.Code)
}

func decodeError(data []byte) *Error {
	var ed errorData
	if err := json.Unmarshal(data, &ed); err != nil || (ed.Code == 0 && ed.Message == "") {
		return &Error{Message: "unknown error"}
	}
	return &Error{Code: ed.Code, Message: ed.Message}
}
