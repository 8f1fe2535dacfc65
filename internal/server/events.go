package server

import (
	"time"

	"wordrush/internal/game"
)

const frameSnapshot = "snapshot"

// envelope is the wire form of an event on the websocket and in the audit
// log.
type envelope struct {
	Type   string    `json:"type"`
	RoomID string    `json:"room_id"`
	Data   any       `json:"data"`
	SentAt time.Time `json:"sent_at"`
}

func eventEnvelope(e game.Event) envelope {
	return envelope{
		Type:   string(e.Type()),
		RoomID: e.Room(),
		Data:   e,
		SentAt: time.Now().UTC(),
	}
}

func snapshotEnvelope(snap game.Snapshot) envelope {
	return envelope{
		Type:   frameSnapshot,
		RoomID: snap.RoomID,
		Data:   snap,
		SentAt: time.Now().UTC(),
	}
}

// eventRound returns the round an event refers to, if any.
func eventRound(e game.Event) *int {
	var n int
	switch ev := e.(type) {
	case game.AnswersSubmitted:
		n = ev.Round
	case game.RoundStarted:
		n = ev.Round.Number
	case game.RoundEnded:
		n = ev.Report.Number
	default:
		return nil
	}
	return &n
}

// eventUser returns the player an event is about, if any.
func eventUser(e game.Event) *string {
	var name string
	switch ev := e.(type) {
	case game.RoomCreated:
		name = ev.Host.Username
	case game.PlayerJoined:
		name = ev.Player.Username
	case game.PlayerLeft:
		name = ev.Username
	case game.PlayerRejoined:
		name = ev.Player.Username
	case game.PlayerDisconnected:
		name = ev.Username
	case game.AnswersSubmitted:
		name = ev.Username
	case game.GameEndedEarly:
		name = ev.By
	case game.ChatPosted:
		name = ev.Message.Username
	default:
		return nil
	}
	return &name
}
