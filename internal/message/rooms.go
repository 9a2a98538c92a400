// internal/message/rooms.go
package message

import (
	"encoding/json"
	"iter"
	"strings"
)

// QueryResponse answers a /cmd query. Only the rooms query is decoded;
// other query types classify as Unrecognized.
type QueryResponse struct {
	Type  string
	Rooms *RoomsList
}

// RoomsList is the decoded room catalogue.
type RoomsList struct {
	Official    []Room `json:"official"`
	PSPL        []Room `json:"pspl"`
	Chat        []Room `json:"chat"`
	UserCount   uint32 `json:"userCount"`
	BattleCount uint32 `json:"battleCount"`
}

// Room is one entry of a RoomsList.
type Room struct {
	Title     string   `json:"title"`
	Desc      string   `json:"desc"`
	UserCount uint32   `json:"userCount"`
	SubRooms  []string `json:"subRooms,omitempty"`
}

// All yields official rooms, then featured rooms, then chat rooms.
func (l *RoomsList) All() iter.Seq[Room] {
	return func(yield func(Room) bool) {
		for _, group := range [][]Room{l.Official, l.PSPL, l.Chat} {
			for _, room := range group {
				if !yield(room) {
					return
				}
			}
		}
	}
}

// Len is the number of rooms across all three groups.
func (l *RoomsList) Len() int {
	return len(l.Official) + len(l.PSPL) + len(l.Chat)
}

func parseQueryResponse(args string) (Kind, bool) {
	queryType, payload := split2(args)
	switch queryType {
	case "rooms":
		rooms, ok := parseRoomsList(payload)
		if !ok {
			return nil, false
		}
		return QueryResponse{Type: queryType, Rooms: rooms}, true
	}
	return nil, false
}

func parseRoomsList(payload string) (*RoomsList, bool) {
	if !strings.HasPrefix(strings.TrimSpace(payload), "{") {
		return nil, false
	}
	// Every key is required and must not be null.
	var wire struct {
		Official    *[]Room `json:"official"`
		PSPL        *[]Room `json:"pspl"`
		Chat        *[]Room `json:"chat"`
		UserCount   *uint32 `json:"userCount"`
		BattleCount *uint32 `json:"battleCount"`
	}
	if err := json.Unmarshal([]byte(payload), &wire); err != nil {
		return nil, false
	}
	if wire.Official == nil || wire.PSPL == nil || wire.Chat == nil ||
		wire.UserCount == nil || wire.BattleCount == nil {
		return nil, false
	}
	return &RoomsList{
		Official:    *wire.Official,
		PSPL:        *wire.PSPL,
		Chat:        *wire.Chat,
		UserCount:   *wire.UserCount,
		BattleCount: *wire.BattleCount,
	}, true
}
