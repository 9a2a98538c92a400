package message

import (
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoom(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		room RoomID
		body string
	}{
		{"no envelope", "|J|+xfix", Lobby, "|J|+xfix"},
		{"envelope", ">botdev\n|J|+xfix", "botdev", "|J|+xfix"},
		{"envelope only", ">botdev", "botdev", ""},
		{"empty", "", Lobby, ""},
		{"multi line body", ">battle-gen8-1\n|init|battle\n|title|A vs. B", "battle-gen8-1", "|init|battle\n|title|A vs. B"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(tt.raw)
			assert.Equal(t, tt.room, m.Room())
			assert.Equal(t, tt.body, m.Body())
			assert.Equal(t, tt.raw, m.Raw())
		})
	}
}

func TestKind_Chat(t *testing.T) {
	m := New("|c:|1634571729|+xfix|Hello|world")
	assert.Equal(t, Lobby, m.Room())

	chat, ok := m.Kind().(Chat)
	require.True(t, ok, "got %#v", m.Kind())
	assert.Equal(t, "+xfix", chat.User)
	assert.Equal(t, "Hello|world", chat.Message)

	ts, err := chat.Time()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2021, 10, 18, 15, 42, 9, 0, time.UTC), ts)
}

func TestKind_ChatStripsOneTrailingNewline(t *testing.T) {
	chat, ok := Classify("|c:|0|+xfix|hi\n\n").(Chat)
	require.True(t, ok)
	assert.Equal(t, "hi\n", chat.Message)
}

func TestChat_TimeRejectsGarbage(t *testing.T) {
	_, err := Chat{UnixTime: "yesterday"}.Time()
	assert.Error(t, err)
}

func TestKind_Simple(t *testing.T) {
	tests := []struct {
		body string
		want Kind
	}{
		{"|J|+xfix", Join{User: "+xfix"}},
		{"|L|+xfix", Leave{User: "+xfix"}},
		{"|N|+xfix|@xfix", NicknameChange{Old: "+xfix", New: "@xfix"}},
		{"|challstr|4|abcdef", Challenge("4|abcdef")},
		{"|html|<b>Relax here amidst the chaos.</b>", HTML{Content: "<b>Relax here amidst the chaos.</b>"}},
		{"|pm| Alice| Bob|hi|there\n", Private{From: " Alice", To: " Bob", Message: "hi|there"}},
		{"|noinit|namerequired|You must have a name", NoInit{Kind: NoInitNameRequired, Reason: "You must have a name"}},
		{"|noinit|nonexistent", NoInit{Kind: NoInitNonexistent}},
		{"|updateuser| Guest 1|0|170|{\"blockChallenges\":false}", UpdateUser{Username: " Guest 1", Named: false, Avatar: "170"}},
		{"|updateuser|xfix|1|1\nmore", UpdateUser{Username: "xfix", Named: true, Avatar: "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.body))
		})
	}
}

func TestKind_Unrecognized(t *testing.T) {
	tests := []struct {
		name string
		body string
		want Unrecognized
	}{
		{"plain text", "hello", Unrecognized{Raw: "hello"}},
		{"unknown command", "|raw|<div>", Unrecognized{Command: "raw", Args: "<div>", Raw: "|raw|<div>"}},
		{"chat missing message", "|c:|123|user", Unrecognized{Command: "c:", Args: "123|user", Raw: "|c:|123|user"}},
		{"pm missing fields", "|pm|alice", Unrecognized{Command: "pm", Args: "alice", Raw: "|pm|alice"}},
		{"nick without new name", "|N|xfix", Unrecognized{Command: "N", Args: "xfix", Raw: "|N|xfix"}},
		{"init bad type", "|init|tournament\n|title|x\n|users|y", Unrecognized{Command: "init", Args: "tournament\n|title|x\n|users|y", Raw: "|init|tournament\n|title|x\n|users|y"}},
		{"noinit unknown", "|noinit|banned|go away", Unrecognized{Command: "noinit", Args: "banned|go away", Raw: "|noinit|banned|go away"}},
		{"query unknown", "|queryresponse|userdetails|{}", Unrecognized{Command: "queryresponse", Args: "userdetails|{}", Raw: "|queryresponse|userdetails|{}"}},
		{"rooms bad json", "|queryresponse|rooms|{", Unrecognized{Command: "queryresponse", Args: "rooms|{", Raw: "|queryresponse|rooms|{"}},
		{"rooms null", "|queryresponse|rooms|null", Unrecognized{Command: "queryresponse", Args: "rooms|null", Raw: "|queryresponse|rooms|null"}},
		{"rooms empty object", "|queryresponse|rooms|{}", Unrecognized{Command: "queryresponse", Args: "rooms|{}", Raw: "|queryresponse|rooms|{}"}},
		{"rooms null list", roomsNullList, Unrecognized{Command: "queryresponse", Args: strings.TrimPrefix(roomsNullList, "|queryresponse|"), Raw: roomsNullList}},
		{"rooms missing count", roomsNoCount, Unrecognized{Command: "queryresponse", Args: strings.TrimPrefix(roomsNoCount, "|queryresponse|"), Raw: roomsNoCount}},
		{"updateuser bad flag", "|updateuser|xfix|2|1", Unrecognized{Command: "updateuser", Args: "xfix|2|1", Raw: "|updateuser|xfix|2|1"}},
		{"updateuser short", "|updateuser|xfix|1", Unrecognized{Command: "updateuser", Args: "xfix|1", Raw: "|updateuser|xfix|1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.body))
		})
	}
}

func TestKind_RoomInit(t *testing.T) {
	m := New(">lobby\n|init|chat\n|title|Lobby\n|users|3, xfix,@zarel,+bot\n|:|1634571729\n")
	init, ok := m.Kind().(RoomInit)
	require.True(t, ok, "got %#v", m.Kind())
	assert.Equal(t, RoomTypeChat, init.Type)
	assert.Equal(t, "Lobby", init.Title)
	assert.Equal(t, "3, xfix,@zarel,+bot", init.Users)
	assert.Equal(t, "chat", init.Type.String())
}

func TestKind_RoomInitMissingUsers(t *testing.T) {
	kind := New(">lobby\n|init|chat\n|title|Lobby\n").Kind()
	_, ok := kind.(Unrecognized)
	assert.True(t, ok, "got %#v", kind)
}

func TestKind_RoomInitLineWithoutMarker(t *testing.T) {
	kind := Classify("|init|battle\n|title|A vs. B\nnot a field\n|users|2")
	_, ok := kind.(Unrecognized)
	assert.True(t, ok, "got %#v", kind)
}

const (
	roomsNullList = `|queryresponse|rooms|{"official":null,"pspl":[],"chat":[],"userCount":1,"battleCount":0}`
	roomsNoCount  = `|queryresponse|rooms|{"official":[],"pspl":[],"chat":[],"userCount":1}`
)

const roomsFrame = `|queryresponse|rooms|{
	"official": [
		{"title": "a\"b", "desc": "\n", "userCount": 2}
	],
	"pspl": [],
	"chat": [
		{"title": "Nice room", "desc": "No need to own that one", "userCount": 1, "subRooms": ["Nicer room"]}
	],
	"userCount": 42,
	"battleCount": 24
}`

func TestKind_RoomsList(t *testing.T) {
	resp, ok := New(roomsFrame).Kind().(QueryResponse)
	require.True(t, ok)
	require.NotNil(t, resp.Rooms)
	assert.Equal(t, "rooms", resp.Type)

	rooms := slices.Collect(resp.Rooms.All())
	require.Len(t, rooms, 2)
	assert.Equal(t, "a\"b", rooms[0].Title)
	assert.Equal(t, "\n", rooms[0].Desc)
	assert.Equal(t, uint32(2), rooms[0].UserCount)
	assert.Equal(t, "Nice room", rooms[1].Title)
	assert.Equal(t, []string{"Nicer room"}, rooms[1].SubRooms)
	assert.Equal(t, uint32(42), resp.Rooms.UserCount)
	assert.Equal(t, uint32(24), resp.Rooms.BattleCount)
	assert.Equal(t, 2, resp.Rooms.Len())
}

func TestRoomsList_AllOrderAndEarlyStop(t *testing.T) {
	list := &RoomsList{
		Official: []Room{{Title: "o"}},
		PSPL:     []Room{{Title: "p1"}, {Title: "p2"}},
		Chat:     []Room{{Title: "c"}},
	}
	var titles []string
	for room := range list.All() {
		titles = append(titles, room.Title)
	}
	assert.Equal(t, []string{"o", "p1", "p2", "c"}, titles)

	titles = titles[:0]
	for room := range list.All() {
		titles = append(titles, room.Title)
		if len(titles) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"o", "p1"}, titles)
}

func TestNoInitKind_String(t *testing.T) {
	assert.Equal(t, "joinfailed", NoInitJoinFailed.String())
	assert.Equal(t, "unknown", NoInitKind(42).String())
}
