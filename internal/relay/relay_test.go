package relay

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erilali/showdown/internal/message"
)

type published struct {
	subject string
	data    []byte
}

type fakePublisher struct {
	out []published
	err error
}

func (f *fakePublisher) Publish(subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.out = append(f.out, published{subject: subj, data: data})
	return &nats.PubAck{Stream: streamName, Sequence: uint64(len(f.out))}, nil
}

func TestPublish_Chat(t *testing.T) {
	pub := &fakePublisher{}
	r := New(pub, "", nil)

	ok, err := r.Publish(message.New(">botdev\n|c:|1634571729|+xfix|Hello|world"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, pub.out, 1)
	assert.Equal(t, "showdown.chat.botdev", pub.out[0].subject)

	var ev Event
	require.NoError(t, json.Unmarshal(pub.out[0].data, &ev))
	assert.Equal(t, "chat", ev.Kind)
	assert.Equal(t, "botdev", ev.Room)
	assert.Equal(t, "+xfix", ev.User)
	assert.Equal(t, "Hello|world", ev.Text)
	assert.Equal(t, int64(1634571729), ev.SentAt)
	assert.NotEmpty(t, ev.ID)
	assert.False(t, ev.ReceivedAt.IsZero())
}

func TestPublish_SkipsOtherKinds(t *testing.T) {
	pub := &fakePublisher{}
	r := New(pub, "bots", nil)

	for _, raw := range []string{"|challstr|4|abc", "|updateuser| Guest|0|1", "garbage"} {
		ok, err := r.Publish(message.New(raw))
		require.NoError(t, err)
		assert.False(t, ok, raw)
	}
	assert.Empty(t, pub.out)
}

func TestPublish_PrivateAndRename(t *testing.T) {
	pub := &fakePublisher{}
	r := New(pub, "bots", nil)

	_, err := r.Publish(message.New("|pm| Alice| yaybot|hello"))
	require.NoError(t, err)
	_, err = r.Publish(message.New(">lobby\n|N|+xfix|@xfix"))
	require.NoError(t, err)

	require.Len(t, pub.out, 2)
	assert.Equal(t, "bots.pm.lobby", pub.out[0].subject)
	assert.Equal(t, "bots.rename.lobby", pub.out[1].subject)

	var ev Event
	require.NoError(t, json.Unmarshal(pub.out[1].data, &ev))
	assert.Equal(t, "@xfix", ev.User)
	assert.Equal(t, "+xfix", ev.Text)
}

func TestPublish_Error(t *testing.T) {
	pub := &fakePublisher{err: errors.New("no responders")}
	r := New(pub, "", nil)

	ok, err := r.Publish(message.New("|J|+xfix"))
	assert.False(t, ok)
	assert.ErrorContains(t, err, "no responders")
}

func TestSubject_Sanitizes(t *testing.T) {
	r := New(&fakePublisher{}, "sd", nil)
	assert.Equal(t, "sd.chat.a_b_c_d", r.Subject("chat", "a.b*c>d"))
	assert.Equal(t, "sd.chat._", r.Subject("chat", ""))
}
