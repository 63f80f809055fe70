package sessions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slootmaekersdirk/genesys-cloud-webrtc-sdk/internal/domain"
)

func TestVideoAcceptAcquiresCameraAndMic(t *testing.T) {
	s := videoSession("s1", "conv-1")
	env := newTestEnv(Config{}, s)

	require.NoError(t, env.manager.AcceptSession(context.Background(), AcceptSessionRequest{SessionID: "s1"}))

	require.Len(t, env.engine.acquired, 1)
	req := env.engine.acquired[0]
	assert.True(t, req.Audio.Requested())
	assert.True(t, req.Video.Requested())
	assert.NotNil(t, s.AudioTrack)
	assert.NotNil(t, s.VideoTrack)
	assert.Equal(t, []domain.SessionID{"s1"}, env.transport.readied)
}

func TestVideoOutputAttachesOnRemoteAudioOnly(t *testing.T) {
	s := videoSession("s1", "conv-1")
	env := newTestEnv(Config{}, s)
	require.NoError(t, env.manager.AcceptSession(context.Background(), AcceptSessionRequest{SessionID: "s1"}))

	out := s.Output.(*fakeOutput)
	pc := s.PC.(*fakePC)
	require.NotNil(t, pc.onRemote)

	pc.onRemote(newFakeTrack("remote-video", domain.TrackKindVideo, "remote"))
	assert.Empty(t, out.attached, "video tracks do not drive the audio output")

	pc.onRemote(newFakeTrack("remote-audio", domain.TrackKindAudio, "remote"))
	assert.Len(t, out.attached, 1)
}

func TestVideoSetAudioMuteLocalAndServer(t *testing.T) {
	s := videoSession("s1", "conv-1")
	s.AudioTrack = newFakeTrack("a1", domain.TrackKindAudio, "Test Microphone")
	env := newTestEnv(Config{}, s)

	require.NoError(t, env.manager.SetAudioMute(context.Background(), "s1", MuteRequest{Mute: true}))

	assert.False(t, s.AudioTrack.Enabled())
	require.Len(t, env.api.patches, 1)
	require.NotNil(t, env.api.patches[0].patch.Muted)
	assert.True(t, *env.api.patches[0].patch.Muted)
}

func TestVideoSetVideoMuteTogglesTrack(t *testing.T) {
	s := videoSession("s1", "conv-1")
	s.VideoTrack = newFakeTrack("v1", domain.TrackKindVideo, "Test Camera")
	env := newTestEnv(Config{}, s)

	require.NoError(t, env.manager.SetVideoMute(context.Background(), "s1", MuteRequest{Mute: true}))
	assert.False(t, s.VideoTrack.Enabled())

	require.NoError(t, env.manager.SetVideoMute(context.Background(), "s1", MuteRequest{Mute: false}))
	assert.True(t, s.VideoTrack.Enabled())
	assert.Empty(t, env.engine.acquired, "live track is re-enabled, not re-acquired")
}

func TestVideoUnmuteReacquiresCamera(t *testing.T) {
	s := videoSession("s1", "conv-1")
	env := newTestEnv(Config{}, s)

	require.NoError(t, env.manager.SetVideoMute(context.Background(), "s1", MuteRequest{
		Mute:         false,
		UnmuteDevice: domain.DeviceByID("cam-1"),
	}))

	require.Len(t, env.engine.acquired, 1)
	req := env.engine.acquired[0]
	assert.False(t, req.Audio.Requested())
	assert.Equal(t, "cam-1", req.Video.ID())
	assert.NotNil(t, s.VideoTrack)
}

func TestVideoConversationUpdateAppliesRemoteMute(t *testing.T) {
	s := videoSession("s1", "conv-1")
	s.AudioTrack = newFakeTrack("a1", domain.TrackKindAudio, "Test Microphone")
	env := newTestEnv(Config{}, s)

	env.manager.HandleConversationUpdate(context.Background(), domain.ConversationUpdate{
		ConversationID: "conv-1",
		Participants: []domain.Participant{
			{ID: "part-2", UserID: "someone-else", Muted: true},
			{ID: "part-1", UserID: "user-1", Muted: true},
		},
	})

	require.NotNil(t, s.Participant)
	assert.Equal(t, "part-1", s.Participant.ID)
	assert.False(t, s.AudioTrack.Enabled(), "remotely-set mute lands on the local track")
}

func TestVideoUpdateOutgoingMediaRequiresAKind(t *testing.T) {
	s := videoSession("s1", "conv-1")
	env := newTestEnv(Config{}, s)

	err := env.manager.UpdateOutgoingMedia(context.Background(), "s1", domain.MediaUpdate{})

	assert.ErrorIs(t, err, domain.ErrInvalidOptions)
}

func TestVideoUpdateOutgoingMediaReplacesSender(t *testing.T) {
	s := videoSession("s1", "conv-1")
	env := newTestEnv(Config{}, s)
	old := newFakeTrack("v-old", domain.TrackKindVideo, "Old Camera")
	sn, err := s.PC.AddTrack(old)
	require.NoError(t, err)
	s.VideoTrack = old

	require.NoError(t, env.manager.UpdateOutgoingMedia(context.Background(), "s1", domain.MediaUpdate{
		Video: domain.AnyDevice(),
	}))

	fs := sn.(*fakeSender)
	require.Len(t, fs.replaced, 1)
	assert.Equal(t, "Test Camera", fs.replaced[0].Label())
	assert.True(t, old.stopped, "displaced track is released")
	assert.Equal(t, fs.replaced[0], s.VideoTrack)
}
