package messaging

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/nhankey2000/auto-post/internal/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu    sync.Mutex
	saved map[string][]byte
}

func (s *memStore) Save(_ context.Context, key string, data []byte, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saved == nil {
		s.saved = map[string][]byte{}
	}
	s.saved[key] = data
	return "https://cdn.local/" + key, nil
}

func newBridge(t *testing.T, handler http.HandlerFunc, store AttachmentStore) *Bridge {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewBridge(graph.New(graph.Config{BaseURL: server.URL, BackoffBase: time.Millisecond}), store, nil, nil)
}

// ===== FETCH TESTS =====

func TestFetchMessagesDownloadsVideos(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		base := "http://" + r.Host
		switch r.URL.Path {
		case "/page-1/conversations":
			assert.Equal(t, conversationFields, r.URL.Query().Get("fields"))
			fmt.Fprintf(w, `{"data":[{
				"id":"t_1",
				"participants":{"data":[{"id":"page-1","name":"My Page"},{"id":"u-9","name":"Alice"}]},
				"messages":{"data":[
					{"id":"m_1","message":"look","from":{"id":"u-9","name":"Alice"},"created_time":"2025-01-02T10:00:00+0000",
					 "attachments":{"data":[
						{"id":"a1","mime_type":"video/mp4","name":"clip.mp4","video_data":{"url":"%[1]s/cdn/clip.mp4?sig=abc"}},
						{"id":"a2","mime_type":"image/jpeg","name":"pic.jpg","url":"%[1]s/cdn/pic.jpg"}]}},
					{"id":"m_2","message":"thanks","from":{"id":"page-1","name":"My Page"},"created_time":"2025-01-02T10:01:00+0000"}
				]}}]}`, base)
		case "/cdn/clip.mp4":
			assert.Equal(t, "tok", r.URL.Query().Get("access_token"))
			assert.Equal(t, "abc", r.URL.Query().Get("sig"))
			_, _ = w.Write([]byte("video-bytes"))
		default:
			t.Errorf("unexpected request %s", r.URL.Path)
			http.NotFound(w, r)
		}
	}
	store := &memStore{}
	bridge := newBridge(t, handler, store)

	messages, err := bridge.FetchMessages(context.Background(), "page-1", "tok")
	require.NoError(t, err)
	require.Len(t, messages, 2)

	first := messages[0]
	assert.Equal(t, "t_1", first.ConversationID)
	assert.Equal(t, "u-9", first.SenderID)
	assert.Equal(t, "Alice", first.SenderName)
	assert.Equal(t, "look", first.Text)
	assert.Equal(t, 2025, first.CreatedTime.Year())
	require.Len(t, first.Attachments, 2)

	video := first.Attachments[0]
	assert.True(t, video.IsVideo())
	assert.Equal(t, "https://cdn.local/videos/m_1.mp4", video.URL)
	assert.Equal(t, video.URL, video.LocalURL)
	assert.Equal(t, []byte("video-bytes"), store.saved["videos/m_1.mp4"])

	image := first.Attachments[1]
	assert.False(t, image.IsVideo())
	assert.Contains(t, image.URL, "/cdn/pic.jpg")
	assert.Empty(t, image.LocalURL)

	// The sender is the non-page participant for every message of the thread.
	assert.Equal(t, "u-9", messages[1].SenderID)
}

func TestFetchMessagesSkipsFailedDownload(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/page-1/conversations" {
			fmt.Fprintf(w, `{"data":[{"id":"t_1","participants":{"data":[{"id":"u-1"}]},
				"messages":{"data":[{"id":"m_1","attachments":{"data":[
					{"id":"a1","type":"video","payload":{"url":"http://%s/cdn/gone.mp4"}}]}}]}}]}`, r.Host)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}
	store := &memStore{}
	bridge := newBridge(t, handler, store)

	messages, err := bridge.FetchMessages(context.Background(), "page-1", "tok")
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0].Attachments[0].URL, "/cdn/gone.mp4")
	assert.Empty(t, messages[0].Attachments[0].LocalURL)
	assert.Empty(t, store.saved)
}

func TestFetchMessagesSurfacesFetchFailure(t *testing.T) {
	bridge := newBridge(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid OAuth access token.","code":190}}`))
	}, &memStore{})

	_, err := bridge.FetchMessages(context.Background(), "page-1", "bad")
	require.Error(t, err)
	assert.Equal(t, "Invalid OAuth access token.", graph.Message(err))
}

func TestRawAttachmentSourceURLPrecedence(t *testing.T) {
	a := rawAttachment{URL: "u", FileURL: "f"}
	assert.Equal(t, "u", a.sourceURL())
	a.Payload.URL = "p"
	assert.Equal(t, "p", a.sourceURL())
	assert.Equal(t, "f", rawAttachment{FileURL: "f"}.sourceURL())
	assert.Equal(t, "", rawAttachment{}.sourceURL())
}

// ===== REPLY TESTS =====

func TestReply(t *testing.T) {
	bridge := newBridge(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/me/messages", r.URL.Path)
		assert.Equal(t, "tok", r.URL.Query().Get("access_token"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"recipient":{"id":"u-9"},"message":{"text":"line1\nline2"}}`, string(body))
		_, _ = w.Write([]byte(`{"recipient_id":"u-9","message_id":"mid.1"}`))
	}, nil)

	require.NoError(t, bridge.Reply(context.Background(), "u-9", "tok", "line1\r\nline2"))
}

func TestReplyErrorInSuccessBody(t *testing.T) {
	bridge := newBridge(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"message":"This person isn't available right now.","code":551}}`))
	}, nil)

	err := bridge.Reply(context.Background(), "u-9", "tok", "hi")
	require.ErrorIs(t, err, ErrReplyFailed)

	var replyErr *ReplyError
	require.ErrorAs(t, err, &replyErr)
	assert.Equal(t, "This person isn't available right now.", replyErr.Reason)
}

func TestReplyOutsideMessagingWindow(t *testing.T) {
	bridge := newBridge(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"(#10) This message is sent outside of allowed window.","code":10}}`))
	}, nil)

	err := bridge.Reply(context.Background(), "u-9", "tok", "hi")
	require.ErrorIs(t, err, ErrReplyFailed)
	assert.Contains(t, err.Error(), "outside of allowed window")
}

// ===== PAGE INFO TESTS =====

func TestPageAvatar(t *testing.T) {
	bridge := newBridge(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "false", r.URL.Query().Get("redirect"))
		_, _ = w.Write([]byte(`{"data":{"url":"https://scontent.example/p36x36.jpg","height":36,"width":36}}`))
	}, nil)
	assert.Equal(t, "https://scontent.example/p36x36.jpg", bridge.PageAvatar(context.Background(), "page-1", "tok"))

	failing := newBridge(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}, nil)
	assert.Equal(t, FallbackAvatarURL("page-1"), failing.PageAvatar(context.Background(), "page-1", "tok"))
}

func TestReadWatermark(t *testing.T) {
	bridge := newBridge(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/t_1", r.URL.Path)
		_, _ = w.Write([]byte(`{"read_watermark":1735812000000,"id":"t_1"}`))
	}, nil)

	wm, err := bridge.ReadWatermark(context.Background(), "t_1", "tok")
	require.NoError(t, err)
	require.NotNil(t, wm)
	assert.Equal(t, int64(1735812000000), *wm)
}
