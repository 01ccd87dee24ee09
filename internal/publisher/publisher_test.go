package publisher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/nhankey2000/auto-post/internal/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	Method string
	Path   string
	Form   map[string]string
	File   string
}

// fakeGraph is a minimal page endpoint that hands out sequential ids.
type fakeGraph struct {
	mu       sync.Mutex
	calls    []recordedCall
	nextID   int
	override func(w http.ResponseWriter, r *http.Request) bool
}

func (f *fakeGraph) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	call := recordedCall{Method: r.Method, Path: r.URL.Path, Form: map[string]string{}}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		_ = r.ParseMultipartForm(32 << 20)
		if fh, ok := r.MultipartForm.File["source"]; ok && len(fh) > 0 {
			call.File = fh[0].Filename
		}
	} else {
		_ = r.ParseForm()
	}
	for k := range r.Form {
		call.Form[k] = r.Form.Get(k)
	}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.nextID++
	id := f.nextID
	f.mu.Unlock()

	if f.override != nil && f.override(w, r) {
		return
	}

	switch {
	case strings.HasSuffix(r.URL.Path, "/photos"):
		fmt.Fprintf(w, `{"id":"photo-%d"}`, id)
	case strings.HasSuffix(r.URL.Path, "/videos"):
		fmt.Fprintf(w, `{"id":"video-%d"}`, id)
	case strings.HasSuffix(r.URL.Path, "/feed"):
		fmt.Fprintf(w, `{"id":"page_post-%d"}`, id)
	default:
		_, _ = w.Write([]byte(`{"success":true}`))
	}
}

func (f *fakeGraph) Calls() []recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedCall(nil), f.calls...)
}

func newPublisher(t *testing.T, fake *fakeGraph) *Publisher {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)
	return New(graph.New(graph.Config{BaseURL: server.URL, BackoffBase: time.Millisecond}), nil, nil)
}

func writeFile(t *testing.T, dir, name string, size int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
	return path
}

var target = Target{PageID: "page-1", AccessToken: "tok"}

// ===== IMAGE PUBLISH TESTS =====

func TestPublishImages(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.jpg", 10)
	b := writeFile(t, dir, "b.png", 10)

	fake := &fakeGraph{}
	pub := newPublisher(t, fake)

	id, err := pub.PublishImages(context.Background(), target, "Title\r\n\r\nBody\\u000A#tag", []string{a, b})
	require.NoError(t, err)
	assert.Equal(t, "page_post-3", id)

	calls := fake.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, "/page-1/photos", calls[0].Path)
	assert.Equal(t, "false", calls[0].Form["published"])
	assert.Equal(t, "a.jpg", calls[0].File)
	assert.Equal(t, "b.png", calls[1].File)

	feed := calls[2]
	assert.Equal(t, "/page-1/feed", feed.Path)
	assert.Equal(t, "Title\n\nBody\n#tag", feed.Form["message"])
	assert.Equal(t, `{"media_fbid":"photo-1"}`, feed.Form["attached_media[0]"])
	assert.Equal(t, `{"media_fbid":"photo-2"}`, feed.Form["attached_media[1]"])
	assert.Equal(t, "tok", feed.Form["access_token"])
}

func TestPublishImagesTextOnly(t *testing.T) {
	fake := &fakeGraph{}
	pub := newPublisher(t, fake)

	message := gofakeit.HipsterSentence()
	id, err := pub.PublishImages(context.Background(), target, message, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "/page-1/feed", calls[0].Path)
	assert.Equal(t, message, calls[0].Form["message"])
	_, hasMedia := calls[0].Form["attached_media[0]"]
	assert.False(t, hasMedia)
}

func TestPublishImagesValidation(t *testing.T) {
	dir := t.TempDir()
	ok := writeFile(t, dir, "ok.jpg", 10)

	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{"missing file", filepath.Join(dir, "missing.jpg"), ErrMediaNotFound},
		{"unsupported extension", writeFile(t, dir, "tiny.bmp", 1), ErrUnsupportedMediaType},
		{"video in image post", writeFile(t, dir, "clip.mp4", 1), ErrUnsupportedMediaType},
		{"too large", writeFile(t, dir, "huge.png", int(MaxImageBytes)+1), ErrMediaTooLarge},
		{"webm in image post", writeFile(t, dir, "clip.webm", 1), ErrUnsupportedMediaType},
		{"heic is not heif", writeFile(t, dir, "photo.heic", 1), ErrUnsupportedMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeGraph{}
			pub := newPublisher(t, fake)

			_, err := pub.PublishImages(context.Background(), target, "msg", []string{ok, tt.path})
			require.ErrorIs(t, err, tt.wantErr)

			var mediaErr *MediaError
			require.ErrorAs(t, err, &mediaErr)
			assert.Equal(t, tt.path, mediaErr.Path)
			assert.Empty(t, fake.Calls(), "no network call before validation passes")
		})
	}
}

func TestPublishImagesRemoteErrorInSuccessBody(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.jpg", 10)

	fake := &fakeGraph{override: func(w http.ResponseWriter, r *http.Request) bool {
		if strings.HasSuffix(r.URL.Path, "/photos") {
			_, _ = w.Write([]byte(`{"error":{"message":"Invalid image","code":324}}`))
			return true
		}
		return false
	}}
	pub := newPublisher(t, fake)

	_, err := pub.PublishImages(context.Background(), target, "msg", []string{a})
	require.ErrorIs(t, err, ErrPublishFailed)
	assert.Equal(t, "Invalid image", RemoteMessage(err))
	assert.Len(t, fake.Calls(), 1, "feed post is not attempted")
}

func TestPublishImagesMissingFeedID(t *testing.T) {
	fake := &fakeGraph{override: func(w http.ResponseWriter, r *http.Request) bool {
		_, _ = w.Write([]byte(`{}`))
		return true
	}}
	pub := newPublisher(t, fake)

	_, err := pub.PublishImages(context.Background(), target, "msg", nil)
	assert.ErrorIs(t, err, ErrPublishFailed)
}

// ===== VIDEO PUBLISH TESTS =====

func TestPublishVideos(t *testing.T) {
	dir := t.TempDir()
	v1 := writeFile(t, dir, "one.mp4", 100)
	v2 := writeFile(t, dir, "two.mov", 100)

	fake := &fakeGraph{}
	pub := newPublisher(t, fake)

	handles, err := pub.PublishVideos(context.Background(), target, "caption", VideoList(v1, "", v2))
	require.NoError(t, err)
	assert.Equal(t, []string{"video-1", "video-2"}, handles)

	calls := fake.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "/page-1/videos", calls[0].Path)
	assert.Equal(t, "caption", calls[0].Form["description"])
	assert.Equal(t, "one.mp4", calls[0].File)
	assert.Equal(t, "two.mov", calls[1].File)
}

func TestPublishVideosSingle(t *testing.T) {
	dir := t.TempDir()
	v := writeFile(t, dir, "one.avi", 100)

	pub := newPublisher(t, &fakeGraph{})
	handles, err := pub.PublishVideos(context.Background(), target, "caption", SingleVideo(v))
	require.NoError(t, err)
	assert.Len(t, handles, 1)
}

func TestPublishVideosCountLimits(t *testing.T) {
	fake := &fakeGraph{}
	pub := newPublisher(t, fake)

	_, err := pub.PublishVideos(context.Background(), target, "caption", VideoList())
	assert.ErrorIs(t, err, ErrNoMediaProvided)

	_, err = pub.PublishVideos(context.Background(), target, "caption", VideoList("a.mp4", "b.mp4", "c.mp4"))
	assert.ErrorIs(t, err, ErrTooManyVideos)

	assert.Empty(t, fake.Calls())
}

func TestPublishVideosMissingID(t *testing.T) {
	dir := t.TempDir()
	v := writeFile(t, dir, "one.mp4", 100)

	fake := &fakeGraph{override: func(w http.ResponseWriter, r *http.Request) bool {
		_, _ = w.Write([]byte(`{"success":true}`))
		return true
	}}
	pub := newPublisher(t, fake)

	_, err := pub.PublishVideos(context.Background(), target, "caption", SingleVideo(v))
	assert.ErrorIs(t, err, ErrPublishFailed)
}

// ===== UPDATE AND DELETE TESTS =====

func TestUpdateTextOnly(t *testing.T) {
	fake := &fakeGraph{}
	pub := newPublisher(t, fake)

	handles, err := pub.Update(context.Background(), target, "page-1_99", "new text", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"page-1_99"}, handles)

	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodPost, calls[0].Method)
	assert.Equal(t, "/page-1_99", calls[0].Path)
	assert.Equal(t, "new text", calls[0].Form["message"])
}

func TestUpdateTextRequiresSuccess(t *testing.T) {
	fake := &fakeGraph{override: func(w http.ResponseWriter, r *http.Request) bool {
		_, _ = w.Write([]byte(`{"success":false}`))
		return true
	}}
	pub := newPublisher(t, fake)

	err := pub.UpdateText(context.Background(), "page-1_99", "tok", "new text")
	assert.ErrorIs(t, err, ErrUpdateFailed)
}

func TestUpdateWithMediaDeletesThenRepublishes(t *testing.T) {
	dir := t.TempDir()
	img := writeFile(t, dir, "new.jpg", 10)

	fake := &fakeGraph{}
	pub := newPublisher(t, fake)

	handles, err := pub.Update(context.Background(), target, "page-1_99", "replacement", &MediaSet{Kind: KindImage, Paths: []string{img}})
	require.NoError(t, err)
	require.Len(t, handles, 1)
	assert.NotEqual(t, "page-1_99", handles[0])

	calls := fake.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, http.MethodDelete, calls[0].Method)
	assert.Equal(t, "/page-1_99", calls[0].Path)
	assert.Equal(t, "/page-1/photos", calls[1].Path)
	assert.Equal(t, "/page-1/feed", calls[2].Path)
}

func TestUpdateWithMediaAbortsWhenDeleteFails(t *testing.T) {
	dir := t.TempDir()
	video := writeFile(t, dir, "new.mp4", 10)

	fake := &fakeGraph{override: func(w http.ResponseWriter, r *http.Request) bool {
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"message":"Unsupported delete request","code":100}}`))
			return true
		}
		return false
	}}
	pub := newPublisher(t, fake)

	_, err := pub.Update(context.Background(), target, "page-1_99", "replacement", &MediaSet{Kind: KindVideo, Paths: []string{video}})
	require.ErrorIs(t, err, ErrDeleteFailed)
	assert.Contains(t, err.Error(), "Unsupported delete request")
	assert.Len(t, fake.Calls(), 1, "nothing is republished")
}

func TestUpdateWithInvalidMediaKeepsPost(t *testing.T) {
	fake := &fakeGraph{}
	pub := newPublisher(t, fake)

	_, err := pub.Update(context.Background(), target, "page-1_99", "replacement", &MediaSet{Kind: KindImage, Paths: []string{"/nope/missing.jpg"}})
	require.ErrorIs(t, err, ErrMediaNotFound)
	assert.Empty(t, fake.Calls())
}

func TestDelete(t *testing.T) {
	fake := &fakeGraph{}
	pub := newPublisher(t, fake)

	require.NoError(t, pub.Delete(context.Background(), "page-1_99", "tok"))
	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodDelete, calls[0].Method)
	assert.Equal(t, "tok", calls[0].Form["access_token"])
}

func TestDeleteFailureCarriesRemoteMessage(t *testing.T) {
	fake := &fakeGraph{override: func(w http.ResponseWriter, r *http.Request) bool {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"(#100) This post could not be loaded","code":100}}`))
		return true
	}}
	pub := newPublisher(t, fake)

	err := pub.Delete(context.Background(), "page-1_99", "tok")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDeleteFailed))
	assert.True(t, graph.IsKind(err, graph.KindClientError))
	assert.Equal(t, "(#100) This post could not be loaded", RemoteMessage(err))
}

// ===== MEDIA PREPARATION TESTS =====

func TestPrepareMedia(t *testing.T) {
	dir := t.TempDir()
	img := writeFile(t, dir, "a.JPG", 10)
	vid := writeFile(t, dir, "b.mp4", 10)
	vid2 := writeFile(t, dir, "c.mov", 10)

	set, err := PrepareMedia([]string{img, ""})
	require.NoError(t, err)
	assert.Equal(t, KindImage, set.Kind)
	assert.Equal(t, []string{img}, set.Paths)

	set, err = PrepareMedia([]string{vid, vid2})
	require.NoError(t, err)
	assert.Equal(t, KindVideo, set.Kind)

	_, err = PrepareMedia([]string{img, vid})
	assert.ErrorIs(t, err, ErrUnsupportedMediaType)

	_, err = PrepareMedia([]string{vid, vid2, vid})
	assert.ErrorIs(t, err, ErrTooManyVideos)

	_, err = PrepareMedia([]string{filepath.Join(dir, "doc.pdf")})
	assert.ErrorIs(t, err, ErrUnsupportedMediaType)

	set, err = PrepareMedia(nil)
	require.NoError(t, err)
	assert.Empty(t, set.Paths)
}

func TestPrepareMediaExtensions(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		file string
		kind MediaKind
	}{
		{"a.jpg", KindImage},
		{"a.jpeg", KindImage},
		{"a.png", KindImage},
		{"a.gif", KindImage},
		{"a.tiff", KindImage},
		{"a.heif", KindImage},
		{"a.webp", KindImage},
		{"b.WEBP", KindImage},
		{"a.mp4", KindVideo},
		{"a.mov", KindVideo},
		{"a.avi", KindVideo},
		{"a.wmv", KindVideo},
		{"a.flv", KindVideo},
		{"a.mkv", KindVideo},
		{"a.webm", KindVideo},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			path := writeFile(t, dir, tt.file, 1)

			kind, ok := KindOf(path)
			require.True(t, ok)
			assert.Equal(t, tt.kind, kind)
			assert.NoError(t, ValidateFile(tt.kind, path))

			set, err := PrepareMedia([]string{path})
			require.NoError(t, err)
			assert.Equal(t, tt.kind, set.Kind)
		})
	}
}
