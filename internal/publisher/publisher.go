// Package publisher implements the Graph publishing protocol: photo
// uploads attached to a feed post, video uploads, text edits, media
// replacement and deletion.
package publisher

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/nhankey2000/auto-post/internal/graph"
	"github.com/nhankey2000/auto-post/internal/metrics"
	"github.com/nhankey2000/auto-post/internal/util"
	"go.uber.org/zap"
)

// Target identifies the page to publish to.
type Target struct {
	PageID      string
	AccessToken string
}

// Publisher publishes to a page through the Graph transport. It never
// stores the handles it returns.
type Publisher struct {
	graph   graph.Doer
	log     *zap.Logger
	metrics *metrics.Metrics
}

// New creates a Publisher. log and m may be nil.
func New(doer graph.Doer, log *zap.Logger, m *metrics.Metrics) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{graph: doer, log: log, metrics: m}
}

type idResponse struct {
	ID     string `json:"id"`
	PostID string `json:"post_id"`
}

type successResponse struct {
	Success bool `json:"success"`
}

// PublishImages uploads every image unpublished, then creates one feed post
// attaching them. With no images it creates a text-only post. Photos
// uploaded before a failure are left unpublished on the page.
func (p *Publisher) PublishImages(ctx context.Context, target Target, message string, imagePaths []string) (string, error) {
	message = util.NormalizeNewlines(message)
	if err := ValidateAll(KindImage, imagePaths); err != nil {
		p.record("publish_images", err)
		return "", err
	}

	form := url.Values{}
	form.Set("message", message)
	form.Set("access_token", target.AccessToken)

	for i, path := range imagePaths {
		photoID, err := p.uploadPhoto(ctx, target, path)
		if err != nil {
			p.record("publish_images", err)
			return "", err
		}
		form.Set("attached_media["+strconv.Itoa(i)+"]", `{"media_fbid":"`+photoID+`"}`)
	}

	var created idResponse
	if err := p.call(ctx, &graph.Request{
		Name:   "page.feed",
		Method: http.MethodPost,
		Path:   target.PageID + "/feed",
		Form:   form,
	}, &created); err != nil {
		err = &OperationError{Op: ErrPublishFailed, Target: target.PageID, Cause: err}
		p.record("publish_images", err)
		return "", err
	}
	if created.ID == "" {
		err := &OperationError{Op: ErrPublishFailed, Target: target.PageID, Cause: fmt.Errorf("feed response has no id")}
		p.record("publish_images", err)
		return "", err
	}

	p.log.Info("Published post",
		zap.String("page_id", target.PageID),
		zap.String("post_id", created.ID),
		zap.Int("images", len(imagePaths)),
	)
	p.record("publish_images", nil)
	return created.ID, nil
}

func (p *Publisher) uploadPhoto(ctx context.Context, target Target, path string) (string, error) {
	var photo idResponse
	err := p.call(ctx, &graph.Request{
		Name:   "page.photos",
		Method: http.MethodPost,
		Path:   target.PageID + "/photos",
		Form: url.Values{
			"access_token": {target.AccessToken},
			"published":    {"false"},
		},
		Files: map[string]string{"source": path},
	}, &photo)
	if err != nil {
		return "", &OperationError{Op: ErrPublishFailed, Target: path, Cause: err}
	}
	if photo.ID == "" {
		return "", &OperationError{Op: ErrPublishFailed, Target: path, Cause: fmt.Errorf("photo response has no id")}
	}
	return photo.ID, nil
}

// PublishVideos uploads each video as its own page video and returns the
// handles in input order. One or two videos are accepted.
func (p *Publisher) PublishVideos(ctx context.Context, target Target, message string, videos VideoPaths) ([]string, error) {
	paths := videos.Paths()
	switch {
	case len(paths) == 0:
		p.record("publish_videos", ErrNoMediaProvided)
		return nil, ErrNoMediaProvided
	case len(paths) > MaxVideos:
		p.record("publish_videos", ErrTooManyVideos)
		return nil, ErrTooManyVideos
	}
	if err := ValidateAll(KindVideo, paths); err != nil {
		p.record("publish_videos", err)
		return nil, err
	}

	message = util.NormalizeNewlines(message)
	handles := make([]string, 0, len(paths))
	for _, path := range paths {
		var video idResponse
		err := p.call(ctx, &graph.Request{
			Name:   "page.videos",
			Method: http.MethodPost,
			Path:   target.PageID + "/videos",
			Form: url.Values{
				"description":  {message},
				"access_token": {target.AccessToken},
			},
			Files: map[string]string{"source": path},
		}, &video)
		if err == nil && video.ID == "" {
			err = fmt.Errorf("video response has no id")
		}
		if err != nil {
			err = &OperationError{Op: ErrPublishFailed, Target: path, Cause: err}
			p.record("publish_videos", err)
			return handles, err
		}
		handles = append(handles, video.ID)
	}

	p.log.Info("Published videos",
		zap.String("page_id", target.PageID),
		zap.Strings("post_ids", handles),
	)
	p.record("publish_videos", nil)
	return handles, nil
}

// UpdateText edits the message of an existing post in place.
func (p *Publisher) UpdateText(ctx context.Context, postID, accessToken, message string) error {
	var out successResponse
	err := p.call(ctx, &graph.Request{
		Name:   "post.update",
		Method: http.MethodPost,
		Path:   postID,
		Form: url.Values{
			"message":      {util.NormalizeNewlines(message)},
			"access_token": {accessToken},
		},
	}, &out)
	if err == nil && !out.Success {
		err = fmt.Errorf("remote did not confirm the update")
	}
	if err != nil {
		err = &OperationError{Op: ErrUpdateFailed, Target: postID, Cause: err}
	}
	p.record("update_text", err)
	return err
}

// Update changes an existing post. Without media it edits the message and
// returns the unchanged handle. With media the post is deleted and
// republished, since Graph cannot swap attachments on a live post; the
// returned handles replace postID. If the republish fails after the delete
// succeeded, the original post is gone.
func (p *Publisher) Update(ctx context.Context, target Target, postID, message string, media *MediaSet) ([]string, error) {
	if media == nil {
		if err := p.UpdateText(ctx, postID, target.AccessToken, message); err != nil {
			return nil, err
		}
		return []string{postID}, nil
	}

	// Nothing is deleted unless the replacement media is publishable.
	switch media.Kind {
	case KindVideo:
		if len(media.Paths) == 0 {
			return nil, ErrNoMediaProvided
		}
		if len(media.Paths) > MaxVideos {
			return nil, ErrTooManyVideos
		}
	case KindImage:
	default:
		return nil, &MediaError{Path: string(media.Kind), Err: ErrUnsupportedMediaType}
	}
	if err := ValidateAll(media.Kind, media.Paths); err != nil {
		return nil, err
	}

	if err := p.Delete(ctx, postID, target.AccessToken); err != nil {
		return nil, err
	}

	if media.Kind == KindVideo {
		return p.PublishVideos(ctx, target, message, VideoList(media.Paths...))
	}
	id, err := p.PublishImages(ctx, target, message, media.Paths)
	if err != nil {
		return nil, err
	}
	return []string{id}, nil
}

// Delete removes a post from the page.
func (p *Publisher) Delete(ctx context.Context, postID, accessToken string) error {
	var out successResponse
	err := p.call(ctx, &graph.Request{
		Name:   "post.delete",
		Method: http.MethodDelete,
		Path:   postID,
		Query:  url.Values{"access_token": {accessToken}},
	}, &out)
	if err == nil && !out.Success {
		err = fmt.Errorf("remote did not confirm the delete")
	}
	if err != nil {
		err = &OperationError{Op: ErrDeleteFailed, Target: postID, Cause: err}
		p.log.Warn("Delete failed", zap.String("post_id", postID), zap.Error(err))
	}
	p.record("delete", err)
	return err
}

// call executes req and decodes a 2xx body into out. An error object inside
// a 2xx body is returned as a *graph.RemoteError.
func (p *Publisher) call(ctx context.Context, req *graph.Request, out interface{}) error {
	resp, err := p.graph.Execute(ctx, req)
	if err != nil {
		return err
	}
	if remote := resp.RemoteError(); remote != nil {
		return remote
	}
	return resp.Decode(out)
}

func (p *Publisher) record(op string, err error) {
	if p.metrics == nil {
		return
	}
	result := "success"
	switch {
	case err == nil:
	case IsValidation(err):
		result = "invalid"
	default:
		result = "error"
	}
	p.metrics.PublishTotal.WithLabelValues(op, result).Inc()
}
