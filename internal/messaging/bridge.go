// Package messaging reads page conversations and sends replies. Video
// attachments are mirrored into local storage because Graph attachment URLs
// expire.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nhankey2000/auto-post/internal/graph"
	"github.com/nhankey2000/auto-post/internal/metrics"
	"github.com/nhankey2000/auto-post/internal/util"
	"go.uber.org/zap"
)

const conversationFields = "id,participants,messages.limit(20){message,from,created_time,attachments}"

// ErrReplyFailed is matched by every ReplyError.
var ErrReplyFailed = errors.New("reply failed")

// ReplyError carries the reason Graph gave for rejecting a reply.
type ReplyError struct {
	Reason string
	Cause  error
}

func (e *ReplyError) Error() string {
	return fmt.Sprintf("%v: %s", ErrReplyFailed, e.Reason)
}

func (e *ReplyError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrReplyFailed}
	}
	return []error{ErrReplyFailed, e.Cause}
}

// AttachmentStore persists downloaded attachments and returns the URL they
// are served from.
type AttachmentStore interface {
	Save(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Participant is a conversation member.
type Participant struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Attachment is a message attachment. URL is rewritten to the stored copy
// for videos that were downloaded.
type Attachment struct {
	ID       string `json:"id"`
	Type     string `json:"type,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	Name     string `json:"name,omitempty"`
	URL      string `json:"url,omitempty"`
	LocalURL string `json:"local_url,omitempty"`
}

// IsVideo reports whether the attachment is a video.
func (a Attachment) IsVideo() bool {
	return a.Type == "video" || strings.HasPrefix(a.MimeType, "video")
}

// Message is one message of a conversation.
type Message struct {
	ID             string       `json:"id"`
	ConversationID string       `json:"conversation_id"`
	SenderID       string       `json:"sender_id"`
	SenderName     string       `json:"sender_name"`
	From           Participant  `json:"from"`
	Text           string       `json:"message"`
	CreatedTime    time.Time    `json:"created_time"`
	Attachments    []Attachment `json:"attachments,omitempty"`
}

// Bridge talks to the conversation and messaging endpoints of a page.
type Bridge struct {
	graph   graph.Doer
	store   AttachmentStore
	log     *zap.Logger
	metrics *metrics.Metrics
}

// NewBridge creates a Bridge. log and m may be nil.
func NewBridge(doer graph.Doer, store AttachmentStore, log *zap.Logger, m *metrics.Metrics) *Bridge {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bridge{graph: doer, store: store, log: log, metrics: m}
}

// FetchMessages returns the recent messages of every page conversation.
// Video attachments are downloaded and their URL rewritten; a download that
// fails leaves the attachment unchanged.
func (b *Bridge) FetchMessages(ctx context.Context, pageID, accessToken string) ([]Message, error) {
	resp, err := b.graph.Execute(ctx, &graph.Request{
		Name:   "page.conversations",
		Method: http.MethodGet,
		Path:   pageID + "/conversations",
		Query: url.Values{
			"fields":       {conversationFields},
			"access_token": {accessToken},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch conversations: %w", err)
	}
	if remote := resp.RemoteError(); remote != nil {
		return nil, fmt.Errorf("fetch conversations: %w", remote)
	}

	var body conversationsResponse
	if err := resp.Decode(&body); err != nil {
		return nil, fmt.Errorf("fetch conversations: %w", err)
	}

	var out []Message
	for _, conv := range body.Data {
		sender := conv.sender(pageID)
		for _, raw := range conv.Messages.Data {
			msg := Message{
				ID:             raw.ID,
				ConversationID: conv.ID,
				SenderID:       sender.ID,
				SenderName:     sender.Name,
				From:           raw.From,
				Text:           raw.Message,
			}
			if t, err := time.Parse("2006-01-02T15:04:05-0700", raw.CreatedTime); err == nil {
				msg.CreatedTime = t
			}
			for _, a := range raw.Attachments.Data {
				msg.Attachments = append(msg.Attachments, b.attachment(ctx, raw.ID, accessToken, a))
			}
			out = append(out, msg)
		}
	}
	return out, nil
}

func (b *Bridge) attachment(ctx context.Context, messageID, accessToken string, raw rawAttachment) Attachment {
	a := Attachment{
		ID:       raw.ID,
		Type:     raw.Type,
		MimeType: raw.MimeType,
		Name:     raw.Name,
		URL:      raw.sourceURL(),
	}
	if !a.IsVideo() || a.URL == "" || b.store == nil {
		return a
	}

	local, err := b.download(ctx, messageID, accessToken, a.URL)
	if err != nil {
		b.log.Warn("Failed to download video attachment",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
		b.recordAttachment("error")
		return a
	}
	a.URL = local
	a.LocalURL = local
	b.recordAttachment("saved")
	return a
}

func (b *Bridge) download(ctx context.Context, messageID, accessToken, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("access_token", accessToken)
	u.RawQuery = q.Encode()

	resp, err := b.graph.Execute(ctx, &graph.Request{
		Name:   "attachment.download",
		Method: http.MethodGet,
		Path:   u.String(),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Body) == 0 {
		return "", errors.New("empty attachment body")
	}
	return b.store.Save(ctx, "videos/"+messageID+".mp4", resp.Body, "video/mp4")
}

// Reply sends a text message to a user who messaged the page.
func (b *Bridge) Reply(ctx context.Context, recipientID, accessToken, message string) error {
	resp, err := b.graph.Execute(ctx, &graph.Request{
		Name:   "me.messages",
		Method: http.MethodPost,
		Path:   "me/messages",
		Query:  url.Values{"access_token": {accessToken}},
		JSON: map[string]interface{}{
			"recipient": map[string]string{"id": recipientID},
			"message":   map[string]string{"text": util.NormalizeNewlines(message)},
		},
	})
	if err != nil {
		return &ReplyError{Reason: graph.Message(err), Cause: err}
	}
	if remote := resp.RemoteError(); remote != nil {
		return &ReplyError{Reason: remote.Message, Cause: remote}
	}

	b.log.Info("Sent reply", zap.String("recipient_id", recipientID))
	return nil
}

// FallbackAvatarURL is the public small profile picture of a page.
func FallbackAvatarURL(pageID string) string {
	return "https://graph.facebook.com/" + pageID + "/picture?type=small"
}

// PageAvatar returns a 36x36 profile picture URL for the page, or the
// public fallback when Graph does not return one.
func (b *Bridge) PageAvatar(ctx context.Context, pageID, accessToken string) string {
	resp, err := b.graph.Execute(ctx, &graph.Request{
		Name:   "page.picture",
		Method: http.MethodGet,
		Path:   pageID + "/picture",
		Query: url.Values{
			"redirect":     {"false"},
			"height":       {"36"},
			"width":        {"36"},
			"access_token": {accessToken},
		},
	})
	var body struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err == nil {
		err = resp.Decode(&body)
	}
	if err != nil || body.Data.URL == "" {
		b.log.Debug("Using fallback page avatar", zap.String("page_id", pageID), zap.Error(err))
		return FallbackAvatarURL(pageID)
	}
	return body.Data.URL
}

// ReadWatermark returns the timestamp (ms) up to which the other side has
// read the conversation, or nil if Graph does not report one.
func (b *Bridge) ReadWatermark(ctx context.Context, conversationID, accessToken string) (*int64, error) {
	resp, err := b.graph.Execute(ctx, &graph.Request{
		Name:   "conversation.read_watermark",
		Method: http.MethodGet,
		Path:   conversationID,
		Query: url.Values{
			"fields":       {"read_watermark"},
			"access_token": {accessToken},
		},
	})
	if err != nil {
		return nil, err
	}
	var body struct {
		ReadWatermark *int64 `json:"read_watermark"`
	}
	if err := resp.Decode(&body); err != nil {
		return nil, err
	}
	return body.ReadWatermark, nil
}

func (b *Bridge) recordAttachment(result string) {
	if b.metrics != nil {
		b.metrics.AttachmentsSaved.WithLabelValues(result).Inc()
	}
}
