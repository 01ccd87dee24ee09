// Package token checks whether a page access token is still accepted by the
// Graph API and when it expires.
package token

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nhankey2000/auto-post/internal/graph"
	"github.com/nhankey2000/auto-post/internal/metrics"
	"go.uber.org/zap"
)

// PlatformFacebook is the only platform the validator can check.
const PlatformFacebook = "facebook"

// Credential is what a stored page connection provides to the validator.
type Credential struct {
	Platform    string
	PageID      string
	AccessToken string
	AppID       string
	AppSecret   string
}

// Result is a successful check. ExpiresAt is nil for tokens that never expire.
type Result struct {
	Valid     bool
	ExpiresAt *time.Time
	Scopes    []string
}

// Validator runs connection checks against debug_token.
type Validator struct {
	graph   graph.Doer
	log     *zap.Logger
	metrics *metrics.Metrics
}

// NewValidator creates a validator. log and m may be nil.
func NewValidator(doer graph.Doer, log *zap.Logger, m *metrics.Metrics) *Validator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Validator{graph: doer, log: log, metrics: m}
}

// Check reports whether the credential's token is currently valid. The bool
// is false when the token is invalid or its state could not be determined;
// in that case no network call was made if the credential was incomplete.
func (v *Validator) Check(ctx context.Context, cred Credential) (Result, bool) {
	if !Checkable(cred) {
		v.record(false)
		return Result{}, false
	}

	resp, err := v.graph.Execute(ctx, &graph.Request{
		Name:   "debug_token",
		Method: http.MethodGet,
		Path:   "debug_token",
		Query: url.Values{
			"input_token":  {cred.AccessToken},
			"access_token": {cred.AppID + "|" + cred.AppSecret},
		},
	})
	if err != nil {
		v.log.Warn("Token check failed", zap.String("page_id", cred.PageID), zap.Error(err))
		v.record(false)
		return Result{}, false
	}

	var body struct {
		Data struct {
			IsValid   bool     `json:"is_valid"`
			ExpiresAt int64    `json:"expires_at"`
			Scopes    []string `json:"scopes"`
		} `json:"data"`
	}
	if err := resp.Decode(&body); err != nil {
		v.log.Warn("Token check returned malformed body", zap.String("page_id", cred.PageID), zap.Error(err))
		v.record(false)
		return Result{}, false
	}
	if !body.Data.IsValid {
		v.record(false)
		return Result{}, false
	}

	result := Result{Valid: true, Scopes: body.Data.Scopes}
	if body.Data.ExpiresAt > 0 {
		expires := time.Unix(body.Data.ExpiresAt, 0).UTC()
		result.ExpiresAt = &expires
	}
	v.record(true)
	return result, true
}

// Checkable reports whether cred carries everything a check needs.
func Checkable(cred Credential) bool {
	if cred.AccessToken == "" || cred.AppID == "" || cred.AppSecret == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(cred.Platform), PlatformFacebook)
}

func (v *Validator) record(valid bool) {
	if v.metrics == nil {
		return
	}
	label := "false"
	if valid {
		label = "true"
	}
	v.metrics.TokenChecksTotal.WithLabelValues(label).Inc()
}
