package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const eventsTracer = "autopost"

// StartPublish opens the span covering one post publish, media uploads
// included.
func StartPublish(ctx context.Context, postID uint, pageID, mediaKind string, files int) (context.Context, trace.Span) {
	return otel.Tracer(eventsTracer).Start(ctx, "post.publish",
		trace.WithAttributes(
			attribute.Int64("post.id", int64(postID)),
			attribute.String("page.id", pageID),
			attribute.String("media.kind", mediaKind),
			attribute.Int("media.files", files),
		),
	)
}

// StartUpdate opens the span for editing a live post.
func StartUpdate(ctx context.Context, postID uint, pageID string, mediaChanged bool) (context.Context, trace.Span) {
	return otel.Tracer(eventsTracer).Start(ctx, "post.update",
		trace.WithAttributes(
			attribute.Int64("post.id", int64(postID)),
			attribute.String("page.id", pageID),
			attribute.Bool("media.changed", mediaChanged),
		),
	)
}

// StartAnalyticsSync opens the span for one aggregation run.
func StartAnalyticsSync(ctx context.Context, accountID uint, since, until string) (context.Context, trace.Span) {
	return otel.Tracer(eventsTracer).Start(ctx, "analytics.sync",
		trace.WithAttributes(
			attribute.Int64("account.id", int64(accountID)),
			attribute.String("range.since", since),
			attribute.String("range.until", until),
		),
	)
}

// StartTokenCheck opens the span for a connection check.
func StartTokenCheck(ctx context.Context, accountID uint, pageID string) (context.Context, trace.Span) {
	return otel.Tracer(eventsTracer).Start(ctx, "account.check",
		trace.WithAttributes(
			attribute.Int64("account.id", int64(accountID)),
			attribute.String("page.id", pageID),
		),
	)
}

// End records err on span, if any, and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
