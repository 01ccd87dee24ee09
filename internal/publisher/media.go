package publisher

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// MediaKind is the kind of attachment a post carries.
type MediaKind string

const (
	KindImage MediaKind = "image"
	KindVideo MediaKind = "video"
)

const (
	MaxImageBytes int64 = 4 * 1024 * 1024
	MaxVideoBytes int64 = 100 * 1024 * 1024
	MaxVideos           = 2
)

var (
	imageExtensions = map[string]bool{
		".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
		".tiff": true, ".heif": true, ".webp": true,
	}
	videoExtensions = map[string]bool{
		".mp4": true, ".mov": true, ".avi": true, ".wmv": true,
		".flv": true, ".mkv": true, ".webm": true,
	}
)

// MediaSet is a validated list of local files of one kind.
type MediaSet struct {
	Kind  MediaKind
	Paths []string
}

// VideoPaths is either a single video or a list of videos. Build it with
// SingleVideo or VideoList.
type VideoPaths struct {
	paths []string
}

// SingleVideo wraps one video path.
func SingleVideo(path string) VideoPaths {
	return VideoPaths{paths: []string{path}}
}

// VideoList wraps several video paths.
func VideoList(paths ...string) VideoPaths {
	return VideoPaths{paths: paths}
}

// Paths returns the non-empty paths in order.
func (v VideoPaths) Paths() []string {
	out := make([]string, 0, len(v.paths))
	for _, p := range v.paths {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

// KindOf classifies a path by extension. ok is false for unsupported types.
func KindOf(path string) (MediaKind, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case imageExtensions[ext]:
		return KindImage, true
	case videoExtensions[ext]:
		return KindVideo, true
	}
	return "", false
}

// ValidateFile checks the extension, existence and size of path for kind.
func ValidateFile(kind MediaKind, path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	var limit int64
	switch {
	case kind == KindImage && imageExtensions[ext]:
		limit = MaxImageBytes
	case kind == KindVideo && videoExtensions[ext]:
		limit = MaxVideoBytes
	default:
		return &MediaError{Path: path, Err: ErrUnsupportedMediaType}
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return &MediaError{Path: path, Err: ErrMediaNotFound}
	}
	if info.Size() > limit {
		return &MediaError{Path: path, Size: info.Size(), Limit: limit, Err: ErrMediaTooLarge}
	}
	return nil
}

// ValidateAll validates every path, stopping at the first failure.
func ValidateAll(kind MediaKind, paths []string) error {
	for _, p := range paths {
		if err := ValidateFile(kind, p); err != nil {
			return err
		}
	}
	return nil
}

// PrepareMedia classifies a mixed list of attachments: the set is a video
// set if any file is a video, otherwise an image set. Empty entries are
// dropped. A video set with more than MaxVideos entries is rejected.
func PrepareMedia(paths []string) (MediaSet, error) {
	set := MediaSet{Kind: KindImage}
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		kind, ok := KindOf(p)
		if !ok {
			return MediaSet{}, &MediaError{Path: p, Err: ErrUnsupportedMediaType}
		}
		if kind == KindVideo {
			set.Kind = KindVideo
		}
		set.Paths = append(set.Paths, p)
	}

	if set.Kind == KindVideo {
		if len(set.Paths) > MaxVideos {
			return MediaSet{}, ErrTooManyVideos
		}
		// Mixed sets are published as video; images riding along are rejected.
		for _, p := range set.Paths {
			if k, _ := KindOf(p); k != KindVideo {
				return MediaSet{}, &MediaError{Path: p, Err: ErrUnsupportedMediaType}
			}
		}
	}

	if err := ValidateAll(set.Kind, set.Paths); err != nil {
		return MediaSet{}, err
	}
	return set, nil
}

// IsValidation reports whether err is a local validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrMediaNotFound) ||
		errors.Is(err, ErrUnsupportedMediaType) ||
		errors.Is(err, ErrMediaTooLarge) ||
		errors.Is(err, ErrNoMediaProvided) ||
		errors.Is(err, ErrTooManyVideos)
}
