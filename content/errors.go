package content

import "errors"

var (
	// ErrStoreUnavailable is returned when the content root cannot be read.
	// Nothing can be served without it.
	ErrStoreUnavailable = errors.New("content store unavailable")

	// ErrNotFound is returned when no content file matches a slug.
	ErrNotFound = errors.New("post not found")

	// ErrMalformedFrontMatter is returned when a post's metadata block cannot be decoded.
	// It only affects that post.
	ErrMalformedFrontMatter = errors.New("malformed front-matter")

	// ErrDuplicateSlug is returned when two files in the store share a base name.
	ErrDuplicateSlug = errors.New("duplicate slug")
)
