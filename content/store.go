package content

import (
	"fmt"
	"io/fs"
	"os"
	"slices"

	"github.com/maruel/natural"
)

// Store resolves posts from a read-only file system rooted at the posts directory.
type Store struct {
	fsys fs.FS
}

// NewStore returns a Store reading from fsys.
func NewStore(fsys fs.FS) *Store {
	return &Store{fsys: fsys}
}

// Open returns a Store rooted at dir on the local disk.
func Open(dir string) *Store {
	return NewStore(os.DirFS(dir))
}

// index maps every slug to its file path.
func (s *Store) index() (map[string]string, error) {
	files := make(map[string]string)
	err := fs.WalkDir(s.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, p, err)
		}
		if d.IsDir() {
			return nil
		}
		slug := SlugFromPath(p)
		if slug == "" {
			return nil
		}
		if prev, ok := files[slug]; ok {
			return fmt.Errorf("%w: %q used by %s and %s", ErrDuplicateSlug, slug, prev, p)
		}
		files[slug] = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// ListSlugs returns the slug of every post in the store in natural order,
// so "part-2" sorts before "part-10".
func (s *Store) ListSlugs() ([]string, error) {
	files, err := s.index()
	if err != nil {
		return nil, err
	}
	slugs := make([]string, 0, len(files))
	for slug := range files {
		slugs = append(slugs, slug)
	}
	sortSlugs(slugs)
	return slugs, nil
}

// GetBySlug loads and parses a single post.
func (s *Store) GetBySlug(slug string) (Post, error) {
	files, err := s.index()
	if err != nil {
		return Post{}, err
	}
	file, ok := files[slug]
	if !ok {
		return Post{}, fmt.Errorf("%w: %q", ErrNotFound, slug)
	}
	return s.read(file)
}

// GetNeighbors returns the posts adjacent to slug in newest-first order.
// An unknown slug yields empty Neighbors and no error.
func (s *Store) GetNeighbors(slug string) (Neighbors, error) {
	snap, err := s.Load()
	if err != nil {
		return Neighbors{}, err
	}
	return snap.Neighbors(slug), nil
}

// ListPosts returns every well-formed post, newest first.
func (s *Store) ListPosts() ([]Post, error) {
	snap, err := s.Load()
	if err != nil {
		return nil, err
	}
	return snap.Posts(), nil
}

// Load reads the whole store. Posts that fail to parse are recorded in the
// snapshot instead of failing the load.
func (s *Store) Load() (*Snapshot, error) {
	files, err := s.index()
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{
		bySlug: make(map[string]int, len(files)),
		failed: make(map[string]error),
	}
	for slug, file := range files {
		p, err := s.read(file)
		if err != nil {
			snap.failed[slug] = err
			continue
		}
		snap.posts = append(snap.posts, p)
	}
	slices.SortFunc(snap.posts, Compare)
	for i, p := range snap.posts {
		snap.bySlug[p.Slug] = i
	}
	return snap, nil
}

func (s *Store) read(file string) (Post, error) {
	data, err := fs.ReadFile(s.fsys, file)
	if err != nil {
		return Post{}, fmt.Errorf("read %s: %w", file, err)
	}
	return ParsePost(file, data)
}

// Snapshot is the state of the store at one point in time.
type Snapshot struct {
	posts  []Post
	bySlug map[string]int
	failed map[string]error
}

// Posts returns the well-formed posts, newest first. The slice must not be modified.
func (s *Snapshot) Posts() []Post {
	return s.posts
}

// Failed returns the per-slug parse errors encountered while loading.
func (s *Snapshot) Failed() map[string]error {
	return s.failed
}

// Slugs returns every slug in the snapshot, including posts that failed to parse, sorted.
func (s *Snapshot) Slugs() []string {
	slugs := make([]string, 0, len(s.posts)+len(s.failed))
	for _, p := range s.posts {
		slugs = append(slugs, p.Slug)
	}
	for slug := range s.failed {
		slugs = append(slugs, slug)
	}
	sortSlugs(slugs)
	return slugs
}

func sortSlugs(slugs []string) {
	slices.SortFunc(slugs, func(a, b string) int {
		switch {
		case natural.Less(a, b):
			return -1
		case natural.Less(b, a):
			return 1
		}
		return 0
	})
}

// Get returns the post for slug.
func (s *Snapshot) Get(slug string) (Post, error) {
	if err, ok := s.failed[slug]; ok {
		return Post{}, err
	}
	i, ok := s.bySlug[slug]
	if !ok {
		return Post{}, fmt.Errorf("%w: %q", ErrNotFound, slug)
	}
	return s.posts[i], nil
}

// Neighbors returns the older (Previous) and newer (Next) posts around slug.
func (s *Snapshot) Neighbors(slug string) Neighbors {
	i, ok := s.bySlug[slug]
	if !ok {
		return Neighbors{}
	}
	var n Neighbors
	if i > 0 {
		next := s.posts[i-1]
		n.Next = &next
	}
	if i+1 < len(s.posts) {
		prev := s.posts[i+1]
		n.Previous = &prev
	}
	return n
}
