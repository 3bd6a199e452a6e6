package content

import (
	"bytes"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Extensions lists the file extensions recognised as posts.
var Extensions = []string{".md", ".mdx"}

// dateLayouts are tried in order when decoding the date key.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// formats are the accepted metadata blocks: YAML between "---" lines or
// TOML between "+++" lines.
var formats = []*frontmatter.Format{
	frontmatter.NewFormat("---", "---", yaml.Unmarshal),
	frontmatter.NewFormat("+++", "+++", toml.Unmarshal),
}

type frontMatter struct {
	Title       string `yaml:"title" toml:"title"`
	Description string `yaml:"description" toml:"description"`
	Date        any    `yaml:"date" toml:"date"`
	Order       int    `yaml:"order" toml:"order"`
}

// SlugFromPath strips the directory and a recognised extension from name.
// It returns "" when name is not a post file.
func SlugFromPath(name string) string {
	base := path.Base(name)
	for _, ext := range Extensions {
		if strings.HasSuffix(strings.ToLower(base), ext) {
			return base[:len(base)-len(ext)]
		}
	}
	return ""
}

// ParsePost decodes one content file. file is the slash separated path relative
// to the store root.
func ParsePost(file string, data []byte) (Post, error) {
	slug := SlugFromPath(file)
	var fm frontMatter
	body, err := frontmatter.Parse(bytes.NewReader(data), &fm, formats...)
	if err != nil {
		return Post{}, fmt.Errorf("%w: %s: %v", ErrMalformedFrontMatter, file, err)
	}
	date, err := parseDate(fm.Date)
	if err != nil {
		return Post{}, fmt.Errorf("%w: %s: %v", ErrMalformedFrontMatter, file, err)
	}
	title := strings.TrimSpace(fm.Title)
	if title == "" {
		title = titleFromSlug(slug)
	}
	return Post{
		Slug:        slug,
		Title:       title,
		Description: strings.TrimSpace(fm.Description),
		Date:        date,
		Order:       fm.Order,
		File:        file,
		Body:        string(body),
	}, nil
}

func parseDate(v any) (time.Time, error) {
	switch d := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return d.UTC(), nil
	case toml.LocalDate:
		return d.AsTime(time.UTC), nil
	case toml.LocalDateTime:
		return d.AsTime(time.UTC), nil
	case string:
		d = strings.TrimSpace(d)
		if d == "" {
			return time.Time{}, nil
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, d); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("invalid date %q, use YYYY-MM-DD or RFC3339", d)
	default:
		return time.Time{}, fmt.Errorf("invalid date value %v", v)
	}
}

func titleFromSlug(slug string) string {
	s := strings.NewReplacer("-", " ", "_", " ").Replace(slug)
	return cases.Title(language.English).String(s)
}
