package site

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/adrg/frontmatter"

	"github.com/matsu911/Serum/internal/compiler"
	"github.com/matsu911/Serum/internal/logfields"
	"github.com/matsu911/Serum/internal/model"
)

const (
	PagesDir = "pages"
	PostsDir = "posts"

	contentExt = ".md"
)

// dateFormats are tried in order when a front matter date is a string.
var dateFormats = []string{"2006-01-02T15:04:05Z07:00", "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}

// loadContent reads every markdown file in dir as an item of the given type
// ("page" or "post"). A missing directory holds no content. Drafts are
// skipped.
func loadContent(dir, typ, baseURL string, logger *slog.Logger) ([]*model.ContentItem, error) {
	files, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list content in '%s': %w", dir, err)
	}

	var items []*model.ContentItem
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(strings.ToLower(f.Name()), contentExt) {
			continue
		}
		path := filepath.Join(dir, f.Name())
		item, draft, err := loadItem(path, typ, baseURL, logger)
		if err != nil {
			return nil, err
		}
		if draft {
			logger.Debug("Skipping draft", logfields.Path(path))
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func loadItem(path, typ, baseURL string, logger *slog.Logger) (*model.ContentItem, bool, error) {
	fileBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read file '%s': %w", path, err)
	}

	var fmData map[string]interface{}
	body, err := frontmatter.Parse(bytes.NewReader(fileBytes), &fmData)
	if err != nil {
		logger.Warn("Could not parse front matter, treating as pure markdown", logfields.Path(path), logfields.Error(err))
		body = fileBytes
		fmData = nil
	}
	if fmData == nil {
		fmData = make(map[string]interface{})
	}
	if draft, _ := fmData["draft"].(bool); draft {
		return nil, true, nil
	}

	var htmlBuffer bytes.Buffer
	if err := compiler.Markdown.Convert(body, &htmlBuffer); err != nil {
		return nil, false, fmt.Errorf("failed to convert markdown to HTML for file '%s': %w", path, err)
	}

	tags := tagsField(fmData)
	for _, tag := range tags {
		if err := checkTag(tag); err != nil {
			return nil, false, fmt.Errorf("invalid front matter in '%s': %w", path, err)
		}
	}

	slug := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	item := &model.ContentItem{
		Title:       stringField(fmData, "title"),
		Slug:        slug,
		Type:        typ,
		Tags:        tags,
		SourcePath:  path,
		ContentHTML: template.HTML(htmlBuffer.String()),
		Frontmatter: fmData,
		Summary:     stringField(fmData, "summary"),
	}
	if item.Title == "" {
		item.Title = compiler.Title(strings.NewReplacer("-", " ", "_", " ").Replace(slug))
	}
	if typ == "post" {
		item.Permalink = compiler.PostURL(baseURL, slug)
	} else {
		item.Permalink = compiler.PageURL(baseURL, slug)
	}

	switch d := fmData["date"].(type) {
	case time.Time:
		item.Date = d
	case string:
		parsed, ok := parseDate(d)
		if !ok {
			logger.Warn("Could not parse date, use YYYY-MM-DD or RFC3339", logfields.Path(path), slog.String("date", d))
		}
		item.Date = parsed
	}
	return item, false, nil
}

func parseDate(s string) (time.Time, bool) {
	for _, format := range dateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func stringField(fm map[string]interface{}, key string) string {
	s, _ := fm[key].(string)
	return s
}

// tagsField accepts tags as a YAML list or as a comma separated string.
func tagsField(fm map[string]interface{}) []string {
	var tags []string
	switch v := fm["tags"].(type) {
	case []interface{}:
		for _, t := range v {
			if s, ok := t.(string); ok && strings.TrimSpace(s) != "" {
				tags = append(tags, strings.TrimSpace(s))
			}
		}
	case string:
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				tags = append(tags, s)
			}
		}
	}
	return tags
}

// checkTag rejects tags that cannot be used as a single directory name under
// tags/ in the output.
func checkTag(tag string) error {
	if tag == "." || tag == ".." || strings.ContainsAny(tag, `/\`) {
		return fmt.Errorf("tag %q must not contain path separators or be \".\" or \"..\"", tag)
	}
	return nil
}

// sortPosts orders posts newest first; undated posts go last.
func sortPosts(posts []*model.ContentItem) {
	sort.SliceStable(posts, func(i, j int) bool {
		if posts[i].Date.IsZero() {
			return false
		}
		if posts[j].Date.IsZero() {
			return true
		}
		return posts[i].Date.After(posts[j].Date)
	})
}

// groupTags maps each tag to its posts, keeping post order.
func groupTags(posts []*model.ContentItem) map[string][]*model.ContentItem {
	tags := make(map[string][]*model.ContentItem)
	for _, p := range posts {
		for _, tag := range p.Tags {
			tags[tag] = append(tags[tag], p)
		}
	}
	return tags
}
