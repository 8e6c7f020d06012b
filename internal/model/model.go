package model

import (
	"html/template"
	"time"
)

// ProjectInfo is the project configuration the build reads.
type ProjectInfo struct {
	Title string
	// BaseURL prefixes every site-relative link. It ends in "/".
	BaseURL string
}

// ContentItem represents a single page or blog post.
type ContentItem struct {
	Title       string
	Slug        string
	Date        time.Time
	Type        string // "page" or "post"
	Tags        []string
	SourcePath  string
	Permalink   string
	ContentHTML template.HTML
	Frontmatter map[string]interface{}
	Summary     string
}

// SiteData holds all site-wide data, including configuration and content.
type SiteData struct {
	Title   string
	BaseURL string
	Config  map[string]interface{}
	Pages   []*ContentItem
	Posts   []*ContentItem
	Tags    map[string][]*ContentItem
}
