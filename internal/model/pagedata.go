package model

import "html/template"

// ListData is the subject of a list page: all posts, or the posts of a tag.
type ListData struct {
	Title string
	Tag   string
	Posts []*ContentItem
}

// PageData is passed to every template when a site page is rendered.
// Item is set for pages and posts, List for list pages, and Contents holds
// the already rendered inner template when base is rendered.
type PageData struct {
	Site     *SiteData
	Item     *ContentItem
	List     *ListData
	Title    string
	Contents template.HTML
}
