package site

import (
	"fmt"
	"html/template"
	"path"
	"sort"

	"github.com/matsu911/Serum/internal/compiler"
	"github.com/matsu911/Serum/internal/model"
	"github.com/matsu911/Serum/internal/pipeline"
)

// OpRenderPages tags render failures.
const OpRenderPages = "render_pages"

// page is one output file: the category template that renders it and the
// data it is rendered with.
type page struct {
	out      string // slash separated, relative to the output directory
	template string
	data     model.PageData
}

// plan lists every page of the site. Output paths match the links the page
// and post directives produce.
func plan(site *model.SiteData) []page {
	var pages []page
	for _, p := range site.Pages {
		pages = append(pages, page{
			out:      p.Slug + ".html",
			template: "page",
			data:     model.PageData{Site: site, Item: p, Title: p.Title},
		})
	}
	for _, p := range site.Posts {
		pages = append(pages, page{
			out:      path.Join(PostsDir, p.Slug+".html"),
			template: "post",
			data:     model.PageData{Site: site, Item: p, Title: p.Title},
		})
	}

	pages = append(pages, page{
		out:      path.Join(PostsDir, "index.html"),
		template: "list",
		data: model.PageData{
			Site:  site,
			List:  &model.ListData{Title: "Posts", Posts: site.Posts},
			Title: "Posts",
		},
	})

	tags := make([]string, 0, len(site.Tags))
	for tag := range site.Tags {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	for _, tag := range tags {
		title := fmt.Sprintf("Posts tagged %q", tag)
		pages = append(pages, page{
			out:      path.Join("tags", tag, "index.html"),
			template: "list",
			data: model.PageData{
				Site:  site,
				List:  &model.ListData{Title: title, Tag: tag, Posts: site.Tags[tag]},
				Title: title,
			},
		})
	}
	return pages
}

// renderPages renders every planned page through its category template and
// then through base. Every page is attempted; failures are reported together.
func renderPages(templates map[string]*compiler.Template, pages []page, workers int) (pipeline.Entries[string], error) {
	byOut := make(map[string]page, len(pages))
	keys := make([]string, 0, len(pages))
	for _, p := range pages {
		byOut[p.out] = p
		keys = append(keys, p.out)
	}

	return pipeline.Run(OpRenderPages, keys, workers, func(out string) (string, error) {
		p := byOut[out]
		inner, err := templates[p.template].Render(p.data)
		if err != nil {
			return "", fmt.Errorf("%s: %w", out, err)
		}
		data := p.data
		data.Contents = template.HTML(inner)
		html, err := templates["base"].Render(data)
		if err != nil {
			return "", fmt.Errorf("%s: %w", out, err)
		}
		return html, nil
	})
}
