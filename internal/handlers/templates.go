package handlers

import (
	"github.com/gin-contrib/multitemplate"
)

const reactionBarTemplate = `<div id="reactions-{{.Type}}-{{.ID}}" class="reaction-bar">
  <button hx-post="{{.Path}}/like" hx-target="#reactions-{{.Type}}-{{.ID}}" hx-swap="outerHTML"
    class="reaction-like{{if .HasLiked}} is-active{{end}}" aria-pressed="{{.HasLiked}}">
    <i data-lucide="thumbs-up"></i><span>{{.Likes}}</span>
  </button>
  <button hx-post="{{.Path}}/dislike" hx-target="#reactions-{{.Type}}-{{.ID}}" hx-swap="outerHTML"
    class="reaction-dislike{{if .HasDisliked}} is-active{{end}}" aria-pressed="{{.HasDisliked}}">
    <i data-lucide="thumbs-down"></i><span>{{.Dislikes}}</span>
  </button>
</div>`

// LoadTemplates registers the HTML fragments returned to HTMX callers.
func LoadTemplates() multitemplate.Renderer {
	r := multitemplate.NewRenderer()
	r.AddFromString("reaction/bar.html", reactionBarTemplate)
	return r
}
