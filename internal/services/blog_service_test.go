package services_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stemacademy/site-api/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blogPosts() []map[string]any {
	return []map[string]any{
		{"id": "2", "title": "Science Fair Results", "slug": "science-fair", "content": "## Winners\n\nWell done!", "is_published": true, "order": 2},
		{"id": "1", "title": "Robotics Day", "content": "We built **robots**.", "is_published": true, "order": 1},
		{"id": "3", "title": "Draft", "slug": "draft", "is_published": false, "order": 0},
	}
}

func TestBlogService_GetPosts(t *testing.T) {
	cms := newFakeCMS(t)
	var gotQuery string
	cms.handle(http.MethodGet, "/api/blog-content/posts", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		writeJSON(w, http.StatusOK, envelope(blogPosts()))
	})
	svc := services.NewBlogService(newDeps(cms.URL, nil))

	res := svc.GetPosts(context.Background(), 2, " Robotics ")

	require.True(t, res.Success)
	assert.Equal(t, "page=2&tag=robotics", gotQuery)
	require.Len(t, res.Data, 2)

	assert.Equal(t, "robotics-day", res.Data[0].Slug, "missing slug is generated from the title")
	assert.Contains(t, res.Data[0].ContentHTML, "<strong>robots</strong>")
	assert.Equal(t, "science-fair", res.Data[1].Slug)
	assert.Contains(t, res.Data[1].ContentHTML, `<h2 id="winners">Winners</h2>`)
}

func TestBlogService_FirstPageHasNoPageParam(t *testing.T) {
	cms := newFakeCMS(t)
	var gotQuery string
	cms.handle(http.MethodGet, "/api/blog-content/posts", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		writeJSON(w, http.StatusOK, envelope(blogPosts()))
	})
	svc := services.NewBlogService(newDeps(cms.URL, nil))

	require.True(t, svc.GetPosts(context.Background(), 1, "").Success)
	assert.Empty(t, gotQuery)
}

func TestBlogService_GeneratedSlugsStayUnique(t *testing.T) {
	cms := newFakeCMS(t)
	cms.respond(http.MethodGet, "/api/blog-content/posts", http.StatusOK, envelope([]map[string]any{
		{"id": "1", "title": "Update", "slug": "update", "is_published": true, "order": 1},
		{"id": "2", "title": "Update", "is_published": true, "order": 2},
	}))
	svc := services.NewBlogService(newDeps(cms.URL, nil))

	res := svc.GetPosts(context.Background(), 1, "")

	require.True(t, res.Success)
	assert.Equal(t, "update", res.Data[0].Slug)
	assert.Equal(t, "update-2", res.Data[1].Slug)
}

func TestBlogService_GetPostBySlug(t *testing.T) {
	cms := newFakeCMS(t)
	var gotSlug string
	cms.handle(http.MethodGet, "/api/blog-content/posts", func(w http.ResponseWriter, r *http.Request) {
		gotSlug = r.URL.Query().Get("slug")
		writeJSON(w, http.StatusOK, envelope(blogPosts()))
	})
	svc := services.NewBlogService(newDeps(cms.URL, nil))

	res := svc.GetPostBySlug(context.Background(), "science-fair")

	require.True(t, res.Success)
	assert.Equal(t, "science-fair", gotSlug)
	assert.Equal(t, "2", res.Data.ID)
}

func TestBlogService_GetPostBySlug_NotFound(t *testing.T) {
	cms := newFakeCMS(t)
	cms.respond(http.MethodGet, "/api/blog-content/posts", http.StatusOK, envelope(blogPosts()))
	svc := services.NewBlogService(newDeps(cms.URL, nil))

	res := svc.GetPostBySlug(context.Background(), "missing")
	assert.True(t, res.Success)
	assert.Empty(t, res.Data.ID)

	res = svc.GetPostBySlug(context.Background(), "../etc/passwd")
	assert.True(t, res.Success)
	assert.Empty(t, res.Data.ID)
	assert.Equal(t, 1, cms.hitCount(http.MethodGet, "/api/blog-content/posts"), "invalid slugs never reach the CMS")
}

func TestBlogService_GetPostBySlug_Failure(t *testing.T) {
	cms := newFakeCMS(t)
	cms.respond(http.MethodGet, "/api/blog-content/posts", http.StatusInternalServerError, map[string]any{})
	svc := services.NewBlogService(newDeps(cms.URL, nil))

	res := svc.GetPostBySlug(context.Background(), "science-fair")

	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
}
