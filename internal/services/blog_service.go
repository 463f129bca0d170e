package services

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/stemacademy/site-api/internal/models"
	"github.com/stemacademy/site-api/pkg/logger"
	"github.com/stemacademy/site-api/pkg/markdown"
	"github.com/stemacademy/site-api/pkg/slug"
	"go.uber.org/zap"
)

// Blog endpoint and its only section
const (
	BlogEndpoint     = "/api/blog-content"
	BlogSectionPosts = "posts"
)

// BlogService reads articles and renders their markdown bodies
type BlogService struct {
	endpoint *Endpoint
	posts    *ContentService[[]models.BlogPost]
	renderer *markdown.Renderer
}

// NewBlogService creates a new blog service instance
func NewBlogService(deps ContentDeps) *BlogService {
	s := &BlogService{
		endpoint: NewEndpoint(deps, "blog", BlogEndpoint, BlogSectionPosts),
		renderer: markdown.NewRenderer(),
	}
	s.posts = NewContentService(s.endpoint, s.preparePosts)
	return s
}

// Endpoint exposes the CMS endpoint for mutations and invalidation
func (s *BlogService) Endpoint() *Endpoint {
	return s.endpoint
}

// GetPosts returns one page of published posts, optionally filtered by tag
func (s *BlogService) GetPosts(ctx context.Context, page int, tag string) Result[[]models.BlogPost] {
	params := url.Values{}
	if page > 1 {
		params.Set("page", strconv.Itoa(page))
	}
	if tag = strings.ToLower(strings.TrimSpace(tag)); tag != "" {
		params.Set("tag", tag)
	}
	return s.posts.GetSectionContent(ctx, BlogSectionPosts, params)
}

// GetPostBySlug returns the published post with slug. A reachable CMS that has
// no such post yields Success with an empty post.
func (s *BlogService) GetPostBySlug(ctx context.Context, postSlug string) Result[models.BlogPost] {
	postSlug = strings.ToLower(strings.TrimSpace(postSlug))
	if !slug.IsValid(postSlug) {
		return Result[models.BlogPost]{Success: true}
	}

	res := s.posts.GetSectionContent(ctx, BlogSectionPosts, url.Values{"slug": {postSlug}})
	if !res.Success {
		return Result[models.BlogPost]{Error: res.Error}
	}

	for _, post := range res.Data {
		if post.Slug == postSlug {
			return Result[models.BlogPost]{Success: true, Data: post, FromCache: res.FromCache}
		}
	}
	return Result[models.BlogPost]{Success: true, FromCache: res.FromCache}
}

// preparePosts keeps published posts in order, backfills missing slugs and
// renders each body to HTML
func (s *BlogService) preparePosts(posts []models.BlogPost) []models.BlogPost {
	posts = models.PublishedSorted(posts)

	taken := make(map[string]bool, len(posts))
	for _, p := range posts {
		if p.Slug != "" {
			taken[p.Slug] = true
		}
	}

	for i := range posts {
		if posts[i].Slug == "" {
			posts[i].Slug = slug.GenerateUnique(posts[i].Title, func(c string) bool { return taken[c] })
			taken[posts[i].Slug] = true
		}
		if posts[i].Content == "" {
			continue
		}
		html, err := s.renderer.Render(posts[i].Content)
		if err != nil {
			logger.Warn("Failed to render blog post",
				zap.String("slug", posts[i].Slug),
				zap.Error(err))
			continue
		}
		posts[i].ContentHTML = html
	}

	return posts
}
