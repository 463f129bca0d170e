package pages

import (
	"context"
	"errors"
	"strings"

	"github.com/stemacademy/site-api/internal/fallback"
	"github.com/stemacademy/site-api/internal/models"
	"github.com/stemacademy/site-api/internal/services"
)

// ErrPostNotFound is returned when the CMS answered but has no post with the slug
var ErrPostNotFound = errors.New("post not found")

const (
	homeLatestPosts = 3
	aboutTeamSize   = 4
	relatedPosts    = 3
)

// Controller assembles each page from its sections
type Controller struct {
	loader  *Loader
	home    services.HomeServiceInterface
	about   services.AboutServiceInterface
	team    services.TeamServiceInterface
	gallery services.GalleryServiceInterface
	blog    services.BlogServiceInterface
}

// NewController creates a page controller
func NewController(
	loader *Loader,
	home services.HomeServiceInterface,
	about services.AboutServiceInterface,
	team services.TeamServiceInterface,
	gallery services.GalleryServiceInterface,
	blog services.BlogServiceInterface,
) *Controller {
	return &Controller{
		loader:  loader,
		home:    home,
		about:   about,
		team:    team,
		gallery: gallery,
		blog:    blog,
	}
}

// Home loads hero, activities, outcomes and the latest posts
func (c *Controller) Home(ctx context.Context) (models.PageDocument, error) {
	var content models.HomeContent

	result, err := c.loader.Load(ctx, "home",
		Bind(fallback.KeyHomeHero, &content.Hero, c.home.GetHero, fallback.Hero),
		Bind(fallback.KeyHomeActivities, &content.Activities, c.home.GetActivities, fallback.Activities),
		Bind(fallback.KeyHomeOutcomes, &content.Outcomes, c.home.GetOutcomes, fallback.Outcomes),
		Bind(fallback.KeyBlogPosts, &content.LatestPosts, func(ctx context.Context) services.Result[[]models.BlogPost] {
			return c.blog.GetPosts(ctx, 1, "")
		}, fallback.Posts),
	)
	if err != nil {
		return models.PageDocument{}, err
	}

	content.LatestPosts = limit(content.LatestPosts, homeLatestPosts)
	return result.Document(content)
}

// About loads the three about sections and a preview of the team
func (c *Controller) About(ctx context.Context) (models.PageDocument, error) {
	var content models.AboutContent

	result, err := c.loader.Load(ctx, "about",
		Bind(fallback.KeyAboutBackground, &content.Background, c.aboutSection(services.AboutSectionBackground), fallback.AboutBackground),
		Bind(fallback.KeyAboutObjectives, &content.Objectives, c.aboutSection(services.AboutSectionObjectives), fallback.AboutObjectives),
		Bind(fallback.KeyAboutImpact, &content.Impact, c.aboutSection(services.AboutSectionImpact), fallback.AboutImpact),
		Bind(fallback.KeyTeamMembers, &content.Team, c.team.GetMembers, fallback.Team),
	)
	if err != nil {
		return models.PageDocument{}, err
	}

	content.Team = limit(content.Team, aboutTeamSize)
	return result.Document(content)
}

func (c *Controller) aboutSection(section string) func(ctx context.Context) services.Result[models.AboutSection] {
	return func(ctx context.Context) services.Result[models.AboutSection] {
		return c.about.GetSection(ctx, section)
	}
}

// Team loads the full roster
func (c *Controller) Team(ctx context.Context) (models.PageDocument, error) {
	var content models.TeamContent

	result, err := c.loader.Load(ctx, "team",
		Bind(fallback.KeyTeamMembers, &content.Members, c.team.GetMembers, fallback.Team),
	)
	if err != nil {
		return models.PageDocument{}, err
	}
	return result.Document(content)
}

// Gallery loads gallery items, optionally for one category
func (c *Controller) Gallery(ctx context.Context, category string) (models.PageDocument, error) {
	content := models.GalleryContent{Category: strings.ToLower(strings.TrimSpace(category))}

	result, err := c.loader.Load(ctx, "gallery",
		Bind(fallback.KeyGalleryItems, &content.Items, func(ctx context.Context) services.Result[[]models.GalleryItem] {
			return c.gallery.GetItems(ctx, content.Category)
		}, fallback.Gallery),
	)
	if err != nil {
		return models.PageDocument{}, err
	}
	return result.Document(content)
}

// Blog loads one page of the blog index
func (c *Controller) Blog(ctx context.Context, page int, tag string) (models.PageDocument, error) {
	if page < 1 {
		page = 1
	}
	content := models.BlogContent{Page: page, Tag: strings.ToLower(strings.TrimSpace(tag))}

	result, err := c.loader.Load(ctx, "blog",
		Bind(fallback.KeyBlogPosts, &content.Posts, func(ctx context.Context) services.Result[[]models.BlogPost] {
			return c.blog.GetPosts(ctx, content.Page, content.Tag)
		}, fallback.Posts),
	)
	if err != nil {
		return models.PageDocument{}, err
	}
	return result.Document(content)
}

// BlogPost loads a single article plus related posts. A post the CMS does not
// know is ErrPostNotFound; a CMS failure serves the unavailable placeholder.
func (c *Controller) BlogPost(ctx context.Context, postSlug string) (models.PageDocument, error) {
	postSlug = strings.ToLower(strings.TrimSpace(postSlug))

	var (
		content  models.BlogPostContent
		notFound bool
		recent   []models.BlogPost
	)

	result, err := c.loader.Load(ctx, "blog-post",
		Bind(fallback.KeyBlogPost, &content.Post, func(ctx context.Context) services.Result[models.BlogPost] {
			res := c.blog.GetPostBySlug(ctx, postSlug)
			if res.Success && res.Data.Slug == "" {
				notFound = true
			}
			return res
		}, func() models.BlogPost { return fallback.UnavailablePost(postSlug) }),
		Bind(fallback.KeyBlogPosts, &recent, func(ctx context.Context) services.Result[[]models.BlogPost] {
			return c.blog.GetPosts(ctx, 1, "")
		}, fallback.Posts),
	)
	if err != nil {
		return models.PageDocument{}, err
	}
	if notFound {
		return models.PageDocument{}, ErrPostNotFound
	}

	content.Related = related(content.Post, recent, relatedPosts)
	return result.Document(content)
}

// related picks up to n posts other than post, preferring shared tags
func related(post models.BlogPost, candidates []models.BlogPost, n int) []models.BlogPost {
	tags := make(map[string]bool, len(post.Tags))
	for _, t := range post.Tags {
		tags[strings.ToLower(t)] = true
	}

	var matching, others []models.BlogPost
	for _, p := range candidates {
		if p.Slug == post.Slug {
			continue
		}
		shared := false
		for _, t := range p.Tags {
			if tags[strings.ToLower(t)] {
				shared = true
				break
			}
		}
		if shared {
			matching = append(matching, p)
		} else {
			others = append(others, p)
		}
	}

	return limit(append(matching, others...), n)
}

func limit[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	if items == nil {
		return []T{}
	}
	return items
}
