package models

import (
	"encoding/json"
	"sort"
	"time"
)

// Envelope is the response wrapper every CMS endpoint returns
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Record is implemented by every top-level content record
type Record interface {
	Published() bool
	SortOrder() int
}

// Highlight is a small icon card inside an about section
type Highlight struct {
	Icon        string `json:"icon" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Color       string `json:"color,omitempty"`
}

// Metric is a labelled figure such as "Students reached: 1,200+"
type Metric struct {
	Label string `json:"label" validate:"required"`
	Value string `json:"value" validate:"required"`
}

// HeroSection is the banner at the top of the home page
type HeroSection struct {
	ID              string `json:"id" validate:"required"`
	Title           string `json:"title" validate:"required"`
	Subtitle        string `json:"subtitle"`
	CTAText         string `json:"cta_text,omitempty"`
	CTALink         string `json:"cta_link,omitempty"`
	BackgroundImage string `json:"background_image,omitempty"`
	IsPublished     bool   `json:"is_published"`
	Order           int    `json:"order"`
}

func (h HeroSection) Published() bool { return h.IsPublished }
func (h HeroSection) SortOrder() int  { return h.Order }

// Activity is one program activity card on the home page
type Activity struct {
	ID          string `json:"id" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	Icon        string `json:"icon"`
	Color       string `json:"color,omitempty"`
	IsPublished bool   `json:"is_published"`
	Order       int    `json:"order"`
}

func (a Activity) Published() bool { return a.IsPublished }
func (a Activity) SortOrder() int  { return a.Order }

// Outcome is a program result with an optional headline metric
type Outcome struct {
	ID          string  `json:"id" validate:"required"`
	Title       string  `json:"title" validate:"required"`
	Description string  `json:"description" validate:"required"`
	Icon        string  `json:"icon"`
	Metric      *Metric `json:"metric,omitempty"`
	IsPublished bool    `json:"is_published"`
	Order       int     `json:"order"`
}

func (o Outcome) Published() bool { return o.IsPublished }
func (o Outcome) SortOrder() int  { return o.Order }

// AboutSection is one block of the about page (background, objectives, impact)
type AboutSection struct {
	ID          string      `json:"id" validate:"required"`
	Title       string      `json:"title" validate:"required"`
	Subtitle    string      `json:"subtitle,omitempty"`
	Description string      `json:"description" validate:"required"`
	Highlights  []Highlight `json:"highlights" validate:"dive"`
	Metrics     []Metric    `json:"metrics" validate:"dive"`
	IsPublished bool        `json:"is_published"`
	Order       int         `json:"order"`
}

func (a AboutSection) Published() bool { return a.IsPublished }
func (a AboutSection) SortOrder() int  { return a.Order }

// Socials holds optional profile links
type Socials struct {
	LinkedIn string `json:"linkedin,omitempty" validate:"omitempty,url"`
	Twitter  string `json:"twitter,omitempty" validate:"omitempty,url"`
	GitHub   string `json:"github,omitempty" validate:"omitempty,url"`
}

// TeamMember is a person shown on the team page
type TeamMember struct {
	ID          string  `json:"id" validate:"required"`
	Name        string  `json:"name" validate:"required"`
	Role        string  `json:"role" validate:"required"`
	Bio         string  `json:"bio"`
	Image       string  `json:"image,omitempty"`
	Email       string  `json:"email,omitempty" validate:"omitempty,email"`
	Socials     Socials `json:"socials"`
	IsPublished bool    `json:"is_published"`
	Order       int     `json:"order"`
}

func (m TeamMember) Published() bool { return m.IsPublished }
func (m TeamMember) SortOrder() int  { return m.Order }

// GalleryItem is a photo from a program event
type GalleryItem struct {
	ID          string     `json:"id" validate:"required"`
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	ImageURL    string     `json:"image_url" validate:"required"`
	Category    string     `json:"category"`
	TakenAt     *time.Time `json:"taken_at,omitempty"`
	IsPublished bool       `json:"is_published"`
	Order       int        `json:"order"`
}

func (g GalleryItem) Published() bool { return g.IsPublished }
func (g GalleryItem) SortOrder() int  { return g.Order }

// BlogPost is an article. ContentHTML is rendered from Content and never sent by the CMS.
type BlogPost struct {
	ID          string     `json:"id" validate:"required"`
	Title       string     `json:"title" validate:"required"`
	Slug        string     `json:"slug" validate:"required"`
	Excerpt     string     `json:"excerpt"`
	Content     string     `json:"content"`
	ContentHTML string     `json:"content_html,omitempty"`
	Author      string     `json:"author"`
	CoverImage  string     `json:"cover_image,omitempty"`
	Tags        []string   `json:"tags"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	IsPublished bool       `json:"is_published"`
	Order       int        `json:"order"`
}

func (p BlogPost) Published() bool { return p.IsPublished }
func (p BlogPost) SortOrder() int  { return p.Order }

// PublishedSorted drops unpublished records and orders the rest by SortOrder.
// Records with equal order keep their CMS order.
func PublishedSorted[T Record](records []T) []T {
	out := make([]T, 0, len(records))
	for _, r := range records {
		if r.Published() {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SortOrder() < out[j].SortOrder()
	})
	return out
}
