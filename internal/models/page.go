package models

// Section sources reported per page load
const (
	SourceLive     = "live"
	SourceCache    = "cache"
	SourceFallback = "fallback"
)

// SectionReport describes how one section of a page was resolved
type SectionReport struct {
	Key    string `json:"key"`
	Source string `json:"source"`
	Error  string `json:"error,omitempty"`
}

// PageDocument is what a page endpoint returns. Every section in Content is
// populated; Sections tells the renderer where each one came from.
type PageDocument struct {
	Page     string          `json:"page"`
	State    string          `json:"state"`
	Sections []SectionReport `json:"sections"`
	Notice   string          `json:"notice,omitempty"`
	Content  any             `json:"content"`
}

// HomeContent is the merged content of the home page
type HomeContent struct {
	Hero        HeroSection `json:"hero"`
	Activities  []Activity  `json:"activities"`
	Outcomes    []Outcome   `json:"outcomes"`
	LatestPosts []BlogPost  `json:"latestPosts"`
}

// AboutContent is the merged content of the about page
type AboutContent struct {
	Background AboutSection `json:"background"`
	Objectives AboutSection `json:"objectives"`
	Impact     AboutSection `json:"impact"`
	Team       []TeamMember `json:"team"`
}

// TeamContent is the merged content of the team page
type TeamContent struct {
	Members []TeamMember `json:"members"`
}

// GalleryContent is the merged content of the gallery page
type GalleryContent struct {
	Category string        `json:"category,omitempty"`
	Items    []GalleryItem `json:"items"`
}

// BlogContent is the merged content of the blog index
type BlogContent struct {
	Page  int        `json:"page"`
	Tag   string     `json:"tag,omitempty"`
	Posts []BlogPost `json:"posts"`
}

// BlogPostContent is a single article page
type BlogPostContent struct {
	Post    BlogPost   `json:"post"`
	Related []BlogPost `json:"related"`
}
