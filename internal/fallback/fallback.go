// Package fallback holds the static content served when the CMS cannot be
// reached and nothing is cached. Every constructor returns a fresh value so
// callers may modify what they get.
package fallback

import (
	"github.com/stemacademy/site-api/internal/models"
)

// Section keys, shared with the page controllers and the webhook handler
const (
	KeyHomeHero        = "home/hero"
	KeyHomeActivities  = "home/activities"
	KeyHomeOutcomes    = "home/outcomes"
	KeyAboutBackground = "about/background"
	KeyAboutObjectives = "about/objectives"
	KeyAboutImpact     = "about/impact"
	KeyTeamMembers     = "team/members"
	KeyGalleryItems    = "gallery/items"
	KeyBlogPosts       = "blog/posts"
	KeyBlogPost        = "blog/post"
)

// Hero is the home page banner
func Hero() models.HeroSection {
	return models.HeroSection{
		ID:          "fallback-hero",
		Title:       "Inspiring the Next Generation of Innovators",
		Subtitle:    "Hands-on science, technology, engineering and mathematics for young learners.",
		CTAText:     "Explore Our Programs",
		CTALink:     "/about",
		IsPublished: true,
	}
}

// Activities are the home page program cards
func Activities() []models.Activity {
	return []models.Activity{
		{
			ID:          "fallback-activity-robotics",
			Title:       "Robotics Workshops",
			Description: "Students design, build and program robots to solve real challenges.",
			Icon:        "cpu",
			Color:       "blue",
			IsPublished: true,
			Order:       1,
		},
		{
			ID:          "fallback-activity-coding",
			Title:       "Coding Clubs",
			Description: "Weekly sessions introducing programming through games and projects.",
			Icon:        "code",
			Color:       "green",
			IsPublished: true,
			Order:       2,
		},
		{
			ID:          "fallback-activity-science",
			Title:       "Science Fairs",
			Description: "Learners present experiments and research to peers, parents and mentors.",
			Icon:        "flask",
			Color:       "purple",
			IsPublished: true,
			Order:       3,
		},
	}
}

// Outcomes are the home page result cards
func Outcomes() []models.Outcome {
	return []models.Outcome{
		{
			ID:          "fallback-outcome-students",
			Title:       "Students Reached",
			Description: "Young people who took part in at least one program activity.",
			Icon:        "users",
			Metric:      &models.Metric{Label: "Students", Value: "1,000+"},
			IsPublished: true,
			Order:       1,
		},
		{
			ID:          "fallback-outcome-schools",
			Title:       "Partner Schools",
			Description: "Schools hosting workshops and clubs throughout the year.",
			Icon:        "school",
			Metric:      &models.Metric{Label: "Schools", Value: "25+"},
			IsPublished: true,
			Order:       2,
		},
	}
}

// AboutBackground is the first block of the about page
func AboutBackground() models.AboutSection {
	return models.AboutSection{
		ID:          "fallback-about-background",
		Title:       "Background Information",
		Subtitle:    "How the program started",
		Description: "The program was founded to give every learner access to quality STEM education, regardless of background or location.",
		Highlights: []models.Highlight{
			{Icon: "target", Title: "Mission", Description: "Make STEM learning practical and accessible.", Color: "blue"},
			{Icon: "eye", Title: "Vision", Description: "A generation of confident problem solvers.", Color: "green"},
		},
		Metrics:     []models.Metric{},
		IsPublished: true,
		Order:       1,
	}
}

// AboutObjectives is the objectives block of the about page
func AboutObjectives() models.AboutSection {
	return models.AboutSection{
		ID:          "fallback-about-objectives",
		Title:       "Our Objectives",
		Description: "What we set out to achieve with every cohort.",
		Highlights: []models.Highlight{
			{Icon: "lightbulb", Title: "Curiosity", Description: "Encourage questions and experimentation."},
			{Icon: "tool", Title: "Skills", Description: "Build practical engineering and coding skills."},
			{Icon: "heart", Title: "Inclusion", Description: "Reach learners who are under-represented in STEM."},
		},
		Metrics:     []models.Metric{},
		IsPublished: true,
		Order:       2,
	}
}

// AboutImpact is the impact block of the about page
func AboutImpact() models.AboutSection {
	return models.AboutSection{
		ID:          "fallback-about-impact",
		Title:       "Our Impact",
		Description: "Results from the communities we work with.",
		Highlights:  []models.Highlight{},
		Metrics: []models.Metric{
			{Label: "Students reached", Value: "1,000+"},
			{Label: "Workshops held", Value: "150+"},
		},
		IsPublished: true,
		Order:       3,
	}
}

// Team is shown when the roster is unavailable
func Team() []models.TeamMember {
	return []models.TeamMember{
		{
			ID:          "fallback-team-coordinator",
			Name:        "Program Team",
			Role:        "Coordinators",
			Bio:         "Our educators and volunteers run workshops, clubs and events across the region.",
			IsPublished: true,
			Order:       1,
		},
	}
}

// Gallery is a placeholder item pointing at the static site assets
func Gallery() []models.GalleryItem {
	return []models.GalleryItem{
		{
			ID:          "fallback-gallery-workshop",
			Title:       "Workshop in Progress",
			Description: "Students collaborating during a robotics workshop.",
			ImageURL:    "/images/gallery/placeholder.jpg",
			Category:    "workshops",
			IsPublished: true,
			Order:       1,
		},
	}
}

// Posts is a single welcome article
func Posts() []models.BlogPost {
	return []models.BlogPost{
		{
			ID:          "fallback-post-welcome",
			Title:       "Welcome to Our Blog",
			Slug:        "welcome",
			Excerpt:     "News and stories from our STEM programs will appear here.",
			Content:     "News and stories from our STEM programs will appear here soon.",
			Author:      "Program Team",
			Tags:        []string{"news"},
			IsPublished: true,
			Order:       1,
		},
	}
}

// Sections maps each section key to its fallback constructor
func Sections() map[string]func() any {
	return map[string]func() any{
		KeyHomeHero:        func() any { return Hero() },
		KeyHomeActivities:  func() any { return Activities() },
		KeyHomeOutcomes:    func() any { return Outcomes() },
		KeyAboutBackground: func() any { return AboutBackground() },
		KeyAboutObjectives: func() any { return AboutObjectives() },
		KeyAboutImpact:     func() any { return AboutImpact() },
		KeyTeamMembers:     func() any { return Team() },
		KeyGalleryItems:    func() any { return Gallery() },
		KeyBlogPosts:       func() any { return Posts() },
		KeyBlogPost:        func() any { return UnavailablePost("unavailable") },
	}
}

// UnavailablePost stands in for an article that could not be loaded
func UnavailablePost(postSlug string) models.BlogPost {
	return models.BlogPost{
		ID:          "fallback-post-unavailable",
		Title:       "This Article Is Temporarily Unavailable",
		Slug:        postSlug,
		Excerpt:     "We could not load this article right now. Please try again shortly.",
		Content:     "We could not load this article right now. Please try again shortly.",
		ContentHTML: "<p>We could not load this article right now. Please try again shortly.</p>\n",
		Author:      "Program Team",
		Tags:        []string{},
		IsPublished: true,
	}
}
