package services

import (
	"context"

	"github.com/stemacademy/site-api/internal/models"
)

// Team endpoint and its only section
const (
	TeamEndpoint       = "/api/team-content"
	TeamSectionMembers = "members"
)

// TeamService reads the team roster
type TeamService struct {
	endpoint *Endpoint
	members  *ContentService[[]models.TeamMember]
}

// NewTeamService creates a new team service instance
func NewTeamService(deps ContentDeps) *TeamService {
	endpoint := NewEndpoint(deps, "team", TeamEndpoint, TeamSectionMembers)
	return &TeamService{
		endpoint: endpoint,
		members:  NewContentService(endpoint, publishedList[models.TeamMember]),
	}
}

// Endpoint exposes the CMS endpoint for mutations and invalidation
func (s *TeamService) Endpoint() *Endpoint {
	return s.endpoint
}

// GetMembers returns the published members in display order
func (s *TeamService) GetMembers(ctx context.Context) Result[[]models.TeamMember] {
	return s.members.GetSectionContent(ctx, TeamSectionMembers, nil)
}
