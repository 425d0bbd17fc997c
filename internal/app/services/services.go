package services

import (
	"github.com/rs/zerolog"
	"github.com/shreyescodes/erp-portal/internal/app/repositories"
	pkgAuth "github.com/shreyescodes/erp-portal/internal/pkg/auth"
	"github.com/shreyescodes/erp-portal/internal/pkg/email"
	"github.com/shreyescodes/erp-portal/internal/pkg/filestorage"
	"github.com/shreyescodes/erp-portal/internal/pkg/websocket"
)

// Services holds every business service of the portal
type Services struct {
	AuthService        AuthService
	UserService        UserService
	ContentService     ContentService
	OpportunityService OpportunityService
	ComplaintService   ComplaintService
	SearchService      SearchService
}

// Collaborators are the infrastructure pieces shared by the services
type Collaborators struct {
	JWTService *pkgAuth.JWTService
	MediaStore filestorage.MediaStore
	Mailer     email.EmailService
	Events     websocket.Publisher
	Logger     zerolog.Logger

	// MaxUploadBytes caps every stored file. Zero disables the cap.
	MaxUploadBytes int64
}

// NewServices wires all services onto the given repositories
func NewServices(repos *repositories.Repositories, c Collaborators) *Services {
	return &Services{
		AuthService: NewAuthService(repos.UserRepository, repos.TokenRepository, c.JWTService,
			c.Logger.With().Str("service", "auth").Logger()),
		UserService: NewUserService(repos.UserRepository, repos.TokenRepository,
			c.Logger.With().Str("service", "user").Logger()),
		ContentService: NewContentService(repos.ContentRepository, repos.UserRepository, c.MediaStore, c.MaxUploadBytes, c.Mailer, c.Events,
			c.Logger.With().Str("service", "content").Logger()),
		OpportunityService: NewOpportunityService(repos.OpportunityRepository, c.MediaStore, c.MaxUploadBytes, c.Events,
			c.Logger.With().Str("service", "opportunity").Logger()),
		ComplaintService: NewComplaintService(repos.ComplaintRepository, repos.UserRepository, c.MediaStore, c.MaxUploadBytes, c.Mailer, c.Events,
			c.Logger.With().Str("service", "complaint").Logger()),
		SearchService: NewSearchService(repos.ContentRepository, repos.OpportunityRepository, repos.UserRepository,
			c.Logger.With().Str("service", "search").Logger()),
	}
}

// publishEvent forwards an event when a publisher is configured
func publishEvent(p websocket.Publisher, event websocket.Event) {
	if p != nil {
		p.Publish(event)
	}
}
