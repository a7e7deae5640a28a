package server

import (
	"context"

	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/strongbox/internal/config"
	"github.com/hashicorp-forge/strongbox/pkg/box"
)

// BoxService is the set of item, listing, search, and collaboration
// operations the API handlers call. *adapter.Service implements it.
type BoxService interface {
	GetItem(ctx context.Context, principal, id string) (box.Resource, error)
	CreateFolder(ctx context.Context, principal, parentID, name string) (box.Resource, error)
	UpdateItem(ctx context.Context, principal, id string, patch box.Resource) (box.Resource, error)
	DeleteItem(ctx context.Context, principal, id string) error
	ListChildren(ctx context.Context, principal, folderID string, limit, offset int, fields string) (*box.Collection, error)
	Search(ctx context.Context, principal, term string, limit, offset int, fields string) (*box.Collection, error)

	GetCollaboration(ctx context.Context, principal, collabID string) (box.Resource, error)
	ListCollaborations(ctx context.Context, principal, folderID string) (*box.Collection, error)
	CreateCollaboration(ctx context.Context, principal, folderID, accessibleBy, role string) (box.Resource, error)
	UpdateCollaboration(ctx context.Context, principal, collabID, role string) (box.Resource, error)
	DeleteCollaboration(ctx context.Context, principal, collabID string) error
}

// Server contains the server configuration.
type Server struct {
	// Box is the service behind the API handlers.
	Box BoxService

	// Config is the config for the server.
	Config *config.Config

	// Logger is the logger for the server.
	Logger hclog.Logger
}
