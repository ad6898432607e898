package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"lorekeeper/internal/lore"
	"lorekeeper/internal/selection"
	"lorekeeper/internal/session"
)

// Engine is the chat session the tools activate lore against.
type Engine interface {
	Activate(ctx context.Context, chat []string, maxContext int) (session.Prompt, error)
	SelectWorlds(ctx context.Context, names []string) ([]session.Notice, error)
	State() selection.State
}

type Worlds interface {
	List(ctx context.Context) ([]string, error)
	Load(ctx context.Context, name string) (*lore.Collection, error)
	Save(ctx context.Context, name string, c *lore.Collection, immediate bool) error
}

var _ Engine = (*session.Session)(nil)

type Server struct {
	engine Engine
	worlds Worlds
	mcp    *sdk.Server
}

func NewServer(engine Engine, worlds Worlds, version string) *Server {
	s := &Server{
		engine: engine,
		worlds: worlds,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "lorekeeper",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
