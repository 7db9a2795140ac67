// Package rpcapi implements the RPC half of the External Surface (C7): a
// grpc.Server exposing the same login/exchange/refresh/logout/validate
// operations as the HTTP surface, over a hand-registered service that
// exchanges JSON payloads instead of protobuf — no protoc step required.
package rpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/arga-sso/ssoauthority/internal/orchestrator"
	"github.com/arga-sso/ssoauthority/internal/tokens"
)

// Server implements authServer against an Orchestrator.
type Server struct {
	orch *orchestrator.Orchestrator
}

// NewServer builds a Server.
func NewServer(orch *orchestrator.Orchestrator) *Server {
	return &Server{orch: orch}
}

// RegisterService registers the auth service on grpcServer. Callers must
// also have configured grpcServer's codec (via the "json" content
// subtype this package registers in codec.go's init) for clients to
// actually exchange JSON instead of protobuf.
func (s *Server) RegisterService(grpcServer *grpc.Server) {
	grpcServer.RegisterService(&serviceDesc, s)
}

// verifiedClaimsFromContext extracts and verifies the bearer access token
// carried in the call's "authorization" metadata, mirroring the HTTP
// surface's requireAuth middleware for the RPCs that need a subject.
func (s *Server) verifiedClaimsFromContext(ctx context.Context) (*tokens.VerifiedClaims, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, errMissingToken
	}
	values := md.Get("authorization")
	if len(values) == 0 {
		return nil, errMissingToken
	}
	token := bearerToken(values[0])
	if token == "" {
		return nil, errMissingToken
	}
	return s.orch.ValidateAccessToken(token)
}

var errMissingToken = &tokenError{"missing bearer token"}

type tokenError struct{ msg string }

func (e *tokenError) Error() string { return e.msg }

func bearerToken(authHeader string) string {
	const prefix = "Bearer "
	if len(authHeader) <= len(prefix) || authHeader[:len(prefix)] != prefix {
		return ""
	}
	return authHeader[len(prefix):]
}
