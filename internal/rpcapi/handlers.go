package rpcapi

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apierr "github.com/arga-sso/ssoauthority/internal/errors"
	"github.com/arga-sso/ssoauthority/internal/models"
	"github.com/arga-sso/ssoauthority/internal/orchestrator"
)

// asRPCError splits an error into the in-band {success:false, error}
// shape for expected business failures, or a transport-level grpc status
// for anything unexpected, per this surface's error-handling policy.
func asRPCError(err error) (message string, transportErr error) {
	if appErr, ok := err.(*apierr.AppError); ok {
		return appErr.Message, nil
	}
	return "", status.Error(codes.Internal, err.Error())
}

func (s *Server) ValidateToken(ctx context.Context, req *ValidateTokenRequest) (*ValidateTokenResponse, error) {
	claims, err := s.orch.ValidateAccessToken(req.AccessToken)
	if err != nil {
		msg, transportErr := asRPCError(err)
		if transportErr != nil {
			return nil, transportErr
		}
		return &ValidateTokenResponse{IsValid: false, Error: msg}, nil
	}
	return &ValidateTokenResponse{
		IsValid: true,
		User: &models.LoginUser{
			ID:          claims.Subject,
			Role:        claims.Role,
			Name:        claims.Name,
			Email:       claims.Email,
			AvatarURL:   claims.AvatarURL,
			AllowedApps: claims.AllowedApps,
		},
	}, nil
}

func (s *Server) LoginWithEmail(ctx context.Context, req *LoginWithEmailRequest) (*LoginResponse, error) {
	outcome, err := s.orch.LoginWithEmail(ctx, req.Email, req.Password, orchestrator.LoginRequest{
		ClientID: req.ClientID,
		DeviceID: req.DeviceID,
		Device:   req.Device,
	})
	return loginResponse(outcome, err)
}

func (s *Server) LoginWithFirebase(ctx context.Context, req *LoginWithFirebaseRequest) (*LoginResponse, error) {
	outcome, err := s.orch.LoginWithFirebase(ctx, req.IDToken, orchestrator.LoginRequest{
		ClientID: req.ClientID,
		DeviceID: req.DeviceID,
		Device:   req.Device,
	})
	return loginResponse(outcome, err)
}

func (s *Server) RefreshToken(ctx context.Context, req *RefreshTokenRequest) (*LoginResponse, error) {
	outcome, err := s.orch.Refresh(ctx, req.RefreshToken, req.DeviceID)
	return loginResponse(outcome, err)
}

func (s *Server) ExchangeSSOToken(ctx context.Context, req *ExchangeSSOTokenRequest) (*LoginResponse, error) {
	outcome, err := s.orch.Exchange(ctx, req.SSOToken, orchestrator.LoginRequest{
		ClientID: req.ClientID,
		DeviceID: req.DeviceID,
		Device:   req.Device,
	})
	return loginResponse(outcome, err)
}

func loginResponse(outcome *models.LoginOutcome, err error) (*LoginResponse, error) {
	if err != nil {
		msg, transportErr := asRPCError(err)
		if transportErr != nil {
			return nil, transportErr
		}
		return &LoginResponse{Success: false, Error: msg}, nil
	}
	return &LoginResponse{Success: true, Outcome: outcome}, nil
}

func (s *Server) Logout(ctx context.Context, req *LogoutRequest) (*LogoutResponse, error) {
	claims, err := s.verifiedClaimsFromContext(ctx)
	if err != nil {
		return &LogoutResponse{Success: false, Error: "missing or invalid bearer token"}, nil
	}

	switch {
	case req.Global:
		err = s.orch.LogoutAll(ctx, claims.Subject)
	case req.ClientID != "" && req.DeviceID != "":
		err = s.orch.LogoutClientDevice(ctx, claims.Subject, req.ClientID, req.DeviceID)
	case req.ClientID != "":
		err = s.orch.LogoutClient(ctx, claims.Subject, req.ClientID)
	default:
		err = s.orch.LogoutSSO(ctx, claims.Subject)
	}

	if err != nil {
		msg, transportErr := asRPCError(err)
		if transportErr != nil {
			return nil, transportErr
		}
		return &LogoutResponse{Success: false, Error: msg}, nil
	}
	return &LogoutResponse{Success: true}, nil
}

func (s *Server) GetSessions(ctx context.Context, req *GetSessionsRequest) (*GetSessionsResponse, error) {
	claims, err := s.verifiedClaimsFromContext(ctx)
	if err != nil {
		return &GetSessionsResponse{Success: false, Error: "missing or invalid bearer token"}, nil
	}

	sessions, err := s.orch.Sessions(ctx, claims.Subject)
	if err != nil {
		msg, transportErr := asRPCError(err)
		if transportErr != nil {
			return nil, transportErr
		}
		return &GetSessionsResponse{Success: false, Error: msg}, nil
	}
	return &GetSessionsResponse{Success: true, Sessions: &sessions}, nil
}
