package service

import (
	"context"
	"fmt"

	"go-splendor/auth"
	"go-splendor/dto"
	"go-splendor/utils"
)

type AuthService struct {
	auth   auth.Authenticator
	tokens *utils.TokenIssuer
}

func NewAuthService(authn auth.Authenticator, tokens *utils.TokenIssuer) *AuthService {
	return &AuthService{auth: authn, tokens: tokens}
}

func (s *AuthService) Register(ctx context.Context, req dto.AuthRequest) error {
	return s.auth.Register(ctx, req.Username, req.Password)
}

func (s *AuthService) Login(ctx context.Context, req dto.AuthRequest) (dto.AuthResponse, error) {
	if err := s.auth.Verify(ctx, req.Username, req.Password); err != nil {
		return dto.AuthResponse{}, err
	}
	return s.issue(req.Username)
}

// Refresh 用 refresh token 换一对新的 token
func (s *AuthService) Refresh(refreshToken string) (dto.AuthResponse, error) {
	claims, err := s.tokens.ParseRefreshToken(refreshToken)
	if err != nil {
		return dto.AuthResponse{}, err
	}
	return s.issue(claims.PlayerID)
}

func (s *AuthService) issue(playerID string) (dto.AuthResponse, error) {
	access, err := s.tokens.GenerateAccessToken(playerID)
	if err != nil {
		return dto.AuthResponse{}, fmt.Errorf("生成 access token 失败: %w", err)
	}
	refresh, err := s.tokens.GenerateRefreshToken(playerID)
	if err != nil {
		return dto.AuthResponse{}, fmt.Errorf("生成 refresh token 失败: %w", err)
	}
	return dto.AuthResponse{PlayerID: playerID, Token: access, RefreshToken: refresh}, nil
}
