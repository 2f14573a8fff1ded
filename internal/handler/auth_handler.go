package handler

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"

	"booking-requests-api/internal/auth"
	"booking-requests-api/internal/model"
	"booking-requests-api/internal/rpc"
	"booking-requests-api/internal/store"
	"booking-requests-api/internal/validate"
)

func (h *Handler) Register(ctx context.Context, req *rpc.RegisterRequest) (*rpc.AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	if fe := validate.Struct(req); fe != nil {
		return nil, invalid(fe)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, h.internal("hash password", err)
	}

	u := &model.User{
		ID:           uuid.New().String(),
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
		Phone:        req.Phone,
		Role:         model.RoleUser,
	}
	if err := h.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			// don't reveal more than that
			return nil, status.Error(codes.AlreadyExists, "registration failed")
		}
		return nil, h.internal("create user", err)
	}
	h.log.Info("user registered", zap.String("user_id", u.ID))

	return h.issueTokens(ctx, u)
}

func (h *Handler) Login(ctx context.Context, req *rpc.LoginRequest) (*rpc.AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if fe := validate.Struct(req); fe != nil {
		return nil, invalid(fe)
	}

	u, err := h.store.UserByEmail(ctx, req.Email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, status.Error(codes.Unauthenticated, "invalid credentials")
	}
	if err != nil {
		return nil, h.internal("user by email", err)
	}
	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		return nil, status.Error(codes.Unauthenticated, "invalid credentials")
	}

	return h.issueTokens(ctx, u)
}

// Refresh rotates a refresh token. Presenting a token that was already
// rotated revokes every token of its owner.
func (h *Handler) Refresh(ctx context.Context, req *rpc.RefreshRequest) (*rpc.AuthResponse, error) {
	if fe := validate.Struct(req); fe != nil {
		return nil, invalid(fe)
	}

	rt, err := h.store.GetRefreshTokenByHash(ctx, auth.HashRefreshToken(req.RefreshToken))
	if errors.Is(err, store.ErrNotFound) {
		return nil, status.Error(codes.Unauthenticated, "invalid refresh token")
	}
	if err != nil {
		return nil, h.internal("get refresh token", err)
	}
	if rt.Revoked {
		return nil, h.tokenReused(ctx, rt.UserID)
	}
	if time.Now().After(rt.ExpiresAt) {
		return nil, status.Error(codes.Unauthenticated, "refresh token expired")
	}

	u, err := h.store.UserByID(ctx, rt.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, status.Error(codes.Unauthenticated, "invalid refresh token")
	}
	if err != nil {
		return nil, h.internal("user by id", err)
	}

	access, err := auth.MakeToken(u.ID, u.Role, h.secret)
	if err != nil {
		return nil, h.internal("make token", err)
	}
	raw, hash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, h.internal("generate refresh token", err)
	}
	err = h.store.RotateRefreshToken(ctx, rt.ID, uuid.New().String(), u.ID, hash, time.Now().Add(auth.RefreshTTL))
	if errors.Is(err, store.ErrTokenReused) {
		return nil, h.tokenReused(ctx, u.ID)
	}
	if err != nil {
		return nil, h.internal("rotate refresh token", err)
	}

	return authResponse(u, access, raw), nil
}

func (h *Handler) tokenReused(ctx context.Context, userID string) error {
	h.log.Warn("refresh token reuse, revoking all sessions", zap.String("user_id", userID))
	if err := h.store.RevokeAllRefreshTokens(ctx, userID); err != nil {
		return h.internal("revoke refresh tokens", err)
	}
	return status.Error(codes.Unauthenticated, "invalid refresh token")
}

func (h *Handler) Logout(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.store.RevokeAllRefreshTokens(ctx, id.UserID); err != nil {
		return nil, h.internal("revoke refresh tokens", err)
	}
	return &emptypb.Empty{}, nil
}

func (h *Handler) GetProfile(ctx context.Context, _ *emptypb.Empty) (*rpc.Profile, error) {
	u, err := h.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	return toProfile(u), nil
}

func (h *Handler) UpdateProfile(ctx context.Context, req *rpc.UpdateProfileRequest) (*rpc.Profile, error) {
	u, err := h.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	req.Email = normalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	if fe := validate.Struct(req); fe != nil {
		return nil, invalid(fe)
	}

	u.Name, u.Phone, u.Email = req.Name, req.Phone, req.Email
	if err := h.store.UpdateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return nil, status.Error(codes.AlreadyExists, "email already in use")
		}
		return nil, h.internal("update user", err)
	}
	return toProfile(u), nil
}

// currentUser loads the caller's profile.
func (h *Handler) currentUser(ctx context.Context) (*model.User, error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	u, err := h.store.UserByID(ctx, id.UserID)
	if errors.Is(err, store.ErrNotFound) {
		// token outlived its account
		return nil, status.Error(codes.Unauthenticated, "account not found")
	}
	if err != nil {
		return nil, h.internal("user by id", err)
	}
	return u, nil
}

func (h *Handler) issueTokens(ctx context.Context, u *model.User) (*rpc.AuthResponse, error) {
	access, err := auth.MakeToken(u.ID, u.Role, h.secret)
	if err != nil {
		return nil, h.internal("make token", err)
	}
	raw, hash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, h.internal("generate refresh token", err)
	}
	if err := h.store.CreateRefreshToken(ctx, uuid.New().String(), u.ID, hash, time.Now().Add(auth.RefreshTTL)); err != nil {
		return nil, h.internal("store refresh token", err)
	}
	return authResponse(u, access, raw), nil
}

func authResponse(u *model.User, access, refresh string) *rpc.AuthResponse {
	return &rpc.AuthResponse{
		UserID:       u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         string(u.Role),
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    time.Now().Add(auth.AccessTTL).UTC(),
	}
}
