package service

import (
	"context"
	"testing"

	"credito/internal/model"
	"credito/pkg/apperrors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testJWTSecret = []byte("test-secret")

func TestCreateUserValidation(t *testing.T) {
	svc := NewUserService(newMemUserRepo(), testJWTSecret)

	tests := []struct {
		name string
		req  CreateUserRequest
		kind apperrors.Kind
	}{
		{
			"unknown role",
			CreateUserRequest{Username: "u", Email: "u@x.com", Password: "secret1", Role: "gerente"},
			apperrors.KindValidation,
		},
		{
			"client without dni",
			CreateUserRequest{Username: "u", Email: "u@x.com", Password: "secret1", Role: model.RoleClient, CUIL: "20-1-1"},
			apperrors.KindValidation,
		},
		{
			"client without cuil",
			CreateUserRequest{Username: "u", Email: "u@x.com", Password: "secret1", Role: model.RoleClient, DNI: "225577"},
			apperrors.KindValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := svc.CreateUser(context.Background(), tt.req)
			require.Error(t, err)
			assert.Nil(t, user)
			assert.Equal(t, tt.kind, apperrors.KindOf(err))
		})
	}
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	svc := NewUserService(newMemUserRepo(&model.User{
		Username: "jperez",
		Email:    "jperez@example.com",
		Role:     model.RoleMerchant,
	}), testJWTSecret)

	_, err := svc.CreateUser(context.Background(), CreateUserRequest{
		Username: "jperez",
		Email:    "otro@example.com",
		Password: "secret1",
		Role:     model.RoleMerchant,
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
}

func TestCreateUserAndLogin(t *testing.T) {
	svc := NewUserService(newMemUserRepo(), testJWTSecret)

	created, err := svc.CreateUser(context.Background(), CreateUserRequest{
		Username: "jperez",
		Email:    "jperez@example.com",
		Password: "secret1",
		Role:     model.RoleClient,
		DNI:      "225577",
		CUIL:     "20-225577-3",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleClient, created.Role)
	assert.Equal(t, "225577", created.DNI)

	tokens, err := svc.Login(context.Background(), LoginUserRequest{
		Email:    "jperez@example.com",
		Password: "secret1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, tokens.AccessToken)
	require.NotEmpty(t, tokens.RefreshToken)

	// The access token carries the identity claims the middleware reads.
	parsed, err := jwt.Parse(tokens.AccessToken, func(token *jwt.Token) (interface{}, error) {
		return testJWTSecret, nil
	})
	require.NoError(t, err)
	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, created.ID.String(), claims["sub"])
	assert.Equal(t, model.RoleClient, claims["role"])
	assert.Equal(t, "225577", claims["dni"])
}

func TestLoginInvalidCredentials(t *testing.T) {
	svc := NewUserService(newMemUserRepo(), testJWTSecret)

	_, err := svc.CreateUser(context.Background(), CreateUserRequest{
		Username: "jperez",
		Email:    "jperez@example.com",
		Password: "secret1",
		Role:     model.RoleMerchant,
	})
	require.NoError(t, err)

	tests := []struct {
		name string
		req  LoginUserRequest
	}{
		{"wrong password", LoginUserRequest{Email: "jperez@example.com", Password: "wrong"}},
		{"unknown email", LoginUserRequest{Email: "nadie@example.com", Password: "secret1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := svc.Login(context.Background(), tt.req)
			require.Error(t, err)
			assert.Nil(t, tokens)
			assert.Equal(t, apperrors.KindAuthorization, apperrors.KindOf(err))
		})
	}
}

func TestUpdateUser(t *testing.T) {
	svc := NewUserService(newMemUserRepo(), testJWTSecret)

	created, err := svc.CreateUser(context.Background(), CreateUserRequest{
		Username: "tienda_norte",
		Email:    "tienda@example.com",
		Password: "secret1",
		Role:     model.RoleMerchant,
	})
	require.NoError(t, err)

	updated, err := svc.UpdateUser(context.Background(), created.ID.String(), UpdateUserRequest{
		Phone:        "11-4444-5555",
		BusinessName: "Tienda Norte SRL",
	})
	require.NoError(t, err)
	assert.Equal(t, "11-4444-5555", updated.Phone)
	assert.Equal(t, "Tienda Norte SRL", updated.BusinessName)
	// Untouched fields keep their values.
	assert.Equal(t, "tienda_norte", updated.Username)
	assert.Equal(t, model.RoleMerchant, updated.Role)

	fetched, err := svc.GetUserByID(context.Background(), created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "11-4444-5555", fetched.Phone)
}

func TestUpdateUserRejectsInvalidInput(t *testing.T) {
	svc := NewUserService(newMemUserRepo(), testJWTSecret)

	created, err := svc.CreateUser(context.Background(), CreateUserRequest{
		Username: "jperez",
		Email:    "jperez@example.com",
		Password: "secret1",
		Role:     model.RoleMerchant,
	})
	require.NoError(t, err)

	_, err = svc.CreateUser(context.Background(), CreateUserRequest{
		Username: "mgarcia",
		Email:    "mgarcia@example.com",
		Password: "secret1",
		Role:     model.RoleAnalyst,
	})
	require.NoError(t, err)

	tests := []struct {
		name string
		req  UpdateUserRequest
		kind apperrors.Kind
	}{
		{"unknown role", UpdateUserRequest{Role: "gerente"}, apperrors.KindValidation},
		{"taken username", UpdateUserRequest{Username: "mgarcia"}, apperrors.KindConflict},
		{"taken email", UpdateUserRequest{Email: "mgarcia@example.com"}, apperrors.KindConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updated, err := svc.UpdateUser(context.Background(), created.ID.String(), tt.req)
			require.Error(t, err)
			assert.Nil(t, updated)
			assert.Equal(t, tt.kind, apperrors.KindOf(err))
		})
	}
}

func TestUpdateUserNotFound(t *testing.T) {
	svc := NewUserService(newMemUserRepo(), testJWTSecret)

	_, err := svc.UpdateUser(context.Background(), uuid.NewString(), UpdateUserRequest{Phone: "11-0000-0000"})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}
