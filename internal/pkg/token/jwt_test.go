package token_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goerp/internal/pkg/token"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := token.NewService("segredo-de-teste", time.Hour)

	tok, err := svc.GenerateToken("user-1", "operator", "branch-9")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "operator", claims.Role)
	assert.Equal(t, "branch-9", claims.BranchID)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	tok, err := token.NewService("a", time.Hour).GenerateToken("user-1", "operator", "")
	require.NoError(t, err)

	_, err = token.NewService("b", time.Hour).ValidateToken(tok)
	assert.Error(t, err)
}

func TestValidateToken_Expired(t *testing.T) {
	svc := token.NewService("segredo", -time.Minute)
	tok, err := svc.GenerateToken("user-1", "operator", "")
	require.NoError(t, err)

	_, err = svc.ValidateToken(tok)
	assert.Error(t, err)
}
