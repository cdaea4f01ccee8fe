package commands

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopfront-dev/shopfront/internal/auth"
)

func runTokenCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := &cobra.Command{Use: "shopfront-admin", SilenceUsage: true, SilenceErrors: true}
	root.AddCommand(NewTokenCmd())

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

func TestTokenMintAndVerify(t *testing.T) {
	t.Setenv("AUTH_SECRET", "cli-test-secret")

	out, err := runTokenCmd(t, "token", "mint", "jane")
	require.NoError(t, err)
	token := strings.TrimSpace(out)
	require.NotEmpty(t, token)

	codec, err := auth.NewTokenCodec("cli-test-secret")
	require.NoError(t, err)
	session := codec.Verify(token)
	require.NotNil(t, session)
	assert.Equal(t, "jane", session.Subject)

	out, err = runTokenCmd(t, "token", "verify", token)
	require.NoError(t, err)

	var claims map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &claims))
	assert.Equal(t, "jane", claims["subject"])
	assert.Equal(t, auth.RoleAdmin, claims["role"])
	assert.NotEmpty(t, claims["expires_in"])
}

func TestTokenMint_CookieFormat(t *testing.T) {
	t.Setenv("AUTH_SECRET", "cli-test-secret")

	out, err := runTokenCmd(t, "token", "mint", "--cookie", "jane")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, auth.CookieName+"="))
}

func TestTokenVerify_RejectsForeignToken(t *testing.T) {
	t.Setenv("AUTH_SECRET", "cli-test-secret")

	other, err := auth.NewTokenCodec("different-secret")
	require.NoError(t, err)
	token, err := other.Mint("jane")
	require.NoError(t, err)

	_, err = runTokenCmd(t, "token", "verify", token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token rejected")
}

func TestToken_MissingSecret(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")

	_, err := runTokenCmd(t, "token", "mint", "jane")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_SECRET is required")
}
