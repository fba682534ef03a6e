package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"card-collection/collection"
	"card-collection/collection/application"
	"card-collection/collection/domain"
	"card-collection/collection/infra"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type catalog map[string]string

func (c catalog) FetchNamed(_ context.Context, _ domain.MatchMode, name string) (domain.Card, error) {
	resolved, ok := c[domain.NameKey(name)]
	if !ok {
		return domain.Card{}, domain.ErrNotFound
	}
	doc := fmt.Sprintf(`{"name":%q,"mana_cost":"{U}{U}","type_line":"Instant","oracle_text":"Counter target spell."}`, resolved)
	return domain.ParseCard([]byte(doc))
}

func startGateway(t *testing.T) string {
	t.Helper()
	lookup := application.LookupService{Source: catalog{
		"counterspell": "Counterspell",
		"black lotus":  "Black Lotus",
	}}
	srv := httptest.NewServer(collection.NewRouter(collection.RouterOptions{
		Lookup:     lookup,
		Collection: application.CollectionService{Store: infra.NewMemoryStore(), Lookup: lookup},
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

// run executa o cardctl com um config inexistente para não ler o do usuário.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.toml")}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCardctl_LookupPrintsSummary(t *testing.T) {
	server := startGateway(t)

	out, err := run(t, "--server", server, "lookup", "Counterspell")
	require.NoError(t, err)
	assert.Contains(t, out, "Counterspell {U}{U}")
	assert.Contains(t, out, "Instant")
	assert.Contains(t, out, "Counter target spell.")
}

func TestCardctl_LookupNotFound(t *testing.T) {
	server := startGateway(t)

	_, err := run(t, "--server", server, "lookup", "Nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Card not found: Nope")
}

func TestCardctl_CollectionWorkflow(t *testing.T) {
	server := startGateway(t)

	out, err := run(t, "--server", server, "add", "counterspell", "Nope")
	require.NoError(t, err)
	assert.Contains(t, out, "added (1):\n  Counterspell")
	assert.Contains(t, out, "not found (1):\n  Nope")
	assert.Contains(t, out, "total in collection: 1")

	out, err = run(t, "--server", server, "add", "Counterspell")
	require.NoError(t, err)
	assert.Contains(t, out, "skipped (1):\n  Counterspell")

	out, err = run(t, "--server", server, "list")
	require.NoError(t, err)
	assert.Equal(t, "Counterspell\n1 card(s)\n", out)

	out, err = run(t, "--server", server, "rm", "counterspell")
	require.NoError(t, err)
	assert.Contains(t, out, "(0 left)")

	_, err = run(t, "--server", server, "rm", "counterspell")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "card not found in collection")

	out, err = run(t, "--server", server, "clear")
	require.NoError(t, err)
	assert.Equal(t, "collection cleared\n", out)
}

func TestCardctl_BatchJSON(t *testing.T) {
	server := startGateway(t)

	out, err := run(t, "--server", server, "--json", "batch", "black lotus", "Nope")
	require.NoError(t, err)
	assert.JSONEq(t, `{"results":[{"name":"Black Lotus","mana_cost":"{U}{U}","type_line":"Instant","oracle_text":"Counter target spell."}],"errors":["Nope"]}`, out)
}

func TestCardctl_ReadsServerAndTokenFromConfig(t *testing.T) {
	server := startGateway(t)
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("server = \""+server+"\"\ntoken = \"alice\"\n"), 0o600))

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", cfgPath, "add", "Counterspell"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	// sem token o chamador anônimo vê outra coleção
	listOut, err := run(t, "--server", server, "list")
	require.NoError(t, err)
	assert.Equal(t, "0 card(s)\n", listOut)

	listOut, err = run(t, "--server", server, "--token", "alice", "list")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(listOut, "Counterspell\n"))
}

func TestLoadFileConfig(t *testing.T) {
	cfg, err := loadFileConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, fileConfig{}, cfg)

	bad := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("server = "), 0o600))
	_, err = loadFileConfig(bad)
	assert.Error(t, err)
}

func TestDefaultConfigPathUsesXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	assert.Equal(t, filepath.Join("/tmp/xdg", "cardctl", "config.toml"), defaultConfigPath())
}
