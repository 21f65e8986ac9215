package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/rowstore/internal/core"
	"github.com/JonMunkholm/rowstore/internal/grid/memgrid"
)

// harness runs commands against one in-memory workbook.
type harness struct {
	wb *memgrid.Workbook
	n  int
}

func newHarness(t *testing.T, sheets map[string][]any) *harness {
	t.Helper()
	h := &harness{wb: memgrid.New(50)}
	for name, header := range sheets {
		sh, err := h.wb.AddSheet(context.Background(), name)
		require.NoError(t, err)
		require.NoError(t, sh.Set(context.Background(), 1, 1, [][]any{header}))
	}
	return h
}

func (h *harness) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	opts := &RootOptions{
		open: func(context.Context, *RootOptions) (*core.Service, error) {
			return core.NewService(h.wb, core.Config{
				IDs: core.IDGeneratorFunc(func() string {
					h.n++
					return fmt.Sprintf("r%d", h.n)
				}),
				Audit: core.AuditFunc(func(context.Context, core.AuditEntry) {}),
			}), nil
		},
	}
	cmd := newRootCommand(opts)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "sheetctl", cmd.Use)

	for _, name := range []string{"tables", "schema", "read", "write", "seed"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}

	for _, flag := range []string{"driver", "dsn", "pretty"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), flag)
	}
}

func TestInvalidDriver(t *testing.T) {
	h := newHarness(t, nil)
	_, err := h.run(t, "", "--driver", "excel", "tables")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestWriteAndRead(t *testing.T) {
	h := newHarness(t, map[string][]any{"Users": {"is_enabled", "name", "id"}})

	out, err := h.run(t, "", "write", "--sheet", "Users", "--data", `[{"name":"Ann"},{"name":"Bob"}]`)
	require.NoError(t, err)
	assert.Equal(t, `{"status":"success","message":"2 row(s) appended","createdIds":["r1","r2"]}`+"\n", out)

	out, err = h.run(t, `{"id":"r1","name":"Annie"}`, "write", "--sheet", "Users", "--method", "put")
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"success","message":"Row updated","updatedFields":["name"],"id":"r1"}`, out)

	_, err = h.run(t, "", "write", "--sheet", "Users", "--method", "DELETE", "--data", `{"id":"r2"}`)
	require.NoError(t, err)

	out, err = h.run(t, "", "read", "--sheet", "Users")
	require.NoError(t, err)
	assert.Equal(t, `{"data":[{"name":"Annie","id":"r1"}]}`+"\n", out)

	out, err = h.run(t, "", "read", "--sheet", "Users", "--pretty")
	require.NoError(t, err)
	assert.Contains(t, out, "\n  \"data\": [")
}

func TestWriteActionAlias(t *testing.T) {
	h := newHarness(t, map[string][]any{"Users": {"is_enabled", "name", "id"}})

	_, err := h.run(t, "", "write", "--sheet", "Users", "--data", `[{"name":"Ann"},{"name":"Bob"}]`)
	require.NoError(t, err)

	out, err := h.run(t, "", "write", "--sheet", "Users", "--action", "delete", "--data", `{"id":"r1"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"success","message":"Row soft deleted (is_enabled=false)","id":"r1"}`, out)

	out, err = h.run(t, "", "read", "--sheet", "Users")
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[{"name":"Bob","id":"r2"}]}`, out)
}

func TestWriteFailurePrintsEnvelope(t *testing.T) {
	h := newHarness(t, map[string][]any{"Users": {"is_enabled", "name", "id"}})

	out, err := h.run(t, "", "write", "--sheet", "Users", "--method", "PUT", "--data", `{"id":"x","name":"y"}`)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.JSONEq(t, `{"error":"No data to update"}`, out)

	out, err = h.run(t, "", "read", "--sheet", "Missing")
	require.Error(t, err)
	assert.JSONEq(t, `{"error":"Sheet \"Missing\" not found"}`, out)
}

func TestEmptyBatchIsNotAFailure(t *testing.T) {
	h := newHarness(t, map[string][]any{"Users": {"id"}})

	out, err := h.run(t, "", "write", "--sheet", "Users", "--data", `[]`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"No data to insert"}`, out)
}

func TestTablesAndSchema(t *testing.T) {
	h := newHarness(t, nil)
	seed := filepath.Join(t.TempDir(), "tables.yaml")
	require.NoError(t, os.WriteFile(seed, []byte(`tables:
  - name: Products
    sample:
      title: Widget
      price: 5
`), 0o600))

	out, err := h.run(t, "", "seed", "--file", seed)
	require.NoError(t, err)
	assert.JSONEq(t, `{"created":["Products"]}`, out)

	out, err = h.run(t, "", "seed", "--file", seed)
	require.NoError(t, err)
	assert.JSONEq(t, `{"created":[]}`, out, "existing tables are skipped")

	out, err = h.run(t, "", "tables")
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":["Products"]}`, out)

	out, err = h.run(t, "", "schema", "Products")
	require.NoError(t, err)
	assert.Contains(t, out, `"name":"price"`)
	assert.Contains(t, out, `"type":"number"`)
	assert.Contains(t, out, `"jsonSchema"`)

	out, err = h.run(t, "", "read", "--sheet", "Products", "--fields", "title")
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[{"title":"Widget","id":"r1"}]}`, out)
}

func TestSeedRequiresFile(t *testing.T) {
	h := newHarness(t, nil)
	_, err := h.run(t, "", "seed")
	require.Error(t, err)
}

func TestGetenvOverlay(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("SQLITE_PATH", "env.db")

	opts := &RootOptions{}
	assert.Equal(t, "postgres", opts.getenv("STORE_DRIVER"))
	assert.Equal(t, "env.db", opts.getenv("SQLITE_PATH"))

	opts = &RootOptions{Driver: "sqlite", DSN: "flag.db"}
	assert.Equal(t, "sqlite", opts.getenv("STORE_DRIVER"))
	assert.Equal(t, "flag.db", opts.getenv("SQLITE_PATH"))
	assert.Equal(t, "flag.db", opts.getenv("STORE_URL"))
}

func TestExitCodes(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(fmt.Errorf("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("wrapped: %w", NewExitError(ExitCommandError, "x"))))

	err := WrapExitError(ExitFailure, "seed", fmt.Errorf("boom"))
	assert.Equal(t, "seed: boom", err.Error())
}
