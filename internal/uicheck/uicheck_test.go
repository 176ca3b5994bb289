package uicheck

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"wastenot-e2e/internal/components/telemetry"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/stretchr/testify/require"
)

const loginHTML = `<!doctype html>
<html>
<body>
  <h1>
    Café Manager
  </h1>
  <form>
    <input name="emanresu">
    <button>log in</button>
  </form>
  <a href="/register">New User?</a>
  <a href="/reset">Forgot Password?</a>
  <a href="/hidden" style="display: none">Secret</a>
</body>
</html>`

const brokenHTML = `<html><body><h1>Maintenance</h1><a href="/register">New User?</a></body></html>`

func fakeSite(t testing.TB) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(loginHTML))
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(brokenHTML))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestStaticLoginPage(t *testing.T) {
	server := fakeSite(t)
	ctx := context.Background()

	driver := NewStaticDriver(nil, telemetry.NewRecorderAPI())
	page, err := driver.Open(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer page.Close()

	require.NoError(t, Check(ctx, page, server.URL+"/login", LoginPage()))

	visible, err := page.Visible(ctx, Locator{Selector: "a", Text: "Secret"})
	require.NoError(t, err)
	require.False(t, visible)

	visible, err = page.Visible(ctx, Locator{Selector: "table"})
	require.NoError(t, err)
	require.False(t, visible)
}

func TestStaticCheckJoinsFailures(t *testing.T) {
	server := fakeSite(t)
	ctx := context.Background()

	page, err := NewStaticDriver(nil, telemetry.NewRecorderAPI()).Open(ctx)
	if err != nil {
		t.Fatal(err)
	}

	err = Check(ctx, page, server.URL+"/broken", LoginPage())
	require.ErrorContains(t, err, `h1: expected text "Café Manager", got "Maintenance"`)
	require.ErrorContains(t, err, `a[text~="Forgot Password?"]: expected to be visible`)
	require.NotContains(t, err.Error(), "New User?")

	err = Check(ctx, page, server.URL+"/missing", LoginPage())
	require.ErrorContains(t, err, "unexpected status 404")
}

func TestRodLoginPage(t *testing.T) {
	_, found := launcher.LookPath()
	if !found {
		t.Skip("no chrome binary available")
	}
	server := fakeSite(t)
	ctx := context.Background()

	driver, err := NewRodDriver(ctx, RodConfig{NoSandbox: true}, telemetry.NewRecorderAPI())
	if err != nil {
		t.Fatal(err)
	}
	defer driver.Close()

	page, err := driver.Open(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer page.Close()

	require.NoError(t, Check(ctx, page, server.URL+"/login", LoginPage()))
}
