//go:build integration

package notify

import (
	"context"
	"io"
	"log"
	"testing"
	"wastenot-e2e/internal/components/telemetry"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestSendToFakeSMTP(t *testing.T) {
	// suppress logging
	testcontainers.Logger = log.New(io.Discard, "", 0)

	ctx := context.Background()
	server, err := testcontainers.GenericContainer(
		ctx,
		testcontainers.GenericContainerRequest{
			Started: true,
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "haravich/fake-smtp-server",
				ExposedPorts: []string{"1025:1025", "1090:1080"},
				WaitingFor:   wait.ForLog("smtp://0.0.0.0:1025"),
			},
		},
	)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		err := server.Terminate(context.Background())
		if err != nil {
			t.Fatal(err)
		}
	}()

	m, err := NewMailer(Config{
		Server:       "localhost",
		Port:         1025,
		EmailAddress: "e2e@example.com",
		Password:     "default",
		To:           []string{"qa@example.com"},
	}, telemetry.NewRecorderAPI())
	if err != nil {
		t.Fatal(err)
	}

	err = m.Send(ctx, "WasteNot correction", "=== FINAL SUMMARY ===\nUpdated: 1730")
	if err != nil {
		t.Fatal(err)
	}

	res, err := resty.New().R().Get("http://127.0.0.1:1090/messages/1.plain")
	if err != nil {
		t.Fatal(err)
	}
	require.Contains(t, res.String(), "Updated: 1730")
}
