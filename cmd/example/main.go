// Command example runs a full passkey round trip against the demo
// relying-party server: registration and authentication through the
// browser adapter, backed by the software authenticator.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"

	"github.com/go-ctap/passkey/pkg/bridge"
	"github.com/go-ctap/passkey/pkg/options"
	"github.com/go-ctap/passkey/pkg/passkeytypes"
	"github.com/go-ctap/passkey/pkg/platform/browserwebauthn"
	"github.com/go-ctap/passkey/pkg/rpserver"
	"github.com/go-ctap/passkey/pkg/softtoken"
)

const (
	rpID     = "localhost"
	rpName   = "Passkey Demo"
	username = "demo@example.com"
)

func main() {
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelDebug)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: lvl,
	}))

	ln, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		panic(err)
	}
	origin := "http://" + ln.Addr().String()

	rp, err := rpserver.New(rpID, rpName, []string{origin}, options.WithLogger(logger))
	if err != nil {
		panic(err)
	}
	go func() {
		_ = http.Serve(ln, rp.Router())
	}()

	token := softtoken.New()
	plugin := bridge.New(
		browserwebauthn.New(softtoken.NewContainer(token, origin), options.WithLogger(logger)),
		options.WithLogger(logger),
	)

	ctx := context.Background()

	avail := plugin.IsSupported(ctx)
	fmt.Printf("platform authenticator available: %t\n", avail.Supported)

	// Registration ceremony.
	var creation struct {
		PublicKey passkeytypes.CreatePasskeyOptions `json:"publicKey"`
	}
	postJSON(origin+"/register/options", map[string]any{"username": username}, &creation)

	created, err := plugin.Create(ctx, &creation.PublicKey)
	if err != nil {
		panic(err)
	}
	fmt.Printf("created credential: %s\n", created.ID)

	var registered struct {
		Verified     bool   `json:"verified"`
		CredentialID string `json:"credentialId"`
	}
	postJSON(origin+"/register/verify", map[string]any{
		"username":   username,
		"credential": created,
	}, &registered)
	fmt.Printf("registration verified: %t (%s)\n", registered.Verified, registered.CredentialID)

	// Authentication ceremony.
	var request struct {
		PublicKey passkeytypes.GetPasskeyOptions `json:"publicKey"`
	}
	postJSON(origin+"/authenticate/options", map[string]any{"username": username}, &request)

	asserted, err := plugin.Get(ctx, &request.PublicKey)
	if err != nil {
		panic(err)
	}
	fmt.Printf("asserted credential: %s\n", asserted.ID)

	var authenticated struct {
		Verified bool   `json:"verified"`
		Username string `json:"username"`
	}
	postJSON(origin+"/authenticate/verify", map[string]any{
		"username":   username,
		"credential": asserted,
	}, &authenticated)
	fmt.Printf("authentication verified: %t (%s)\n", authenticated.Verified, authenticated.Username)
}

func postJSON(url string, body any, out any) {
	raw, err := json.Marshal(body)
	if err != nil {
		panic(err)
	}

	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		panic(err)
	}
}
