package api

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/WanderningMaster/merklecid/cid"
	"github.com/WanderningMaster/merklecid/configuration"
	"github.com/WanderningMaster/merklecid/internal/logging"
	daemon "github.com/coreos/go-systemd/v22/daemon"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
func writeErr(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": msg})
}

// NewMux builds the hashing service routes. The service is stateless: bodies
// are hashed and discarded, nothing is ever stored server side.
func NewMux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/cid", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeErr(w, 405, "POST a body to hash")
			return
		}
		version := cid.VersionRaw
		if v := r.URL.Query().Get("version"); v != "" {
			if len(v) != 1 {
				writeErr(w, 400, "version must be a single character")
				return
			}
			version = v[0]
		}
		c, err := cid.FromReader(version, r.Body)
		if err != nil {
			writeErr(w, 500, err.Error())
			return
		}
		ctx := logging.WithPrefix(r.Context(), logging.ServerPrefix)
		logging.Logf(ctx, "hashed %d bytes into %s", c.Size(), c)
		writeJSON(w, map[string]any{
			"cid":    c.String(),
			"size":   c.Size(),
			"blocks": c.NumBlocks(),
		})
	})

	mux.HandleFunc("/cid/{cid}", func(w http.ResponseWriter, r *http.Request) {
		c, err := cid.Parse(r.PathValue("cid"))
		if err != nil {
			writeErr(w, 400, err.Error())
			return
		}
		h := c.Hash()
		writeJSON(w, map[string]any{
			"cid":     c.String(),
			"version": string(rune(c.Version())),
			"size":    c.Size(),
			"blocks":  c.NumBlocks(),
			"hash":    hex.EncodeToString(h[:]),
		})
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"ok": true})
	})

	return mux
}

// Serve runs the hashing service on addr until the listener fails or ctx is
// cancelled, then drains in-flight requests within the shutdown grace.
// Readiness and stopping are signaled to the service manager.
func Serve(ctx context.Context, addr string) error {
	conf := configuration.Default()
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewMux(),
		ReadHeaderTimeout: conf.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), conf.ShutdownGrace)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
