package handler

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"roleready/internal/pkg/errs"
	"roleready/internal/pkg/logx"
	"roleready/internal/pkg/resp"
)

// Recoverer turns a panicking handler into a 500 with the standard error body.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}

			logx.Error(
				fmt.Errorf("panic: %v", rvr),
				"Recovered from handler panic",
				"request_id", middleware.GetReqID(r.Context()),
				"path", r.URL.Path,
				"stack", string(debug.Stack()),
			)

			// upgraded connections have no response to write
			if !websocket.IsWebSocketUpgrade(r) {
				resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			}
		}()

		next.ServeHTTP(w, r)
	})
}
