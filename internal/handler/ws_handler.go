/*
Package handler provides the HTTP handler function for WebSocket connection upgrading and initialization.

This file contains the HandleWebSocket function, which is responsible for rate limiting, resolving
the optional bearer identity, upgrading the HTTP connection to WebSocket, and initiating the client lifecycle.
*/
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"roleready/internal/app/collab"
	"roleready/internal/app/user"
	"roleready/internal/pkg/auth/jwt"
	"roleready/internal/pkg/errs"
	"roleready/internal/pkg/limiter"
	"roleready/internal/pkg/logx"
	"roleready/internal/pkg/resp"
)

// HandleWebSocket creates an HTTP HandlerFunc to process WebSocket connection requests.
// A token may be supplied as a bearer header or a "token" query parameter; without one
// the socket is anonymous and trusts the userId carried in each frame.
func HandleWebSocket(deps *AppDeps, upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := limiter.ClientIP(r)

		if !rateLimiter.Allow(r) {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		var identity *user.User

		token := jwt.BearerToken(r)
		if token == "" {
			token = r.URL.Query().Get("token")
		}
		if token != "" {
			payload, err := jwt.ParseToken(token, deps.Config.JWTSecret)
			if err != nil {
				logx.Warn("WebSocket connection rejected: Invalid token.", "error", err.Error())
				resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
				return
			}
			identity = user.FromPayload(payload)
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		client := collab.NewClient(deps.Hub, conn, identity)

		if !deps.Hub.Register(client) {
			client.Close("Server is shutting down.")
			conn.Close()
			return
		}

		go client.WritePump()

		logx.Info("WebSocket connection established and client registered", "conn_id", client.ID(), "authenticated", identity != nil)

		client.ReadPump()
	}
}
