package httpadapter

import (
	"context"
	"slices"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

const (
	corsAllowMethods = "GET,POST,OPTIONS"
	corsAllowHeaders = "Content-Type," + playerIDHeader + "," + playerKeyHeader
	corsMaxAge       = "600"
)

// allowedOrigin picks the Access-Control-Allow-Origin value for a request origin. An empty
// result means the origin is not allowed and no CORS headers are written.
func allowedOrigin(origins []string, requestOrigin string) string {
	if len(origins) == 0 || slices.Contains(origins, "*") {
		return "*"
	}
	requestOrigin = strings.TrimSpace(requestOrigin)
	if requestOrigin != "" && slices.Contains(origins, requestOrigin) {
		return requestOrigin
	}
	return ""
}

func applyCORSHeaders(ctx *app.RequestContext, origin string) {
	ctx.Response.Header.Set("Access-Control-Allow-Origin", origin)
	if origin != "*" {
		ctx.Response.Header.Set("Vary", "Origin")
	}
	ctx.Response.Header.Set("Access-Control-Allow-Methods", corsAllowMethods)
	ctx.Response.Header.Set("Access-Control-Allow-Headers", corsAllowHeaders)
	ctx.Response.Header.Set("Access-Control-Max-Age", corsMaxAge)
}

// corsMiddleware answers preflight requests without running the route handlers.
func corsMiddleware(origins []string) app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		if origin := allowedOrigin(origins, string(ctx.GetHeader("Origin"))); origin != "" {
			applyCORSHeaders(ctx, origin)
		}
		if string(ctx.Method()) == consts.MethodOptions {
			ctx.AbortWithStatus(consts.StatusNoContent)
			return
		}
		ctx.Next(c)
	}
}
