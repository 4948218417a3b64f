package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/akolanti/smartsort/internal/adapter/utils"
	"github.com/akolanti/smartsort/internal/config"
	"github.com/akolanti/smartsort/internal/handlers"
	"github.com/akolanti/smartsort/pkg/logger_i"
)

func injectTrace(re requestResponseStruct) requestResponseStruct {
	req := re.req
	if req == nil {
		//this is a bad request
		re.badRequest.httpCode = http.StatusBadRequest
		re.badRequest.errorMessage = "request is empty"
		re.badRequest.isBadRequest = true
		return re
	}
	trace := req.Header.Get("X-Trace-Id")
	if trace == "" {
		trace = utils.NewTraceId()
	}
	re.logger = re.logger.With("traceId", trace)
	ctx := context.WithValue(req.Context(), config.TRACE_ID_KEY, trace)
	req.Header.Set(`X-Trace-Id`, trace)
	re.writer.Header().Set(`X-Trace-Id`, trace)
	re.req = req.WithContext(ctx)
	return re
}

func authenticate(re requestResponseStruct) requestResponseStruct {
	if !IsValidBearerToken(re.req.Header.Get("Authorization"), re.logger) {
		re.badRequest.isBadRequest = true
		re.badRequest.errorMessage = "Unauthorized"
		re.badRequest.httpCode = http.StatusUnauthorized
		return re
	}
	re.logger.Debug("Authorized")
	return re
}

func IsValidBearerToken(authHeader string, log *logger_i.Logger) bool {
	if noAuth {
		log.Warn("auth bypass enabled")
		return true
	}
	if authToken == "" {
		log.Error("No API key configured, rejecting request")
		return false
	}
	if authHeader == "" {
		log.Warn("Empty authorization header")
		return false
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		log.Warn("No Bearer header")
		return false
	}
	if subtle.ConstantTimeCompare([]byte(strings.TrimPrefix(authHeader, "Bearer ")), []byte(authToken)) != 1 {
		log.Warn("Invalid authorization header")
		return false
	}
	return true
}

func rateLimiter(re requestResponseStruct) requestResponseStruct {
	client, ok := limiterInstance.Allow(re.req)
	if !ok {
		re.logger.Warn("Too many requests", "client", client)
		re.badRequest = failureStruct{
			isBadRequest: true,
			httpCode:     http.StatusTooManyRequests,
			errorMessage: "Rate limit exceeded",
		}
		return re
	}
	return re
}

// handleBadRequest writes the rejection and reports whether the request may continue.
func handleBadRequest(re requestResponseStruct) bool {
	if re.badRequest.isBadRequest {
		remote := ""
		if re.req != nil {
			remote = re.req.RemoteAddr
		}
		re.logger.Warn("Bad request", "httpCode", re.badRequest.httpCode, "errorMessage", re.badRequest.errorMessage, "ip", remote)
		handlers.WriteErrorResponse(re.writer, re.badRequest.httpCode, "", re.badRequest.errorMessage)
		return false
	}
	return true
}
