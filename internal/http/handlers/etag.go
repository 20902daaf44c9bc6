package handlers

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RespondJSONWithETag hashes the serialized payload into a strong ETag and
// answers 304 when If-None-Match already carries it. Report endpoints use it
// since their payloads only change when the month's transactions do.
func RespondJSONWithETag(ctx *gin.Context, status int, payload interface{}) {
	b, err := json.Marshal(payload)
	if err != nil {
		ctx.JSON(status, payload)
		return
	}

	etag := fmt.Sprintf("%q", fmt.Sprintf("%x", sha256.Sum256(b)))

	ctx.Header("ETag", etag)

	if etagMatches(ctx.GetHeader("If-None-Match"), etag) {
		ctx.Status(http.StatusNotModified)
		return
	}

	ctx.Data(status, "application/json; charset=utf-8", b)
}

func etagMatches(headerValue, current string) bool {
	headerValue = strings.TrimSpace(headerValue)

	if headerValue == "" {
		return false
	}

	if headerValue == "*" {
		return true
	}

	for _, candidate := range strings.Split(headerValue, ",") {
		candidate = strings.TrimSpace(candidate)

		// weak validators compare equal to their strong form
		candidate = strings.TrimPrefix(candidate, "W/")

		if strings.TrimSpace(candidate) == current {
			return true
		}
	}

	return false
}
