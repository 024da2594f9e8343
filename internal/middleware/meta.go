package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	responseMetaKey = "response_meta"
	metaStartKey    = "response_meta_start"
)

// Values of meta.source on table responses.
const (
	// SourceUpstream marks a page rendered right after a backend fetch.
	SourceUpstream = "upstream"
	// SourceResident marks a page rendered from the collection already held by the session.
	SourceResident = "resident"
)

// WithResponseMeta gives every API request a metadata map that handlers
// fill in and pass to the response envelope.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(metaStartKey, time.Now())
		c.Set(responseMetaKey, map[string]interface{}{})
		c.Next()
	}
}

// SetSource records whether a table page required a backend round trip.
func SetSource(c *gin.Context, fetched bool) {
	source := SourceResident
	if fetched {
		source = SourceUpstream
	}
	SetMeta(c, "source", source)
}

// SetMeta records one metadata entry for the current response.
func SetMeta(c *gin.Context, key string, value interface{}) {
	ensureMeta(c)[key] = value
}

// ExtractMeta returns the metadata recorded so far, stamped with the time
// spent since WithResponseMeta ran. It is called right before the response
// is written.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	raw, exists := c.Get(responseMetaKey)
	if !exists {
		return nil
	}
	meta, ok := raw.(map[string]interface{})
	if !ok {
		return nil
	}
	if start, ok := c.Get(metaStartKey); ok {
		if t, ok := start.(time.Time); ok {
			meta["processing_time_ms"] = time.Since(t).Milliseconds()
		}
	}
	return meta
}

func ensureMeta(c *gin.Context) map[string]interface{} {
	if raw, exists := c.Get(responseMetaKey); exists {
		if meta, ok := raw.(map[string]interface{}); ok {
			return meta
		}
	}
	meta := make(map[string]interface{})
	c.Set(responseMetaKey, meta)
	return meta
}
