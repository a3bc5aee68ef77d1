package gateway

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"bugmaschine/booru-mux/dualreader"
	"bugmaschine/booru-mux/logging"
	"bugmaschine/booru-mux/model"
	"bugmaschine/booru-mux/sink"

	"github.com/gin-gonic/gin"
)

// makeProxyLink signs "<source> <url>" so a client can't change the link to
// make us download arbitrary files.
func (s *Server) makeProxyLink(source, original string) string {
	if original == "" {
		return ""
	}
	fileID := base64.RawURLEncoding.EncodeToString([]byte(source + " " + original))
	sig, exp := s.signer.SignExpiring(fileID, s.linkTTL)

	// if the route changes, we need to update this
	return s.publicURL + "/proxy/" + fileID + "?sig=" + url.QueryEscape(sig) + "&exp=" + exp
}

func (s *Server) proxyFile(c *gin.Context) {
	fileID := c.Param("fileId")
	sig, exp := c.Query("sig"), c.Query("exp")
	if sig == "" || exp == "" {
		abort(c, http.StatusBadRequest, "Missing signature")
		return
	}
	if !s.signer.VerifyExpiring(fileID, sig, exp) {
		abort(c, http.StatusForbidden, "Invalid or expired signature")
		return
	}

	decoded, err := base64.RawURLEncoding.DecodeString(fileID)
	if err != nil {
		abort(c, http.StatusBadRequest, "Invalid file ID")
		return
	}
	name, original, ok := strings.Cut(string(decoded), " ")
	src, found := s.sources[strings.ToLower(name)]
	if !ok || !found {
		abort(c, http.StatusNotFound, "unknown source")
		return
	}

	post := model.Post{ResourceURL: original}
	key := sink.Key(src.Name(), post)

	expires, _ := strconv.ParseInt(exp, 10, 64)
	c.Header("Cache-Control", "public, max-age="+strconv.Itoa(int(time.Until(time.Unix(expires, 0)).Seconds())))
	c.Header("Expires", time.Unix(expires, 0).UTC().Format(http.TimeFormat))

	if s.cache != nil && key != "" {
		if obj, err := s.cache.Open(c.Request.Context(), key); err == nil {
			logging.Debug("Serving %v from cache", key)
			defer obj.Body.Close()
			c.DataFromReader(http.StatusOK, obj.Size, obj.ContentType, obj.Body, nil)
			return
		}
	}

	asset, err := src.Download(c.Request.Context(), post)
	if err != nil {
		s.fail(c, err)
		return
	}
	defer asset.Body.Close()

	contentType := asset.ContentType
	if contentType == "" {
		contentType = sink.ContentType(key)
	}

	if s.cache == nil || key == "" {
		c.DataFromReader(http.StatusOK, asset.Size, contentType, asset.Body, nil)
		return
	}

	// upload to the cache while the client is downloading the file
	upload, client := dualreader.NewDualReader(asset.Body).Readers()
	uploadCtx := context.WithoutCancel(c.Request.Context())
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer upload.Close()
		if err := s.cache.Put(uploadCtx, key, upload, contentType); err != nil {
			logging.Error("Failed to cache %v: %v", key, err)
			return
		}
		logging.Debug("Cached %v", key)
	}()

	c.DataFromReader(http.StatusOK, asset.Size, contentType, client, nil)
	client.Close()
	<-done
}
