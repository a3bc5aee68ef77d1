package gateway

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"bugmaschine/booru-mux/booru"
	"bugmaschine/booru-mux/logging"
	"bugmaschine/booru-mux/model"
	"bugmaschine/booru-mux/schema"

	"github.com/gin-gonic/gin"
)

const maxLimit = 320

type sourceInfo struct {
	Name    string `json:"name"`
	TagList bool   `json:"tag_list"`
}

func (s *Server) listSources(c *gin.Context) {
	infos := make([]sourceInfo, 0, len(s.names))
	for _, name := range s.names {
		infos = append(infos, sourceInfo{Name: name, TagList: supportsTagList(s.sources[strings.ToLower(name)])})
	}
	c.JSON(http.StatusOK, infos)
}

func supportsTagList(src booru.Source) bool {
	if t, ok := src.(interface{ SupportsTagList() bool }); ok {
		return t.SupportsTagList()
	}
	return true
}

func (s *Server) source(c *gin.Context) (booru.Source, bool) {
	name := c.Param("source")
	src, ok := s.sources[strings.ToLower(name)]
	if !ok {
		abort(c, http.StatusNotFound, "unknown source "+strconv.Quote(name))
	}
	return src, ok
}

func (s *Server) searchPosts(c *gin.Context) {
	src, ok := s.source(c)
	if !ok {
		return
	}
	q, err := parseQuery(c)
	if err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}

	posts, err := src.Search(c.Request.Context(), q)
	if err != nil {
		s.fail(c, err)
		return
	}
	for i := range posts {
		s.rewritePost(src.Name(), &posts[i])
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

func (s *Server) listTags(c *gin.Context) {
	src, ok := s.source(c)
	if !ok {
		return
	}
	page, limit, err := pageAndLimit(c)
	if err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}

	tags, err := src.Tags(c.Request.Context(), page, limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

func parseQuery(c *gin.Context) (booru.Query, error) {
	page, limit, err := pageAndLimit(c)
	if err != nil {
		return booru.Query{}, err
	}
	q := booru.Query{Page: page, Limit: limit, Order: schema.Newest}
	if raw := c.Query("order"); raw != "" {
		if q.Order, err = schema.ParseOrder(raw); err != nil {
			return booru.Query{}, err
		}
	}
	for _, tag := range strings.Fields(c.Query("tags")) {
		if excluded, ok := strings.CutPrefix(tag, "-"); ok {
			if excluded != "" {
				q.Exclude = append(q.Exclude, excluded)
			}
			continue
		}
		q.Include = append(q.Include, tag)
	}
	return q, nil
}

func pageAndLimit(c *gin.Context) (page, limit int, err error) {
	page, limit = booru.DefaultPage, booru.DefaultLimit
	if raw := c.Query("page"); raw != "" {
		if page, err = strconv.Atoi(raw); err != nil || page < 0 {
			return 0, 0, errors.New("page must be a non-negative number")
		}
	}
	if raw := c.Query("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit < 1 || limit > maxLimit {
			return 0, 0, errors.New("limit must be between 1 and " + strconv.Itoa(maxLimit))
		}
	}
	return page, limit, nil
}

func (s *Server) rewritePost(source string, p *model.Post) {
	if s.publicURL == "" {
		return
	}
	p.ResourceURL = s.makeProxyLink(source, p.ResourceURL)
	p.PreviewURL = s.makeProxyLink(source, p.PreviewURL)
}

// statusFor maps a source error to the status the gateway answers with.
func statusFor(err error) int {
	switch booru.KindOf(err) {
	case booru.KindUnsupported:
		return http.StatusNotImplemented
	case booru.KindTransport, booru.KindServer, booru.KindMalformedEnvelope,
		booru.KindMissingField, booru.KindTypeMismatch, booru.KindUnknownAlias, booru.KindScript:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= 500 && status != http.StatusNotImplemented {
		logging.Error("[%s] %v", c.GetString("request_id"), err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "kind": booru.KindOf(err).String(), "ok": false})
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg, "ok": false})
}
