// Package gateway serves every configured source behind one HTTP API. The
// routes are declared in an embedded OpenAPI document and bound to handlers
// by operationId.
package gateway

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"
	"regexp"
	"slices"
	"strings"
	"time"

	"bugmaschine/booru-mux/booru"
	"bugmaschine/booru-mux/logging"
	"bugmaschine/booru-mux/signer"
	"bugmaschine/booru-mux/sink"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gin-gonic/gin"
)

//go:embed openapi/gateway.yaml
var openAPIRoutes []byte // used to register the routes in the gin router

const defaultLinkTTL = time.Hour

type Options struct {
	// PublicURL is the externally visible base url. When set, asset urls in
	// responses are rewritten to signed links on this gateway.
	PublicURL string
	LinkTTL   time.Duration
	// Signer signs proxy links. A random key is generated when nil, which
	// invalidates all links on restart.
	Signer *signer.Signer
	// Cache keeps proxied assets. Optional.
	Cache sink.Sink
}

type Server struct {
	sources   map[string]booru.Source
	names     []string
	publicURL string
	linkTTL   time.Duration
	signer    *signer.Signer
	cache     sink.Sink
	router    *gin.Engine
}

func New(sources []booru.Source, opts Options) (*Server, error) {
	s := &Server{
		sources:   make(map[string]booru.Source, len(sources)),
		publicURL: strings.TrimSuffix(opts.PublicURL, "/"),
		linkTTL:   opts.LinkTTL,
		signer:    opts.Signer,
		cache:     opts.Cache,
	}
	for _, src := range sources {
		key := strings.ToLower(src.Name())
		if _, dup := s.sources[key]; dup {
			return nil, fmt.Errorf("source %q registered twice", src.Name())
		}
		s.sources[key] = src
		s.names = append(s.names, src.Name())
	}
	slices.Sort(s.names)

	if s.linkTTL <= 0 {
		s.linkTTL = defaultLinkTTL
	}
	if s.signer == nil {
		key, err := signer.GenerateSecretKey()
		if err != nil {
			return nil, err
		}
		s.signer = signer.NewSigner(key)
	}

	s.router = gin.New()
	s.router.Use(gin.Logger(), gin.Recovery(), requestID())
	if err := s.registerRoutes(openAPIRoutes); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Run(addr string) error {
	logging.Info("Started router at %v", addr)
	return s.router.Run(addr)
}

func (s *Server) handlers() map[string]gin.HandlerFunc {
	return map[string]gin.HandlerFunc{
		"listSources": s.listSources,
		"searchPosts": s.searchPosts,
		"listTags":    s.listTags,
		"proxyFile":   s.proxyFile,
	}
}

// converts OpenAPI path parameters {id} to gin's :id
var pathParam = regexp.MustCompile(`\{(.+?)\}`)

func (s *Server) registerRoutes(openapifile []byte) error {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(openapifile)
	if err != nil {
		return fmt.Errorf("failed to load OpenAPI: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return fmt.Errorf("invalid OpenAPI document: %w", err)
	}

	handlers := s.handlers()
	var registered int
	for _, path := range doc.Paths.InMatchingOrder() {
		pathItem := doc.Paths.Find(path)
		if pathItem == nil {
			logging.Warn("Path item not found for path: %v", path)
			continue
		}
		converted := pathParam.ReplaceAllString(path, ":$1")

		for method, op := range pathItem.Operations() {
			handler, ok := handlers[op.OperationID]
			if !ok {
				return fmt.Errorf("no handler for operation %q (%s %s)", op.OperationID, method, path)
			}
			logging.Debug("Adding route: %v %v -> %v", method, converted, op.OperationID)
			s.router.Handle(method, converted, handler)
			registered++
		}
	}

	logging.Info("Registered %d routes from OpenAPI spec", registered)
	return nil
}
