package router

import (
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
)

// Router collects domain groups and mounts them under /api/<version>
type Router struct {
	engine  *gin.Engine
	version string
	groups  []*DomainGroup
	chain   []gin.HandlerFunc
}

type RouterOption func(*Router)

// WithAPIVersion replaces the default "v1" segment
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) { r.version = version }
}

func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine, version: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register queues g for Setup
func (r *Router) Register(g *DomainGroup) *Router {
	r.groups = append(r.groups, g)
	return r
}

// Use adds middleware to the versioned group only; health probes and the
// metrics endpoint stay outside it.
func (r *Router) Use(mw ...gin.HandlerFunc) *Router {
	r.chain = append(r.chain, mw...)
	return r
}

func (r *Router) BasePath() string {
	return "/api/" + r.version
}

// Setup mounts every registered group on the engine
func (r *Router) Setup() *gin.RouterGroup {
	api := r.engine.Group(r.BasePath(), r.chain...)
	for _, g := range r.groups {
		g.RegisterRoutes(api)
	}
	return api
}

// Routes flattens the registered groups into absolute paths
func (r *Router) Routes() []RouteInfo {
	var out []RouteInfo
	for _, g := range r.groups {
		out = g.collect(r.BasePath(), out)
	}
	return out
}

// RouteInfo is one method and absolute path pair
type RouteInfo struct {
	Group  string
	Method string
	Path   string
}

type endpoint struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// DomainGroup is a declarative route set. Nothing touches gin until
// RegisterRoutes, so RegisterRentalRoutes can be inspected without an engine.
type DomainGroup struct {
	name      string
	prefix    string
	chain     []gin.HandlerFunc
	endpoints []endpoint
	children  []*DomainGroup
}

func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix}
}

func (g *DomainGroup) Name() string   { return g.name }
func (g *DomainGroup) Prefix() string { return g.prefix }

func (g *DomainGroup) Use(mw ...gin.HandlerFunc) *DomainGroup {
	g.chain = append(g.chain, mw...)
	return g
}

func (g *DomainGroup) GET(p string, h ...gin.HandlerFunc) *DomainGroup {
	return g.on(http.MethodGet, p, h)
}

func (g *DomainGroup) POST(p string, h ...gin.HandlerFunc) *DomainGroup {
	return g.on(http.MethodPost, p, h)
}

func (g *DomainGroup) PUT(p string, h ...gin.HandlerFunc) *DomainGroup {
	return g.on(http.MethodPut, p, h)
}

func (g *DomainGroup) PATCH(p string, h ...gin.HandlerFunc) *DomainGroup {
	return g.on(http.MethodPatch, p, h)
}

func (g *DomainGroup) DELETE(p string, h ...gin.HandlerFunc) *DomainGroup {
	return g.on(http.MethodDelete, p, h)
}

func (g *DomainGroup) on(method, p string, h []gin.HandlerFunc) *DomainGroup {
	g.endpoints = append(g.endpoints, endpoint{method: method, path: p, handlers: h})
	return g
}

// Group nests a child under this group's prefix and middleware
func (g *DomainGroup) Group(name, prefix string) *DomainGroup {
	child := NewDomainGroup(name, prefix)
	g.children = append(g.children, child)
	return child
}

// RegisterRoutes mounts the group and its children on parent
func (g *DomainGroup) RegisterRoutes(parent *gin.RouterGroup) {
	rg := parent.Group(g.prefix, g.chain...)
	for _, e := range g.endpoints {
		rg.Handle(e.method, e.path, e.handlers...)
	}
	for _, child := range g.children {
		child.RegisterRoutes(rg)
	}
}

func (g *DomainGroup) collect(base string, out []RouteInfo) []RouteInfo {
	base = join(base, g.prefix)
	for _, e := range g.endpoints {
		out = append(out, RouteInfo{Group: g.name, Method: e.method, Path: join(base, e.path)})
	}
	for _, child := range g.children {
		out = child.collect(base, out)
	}
	return out
}

// join keeps gin's ":param" segments intact; path.Join only cleans slashes.
func join(base, rel string) string {
	if rel == "" {
		return base
	}
	return path.Join(base, rel)
}
