package threadpool

import (
	"bytes"
	"time"
)

const (
	StatusOK            = "HTTP/1.1 200 OK"
	StatusNotFound      = "HTTP/1.1 404 NOT FOUND"
	StatusInternalError = "HTTP/1.1 500 INTERNAL SERVER ERROR"
)

// Route 一条请求行对应的响应
type Route struct {
	Status string
	File   string
	Delay  time.Duration // 响应前的模拟延迟
}

type routeEntry struct {
	prefix []byte
	route  Route
}

// Router 按请求行前缀匹配路由，先注册的优先
type Router struct {
	routes   []routeEntry
	fallback Route
}

func NewRouter(fallback Route) *Router {
	return &Router{fallback: fallback}
}

// DefaultRouter 注册 "GET /" 和 "GET /sleep"，其余返回 404
func DefaultRouter(sleepDelay time.Duration) *Router {
	r := NewRouter(Route{Status: StatusNotFound, File: "404.html"})
	r.Register("GET / HTTP/1.1\r\n", Route{Status: StatusOK, File: "index.html"})
	r.Register("GET /sleep HTTP/1.1\r\n", Route{Status: StatusOK, File: "index.html", Delay: sleepDelay})
	return r
}

// Register 注册一个请求行前缀，不可与 Match 并发调用
func (r *Router) Register(requestLine string, route Route) {
	r.routes = append(r.routes, routeEntry{prefix: []byte(requestLine), route: route})
}

// Match 返回第一个前缀匹配的路由，否则返回 fallback
func (r *Router) Match(request []byte) Route {
	for _, e := range r.routes {
		if bytes.HasPrefix(request, e.prefix) {
			return e.route
		}
	}
	return r.fallback
}
