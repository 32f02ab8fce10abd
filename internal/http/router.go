package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// HandleHandler 支持 http.Handler 接口（用于 pprof 等）
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// 想定资源路由前缀。摄取、层级查询、进度流、溯源与目标名录
// 全部挂在 /scenarios/{scenarioID} 之下
const scenarioRoutePrefix = "/ingest/api/v1/scenarios"

// RegisterIngestRoutes 注册摄取相关路由
func (r *Router) RegisterIngestRoutes(api *IngestAPI) {
	// 想定集合：GET 列表 / POST 创建
	r.Handle(scenarioRoutePrefix, api.ScenariosHandler)

	// 想定子资源：/{scenarioID}/...
	r.Handle(scenarioRoutePrefix+"/", api.ScenarioSubtreeHandler)
}
