// Copyright 2020 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	"github.com/emicklei/go-restful/v3"
	"github.com/gorse-io/cinema/base"
	"github.com/gorse-io/cinema/base/log"
	"github.com/gorse-io/cinema/config"
	"github.com/gorse-io/cinema/engine"
	"github.com/juju/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/lo"
	"github.com/swaggest/swgui/v5emb"
	"go.uber.org/zap"
)

const (
	apiDocsPath = "/apidocs/"
	apiSpecPath = "/apidocs.json"
	metricsPath = "/metrics"
)

// Server is the HTTP shell around the recommendation engine.
type Server struct {
	Config     *config.Config
	Engine     *engine.Holder
	WebService *restful.WebService
	HttpServer *http.Server
}

func NewServer(cfg *config.Config) *Server {
	return &Server{
		Config:     cfg,
		Engine:     new(engine.Holder),
		WebService: new(restful.WebService),
	}
}

// Handler builds the container serving the API, API docs and metrics.
func (s *Server) Handler() *restful.Container {
	s.CreateWebService()
	container := restful.NewContainer()
	container.Add(s.WebService)
	container.ServiceErrorHandler(func(serviceErr restful.ServiceError, _ *restful.Request, response *restful.Response) {
		writeError(response, serviceErr.Code, errors.New(serviceErr.Message))
	})
	// cross origin requests
	cors := restful.CrossOriginResourceSharing{
		AllowedHeaders: []string{"Content-Type", "Accept", "X-Request-ID"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		CookiesAllowed: false,
		Container:      container,
	}
	if !lo.Contains(s.Config.Server.AllowedOrigins, "*") {
		cors.AllowedDomains = s.Config.Server.AllowedOrigins
	}
	container.Filter(RequestIdFilter)
	container.Filter(cors.Filter)
	container.Filter(container.OPTIONSFilter)
	// API docs
	specConfig := restfulspec.Config{
		WebServices: container.RegisteredWebServices(),
		APIPath:     apiSpecPath,
	}
	container.Add(restfulspec.NewOpenAPIService(specConfig))
	container.Handle(apiDocsPath, RequestIdHandler(v5emb.New("Cinema", apiSpecPath, apiDocsPath)))
	// prometheus
	container.Handle(metricsPath, RequestIdHandler(promhttp.Handler()))
	return container
}

// Serve starts the HTTP server and builds the engine in the background. It
// returns when the server is shut down.
func (s *Server) Serve(ctx context.Context, init func(ctx context.Context) (*engine.Engine, error)) error {
	s.HttpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.Config.Server.Host, s.Config.Server.Port),
		Handler: s.Handler(),
	}
	go func() {
		defer base.CheckPanic()
		s.Initialize(ctx, init)
	}()
	log.Logger().Info("start http server",
		zap.String("url", fmt.Sprintf("http://%s", s.HttpServer.Addr)))
	if err := s.HttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Trace(err)
	}
	return nil
}

// Initialize builds the engine and publishes it to the holder.
func (s *Server) Initialize(ctx context.Context, init func(ctx context.Context) (*engine.Engine, error)) {
	start := time.Now()
	if err := s.Engine.Run(ctx, init); err != nil {
		return
	}
	InitializeSeconds.Set(time.Since(start).Seconds())
	if e, err := s.Engine.Load(); err == nil {
		updateEngineMetrics(e)
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.HttpServer == nil {
		return nil
	}
	return errors.Trace(s.HttpServer.Shutdown(ctx))
}
