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
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	"github.com/emicklei/go-restful/v3"
	"github.com/google/uuid"
	"github.com/gorse-io/cinema/base"
	"github.com/gorse-io/cinema/base/log"
	"github.com/gorse-io/cinema/catalog"
	"github.com/gorse-io/cinema/engine"
	"github.com/gorse-io/cinema/logics"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.opentelemetry.io/contrib/instrumentation/github.com/emicklei/go-restful/otelrestful"
	"go.uber.org/zap"
)

const unknownReleaseDate = "Unknown"

type HealthResponse struct {
	Status           string `json:"status"`
	RecommenderReady bool   `json:"recommender_ready"`
}

type GenreCount struct {
	Genre   string `json:"genre"`
	English string `json:"english"`
	Count   int    `json:"count"`
}

type UserStats struct {
	TotalRatings   int          `json:"total_ratings"`
	AvgRating      float64      `json:"avg_rating"`
	RatingStd      *float64     `json:"rating_std"`
	FavoriteGenres []GenreCount `json:"favorite_genres"`
}

type StatsResponse struct {
	UserId int       `json:"user_id"`
	Stats  UserStats `json:"stats"`
}

// Recommendation is a recommended movie with its details.
type Recommendation struct {
	MovieId     int                 `json:"movie_id"`
	Title       string              `json:"title"`
	Score       float64             `json:"score"`
	ReleaseDate string              `json:"release_date"`
	Genres      []catalog.LabelPair `json:"genres"`
}

type RecommendResponse struct {
	UserId          int              `json:"user_id"`
	Genre           string           `json:"genre,omitempty"`
	Recommendations []Recommendation `json:"recommendations"`
	Count           int              `json:"count"`
}

type GenresResponse struct {
	GenresEnglish []string          `json:"genres_english"`
	GenresKorean  []string          `json:"genres_korean"`
	GenreMapping  map[string]string `json:"genre_mapping"`
}

type Movie struct {
	MovieId     int                 `json:"movie_id"`
	Title       string              `json:"title"`
	ReleaseDate string              `json:"release_date"`
	ImdbUrl     string              `json:"imdb_url"`
	Genres      []catalog.LabelPair `json:"genres"`
}

type UsersResponse struct {
	UserIds    []int `json:"user_ids"`
	TotalUsers int   `json:"total_users"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

const requestIdHeader = "X-Request-ID"

// requestId returns the request id sent by the client or a new one.
func requestId(r *http.Request) string {
	if id := r.Header.Get(requestIdHeader); id != "" {
		return id
	}
	return uuid.NewString()
}

// RequestIdFilter echoes or assigns the request id of every dispatched request.
func RequestIdFilter(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
	resp.Header().Set(requestIdHeader, requestId(req.Request))
	chain.ProcessFilter(req, resp)
}

// RequestIdHandler is RequestIdFilter for plain handlers mounted on the container.
func RequestIdHandler(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(requestIdHeader, requestId(r))
		handler.ServeHTTP(w, r)
	})
}

// LogFilter logs every request after it is served.
func LogFilter(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
	start := time.Now()
	chain.ProcessFilter(req, resp)
	RequestsTotal.WithLabelValues(req.Request.Method, strconv.Itoa(resp.StatusCode())).Inc()
	logger := log.ResponseLogger(resp)
	fields := []zap.Field{
		zap.Int("status_code", resp.StatusCode()),
		zap.Duration("duration", time.Since(start)),
	}
	if req.Request.URL.Path == "/api/health" {
		logger.Debug(fmt.Sprintf("%s %s", req.Request.Method, req.Request.URL), fields...)
	} else {
		logger.Info(fmt.Sprintf("%s %s", req.Request.Method, req.Request.URL), fields...)
	}
}

func (s *Server) CreateWebService() {
	ws := s.WebService
	ws.Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)
	ws.Path("/api/")
	ws.Filter(otelrestful.OTelFilter("cinema"))
	ws.Filter(LogFilter)

	ws.Route(ws.GET("/health").To(s.getHealth).
		Doc("Get the health of the server.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"health"}).
		Writes(HealthResponse{}))
	ws.Route(ws.GET("/users").To(s.getUsers).
		Doc("Get identifiers of known users.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"user"}).
		Param(ws.QueryParameter("n", "number of returned users").DataType("integer")).
		Writes(UsersResponse{}))
	ws.Route(ws.GET("/users/{user-id}/stats").To(s.getUserStats).
		Doc("Get rating statistics of a user.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"user"}).
		Param(ws.PathParameter("user-id", "identifier of the user").DataType("integer")).
		Writes(StatsResponse{}))
	ws.Route(ws.GET("/users/{user-id}/recommendations").To(s.getRecommend).
		Doc("Get recommended movies for a user.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"recommendation"}).
		Param(ws.PathParameter("user-id", "identifier of the user").DataType("integer")).
		Param(ws.QueryParameter("top_n", "number of returned movies").DataType("integer")).
		Writes(RecommendResponse{}))
	ws.Route(ws.GET("/users/{user-id}/recommendations/genre/{genre}").To(s.getRecommendByGenre).
		Doc("Get recommended movies of a genre for a user.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"recommendation"}).
		Param(ws.PathParameter("user-id", "identifier of the user").DataType("integer")).
		Param(ws.PathParameter("genre", "genre in English or Korean").DataType("string")).
		Param(ws.QueryParameter("top_n", "number of returned movies").DataType("integer")).
		Writes(RecommendResponse{}))
	ws.Route(ws.GET("/genres").To(s.getGenres).
		Doc("Get supported genres.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"genre"}).
		Writes(GenresResponse{}))
	ws.Route(ws.GET("/movies/{movie-id}").To(s.getMovie).
		Doc("Get a movie.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"movie"}).
		Param(ws.PathParameter("movie-id", "identifier of the movie").DataType("integer")).
		Writes(Movie{}))
}

func (s *Server) getHealth(_ *restful.Request, response *restful.Response) {
	Ok(response, HealthResponse{
		Status:           "healthy",
		RecommenderReady: s.Engine.Health().Ready,
	})
}

func (s *Server) getUsers(request *restful.Request, response *restful.Response) {
	e, ok := s.engine(response)
	if !ok {
		return
	}
	n, err := ParseInt(request, "n", s.Config.Recommend.UserListSize)
	if err != nil {
		BadRequest(response, err)
		return
	}
	userIds, total := e.KnownUserIds(n)
	Ok(response, UsersResponse{UserIds: userIds, TotalUsers: total})
}

func (s *Server) getUserStats(request *restful.Request, response *restful.Response) {
	e, ok := s.engine(response)
	if !ok {
		return
	}
	userId, err := ParsePathInt(request, "user-id")
	if err != nil {
		BadRequest(response, err)
		return
	}
	start := time.Now()
	stats, err := e.Stats(userId)
	if err != nil {
		handleError(response, err)
		return
	}
	StatsSeconds.Observe(time.Since(start).Seconds())
	result := UserStats{
		TotalRatings: stats.Count,
		AvgRating:    stats.Mean,
		FavoriteGenres: lo.Map(stats.Favorites, func(c logics.GenreCount, _ int) GenreCount {
			return GenreCount{Genre: c.Genre.Korean(), English: c.Genre.English(), Count: c.Count}
		}),
	}
	if !math.IsNaN(stats.StdDev) {
		result.RatingStd = &stats.StdDev
	}
	Ok(response, StatsResponse{UserId: userId, Stats: result})
}

func (s *Server) getRecommend(request *restful.Request, response *restful.Response) {
	e, ok := s.engine(response)
	if !ok {
		return
	}
	userId, err := ParsePathInt(request, "user-id")
	if err != nil {
		BadRequest(response, err)
		return
	}
	topN, err := ParseInt(request, "top_n", s.Config.Recommend.DefaultN)
	if err != nil {
		BadRequest(response, err)
		return
	}
	start := time.Now()
	scores, err := e.RecommendAll(userId, topN)
	if err != nil {
		handleError(response, err)
		return
	}
	RecommendSeconds.WithLabelValues("all").Observe(time.Since(start).Seconds())
	recommendations := s.enrich(e, scores)
	Ok(response, RecommendResponse{
		UserId:          userId,
		Recommendations: recommendations,
		Count:           len(recommendations),
	})
}

func (s *Server) getRecommendByGenre(request *restful.Request, response *restful.Response) {
	e, ok := s.engine(response)
	if !ok {
		return
	}
	userId, err := ParsePathInt(request, "user-id")
	if err != nil {
		BadRequest(response, err)
		return
	}
	genre := request.PathParameter("genre")
	topN, err := ParseInt(request, "top_n", s.Config.Recommend.DefaultN)
	if err != nil {
		BadRequest(response, err)
		return
	}
	start := time.Now()
	scores, err := e.RecommendByCategory(userId, genre, topN)
	if err != nil {
		handleError(response, err)
		return
	}
	RecommendSeconds.WithLabelValues("genre").Observe(time.Since(start).Seconds())
	recommendations := s.enrich(e, scores)
	Ok(response, RecommendResponse{
		UserId:          userId,
		Genre:           genre,
		Recommendations: recommendations,
		Count:           len(recommendations),
	})
}

func (s *Server) getGenres(_ *restful.Request, response *restful.Response) {
	e, ok := s.engine(response)
	if !ok {
		return
	}
	vocabulary := e.CategoryVocabulary()
	Ok(response, GenresResponse{
		GenresEnglish: vocabulary.English,
		GenresKorean:  vocabulary.Korean,
		GenreMapping:  vocabulary.Mapping,
	})
}

func (s *Server) getMovie(request *restful.Request, response *restful.Response) {
	e, ok := s.engine(response)
	if !ok {
		return
	}
	movieId, err := ParsePathInt(request, "movie-id")
	if err != nil {
		BadRequest(response, err)
		return
	}
	item, exist := e.CatalogItem(movieId)
	if !exist {
		PageNotFound(response, errors.NotFoundf("movie %d", movieId))
		return
	}
	Ok(response, Movie{
		MovieId:     item.Id,
		Title:       item.Title,
		ReleaseDate: releaseDate(item),
		ImdbUrl:     item.Link,
		Genres:      item.CategoryFlags(),
	})
}

// enrich attaches movie details to scores. Movies missing from the catalog are dropped.
func (s *Server) enrich(e *engine.Engine, scores []logics.Score) []Recommendation {
	recommendations := make([]Recommendation, 0, len(scores))
	for _, score := range scores {
		item, exist := e.CatalogItem(score.Id)
		if !exist {
			continue
		}
		recommendations = append(recommendations, Recommendation{
			MovieId:     item.Id,
			Title:       item.Title,
			Score:       base.Round(score.Score, 2),
			ReleaseDate: releaseDate(item),
			Genres:      item.CategoryFlags(),
		})
	}
	return recommendations
}

func (s *Server) engine(response *restful.Response) (*engine.Engine, bool) {
	e, err := s.Engine.Load()
	if err != nil {
		ServiceUnavailable(response, err)
		return nil, false
	}
	return e, true
}

func releaseDate(item catalog.Item) string {
	if item.ReleaseDate == nil {
		return unknownReleaseDate
	}
	return catalog.FormatReleaseDate(item.ReleaseDate)
}

// ParseInt parses an integer query parameter. A missing parameter gives the default.
func ParseInt(request *restful.Request, name string, fallback int) (int, error) {
	valueString := request.QueryParameter(name)
	if valueString == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(valueString)
	if err != nil {
		return 0, errors.NotValidf("%s %q", name, valueString)
	}
	return value, nil
}

// ParsePathInt parses an integer path parameter.
func ParsePathInt(request *restful.Request, name string) (int, error) {
	valueString := request.PathParameter(name)
	value, err := strconv.Atoi(valueString)
	if err != nil {
		return 0, errors.NotValidf("%s %q", name, valueString)
	}
	return value, nil
}

func handleError(response *restful.Response, err error) {
	switch {
	case errors.Is(err, logics.ErrUnknownUser):
		PageNotFound(response, err)
	case errors.Is(err, catalog.ErrUnknownCategory):
		BadRequest(response, err)
	case errors.Is(err, engine.ErrNotReady):
		ServiceUnavailable(response, err)
	default:
		InternalServerError(response, err)
	}
}

// BadRequest returns a bad request error.
func BadRequest(response *restful.Response, err error) {
	log.ResponseLogger(response).Warn("bad request", zap.Error(err))
	writeError(response, http.StatusBadRequest, err)
}

// PageNotFound returns a not found error.
func PageNotFound(response *restful.Response, err error) {
	writeError(response, http.StatusNotFound, err)
}

// ServiceUnavailable is returned before the recommender is ready.
func ServiceUnavailable(response *restful.Response, err error) {
	writeError(response, http.StatusServiceUnavailable, err)
}

// InternalServerError returns a internal server error.
func InternalServerError(response *restful.Response, err error) {
	log.ResponseLogger(response).Error("internal server error", zap.Error(err))
	writeError(response, http.StatusInternalServerError, err)
}

func writeError(response *restful.Response, status int, err error) {
	if err := response.WriteHeaderAndJson(status, ErrorResponse{Error: err.Error()}, restful.MIME_JSON); err != nil {
		log.ResponseLogger(response).Error("failed to write error", zap.Error(err))
	}
}

// Ok sends the content as JSON to the client.
func Ok(response *restful.Response, content any) {
	if err := response.WriteAsJson(content); err != nil {
		log.ResponseLogger(response).Error("failed to write json", zap.Error(err))
	}
}
