package server

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ncobase/searchsync/ecode"
	"github.com/ncobase/searchsync/net/resp"
	"github.com/ncobase/searchsync/search"
)

var indexNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// searchResponse is the public shape of a search result.
type searchResponse struct {
	Hits               []search.Document           `json:"hits"`
	EstimatedTotalHits int64                       `json:"estimatedTotalHits"`
	ProcessingTimeMs   int64                       `json:"processingTimeMs"`
	FacetDistribution  map[string]map[string]int64 `json:"facetDistribution"`
}

func (s *Server) health(c *gin.Context) {
	if err := s.catalog.Health(c.Request.Context()); err != nil {
		s.logger.Warnf(c.Request.Context(), "health check failed: %v", err)
		resp.Fail(c.Writer, resp.FromCode(ecode.EngineDown))
		return
	}
	resp.Success(c.Writer, map[string]any{"status": "ok"})
}

func (s *Server) search(c *gin.Context) {
	index := c.Param("index")
	if index == "" {
		index = c.Query("index")
	}
	if !indexNamePattern.MatchString(index) {
		resp.Fail(c.Writer, resp.FromCode(ecode.InvalidIndexName))
		return
	}
	// An index outside the allowlist looks the same as a missing one.
	if !s.cfg.Data.Search.Allowed(index) {
		resp.Fail(c.Writer, resp.FromCode(ecode.IndexNotFound))
		return
	}

	q, err := s.buildQuery(c, index)
	if err != nil {
		resp.Fail(c.Writer, resp.BadRequest(err.Error()))
		return
	}

	res, err := q.Get(c.Request.Context())
	if err != nil {
		s.fail(c, index, err)
		return
	}
	resp.Success(c.Writer, &searchResponse{
		Hits:               res.Hits,
		EstimatedTotalHits: res.EstimatedTotalHits,
		ProcessingTimeMs:   res.ProcessingTimeMs,
		FacetDistribution:  res.FacetDistribution,
	})
}

// buildQuery reads q, filter, facets, sort, limit and offset. filter may be
// repeated; facets and sort also accept comma separated lists.
func (s *Server) buildQuery(c *gin.Context, index string) (*search.Query, error) {
	q := search.NewQuery(s.engine, nil, c.Query("q")).Within(index)

	for _, f := range c.QueryArray("filter") {
		if f = strings.TrimSpace(f); f != "" {
			q.WhereRaw(f)
		}
	}
	if facets := splitList(c.QueryArray("facets")); len(facets) > 0 {
		q.Facets(facets...)
	}
	for _, item := range splitList(c.QueryArray("sort")) {
		attr, dir, _ := strings.Cut(item, ":")
		q.OrderBy(attr, dir)
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.New(ecode.FieldIsInvalid("limit"))
		}
		q.Limit(n)
	}
	if v := c.Query("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.New(ecode.FieldIsInvalid("offset"))
		}
		q.Offset(n)
	}
	if err := q.Err(); err != nil {
		return nil, err
	}
	return q, nil
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// fail maps engine errors to responses. Engine messages stay in the logs.
func (s *Server) fail(c *gin.Context, index string, err error) {
	switch {
	case errors.Is(err, search.ErrIndexNotFound):
		resp.Fail(c.Writer, resp.FromCode(ecode.IndexNotFound))
	case errors.Is(err, search.ErrInvalidArgument), errors.Is(err, search.ErrInvalidOperator):
		resp.Fail(c.Writer, resp.BadRequest(err.Error()))
	default:
		s.logger.Errorf(c.Request.Context(), "search %s failed: %v", index, err)
		resp.Fail(c.Writer, resp.InternalServer(ecode.Failed("search")))
	}
}

func (s *Server) status(c *gin.Context) {
	indexes, err := s.catalog.GetAllIndexes(c.Request.Context())
	if err != nil {
		s.logger.Errorf(c.Request.Context(), "list indexes failed: %v", err)
		resp.Fail(c.Writer, resp.InternalServer(ecode.Failed("list indexes")))
		return
	}
	if indexes == nil {
		indexes = []search.IndexInfo{}
	}
	resp.Success(c.Writer, map[string]any{"indexes": indexes})
}
