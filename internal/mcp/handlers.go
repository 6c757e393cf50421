package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/lightspeed/internal/core"
	"github.com/standardbeagle/lightspeed/internal/debug"
	lserrors "github.com/standardbeagle/lightspeed/internal/errors"
	"github.com/standardbeagle/lightspeed/internal/types"
)

// SearchParams are the arguments of search_files. Threshold is a pointer so
// an explicit 0 can be told apart from "use the configured default".
type SearchParams struct {
	Query     string `json:"query"`
	Fuzzy     bool   `json:"fuzzy"`
	Threshold *int64 `json:"threshold,omitempty"`
	Max       int    `json:"max,omitempty"`
	Strategy  string `json:"strategy,omitempty"`
}

// UnmarshalJSON accepts "pattern" for query and "max_results" for max so
// clients written against grep-style tools keep working.
func (p *SearchParams) UnmarshalJSON(data []byte) error {
	type alias SearchParams
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for legacy, name := range map[string]string{"pattern": "query", "max_results": "max"} {
		if v, ok := raw[legacy]; ok {
			if _, set := raw[name]; !set {
				raw[name] = v
			}
			delete(raw, legacy)
		}
	}
	normalized, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(normalized, (*alias)(p))
}

// FileHit is one result of search_files.
type FileHit struct {
	Path     string    `json:"path"`
	Name     string    `json:"name"`
	Size     uint64    `json:"size"`
	Modified time.Time `json:"modified"`
	Score    int64     `json:"score"`
}

// SearchResponse is the payload of search_files.
type SearchResponse struct {
	Query    string    `json:"query"`
	Fuzzy    bool      `json:"fuzzy"`
	Strategy string    `json:"strategy,omitempty"`
	Total    int       `json:"total"`
	Returned int       `json:"returned"`
	Hits     []FileHit `json:"hits"`
}

// InfoResponse is the payload of index_info.
type InfoResponse struct {
	core.Stats
	Fingerprint  string    `json:"fingerprint"`
	LastUpdated  time.Time `json:"last_updated"`
	IndexedPaths []string  `json:"indexed_paths"`
}

func (s *Server) handleSearchFiles(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params SearchParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return createErrorResponse(toolSearchFiles, fmt.Errorf("invalid parameters: %w", err))
	}
	if params.Query == "" {
		return createErrorResponse(toolSearchFiles, errors.New("query is required"))
	}

	strategy := s.cfg.Search.FuzzyStrategy
	if params.Strategy != "" {
		strategy = types.FuzzyStrategy(params.Strategy)
	}
	if !strategy.Valid() {
		return createErrorResponse(toolSearchFiles,
			fmt.Errorf("unknown strategy %q: expected parallel, symspell or hybrid", strategy))
	}
	threshold := s.cfg.Search.FuzzyThreshold
	if params.Threshold != nil {
		threshold = *params.Threshold
	}
	limit := s.cfg.Search.MaxResults
	if params.Max > 0 {
		limit = params.Max
	}

	idx := s.source.Current()
	if idx == nil {
		return createErrorResponse(toolSearchFiles, lserrors.ErrNoIndex)
	}

	results, err := idx.SearchWith(ctx, core.SearchRequest{
		Query:     params.Query,
		Fuzzy:     params.Fuzzy,
		Threshold: threshold,
		Strategy:  strategy,
	})
	if err != nil {
		return createErrorResponse(toolSearchFiles, err)
	}

	hits := idx.Resolve(results, limit)
	resp := SearchResponse{
		Query:    params.Query,
		Fuzzy:    params.Fuzzy,
		Total:    len(results),
		Returned: len(hits),
		Hits:     make([]FileHit, len(hits)),
	}
	if params.Fuzzy {
		resp.Strategy = strategy.String()
	}
	for i, h := range hits {
		resp.Hits[i] = FileHit{
			Path:     h.Entry.Path,
			Name:     h.Entry.Name,
			Size:     h.Entry.Size,
			Modified: h.Entry.Modified,
			Score:    h.Score,
		}
	}

	debug.LogMCP("search_files %q fuzzy=%v: %d of %d\n", params.Query, params.Fuzzy, resp.Returned, resp.Total)
	return createJSONResponse(resp)
}

func (s *Server) handleIndexInfo(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idx := s.source.Current()
	if idx == nil {
		return createErrorResponse(toolIndexInfo, lserrors.ErrNoIndex)
	}
	return createJSONResponse(InfoResponse{
		Stats:        idx.Stats(),
		Fingerprint:  strconv.FormatUint(idx.Fingerprint(), 16),
		LastUpdated:  idx.LastUpdated(),
		IndexedPaths: idx.IndexedPaths(),
	})
}
