// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultPaginationCount = 100
	MaxPaginationCount     = 100
	DefaultPaginationPage  = 1
	PaginationOrderAsc     = "asc"
	PaginationOrderDesc    = "desc"
)

var ErrInvalidPaginationParameters = errors.New(
	"invalid pagination parameters",
)

// PaginationParams contains parsed pagination query values
type PaginationParams struct {
	Order string
	Count int
	Page  int
}

// ParsePagination reads the count, page and order query parameters. Count
// and page are clamped into range rather than rejected.
func ParsePagination(r *http.Request) (PaginationParams, error) {
	query := r.URL.Query()
	count, err := intParam(query, "count", DefaultPaginationCount)
	if err != nil {
		return PaginationParams{}, err
	}
	page, err := intParam(query, "page", DefaultPaginationPage)
	if err != nil {
		return PaginationParams{}, err
	}
	order := PaginationOrderAsc
	if raw := query.Get("order"); raw != "" {
		order = strings.ToLower(raw)
		if order != PaginationOrderAsc && order != PaginationOrderDesc {
			return PaginationParams{}, ErrInvalidPaginationParameters
		}
	}
	return PaginationParams{
		Count: min(max(count, 1), MaxPaginationCount),
		Page:  max(page, 1),
		Order: order,
	}, nil
}

func intParam(query url.Values, name string, def int) (int, error) {
	raw := query.Get(name)
	if raw == "" {
		return def, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, ErrInvalidPaginationParameters
	}
	return val, nil
}

// SetPaginationHeaders reports the total item and page counts of a listing
func SetPaginationHeaders(
	w http.ResponseWriter,
	totalItems int,
	params PaginationParams,
) {
	totalItems = max(totalItems, 0)
	count := params.Count
	if count < 1 {
		count = DefaultPaginationCount
	}
	totalPages := (totalItems + count - 1) / count
	w.Header().Set("X-Pagination-Count-Total", strconv.Itoa(totalItems))
	w.Header().Set("X-Pagination-Page-Total", strconv.Itoa(totalPages))
}

// paginate applies the pagination parameters to an already ordered slice
func paginate[T any](items []T, params PaginationParams) []T {
	if params.Order == PaginationOrderDesc {
		reversed := make([]T, len(items))
		for i, item := range items {
			reversed[len(items)-1-i] = item
		}
		items = reversed
	}
	start := (params.Page - 1) * params.Count
	if start >= len(items) {
		return []T{}
	}
	end := min(start+params.Count, len(items))
	return items[start:end]
}
