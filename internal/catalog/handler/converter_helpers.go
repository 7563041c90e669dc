package handler

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/narwhalmedia/fantasycards/internal/catalog/domain"
	apperrors "github.com/narwhalmedia/fantasycards/pkg/errors"
)

// parseKind converts the {kind} path segment to a catalog kind.
func parseKind(s string) (domain.Kind, error) {
	kind, err := domain.ParseKind(s)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrorTypeNotFound, fmt.Sprintf("no catalog named %q", s), err)
	}
	return kind, nil
}

// parseFilter reads browse constraints from the query string. Screen
// catalogs take genre, books take subject; either name is accepted.
func parseFilter(q url.Values) (domain.FilterSpec, error) {
	var f domain.FilterSpec

	f.Category = strings.TrimSpace(q.Get("genre"))
	if f.Category == "" {
		f.Category = strings.TrimSpace(q.Get("subject"))
	}
	f.Author = q.Get("author")
	f.Query = q.Get("q")

	if raw := q.Get("min_rating"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return f, apperrors.BadRequest(fmt.Sprintf("invalid min_rating %q", raw))
		}
		f.MinRating = &v
	}
	if raw := q.Get("decade"); raw != "" {
		v, err := strconv.Atoi(strings.TrimSuffix(raw, "s"))
		if err != nil || v < 0 {
			return f, apperrors.BadRequest(fmt.Sprintf("invalid decade %q", raw))
		}
		f.DecadeStart = &v
	}

	sortKey, ok := domain.ParseSortKey(q.Get("sort"))
	if !ok {
		return f, apperrors.BadRequest(fmt.Sprintf("invalid sort %q", q.Get("sort")))
	}
	f.Sort = sortKey
	return f, nil
}

// parsePages reads the explicit window size; absent means one page.
func parsePages(q url.Values) (int, error) {
	raw := q.Get("pages")
	if raw == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, apperrors.BadRequest(fmt.Sprintf("invalid pages %q", raw))
	}
	return n, nil
}
