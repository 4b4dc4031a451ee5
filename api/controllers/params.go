package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/folio-storefront/api/validators"
	"github.com/angelmondragon/folio-storefront/pkg/pagination"
)

func parsePagination(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}
