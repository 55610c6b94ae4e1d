package controllers

import (
	"context"
	"math"
	"net/http"

	"github.com/angelmondragon/photoalbum-backend/api/responses"
	"github.com/angelmondragon/photoalbum-backend/api/validators"
	"github.com/angelmondragon/photoalbum-backend/pkg/db/models"
	"github.com/angelmondragon/photoalbum-backend/pkg/logger"
)

// NavigationService answers the read-only browse queries.
type NavigationService interface {
	ListYears(ctx context.Context) ([]int, error)
	ListMonths(ctx context.Context, year int) ([]models.MonthCount, error)
	ListMedia(ctx context.Context, album string, year, month int) ([]models.MediaFile, error)
	ListAlbums(ctx context.Context) ([]string, error)
}

// Years lists every year holding media, newest first.
func Years(svc NavigationService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		years, err := svc.ListYears(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, years)
	}
}

// Months lists per-month counts for the {year} path parameter.
func Months(svc NavigationService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		year, err := validators.ParsePathInt(r, "year", math.MinInt, math.MaxInt)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		months, err := svc.ListMonths(r.Context(), year)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, months)
	}
}

// MediaByQuery serves GET /media?album=&year=&month=.
func MediaByQuery(svc NavigationService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		year, err := validators.RequireQueryInt(r, "year", math.MinInt, math.MaxInt)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		month, err := validators.RequireQueryInt(r, "month", math.MinInt, math.MaxInt)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		listMedia(w, r, svc, logg, year, month)
	}
}

// MediaByPath serves GET /media/{year}/{month} with an optional album query.
func MediaByPath(svc NavigationService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		year, err := validators.ParsePathInt(r, "year", math.MinInt, math.MaxInt)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		month, err := validators.ParsePathInt(r, "month", math.MinInt, math.MaxInt)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		listMedia(w, r, svc, logg, year, month)
	}
}

func listMedia(w http.ResponseWriter, r *http.Request, svc NavigationService, logg *logger.Logger, year, month int) {
	files, err := svc.ListMedia(r.Context(), validators.AlbumQuery(r), year, month)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccess(w, files)
}

func Albums(svc NavigationService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		albums, err := svc.ListAlbums(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, albums)
	}
}
