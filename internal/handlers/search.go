package handlers

import (
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"

	"github.com/avolkov/bookstore/internal/apperr"
	"github.com/avolkov/bookstore/internal/service/search"
	"github.com/avolkov/bookstore/internal/util"
)

type SearchHandler struct {
	ES    *elasticsearch.Client
	Index string
}

func (h *SearchHandler) Search(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return apperr.NewValidation(map[string]string{"q": "must not be blank"})
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	from, size := util.Offset(page, size)

	total, books, err := search.Search(c.Request().Context(), h.ES, h.Index, q, from, size)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"total": total, "books": books})
}
