package echomw_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/dlcheck/middleware"
	echomw "github.com/reoring/dlcheck/middleware/echo"
)

func newServer() *echo.Echo {
	e := echo.New()
	e.POST("/v1/validate/:event", func(c echo.Context) error {
		res, ok := echomw.GetResult(c)
		if !ok {
			return c.NoContent(http.StatusInternalServerError)
		}
		return c.JSON(http.StatusOK, res.Report)
	}, echomw.ValidateEvent(middleware.DefaultConfig(), "event"))
	return e
}

func post(t *testing.T, e *echo.Echo, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return rec, out
}

func TestValidateEvent_Valid(t *testing.T) {
	rec, out := post(t, newServer(), "/v1/validate/form_submission_success",
		`{"event":"form_submission_success","form_id":"contact_us","form_type":"lead","form_location":"footer"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["isValid"])
	assert.Equal(t, []any{}, out["violations"])
}

func TestValidateEvent_Invalid(t *testing.T) {
	rec, out := post(t, newServer(), "/v1/validate/form_submission_success",
		`{"event":"form_submission_success","form_id":"contact_us","form_type":"spam","form_location":"footer"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, false, out["isValid"])
	vs := out["violations"].([]any)
	require.Len(t, vs, 1)
	assert.Equal(t, "form_type", vs[0].(map[string]any)["path"])
}

func TestValidateEvent_UnknownAndBadBody(t *testing.T) {
	e := newServer()
	rec, _ := post(t, e, "/v1/validate/page_view", `{"event":"page_view"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, out := post(t, e, "/v1/validate/purchase", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, out, "error")
}
