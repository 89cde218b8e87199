package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sebastianleon1-sys/Zerby2/internal/errs"
	"github.com/sebastianleon1-sys/Zerby2/internal/middleware"
	"github.com/sebastianleon1-sys/Zerby2/internal/model"
	"github.com/sebastianleon1-sys/Zerby2/internal/validation"
)

type echoRequest struct {
	ID    int64   `param:"id" validate:"required,gt=0"`
	Texto string  `json:"texto" validate:"required"`
	Extra *string `json:"extra"`
}

func (r *echoRequest) Validate() error { return validation.Struct(r) }

func serve(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func testEcho() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if he, ok := err.(*errs.HTTPError); ok {
			_ = c.JSON(he.Status, he)
			return
		}
		e.DefaultHTTPErrorHandler(err, c)
	}
	return e
}

func TestHandle_BindsIntoFreshRequest(t *testing.T) {
	e := testEcho()
	h := Handler{}

	var seen []echoRequest
	e.POST("/items/:id", Handle(h, func(c echo.Context, req *echoRequest) (*echoRequest, error) {
		seen = append(seen, *req)
		return req, nil
	}, http.StatusCreated, &echoRequest{}))

	rec := serve(e, http.MethodPost, "/items/3", `{"texto":"uno","extra":"x"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = serve(e, http.MethodPost, "/items/4", `{"texto":"dos"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	require.Len(t, seen, 2)
	assert.Equal(t, int64(3), seen[0].ID)
	require.NotNil(t, seen[0].Extra)
	assert.Equal(t, int64(4), seen[1].ID)
	assert.Nil(t, seen[1].Extra, "fields from the previous call must not leak")
}

func TestHandle_ValidationFailureSkipsHandler(t *testing.T) {
	e := testEcho()
	called := false
	e.POST("/items/:id", Handle(Handler{}, func(c echo.Context, req *echoRequest) (string, error) {
		called = true
		return "ok", nil
	}, http.StatusOK, &echoRequest{}))

	rec := serve(e, http.MethodPost, "/items/1", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, called)

	var body errs.HTTPError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "texto", body.Errors[0].Field)
}

func TestHandleStatus_UsesChosenStatus(t *testing.T) {
	e := testEcho()
	e.POST("/items/:id", HandleStatus(Handler{}, func(c echo.Context, req *echoRequest) (Mensaje, int, error) {
		if req.Texto == "nuevo" {
			return Mensaje{Mensaje: "creado"}, http.StatusCreated, nil
		}
		return Mensaje{Mensaje: "existente"}, http.StatusOK, nil
	}, &echoRequest{}))

	assert.Equal(t, http.StatusCreated, serve(e, http.MethodPost, "/items/1", `{"texto":"nuevo"}`).Code)

	rec := serve(e, http.MethodPost, "/items/1", `{"texto":"otro"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"mensaje":"existente"}`, rec.Body.String())
}

func TestHandleNoContent(t *testing.T) {
	e := testEcho()
	e.DELETE("/items/:id", HandleNoContent(Handler{}, func(c echo.Context, req *echoRequest) error {
		if req.ID == 9 {
			return errs.NewForbiddenError("No", true)
		}
		return nil
	}, http.StatusNoContent, &echoRequest{}))

	assert.Equal(t, http.StatusNoContent, serve(e, http.MethodDelete, "/items/1", `{"texto":"a"}`).Code)
	assert.Equal(t, http.StatusForbidden, serve(e, http.MethodDelete, "/items/9", `{"texto":"a"}`).Code)
}

func TestPrincipal(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	_, err := principal(c)
	var he *errs.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusUnauthorized, he.Status)

	middleware.SetPrincipal(c, model.Principal{ID: 5, Tipo: model.AccountProveedor})
	p, err := principal(c)
	require.NoError(t, err)
	assert.Equal(t, int64(5), p.ID)
}

func TestAcceptRequest_Monto(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		valid bool
	}{
		{"number", `{"monto": 1500.5}`, true},
		{"string", `{"monto": "25000"}`, true},
		{"zero", `{"monto": 0}`, false},
		{"rounds to zero", `{"monto": "0.004"}`, false},
		{"negative", `{"monto": "-1"}`, false},
		{"missing", `{}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := testEcho()
			e.POST("/solicitudes/:id/aceptar", Handle(Handler{}, func(c echo.Context, req *AcceptRequest) (string, error) {
				return req.Monto.String(), nil
			}, http.StatusOK, &AcceptRequest{}))

			rec := serve(e, http.MethodPost, "/solicitudes/1/aceptar", tt.body)
			if tt.valid {
				assert.Equal(t, http.StatusOK, rec.Code)
			} else {
				assert.Equal(t, http.StatusBadRequest, rec.Code)
			}
		})
	}
}

func TestRegisterRequests_LimitsMatchColumns(t *testing.T) {
	long := func(n int) string { return strings.Repeat("a", n) }

	valid := func() map[string]any {
		return map[string]any{
			"nombre_completo": "Jorge Soto",
			"email":           "jorge@example.com",
			"password":        "secreto123",
			"telefono":        "+56912345678",
			"oficio":          "Electricista",
		}
	}

	tests := []struct {
		field string
		value string
	}{
		{"nombre_completo", long(101)},
		{"email", long(90) + "@example.com"},
		{"telefono", "+56 (9) 1234-5678"},
		{"oficio", long(51)},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			e := testEcho()
			e.POST("/registrar/proveedor", Handle(Handler{}, func(c echo.Context, req *RegisterProveedorRequest) (string, error) {
				return "ok", nil
			}, http.StatusCreated, &RegisterProveedorRequest{}))

			body := valid()
			body[tt.field] = tt.value
			raw, err := json.Marshal(body)
			require.NoError(t, err)

			rec := serve(e, http.MethodPost, "/registrar/proveedor", string(raw))
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var he errs.HTTPError
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &he))
			require.Len(t, he.Errors, 1)
			assert.Equal(t, tt.field, he.Errors[0].Field)
		})
	}

	t.Run("at the limit", func(t *testing.T) {
		e := testEcho()
		e.POST("/registrar/proveedor", Handle(Handler{}, func(c echo.Context, req *RegisterProveedorRequest) (string, error) {
			return "ok", nil
		}, http.StatusCreated, &RegisterProveedorRequest{}))

		body := valid()
		body["nombre_completo"] = long(100)
		body["telefono"] = "+56 9 1234 5678"
		body["oficio"] = long(50)
		raw, err := json.Marshal(body)
		require.NoError(t, err)

		assert.Equal(t, http.StatusCreated, serve(e, http.MethodPost, "/registrar/proveedor", string(raw)).Code)
	})
}

func TestUpdateProfileRequest_TelefonoLimit(t *testing.T) {
	e := testEcho()
	e.POST("/perfil", Handle(Handler{}, func(c echo.Context, req *UpdateProfileRequest) (string, error) {
		return "ok", nil
	}, http.StatusOK, &UpdateProfileRequest{}))

	assert.Equal(t, http.StatusBadRequest, serve(e, http.MethodPost, "/perfil", `{"telefono":"+56 (9) 1234-5678"}`).Code)
	assert.Equal(t, http.StatusOK, serve(e, http.MethodPost, "/perfil", `{"telefono":"+56912345678"}`).Code)
}

func TestConfirmRequest_Pin(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		valid bool
	}{
		{"six digits", `{"pin":"012345"}`, true},
		{"surrounding spaces", `{"pin":" 123456 "}`, true},
		{"too short", `{"pin":"12345"}`, false},
		{"letters", `{"pin":"12a456"}`, false},
		{"inner space", `{"pin":"123 456"}`, false},
		{"missing", `{}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			e := testEcho()
			e.POST("/solicitudes/:id/confirmar", Handle(Handler{}, func(c echo.Context, req *ConfirmRequest) (string, error) {
				called = true
				return "ok", nil
			}, http.StatusOK, &ConfirmRequest{}))

			rec := serve(e, http.MethodPost, "/solicitudes/1/confirmar", tt.body)
			if tt.valid {
				assert.Equal(t, http.StatusOK, rec.Code)
				return
			}
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.False(t, called, "malformed codes never reach the service")

			var he errs.HTTPError
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &he))
			require.Len(t, he.Errors, 1)
			assert.Equal(t, "pin", he.Errors[0].Field)
		})
	}
}
