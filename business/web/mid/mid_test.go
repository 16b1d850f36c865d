package mid_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/ardanlabs/dapp/business/web/errs"
	"github.com/ardanlabs/dapp/business/web/mid"
	"github.com/ardanlabs/dapp/foundation/web"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestMiddleware(t *testing.T) {
	log := zap.NewNop().Sugar()

	app := web.NewApp(
		make(chan os.Signal, 1),
		mid.Logger(log),
		mid.Errors(log),
		mid.Metrics(),
		mid.Panics(),
	)

	app.Handle(http.MethodGet, "v1", "/ok", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return web.Respond(ctx, w, map[string]string{"status": "ok"}, http.StatusOK)
	})
	app.Handle(http.MethodGet, "v1", "/trusted", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return errs.NewTrustedKind(errors.New("busy"), http.StatusConflict, "busy")
	})
	app.Handle(http.MethodGet, "v1", "/untrusted", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return errors.New("database password leaked")
	})
	app.Handle(http.MethodGet, "v1", "/panic", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		panic("boom")
	})
	app.Handle(http.MethodPost, "v1", "/limited", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}, mid.RateLimit(1, 2))

	type table struct {
		method string
		path   string
		status int
		errMsg string
	}

	tt := []table{
		{method: http.MethodGet, path: "/v1/ok", status: http.StatusOK},
		{method: http.MethodGet, path: "/v1/trusted", status: http.StatusConflict, errMsg: "busy"},
		{method: http.MethodGet, path: "/v1/untrusted", status: http.StatusInternalServerError, errMsg: "Internal Server Error"},
		{method: http.MethodGet, path: "/v1/panic", status: http.StatusInternalServerError, errMsg: "Internal Server Error"},
		{method: http.MethodPost, path: "/v1/limited", status: http.StatusNoContent},
		{method: http.MethodPost, path: "/v1/limited", status: http.StatusNoContent},
		{method: http.MethodPost, path: "/v1/limited", status: http.StatusTooManyRequests, errMsg: "rate limit exceeded"},
	}

	t.Log("Given the need to handle requests through the middleware chain.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling %s %s.", testID, tst.method, tst.path)
			{
				w := httptest.NewRecorder()
				app.ServeHTTP(w, httptest.NewRequest(tst.method, tst.path, nil))

				if w.Code != tst.status {
					t.Fatalf("\t%s\tTest %d:\tShould receive a %d status code: %d", failed, testID, tst.status, w.Code)
				}
				t.Logf("\t%s\tTest %d:\tShould receive a %d status code.", success, testID, tst.status)

				if tst.errMsg == "" {
					continue
				}

				var er errs.Response
				if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould decode the error: %s", failed, testID, err)
				}

				if er.Error != tst.errMsg {
					t.Fatalf("\t%s\tTest %d:\tShould return %q: %q", failed, testID, tst.errMsg, er.Error)
				}
				t.Logf("\t%s\tTest %d:\tShould return the expected error.", success, testID)
			}
		}
	}
}
