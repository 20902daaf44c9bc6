package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/fintrack/internal/domain/transaction"
	"github.com/geocoder89/fintrack/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

func bindProbe(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()

	r := gin.New()

	r.POST("/probe", func(c *gin.Context) {
		var req transaction.CreateTransactionRequest

		if !handlers.BindJSON(c, &req) {
			return
		}

		c.JSON(http.StatusOK, req)
	})

	req := httptest.NewRequest(http.MethodPost, "/probe", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func TestBindJSONReportsJSONFieldNames(t *testing.T) {
	w := bindProbe(t, `{"amount": -5, "type": "income", "category": "salary"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400", w.Code)
	}

	var resp struct {
		Error struct {
			Details struct {
				Fields []handlers.FieldError `json:"fields"`
			} `json:"details"`
		} `json:"error"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("could not decode body: %v", err)
	}

	if len(resp.Error.Details.Fields) != 1 {
		t.Fatalf("expected one field error, got %s", w.Body.String())
	}

	fe := resp.Error.Details.Fields[0]

	// the json tag, not the Go struct field name
	if fe.Field != "amount" || fe.Rule != "min" {
		t.Fatalf("unexpected field error: %+v", fe)
	}
}

func TestBindJSONRejectsSyntaxErrors(t *testing.T) {
	w := bindProbe(t, `{"amount": `)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400", w.Code)
	}
}

func TestBindJSONRejectsTypeMismatch(t *testing.T) {
	w := bindProbe(t, `{"amount": "lots", "type": "income", "category": "salary"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400", w.Code)
	}
}

func TestBindJSONAcceptsValidPayload(t *testing.T) {
	w := bindProbe(t, `{"amount": 100, "type": "expense", "category": "groceries", "date": "2025-09-01"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}
}
