package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type vehicleBody struct {
	RegNumber string  `json:"reg_number" validate:"required"`
	DailyRate float64 `json:"daily_hire_rate" validate:"gt=0"`
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusForbidden, "nope")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"nope"}`, rec.Body.String())
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"valid", `{"reg_number":"AB12","daily_hire_rate":40}`, ""},
		{"not json", `{`, ErrBadBody.Error()},
		{"missing field", `{"daily_hire_rate":40}`, "reg_number is required"},
		{"bad rate", `{"reg_number":"AB12","daily_hire_rate":0}`, "daily_hire_rate must be greater than 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var v vehicleBody
			err := Decode(req, &v)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "AB12", v.RegNumber)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}

func TestPathID(t *testing.T) {
	for raw, want := range map[string]bool{"7": true, "0": false, "-3": false, "12abc": false, "x": false} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.SetPathValue("id", raw)
		_, ok := PathID(req)
		assert.Equal(t, want, ok, raw)
	}
}
