package model_http

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charleschow/lol-valuebets/internal/core/value"
)

func drafted() value.PredictRequest {
	return value.PredictRequest{
		League:     "LCK",
		Team1:      [5]string{"Rumble", "Vi", "Azir", "Varus", "Rell"},
		Team2:      [5]string{"KSante", "Sejuani", "Taliyah", "Kalista", "Rakan"},
		Stat:       "total_kills",
		Line:       26.0,
		LeagueMean: 26.0,
		LeagueStd:  6.0,
	}
}

func TestPredictAtLeagueMean(t *testing.T) {
	var got predictRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/predict" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"prob_over_mean": 0.7}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	pred, err := c.Predict(context.Background(), drafted())
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if got.Team2.ADC != "Kalista" || got.League != "LCK" {
		t.Errorf("request body = %+v", got)
	}

	// At the mean (z=0) the sigmoid is 0.5: p + (1-p)*0.5*0.3.
	want := 0.7 + 0.3*0.5*0.3
	if over := pred.Probs[value.SideOver]; math.Abs(over-want) > 1e-9 {
		t.Errorf("over = %v, want %v", over, want)
	}
	if side, _ := pred.Favored(); side != value.SideOver {
		t.Errorf("favored = %s", side)
	}
}

func TestPredictUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	c := NewClient(srv.URL, time.Second)

	if _, err := c.Predict(context.Background(), drafted()); !errors.Is(err, value.ErrModelUnavailable) {
		t.Errorf("503 err = %v, want ErrModelUnavailable", err)
	}

	partial := drafted()
	partial.Team1[4] = ""
	if _, err := c.Predict(context.Background(), partial); !errors.Is(err, value.ErrModelUnavailable) {
		t.Errorf("partial draft err = %v, want ErrModelUnavailable", err)
	}
}
